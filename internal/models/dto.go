package models

import "time"

// ---- Request / Response DTOs ----
//
// `validate` tags are evaluated by the validate package, which reports
// every failing field at once. Handlers trim string fields before
// validating so whitespace-only input counts as empty.

type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SkillInput is one skill entry in a profile or add-skill payload.
type SkillInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// ProfileUpdateRequest changes any subset of profile fields. Nil or
// omitted fields are left unchanged; a present skill list replaces the
// stored one wholesale.
type ProfileUpdateRequest struct {
	Name          *string       `json:"name" validate:"omitempty,min=1,max=100"`
	Location      *string       `json:"location" validate:"omitempty,max=100"`
	Avatar        *string       `json:"avatar" validate:"omitempty,max=500"`
	IsPublic      *bool         `json:"is_public"`
	SkillsOffered []SkillInput  `json:"skills_offered" validate:"omitempty,max=20,dive"`
	SkillsWanted  []SkillInput  `json:"skills_wanted" validate:"omitempty,max=20,dive"`
	Availability  *Availability `json:"availability"`
}

// ProfileSetupRequest is the first-time setup wizard payload.
type ProfileSetupRequest struct {
	Name          string       `json:"name" validate:"omitempty,max=100"`
	Location      string       `json:"location" validate:"max=100"`
	Avatar        string       `json:"avatar" validate:"max=500"`
	SkillsOffered []SkillInput `json:"skills_offered" validate:"required,min=1,max=20,dive"`
	SkillsWanted  []SkillInput `json:"skills_wanted" validate:"required,min=1,max=20,dive"`
	Availability  Availability `json:"availability"`
}

type CreateExchangeRequest struct {
	RecipientID  string `json:"recipient_id" validate:"required"`
	SkillOffered string `json:"skill_offered" validate:"required,max=100"`
	SkillWanted  string `json:"skill_wanted" validate:"required,max=100"`
	Message      string `json:"message" validate:"required,min=10,max=1000"`
	Duration     string `json:"duration" validate:"max=50"`
}

type AcceptExchangeRequest struct {
	Message string `json:"message" validate:"max=500"`
}

type RejectExchangeRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// AcceptResponse carries the conversation id so the client can open the
// new thread directly.
type AcceptResponse struct {
	Request        ExchangeRequest `json:"request"`
	ConversationID string          `json:"conversation_id"`
}

// RejectResponse echoes the reason; it is not stored.
type RejectResponse struct {
	Request ExchangeRequest `json:"request"`
	Reason  string          `json:"reason,omitempty"`
}

type RequestsResponse struct {
	Incoming []ExchangeRequest `json:"incoming"`
	Outgoing []ExchangeRequest `json:"outgoing"`
}

type SendMessageRequest struct {
	Content string      `json:"content" validate:"required,max=2000"`
	Type    MessageType `json:"type" validate:"omitempty,oneof=text file"`
	FileURL string      `json:"file_url" validate:"omitempty,url,max=500"`
}

type CreateConversationRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
	Message       string `json:"message" validate:"max=2000"`
}

type CreateConversationResponse struct {
	ConversationID string `json:"conversation_id"`
	Created        bool   `json:"created"`
}

// ConversationSummary is one row of the caller's conversation list.
type ConversationSummary struct {
	ID               string       `json:"id"`
	OtherParticipant UserSummary  `json:"other_participant"`
	LastMessage      *LastMessage `json:"last_message"`
	UnreadCount      int          `json:"unread_count"`
	RequestID        string       `json:"request_id,omitempty"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// NewPagination derives HasMore from the totals.
func NewPagination(page, limit, total int) Pagination {
	return Pagination{Page: page, Limit: limit, Total: total, HasMore: page*limit < total}
}

type ConversationDetail struct {
	Conversation     Conversation `json:"conversation"`
	OtherParticipant UserSummary  `json:"other_participant"`
	Messages         []Message    `json:"messages"`
	Pagination       Pagination   `json:"pagination"`
}

type UserSearchResponse struct {
	Users      []PublicProfile `json:"users"`
	Pagination Pagination      `json:"pagination"`
}

// ---- Admin ----

type AdminUserStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type AdminSkillApprovalRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

type SkillCount struct {
	Name  string `json:"name"`
	Users int    `json:"users"`
}

type AdminStats struct {
	Users struct {
		Total             int `json:"total"`
		Active            int `json:"active"`
		Public            int `json:"public"`
		ProfilesCompleted int `json:"profiles_completed"`
		Admins            int `json:"admins"`
		NewLast7Days      int `json:"new_last_7_days"`
	} `json:"users"`
	Requests      map[RequestStatus]int `json:"requests"`
	Conversations int                   `json:"conversations"`
	Messages      int                   `json:"messages"`
	TopSkills     []SkillCount          `json:"top_skills"`
}

type AdminUsersResponse struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// SkillsResponse returns one skill list after an add or remove.
type SkillsResponse struct {
	List   SkillList    `json:"list"`
	Skills []SkillEntry `json:"skills"`
}

type DeletedResponse struct {
	Deleted bool `json:"deleted"`
}

type MarkReadResponse struct {
	Marked int `json:"marked"`
}
