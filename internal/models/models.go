package models

import (
	"strings"
	"time"
)

// UserRole defines the type of user account.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// RequestStatus represents the lifecycle state of an exchange request.
// Pending is the only initial state; the other three are terminal.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestRejected  RequestStatus = "rejected"
	RequestCompleted RequestStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestAccepted, RequestRejected, RequestCompleted:
		return true
	}
	return false
}

// MessageType distinguishes human messages from platform-authored ones.
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

// MessageStatus is the delivery state of a message.
type MessageStatus string

const (
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
)

// SkillList names one of a user's two skill lists.
type SkillList string

const (
	SkillsOffered SkillList = "offered"
	SkillsWanted  SkillList = "wanted"
)

// Valid reports whether l is "offered" or "wanted".
func (l SkillList) Valid() bool { return l == SkillsOffered || l == SkillsWanted }

// SkillEntry is a (name, description) pair a user teaches or wants to
// learn. Approved is only meaningful for offered skills.
type SkillEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Approved    bool   `json:"approved,omitempty"`
}

// SkillKey is the normalised form used for every skill-name comparison.
func SkillKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FindSkill returns the index of the entry whose name matches name
// case-insensitively, or -1.
func FindSkill(list []SkillEntry, name string) int {
	key := SkillKey(name)
	for i, s := range list {
		if SkillKey(s.Name) == key {
			return i
		}
	}
	return -1
}

// Availability holds five independent flags; any combination is allowed.
type Availability struct {
	Weekdays   bool `json:"weekdays"`
	Weekends   bool `json:"weekends"`
	Mornings   bool `json:"mornings"`
	Afternoons bool `json:"afternoons"`
	Evenings   bool `json:"evenings"`
}

// Any reports whether at least one flag is set.
func (a Availability) Any() bool {
	return a.Weekdays || a.Weekends || a.Mornings || a.Afternoons || a.Evenings
}

// User is the full account record.
type User struct {
	ID               string       `json:"id"`
	Email            string       `json:"email,omitempty"`
	PasswordHash     string       `json:"-"`
	Name             string       `json:"name"`
	Location         string       `json:"location"`
	Avatar           string       `json:"avatar"`
	IsPublic         bool         `json:"is_public"`
	Role             UserRole     `json:"role"`
	IsActive         bool         `json:"is_active"`
	ProfileCompleted bool         `json:"profile_completed"`
	Rating           float64      `json:"rating"`
	TotalExchanges   int          `json:"total_exchanges"`
	Availability     Availability `json:"availability"`
	SkillsOffered    []SkillEntry `json:"skills_offered"`
	SkillsWanted     []SkillEntry `json:"skills_wanted"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`

	// Populated on read
	ProfileCompleteness int `json:"profile_completeness"`
}

// Skills returns the named list.
func (u *User) Skills(list SkillList) []SkillEntry {
	if list == SkillsWanted {
		return u.SkillsWanted
	}
	return u.SkillsOffered
}

// SetSkills replaces the named list.
func (u *User) SetSkills(list SkillList, skills []SkillEntry) {
	if skills == nil {
		skills = []SkillEntry{}
	}
	if list == SkillsWanted {
		u.SkillsWanted = skills
		return
	}
	u.SkillsOffered = skills
}

// Completeness is the percentage of optional profile items filled in:
// name, location, avatar, offered skills, wanted skills, availability.
func (u *User) Completeness() int {
	filled := 0
	for _, ok := range []bool{
		strings.TrimSpace(u.Name) != "",
		strings.TrimSpace(u.Location) != "",
		strings.TrimSpace(u.Avatar) != "",
		len(u.SkillsOffered) > 0,
		len(u.SkillsWanted) > 0,
		u.Availability.Any(),
	} {
		if ok {
			filled++
		}
	}
	return filled * 100 / 6
}

// Normalize fills nil slices and the derived completeness so the JSON
// encoding is stable ([] rather than null).
func (u *User) Normalize() {
	if u.SkillsOffered == nil {
		u.SkillsOffered = []SkillEntry{}
	}
	if u.SkillsWanted == nil {
		u.SkillsWanted = []SkillEntry{}
	}
	u.ProfileCompleteness = u.Completeness()
}

// PublicProfile is what other users see of a public account: no email,
// no moderation flags.
type PublicProfile struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Location       string       `json:"location"`
	Avatar         string       `json:"avatar"`
	IsPublic       bool         `json:"is_public"`
	Rating         float64      `json:"rating"`
	TotalExchanges int          `json:"total_exchanges"`
	Availability   Availability `json:"availability"`
	SkillsOffered  []SkillEntry `json:"skills_offered"`
	SkillsWanted   []SkillEntry `json:"skills_wanted"`
	CreatedAt      time.Time    `json:"created_at"`
}

// PrivateProfile is the reduced shape returned for a private account
// viewed by anyone but its owner.
type PrivateProfile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsPublic bool   `json:"is_public"`
}

// Public projects the user onto the fields other users may see.
func (u *User) Public() PublicProfile {
	u.Normalize()
	return PublicProfile{
		ID:             u.ID,
		Name:           u.Name,
		Location:       u.Location,
		Avatar:         u.Avatar,
		IsPublic:       u.IsPublic,
		Rating:         u.Rating,
		TotalExchanges: u.TotalExchanges,
		Availability:   u.Availability,
		SkillsOffered:  u.SkillsOffered,
		SkillsWanted:   u.SkillsWanted,
		CreatedAt:      u.CreatedAt,
	}
}

// UserSummary is the compact party shape embedded in requests and
// conversations.
type UserSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Avatar   string  `json:"avatar"`
	Location string  `json:"location"`
	Rating   float64 `json:"rating"`
}

// Summary projects the user onto a UserSummary.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Location: u.Location, Rating: u.Rating}
}

// ExchangeRequest is a directional proposal to trade one taught skill for another.
type ExchangeRequest struct {
	ID           string        `json:"id"`
	FromID       string        `json:"from_id"`
	ToID         string        `json:"to_id"`
	SkillOffered string        `json:"skill_offered"`
	SkillWanted  string        `json:"skill_wanted"`
	Message      string        `json:"message"`
	Duration     string        `json:"duration"`
	Status       RequestStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	// Populated on read
	From *UserSummary `json:"from,omitempty"`
	To   *UserSummary `json:"to,omitempty"`
}

// IsParty reports whether userID is the sender or the recipient.
func (r *ExchangeRequest) IsParty(userID string) bool {
	return r.FromID == userID || r.ToID == userID
}

// DefaultDuration is used when a request omits its duration.
const DefaultDuration = "1 hour"

// LastMessage is the denormalised tail of a conversation.
type LastMessage struct {
	Content   string    `json:"content"`
	SenderID  string    `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is the unique message thread for an unordered pair of users.
type Conversation struct {
	ID           string       `json:"id"`
	Participants [2]string    `json:"participants"`
	RequestID    string       `json:"request_id,omitempty"`
	LastMessage  *LastMessage `json:"last_message"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Has reports whether userID participates in the conversation.
func (c *Conversation) Has(userID string) bool {
	return c.Participants[0] == userID || c.Participants[1] == userID
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID string) string {
	if c.Participants[0] == userID {
		return c.Participants[1]
	}
	return c.Participants[0]
}

// RecentAt is the time used to order conversations by recency.
func (c *Conversation) RecentAt() time.Time {
	if c.LastMessage != nil {
		return c.LastMessage.CreatedAt
	}
	return c.UpdatedAt
}

// Pair orders two user ids so an unordered pair has one canonical form.
func Pair(a, b string) [2]string {
	if a < b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

// Message is one entry in a conversation's append-only sequence.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	Seq            int           `json:"seq"`
	SenderID       string        `json:"sender_id"`
	Content        string        `json:"content"`
	Type           MessageType   `json:"type"`
	Status         MessageStatus `json:"status"`
	FileURL        string        `json:"file_url,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// MaxMessageLength bounds message content.
const MaxMessageLength = 2000
