package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Elizabethomito/skillswap/backend/internal/middleware"
	"github.com/Elizabethomito/skillswap/backend/internal/models"
	"github.com/Elizabethomito/skillswap/backend/internal/realtime"
	"github.com/Elizabethomito/skillswap/backend/internal/store"
	"github.com/Elizabethomito/skillswap/backend/internal/validate"
)

const (
	defaultMessagePageSize = 50
	maxMessagePageSize     = 100
)

// ListConversations handles GET /api/conversations
func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())
	rows, err := s.Store.ListConversations(r.Context(), callerID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	others := make([]string, len(rows))
	for i := range rows {
		others[i] = rows[i].Other(callerID)
	}
	summaries, err := s.Store.GetUserSummaries(r.Context(), others)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := make([]models.ConversationSummary, len(rows))
	for i, row := range rows {
		other, ok := summaries[others[i]]
		if !ok {
			other = models.UserSummary{ID: others[i]}
		}
		out[i] = models.ConversationSummary{
			ID:               row.ID,
			OtherParticipant: other,
			LastMessage:      row.LastMessage,
			UnreadCount:      row.Unread,
			RequestID:        row.RequestID,
			UpdatedAt:        row.RecentAt(),
		}
	}
	respond(w, http.StatusOK, out)
}

// GetConversation handles GET /api/conversations/{id}?page=&limit=
//
// Opening a conversation marks the other participant's messages read
// before the page is loaded, so the returned statuses are current.
func (s *Server) GetConversation(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.loadConversation(w, r)
	if !ok {
		return
	}
	callerID := middleware.GetUserID(r.Context())
	page, limit := pageParams(r, defaultMessagePageSize, maxMessagePageSize)

	if _, err := s.Store.MarkRead(r.Context(), conv.ID, callerID); err != nil {
		s.fail(w, r, err)
		return
	}
	msgs, total, err := s.Store.ListMessages(r.Context(), conv.ID, page, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	otherID := conv.Other(callerID)
	summaries, err := s.Store.GetUserSummaries(r.Context(), []string{otherID})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	other, found := summaries[otherID]
	if !found {
		other = models.UserSummary{ID: otherID}
	}

	respond(w, http.StatusOK, models.ConversationDetail{
		Conversation:     *conv,
		OtherParticipant: other,
		Messages:         msgs,
		Pagination:       models.NewPagination(page, limit, total),
	})
}

// SendMessage handles POST /api/conversations/{id}/messages
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	req.FileURL = strings.TrimSpace(req.FileURL)
	if req.Type == "" {
		req.Type = models.MessageText
	}

	var extra validate.Errors
	if req.Type == models.MessageFile && req.FileURL == "" {
		extra.Add("file_url", "is required for file messages")
	}
	if !s.check(w, req, extra) {
		return
	}

	conv, ok := s.loadConversation(w, r)
	if !ok {
		return
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       middleware.GetUserID(r.Context()),
		Content:        req.Content,
		Type:           req.Type,
		FileURL:        req.FileURL,
	}
	if err := s.Store.AppendMessage(r.Context(), msg); err != nil {
		s.fail(w, r, err)
		return
	}

	s.publish(conv.Participants[:], realtime.Event{Type: realtime.EventMessageNew, Data: msg})
	respond(w, http.StatusCreated, msg)
}

// CreateConversation handles POST /api/conversations
//
// Returns 201 when a new conversation was opened and 200 with
// created=false when the pair already had one; the optional first
// message is only sent in the first case.
func (s *Server) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req models.CreateConversationRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	req.ParticipantID = strings.TrimSpace(req.ParticipantID)
	req.Message = strings.TrimSpace(req.Message)
	if !s.check(w, req, nil) {
		return
	}

	callerID := middleware.GetUserID(r.Context())
	if req.ParticipantID == callerID {
		respondError(w, http.StatusBadRequest, "invalid_participant", "you cannot start a conversation with yourself")
		return
	}

	other, err := s.Store.GetUser(r.Context(), req.ParticipantID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !other.IsActive) {
		respondError(w, http.StatusNotFound, "user_not_found", "participant not found")
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var first *models.Message
	if req.Message != "" {
		first = &models.Message{SenderID: callerID, Content: req.Message, Type: models.MessageText}
	}
	conv, created, err := s.Store.CreateConversation(r.Context(), callerID, other.ID, first)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		if first != nil {
			s.publish(conv.Participants[:], realtime.Event{Type: realtime.EventMessageNew, Data: first})
		}
	}
	respond(w, status, models.CreateConversationResponse{ConversationID: conv.ID, Created: created})
}

// MarkConversationRead handles PUT /api/conversations/{id}/read
func (s *Server) MarkConversationRead(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.loadConversation(w, r)
	if !ok {
		return
	}
	n, err := s.Store.MarkRead(r.Context(), conv.ID, middleware.GetUserID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, models.MarkReadResponse{Marked: n})
}

// loadConversation fetches {id} and checks that the caller participates.
func (s *Server) loadConversation(w http.ResponseWriter, r *http.Request) (*models.Conversation, bool) {
	conv, err := s.Store.GetConversation(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "conversation_not_found", "conversation not found")
			return nil, false
		}
		s.fail(w, r, err)
		return nil, false
	}
	if !conv.Has(middleware.GetUserID(r.Context())) {
		respondError(w, http.StatusForbidden, "forbidden", "you are not a participant in this conversation")
		return nil, false
	}
	return conv, true
}
