package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Elizabethomito/skillswap/backend/internal/middleware"
	"github.com/Elizabethomito/skillswap/backend/internal/models"
	"github.com/Elizabethomito/skillswap/backend/internal/realtime"
	"github.com/Elizabethomito/skillswap/backend/internal/store"
	"github.com/Elizabethomito/skillswap/backend/internal/validate"
)

// CreateRequest handles POST /api/requests
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE — order of checks
// ────────────────────────────────────────────────────────────────────
// The checks run cheapest-first and each one returns its own error code,
// so the client can tell "you typed nothing" from "they don't teach
// that" from "you already asked":
//
//  1. field validation         → 400 validation_error
//  2. sending to yourself      → 400 invalid_recipient
//  3. recipient missing/banned → 404 user_not_found
//  4. recipient lacks skill    → 400 skill_not_available
//  5. caller lacks skill       → 400 skill_not_offered
//  6. same request pending     → 409 duplicate_request
//
// Step 6 is checked here for a friendly answer, but the partial unique
// index in the schema is what actually guarantees it under concurrency.
func (s *Server) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req models.CreateExchangeRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	req.RecipientID = strings.TrimSpace(req.RecipientID)
	req.SkillOffered = strings.TrimSpace(req.SkillOffered)
	req.SkillWanted = strings.TrimSpace(req.SkillWanted)
	req.Message = strings.TrimSpace(req.Message)
	req.Duration = strings.TrimSpace(req.Duration)
	if !s.check(w, req, nil) {
		return
	}

	callerID := middleware.GetUserID(r.Context())
	if req.RecipientID == callerID {
		respondError(w, http.StatusBadRequest, "invalid_recipient", "you cannot send a request to yourself")
		return
	}

	recipient, err := s.Store.GetUser(r.Context(), req.RecipientID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !recipient.IsActive) {
		respondError(w, http.StatusNotFound, "user_not_found", "recipient not found")
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	wantedIdx := models.FindSkill(recipient.SkillsOffered, req.SkillWanted)
	if wantedIdx < 0 {
		respondError(w, http.StatusBadRequest, "skill_not_available",
			fmt.Sprintf("%s does not offer %q", recipient.Name, req.SkillWanted))
		return
	}

	caller, ok := s.loadCaller(w, r)
	if !ok {
		return
	}
	offeredIdx := models.FindSkill(caller.SkillsOffered, req.SkillOffered)
	if offeredIdx < 0 {
		respondError(w, http.StatusBadRequest, "skill_not_offered",
			fmt.Sprintf("%q is not in your offered skills", req.SkillOffered))
		return
	}

	// Store the canonical spelling from the profiles so "guitar" and
	// "Guitar" are the same request for the duplicate check.
	exchange := models.ExchangeRequest{
		FromID:       callerID,
		ToID:         recipient.ID,
		SkillOffered: caller.SkillsOffered[offeredIdx].Name,
		SkillWanted:  recipient.SkillsOffered[wantedIdx].Name,
		Message:      req.Message,
		Duration:     req.Duration,
	}

	dup, err := s.Store.HasPendingDuplicate(r.Context(), exchange.FromID, exchange.ToID, exchange.SkillOffered, exchange.SkillWanted)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if dup {
		respondError(w, http.StatusConflict, "duplicate_request", "you already have a pending request for this exchange")
		return
	}

	if err := s.Store.CreateRequest(r.Context(), &exchange); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondError(w, http.StatusConflict, "duplicate_request", "you already have a pending request for this exchange")
			return
		}
		s.fail(w, r, err)
		return
	}

	from, to := caller.Summary(), recipient.Summary()
	exchange.From, exchange.To = &from, &to

	s.publish([]string{recipient.ID}, realtime.Event{Type: realtime.EventRequestNew, Data: exchange})
	respond(w, http.StatusCreated, exchange)
}

// ListRequests handles GET /api/requests?status=
func (s *Server) ListRequests(w http.ResponseWriter, r *http.Request) {
	status, ok := statusParam(w, r)
	if !ok {
		return
	}

	incoming, outgoing, err := s.Store.ListRequestsForUser(r.Context(), middleware.GetUserID(r.Context()), status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.populate(r.Context(), incoming, outgoing); err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, models.RequestsResponse{Incoming: incoming, Outgoing: outgoing})
}

// GetRequest handles GET /api/requests/{id}
func (s *Server) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := s.loadRequest(w, r)
	if !ok {
		return
	}
	callerID := middleware.GetUserID(r.Context())
	if !req.IsParty(callerID) && middleware.GetRole(r.Context()) != string(models.RoleAdmin) {
		respondError(w, http.StatusForbidden, "forbidden", "you are not a party to this request")
		return
	}

	list := []models.ExchangeRequest{*req}
	if err := s.populate(r.Context(), list); err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, list[0])
}

// AcceptRequest handles PUT /api/requests/{id}/accept
//
// The status change, the conversation and the system message commit
// together in the store; a second accept racing this one gets
// already_processed and no duplicate message is written.
func (s *Server) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	var body models.AcceptExchangeRequest
	if err := decodeOptional(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	body.Message = strings.TrimSpace(body.Message)
	if !s.check(w, body, nil) {
		return
	}

	req, ok := s.loadRequest(w, r)
	if !ok {
		return
	}
	// A processed request answers already_processed to everyone; only a
	// pending one is worth a permission check.
	if req.Status != models.RequestPending {
		respondError(w, http.StatusBadRequest, "already_processed", "request has already been processed")
		return
	}
	callerID := middleware.GetUserID(r.Context())
	if req.ToID != callerID {
		respondError(w, http.StatusForbidden, "forbidden", "only the recipient can accept this request")
		return
	}

	recipient, ok := s.loadCaller(w, r)
	if !ok {
		return
	}

	content := fmt.Sprintf("%s accepted your skill exchange request: %s ⇄ %s",
		recipient.Name, req.SkillOffered, req.SkillWanted)
	if body.Message != "" {
		content += "\n\n" + body.Message
	}
	note := &models.Message{SenderID: callerID, Content: content, Type: models.MessageSystem}

	convID, err := s.Store.AcceptRequest(r.Context(), req.ID, note)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	req.Status = models.RequestAccepted

	list := []models.ExchangeRequest{*req}
	if err := s.populate(r.Context(), list); err != nil {
		s.fail(w, r, err)
		return
	}

	parties := []string{req.FromID, req.ToID}
	s.publish(parties, realtime.Event{Type: realtime.EventRequestAccepted, Data: map[string]string{
		"request_id": req.ID, "conversation_id": convID,
	}})
	s.publish(parties, realtime.Event{Type: realtime.EventMessageNew, Data: note})
	respond(w, http.StatusOK, models.AcceptResponse{Request: list[0], ConversationID: convID})
}

// RejectRequest handles PUT /api/requests/{id}/reject
func (s *Server) RejectRequest(w http.ResponseWriter, r *http.Request) {
	var body models.RejectExchangeRequest
	if err := decodeOptional(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	body.Reason = strings.TrimSpace(body.Reason)
	if !s.check(w, body, nil) {
		return
	}

	req, ok := s.loadRequest(w, r)
	if !ok {
		return
	}
	if req.Status != models.RequestPending {
		respondError(w, http.StatusBadRequest, "already_processed", "request has already been processed")
		return
	}
	if req.ToID != middleware.GetUserID(r.Context()) {
		respondError(w, http.StatusForbidden, "forbidden", "only the recipient can reject this request")
		return
	}

	if err := s.Store.RejectRequest(r.Context(), req.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	req.Status = models.RequestRejected

	list := []models.ExchangeRequest{*req}
	if err := s.populate(r.Context(), list); err != nil {
		s.fail(w, r, err)
		return
	}

	s.publish([]string{req.FromID}, realtime.Event{Type: realtime.EventRequestRejected, Data: map[string]string{
		"request_id": req.ID, "reason": body.Reason,
	}})
	respond(w, http.StatusOK, models.RejectResponse{Request: list[0], Reason: body.Reason})
}

// DeleteRequest handles DELETE /api/requests/{id}
//
// Only the sender may withdraw, and only while the request is pending.
func (s *Server) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := s.loadRequest(w, r)
	if !ok {
		return
	}
	if req.Status != models.RequestPending {
		respondError(w, http.StatusBadRequest, "already_processed", "request has already been processed")
		return
	}
	if req.FromID != middleware.GetUserID(r.Context()) {
		respondError(w, http.StatusForbidden, "forbidden", "only the sender can delete this request")
		return
	}

	if err := s.Store.DeletePendingRequest(r.Context(), req.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, models.DeletedResponse{Deleted: true})
}

func (s *Server) loadRequest(w http.ResponseWriter, r *http.Request) (*models.ExchangeRequest, bool) {
	req, err := s.Store.GetRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "request_not_found", "request not found")
			return nil, false
		}
		s.fail(w, r, err)
		return nil, false
	}
	return req, true
}

// statusParam reads an optional ?status= filter.
func statusParam(w http.ResponseWriter, r *http.Request) (models.RequestStatus, bool) {
	status := models.RequestStatus(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))))
	if status != "" && !status.Valid() {
		respondValidation(w, validate.Errors{{
			Field:   "status",
			Message: "must be one of: pending, accepted, rejected, completed",
		}})
		return "", false
	}
	return status, true
}

// populate fills From/To on every request in the given lists with one
// summaries lookup.
func (s *Server) populate(ctx context.Context, lists ...[]models.ExchangeRequest) error {
	var ids []string
	for _, list := range lists {
		for _, req := range list {
			ids = append(ids, req.FromID, req.ToID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	summaries, err := s.Store.GetUserSummaries(ctx, ids)
	if err != nil {
		return err
	}
	for _, list := range lists {
		for i := range list {
			if from, ok := summaries[list[i].FromID]; ok {
				list[i].From = &from
			}
			if to, ok := summaries[list[i].ToID]; ok {
				list[i].To = &to
			}
		}
	}
	return nil
}
