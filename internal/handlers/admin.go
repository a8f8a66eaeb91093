package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Elizabethomito/skillswap/backend/internal/middleware"
	"github.com/Elizabethomito/skillswap/backend/internal/models"
	"github.com/Elizabethomito/skillswap/backend/internal/store"
)

const (
	defaultAdminPageSize = 20
	maxAdminPageSize     = 100
	defaultRecentLimit   = 50
	maxRecentLimit       = 200
)

// AdminStats handles GET /api/admin/stats
func (s *Server) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Store.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, stats)
}

// AdminListUsers handles GET /api/admin/users?search=&page=&limit=
//
// Unlike the public directory this includes private, deactivated and
// admin accounts, with their email.
func (s *Server) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r, defaultAdminPageSize, maxAdminPageSize)
	users, total, err := s.Store.SearchUsers(r.Context(), store.UserFilter{
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	for i := range users {
		users[i].Normalize()
	}
	respond(w, http.StatusOK, models.AdminUsersResponse{
		Users:      users,
		Pagination: models.NewPagination(page, limit, total),
	})
}

// AdminSetUserStatus handles PUT /api/admin/users/{id}/status
func (s *Server) AdminSetUserStatus(w http.ResponseWriter, r *http.Request) {
	var req models.AdminUserStatusRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if !s.check(w, req, nil) {
		return
	}

	id := r.PathValue("id")
	if id == middleware.GetUserID(r.Context()) && !*req.IsActive {
		respondError(w, http.StatusBadRequest, "cannot_deactivate_self", "you cannot deactivate your own account")
		return
	}

	if err := s.Store.SetUserActive(r.Context(), id, *req.IsActive); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user_not_found", "user not found")
			return
		}
		s.fail(w, r, err)
		return
	}

	user, err := s.Store.GetUser(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	user.Normalize()
	respond(w, http.StatusOK, user)
}

// AdminApproveSkill handles PUT /api/admin/users/{id}/skills/{index}/approve
func (s *Server) AdminApproveSkill(w http.ResponseWriter, r *http.Request) {
	var req models.AdminSkillApprovalRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if !s.check(w, req, nil) {
		return
	}

	user, err := s.Store.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user_not_found", "user not found")
			return
		}
		s.fail(w, r, err)
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 || index >= len(user.SkillsOffered) {
		respondError(w, http.StatusBadRequest, "invalid_index", "skill index out of range")
		return
	}

	if err := s.Store.SetSkillApproval(r.Context(), user.ID, index, *req.Approved); err != nil {
		s.fail(w, r, err)
		return
	}
	user.SkillsOffered[index].Approved = *req.Approved
	respond(w, http.StatusOK, models.SkillsResponse{List: models.SkillsOffered, Skills: user.SkillsOffered})
}

// AdminListRequests handles GET /api/admin/requests?status=&limit=
func (s *Server) AdminListRequests(w http.ResponseWriter, r *http.Request) {
	status, ok := statusParam(w, r)
	if !ok {
		return
	}
	_, limit := pageParams(r, defaultRecentLimit, maxRecentLimit)

	reqs, err := s.Store.ListRecentRequests(r.Context(), status, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.populate(r.Context(), reqs); err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, reqs)
}
