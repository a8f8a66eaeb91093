package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Elizabethomito/skillswap/backend/internal/auth"
	"github.com/Elizabethomito/skillswap/backend/internal/middleware"
	"github.com/Elizabethomito/skillswap/backend/internal/models"
	"github.com/Elizabethomito/skillswap/backend/internal/store"
)

// Signup handles POST /api/auth/signup
func (s *Server) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if !s.check(w, req, nil) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		IsPublic:     true,
		IsActive:     true,
		Role:         models.RoleUser,
	}
	if err := s.Store.CreateUser(r.Context(), &user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondError(w, http.StatusConflict, "email_taken", "email already registered")
			return
		}
		s.fail(w, r, err)
		return
	}

	token, err := auth.GenerateToken(user.ID, string(user.Role), s.Secret)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	user.Normalize()
	respond(w, http.StatusCreated, models.LoginResponse{Token: token, User: user})
}

// Login handles POST /api/auth/login
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if !s.check(w, req, nil) {
		return
	}

	user, err := s.Store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
			return
		}
		s.fail(w, r, err)
		return
	}

	// Same response for unknown email and wrong password so the endpoint
	// does not reveal which accounts exist.
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}
	if !user.IsActive {
		respondError(w, http.StatusForbidden, "account_disabled", "this account has been deactivated")
		return
	}

	token, err := auth.GenerateToken(user.ID, string(user.Role), s.Secret)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	user.Normalize()
	respond(w, http.StatusOK, models.LoginResponse{Token: token, User: *user})
}

// Me handles GET /api/auth/me
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	user, err := s.Store.GetUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user_not_found", "user not found")
			return
		}
		s.fail(w, r, err)
		return
	}
	user.Normalize()
	respond(w, http.StatusOK, user)
}
