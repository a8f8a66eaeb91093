package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Elizabethomito/skillswap/backend/internal/middleware"
	"github.com/Elizabethomito/skillswap/backend/internal/models"
	"github.com/Elizabethomito/skillswap/backend/internal/store"
	"github.com/Elizabethomito/skillswap/backend/internal/validate"
)

const (
	defaultUserPageSize = 12
	maxUserPageSize     = 50
	maxSkillsPerList    = 20
)

// SearchUsers handles GET /api/users
//
// Query params: skill, location, page, limit. Only active public members
// are listed, and the caller (if authenticated) never sees themselves.
func (s *Server) SearchUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r, defaultUserPageSize, maxUserPageSize)
	q := r.URL.Query()

	users, total, err := s.Store.SearchUsers(r.Context(), store.UserFilter{
		Listed:    true,
		ExcludeID: middleware.GetUserID(r.Context()),
		Skill:     q.Get("skill"),
		Location:  q.Get("location"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := make([]models.PublicProfile, len(users))
	for i := range users {
		out[i] = users[i].Public()
	}
	respond(w, http.StatusOK, models.UserSearchResponse{
		Users:      out,
		Pagination: models.NewPagination(page, limit, total),
	})
}

// GetUserProfile handles GET /api/users/{id}
//
// The owner gets the full record. Anyone else gets the public projection,
// or just {id, name, is_public:false} when the profile is private.
func (s *Server) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	callerID := middleware.GetUserID(r.Context())

	user, err := s.Store.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user_not_found", "user not found")
			return
		}
		s.fail(w, r, err)
		return
	}

	switch {
	case user.ID == callerID:
		user.Normalize()
		respond(w, http.StatusOK, user)
	case !user.IsActive:
		respondError(w, http.StatusNotFound, "user_not_found", "user not found")
	case !user.IsPublic:
		respond(w, http.StatusOK, models.PrivateProfile{ID: user.ID, Name: user.Name, IsPublic: false})
	default:
		respond(w, http.StatusOK, user.Public())
	}
}

// UpdateProfile handles PUT /api/users/profile
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdateRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	trimPtr(req.Name)
	trimPtr(req.Location)
	trimPtr(req.Avatar)
	trimSkills(req.SkillsOffered)
	trimSkills(req.SkillsWanted)

	var extra validate.Errors
	if req.Name != nil && *req.Name == "" {
		extra.Add("name", "is required")
	}
	extra = append(extra, duplicateSkills("skills_offered", req.SkillsOffered)...)
	extra = append(extra, duplicateSkills("skills_wanted", req.SkillsWanted)...)
	if !s.check(w, req, extra) {
		return
	}

	user, ok := s.loadCaller(w, r)
	if !ok {
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Location != nil {
		user.Location = *req.Location
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	if req.IsPublic != nil {
		user.IsPublic = *req.IsPublic
	}
	if req.Availability != nil {
		user.Availability = *req.Availability
	}
	if req.SkillsOffered != nil {
		user.SkillsOffered = skillEntries(req.SkillsOffered, user.SkillsOffered)
	}
	if req.SkillsWanted != nil {
		user.SkillsWanted = skillEntries(req.SkillsWanted, nil)
	}

	if err := s.Store.UpdateUser(r.Context(), user); err != nil {
		s.fail(w, r, err)
		return
	}
	user.Normalize()
	respond(w, http.StatusOK, user)
}

// SetupProfile handles PUT /api/users/profile/setup
//
// The first-run wizard: both skill lists must be non-empty and at least
// one availability slot chosen. Completing it sets profile_completed.
func (s *Server) SetupProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileSetupRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Location = strings.TrimSpace(req.Location)
	req.Avatar = strings.TrimSpace(req.Avatar)
	trimSkills(req.SkillsOffered)
	trimSkills(req.SkillsWanted)

	var extra validate.Errors
	if !req.Availability.Any() {
		extra.Add("availability", "select at least one time slot")
	}
	extra = append(extra, duplicateSkills("skills_offered", req.SkillsOffered)...)
	extra = append(extra, duplicateSkills("skills_wanted", req.SkillsWanted)...)
	if !s.check(w, req, extra) {
		return
	}

	user, ok := s.loadCaller(w, r)
	if !ok {
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	user.Location = req.Location
	user.Avatar = req.Avatar
	user.Availability = req.Availability
	user.SkillsOffered = skillEntries(req.SkillsOffered, user.SkillsOffered)
	user.SkillsWanted = skillEntries(req.SkillsWanted, nil)
	user.ProfileCompleted = true

	if err := s.Store.UpdateUser(r.Context(), user); err != nil {
		s.fail(w, r, err)
		return
	}
	user.Normalize()
	respond(w, http.StatusOK, user)
}

// AddSkill handles POST /api/users/skills/{list}
func (s *Server) AddSkill(w http.ResponseWriter, r *http.Request) {
	list := models.SkillList(r.PathValue("list"))
	if !list.Valid() {
		respondError(w, http.StatusNotFound, "not_found", "skill list must be 'offered' or 'wanted'")
		return
	}

	var req models.SkillInput
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if !s.check(w, req, nil) {
		return
	}

	user, ok := s.loadCaller(w, r)
	if !ok {
		return
	}

	current := user.Skills(list)
	if models.FindSkill(current, req.Name) >= 0 {
		respondError(w, http.StatusBadRequest, "skill_exists", fmt.Sprintf("%q is already in your %s skills", req.Name, list))
		return
	}
	if len(current) >= maxSkillsPerList {
		respondValidation(w, validate.Errors{{
			Field:   "skills_" + string(list),
			Message: fmt.Sprintf("must contain at most %d items", maxSkillsPerList),
		}})
		return
	}

	updated := append(append([]models.SkillEntry{}, current...), models.SkillEntry{Name: req.Name, Description: req.Description})
	user.SetSkills(list, updated)
	if err := s.Store.UpdateUser(r.Context(), user); err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, models.SkillsResponse{List: list, Skills: user.Skills(list)})
}

// RemoveSkill handles DELETE /api/users/skills/{list}/{index}
func (s *Server) RemoveSkill(w http.ResponseWriter, r *http.Request) {
	list := models.SkillList(r.PathValue("list"))
	if !list.Valid() {
		respondError(w, http.StatusNotFound, "not_found", "skill list must be 'offered' or 'wanted'")
		return
	}

	user, ok := s.loadCaller(w, r)
	if !ok {
		return
	}

	current := user.Skills(list)
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 || index >= len(current) {
		respondError(w, http.StatusBadRequest, "invalid_index", "skill index out of range")
		return
	}

	updated := make([]models.SkillEntry, 0, len(current)-1)
	updated = append(updated, current[:index]...)
	updated = append(updated, current[index+1:]...)
	user.SetSkills(list, updated)
	if err := s.Store.UpdateUser(r.Context(), user); err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, models.SkillsResponse{List: list, Skills: user.Skills(list)})
}

// loadCaller fetches the authenticated user's record, writing the error
// response itself when that fails.
func (s *Server) loadCaller(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, err := s.Store.GetUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user_not_found", "user not found")
			return nil, false
		}
		s.fail(w, r, err)
		return nil, false
	}
	return user, true
}

func trimPtr(p *string) {
	if p != nil {
		*p = strings.TrimSpace(*p)
	}
}

func trimSkills(in []models.SkillInput) {
	for i := range in {
		in[i].Name = strings.TrimSpace(in[i].Name)
		in[i].Description = strings.TrimSpace(in[i].Description)
	}
}

// duplicateSkills reports entries whose name repeats an earlier one in
// the same list, ignoring case.
func duplicateSkills(field string, in []models.SkillInput) validate.Errors {
	var errs validate.Errors
	seen := make(map[string]bool, len(in))
	for i, sk := range in {
		key := models.SkillKey(sk.Name)
		if key == "" {
			continue
		}
		if seen[key] {
			errs.Add(fmt.Sprintf("%s[%d].name", field, i), "duplicate skill name")
		}
		seen[key] = true
	}
	return errs
}

// skillEntries converts inputs to stored entries. An admin approval on a
// skill that survives the replacement is kept.
func skillEntries(in []models.SkillInput, previous []models.SkillEntry) []models.SkillEntry {
	out := make([]models.SkillEntry, len(in))
	for i, sk := range in {
		out[i] = models.SkillEntry{Name: sk.Name, Description: sk.Description}
		if j := models.FindSkill(previous, sk.Name); j >= 0 {
			out[i].Approved = previous[j].Approved
		}
	}
	return out
}
