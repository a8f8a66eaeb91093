package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Elizabethomito/skillswap/backend/internal/models"
)

func searchUsers(t *testing.T, srv *Server, query, callerID string) models.UserSearchResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/users"+query, nil)
	if callerID != "" {
		req = ctxWithUser(req, callerID, "user")
	}
	rec := httptest.NewRecorder()
	srv.SearchUsers(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", rec.Code)
	}
	var resp models.UserSearchResponse
	decodeInto(t, rec, &resp)
	return resp
}

func TestSearchUsers_FiltersAndExcludesCaller(t *testing.T) {
	srv := newTestServer(t)
	a, b := seedPair(t, srv)
	c := seedUser(t, srv, "carol", []string{"Bass Guitar"}, nil)
	c.Location = "Porto"
	if err := srv.Store.UpdateUser(context.Background(), c); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	resp := searchUsers(t, srv, "?skill=guitar", "")
	if resp.Pagination.Total != 3 {
		t.Errorf("anonymous skill search: got %d, want 3 (alice offers, bob wants, carol offers)", resp.Pagination.Total)
	}

	resp = searchUsers(t, srv, "?skill=guitar", a.ID)
	for _, u := range resp.Users {
		if u.ID == a.ID {
			t.Error("caller must be excluded from results")
		}
	}
	if resp.Pagination.Total != 2 {
		t.Errorf("authenticated search: got %d, want 2", resp.Pagination.Total)
	}

	resp = searchUsers(t, srv, "?location=port", b.ID)
	if len(resp.Users) != 1 || resp.Users[0].ID != c.ID {
		t.Errorf("location filter: got %+v", resp.Users)
	}
}

func TestSearchUsers_HidesPrivateAndPaginates(t *testing.T) {
	srv := newTestServer(t)
	for _, name := range []string{"u1", "u2", "u3"} {
		seedUser(t, srv, name, []string{"Chess"}, nil)
	}
	hidden := seedUser(t, srv, "hidden", []string{"Chess"}, nil)
	hidden.IsPublic = false
	if err := srv.Store.UpdateUser(context.Background(), hidden); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	resp := searchUsers(t, srv, "?skill=chess&limit=2&page=1", "")
	if resp.Pagination.Total != 3 || len(resp.Users) != 2 || !resp.Pagination.HasMore {
		t.Errorf("page 1: %+v (%d users)", resp.Pagination, len(resp.Users))
	}
	resp = searchUsers(t, srv, "?skill=chess&limit=2&page=2", "")
	if len(resp.Users) != 1 || resp.Pagination.HasMore {
		t.Errorf("page 2: %+v (%d users)", resp.Pagination, len(resp.Users))
	}

	resp = searchUsers(t, srv, "?limit=500", "")
	if resp.Pagination.Limit != maxUserPageSize {
		t.Errorf("limit clamp: got %d", resp.Pagination.Limit)
	}
}

func getProfile(t *testing.T, srv *Server, id, callerID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/users/"+id, nil)
	req.SetPathValue("id", id)
	if callerID != "" {
		req = ctxWithUser(req, callerID, "user")
	}
	rec := httptest.NewRecorder()
	srv.GetUserProfile(rec, req)
	return rec
}

func TestGetUserProfile_PrivateShowsOnlyIdentity(t *testing.T) {
	srv := newTestServer(t)
	a, b := seedPair(t, srv)
	a.IsPublic = false
	a.Availability.Evenings = true
	if err := srv.Store.UpdateUser(context.Background(), a); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	for _, viewer := range []string{"", b.ID} {
		rec := getProfile(t, srv, a.ID, viewer)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var raw map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(raw) != 3 || raw["id"] != a.ID || raw["name"] != "alice" || raw["is_public"] != false {
			t.Errorf("viewer %q: expected only {id,name,is_public:false}, got %v", viewer, raw)
		}
	}

	// The owner still sees everything.
	rec := getProfile(t, srv, a.ID, a.ID)
	var self models.User
	decodeInto(t, rec, &self)
	if self.Email == "" || len(self.SkillsOffered) != 1 {
		t.Errorf("owner view incomplete: %+v", self)
	}
}

func TestGetUserProfile_PublicOmitsEmail(t *testing.T) {
	srv := newTestServer(t)
	a, b := seedPair(t, srv)

	rec := getProfile(t, srv, a.ID, b.ID)
	var raw map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := raw["email"]; ok {
		t.Error("public profile must not expose email")
	}
	if _, ok := raw["skills_offered"]; !ok {
		t.Error("public profile should include skills")
	}

	if rec := getProfile(t, srv, "missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing user: expected 404, got %d", rec.Code)
	}
}

func putJSON(t *testing.T, srv *Server, h http.HandlerFunc, path string, caller *models.User, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, path, jsonBody(t, body))
	rec := httptest.NewRecorder()
	h(rec, ctxWithUser(req, caller.ID, "user"))
	return rec
}

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	srv := newTestServer(t)
	a, _ := seedPair(t, srv)

	loc := "Lisbon"
	rec := putJSON(t, srv, srv.UpdateProfile, "/api/users/profile", a, models.ProfileUpdateRequest{Location: &loc})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var u models.User
	decodeInto(t, rec, &u)
	if u.Location != "Lisbon" || u.Name != "alice" || len(u.SkillsOffered) != 1 {
		t.Errorf("unexpected profile after partial update: %+v", u)
	}
}

func TestUpdateProfile_RejectsDuplicateSkills(t *testing.T) {
	srv := newTestServer(t)
	a, _ := seedPair(t, srv)

	rec := putJSON(t, srv, srv.UpdateProfile, "/api/users/profile", a, models.ProfileUpdateRequest{
		SkillsOffered: []models.SkillInput{{Name: "Guitar"}, {Name: " guitar "}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp errorBody
	decodeInto(t, rec, &resp)
	if len(resp.Details) != 1 || resp.Details[0].Field != "skills_offered[1].name" {
		t.Errorf("details: %+v", resp.Details)
	}
}

func TestSetupProfile(t *testing.T) {
	srv := newTestServer(t)
	u := seedUser(t, srv, "newbie", nil, nil)

	rec := putJSON(t, srv, srv.SetupProfile, "/api/users/profile/setup", u, models.ProfileSetupRequest{
		SkillsOffered: []models.SkillInput{},
		SkillsWanted:  []models.SkillInput{{Name: "Cooking"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var bad errorBody
	decodeInto(t, rec, &bad)
	fields := map[string]bool{}
	for _, d := range bad.Details {
		fields[d.Field] = true
	}
	if !fields["skills_offered"] || !fields["availability"] {
		t.Errorf("expected skills_offered and availability errors, got %+v", bad.Details)
	}

	rec = putJSON(t, srv, srv.SetupProfile, "/api/users/profile/setup", u, models.ProfileSetupRequest{
		Location:      "Berlin",
		SkillsOffered: []models.SkillInput{{Name: "German", Description: "native"}},
		SkillsWanted:  []models.SkillInput{{Name: "Cooking"}},
		Availability:  models.Availability{Weekends: true},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var done models.User
	decodeInto(t, rec, &done)
	if !done.ProfileCompleted {
		t.Error("expected profile_completed=true")
	}
	// name, location, offered, wanted, availability = 5 of 6.
	if done.ProfileCompleteness != 83 {
		t.Errorf("completeness: got %d, want 83", done.ProfileCompleteness)
	}
}

func skillRequest(t *testing.T, srv *Server, method, list, index string, caller *models.User, body any) *httptest.ResponseRecorder {
	t.Helper()
	path := "/api/users/skills/" + list
	if index != "" {
		path += "/" + index
	}
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, jsonBody(t, body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.SetPathValue("list", list)
	req.SetPathValue("index", index)
	req = ctxWithUser(req, caller.ID, "user")
	rec := httptest.NewRecorder()
	if method == http.MethodPost {
		srv.AddSkill(rec, req)
	} else {
		srv.RemoveSkill(rec, req)
	}
	return rec
}

func TestAddSkill(t *testing.T) {
	srv := newTestServer(t)
	a, _ := seedPair(t, srv)

	rec := skillRequest(t, srv, http.MethodPost, "offered", "", a, models.SkillInput{Name: "Piano", Description: "grade 5"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.SkillsResponse
	decodeInto(t, rec, &resp)
	if len(resp.Skills) != 2 || resp.Skills[1].Name != "Piano" {
		t.Errorf("skills: %+v", resp.Skills)
	}

	rec = skillRequest(t, srv, http.MethodPost, "offered", "", a, models.SkillInput{Name: "PIANO"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate: expected 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "skill_exists" {
		t.Errorf("error code: got %q", code)
	}

	rec = skillRequest(t, srv, http.MethodPost, "teaching", "", a, models.SkillInput{Name: "Piano"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown list: expected 404, got %d", rec.Code)
	}
}

func TestRemoveSkill(t *testing.T) {
	srv := newTestServer(t)
	u := seedUser(t, srv, "gina", []string{"A", "B", "C"}, nil)

	rec := skillRequest(t, srv, http.MethodDelete, "offered", "1", u, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.SkillsResponse
	decodeInto(t, rec, &resp)
	if len(resp.Skills) != 2 || resp.Skills[0].Name != "A" || resp.Skills[1].Name != "C" {
		t.Errorf("skills: %+v", resp.Skills)
	}

	for _, idx := range []string{"2", "-1", "x"} {
		rec := skillRequest(t, srv, http.MethodDelete, "offered", idx, u, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("index %s: expected 400, got %d", idx, rec.Code)
			continue
		}
		if code := errorCode(t, rec); code != "invalid_index" {
			t.Errorf("index %s: error code %q", idx, code)
		}
	}
}
