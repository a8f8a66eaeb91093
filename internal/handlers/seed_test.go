package handlers

// seed_test.go — integration tests that call SeedDemo and then verify the
// resulting state through the same handlers the frontend uses.
//
// Every test uses newTestServer (in-memory SQLite, no shared state) and
// calls srv.SeedDemo directly, so the tests are hermetic and fast.

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Elizabethomito/skillswap/backend/internal/models"
)

// runSeed fires SeedDemo and asserts it returns 200.
func runSeed(t *testing.T, srv *Server) SeedResult {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/seed", nil)
	rec := httptest.NewRecorder()
	srv.SeedDemo(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("seed: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out SeedResult
	decodeInto(t, rec, &out)
	return out
}

func TestSeedDemo_CreatesAccounts(t *testing.T) {
	srv := newTestServer(t)
	res := runSeed(t, srv)

	if len(res.Created) != 3 || len(res.Existing) != 0 {
		t.Errorf("first run: created %v existing %v", res.Created, res.Existing)
	}
	if res.Password != "demo1234" {
		t.Errorf("password: got %q", res.Password)
	}
}

func TestSeedDemo_Idempotent(t *testing.T) {
	srv := newTestServer(t)
	runSeed(t, srv)
	res := runSeed(t, srv)

	if len(res.Created) != 0 || len(res.Existing) != 3 {
		t.Errorf("second run: created %v existing %v", res.Created, res.Existing)
	}

	_, sent, err := srv.Store.ListRequestsForUser(context.Background(), SeedAliceID, models.RequestPending)
	if err != nil {
		t.Fatalf("ListRequestsForUser: %v", err)
	}
	if len(sent) != 1 {
		t.Errorf("expected exactly one pending request after two runs, got %d", len(sent))
	}
}

func TestSeedDemo_AccountsCanLogIn(t *testing.T) {
	srv := newTestServer(t)
	runSeed(t, srv)

	for _, email := range []string{"alice@skillswap.test", "bob@skillswap.test", "admin@skillswap.test"} {
		rec := httptest.NewRecorder()
		srv.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login",
			jsonBody(t, models.LoginRequest{Email: email, Password: "demo1234"})))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", email, rec.Code)
		}
	}
}

func TestSeedDemo_BobCanAcceptAlicesRequest(t *testing.T) {
	srv := newTestServer(t)
	runSeed(t, srv)

	received, _, err := srv.Store.ListRequestsForUser(context.Background(), SeedBobID, models.RequestPending)
	if err != nil {
		t.Fatalf("ListRequestsForUser: %v", err)
	}
	if len(received) != 1 {
		t.Fatalf("expected 1 pending request for Bob, got %d", len(received))
	}

	req := httptest.NewRequest(http.MethodPut, "/api/requests/"+received[0].ID+"/accept", nil)
	req.SetPathValue("id", received[0].ID)
	rec := httptest.NewRecorder()
	srv.AcceptRequest(rec, ctxWithUser(req, SeedBobID, "user"))
	if rec.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSeedDemo_AdminHiddenFromDirectory(t *testing.T) {
	srv := newTestServer(t)
	runSeed(t, srv)

	resp := searchUsers(t, srv, "", "")
	if resp.Pagination.Total != 2 {
		t.Errorf("directory: got %d users, want 2", resp.Pagination.Total)
	}
	for _, u := range resp.Users {
		if u.ID == SeedAdminID {
			t.Error("admin must not appear in the public directory")
		}
	}
}
