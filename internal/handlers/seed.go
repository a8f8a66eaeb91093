package handlers

// SeedDemo handles POST /api/admin/seed
//
// This endpoint is ONLY for local demos and is registered in development
// mode only. It inserts a fixed set of accounts so the frontend can be
// shown from a known state without running external scripts.
//
// The endpoint is idempotent — calling it twice is safe because each
// account is looked up by email first and the IDs are pre-determined, so
// the same rows are produced every time.
//
// DEMO SCENARIO
// ─────────────────────────────────────────────────────────────────────────
// Alice : alice@skillswap.test / demo1234
//           → offers Guitar, wants Spanish; evenings and weekends
//           → has one pending request to Bob (Guitar ⇄ Spanish)
// Bob   : bob@skillswap.test / demo1234
//           → offers Spanish, wants Guitar; weekday mornings
//           → can accept Alice's request to open their conversation
// Admin : admin@skillswap.test / demo1234
//           → role admin, hidden from the public directory

import (
	"errors"
	"net/http"

	"github.com/Elizabethomito/skillswap/backend/internal/auth"
	"github.com/Elizabethomito/skillswap/backend/internal/models"
	"github.com/Elizabethomito/skillswap/backend/internal/store"
)

// Pre-determined UUIDs keep the seed idempotent across restarts.
const (
	SeedAliceID = "seed-alice-000000000-0000-0000-0000-000000000001"
	SeedBobID   = "seed-bob-00000000000-0000-0000-0000-000000000002"
	SeedAdminID = "seed-admin-000000000-0000-0000-0000-000000000003"

	seedPassword = "demo1234"
)

// SeedResult reports what the seed call did.
type SeedResult struct {
	Created  []string `json:"created"`
	Existing []string `json:"existing"`
	Password string   `json:"password"`
}

func seedUsers() []models.User {
	return []models.User{
		{
			ID: SeedAliceID, Email: "alice@skillswap.test", Name: "Alice Moreno", Location: "Lisbon",
			IsPublic: true, IsActive: true, Role: models.RoleUser, ProfileCompleted: true, Rating: 4.8, TotalExchanges: 3,
			Availability:  models.Availability{Evenings: true, Weekends: true},
			SkillsOffered: []models.SkillEntry{{Name: "Guitar", Description: "Acoustic and classical, beginner to intermediate", Approved: true}},
			SkillsWanted:  []models.SkillEntry{{Name: "Spanish", Description: "Conversational practice"}},
		},
		{
			ID: SeedBobID, Email: "bob@skillswap.test", Name: "Bob Navarro", Location: "Madrid",
			IsPublic: true, IsActive: true, Role: models.RoleUser, ProfileCompleted: true, Rating: 4.5, TotalExchanges: 2,
			Availability:  models.Availability{Weekdays: true, Mornings: true},
			SkillsOffered: []models.SkillEntry{{Name: "Spanish", Description: "Native speaker, all levels", Approved: true}},
			SkillsWanted:  []models.SkillEntry{{Name: "Guitar", Description: "Want to learn chords for folk songs"}},
		},
		{
			ID: SeedAdminID, Email: "admin@skillswap.test", Name: "SkillSwap Admin",
			IsPublic: false, IsActive: true, Role: models.RoleAdmin,
		},
	}
}

// SeedDemo handles POST /api/admin/seed
func (s *Server) SeedDemo(w http.ResponseWriter, r *http.Request) {
	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res := SeedResult{Created: []string{}, Existing: []string{}, Password: seedPassword}

	// ── Users ────────────────────────────────────────────────────────────
	for _, u := range seedUsers() {
		_, err := s.Store.GetUserByEmail(r.Context(), u.Email)
		if err == nil {
			res.Existing = append(res.Existing, u.Email)
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			s.fail(w, r, err)
			return
		}
		u.PasswordHash = hash
		if err := s.Store.CreateUser(r.Context(), &u); err != nil {
			s.fail(w, r, err)
			return
		}
		res.Created = append(res.Created, u.Email)
	}

	// ── Pending request Alice → Bob ──────────────────────────────────────
	dup, err := s.Store.HasPendingDuplicate(r.Context(), SeedAliceID, SeedBobID, "Guitar", "Spanish")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !dup {
		req := models.ExchangeRequest{
			FromID:       SeedAliceID,
			ToID:         SeedBobID,
			SkillOffered: "Guitar",
			SkillWanted:  "Spanish",
			Message:      "Hi Bob! I can teach you guitar in exchange for Spanish conversation practice.",
			Duration:     "1 hour weekly",
		}
		if err := s.Store.CreateRequest(r.Context(), &req); err != nil && !errors.Is(err, store.ErrConflict) {
			s.fail(w, r, err)
			return
		}
	}

	respond(w, http.StatusOK, res)
}
