package store

import (
	"context"
	"time"

	"github.com/Elizabethomito/skillswap/backend/internal/models"
)

// Stats gathers the admin dashboard figures. Each figure is its own
// query; the snapshot is not transactionally consistent.
func (s *SQLStore) Stats(ctx context.Context) (*models.AdminStats, error) {
	st := &models.AdminStats{Requests: map[models.RequestStatus]int{}}

	var users struct {
		Total     int `db:"total"`
		Active    int `db:"active"`
		Public    int `db:"public_count"`
		Completed int `db:"completed"`
		Admins    int `db:"admins"`
		Recent    int `db:"recent"`
	}
	err := s.db.GetContext(ctx, &users, s.db.Rebind(
		`SELECT COUNT(*) AS total,
		     COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active,
		     COALESCE(SUM(CASE WHEN is_public THEN 1 ELSE 0 END), 0) AS public_count,
		     COALESCE(SUM(CASE WHEN profile_completed THEN 1 ELSE 0 END), 0) AS completed,
		     COALESCE(SUM(CASE WHEN role = ? THEN 1 ELSE 0 END), 0) AS admins,
		     COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0) AS recent
		 FROM users`),
		string(models.RoleAdmin), s.now().Add(-7*24*time.Hour))
	if err != nil {
		return nil, classify("user stats", err)
	}
	st.Users.Total = users.Total
	st.Users.Active = users.Active
	st.Users.Public = users.Public
	st.Users.ProfilesCompleted = users.Completed
	st.Users.Admins = users.Admins
	st.Users.NewLast7Days = users.Recent

	for _, status := range []models.RequestStatus{
		models.RequestPending, models.RequestAccepted, models.RequestRejected, models.RequestCompleted,
	} {
		st.Requests[status] = 0
	}
	var byStatus []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &byStatus,
		`SELECT status, COUNT(*) AS n FROM exchange_requests GROUP BY status`); err != nil {
		return nil, classify("request stats", err)
	}
	for _, r := range byStatus {
		st.Requests[models.RequestStatus(r.Status)] = r.N
	}

	if err := s.db.GetContext(ctx, &st.Conversations, `SELECT COUNT(*) FROM conversations`); err != nil {
		return nil, classify("conversation stats", err)
	}
	if err := s.db.GetContext(ctx, &st.Messages, `SELECT COUNT(*) FROM messages`); err != nil {
		return nil, classify("message stats", err)
	}

	var top []struct {
		Name  string `db:"name"`
		Users int    `db:"users"`
	}
	err = s.db.SelectContext(ctx, &top, s.db.Rebind(
		`SELECT MIN(name) AS name, COUNT(DISTINCT user_id) AS users
		 FROM user_skills WHERE list = ?
		 GROUP BY name_key
		 ORDER BY users DESC, name_key
		 LIMIT 10`), string(models.SkillsOffered))
	if err != nil {
		return nil, classify("top skills", err)
	}
	st.TopSkills = make([]models.SkillCount, len(top))
	for i, t := range top {
		st.TopSkills[i] = models.SkillCount{Name: t.Name, Users: t.Users}
	}
	return st, nil
}
