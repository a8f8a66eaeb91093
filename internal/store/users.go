package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Elizabethomito/skillswap/backend/internal/models"
)

const userColumns = `u.id, u.email, u.password_hash, u.name, u.location, u.avatar,
	u.is_public, u.role, u.is_active, u.profile_completed, u.rating, u.total_exchanges,
	u.avail_weekdays, u.avail_weekends, u.avail_mornings, u.avail_afternoons, u.avail_evenings,
	u.created_at, u.updated_at`

type userRow struct {
	ID               string    `db:"id"`
	Email            string    `db:"email"`
	PasswordHash     string    `db:"password_hash"`
	Name             string    `db:"name"`
	Location         string    `db:"location"`
	Avatar           string    `db:"avatar"`
	IsPublic         bool      `db:"is_public"`
	Role             string    `db:"role"`
	IsActive         bool      `db:"is_active"`
	ProfileCompleted bool      `db:"profile_completed"`
	Rating           float64   `db:"rating"`
	TotalExchanges   int       `db:"total_exchanges"`
	Weekdays         bool      `db:"avail_weekdays"`
	Weekends         bool      `db:"avail_weekends"`
	Mornings         bool      `db:"avail_mornings"`
	Afternoons       bool      `db:"avail_afternoons"`
	Evenings         bool      `db:"avail_evenings"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r userRow) model() models.User {
	return models.User{
		ID:               r.ID,
		Email:            r.Email,
		PasswordHash:     r.PasswordHash,
		Name:             r.Name,
		Location:         r.Location,
		Avatar:           r.Avatar,
		IsPublic:         r.IsPublic,
		Role:             models.UserRole(r.Role),
		IsActive:         r.IsActive,
		ProfileCompleted: r.ProfileCompleted,
		Rating:           r.Rating,
		TotalExchanges:   r.TotalExchanges,
		Availability: models.Availability{
			Weekdays:   r.Weekdays,
			Weekends:   r.Weekends,
			Mornings:   r.Mornings,
			Afternoons: r.Afternoons,
			Evenings:   r.Evenings,
		},
		SkillsOffered: []models.SkillEntry{},
		SkillsWanted:  []models.SkillEntry{},
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type skillRow struct {
	UserID      string `db:"user_id"`
	List        string `db:"list"`
	Position    int    `db:"position"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Approved    bool   `db:"approved"`
}

// CreateUser inserts a new account together with its skill lists.
// A taken email yields ErrConflict.
func (s *SQLStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now

	return s.withTx(ctx, "create user", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(
			`INSERT INTO users (id, email, password_hash, name, location, avatar, is_public, role,
			     is_active, profile_completed, rating, total_exchanges,
			     avail_weekdays, avail_weekends, avail_mornings, avail_afternoons, avail_evenings,
			     created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			u.ID, u.Email, u.PasswordHash, u.Name, u.Location, u.Avatar, u.IsPublic, string(u.Role),
			u.IsActive, u.ProfileCompleted, u.Rating, u.TotalExchanges,
			u.Availability.Weekdays, u.Availability.Weekends, u.Availability.Mornings,
			u.Availability.Afternoons, u.Availability.Evenings,
			u.CreatedAt, u.UpdatedAt,
		)
		if err != nil {
			return classify("create user", err)
		}
		return writeSkills(ctx, tx, u)
	})
}

// GetUser loads one account with both skill lists.
func (s *SQLStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getUserWhere(ctx, "get user", "u.id = ?", id)
}

// GetUserByEmail loads an account by its (already lower-cased) email.
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUserWhere(ctx, "get user by email", "u.email = ?", email)
}

func (s *SQLStore) getUserWhere(ctx context.Context, op, where string, arg any) (*models.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+userColumns+` FROM users u WHERE `+where), arg)
	if err != nil {
		return nil, classify(op, err)
	}
	users := []models.User{row.model()}
	if err := s.loadSkills(ctx, users); err != nil {
		return nil, err
	}
	return &users[0], nil
}

// loadSkills fills the skill lists of every user in one query.
func (s *SQLStore) loadSkills(ctx context.Context, users []models.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, len(users))
	index := make(map[string]int, len(users))
	for i, u := range users {
		ids[i] = u.ID
		index[u.ID] = i
	}
	query, args, err := sqlx.In(
		`SELECT user_id, list, position, name, description, approved
		 FROM user_skills WHERE user_id IN (?)
		 ORDER BY user_id, list, position`, ids)
	if err != nil {
		return classify("load skills", err)
	}
	var rows []skillRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return classify("load skills", err)
	}
	for _, r := range rows {
		u := &users[index[r.UserID]]
		entry := models.SkillEntry{Name: r.Name, Description: r.Description}
		if models.SkillList(r.List) == models.SkillsOffered {
			entry.Approved = r.Approved
			u.SkillsOffered = append(u.SkillsOffered, entry)
		} else {
			u.SkillsWanted = append(u.SkillsWanted, entry)
		}
	}
	return nil
}

// GetUserSummaries returns the compact profile of each existing id.
// Missing ids are simply absent from the map.
func (s *SQLStore) GetUserSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, avatar, location, rating FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, classify("get summaries", err)
	}
	var rows []struct {
		ID       string  `db:"id"`
		Name     string  `db:"name"`
		Avatar   string  `db:"avatar"`
		Location string  `db:"location"`
		Rating   float64 `db:"rating"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, classify("get summaries", err)
	}
	for _, r := range rows {
		out[r.ID] = models.UserSummary{ID: r.ID, Name: r.Name, Avatar: r.Avatar, Location: r.Location, Rating: r.Rating}
	}
	return out, nil
}

// UpdateUser writes every mutable profile column and replaces both
// skill lists in a single transaction.
func (s *SQLStore) UpdateUser(ctx context.Context, u *models.User) error {
	u.UpdatedAt = s.now()
	return s.withTx(ctx, "update user", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(
			`UPDATE users SET name = ?, location = ?, avatar = ?, is_public = ?, profile_completed = ?,
			     avail_weekdays = ?, avail_weekends = ?, avail_mornings = ?, avail_afternoons = ?,
			     avail_evenings = ?, updated_at = ?
			 WHERE id = ?`),
			u.Name, u.Location, u.Avatar, u.IsPublic, u.ProfileCompleted,
			u.Availability.Weekdays, u.Availability.Weekends, u.Availability.Mornings,
			u.Availability.Afternoons, u.Availability.Evenings, u.UpdatedAt,
			u.ID,
		)
		if err != nil {
			return classify("update user", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return classify("update user", ErrNotFound)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM user_skills WHERE user_id = ?`), u.ID); err != nil {
			return classify("update user: clear skills", err)
		}
		return writeSkills(ctx, tx, u)
	})
}

func writeSkills(ctx context.Context, tx *sqlx.Tx, u *models.User) error {
	insert := tx.Rebind(`INSERT INTO user_skills (user_id, list, position, name, name_key, description, approved)
	                     VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, list := range []models.SkillList{models.SkillsOffered, models.SkillsWanted} {
		for i, sk := range u.Skills(list) {
			approved := list == models.SkillsOffered && sk.Approved
			if _, err := tx.ExecContext(ctx, insert,
				u.ID, string(list), i, sk.Name, models.SkillKey(sk.Name), sk.Description, approved,
			); err != nil {
				return classify("write skills", err)
			}
		}
	}
	return nil
}

// SearchUsers returns one page of matching accounts plus the total count.
func (s *SQLStore) SearchUsers(ctx context.Context, f UserFilter) ([]models.User, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Listed {
		where = append(where, "u.is_active = ?", "u.is_public = ?", "u.role = ?")
		args = append(args, true, true, string(models.RoleUser))
	}
	if f.ExcludeID != "" {
		where = append(where, "u.id <> ?")
		args = append(args, f.ExcludeID)
	}
	if strings.TrimSpace(f.Location) != "" {
		where = append(where, `LOWER(u.location) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Location))
	}
	if strings.TrimSpace(f.Skill) != "" {
		where = append(where, `EXISTS (SELECT 1 FROM user_skills us WHERE us.user_id = u.id AND us.name_key LIKE ? ESCAPE '\')`)
		args = append(args, likePattern(f.Skill))
	}
	if strings.TrimSpace(f.Search) != "" {
		where = append(where, `(LOWER(u.name) LIKE ? ESCAPE '\' OR LOWER(u.email) LIKE ? ESCAPE '\')`)
		args = append(args, likePattern(f.Search), likePattern(f.Search))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, s.db.Rebind(`SELECT COUNT(*) FROM users u`+clause), args...); err != nil {
		return nil, 0, classify("count users", err)
	}

	limit, offset := page(f.Page, f.Limit)
	var rows []userRow
	err := s.db.SelectContext(ctx, &rows,
		s.db.Rebind(`SELECT `+userColumns+` FROM users u`+clause+` ORDER BY u.created_at DESC, u.id LIMIT ? OFFSET ?`),
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, classify("search users", err)
	}
	users := make([]models.User, len(rows))
	for i, r := range rows {
		users[i] = r.model()
	}
	if err := s.loadSkills(ctx, users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// SetUserActive flips the moderation flag.
func (s *SQLStore) SetUserActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`),
		active, s.now(), id)
	if err != nil {
		return classify("set user active", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return classify("set user active", ErrNotFound)
	}
	return nil
}

// SetSkillApproval sets the approval flag of the offered skill at index.
func (s *SQLStore) SetSkillApproval(ctx context.Context, userID string, index int, approved bool) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE user_skills SET approved = ? WHERE user_id = ? AND list = ? AND position = ?`),
		approved, userID, string(models.SkillsOffered), index)
	if err != nil {
		return classify("set skill approval", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return classify("set skill approval", ErrNotFound)
	}
	return nil
}
