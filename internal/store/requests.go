package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Elizabethomito/skillswap/backend/internal/models"
)

const requestColumns = `id, from_id, to_id, skill_offered, skill_wanted, message, duration, status, created_at, updated_at`

type requestRow struct {
	ID           string    `db:"id"`
	FromID       string    `db:"from_id"`
	ToID         string    `db:"to_id"`
	SkillOffered string    `db:"skill_offered"`
	SkillWanted  string    `db:"skill_wanted"`
	Message      string    `db:"message"`
	Duration     string    `db:"duration"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r requestRow) model() models.ExchangeRequest {
	return models.ExchangeRequest{
		ID:           r.ID,
		FromID:       r.FromID,
		ToID:         r.ToID,
		SkillOffered: r.SkillOffered,
		SkillWanted:  r.SkillWanted,
		Message:      r.Message,
		Duration:     r.Duration,
		Status:       models.RequestStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func requestModels(rows []requestRow) []models.ExchangeRequest {
	out := make([]models.ExchangeRequest, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out
}

// CreateRequest persists a new pending request. A concurrent identical
// pending request trips the partial unique index and yields ErrConflict.
func (s *SQLStore) CreateRequest(ctx context.Context, r *models.ExchangeRequest) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Duration == "" {
		r.Duration = models.DefaultDuration
	}
	r.Status = models.RequestPending
	now := s.now()
	r.CreatedAt, r.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO exchange_requests (`+requestColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.FromID, r.ToID, r.SkillOffered, r.SkillWanted, r.Message, r.Duration,
		string(r.Status), r.CreatedAt, r.UpdatedAt,
	)
	return classify("create request", err)
}

// GetRequest loads one request by id.
func (s *SQLStore) GetRequest(ctx context.Context, id string) (*models.ExchangeRequest, error) {
	var row requestRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+requestColumns+` FROM exchange_requests WHERE id = ?`), id)
	if err != nil {
		return nil, classify("get request", err)
	}
	r := row.model()
	return &r, nil
}

// HasPendingDuplicate reports whether an identical pending request exists.
func (s *SQLStore) HasPendingDuplicate(ctx context.Context, fromID, toID, skillOffered, skillWanted string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(
		`SELECT COUNT(*) FROM exchange_requests
		 WHERE from_id = ? AND to_id = ? AND skill_offered = ? AND skill_wanted = ? AND status = ?`),
		fromID, toID, skillOffered, skillWanted, string(models.RequestPending))
	if err != nil {
		return false, classify("find duplicate request", err)
	}
	return n > 0, nil
}

// ListRequestsForUser partitions the user's requests into those received
// (incoming) and those sent (outgoing), newest first. An empty status
// means all statuses.
func (s *SQLStore) ListRequestsForUser(ctx context.Context, userID string, status models.RequestStatus) ([]models.ExchangeRequest, []models.ExchangeRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM exchange_requests WHERE (from_id = ? OR to_id = ?)`
	args := []any{userID, userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id`

	var rows []requestRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, nil, classify("list requests", err)
	}
	incoming := []models.ExchangeRequest{}
	outgoing := []models.ExchangeRequest{}
	for _, r := range rows {
		if r.ToID == userID {
			incoming = append(incoming, r.model())
		} else {
			outgoing = append(outgoing, r.model())
		}
	}
	return incoming, outgoing, nil
}

// ListRecentRequests returns the newest requests platform-wide.
func (s *SQLStore) ListRecentRequests(ctx context.Context, status models.RequestStatus, limit int) ([]models.ExchangeRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM exchange_requests`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	var rows []requestRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, classify("list recent requests", err)
	}
	return requestModels(rows), nil
}

// setStatusIfPending moves a pending request to status. It is the
// compare-and-set that makes accept/reject safe against a concurrent
// response: the loser sees ErrNotPending.
func (s *SQLStore) setStatusIfPending(ctx context.Context, q sqlx.ExtContext, id string, status models.RequestStatus) error {
	res, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE exchange_requests SET status = ?, updated_at = ? WHERE id = ? AND status = ?`),
		string(status), s.now(), id, string(models.RequestPending))
	if err != nil {
		return classify("set request status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotPending
	}
	return nil
}

// AcceptRequest marks the request accepted, finds or creates the pair's
// conversation (linking it to this request), and appends note to it.
// All three writes commit together.
func (s *SQLStore) AcceptRequest(ctx context.Context, id string, note *models.Message) (string, error) {
	var convID string
	err := s.withTx(ctx, "accept request", func(tx *sqlx.Tx) error {
		var row requestRow
		if err := tx.GetContext(ctx, &row, tx.Rebind(`SELECT `+requestColumns+` FROM exchange_requests WHERE id = ?`), id); err != nil {
			return classify("accept request", err)
		}
		if err := s.setStatusIfPending(ctx, tx, id, models.RequestAccepted); err != nil {
			return err
		}

		conv, _, err := s.findOrCreateConversation(ctx, tx, row.FromID, row.ToID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE conversations SET request_id = ? WHERE id = ?`), id, conv.ID); err != nil {
			return classify("link conversation", err)
		}
		note.ConversationID = conv.ID
		if err := s.appendMessage(ctx, tx, note); err != nil {
			return err
		}
		convID = conv.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return convID, nil
}

// RejectRequest marks a pending request rejected.
func (s *SQLStore) RejectRequest(ctx context.Context, id string) error {
	return s.setStatusIfPending(ctx, s.db, id, models.RequestRejected)
}

// DeletePendingRequest hard-deletes a request that is still pending.
func (s *SQLStore) DeletePendingRequest(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM exchange_requests WHERE id = ? AND status = ?`),
		id, string(models.RequestPending))
	if err != nil {
		return classify("delete request", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotPending
	}
	return nil
}
