// Package store is the persistence layer: a Repository interface that
// handlers depend on, and SQLStore, its sqlx implementation over SQLite
// or Postgres.
//
// Failures come back as wrapped sentinel errors so handlers can map them
// to HTTP statuses with errors.Is and never inspect driver messages.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Elizabethomito/skillswap/backend/internal/models"
)

var (
	// ErrNotFound means the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a uniqueness constraint rejected the write.
	ErrConflict = errors.New("conflict")
	// ErrNotPending means a request left the pending state before the
	// conditional update ran.
	ErrNotPending = errors.New("request is not pending")
	// ErrUnavailable means the database could not be reached.
	ErrUnavailable = errors.New("database unavailable")
)

// UserFilter narrows SearchUsers.
type UserFilter struct {
	// Listed restricts the result to active, public, non-admin members,
	// i.e. the accounts shown in the public directory.
	Listed    bool
	ExcludeID string
	Skill     string
	Location  string
	// Search matches name or email (admin only).
	Search string
	Page   int
	Limit  int
}

// ConversationRow is a conversation plus the caller-relative unread count.
type ConversationRow struct {
	models.Conversation
	Unread int
}

// Repository is everything the HTTP layer needs from storage.
type Repository interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error)
	UpdateUser(ctx context.Context, u *models.User) error
	SearchUsers(ctx context.Context, f UserFilter) ([]models.User, int, error)
	SetUserActive(ctx context.Context, id string, active bool) error
	SetSkillApproval(ctx context.Context, userID string, index int, approved bool) error

	CreateRequest(ctx context.Context, r *models.ExchangeRequest) error
	GetRequest(ctx context.Context, id string) (*models.ExchangeRequest, error)
	HasPendingDuplicate(ctx context.Context, fromID, toID, skillOffered, skillWanted string) (bool, error)
	ListRequestsForUser(ctx context.Context, userID string, status models.RequestStatus) (incoming, outgoing []models.ExchangeRequest, err error)
	ListRecentRequests(ctx context.Context, status models.RequestStatus, limit int) ([]models.ExchangeRequest, error)
	AcceptRequest(ctx context.Context, id string, note *models.Message) (conversationID string, err error)
	RejectRequest(ctx context.Context, id string) error
	DeletePendingRequest(ctx context.Context, id string) error

	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	CreateConversation(ctx context.Context, a, b string, first *models.Message) (conv *models.Conversation, created bool, err error)
	ListConversations(ctx context.Context, userID string) ([]ConversationRow, error)
	AppendMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, conversationID string, page, limit int) ([]models.Message, int, error)
	MarkRead(ctx context.Context, conversationID, readerID string) (int, error)

	Stats(ctx context.Context) (*models.AdminStats, error)
}

// SQLStore implements Repository on a sqlx handle. All methods are safe
// for concurrent use; the connection pool lives inside sqlx.DB.
type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ Repository = (*SQLStore)(nil)

// New wraps an open, migrated database.
func New(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Ping checks that the database answers.
func (s *SQLStore) Ping(ctx context.Context) error {
	return classify("ping", s.db.PingContext(ctx))
}

// withTx runs fn inside a transaction, committing only if fn succeeds.
func (s *SQLStore) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify(op+": begin", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is a no-op after Commit succeeds

	if err := fn(tx); err != nil {
		return err
	}
	return classify(op+": commit", tx.Commit())
}

// classify wraps err with the sentinel that describes it. Errors that
// already carry a sentinel pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNotFound, ErrConflict, ErrNotPending, ErrUnavailable} {
		if errors.Is(err, known) {
			return err
		}
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case isUnavailable(err):
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	// Lock contention that outlasted busy_timeout (SQLite) or a lock/serialization
	// failure (postgres) is transient: the client may retry.
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE")
}

// page converts 1-based page/limit into LIMIT/OFFSET values.
func page(p, limit int) (int, int) {
	if p < 1 {
		p = 1
	}
	return limit, (p - 1) * limit
}

// likePattern builds a case-insensitive substring pattern for LIKE ... ESCAPE '\'.
func likePattern(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
