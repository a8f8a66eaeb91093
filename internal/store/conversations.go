package store

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Elizabethomito/skillswap/backend/internal/models"
)

const conversationColumns = `c.id, c.user_a, c.user_b, c.request_id, c.last_message_content,
	c.last_message_sender, c.last_message_at, c.created_at, c.updated_at`

type conversationRow struct {
	ID                 string         `db:"id"`
	UserA              string         `db:"user_a"`
	UserB              string         `db:"user_b"`
	RequestID          sql.NullString `db:"request_id"`
	LastMessageContent sql.NullString `db:"last_message_content"`
	LastMessageSender  sql.NullString `db:"last_message_sender"`
	LastMessageAt      sql.NullTime   `db:"last_message_at"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func (r conversationRow) model() models.Conversation {
	c := models.Conversation{
		ID:           r.ID,
		Participants: [2]string{r.UserA, r.UserB},
		RequestID:    r.RequestID.String,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.LastMessageAt.Valid {
		c.LastMessage = &models.LastMessage{
			Content:   r.LastMessageContent.String,
			SenderID:  r.LastMessageSender.String,
			CreatedAt: r.LastMessageAt.Time,
		}
	}
	return c
}

const messageColumns = `id, conversation_id, seq, sender_id, content, type, status, file_url, created_at`

type messageRow struct {
	ID             string    `db:"id"`
	ConversationID string    `db:"conversation_id"`
	Seq            int       `db:"seq"`
	SenderID       string    `db:"sender_id"`
	Content        string    `db:"content"`
	Type           string    `db:"type"`
	Status         string    `db:"status"`
	FileURL        string    `db:"file_url"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r messageRow) model() models.Message {
	return models.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		Seq:            r.Seq,
		SenderID:       r.SenderID,
		Content:        r.Content,
		Type:           models.MessageType(r.Type),
		Status:         models.MessageStatus(r.Status),
		FileURL:        r.FileURL,
		CreatedAt:      r.CreatedAt,
	}
}

// GetConversation loads one conversation by id.
func (s *SQLStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var row conversationRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+conversationColumns+` FROM conversations c WHERE c.id = ?`), id)
	if err != nil {
		return nil, classify("get conversation", err)
	}
	c := row.model()
	return &c, nil
}

// CreateConversation returns the conversation for the pair {a, b},
// creating it if needed. created reports whether a new row was written.
// first, if non-nil, is appended only when the conversation is new.
func (s *SQLStore) CreateConversation(ctx context.Context, a, b string, first *models.Message) (*models.Conversation, bool, error) {
	var (
		conv    *models.Conversation
		created bool
	)
	err := s.withTx(ctx, "create conversation", func(tx *sqlx.Tx) error {
		var err error
		conv, created, err = s.findOrCreateConversation(ctx, tx, a, b)
		if err != nil || !created || first == nil {
			return err
		}
		first.ConversationID = conv.ID
		if err := s.appendMessage(ctx, tx, first); err != nil {
			return err
		}
		conv.LastMessage = &models.LastMessage{Content: first.Content, SenderID: first.SenderID, CreatedAt: first.CreatedAt}
		conv.UpdatedAt = first.CreatedAt
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return conv, created, nil
}

// findOrCreateConversation relies on UNIQUE(user_a, user_b): a racing
// insert for the same pair becomes a no-op and the existing row is read.
func (s *SQLStore) findOrCreateConversation(ctx context.Context, q sqlx.ExtContext, a, b string) (*models.Conversation, bool, error) {
	pair := models.Pair(a, b)
	now := s.now()
	res, err := q.ExecContext(ctx, q.Rebind(
		`INSERT INTO conversations (id, user_a, user_b, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_a, user_b) DO NOTHING`),
		uuid.NewString(), pair[0], pair[1], now, now)
	if err != nil {
		return nil, false, classify("insert conversation", err)
	}
	n, _ := res.RowsAffected()

	var row conversationRow
	err = sqlx.GetContext(ctx, q, &row, q.Rebind(
		`SELECT `+conversationColumns+` FROM conversations c WHERE c.user_a = ? AND c.user_b = ?`),
		pair[0], pair[1])
	if err != nil {
		return nil, false, classify("find conversation", err)
	}
	c := row.model()
	return &c, n > 0, nil
}

// ListConversations returns every conversation of userID with its
// unread count, most recently active first.
func (s *SQLStore) ListConversations(ctx context.Context, userID string) ([]ConversationRow, error) {
	var rows []struct {
		conversationRow
		Unread int `db:"unread"`
	}
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT `+conversationColumns+`,
		     (SELECT COUNT(*) FROM messages m
		      WHERE m.conversation_id = c.id AND m.sender_id <> ? AND m.status <> ?) AS unread
		 FROM conversations c
		 WHERE c.user_a = ? OR c.user_b = ?`),
		userID, string(models.MessageRead), userID, userID)
	if err != nil {
		return nil, classify("list conversations", err)
	}
	out := make([]ConversationRow, len(rows))
	for i, r := range rows {
		out[i] = ConversationRow{Conversation: r.conversationRow.model(), Unread: r.Unread}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecentAt().After(out[j].RecentAt())
	})
	return out, nil
}

// AppendMessage adds m to the end of its conversation and refreshes the
// denormalised last message in the same transaction.
func (s *SQLStore) AppendMessage(ctx context.Context, m *models.Message) error {
	return s.withTx(ctx, "append message", func(tx *sqlx.Tx) error {
		return s.appendMessage(ctx, tx, m)
	})
}

func (s *SQLStore) appendMessage(ctx context.Context, q sqlx.ExtContext, m *models.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Type == "" {
		m.Type = models.MessageText
	}
	m.Status = models.MessageSent
	m.CreatedAt = s.now()

	// The conversation row is written before seq is read. That takes the
	// write lock (SQLite) or the row lock (postgres) first, so concurrent
	// appends to one conversation queue up instead of racing on MAX(seq).
	res, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE conversations
		 SET last_message_content = ?, last_message_sender = ?, last_message_at = ?, updated_at = ?
		 WHERE id = ?`),
		m.Content, m.SenderID, m.CreatedAt, m.CreatedAt, m.ConversationID)
	if err != nil {
		return classify("update last message", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return classify("update last message", ErrNotFound)
	}

	if err := sqlx.GetContext(ctx, q, &m.Seq, q.Rebind(
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?`), m.ConversationID); err != nil {
		return classify("next message seq", err)
	}
	if _, err := q.ExecContext(ctx, q.Rebind(
		`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		m.ID, m.ConversationID, m.Seq, m.SenderID, m.Content, string(m.Type), string(m.Status), m.FileURL, m.CreatedAt,
	); err != nil {
		return classify("insert message", err)
	}
	return nil
}

// ListMessages pages backwards from the tail: page 1 holds the newest
// limit messages. Each page is returned in chronological order.
func (s *SQLStore) ListMessages(ctx context.Context, conversationID string, p, limit int) ([]models.Message, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, s.db.Rebind(`SELECT COUNT(*) FROM messages WHERE conversation_id = ?`), conversationID); err != nil {
		return nil, 0, classify("count messages", err)
	}
	limit, offset := page(p, limit)
	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT `+messageColumns+` FROM messages WHERE conversation_id = ? ORDER BY seq DESC LIMIT ? OFFSET ?`),
		conversationID, limit, offset)
	if err != nil {
		return nil, 0, classify("list messages", err)
	}
	out := make([]models.Message, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = r.model()
	}
	return out, total, nil
}

// MarkRead flips every message not sent by readerID to read and returns
// how many changed.
func (s *SQLStore) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE messages SET status = ? WHERE conversation_id = ? AND sender_id <> ? AND status <> ?`),
		string(models.MessageRead), conversationID, readerID, string(models.MessageRead))
	if err != nil {
		return 0, classify("mark read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify("mark read", err)
	}
	return int(n), nil
}
