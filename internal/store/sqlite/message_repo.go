package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wheelio-backend/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO messages (content, sender_id, receiver_id, listing_id, is_read, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		m.Content,
		m.SenderID,
		m.ReceiverID,
		m.ListingID,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	m.ID = id
	m.IsRead = false
	return nil
}

func (r *MessageRepo) ListForUser(ctx context.Context, userID int64) ([]*domain.Message, error) {
	query := `
		SELECT id, content, sender_id, receiver_id, listing_id, is_read, created_at
		FROM messages
		WHERE sender_id = ? OR receiver_id = ?
		ORDER BY created_at DESC, id DESC
	`
	return r.queryMessages(ctx, query, userID, userID)
}

func (r *MessageRepo) ListConversation(ctx context.Context, userID, counterpartID int64, listingID *int64) ([]*domain.Message, error) {
	query := `
		SELECT id, content, sender_id, receiver_id, listing_id, is_read, created_at
		FROM messages
		WHERE ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
	`
	args := []any{userID, counterpartID, counterpartID, userID}
	if listingID != nil {
		query += ` AND listing_id = ?`
		args = append(args, *listingID)
	} else {
		query += ` AND listing_id IS NULL`
	}
	query += ` ORDER BY created_at ASC, id ASC`
	return r.queryMessages(ctx, query, args...)
}

func (r *MessageRepo) MarkConversationRead(ctx context.Context, userID, counterpartID int64, listingID *int64) error {
	// Conditional bulk update: only rows still unread at update time flip,
	// so a concurrently inserted message keeps is_read = 0.
	query := `
		UPDATE messages
		SET is_read = 1
		WHERE receiver_id = ? AND sender_id = ? AND is_read = 0
	`
	args := []any{userID, counterpartID}
	if listingID != nil {
		query += ` AND listing_id = ?`
		args = append(args, *listingID)
	} else {
		query += ` AND listing_id IS NULL`
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark conversation read: %w", err)
	}
	return nil
}

func (r *MessageRepo) CountUnread(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages WHERE receiver_id = ? AND is_read = 0
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (r *MessageRepo) queryMessages(ctx context.Context, query string, args ...any) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(
			&m.ID,
			&m.Content,
			&m.SenderID,
			&m.ReceiverID,
			&m.ListingID,
			&m.IsRead,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}
