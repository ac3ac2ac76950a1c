package domain

import (
	"context"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// ListingRepository defines persistence operations for listings.
type ListingRepository interface {
	Create(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, id int64) (*Listing, error)
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	// ListForUser returns every message the user sent or received,
	// newest first (created_at DESC, id DESC).
	ListForUser(ctx context.Context, userID int64) ([]*Message, error)
	// ListConversation returns both directions of the (user, counterpart,
	// listing) scope in chronological order. A nil listingID selects the
	// general conversation, not all listings.
	ListConversation(ctx context.Context, userID, counterpartID int64, listingID *int64) ([]*Message, error)
	// MarkConversationRead flips is_read on every unread message sent by
	// counterpart to user within the scope. The update is conditional on
	// is_read being false at update time, so a message inserted while the
	// update runs is left unread.
	MarkConversationRead(ctx context.Context, userID, counterpartID int64, listingID *int64) error
	CountUnread(ctx context.Context, userID int64) (int, error)
}

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID int64, limit int) ([]*Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	Delete(ctx context.Context, id, userID int64) error
}
