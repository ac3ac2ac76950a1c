package service

import (
	"context"
	"fmt"

	"wheelio-backend/internal/domain"
)

const defaultNotificationLimit = 100

// NotificationService is the narrow write API for in-app notifications,
// consumed by message delivery and by external collaborator workflows.
type NotificationService struct {
	notifications domain.NotificationRepository
	users         domain.UserRepository
	broadcaster   Broadcaster
}

func NewNotificationService(
	notifications domain.NotificationRepository,
	users domain.UserRepository,
	broadcaster Broadcaster,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		broadcaster:   broadcaster,
	}
}

type NotifyInput struct {
	UserID    int64
	Title     string
	Message   string
	Type      domain.NotificationType
	RelatedID *int64
}

// Record durably writes the notification without broadcasting. The row is
// always written before any live delivery is attempted.
func (s *NotificationService) Record(ctx context.Context, in NotifyInput) (*domain.Notification, error) {
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, in.UserID)
	}

	switch in.Type {
	case domain.NotificationInfo, domain.NotificationSuccess, domain.NotificationWarning,
		domain.NotificationError, domain.NotificationMessage:
	default:
		return nil, fmt.Errorf("%w: unknown notification type %q", domain.ErrInvalidInput, in.Type)
	}

	n := &domain.Notification{
		UserID:    in.UserID,
		Title:     in.Title,
		Message:   in.Message,
		Type:      in.Type,
		RelatedID: in.RelatedID,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("%w: persist notification: %v", domain.ErrUnavailable, err)
	}
	return n, nil
}

// Push emits the newNotification event to the owner's live connections.
// Fire and forget: an offline user sees the row on next fetch.
func (s *NotificationService) Push(n *domain.Notification) {
	s.broadcaster.Broadcast(n.UserID, EventNewNotification, n)
}

// Notify records the notification and pushes it live.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (*domain.Notification, error) {
	n, err := s.Record(ctx, in)
	if err != nil {
		return nil, err
	}
	s.Push(n)
	return n, nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID int64, limit int) ([]*domain.Notification, error) {
	if limit <= 0 || limit > defaultNotificationLimit {
		limit = defaultNotificationLimit
	}
	return s.notifications.ListForUser(ctx, userID, limit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.notifications.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) error {
	return s.notifications.MarkRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.notifications.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, id, userID int64) error {
	return s.notifications.Delete(ctx, id, userID)
}
