package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"wheelio-backend/internal/domain"
)

// Event names emitted to a user's live connections.
const (
	EventNewMessage        = "newMessage"
	EventUpdateUnreadCount = "updateUnreadCount"
	EventNewNotification   = "newNotification"
)

// Broadcaster delivers a named event to every live connection of one
// user. The in-process hub implements it; a pub/sub-backed bridge can be
// swapped in without touching the services.
type Broadcaster interface {
	Broadcast(userID int64, event string, payload any)
}

// MessageService orchestrates message delivery: validate, persist, then
// fan out best-effort side effects.
type MessageService struct {
	messages      domain.MessageRepository
	users         domain.UserRepository
	listings      domain.ListingRepository
	notifications *NotificationService
	broadcaster   Broadcaster
}

func NewMessageService(
	messages domain.MessageRepository,
	users domain.UserRepository,
	listings domain.ListingRepository,
	notifications *NotificationService,
	broadcaster Broadcaster,
) *MessageService {
	return &MessageService{
		messages:      messages,
		users:         users,
		listings:      listings,
		notifications: notifications,
		broadcaster:   broadcaster,
	}
}

type SendInput struct {
	ReceiverID int64
	Content    string
	ListingID  *int64
}

// Listing ids start at 1; transports encode the general scope as an
// absent field or as 0 interchangeably. Both normalize to nil here.
func normalizeListingScope(listingID *int64) *int64 {
	if listingID != nil && *listingID == 0 {
		return nil
	}
	return listingID
}

// MessageResponse is a message with resolved participant and listing
// summaries, as sent to clients and over the wire events.
type MessageResponse struct {
	ID           int64     `json:"id"`
	Content      string    `json:"content"`
	SenderID     int64     `json:"sender_id"`
	SenderName   string    `json:"sender_name"`
	ReceiverID   int64     `json:"receiver_id"`
	ReceiverName string    `json:"receiver_name"`
	ListingID    *int64    `json:"listing_id,omitempty"`
	ListingTitle string    `json:"listing_title,omitempty"`
	IsRead       bool      `json:"is_read"`
	CreatedAt    time.Time `json:"created_at"`
}

// Send validates the request, durably writes the message, and then runs
// the side effects in order: notification row for the receiver, newMessage
// to both participants, updateUnreadCount and newNotification to the
// receiver. Once the message row is committed, side-effect failures are
// logged but never fail the send.
func (s *MessageService) Send(ctx context.Context, senderID int64, in SendInput) (*MessageResponse, error) {
	in.ListingID = normalizeListingScope(in.ListingID)
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content is empty", domain.ErrInvalidInput)
	}
	if senderID == in.ReceiverID {
		return nil, fmt.Errorf("%w: cannot message yourself", domain.ErrInvalidInput)
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("resolve sender: %w", err)
	}
	if sender == nil || !sender.IsActive {
		return nil, fmt.Errorf("%w: sender identity not established", domain.ErrUnauthorized)
	}

	receiver, err := s.users.GetByID(ctx, in.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("resolve receiver: %w", err)
	}
	if receiver == nil || !receiver.IsActive {
		return nil, fmt.Errorf("%w: receiver %d", domain.ErrNotFound, in.ReceiverID)
	}

	var listing *domain.Listing
	if in.ListingID != nil {
		listing, err = s.listings.GetByID(ctx, *in.ListingID)
		if err != nil {
			return nil, fmt.Errorf("resolve listing: %w", err)
		}
		if listing == nil {
			return nil, fmt.Errorf("%w: listing %d", domain.ErrNotFound, *in.ListingID)
		}
	}

	msg := &domain.Message{
		Content:    content,
		SenderID:   senderID,
		ReceiverID: in.ReceiverID,
		ListingID:  in.ListingID,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: persist message: %v", domain.ErrUnavailable, err)
	}

	resp := toResponse(msg, sender, receiver, listing)

	// The message row is the durable contract; everything below is
	// best-effort and must not roll it back.
	body := fmt.Sprintf("%s sent you a message", sender.DisplayName)
	if listing != nil {
		body = fmt.Sprintf("%s sent you a message about %q", sender.DisplayName, listing.Title)
	}
	notif, err := s.notifications.Record(ctx, NotifyInput{
		UserID:    receiver.ID,
		Title:     "New message",
		Message:   body,
		Type:      domain.NotificationMessage,
		RelatedID: &msg.ID,
	})
	if err != nil {
		log.Printf("send: record notification for user %d: %v", receiver.ID, err)
	}

	// Both participants get newMessage so the sender's other devices stay
	// in sync.
	s.broadcaster.Broadcast(receiver.ID, EventNewMessage, resp)
	s.broadcaster.Broadcast(sender.ID, EventNewMessage, resp)

	if count, err := s.messages.CountUnread(ctx, receiver.ID); err != nil {
		log.Printf("send: count unread for user %d: %v", receiver.ID, err)
	} else {
		s.broadcaster.Broadcast(receiver.ID, EventUpdateUnreadCount, map[string]int{"count": count})
	}

	if notif != nil {
		s.notifications.Push(notif)
	}

	return resp, nil
}

type StartConversationInput struct {
	ListingID      int64
	ReceiverID     *int64
	InitialMessage string
}

// StartConversation validates the listing, derives the receiver from the
// listing owner when none is given, and sends the opening message.
func (s *MessageService) StartConversation(ctx context.Context, senderID int64, in StartConversationInput) (*MessageResponse, error) {
	listing, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		return nil, fmt.Errorf("resolve listing: %w", err)
	}
	if listing == nil {
		return nil, fmt.Errorf("%w: listing %d", domain.ErrNotFound, in.ListingID)
	}

	receiverID := listing.OwnerID
	if in.ReceiverID != nil {
		receiverID = *in.ReceiverID
	}
	if receiverID == senderID {
		return nil, fmt.Errorf("%w: cannot start a conversation about your own listing", domain.ErrInvalidInput)
	}

	content := strings.TrimSpace(in.InitialMessage)
	if content == "" {
		content = fmt.Sprintf("Hi! I'm interested in your listing %q.", listing.Title)
	}

	listingID := listing.ID
	return s.Send(ctx, senderID, SendInput{
		ReceiverID: receiverID,
		Content:    content,
		ListingID:  &listingID,
	})
}

// ListConversationMessages returns the full conversation scope in
// chronological order and marks the counterpart's unread messages read.
// The read-marking runs first so a message arriving mid-request is
// returned unread rather than silently marked.
func (s *MessageService) ListConversationMessages(ctx context.Context, userID, counterpartID int64, listingID *int64) ([]*MessageResponse, error) {
	listingID = normalizeListingScope(listingID)
	counterpart, err := s.users.GetByID(ctx, counterpartID)
	if err != nil {
		return nil, fmt.Errorf("resolve counterpart: %w", err)
	}
	if counterpart == nil {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, counterpartID)
	}

	if err := s.MarkRead(ctx, userID, counterpartID, listingID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListConversation(ctx, userID, counterpartID, listingID)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	var listing *domain.Listing
	if listingID != nil {
		if listing, err = s.listings.GetByID(ctx, *listingID); err != nil {
			return nil, fmt.Errorf("resolve listing: %w", err)
		}
	}

	res := make([]*MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		sender, receiver := user, counterpart
		if m.SenderID == counterpartID {
			sender, receiver = counterpart, user
		}
		res = append(res, toResponse(m, sender, receiver, listing))
	}
	return res, nil
}

// MarkRead flips every unread message from counterpart in the scope and
// tells the caller's other devices to refresh their badge. Marking an
// already-read scope is a no-op.
func (s *MessageService) MarkRead(ctx context.Context, userID, counterpartID int64, listingID *int64) error {
	listingID = normalizeListingScope(listingID)
	if err := s.messages.MarkConversationRead(ctx, userID, counterpartID, listingID); err != nil {
		return fmt.Errorf("%w: mark read: %v", domain.ErrUnavailable, err)
	}
	if count, err := s.messages.CountUnread(ctx, userID); err != nil {
		log.Printf("markRead: count unread for user %d: %v", userID, err)
	} else {
		s.broadcaster.Broadcast(userID, EventUpdateUnreadCount, map[string]int{"count": count})
	}
	return nil
}

// UnreadCount reports the user's total unread messages across all
// conversations.
func (s *MessageService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.messages.CountUnread(ctx, userID)
}

func toResponse(m *domain.Message, sender, receiver *domain.User, listing *domain.Listing) *MessageResponse {
	resp := &MessageResponse{
		ID:         m.ID,
		Content:    m.Content,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		ListingID:  m.ListingID,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
	if sender != nil {
		resp.SenderName = sender.DisplayName
	}
	if receiver != nil {
		resp.ReceiverName = receiver.DisplayName
	}
	if listing != nil {
		resp.ListingTitle = listing.Title
	}
	return resp
}
