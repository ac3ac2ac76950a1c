package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"wheelio-backend/internal/domain"
)

// Conversation is derived from the message log; there is no stored
// conversation row. The key is "{counterpartId}:{listingId|general}".
type Conversation struct {
	Key             string          `json:"key"`
	CounterpartID   int64           `json:"counterpart_id"`
	CounterpartName string          `json:"counterpart_name,omitempty"`
	ListingID       *int64          `json:"listing_id,omitempty"`
	ListingTitle    string          `json:"listing_title,omitempty"`
	LastMessage     *domain.Message `json:"last_message"`
	UnreadCount     int             `json:"unread_count"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ConversationKey groups messages by counterpart and listing scope. The
// same counterpart and listing always map to the same key regardless of
// who sent which message.
func ConversationKey(counterpartID int64, listingID *int64) string {
	if listingID == nil {
		return fmt.Sprintf("%d:general", counterpartID)
	}
	return fmt.Sprintf("%d:%d", counterpartID, *listingID)
}

// AggregateConversations folds the user's messages into conversations.
// msgs must be ordered newest first (created_at DESC, id DESC), which is
// how MessageRepository.ListForUser returns them; the first message seen
// per key is therefore its last message. The fold is pure: calling it
// twice over the same input yields identical results.
func AggregateConversations(userID int64, msgs []*domain.Message) []*Conversation {
	byKey := make(map[string]*Conversation)
	order := make([]string, 0)

	for _, m := range msgs {
		counterpart := m.SenderID
		if counterpart == userID {
			counterpart = m.ReceiverID
		}
		key := ConversationKey(counterpart, m.ListingID)

		conv, ok := byKey[key]
		if !ok {
			conv = &Conversation{
				Key:           key,
				CounterpartID: counterpart,
				ListingID:     m.ListingID,
				LastMessage:   m,
				UpdatedAt:     m.CreatedAt,
			}
			byKey[key] = conv
			order = append(order, key)
		}
		if m.ReceiverID == userID && !m.IsRead {
			conv.UnreadCount++
		}
	}

	res := make([]*Conversation, 0, len(byKey))
	for _, key := range order {
		res = append(res, byKey[key])
	}
	// Input order already implies recency, but make the contract explicit:
	// updated_at DESC, last message id DESC on ties.
	sort.SliceStable(res, func(i, j int) bool {
		if !res[i].UpdatedAt.Equal(res[j].UpdatedAt) {
			return res[i].UpdatedAt.After(res[j].UpdatedAt)
		}
		return res[i].LastMessage.ID > res[j].LastMessage.ID
	})
	return res
}

// ConversationService derives a user's conversation list from the message
// log and decorates it with counterpart and listing summaries.
type ConversationService struct {
	messages domain.MessageRepository
	users    domain.UserRepository
	listings domain.ListingRepository
}

func NewConversationService(
	messages domain.MessageRepository,
	users domain.UserRepository,
	listings domain.ListingRepository,
) *ConversationService {
	return &ConversationService{
		messages: messages,
		users:    users,
		listings: listings,
	}
}

// ListForUser is a pure read; no cursor state is kept between calls.
func (s *ConversationService) ListForUser(ctx context.Context, userID int64) ([]*Conversation, error) {
	msgs, err := s.messages.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	convs := AggregateConversations(userID, msgs)

	userNames := make(map[int64]string)
	listingTitles := make(map[int64]string)
	for _, c := range convs {
		name, ok := userNames[c.CounterpartID]
		if !ok {
			if u, err := s.users.GetByID(ctx, c.CounterpartID); err == nil && u != nil {
				name = u.DisplayName
			}
			userNames[c.CounterpartID] = name
		}
		c.CounterpartName = name

		if c.ListingID != nil {
			title, ok := listingTitles[*c.ListingID]
			if !ok {
				if l, err := s.listings.GetByID(ctx, *c.ListingID); err == nil && l != nil {
					title = l.Title
				}
				listingTitles[*c.ListingID] = title
			}
			c.ListingTitle = title
		}
	}
	return convs, nil
}
