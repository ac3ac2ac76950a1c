package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wheelio-backend/internal/domain"
	"wheelio-backend/internal/service"
)

type notificationFixture struct {
	notifications *MockNotificationRepo
	users         *MockUserRepo
	broadcaster   *fakeBroadcaster
	svc           *service.NotificationService
}

func newNotificationFixture() *notificationFixture {
	f := &notificationFixture{
		notifications: new(MockNotificationRepo),
		users:         new(MockUserRepo),
		broadcaster:   &fakeBroadcaster{},
	}
	f.svc = service.NewNotificationService(f.notifications, f.users, f.broadcaster)
	return f
}

func TestNotify(t *testing.T) {
	ctx := context.Background()

	t.Run("RecordsThenPushes", func(t *testing.T) {
		f := newNotificationFixture()
		f.users.On("GetByID", ctx, int64(3)).Return(activeUser(3, "carol"), nil)
		f.notifications.On("Create", ctx, mock.AnythingOfType("*domain.Notification")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*domain.Notification).ID = 11
			}).Return(nil)

		n, err := f.svc.Notify(ctx, service.NotifyInput{
			UserID:  3,
			Title:   "Listing approved",
			Message: "Your listing is now live.",
			Type:    domain.NotificationSuccess,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(11), n.ID)

		require.Len(t, f.broadcaster.events, 1)
		assert.Equal(t, int64(3), f.broadcaster.events[0].userID)
		assert.Equal(t, service.EventNewNotification, f.broadcaster.events[0].event)
		assert.Equal(t, n, f.broadcaster.events[0].payload)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		f := newNotificationFixture()
		f.users.On("GetByID", ctx, int64(404)).Return(nil, nil)

		_, err := f.svc.Notify(ctx, service.NotifyInput{
			UserID: 404, Title: "t", Message: "m", Type: domain.NotificationInfo,
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		f.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, f.broadcaster.events)
	})

	t.Run("InactiveUser", func(t *testing.T) {
		f := newNotificationFixture()
		f.users.On("GetByID", ctx, int64(3)).Return(&domain.User{ID: 3, IsActive: false}, nil)

		_, err := f.svc.Notify(ctx, service.NotifyInput{
			UserID: 3, Title: "t", Message: "m", Type: domain.NotificationInfo,
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("InvalidType", func(t *testing.T) {
		f := newNotificationFixture()
		f.users.On("GetByID", ctx, int64(3)).Return(activeUser(3, "carol"), nil)

		_, err := f.svc.Notify(ctx, service.NotifyInput{
			UserID: 3, Title: "t", Message: "m", Type: domain.NotificationType("promo"),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		f.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("PersistFailure", func(t *testing.T) {
		f := newNotificationFixture()
		f.users.On("GetByID", ctx, int64(3)).Return(activeUser(3, "carol"), nil)
		f.notifications.On("Create", ctx, mock.Anything).Return(assert.AnError)

		_, err := f.svc.Notify(ctx, service.NotifyInput{
			UserID: 3, Title: "t", Message: "m", Type: domain.NotificationInfo,
		})
		assert.ErrorIs(t, err, domain.ErrUnavailable)
		assert.Empty(t, f.broadcaster.events)
	})
}

func TestListForUserClampsLimit(t *testing.T) {
	ctx := context.Background()
	f := newNotificationFixture()
	f.notifications.On("ListForUser", ctx, int64(3), 100).Return([]*domain.Notification{}, nil).Twice()

	_, err := f.svc.ListForUser(ctx, 3, 0)
	require.NoError(t, err)
	_, err = f.svc.ListForUser(ctx, 3, 5000)
	require.NoError(t, err)
	f.notifications.AssertExpectations(t)
}
