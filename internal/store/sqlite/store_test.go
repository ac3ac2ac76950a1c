package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheelio-backend/internal/domain"
	"wheelio-backend/internal/store/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	// in-memory databases exist per connection
	db.SetMaxOpenConns(1)
	require.NoError(t, sqlite.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sql.DB, username string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, DisplayName: username, HashedPassword: "x", IsActive: true}
	require.NoError(t, sqlite.NewUserRepo(db).Create(context.Background(), u))
	return u
}

func seedListing(t *testing.T, db *sql.DB, ownerID int64, title string) *domain.Listing {
	t.Helper()
	l := &domain.Listing{OwnerID: ownerID, Title: title, Price: 10000}
	require.NoError(t, sqlite.NewListingRepo(db).Create(context.Background(), l))
	return l
}

func seedMessage(t *testing.T, repo *sqlite.MessageRepo, sender, receiver int64, listingID *int64, at time.Time) *domain.Message {
	t.Helper()
	m := &domain.Message{Content: "m", SenderID: sender, ReceiverID: receiver, ListingID: listingID, CreatedAt: at}
	require.NoError(t, repo.Create(context.Background(), m))
	return m
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := sqlite.NewUserRepo(db)

	alice := seedUser(t, db, "alice")
	require.NotZero(t, alice.ID)

	t.Run("GetByID", func(t *testing.T) {
		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "alice", got.Username)
		assert.True(t, got.IsActive)
	})

	t.Run("GetByUsername", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, alice.ID, got.ID)
	})

	t.Run("MissingIsNilNotError", func(t *testing.T) {
		got, err := repo.GetByID(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestListingRepo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := sqlite.NewListingRepo(db)

	alice := seedUser(t, db, "alice")
	listing := seedListing(t, db, alice.ID, "2014 Honda Civic")

	got, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2014 Honda Civic", got.Title)
	assert.Equal(t, alice.ID, got.OwnerID)

	missing, err := repo.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMessageRepo(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("CreateAssignsIDAndUnread", func(t *testing.T) {
		db := newTestDB(t)
		repo := sqlite.NewMessageRepo(db)
		alice := seedUser(t, db, "alice")
		bob := seedUser(t, db, "bob")

		m := &domain.Message{Content: "hi", SenderID: alice.ID, ReceiverID: bob.ID}
		require.NoError(t, repo.Create(ctx, m))
		assert.NotZero(t, m.ID)
		assert.False(t, m.IsRead)
		assert.False(t, m.CreatedAt.IsZero())
	})

	t.Run("ListForUserNewestFirst", func(t *testing.T) {
		db := newTestDB(t)
		repo := sqlite.NewMessageRepo(db)
		alice := seedUser(t, db, "alice")
		bob := seedUser(t, db, "bob")
		carol := seedUser(t, db, "carol")

		m1 := seedMessage(t, repo, alice.ID, bob.ID, nil, base)
		m2 := seedMessage(t, repo, bob.ID, alice.ID, nil, base.Add(time.Minute))
		m3 := seedMessage(t, repo, carol.ID, alice.ID, nil, base.Add(2*time.Minute))
		seedMessage(t, repo, bob.ID, carol.ID, nil, base.Add(3*time.Minute)) // not alice's

		msgs, err := repo.ListForUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, m3.ID, msgs[0].ID)
		assert.Equal(t, m2.ID, msgs[1].ID)
		assert.Equal(t, m1.ID, msgs[2].ID)
	})

	t.Run("ListForUserTieBreakByID", func(t *testing.T) {
		db := newTestDB(t)
		repo := sqlite.NewMessageRepo(db)
		alice := seedUser(t, db, "alice")
		bob := seedUser(t, db, "bob")

		first := seedMessage(t, repo, alice.ID, bob.ID, nil, base)
		second := seedMessage(t, repo, bob.ID, alice.ID, nil, base)

		msgs, err := repo.ListForUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, second.ID, msgs[0].ID)
		assert.Equal(t, first.ID, msgs[1].ID)
	})

	t.Run("ListConversationScopes", func(t *testing.T) {
		db := newTestDB(t)
		repo := sqlite.NewMessageRepo(db)
		alice := seedUser(t, db, "alice")
		bob := seedUser(t, db, "bob")
		carol := seedUser(t, db, "carol")
		listing := seedListing(t, db, bob.ID, "2014 Honda Civic")

		inListing1 := seedMessage(t, repo, alice.ID, bob.ID, &listing.ID, base)
		inListing2 := seedMessage(t, repo, bob.ID, alice.ID, &listing.ID, base.Add(time.Minute))
		general := seedMessage(t, repo, alice.ID, bob.ID, nil, base.Add(2*time.Minute))
		seedMessage(t, repo, alice.ID, carol.ID, nil, base.Add(3*time.Minute))

		scoped, err := repo.ListConversation(ctx, alice.ID, bob.ID, &listing.ID)
		require.NoError(t, err)
		require.Len(t, scoped, 2)
		// chronological, both directions
		assert.Equal(t, inListing1.ID, scoped[0].ID)
		assert.Equal(t, inListing2.ID, scoped[1].ID)

		// nil listing selects the general thread only, not all listings
		gen, err := repo.ListConversation(ctx, alice.ID, bob.ID, nil)
		require.NoError(t, err)
		require.Len(t, gen, 1)
		assert.Equal(t, general.ID, gen[0].ID)
	})

	t.Run("MarkConversationRead", func(t *testing.T) {
		db := newTestDB(t)
		repo := sqlite.NewMessageRepo(db)
		alice := seedUser(t, db, "alice")
		bob := seedUser(t, db, "bob")
		carol := seedUser(t, db, "carol")
		listing := seedListing(t, db, bob.ID, "2014 Honda Civic")

		seedMessage(t, repo, bob.ID, alice.ID, &listing.ID, base)
		seedMessage(t, repo, bob.ID, alice.ID, &listing.ID, base.Add(time.Minute))
		seedMessage(t, repo, bob.ID, alice.ID, nil, base.Add(2*time.Minute))   // other scope
		seedMessage(t, repo, carol.ID, alice.ID, nil, base.Add(3*time.Minute)) // other counterpart
		seedMessage(t, repo, alice.ID, bob.ID, &listing.ID, base.Add(4*time.Minute))

		count, err := repo.CountUnread(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, count)

		require.NoError(t, repo.MarkConversationRead(ctx, alice.ID, bob.ID, &listing.ID))

		count, err = repo.CountUnread(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		// the sender's own outgoing message is untouched
		bobCount, err := repo.CountUnread(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, bobCount)

		// re-marking an already-read scope is a no-op
		require.NoError(t, repo.MarkConversationRead(ctx, alice.ID, bob.ID, &listing.ID))
		count, err = repo.CountUnread(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		msgs, err := repo.ListConversation(ctx, alice.ID, bob.ID, &listing.ID)
		require.NoError(t, err)
		for _, m := range msgs {
			if m.ReceiverID == alice.ID {
				assert.True(t, m.IsRead)
			}
		}
	})
}

func TestNotificationRepo(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedNotif := func(t *testing.T, repo *sqlite.NotificationRepo, userID int64, at time.Time) *domain.Notification {
		t.Helper()
		n := &domain.Notification{UserID: userID, Title: "t", Message: "m", Type: domain.NotificationInfo, CreatedAt: at}
		require.NoError(t, repo.Create(ctx, n))
		return n
	}

	t.Run("ListNewestFirstWithLimit", func(t *testing.T) {
		db := newTestDB(t)
		repo := sqlite.NewNotificationRepo(db)
		alice := seedUser(t, db, "alice")

		n1 := seedNotif(t, repo, alice.ID, base)
		n2 := seedNotif(t, repo, alice.ID, base.Add(time.Minute))
		n3 := seedNotif(t, repo, alice.ID, base.Add(2*time.Minute))

		got, err := repo.ListForUser(ctx, alice.ID, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, n3.ID, got[0].ID)
		assert.Equal(t, n2.ID, got[1].ID)
		_ = n1
	})

	t.Run("MarkReadAndCount", func(t *testing.T) {
		db := newTestDB(t)
		repo := sqlite.NewNotificationRepo(db)
		alice := seedUser(t, db, "alice")

		n1 := seedNotif(t, repo, alice.ID, base)
		seedNotif(t, repo, alice.ID, base.Add(time.Minute))

		count, err := repo.CountUnread(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		require.NoError(t, repo.MarkRead(ctx, n1.ID, alice.ID))
		count, err = repo.CountUnread(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("MarkReadWrongOwner", func(t *testing.T) {
		db := newTestDB(t)
		repo := sqlite.NewNotificationRepo(db)
		alice := seedUser(t, db, "alice")
		bob := seedUser(t, db, "bob")

		n := seedNotif(t, repo, alice.ID, base)
		err := repo.MarkRead(ctx, n.ID, bob.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("MarkAllRead", func(t *testing.T) {
		db := newTestDB(t)
		repo := sqlite.NewNotificationRepo(db)
		alice := seedUser(t, db, "alice")

		seedNotif(t, repo, alice.ID, base)
		seedNotif(t, repo, alice.ID, base.Add(time.Minute))

		require.NoError(t, repo.MarkAllRead(ctx, alice.ID))
		count, err := repo.CountUnread(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		// idempotent
		require.NoError(t, repo.MarkAllRead(ctx, alice.ID))
	})

	t.Run("Delete", func(t *testing.T) {
		db := newTestDB(t)
		repo := sqlite.NewNotificationRepo(db)
		alice := seedUser(t, db, "alice")

		n := seedNotif(t, repo, alice.ID, base)
		require.NoError(t, repo.Delete(ctx, n.ID, alice.ID))

		err := repo.Delete(ctx, n.ID, alice.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
