package store

import (
	"database/sql"
	"fmt"

	"wheelio-backend/internal/config"
	"wheelio-backend/internal/domain"
	"wheelio-backend/internal/store/postgres"
	"wheelio-backend/internal/store/sqlite"
)

// Stores bundles every repository over a single database handle.
type Stores struct {
	DB            *sql.DB
	Users         domain.UserRepository
	Listings      domain.ListingRepository
	Messages      domain.MessageRepository
	Notifications domain.NotificationRepository
}

// Open opens the configured backend, runs migrations, and wires the
// repositories for it.
func Open(cfg *config.Config) (*Stores, error) {
	switch cfg.DatabaseDriver {
	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := sqlite.Migrate(db); err != nil {
			db.Close()
			return nil, err
		}
		return &Stores{
			DB:            db,
			Users:         sqlite.NewUserRepo(db),
			Listings:      sqlite.NewListingRepo(db),
			Messages:      sqlite.NewMessageRepo(db),
			Notifications: sqlite.NewNotificationRepo(db),
		}, nil
	case "postgres":
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, err
		}
		return &Stores{
			DB:            db,
			Users:         postgres.NewUserRepo(db),
			Listings:      postgres.NewListingRepo(db),
			Messages:      postgres.NewMessageRepo(db),
			Notifications: postgres.NewNotificationRepo(db),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// Close releases the underlying database handle.
func (s *Stores) Close() error {
	return s.DB.Close()
}
