// Package postgres implements the key store over a direct Postgres
// connection. Supabase projects expose the same table both ways; this
// driver skips the REST hop for deployments that can reach the database.
//
// The check-then-act window between HasActiveKey and Insert is the same
// as in the REST driver: no uniqueness constraint on unused keys per
// user is enforced here, matching observable bot behavior.
package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/keybot/core/logger"
	"github.com/m3rciful/keybot/keys"
	"log/slog"
)

// Store persists one-time keys in the one_time_keys table.
type Store struct {
	db *sqlx.DB
}

var _ keys.Store = (*Store)(nil)

// New wraps an established connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Insert appends a new unused key record bound to the user.
func (s *Store) Insert(ctx context.Context, key, userID string) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO one_time_keys (key, used, user_id) VALUES ($1, FALSE, $2)`,
		key, userID,
	)
	if err != nil {
		return err
	}
	logger.STORE.Debug("key inserted",
		slog.String("event", "store.insert"),
		slog.String("status", "ok"),
		slog.String("driver", "postgres"),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// HasActiveKey reports whether the user holds at least one unused key.
func (s *Store) HasActiveKey(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM one_time_keys WHERE user_id = $1 AND used = FALSE)`,
		userID,
	)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Count returns the total number of key records, or only unused ones.
func (s *Store) Count(ctx context.Context, unusedOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM one_time_keys`
	if unusedOnly {
		query += ` WHERE used = FALSE`
	}
	var count int
	if err := s.db.GetContext(ctx, &count, query); err != nil {
		return 0, err
	}
	return count, nil
}
