package store

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/phantomtroupe/auctionbot/auction"
	"github.com/phantomtroupe/auctionbot/logger"
)

// UserStore persists Telegram accounts known to the bot.
type UserStore struct {
	db *sqlx.DB
}

// NewUserStore returns a store bound to the given database handle.
func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// Upsert inserts the user on first contact and refreshes name and last-seen
// on later interactions. It reports whether the user is new.
func (s *UserStore) Upsert(ctx context.Context, u *auction.User) (bool, error) {
	now := time.Now().UTC()
	if u.FirstSeen.IsZero() {
		u.FirstSeen = now
	}
	u.LastSeen = now

	// xmax is 0 only on a freshly inserted row version; an updated row
	// carries the updating transaction id, so (xmax = 0) is true exactly
	// on first contact.
	const q = `INSERT INTO users (id, full_name, username, first_seen, last_seen)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET full_name = EXCLUDED.full_name, username = EXCLUDED.username, last_seen = EXCLUDED.last_seen
		RETURNING (xmax = 0)`
	var inserted bool
	if err := s.db.GetContext(ctx, &inserted, q, u.ID, u.FullName, u.Username, u.FirstSeen, u.LastSeen); err != nil {
		return false, fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	if inserted {
		logger.DB.Debug("user registered",
			slog.String("event", "store.user.register"),
			slog.Int64("user_id", u.ID),
		)
	}
	return inserted, nil
}

// Exists reports whether the user has started the bot before.
func (s *UserStore) Exists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`
	if err := s.db.GetContext(ctx, &exists, q, userID); err != nil {
		return false, fmt.Errorf("user exists %d: %w", userID, err)
	}
	return exists, nil
}

// Count returns the total number of registered users.
func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
