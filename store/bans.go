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

// BanStore persists global bans.
type BanStore struct {
	db *sqlx.DB
}

// NewBanStore returns a store bound to the given database handle.
func NewBanStore(db *sqlx.DB) *BanStore {
	return &BanStore{db: db}
}

// IsBanned reports whether the user is globally banned.
func (s *BanStore) IsBanned(ctx context.Context, userID int64) (bool, error) {
	var banned bool
	const q = `SELECT EXISTS (SELECT 1 FROM global_bans WHERE user_id = $1)`
	if err := s.db.GetContext(ctx, &banned, q, userID); err != nil {
		return false, fmt.Errorf("is banned %d: %w", userID, err)
	}
	return banned, nil
}

// Ban records a global ban. It reports whether a new ban was created.
func (s *BanStore) Ban(ctx context.Context, ban *auction.GlobalBan) (bool, error) {
	if ban.BannedAt.IsZero() {
		ban.BannedAt = time.Now().UTC()
	}
	const q = `INSERT INTO global_bans (user_id, reason, banned_by, banned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING`
	res, err := s.db.ExecContext(ctx, q, ban.UserID, ban.Reason, ban.BannedBy, ban.BannedAt)
	if err != nil {
		return false, fmt.Errorf("ban %d: %w", ban.UserID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ban %d: rows affected: %w", ban.UserID, err)
	}
	if n > 0 {
		logger.DB.Info("global ban recorded",
			slog.String("event", "store.ban.create"),
			slog.Int64("user_id", ban.UserID),
			slog.Int64("actor_id", ban.BannedBy),
		)
	}
	return n > 0, nil
}

// Unban lifts a global ban. It reports whether a ban existed.
func (s *BanStore) Unban(ctx context.Context, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM global_bans WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("unban %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unban %d: rows affected: %w", userID, err)
	}
	if n > 0 {
		logger.DB.Info("global ban lifted",
			slog.String("event", "store.ban.delete"),
			slog.Int64("user_id", userID),
		)
	}
	return n > 0, nil
}
