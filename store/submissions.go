// Package store implements Postgres persistence for auction submissions,
// users, and global bans on top of sqlx.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/phantomtroupe/auctionbot/auction"
	"github.com/phantomtroupe/auctionbot/logger"
)

// SubmissionStore persists auction submissions.
type SubmissionStore struct {
	db *sqlx.DB
}

// NewSubmissionStore returns a store bound to the given database handle.
func NewSubmissionStore(db *sqlx.DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

const submissionColumns = `id, owner_id, owner_name, owner_username, category, rarity, rarity_name,
	anime_name, item_name, optional_tag, caption, file_id, submitted_at, status, base_bid,
	channel_message_id, group_message_id, expires_at, is_expired, controls_stripped,
	current_bid, last_bidder_id, last_bidder_name, last_bid_at, bidders`

// Create inserts a pending submission and fills in its assigned id.
func (s *SubmissionStore) Create(ctx context.Context, sub *auction.Submission) error {
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	if sub.Status == "" {
		sub.Status = auction.StatusPending
	}
	if sub.Bidders == nil {
		sub.Bidders = auction.BidHistory{}
	}
	const q = `INSERT INTO submissions (
		owner_id, owner_name, owner_username, category, rarity, rarity_name,
		anime_name, item_name, optional_tag, caption, file_id, submitted_at, status, base_bid, bidders
	) VALUES (
		:owner_id, :owner_name, :owner_username, :category, :rarity, :rarity_name,
		:anime_name, :item_name, :optional_tag, :caption, :file_id, :submitted_at, :status, :base_bid, :bidders
	) RETURNING id`
	rows, err := sqlx.NamedQueryContext(ctx, s.db, q, sub)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return fmt.Errorf("insert submission: no id returned")
	}
	if err := rows.Scan(&sub.ID); err != nil {
		return fmt.Errorf("insert submission: scan id: %w", err)
	}
	logger.DB.Debug("submission created",
		slog.String("event", "store.submission.create"),
		slog.Int64("item_id", sub.ID),
		slog.Int64("seller_id", sub.OwnerID),
	)
	return nil
}

// Get loads a submission by id.
func (s *SubmissionStore) Get(ctx context.Context, id int64) (*auction.Submission, error) {
	var sub auction.Submission
	q := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	if err := s.db.GetContext(ctx, &sub, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auction.ErrNotFound
		}
		return nil, fmt.Errorf("get submission %d: %w", id, err)
	}
	return &sub, nil
}

// Decide performs the pending-only transition to approved or rejected.
// Approving also arms the expiry deadline.
func (s *SubmissionStore) Decide(ctx context.Context, id int64, to auction.Status, expiresAt time.Time) (*auction.Submission, error) {
	var q string
	var args []any
	switch to {
	case auction.StatusApproved:
		q = `UPDATE submissions
			SET status = $2, expires_at = $3, is_expired = FALSE
			WHERE id = $1 AND status = 'pending'
			RETURNING ` + submissionColumns
		args = []any{id, to, expiresAt.UTC()}
	case auction.StatusRejected:
		q = `UPDATE submissions
			SET status = $2
			WHERE id = $1 AND status = 'pending'
			RETURNING ` + submissionColumns
		args = []any{id, to}
	default:
		return nil, fmt.Errorf("decide submission %d: unsupported target status %q", id, to)
	}

	var sub auction.Submission
	err := s.db.GetContext(ctx, &sub, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		// Guard failed: distinguish missing row from an earlier decision.
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, auction.ErrAlreadyDecided
	}
	if err != nil {
		return nil, fmt.Errorf("decide submission %d: %w", id, err)
	}
	logger.DB.Debug("submission decided",
		slog.String("event", "store.submission.decide"),
		slog.Int64("item_id", id),
		slog.String("status", string(to)),
	)
	return &sub, nil
}

// SetPostRefs records the channel and group message ids after posting.
func (s *SubmissionStore) SetPostRefs(ctx context.Context, id, channelMessageID, groupMessageID int64) error {
	const q = `UPDATE submissions SET channel_message_id = $2, group_message_id = $3 WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, q, id, channelMessageID, groupMessageID); err != nil {
		return fmt.Errorf("set post refs for %d: %w", id, err)
	}
	return nil
}

// PlaceBid validates and applies a bid inside a single transaction holding a
// row lock, so concurrent bids serialize and last-write-wins cannot regress
// the current bid.
func (s *SubmissionStore) PlaceBid(ctx context.Context, id int64, entry auction.BidEntry, increment int64) (*auction.Submission, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("place bid: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var sub auction.Submission
	q := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &sub, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auction.ErrNotFound
		}
		return nil, fmt.Errorf("place bid: lock submission %d: %w", id, err)
	}

	now := entry.PlacedAt
	if now.IsZero() {
		now = time.Now().UTC()
		entry.PlacedAt = now
	}
	if !sub.Open(now) {
		return nil, auction.ErrAuctionClosed
	}
	if sub.OwnerID == entry.UserID {
		return nil, auction.ErrSelfBid
	}
	minNext := sub.MinNextBid(increment)
	if entry.Amount < minNext {
		return nil, &auction.BidTooLowError{Offered: entry.Amount, MinNext: minNext}
	}

	sub.Bidders = sub.Bidders.Push(entry)
	sub.CurrentBid = entry.Amount
	sub.LastBidderID = entry.UserID
	sub.LastBidderName = entry.Username
	sub.LastBidAt = &now

	const upd = `UPDATE submissions
		SET current_bid = $2, last_bidder_id = $3, last_bidder_name = $4, last_bid_at = $5, bidders = $6
		WHERE id = $1`
	if _, err := tx.ExecContext(ctx, upd, id, sub.CurrentBid, sub.LastBidderID, sub.LastBidderName, sub.LastBidAt, sub.Bidders); err != nil {
		return nil, fmt.Errorf("place bid: update submission %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("place bid: commit: %w", err)
	}
	logger.DB.Debug("bid recorded",
		slog.String("event", "store.submission.bid"),
		slog.Int64("item_id", id),
		slog.Int64("bid", entry.Amount),
		slog.Int64("actor_id", entry.UserID),
	)
	return &sub, nil
}

// MarkEnded performs the at-most-once terminal transition for an approved item
// and returns the row as of the transition. Announcing from this row, not from
// an earlier read, is what keeps a bid committing between that read and the
// transition from being dropped. Returns nil when the item already left approved.
func (s *SubmissionStore) MarkEnded(ctx context.Context, id int64, now time.Time) (*auction.Submission, error) {
	q := `UPDATE submissions
		SET status = 'ended', is_expired = TRUE, expires_at = LEAST(expires_at, $2)
		WHERE id = $1 AND status = 'approved' AND is_expired = FALSE
		RETURNING ` + submissionColumns
	var sub auction.Submission
	err := s.db.GetContext(ctx, &sub, q, id, now.UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mark ended %d: %w", id, err)
	}
	return &sub, nil
}

// ListExpired returns approved items past their deadline that nobody ended yet.
func (s *SubmissionStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]auction.Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM submissions
		WHERE status = 'approved' AND is_expired = FALSE AND expires_at <= $1
		ORDER BY expires_at ASC`
	args := []any{now.UTC()}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	var out []auction.Submission
	if err := s.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, fmt.Errorf("list expired: %w", err)
	}
	return out, nil
}

// ListCleanupCandidates returns items past deadline whose channel post still
// carries the bid control.
func (s *SubmissionStore) ListCleanupCandidates(ctx context.Context, now time.Time) ([]auction.Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM submissions
		WHERE expires_at <= $1 AND controls_stripped = FALSE AND channel_message_id <> 0
		ORDER BY expires_at ASC`
	var out []auction.Submission
	if err := s.db.SelectContext(ctx, &out, q, now.UTC()); err != nil {
		return nil, fmt.Errorf("list cleanup candidates: %w", err)
	}
	return out, nil
}

// MarkControlsStripped records that the channel post's bid control was removed.
func (s *SubmissionStore) MarkControlsStripped(ctx context.Context, id int64) (bool, error) {
	const q = `UPDATE submissions SET controls_stripped = TRUE WHERE id = $1 AND controls_stripped = FALSE`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, fmt.Errorf("mark controls stripped %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark controls stripped %d: rows affected: %w", id, err)
	}
	return n > 0, nil
}

// Delete removes a submission and returns the deleted row for post cleanup.
func (s *SubmissionStore) Delete(ctx context.Context, id int64) (*auction.Submission, error) {
	var sub auction.Submission
	q := `DELETE FROM submissions WHERE id = $1 RETURNING ` + submissionColumns
	if err := s.db.GetContext(ctx, &sub, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auction.ErrNotFound
		}
		return nil, fmt.Errorf("delete submission %d: %w", id, err)
	}
	logger.DB.Debug("submission deleted",
		slog.String("event", "store.submission.delete"),
		slog.Int64("item_id", id),
	)
	return &sub, nil
}

// ListActive returns open auctions filtered by category and rarity symbol.
func (s *SubmissionStore) ListActive(ctx context.Context, category auction.Category, rarity string) ([]auction.Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM submissions
		WHERE status = 'approved' AND is_expired = FALSE AND category = $1 AND rarity = $2
		ORDER BY expires_at ASC`
	var out []auction.Submission
	if err := s.db.SelectContext(ctx, &out, q, category, rarity); err != nil {
		return nil, fmt.Errorf("list active: %w", err)
	}
	return out, nil
}

// ListByOwner returns all submissions of one seller, newest first.
func (s *SubmissionStore) ListByOwner(ctx context.Context, ownerID int64) ([]auction.Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM submissions WHERE owner_id = $1 ORDER BY submitted_at DESC`
	var out []auction.Submission
	if err := s.db.SelectContext(ctx, &out, q, ownerID); err != nil {
		return nil, fmt.Errorf("list by owner %d: %w", ownerID, err)
	}
	return out, nil
}

// Count returns the total number of submissions.
func (s *SubmissionStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM submissions`); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}
