// Package sweeper runs the background loops that end overdue auctions and
// strip stale bid controls from channel posts.
package sweeper

import (
	"context"
	"time"

	"log/slog"

	"github.com/phantomtroupe/auctionbot/auction"
	"github.com/phantomtroupe/auctionbot/logger"
)

// Store is the persistence surface the sweeps need.
type Store interface {
	ListExpired(ctx context.Context, now time.Time, limit int) ([]auction.Submission, error)
	MarkEnded(ctx context.Context, id int64, now time.Time) (*auction.Submission, error)
	ListCleanupCandidates(ctx context.Context, now time.Time) ([]auction.Submission, error)
	MarkControlsStripped(ctx context.Context, id int64) (bool, error)
}

// Announcer performs the end-of-auction notification fan-out.
type Announcer interface {
	AnnounceEnd(ctx context.Context, sub *auction.Submission, forcedBy string)
}

// ControlStripper removes the inline bid control from a posted message.
type ControlStripper interface {
	StripControls(ctx context.Context, chatID int64, messageID int) error
}

// batchLimit bounds how many overdue items one sweep pass processes.
const batchLimit = 100

// Sweeper owns the primary expiry sweep and the secondary control cleanup.
type Sweeper struct {
	store     Store
	announcer Announcer
	stripper  ControlStripper
	channelID int64

	sweepInterval   time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// Options wires the sweeper dependencies.
type Options struct {
	Store           Store
	Announcer       Announcer
	Stripper        ControlStripper
	ChannelID       int64
	SweepInterval   time.Duration
	CleanupInterval time.Duration
	Now             func() time.Time
}

// New constructs a sweeper.
func New(opts Options) *Sweeper {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Hour
	}
	return &Sweeper{
		store:           opts.Store,
		announcer:       opts.Announcer,
		stripper:        opts.Stripper,
		channelID:       opts.ChannelID,
		sweepInterval:   opts.SweepInterval,
		cleanupInterval: opts.CleanupInterval,
		now:             now,
	}
}

// Run blocks, driving both sweep loops until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	logger.SWEEP.Info("sweeper started",
		slog.String("event", "sweep.start"),
		slog.Duration("duration", s.sweepInterval),
	)

	sweepTicker := time.NewTicker(s.sweepInterval)
	cleanupTicker := time.NewTicker(s.cleanupInterval)
	defer sweepTicker.Stop()
	defer cleanupTicker.Stop()

	// Catch up immediately on start so a restart never extends auctions.
	s.runExpiry(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.SWEEP.Info("sweeper stopped", slog.String("event", "sweep.stop"))
			return
		case <-sweepTicker.C:
			s.runExpiry(ctx)
		case <-cleanupTicker.C:
			s.runCleanup(ctx)
		}
	}
}

func (s *Sweeper) runExpiry(ctx context.Context) {
	start := time.Now()
	ended, err := s.SweepExpired(ctx)
	if err != nil {
		logger.SWEEP.Error("expiry sweep failed",
			slog.String("event", "sweep.expiry"),
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return
	}
	if ended > 0 {
		logger.SWEEP.Info("expiry sweep finished",
			slog.String("event", "sweep.expiry"),
			slog.String("status", "ok"),
			slog.Int("count", ended),
			slog.Duration("duration", logger.Took(start)),
		)
	}
}

func (s *Sweeper) runCleanup(ctx context.Context) {
	stripped, err := s.SweepControls(ctx)
	if err != nil {
		logger.SWEEP.Error("cleanup sweep failed",
			slog.String("event", "sweep.cleanup"),
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return
	}
	if stripped > 0 {
		logger.SWEEP.Info("cleanup sweep finished",
			slog.String("event", "sweep.cleanup"),
			slog.String("status", "ok"),
			slog.Int("count", stripped),
		)
	}
}

// SweepExpired ends every approved auction past its deadline. The conditional
// MarkEnded runs before any notification, so the terminal transition and the
// announcement fan-out happen at most once per item even with concurrent
// sweeps or admin force-ends. The fan-out uses the row MarkEnded returns, not
// the listing snapshot, so a bid landing between the two is still announced.
// Per-item failures never abort the pass.
func (s *Sweeper) SweepExpired(ctx context.Context) (int, error) {
	now := s.now()
	items, err := s.store.ListExpired(ctx, now, batchLimit)
	if err != nil {
		return 0, err
	}
	ended := 0
	for i := range items {
		sub, err := s.store.MarkEnded(ctx, items[i].ID, now)
		if err != nil {
			logger.SWEEP.Error("terminal transition failed",
				slog.String("event", "sweep.expiry.item"),
				slog.String("status", "fail"),
				slog.Int64("item_id", items[i].ID),
				slog.String("err", err.Error()),
			)
			continue
		}
		if sub == nil {
			// Someone else ended it between listing and update.
			continue
		}
		s.announcer.AnnounceEnd(ctx, sub, "")
		ended++

		logger.SWEEP.Info("auction expired",
			slog.String("event", "sweep.expiry.item"),
			slog.String("status", "ok"),
			slog.Int64("item_id", sub.ID),
			slog.Int64("final_bid", sub.CurrentBid),
			slog.Int64("winner_id", sub.LastBidderID),
			slog.Int64("seller_id", sub.OwnerID),
		)
	}
	return ended, nil
}

// SweepControls removes the bid control from channel posts past deadline.
// It never performs the terminal transition itself; items it touches are
// still announced by the expiry sweep. Failed strips stay unmarked and are
// retried on the next pass.
func (s *Sweeper) SweepControls(ctx context.Context) (int, error) {
	now := s.now()
	items, err := s.store.ListCleanupCandidates(ctx, now)
	if err != nil {
		return 0, err
	}
	stripped := 0
	for i := range items {
		sub := &items[i]
		if err := s.stripper.StripControls(ctx, s.channelID, int(sub.ChannelMessageID)); err != nil {
			logger.SWEEP.Warn("control strip failed",
				slog.String("event", "sweep.cleanup.item"),
				slog.String("status", "fail"),
				slog.Int64("item_id", sub.ID),
				slog.String("err", err.Error()),
			)
			continue
		}
		if _, err := s.store.MarkControlsStripped(ctx, sub.ID); err != nil {
			logger.SWEEP.Error("strip flag not saved",
				slog.String("event", "sweep.cleanup.item"),
				slog.Int64("item_id", sub.ID),
				slog.String("err", err.Error()),
			)
			continue
		}
		stripped++
	}
	return stripped, nil
}
