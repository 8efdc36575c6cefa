// Package auctions implements the auction lifecycle: submission intake,
// admin decisions, bidding, forced and natural endings, purges, and
// global bans.
package auctions

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"log/slog"

	"github.com/phantomtroupe/auctionbot/auction"
	"github.com/phantomtroupe/auctionbot/config"
	"github.com/phantomtroupe/auctionbot/logger"
	"github.com/phantomtroupe/auctionbot/telegram/format"
)

// SubmissionRepo is the persistence surface the service needs for items.
type SubmissionRepo interface {
	Create(ctx context.Context, sub *auction.Submission) error
	Get(ctx context.Context, id int64) (*auction.Submission, error)
	Decide(ctx context.Context, id int64, to auction.Status, expiresAt time.Time) (*auction.Submission, error)
	SetPostRefs(ctx context.Context, id, channelMessageID, groupMessageID int64) error
	PlaceBid(ctx context.Context, id int64, entry auction.BidEntry, increment int64) (*auction.Submission, error)
	MarkEnded(ctx context.Context, id int64, now time.Time) (*auction.Submission, error)
	MarkControlsStripped(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) (*auction.Submission, error)
	ListActive(ctx context.Context, category auction.Category, rarity string) ([]auction.Submission, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]auction.Submission, error)
}

// BanRepo is the persistence surface for global bans.
type BanRepo interface {
	IsBanned(ctx context.Context, userID int64) (bool, error)
	Ban(ctx context.Context, ban *auction.GlobalBan) (bool, error)
	Unban(ctx context.Context, userID int64) (bool, error)
}

// Actor identifies the Telegram user performing an operation.
type Actor struct {
	ID       int64
	Name     string
	Username string
}

func (a Actor) link() string {
	return format.UserLink(a.ID, format.DisplayName(a.Username, a.Name, a.ID))
}

// Service coordinates the auction lifecycle.
type Service struct {
	subs   SubmissionRepo
	bans   BanRepo
	notify Notifier
	chats  config.ChatsConfig
	rules  config.AuctionConfig
	priv   func(int64) bool
	now    func() time.Time
}

// Options wires the service dependencies.
type Options struct {
	Submissions SubmissionRepo
	Bans        BanRepo
	Notifier    Notifier
	Chats       config.ChatsConfig
	Rules       config.AuctionConfig
	IsPrivileged func(int64) bool
	Now         func() time.Time
}

// New constructs the auction service.
func New(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	priv := opts.IsPrivileged
	if priv == nil {
		priv = func(int64) bool { return false }
	}
	return &Service{
		subs:   opts.Submissions,
		bans:   opts.Bans,
		notify: opts.Notifier,
		chats:  opts.Chats,
		rules:  opts.Rules,
		priv:   priv,
		now:    now,
	}
}

// RequireNotBanned returns ErrBanned when the user is globally banned.
func (s *Service) RequireNotBanned(ctx context.Context, userID int64) error {
	banned, err := s.bans.IsBanned(ctx, userID)
	if err != nil {
		return fmt.Errorf("ban check: %w", err)
	}
	if banned {
		return auction.ErrBanned
	}
	return nil
}

// Submit validates a new submission, stores it pending, and posts it to the
// log group with decision controls.
func (s *Service) Submit(ctx context.Context, sub *auction.Submission) error {
	if err := s.RequireNotBanned(ctx, sub.OwnerID); err != nil {
		return err
	}
	if _, ok := auction.ParseCategory(string(sub.Category)); !ok {
		return &auction.ValidationError{Field: "category", Reason: "must be waifu or husbando"}
	}
	if !auction.ValidRarity(sub.Rarity) {
		return &auction.ValidationError{Field: "rarity", Reason: "unknown rarity symbol"}
	}
	if sub.BaseBid < 0 {
		return &auction.ValidationError{Field: "base_bid", Reason: "must not be negative"}
	}
	if sub.FileID == "" {
		return &auction.ValidationError{Field: "photo", Reason: "missing item photo"}
	}
	sub.Status = auction.StatusPending
	sub.SubmittedAt = s.now()
	if err := s.subs.Create(ctx, sub); err != nil {
		return err
	}

	controls := []Button{
		{Text: "✅ Approve", Data: "approve|" + strconv.FormatInt(sub.ID, 10)},
		{Text: "❌ Reject", Data: "reject|" + strconv.FormatInt(sub.ID, 10)},
	}
	attempt(ctx, "auction.submit.log_post", sub.ID, func(callCtx context.Context) error {
		_, err := s.notify.SendPhoto(callCtx, s.chats.LogGroupID, sub.FileID, approvalCaption(sub), controls)
		return err
	})

	logger.SVCAuctions.Info("submission received",
		slog.String("event", "auction.submit"),
		slog.String("status", "ok"),
		slog.Int64("item_id", sub.ID),
		slog.Int64("seller_id", sub.OwnerID),
		slog.String("category", string(sub.Category)),
		slog.String("rarity", sub.Rarity),
		slog.Int64("base_bid", sub.BaseBid),
	)
	return nil
}

// Approve transitions a pending item to approved, posts it to the group
// (pinned) and channel (with bid control), and notifies the seller. The
// decision is durable even when any of the posts fail.
func (s *Service) Approve(ctx context.Context, actor Actor, itemID int64) (*auction.Submission, error) {
	if err := s.RequireNotBanned(ctx, actor.ID); err != nil {
		return nil, err
	}
	if !s.priv(actor.ID) {
		return nil, auction.ErrUnauthorized
	}
	expiresAt := s.now().Add(s.rules.ExpiryDuration())
	sub, err := s.subs.Decide(ctx, itemID, auction.StatusApproved, expiresAt)
	if err != nil {
		return nil, err
	}

	caption := auctionCaption(sub)

	var groupMsgID, channelMsgID int
	groupPostLink := ""
	if attempt(ctx, "auction.approve.group_post", itemID, func(callCtx context.Context) error {
		id, err := s.notify.SendPhoto(callCtx, s.chats.GroupID, sub.FileID, caption)
		if err != nil {
			return err
		}
		groupMsgID = id
		return nil
	}) {
		if s.chats.GroupURL != "" {
			groupPostLink = fmt.Sprintf("%s/%d", s.chats.GroupURL, groupMsgID)
		}
		attempt(ctx, "auction.approve.group_pin", itemID, func(callCtx context.Context) error {
			return s.notify.Pin(callCtx, s.chats.GroupID, groupMsgID)
		})
	}

	bidURL := groupPostLink
	if bidURL == "" {
		bidURL = fmt.Sprintf("%s?start=bid_%d", s.chats.GroupURL, itemID)
	}
	attempt(ctx, "auction.approve.channel_post", itemID, func(callCtx context.Context) error {
		id, err := s.notify.SendPhoto(callCtx, s.chats.ChannelID, sub.FileID, caption,
			[]Button{{Text: "💸 Bid Now", URL: bidURL}})
		if err != nil {
			return err
		}
		channelMsgID = id
		return nil
	})

	if groupMsgID != 0 || channelMsgID != 0 {
		if err := s.subs.SetPostRefs(ctx, itemID, int64(channelMsgID), int64(groupMsgID)); err != nil {
			logger.SVCAuctions.Error("post refs not saved",
				slog.String("event", "auction.approve"),
				slog.Int64("item_id", itemID),
				slog.String("err", err.Error()),
			)
		}
		sub.ChannelMessageID = int64(channelMsgID)
		sub.GroupMessageID = int64(groupMsgID)
	}

	attempt(ctx, "auction.approve.owner_dm", itemID, func(callCtx context.Context) error {
		var rows [][]Button
		if channelMsgID != 0 && s.chats.ChannelURL != "" {
			postLink := fmt.Sprintf("%s/%d", s.chats.ChannelURL, channelMsgID)
			rows = append(rows, []Button{{Text: "👉 View Post", URL: postLink}})
		}
		_, err := s.notify.SendPhoto(callCtx, sub.OwnerID, sub.FileID, approvedDM(sub), rows...)
		return err
	})

	logger.SVCAuctions.Info("submission approved",
		slog.String("event", "auction.approve"),
		slog.String("status", "ok"),
		slog.Int64("item_id", itemID),
		slog.Int64("actor_id", actor.ID),
		slog.Int64("seller_id", sub.OwnerID),
	)
	return sub, nil
}

// Reject transitions a pending item to rejected and notifies the seller.
func (s *Service) Reject(ctx context.Context, actor Actor, itemID int64) (*auction.Submission, error) {
	if err := s.RequireNotBanned(ctx, actor.ID); err != nil {
		return nil, err
	}
	if !s.priv(actor.ID) {
		return nil, auction.ErrUnauthorized
	}
	sub, err := s.subs.Decide(ctx, itemID, auction.StatusRejected, time.Time{})
	if err != nil {
		return nil, err
	}

	attempt(ctx, "auction.reject.owner_dm", itemID, func(callCtx context.Context) error {
		_, err := s.notify.SendPhoto(callCtx, sub.OwnerID, sub.FileID, rejectedDM(sub))
		return err
	})

	logger.SVCAuctions.Info("submission rejected",
		slog.String("event", "auction.reject"),
		slog.String("status", "ok"),
		slog.Int64("item_id", itemID),
		slog.Int64("actor_id", actor.ID),
		slog.Int64("seller_id", sub.OwnerID),
	)
	return sub, nil
}

// PlaceBid validates and records a bid, then re-renders the channel and
// group post captions with the new highest bid.
func (s *Service) PlaceBid(ctx context.Context, actor Actor, itemID, amount int64) (*auction.Submission, error) {
	if err := s.RequireNotBanned(ctx, actor.ID); err != nil {
		return nil, err
	}
	entry := auction.BidEntry{
		UserID:   actor.ID,
		Username: format.DisplayName(actor.Username, actor.Name, actor.ID),
		Amount:   amount,
		PlacedAt: s.now(),
	}
	sub, err := s.subs.PlaceBid(ctx, itemID, entry, s.rules.MinIncrement)
	if err != nil {
		return nil, err
	}

	caption := bidCaption(sub)
	if sub.ChannelMessageID != 0 {
		bidURL := fmt.Sprintf("%s?start=bid_%d", s.chats.GroupURL, itemID)
		if sub.GroupMessageID != 0 && s.chats.GroupURL != "" {
			bidURL = fmt.Sprintf("%s/%d", s.chats.GroupURL, sub.GroupMessageID)
		}
		attempt(ctx, "auction.bid.channel_edit", itemID, func(callCtx context.Context) error {
			return s.notify.EditCaption(callCtx, s.chats.ChannelID, int(sub.ChannelMessageID), caption,
				[]Button{{Text: "💸 Bid Now", URL: bidURL}})
		})
	}
	if sub.GroupMessageID != 0 {
		attempt(ctx, "auction.bid.group_edit", itemID, func(callCtx context.Context) error {
			return s.notify.EditCaption(callCtx, s.chats.GroupID, int(sub.GroupMessageID), caption)
		})
	}

	logger.SVCAuctions.Info("bid placed",
		slog.String("event", "auction.bid"),
		slog.String("status", "ok"),
		slog.Int64("item_id", itemID),
		slog.Int64("actor_id", actor.ID),
		slog.Int64("bid", amount),
	)
	return sub, nil
}

// ForceEnd terminates an approved auction immediately with the full
// end-of-auction fan-out, attributed to the acting admin.
func (s *Service) ForceEnd(ctx context.Context, actor Actor, itemID int64) (*auction.Submission, error) {
	if !s.priv(actor.ID) {
		return nil, auction.ErrUnauthorized
	}
	sub, err := s.subs.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if sub.Status != auction.StatusApproved {
		return nil, auction.ErrAuctionClosed
	}
	// Announce from the row the transition returns, never from the read
	// above: a bid can still commit in between.
	ended, err := s.subs.MarkEnded(ctx, itemID, s.now())
	if err != nil {
		return nil, err
	}
	if ended == nil {
		return nil, auction.ErrAuctionClosed
	}
	sub = ended

	s.AnnounceEnd(ctx, sub, actor.link())

	logger.SVCAuctions.Info("auction force-ended",
		slog.String("event", "auction.force_end"),
		slog.String("status", "ok"),
		slog.Int64("item_id", itemID),
		slog.Int64("actor_id", actor.ID),
		slog.Int64("final_bid", sub.CurrentBid),
	)
	return sub, nil
}

// AnnounceEnd performs the ordered best-effort end-of-auction fan-out:
// group announcement, channel caption edit, winner DM, seller DM, log
// mirror. The caller must already own the terminal transition.
func (s *Service) AnnounceEnd(ctx context.Context, sub *auction.Submission, forcedBy string) {
	announcement := endAnnouncement(sub, forcedBy)
	forced := forcedBy != ""

	var rows [][]Button
	if row := contactButtons(sub); len(row) > 0 {
		rows = append(rows, row)
	}
	attempt(ctx, "auction.end.group_announce", sub.ID, func(callCtx context.Context) error {
		_, err := s.notify.SendPhoto(callCtx, s.chats.GroupID, sub.FileID, announcement, rows...)
		return err
	})

	if sub.ChannelMessageID != 0 {
		footer := "\n\n⏰ <b>Auction Ended</b>"
		if forced {
			footer = "\n\n⏰ <b>Auction Force-Ended by Admin</b>"
		}
		if attempt(ctx, "auction.end.channel_edit", sub.ID, func(callCtx context.Context) error {
			return s.notify.EditCaption(callCtx, s.chats.ChannelID, int(sub.ChannelMessageID), announcement+footer)
		}) {
			if _, err := s.subs.MarkControlsStripped(ctx, sub.ID); err != nil {
				logger.SVCAuctions.Warn("controls flag not saved",
					slog.String("event", "auction.end"),
					slog.Int64("item_id", sub.ID),
					slog.String("err", err.Error()),
				)
			}
		}
	}

	if sub.HasWinner() {
		attempt(ctx, "auction.end.winner_dm", sub.ID, func(callCtx context.Context) error {
			_, err := s.notify.SendMessage(callCtx, sub.LastBidderID, winnerDM(sub, forced))
			return err
		})
	}
	if sub.OwnerID != 0 {
		attempt(ctx, "auction.end.seller_dm", sub.ID, func(callCtx context.Context) error {
			_, err := s.notify.SendMessage(callCtx, sub.OwnerID, sellerDM(sub, forced))
			return err
		})
	}
	if s.chats.LogGroupID != 0 {
		header := "✅ <b>Auction Ended Log</b>\n\n"
		if forced {
			header = "🛑 <b>Force-End Log</b>\n\n"
		}
		attempt(ctx, "auction.end.log_mirror", sub.ID, func(callCtx context.Context) error {
			_, err := s.notify.SendPhoto(callCtx, s.chats.LogGroupID, sub.FileID, header+announcement)
			return err
		})
	}

	if sub.GroupMessageID != 0 {
		attempt(ctx, "auction.end.group_unpin", sub.ID, func(callCtx context.Context) error {
			return s.notify.Unpin(callCtx, s.chats.GroupID, int(sub.GroupMessageID))
		})
	}
}

// Purge deletes submissions and their posted messages. Returns the number
// of rows removed.
func (s *Service) Purge(ctx context.Context, actor Actor, ids []int64) (int, error) {
	if !s.priv(actor.ID) {
		return 0, auction.ErrUnauthorized
	}
	removed := 0
	for _, id := range ids {
		sub, err := s.subs.Delete(ctx, id)
		if err != nil {
			if err == auction.ErrNotFound {
				continue
			}
			return removed, err
		}
		removed++
		if sub.ChannelMessageID != 0 {
			attempt(ctx, "auction.purge.channel_delete", id, func(callCtx context.Context) error {
				return s.notify.DeleteMessage(callCtx, s.chats.ChannelID, int(sub.ChannelMessageID))
			})
		}
		if sub.GroupMessageID != 0 {
			attempt(ctx, "auction.purge.group_delete", id, func(callCtx context.Context) error {
				return s.notify.DeleteMessage(callCtx, s.chats.GroupID, int(sub.GroupMessageID))
			})
		}
	}
	logger.SVCAuctions.Info("submissions purged",
		slog.String("event", "auction.purge"),
		slog.String("status", "ok"),
		slog.Int64("actor_id", actor.ID),
		slog.Int("count", removed),
	)
	return removed, nil
}

// Ban records a global ban. Privileged identities cannot be banned and
// admins cannot ban themselves.
func (s *Service) Ban(ctx context.Context, actor Actor, targetID int64, reason string) (bool, error) {
	if !s.priv(actor.ID) {
		return false, auction.ErrUnauthorized
	}
	if targetID == actor.ID {
		return false, &auction.ValidationError{Field: "user", Reason: "cannot ban yourself"}
	}
	if s.priv(targetID) {
		return false, &auction.ValidationError{Field: "user", Reason: "cannot ban an admin"}
	}
	created, err := s.bans.Ban(ctx, &auction.GlobalBan{UserID: targetID, Reason: reason, BannedBy: actor.ID})
	if err != nil {
		return false, err
	}
	if created {
		logger.SVCBans.Info("global ban recorded",
			slog.String("event", "ban.create"),
			slog.String("status", "ok"),
			slog.Int64("user_id", targetID),
			slog.Int64("actor_id", actor.ID),
		)
	}
	if created && s.chats.LogGroupID != 0 {
		text := fmt.Sprintf("🚫 <b>Global Ban</b>\n👤 User: <code>%d</code>\n🛡️ By: %s", targetID, actor.link())
		if reason != "" {
			text += "\n📝 Reason: " + format.EscapeHTML(reason)
		}
		attempt(ctx, "auction.ban.log", targetID, func(callCtx context.Context) error {
			_, err := s.notify.SendMessage(callCtx, s.chats.LogGroupID, text)
			return err
		})
	}
	return created, nil
}

// Unban lifts a global ban.
func (s *Service) Unban(ctx context.Context, actor Actor, targetID int64) (bool, error) {
	if !s.priv(actor.ID) {
		return false, auction.ErrUnauthorized
	}
	removed, err := s.bans.Unban(ctx, targetID)
	if err != nil {
		return false, err
	}
	if removed {
		logger.SVCBans.Info("global ban lifted",
			slog.String("event", "ban.lift"),
			slog.String("status", "ok"),
			slog.Int64("user_id", targetID),
			slog.Int64("actor_id", actor.ID),
		)
	}
	if removed && s.chats.LogGroupID != 0 {
		text := fmt.Sprintf("♻️ <b>Global Ban Lifted</b>\n👤 User: <code>%d</code>\n🛡️ By: %s", targetID, actor.link())
		attempt(ctx, "auction.unban.log", targetID, func(callCtx context.Context) error {
			_, err := s.notify.SendMessage(callCtx, s.chats.LogGroupID, text)
			return err
		})
	}
	return removed, nil
}

// ListActive returns open auctions for the given category and rarity.
func (s *Service) ListActive(ctx context.Context, category auction.Category, rarity string) ([]auction.Submission, error) {
	return s.subs.ListActive(ctx, category, rarity)
}

// ListByOwner returns all submissions of one seller.
func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]auction.Submission, error) {
	return s.subs.ListByOwner(ctx, ownerID)
}

// Get loads one submission.
func (s *Service) Get(ctx context.Context, id int64) (*auction.Submission, error) {
	return s.subs.Get(ctx, id)
}

// MinIncrement exposes the configured bid step for handler messages.
func (s *Service) MinIncrement() int64 {
	return s.rules.MinIncrement
}
