package auctions

import (
	"context"
	"time"

	"log/slog"

	"github.com/phantomtroupe/auctionbot/logger"
)

// Button is a transport-neutral inline control. Exactly one of URL or Data
// is set.
type Button struct {
	Text string
	URL  string
	Data string
}

// Notifier abstracts outbound Telegram operations so the service layer can
// be exercised without a live bot.
type Notifier interface {
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string, rows ...[]Button) (int, error)
	SendMessage(ctx context.Context, chatID int64, text string, rows ...[]Button) (int, error)
	EditCaption(ctx context.Context, chatID int64, messageID int, caption string, rows ...[]Button) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	Pin(ctx context.Context, chatID int64, messageID int) error
	Unpin(ctx context.Context, chatID int64, messageID int) error
}

// notifyTimeout bounds each best-effort outbound call so one stuck send
// cannot stall a sweep or an approval fan-out.
const notifyTimeout = 10 * time.Second

// attempt runs one best-effort notification step. Failures are logged and
// swallowed; lifecycle transitions never roll back because a send failed.
func attempt(ctx context.Context, event string, itemID int64, fn func(context.Context) error) bool {
	callCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := fn(callCtx); err != nil {
		logger.SVCAuctions.Warn("notification failed",
			slog.String("event", event),
			slog.String("status", "fail"),
			slog.Int64("item_id", itemID),
			slog.String("err", err.Error()),
		)
		return false
	}
	return true
}
