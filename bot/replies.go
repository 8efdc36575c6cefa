package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phantomtroupe/auctionbot/auction"
	"github.com/phantomtroupe/auctionbot/telegram/format"
)

// userMessage maps domain errors to short user-facing replies.
func userMessage(err error) string {
	var low *auction.BidTooLowError
	var verr *auction.ValidationError
	switch {
	case errors.As(err, &low):
		return fmt.Sprintf("❌ Bid too low. The minimum next bid is <b>%d</b>.", low.MinNext)
	case errors.Is(err, auction.ErrSelfBid):
		return "❌ You cannot bid on your own auction."
	case errors.Is(err, auction.ErrAuctionClosed):
		return "❌ This auction is not open for bidding."
	case errors.Is(err, auction.ErrBanned):
		return "🚫 You are banned from using the auction."
	case errors.Is(err, auction.ErrNotFound):
		return "❌ That auction item does not exist."
	case errors.Is(err, auction.ErrAlreadyDecided):
		return "⚠️ This submission has already been decided."
	case errors.Is(err, auction.ErrUnauthorized):
		return "🚫 You are not allowed to do that."
	case errors.As(err, &verr):
		return "❌ " + format.EscapeHTML(verr.Reason)
	}
	return "⚠️ Something went wrong. Please try again."
}

var tagStripper = strings.NewReplacer("<b>", "", "</b>", "", "<code>", "", "</code>", "")

// alertMessage is userMessage without markup, for callback answer popups.
func alertMessage(err error) string {
	return tagStripper.Replace(userMessage(err))
}
