package bot

import (
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/phantomtroupe/auctionbot/parse"
	tghelpers "github.com/phantomtroupe/auctionbot/telegram/helpers"
)

const bidUsage = "Usage: reply to an auction post with <code>/bid &lt;amount&gt;</code>, " +
	"or send <code>/bid &lt;item_id&gt; &lt;amount&gt;</code>."

func (a *App) handleBid(c tele.Context) error {
	if !isGroupChat(c) {
		return tghelpers.ReplyHTML(c, "💸 Bidding happens in the auction group.")
	}

	itemID, amount, ok := parseBidArgs(c)
	if !ok {
		return tghelpers.ReplyHTML(c, bidUsage)
	}
	if !a.requireStarted(c, itemID) {
		return nil
	}
	if !a.requireMembership(c) {
		return nil
	}

	ctx := tghelpers.BuildContext(c)
	sub, err := a.auctions.PlaceBid(ctx, actorFrom(c.Sender()), itemID, amount)
	if err != nil {
		return tghelpers.ReplyHTML(c, userMessage(err))
	}

	return tghelpers.ReplyHTML(c, fmt.Sprintf(
		"✅ <b>Bid accepted!</b>\n\n"+
			"🆔 Item ID: <code>%d</code>\n"+
			"💰 Your bid: <b>%d</b>\n"+
			"⏳ Next bid must be at least <b>%d</b>.",
		sub.ID, amount, sub.MinNextBid(a.auctions.MinIncrement())))
}

// parseBidArgs resolves the target item and amount either from a reply to an
// auction post or from explicit arguments.
func parseBidArgs(c tele.Context) (itemID, amount int64, ok bool) {
	args := c.Args()
	msg := c.Message()

	if msg != nil && msg.ReplyTo != nil {
		text := msg.ReplyTo.Caption
		if text == "" {
			text = msg.ReplyTo.Text
		}
		id, found := parse.ItemIDFromPost(text)
		if found && len(args) == 1 {
			amt, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || amt <= 0 {
				return 0, 0, false
			}
			return id, amt, true
		}
	}

	if len(args) == 2 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return 0, 0, false
		}
		amt, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || amt <= 0 {
			return 0, 0, false
		}
		return id, amt, true
	}
	return 0, 0, false
}
