package bot

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/phantomtroupe/auctionbot/auction"
	"github.com/phantomtroupe/auctionbot/telegram/format"
	tghelpers "github.com/phantomtroupe/auctionbot/telegram/helpers"
	"github.com/phantomtroupe/auctionbot/telegram/keyboard"
)

func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()

	isNew, err := a.users.Register(ctx, &auction.User{
		ID:       sender.ID,
		FullName: fullName(sender),
		Username: sender.Username,
	})
	if err == nil && isNew && a.cfg.Chats.LogGroupID != 0 {
		line := fmt.Sprintf("🆕 New user: %s", format.UserLink(sender.ID, format.DisplayName(sender.Username, fullName(sender), sender.ID)))
		_, _ = a.notify.SendMessage(ctx, a.cfg.Chats.LogGroupID, line)
	}

	// Deep link from a channel post: /start bid_<item_id>
	if payload := c.Message().Payload; strings.HasPrefix(payload, "bid_") {
		if id, perr := strconv.ParseInt(strings.TrimPrefix(payload, "bid_"), 10, 64); perr == nil {
			return a.startBidHint(c, id)
		}
	}

	caption := fmt.Sprintf(
		"👋 Welcome %s!\n\n"+
			"This is the <b>Waifu/Husbando Auction</b> bot.\n\n"+
			"• /add — submit a card for auction\n"+
			"• /items — browse active auctions\n"+
			"• /bid — bid in the auction group\n"+
			"• /help — rules and details",
		format.UserLink(sender.ID, format.EscapeHTML(fullName(sender))))

	var rows [][]keyboard.InlineBtn
	if a.cfg.Chats.GroupURL != "" {
		rows = append(rows, []keyboard.InlineBtn{{Text: "👥 Auction Group", URL: a.cfg.Chats.GroupURL}})
	}
	if a.cfg.Chats.ChannelURL != "" {
		rows = append(rows, []keyboard.InlineBtn{{Text: "📢 Auction Channel", URL: a.cfg.Chats.ChannelURL}})
	}
	markup := keyboard.InlineButtonsRows(rows...)

	if a.cfg.Chats.WelcomeVideoID != "" {
		video := &tele.Video{File: tele.File{FileID: a.cfg.Chats.WelcomeVideoID}, Caption: caption}
		return c.Send(video, &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markup})
	}
	return tghelpers.SendHTML(c, caption, markup)
}

// startBidHint answers a bid_<id> deep link with the item state and a route
// back to the group where bidding happens.
func (a *App) startBidHint(c tele.Context, itemID int64) error {
	ctx := tghelpers.BuildContext(c)
	sub, err := a.auctions.Get(ctx, itemID)
	if err != nil {
		return tghelpers.SendHTML(c, userMessage(err))
	}

	highest := sub.BaseBid
	if sub.CurrentBid > 0 {
		highest = sub.CurrentBid
	}
	text := fmt.Sprintf(
		"💸 <b>Bidding on item #%d</b>\n\n"+
			"💞 %s: %s\n"+
			"💰 Highest bid: <b>%d</b>\n"+
			"➡️ Minimum next bid: <b>%d</b>\n\n"+
			"Reply to the pinned auction post in the group with:\n"+
			"<code>/bid %d</code>",
		sub.ID, sub.Category.Title(), format.EscapeHTML(sub.ItemName),
		highest, sub.MinNextBid(a.auctions.MinIncrement()), sub.MinNextBid(a.auctions.MinIncrement()))

	var rows [][]keyboard.InlineBtn
	if a.cfg.Chats.GroupURL != "" {
		rows = append(rows, []keyboard.InlineBtn{{Text: "👥 Open Auction Group", URL: a.cfg.Chats.GroupURL}})
	}
	return tghelpers.SendHTML(c, text, keyboard.InlineButtonsRows(rows...))
}

func (a *App) handleHelp(c tele.Context) error {
	var b strings.Builder
	b.WriteString("📖 <b>Auction Bot Help</b>\n\n")
	b.WriteString("• /add — submit a waifu/husbando card (private chat)\n")
	b.WriteString("• /bid — bid by replying to an auction post in the group, or <code>/bid &lt;item_id&gt; &lt;amount&gt;</code>\n")
	b.WriteString("• /items — browse active auctions by category and rarity\n")
	b.WriteString("• /myitems — your submissions and their status\n")
	b.WriteString("• /cancel — abort a submission in progress\n\n")
	fmt.Fprintf(&b, "📜 <b>Rules</b>\n")
	fmt.Fprintf(&b, "• Each bid must beat the highest bid by at least <b>%d</b>\n", a.cfg.Auction.MinIncrement)
	fmt.Fprintf(&b, "• Auctions run for <b>%d hours</b> after approval\n", a.cfg.Auction.ExpiryHours)
	b.WriteString("• Sellers cannot bid on their own items\n")

	if a.cfg.IsPrivileged(c.Sender().ID) {
		b.WriteString("\n🛡️ <b>Admin</b>\n")
		b.WriteString("• /forceend &lt;item_id&gt; — end an auction now\n")
		b.WriteString("• /rm &lt;item_id...&gt; — delete items and their posts\n")
		b.WriteString("• /aban &lt;user_id&gt; [reason] — global ban (or reply to a user)\n")
		b.WriteString("• /unaban &lt;user_id&gt; — lift a ban\n")
		b.WriteString("• /status — database and counters\n")
	}
	return tghelpers.SendHTML(c, b.String())
}
