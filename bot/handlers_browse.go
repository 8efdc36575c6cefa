package bot

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/phantomtroupe/auctionbot/auction"
	"github.com/phantomtroupe/auctionbot/telegram/callbacks"
	"github.com/phantomtroupe/auctionbot/telegram/format"
	tghelpers "github.com/phantomtroupe/auctionbot/telegram/helpers"
	"github.com/phantomtroupe/auctionbot/telegram/keyboard"
)

func (a *App) handleItems(c tele.Context) error {
	if !a.requireMembership(c) {
		return nil
	}
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "💞 Waifu", Unique: "browse_cat", Data: "waifu"},
		{Text: "💘 Husbando", Unique: "browse_cat", Data: "husbando"},
	})
	return tghelpers.SendHTML(c, "🛍️ <b>Active auctions</b>\n\nPick a category:", markup)
}

func (a *App) cbBrowseCategory(c tele.Context) error {
	category, ok := auction.ParseCategory(callbacks.CallbackPayload(c))
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Unknown category."})
	}

	buttons := make([]keyboard.InlineBtn, 0, len(auction.Rarities))
	for _, r := range auction.Rarities {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   fmt.Sprintf("%s %s", r.Symbol, r.Name),
			Unique: "browse_rar",
			Data:   string(category) + "|" + r.Symbol,
		})
	}
	markup := keyboard.InlineButtonsNPerRow(buttons, 2)
	return tghelpers.EditOrSendHTML(c,
		fmt.Sprintf("🛍️ <b>%s auctions</b>\n\nPick a rarity:", category.Title()), markup)
}

func (a *App) cbBrowseRarity(c tele.Context) error {
	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 2 {
		return c.Respond(&tele.CallbackResponse{Text: "Malformed selection."})
	}
	category, ok := auction.ParseCategory(parts[0])
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Unknown category."})
	}
	symbol := parts[1]
	rarityName, ok := auction.RarityName(symbol)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Unknown rarity."})
	}

	ctx := tghelpers.BuildContext(c)
	items, err := a.auctions.ListActive(ctx, category, symbol)
	if err != nil {
		return tghelpers.EditOrSendHTML(c, userMessage(err))
	}
	if len(items) == 0 {
		return tghelpers.EditOrSendHTML(c, fmt.Sprintf(
			"😔 No active %s %s auctions right now.", rarityName, category.Title()))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🛍️ <b>Active %s %s auctions</b>\n\n", symbol, category.Title())
	for i := range items {
		sub := &items[i]
		highest := sub.BaseBid
		label := "base"
		if sub.CurrentBid > 0 {
			highest = sub.CurrentBid
			label = "highest"
		}
		fmt.Fprintf(&b, "🆔 <code>%d</code> — <b>%s</b> (%s)\n💰 %d (%s)\n\n",
			sub.ID, format.EscapeHTML(sub.ItemName), format.EscapeHTML(sub.AnimeName), highest, label)
	}
	b.WriteString("Reply to the auction post in the group with <code>/bid &lt;amount&gt;</code>.")
	return tghelpers.EditOrSendHTML(c, b.String())
}

func (a *App) handleMyItems(c tele.Context) error {
	if !a.requireMembership(c) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	items, err := a.auctions.ListByOwner(ctx, c.Sender().ID)
	if err != nil {
		return tghelpers.SendHTML(c, userMessage(err))
	}
	if len(items) == 0 {
		return tghelpers.SendHTML(c, "📭 You have no submissions yet. Use /add to create one.")
	}

	var b strings.Builder
	b.WriteString("🗂️ <b>Your submissions</b>\n\n")
	for i := range items {
		sub := &items[i]
		fmt.Fprintf(&b, "🆔 <code>%d</code> — <b>%s</b>\n", sub.ID, format.EscapeHTML(sub.ItemName))
		fmt.Fprintf(&b, "💎 %s %s • %s", sub.Rarity, sub.RarityName, statusLabel(sub))
		if sub.CurrentBid > 0 {
			fmt.Fprintf(&b, " • 💰 %d", sub.CurrentBid)
		}
		b.WriteString("\n\n")
	}
	return tghelpers.SendHTML(c, b.String())
}

func statusLabel(sub *auction.Submission) string {
	switch sub.Status {
	case auction.StatusPending:
		return "⏳ Pending review"
	case auction.StatusApproved:
		return "🟢 Live"
	case auction.StatusRejected:
		return "❌ Rejected"
	case auction.StatusEnded:
		return "🏁 Ended"
	case auction.StatusCancelled:
		return "🚫 Cancelled"
	}
	return string(sub.Status)
}
