package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/phantomtroupe/auctionbot/telegram/helpers"
	"github.com/phantomtroupe/auctionbot/telegram/keyboard"
)

// memberOf reports whether the user belongs to the given chat. Errors count
// as not-a-member; Telegram returns 400 for strangers anyway.
func (a *App) memberOf(chatID int64, user *tele.User) bool {
	if chatID == 0 {
		return true
	}
	member, err := a.bot.ChatMemberOf(&tele.Chat{ID: chatID}, user)
	if err != nil {
		return false
	}
	switch member.Role {
	case tele.Creator, tele.Administrator, tele.Member, tele.Restricted:
		return true
	}
	return false
}

func (a *App) isFullMember(user *tele.User) bool {
	return a.memberOf(a.cfg.Chats.GroupID, user) && a.memberOf(a.cfg.Chats.ChannelID, user)
}

// requireMembership gates auction features behind group and channel
// membership. When the user is missing either, it sends join buttons with a
// recheck control and reports false.
func (a *App) requireMembership(c tele.Context) bool {
	if a.isFullMember(c.Sender()) {
		return true
	}

	var rows [][]keyboard.InlineBtn
	if a.cfg.Chats.GroupURL != "" {
		rows = append(rows, []keyboard.InlineBtn{{Text: "👥 Join Group", URL: a.cfg.Chats.GroupURL}})
	}
	if a.cfg.Chats.ChannelURL != "" {
		rows = append(rows, []keyboard.InlineBtn{{Text: "📢 Join Channel", URL: a.cfg.Chats.ChannelURL}})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: "🔄 Try Again", Unique: "recheck"}})

	_ = tghelpers.ReplyHTML(c,
		"🚪 <b>Access required</b>\n\nJoin the auction group and channel first, then tap Try Again.",
		keyboard.InlineButtonsRows(rows...))
	return false
}

// cbRecheck re-runs the membership check from the Try Again button.
func (a *App) cbRecheck(c tele.Context) error {
	if a.isFullMember(c.Sender()) {
		return tghelpers.EditOrSendHTML(c, "✅ You're all set! Run the command again.")
	}
	return c.Respond(&tele.CallbackResponse{
		Text:      "You still need to join both the group and the channel.",
		ShowAlert: true,
	})
}

// requireStarted gates group-side commands behind a prior /start in private.
// Returns false after pointing the user at the bot with a deep link.
func (a *App) requireStarted(c tele.Context, itemID int64) bool {
	ctx := tghelpers.BuildContext(c)
	started, err := a.users.HasStarted(ctx, c.Sender().ID)
	if err == nil && started {
		return true
	}

	link := fmt.Sprintf("https://t.me/%s", a.bot.Me.Username)
	if itemID > 0 {
		link = fmt.Sprintf("https://t.me/%s?start=bid_%d", a.bot.Me.Username, itemID)
	}
	_ = tghelpers.ReplyHTML(c,
		"🤖 Please start the bot in private first so I can message you.",
		keyboard.InlineButtonsRows([]keyboard.InlineBtn{{Text: "▶️ Start the Bot", URL: link}}))
	return false
}
