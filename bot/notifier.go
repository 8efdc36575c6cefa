package bot

import (
	"context"
	"strconv"

	"github.com/phantomtroupe/auctionbot/service/auctions"

	tele "gopkg.in/telebot.v4"
)

// notifier adapts telebot to the service-layer Notifier and the sweeper's
// ControlStripper. All captions are HTML.
type notifier struct {
	bot *tele.Bot
}

func newNotifier(b *tele.Bot) *notifier {
	return &notifier{bot: b}
}

func inlineRows(rows [][]auctions.Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		r := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			r = append(r, tele.InlineButton{Text: b.Text, URL: b.URL, Data: b.Data})
		}
		inline = append(inline, r)
	}
	markup.InlineKeyboard = inline
	return markup
}

func stored(chatID int64, messageID int) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
}

func (n *notifier) SendPhoto(ctx context.Context, chatID int64, fileID, caption string, rows ...[]auctions.Button) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	photo := &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if m := inlineRows(rows); m != nil {
		opts.ReplyMarkup = m
	}
	msg, err := n.bot.Send(tele.ChatID(chatID), photo, opts)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

func (n *notifier) SendMessage(ctx context.Context, chatID int64, text string, rows ...[]auctions.Button) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if m := inlineRows(rows); m != nil {
		opts.ReplyMarkup = m
	}
	msg, err := n.bot.Send(tele.ChatID(chatID), text, opts)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

func (n *notifier) EditCaption(ctx context.Context, chatID int64, messageID int, caption string, rows ...[]auctions.Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if m := inlineRows(rows); m != nil {
		opts.ReplyMarkup = m
	}
	_, err := n.bot.EditCaption(stored(chatID, messageID), caption, opts)
	return err
}

func (n *notifier) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.bot.Delete(stored(chatID, messageID))
}

func (n *notifier) Pin(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.bot.Pin(stored(chatID, messageID))
}

func (n *notifier) Unpin(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.bot.Unpin(&tele.Chat{ID: chatID}, messageID)
}

// StripControls removes the inline keyboard from a posted message.
func (n *notifier) StripControls(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := n.bot.EditReplyMarkup(stored(chatID, messageID), nil)
	return err
}
