package bot

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/phantomtroupe/auctionbot/auction"
	"github.com/phantomtroupe/auctionbot/parse"
	"github.com/phantomtroupe/auctionbot/telegram/callbacks"
	tghelpers "github.com/phantomtroupe/auctionbot/telegram/helpers"
	"github.com/phantomtroupe/auctionbot/telegram/keyboard"
	"github.com/phantomtroupe/auctionbot/telegram/state"
)

// Submission conversation states.
const (
	stateAddCategory state.State = "add_category"
	stateAddRarity   state.State = "add_rarity"
	stateAddPhoto    state.State = "add_photo"
	stateAddBid      state.State = "add_bid"
)

// Temp keys carried through the conversation.
const (
	tmpCategory   = "add.category"
	tmpRarity     = "add.rarity"
	tmpRarityName = "add.rarity_name"
	tmpAnime      = "add.anime"
	tmpItem       = "add.item"
	tmpTag        = "add.tag"
	tmpCaption    = "add.caption"
	tmpFileID     = "add.file_id"
)

func (a *App) handleAdd(c tele.Context) error {
	if !isPrivateChat(c) {
		return tghelpers.ReplyHTML(c, "📬 Please submit items in a private chat with me.")
	}
	if !a.requireMembership(c) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	if err := a.auctions.RequireNotBanned(ctx, c.Sender().ID); err != nil {
		return tghelpers.SendHTML(c, userMessage(err))
	}

	a.fsm.Clear(c.Sender().ID)
	a.fsm.SetState(c.Sender().ID, stateAddCategory)

	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "💞 Waifu", Unique: "cat", Data: "waifu"},
			{Text: "💘 Husbando", Unique: "cat", Data: "husbando"},
		},
		[]keyboard.InlineBtn{{Text: "❌ Cancel", Unique: "cancel_add"}},
	)
	return tghelpers.SendHTML(c, "🎴 <b>New submission</b>\n\nWhat are you auctioning?", markup)
}

func (a *App) handleCancel(c tele.Context) error {
	userID := c.Sender().ID
	if !a.fsm.InProgress(userID) {
		return tghelpers.SendHTML(c, "Nothing to cancel.")
	}
	a.fsm.Clear(userID)
	return tghelpers.SendHTML(c, "❌ Submission cancelled.")
}

func (a *App) cbCancelAdd(c tele.Context) error {
	a.fsm.Clear(c.Sender().ID)
	return tghelpers.EditOrSendHTML(c, "❌ Submission cancelled.")
}

func (a *App) cbCategory(c tele.Context) error {
	userID := c.Sender().ID
	if a.fsm.GetState(userID) != stateAddCategory {
		return c.Respond(&tele.CallbackResponse{Text: "Start over with /add."})
	}
	category, ok := auction.ParseCategory(callbacks.CallbackPayload(c))
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Unknown category."})
	}
	a.fsm.SetTemp(userID, tmpCategory, string(category))
	a.fsm.SetState(userID, stateAddRarity)

	buttons := make([]keyboard.InlineBtn, 0, len(auction.Rarities))
	for _, r := range auction.Rarities {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   fmt.Sprintf("%s %s", r.Symbol, r.Name),
			Unique: "rar",
			Data:   r.Symbol,
		})
	}
	markup := keyboard.InlineButtonsNPerRow(buttons, 2)
	markup.InlineKeyboard = append(markup.InlineKeyboard,
		keyboard.InlineButtonsRows([]keyboard.InlineBtn{{Text: "❌ Cancel", Unique: "cancel_add"}}).InlineKeyboard...)
	return tghelpers.EditOrSendHTML(c,
		fmt.Sprintf("💎 <b>%s</b> selected.\n\nNow pick the rarity:", category.Title()), markup)
}

func (a *App) cbRarity(c tele.Context) error {
	userID := c.Sender().ID
	if a.fsm.GetState(userID) != stateAddRarity {
		return c.Respond(&tele.CallbackResponse{Text: "Start over with /add."})
	}
	symbol := strings.TrimSpace(callbacks.CallbackPayload(c))
	name, ok := auction.RarityName(symbol)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Unknown rarity."})
	}
	a.fsm.SetTemp(userID, tmpRarity, symbol)
	a.fsm.SetTemp(userID, tmpRarityName, name)
	a.fsm.SetState(userID, stateAddPhoto)

	return tghelpers.EditOrSendHTML(c, fmt.Sprintf(
		"%s <b>%s</b> selected.\n\n"+
			"📸 Now send the <b>card photo</b> with its original caption.\n"+
			"The caption must contain the %s rarity symbol.\n\n"+
			"Send /cancel to abort.",
		symbol, name, symbol))
}

// fsmRemindCategory nudges users who type instead of tapping a button.
func (a *App) fsmRemindCategory(c tele.Context) error {
	return tghelpers.SendHTML(c, "Please choose a category with the buttons above, or /cancel.")
}

func (a *App) fsmRemindRarity(c tele.Context) error {
	return tghelpers.SendHTML(c, "Please pick a rarity with the buttons above, or /cancel.")
}

// fsmPhoto handles the photo step: the image plus its structured caption.
func (a *App) fsmPhoto(c tele.Context) error {
	userID := c.Sender().ID
	msg := c.Message()
	if msg == nil || msg.Photo == nil {
		return tghelpers.SendHTML(c, "📸 Please send a <b>photo</b> with its caption, or /cancel.")
	}

	categoryRaw, _ := a.fsm.GetTempString(userID, tmpCategory)
	symbol, _ := a.fsm.GetTempString(userID, tmpRarity)
	category := auction.Category(categoryRaw)

	parsed, err := parse.SubmissionCaption(msg.Caption, category, symbol)
	if err != nil {
		return tghelpers.SendHTML(c, userMessage(err)+"\n\nSend the photo again, or /cancel.")
	}

	a.fsm.SetTemp(userID, tmpAnime, parsed.AnimeName)
	a.fsm.SetTemp(userID, tmpItem, parsed.ItemName)
	a.fsm.SetTemp(userID, tmpTag, parsed.OptionalTag)
	a.fsm.SetTemp(userID, tmpCaption, msg.Caption)
	a.fsm.SetTemp(userID, tmpFileID, msg.Photo.FileID)
	a.fsm.SetState(userID, stateAddBid)

	return tghelpers.SendHTML(c, fmt.Sprintf(
		"✅ Got it!\n\n"+
			"🎬 Anime: <b>%s</b>\n"+
			"💞 Name: <b>%s</b>\n"+
			"💎 Rarity: %s %s\n\n"+
			"💰 Now send the <b>base bid</b> (a positive number):",
		parsed.AnimeName, parsed.ItemName, parsed.Rarity, parsed.RarityName))
}

// fsmBaseBid finishes the conversation and files the pending submission.
func (a *App) fsmBaseBid(c tele.Context) error {
	userID := c.Sender().ID
	// Zero is a valid starting point; the first bid then clears the increment.
	amount, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil || amount < 0 {
		return tghelpers.SendHTML(c, "💰 The base bid must be a number. Try again, or /cancel.")
	}

	categoryRaw, _ := a.fsm.GetTempString(userID, tmpCategory)
	symbol, _ := a.fsm.GetTempString(userID, tmpRarity)
	rarityName, _ := a.fsm.GetTempString(userID, tmpRarityName)
	anime, _ := a.fsm.GetTempString(userID, tmpAnime)
	item, _ := a.fsm.GetTempString(userID, tmpItem)
	tag, _ := a.fsm.GetTempString(userID, tmpTag)
	caption, _ := a.fsm.GetTempString(userID, tmpCaption)
	fileID, _ := a.fsm.GetTempString(userID, tmpFileID)

	sender := c.Sender()
	sub := &auction.Submission{
		OwnerID:       sender.ID,
		OwnerName:     fullName(sender),
		OwnerUsername: sender.Username,
		Category:      auction.Category(categoryRaw),
		Rarity:        symbol,
		RarityName:    rarityName,
		AnimeName:     anime,
		ItemName:      item,
		OptionalTag:   tag,
		Caption:       caption,
		FileID:        fileID,
		BaseBid:       amount,
	}

	ctx := tghelpers.BuildContext(c)
	if err := a.auctions.Submit(ctx, sub); err != nil {
		a.fsm.Clear(userID)
		return tghelpers.SendHTML(c, userMessage(err))
	}
	a.fsm.Clear(userID)

	return tghelpers.SendHTML(c, fmt.Sprintf(
		"📨 <b>Submission received!</b>\n\n"+
			"🆔 Item ID: <code>%d</code>\n"+
			"💰 Base Bid: <b>%d</b>\n\n"+
			"An admin will review it shortly. You'll get a message either way.",
		sub.ID, sub.BaseBid))
}
