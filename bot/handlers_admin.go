package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/phantomtroupe/auctionbot/auction"
	"github.com/phantomtroupe/auctionbot/service/auctions"
	"github.com/phantomtroupe/auctionbot/telegram/callbacks"
	tghelpers "github.com/phantomtroupe/auctionbot/telegram/helpers"
)

// cbApprove handles the ✅ control on the log-group approval post.
func (a *App) cbApprove(c tele.Context) error {
	return a.decide(c, true)
}

// cbReject handles the ❌ control.
func (a *App) cbReject(c tele.Context) error {
	return a.decide(c, false)
}

func (a *App) decide(c tele.Context, approve bool) error {
	if !a.cfg.IsPrivileged(c.Sender().ID) {
		return c.Respond(&tele.CallbackResponse{Text: "Admins only.", ShowAlert: true})
	}
	itemID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Malformed control."})
	}

	ctx := tghelpers.BuildContext(c)
	actor := actorFrom(c.Sender())

	var sub *auction.Submission
	if approve {
		sub, err = a.auctions.Approve(ctx, actor, itemID)
	} else {
		sub, err = a.auctions.Reject(ctx, actor, itemID)
	}
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: alertMessage(err), ShowAlert: true})
	}

	// Replace the decision controls with the outcome on the log post.
	if msg := c.Message(); msg != nil {
		_, _ = a.bot.EditCaption(msg, auctions.DecidedCaption(sub), &tele.SendOptions{ParseMode: tele.ModeHTML})
	}
	verdict := "approved"
	if !approve {
		verdict = "rejected"
	}
	return c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("Item %d %s.", itemID, verdict)})
}

func (a *App) handleForceEnd(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return tghelpers.ReplyHTML(c, "Usage: <code>/forceend &lt;item_id&gt;</code>")
	}
	itemID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || itemID <= 0 {
		return tghelpers.ReplyHTML(c, "Usage: <code>/forceend &lt;item_id&gt;</code>")
	}

	ctx := tghelpers.BuildContext(c)
	sub, err := a.auctions.ForceEnd(ctx, actorFrom(c.Sender()), itemID)
	if err != nil {
		return tghelpers.ReplyHTML(c, userMessage(err))
	}
	return tghelpers.ReplyHTML(c, fmt.Sprintf(
		"🛑 Auction <code>%d</code> ended. Final bid: <b>%d</b>.", sub.ID, sub.CurrentBid))
}

func (a *App) handleRemove(c tele.Context) error {
	args := c.Args()
	if len(args) == 0 {
		return tghelpers.ReplyHTML(c, "Usage: <code>/rm &lt;item_id&gt; [item_id...]</code>")
	}
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return tghelpers.ReplyHTML(c, fmt.Sprintf("❌ <code>%s</code> is not a valid item id.", arg))
		}
		ids = append(ids, id)
	}

	ctx := tghelpers.BuildContext(c)
	removed, err := a.auctions.Purge(ctx, actorFrom(c.Sender()), ids)
	if err != nil {
		return tghelpers.ReplyHTML(c, userMessage(err))
	}
	return tghelpers.ReplyHTML(c, fmt.Sprintf("🗑️ Removed <b>%d</b> of %d item(s).", removed, len(ids)))
}

func (a *App) handleBan(c tele.Context) error {
	args := c.Args()
	var targetID int64
	var reason string

	if reply := c.Message().ReplyTo; reply != nil && reply.Sender != nil {
		targetID = reply.Sender.ID
		reason = strings.Join(args, " ")
	} else {
		if len(args) == 0 {
			return tghelpers.ReplyHTML(c, "Usage: <code>/aban &lt;user_id&gt; [reason]</code> or reply to a user.")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return tghelpers.ReplyHTML(c, "Usage: <code>/aban &lt;user_id&gt; [reason]</code> or reply to a user.")
		}
		targetID = id
		reason = strings.Join(args[1:], " ")
	}

	ctx := tghelpers.BuildContext(c)
	created, err := a.auctions.Ban(ctx, actorFrom(c.Sender()), targetID, reason)
	if err != nil {
		return tghelpers.ReplyHTML(c, userMessage(err))
	}
	if !created {
		return tghelpers.ReplyHTML(c, fmt.Sprintf("User <code>%d</code> is already banned.", targetID))
	}
	return tghelpers.ReplyHTML(c, fmt.Sprintf("🚫 User <code>%d</code> is now globally banned.", targetID))
}

func (a *App) handleUnban(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return tghelpers.ReplyHTML(c, "Usage: <code>/unaban &lt;user_id&gt;</code>")
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || targetID <= 0 {
		return tghelpers.ReplyHTML(c, "Usage: <code>/unaban &lt;user_id&gt;</code>")
	}

	ctx := tghelpers.BuildContext(c)
	removed, err := a.auctions.Unban(ctx, actorFrom(c.Sender()), targetID)
	if err != nil {
		return tghelpers.ReplyHTML(c, userMessage(err))
	}
	if !removed {
		return tghelpers.ReplyHTML(c, fmt.Sprintf("User <code>%d</code> was not banned.", targetID))
	}
	return tghelpers.ReplyHTML(c, fmt.Sprintf("♻️ Ban lifted for user <code>%d</code>.", targetID))
}

func (a *App) handleStatus(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	dbStatus := "🟢 connected"
	pingStart := time.Now()
	if err := a.db.PingContext(ctx); err != nil {
		dbStatus = "🔴 " + err.Error()
	}
	pingTook := time.Since(pingStart).Round(time.Millisecond)

	userCount, _ := a.users.Count(ctx)
	itemCount, _ := a.subs.Count(ctx)

	return tghelpers.SendHTML(c, fmt.Sprintf(
		"📊 <b>Status</b>\n\n"+
			"🗄️ Database: %s (%s)\n"+
			"👥 Users: <b>%d</b>\n"+
			"🎴 Submissions: <b>%d</b>",
		dbStatus, pingTook, userCount, itemCount))
}
