package auctions

import (
	"fmt"
	"strings"

	"github.com/phantomtroupe/auctionbot/auction"
	"github.com/phantomtroupe/auctionbot/telegram/format"
)

const submittedTimeLayout = "02 January 2006 • 03:04 PM"

func ownerLink(sub *auction.Submission) string {
	if sub.OwnerID == 0 {
		return "Unknown Seller"
	}
	return format.UserLink(sub.OwnerID, format.DisplayName(sub.OwnerUsername, sub.OwnerName, sub.OwnerID))
}

// winnerLink uses the handle snapshotted at bid time, not a fresh lookup.
func winnerLink(sub *auction.Submission) string {
	if !sub.HasWinner() {
		return "No Winner"
	}
	return format.UserLink(sub.LastBidderID, sub.LastBidderName)
}

func bidValue(sub *auction.Submission) string {
	if sub.CurrentBid == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d", sub.CurrentBid)
}

// approvalCaption is the log-group post that carries the Approve/Reject controls.
func approvalCaption(sub *auction.Submission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📩 <b>New %s Submission</b>\n\n", sub.Category.Title())
	fmt.Fprintf(&b, "🆔 <b>Item ID:</b> <code>%d</code>\n", sub.ID)
	fmt.Fprintf(&b, "👤 <b>Name:</b> %s\n", format.EscapeHTML(sub.OwnerName))
	fmt.Fprintf(&b, "🔗 <b>Username:</b> %s\n", format.EscapeHTML(sub.OwnerUsername))
	fmt.Fprintf(&b, "🎬 <b>Anime:</b> %s\n", format.EscapeHTML(sub.AnimeName))
	fmt.Fprintf(&b, "💞 <b>%s:</b> %s\n", sub.Category.Title(), format.EscapeHTML(sub.ItemName))
	fmt.Fprintf(&b, "💎 <b>Rarity:</b> %s %s\n", sub.RarityName, sub.Rarity)
	fmt.Fprintf(&b, "💰 <b>Base Bid:</b> %d\n", sub.BaseBid)
	fmt.Fprintf(&b, "🏷️ <b>Tag:</b> %s\n", format.EscapeHTML(sub.OptionalTag))
	fmt.Fprintf(&b, "⏰ <b>Submitted:</b> %s", sub.SubmittedAt.Format(submittedTimeLayout))
	return b.String()
}

// DecidedCaption renders the log-group post after the decision, replacing the
// controls with the outcome.
func DecidedCaption(sub *auction.Submission) string {
	verdict := "✅ <b>Approved</b>"
	if sub.Status == auction.StatusRejected {
		verdict = "❌ <b>Rejected</b>"
	}
	return approvalCaption(sub) + "\n\n" + verdict
}

// auctionCaption is the caption of the public group and channel posts before
// the first bid.
func auctionCaption(sub *auction.Submission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🆔 Item ID: %d\n", sub.ID)
	fmt.Fprintf(&b, "🎬 Anime name: %s\n", format.EscapeHTML(sub.AnimeName))
	fmt.Fprintf(&b, "💞 %s name: %s\n", sub.Category.Title(), format.EscapeHTML(sub.ItemName))
	fmt.Fprintf(&b, "%s𝗥𝗔𝗥𝗜𝗧𝗬: %s\n\n", sub.Rarity, sub.RarityName)
	fmt.Fprintf(&b, "💰 Base Bid: %d\n\n", sub.BaseBid)
	if sub.OptionalTag != "" && sub.OptionalTag != "—" {
		b.WriteString(format.EscapeHTML(sub.OptionalTag))
	}
	return b.String()
}

// bidCaption re-renders the post captions after an accepted bid.
func bidCaption(sub *auction.Submission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🆔 Item ID: %d\n", sub.ID)
	fmt.Fprintf(&b, "🎬 Anime: %s\n", format.EscapeHTML(sub.AnimeName))
	fmt.Fprintf(&b, "💞 %s: %s\n", sub.Category.Title(), format.EscapeHTML(sub.ItemName))
	fmt.Fprintf(&b, "💎 Rarity: %s %s\n\n", sub.RarityName, sub.Rarity)
	fmt.Fprintf(&b, "💰 Base Bid: %d\n", sub.BaseBid)
	fmt.Fprintf(&b, "🏆 Highest Bid: %d by %s", sub.CurrentBid, winnerLink(sub))
	return b.String()
}

// endAnnouncement is the shared group/channel/log text for a finished auction.
// forcedBy is non-empty for admin force-ends.
func endAnnouncement(sub *auction.Submission, forcedBy string) string {
	var b strings.Builder
	if forcedBy != "" {
		b.WriteString("🚨 <b>Auction Force-Ended by Admin!</b>\n\n")
	} else {
		b.WriteString("🎉 <b>Auction Ended!</b>\n\n")
	}
	fmt.Fprintf(&b, "💞 <b>%s</b>: <code>%s</code>\n", sub.Category.Title(), format.EscapeHTML(sub.ItemName))
	fmt.Fprintf(&b, "🎬 <b>Anime:</b> <code>%s</code>\n", format.EscapeHTML(sub.AnimeName))
	fmt.Fprintf(&b, "💎 Rarity: %s (%s)\n\n", sub.RarityName, sub.Rarity)
	fmt.Fprintf(&b, "💰 <b>Winning Bid:</b> <code>%s</code>\n", bidValue(sub))
	fmt.Fprintf(&b, "👤 <b>Seller:</b> %s\n", ownerLink(sub))
	fmt.Fprintf(&b, "🏆 <b>Winner:</b> %s\n\n", winnerLink(sub))
	fmt.Fprintf(&b, "🆔 <b>Item ID:</b> <code>%d</code>", sub.ID)
	if forcedBy != "" {
		fmt.Fprintf(&b, "\n🛑 <i>Ended manually by admin %s</i>", forcedBy)
	}
	if sub.OptionalTag != "" && sub.OptionalTag != "—" {
		fmt.Fprintf(&b, "\n%s", format.EscapeHTML(sub.OptionalTag))
	}
	return b.String()
}

func winnerDM(sub *auction.Submission, forced bool) string {
	if forced {
		return fmt.Sprintf(
			"⚠️ <b>Admin Notice</b>\n\n"+
				"Your auction win for <b>%s</b> was force-ended by admin.\n"+
				"💰 Final Bid: <code>%s</code>\n"+
				"🆔 Item ID: <code>%d</code>",
			format.EscapeHTML(sub.ItemName), bidValue(sub), sub.ID)
	}
	return fmt.Sprintf(
		"🎉 Congratulations %s!\n\n"+
			"You’ve <b>won</b> the auction for:\n"+
			"💞 <b>%s</b>: %s\n"+
			"🎬 <b>Anime:</b> %s\n\n"+
			"💰 <b>Final Bid:</b> <code>%d</code>\n"+
			"🆔 <b>Item ID:</b> <code>%d</code>\n\n"+
			"Please contact the seller for delivery 💎",
		winnerLink(sub), sub.Category.Title(), format.EscapeHTML(sub.ItemName),
		format.EscapeHTML(sub.AnimeName), sub.CurrentBid, sub.ID)
}

func sellerDM(sub *auction.Submission, forced bool) string {
	if forced {
		return fmt.Sprintf(
			"🕊️ <b>Your auction has been force-ended by admin.</b>\n\n"+
				"💞 <b>%s</b>\n"+
				"🏆 Winner: %s\n"+
				"💰 Final Bid: <code>%s</code>",
			format.EscapeHTML(sub.ItemName), winnerLink(sub), bidValue(sub))
	}
	return fmt.Sprintf(
		"🕊️ Hello %s,\n\n"+
			"Your auction for <b>%s</b> has ended!\n"+
			"🏆 <b>Winner:</b> %s\n"+
			"💰 <b>Final Bid:</b> <code>%d</code>\n\n"+
			"🆔 <b>Item ID:</b> <code>%d</code>\n"+
			"You can contact the winner directly.",
		ownerLink(sub), format.EscapeHTML(sub.ItemName), winnerLink(sub), sub.CurrentBid, sub.ID)
}

func approvedDM(sub *auction.Submission) string {
	return fmt.Sprintf(
		"🎉 <b>Your %s has been approved!</b>\n\n"+
			"💎 <b>Rarity:</b> %s %s\n"+
			"💞 <b>Name:</b> %s\n"+
			"🎬 <b>Anime:</b> %s",
		sub.Category.Title(), sub.RarityName, sub.Rarity,
		format.EscapeHTML(sub.ItemName), format.EscapeHTML(sub.AnimeName))
}

func rejectedDM(sub *auction.Submission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "❌ <b>Your %s submission was rejected.</b>\n\n", sub.Category.Title())
	fmt.Fprintf(&b, "🎬 <b>Anime:</b> %s\n", format.EscapeHTML(sub.AnimeName))
	fmt.Fprintf(&b, "💞 <b>%s:</b> %s\n", sub.Category.Title(), format.EscapeHTML(sub.ItemName))
	fmt.Fprintf(&b, "💎 <b>Rarity:</b> %s %s\n", sub.RarityName, sub.Rarity)
	if sub.OptionalTag != "" && sub.OptionalTag != "—" {
		fmt.Fprintf(&b, "🏷️ <b>Tag:</b> %s\n", format.EscapeHTML(sub.OptionalTag))
	}
	b.WriteString("\nPlease review and try again!")
	return b.String()
}

func contactButtons(sub *auction.Submission) []Button {
	var row []Button
	if sub.OwnerID != 0 {
		row = append(row, Button{Text: "👤 Contact Seller", URL: fmt.Sprintf("tg://user?id=%d", sub.OwnerID)})
	}
	if sub.HasWinner() {
		row = append(row, Button{Text: "🏆 Contact Winner", URL: fmt.Sprintf("tg://user?id=%d", sub.LastBidderID)})
	}
	return row
}
