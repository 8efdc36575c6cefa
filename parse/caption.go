// Package parse extracts structured submission data from user-supplied captions
// and auction post text.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phantomtroupe/auctionbot/auction"
)

// Caption holds the structured fields extracted from a submission caption.
type Caption struct {
	AnimeName   string
	ItemName    string
	OptionalTag string
	Rarity      string
	RarityName  string
}

var counterSuffix = regexp.MustCompile(`\s*\d+/\d+\.?\s*$`)

// rarityHeading marks the stylized rarity line some source bots append; such a
// trailing line is not a user tag.
const rarityHeading = "𝗥𝗔𝗥𝗜𝗧𝗬"

// SubmissionCaption validates the caption against the category and rarity the
// user selected earlier in the conversation and extracts the item fields.
func SubmissionCaption(caption string, category auction.Category, raritySymbol string) (Caption, error) {
	lower := strings.ToLower(caption)
	if strings.Contains(lower, "waifu") && category != auction.CategoryWaifu {
		return Caption{}, &auction.ValidationError{Field: "category", Reason: "you selected Husbando, but this looks like a Waifu"}
	}
	if strings.Contains(lower, "husbando") && category != auction.CategoryHusbando {
		return Caption{}, &auction.ValidationError{Field: "category", Reason: "you selected Waifu, but this looks like a Husbando"}
	}

	found := ""
	for _, r := range auction.Rarities {
		if strings.Contains(caption, r.Symbol) {
			found = r.Symbol
			break
		}
	}
	if found == "" {
		return Caption{}, &auction.ValidationError{
			Field:  "rarity",
			Reason: fmt.Sprintf("caption must include a rarity symbol (like %s)", raritySymbol),
		}
	}
	if found != raritySymbol {
		selectedName, _ := auction.RarityName(raritySymbol)
		foundName, _ := auction.RarityName(found)
		return Caption{}, &auction.ValidationError{
			Field: "rarity",
			Reason: fmt.Sprintf("you selected %s (%s), but the caption has %s (%s)",
				raritySymbol, selectedName, found, foundName),
		}
	}

	out := Caption{
		AnimeName:   "Unknown",
		ItemName:    "Unknown",
		OptionalTag: "—",
		Rarity:      found,
	}
	out.RarityName, _ = auction.RarityName(found)

	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(caption), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) > 1 {
		out.AnimeName = strings.TrimSpace(counterSuffix.ReplaceAllString(lines[1], ""))
	}
	if len(lines) > 2 {
		out.ItemName = itemName(lines[2])
	}
	if len(lines) > 3 {
		last := lines[len(lines)-1]
		if !strings.Contains(last, rarityHeading) {
			out.OptionalTag = last
		}
	}
	return out, nil
}

func itemName(line string) string {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) < 2 {
		return line
	}
	name, _, _ := strings.Cut(parts[1], "x1")
	return strings.TrimSpace(name)
}

const itemIDMarker = "🆔 Item ID:"

// ItemIDFromPost extracts the item id from an auction post caption or text.
// Posts carry a "🆔 Item ID: <n>" line.
func ItemIDFromPost(text string) (int64, bool) {
	_, rest, ok := strings.Cut(text, itemIDMarker)
	if !ok {
		return 0, false
	}
	line, _, _ := strings.Cut(rest, "\n")
	id, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
