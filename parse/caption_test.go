package parse

import (
	"errors"
	"testing"

	"github.com/phantomtroupe/auctionbot/auction"
)

const sampleCaption = `Look what I got!
Attack on Titan 3/5.
Waifu: Mikasa Ackerman x1
💎 𝗥𝗔𝗥𝗜𝗧𝗬: 🟡 Legendary`

func TestSubmissionCaptionExtracts(t *testing.T) {
	got, err := SubmissionCaption(sampleCaption, auction.CategoryWaifu, "🟡")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.AnimeName != "Attack on Titan" {
		t.Errorf("anime = %q", got.AnimeName)
	}
	if got.ItemName != "Mikasa Ackerman" {
		t.Errorf("item = %q", got.ItemName)
	}
	if got.OptionalTag != "—" {
		t.Errorf("tag = %q, rarity heading line must not become a tag", got.OptionalTag)
	}
	if got.Rarity != "🟡" || got.RarityName != "Legendary" {
		t.Errorf("rarity = %q (%q)", got.Rarity, got.RarityName)
	}
}

func TestSubmissionCaptionTagLine(t *testing.T) {
	caption := "header\nNaruto\nHusbando: Kakashi x1\n#event"
	got, err := SubmissionCaption(caption+" 🔮", auction.CategoryHusbando, "🔮")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.OptionalTag != "#event 🔮" {
		t.Errorf("tag = %q", got.OptionalTag)
	}
	if got.ItemName != "Kakashi" {
		t.Errorf("item = %q", got.ItemName)
	}
}

func TestSubmissionCaptionCategoryMismatch(t *testing.T) {
	_, err := SubmissionCaption("Waifu: Rem 🔵", auction.CategoryHusbando, "🔵")
	var verr *auction.ValidationError
	if !errors.As(err, &verr) || verr.Field != "category" {
		t.Fatalf("expected category validation error, got %v", err)
	}
}

func TestSubmissionCaptionRarityMissing(t *testing.T) {
	_, err := SubmissionCaption("Waifu: Rem", auction.CategoryWaifu, "🔵")
	var verr *auction.ValidationError
	if !errors.As(err, &verr) || verr.Field != "rarity" {
		t.Fatalf("expected rarity validation error, got %v", err)
	}
}

func TestSubmissionCaptionRarityMismatch(t *testing.T) {
	_, err := SubmissionCaption("Waifu: Rem 🔴", auction.CategoryWaifu, "🔵")
	var verr *auction.ValidationError
	if !errors.As(err, &verr) || verr.Field != "rarity" {
		t.Fatalf("expected rarity validation error, got %v", err)
	}
}

func TestItemIDFromPost(t *testing.T) {
	text := "🆔 Item ID: 42\n🎬 Anime: X"
	id, ok := ItemIDFromPost(text)
	if !ok || id != 42 {
		t.Fatalf("id = %d, ok = %v", id, ok)
	}
	if _, ok := ItemIDFromPost("no marker here"); ok {
		t.Fatal("missing marker should not parse")
	}
	if _, ok := ItemIDFromPost("🆔 Item ID: nope"); ok {
		t.Fatal("non-numeric id should not parse")
	}
}
