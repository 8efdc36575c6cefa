package auction

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestBidHistoryPushEvictsOldest(t *testing.T) {
	var h BidHistory
	for i := int64(1); i <= 4; i++ {
		h = h.Push(BidEntry{UserID: i, Amount: i * 10, PlacedAt: time.Now()})
	}
	if len(h) != BidHistoryCap {
		t.Fatalf("history length = %d, want %d", len(h), BidHistoryCap)
	}
	if h[0].UserID != 3 || h[1].UserID != 4 {
		t.Fatalf("unexpected retained entries: %+v", h)
	}
	latest, ok := h.Latest()
	if !ok || latest.UserID != 4 {
		t.Fatalf("latest = %+v, ok=%v", latest, ok)
	}
}

func TestBidHistoryRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := BidHistory{{UserID: 5, Username: "@bidder", Amount: 120, PlacedAt: at}}
	val, err := h.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	var out BidHistory
	if err := out.Scan(val); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(out) != 1 || out[0].UserID != 5 || out[0].Amount != 120 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if !out[0].PlacedAt.Equal(at) {
		t.Fatalf("placed_at mismatch: %v", out[0].PlacedAt)
	}
}

func TestBidHistoryScanNil(t *testing.T) {
	h := BidHistory{{UserID: 1}}
	if err := h.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if h != nil {
		t.Fatalf("expected nil history, got %+v", h)
	}
}

func TestMinNextBid(t *testing.T) {
	cases := []struct {
		base    int64
		current int64
		want    int64
	}{
		{base: 100, current: 0, want: 105},
		{base: 100, current: 150, want: 155},
		{base: 0, current: 0, want: 5},
	}
	for _, tc := range cases {
		s := &Submission{BaseBid: tc.base, CurrentBid: tc.current}
		if got := s.MinNextBid(5); got != tc.want {
			t.Errorf("MinNextBid(base=%d current=%d) = %d, want %d", tc.base, tc.current, got, tc.want)
		}
	}
}

func TestSubmissionOpen(t *testing.T) {
	now := time.Now()
	open := &Submission{Status: StatusApproved, ExpiresAt: now.Add(time.Hour)}
	if !open.Open(now) {
		t.Fatal("approved unexpired item should be open")
	}
	expired := &Submission{Status: StatusApproved, ExpiresAt: now.Add(-time.Hour)}
	if expired.Open(now) {
		t.Fatal("item past deadline should be closed")
	}
	flagged := &Submission{Status: StatusApproved, IsExpired: true, ExpiresAt: now.Add(time.Hour)}
	if flagged.Open(now) {
		t.Fatal("item marked expired should be closed")
	}
	pending := &Submission{Status: StatusPending, ExpiresAt: now.Add(time.Hour)}
	if pending.Open(now) {
		t.Fatal("pending item should be closed for bidding")
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusRejected, StatusEnded, StatusCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusApproved} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory(" Waifu "); !ok || c != CategoryWaifu {
		t.Fatalf("ParseCategory(Waifu) = %v, %v", c, ok)
	}
	if c, ok := ParseCategory("husbando"); !ok || c != CategoryHusbando {
		t.Fatalf("ParseCategory(husbando) = %v, %v", c, ok)
	}
	if _, ok := ParseCategory("dragon"); ok {
		t.Fatal("unknown category should not parse")
	}
}

func TestRarityLookup(t *testing.T) {
	name, ok := RarityName("🎐")
	if !ok || name != "Celestial" {
		t.Fatalf("RarityName(🎐) = %q, %v", name, ok)
	}
	if ValidRarity("⭐") {
		t.Fatal("unknown symbol should be invalid")
	}
	if len(Rarities) != 7 {
		t.Fatalf("expected 7 tiers, got %d", len(Rarities))
	}
}

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{err: ErrNotFound, want: "NOT_FOUND"},
		{err: fmt.Errorf("place bid: %w", ErrAuctionClosed), want: "AUCTION_CLOSED"},
		{err: &BidTooLowError{Offered: 10, MinNext: 25}, want: "BID_TOO_LOW"},
		{err: &ValidationError{Field: "base_bid", Reason: "not a number"}, want: "VALIDATION"},
		{err: errors.New("boom"), want: "INTERNAL"},
		{err: nil, want: ""},
	}
	for _, tc := range cases {
		if got := ErrorCode(tc.err); got != tc.want {
			t.Errorf("ErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestSentinelIdentity(t *testing.T) {
	wrapped := fmt.Errorf("approve: %w", ErrAlreadyDecided)
	if !errors.Is(wrapped, ErrAlreadyDecided) {
		t.Fatal("wrapped sentinel should satisfy errors.Is")
	}
	var tooLow *BidTooLowError
	if !errors.As(fmt.Errorf("bid: %w", &BidTooLowError{MinNext: 55}), &tooLow) {
		t.Fatal("wrapped typed error should satisfy errors.As")
	}
	if tooLow.MinNext != 55 {
		t.Fatalf("min next = %d, want 55", tooLow.MinNext)
	}
}
