package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phantomtroupe/auctionbot/auction"
)

type sweepStore struct {
	mu    sync.Mutex
	items map[int64]*auction.Submission

	// afterList runs once the listing snapshot is taken, before MarkEnded.
	afterList func()
}

func newSweepStore(items ...*auction.Submission) *sweepStore {
	s := &sweepStore{items: make(map[int64]*auction.Submission)}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (s *sweepStore) ListExpired(_ context.Context, now time.Time, _ int) ([]auction.Submission, error) {
	s.mu.Lock()
	var out []auction.Submission
	for _, sub := range s.items {
		if sub.Status == auction.StatusApproved && !sub.IsExpired && !sub.ExpiresAt.After(now) {
			out = append(out, *sub)
		}
	}
	s.mu.Unlock()
	if s.afterList != nil {
		s.afterList()
	}
	return out, nil
}

func (s *sweepStore) MarkEnded(_ context.Context, id int64, _ time.Time) (*auction.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.items[id]
	if !ok || sub.Status != auction.StatusApproved || sub.IsExpired {
		return nil, nil
	}
	sub.Status = auction.StatusEnded
	sub.IsExpired = true
	cp := *sub
	return &cp, nil
}

func (s *sweepStore) ListCleanupCandidates(_ context.Context, now time.Time) ([]auction.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []auction.Submission
	for _, sub := range s.items {
		if !sub.ExpiresAt.After(now) && !sub.ControlsStripped && sub.ChannelMessageID != 0 {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (s *sweepStore) MarkControlsStripped(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.items[id]
	if !ok || sub.ControlsStripped {
		return false, nil
	}
	sub.ControlsStripped = true
	return true, nil
}

type endedItem struct {
	id     int64
	bid    int64
	winner int64
}

type recAnnouncer struct {
	mu    sync.Mutex
	ended []endedItem
}

func (a *recAnnouncer) AnnounceEnd(_ context.Context, sub *auction.Submission, _ string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ended = append(a.ended, endedItem{id: sub.ID, bid: sub.CurrentBid, winner: sub.LastBidderID})
}

type recStripper struct {
	mu       sync.Mutex
	stripped []int
	err      error
}

func (r *recStripper) StripControls(_ context.Context, _ int64, messageID int) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stripped = append(r.stripped, messageID)
	return nil
}

func fixedNow() time.Time {
	return time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC)
}

func overdueItem(id int64) *auction.Submission {
	return &auction.Submission{
		ID:               id,
		OwnerID:          10,
		Status:           auction.StatusApproved,
		ExpiresAt:        fixedNow().Add(-time.Hour),
		ChannelMessageID: 500 + id,
		CurrentBid:       50,
		LastBidderID:     20,
	}
}

func TestSweepExpiredEndsOverdueItems(t *testing.T) {
	store := newSweepStore(overdueItem(1), overdueItem(2), &auction.Submission{
		ID: 3, Status: auction.StatusApproved, ExpiresAt: fixedNow().Add(time.Hour),
	})
	ann := &recAnnouncer{}
	sw := New(Options{Store: store, Announcer: ann, Stripper: &recStripper{}, Now: fixedNow})

	ended, err := sw.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if ended != 2 {
		t.Fatalf("ended = %d, want 2", ended)
	}
	if len(ann.ended) != 2 {
		t.Fatalf("announcements = %d, want 2", len(ann.ended))
	}
	if store.items[3].Status != auction.StatusApproved {
		t.Fatal("item 3 is not due and must stay approved")
	}
}

// Scenario E: a second sweep over the same dataset is a no-op because the
// terminal transition already happened.
func TestSweepExpiredIdempotent(t *testing.T) {
	store := newSweepStore(overdueItem(1))
	ann := &recAnnouncer{}
	sw := New(Options{Store: store, Announcer: ann, Stripper: &recStripper{}, Now: fixedNow})

	for i := 0; i < 2; i++ {
		if _, err := sw.SweepExpired(context.Background()); err != nil {
			t.Fatalf("sweep %d: %v", i, err)
		}
	}
	if len(ann.ended) != 1 {
		t.Fatalf("announcements = %d, want exactly 1", len(ann.ended))
	}
	sub := store.items[1]
	if sub.Status != auction.StatusEnded || !sub.IsExpired {
		t.Fatalf("unexpected terminal state: %+v", sub)
	}
}

func TestSweepExpiredSkipsRacedItems(t *testing.T) {
	item := overdueItem(1)
	store := newSweepStore(item)
	ann := &recAnnouncer{}
	sw := New(Options{Store: store, Announcer: ann, Stripper: &recStripper{}, Now: fixedNow})

	// Another actor ends the item between listing and the conditional update.
	item.IsExpired = true
	item.Status = auction.StatusEnded

	ended, err := sw.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if ended != 0 || len(ann.ended) != 0 {
		t.Fatalf("raced item must not be announced: ended=%d announcements=%d", ended, len(ann.ended))
	}
}

// A bid that commits after the sweep listed the item but before the terminal
// transition must still reach the fan-out: the announcement carries the row
// MarkEnded returns, not the listing snapshot.
func TestSweepExpiredAnnouncesLateBid(t *testing.T) {
	item := overdueItem(1)
	store := newSweepStore(item)
	store.afterList = func() {
		store.mu.Lock()
		defer store.mu.Unlock()
		item.CurrentBid = 500
		item.LastBidderID = 999
	}
	ann := &recAnnouncer{}
	sw := New(Options{Store: store, Announcer: ann, Stripper: &recStripper{}, Now: fixedNow})

	if _, err := sw.SweepExpired(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(ann.ended) != 1 {
		t.Fatalf("announcements = %d, want 1", len(ann.ended))
	}
	got := ann.ended[0]
	if got.winner != 999 || got.bid != 500 {
		t.Fatalf("announced winner=%d bid=%d, want the late bid 999/500", got.winner, got.bid)
	}
}

func TestSweepControlsStripsAndMarks(t *testing.T) {
	item := overdueItem(1)
	store := newSweepStore(item)
	stripper := &recStripper{}
	sw := New(Options{Store: store, Announcer: &recAnnouncer{}, Stripper: stripper, Now: fixedNow})

	stripped, err := sw.SweepControls(context.Background())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if stripped != 1 || len(stripper.stripped) != 1 {
		t.Fatalf("stripped = %d calls = %d, want 1/1", stripped, len(stripper.stripped))
	}
	if !item.ControlsStripped {
		t.Fatal("controls flag not set")
	}
	// The cleanup sweep never owns the terminal transition.
	if item.Status == auction.StatusEnded && item.IsExpired {
		t.Fatal("cleanup sweep must not end the auction")
	}

	again, err := sw.SweepControls(context.Background())
	if err != nil {
		t.Fatalf("second cleanup: %v", err)
	}
	if again != 0 {
		t.Fatalf("second pass stripped = %d, want 0", again)
	}
}

func TestSweepControlsRetriesOnFailure(t *testing.T) {
	item := overdueItem(1)
	store := newSweepStore(item)
	stripper := &recStripper{err: errors.New("telegram down")}
	sw := New(Options{Store: store, Announcer: &recAnnouncer{}, Stripper: stripper, Now: fixedNow})

	if _, err := sw.SweepControls(context.Background()); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if item.ControlsStripped {
		t.Fatal("failed strip must stay unmarked for retry")
	}

	stripper.err = nil
	stripped, err := sw.SweepControls(context.Background())
	if err != nil {
		t.Fatalf("retry cleanup: %v", err)
	}
	if stripped != 1 || !item.ControlsStripped {
		t.Fatalf("retry did not strip: stripped=%d flag=%v", stripped, item.ControlsStripped)
	}
}
