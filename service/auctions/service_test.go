package auctions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phantomtroupe/auctionbot/auction"
	"github.com/phantomtroupe/auctionbot/config"
)

// memStore mirrors the Postgres store's compare-and-set semantics in memory.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*auction.Submission
	now    func() time.Time
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{nextID: 1, items: make(map[int64]*auction.Submission), now: now}
}

func (m *memStore) Create(_ context.Context, sub *auction.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub.ID = m.nextID
	m.nextID++
	cp := *sub
	m.items[cp.ID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (*auction.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.items[id]
	if !ok {
		return nil, auction.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (m *memStore) Decide(_ context.Context, id int64, to auction.Status, expiresAt time.Time) (*auction.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.items[id]
	if !ok {
		return nil, auction.ErrNotFound
	}
	if sub.Status != auction.StatusPending {
		return nil, auction.ErrAlreadyDecided
	}
	sub.Status = to
	if to == auction.StatusApproved {
		sub.ExpiresAt = expiresAt
		sub.IsExpired = false
	}
	cp := *sub
	return &cp, nil
}

func (m *memStore) SetPostRefs(_ context.Context, id, channelMessageID, groupMessageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.items[id]
	if !ok {
		return auction.ErrNotFound
	}
	sub.ChannelMessageID = channelMessageID
	sub.GroupMessageID = groupMessageID
	return nil
}

func (m *memStore) PlaceBid(_ context.Context, id int64, entry auction.BidEntry, increment int64) (*auction.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.items[id]
	if !ok {
		return nil, auction.ErrNotFound
	}
	now := entry.PlacedAt
	if now.IsZero() {
		now = m.now()
	}
	if !sub.Open(now) {
		return nil, auction.ErrAuctionClosed
	}
	if sub.OwnerID == entry.UserID {
		return nil, auction.ErrSelfBid
	}
	minNext := sub.MinNextBid(increment)
	if entry.Amount < minNext {
		return nil, &auction.BidTooLowError{Offered: entry.Amount, MinNext: minNext}
	}
	sub.Bidders = sub.Bidders.Push(entry)
	sub.CurrentBid = entry.Amount
	sub.LastBidderID = entry.UserID
	sub.LastBidderName = entry.Username
	sub.LastBidAt = &now
	cp := *sub
	return &cp, nil
}

func (m *memStore) MarkEnded(_ context.Context, id int64, now time.Time) (*auction.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.items[id]
	if !ok || sub.Status != auction.StatusApproved || sub.IsExpired {
		return nil, nil
	}
	sub.Status = auction.StatusEnded
	sub.IsExpired = true
	if now.Before(sub.ExpiresAt) {
		sub.ExpiresAt = now
	}
	cp := *sub
	return &cp, nil
}

func (m *memStore) MarkControlsStripped(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.items[id]
	if !ok || sub.ControlsStripped {
		return false, nil
	}
	sub.ControlsStripped = true
	return true, nil
}

func (m *memStore) Delete(_ context.Context, id int64) (*auction.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.items[id]
	if !ok {
		return nil, auction.ErrNotFound
	}
	delete(m.items, id)
	return sub, nil
}

func (m *memStore) ListActive(_ context.Context, category auction.Category, rarity string) ([]auction.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []auction.Submission
	for _, sub := range m.items {
		if sub.Status == auction.StatusApproved && !sub.IsExpired && sub.Category == category && sub.Rarity == rarity {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (m *memStore) ListByOwner(_ context.Context, ownerID int64) ([]auction.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []auction.Submission
	for _, sub := range m.items {
		if sub.OwnerID == ownerID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

type memBans struct {
	mu     sync.Mutex
	banned map[int64]bool
}

func newMemBans() *memBans { return &memBans{banned: make(map[int64]bool)} }

func (b *memBans) IsBanned(_ context.Context, userID int64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.banned[userID], nil
}

func (b *memBans) Ban(_ context.Context, ban *auction.GlobalBan) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.banned[ban.UserID] {
		return false, nil
	}
	b.banned[ban.UserID] = true
	return true, nil
}

func (b *memBans) Unban(_ context.Context, userID int64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.banned[userID] {
		return false, nil
	}
	delete(b.banned, userID)
	return true, nil
}

// sentCall records one outbound notification for assertions.
type sentCall struct {
	op      string
	chatID  int64
	msgID   int
	text    string
	buttons [][]Button
}

type recNotifier struct {
	mu     sync.Mutex
	calls  []sentCall
	nextID int
	fail   map[string]error
}

func newRecNotifier() *recNotifier {
	return &recNotifier{nextID: 100, fail: make(map[string]error)}
}

func (n *recNotifier) record(c sentCall) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	c.msgID = n.nextID
	n.calls = append(n.calls, c)
	return n.nextID
}

func (n *recNotifier) SendPhoto(_ context.Context, chatID int64, _, caption string, rows ...[]Button) (int, error) {
	if err := n.fail["photo"]; err != nil {
		return 0, err
	}
	return n.record(sentCall{op: "photo", chatID: chatID, text: caption, buttons: rows}), nil
}

func (n *recNotifier) SendMessage(_ context.Context, chatID int64, text string, rows ...[]Button) (int, error) {
	if err := n.fail["message"]; err != nil {
		return 0, err
	}
	return n.record(sentCall{op: "message", chatID: chatID, text: text, buttons: rows}), nil
}

func (n *recNotifier) EditCaption(_ context.Context, chatID int64, messageID int, caption string, rows ...[]Button) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, sentCall{op: "edit", chatID: chatID, msgID: messageID, text: caption, buttons: rows})
	return nil
}

func (n *recNotifier) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, sentCall{op: "delete", chatID: chatID, msgID: messageID})
	return nil
}

func (n *recNotifier) Pin(_ context.Context, chatID int64, messageID int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, sentCall{op: "pin", chatID: chatID, msgID: messageID})
	return nil
}

func (n *recNotifier) Unpin(_ context.Context, chatID int64, messageID int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, sentCall{op: "unpin", chatID: chatID, msgID: messageID})
	return nil
}

func (n *recNotifier) callsTo(chatID int64, op string) []sentCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentCall
	for _, c := range n.calls {
		if c.chatID == chatID && c.op == op {
			out = append(out, c)
		}
	}
	return out
}

const (
	groupChat   = int64(-1001)
	channelChat = int64(-1002)
	logChat     = int64(-1003)

	adminID  = int64(1)
	sellerID = int64(10)
	bidderID = int64(20)
)

type fixture struct {
	svc    *Service
	store  *memStore
	bans   *memBans
	sent   *recNotifier
	nowVal time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{nowVal: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
	f.store = newMemStore(func() time.Time { return f.nowVal })
	f.bans = newMemBans()
	f.sent = newRecNotifier()
	f.svc = f.newService(f.store)
	return f
}

// newService builds a service over any submission repo so tests can wrap the
// fixture store.
func (f *fixture) newService(repo SubmissionRepo) *Service {
	return New(Options{
		Submissions: repo,
		Bans:        f.bans,
		Notifier:    f.sent,
		Chats: config.ChatsConfig{
			GroupID:    groupChat,
			ChannelID:  channelChat,
			LogGroupID: logChat,
			GroupURL:   "https://t.me/auctiongroup",
			ChannelURL: "https://t.me/auctionchannel",
		},
		Rules:        config.AuctionConfig{ExpiryHours: 72, MinIncrement: 5},
		IsPrivileged: func(id int64) bool { return id == adminID },
		Now:          func() time.Time { return f.nowVal },
	})
}

func (f *fixture) submit(t *testing.T, baseBid int64) *auction.Submission {
	t.Helper()
	sub := &auction.Submission{
		OwnerID:       sellerID,
		OwnerName:     "Seller",
		OwnerUsername: "@seller",
		Category:      auction.CategoryWaifu,
		Rarity:        "🟡",
		RarityName:    "Legendary",
		AnimeName:     "Attack on Titan",
		ItemName:      "Mikasa Ackerman",
		OptionalTag:   "—",
		FileID:        "file-1",
		BaseBid:       baseBid,
	}
	if err := f.svc.Submit(context.Background(), sub); err != nil {
		t.Fatalf("submit: %v", err)
	}
	return sub
}

func TestSubmitPostsApprovalControls(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 100)

	posts := f.sent.callsTo(logChat, "photo")
	if len(posts) != 1 {
		t.Fatalf("expected 1 log-group post, got %d", len(posts))
	}
	if len(posts[0].buttons) != 1 || len(posts[0].buttons[0]) != 2 {
		t.Fatalf("expected approve/reject controls, got %+v", posts[0].buttons)
	}
	wantApprove := fmt.Sprintf("approve|%d", sub.ID)
	if posts[0].buttons[0][0].Data != wantApprove {
		t.Errorf("approve control data = %q, want %q", posts[0].buttons[0][0].Data, wantApprove)
	}
	if !strings.Contains(posts[0].text, fmt.Sprintf("<code>%d</code>", sub.ID)) {
		t.Errorf("log caption missing item id: %s", posts[0].text)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	sub := &auction.Submission{
		OwnerID: sellerID, Category: "dragon", Rarity: "🟡",
		FileID: "f", BaseBid: 10,
	}
	err := f.svc.Submit(context.Background(), sub)
	var verr *auction.ValidationError
	if !errors.As(err, &verr) || verr.Field != "category" {
		t.Fatalf("expected category validation error, got %v", err)
	}

	sub = &auction.Submission{
		OwnerID: sellerID, Category: auction.CategoryWaifu, Rarity: "🟡",
		FileID: "f", BaseBid: -1,
	}
	err = f.svc.Submit(context.Background(), sub)
	if !errors.As(err, &verr) || verr.Field != "base_bid" {
		t.Fatalf("expected base_bid validation error, got %v", err)
	}
}

// A zero base bid is a valid starting point; the first bid just has to clear
// the increment.
func TestSubmitZeroBaseBid(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 0)
	if sub.ID == 0 {
		t.Fatal("zero-base submission was not persisted")
	}
	if _, err := f.svc.Approve(context.Background(), Actor{ID: adminID}, sub.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	var tooLow *auction.BidTooLowError
	if _, err := f.svc.PlaceBid(context.Background(), Actor{ID: bidderID}, sub.ID, 4); !errors.As(err, &tooLow) {
		t.Fatalf("expected BidTooLow for 4, got %v", err)
	}
	if tooLow.MinNext != 5 {
		t.Fatalf("min next = %d, want 5", tooLow.MinNext)
	}
	got, err := f.svc.PlaceBid(context.Background(), Actor{ID: bidderID}, sub.ID, 5)
	if err != nil {
		t.Fatalf("bid 5: %v", err)
	}
	if got.CurrentBid != 5 {
		t.Fatalf("current bid = %d, want 5", got.CurrentBid)
	}
}

// Scenario A: bid below min increment fails, exact minimum succeeds.
func TestBidIncrementRules(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 100)
	if _, err := f.svc.Approve(context.Background(), Actor{ID: adminID}, sub.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err := f.svc.PlaceBid(context.Background(), Actor{ID: bidderID, Username: "@bidder"}, sub.ID, 80)
	var tooLow *auction.BidTooLowError
	if !errors.As(err, &tooLow) {
		t.Fatalf("expected BidTooLow, got %v", err)
	}
	if tooLow.MinNext != 105 {
		t.Fatalf("min next = %d, want 105", tooLow.MinNext)
	}

	got, err := f.svc.PlaceBid(context.Background(), Actor{ID: bidderID, Username: "@bidder"}, sub.ID, 105)
	if err != nil {
		t.Fatalf("bid 105: %v", err)
	}
	if got.CurrentBid != 105 || got.LastBidderID != bidderID {
		t.Fatalf("unexpected state after bid: %+v", got)
	}

	// Next bid must clear 105+5.
	if _, err := f.svc.PlaceBid(context.Background(), Actor{ID: bidderID + 1}, sub.ID, 109); !errors.As(err, &tooLow) {
		t.Fatalf("expected BidTooLow for 109, got %v", err)
	}
}

// Scenario B: owners can never bid on their own items.
func TestSelfBidRejected(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 100)
	if _, err := f.svc.Approve(context.Background(), Actor{ID: adminID}, sub.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	_, err := f.svc.PlaceBid(context.Background(), Actor{ID: sellerID}, sub.ID, 1000)
	if !errors.Is(err, auction.ErrSelfBid) {
		t.Fatalf("expected SelfBid, got %v", err)
	}
}

// Scenario C: the second decision on the same item fails AlreadyDecided.
func TestDoubleApproveFails(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 100)
	if _, err := f.svc.Approve(context.Background(), Actor{ID: adminID}, sub.ID); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if _, err := f.svc.Approve(context.Background(), Actor{ID: adminID}, sub.ID); !errors.Is(err, auction.ErrAlreadyDecided) {
		t.Fatalf("expected AlreadyDecided, got %v", err)
	}
	if _, err := f.svc.Reject(context.Background(), Actor{ID: adminID}, sub.ID); !errors.Is(err, auction.ErrAlreadyDecided) {
		t.Fatalf("reject after approve: expected AlreadyDecided, got %v", err)
	}
}

// Scenario D: only approved auctions can be force-ended.
func TestForceEndPendingFails(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 100)
	_, err := f.svc.ForceEnd(context.Background(), Actor{ID: adminID, Username: "@admin"}, sub.ID)
	if !errors.Is(err, auction.ErrAuctionClosed) {
		t.Fatalf("expected closed guard, got %v", err)
	}
}

// Scenario F: bans block every mutating entry point before state changes.
func TestBannedUserBlocked(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 100)
	if _, err := f.svc.Approve(context.Background(), Actor{ID: adminID}, sub.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := f.bans.Ban(context.Background(), &auction.GlobalBan{UserID: bidderID}); err != nil {
		t.Fatalf("ban: %v", err)
	}
	if _, err := f.svc.PlaceBid(context.Background(), Actor{ID: bidderID}, sub.ID, 500); !errors.Is(err, auction.ErrBanned) {
		t.Fatalf("expected Banned, got %v", err)
	}

	banned := &auction.Submission{
		OwnerID: bidderID, Category: auction.CategoryWaifu, Rarity: "🔵",
		FileID: "f", BaseBid: 10,
	}
	if err := f.svc.Submit(context.Background(), banned); !errors.Is(err, auction.ErrBanned) {
		t.Fatalf("expected Banned on submit, got %v", err)
	}
	if banned.ID != 0 {
		t.Fatal("submission must not be persisted for a banned user")
	}
}

func TestApproveFanOut(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 100)

	got, err := f.svc.Approve(context.Background(), Actor{ID: adminID}, sub.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.Status != auction.StatusApproved {
		t.Fatalf("status = %s", got.Status)
	}
	if want := f.nowVal.Add(72 * time.Hour); !got.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v, want %v", got.ExpiresAt, want)
	}

	if n := len(f.sent.callsTo(groupChat, "photo")); n != 1 {
		t.Errorf("group posts = %d, want 1", n)
	}
	if n := len(f.sent.callsTo(groupChat, "pin")); n != 1 {
		t.Errorf("group pins = %d, want 1", n)
	}
	channelPosts := f.sent.callsTo(channelChat, "photo")
	if len(channelPosts) != 1 {
		t.Fatalf("channel posts = %d, want 1", len(channelPosts))
	}
	if len(channelPosts[0].buttons) != 1 || channelPosts[0].buttons[0][0].Text != "💸 Bid Now" {
		t.Errorf("channel post missing bid control: %+v", channelPosts[0].buttons)
	}
	if n := len(f.sent.callsTo(sellerID, "photo")); n != 1 {
		t.Errorf("owner DMs = %d, want 1", n)
	}
	if got.ChannelMessageID == 0 || got.GroupMessageID == 0 {
		t.Errorf("post refs not recorded: %+v", got)
	}
}

func TestApproveSurvivesSendFailures(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 100)
	f.sent.fail["photo"] = errors.New("telegram down")

	got, err := f.svc.Approve(context.Background(), Actor{ID: adminID}, sub.ID)
	if err != nil {
		t.Fatalf("approve must not fail on send errors: %v", err)
	}
	if got.Status != auction.StatusApproved {
		t.Fatalf("status = %s, decision must be durable", got.Status)
	}
	stored, err := f.store.Get(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != auction.StatusApproved {
		t.Fatalf("stored status = %s", stored.Status)
	}
}

func TestRejectNotifiesOwner(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 100)
	got, err := f.svc.Reject(context.Background(), Actor{ID: adminID}, sub.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != auction.StatusRejected {
		t.Fatalf("status = %s", got.Status)
	}
	dms := f.sent.callsTo(sellerID, "photo")
	if len(dms) != 1 || !strings.Contains(dms[0].text, "rejected") {
		t.Fatalf("owner rejection DM missing: %+v", dms)
	}
	if n := len(f.sent.callsTo(groupChat, "photo")); n != 0 {
		t.Errorf("rejected item must not be posted to the group, got %d posts", n)
	}
}

func TestUnauthorizedDecision(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 100)
	if _, err := f.svc.Approve(context.Background(), Actor{ID: bidderID}, sub.ID); !errors.Is(err, auction.ErrUnauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
	if _, err := f.svc.ForceEnd(context.Background(), Actor{ID: bidderID}, sub.ID); !errors.Is(err, auction.ErrUnauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestBidHistoryBounded(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 10)
	if _, err := f.svc.Approve(context.Background(), Actor{ID: adminID}, sub.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	var last *auction.Submission
	for i := int64(0); i < 4; i++ {
		var err error
		last, err = f.svc.PlaceBid(context.Background(), Actor{ID: 100 + i}, sub.ID, 20+10*i)
		if err != nil {
			t.Fatalf("bid %d: %v", i, err)
		}
	}
	if len(last.Bidders) != auction.BidHistoryCap {
		t.Fatalf("history length = %d, want %d", len(last.Bidders), auction.BidHistoryCap)
	}
	if last.Bidders[1].UserID != 103 || last.Bidders[0].UserID != 102 {
		t.Fatalf("unexpected retained bidders: %+v", last.Bidders)
	}
}

func TestForceEndFanOut(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 100)
	if _, err := f.svc.Approve(context.Background(), Actor{ID: adminID}, sub.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := f.svc.PlaceBid(context.Background(), Actor{ID: bidderID, Username: "@bidder"}, sub.ID, 120); err != nil {
		t.Fatalf("bid: %v", err)
	}
	f.sent.mu.Lock()
	f.sent.calls = nil
	f.sent.mu.Unlock()

	got, err := f.svc.ForceEnd(context.Background(), Actor{ID: adminID, Username: "@admin"}, sub.ID)
	if err != nil {
		t.Fatalf("force end: %v", err)
	}
	if got.Status != auction.StatusEnded || !got.IsExpired {
		t.Fatalf("unexpected state: %+v", got)
	}

	announces := f.sent.callsTo(groupChat, "photo")
	if len(announces) != 1 || !strings.Contains(announces[0].text, "Force-Ended") {
		t.Fatalf("group announcement missing: %+v", announces)
	}
	if n := len(f.sent.callsTo(bidderID, "message")); n != 1 {
		t.Errorf("winner DMs = %d, want 1", n)
	}
	if n := len(f.sent.callsTo(sellerID, "message")); n != 1 {
		t.Errorf("seller DMs = %d, want 1", n)
	}
	if n := len(f.sent.callsTo(logChat, "photo")); n != 1 {
		t.Errorf("log mirrors = %d, want 1", n)
	}

	// Second force end must fail: the item already left approved.
	if _, err := f.svc.ForceEnd(context.Background(), Actor{ID: adminID}, sub.ID); !errors.Is(err, auction.ErrAuctionClosed) {
		t.Fatalf("expected closed on repeat force end, got %v", err)
	}
}

// lateBidStore lets a bid commit right after the pre-transition read, before
// the terminal update runs.
type lateBidStore struct {
	*memStore
	bid  func()
	once sync.Once
}

func (s *lateBidStore) Get(ctx context.Context, id int64) (*auction.Submission, error) {
	sub, err := s.memStore.Get(ctx, id)
	s.once.Do(s.bid)
	return sub, err
}

// A bid landing between the status read and the terminal transition must be
// the one announced and DM'd, not the snapshot's.
func TestForceEndAnnouncesLateBid(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 100)
	if _, err := f.svc.Approve(context.Background(), Actor{ID: adminID}, sub.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := f.svc.PlaceBid(context.Background(), Actor{ID: bidderID, Username: "@bidder"}, sub.ID, 120); err != nil {
		t.Fatalf("bid: %v", err)
	}

	const sniperID = int64(999)
	late := &lateBidStore{memStore: f.store, bid: func() {
		entry := auction.BidEntry{UserID: sniperID, Username: "@sniper", Amount: 500, PlacedAt: f.nowVal}
		if _, err := f.store.PlaceBid(context.Background(), sub.ID, entry, 5); err != nil {
			t.Errorf("late bid: %v", err)
		}
	}}
	svc := f.newService(late)

	f.sent.mu.Lock()
	f.sent.calls = nil
	f.sent.mu.Unlock()

	got, err := svc.ForceEnd(context.Background(), Actor{ID: adminID, Username: "@admin"}, sub.ID)
	if err != nil {
		t.Fatalf("force end: %v", err)
	}
	if got.CurrentBid != 500 || got.LastBidderID != sniperID {
		t.Fatalf("returned row misses the late bid: %+v", got)
	}

	if n := len(f.sent.callsTo(sniperID, "message")); n != 1 {
		t.Errorf("late bidder DMs = %d, want 1", n)
	}
	if n := len(f.sent.callsTo(bidderID, "message")); n != 0 {
		t.Errorf("outbid user DMs = %d, want 0", n)
	}
	announces := f.sent.callsTo(groupChat, "photo")
	if len(announces) != 1 || !strings.Contains(announces[0].text, "500") {
		t.Fatalf("announcement misses the final bid: %+v", announces)
	}
}

func TestPurgeDeletesRowsAndPosts(t *testing.T) {
	f := newFixture(t)
	sub := f.submit(t, 100)
	if _, err := f.svc.Approve(context.Background(), Actor{ID: adminID}, sub.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	removed, err := f.svc.Purge(context.Background(), Actor{ID: adminID}, []int64{sub.ID, 999})
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := f.store.Get(context.Background(), sub.ID); !errors.Is(err, auction.ErrNotFound) {
		t.Fatal("row should be gone")
	}
	if n := len(f.sent.callsTo(channelChat, "delete")); n != 1 {
		t.Errorf("channel deletes = %d, want 1", n)
	}
	if n := len(f.sent.callsTo(groupChat, "delete")); n != 1 {
		t.Errorf("group deletes = %d, want 1", n)
	}
}

func TestBanGuards(t *testing.T) {
	f := newFixture(t)
	var verr *auction.ValidationError
	if _, err := f.svc.Ban(context.Background(), Actor{ID: adminID}, adminID, ""); !errors.As(err, &verr) {
		t.Fatalf("self ban should fail validation, got %v", err)
	}
	if _, err := f.svc.Ban(context.Background(), Actor{ID: bidderID}, sellerID, ""); !errors.Is(err, auction.ErrUnauthorized) {
		t.Fatalf("non-admin ban should be unauthorized, got %v", err)
	}

	created, err := f.svc.Ban(context.Background(), Actor{ID: adminID}, bidderID, "spam")
	if err != nil || !created {
		t.Fatalf("ban: created=%v err=%v", created, err)
	}
	again, err := f.svc.Ban(context.Background(), Actor{ID: adminID}, bidderID, "spam")
	if err != nil || again {
		t.Fatalf("repeat ban: created=%v err=%v", again, err)
	}
	removed, err := f.svc.Unban(context.Background(), Actor{ID: adminID}, bidderID)
	if err != nil || !removed {
		t.Fatalf("unban: removed=%v err=%v", removed, err)
	}
}
