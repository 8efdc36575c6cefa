package auction

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// BidHistoryCap bounds the retained bidder history per item.
const BidHistoryCap = 2

// BidEntry records a single accepted bid.
type BidEntry struct {
	UserID   int64     `json:"id"`
	Username string    `json:"username"`
	Amount   int64     `json:"bid"`
	PlacedAt time.Time `json:"time"`
}

// BidHistory is a bounded FIFO of the most recent accepted bids,
// stored as a JSONB column.
type BidHistory []BidEntry

// Push appends an entry, evicting the oldest once capacity is exceeded.
func (h BidHistory) Push(entry BidEntry) BidHistory {
	out := append(h, entry)
	if len(out) > BidHistoryCap {
		out = out[len(out)-BidHistoryCap:]
	}
	return out
}

// Latest returns the most recent entry, if any.
func (h BidHistory) Latest() (BidEntry, bool) {
	if len(h) == 0 {
		return BidEntry{}, false
	}
	return h[len(h)-1], true
}

// Value implements driver.Valuer for JSONB storage.
func (h BidHistory) Value() (driver.Value, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("marshal bid history: %w", err)
	}
	return data, nil
}

// Scan implements sql.Scanner for JSONB storage.
func (h *BidHistory) Scan(src any) error {
	if src == nil {
		*h = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan bid history: unsupported type %T", src)
	}
	if len(data) == 0 {
		*h = nil
		return nil
	}
	var out BidHistory
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal bid history: %w", err)
	}
	*h = out
	return nil
}
