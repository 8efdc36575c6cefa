package auction

import (
	"strings"
	"time"
)

// Status describes the lifecycle stage of a submission.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusEnded     Status = "ended"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusEnded, StatusCancelled:
		return true
	}
	return false
}

// Category is the submission item kind.
type Category string

const (
	CategoryWaifu    Category = "waifu"
	CategoryHusbando Category = "husbando"
)

// ParseCategory normalizes raw input into a known category.
func ParseCategory(raw string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryWaifu:
		return CategoryWaifu, true
	case CategoryHusbando:
		return CategoryHusbando, true
	}
	return "", false
}

// Title returns the category with an upper-cased first letter for captions.
func (c Category) Title() string {
	s := string(c)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Submission is a single auction item through its whole lifecycle.
type Submission struct {
	ID            int64     `db:"id"`
	OwnerID       int64     `db:"owner_id"`
	OwnerName     string    `db:"owner_name"`
	OwnerUsername string    `db:"owner_username"`
	Category      Category  `db:"category"`
	Rarity        string    `db:"rarity"`
	RarityName    string    `db:"rarity_name"`
	AnimeName     string    `db:"anime_name"`
	ItemName      string    `db:"item_name"`
	OptionalTag   string    `db:"optional_tag"`
	Caption       string    `db:"caption"`
	FileID        string    `db:"file_id"`
	SubmittedAt   time.Time `db:"submitted_at"`
	Status        Status    `db:"status"`
	BaseBid       int64     `db:"base_bid"`

	ChannelMessageID int64 `db:"channel_message_id"`
	GroupMessageID   int64 `db:"group_message_id"`

	ExpiresAt        time.Time  `db:"expires_at"`
	IsExpired        bool       `db:"is_expired"`
	ControlsStripped bool       `db:"controls_stripped"`
	CurrentBid       int64      `db:"current_bid"`
	LastBidderID     int64      `db:"last_bidder_id"`
	LastBidderName   string     `db:"last_bidder_name"`
	LastBidAt        *time.Time `db:"last_bid_at"`

	Bidders BidHistory `db:"bidders"`
}

// MinNextBid returns the smallest acceptable bid given the increment.
func (s *Submission) MinNextBid(increment int64) int64 {
	current := s.CurrentBid
	if current == 0 {
		current = s.BaseBid
	}
	return current + increment
}

// Open reports whether the submission still accepts bids.
func (s *Submission) Open(now time.Time) bool {
	if s.Status != StatusApproved || s.IsExpired {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// HasWinner reports whether at least one bid was placed.
func (s *Submission) HasWinner() bool {
	return s.LastBidderID != 0 && s.CurrentBid > 0
}
