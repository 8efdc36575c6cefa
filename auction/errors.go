package auction

import "fmt"

// codedError is a sentinel error carrying a stable machine code for logs.
type codedError struct {
	code string
	msg  string
}

func (e *codedError) Error() string { return e.msg }

// Code returns the stable error code for structured logging.
func (e *codedError) Code() string { return e.code }

var (
	// ErrNotFound indicates the item or user does not exist.
	ErrNotFound = &codedError{code: "NOT_FOUND", msg: "item not found"}
	// ErrAlreadyDecided indicates the submission left the pending state earlier.
	ErrAlreadyDecided = &codedError{code: "ALREADY_DECIDED", msg: "submission already decided"}
	// ErrAuctionClosed indicates the auction no longer accepts bids.
	ErrAuctionClosed = &codedError{code: "AUCTION_CLOSED", msg: "auction has ended"}
	// ErrSelfBid indicates the seller tried to bid on their own item.
	ErrSelfBid = &codedError{code: "SELF_BID", msg: "cannot bid on your own item"}
	// ErrUnauthorized indicates the actor lacks the privilege for the operation.
	ErrUnauthorized = &codedError{code: "UNAUTHORIZED", msg: "operation requires admin privileges"}
	// ErrBanned indicates the actor is globally banned.
	ErrBanned = &codedError{code: "BANNED", msg: "user is globally banned"}
)

// ValidationError reports invalid submission input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Code returns the stable error code for structured logging.
func (e *ValidationError) Code() string { return "VALIDATION" }

// BidTooLowError reports a bid below the minimum next bid.
type BidTooLowError struct {
	Offered int64
	MinNext int64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid %d below minimum next bid %d", e.Offered, e.MinNext)
}

// Code returns the stable error code for structured logging.
func (e *BidTooLowError) Code() string { return "BID_TOO_LOW" }

// ErrorCode extracts the machine code from a domain error, if present.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var coded interface{ Code() string }
	if ok := asCoded(err, &coded); ok {
		return coded.Code()
	}
	return "INTERNAL"
}

func asCoded(err error, target *interface{ Code() string }) bool {
	for err != nil {
		if c, ok := err.(interface{ Code() string }); ok {
			*target = c
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
