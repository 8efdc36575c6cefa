package auction

import "time"

// User is a Telegram account known to the bot, upserted on /start
// and refreshed on later interactions.
type User struct {
	ID        int64     `db:"id"`
	FullName  string    `db:"full_name"`
	Username  string    `db:"username"`
	IsBanned  bool      `db:"is_banned"`
	FirstSeen time.Time `db:"first_seen"`
	LastSeen  time.Time `db:"last_seen"`
}

// GlobalBan blocks a user from every bot feature.
type GlobalBan struct {
	UserID   int64     `db:"user_id"`
	Reason   string    `db:"reason"`
	BannedBy int64     `db:"banned_by"`
	BannedAt time.Time `db:"banned_at"`
}
