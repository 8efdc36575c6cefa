package format

import (
	"fmt"
	"strings"
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes text for Telegram HTML parse mode.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

// UserLink returns a clickable HTML mention for a Telegram user.
func UserLink(userID int64, display string) string {
	if display == "" {
		display = fmt.Sprintf("User %d", userID)
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, userID, EscapeHTML(display))
}

// DisplayName picks the best human-readable handle for a user. Usernames
// win over full names and always carry the @ prefix.
func DisplayName(username, name string, userID int64) string {
	if username != "" {
		return "@" + strings.TrimPrefix(username, "@")
	}
	if name != "" {
		return name
	}
	return fmt.Sprintf("User %d", userID)
}
