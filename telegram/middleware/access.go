package middleware

import tele "gopkg.in/telebot.v4"

// AccessOptions defines how privileged-only checks should behave. Allowed
// decides whether the sender may run moderation commands.
type AccessOptions struct {
	Allowed  func(userID int64) bool
	OnReject tele.HandlerFunc
}

// PrivilegedOnlyMiddleware ensures that only privileged users can invoke downstream handlers.
func PrivilegedOnlyMiddleware(opts AccessOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if opts.Allowed != nil && (sender == nil || !opts.Allowed(sender.ID)) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
