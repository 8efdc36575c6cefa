// Package users tracks Telegram accounts that started the bot.
package users

import (
	"context"

	"log/slog"

	"github.com/phantomtroupe/auctionbot/auction"
	"github.com/phantomtroupe/auctionbot/logger"
)

// Repo is the persistence surface for known users.
type Repo interface {
	Upsert(ctx context.Context, u *auction.User) (bool, error)
	Exists(ctx context.Context, userID int64) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// Service registers users and answers start-gate checks.
type Service struct {
	repo Repo
}

// New constructs the user service.
func New(repo Repo) *Service {
	return &Service{repo: repo}
}

// Register upserts the user on /start and reports whether they are new.
func (s *Service) Register(ctx context.Context, u *auction.User) (bool, error) {
	isNew, err := s.repo.Upsert(ctx, u)
	if err != nil {
		return false, err
	}
	if isNew {
		logger.SVCUsers.Info("new user",
			slog.String("event", "user.register"),
			slog.Int64("user_id", u.ID),
			slog.String("username", u.Username),
		)
	}
	return isNew, nil
}

// HasStarted reports whether the user has ever started the bot.
func (s *Service) HasStarted(ctx context.Context, userID int64) (bool, error) {
	return s.repo.Exists(ctx, userID)
}

// Count returns the number of registered users.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
