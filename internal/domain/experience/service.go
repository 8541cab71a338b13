package experience

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var validSources = map[string]bool{
	"purchase":      true,
	"cashback_code": true,
	"content":       true,
	"admin":         true,
}

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Grant(ctx context.Context, userID uuid.UUID, amount int64, source, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !validSources[source] {
		return ErrInvalidSource
	}

	entry, err := s.repo.Grant(ctx, userID, amount, source, description)
	if err != nil {
		return err
	}

	if entry.LevelAfter > entry.LevelBefore {
		log.Info().
			Str("user_id", userID.String()).
			Int("level", entry.LevelAfter).
			Msg("user leveled up")
	}
	return nil
}

func (s *Service) ListHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListHistory(ctx, userID, limit, offset)
}
