package cycle

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"
)

type Service struct {
	repo           *Repository
	cycleDuration  time.Duration
	seasonDuration time.Duration
}

func NewService(repo *Repository, cycleDuration, seasonDuration time.Duration) *Service {
	return &Service{repo: repo, cycleDuration: cycleDuration, seasonDuration: seasonDuration}
}

// Status reads the controller state, performing lazy rollover first if
// a window has elapsed. Every read is a rollover trigger; the paused
// flag suppresses both checks entirely.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	cfg, err := s.checkRollover(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Status{
		CycleNumber:         cfg.CycleNumber,
		SeasonNumber:        cfg.SeasonNumber,
		DaysRemainingCycle:  daysRemaining(cfg.CycleStart, s.cycleDuration, now),
		DaysRemainingSeason: daysRemaining(cfg.SeasonStart, s.seasonDuration, now),
		Paused:              cfg.Paused,
	}, nil
}

// CurrentWindow reports the active cycle number and its window,
// rolling over first if due. This is what the settlement and fund
// services consult before touching a fund.
func (s *Service) CurrentWindow(ctx context.Context) (number int64, start, end time.Time, err error) {
	cfg, err := s.checkRollover(ctx)
	if err != nil {
		return 0, time.Time{}, time.Time{}, err
	}
	return cfg.CycleNumber, cfg.CycleStart, cfg.CycleStart.Add(s.cycleDuration), nil
}

func (s *Service) checkRollover(ctx context.Context) (*Config, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Paused {
		return cfg, nil
	}

	now := time.Now()

	if now.Sub(cfg.SeasonStart) >= s.seasonDuration {
		advanced, err := s.repo.TryAdvanceSeason(ctx, cfg.SeasonNumber, now)
		if err != nil {
			return nil, err
		}
		if advanced {
			log.Info().Int64("season", cfg.SeasonNumber+1).Msg("season rolled over")
		}
		// Winner or loser, the stored row is now current
		return s.repo.Get(ctx)
	}

	if now.Sub(cfg.CycleStart) >= s.cycleDuration {
		advanced, err := s.repo.TryAdvanceCycle(ctx, cfg.CycleNumber, now)
		if err != nil {
			return nil, err
		}
		if advanced {
			log.Info().Int64("cycle", cfg.CycleNumber+1).Msg("cycle rolled over")
		}
		return s.repo.Get(ctx)
	}

	return cfg, nil
}

func (s *Service) Pause(ctx context.Context) error {
	return s.repo.SetPaused(ctx, true)
}

func (s *Service) Resume(ctx context.Context) error {
	return s.repo.SetPaused(ctx, false)
}

func (s *Service) Archive(ctx context.Context, cycleNumber int64, limit int) ([]ArchiveEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.ListArchive(ctx, cycleNumber, limit)
}

func daysRemaining(start time.Time, duration time.Duration, now time.Time) int {
	remaining := start.Add(duration).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}
