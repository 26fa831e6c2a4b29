package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Dosada05/swiss-tournaments/repositories"
)

// RegistrationScheduler closes registration for tournaments whose
// registration_closes_at deadline has passed. Opening registration stays an
// administrator action; only the closing side is automated.
type RegistrationScheduler struct {
	tournamentRepo repositories.TournamentRepository
	tournaments    TournamentService
	logger         *slog.Logger
	interval       time.Duration
	now            func() time.Time
}

func NewRegistrationScheduler(
	tournamentRepo repositories.TournamentRepository,
	tournaments TournamentService,
	logger *slog.Logger,
	interval time.Duration,
) *RegistrationScheduler {
	return &RegistrationScheduler{
		tournamentRepo: tournamentRepo,
		tournaments:    tournaments,
		logger:         logger,
		interval:       interval,
		now:            time.Now,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *RegistrationScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("registration scheduler started", slog.Duration("interval", s.interval))
	if err := s.Sweep(ctx); err != nil {
		s.logger.Error("registration scheduler: initial sweep failed", slog.Any("error", err))
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("registration scheduler stopped")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("registration scheduler: sweep failed", slog.Any("error", err))
			}
		}
	}
}

// Sweep closes every open registration whose deadline has passed. Failures on
// individual tournaments are logged and do not stop the sweep.
func (s *RegistrationScheduler) Sweep(ctx context.Context) error {
	due, err := s.tournamentRepo.ListRegistrationToClose(ctx, nil, s.now().UTC())
	if err != nil {
		return err
	}
	for _, t := range due {
		if _, err := s.tournaments.CloseRegistration(ctx, t.ID); err != nil {
			s.logger.Error("registration scheduler: failed to close registration",
				slog.String("tournament_id", t.ID.String()),
				slog.Any("error", err))
			continue
		}
		s.logger.Info("registration closed automatically",
			slog.String("tournament_id", t.ID.String()),
			slog.String("slug", t.Slug))
	}
	return nil
}
