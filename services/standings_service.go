package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IlyaVolvo/spin-master-sub001/brackets"
	"github.com/IlyaVolvo/spin-master-sub001/cache"
	"github.com/IlyaVolvo/spin-master-sub001/models"
	"github.com/IlyaVolvo/spin-master-sub001/repositories"
)

// StandingsService считает турнирную таблицу и показывает пары
// следующего швейцарского тура.
type StandingsService interface {
	Standings(ctx context.Context, tournamentID int) ([]*models.Standing, error)
	NextSwissPairings(ctx context.Context, tournamentID int) ([]brackets.SwissPair, error)
}

type standingsService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	standingsCache  *cache.StandingsCache
	logger          *slog.Logger
}

func NewStandingsService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	standingsCache *cache.StandingsCache,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		standingsCache:  standingsCache,
		logger:          logger,
	}
}

// Standings пересчитывает таблицу по текущим матчам. Таблица — чистая
// производная от результатов, поэтому кэш можно безопасно сбрасывать и
// пересчитывать в любой момент.
func (s *standingsService) Standings(ctx context.Context, tournamentID int) ([]*models.Standing, error) {
	if cached, err := s.standingsCache.Get(ctx, tournamentID); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		s.logger.Warn("standings cache read failed", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
	}

	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	confirmed := models.ParticipantConfirmed
	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID, &confirmed, true)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	standings := brackets.ComputeStandings(participants, matches)
	if err := s.standingsCache.Set(ctx, tournamentID, standings); err != nil {
		s.logger.Warn("standings cache write failed", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
	}
	return standings, nil
}

// NextSwissPairings показывает, как будет спарен следующий тур при
// текущих результатах. Пары не сохраняются: фикстуры создаются только
// когда текущий тур доигран.
func (s *standingsService) NextSwissPairings(ctx context.Context, tournamentID int) ([]brackets.SwissPair, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if tournament.Format != models.FormatSwiss {
		return nil, fmt.Errorf("%w: tournament %d is not a swiss tournament", ErrValidationFailed, tournamentID)
	}
	confirmed := models.ParticipantConfirmed
	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID, &confirmed, false)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	decided := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m.Decided() {
			decided = append(decided, m)
		}
	}
	return brackets.PairSwissRound(participants, decided)
}
