package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/IlyaVolvo/spin-master-sub001/models"
	"github.com/IlyaVolvo/spin-master-sub001/repositories"
)

type ParticipantService interface {
	Register(ctx context.Context, tournamentID, playerID int) (*models.Participant, error)
	Confirm(ctx context.Context, tournamentID, playerID int, token string) (*models.Participant, error)
	Withdraw(ctx context.Context, tournamentID, playerID int) error
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error)
}

type participantService struct {
	participantRepo repositories.ParticipantRepository
	tournamentRepo  repositories.TournamentRepository
	playerRepo      repositories.PlayerRepository
}

func NewParticipantService(
	participantRepo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
) ParticipantService {
	return &participantService{
		participantRepo: participantRepo,
		tournamentRepo:  tournamentRepo,
		playerRepo:      playerRepo,
	}
}

// Register подаёт заявку игрока. Рейтинг входа замораживается сразу:
// это снимок живого рейтинга на момент заявки, дальше они расходятся.
func (s *participantService) Register(ctx context.Context, tournamentID, playerID int) (*models.Participant, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if tournament.Status != models.StatusRegistration {
		return nil, ErrRegistrationNotOpen
	}

	confirmed := models.ParticipantConfirmed
	existing, err := s.participantRepo.ListByTournament(ctx, tournamentID, &confirmed, false)
	if err != nil {
		return nil, err
	}
	if tournament.MaxParticipants > 0 && len(existing) >= tournament.MaxParticipants {
		return nil, ErrTournamentFull
	}

	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	token := uuid.NewString()
	participant := &models.Participant{
		PlayerID:     player.ID,
		TournamentID: tournamentID,
		EntryRating:  player.Rating,
		Status:       models.ParticipantApplied,
		InviteToken:  &token,
	}
	if err := s.participantRepo.Create(ctx, nil, participant); err != nil {
		if errors.Is(err, repositories.ErrParticipantConflict) {
			return nil, ErrRegistrationConflict
		}
		return nil, fmt.Errorf("failed to register participant: %w", err)
	}
	return participant, nil
}

// Confirm подтверждает заявку по токену приглашения, выданному при
// регистрации. Токен сверяется, прежде чем участник попадёт в число
// подтверждённых.
func (s *participantService) Confirm(ctx context.Context, tournamentID, playerID int, token string) (*models.Participant, error) {
	participant, err := s.participantRepo.GetByTournamentAndPlayer(ctx, tournamentID, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	if token == "" || participant.InviteToken == nil || token != *participant.InviteToken {
		return nil, ErrInvalidInviteToken
	}
	if err := s.participantRepo.UpdateStatus(ctx, nil, participant.ID, models.ParticipantConfirmed); err != nil {
		return nil, err
	}
	participant.Status = models.ParticipantConfirmed
	return participant, nil
}

func (s *participantService) Withdraw(ctx context.Context, tournamentID, playerID int) error {
	participant, err := s.participantRepo.GetByTournamentAndPlayer(ctx, tournamentID, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return err
	}
	// После старта структура построена: участник остаётся в сетке и
	// помечается снятым, его матчи решаются форфейтом.
	if tournament.Status == models.StatusActive || tournament.Status == models.StatusCompleted {
		return s.participantRepo.UpdateStatus(ctx, nil, participant.ID, models.ParticipantWithdrawn)
	}
	return s.participantRepo.Delete(ctx, nil, participant.ID)
}

func (s *participantService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	return s.participantRepo.ListByTournament(ctx, tournamentID, nil, true)
}
