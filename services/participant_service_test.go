package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaVolvo/spin-master-sub001/models"
	"github.com/IlyaVolvo/spin-master-sub001/repositories"
)

// stubParticipantRepo отдаёт одного участника и запоминает смены
// статуса. Невстроенные методы интерфейса падают при вызове.
type stubParticipantRepo struct {
	repositories.ParticipantRepository
	participant *models.Participant
	updated     []models.ParticipantStatus
}

func (r *stubParticipantRepo) GetByTournamentAndPlayer(ctx context.Context, tournamentID, playerID int) (*models.Participant, error) {
	if r.participant == nil || r.participant.TournamentID != tournamentID || r.participant.PlayerID != playerID {
		return nil, repositories.ErrParticipantNotFound
	}
	return r.participant, nil
}

func (r *stubParticipantRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.ParticipantStatus) error {
	r.updated = append(r.updated, status)
	return nil
}

func appliedParticipant(token string) *models.Participant {
	return &models.Participant{
		ID:           10,
		PlayerID:     101,
		TournamentID: 1,
		Status:       models.ParticipantApplied,
		InviteToken:  &token,
	}
}

func TestConfirmWithValidToken(t *testing.T) {
	repo := &stubParticipantRepo{participant: appliedParticipant("tok-1")}
	svc := NewParticipantService(repo, nil, nil)

	participant, err := svc.Confirm(context.Background(), 1, 101, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantConfirmed, participant.Status)
	assert.Equal(t, []models.ParticipantStatus{models.ParticipantConfirmed}, repo.updated)
}

func TestConfirmRejectsWrongToken(t *testing.T) {
	repo := &stubParticipantRepo{participant: appliedParticipant("tok-1")}
	svc := NewParticipantService(repo, nil, nil)

	_, err := svc.Confirm(context.Background(), 1, 101, "tok-2")
	assert.ErrorIs(t, err, ErrInvalidInviteToken)
	assert.Empty(t, repo.updated)
}

func TestConfirmRejectsMissingToken(t *testing.T) {
	repo := &stubParticipantRepo{participant: appliedParticipant("tok-1")}
	svc := NewParticipantService(repo, nil, nil)

	_, err := svc.Confirm(context.Background(), 1, 101, "")
	assert.ErrorIs(t, err, ErrInvalidInviteToken)

	// Заявка без выданного токена не подтверждается вовсе.
	repo.participant.InviteToken = nil
	_, err = svc.Confirm(context.Background(), 1, 101, "tok-1")
	assert.ErrorIs(t, err, ErrInvalidInviteToken)
	assert.Empty(t, repo.updated)
}

func TestConfirmUnknownRegistration(t *testing.T) {
	repo := &stubParticipantRepo{}
	svc := NewParticipantService(repo, nil, nil)

	_, err := svc.Confirm(context.Background(), 1, 101, "tok-1")
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}
