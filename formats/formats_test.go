package formats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaVolvo/spin-master-sub001/brackets"
	"github.com/IlyaVolvo/spin-master-sub001/models"
)

func field(n int) []*models.Participant {
	participants := make([]*models.Participant, 0, n)
	for i := 1; i <= n; i++ {
		participants = append(participants, &models.Participant{
			ID:          i,
			PlayerID:    100 + i,
			EntryRating: 1600 - 20*i,
			Status:      models.ParticipantConfirmed,
		})
	}
	return participants
}

func TestLookupKnownTags(t *testing.T) {
	for _, tag := range []models.FormatTag{
		models.FormatRoundRobin,
		models.FormatPlayoff,
		models.FormatSwiss,
		models.FormatPrelimFinalRoundRobin,
		models.FormatPrelimFinalPlayoff,
	} {
		h, err := Lookup(tag)
		require.NoError(t, err, "tag %s", tag)
		assert.Equal(t, tag, h.Tag())
	}
}

func TestLookupUnknownTagFailsLoudly(t *testing.T) {
	_, err := Lookup("DOUBLE_ELIMINATION")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRoundRobinExpectedMatchCount(t *testing.T) {
	h, err := Lookup(models.FormatRoundRobin)
	require.NoError(t, err)
	tournament := &models.Tournament{Participants: field(5)}
	assert.Equal(t, 10, h.ExpectedMatchCount(tournament))
}

func TestPlayoffExpectedMatchCountSkipsByes(t *testing.T) {
	h, err := Lookup(models.FormatPlayoff)
	require.NoError(t, err)

	// 5 участников в восьмёрке: 7 узлов минус 3 bye → 4 матча.
	assert.Equal(t, 4, h.ExpectedMatchCount(&models.Tournament{Participants: field(5)}))
	// Полная восьмёрка: все 7 узлов играются.
	assert.Equal(t, 7, h.ExpectedMatchCount(&models.Tournament{Participants: field(8)}))
}

func TestSwissExpectedMatchCount(t *testing.T) {
	h, err := Lookup(models.FormatSwiss)
	require.NoError(t, err)
	rounds := 5
	tournament := &models.Tournament{Participants: field(16), SwissRounds: &rounds}
	assert.Equal(t, 40, h.ExpectedMatchCount(tournament))
	assert.Equal(t, 0, h.ExpectedMatchCount(&models.Tournament{Participants: field(16)}))
}

// Завершённость сетки определяется финальным узлом, не числом матчей.
func TestPlayoffIsCompleteFollowsFinalNode(t *testing.T) {
	h, err := Lookup(models.FormatPlayoff)
	require.NoError(t, err)

	participants := field(4)
	structure, err := h.Build(context.Background(), brackets.GenerateParams{
		Tournament:   &models.Tournament{ID: 1},
		Participants: participants,
	})
	require.NoError(t, err)

	tournament := &models.Tournament{Nodes: structure.Bracket.Nodes}
	assert.False(t, h.IsComplete(tournament))

	engine := brackets.NewElimination(structure.Bracket, participants)
	for _, c := range []brackets.Coord{
		{Round: 1, Position: 0},
		{Round: 1, Position: 1},
		{Round: 2, Position: 0},
	} {
		_, err := engine.RecordResult(c, brackets.Result{SetsA: 3, SetsB: 1})
		require.NoError(t, err)
	}
	assert.True(t, h.IsComplete(tournament))
}

func TestCanDeleteOnlyWithoutResults(t *testing.T) {
	h, err := Lookup(models.FormatRoundRobin)
	require.NoError(t, err)

	winner := 1
	clean := &models.Tournament{Matches: []*models.Match{{Status: models.MatchScheduled}}}
	played := &models.Tournament{Matches: []*models.Match{{WinnerID: &winner, Status: models.MatchCompleted}}}
	assert.True(t, h.CanDelete(clean))
	assert.False(t, h.CanDelete(played))
}

func TestCompoundCompletionTracksChildren(t *testing.T) {
	h, err := Lookup(models.FormatPrelimFinalPlayoff)
	require.NoError(t, err)

	parent := &models.Tournament{Format: models.FormatPrelimFinalPlayoff}
	assert.False(t, h.IsComplete(parent), "без детей составной турнир не завершён")

	parent.Children = []*models.Tournament{
		{Format: models.FormatRoundRobin, Status: models.StatusCompleted},
		{Format: models.FormatRoundRobin, Status: models.StatusActive},
	}
	assert.False(t, h.IsComplete(parent))

	parent.Children[1].Status = models.StatusCompleted
	assert.True(t, h.IsComplete(parent))
}

func TestCompoundExpectedMatchCountSumsChildren(t *testing.T) {
	h, err := Lookup(models.FormatPrelimFinalRoundRobin)
	require.NoError(t, err)
	parent := &models.Tournament{
		Children: []*models.Tournament{
			{Format: models.FormatRoundRobin, Participants: field(4)},
			{Format: models.FormatRoundRobin, Participants: field(4)},
		},
	}
	assert.Equal(t, 12, h.ExpectedMatchCount(parent))
}

func TestFinalStageTag(t *testing.T) {
	tag, err := FinalStageTag(models.FormatPrelimFinalRoundRobin)
	require.NoError(t, err)
	assert.Equal(t, models.FormatRoundRobin, tag)

	tag, err = FinalStageTag(models.FormatPrelimFinalPlayoff)
	require.NoError(t, err)
	assert.Equal(t, models.FormatPlayoff, tag)

	_, err = FinalStageTag(models.FormatSwiss)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
