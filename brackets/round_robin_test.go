package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaVolvo/spin-master-sub001/models"
)

func TestExpectedRoundRobinMatches(t *testing.T) {
	cases := map[int]int{2: 1, 3: 3, 4: 6, 5: 10, 8: 28}
	for n, want := range cases {
		assert.Equal(t, want, ExpectedRoundRobinMatches(n), "n=%d", n)
	}
}

func TestRoundRobinGenerate(t *testing.T) {
	participants := testField(5)
	structure, err := NewRoundRobinGenerator().Generate(context.Background(), GenerateParams{
		Tournament:   &models.Tournament{ID: 7},
		Participants: participants,
	})
	require.NoError(t, err)
	require.Len(t, structure.Fixtures, 10)
	assert.Nil(t, structure.Bracket)

	// Каждая неупорядоченная пара встречается ровно один раз.
	seen := make(map[[2]int]bool)
	for _, m := range structure.Fixtures {
		require.NotNil(t, m.P1ID)
		require.NotNil(t, m.P2ID)
		assert.Equal(t, 7, m.TournamentID)
		assert.Equal(t, models.MatchScheduled, m.Status)
		assert.False(t, m.Decided())
		key := pairKey(*m.P1ID, *m.P2ID)
		assert.False(t, seen[key], "duplicate pairing %v", key)
		seen[key] = true
	}
}

func TestRoundRobinGenerateRejectsTinyField(t *testing.T) {
	_, err := NewRoundRobinGenerator().Generate(context.Background(), GenerateParams{
		Participants: testField(1),
	})
	assert.ErrorIs(t, err, ErrInvalidEntryCount)
}

func decidedMatch(p1, p2, winner, setsA, setsB int) *models.Match {
	return &models.Match{
		P1ID:     &p1,
		P2ID:     &p2,
		WinnerID: &winner,
		SetsA:    setsA,
		SetsB:    setsB,
		Status:   models.MatchCompleted,
	}
}

func TestComputeStandingsOrdering(t *testing.T) {
	participants := testField(3)
	matches := []*models.Match{
		decidedMatch(1, 2, 1, 3, 1), // P1 3:1 P2
		decidedMatch(1, 3, 3, 2, 3), // P3 3:2 P1
		decidedMatch(2, 3, 2, 3, 0), // P2 3:0 P3
	}

	standings := ComputeStandings(participants, matches)
	require.Len(t, standings, 3)

	// Все по одной победе, решает разница сетов: P2 +1, P1 +1, P3 -2.
	// При равной разнице P1 и P2 выше стоит вошедший раньше.
	assert.Equal(t, 1, standings[0].ParticipantID)
	assert.Equal(t, 2, standings[1].ParticipantID)
	assert.Equal(t, 3, standings[2].ParticipantID)
	for i, row := range standings {
		assert.Equal(t, i+1, row.Rank)
		assert.Equal(t, 1, row.Wins)
		assert.Equal(t, 1, row.Losses)
	}
}

func TestComputeStandingsForfeitWithoutSets(t *testing.T) {
	participants := testField(2)
	m := decidedMatch(1, 2, 1, 0, 0)
	m.ForfeitB = true

	standings := ComputeStandings(participants, []*models.Match{m})
	require.Len(t, standings, 2)
	assert.Equal(t, 1, standings[0].ParticipantID)
	assert.Equal(t, 1, standings[0].SetsWon)
	assert.Equal(t, 0, standings[0].SetsLost)
	assert.Equal(t, -1, standings[1].SetDiff)
}

func TestComputeStandingsIgnoresUndecided(t *testing.T) {
	participants := testField(2)
	pending := &models.Match{P1ID: &participants[0].ID, P2ID: &participants[1].ID, Status: models.MatchScheduled}

	standings := ComputeStandings(participants, []*models.Match{pending})
	for _, row := range standings {
		assert.Zero(t, row.Wins)
		assert.Zero(t, row.Losses)
	}
}
