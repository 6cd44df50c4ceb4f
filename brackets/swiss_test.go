package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaVolvo/spin-master-sub001/models"
)

func TestSwissRoundBounds(t *testing.T) {
	cases := []struct {
		n, min, max int
	}{
		{8, 4, 4},
		{10, 5, 5},
		{16, 5, 8},
		{32, 6, 16},
	}
	for _, c := range cases {
		min, max := SwissRoundBounds(c.n)
		assert.Equal(t, c.min, min, "n=%d", c.n)
		assert.Equal(t, c.max, max, "n=%d", c.n)
	}
}

func TestValidateSwissConfig(t *testing.T) {
	assert.NoError(t, ValidateSwissConfig(16, 5))
	assert.NoError(t, ValidateSwissConfig(16, 8))
	assert.ErrorIs(t, ValidateSwissConfig(1, 1), ErrInvalidEntryCount)
	assert.ErrorIs(t, ValidateSwissConfig(7, 3), ErrOddEntryCount)
	// Нечётное поле — частный случай негодного числа участников.
	assert.ErrorIs(t, ValidateSwissConfig(7, 3), ErrInvalidEntryCount)
	assert.ErrorIs(t, ValidateSwissConfig(16, 4), ErrInvalidRoundConfig)
	assert.ErrorIs(t, ValidateSwissConfig(16, 9), ErrInvalidRoundConfig)
}

func TestSwissOpeningRoundSplitsHalves(t *testing.T) {
	participants := testField(8)
	pairs, err := PairSwissRound(participants, nil)
	require.NoError(t, err)
	require.Len(t, pairs, 4)

	// Посев i встречает посев i+n/2: 1-5, 2-6, 3-7, 4-8.
	for i, pair := range pairs {
		assert.Equal(t, i+1, pair.P1)
		assert.Equal(t, i+5, pair.P2)
	}
}

func TestSwissRejectsOddField(t *testing.T) {
	_, err := PairSwissRound(testField(5), nil)
	assert.ErrorIs(t, err, ErrOddEntryCount)
	assert.ErrorIs(t, err, ErrInvalidEntryCount)
}

func TestSwissPairsByScoreGroups(t *testing.T) {
	participants := testField(8)
	round1 := []*models.Match{
		decidedMatch(1, 5, 1, 3, 0),
		decidedMatch(2, 6, 2, 3, 1),
		decidedMatch(3, 7, 7, 1, 3),
		decidedMatch(4, 8, 8, 2, 3),
	}

	pairs, err := PairSwissRound(participants, round1)
	require.NoError(t, err)
	require.Len(t, pairs, 4)

	// Победители играют с победителями: группа {1,2,7,8} на очке,
	// группа {3,4,5,6} на нуле, внутри группы — порядок посева.
	assert.Equal(t, SwissPair{P1: 1, P2: 2}, pairs[0])
	assert.Equal(t, SwissPair{P1: 7, P2: 8}, pairs[1])
	assert.Equal(t, SwissPair{P1: 3, P2: 4}, pairs[2])
	assert.Equal(t, SwissPair{P1: 5, P2: 6}, pairs[3])
}

func TestSwissAvoidsRematches(t *testing.T) {
	participants := testField(4)
	played := []*models.Match{
		decidedMatch(1, 3, 1, 3, 0),
		decidedMatch(2, 4, 2, 3, 1),
		decidedMatch(1, 2, 1, 3, 2),
		decidedMatch(3, 4, 3, 3, 1),
	}

	pairs, err := PairSwissRound(participants, played)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	for _, pair := range pairs {
		for _, m := range played {
			require.False(t, pairKey(*m.P1ID, *m.P2ID) == pairKey(pair.P1, pair.P2),
				"rematch %d-%d", pair.P1, pair.P2)
		}
	}
}

func TestSwissNoRematchAcrossFullSchedule(t *testing.T) {
	// Доигрываем максимум туров для восьмёрки и проверяем, что ни одна
	// пара не повторилась: победителем всегда выходит сильнейший посев.
	participants := testField(8)
	_, maxRounds := SwissRoundBounds(8)

	var played []*models.Match
	for round := 0; round < maxRounds; round++ {
		pairs, err := PairSwissRound(participants, played)
		require.NoError(t, err, "round %d", round+1)
		require.Len(t, pairs, 4)
		for _, pair := range pairs {
			winner := pair.P1
			if pair.P2 < pair.P1 {
				winner = pair.P2
			}
			played = append(played, decidedMatch(pair.P1, pair.P2, winner, 3, 1))
		}
	}

	seen := make(map[[2]int]bool)
	for _, m := range played {
		key := pairKey(*m.P1ID, *m.P2ID)
		assert.False(t, seen[key], "pair %v repeated", key)
		seen[key] = true
	}
}

func TestSwissGeneratorBuildsOpeningFixtures(t *testing.T) {
	rounds := 4
	structure, err := NewSwissGenerator().Generate(context.Background(), GenerateParams{
		Tournament:   &models.Tournament{ID: 3, SwissRounds: &rounds},
		Participants: testField(8),
	})
	require.NoError(t, err)
	require.Len(t, structure.Fixtures, 4)
	for _, m := range structure.Fixtures {
		assert.Equal(t, 3, m.TournamentID)
		assert.Equal(t, models.MatchScheduled, m.Status)
	}
}

func TestSwissGeneratorRejectsBadConfig(t *testing.T) {
	rounds := 2
	_, err := NewSwissGenerator().Generate(context.Background(), GenerateParams{
		Tournament:   &models.Tournament{ID: 3, SwissRounds: &rounds},
		Participants: testField(8),
	})
	assert.ErrorIs(t, err, ErrInvalidRoundConfig)
}
