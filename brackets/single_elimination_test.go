package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaVolvo/spin-master-sub001/models"
)

// testField builds n participants with ids 1..n and ratings descending
// in steps of 20, so participant 1 is the strongest entrant.
func testField(n int) []*models.Participant {
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

func generate(t *testing.T, participants []*models.Participant) *Bracket {
	t.Helper()
	structure, err := NewSingleEliminationGenerator().Generate(context.Background(), GenerateParams{
		Tournament:   &models.Tournament{ID: 1},
		Participants: participants,
	})
	require.NoError(t, err)
	require.NotNil(t, structure.Bracket)
	return structure.Bracket
}

func TestBracketSize(t *testing.T) {
	cases := map[int]int{2: 2, 3: 4, 4: 4, 5: 8, 8: 8, 9: 16, 16: 16, 17: 32}
	for n, want := range cases {
		assert.Equal(t, want, BracketSize(n), "n=%d", n)
	}
}

func TestTotalRounds(t *testing.T) {
	cases := map[int]int{2: 1, 4: 2, 8: 3, 16: 4, 64: 6}
	for size, want := range cases {
		assert.Equal(t, want, TotalRounds(size), "size=%d", size)
	}
}

func TestNumSeeded(t *testing.T) {
	cases := map[int]int{2: 2, 4: 2, 8: 2, 16: 4, 32: 8, 64: 16, 128: 32, 256: 32}
	for size, want := range cases {
		assert.Equal(t, want, NumSeeded(size), "size=%d", size)
	}
}

func TestSeedOrderTemplate(t *testing.T) {
	assert.Equal(t, []int{1, 4, 2, 3}, seedOrder(4))
	assert.Equal(t, []int{1, 8, 4, 5, 2, 7, 3, 6}, seedOrder(8))

	// В каждой паре раунда 1 ранги дополняют друг друга до size+1, так
	// что первый и второй посев могут встретиться только в финале.
	for _, size := range []int{4, 8, 16, 32, 64} {
		order := seedOrder(size)
		require.Len(t, order, size)
		for p := 0; p < size/2; p++ {
			assert.Equal(t, size+1, order[2*p]+order[2*p+1], "size=%d pair=%d", size, p)
		}
	}
}

func TestGenerateRejectsTinyField(t *testing.T) {
	_, err := NewSingleEliminationGenerator().Generate(context.Background(), GenerateParams{
		Participants: testField(1),
	})
	assert.ErrorIs(t, err, ErrInvalidEntryCount)
}

func TestGenerateFiveEntrants(t *testing.T) {
	participants := testField(5)
	bracket := generate(t, participants)

	assert.Equal(t, 8, bracket.Size)
	assert.Equal(t, 3, bracket.Rounds)
	require.Len(t, bracket.Nodes, 7)

	// Два посева на восьмёрку, остальные без номера.
	require.NotNil(t, participants[0].Seed)
	require.NotNil(t, participants[1].Seed)
	assert.Equal(t, 1, *participants[0].Seed)
	assert.Equal(t, 2, *participants[1].Seed)
	for _, p := range participants[2:] {
		assert.Nil(t, p.Seed, "participant %d", p.ID)
	}

	// Три bye достаются трём сильнейшим и решаются без матча.
	byes := 0
	for p := 0; p < 4; p++ {
		node, err := bracket.Node(Coord{Round: 1, Position: p})
		require.NoError(t, err)
		if node.ByeNode() {
			byes++
			assert.Equal(t, NodeDecided, State(node))
			assert.Nil(t, node.MatchID)
		}
	}
	assert.Equal(t, 3, byes)

	// Единственный сыгранный матч первого раунда: ранги 4 и 5.
	node, err := bracket.Node(Coord{Round: 1, Position: 1})
	require.NoError(t, err)
	assert.Equal(t, NodeReady, State(node))
	assert.Equal(t, 4, *node.SlotA.ParticipantID)
	assert.Equal(t, 5, *node.SlotB.ParticipantID)

	// Победители bye продвинуты во второй раунд.
	semifinal, err := bracket.Node(Coord{Round: 2, Position: 1})
	require.NoError(t, err)
	assert.Equal(t, NodeReady, State(semifinal))
	assert.Equal(t, 2, *semifinal.SlotA.ParticipantID)
	assert.Equal(t, 3, *semifinal.SlotB.ParticipantID)
}

func TestGenerateNeverPairsTwoByes(t *testing.T) {
	for n := 2; n <= 33; n++ {
		bracket := generate(t, testField(n))
		for p := 0; p < bracket.Size/2; p++ {
			node, err := bracket.Node(Coord{Round: 1, Position: p})
			require.NoError(t, err)
			assert.False(t, node.SlotA.Bye && node.SlotB.Bye, "n=%d position=%d", n, p)
		}
	}
}

func TestRoundHalving(t *testing.T) {
	bracket := generate(t, testField(16))
	assert.Equal(t, 8, bracket.MatchesInRound(1))
	assert.Equal(t, 4, bracket.MatchesInRound(2))
	assert.Equal(t, 2, bracket.MatchesInRound(3))
	assert.Equal(t, 1, bracket.MatchesInRound(4))
}

func TestFromNodesRoundTrip(t *testing.T) {
	bracket := generate(t, testField(6))

	rebuilt, err := FromNodes(bracket.Nodes)
	require.NoError(t, err)
	assert.Equal(t, bracket.Size, rebuilt.Size)
	assert.Equal(t, bracket.Rounds, rebuilt.Rounds)

	for r := 1; r <= bracket.Rounds; r++ {
		for p := 0; p < bracket.MatchesInRound(r); p++ {
			orig, err := bracket.Node(Coord{Round: r, Position: p})
			require.NoError(t, err)
			got, err := rebuilt.Node(Coord{Round: r, Position: p})
			require.NoError(t, err)
			assert.Equal(t, State(orig), State(got))
		}
	}
}

func TestFromNodesRejectsMalformedInput(t *testing.T) {
	_, err := FromNodes(nil)
	assert.ErrorIs(t, err, ErrMalformedBracket)

	// Шесть узлов не дают степень двойки.
	bracket := generate(t, testField(8))
	_, err = FromNodes(bracket.Nodes[:6])
	assert.ErrorIs(t, err, ErrMalformedBracket)

	// Дубликат координаты вместо полного покрытия.
	nodes := make([]*models.BracketNode, len(bracket.Nodes))
	copy(nodes, bracket.Nodes)
	nodes[1] = nodes[0]
	_, err = FromNodes(nodes)
	assert.ErrorIs(t, err, ErrMalformedBracket)
}
