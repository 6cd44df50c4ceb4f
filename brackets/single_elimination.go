package brackets

import (
	"context"
	"sort"

	"github.com/IlyaVolvo/spin-master-sub001/models"
)

// BracketSize returns the smallest power of two that fits n entrants,
// never less than 2.
func BracketSize(n int) int {
	size := 2
	for size < n {
		size <<= 1
	}
	return size
}

// TotalRounds returns log2 of a power-of-two bracket size.
func TotalRounds(size int) int {
	rounds := 0
	for s := size; s > 1; s >>= 1 {
		rounds++
	}
	return rounds
}

// NumSeeded returns how many entrants receive a displayed seed number:
// a quarter of the bracket rounded up to a power of two, clamped to
// [2, 32]. The rest of the field is placed without a seed.
func NumSeeded(size int) int {
	quarter := (size + 3) / 4
	seeded := 1
	for seeded < quarter {
		seeded <<= 1
	}
	if seeded < 2 {
		seeded = 2
	}
	if seeded > 32 {
		seeded = 32
	}
	return seeded
}

// seedOrder returns, slot by slot, which entry rank occupies each of the
// size round-1 slots under the standard interleaved template: rank 1
// meets rank size in its pair, rank 2 anchors the opposite half, and in
// general rank r is paired against rank size+1-r. Ranks beyond the real
// entrant count are byes, which is exactly what hands the top seeds
// their round-1 byes.
func seedOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		next := make([]int, 0, len(order)*2)
		complement := len(order)*2 + 1
		for _, rank := range order {
			next = append(next, rank, complement-rank)
		}
		order = next
	}
	return order
}

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

// Generate builds the full node skeleton for rounds 1..N. Entrants are
// ranked by entry rating descending (ties broken by lower participant
// id), the top NumSeeded of them get seed numbers, and byes fill the
// slots left over by the interleaved template. Bye nodes are decided on
// the spot with no match record and their winners pushed into round 2;
// every other node past round 1 starts undetermined.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) (*Structure, error) {
	participants := params.Participants
	n := len(participants)
	if n < 2 {
		return nil, ErrInvalidEntryCount
	}

	ranked := make([]*models.Participant, n)
	copy(ranked, participants)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].EntryRating != ranked[j].EntryRating {
			return ranked[i].EntryRating > ranked[j].EntryRating
		}
		return ranked[i].ID < ranked[j].ID
	})

	size := BracketSize(n)
	rounds := TotalRounds(size)
	seeded := NumSeeded(size)

	for i, p := range ranked {
		if i < seeded {
			seed := i + 1
			p.Seed = &seed
		} else {
			p.Seed = nil
		}
	}

	tournamentID := 0
	if params.Tournament != nil {
		tournamentID = params.Tournament.ID
	}

	nodes := make([]*models.BracketNode, 0, size-1)
	slots := seedOrder(size)

	slotFor := func(rank int) models.BracketSlot {
		if rank > n {
			return models.BracketSlot{Bye: true}
		}
		pid := ranked[rank-1].ID
		return models.BracketSlot{ParticipantID: &pid}
	}

	// Round 1 from the template; later rounds fully undetermined.
	for p := 0; p < size/2; p++ {
		nodes = append(nodes, &models.BracketNode{
			TournamentID: tournamentID,
			Round:        1,
			Position:     p,
			SlotA:        slotFor(slots[2*p]),
			SlotB:        slotFor(slots[2*p+1]),
		})
	}
	for r := 2; r <= rounds; r++ {
		for p := 0; p < size>>uint(r); p++ {
			nodes = append(nodes, &models.BracketNode{
				TournamentID: tournamentID,
				Round:        r,
				Position:     p,
			})
		}
	}

	bracket := &Bracket{Size: size, Rounds: rounds, Nodes: nodes}

	// Resolve byes. The template never pairs two byes: byes sit on ranks
	// above n, and the pair partner of any rank above size/2 is a rank
	// at most size-n, which is always a real entrant.
	for p := 0; p < size/2; p++ {
		node, _ := bracket.Node(Coord{Round: 1, Position: p})
		if !node.ByeNode() {
			continue
		}
		winner := node.SlotA.ParticipantID
		if winner == nil {
			winner = node.SlotB.ParticipantID
		}
		node.WinnerID = winner
		bracket.promote(Coord{Round: 1, Position: p}, *winner)
	}

	return &Structure{Bracket: bracket}, nil
}

// promote places a winner into its downstream slot.
func (b *Bracket) promote(c Coord, participantID int) {
	next, slot, ok := b.Downstream(c)
	if !ok {
		return
	}
	node, err := b.Node(next)
	if err != nil {
		return
	}
	pid := participantID
	if slot == 0 {
		node.SlotA = models.BracketSlot{ParticipantID: &pid}
	} else {
		node.SlotB = models.BracketSlot{ParticipantID: &pid}
	}
}
