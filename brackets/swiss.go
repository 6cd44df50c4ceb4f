package brackets

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/IlyaVolvo/spin-master-sub001/models"
)

// SwissRoundBounds returns the allowed round-count interval for a field
// of n players: at least ceil(log2(n))+1 so a clear winner can emerge,
// at most floor(n/2) so pairings do not run out.
func SwissRoundBounds(n int) (min, max int) {
	min = int(math.Ceil(math.Log2(float64(n)))) + 1
	max = n / 2
	return min, max
}

// ValidateSwissConfig checks the field size and configured round count.
// Swiss play requires an even field so every round pairs everyone.
func ValidateSwissConfig(n, rounds int) error {
	if n < 2 {
		return ErrInvalidEntryCount
	}
	if n%2 != 0 {
		return ErrOddEntryCount
	}
	min, max := SwissRoundBounds(n)
	if rounds < min || rounds > max {
		return fmt.Errorf("%w: %d rounds for %d players, allowed [%d, %d]", ErrInvalidRoundConfig, rounds, n, min, max)
	}
	return nil
}

// SwissPair is one pairing of a round, participant ids.
type SwissPair struct {
	P1 int `json:"p1"`
	P2 int `json:"p2"`
}

// PairSwissRound pairs the field for the next round. Players are
// bucketed by cumulative wins descending; inside a bucket they keep
// their seeding order (entry rating descending, id ascending). An odd
// bucket floats its last player into the bucket below. Pairing is
// greedy: the first unpaired player meets the highest-ordered opponent
// they have not already played, falling back to a rematch only when no
// fresh opponent remains in the tail.
//
// For the opening round there is no score history, so the ordered field
// is split in half and seed i meets seed i+n/2.
func PairSwissRound(participants []*models.Participant, played []*models.Match) ([]SwissPair, error) {
	n := len(participants)
	if n < 2 || n%2 != 0 {
		return nil, ErrOddEntryCount
	}

	seeded := make([]*models.Participant, n)
	copy(seeded, participants)
	sort.Slice(seeded, func(i, j int) bool {
		if seeded[i].EntryRating != seeded[j].EntryRating {
			return seeded[i].EntryRating > seeded[j].EntryRating
		}
		return seeded[i].ID < seeded[j].ID
	})

	wins := make(map[int]int, n)
	met := make(map[[2]int]bool)
	anyPlayed := false
	for _, m := range played {
		if m.P1ID == nil || m.P2ID == nil {
			continue
		}
		met[pairKey(*m.P1ID, *m.P2ID)] = true
		if m.Decided() {
			wins[*m.WinnerID]++
			anyPlayed = true
		}
	}

	if !anyPlayed {
		pairs := make([]SwissPair, 0, n/2)
		for i := 0; i < n/2; i++ {
			pairs = append(pairs, SwissPair{P1: seeded[i].ID, P2: seeded[i+n/2].ID})
		}
		return pairs, nil
	}

	// Score-group order: wins descending, seed order inside a group. A
	// flat sort gives exactly the bucket layout with downfloats falling
	// through to the next group.
	order := make([]*models.Participant, n)
	copy(order, seeded)
	seedPos := make(map[int]int, n)
	for i, p := range seeded {
		seedPos[p.ID] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if wins[order[i].ID] != wins[order[j].ID] {
			return wins[order[i].ID] > wins[order[j].ID]
		}
		return seedPos[order[i].ID] < seedPos[order[j].ID]
	})

	paired := make([]bool, n)
	pairs := make([]SwissPair, 0, n/2)
	for i := 0; i < n; i++ {
		if paired[i] {
			continue
		}
		opponent := -1
		for j := i + 1; j < n; j++ {
			if paired[j] {
				continue
			}
			if opponent == -1 {
				opponent = j // rematch fallback
			}
			if !met[pairKey(order[i].ID, order[j].ID)] {
				opponent = j
				break
			}
		}
		if opponent == -1 {
			return nil, fmt.Errorf("%w: no opponent left for participant %d", ErrInvalidState, order[i].ID)
		}
		paired[i] = true
		paired[opponent] = true
		pairs = append(pairs, SwissPair{P1: order[i].ID, P2: order[opponent].ID})
	}
	return pairs, nil
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

type SwissGenerator struct{}

func NewSwissGenerator() Generator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) Name() string {
	return "Swiss"
}

// Generate validates the swiss configuration and produces the opening
// round's fixtures. Later rounds are paired on demand with
// PairSwissRound once the previous round's results are in.
func (g *SwissGenerator) Generate(ctx context.Context, params GenerateParams) (*Structure, error) {
	participants := params.Participants
	tournament := params.Tournament

	rounds := 0
	if tournament != nil && tournament.SwissRounds != nil {
		rounds = *tournament.SwissRounds
	}
	if err := ValidateSwissConfig(len(participants), rounds); err != nil {
		return nil, err
	}

	pairs, err := PairSwissRound(participants, nil)
	if err != nil {
		return nil, err
	}

	tournamentID := 0
	if tournament != nil {
		tournamentID = tournament.ID
	}
	fixtures := make([]*models.Match, 0, len(pairs))
	for _, pair := range pairs {
		p1, p2 := pair.P1, pair.P2
		fixtures = append(fixtures, &models.Match{
			TournamentID: tournamentID,
			P1ID:         &p1,
			P2ID:         &p2,
			Status:       models.MatchScheduled,
			CreatedAt:    time.Now(),
		})
	}
	return &Structure{Fixtures: fixtures}, nil
}
