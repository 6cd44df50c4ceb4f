package brackets

import (
	"context"
	"sort"
	"time"

	"github.com/IlyaVolvo/spin-master-sub001/models"
)

// ExpectedRoundRobinMatches is the fixture count for n entrants, every
// unordered pair exactly once.
func ExpectedRoundRobinMatches(n int) int {
	return n * (n - 1) / 2
}

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

// Generate produces the full fixture list: each participant meets every
// other participant exactly once. Fixtures are created scheduled
// and undecided; results land on them later through the match service.
func (g *RoundRobinGenerator) Generate(ctx context.Context, params GenerateParams) (*Structure, error) {
	participants := params.Participants
	if len(participants) < 2 {
		return nil, ErrInvalidEntryCount
	}

	tournamentID := 0
	if params.Tournament != nil {
		tournamentID = params.Tournament.ID
	}

	ordered := make([]*models.Participant, len(participants))
	copy(ordered, participants)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ID < ordered[j].ID
	})

	fixtures := make([]*models.Match, 0, ExpectedRoundRobinMatches(len(ordered)))
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			p1 := ordered[i].ID
			p2 := ordered[j].ID
			fixtures = append(fixtures, &models.Match{
				TournamentID: tournamentID,
				P1ID:         &p1,
				P2ID:         &p2,
				Status:       models.MatchScheduled,
				CreatedAt:    time.Now(),
			})
		}
	}
	return &Structure{Fixtures: fixtures}, nil
}
