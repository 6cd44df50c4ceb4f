package brackets

import (
	"context"

	"github.com/IlyaVolvo/spin-master-sub001/models"
)

// GenerateParams carries everything a generator needs: the tournament
// (for format configuration) and its confirmed participants with frozen
// entry ratings.
type GenerateParams struct {
	Tournament   *models.Tournament
	Participants []*models.Participant
}

// Structure is the competition skeleton a generator produces. Elimination
// formats fill Bracket; round-robin and swiss formats fill Fixtures with
// scheduled, undecided matches.
type Structure struct {
	Bracket  *Bracket
	Fixtures []*models.Match
}

type Generator interface {
	Generate(ctx context.Context, params GenerateParams) (*Structure, error)

	Name() string
}
