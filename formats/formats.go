// Package formats maps a tournament format tag to its behavior. External
// layers (HTTP handlers, the tournament service, persistence) resolve a
// format through Lookup instead of branching on the tag, so adding a
// format means registering one more Handler.
package formats

import (
	"context"
	"errors"
	"fmt"

	"github.com/IlyaVolvo/spin-master-sub001/brackets"
	"github.com/IlyaVolvo/spin-master-sub001/models"
)

var ErrUnsupportedFormat = errors.New("unsupported tournament format")

// Handler is the closed behavior set every format supplies.
type Handler interface {
	Tag() models.FormatTag

	// Build produces the competition structure for confirmed participants.
	// Compound formats do not build directly; their children do.
	Build(ctx context.Context, params brackets.GenerateParams) (*brackets.Structure, error)

	// ExpectedMatchCount is the total number of decided matches a full
	// run of the tournament produces.
	ExpectedMatchCount(t *models.Tournament) int

	// IsComplete is the completion predicate consulted when the
	// tournament tries to transition into completed.
	IsComplete(t *models.Tournament) bool

	// CanDelete reports whether deleting the tournament outright is
	// allowed; once results exist, formats require cancel instead so the
	// rating ledger survives.
	CanDelete(t *models.Tournament) bool
}

var registry = map[models.FormatTag]Handler{}

func register(h Handler) {
	registry[h.Tag()] = h
}

func init() {
	register(&roundRobinFormat{})
	register(&playoffFormat{})
	register(&swissFormat{})
	register(&compoundFormat{tag: models.FormatPrelimFinalRoundRobin})
	register(&compoundFormat{tag: models.FormatPrelimFinalPlayoff})
}

// Lookup resolves a tag. Unknown tags fail loudly; nothing ever falls
// back to a default format silently.
func Lookup(tag models.FormatTag) (Handler, error) {
	h, ok := registry[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, tag)
	}
	return h, nil
}

// noDecidedMatches is the default CanDelete rule.
func noDecidedMatches(t *models.Tournament) bool {
	return t.DecidedMatchCount() == 0
}

type roundRobinFormat struct{}

func (f *roundRobinFormat) Tag() models.FormatTag { return models.FormatRoundRobin }

func (f *roundRobinFormat) Build(ctx context.Context, params brackets.GenerateParams) (*brackets.Structure, error) {
	return brackets.NewRoundRobinGenerator().Generate(ctx, params)
}

func (f *roundRobinFormat) ExpectedMatchCount(t *models.Tournament) int {
	return brackets.ExpectedRoundRobinMatches(len(t.Participants))
}

func (f *roundRobinFormat) IsComplete(t *models.Tournament) bool {
	return t.DecidedMatchCount() >= f.ExpectedMatchCount(t)
}

func (f *roundRobinFormat) CanDelete(t *models.Tournament) bool { return noDecidedMatches(t) }

type playoffFormat struct{}

func (f *playoffFormat) Tag() models.FormatTag { return models.FormatPlayoff }

func (f *playoffFormat) Build(ctx context.Context, params brackets.GenerateParams) (*brackets.Structure, error) {
	return brackets.NewSingleEliminationGenerator().Generate(ctx, params)
}

// ExpectedMatchCount for a playoff counts playable nodes: size-1 total
// minus round-1 byes, which decide themselves without a match.
func (f *playoffFormat) ExpectedMatchCount(t *models.Tournament) int {
	n := len(t.Participants)
	if n < 2 {
		return 0
	}
	size := brackets.BracketSize(n)
	return size - 1 - (size - n)
}

// IsComplete for elimination is not a match-count check: the bracket is
// done exactly when the final node is decided.
func (f *playoffFormat) IsComplete(t *models.Tournament) bool {
	b, err := brackets.FromNodes(t.Nodes)
	if err != nil {
		return false
	}
	return b.IsComplete()
}

func (f *playoffFormat) CanDelete(t *models.Tournament) bool { return noDecidedMatches(t) }

type swissFormat struct{}

func (f *swissFormat) Tag() models.FormatTag { return models.FormatSwiss }

func (f *swissFormat) Build(ctx context.Context, params brackets.GenerateParams) (*brackets.Structure, error) {
	return brackets.NewSwissGenerator().Generate(ctx, params)
}

func (f *swissFormat) ExpectedMatchCount(t *models.Tournament) int {
	if t.SwissRounds == nil {
		return 0
	}
	return *t.SwissRounds * len(t.Participants) / 2
}

func (f *swissFormat) IsComplete(t *models.Tournament) bool {
	expected := f.ExpectedMatchCount(t)
	return expected > 0 && t.DecidedMatchCount() >= expected
}

func (f *swissFormat) CanDelete(t *models.Tournament) bool { return noDecidedMatches(t) }

// compoundFormat is a preliminary + final parent. The parent owns no
// matches of its own: its children are independent tournaments and the
// parent completes when all of them do.
type compoundFormat struct {
	tag models.FormatTag
}

func (f *compoundFormat) Tag() models.FormatTag { return f.tag }

func (f *compoundFormat) Build(ctx context.Context, params brackets.GenerateParams) (*brackets.Structure, error) {
	// Children are built individually through their own handlers.
	return &brackets.Structure{}, nil
}

func (f *compoundFormat) ExpectedMatchCount(t *models.Tournament) int {
	total := 0
	for _, child := range t.Children {
		h, err := Lookup(child.Format)
		if err != nil {
			continue
		}
		total += h.ExpectedMatchCount(child)
	}
	return total
}

func (f *compoundFormat) IsComplete(t *models.Tournament) bool {
	if len(t.Children) == 0 {
		return false
	}
	for _, child := range t.Children {
		if child.Status != models.StatusCompleted {
			return false
		}
	}
	return true
}

func (f *compoundFormat) CanDelete(t *models.Tournament) bool {
	for _, child := range t.Children {
		h, err := Lookup(child.Format)
		if err != nil || !h.CanDelete(child) {
			return false
		}
	}
	return true
}

// FinalStageTag returns the format of the final stage a compound parent
// feeds from its preliminary standings.
func FinalStageTag(parent models.FormatTag) (models.FormatTag, error) {
	switch parent {
	case models.FormatPrelimFinalRoundRobin:
		return models.FormatRoundRobin, nil
	case models.FormatPrelimFinalPlayoff:
		return models.FormatPlayoff, nil
	default:
		return "", fmt.Errorf("%w: %q is not a compound format", ErrUnsupportedFormat, parent)
	}
}
