package brackets

import (
	"fmt"
	"sort"
	"time"

	"github.com/IlyaVolvo/spin-master-sub001/models"
	"github.com/IlyaVolvo/spin-master-sub001/rating"
)

// Result is a submitted outcome for a READY node. Exactly one of
// {set-score decision, single forfeit} must determine a winner.
type Result struct {
	SetsA    int
	SetsB    int
	ForfeitA bool
	ForfeitB bool
}

// Validate rejects double forfeits and equal non-forfeit scores. An
// equal score includes 0:0 — an undecided 0:0 is represented by the node
// staying READY, never by a recorded result.
func (r Result) Validate() error {
	if r.ForfeitA && r.ForfeitB {
		return fmt.Errorf("%w: both sides cannot forfeit", ErrInvalidResult)
	}
	if !r.ForfeitA && !r.ForfeitB && r.SetsA == r.SetsB {
		return fmt.Errorf("%w: equal score %d:%d decides nothing", ErrInvalidResult, r.SetsA, r.SetsB)
	}
	return nil
}

// aWon resolves the winning side: a forfeiting side loses regardless of
// sets, otherwise the higher score wins. Call Validate first.
func (r Result) aWon() bool {
	if r.ForfeitA {
		return false
	}
	if r.ForfeitB {
		return true
	}
	return r.SetsA > r.SetsB
}

// Elimination is the advancement state machine over a bracket arena. It
// owns the match records of decided nodes and the incremental rating
// chain: each decided match stores both players' pre-match ratings and
// signed deltas, and a player's rating entering round r is the outcome
// of their most recent decided match, or their entry rating before any.
//
// The engine is not safe for concurrent mutation; callers serialize
// writes per tournament.
type Elimination struct {
	Bracket *Bracket

	entry   map[int]int // participant id -> frozen entry rating
	results map[Coord]*models.Match
}

// NewElimination wraps a freshly generated bracket.
func NewElimination(b *Bracket, participants []*models.Participant) *Elimination {
	entry := make(map[int]int, len(participants))
	for _, p := range participants {
		entry[p.ID] = p.EntryRating
	}
	return &Elimination{
		Bracket: b,
		entry:   entry,
		results: make(map[Coord]*models.Match),
	}
}

// LoadElimination rebuilds the engine from flat persisted state, keyed
// purely by (round, position). This is the idempotent recomputation path:
// external viewers refetch and rebuild instead of consuming deltas.
func LoadElimination(nodes []*models.BracketNode, participants []*models.Participant, matches []*models.Match) (*Elimination, error) {
	b, err := FromNodes(nodes)
	if err != nil {
		return nil, err
	}
	e := NewElimination(b, participants)
	for _, m := range matches {
		if m.Round == nil || m.Position == nil {
			continue
		}
		e.results[Coord{Round: *m.Round, Position: *m.Position}] = m
	}
	return e, nil
}

// Match returns the recorded match of a decided node, nil for byes and
// undecided nodes.
func (e *Elimination) Match(c Coord) *models.Match {
	return e.results[c]
}

// Matches returns all recorded matches in round-then-position order, the
// required replay order of the rating ledger.
func (e *Elimination) Matches() []*models.Match {
	out := make([]*models.Match, 0, len(e.results))
	for _, m := range e.results {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if *out[i].Round != *out[j].Round {
			return *out[i].Round < *out[j].Round
		}
		return *out[i].Position < *out[j].Position
	})
	return out
}

// RatingBefore replays the participant's chain strictly before the given
// round and returns the rating they carry into it.
func (e *Elimination) RatingBefore(participantID, beforeRound int) int {
	current := e.entry[participantID]
	for _, m := range e.Matches() {
		if *m.Round >= beforeRound {
			break
		}
		if m.P1ID != nil && *m.P1ID == participantID && m.RatingBeforeA != nil && m.RatingDeltaA != nil {
			current = rating.Apply(*m.RatingBeforeA, *m.RatingDeltaA)
		}
		if m.P2ID != nil && *m.P2ID == participantID && m.RatingBeforeB != nil && m.RatingDeltaB != nil {
			current = rating.Apply(*m.RatingBeforeB, *m.RatingDeltaB)
		}
	}
	return current
}

// RecordResult applies a result to a READY node: validates, writes the
// match record with rating snapshots and deltas, decides the node and
// promotes the winner downstream. The application is all-or-nothing:
// every rejection happens before any state is touched.
func (e *Elimination) RecordResult(c Coord, res Result) (*models.Match, error) {
	node, err := e.Bracket.Node(c)
	if err != nil {
		return nil, err
	}
	if s := State(node); s != NodeReady {
		return nil, fmt.Errorf("%w: node R%dP%d is %s", ErrInvalidState, c.Round, c.Position, s)
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}

	p1 := *node.SlotA.ParticipantID
	p2 := *node.SlotB.ParticipantID
	beforeA := e.RatingBefore(p1, c.Round)
	beforeB := e.RatingBefore(p2, c.Round)
	aWon := res.aWon()
	deltaA, deltaB := rating.PointExchange(beforeA, beforeB, aWon)

	winner := p1
	if !aWon {
		winner = p2
	}

	now := time.Now()
	round, position := c.Round, c.Position
	match := &models.Match{
		TournamentID:  node.TournamentID,
		P1ID:          &p1,
		P2ID:          &p2,
		SetsA:         res.SetsA,
		SetsB:         res.SetsB,
		ForfeitA:      res.ForfeitA,
		ForfeitB:      res.ForfeitB,
		WinnerID:      &winner,
		Round:         &round,
		Position:      &position,
		RatingBeforeA: &beforeA,
		RatingBeforeB: &beforeB,
		RatingDeltaA:  &deltaA,
		RatingDeltaB:  &deltaB,
		Status:        models.MatchCompleted,
		PlayedAt:      &now,
	}

	e.results[c] = match
	node.WinnerID = &winner
	e.Bracket.promote(c, winner)
	return match, nil
}

// EditResult corrects an already-decided node. The rating computation is
// re-run against the *stored* rating-before snapshots — ratings are never
// re-derived retroactively from a changed history. If the correction
// flips the winner, every downstream node that derived state from the old
// result is invalidated recursively; the coordinates of invalidated nodes
// that had their own recorded matches removed are returned so callers can
// reverse the corresponding ledger entries.
func (e *Elimination) EditResult(c Coord, res Result) (*models.Match, []Coord, error) {
	node, err := e.Bracket.Node(c)
	if err != nil {
		return nil, nil, err
	}
	match := e.results[c]
	if match == nil || State(node) != NodeDecided {
		return nil, nil, fmt.Errorf("%w: node R%dP%d has no recorded result to edit", ErrInvalidState, c.Round, c.Position)
	}
	if err := res.Validate(); err != nil {
		return nil, nil, err
	}

	aWon := res.aWon()
	newWinner := *match.P1ID
	if !aWon {
		newWinner = *match.P2ID
	}
	winnerChanged := *match.WinnerID != newWinner

	deltaA, deltaB := rating.PointExchange(*match.RatingBeforeA, *match.RatingBeforeB, aWon)

	var removed []Coord
	if winnerChanged {
		removed = e.invalidateDownstream(c)
	}

	match.SetsA = res.SetsA
	match.SetsB = res.SetsB
	match.ForfeitA = res.ForfeitA
	match.ForfeitB = res.ForfeitB
	match.WinnerID = &newWinner
	match.RatingDeltaA = &deltaA
	match.RatingDeltaB = &deltaB
	node.WinnerID = &newWinner
	if winnerChanged {
		e.Bracket.promote(c, newWinner)
	}
	return match, removed, nil
}

// DeleteResult removes a recorded result: the node reverts to READY with
// its occupants intact, and the same downstream cascade as a winner flip
// runs first. Returned coordinates cover every node whose match record
// was removed, the edited node included.
func (e *Elimination) DeleteResult(c Coord) ([]Coord, error) {
	node, err := e.Bracket.Node(c)
	if err != nil {
		return nil, err
	}
	if e.results[c] == nil || State(node) != NodeDecided {
		return nil, fmt.Errorf("%w: node R%dP%d has no recorded result to delete", ErrInvalidState, c.Round, c.Position)
	}

	removed := e.invalidateDownstream(c)
	delete(e.results, c)
	node.WinnerID = nil
	return append([]Coord{c}, removed...), nil
}

// invalidateDownstream walks the winner's single path toward the final,
// clearing the slot the old winner occupied and undoing any result that
// was recorded on top of it. The path is linear: a node's winner feeds
// exactly one downstream slot.
func (e *Elimination) invalidateDownstream(c Coord) []Coord {
	var removed []Coord
	for {
		next, slot, ok := e.Bracket.Downstream(c)
		if !ok {
			return removed
		}
		node, err := e.Bracket.Node(next)
		if err != nil {
			return removed
		}
		if slot == 0 {
			node.SlotA = models.BracketSlot{}
		} else {
			node.SlotB = models.BracketSlot{}
		}
		if node.WinnerID == nil {
			return removed
		}
		// The downstream result was derived from the old winner: drop it
		// and keep walking.
		if e.results[next] != nil {
			delete(e.results, next)
			removed = append(removed, next)
		}
		node.WinnerID = nil
		c = next
	}
}
