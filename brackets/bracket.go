package brackets

import (
	"sort"

	"github.com/IlyaVolvo/spin-master-sub001/models"
)

// NodeState is the per-node lifecycle of the advancement state machine.
type NodeState string

const (
	// NodePending: fewer than two real occupants are known yet.
	NodePending NodeState = "PENDING"
	// NodeReady: both occupants known, no result recorded.
	NodeReady NodeState = "READY"
	// NodeDecided: a result is recorded (or the node is a resolved bye).
	NodeDecided NodeState = "DECIDED"
)

// Coord addresses a node inside an elimination bracket. Rounds are
// 1-based, positions inside a round are 0-based.
type Coord struct {
	Round    int `json:"round"`
	Position int `json:"position"`
}

// Bracket is the flat, coordinate-addressed arena of a single-elimination
// draw. Round r holds size/2^r nodes; the last round holds exactly one.
// No parent/child pointers are stored: the downstream node of (r, p) is
// always (r+1, p/2), slot p%2.
type Bracket struct {
	Size   int
	Rounds int
	Nodes  []*models.BracketNode
}

// roundOffset is the index of the first node of round r in Nodes.
func (b *Bracket) roundOffset(round int) int {
	// sum of size/2^k for k=1..round-1
	return b.Size - b.Size>>(uint(round)-1)
}

// MatchesInRound returns the node count of a round.
func (b *Bracket) MatchesInRound(round int) int {
	return b.Size >> uint(round)
}

// Node returns the node at the given coordinate, or ErrNodeNotFound.
func (b *Bracket) Node(c Coord) (*models.BracketNode, error) {
	if c.Round < 1 || c.Round > b.Rounds {
		return nil, ErrNodeNotFound
	}
	if c.Position < 0 || c.Position >= b.MatchesInRound(c.Round) {
		return nil, ErrNodeNotFound
	}
	return b.Nodes[b.roundOffset(c.Round)+c.Position], nil
}

// Final returns the single node of the last round.
func (b *Bracket) Final() *models.BracketNode {
	return b.Nodes[len(b.Nodes)-1]
}

// Downstream returns the coordinate fed by the winner of c and the slot
// index (0 for SlotA, 1 for SlotB) the winner occupies there. ok is
// false for the final.
func (b *Bracket) Downstream(c Coord) (next Coord, slot int, ok bool) {
	if c.Round >= b.Rounds {
		return Coord{}, 0, false
	}
	return Coord{Round: c.Round + 1, Position: c.Position / 2}, c.Position % 2, true
}

// State derives the advancement state of a node.
func State(n *models.BracketNode) NodeState {
	if n.WinnerID != nil {
		return NodeDecided
	}
	if n.SlotA.Filled() && n.SlotB.Filled() {
		return NodeReady
	}
	return NodePending
}

// IsComplete reports whether the whole bracket is decided, i.e. the final
// node carries a winner.
func (b *Bracket) IsComplete() bool {
	return b.Final().WinnerID != nil
}

// FromNodes rebuilds the arena from a flat node list, e.g. one loaded
// from storage. The list must contain size-1 nodes with exact round and
// position coverage; anything else is ErrMalformedBracket. The input
// order does not matter.
func FromNodes(nodes []*models.BracketNode) (*Bracket, error) {
	if len(nodes) == 0 {
		return nil, ErrMalformedBracket
	}
	sorted := make([]*models.BracketNode, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Round != sorted[j].Round {
			return sorted[i].Round < sorted[j].Round
		}
		return sorted[i].Position < sorted[j].Position
	})

	size := (len(nodes) + 1)
	if size&(size-1) != 0 {
		return nil, ErrMalformedBracket
	}
	rounds := 0
	for s := size; s > 1; s >>= 1 {
		rounds++
	}
	b := &Bracket{Size: size, Rounds: rounds, Nodes: sorted}

	idx := 0
	for r := 1; r <= rounds; r++ {
		for p := 0; p < b.MatchesInRound(r); p++ {
			n := sorted[idx]
			if n.Round != r || n.Position != p {
				return nil, ErrMalformedBracket
			}
			idx++
		}
	}
	return b, nil
}
