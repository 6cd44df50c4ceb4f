package models

// BracketSlot — занятость позиции в узле сетки: конкретный участник,
// bye-заглушка, либо "не определено" (ждёт результата предыдущего раунда).
type BracketSlot struct {
	ParticipantID *int `json:"participant_id,omitempty" db:"-"`
	Bye           bool `json:"bye,omitempty" db:"-"`
}

// Filled — в слоте стоит реальный участник.
func (s BracketSlot) Filled() bool {
	return s.ParticipantID != nil
}

// Undetermined — слот ещё не заполнен и не является bye.
func (s BracketSlot) Undetermined() bool {
	return s.ParticipantID == nil && !s.Bye
}

// BracketNode — узел сетки на выбывание, адресуемый координатой
// (round, position). Узлы принадлежат турниру и хранятся плоским списком;
// связи между раундами вычисляются из координат, а не хранятся.
type BracketNode struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Round        int         `json:"round" db:"round"`
	Position     int         `json:"position" db:"position"`
	SlotA        BracketSlot `json:"slot_a"`
	SlotB        BracketSlot `json:"slot_b"`
	MatchID      *int        `json:"match_id,omitempty" db:"match_id"`
	WinnerID     *int        `json:"winner_id,omitempty" db:"winner_participant_id"`
}

// ByeNode — узел, решённый автоматически: один слот занят, второй — bye.
// Матч для такого узла не создаётся и рейтинг не меняется.
func (n *BracketNode) ByeNode() bool {
	return (n.SlotA.Bye && n.SlotB.Filled()) || (n.SlotB.Bye && n.SlotA.Filled())
}
