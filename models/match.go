package models

import "time"

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchCompleted MatchStatus = "completed"
)

// Match — сыгранный или запланированный матч. Для матчей сетки Round/Position
// указывают на узел; для кругового и швейцарского форматов они пустые.
// RatingBefore*/RatingDelta* заполняются в момент записи результата и после
// этого неизменны: это строки журнала рейтинга, а не производное состояние.
type Match struct {
	ID             int         `json:"id" db:"id"`
	TournamentID   int         `json:"tournament_id" db:"tournament_id"`
	P1ID           *int        `json:"p1_id,omitempty" db:"p1_participant_id"`
	P2ID           *int        `json:"p2_id,omitempty" db:"p2_participant_id"`
	SetsA          int         `json:"sets_a" db:"sets_a"`
	SetsB          int         `json:"sets_b" db:"sets_b"`
	ForfeitA       bool        `json:"forfeit_a" db:"forfeit_a"`
	ForfeitB       bool        `json:"forfeit_b" db:"forfeit_b"`
	WinnerID       *int        `json:"winner_id,omitempty" db:"winner_participant_id"`
	Round          *int        `json:"round,omitempty" db:"round"`
	Position       *int        `json:"position,omitempty" db:"position"`
	RatingBeforeA  *int        `json:"rating_before_a,omitempty" db:"rating_before_a"`
	RatingBeforeB  *int        `json:"rating_before_b,omitempty" db:"rating_before_b"`
	RatingDeltaA   *int        `json:"rating_delta_a,omitempty" db:"rating_delta_a"`
	RatingDeltaB   *int        `json:"rating_delta_b,omitempty" db:"rating_delta_b"`
	Status         MatchStatus `json:"status" db:"status"`
	PlayedAt       *time.Time  `json:"played_at,omitempty" db:"played_at"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// Decided сообщает, зафиксирован ли у матча результат.
func (m *Match) Decided() bool {
	return m.WinnerID != nil
}
