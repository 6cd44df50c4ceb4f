package models

import "time"

type ParticipantStatus string

const (
	ParticipantApplied   ParticipantStatus = "applied"
	ParticipantConfirmed ParticipantStatus = "confirmed"
	ParticipantWithdrawn ParticipantStatus = "withdrawn"
)

// Participant — заявка игрока на турнир. EntryRating фиксируется в момент
// подтверждения и больше не меняется, даже если живой рейтинг игрока растёт.
type Participant struct {
	ID           int               `json:"id" db:"id"`
	PlayerID     int               `json:"player_id" db:"player_id"`
	TournamentID int               `json:"tournament_id" db:"tournament_id"`
	EntryRating  int               `json:"entry_rating" db:"entry_rating"`
	Seed         *int              `json:"seed,omitempty" db:"seed"`
	Status       ParticipantStatus `json:"status" db:"status"`
	InviteToken  *string           `json:"-" db:"invite_token"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`

	Player *Player `json:"player,omitempty" db:"-"`
}
