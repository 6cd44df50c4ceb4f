package models

import "time"

// RatingChange — неизменяемая запись журнала рейтинга: рейтинг игрока до
// матча и подписанное изменение. Живой рейтинг игрока равен стартовому
// плюс сумма всех его изменений.
type RatingChange struct {
	ID           int       `json:"id" db:"id"`
	PlayerID     int       `json:"player_id" db:"player_id"`
	MatchID      int       `json:"match_id" db:"match_id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	RatingBefore int       `json:"rating_before" db:"rating_before"`
	Delta        int       `json:"delta" db:"delta"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
