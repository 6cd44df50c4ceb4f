package models

// Standing — строка таблицы результатов, вычисляется из сыгранных матчей
// и не хранится в БД как источник истины.
type Standing struct {
	ParticipantID int  `json:"participant_id"`
	PlayerID      int  `json:"player_id"`
	Wins          int  `json:"wins"`
	Losses        int  `json:"losses"`
	SetsWon       int  `json:"sets_won"`
	SetsLost      int  `json:"sets_lost"`
	SetDiff       int  `json:"set_diff"`
	Rank          int  `json:"rank"`
}
