package models

import "time"

// PlayerRole определяет роли игроков, соответствующие ENUM в БД.
type PlayerRole string

const (
	RolePlayer    PlayerRole = "player"
	RoleOrganizer PlayerRole = "organizer"
)

// Player представляет члена клуба. Rating — текущий "живой" рейтинг,
// равный стартовому рейтингу плюс сумма всех изменений из rating_changes.
type Player struct {
	ID           int        `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	Nickname     *string    `json:"nickname,omitempty" db:"nickname"`
	Role         PlayerRole `json:"role" db:"role"`
	Rating       int        `json:"rating" db:"rating"`
	AvatarKey    *string    `json:"-" db:"avatar_key"`
	AvatarURL    *string    `json:"avatar_url,omitempty" db:"-"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// FullName возвращает отображаемое имя игрока.
func (p *Player) FullName() string {
	if p.Nickname != nil && *p.Nickname != "" {
		return *p.Nickname
	}
	return p.FirstName + " " + p.LastName
}
