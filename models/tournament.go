package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusSoon         TournamentStatus = "soon"
	StatusRegistration TournamentStatus = "registration"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
)

// Tournament представляет турнир. Отменённый турнир переводится в completed
// с выставленным флагом Cancelled, история матчей при этом сохраняется.
type Tournament struct {
	ID              int              `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	Description     *string          `json:"description,omitempty" db:"description"`
	Format          FormatTag        `json:"format" db:"format"`
	OrganizerID     int              `json:"organizer_id" db:"organizer_id"`
	Status          TournamentStatus `json:"status" db:"status"`
	Cancelled       bool             `json:"cancelled" db:"cancelled"`
	RegDate         time.Time        `json:"reg_date" db:"reg_date"`
	StartDate       time.Time        `json:"start_date" db:"start_date"`
	EndDate         time.Time        `json:"end_date" db:"end_date"`
	Location        *string          `json:"location,omitempty" db:"location"`
	MaxParticipants int              `json:"max_participants" db:"max_participants"`
	SwissRounds     *int             `json:"swiss_rounds,omitempty" db:"swiss_rounds"`
	GroupCount      *int             `json:"group_count,omitempty" db:"group_count"`
	AdvancePerGroup *int             `json:"advance_per_group,omitempty" db:"advance_per_group"`
	ParentID        *int             `json:"parent_id,omitempty" db:"parent_id"`
	Stage           *TournamentStage `json:"stage,omitempty" db:"stage"`
	LogoKey         *string          `json:"-" db:"logo_key"`
	LogoURL         *string          `json:"logo_url,omitempty" db:"-"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`

	// Связанные сущности, загружаются сервисным слоем по необходимости.
	Participants []*Participant `json:"participants,omitempty" db:"-"`
	Matches      []*Match       `json:"matches,omitempty" db:"-"`
	Nodes        []*BracketNode `json:"bracket,omitempty" db:"-"`
	Children     []*Tournament  `json:"children,omitempty" db:"-"`
}

// MaxGroups — число предварительных групп составного турнира.
func (t *Tournament) MaxGroups() int {
	if t.GroupCount != nil && *t.GroupCount > 0 {
		return *t.GroupCount
	}
	return 2
}

// AdvanceCount — сколько игроков выходит из каждой группы в финал.
func (t *Tournament) AdvanceCount() int {
	if t.AdvancePerGroup != nil && *t.AdvancePerGroup > 0 {
		return *t.AdvancePerGroup
	}
	return 2
}

// DecidedMatchCount — число матчей с зафиксированным результатом.
func (t *Tournament) DecidedMatchCount() int {
	count := 0
	for _, m := range t.Matches {
		if m.Decided() {
			count++
		}
	}
	return count
}
