package models

// FormatTag определяет закрытый набор поддерживаемых форматов турнира.
// Поведение формата (ожидаемое число матчей, предикат завершения и т.д.)
// разрешается через реестр в пакете formats, а не через ветвление по типу.
type FormatTag string

const (
	FormatRoundRobin            FormatTag = "ROUND_ROBIN"
	FormatPlayoff               FormatTag = "PLAYOFF"
	FormatSwiss                 FormatTag = "SWISS"
	FormatPrelimFinalRoundRobin FormatTag = "PRELIMINARY_WITH_FINAL_ROUND_ROBIN"
	FormatPrelimFinalPlayoff    FormatTag = "PRELIMINARY_WITH_FINAL_PLAYOFF"
)

// Compound — формат-родитель, состоящий из дочерних турниров.
func (t FormatTag) Compound() bool {
	return t == FormatPrelimFinalRoundRobin || t == FormatPrelimFinalPlayoff
}

// TournamentStage помечает роль дочернего турнира внутри составного.
type TournamentStage string

const (
	StagePreliminary TournamentStage = "preliminary"
	StageFinal       TournamentStage = "final"
)
