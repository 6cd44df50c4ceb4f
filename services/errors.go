package services

import "errors"

// Общие ошибки сервисного слоя, маппятся на HTTP-статусы в handlers.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed    = errors.New("validation failed")
	ErrPasswordTooShort    = errors.New("password is too short")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrRegistrationNotOpen = errors.New("tournament registration is not open")
	ErrTournamentFull      = errors.New("tournament registration is full")
	ErrTournamentNotActive = errors.New("tournament is not accepting results")
	ErrDeleteNotAllowed    = errors.New("tournament has recorded results, cancel instead of delete")
	ErrNotCompound         = errors.New("tournament is not a compound preliminary+final format")
	ErrChildrenIncomplete  = errors.New("preliminary stages are not complete yet")

	// Ошибки конфликтов
	ErrPlayerEmailConflict  = errors.New("email address is already in use")
	ErrRegistrationConflict = errors.New("player is already registered for this tournament")
	ErrTournamentConflict   = errors.New("tournament name already exists")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrInvalidInviteToken   = errors.New("invite token is missing or does not match")

	// Ошибки, специфичные для сущностей
	ErrPlayerNotFound      = errors.New("player not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant registration not found")
	ErrMatchNotFound       = errors.New("match not found")

	// Ошибки жизненного цикла турнира
	ErrTournamentInvalidRegDate   = errors.New("tournament registration date must be before the start date")
	ErrTournamentInvalidDateRange = errors.New("tournament end date must be after start date")
	ErrTournamentInvalidCapacity  = errors.New("tournament max participants must be positive")
	ErrTournamentInvalidStatus    = errors.New("invalid tournament status transition")
)
