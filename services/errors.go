package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	ErrValidationFailed = errors.New("validation failed")

	// Ошибки, специфичные для сущностей
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrGameNotFound       = errors.New("game not found")
	ErrResultNotFound     = errors.New("game result not found")

	// Протокол исправления опубликованного результата
	ErrProtocolInterrupted = errors.New("an amendment of this result was interrupted, resume it first")
	ErrNothingToResume     = errors.New("result has no interrupted amendment")
)
