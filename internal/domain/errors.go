package domain

import "errors"

var (
	// ErrParticipantNotFound is returned when a connection acts before joining.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrNoParticipants is returned when a session is started with nobody joined.
	ErrNoParticipants = errors.New("cannot start a session without participants")
	// ErrSessionRunning is returned when a session is started twice.
	ErrSessionRunning = errors.New("session already running")
	// ErrCatalogNotFound indicates the level catalog could not be loaded.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrInvalidCatalog wraps every catalog validation failure.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrUnknownLevelType indicates a level entry with an unsupported type discriminator.
	ErrUnknownLevelType = errors.New("unknown level type")
)
