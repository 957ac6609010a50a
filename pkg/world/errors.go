package world

import "errors"

var (
	// ErrZoneNotFound is returned when a zone key does not exist in the
	// session's graph. An unknown zone is a caller bug, not a "no route"
	// outcome, so it surfaces as an error.
	ErrZoneNotFound = errors.New("zone not found")

	// ErrLocationNotFound is returned for unknown location keys.
	ErrLocationNotFound = errors.New("location not found")

	// ErrTransportNotFound is returned for unknown transport catalog keys.
	ErrTransportNotFound = errors.New("transport mode not found")
)
