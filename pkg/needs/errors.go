package needs

import "errors"

var (
	// ErrUnknownNeed is returned when a need name is not in the catalog.
	ErrUnknownNeed = errors.New("unknown need")

	// ErrNotInitialized is returned when an entity's needs were never
	// seeded. Needs are created explicitly at entity creation; reads and
	// writes never fabricate default values for missing entities.
	ErrNotInitialized = errors.New("needs not initialized for entity")

	// ErrOutOfRange is returned for inputs outside their documented range.
	ErrOutOfRange = errors.New("out of range")
)
