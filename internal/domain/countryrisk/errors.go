package countryrisk

import "errors"

var (
	// ErrEmptySnapshot is returned by a source that produced no entries;
	// the current list is kept.
	ErrEmptySnapshot = errors.New("country list source returned no entries")
)
