package stub

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every *ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("stub configuration error")

// ConfigurationError is returned while registering an expectation whose
// return spec is malformed. It is never deferred to call time.
type ConfigurationError struct {
	Op     string // Builder method that rejected the input
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("stub: %s: %s", e.Op, e.Reason)
}

// Is reports ErrConfiguration as a match.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
