package replay

import (
	"errors"
	"fmt"
)

var (
	ErrMissingShard      = errors.New("missing shard")
	ErrMissingStep       = errors.New("missing step")
	ErrMalformedMetadata = errors.New("malformed metadata")
	ErrMalformedShard    = errors.New("malformed shard")
	ErrStepOutOfRange    = errors.New("step out of range")
)

// LoadError describes why a replay directory could not be loaded.
// Kind is one of the Err* sentinels above, so callers can use errors.Is.
type LoadError struct {
	Kind error
	Path string
	Step int
	Err  error
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case ErrMissingStep:
		return fmt.Sprintf("load replay: %v: step %d not in %s", e.Kind, e.Step, e.Path)
	case ErrMissingShard:
		return fmt.Sprintf("load replay: %v: %s (step %d)", e.Kind, e.Path, e.Step)
	}
	if e.Err != nil {
		return fmt.Sprintf("load replay: %v: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("load replay: %v: %s", e.Kind, e.Path)
}

func (e *LoadError) Is(target error) bool {
	return target == e.Kind
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
