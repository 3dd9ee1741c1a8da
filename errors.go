package morsel

import "fmt"

// ErrConfig reports invalid chunker configuration. Constructors return it
// immediately; configuration problems are never deferred to Chunk time.
type ErrConfig struct {
	Field   string
	Message string
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func configError(field, format string, args ...any) error {
	return &ErrConfig{Field: field, Message: fmt.Sprintf(format, args...)}
}
