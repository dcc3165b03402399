package store

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable wraps a transient failure that survived the whole retry
// budget. Callers match it with errors.Is.
var ErrStoreUnavailable = errors.New("store unavailable")

// TransientError marks a backend failure worth retrying (rate limiting,
// 5xx responses). Backends classify errors exactly once, at the lowest
// layer; everything not wrapped in TransientError is fatal and propagates
// immediately.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient store error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as retryable. A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
