package session

import (
	"errors"
	"fmt"
)

// Failure classes of the session store. Callers branch with errors.Is.
var (
	// ErrBackend marks durable-storage failures (unreachable database,
	// failed statement).
	ErrBackend = errors.New("session backend failure")

	// ErrEncode marks payloads or timestamps that cannot be represented
	// in the store's native format.
	ErrEncode = errors.New("session encode failure")

	// ErrDecode marks stored records that cannot be read back.
	ErrDecode = errors.New("session decode failure")
)

func backendError(err error) error {
	return fmt.Errorf("%w: %v", ErrBackend, err)
}

func encodeError(err error) error {
	return fmt.Errorf("%w: %v", ErrEncode, err)
}

func decodeError(err error) error {
	return fmt.Errorf("%w: %v", ErrDecode, err)
}
