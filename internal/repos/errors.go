package repos

import (
	"errors"
	"fmt"
)

// ErrStorageUnavailable marks a backing-store failure. The operation made no
// durable change; callers may retry once the store is reachable again.
var ErrStorageUnavailable = errors.New("storage unavailable")

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
