package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// CategoryInUseError is returned by DeleteCategory when products still
// reference the category. Deleting would orphan them.
type CategoryInUseError struct {
	Products int
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("category has %d product(s) associated with it", e.Products)
}
