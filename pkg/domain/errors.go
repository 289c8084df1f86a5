package domain

import (
	"errors"
	"fmt"
)

var (
	ErrClassificationUnavailable = errors.New("classification unavailable")
	ErrStoreUnavailable          = errors.New("store unavailable")
	ErrInvalidWindow             = errors.New("window must be a positive number of days")
	ErrInvalidPagination         = errors.New("limit must be positive and offset non-negative")
	ErrInvalidMinCount           = errors.New("min_count must be at least 1")
)

type storeError struct {
	Store string
	Cause error
}

func (e *storeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreUnavailable, e.Store, e.Cause)
}

func (e *storeError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Cause}
}

func NewStoreError(store string, cause error) error {
	return &storeError{
		Store: store,
		Cause: cause,
	}
}

func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
