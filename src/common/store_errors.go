package common

import (
	"errors"
	"fmt"
)

// StoreErrType enumerates the failure kinds of the event archive and of the
// rolling index.
type StoreErrType uint32

const (
	// KeyNotFound ...
	KeyNotFound StoreErrType = iota
	// Empty ...
	Empty
	// Closed ...
	Closed
	// TooLate ...
	TooLate
	// SkippedIndex ...
	SkippedIndex
)

// StoreErr ...
type StoreErr struct {
	dataType string
	errType  StoreErrType
	key      string
}

// NewStoreErr ...
func NewStoreErr(dataType string, errType StoreErrType, key string) StoreErr {
	return StoreErr{
		dataType: dataType,
		errType:  errType,
		key:      key,
	}
}

// Error ...
func (e StoreErr) Error() string {
	m := ""
	switch e.errType {
	case KeyNotFound:
		m = "Not Found"
	case Empty:
		m = "Empty"
	case Closed:
		m = "Closed"
	case TooLate:
		m = "Too Late"
	case SkippedIndex:
		m = "Skipped Index"
	}

	return fmt.Sprintf("%s, %s, %s", e.dataType, e.key, m)
}

// IsStore checks that an error is of type StoreErr and that it corresponds to
// a specific StoreErrType.
func IsStore(err error, t StoreErrType) bool {
	var storeErr StoreErr
	return errors.As(err, &storeErr) && storeErr.errType == t
}
