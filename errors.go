package thredds

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceRequired is returned when a dataset has to be resolved but no
	// visited catalog declared an NcML metadata service.
	ErrServiceRequired = errors.New("ncml service endpoint required")

	// ErrNotCached is returned by a cache-only provider on a miss.
	ErrNotCached = errors.New("not cached")

	// ErrIndexSaved is returned when Save is called on an index that was already written.
	ErrIndexSaved = errors.New("index already saved")
)

// ProviderError reports a cache or network failure for a single URI.
type ProviderError struct {
	URI string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.URI, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// MalformedError reports a document that is missing a required element or attribute.
type MalformedError struct {
	Doc    string // "catalog" or "ncml"
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s: %s", e.Doc, e.Reason)
}

// MetaInformationMismatchError means a configured coordinate is not a
// dimension of the first dataset added to an index.
type MetaInformationMismatchError struct {
	Dimension string
}

func (e *MetaInformationMismatchError) Error() string {
	return "no such dimension to retrieve: " + e.Dimension
}
