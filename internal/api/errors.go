package api

import (
	"fmt"
	"sort"
	"strings"
)

// TransportError is a failure to talk to the backend at all: unreachable host,
// canceled request, or a response body that is not JSON.
type TransportError struct {
	Op  string
	Err error
}

func (e TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e TransportError) Unwrap() error { return e.Err }

// ValidationError is a server-reported field violation (400/422).
type ValidationError struct {
	Status  int
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ServerError is any other non-2xx response. Message comes from the body's
// "message" field when present.
type ServerError struct {
	Status  int
	Message string
}

func (e ServerError) Error() string {
	return e.Message
}

// BulkDeleteError reports a partially failed bulk delete. Deletes are not
// atomic: ids in Deleted are gone server-side even though the operation failed.
type BulkDeleteError struct {
	Deleted []string
	Failed  map[string]error
}

func (e *BulkDeleteError) Error() string {
	ids := e.FailedIDs()
	return fmt.Sprintf("bulk delete: %d of %d failed (%s)", len(ids), len(ids)+len(e.Deleted), strings.Join(ids, ", "))
}

// FailedIDs returns the failed ids, sorted.
func (e *BulkDeleteError) FailedIDs() []string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
