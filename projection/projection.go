package projection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// A Projector folds process engine events into a queryable projection.
type Projector interface {
	// Project applies a batch of events in batch order.
	//
	// Each event is applied atomically: a failing event is rolled back, while the remaining events of the batch are still applied.
	// Events with an unrecognized type are ignored.
	// The returned error joins the errors of all failed events.
	Project(context.Context, []Event) (ProjectResult, error)

	// FindById finds a single entity of a specific kind.
	// If the entity does not exist, an error of type [ErrorNotFound] is returned.
	FindById(context.Context, Kind, string) (any, error)

	// Query performs an entity query, using the default query options.
	// The type of the criteria determines the kind of entities, returned by the query.
	Query(context.Context, any) ([]any, error)

	// QueryWithOptions performs an entity query, using specific query options.
	QueryWithOptions(context.Context, any, QueryOptions) ([]any, error)

	// DeleteAll deletes all entities of a specific kind.
	DeleteAll(context.Context, Kind) error
}

// An AuditLog records every consumed event verbatim, sequenced within its batch.
type AuditLog interface {
	// Append appends a batch of events atomically.
	//
	// Events are numbered 0..n-1 in batch order and share a message ID, which is generated per batch.
	Append(context.Context, []Event) ([]AuditEvent, error)

	// Purge deletes audit events, which have been appended before a specific time.
	Purge(context.Context, time.Time) (int, error)
}

// A Store combines a projector with an independent audit log.
type Store interface {
	Projector
	AuditLog

	// Shutdown shuts the store down.
	Shutdown()
}

// Find translates a filter map into criteria of the given kind and performs the query.
func Find(ctx context.Context, p Projector, kind Kind, filters map[string]string, options QueryOptions) ([]any, error) {
	criteria, err := NewCriteria(kind, filters)
	if err != nil {
		return nil, err
	}
	return p.QueryWithOptions(ctx, criteria, options)
}

// Options are common configuration options that are shared between store implementations.
type Options struct {
	DefaultQueryLimit   int   // Default limit for queries, executed without an explicit limit.
	DefinitionCacheSize int   // Maximum number of process definitions, kept in memory.
	NodeId              int64 // Node ID, used to generate IDs of activities, sequence flows, variables and audit events.
	OrderBatches        bool  // Determines if a batch is sorted by event rank, before it is projected.

	OnEventFailure func(Event, error) // Called when an event could not be projected.
}

func (o Options) Validate() error {
	if o.DefaultQueryLimit < 1 {
		return errors.New("default query limit must be greater than or equal to 1")
	}
	if o.DefinitionCacheSize < 1 {
		return errors.New("definition cache size must be greater than or equal to 1")
	}
	if o.NodeId < 0 || o.NodeId > 1023 {
		return errors.New("node ID must be between 0 and 1023")
	}
	return nil
}

// QueryOptions are used to limit or offset query results.
// The zero value does not affect a query.
type QueryOptions struct {
	// Limit specifies the maximum number of results to return.
	// If Limit <= 0, the option's DefaultQueryLimit is applied.
	Limit int
	// Offset specifies the number of results to skip, before returning any result.
	// If Offset <= 0, no results are skipped.
	Offset int
}

// ProjectResult summarizes the outcome of a projected batch.
type ProjectResult struct {
	Applied int            `json:"applied"`          // Number of applied events.
	Ignored int            `json:"ignored"`          // Number of events with an unrecognized type.
	Failed  []EventFailure `json:"failed,omitempty"` // Events, which could not be applied.
}

func (r ProjectResult) HasFailures() bool {
	return len(r.Failed) != 0
}

// EventFailure describes an event, which could not be applied.
type EventFailure struct {
	EventId   string    `json:"eventId"`
	EventType string    `json:"eventType"`
	ErrorType ErrorType `json:"errorType,omitempty"`
	Error     string    `json:"error"`
}

func NewEventFailure(event Event, err error) EventFailure {
	failure := EventFailure{
		EventId:   event.Id,
		EventType: event.EventType,
		Error:     err.Error(),
	}

	var projectionErr Error
	if errors.As(err, &projectionErr) {
		failure.ErrorType = projectionErr.Type
	}

	return failure
}

type Error struct {
	Type   ErrorType
	Title  string
	Detail string
	Causes []ErrorCause
}

func (e Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s: %s: %s", e.Type, e.Title, e.Detail))

	for _, cause := range e.Causes {
		sb.WriteRune('\n')
		sb.WriteString(cause.String())
	}

	return sb.String()
}

// IsErrorType reports whether err is, or wraps, an [Error] of a specific type.
func IsErrorType(err error, errorType ErrorType) bool {
	var projectionErr Error
	if errors.As(err, &projectionErr) {
		return projectionErr.Type == errorType
	}
	return false
}

type ErrorType int

const (
	ErrorBug ErrorType = iota + 1
	ErrorConfiguration
	ErrorConflict
	ErrorNotFound
	ErrorQuery
	ErrorValidation
)

func MapErrorType(s string) ErrorType {
	switch s {
	case "BUG":
		return ErrorBug
	case "CONFIGURATION":
		return ErrorConfiguration
	case "CONFLICT":
		return ErrorConflict
	case "NOT_FOUND":
		return ErrorNotFound
	case "QUERY":
		return ErrorQuery
	case "VALIDATION":
		return ErrorValidation
	default:
		return 0
	}
}

func (v ErrorType) MarshalJSON() ([]byte, error) {
	if v == 0 {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", v.String())), nil
}

func (v ErrorType) String() string {
	switch v {
	case ErrorBug:
		return "BUG"
	case ErrorConfiguration:
		return "CONFIGURATION"
	case ErrorConflict:
		return "CONFLICT"
	case ErrorNotFound:
		return "NOT_FOUND"
	case ErrorQuery:
		return "QUERY"
	case ErrorValidation:
		return "VALIDATION"
	default:
		return "UNKNOWN"
	}
}

func (v *ErrorType) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		*v = MapErrorType(s[1 : len(s)-1])
	}
	return nil
}

// A cause of a query or validation [Error] like an unknown filter or an invalid filter value.
type ErrorCause struct {
	Pointer string // A pointer, locating the invalid filter or field.
	Type    string // Type indicator.
	Detail  string // Human-readable, detailed information about the cause.
}

func (e ErrorCause) String() string {
	return fmt.Sprintf("%s: %s: %s", e.Type, e.Pointer, e.Detail)
}
