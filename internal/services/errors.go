package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

// ValidationError carries user-correctable messages keyed by request field.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// StateConflictError means a guarded write lost to a concurrent change or
// the invoice is not in a state that allows the operation.
type StateConflictError struct {
	Reason string
}

func (e *StateConflictError) Error() string {
	return "state conflict: " + e.Reason
}

var (
	ErrNotAwaitingQuote    = &StateConflictError{Reason: "Invoice is not in PENDING status"}
	ErrInvoiceStateChanged = &StateConflictError{Reason: "Invoice status changed, please try again"}
)

// UpstreamError wraps a provider failure that must reach the caller.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
