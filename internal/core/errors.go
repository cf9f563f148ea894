package core

import (
	"errors"
	"fmt"

	"inside-notes/pkg"
)

var (
	// ErrNoFragments rejects finalize and draft saves on an empty fragment list.
	ErrNoFragments = errors.New("no fragments captured")
	// ErrFragmentIndex is returned when deleting a position that does not exist.
	ErrFragmentIndex = errors.New("fragment index out of range")
	// ErrBusy is returned while a capability call of the workflow is in flight.
	ErrBusy = errors.New("workflow busy")
	// ErrInvalidState is returned when an action is not allowed in the current state.
	ErrInvalidState = errors.New("action not allowed in current state")
	// ErrNoPrompt is returned when finalize runs with no prompt template configured.
	ErrNoPrompt = errors.New("no prompt template configured")
	// ErrUnknownPrompt is returned when the chosen template name does not exist.
	ErrUnknownPrompt = errors.New("unknown prompt template")
	// ErrDeviceNotFound means no audio input is available.
	ErrDeviceNotFound = errors.New("audio input not found")
	// ErrPermissionDenied covers every other audio acquisition failure.
	ErrPermissionDenied = errors.New("audio input access denied")
	// ErrEmptyTranscription is returned when transcription yields no text.
	ErrEmptyTranscription = errors.New("transcription returned empty")
)

// ValidationError reports a missing or malformed input field.  It is raised
// before any external call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ConnectivityError wraps a persistence or health failure.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *ConnectivityError) Unwrap() error { return e.Err }

// CapabilityError wraps a failed rewrite, transcribe or summarize call.
// Message is meant for the operator.
type CapabilityError struct {
	Op      string
	Message string
	Err     error
}

func (e *CapabilityError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string { return e.Resource + " " + e.ID + " not found" }
func (e *NotFoundError) Unwrap() error { return pkg.ErrNotFound }
