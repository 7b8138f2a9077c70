package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies a failed provider round trip.
type FailureKind string

const (
	FailureNone      FailureKind = ""
	FailureNetwork   FailureKind = "network"
	FailureStatus    FailureKind = "status"
	FailureMalformed FailureKind = "malformed"
	FailureUnknown   FailureKind = "unknown" // provider panicked
)

// FallbackReply is used when the provider answers without any candidate text.
const FallbackReply = "I apologize, but I encountered an error. Please try again."

var failureMessages = map[FailureKind]string{
	FailureNetwork:   "I'm having trouble connecting right now. Please check your connection and try again.",
	FailureStatus:    "The assistant service returned an error (HTTP %d). Please try again.",
	FailureMalformed: "I received a response I couldn't read. Please try again.",
	FailureUnknown:   unknownFailureMessage,
}

const unknownFailureMessage = "Something went wrong while contacting the assistant. Please try again."

// ProviderError is returned by Provider implementations when a request fails.
type ProviderError struct {
	Kind       FailureKind
	StatusCode int
	Detail     string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := string(e.Kind) + " failure"
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ClassifyFailure maps any provider error to a ProviderError.
// Errors that are not ProviderErrors count as network failures.
func ClassifyFailure(err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return &ProviderError{Kind: FailureNetwork, Err: err}
}

// FailureMessage returns the user-facing text for a failure.
func FailureMessage(pe *ProviderError) string {
	tmpl, ok := failureMessages[pe.Kind]
	if !ok {
		return unknownFailureMessage
	}
	if pe.Kind == FailureStatus {
		return fmt.Sprintf(tmpl, pe.StatusCode)
	}
	return tmpl
}
