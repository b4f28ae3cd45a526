package homework

import (
	"errors"
	"fmt"
)

// Kind classifies a failed review-status cycle.
type Kind string

const (
	KindNone             Kind = ""
	KindTransport        Kind = "transport"
	KindUnexpectedStatus Kind = "unexpected_status"
	KindDecode           Kind = "decode"
	KindSchema           Kind = "schema"
	KindMissingField     Kind = "missing_field"
	KindUnknownStatus    Kind = "unknown_status"
	KindDelivery         Kind = "delivery"
	KindInternal         Kind = "internal"
)

// kinded is implemented by every error in the review-status taxonomy.
type kinded interface {
	Kind() Kind
}

// KindOf returns the Kind of the first error in err's chain that carries one.
// Errors outside the taxonomy map to KindInternal; nil maps to KindNone.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}

// TransportError indicates the poll request could not complete.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("review API request failed; %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) Kind() Kind    { return KindTransport }

// UnexpectedStatusError indicates the API answered with a non-200 status.
type UnexpectedStatusError struct {
	StatusCode int
	Snippet    string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("review API returned status %d: %s", e.StatusCode, e.Snippet)
}

func (e *UnexpectedStatusError) Kind() Kind { return KindUnexpectedStatus }

// DecodeError indicates the response body is not valid JSON.
type DecodeError struct {
	Snippet string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("review API returned invalid JSON (%q); %v", e.Snippet, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
func (e *DecodeError) Kind() Kind    { return KindDecode }

// SchemaError indicates a decoded response does not have the expected shape.
type SchemaError struct {
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid response schema at %s: %s", e.Field, e.Message)
}

func (e *SchemaError) Kind() Kind { return KindSchema }

// MissingFieldError indicates a submission record lacks a required field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("submission record has no %q field", e.Field)
}

func (e *MissingFieldError) Kind() Kind { return KindMissingField }

// UnknownStatusError indicates a submission status outside the known verdicts.
type UnknownStatusError struct {
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown review status %q", e.Status)
}

func (e *UnknownStatusError) Kind() Kind { return KindUnknownStatus }

// DeliveryError indicates a notification could not be delivered.
// Message is the undelivered text so it can be retried on a later cycle.
type DeliveryError struct {
	Destination string
	Message     string
	Err         error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver notification to %s; %v", e.Destination, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
func (e *DeliveryError) Kind() Kind    { return KindDelivery }
