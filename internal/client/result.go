package client

import (
	"encoding/json"
	"fmt"
)

// Result is the uniform outcome of Get, Put, Post and Delete: either the
// untouched JSON payload of a 2xx response or an error message. The error
// message is the raw response body for HTTP failures and a local
// description for transport failures.
//
// Callers tell success from failure only by Error being empty, so backend
// payloads must not carry a top-level "error" key of their own.
type Result struct {
	Payload json.RawMessage
	Error   string
}

// Failure builds a failed Result.
func Failure(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Error == ""
}

// Err returns the failure as an error value, or nil on success.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &ResultError{Message: r.Error}
}

// Decode unmarshals the payload into v. Failed results return their error.
func (r Result) Decode(v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if len(r.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// MarshalJSON renders the payload as-is on success and {"error": msg} on
// failure.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.OK() {
		return json.Marshal(map[string]string{"error": r.Error})
	}
	if len(r.Payload) == 0 {
		return []byte("null"), nil
	}
	return r.Payload, nil
}

// DecodeResult decodes a successful result into a new T.
func DecodeResult[T any](r Result) (T, error) {
	var v T
	err := r.Decode(&v)
	return v, err
}

// ResultError is a failed Result seen as an error.
type ResultError struct {
	Message string
}

func (e *ResultError) Error() string {
	return e.Message
}
