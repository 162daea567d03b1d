package task

import (
	"encoding/json"
	"fmt"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the tagged outcome of a task. Callers must branch on Status:
// a success carries an opaque Details payload, an error carries a
// human-readable Message.
type Result struct {
	// Status is "success" or "error".
	Status string `json:"status"`

	// Message is a human-readable summary.
	Message string `json:"message,omitempty"`

	// Details carries result data opaque to the router.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Success builds a success result.
func Success(message string) Result {
	return Result{Status: StatusSuccess, Message: message}
}

// Successf builds a success result with a formatted message.
func Successf(format string, args ...interface{}) Result {
	return Success(fmt.Sprintf(format, args...))
}

// Errorf builds an error result with a formatted message.
func Errorf(format string, args ...interface{}) Result {
	return Result{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// WithDetail returns a copy of the result with a detail field set.
func (r Result) WithDetail(key string, value interface{}) Result {
	details := make(map[string]interface{}, len(r.Details)+1)
	for k, v := range r.Details {
		details[k] = v
	}
	details[key] = value
	r.Details = details
	return r
}

// IsError reports whether the result signals a failure.
func (r Result) IsError() bool {
	return r.Status == StatusError
}

// Marshal serializes the result to JSON.
func (r Result) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalResult deserializes a result from JSON.
func UnmarshalResult(data []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, err
	}
	return r, nil
}
