// Package errors provides a structured error taxonomy for boulevard.
// It defines error codes and categories that enable consistent error
// handling across the environment, agents, templates, and connectors.
//
// # Error Categories
//
// Errors are classified into four categories:
//
//   - Transient: Temporary failures where retry may succeed (connector timeouts, etc.)
//   - Permanent: Failures where retry will not help (unknown framework, missing template, etc.)
//   - Resource: Resource exhaustion issues (connector rate limits, etc.)
//   - Internal: Unexpected errors indicating bugs or system failures
//
// # Usage
//
// Create a new error:
//
//	err := errors.New(errors.ErrCodeTemplateNotFound, "no template for framework")
//
// Wrap an existing error with context:
//
//	wrapped := errors.Wrap(err, "applying flask template")
//
// Check if an error is retryable:
//
//	if berr := errors.AsBoulevardError(err); berr != nil && berr.Retryable() {
//	    // retry logic
//	}
//
// # JSON Serialization
//
// All errors support JSON serialization so they can travel inside task
// results:
//
//	data, err := json.Marshal(berr)
package errors
