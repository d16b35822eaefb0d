// Package errors provides structured error types for better observability
// and programmatic error handling across rpctl.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeUnavailable,
//	    "health endpoint unreachable",
//	    cause,
//	    map[string]any{
//	        "url":     "http://localhost:5000/health",
//	        "attempt": 3,
//	    },
//	)
//
// Use Is to branch on a code anywhere in a wrapped chain:
//
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // no backup archive available
//	}
package errors
