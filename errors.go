package ragline

import (
	"errors"
	"fmt"
)

// RetrievalError reports a document store fault: backend unreachable,
// malformed response, or timeout.
type RetrievalError struct {
	Cause error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: %v", e.Cause)
}

func (e *RetrievalError) Unwrap() error { return e.Cause }

// NewRetrievalError wraps a store fault. Returns nil for a nil cause.
func NewRetrievalError(cause error) error {
	if cause == nil {
		return nil
	}
	return &RetrievalError{Cause: cause}
}

// GenerationError reports a language model fault: provider unreachable,
// malformed response, timeout, or refusal.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// NewGenerationError wraps a model fault. Returns nil for a nil cause.
func NewGenerationError(cause error) error {
	if cause == nil {
		return nil
	}
	return &GenerationError{Cause: cause}
}

// IsRetrievalError reports whether err is (or wraps) a RetrievalError.
func IsRetrievalError(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}

// IsGenerationError reports whether err is (or wraps) a GenerationError.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}
