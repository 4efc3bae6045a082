package service

import (
	"fmt"
	"runtime"
)

type ProcessingError struct {
	Identifier string
	IsFatal    bool
	Message    string
	Source     string
}

// NewProcessingError returns a new ProcessingError. Param identifier is
// the object path or correlation key being processed when the error
// occurred. Param isFatal describes whether the error is fatal. Fatal
// errors are those which will prevent the pipeline from succeeding if it
// reprocesses the same upload. A malformed object path is fatal because
// it will still be malformed on the next delivery. Network and storage
// errors are transient and are likely to succeed on future tries.
func NewProcessingError(identifier, message string, isFatal bool) *ProcessingError {
	_, filename, line, ok := runtime.Caller(1)
	source := "unknown:0"
	if ok {
		source = fmt.Sprintf("%s:%d", filename, line)
	}
	return &ProcessingError{
		Identifier: identifier,
		IsFatal:    isFatal,
		Message:    message,
		Source:     source,
	}
}

func (e *ProcessingError) Error() string {
	severity := "non-fatal"
	if e.IsFatal {
		severity = "fatal"
	}
	return fmt.Sprintf("(message: %s) (severity: %s) (identifier: %s) (source: %s)",
		e.Message, severity, e.Identifier, e.Source)
}
