package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/bloomup/internal/logger"
)

// HintedError pairs an error with a next step the user can take.
type HintedError struct {
	Err  error
	Hint string
}

func (e *HintedError) Error() string { return e.Err.Error() }

func (e *HintedError) Unwrap() error { return e.Err }

// WithHint attaches a user-facing hint to err. A nil err stays nil.
func WithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return &HintedError{Err: err, Hint: hint}
}

// Format formats an error message with a consistent "Error: " prefix.
// If the chain carries a hint it is appended on its own line.
func Format(err error) string {
	if err == nil {
		return ""
	}
	var hinted *HintedError
	if errors.As(err, &hinted) && hinted.Hint != "" {
		return fmt.Sprintf("Error: %v\n  hint: %s", err, hinted.Hint)
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
