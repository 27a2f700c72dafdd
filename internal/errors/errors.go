package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/drivewise/internal/logger"
)

// AuthRequiredMessage is the fixed text surfaced when an operation needs a token.
const AuthRequiredMessage = "Authentication required"

var (
	// ErrAuthRequired is returned by gated operations invoked without a token.
	ErrAuthRequired = errors.New(AuthRequiredMessage)
	// ErrStorageUnavailable is returned when no local storage is configured.
	ErrStorageUnavailable = errors.New("local storage is not available")
	// ErrMalformedResponse is returned when a backend payload fails validation.
	ErrMalformedResponse = errors.New("malformed response from server")
	// ErrDiscarded is returned when a result arrived after its session ended
	// or after its caller stopped waiting. The result is not published.
	ErrDiscarded = errors.New("result arrived too late and was discarded")
)

// BackendError is an envelope that came back with a non-success status.
type BackendError struct {
	Op      string
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed", e.Op)
	}
	return e.Message
}

// TransportError wraps network, HTTP and decoding failures.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: server returned %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Message normalizes err into the single user-facing error string.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.Error()
	}
	if errors.Is(err, ErrAuthRequired) {
		return AuthRequiredMessage
	}
	return err.Error()
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
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
