package session

import (
	"errors"
	"fmt"

	"github.com/wudi/scankit/device"
	"github.com/wudi/scankit/vision"
)

var (
	// ErrAlreadyInProgress is returned by Start while another session runs.
	ErrAlreadyInProgress = errors.New("scan session already in progress")
	// ErrDisposed is returned by Start after Dispose.
	ErrDisposed = errors.New("scan session disposed")
)

// ConfigurationError reports a setup problem detected before any camera or
// engine resource is acquired.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid scan configuration: %s: %v", e.Reason, e.Err)
	}
	return "invalid scan configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// failureMessage picks the user-facing message for a failed outcome.
func failureMessage(err error) string {
	var de *device.DeviceError
	if errors.As(err, &de) {
		return de.UserMessage()
	}
	var ee *vision.EngineError
	if errors.As(err, &ee) {
		return "The document could not be processed."
	}
	return "The scan failed."
}
