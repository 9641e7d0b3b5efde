// Package device defines the camera collaborator used during capture.
package device

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// Camera is a live image source.
type Camera interface {
	Open(ctx context.Context) error
	Close() error
	Pause() error
	Resume() error
	FetchCurrentFrame(ctx context.Context) (image.Image, error)
	SelectDevice(ctx context.Context, id string) error
	SetResolution(ctx context.Context, width, height int) error
}

var (
	// ErrBusy means the camera is held by another application.
	ErrBusy = errors.New("camera in use")
	// ErrPermission means access to the camera was denied.
	ErrPermission = errors.New("camera permission denied")
	// ErrNotFound means no camera matched the request.
	ErrNotFound = errors.New("camera not found")
)

// DeviceError wraps a camera failure with the operation that caused it.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("camera %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Busy reports whether the failure is the recoverable "camera in use" case.
func (e *DeviceError) Busy() bool { return errors.Is(e.Err, ErrBusy) }

// UserMessage is the text shown to the user for this failure.
func (e *DeviceError) UserMessage() string {
	if e.Busy() {
		return "The camera is being used by another application. Close it and try again."
	}
	return "The camera could not be started."
}

// Wrap returns err as a *DeviceError for op, or nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DeviceError
	if errors.As(err, &de) {
		return err
	}
	return &DeviceError{Op: op, Err: err}
}
