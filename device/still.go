package device

import (
	"context"
	"errors"
	"image"
	"sync"
)

// StillCamera serves a fixed sequence of frames, repeating the last one.
// It stands in for a real camera when scanning from files.
type StillCamera struct {
	mu     sync.Mutex
	frames []image.Image
	next   int
	open   bool
	paused bool
	device string
	width  int
	height int
}

func NewStillCamera(frames ...image.Image) *StillCamera {
	return &StillCamera{frames: frames}
}

func (c *StillCamera) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return &DeviceError{Op: "open", Err: ErrNotFound}
	}
	c.open = true
	c.paused = false
	return nil
}

func (c *StillCamera) Close() error {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
	return nil
}

func (c *StillCamera) Pause() error {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
	return nil
}

func (c *StillCamera) Resume() error {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
	return nil
}

// Paused reports whether the camera is paused.
func (c *StillCamera) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *StillCamera) FetchCurrentFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return nil, &DeviceError{Op: "fetch", Err: errors.New("camera not open")}
	}
	img := c.frames[c.next]
	if c.next < len(c.frames)-1 {
		c.next++
	}
	return img, nil
}

func (c *StillCamera) SelectDevice(_ context.Context, id string) error {
	c.mu.Lock()
	c.device = id
	c.mu.Unlock()
	return nil
}

func (c *StillCamera) SetResolution(_ context.Context, width, height int) error {
	c.mu.Lock()
	c.width, c.height = width, height
	c.mu.Unlock()
	return nil
}
