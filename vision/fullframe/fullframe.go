// Package fullframe is a vision engine that never finds a boundary. Every
// detection reports full-frame bounds and normalization crops to the
// boundary's bounding box without perspective correction. It lets the
// session run end to end where no real engine is available.
package fullframe

import (
	"context"
	"errors"
	"image"
	"math"
	"sync/atomic"
	"time"

	"github.com/wudi/scankit/coords"
	"github.com/wudi/scankit/device"
	"github.com/wudi/scankit/imaging"
	"github.com/wudi/scankit/vision"
)

const defaultInterval = 100 * time.Millisecond

var errNoCamera = errors.New("no camera attached")

// Engine implements vision.Engine.
type Engine struct {
	camera   device.Camera
	interval time.Duration
	frameID  atomic.Int64
}

// New builds an engine whose stream samples camera every interval. camera
// may be nil when only still images are processed.
func New(camera device.Camera, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Engine{camera: camera, interval: interval}
}

func (e *Engine) Name() string { return "fullframe" }

func (e *Engine) DetectBoundaries(ctx context.Context, img image.Image) (vision.Result, error) {
	if err := ctx.Err(); err != nil {
		return vision.Result{}, err
	}
	if img == nil {
		return vision.Result{}, &vision.EngineError{Op: "detect"}
	}
	b := img.Bounds()
	return vision.Result{
		FrameID: e.frameID.Add(1),
		Width:   b.Dx(),
		Height:  b.Dy(),
		Items:   []vision.Item{{Kind: vision.ItemOriginalImage, Image: img}},
	}, nil
}

func (e *Engine) Normalize(ctx context.Context, img image.Image, boundary coords.Quad) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, &vision.EngineError{Op: "normalize"}
	}
	min, max := boundary.Bounds()
	off := img.Bounds().Min
	r := image.Rect(
		off.X+int(math.Round(min.X)), off.Y+int(math.Round(min.Y)),
		off.X+int(math.Round(max.X)), off.Y+int(math.Round(max.Y)),
	)
	out, err := imaging.Crop(img, r)
	if err != nil {
		return nil, vision.Wrap("normalize", err)
	}
	return out, nil
}

// Stream polls the camera and reports every frame as boundary-less.
func (e *Engine) Stream(ctx context.Context) (<-chan vision.Result, error) {
	if e.camera == nil {
		return nil, &vision.EngineError{Op: "stream", Err: errNoCamera}
	}
	out := make(chan vision.Result)
	go func() {
		defer close(out)
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			img, err := e.camera.FetchCurrentFrame(ctx)
			if err != nil {
				continue
			}
			res, err := e.DetectBoundaries(ctx, img)
			if err != nil {
				continue
			}
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
