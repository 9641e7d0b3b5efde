package extensions

import (
	"context"

	"github.com/wudi/scankit/imaging"
	"github.com/wudi/scankit/scan"
)

// DigestExtension fingerprints the final image.
type DigestExtension struct{}

func (DigestExtension) Name() string  { return "digest" }
func (DigestExtension) Phase() Phase  { return PhaseInspect }
func (DigestExtension) Priority() int { return 10 }

func (DigestExtension) Apply(_ context.Context, out scan.Outcome) (scan.Outcome, error) {
	img := out.Image()
	if img == nil {
		return out, nil
	}
	d, err := imaging.Digest(img)
	if err != nil {
		return out, err
	}
	out.Digest = d
	return out, nil
}

// PreviewExtension attaches a downscaled copy of the final image.
type PreviewExtension struct {
	MaxDim int
}

func (PreviewExtension) Name() string  { return "preview" }
func (PreviewExtension) Phase() Phase  { return PhaseEnrich }
func (PreviewExtension) Priority() int { return 10 }

func (p PreviewExtension) Apply(_ context.Context, out scan.Outcome) (scan.Outcome, error) {
	if img := out.Image(); img != nil {
		out.Preview = imaging.Fit(img, p.MaxDim)
	}
	return out, nil
}
