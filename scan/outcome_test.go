package scan

import (
	"errors"
	"image"
	"testing"
)

func TestOutcomeImagePrefersCorrected(t *testing.T) {
	orig := image.NewGray(image.Rect(0, 0, 4, 4))
	corr := image.NewGray(image.Rect(0, 0, 2, 2))
	o := Outcome{Original: orig}
	if o.Image() != orig {
		t.Fatalf("expected original when no corrected image")
	}
	o.Corrected = corr
	if o.Image() != corr {
		t.Fatalf("expected corrected image")
	}
}

func TestOutcomeConstructors(t *testing.T) {
	if c := Cancelled("closed"); c.Status != StatusCancelled || c.Succeeded() {
		t.Fatalf("unexpected cancelled outcome: %+v", c)
	}
	err := errors.New("engine down")
	f := Failed("normalize failed", err)
	if f.Status != StatusFailed || !errors.Is(f.Err, err) {
		t.Fatalf("unexpected failed outcome: %+v", f)
	}
}

func TestStrings(t *testing.T) {
	if MethodAutoCrop.String() != "auto-crop" || StatusCancelled.String() != "cancelled" {
		t.Fatalf("unexpected names")
	}
	if StageReviewing.String() != "reviewing" || !StageFailed.Terminal() || StageCapturing.Terminal() {
		t.Fatalf("unexpected stage helpers")
	}
}
