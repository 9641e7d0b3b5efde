package ocr

import "context"

// Region is a pixel rectangle with its origin at the top-left corner.
type Region struct {
	X, Y          float64
	Width, Height float64
}

func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Input is one PNG-encoded capture submitted for recognition.
type Input struct {
	// ID is echoed back in Result.InputID.
	ID    string
	Image []byte
	// Cycle is the scan cycle that captured the image.
	Cycle     int
	DPI       int
	Languages []string
	// Region limits recognition to part of the image; nil means all of it.
	Region *Region
	// Metadata carries provider variables, see the tesseract package.
	Metadata map[string]string
}

// TextWord is one recognized word and its confidence in [0, 1].
type TextWord struct {
	Text       string
	Bounds     Region
	Confidence float64
}

// Result is the recognized text of one capture.
type Result struct {
	InputID   string
	PlainText string
	Words     []TextWord
	// Bounds encloses all words.
	Bounds     Region
	Confidence float64
	Language   string
}

// Engine recognizes text in a single image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}
