package tesseract

import (
	"strconv"

	"github.com/wudi/scankit/ocr"
)

// Tesseract variables set through ocr.Input.Metadata.
const (
	varPageSegMode   = "tessedit_pageseg_mode"
	varCharWhitelist = "tessedit_char_whitelist"
)

// WithPageSegMode selects the Tesseract page segmentation mode. Receipts and
// other single-column captures usually do best with 4 or 6.
func WithPageSegMode(mode int) ocr.InputOption {
	return withVariable(varPageSegMode, strconv.Itoa(mode))
}

// WithCharWhitelist restricts recognition to chars.
func WithCharWhitelist(chars string) ocr.InputOption {
	return withVariable(varCharWhitelist, chars)
}

func withVariable(key, value string) ocr.InputOption {
	return func(in *ocr.Input) {
		if in.Metadata == nil {
			in.Metadata = make(map[string]string)
		}
		in.Metadata[key] = value
	}
}
