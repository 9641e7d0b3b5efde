// Package ocr defines the abstraction for plugging OCR engines (for example
// Tesseract or a cloud service) into the post-capture pipeline, so the text
// of a finalized scan can be attached to its outcome. The interfaces are
// small and transport-agnostic so engines can be backed by local binaries,
// native libraries or remote APIs.
package ocr
