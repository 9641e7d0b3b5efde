package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/wudi/scankit/capture"
)

// ===== Top-level =====

type Config struct {
	Stages  Stages  `json:"stages"`
	Capture Capture `json:"capture"`
	Camera  Camera  `json:"camera"`
	OCR     OCR     `json:"ocr"`
	Preview Preview `json:"preview"`
	Log     Log     `json:"log"`
}

// ===== Stages =====

type Stages struct {
	ShowCorrection bool `json:"show_correction"`
	ShowResult     bool `json:"show_result"`
}

// ===== Capture =====

type Capture struct {
	BoundsDetection   bool `json:"bounds_detection"`
	SmartCapture      bool `json:"smart_capture"`
	AutoCrop          bool `json:"auto_crop"`
	FrameVerification bool `json:"frame_verification"`
	Continuous        bool `json:"continuous"`

	RequiredVerifiedFrames int `json:"required_verified_frames"`
	CooldownMs             int `json:"cooldown_ms"`
	StaleTimeoutMs         int `json:"stale_timeout_ms"`
	MinStabilizationMs     int `json:"min_stabilization_ms"`
	ViewportDebounceMs     int `json:"viewport_debounce_ms"`
}

// Modes returns the configured default capture modes.
func (c Capture) Modes() capture.ModeState {
	return capture.ModeState{
		BoundsDetection: c.BoundsDetection,
		SmartCapture:    c.SmartCapture,
		AutoCrop:        c.AutoCrop,
	}
}

func (c Capture) Cooldown() time.Duration { return ms(c.CooldownMs) }

func (c Capture) StaleTimeout() time.Duration { return ms(c.StaleTimeoutMs) }

func (c Capture) MinStabilization() time.Duration { return ms(c.MinStabilizationMs) }

func (c Capture) ViewportDebounce() time.Duration { return ms(c.ViewportDebounceMs) }

// ===== Camera =====

type Camera struct {
	DeviceID string `json:"device_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// ===== OCR =====

type OCR struct {
	Enabled   bool     `json:"enabled"`
	Languages []string `json:"languages"`
	DPI       int      `json:"dpi"`
	// PageSegMode is the Tesseract page segmentation mode; 0 keeps the
	// engine default.
	PageSegMode   int    `json:"page_seg_mode"`
	CharWhitelist string `json:"char_whitelist"`
}

// ===== Preview =====

type Preview struct {
	MaxDim int `json:"max_dim"`
}

// ===== Log =====

type Log struct {
	Level string `json:"level"`
}

// ===== Loader + defaults =====

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{
		Capture: Capture{
			BoundsDetection:   true,
			FrameVerification: true,
		},
	}
	c.applyDefaults()
	return c
}

// Load reads a JSON file. Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes a JSON document over the defaults and validates it.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := json.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Capture.RequiredVerifiedFrames == 0 {
		c.Capture.RequiredVerifiedFrames = capture.DefaultRequiredVerifiedFrames
	}
	if c.Capture.CooldownMs <= 0 {
		c.Capture.CooldownMs = int(capture.DefaultCooldown / time.Millisecond)
	}
	if c.Capture.StaleTimeoutMs <= 0 {
		c.Capture.StaleTimeoutMs = int(capture.DefaultStaleTimeout / time.Millisecond)
	}
	if c.Capture.MinStabilizationMs <= 0 {
		c.Capture.MinStabilizationMs = int(capture.DefaultMinStabilization / time.Millisecond)
	}
	if c.Capture.ViewportDebounceMs <= 0 {
		c.Capture.ViewportDebounceMs = 500
	}
	if len(c.OCR.Languages) == 0 {
		c.OCR.Languages = []string{"eng"}
	}
	if c.Preview.MaxDim <= 0 {
		c.Preview.MaxDim = 512
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks ranges that defaults cannot repair.
func (c *Config) Validate() error {
	var errs []error
	n := c.Capture.RequiredVerifiedFrames
	if n < capture.MinRequiredVerifiedFrames || n > capture.MaxRequiredVerifiedFrames {
		errs = append(errs, fmt.Errorf("capture.required_verified_frames must be between %d and %d, got %d",
			capture.MinRequiredVerifiedFrames, capture.MaxRequiredVerifiedFrames, n))
	}
	if (c.Camera.Width == 0) != (c.Camera.Height == 0) || c.Camera.Width < 0 || c.Camera.Height < 0 {
		errs = append(errs, fmt.Errorf("camera width and height must both be set, got %dx%d", c.Camera.Width, c.Camera.Height))
	}
	if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > 13 {
		errs = append(errs, fmt.Errorf("ocr.page_seg_mode must be between 0 and 13, got %d", c.OCR.PageSegMode))
	}
	if c.OCR.DPI < 0 {
		errs = append(errs, fmt.Errorf("ocr.dpi must not be negative, got %d", c.OCR.DPI))
	}
	return errors.Join(errs...)
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
