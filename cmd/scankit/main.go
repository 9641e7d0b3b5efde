package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/wudi/scankit/config"
	"github.com/wudi/scankit/device"
	"github.com/wudi/scankit/extensions"
	"github.com/wudi/scankit/httpapi"
	"github.com/wudi/scankit/imaging"
	"github.com/wudi/scankit/observability"
	"github.com/wudi/scankit/ocr"
	"github.com/wudi/scankit/ocr/tesseract"
	"github.com/wudi/scankit/scan"
	"github.com/wudi/scankit/scripting"
	"github.com/wudi/scankit/session"
	"github.com/wudi/scankit/vision/fullframe"
)

type options struct {
	configPath string
	outDir     string
	listen     string
	ocr        bool
	validate   string
	onCycle    string
	images     []string
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "scankit: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "scankit: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: scankit [flags] <image> [image...]\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.configPath, "config", "", "JSON configuration file")
	flag.StringVar(&opts.outDir, "out", "scan_output", "Directory for captured images")
	flag.StringVar(&opts.listen, "listen", "", "Serve the action hooks on this address and scan the images as camera frames")
	flag.BoolVar(&opts.ocr, "ocr", false, "Recognize text in every capture (overrides the config)")
	flag.StringVar(&opts.validate, "validate", "", "JavaScript file; a falsy result rejects the outcome")
	flag.StringVar(&opts.onCycle, "on-cycle", "", "JavaScript file run after every continuous cycle")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return options{}, fmt.Errorf("missing image path")
	}
	opts.images = flag.Args()
	return opts, nil
}

func run(opts options) error {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if opts.ocr {
		cfg.OCR.Enabled = true
	}
	logger := observability.NewTextLogger(os.Stderr, observability.ParseLevel(cfg.Log.Level))

	frames := make([]image.Image, 0, len(opts.images))
	for _, path := range opts.images {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		img, format, err := imaging.Decode(data)
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		logger.Debug("image loaded", observability.String("path", path), observability.String("format", format))
		frames = append(frames, img)
	}

	hub, err := buildHub(cfg, opts, logger)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var static image.Image
	if opts.listen == "" {
		// Without a remote surface there is nobody to press the buttons.
		cfg.Stages.ShowCorrection, cfg.Stages.ShowResult = false, false
		cfg.Capture.Continuous = false
		static = frames[0]
	}

	hook := func(context.Context, scan.Outcome) {}
	if opts.onCycle != "" {
		if hook, err = newCycleHook(opts.onCycle, logger); err != nil {
			return err
		}
	}

	camera := device.NewStillCamera(frames...)
	surface := logSurface{log: logger}
	sess := session.New(cfg,
		session.WithCamera(camera),
		session.WithEngine(fullframe.New(camera, 0)),
		session.WithLogger(logger),
		session.WithExtensions(hub),
		session.WithSurface(scan.StageCorrecting, surface),
		session.WithSurface(scan.StageReviewing, surface),
		session.OnCycleCompleted(func(out scan.Outcome) {
			if err := writeOutcome(opts.outDir, out); err != nil {
				logger.Warn("write cycle output", observability.Error("err", err))
			}
			hook(ctx, out)
		}),
	)
	defer sess.Dispose()

	if opts.listen != "" {
		srv := &http.Server{Addr: opts.listen, Handler: httpapi.NewRouter(sess, logger), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server", observability.Error("err", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		logger.Info("listening", observability.String("addr", opts.listen))
	}

	out, err := sess.Start(ctx, static)
	if err != nil {
		return err
	}
	if out.Succeeded() && !cfg.Capture.Continuous {
		if err := writeOutcome(opts.outDir, out); err != nil {
			return err
		}
	}
	if err := json.NewEncoder(os.Stdout).Encode(summary(out)); err != nil {
		return err
	}
	if out.Status == scan.StatusFailed {
		return fmt.Errorf("%s: %w", out.Message, out.Err)
	}
	return nil
}

func buildHub(cfg *config.Config, opts options, logger observability.Logger) (*extensions.Hub, error) {
	hub := extensions.NewHub()
	hub.Register(extensions.DigestExtension{})
	hub.Register(extensions.PreviewExtension{MaxDim: cfg.Preview.MaxDim})
	if cfg.OCR.Enabled {
		ocrOpts := []ocr.InputOption{ocr.WithLanguages(cfg.OCR.Languages...)}
		if cfg.OCR.DPI > 0 {
			ocrOpts = append(ocrOpts, ocr.WithDPI(cfg.OCR.DPI))
		}
		if cfg.OCR.PageSegMode > 0 {
			ocrOpts = append(ocrOpts, tesseract.WithPageSegMode(cfg.OCR.PageSegMode))
		}
		if cfg.OCR.CharWhitelist != "" {
			ocrOpts = append(ocrOpts, tesseract.WithCharWhitelist(cfg.OCR.CharWhitelist))
		}
		hub.Register(extensions.NewOCRExtension(tesseract.NewEngine(), ocrOpts...))
	}
	if opts.validate != "" {
		src, err := os.ReadFile(opts.validate)
		if err != nil {
			return nil, fmt.Errorf("read validation script: %w", err)
		}
		engine := scripting.NewEngine()
		if err := engine.RegisterHost(scriptLogger(logger)); err != nil {
			return nil, fmt.Errorf("register script host: %w", err)
		}
		hub.Register(extensions.NewScriptValidator(engine, string(src)))
	}
	return hub, nil
}

func newCycleHook(path string, logger observability.Logger) (func(context.Context, scan.Outcome), error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cycle script: %w", err)
	}
	engine := scripting.NewEngine()
	if err := engine.RegisterHost(scriptLogger(logger)); err != nil {
		return nil, fmt.Errorf("register script host: %w", err)
	}
	return func(ctx context.Context, out scan.Outcome) {
		ctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := engine.SetOutcome(out); err != nil {
			logger.Warn("cycle hook", observability.Error("err", err))
			return
		}
		if _, err := engine.Execute(ctx, string(src)); err != nil {
			logger.Warn("cycle hook", observability.Error("err", err))
		}
	}, nil
}

func scriptLogger(logger observability.Logger) scripting.Host {
	return scripting.HostFunc(func(msg string) {
		logger.Info(msg, observability.String("source", "script"))
	})
}

func writeOutcome(dir string, out scan.Outcome) error {
	img := out.Image()
	if img == nil {
		return nil
	}
	name := filepath.Join(dir, fmt.Sprintf("scan-%03d-%s.png", out.Cycle, out.ID))
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := imaging.EncodePNG(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode output: %w", err)
	}
	return f.Close()
}

type outcomeSummary struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Method  string `json:"method,omitempty"`
	Cycle   int    `json:"cycle"`
	Digest  string `json:"digest,omitempty"`
	Text    string `json:"text,omitempty"`
}

func summary(out scan.Outcome) outcomeSummary {
	s := outcomeSummary{Status: out.Status.String(), Message: out.Message, Cycle: out.Cycle, Digest: out.Digest, Text: out.Text}
	if out.Succeeded() {
		s.Method = out.Method.String()
	}
	return s
}

// logSurface stands in for a UI when the session is driven over HTTP.
type logSurface struct{ log observability.Logger }

func (l logSurface) Present(stage scan.Stage, out scan.Outcome) error {
	l.log.Info("awaiting user action", observability.String("stage", stage.String()), observability.String("outcome", out.ID))
	return nil
}

func (l logSurface) Dismiss(scan.Stage) {}
