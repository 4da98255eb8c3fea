package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/reportkit/dashboard/internal/dashboard"
	"github.com/reportkit/dashboard/internal/schema"
)

const (
	settleDelay         = 500 * time.Millisecond
	fallbackSettleDelay = 300 * time.Millisecond

	// Rasters narrower than this signal a degenerate render.
	minRasterWidth = 800
)

var (
	// ErrExportInFlight makes a second export request a no-op while one is
	// still running.
	ErrExportInFlight = errors.New("an export is already in flight")

	// ErrLowResolution rejects a primary-pass raster below the quality floor.
	ErrLowResolution = errors.New("export resolution too low")
)

// Options mirror the rasterizer knobs the dashboard export uses.
type Options struct {
	Scale            float64
	Background       color.Color
	AllowCrossOrigin bool
	// Quality in (0,1]. PNG is lossless, so this only selects encoder
	// effort, but the primary/fallback split keeps the contract explicit.
	Quality float64
	// Logical pixel dimensions of the layout before scaling.
	Width, Height int
}

// Rasterizer turns a revealed report layout into a pixel image.
type Rasterizer interface {
	Rasterize(ctx context.Context, layout *Layout, opts Options) (image.Image, error)
}

// Artifact is the downloadable result of one export.
type Artifact struct {
	Filename string
	PNG      []byte
}

// Exporter runs the export pipeline: reveal the report layout, wait for it to
// settle, rasterize at high fidelity, and fall back once to a reduced-fidelity
// pass before giving up. A fallback failure is terminal for the attempt; the
// user retries by exporting again.
type Exporter struct {
	raster   Rasterizer
	log      *zap.Logger
	inFlight atomic.Bool

	primaryDelay  time.Duration
	fallbackDelay time.Duration
	now           func() time.Time
}

func New(raster Rasterizer, log *zap.Logger) *Exporter {
	return &Exporter{
		raster:        raster,
		log:           log,
		primaryDelay:  settleDelay,
		fallbackDelay: fallbackSettleDelay,
		now:           time.Now,
	}
}

// Export produces a PNG snapshot of the given state. Validation errors never
// block an export. A second call while one is in flight returns
// ErrExportInFlight without doing any work.
func (e *Exporter) Export(ctx context.Context, state schema.DashboardState, comments []dashboard.Comment) (Artifact, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return Artifact{}, ErrExportInFlight
	}
	defer e.inFlight.Store(false)

	now := e.now()
	layout := NewLayout(state, comments, now)
	filename := Filename(state.Config, now)
	w, h := layout.NaturalSize()

	data, err := e.attempt(ctx, layout, e.primaryDelay, true, Options{
		Scale:            2,
		Background:       color.White,
		AllowCrossOrigin: true,
		Quality:          1.0,
		Width:            w,
		Height:           h,
	})
	if err == nil {
		return Artifact{Filename: filename, PNG: data}, nil
	}

	e.log.Warn("export pass failed, retrying with reduced fidelity", zap.Error(err))
	layout.Conceal() // safety net, idempotent

	data, err = e.attempt(ctx, layout, e.fallbackDelay, false, Options{
		Scale:            1,
		Background:       color.White,
		AllowCrossOrigin: false,
		Quality:          0.8,
		Width:            w,
		Height:           h,
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("export failed after fallback: %w", err)
	}
	return Artifact{Filename: filename, PNG: data}, nil
}

func (e *Exporter) attempt(ctx context.Context, layout *Layout, delay time.Duration, enforceFloor bool, opts Options) ([]byte, error) {
	layout.Reveal()
	defer layout.Conceal()

	if err := settle(ctx, delay); err != nil {
		return nil, err
	}

	img, err := e.raster.Rasterize(ctx, layout, opts)
	if err != nil {
		return nil, err
	}

	// Hidden again before the quality gate and download, even on success.
	layout.Conceal()

	if enforceFloor && img.Bounds().Dx() < minRasterWidth {
		return nil, fmt.Errorf("%w: width %dpx", ErrLowResolution, img.Bounds().Dx())
	}
	return encodePNG(img, opts.Quality)
}

func settle(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func encodePNG(img image.Image, quality float64) ([]byte, error) {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if quality < 1 {
		enc.CompressionLevel = png.BestSpeed
	}
	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}

var whitespace = regexp.MustCompile(`\s+`)

// Filename follows the fixed share pattern:
// test-case-dashboard-{environment|NoEnv}-{site|NoSite}-{YYYY-MM-DD}.png
// with any whitespace in the environment or site replaced by hyphens.
func Filename(cfg schema.DashboardConfig, now time.Time) string {
	env := "NoEnv"
	if cfg.Environment != nil {
		env = whitespace.ReplaceAllString(string(*cfg.Environment), "-")
	}
	site := "NoSite"
	if cfg.Site != nil {
		site = whitespace.ReplaceAllString(string(*cfg.Site), "-")
	}
	return fmt.Sprintf("test-case-dashboard-%s-%s-%s.png", env, site, now.UTC().Format("2006-01-02"))
}
