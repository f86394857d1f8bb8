// Package visualizer renders live input levels as frequency bars while a
// capture session is recording. The analysis graph and the drawing surface
// are injected capabilities so the loop itself stays platform free.
package visualizer

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Analyzer exposes a fixed-size frequency analysis window over the live
// input. BinCount is constant for the lifetime of the analyzer.
type Analyzer interface {
	BinCount() int
	// FrequencyData fills dst (len == BinCount) with the current
	// byte-scaled magnitudes, 0..255.
	FrequencyData(dst []byte) error
	Close() error
}

// Renderer draws one frame of bars onto whatever surface backs it.
type Renderer interface {
	DrawFrame(bars []Bar)
}

// Bar is one laid-out bar in surface coordinates. Y grows downward; bars
// are anchored to the bottom edge.
type Bar struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

const (
	barGap     = 2.0
	widthScale = 2.5
)

// Layout converts magnitudes into bar rects for a surface of the given
// size. Bar width derives from the bin count scaled up so the row fills the
// surface; heights scale magnitude/255 against the surface height.
func Layout(bins []byte, width, height float64) []Bar {
	if len(bins) == 0 || width <= 0 || height <= 0 {
		return nil
	}
	barWidth := width / float64(len(bins)) * widthScale
	bars := make([]Bar, 0, len(bins))
	x := 0.0
	for _, m := range bins {
		h := float64(m) / 255 * height
		bars = append(bars, Bar{
			X:      x,
			Y:      height - h,
			Width:  barWidth,
			Height: h,
		})
		x += barWidth + barGap
	}
	return bars
}

// Visualizer samples the analyzer once per frame tick and hands the laid-out
// bars to the renderer. It holds no state beyond the running handle.
type Visualizer struct {
	analyzer Analyzer
	renderer Renderer
	width    float64
	height   float64
	frames   <-chan time.Time
	log      *logrus.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

// Config wires a Visualizer. Frames is the frame tick source (typically a
// time.Ticker channel); Width/Height describe the drawing surface.
type Config struct {
	Analyzer Analyzer
	Renderer Renderer
	Width    float64
	Height   float64
	Frames   <-chan time.Time
	Logger   *logrus.Logger
}

func New(cfg Config) *Visualizer {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Visualizer{
		analyzer: cfg.Analyzer,
		renderer: cfg.Renderer,
		width:    cfg.Width,
		height:   cfg.Height,
		frames:   cfg.Frames,
		log:      log,
	}
}

// Run samples frames until Stop is called or ctx ends, then releases the
// analysis graph. Run returns the analyzer's Close error, if any.
func (v *Visualizer) Run(ctx context.Context) error {
	v.mu.Lock()
	if v.running {
		v.mu.Unlock()
		return nil
	}
	v.running = true
	v.stop = make(chan struct{})
	stop := v.stop
	v.mu.Unlock()

	bins := make([]byte, v.analyzer.BinCount())
	for {
		select {
		case <-ctx.Done():
			return v.teardown()
		case <-stop:
			return v.teardown()
		case <-v.frames:
			if err := v.analyzer.FrequencyData(bins); err != nil {
				v.log.WithError(err).Debug("frequency sample failed")
				continue
			}
			v.renderer.DrawFrame(Layout(bins, v.width, v.height))
		}
	}
}

// Stop ends the run loop. Safe to call twice or before Run.
func (v *Visualizer) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.running {
		return
	}
	v.running = false
	close(v.stop)
}

func (v *Visualizer) teardown() error {
	v.mu.Lock()
	v.running = false
	v.mu.Unlock()
	return v.analyzer.Close()
}

// RowWidth reports the total width a full row of bins occupies, useful for
// sizing the surface to the analyzer.
func RowWidth(binCount int, surfaceWidth float64) float64 {
	if binCount == 0 {
		return 0
	}
	barWidth := surfaceWidth / float64(binCount) * widthScale
	return math.Ceil(float64(binCount)*(barWidth+barGap) - barGap)
}
