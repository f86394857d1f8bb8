// Package waveform drives the review surface: rendering a recording's
// waveform, projecting flag markers onto it, region editing for snippet
// selection, and zoom/scroll bookkeeping. The drawing surface is an
// injected Renderer so the engine itself owns only geometry and playback
// state.
package waveform

import (
	"context"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jaydeesquared/FlagIt/internal/audio"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

// Renderer is the drawing capability behind the engine. SetSurfaceWidth
// starts an asynchronous re-layout; the renderer signals completion on the
// LayoutSettled channel (one message per re-layout).
type Renderer interface {
	Render(buf *audio.Buffer, pxPerSec float64) error
	SetSurfaceWidth(px float64)
	SurfaceWidth() float64
	Viewport() float64
	SetScroll(px float64)
	Scroll() float64
	ApplyMarkers(ops []MarkerOp)
	LayoutSettled() <-chan struct{}
	Destroy() error
}

// Flag is the marker input: a stored flag projected onto the surface.
type Flag struct {
	ID          uint
	TimestampMS int64
	Color       string
	Description string
}

// Zoom bounds in px/s and the default zoom step.
const (
	MinPxPerSec     = 10.0
	MaxPxPerSec     = 500.0
	InitialPxPerSec = 50.0
	ZoomStep        = 1.5
)

// Region play tolerances: outside [start-0.1, end-0.05) the playhead snaps
// back to the region start before playing.
const (
	regionStartSlack = 0.1
	regionEndSlack   = 0.05
)

// Region is the editable snippet selection.
type Region struct {
	Start float64
	End   float64
}

// Engine is the waveform/region state machine for one loaded recording.
// Methods are safe for concurrent use.
type Engine struct {
	decoder  audio.Decoder
	renderer Renderer
	log      *logrus.Logger

	onRegionChange func(Region)
	onMarkerClick  func(id uint)

	mu        sync.Mutex
	loaded    bool
	duration  float64
	pxPerSec  float64
	current   float64
	playing   bool
	focusTime *float64
	region    *Region
	flags     []Flag
	markers   map[uint]Marker
	clickTime *float64
}

// Config wires an Engine.
type Config struct {
	Decoder  audio.Decoder
	Renderer Renderer
	// OnRegionChange observes committed region bound updates.
	OnRegionChange func(Region)
	// OnMarkerClick receives the flag id of a clicked marker. A marker
	// click never doubles as a waveform click.
	OnMarkerClick func(id uint)
	Logger        *logrus.Logger
}

func NewEngine(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Engine{
		decoder:        cfg.Decoder,
		renderer:       cfg.Renderer,
		onRegionChange: cfg.OnRegionChange,
		onMarkerClick:  cfg.OnMarkerClick,
		log:            log,
		pxPerSec:       InitialPxPerSec,
		markers:        map[uint]Marker{},
	}
}

// Load decodes blob and renders its waveform at the initial zoom. Any
// previously loaded state is torn down first, whether or not the new load
// succeeds, so a failed load leaves no orphaned surfaces or markers.
func (e *Engine) Load(ctx context.Context, blob audio.Blob) error {
	const op = "waveform.Engine.Load"

	e.teardown()

	if len(blob.Data) == 0 {
		return utils.E(utils.CodeInvalidArgument, op, "empty audio blob", nil)
	}
	buf, err := e.decoder.Decode(ctx, blob)
	if err != nil {
		return utils.E(utils.CodeDecodeFailed, op, "decode recording", err)
	}
	if err := buf.Validate(); err != nil {
		return utils.E(utils.CodeDecodeFailed, op, "invalid decoded audio", err)
	}
	if err := e.renderer.Render(buf, InitialPxPerSec); err != nil {
		return utils.E(utils.CodeInternal, op, "render waveform", err)
	}

	e.mu.Lock()
	e.loaded = true
	e.duration = buf.Duration()
	e.pxPerSec = InitialPxPerSec
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"duration_sec": buf.Duration(),
		"sample_rate":  buf.SampleRate,
	}).Debug("waveform loaded")
	return nil
}

func (e *Engine) teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.markers) > 0 {
		ops := make([]MarkerOp, 0, len(e.markers))
		for _, m := range e.markers {
			ops = append(ops, MarkerOp{Kind: MarkerRemove, Marker: m})
		}
		e.renderer.ApplyMarkers(ops)
	}
	e.loaded = false
	e.duration = 0
	e.pxPerSec = InitialPxPerSec
	e.current = 0
	e.playing = false
	e.focusTime = nil
	e.region = nil
	e.clickTime = nil
	e.flags = nil
	e.markers = map[uint]Marker{}
}

// Close releases the engine and destroys the rendering surface.
func (e *Engine) Close() error {
	e.teardown()
	return e.renderer.Destroy()
}

// SetFlagMarkers projects flags onto the surface, diffing against the
// markers already rendered so unchanged ones are left alone.
func (e *Engine) SetFlagMarkers(flags []Flag) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded || e.duration <= 0 {
		return
	}
	e.flags = flags
	desired := projectMarkers(flags, e.duration, e.renderer.SurfaceWidth())
	ops := DiffMarkers(e.markers, desired)
	if len(ops) == 0 {
		return
	}
	e.renderer.ApplyMarkers(ops)
	next := make(map[uint]Marker, len(desired))
	for _, m := range desired {
		next[m.ID] = m
	}
	e.markers = next
}

// projectMarkers converts flag timestamps (ms) to surface pixels. The ms to
// seconds conversion happens here, at the boundary, and nowhere else.
func projectMarkers(flags []Flag, duration, surfaceWidth float64) []Marker {
	desired := make([]Marker, 0, len(flags))
	for _, f := range flags {
		sec := float64(f.TimestampMS) / 1000
		tooltip := f.Description
		if tooltip == "" {
			tooltip = defaultTooltip
		}
		desired = append(desired, Marker{
			ID:       f.ID,
			Position: sec / duration * surfaceWidth,
			Color:    MarkerColor(f.Color),
			Tooltip:  tooltip,
		})
	}
	return desired
}

// ClickMarker reports a marker click. It consumes the event: no waveform
// click position is recorded.
func (e *Engine) ClickMarker(id uint) {
	e.mu.Lock()
	_, ok := e.markers[id]
	e.mu.Unlock()
	if ok && e.onMarkerClick != nil {
		e.onMarkerClick(id)
	}
}

// ClickAt records a raw waveform click at a surface pixel position. The
// click time is held until taken (for flag placement) rather than acted on
// immediately.
func (e *Engine) ClickAt(px float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return
	}
	width := e.renderer.SurfaceWidth()
	if width <= 0 {
		return
	}
	t := clamp(px/width*e.duration, 0, e.duration)
	e.clickTime = &t
}

// TakeClickTime returns and clears the pending click position.
func (e *Engine) TakeClickTime() (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.clickTime == nil {
		return 0, false
	}
	t := *e.clickTime
	e.clickTime = nil
	return t, true
}

// SetRegion installs or replaces the editable selection. Bounds are clamped
// to the recording and to start<end, mirroring drag clamping.
func (e *Engine) SetRegion(start, end float64) Region {
	e.mu.Lock()
	start = clamp(start, 0, e.duration)
	end = clamp(end, 0, e.duration)
	if end <= start {
		end = math.Min(start+regionEndSlack, e.duration)
	}
	r := Region{Start: start, End: end}
	e.region = &r
	cb := e.onRegionChange
	e.mu.Unlock()

	if cb != nil {
		cb(r)
	}
	return r
}

// ClearRegion removes the selection.
func (e *Engine) ClearRegion() {
	e.mu.Lock()
	e.region = nil
	e.mu.Unlock()
}

// CurrentRegion returns the selection, if any.
func (e *Engine) CurrentRegion() (Region, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.region == nil {
		return Region{}, false
	}
	return *e.region, true
}

// Play starts playback. With a region installed, a playhead outside the
// region (with a small tolerance at each end) snaps to the region start
// first.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return
	}
	if r := e.region; r != nil {
		if e.current < r.Start-regionStartSlack || e.current >= r.End-regionEndSlack {
			e.current = r.Start
		}
	}
	e.playing = true
}

// Pause halts playback, keeping the playhead.
func (e *Engine) Pause() {
	e.mu.Lock()
	e.playing = false
	e.mu.Unlock()
}

// Advance moves the playhead by dt seconds of playback clock. Crossing the
// region end pauses and rewinds to the region start (a single pass, not a
// loop); reaching the end of the recording pauses.
func (e *Engine) Advance(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing {
		return
	}
	e.current += dt
	if r := e.region; r != nil && e.current >= r.End {
		e.playing = false
		e.current = r.Start
		return
	}
	if e.current >= e.duration {
		e.current = e.duration
		e.playing = false
	}
}

// Seek moves the playhead to t, clamped to the recording.
func (e *Engine) Seek(t float64) {
	e.mu.Lock()
	e.current = clamp(t, 0, e.duration)
	e.mu.Unlock()
}

// SetFocusTime anchors future zooms so this time stays centred.
func (e *Engine) SetFocusTime(t float64) {
	e.mu.Lock()
	t = clamp(t, 0, e.duration)
	e.focusTime = &t
	e.mu.Unlock()
}

// ZoomIn and ZoomOut apply the fixed zoom step.
func (e *Engine) ZoomIn() float64  { return e.Zoom(ZoomStep) }
func (e *Engine) ZoomOut() float64 { return e.Zoom(1 / ZoomStep) }

// Zoom multiplies the px/s level by factor, clamped to [MinPxPerSec,
// MaxPxPerSec], fixes the surface width to ceil(duration*pxPerSec), waits
// for the renderer's layout to settle, then recomputes scroll: centred on
// the focus time when one is set, otherwise clamped to the new range.
// Markers are repositioned against the new width. Returns the new px/s.
func (e *Engine) Zoom(factor float64) float64 {
	e.mu.Lock()
	if !e.loaded || factor <= 0 {
		level := e.pxPerSec
		e.mu.Unlock()
		return level
	}
	e.pxPerSec = clamp(e.pxPerSec*factor, MinPxPerSec, MaxPxPerSec)
	level := e.pxPerSec
	duration := e.duration
	focus := e.focusTime
	e.mu.Unlock()

	width := math.Ceil(duration * level)
	e.renderer.SetSurfaceWidth(width)
	<-e.renderer.LayoutSettled()

	viewport := e.renderer.Viewport()
	maxScroll := math.Max(0, width-viewport)
	if focus != nil {
		target := *focus/duration*width - viewport/2
		e.renderer.SetScroll(clamp(target, 0, maxScroll))
	} else {
		e.renderer.SetScroll(math.Min(e.renderer.Scroll(), maxScroll))
	}

	e.repositionMarkers(width)
	return level
}

// repositionMarkers re-projects the stored flags against the new surface
// width, recomputing from timestamps rather than scaling pixel positions so
// repeated zooms never accumulate drift.
func (e *Engine) repositionMarkers(width float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.flags) == 0 || e.duration <= 0 {
		return
	}
	desired := projectMarkers(e.flags, e.duration, width)
	ops := DiffMarkers(e.markers, desired)
	if len(ops) == 0 {
		return
	}
	e.renderer.ApplyMarkers(ops)
	next := make(map[uint]Marker, len(desired))
	for _, m := range desired {
		next[m.ID] = m
	}
	e.markers = next
}

// CurrentTime returns the playhead position in seconds.
func (e *Engine) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Duration returns the loaded recording length in seconds.
func (e *Engine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// Playing reports playback state.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// PxPerSec returns the current zoom level.
func (e *Engine) PxPerSec() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pxPerSec
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
