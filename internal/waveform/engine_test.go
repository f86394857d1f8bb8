package waveform

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaydeesquared/FlagIt/internal/audio"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

type fakeRenderer struct {
	renderErr error
	renders   int
	width     float64
	viewport  float64
	scroll    float64
	settled   chan struct{}
	applied   [][]MarkerOp
	destroyed int
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{viewport: 800, settled: make(chan struct{}, 8)}
}

func (f *fakeRenderer) Render(buf *audio.Buffer, pxPerSec float64) error {
	if f.renderErr != nil {
		return f.renderErr
	}
	f.renders++
	f.width = math.Ceil(buf.Duration() * pxPerSec)
	return nil
}

func (f *fakeRenderer) SetSurfaceWidth(px float64) {
	f.width = px
	f.settled <- struct{}{}
}

func (f *fakeRenderer) SurfaceWidth() float64          { return f.width }
func (f *fakeRenderer) Viewport() float64              { return f.viewport }
func (f *fakeRenderer) SetScroll(px float64)           { f.scroll = px }
func (f *fakeRenderer) Scroll() float64                { return f.scroll }
func (f *fakeRenderer) ApplyMarkers(ops []MarkerOp)    { f.applied = append(f.applied, ops) }
func (f *fakeRenderer) LayoutSettled() <-chan struct{} { return f.settled }
func (f *fakeRenderer) Destroy() error                 { f.destroyed++; return nil }

type stubDecoder struct {
	buf *audio.Buffer
	err error
}

func (s stubDecoder) Decode(context.Context, audio.Blob) (*audio.Buffer, error) {
	return s.buf, s.err
}

func (s stubDecoder) Close() error { return nil }

func secondsBuffer(t *testing.T, seconds float64) *audio.Buffer {
	t.Helper()
	buf, err := audio.NewBuffer(44100, 1, int(seconds*44100))
	require.NoError(t, err)
	return buf
}

func loadedEngine(t *testing.T, seconds float64) (*Engine, *fakeRenderer) {
	t.Helper()
	rend := newFakeRenderer()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	e := NewEngine(Config{
		Decoder:  stubDecoder{buf: secondsBuffer(t, seconds)},
		Renderer: rend,
		Logger:   log,
	})
	require.NoError(t, e.Load(context.Background(), audio.Blob{Data: []byte{1}, ContentType: audio.MIMEWAV}))
	return e, rend
}

func TestLoadInitialZoom(t *testing.T) {
	e, rend := loadedEngine(t, 60)
	assert.InDelta(t, 60.0, e.Duration(), 1e-6)
	assert.InDelta(t, InitialPxPerSec, e.PxPerSec(), 1e-9)
	assert.Equal(t, 1, rend.renders)
	assert.InDelta(t, 3000.0, rend.SurfaceWidth(), 1e-9)
}

func TestLoadDecodeFailure(t *testing.T) {
	rend := newFakeRenderer()
	e := NewEngine(Config{Decoder: stubDecoder{err: errors.New("bad container")}, Renderer: rend})
	err := e.Load(context.Background(), audio.Blob{Data: []byte{1}, ContentType: audio.MIMEWebM})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeDecodeFailed))
	assert.Zero(t, e.Duration())
	assert.Zero(t, rend.renders)
}

func TestLoadEmptyBlob(t *testing.T) {
	rend := newFakeRenderer()
	e := NewEngine(Config{Decoder: stubDecoder{}, Renderer: rend})
	err := e.Load(context.Background(), audio.Blob{})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestReloadTearsDownMarkers(t *testing.T) {
	e, rend := loadedEngine(t, 60)
	e.SetFlagMarkers([]Flag{{ID: 1, TimestampMS: 5000}})
	require.Len(t, rend.applied, 1)

	require.NoError(t, e.Load(context.Background(), audio.Blob{Data: []byte{1}, ContentType: audio.MIMEWAV}))
	// The reload removed the stale marker before rendering.
	require.Len(t, rend.applied, 2)
	assert.Equal(t, MarkerRemove, rend.applied[1][0].Kind)
}

func TestMarkerProjection(t *testing.T) {
	e, rend := loadedEngine(t, 60) // width 3000
	e.SetFlagMarkers([]Flag{
		{ID: 1, TimestampMS: 15000, Color: "red", Description: "good part"},
		{ID: 2, TimestampMS: 30000},
	})

	require.Len(t, rend.applied, 1)
	ops := rend.applied[0]
	require.Len(t, ops, 2)

	// position = (ms/1000)/duration * surfaceWidth
	assert.Equal(t, MarkerAdd, ops[0].Kind)
	assert.InDelta(t, 15.0/60*3000, ops[0].Marker.Position, 1e-9)
	assert.Equal(t, "#ef4444", ops[0].Marker.Color)
	assert.Equal(t, "good part", ops[0].Marker.Tooltip)

	// Unset color renders green, empty description gets the default tooltip.
	assert.InDelta(t, 1500.0, ops[1].Marker.Position, 1e-9)
	assert.Equal(t, "#10b981", ops[1].Marker.Color)
	assert.Equal(t, "Flagged Moment", ops[1].Marker.Tooltip)
}

func TestMarkerDiffUpdatesInPlace(t *testing.T) {
	e, rend := loadedEngine(t, 60)
	e.SetFlagMarkers([]Flag{{ID: 1, TimestampMS: 5000}, {ID: 2, TimestampMS: 9000}})
	require.Len(t, rend.applied, 1)

	// Same set again: nothing to apply.
	e.SetFlagMarkers([]Flag{{ID: 1, TimestampMS: 5000}, {ID: 2, TimestampMS: 9000}})
	assert.Len(t, rend.applied, 1)

	// Move one, drop one, add one.
	e.SetFlagMarkers([]Flag{{ID: 1, TimestampMS: 7000}, {ID: 3, TimestampMS: 1000}})
	require.Len(t, rend.applied, 2)
	kinds := map[MarkerOpKind]int{}
	for _, op := range rend.applied[1] {
		kinds[op.Kind]++
	}
	assert.Equal(t, map[MarkerOpKind]int{MarkerAdd: 1, MarkerUpdate: 1, MarkerRemove: 1}, kinds)
}

func TestRegionPlaySnapsToStart(t *testing.T) {
	e, _ := loadedEngine(t, 60)
	e.SetRegion(10, 20)

	// Before the region (beyond tolerance) snaps forward.
	e.Seek(2)
	e.Play()
	assert.InDelta(t, 10.0, e.CurrentTime(), 1e-9)

	// Inside the region plays from where it is.
	e.Pause()
	e.Seek(14)
	e.Play()
	assert.InDelta(t, 14.0, e.CurrentTime(), 1e-9)

	// Within the start tolerance no snap happens.
	e.Pause()
	e.Seek(9.95)
	e.Play()
	assert.InDelta(t, 9.95, e.CurrentTime(), 1e-9)

	// At or past end-0.05 snaps back to start.
	e.Pause()
	e.Seek(19.97)
	e.Play()
	assert.InDelta(t, 10.0, e.CurrentTime(), 1e-9)
}

func TestAdvanceCrossingRegionEndPausesAndRewinds(t *testing.T) {
	e, _ := loadedEngine(t, 60)
	e.SetRegion(10, 20)
	e.Seek(19.5)
	e.Play()
	require.True(t, e.Playing())

	e.Advance(0.6)
	assert.False(t, e.Playing(), "single pass, not a loop")
	assert.InDelta(t, 10.0, e.CurrentTime(), 1e-9)
}

func TestAdvanceStopsAtEndOfRecording(t *testing.T) {
	e, _ := loadedEngine(t, 60)
	e.Seek(59.9)
	e.Play()
	e.Advance(0.5)
	assert.False(t, e.Playing())
	assert.InDelta(t, 60.0, e.CurrentTime(), 1e-6)
}

func TestSetRegionClampsBounds(t *testing.T) {
	e, _ := loadedEngine(t, 60)
	var got Region
	e.onRegionChange = func(r Region) { got = r }

	r := e.SetRegion(-5, 75)
	assert.InDelta(t, 0.0, r.Start, 1e-9)
	assert.InDelta(t, 60.0, r.End, 1e-9)
	assert.Equal(t, r, got)

	// Inverted bounds are forced back to start < end.
	r = e.SetRegion(30, 30)
	assert.Less(t, r.Start, r.End)
}

func TestZoomClampAndWidth(t *testing.T) {
	e, rend := loadedEngine(t, 60)

	level := e.ZoomIn()
	assert.InDelta(t, 75.0, level, 1e-9)
	assert.InDelta(t, math.Ceil(60*75.0), rend.SurfaceWidth(), 1e-9)

	// Repeated zoom out pins at the lower bound.
	for i := 0; i < 10; i++ {
		level = e.ZoomOut()
	}
	assert.InDelta(t, MinPxPerSec, level, 1e-9)
	assert.InDelta(t, 600.0, rend.SurfaceWidth(), 1e-9)

	for i := 0; i < 20; i++ {
		level = e.ZoomIn()
	}
	assert.InDelta(t, MaxPxPerSec, level, 1e-9)
}

func TestZoomCentresFocusTime(t *testing.T) {
	e, rend := loadedEngine(t, 60)
	e.SetFocusTime(30)

	e.ZoomIn() // 75 px/s, width 4500
	// target = (30/60)*4500 - 800/2 = 1850
	assert.InDelta(t, 1850.0, rend.Scroll(), 1e-9)
}

func TestZoomScrollClampedWithoutFocus(t *testing.T) {
	e, rend := loadedEngine(t, 60)
	e.ZoomIn() // width 4500
	rend.scroll = 3900

	e.ZoomOut() // back to 50 px/s, width 3000, maxScroll 2200
	assert.InDelta(t, 2200.0, rend.Scroll(), 1e-9)
}

func TestZoomFocusNearStartClampsToZero(t *testing.T) {
	e, rend := loadedEngine(t, 60)
	e.SetFocusTime(1)
	e.ZoomIn()
	assert.InDelta(t, 0.0, rend.Scroll(), 1e-9)
}

func TestZoomRepositionsMarkers(t *testing.T) {
	e, rend := loadedEngine(t, 60)
	e.SetFlagMarkers([]Flag{{ID: 1, TimestampMS: 30000}})
	require.Len(t, rend.applied, 1)

	e.ZoomIn() // width 4500
	require.Len(t, rend.applied, 2)
	op := rend.applied[1][0]
	assert.Equal(t, MarkerUpdate, op.Kind)
	assert.InDelta(t, 30.0/60*4500, op.Marker.Position, 1e-9)
}

func TestClickMarkerConsumesEvent(t *testing.T) {
	e, _ := loadedEngine(t, 60)
	var clicked []uint
	e.onMarkerClick = func(id uint) { clicked = append(clicked, id) }
	e.SetFlagMarkers([]Flag{{ID: 7, TimestampMS: 5000}})

	e.ClickMarker(7)
	assert.Equal(t, []uint{7}, clicked)
	_, pending := e.TakeClickTime()
	assert.False(t, pending, "marker click must not double as a waveform click")

	e.ClickMarker(99) // unknown id is ignored
	assert.Len(t, clicked, 1)
}

func TestClickAtIsHeldUntilTaken(t *testing.T) {
	e, _ := loadedEngine(t, 60) // width 3000
	e.ClickAt(1500)

	tm, ok := e.TakeClickTime()
	require.True(t, ok)
	assert.InDelta(t, 30.0, tm, 1e-9)

	_, ok = e.TakeClickTime()
	assert.False(t, ok, "click position is consumed once")
}

func TestCloseDestroysRenderer(t *testing.T) {
	e, rend := loadedEngine(t, 60)
	require.NoError(t, e.Close())
	assert.Equal(t, 1, rend.destroyed)
	assert.Zero(t, e.Duration())
}
