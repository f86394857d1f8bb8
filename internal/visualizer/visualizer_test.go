package visualizer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	mu      sync.Mutex
	bins    []byte
	samples int
	closed  int
}

func (f *fakeAnalyzer) BinCount() int { return len(f.bins) }

func (f *fakeAnalyzer) FrequencyData(dst []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(dst, f.bins)
	f.samples++
	return nil
}

func (f *fakeAnalyzer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

type fakeRenderer struct {
	mu     sync.Mutex
	frames [][]Bar
}

func (f *fakeRenderer) DrawFrame(bars []Bar) {
	f.mu.Lock()
	f.frames = append(f.frames, bars)
	f.mu.Unlock()
}

func (f *fakeRenderer) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func TestLayoutScalesMagnitudes(t *testing.T) {
	bins := []byte{0, 255, 128}
	bars := Layout(bins, 600, 64)
	require.Len(t, bars, 3)

	barWidth := 600.0 / 3 * 2.5
	assert.InDelta(t, barWidth, bars[0].Width, 1e-9)

	// Heights scale magnitude/255 against the surface height.
	assert.Zero(t, bars[0].Height)
	assert.InDelta(t, 64.0, bars[1].Height, 1e-9)
	assert.InDelta(t, 128.0/255*64, bars[2].Height, 1e-9)

	// Bars anchor to the bottom edge.
	assert.InDelta(t, 0.0, bars[1].Y, 1e-9)
	assert.InDelta(t, 64-bars[2].Height, bars[2].Y, 1e-9)

	// Fixed 2px gap between bars.
	assert.InDelta(t, barWidth+2, bars[1].X, 1e-9)
	assert.InDelta(t, 2*(barWidth+2), bars[2].X, 1e-9)
}

func TestLayoutEmptyInput(t *testing.T) {
	assert.Nil(t, Layout(nil, 600, 64))
	assert.Nil(t, Layout([]byte{1}, 0, 64))
	assert.Nil(t, Layout([]byte{1}, 600, 0))
}

func TestRunSamplesOncePerFrame(t *testing.T) {
	an := &fakeAnalyzer{bins: []byte{10, 20, 30, 40}}
	rend := &fakeRenderer{}
	frames := make(chan time.Time)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	v := New(Config{Analyzer: an, Renderer: rend, Width: 600, Height: 64, Frames: frames, Logger: log})

	done := make(chan error, 1)
	go func() { done <- v.Run(context.Background()) }()

	frames <- time.Now()
	frames <- time.Now()
	require.Eventually(t, func() bool { return rend.frameCount() == 2 }, time.Second, time.Millisecond, "frames not drawn")

	v.Stop()
	require.NoError(t, <-done)

	assert.Equal(t, 1, an.closed)
	require.Len(t, rend.frames[0], 4)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	an := &fakeAnalyzer{bins: []byte{1}}
	rend := &fakeRenderer{}
	frames := make(chan time.Time)
	v := New(Config{Analyzer: an, Renderer: rend, Width: 100, Height: 50, Frames: frames})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 1, an.closed)
	assert.Zero(t, rend.frameCount())
}

func TestStopBeforeRunIsNoop(t *testing.T) {
	an := &fakeAnalyzer{bins: []byte{1}}
	v := New(Config{Analyzer: an, Renderer: &fakeRenderer{}, Width: 100, Height: 50, Frames: make(chan time.Time)})
	v.Stop()
	v.Stop()
	assert.Zero(t, an.closed)
}

func TestRowWidth(t *testing.T) {
	assert.Zero(t, RowWidth(0, 600))
	got := RowWidth(4, 600)
	barWidth := 600.0 / 4 * 2.5
	assert.InDelta(t, 4*(barWidth+2)-2, got, 1.0)
}
