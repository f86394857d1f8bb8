package capture

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaydeesquared/FlagIt/internal/audio"
)

const (
	// MediaRecorder-equivalent cadence: flush the pipeline once per second,
	// refresh elapsed time ten times per second.
	flushInterval   = time.Second
	elapsedInterval = 100 * time.Millisecond

	// Voice-triggered markers are pulled back by the recognition latency
	// between utterance and detection callback.
	VoiceCorrectionMS = 1000
)

var ErrNoStream = errors.New("capture: no live stream available")

// Marker is a timestamped annotation recorded during a session.
type Marker struct {
	OffsetMS int64
	Source   string
	Voice    bool
}

// Result is the finished artifact of a stopped session.
type Result struct {
	Blob      audio.Blob
	ElapsedMS int64
	Markers   []Marker
}

// Session owns one live capture from start to stop: it chunks the stream's
// compressed output, tracks elapsed time and collects markers.
type Session struct {
	mu        sync.Mutex
	stream    Stream
	recording bool
	startTime time.Time
	elapsedMS int64
	chunks    [][]byte
	markers   []Marker

	// stopper is whatever must stop together with the session (the voice
	// trigger detector). Stop order: tickers, stream, stopper.
	stopper interface{ Stop() }

	onMarker func(Marker)
	clock    func() time.Time
	log      *logrus.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithMarkerListener registers a callback invoked for every accepted marker
// (the transient user-visible acknowledgment).
func WithMarkerListener(fn func(Marker)) Option {
	return func(s *Session) { s.onMarker = fn }
}

// WithDetector couples a voice trigger detector's lifetime to the session.
func WithDetector(d interface{ Stop() }) Option {
	return func(s *Session) { s.stopper = d }
}

func withClock(clock func() time.Time) Option {
	return func(s *Session) { s.clock = clock }
}

// NewSession wraps an already-opened stream. A nil stream is allowed; Start
// then reports ErrNoStream (permission was never granted).
func NewSession(stream Stream, log *logrus.Logger, opts ...Option) *Session {
	if log == nil {
		log = logrus.New()
	}
	s := &Session{
		stream: stream,
		clock:  time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins recording: resets chunks and elapsed time and launches the
// flush and elapsed tickers. Starting an already-recording session is an
// error; starting without a stream is reported once via ErrNoStream.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return ErrNoStream
	}
	if s.recording {
		return errors.New("capture: session already recording")
	}

	s.recording = true
	s.startTime = s.clock()
	s.elapsedMS = 0
	s.chunks = nil
	s.markers = nil
	s.stop = make(chan struct{})

	s.wg.Add(2)
	go s.runFlush()
	go s.runElapsed()

	s.log.WithField("content_type", s.stream.ContentType()).Info("capture session started")
	return nil
}

func (s *Session) runFlush() {
	defer s.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.flushOnce()
		}
	}
}

func (s *Session) flushOnce() {
	data, err := s.stream.Flush()
	if err != nil {
		// Mid-recording device trouble is logged and the session carries
		// on; a capture with zero chunks fails at finalize instead.
		s.log.WithError(err).Warn("chunk flush failed")
		return
	}
	if len(data) == 0 {
		return
	}
	s.mu.Lock()
	if s.recording {
		s.chunks = append(s.chunks, data)
	}
	s.mu.Unlock()
}

func (s *Session) runElapsed() {
	defer s.wg.Done()
	ticker := time.NewTicker(elapsedInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.recording {
				s.elapsedMS = s.clock().Sub(s.startTime).Milliseconds()
			}
			s.mu.Unlock()
		}
	}
}

// Stop finalizes the pipeline: stops both tickers, drains a final chunk,
// concatenates everything into one blob, stops the coupled detector and
// releases the stream. Calling Stop on a stopped session is a safe no-op.
func (s *Session) Stop() (Result, error) {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return Result{}, nil
	}
	s.recording = false
	elapsed := s.clock().Sub(s.startTime).Milliseconds()
	s.elapsedMS = elapsed
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()

	// Final drain so bytes produced since the last tick are not lost.
	if data, err := s.stream.Flush(); err == nil && len(data) > 0 {
		s.mu.Lock()
		s.chunks = append(s.chunks, data)
		s.mu.Unlock()
	}

	if s.stopper != nil {
		s.stopper.Stop()
	}
	if err := s.stream.Close(); err != nil {
		s.log.WithError(err).Warn("stream close failed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var size int
	for _, c := range s.chunks {
		size += len(c)
	}
	if size == 0 {
		return Result{}, errors.New("capture: no audio was captured")
	}
	data := make([]byte, 0, size)
	for _, c := range s.chunks {
		data = append(data, c...)
	}

	markers := make([]Marker, len(s.markers))
	copy(markers, s.markers)

	s.log.WithFields(logrus.Fields{
		"elapsed_ms": elapsed,
		"chunks":     len(s.chunks),
		"markers":    len(markers),
	}).Info("capture session stopped")

	return Result{
		Blob:      audio.Blob{Data: data, ContentType: s.stream.ContentType()},
		ElapsedMS: elapsed,
		Markers:   markers,
	}, nil
}

// AddMarker records a marker at the current elapsed offset. The recording
// state is read under the lock so a stale caller cannot mark a stopped
// session. Voice-triggered markers get the fixed backward correction,
// floored at zero.
func (s *Session) AddMarker(source string, voice bool) (Marker, bool) {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return Marker{}, false
	}
	offset := s.clock().Sub(s.startTime).Milliseconds()
	if voice {
		offset -= VoiceCorrectionMS
		if offset < 0 {
			offset = 0
		}
	}
	m := Marker{OffsetMS: offset, Source: source, Voice: voice}
	s.markers = append(s.markers, m)
	onMarker := s.onMarker
	s.mu.Unlock()

	if onMarker != nil {
		onMarker(m)
	}
	return m, true
}

// Recording reports whether the session is live.
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// ElapsedMS returns the last polled elapsed time.
func (s *Session) ElapsedMS() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedMS
}

// ChunkCount reports how many chunks have been flushed so far.
func (s *Session) ChunkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}
