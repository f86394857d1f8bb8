package trigger

import (
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State of the detector's listening engine.
type State int

const (
	StateIdle State = iota
	StateListening
	StateError
)

func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// Phrases that add a flag when they appear in a final transcript. English
// plus the localized equivalents the recorder ships with.
var triggerPhrases = []string{
	"flag it",
	"flag that",
	"flagit",
	"tandai itu",
	"tandai ini",
}

const restartRetryDelay = 300 * time.Millisecond

// Detector is the voice trigger state machine layered on a capture session.
// It is best effort by design: recognition failures never block or fail the
// recording.
type Detector struct {
	rec      Recognizer
	voiceTag string

	mu            sync.Mutex
	state         State
	active        bool // owning capture session still wants us
	userActivated bool

	addMarker  func(source string, voice bool) bool
	recording  func() bool
	onAdvisory func(msg string)

	retryDelay time.Duration
	log        *logrus.Logger

	wg sync.WaitGroup
}

// Config wires a Detector.
type Config struct {
	Recognizer Recognizer
	// AddMarker appends a voice marker to the owning session; returns
	// whether the marker was accepted.
	AddMarker func(source string, voice bool) bool
	// Recording reports whether the owning capture session is live.
	Recording func() bool
	// OnAdvisory surfaces one-line notices for non-transient errors.
	OnAdvisory func(msg string)
	// UserActivated must be true before auto-restart is attempted
	// (platform activation policy).
	UserActivated bool
	Logger        *logrus.Logger
}

func NewDetector(cfg Config) *Detector {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Detector{
		rec:           cfg.Recognizer,
		voiceTag:      "Voice Triggered",
		addMarker:     cfg.AddMarker,
		recording:     cfg.Recording,
		onAdvisory:    cfg.OnAdvisory,
		userActivated: cfg.UserActivated,
		retryDelay:    restartRetryDelay,
		log:           log,
	}
}

// Start arms the detector. A recognizer start failure is non-fatal: the
// detector stays idle and the recording proceeds without voice triggers.
func (d *Detector) Start() {
	d.mu.Lock()
	if d.active || d.rec == nil {
		d.mu.Unlock()
		return
	}
	d.active = true
	d.mu.Unlock()

	if err := d.rec.Start(); err != nil {
		d.log.WithError(err).Debug("recognizer start failed; voice triggers disabled")
		d.setState(StateIdle)
	} else {
		d.setState(StateListening)
	}

	d.wg.Add(1)
	go d.loop()
}

// Stop disarms the detector and stops the recognizer. Safe to call twice.
func (d *Detector) Stop() {
	d.mu.Lock()
	if !d.active {
		d.mu.Unlock()
		return
	}
	d.active = false
	d.mu.Unlock()

	d.rec.Stop()
	d.wg.Wait()
	d.setState(StateIdle)
}

// State returns the current engine state.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Detector) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

func (d *Detector) isActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

func (d *Detector) loop() {
	defer d.wg.Done()
	for ev := range d.rec.Events() {
		switch ev.Kind {
		case EventResult:
			d.handleResult(ev)
		case EventError:
			d.handleError(ev)
		case EventEnd:
			if !d.handleEnd() {
				return
			}
		}
	}
}

func (d *Detector) handleResult(ev Event) {
	if !ev.Final {
		return // interim results are ignored
	}
	transcript := strings.TrimSpace(strings.ToLower(ev.Transcript))
	if !MatchesTrigger(transcript) {
		return
	}
	if d.recording != nil && !d.recording() {
		return
	}
	if d.addMarker != nil && d.addMarker(d.voiceTag, true) {
		d.log.WithField("transcript", transcript).Info("voice trigger matched")
	}
}

func (d *Detector) handleError(ev Event) {
	d.setState(StateError)
	switch ev.Code {
	case ErrNoSpeech, ErrAborted:
		// Transient; the following end event re-arms the engine.
		d.log.WithField("code", ev.Code).Debug("transient recognition error")
	default:
		d.log.WithField("code", ev.Code).Warn("recognition error")
		if d.onAdvisory != nil {
			d.onAdvisory("voice triggers unavailable: " + ev.Code)
		}
	}
}

// handleEnd processes a natural termination. Returns false when the loop
// should exit (detector no longer re-armed).
func (d *Detector) handleEnd() bool {
	stillWanted := d.isActive() && (d.recording == nil || d.recording())

	d.mu.Lock()
	canRestart := stillWanted && d.userActivated
	d.mu.Unlock()

	if !canRestart {
		d.setState(StateIdle)
		return false
	}

	if err := d.rec.Start(); err != nil {
		// Immediate re-arm failed; one more attempt after a fixed delay.
		delay := d.retryDelay
		d.log.WithError(err).Debug("recognizer restart failed, retrying")
		time.AfterFunc(delay, func() {
			if !d.isActive() {
				return
			}
			if rerr := d.rec.Start(); rerr != nil {
				d.log.WithError(rerr).Debug("recognizer retry failed")
				d.setState(StateIdle)
				return
			}
			d.setState(StateListening)
		})
		return true
	}

	d.setState(StateListening)
	return true
}

// MatchesTrigger tests a lower-cased, trimmed transcript for substring
// membership in the trigger phrase set. First match wins.
func MatchesTrigger(transcript string) bool {
	for _, phrase := range triggerPhrases {
		if strings.Contains(transcript, phrase) {
			return true
		}
	}
	return false
}
