package trigger

// EventKind discriminates recognizer events.
type EventKind int

const (
	// EventResult carries a recognized transcript.
	EventResult EventKind = iota
	// EventEnd signals the natural termination of a listening pass.
	EventEnd
	// EventError carries an engine error code.
	EventError
)

// Recognizer error codes shared across implementations. no-speech and
// aborted are transient and never surfaced to the user.
const (
	ErrNoSpeech   = "no-speech"
	ErrAborted    = "aborted"
	ErrNetwork    = "network"
	ErrNotAllowed = "not-allowed"
)

// Event is one recognizer notification.
type Event struct {
	Kind       EventKind
	Transcript string
	Final      bool
	Code       string
}

// Recognizer is the injected speech engine. Start may fail when a pass is
// already running; Events delivers results, natural ends and errors until
// Stop. The detector layers restart and matching logic on top.
type Recognizer interface {
	Start() error
	Stop()
	Events() <-chan Event
}
