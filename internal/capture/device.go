package capture

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Stream is a live handle to the audio device's compressed output. Exactly
// one Session owns a Stream at a time; the Session closes it on stop.
type Stream interface {
	// Flush returns the compressed bytes produced since the previous call.
	// An empty slice is a valid result between media arrivals.
	Flush() ([]byte, error)
	// ContentType is the fixed container format the stream produces.
	ContentType() string
	Close() error
}

// Device opens capture streams. Opening fails when the device permission is
// denied; the caller reports that once and never starts the session.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// OpenSession opens a stream on the device and wraps it in a Session. A
// denied permission surfaces here, once, and no session is created.
func OpenSession(ctx context.Context, dev Device, log *logrus.Logger, opts ...Option) (*Session, error) {
	stream, err := dev.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture: open device: %w", err)
	}
	return NewSession(stream, log, opts...), nil
}
