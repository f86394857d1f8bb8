package audio

import (
	"context"
	"fmt"
)

// Known container types moved through the pipeline.
const (
	MIMEWebM = "audio/webm"
	MIMEWAV  = "audio/wav"
	MIMEMpeg = "audio/mpeg"
)

// Blob is an opaque compressed-audio artifact tagged with its container type.
type Blob struct {
	Data        []byte
	ContentType string
}

// Buffer holds decoded PCM audio: one float sample sequence per channel,
// all of equal length, samples in [-1, 1].
type Buffer struct {
	SampleRate int
	Data       [][]float32
}

// NewBuffer allocates a buffer with the given shape.
func NewBuffer(sampleRate, channels, frames int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
	if frames < 0 {
		return nil, fmt.Errorf("frame count must be non-negative, got %d", frames)
	}
	data := make([][]float32, channels)
	for i := range data {
		data[i] = make([]float32, frames)
	}
	return &Buffer{SampleRate: sampleRate, Data: data}, nil
}

func (b *Buffer) Channels() int { return len(b.Data) }

// Frames returns the per-channel sample count.
func (b *Buffer) Frames() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Validate checks the buffer invariants: positive sample rate, 1 or 2
// channels, all channel slices the same length.
func (b *Buffer) Validate() error {
	if b.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", b.SampleRate)
	}
	if len(b.Data) < 1 || len(b.Data) > 2 {
		return fmt.Errorf("unsupported channel count: %d", len(b.Data))
	}
	n := len(b.Data[0])
	for i, ch := range b.Data {
		if len(ch) != n {
			return fmt.Errorf("channel %d has %d samples, want %d", i, len(ch), n)
		}
	}
	return nil
}

// FloatToInt16 converts one float sample to 16-bit PCM, saturating at the
// boundaries. Negative samples scale by 0x8000, positive by 0x7fff.
func FloatToInt16(s float32) int16 {
	if s < -1 {
		s = -1
	}
	if s > 1 {
		s = 1
	}
	if s < 0 {
		return int16(s * 0x8000)
	}
	return int16(s * 0x7fff)
}

// Int16ToFloat converts one 16-bit PCM sample back to float in [-1, 1).
func Int16ToFloat(v int16) float32 {
	return float32(v) / 0x8000
}

// ChannelToInt16 converts a whole channel to 16-bit PCM.
func ChannelToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = FloatToInt16(s)
	}
	return out
}

// Decoder turns a compressed-audio blob into PCM. Implementations own any
// underlying decode resources; callers must Close in all paths.
type Decoder interface {
	Decode(ctx context.Context, blob Blob) (*Buffer, error)
	Close() error
}
