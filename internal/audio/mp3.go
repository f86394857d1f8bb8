package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes audio/mpeg blobs. The underlying decoder always
// produces 16-bit interleaved stereo PCM at the source sample rate.
type MP3Decoder struct{}

func (MP3Decoder) Decode(_ context.Context, blob Blob) (*Buffer, error) {
	if blob.ContentType != MIMEMpeg {
		return nil, fmt.Errorf("mp3 decoder got %q", blob.ContentType)
	}
	dec, err := mp3.NewDecoder(bytes.NewReader(blob.Data))
	if err != nil {
		return nil, fmt.Errorf("open mp3 stream: %w", err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decode mp3 stream: %w", err)
	}

	// Interleaved L/R, 4 bytes per frame.
	frames := len(pcm) / 4
	buf, err := NewBuffer(dec.SampleRate(), 2, frames)
	if err != nil {
		return nil, err
	}
	for i := 0; i < frames; i++ {
		l := int16(uint16(pcm[i*4]) | uint16(pcm[i*4+1])<<8)
		r := int16(uint16(pcm[i*4+2]) | uint16(pcm[i*4+3])<<8)
		buf.Data[0][i] = Int16ToFloat(l)
		buf.Data[1][i] = Int16ToFloat(r)
	}
	return buf, nil
}

func (MP3Decoder) Close() error { return nil }

// DecoderMux routes blobs to a decoder by content type.
type DecoderMux struct {
	decoders map[string]Decoder
}

func NewDecoderMux() *DecoderMux {
	return &DecoderMux{decoders: map[string]Decoder{
		MIMEWAV:  WAVDecoder{},
		MIMEMpeg: MP3Decoder{},
	}}
}

// Register adds or replaces the decoder for a content type.
func (m *DecoderMux) Register(contentType string, dec Decoder) {
	m.decoders[contentType] = dec
}

func (m *DecoderMux) Decode(ctx context.Context, blob Blob) (*Buffer, error) {
	dec, ok := m.decoders[blob.ContentType]
	if !ok {
		return nil, fmt.Errorf("no decoder for %q", blob.ContentType)
	}
	return dec.Decode(ctx, blob)
}

func (m *DecoderMux) Close() error {
	var first error
	for _, dec := range m.decoders {
		if err := dec.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
