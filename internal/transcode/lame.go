package transcode

import (
	"bytes"
	"encoding/binary"

	lame "github.com/viert/go-lame"
)

// lameEncoder adapts the LAME codec to the BlockEncoder contract. LAME
// consumes interleaved little-endian PCM; stereo blocks are interleaved
// here before writing.
type lameEncoder struct {
	out      *bytes.Buffer
	enc      *lame.Encoder
	channels int
	closed   bool
}

// NewLameEncoder opens a LAME CBR encoder. It satisfies EncoderFactory.
func NewLameEncoder(channels, sampleRate, kbps int) (BlockEncoder, error) {
	out := &bytes.Buffer{}
	enc := lame.NewEncoder(out)
	if err := enc.SetNumChannels(channels); err != nil {
		return nil, err
	}
	if err := enc.SetInSamplerate(sampleRate); err != nil {
		return nil, err
	}
	if err := enc.SetBrate(kbps); err != nil {
		return nil, err
	}
	return &lameEncoder{out: out, enc: enc, channels: channels}, nil
}

func (l *lameEncoder) EncodeMono(samples []int16) ([]byte, error) {
	return l.write(samples)
}

func (l *lameEncoder) EncodeStereo(left, right []int16) ([]byte, error) {
	interleaved := make([]int16, 0, len(left)+len(right))
	for i := range left {
		interleaved = append(interleaved, left[i])
		if i < len(right) {
			interleaved = append(interleaved, right[i])
		} else {
			interleaved = append(interleaved, 0)
		}
	}
	return l.write(interleaved)
}

func (l *lameEncoder) write(samples []int16) ([]byte, error) {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	if _, err := l.enc.Write(pcm); err != nil {
		return nil, err
	}
	return l.drain(), nil
}

func (l *lameEncoder) Flush() ([]byte, error) {
	if l.closed {
		return nil, nil
	}
	l.closed = true
	l.enc.Close()
	return l.drain(), nil
}

func (l *lameEncoder) Close() error {
	if !l.closed {
		l.closed = true
		l.enc.Close()
	}
	return nil
}

func (l *lameEncoder) drain() []byte {
	data := make([]byte, l.out.Len())
	copy(data, l.out.Bytes())
	l.out.Reset()
	return data
}
