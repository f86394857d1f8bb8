package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineBuffer(t *testing.T, sampleRate, channels int, durationSec float64) *Buffer {
	t.Helper()
	frames := int(float64(sampleRate) * durationSec)
	buf, err := NewBuffer(sampleRate, channels, frames)
	require.NoError(t, err)
	for c := 0; c < channels; c++ {
		for i := 0; i < frames; i++ {
			phase := float64(i) / float64(sampleRate)
			buf.Data[c][i] = float32(0.5 * math.Sin(2*math.Pi*440*phase))
		}
	}
	return buf
}

func TestEncodeDecodeWAVMono(t *testing.T) {
	src := sineBuffer(t, 8000, 1, 0.1)

	data, err := EncodeWAV(src)
	require.NoError(t, err)
	assert.Equal(t, 44+src.Frames()*2, len(data))

	out, err := DecodeWAV(data)
	require.NoError(t, err)
	assert.Equal(t, src.SampleRate, out.SampleRate)
	assert.Equal(t, 1, out.Channels())
	assert.Equal(t, src.Frames(), out.Frames())

	// 16-bit quantization bounds the round-trip error.
	for i := 0; i < src.Frames(); i += 37 {
		assert.InDelta(t, src.Data[0][i], out.Data[0][i], 1.0/16384)
	}
}

func TestEncodeDecodeWAVStereo(t *testing.T) {
	src := sineBuffer(t, 44100, 2, 0.05)
	src.Data[1][0] = -0.25 // make channels distinguishable

	data, err := EncodeWAV(src)
	require.NoError(t, err)

	out, err := DecodeWAV(data)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Channels())
	assert.Equal(t, src.Frames(), out.Frames())
	assert.InDelta(t, -0.25, out.Data[1][0], 1.0/16384)
}

func TestEncodeWAVRejectsEmptyBuffer(t *testing.T) {
	buf, err := NewBuffer(8000, 1, 0)
	require.NoError(t, err)
	_, err = EncodeWAV(buf)
	assert.Error(t, err)
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	cases := map[string][]byte{
		"too short":  {0x52, 0x49},
		"no riff":    make([]byte, 64),
		"bad format": append([]byte("RIFF\x00\x00\x00\x00AIFF"), make([]byte, 52)...),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeWAV(data)
			assert.Error(t, err)
		})
	}
}

func TestFloatToInt16Saturation(t *testing.T) {
	cases := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32768},
		{1.5, 32767},
		{-2, -32768},
		{0.5, 16383},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FloatToInt16(tc.in), "input %f", tc.in)
	}
}

func TestBufferValidate(t *testing.T) {
	buf, err := NewBuffer(44100, 2, 10)
	require.NoError(t, err)
	require.NoError(t, buf.Validate())

	buf.Data[1] = buf.Data[1][:5]
	assert.Error(t, buf.Validate())

	buf.SampleRate = 0
	assert.Error(t, buf.Validate())
}

func TestBufferDuration(t *testing.T) {
	buf, err := NewBuffer(44100, 1, 44100*10)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, buf.Duration(), 1e-9)
}
