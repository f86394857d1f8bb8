package snippet

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaydeesquared/FlagIt/internal/audio"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

func rampBuffer(t *testing.T, sampleRate, channels, frames int) *audio.Buffer {
	t.Helper()
	buf, err := audio.NewBuffer(sampleRate, channels, frames)
	require.NoError(t, err)
	for ch := range buf.Data {
		for i := range buf.Data[ch] {
			buf.Data[ch][i] = float32(i%100) / 200
		}
	}
	return buf
}

func TestSliceTwoSecondRegion(t *testing.T) {
	// 2s selection out of a 44.1kHz recording: exactly 88200 frames.
	buf := rampBuffer(t, 44100, 1, 44100*5)
	out, err := Slice(buf, 1.5, 3.5)
	require.NoError(t, err)

	assert.Equal(t, 88200, out.Frames())
	assert.Equal(t, 44100, out.SampleRate)
	assert.Equal(t, 1, out.Channels())

	// Content starts at floor(1.5*44100).
	start := 66150
	for i := 0; i < 10; i++ {
		assert.Equal(t, buf.Data[0][start+i], out.Data[0][i])
	}
}

func TestSliceFloorsSampleBoundaries(t *testing.T) {
	buf := rampBuffer(t, 8000, 1, 8000)
	out, err := Slice(buf, 0.10009, 0.5)
	require.NoError(t, err)
	// startSample = floor(0.10009*8000) = 800
	assert.Equal(t, buf.Data[0][800], out.Data[0][0])
	assert.Equal(t, 4000-800, out.Frames())
}

func TestSliceDegenerateRangeYieldsOneFrame(t *testing.T) {
	buf := rampBuffer(t, 8000, 1, 8000)

	out, err := Slice(buf, 0.5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Frames())

	out, err = Slice(buf, 0.6, 0.4) // inverted
	require.NoError(t, err)
	assert.Equal(t, 1, out.Frames())
}

func TestSliceBeyondEndPadsSilence(t *testing.T) {
	buf := rampBuffer(t, 8000, 1, 8000)
	out, err := Slice(buf, 0.9, 1.2)
	require.NoError(t, err)
	assert.Equal(t, 2400, out.Frames())
	// Frames past the recording stay zero.
	assert.Zero(t, out.Data[0][1001])
	assert.Equal(t, buf.Data[0][7301], out.Data[0][101])
}

func TestSliceStereoCopiesBothChannels(t *testing.T) {
	buf := rampBuffer(t, 8000, 2, 8000)
	buf.Data[1][900] = 0.42
	out, err := Slice(buf, 0.1, 0.2)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Channels())
	assert.Equal(t, float32(0.42), out.Data[1][100])
}

func TestExtractProducesWAV(t *testing.T) {
	src := rampBuffer(t, 8000, 1, 8000)
	wav, err := audio.EncodeWAV(src)
	require.NoError(t, err)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	x := NewExtractor(audio.WAVDecoder{}, log)

	out, err := x.Extract(context.Background(), audio.Blob{Data: wav, ContentType: audio.MIMEWAV}, 0.25, 0.75)
	require.NoError(t, err)
	assert.Equal(t, audio.MIMEWAV, out.ContentType)

	decoded, err := audio.DecodeWAV(out.Data)
	require.NoError(t, err)
	assert.Equal(t, 4000, decoded.Frames())
	assert.Equal(t, 8000, decoded.SampleRate)
}

func TestExtractDecodeFailure(t *testing.T) {
	x := NewExtractor(failingDecoder{}, nil)
	_, err := x.Extract(context.Background(), audio.Blob{Data: []byte{1}, ContentType: audio.MIMEWebM}, 0, 1)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeDecodeFailed))
}

type failingDecoder struct{}

func (failingDecoder) Decode(context.Context, audio.Blob) (*audio.Buffer, error) {
	return nil, errors.New("unsupported container")
}

func (failingDecoder) Close() error { return nil }
