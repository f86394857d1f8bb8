// Package snippet cuts a region out of a decoded recording and packages it
// as a standalone WAV asset.
package snippet

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/jaydeesquared/FlagIt/internal/audio"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

// Extractor slices snippets out of stored recordings.
type Extractor struct {
	decoder audio.Decoder
	log     *logrus.Logger
}

func NewExtractor(decoder audio.Decoder, log *logrus.Logger) *Extractor {
	if log == nil {
		log = logrus.New()
	}
	return &Extractor{decoder: decoder, log: log}
}

// Extract decodes the source blob and returns the [startSec, endSec) slice
// as a WAV blob. Sample boundaries floor toward zero; a degenerate or
// inverted range still yields at least one frame, matching the editor's
// minimum selection.
func (x *Extractor) Extract(ctx context.Context, blob audio.Blob, startSec, endSec float64) (audio.Blob, error) {
	const op = "snippet.Extractor.Extract"

	if startSec < 0 {
		startSec = 0
	}
	buf, err := x.decoder.Decode(ctx, blob)
	if err != nil {
		return audio.Blob{}, utils.E(utils.CodeDecodeFailed, op, "decode source recording", err)
	}

	sliced, err := Slice(buf, startSec, endSec)
	if err != nil {
		return audio.Blob{}, utils.E(utils.CodeInvalidArgument, op, "slice region", err)
	}

	data, err := audio.EncodeWAV(sliced)
	if err != nil {
		return audio.Blob{}, utils.E(utils.CodeInternal, op, "encode snippet wav", err)
	}

	x.log.WithFields(logrus.Fields{
		"start_sec": startSec,
		"end_sec":   endSec,
		"frames":    sliced.Frames(),
	}).Debug("snippet extracted")

	return audio.Blob{Data: data, ContentType: audio.MIMEWAV}, nil
}

// Slice copies the [startSec, endSec) frames of buf into a new buffer with
// the same channel layout and sample rate. frameCount is
// max(1, endSample-startSample); a start beyond the recording produces one
// frame of silence rather than failing.
func Slice(buf *audio.Buffer, startSec, endSec float64) (*audio.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	sr := float64(buf.SampleRate)
	startSample := int(math.Floor(startSec * sr))
	endSample := int(math.Floor(endSec * sr))
	frameCount := endSample - startSample
	if frameCount < 1 {
		frameCount = 1
	}

	out, err := audio.NewBuffer(buf.SampleRate, buf.Channels(), frameCount)
	if err != nil {
		return nil, err
	}
	total := buf.Frames()
	for ch := range buf.Data {
		lo := startSample
		if lo > total {
			lo = total
		}
		hi := startSample + frameCount
		if hi > total {
			hi = total
		}
		if lo < hi {
			copy(out.Data[ch], buf.Data[ch][lo:hi])
		}
	}
	return out, nil
}
