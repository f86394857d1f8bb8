// Package transcode converts captured audio into MP3 for storage and
// sharing. Decoding and MP3 encoding are injected so the conversion logic
// can be exercised without a codec installed.
package transcode

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/jaydeesquared/FlagIt/internal/audio"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

// BlockSize is the number of samples fed to the encoder per block, the MP3
// frame granule size.
const BlockSize = 1152

// Bitrate is the fixed CBR encoding bitrate in kbps.
const Bitrate = 128

// BlockEncoder encodes 16-bit PCM blocks into an MP3 stream. Flush drains
// the encoder tail; Close releases the underlying codec.
type BlockEncoder interface {
	EncodeMono(samples []int16) ([]byte, error)
	EncodeStereo(left, right []int16) ([]byte, error)
	Flush() ([]byte, error)
	Close() error
}

// EncoderFactory opens a BlockEncoder for the given channel layout.
type EncoderFactory func(channels, sampleRate, kbps int) (BlockEncoder, error)

// Transcoder converts arbitrary audio blobs to audio/mpeg.
type Transcoder struct {
	decoder    audio.Decoder
	newEncoder EncoderFactory
	log        *logrus.Logger
}

func New(decoder audio.Decoder, newEncoder EncoderFactory, log *logrus.Logger) *Transcoder {
	if log == nil {
		log = logrus.New()
	}
	return &Transcoder{decoder: decoder, newEncoder: newEncoder, log: log}
}

// Convert returns an audio/mpeg rendition of blob. A blob that is already
// MP3 is returned as-is without re-encoding. A decode failure aborts only
// this conversion.
func (t *Transcoder) Convert(ctx context.Context, blob audio.Blob) (audio.Blob, error) {
	const op = "Transcoder.Convert"

	if blob.ContentType == audio.MIMEMpeg {
		return blob, nil
	}

	buf, err := t.decoder.Decode(ctx, blob)
	if err != nil {
		return audio.Blob{}, utils.E(utils.CodeDecodeFailed, op, "decode source audio", err)
	}

	data, err := t.encode(buf)
	if err != nil {
		return audio.Blob{}, utils.E(utils.CodeInternal, op, "encode mp3", err)
	}

	t.log.WithFields(logrus.Fields{
		"channels":    buf.Channels(),
		"sample_rate": buf.SampleRate,
		"bytes":       len(data),
	}).Debug("transcoded to mp3")

	return audio.Blob{Data: data, ContentType: audio.MIMEMpeg}, nil
}

func (t *Transcoder) encode(buf *audio.Buffer) ([]byte, error) {
	channels := buf.Channels()
	if channels > 2 {
		channels = 2
	}
	enc, err := t.newEncoder(channels, buf.SampleRate, Bitrate)
	if err != nil {
		return nil, err
	}
	defer enc.Close()

	if channels == 1 {
		return encodeMono(enc, audio.ChannelToInt16(buf.Data[0]))
	}
	return encodeStereo(enc, audio.ChannelToInt16(buf.Data[0]), audio.ChannelToInt16(buf.Data[1]))
}

func encodeMono(enc BlockEncoder, samples []int16) ([]byte, error) {
	var out []byte
	for i := 0; i < len(samples); i += BlockSize {
		end := i + BlockSize
		if end > len(samples) {
			end = len(samples)
		}
		chunk, err := enc.EncodeMono(samples[i:end])
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return appendFlush(enc, out)
}

func encodeStereo(enc BlockEncoder, left, right []int16) ([]byte, error) {
	var out []byte
	for i := 0; i < len(left); i += BlockSize {
		end := i + BlockSize
		if end > len(left) {
			end = len(left)
		}
		rend := end
		if rend > len(right) {
			rend = len(right)
		}
		ri := i
		if ri > len(right) {
			ri = len(right)
		}
		chunk, err := enc.EncodeStereo(left[i:end], right[ri:rend])
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return appendFlush(enc, out)
}

func appendFlush(enc BlockEncoder, out []byte) ([]byte, error) {
	tail, err := enc.Flush()
	if err != nil {
		return nil, err
	}
	return append(out, tail...), nil
}
