package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
)

// wavHeader is the canonical 44-byte RIFF/WAVE header for 16-bit PCM.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// EncodeWAV renders a PCM buffer as a 16-bit WAV byte sequence. Mono and
// stereo are supported; stereo frames are interleaved L/R.
func EncodeWAV(b *Buffer) ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if b.Frames() == 0 {
		return nil, fmt.Errorf("cannot encode empty audio buffer")
	}

	channels := uint16(b.Channels())
	const bitsPerSample = uint16(16)
	frames := b.Frames()
	dataSize := uint32(frames * int(channels) * 2)

	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   channels,
		SampleRate:    uint32(b.SampleRate),
		ByteRate:      uint32(b.SampleRate) * uint32(channels) * uint32(bitsPerSample) / 8,
		BlockAlign:    channels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+int(dataSize)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}

	interleaved := make([]int16, 0, frames*int(channels))
	for i := 0; i < frames; i++ {
		for c := 0; c < int(channels); c++ {
			interleaved = append(interleaved, FloatToInt16(b.Data[c][i]))
		}
	}
	if err := binary.Write(buf, binary.LittleEndian, interleaved); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeWAV parses a 16-bit PCM WAV byte sequence into a float buffer.
func DecodeWAV(data []byte) (*Buffer, error) {
	if len(data) < 44 {
		return nil, fmt.Errorf("WAV data too short: need at least 44 bytes, got %d", len(data))
	}

	rd := bytes.NewReader(data)
	var header wavHeader
	if err := binary.Read(rd, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read WAV header: %w", err)
	}

	if string(header.ChunkID[:]) != "RIFF" {
		return nil, fmt.Errorf("invalid WAV file: missing RIFF header")
	}
	if string(header.Format[:]) != "WAVE" {
		return nil, fmt.Errorf("invalid WAV file: missing WAVE format")
	}
	if string(header.Subchunk1ID[:]) != "fmt " {
		return nil, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}
	if string(header.Subchunk2ID[:]) != "data" {
		return nil, fmt.Errorf("invalid WAV file: missing data chunk")
	}
	if header.AudioFormat != 1 {
		return nil, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", header.AudioFormat)
	}
	if header.BitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (only 16-bit is supported)", header.BitsPerSample)
	}
	channels := int(header.NumChannels)
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}

	totalSamples := int(header.Subchunk2Size) / 2
	frames := totalSamples / channels
	if frames <= 0 {
		return nil, fmt.Errorf("no audio data found")
	}

	interleaved := make([]int16, frames*channels)
	if err := binary.Read(rd, binary.LittleEndian, interleaved); err != nil {
		return nil, fmt.Errorf("failed to read audio samples: %w", err)
	}

	out, err := NewBuffer(int(header.SampleRate), channels, frames)
	if err != nil {
		return nil, err
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			out.Data[c][i] = Int16ToFloat(interleaved[i*channels+c])
		}
	}
	return out, nil
}

// WAVDecoder is the built-in Decoder for the uncompressed container the
// snippet extractor emits. Other containers need an injected decoder.
type WAVDecoder struct{}

func (WAVDecoder) Decode(_ context.Context, blob Blob) (*Buffer, error) {
	if blob.ContentType != MIMEWAV {
		return nil, fmt.Errorf("unsupported container %q: only %s can be decoded natively", blob.ContentType, MIMEWAV)
	}
	return DecodeWAV(blob.Data)
}

func (WAVDecoder) Close() error { return nil }
