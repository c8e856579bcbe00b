package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// HeaderSize is the length of the canonical RIFF/WAVE PCM header.
const HeaderSize = 44

const formatPCM = 1

// Format describes raw linear PCM samples.
type Format struct {
	SampleRate  int // Hz
	Channels    int
	SampleWidth int // bytes per sample
}

// GradiumFormat is what the Gradium TTS stream carries: 48 kHz mono 16-bit.
var GradiumFormat = Format{SampleRate: 48000, Channels: 1, SampleWidth: 2}

// BlockAlign is the size of one frame across all channels.
func (f Format) BlockAlign() int {
	return f.Channels * f.SampleWidth
}

// ByteRate is the number of bytes per second of audio.
func (f Format) ByteRate() int {
	return f.SampleRate * f.BlockAlign()
}

// BitsPerSample is SampleWidth in bits.
func (f Format) BitsPerSample() int {
	return f.SampleWidth * 8
}

// Validate rejects formats a WAV header cannot describe.
func (f Format) Validate() error {
	switch {
	case f.SampleRate <= 0:
		return fmt.Errorf("invalid sample rate %d", f.SampleRate)
	case f.Channels <= 0 || f.Channels > math.MaxUint16:
		return fmt.Errorf("invalid channel count %d", f.Channels)
	case f.SampleWidth <= 0 || f.SampleWidth > 4:
		return fmt.Errorf("invalid sample width %d", f.SampleWidth)
	}
	return nil
}

// WrapPCM prepends a 44-byte WAV header to pcm.
func WrapPCM(pcm []byte, f Format) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if uint64(len(pcm)) > math.MaxUint32-36 {
		return nil, fmt.Errorf("pcm payload too large for WAV: %d bytes", len(pcm))
	}
	dataSize := uint32(len(pcm))

	out := make([]byte, HeaderSize, HeaderSize+len(pcm))
	le := binary.LittleEndian

	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], 36+dataSize) // file size - 8
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], 16) // fmt chunk size
	le.PutUint16(out[20:22], formatPCM)
	le.PutUint16(out[22:24], uint16(f.Channels))
	le.PutUint32(out[24:28], uint32(f.SampleRate))
	le.PutUint32(out[28:32], uint32(f.ByteRate()))
	le.PutUint16(out[32:34], uint16(f.BlockAlign()))
	le.PutUint16(out[34:36], uint16(f.BitsPerSample()))

	copy(out[36:40], "data")
	le.PutUint32(out[40:44], dataSize)

	return append(out, pcm...), nil
}

// Header is the parsed form of a canonical WAV header.
type Header struct {
	Format
	ChunkSize uint32
	ByteRate  uint32
	DataSize  uint32
}

// ErrNotWAV is returned by ParseHeader for anything but a canonical PCM WAV.
var ErrNotWAV = errors.New("not a canonical PCM WAV container")

// ParseHeader reads the 44-byte header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrNotWAV, len(b))
	}
	if !bytes.Equal(b[0:4], []byte("RIFF")) || !bytes.Equal(b[8:12], []byte("WAVE")) ||
		!bytes.Equal(b[12:16], []byte("fmt ")) || !bytes.Equal(b[36:40], []byte("data")) {
		return Header{}, ErrNotWAV
	}
	le := binary.LittleEndian
	if le.Uint16(b[20:22]) != formatPCM {
		return Header{}, fmt.Errorf("%w: format tag %d", ErrNotWAV, le.Uint16(b[20:22]))
	}
	return Header{
		Format: Format{
			SampleRate:  int(le.Uint32(b[24:28])),
			Channels:    int(le.Uint16(b[22:24])),
			SampleWidth: int(le.Uint16(b[34:36])) / 8,
		},
		ChunkSize: le.Uint32(b[4:8]),
		ByteRate:  le.Uint32(b[28:32]),
		DataSize:  le.Uint32(b[40:44]),
	}, nil
}

// wordsPerMinute is the reading pace duration estimates assume.
const wordsPerMinute = 150

// EstimateDuration estimates spoken length in seconds from the text, not the samples.
func EstimateDuration(text string, speed float64) float64 {
	if speed <= 0 {
		speed = 1
	}
	words := len(strings.Fields(text))
	seconds := float64(words) / wordsPerMinute * 60 / speed
	return math.Round(seconds*100) / 100
}
