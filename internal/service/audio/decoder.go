// Package audio reassembles synthesized speech into playable WAV containers.
//
// Synthesis endpoints answer with newline-delimited JSON: one object per
// line, "audio" objects carrying base64 PCM and "text" objects carrying
// progress messages. Decoder concatenates the audio chunks in wire order and
// wraps the result with a computed WAV header.
package audio

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"voice-outbound-service/internal/observability/metrics"
)

// ErrNoAudio is returned when a stream held no audio chunk at all.
var ErrNoAudio = errors.New("no audio payload received")

// Line kinds recognized in the stream.
const (
	KindAudio = "audio"
	KindText  = "text"
)

const (
	// maxLineBytes bounds a single NDJSON line. Audio chunks are base64 and can be large.
	maxLineBytes    = 16 * 1024 * 1024
	readBufferBytes = 64 * 1024
)

type chunk struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
	Text  string `json:"text"`
}

// Stats summarizes one decode.
type Stats struct {
	AudioChunks  int
	TextMessages int
	Skipped      int
	PCMBytes     int
}

// Decoder turns an NDJSON synthesis stream into a WAV container.
type Decoder struct {
	format  Format
	maxLine int
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewDecoder creates a decoder producing containers in the given format.
func NewDecoder(f Format) *Decoder {
	return &Decoder{
		format:  f,
		maxLine: maxLineBytes,
		logger:  log.With().Str("component", "audio-decoder").Logger(),
		metrics: metrics.DefaultMetrics,
	}
}

// Decode reads the whole stream and returns a WAV container.
func (d *Decoder) Decode(r io.Reader) ([]byte, Stats, error) {
	pcm, stats, err := d.ReadPCM(r)
	if err != nil {
		return nil, stats, err
	}
	wav, err := WrapPCM(pcm, d.format)
	if err != nil {
		return nil, stats, err
	}
	return wav, stats, nil
}

// ReadPCM concatenates the decoded audio chunks in the order they appear.
// Malformed and oversized lines are skipped; only a read failure or an
// audio-free stream is an error.
func (d *Decoder) ReadPCM(r io.Reader) ([]byte, Stats, error) {
	var (
		pcm       bytes.Buffer
		stats     Stats
		line      []byte
		oversized bool
	)

	br := bufio.NewReaderSize(r, readBufferBytes)
	for {
		frag, err := br.ReadSlice('\n')
		if !oversized {
			if len(line)+len(frag) > d.maxLine {
				oversized = true
				line = line[:0]
			} else {
				line = append(line, frag...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		if oversized {
			d.skip(&stats, "line too long")
		} else {
			d.handleLine(bytes.TrimSpace(line), &pcm, &stats)
		}
		line = line[:0]
		oversized = false

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, err
		}
	}

	if pcm.Len() == 0 {
		return nil, stats, ErrNoAudio
	}
	stats.PCMBytes = pcm.Len()
	return pcm.Bytes(), stats, nil
}

func (d *Decoder) handleLine(line []byte, pcm *bytes.Buffer, stats *Stats) {
	if len(line) == 0 {
		return
	}

	var c chunk
	if err := json.Unmarshal(line, &c); err != nil {
		d.skip(stats, "invalid JSON")
		return
	}

	switch strings.ToLower(c.Type) {
	case KindAudio:
		if c.Audio == "" {
			d.skip(stats, "empty audio chunk")
			return
		}
		raw, err := base64.StdEncoding.DecodeString(c.Audio)
		if err != nil {
			d.skip(stats, "invalid base64")
			return
		}
		pcm.Write(raw)
		stats.AudioChunks++
	case KindText:
		stats.TextMessages++
		d.logger.Debug().Str("text", c.Text).Msg("Synthesis progress")
	default:
		d.skip(stats, "unknown chunk type")
	}
}

func (d *Decoder) skip(stats *Stats, reason string) {
	stats.Skipped++
	d.metrics.RecordSkippedLine()
	d.logger.Debug().Str("reason", reason).Msg("Skipping stream line")
}
