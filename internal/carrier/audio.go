package carrier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Canonical PCM layout produced by the transcoder.
const (
	CanonicalSampleRate = 44100
	CanonicalChannels   = 2
	CanonicalBitDepth   = 16
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// AudioCarrier hides bits in PCM sample amplitudes, one unit per sample of
// every channel.
type AudioCarrier struct {
	buf      *audio.IntBuffer
	bitDepth int
}

// NewAudioCarrier wraps interleaved samples in the given format.
func NewAudioCarrier(samples []int, sampleRate, channels, bitDepth int) *AudioCarrier {
	return &AudioCarrier{
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
			Data:           append([]int(nil), samples...),
			SourceBitDepth: bitDepth,
		},
		bitDepth: bitDepth,
	}
}

// IsPCM reports whether data is a readable uncompressed PCM WAV.
func IsPCM(data []byte) bool {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return false
	}
	return d.WavAudioFormat == wavFormatPCM || d.WavAudioFormat == wavFormatExtensible
}

// DecodeWAV reads an uncompressed PCM WAV. Anything else is ErrNotPCM.
func DecodeWAV(data []byte) (*AudioCarrier, error) {
	if !IsPCM(data) {
		return nil, ErrNotPCM
	}

	d := wav.NewDecoder(bytes.NewReader(data))
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}
	if len(buf.Data) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrNotPCM)
	}

	return &AudioCarrier{buf: buf, bitDepth: int(d.BitDepth)}, nil
}

// Format returns sample rate, channel count and bit depth.
func (c *AudioCarrier) Format() (sampleRate, channels, bitDepth int) {
	return c.buf.Format.SampleRate, c.buf.Format.NumChannels, c.bitDepth
}

// IsCanonical reports whether the carrier already has the transcoder's
// output layout.
func (c *AudioCarrier) IsCanonical() bool {
	rate, channels, depth := c.Format()
	return rate == CanonicalSampleRate && channels == CanonicalChannels && depth == CanonicalBitDepth
}

// Capacity returns the number of samples.
func (c *AudioCarrier) Capacity() int {
	return len(c.buf.Data)
}

// Units returns a copy of the interleaved samples.
func (c *AudioCarrier) Units() []int {
	return append([]int(nil), c.buf.Data...)
}

// Rebuild replaces the samples.
func (c *AudioCarrier) Rebuild(units []int) error {
	if len(units) != len(c.buf.Data) {
		return fmt.Errorf("%w: got %d, want %d", ErrUnitCount, len(units), len(c.buf.Data))
	}
	copy(c.buf.Data, units)
	return nil
}

// Encode writes the samples as an uncompressed PCM WAV.
func (c *AudioCarrier) Encode(w io.Writer) error {
	var sb seekBuffer
	rate, channels, depth := c.Format()

	enc := wav.NewEncoder(&sb, rate, depth, channels, wavFormatPCM)
	if err := enc.Write(c.buf); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalise WAV: %w", err)
	}

	_, err := w.Write(sb.buf)
	return err
}

// LoadForEmbed returns a canonical PCM carrier. Input that already is
// canonical PCM is used as is so re-encoding an output keeps its LSBs;
// everything else goes through t.
func LoadForEmbed(ctx context.Context, data []byte, t Transcoder) (*AudioCarrier, error) {
	if c, err := DecodeWAV(data); err == nil && c.IsCanonical() {
		return c, nil
	}
	return transcode(ctx, data, t)
}

// LoadForExtract reads any PCM WAV directly and only transcodes input that
// is not PCM. Transcoding would destroy embedded LSBs.
func LoadForExtract(ctx context.Context, data []byte, t Transcoder) (*AudioCarrier, error) {
	c, err := DecodeWAV(data)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotPCM) {
		return nil, err
	}
	return transcode(ctx, data, t)
}

func transcode(ctx context.Context, data []byte, t Transcoder) (*AudioCarrier, error) {
	if t == nil {
		return nil, fmt.Errorf("%w and no transcoder is configured", ErrNotPCM)
	}

	pcm, err := t.ToPCM(ctx, data)
	if err != nil {
		return nil, err
	}
	return DecodeWAV(pcm)
}

// seekBuffer is an in-memory io.WriteSeeker; the WAV encoder seeks back to
// patch chunk sizes on Close.
type seekBuffer struct {
	buf []byte
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if end := s.pos + len(p); end > len(s.buf) {
		s.buf = append(s.buf, make([]byte, end-len(s.buf))...)
	}
	n := copy(s.buf[s.pos:], p)
	s.pos += n
	return n, nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(s.pos)
	case io.SeekEnd:
		base = int64(len(s.buf))
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	pos := base + offset
	if pos < 0 {
		return 0, fmt.Errorf("negative position %d", pos)
	}
	s.pos = int(pos)
	return pos, nil
}
