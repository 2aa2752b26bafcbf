// Package wavio reads and writes PCM WAV files as planar float64 audio.
package wavio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-multiallpass/dsp/core"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// DefaultBitDepth is used when writing audio without a bit depth.
const DefaultBitDepth = 16

// Errors returned by Read and Write.
var (
	ErrInvalidFile = errors.New("wavio: invalid wav file")
	ErrEmpty       = errors.New("wavio: no audio frames")
	ErrBitDepth    = errors.New("wavio: bit depth must be 16, 24 or 32")
)

// Audio is planar PCM audio in [-1, 1].
type Audio struct {
	SampleRate int
	BitDepth   int
	Channels   [][]float64
}

// Frames returns the number of samples per channel.
func (a *Audio) Frames() int {
	if len(a.Channels) == 0 {
		return 0
	}

	return len(a.Channels[0])
}

// Read decodes a WAV file into planar channels.
func Read(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavio: decode %s: %w", path, err)
	}

	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}

	numCh := buf.Format.NumChannels

	frames := len(buf.Data) / numCh
	if frames == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}

	channels := core.NewPlanar(numCh, frames)
	core.Deinterleave(channels, buf.Data)

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = DefaultBitDepth
	}

	return &Audio{
		SampleRate: buf.Format.SampleRate,
		BitDepth:   bitDepth,
		Channels:   channels,
	}, nil
}

// Write encodes a as a PCM WAV file, creating parent directories. Samples
// outside [-1, 1] are clipped; the number of clipped samples is returned.
func Write(path string, a *Audio) (clipped int, err error) {
	numCh := len(a.Channels)
	if numCh == 0 || a.Frames() == 0 {
		return 0, ErrEmpty
	}

	if a.SampleRate <= 0 {
		return 0, fmt.Errorf("wavio: sample rate must be > 0: %d", a.SampleRate)
	}

	bitDepth := a.BitDepth
	if bitDepth == 0 {
		bitDepth = DefaultBitDepth
	}

	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return 0, fmt.Errorf("%w: %d", ErrBitDepth, bitDepth)
	}

	frames := a.Frames()
	for ch, samples := range a.Channels {
		if len(samples) != frames {
			return 0, fmt.Errorf("wavio: channel %d has %d frames, want %d", ch, len(samples), frames)
		}
	}

	data := make([]float32, frames*numCh)
	core.Interleave(data, a.Channels, frames)

	for i, v := range data {
		if v > 1 || v < -1 {
			data[i] = float32(core.Clamp(float64(v), -1, 1))
			clipped++
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, a.SampleRate, bitDepth, numCh, 1)

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  a.SampleRate,
			NumChannels: numCh,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return 0, fmt.Errorf("wavio: encode %s: %w", path, err)
	}

	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("wavio: finalize %s: %w", path, err)
	}

	return clipped, nil
}
