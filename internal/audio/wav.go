package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotWAV is returned for data without a RIFF/WAVE header.
	ErrNotWAV = errors.New("not a valid WAV file")

	// ErrUnsupportedFormat is returned for WAV encodings other than PCM16.
	ErrUnsupportedFormat = errors.New("unsupported WAV format")
)

// Format describes 16-bit little endian PCM.
type Format struct {
	SampleRate int
	Channels   int
}

// BytesPerSecond returns the PCM data rate.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * 2
}

// Duration returns the playing time of n bytes of PCM.
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(bps)
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch", f.SampleRate, f.Channels)
}

// Decode parses a PCM16 WAV file and returns its format and sample data.
// The returned slice aliases wav.
func Decode(wav []byte) (Format, []byte, error) {
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return Format{}, nil, ErrNotWAV
	}

	var (
		format    Format
		sawFormat bool
	)
	pos := 12
	for pos+8 <= len(wav) {
		id := string(wav[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		start := pos + 8

		switch id {
		case "fmt ":
			if size < 16 || start+16 > len(wav) {
				return Format{}, nil, fmt.Errorf("%w: short fmt chunk", ErrNotWAV)
			}
			audioFormat := binary.LittleEndian.Uint16(wav[start:])
			bits := binary.LittleEndian.Uint16(wav[start+14:])
			if audioFormat != 1 || bits != 16 {
				return Format{}, nil, fmt.Errorf("%w: format %d, %d bits", ErrUnsupportedFormat, audioFormat, bits)
			}
			format.Channels = int(binary.LittleEndian.Uint16(wav[start+2:]))
			format.SampleRate = int(binary.LittleEndian.Uint32(wav[start+4:]))
			sawFormat = true

		case "data":
			if !sawFormat {
				return Format{}, nil, fmt.Errorf("%w: data before fmt chunk", ErrNotWAV)
			}
			// Streaming writers leave the size as 0 or 0xFFFFFFFF.
			end := start + size
			if size == 0 || end > len(wav) || end < start {
				end = len(wav)
			}
			return format, wav[start:end], nil
		}

		pos = start + size
		// Chunks are word-aligned.
		if size%2 != 0 {
			pos++
		}
	}

	return Format{}, nil, fmt.Errorf("%w: data chunk not found", ErrNotWAV)
}

// Encode wraps PCM16 samples in a WAV container.
func Encode(f Format, pcm []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	le := binary.LittleEndian
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, le, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, le, uint32(16))
	_ = binary.Write(&buf, le, uint16(1))
	_ = binary.Write(&buf, le, uint16(f.Channels))
	_ = binary.Write(&buf, le, uint32(f.SampleRate))
	_ = binary.Write(&buf, le, uint32(f.BytesPerSecond()))
	_ = binary.Write(&buf, le, uint16(f.Channels*2))
	_ = binary.Write(&buf, le, uint16(16))

	buf.WriteString("data")
	_ = binary.Write(&buf, le, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// Silence returns a WAV file of d seconds of silence.
func Silence(f Format, d time.Duration) []byte {
	frames := int(d * time.Duration(f.SampleRate) / time.Second)
	return Encode(f, make([]byte, frames*f.Channels*2))
}

// WAVDuration returns the playing time of a WAV file.
func WAVDuration(wav []byte) (time.Duration, error) {
	f, pcm, err := Decode(wav)
	if err != nil {
		return 0, err
	}
	return f.Duration(len(pcm)), nil
}
