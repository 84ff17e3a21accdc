package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// HeaderSize is the size of the canonical WAV header in bytes.
const HeaderSize = 44

// formatPCM is the WAV format tag for uncompressed linear PCM.
const formatPCM = 1

// ErrMalformed indicates the buffer does not contain a valid PCM WAV header.
var ErrMalformed = errors.New("wav: malformed header")

// Header is a read-only view of a WAV container's fixed-size header.
type Header struct {
	// SampleRate is the number of samples per second.
	SampleRate uint32
	// BitsPerSample is the bit depth of each sample.
	BitsPerSample uint16
	// Channels is the number of interleaved audio channels.
	Channels uint16
	// DataSize is the declared length of the data chunk in bytes.
	DataSize uint32
}

// ParseHeader reads the fixed-offset fields of a WAV header.
// It requires at least HeaderSize bytes and rejects containers that are
// not uncompressed PCM, so duration math never runs on a format whose
// sample layout it does not understand.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: need %d bytes, have %d", ErrMalformed, HeaderSize, len(b))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return Header{}, fmt.Errorf("%w: missing RIFF/WAVE magic", ErrMalformed)
	}
	if tag := binary.LittleEndian.Uint16(b[20:22]); tag != formatPCM {
		return Header{}, fmt.Errorf("%w: unsupported format tag %d", ErrMalformed, tag)
	}

	return Header{
		Channels:      binary.LittleEndian.Uint16(b[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(b[24:28]),
		BitsPerSample: binary.LittleEndian.Uint16(b[34:36]),
		DataSize:      binary.LittleEndian.Uint32(b[40:44]),
	}, nil
}

func (h Header) bytesPerSecond() int {
	return int(h.SampleRate) * int(h.BitsPerSample/8) * int(h.Channels)
}

// Duration computes the playable duration of the audio payload that
// follows the header, rounded to the nearest millisecond. ok is false
// when the buffer is too short, the header is not valid PCM, or the
// header would lead to a division by zero.
func Duration(b []byte) (d time.Duration, ok bool) {
	h, err := ParseHeader(b)
	if err != nil {
		return 0, false
	}
	bps := h.bytesPerSecond()
	if bps == 0 {
		return 0, false
	}
	seconds := float64(len(b)-HeaderSize) / float64(bps)
	return time.Duration(math.Round(seconds*1000)) * time.Millisecond, true
}
