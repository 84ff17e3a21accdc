package testutil

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WAVSpec describes a synthetic WAV fixture.
type WAVSpec struct {
	SampleRate    uint32
	Channels      uint16
	BitsPerSample uint16
	DataLen       int
}

// DefaultWAVSpec matches the capture layer's output format:
// 16 kHz mono 16-bit PCM with one second of audio.
func DefaultWAVSpec() WAVSpec {
	return WAVSpec{
		SampleRate:    16000,
		Channels:      1,
		BitsPerSample: 16,
		DataLen:       32000,
	}
}

// WAVHeader builds a canonical 44-byte PCM WAV header for the spec.
func WAVHeader(spec WAVSpec) []byte {
	h := make([]byte, 44)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(36+spec.DataLen))
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(h[22:24], spec.Channels)
	binary.LittleEndian.PutUint32(h[24:28], spec.SampleRate)
	byteRate := spec.SampleRate * uint32(spec.Channels) * uint32(spec.BitsPerSample/8)
	binary.LittleEndian.PutUint32(h[28:32], byteRate)
	blockAlign := spec.Channels * (spec.BitsPerSample / 8)
	binary.LittleEndian.PutUint16(h[32:34], blockAlign)
	binary.LittleEndian.PutUint16(h[34:36], spec.BitsPerSample)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(spec.DataLen))
	return h
}

// WAVBytes builds a full synthetic WAV buffer: header plus a zeroed
// payload of spec.DataLen bytes.
func WAVBytes(spec WAVSpec) []byte {
	return append(WAVHeader(spec), make([]byte, spec.DataLen)...)
}

// WriteWAV writes a synthetic WAV file into dir and returns its path.
func WriteWAV(t *testing.T, dir string, spec WAVSpec) string {
	t.Helper()
	path := filepath.Join(dir, "fixture.wav")
	if err := os.WriteFile(path, WAVBytes(spec), 0o644); err != nil {
		t.Fatalf("write wav fixture: %v", err)
	}
	return path
}

// ScratchDir returns a temp directory that is removed when the test ends.
func ScratchDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}
