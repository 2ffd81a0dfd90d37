package wavio

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeWAV(t *testing.T, dir string, channels uint16, samples []int16) string {
	t.Helper()

	dataSize := len(samples) * 2
	buf := make([]byte, 0, 44+dataSize)
	buf = append(buf, []byte("RIFF")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+dataSize))
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, channels)
	buf = binary.LittleEndian.AppendUint32(buf, 16000)
	buf = binary.LittleEndian.AppendUint32(buf, 32000)
	buf = binary.LittleEndian.AppendUint16(buf, 2)
	buf = binary.LittleEndian.AppendUint16(buf, 16)
	buf = append(buf, []byte("data")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataSize))
	for _, sample := range samples {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(sample))
	}

	path := filepath.Join(dir, "audio.wav")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	return path
}

func TestReadMonoDecodesSamples(t *testing.T) {
	path := writeWAV(t, t.TempDir(), 1, []int16{0, 16384, -16384, 32767})

	audio, err := ReadMono(path)
	if err != nil {
		t.Fatalf("ReadMono failed: %v", err)
	}
	if audio.SampleRate != 16000 {
		t.Fatalf("expected sample rate 16000, got %d", audio.SampleRate)
	}
	if len(audio.Samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(audio.Samples))
	}
	if audio.Samples[0] != 0 {
		t.Fatalf("expected silence at sample 0, got %v", audio.Samples[0])
	}
	if math.Abs(audio.Samples[1]-0.5) > 0.001 {
		t.Fatalf("expected half amplitude, got %v", audio.Samples[1])
	}
	if math.Abs(audio.Samples[2]+0.5) > 0.001 {
		t.Fatalf("expected negative half amplitude, got %v", audio.Samples[2])
	}
	if want := audio.Duration(); math.Abs(want-4.0/16000.0) > 1e-9 {
		t.Fatalf("unexpected duration %v", want)
	}
}

func TestReadMonoRejectsStereo(t *testing.T) {
	path := writeWAV(t, t.TempDir(), 2, []int16{1, 2, 3, 4})

	if _, err := ReadMono(path); err == nil {
		t.Fatal("expected error for stereo input")
	}
}

func TestReadMonoRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("not a wav file at all"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := ReadMono(path); err == nil {
		t.Fatal("expected error for non-wav payload")
	}
}
