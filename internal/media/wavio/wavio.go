// Package wavio reads the 16-bit PCM WAV files produced by the extraction
// stage. Samples are normalized to [-1, 1].
package wavio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// Audio holds decoded waveform data.
type Audio struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the waveform length in seconds.
func (a Audio) Duration() float64 {
	if a.SampleRate <= 0 {
		return 0
	}
	return float64(len(a.Samples)) / float64(a.SampleRate)
}

// ReadMono decodes a RIFF/WAVE file. Multi-channel input is rejected: the
// extraction stage always downmixes to mono.
func ReadMono(path string) (Audio, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Audio{}, fmt.Errorf("read wav: %w", err)
	}
	if len(payload) < 12 || string(payload[0:4]) != "RIFF" || string(payload[8:12]) != "WAVE" {
		return Audio{}, errors.New("read wav: not a RIFF/WAVE file")
	}

	var (
		bitsPerSample uint16
		channels      uint16
		sampleRate    uint32
		data          []byte
	)
	offset := 12
	for offset+8 <= len(payload) {
		chunkID := string(payload[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(payload[offset+4 : offset+8]))
		chunkStart := offset + 8
		chunkEnd := chunkStart + chunkSize
		if chunkEnd > len(payload) {
			chunkEnd = len(payload)
		}
		switch chunkID {
		case "fmt ":
			if chunkEnd-chunkStart >= 16 {
				channels = binary.LittleEndian.Uint16(payload[chunkStart+2 : chunkStart+4])
				sampleRate = binary.LittleEndian.Uint32(payload[chunkStart+4 : chunkStart+8])
				bitsPerSample = binary.LittleEndian.Uint16(payload[chunkStart+14 : chunkStart+16])
			}
		case "data":
			data = payload[chunkStart:chunkEnd]
		}
		// Chunks are word-aligned.
		offset = chunkStart + chunkSize + (chunkSize & 1)
	}

	if data == nil {
		return Audio{}, errors.New("read wav: missing data chunk")
	}
	if bitsPerSample != 16 {
		return Audio{}, fmt.Errorf("read wav: unsupported bit depth %d", bitsPerSample)
	}
	if channels != 1 {
		return Audio{}, fmt.Errorf("read wav: expected mono input, got %d channels", channels)
	}

	count := len(data) / 2
	if count == 0 {
		return Audio{}, errors.New("read wav: empty data chunk")
	}

	samples := make([]float64, count)
	for i := 0; i < count; i++ {
		sample := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		samples[i] = float64(sample) / 32768.0
	}
	return Audio{Samples: samples, SampleRate: int(sampleRate)}, nil
}
