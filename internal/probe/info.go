package probe

import (
	"encoding/json"
	"fmt"
	"strings"

	"echocheck/internal/media/ffprobe"
)

// Info is the probe summary persisted on the queue item. Later stages read
// it instead of re-running ffprobe.
type Info struct {
	HasAudio        bool    `json:"has_audio"`
	HasVideo        bool    `json:"has_video"`
	DurationSeconds float64 `json:"duration_seconds"`
	FormatName      string  `json:"format_name"`
	SizeBytes       int64   `json:"size_bytes"`
	BitRate         int64   `json:"bit_rate"`
	FrameRate       float64 `json:"frame_rate,omitempty"`
	AudioCodec      string  `json:"audio_codec,omitempty"`
	VideoCodec      string  `json:"video_codec,omitempty"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
}

// InfoFromResult condenses a full ffprobe inspection into the persisted summary.
func InfoFromResult(result ffprobe.Result) Info {
	info := Info{
		HasAudio:   result.HasAudio(),
		HasVideo:   result.HasVideo(),
		FormatName: result.Format.FormatName,
		SizeBytes:  result.SizeBytes(),
		BitRate:    result.BitRate(),
	}
	if duration := result.DurationSeconds(); duration > 0 {
		info.DurationSeconds = duration
	}
	if stream, ok := result.AudioStream(); ok {
		info.AudioCodec = stream.CodecName
	}
	if info.HasVideo {
		if stream, ok := result.VideoStream(); ok {
			info.VideoCodec = stream.CodecName
			info.Width = stream.Width
			info.Height = stream.Height
		}
		info.FrameRate = result.FrameRate()
	}
	return info
}

// ParseInfo decodes a persisted probe summary.
func ParseInfo(raw string) (Info, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Info{}, fmt.Errorf("probe summary missing")
	}
	var info Info
	if err := json.Unmarshal([]byte(trimmed), &info); err != nil {
		return Info{}, fmt.Errorf("parse probe summary: %w", err)
	}
	return info, nil
}

// Marshal encodes the summary for persistence on the queue item.
func (i Info) Marshal() (string, error) {
	payload, err := json.Marshal(i)
	if err != nil {
		return "", fmt.Errorf("marshal probe summary: %w", err)
	}
	return string(payload), nil
}

// Modalities names the analyzable modalities for log output.
func (i Info) Modalities() string {
	switch {
	case i.HasAudio && i.HasVideo:
		return "audio+video"
	case i.HasAudio:
		return "audio"
	case i.HasVideo:
		return "video"
	}
	return "none"
}
