package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"echocheck/internal/analysis"
	"echocheck/internal/config"
	"echocheck/internal/services"
)

const remoteUserAgent = "EchoCheck-Go/0.1.0"

// Remote calls an inference sidecar that shares the artifact filesystem.
// Requests carry local paths rather than media bytes.
type Remote struct {
	baseURL    string
	apiKey     string
	audioModel string
	videoModel string
	client     *http.Client
	logger     *slog.Logger
}

// NewRemote builds the HTTP classifier from configuration.
func NewRemote(cfg *config.Config, logger *slog.Logger) *Remote {
	timeout := time.Duration(cfg.Inference.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Remote{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.Inference.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.Inference.APIKey),
		audioModel: cfg.Inference.AudioModel,
		videoModel: cfg.Inference.VideoModel,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type classifyRequest struct {
	Model  string   `json:"model"`
	Path   string   `json:"path,omitempty"`
	Frames []string `json:"frames,omitempty"`
}

// ClassifyAudio scores a mono WAV file via the sidecar.
func (r *Remote) ClassifyAudio(ctx context.Context, wavPath string) (*analysis.ModalityResult, error) {
	return r.classify(ctx, "/v1/classify/audio", classifyRequest{
		Model: r.audioModel,
		Path:  wavPath,
	})
}

// ClassifyVideo scores sampled frames via the sidecar.
func (r *Remote) ClassifyVideo(ctx context.Context, framePaths []string) (*analysis.ModalityResult, error) {
	return r.classify(ctx, "/v1/classify/video", classifyRequest{
		Model:  r.videoModel,
		Frames: framePaths,
	})
}

func (r *Remote) classify(ctx context.Context, endpoint string, payload classifyRequest) (*analysis.ModalityResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("User-Agent", remoteUserAgent)
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "analyze", "classify",
			"Inference service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, services.Wrap(services.ErrExternalTool, "analyze", "classify",
			fmt.Sprintf("Inference service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	var result analysis.ModalityResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "analyze", "classify",
			"Inference service returned malformed JSON", err)
	}
	if r.logger != nil {
		r.logger.Debug("remote classification complete",
			slog.String("endpoint", endpoint),
			slog.String("model", result.ModelName),
			slog.Float64("confidence", result.Confidence))
	}
	return &result, nil
}
