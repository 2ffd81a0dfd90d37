package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAnalysis()
	c.normalizeInference()
	c.normalizeAuth()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.ArtifactsDir, err = expandPath(c.Paths.ArtifactsDir); err != nil {
		return fmt.Errorf("paths.artifacts_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeAnalysis() {
	if strings.TrimSpace(c.Analysis.FFmpegBinary) == "" {
		c.Analysis.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Analysis.FFprobeBinary) == "" {
		c.Analysis.FFprobeBinary = defaultFFprobeBinary
	}
	if len(c.Analysis.AllowedExtensions) == 0 {
		c.Analysis.AllowedExtensions = defaultAllowedExtensions()
	}
	normalized := make([]string, 0, len(c.Analysis.AllowedExtensions))
	for _, ext := range c.Analysis.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Analysis.AllowedExtensions = normalized
	if c.Analysis.MaxFrames <= 0 {
		c.Analysis.MaxFrames = defaultMaxFrames
	}
	if c.Analysis.SampleRate <= 0 {
		c.Analysis.SampleRate = defaultSampleRate
	}
}

func (c *Config) normalizeInference() {
	c.Inference.BaseURL = strings.TrimRight(strings.TrimSpace(c.Inference.BaseURL), "/")
	if c.Inference.TimeoutSeconds <= 0 {
		c.Inference.TimeoutSeconds = defaultInferenceTimeout
	}
	if strings.TrimSpace(c.Inference.AudioModel) == "" {
		c.Inference.AudioModel = defaultAudioModel
	}
	if strings.TrimSpace(c.Inference.VideoModel) == "" {
		c.Inference.VideoModel = defaultVideoModel
	}
}

func (c *Config) normalizeAuth() {
	if c.Auth.TokenSecret == "" {
		if value, ok := os.LookupEnv("ECHOCHECK_TOKEN_SECRET"); ok {
			c.Auth.TokenSecret = value
		}
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = defaultTokenTTLHours
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = defaultLogRetentionDays
	}
}
