package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateInference(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.MaxUploadMiB <= 0 {
		return errors.New("analysis.max_upload_mib must be positive")
	}
	if len(c.Analysis.AllowedExtensions) == 0 {
		return errors.New("analysis.allowed_extensions must not be empty")
	}
	for _, ext := range c.Analysis.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("analysis.allowed_extensions entry %q must be a dotted extension", ext)
		}
	}
	return nil
}

func (c *Config) validateInference() error {
	if c.Inference.BaseURL != "" && !strings.HasPrefix(c.Inference.BaseURL, "http") {
		return errors.New("inference.base_url must be an http(s) URL")
	}
	return nil
}

func (c *Config) validateAuth() error {
	if c.Auth.TokenSecret == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/echocheck/config.toml"
		}
		return fmt.Errorf("auth.token_secret is required. Set ECHOCHECK_TOKEN_SECRET env var or edit %s (create with 'echocheck config init')", defaultPath)
	}
	if len(c.Auth.TokenSecret) < 16 {
		return errors.New("auth.token_secret must be at least 16 characters")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.heartbeat_interval":   c.Workflow.HeartbeatInterval,
		"workflow.heartbeat_timeout":    c.Workflow.HeartbeatTimeout,
		"inference.timeout_seconds":     c.Inference.TimeoutSeconds,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
