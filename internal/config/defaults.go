package config

const (
	defaultStagingDir        = "~/.local/share/echocheck/uploads"
	defaultArtifactsDir      = "~/.local/share/echocheck/artifacts"
	defaultLogDir            = "~/.local/share/echocheck/logs"
	defaultAPIBind           = "127.0.0.1:8420"
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultMaxUploadMiB      = 100
	defaultMaxFrames         = 100
	defaultSampleRate        = 16000
	defaultInferenceTimeout  = 60
	defaultAudioModel        = "wav2vec2"
	defaultVideoModel        = "vision-transformer"
	defaultTokenTTLHours     = 24
	defaultNotifyTimeout     = 10
	defaultQueuePollInterval = 2
	defaultErrorRetry        = 5
	defaultHeartbeatInterval = 15
	defaultHeartbeatTimeout  = 300
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 60
)

func defaultAllowedExtensions() []string {
	return []string{".mp3", ".mp4", ".wav", ".m4a"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:   defaultStagingDir,
			ArtifactsDir: defaultArtifactsDir,
			LogDir:       defaultLogDir,
			APIBind:      defaultAPIBind,
		},
		Analysis: Analysis{
			FFmpegBinary:      defaultFFmpegBinary,
			FFprobeBinary:     defaultFFprobeBinary,
			MaxUploadMiB:      defaultMaxUploadMiB,
			AllowedExtensions: defaultAllowedExtensions(),
			MaxFrames:         defaultMaxFrames,
			SampleRate:        defaultSampleRate,
		},
		Inference: Inference{
			TimeoutSeconds: defaultInferenceTimeout,
			AudioModel:     defaultAudioModel,
			VideoModel:     defaultVideoModel,
		},
		Auth: Auth{
			TokenTTLHours: defaultTokenTTLHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completion:     true,
			Manipulation:   true,
			Errors:         true,
			Queue:          true,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetry,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
