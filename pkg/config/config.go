package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	once    sync.Once
	initErr error
)

// Providers recognised by the diarization and transcription stages.
var (
	DiarizationProviders   = []string{"command", "gcp"}
	TranscriptionProviders = []string{"whisper", "openai", "gcp"}
	StorageBackends        = []string{"local", "s3"}
	SegmentCodecs          = []string{"wav", "flac"}
)

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		setDefaults()

		// DIARIST_SEGMENTS_MIN_DURATION overrides segments.min_duration
		viper.SetEnvPrefix("DIARIST")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		configPath := filepath.Clean("./config/settings.yaml")
		viper.SetConfigFile(configPath)

		if err := viper.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				initErr = fmt.Errorf("error reading config file %s: %w", configPath, err)
				return
			}
		}

		if err := validate(); err != nil {
			initErr = fmt.Errorf("invalid configuration: %w", err)
		}
	})

	return initErr
}

// reset clears the loaded state so tests can call Init again.
func reset() {
	viper.Reset()
	once = sync.Once{}
	initErr = nil
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// Get returns a config value by key using Viper directly
func Get(key string) any {
	return viper.Get(key)
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetFloat64 returns a float config value
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// Set overrides a value for the rest of the process, e.g. from a CLI flag.
func Set(key string, value any) {
	viper.Set(key, value)
}

// validate validates the configuration using Viper values
func validate() error {
	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	return c.Validate()
}

// Validate checks the settings the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.Segments.MinDuration <= 0 {
		return fmt.Errorf("segments.min_duration must be positive, got %v", c.Segments.MinDuration)
	}
	if !contains(SegmentCodecs, c.Segments.Codec) {
		return fmt.Errorf("segments.codec must be one of %v, got %q", SegmentCodecs, c.Segments.Codec)
	}
	if c.Segments.SampleRate < 0 {
		return fmt.Errorf("segments.sample_rate must not be negative, got %d", c.Segments.SampleRate)
	}
	if !contains(DiarizationProviders, c.Diarization.Provider) {
		return fmt.Errorf("unknown diarization provider %q", c.Diarization.Provider)
	}
	if len(c.Transcription.Providers) == 0 {
		return fmt.Errorf("transcription.providers must list at least one provider")
	}
	for _, p := range c.Transcription.Providers {
		if !contains(TranscriptionProviders, p) {
			return fmt.Errorf("unknown transcription provider %q", p)
		}
	}
	if !contains(StorageBackends, c.Storage.Backend) {
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("storage.s3.bucket is required when storage.backend is s3")
	}
	if c.Assignment.SamplesPerSpeaker <= 0 {
		return fmt.Errorf("assignment.samples_per_speaker must be positive, got %d", c.Assignment.SamplesPerSpeaker)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Reference.TargetDuration <= 0 {
		return fmt.Errorf("reference.target_duration must be positive")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// setDefaults sets default configuration values
func setDefaults() {
	// Directory layout
	viper.SetDefault("paths.input_dir", "audio in")
	viper.SetDefault("paths.output_dir", "audio out")
	viper.SetDefault("paths.processed_dir", "audio_processed")
	viper.SetDefault("paths.speakers_dir", filepath.Join("audio out", "speakers"))

	// Session store
	viper.SetDefault("database.path", "./data/diarist.db")
	viper.SetDefault("database.verbose", false)

	// Segment extraction
	viper.SetDefault("segments.min_duration", 1.0)
	viper.SetDefault("segments.sample_rate", 0)
	viper.SetDefault("segments.codec", "wav")

	// Diarization
	viper.SetDefault("diarization.provider", "command")
	viper.SetDefault("diarization.command", "pyannote-diarize")
	viper.SetDefault("diarization.args", []string{})
	viper.SetDefault("diarization.hf_token", "")
	viper.SetDefault("diarization.min_speakers", 0)
	viper.SetDefault("diarization.max_speakers", 0)
	viper.SetDefault("diarization.timeout", 2*time.Hour)

	// Transcription
	viper.SetDefault("transcription.providers", []string{"whisper", "openai", "gcp"})
	viper.SetDefault("transcription.language", "en")

	viper.SetDefault("whisper.path", "whisper-cli")
	viper.SetDefault("whisper.model_path", "./models/ggml-base.en.bin")
	viper.SetDefault("whisper.threads", 4)
	viper.SetDefault("whisper.timeout", 5*time.Minute)

	viper.SetDefault("openai.api_key", "")
	viper.SetDefault("openai.base_url", "")
	viper.SetDefault("openai.model", "whisper-1")
	viper.SetDefault("openai.requests_per_minute", 50)

	viper.SetDefault("gcp.language_code", "en-US")
	viper.SetDefault("gcp.credentials_file", "")
	viper.SetDefault("gcp.staging_bucket", "")
	viper.SetDefault("gcp.staging_prefix", "diarist-staging")

	// Speaker assignment
	viper.SetDefault("assignment.samples_per_speaker", 3)
	viper.SetDefault("assignment.player", "ffplay")

	// Speaker registry
	viper.SetDefault("storage.backend", "local")
	viper.SetDefault("storage.s3.bucket", "")
	viper.SetDefault("storage.s3.prefix", "speakers")
	viper.SetDefault("storage.s3.region", "us-east-1")
	viper.SetDefault("storage.s3.endpoint", "")

	// Voice reference clips
	viper.SetDefault("reference.target_duration", 180.0)
	viper.SetDefault("reference.pause", 1.0)

	// ffmpeg
	viper.SetDefault("ffmpeg.path", "ffmpeg")
	viper.SetDefault("ffmpeg.ffprobe_path", "ffprobe")
	viper.SetDefault("ffmpeg.timeout", 10*time.Minute)

	// Server defaults
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.requests_per_second", 20)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}
