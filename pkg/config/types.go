package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Paths         PathsConfig         `mapstructure:"paths"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Segments      SegmentsConfig      `mapstructure:"segments"`
	Diarization   DiarizationConfig   `mapstructure:"diarization"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Whisper       WhisperConfig       `mapstructure:"whisper"`
	OpenAI        OpenAIConfig        `mapstructure:"openai"`
	GCP           GCPConfig           `mapstructure:"gcp"`
	Assignment    AssignmentConfig    `mapstructure:"assignment"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Reference     ReferenceConfig     `mapstructure:"reference"`
	FFmpeg        FFmpegConfig        `mapstructure:"ffmpeg"`
	Server        ServerConfig        `mapstructure:"server"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// PathsConfig holds the batch directories
type PathsConfig struct {
	InputDir     string `mapstructure:"input_dir"`
	OutputDir    string `mapstructure:"output_dir"`
	ProcessedDir string `mapstructure:"processed_dir"`
	SpeakersDir  string `mapstructure:"speakers_dir"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	Verbose bool   `mapstructure:"verbose"`
}

// SegmentsConfig controls segment filtering and slicing
type SegmentsConfig struct {
	MinDuration float64 `mapstructure:"min_duration"`
	SampleRate  int     `mapstructure:"sample_rate"`
	Codec       string  `mapstructure:"codec"`
}

type DiarizationConfig struct {
	Provider    string        `mapstructure:"provider"`
	Command     string        `mapstructure:"command"`
	Args        []string      `mapstructure:"args"`
	HFToken     string        `mapstructure:"hf_token"`
	MinSpeakers int           `mapstructure:"min_speakers"`
	MaxSpeakers int           `mapstructure:"max_speakers"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// TranscriptionConfig lists providers in preference order
type TranscriptionConfig struct {
	Providers []string `mapstructure:"providers"`
	Language  string   `mapstructure:"language"`
}

// WhisperConfig points at a local whisper.cpp build
type WhisperConfig struct {
	Path      string        `mapstructure:"path"`
	ModelPath string        `mapstructure:"model_path"`
	Threads   int           `mapstructure:"threads"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// OpenAIConfig contains OpenAI transcription API settings
type OpenAIConfig struct {
	APIKey            string `mapstructure:"api_key"`
	BaseURL           string `mapstructure:"base_url"`
	Model             string `mapstructure:"model"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// GCPConfig contains Google Cloud Speech settings
type GCPConfig struct {
	LanguageCode    string `mapstructure:"language_code"`
	CredentialsFile string `mapstructure:"credentials_file"`
	// StagingBucket receives recordings too large to send inline
	StagingBucket string `mapstructure:"staging_bucket"`
	StagingPrefix string `mapstructure:"staging_prefix"`
}

type AssignmentConfig struct {
	SamplesPerSpeaker int    `mapstructure:"samples_per_speaker"`
	Player            string `mapstructure:"player"`
}

// StorageConfig selects where the speaker registry lives
type StorageConfig struct {
	Backend string   `mapstructure:"backend"`
	S3      S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

// ReferenceConfig controls voice reference clip assembly
type ReferenceConfig struct {
	TargetDuration float64 `mapstructure:"target_duration"`
	Pause          float64 `mapstructure:"pause"`
}

type FFmpegConfig struct {
	Path        string        `mapstructure:"path"`
	FFprobePath string        `mapstructure:"ffprobe_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
