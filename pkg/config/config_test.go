package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll("config", 0755))
	require.NoError(t, os.WriteFile(filepath.Join("config", "settings.yaml"), []byte(content), 0644))
	t.Cleanup(func() { _ = os.RemoveAll("config") })
}

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T)
		wantErr bool
		check   func(t *testing.T)
	}{
		{
			name:  "defaults without settings file",
			setup: func(t *testing.T) {},
			check: func(t *testing.T) {
				cfg, err := GetConfig()
				require.NoError(t, err)
				assert.Equal(t, "audio in", cfg.Paths.InputDir)
				assert.Equal(t, "audio out", cfg.Paths.OutputDir)
				assert.Equal(t, "audio_processed", cfg.Paths.ProcessedDir)
				assert.Equal(t, 1.0, cfg.Segments.MinDuration)
				assert.Equal(t, []string{"whisper", "openai", "gcp"}, cfg.Transcription.Providers)
				assert.Equal(t, 3, cfg.Assignment.SamplesPerSpeaker)
				assert.Equal(t, "local", cfg.Storage.Backend)
				assert.Equal(t, 180.0, cfg.Reference.TargetDuration)
				assert.Equal(t, 10*time.Minute, cfg.FFmpeg.Timeout)
			},
		},
		{
			name: "settings file",
			setup: func(t *testing.T) {
				writeSettings(t, `
paths:
  output_dir: "/data/out"
segments:
  min_duration: 1.5
transcription:
  providers: ["openai"]
`)
			},
			check: func(t *testing.T) {
				assert.Equal(t, "/data/out", GetString("paths.output_dir"))
				assert.Equal(t, 1.5, GetFloat64("segments.min_duration"))
				cfg, err := GetConfig()
				require.NoError(t, err)
				assert.Equal(t, []string{"openai"}, cfg.Transcription.Providers)
			},
		},
		{
			name: "environment variable override",
			setup: func(t *testing.T) {
				t.Setenv("DIARIST_SERVER_PORT", "9090")
				t.Setenv("DIARIST_ASSIGNMENT_PLAYER", "afplay")
			},
			check: func(t *testing.T) {
				assert.Equal(t, 9090, GetInt("server.port"))
				assert.Equal(t, "afplay", GetString("assignment.player"))
			},
		},
		{
			name: "zero min duration rejected",
			setup: func(t *testing.T) {
				writeSettings(t, "segments:\n  min_duration: 0\n")
			},
			wantErr: true,
		},
		{
			name: "unknown transcription provider rejected",
			setup: func(t *testing.T) {
				writeSettings(t, "transcription:\n  providers: [\"whisper\", \"carrier-pigeon\"]\n")
			},
			wantErr: true,
		},
		{
			name: "s3 without bucket rejected",
			setup: func(t *testing.T) {
				t.Setenv("DIARIST_STORAGE_BACKEND", "s3")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset()
			t.Cleanup(reset)
			tt.setup(t)

			err := Init()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Segments:      SegmentsConfig{MinDuration: 1.0},
			Diarization:   DiarizationConfig{Provider: "command"},
			Transcription: TranscriptionConfig{Providers: []string{"whisper"}},
			Storage:       StorageConfig{Backend: "local"},
			Server:        ServerConfig{Port: 8080},
			Reference:     ReferenceConfig{TargetDuration: 180},
		}
	}

	t.Run("valid", func(t *testing.T) {
		c := valid()
		require.NoError(t, c.Validate())
	})

	t.Run("flac segments", func(t *testing.T) {
		c := valid()
		c.Segments.Codec = "flac"
		assert.NoError(t, c.Validate())
	})

	t.Run("lossy segment codec", func(t *testing.T) {
		c := valid()
		c.Segments.Codec = "mp3"
		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "segments.codec")
	})

	t.Run("no samples per speaker", func(t *testing.T) {
		c := valid()
		c.Assignment.SamplesPerSpeaker = 0
		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "samples_per_speaker")
	})

	t.Run("unknown diarizer", func(t *testing.T) {
		c := valid()
		c.Diarization.Provider = "magic"
		assert.Error(t, c.Validate())
	})

	t.Run("empty provider list", func(t *testing.T) {
		c := valid()
		c.Transcription.Providers = nil
		assert.Error(t, c.Validate())
	})

	t.Run("s3 with bucket", func(t *testing.T) {
		c := valid()
		c.Storage.Backend = "s3"
		c.Storage.S3.Bucket = "voices"
		assert.NoError(t, c.Validate())
	})
}
