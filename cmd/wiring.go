package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/killallgit/diarist/internal/database"
	"github.com/killallgit/diarist/internal/services/diarization"
	"github.com/killallgit/diarist/internal/services/sessions"
	"github.com/killallgit/diarist/internal/services/speakers"
	"github.com/killallgit/diarist/internal/services/transcription"
	perrors "github.com/killallgit/diarist/pkg/errors"
	"github.com/killallgit/diarist/pkg/ffmpeg"
	"github.com/killallgit/diarist/pkg/speech"
	"github.com/killallgit/diarist/pkg/storage"
)

// env holds what the pipeline commands share. Close releases it.
type env struct {
	db      *database.DB
	store   *sessions.Service
	layout  sessions.Layout
	media   *ffmpeg.FFmpeg
	speech  *speech.Client
	closers []io.Closer
}

func openEnv() (*env, error) {
	db, err := database.Open(appConfig.Database.Path, appConfig.Database.Verbose)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	return &env{
		db:     db,
		store:  sessions.NewService(sessions.NewRepository(db.DB), appLog),
		layout: sessions.NewLayout(appConfig.Paths.OutputDir),
		media:  ffmpeg.New(appConfig.FFmpeg.Path, appConfig.FFmpeg.FFprobePath, appConfig.FFmpeg.Timeout),
	}, nil
}

func (e *env) Close() {
	for _, c := range e.closers {
		_ = c.Close()
	}
	_ = e.db.Close()
}

func (e *env) runs() speakers.RunRepository {
	return speakers.NewRunRepository(e.db.DB)
}

// speechClient dials Cloud Speech once per command.
func (e *env) speechClient(ctx context.Context) (*speech.Client, error) {
	if e.speech != nil {
		return e.speech, nil
	}
	c, err := speech.NewClient(ctx, appConfig.GCP.CredentialsFile)
	if err != nil {
		return nil, err
	}
	e.speech = c
	e.closers = append(e.closers, c)
	return c, nil
}

func (e *env) diarizer(ctx context.Context) (diarization.Diarizer, error) {
	cfg := appConfig.Diarization
	switch cfg.Provider {
	case "gcp":
		client, err := e.speechClient(ctx)
		if err != nil {
			return nil, perrors.CollaboratorUnavailable("dial speech api", err)
		}
		opts := diarization.GCPOptions{
			LanguageCode: appConfig.GCP.LanguageCode,
			SampleRate:   appConfig.Segments.SampleRate,
			MinSpeakers:  cfg.MinSpeakers,
			MaxSpeakers:  cfg.MaxSpeakers,
		}
		if bucket := appConfig.GCP.StagingBucket; bucket != "" {
			stager, err := speech.NewGCSStager(ctx, appConfig.GCP.CredentialsFile, bucket, appConfig.GCP.StagingPrefix)
			if err != nil {
				return nil, perrors.CollaboratorUnavailable("dial cloud storage", err)
			}
			e.closers = append(e.closers, stager)
			opts.Stager = stager
		}
		return diarization.NewGCPDiarizer(client, opts, appLog), nil
	default:
		return diarization.NewCommandDiarizer(diarization.CommandOptions{
			Command:     cfg.Command,
			Args:        cfg.Args,
			HFToken:     cfg.HFToken,
			MinSpeakers: cfg.MinSpeakers,
			MaxSpeakers: cfg.MaxSpeakers,
			Timeout:     cfg.Timeout,
		}, appLog), nil
	}
}

// transcribers builds the configured providers in preference order. A
// provider that cannot even be constructed is left out with a warning so the
// next one in line gets its chance.
func (e *env) transcribers(ctx context.Context) []transcription.Transcriber {
	var ranked []transcription.Transcriber
	for _, name := range appConfig.Transcription.Providers {
		switch name {
		case "whisper":
			ranked = append(ranked, transcription.NewWhisperCLI(transcription.WhisperOptions{
				Path:      appConfig.Whisper.Path,
				ModelPath: appConfig.Whisper.ModelPath,
				Language:  appConfig.Transcription.Language,
				Threads:   appConfig.Whisper.Threads,
				Timeout:   appConfig.Whisper.Timeout,
			}))
		case "openai":
			ranked = append(ranked, transcription.NewOpenAIProvider(transcription.OpenAIOptions{
				APIKey:            appConfig.OpenAI.APIKey,
				BaseURL:           appConfig.OpenAI.BaseURL,
				Model:             appConfig.OpenAI.Model,
				Language:          appConfig.Transcription.Language,
				RequestsPerMinute: appConfig.OpenAI.RequestsPerMinute,
			}))
		case "gcp":
			client, err := e.speechClient(ctx)
			if err != nil {
				appLog.Warn("skipping gcp transcription provider", "error", err)
				continue
			}
			ranked = append(ranked, transcription.NewGCPProvider(client, transcription.GCPOptions{
				LanguageCode: appConfig.GCP.LanguageCode,
				SampleRate:   appConfig.Segments.SampleRate,
			}))
		}
	}
	return ranked
}

// registry opens the speaker registry on the configured backend.
func registry() (storage.FileStore, error) {
	if appConfig.Storage.Backend == "s3" {
		s3cfg := appConfig.Storage.S3
		return storage.NewS3FromEnv(storage.S3Options{
			Bucket:   s3cfg.Bucket,
			Prefix:   s3cfg.Prefix,
			Region:   s3cfg.Region,
			Endpoint: s3cfg.Endpoint,
		})
	}
	return storage.NewLocal(appConfig.Paths.SpeakersDir)
}
