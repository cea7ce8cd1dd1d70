package transcription

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

// OpenAIOptions configures the hosted transcription provider.
type OpenAIOptions struct {
	APIKey            string
	BaseURL           string
	Model             string
	Language          string
	RequestsPerMinute int
}

// transcriptionAPI is the slice of the openai client used here.
type transcriptionAPI interface {
	New(ctx context.Context, body openai.AudioTranscriptionNewParams, opts ...option.RequestOption) (*openai.Transcription, error)
}

// OpenAIProvider sends each clip to the audio transcriptions endpoint of
// OpenAI or any compatible server, paced by a token bucket.
type OpenAIProvider struct {
	api     transcriptionAPI
	opts    OpenAIOptions
	limiter *rate.Limiter
}

func NewOpenAIProvider(opts OpenAIOptions) *OpenAIProvider {
	clientOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(clientOpts...)
	return newOpenAIProvider(&client.Audio.Transcriptions, opts)
}

func newOpenAIProvider(api transcriptionAPI, opts OpenAIOptions) *OpenAIProvider {
	if opts.Model == "" {
		opts.Model = string(openai.AudioModelWhisper1)
	}
	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}
	return &OpenAIProvider{api: api, opts: opts, limiter: rate.NewLimiter(limit, 1)}
}

func (p *OpenAIProvider) Name() string  { return "openai" }
func (p *OpenAIProvider) Model() string { return p.opts.Model }

func (p *OpenAIProvider) Available(_ context.Context) error {
	if p.opts.APIKey == "" {
		return errors.New("openai api key not configured")
	}
	return nil
}

func (p *OpenAIProvider) Transcribe(ctx context.Context, clipPath string) (Result, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return Result{}, err
	}

	f, err := os.Open(clipPath)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(p.opts.Model),
	}
	if p.opts.Language != "" {
		params.Language = openai.String(p.opts.Language)
	}

	resp, err := p.api.New(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("openai transcription: %w", err)
	}
	return Result{Text: strings.TrimSpace(resp.Text), Language: p.opts.Language}, nil
}
