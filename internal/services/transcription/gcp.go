package transcription

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/killallgit/diarist/pkg/speech"
)

// GCPOptions configures Cloud Speech transcription.
type GCPOptions struct {
	LanguageCode string
	SampleRate   int
}

// GCPProvider transcribes wav or flac clips with synchronous Recognize.
type GCPProvider struct {
	client speech.Recognizer
	opts   GCPOptions
}

func NewGCPProvider(client speech.Recognizer, opts GCPOptions) *GCPProvider {
	if opts.LanguageCode == "" {
		opts.LanguageCode = "en-US"
	}
	return &GCPProvider{client: client, opts: opts}
}

func (p *GCPProvider) Name() string  { return "gcp" }
func (p *GCPProvider) Model() string { return "default" }

func (p *GCPProvider) Available(_ context.Context) error {
	if p.client == nil {
		return errors.New("speech client not configured")
	}
	return nil
}

func (p *GCPProvider) Transcribe(ctx context.Context, clipPath string) (Result, error) {
	audio, err := os.ReadFile(clipPath)
	if err != nil {
		return Result{}, err
	}

	cfg := &speechpb.RecognitionConfig{
		LanguageCode:               p.opts.LanguageCode,
		Encoding:                   encodingFor(clipPath),
		EnableAutomaticPunctuation: true,
	}
	if p.opts.SampleRate > 0 {
		cfg.SampleRateHertz = int32(p.opts.SampleRate)
	}
	resp, err := p.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: cfg,
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: audio}},
	})
	if err != nil {
		return Result{}, fmt.Errorf("gcp transcription: %w", err)
	}
	return resultFromRecognize(resp, p.opts.LanguageCode), nil
}

func encodingFor(clipPath string) speechpb.RecognitionConfig_AudioEncoding {
	if strings.EqualFold(filepath.Ext(clipPath), ".flac") {
		return speechpb.RecognitionConfig_FLAC
	}
	return speechpb.RecognitionConfig_LINEAR16
}

// resultFromRecognize joins the best alternative of each result and averages
// their confidence.
func resultFromRecognize(resp *speechpb.RecognizeResponse, fallbackLang string) Result {
	var parts []string
	var confSum float64
	var confN int
	lang := ""
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
		if c := alts[0].GetConfidence(); c > 0 {
			confSum += float64(c)
			confN++
		}
		if lang == "" {
			lang = r.GetLanguageCode()
		}
	}
	if lang == "" {
		lang = fallbackLang
	}
	res := Result{Text: strings.Join(parts, " "), Language: lang}
	if confN > 0 {
		res.Confidence = confSum / float64(confN)
	}
	return res
}
