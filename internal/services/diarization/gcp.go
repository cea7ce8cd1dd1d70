package diarization

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"cloud.google.com/go/speech/apiv1/speechpb"

	perrors "github.com/killallgit/diarist/pkg/errors"
	"github.com/killallgit/diarist/pkg/logger"
	"github.com/killallgit/diarist/pkg/speech"
)

// GCPOptions configures Google Cloud Speech diarization.
type GCPOptions struct {
	LanguageCode string
	SampleRate   int
	MinSpeakers  int
	MaxSpeakers  int
	// Stager uploads recordings over InlineLimit; without one they are refused.
	Stager speech.Stager
	// InlineLimit defaults to speech.InlineAudioLimit.
	InlineLimit int64
}

// GCPDiarizer asks Cloud Speech for word-level speaker tags and merges runs of
// words with the same tag into intervals labeled SPEAKER_NN.
type GCPDiarizer struct {
	client speech.Recognizer
	opts   GCPOptions
	log    *logger.Logger
}

func NewGCPDiarizer(client speech.Recognizer, opts GCPOptions, log *logger.Logger) *GCPDiarizer {
	if opts.LanguageCode == "" {
		opts.LanguageCode = "en-US"
	}
	if opts.InlineLimit <= 0 {
		opts.InlineLimit = speech.InlineAudioLimit
	}
	return &GCPDiarizer{client: client, opts: opts, log: log.With("diarizer", "gcp")}
}

func (d *GCPDiarizer) Name() string {
	return "gcp-speech"
}

func (d *GCPDiarizer) Probe(_ context.Context) error {
	if d.client == nil {
		return errors.New("speech client not configured")
	}
	return nil
}

func (d *GCPDiarizer) Diarize(ctx context.Context, audioPath string) (*Result, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if info.Size() == 0 {
		return &Result{}, nil
	}

	audio, release, err := d.audioSource(ctx, audioPath, info.Size())
	if err != nil {
		return nil, err
	}
	if release != nil {
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				d.log.Warn("could not remove staged audio", "audio", audioPath, "error", err)
			}
		}()
	}

	resp, err := d.client.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: d.recognitionConfig(),
		Audio:  audio,
	})
	if err != nil {
		return nil, err
	}

	res := IntervalsFromResponse(resp)
	d.log.Info("diarization finished", "audio", audioPath, "speakers", len(res.Speakers), "intervals", len(res.Intervals))
	return res, nil
}

// audioSource sends small recordings inline and stages larger ones.
func (d *GCPDiarizer) audioSource(ctx context.Context, audioPath string, size int64) (*speechpb.RecognitionAudio, func(context.Context) error, error) {
	if size <= d.opts.InlineLimit {
		data, err := os.ReadFile(audioPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read audio: %w", err)
		}
		return &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: data}}, nil, nil
	}
	if d.opts.Stager == nil {
		return nil, nil, perrors.CollaboratorUnavailable("gcp diarization", fmt.Errorf(
			"%w: %s is %d bytes (limit %d); set gcp.staging_bucket to upload long recordings",
			speech.ErrAudioTooLarge, filepath.Base(audioPath), size, d.opts.InlineLimit))
	}
	uri, release, err := d.opts.Stager.Stage(ctx, audioPath)
	if err != nil {
		return nil, nil, perrors.CollaboratorUnavailable("stage audio", err)
	}
	d.log.Debug("staged audio for diarization", "audio", audioPath, "uri", uri, "bytes", size)
	return &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Uri{Uri: uri}}, release, nil
}

func (d *GCPDiarizer) recognitionConfig() *speechpb.RecognitionConfig {
	diar := &speechpb.SpeakerDiarizationConfig{EnableSpeakerDiarization: true}
	if d.opts.MinSpeakers > 0 {
		diar.MinSpeakerCount = int32(d.opts.MinSpeakers)
	}
	if d.opts.MaxSpeakers > 0 {
		diar.MaxSpeakerCount = int32(d.opts.MaxSpeakers)
	}
	cfg := &speechpb.RecognitionConfig{
		LanguageCode:          d.opts.LanguageCode,
		Encoding:              speechpb.RecognitionConfig_LINEAR16,
		EnableWordTimeOffsets: true,
		DiarizationConfig:     diar,
	}
	if d.opts.SampleRate > 0 {
		cfg.SampleRateHertz = int32(d.opts.SampleRate)
	}
	return cfg
}

// IntervalsFromResponse merges consecutive words that share a speaker tag.
// With diarization enabled the service repeats every word, tagged, in the
// last result, so that result is preferred when present.
func IntervalsFromResponse(resp *speechpb.LongRunningRecognizeResponse) *Result {
	res := &Result{}
	if resp == nil {
		return res
	}

	var words []*speechpb.WordInfo
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if w := alts[0].GetWords(); len(w) > 0 && w[len(w)-1].GetSpeakerTag() > 0 {
			words = w
		}
	}
	if len(words) == 0 {
		return res
	}

	seen := map[string]bool{}
	cur := Interval{Label: tagLabel(words[0].GetSpeakerTag()), Start: speech.Seconds(words[0].GetStartTime())}
	for _, w := range words {
		label := tagLabel(w.GetSpeakerTag())
		if label != cur.Label {
			res.Intervals = append(res.Intervals, cur)
			cur = Interval{Label: label, Start: speech.Seconds(w.GetStartTime())}
		}
		cur.End = math.Max(cur.End, speech.Seconds(w.GetEndTime()))
		seen[label] = true
	}
	res.Intervals = append(res.Intervals, cur)

	for label := range seen {
		res.Speakers = append(res.Speakers, label)
	}
	sort.Strings(res.Speakers)
	return res
}

// Speaker tags start at 1.
func tagLabel(tag int32) string {
	if tag > 0 {
		tag--
	}
	return fmt.Sprintf("SPEAKER_%02d", tag)
}
