package transcription

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/diarist/internal/services/sessions"
	perrors "github.com/killallgit/diarist/pkg/errors"
	"github.com/killallgit/diarist/pkg/logger"
)

type mockTranscriber struct {
	mock.Mock
}

func (m *mockTranscriber) Transcribe(ctx context.Context, clipPath string) (Result, error) {
	args := m.Called(ctx, filepath.Base(clipPath))
	return args.Get(0).(Result), args.Error(1)
}

func (m *mockTranscriber) Name() string  { return m.Called().String(0) }
func (m *mockTranscriber) Model() string { return "test-model" }

func (m *mockTranscriber) Available(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newMockTranscriber(name string) *mockTranscriber {
	m := &mockTranscriber{}
	m.On("Name").Return(name).Maybe()
	return m
}

// sessionTree lays out a session with a timeline and the given segment files.
func sessionTree(t *testing.T, session string, files ...string) sessions.Layout {
	t.Helper()
	layout := sessions.NewLayout(t.TempDir())
	require.NoError(t, os.MkdirAll(layout.MetadataDir(session), 0755))
	require.NoError(t, os.WriteFile(layout.TimelineCSV(session), []byte("start_time,end_time,duration,speaker,segment\n"), 0644))
	require.NoError(t, os.MkdirAll(layout.SegmentsDir(session), 0755))
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(layout.SegmentsDir(session), f), []byte("pcm"), 0644))
	}
	return layout
}

func TestTranscribeSession(t *testing.T) {
	layout := sessionTree(t, "team_sync",
		"team_sync_SPEAKER_01_001_4.0s-6.5s.wav",
		"team_sync_SPEAKER_00_000_1.0s-3.0s.wav",
		"team_sync_SPEAKER_00_002_7.0s-9.0s.wav",
	)

	tr := newMockTranscriber("whisper")
	tr.On("Transcribe", mock.Anything, "team_sync_SPEAKER_00_000_1.0s-3.0s.wav").Return(Result{Text: "  hello there ", Language: "en"}, nil)
	tr.On("Transcribe", mock.Anything, "team_sync_SPEAKER_00_002_7.0s-9.0s.wav").Return(Result{Text: "bye", Confidence: 0.8}, nil)
	tr.On("Transcribe", mock.Anything, "team_sync_SPEAKER_01_001_4.0s-6.5s.wav").Return(Result{Text: "hi"}, nil)

	out, err := NewCorrelator(tr, layout, logger.Nop()).TranscribeSession(context.Background(), "team_sync")
	require.NoError(t, err)
	require.Len(t, out.Entries, 3)
	assert.Equal(t, 3, out.Segments)

	first := out.Entries[0]
	assert.Equal(t, "team_sync_SPEAKER_00_000_1.0s-3.0s", first.Address)
	assert.Equal(t, "SPEAKER_00", first.Label)
	assert.Equal(t, 1.0, first.Start)
	assert.Equal(t, 3.0, first.End)
	assert.Equal(t, 2.0, first.Duration)
	assert.Equal(t, "hello there", first.Text)
	assert.Equal(t, "whisper:test-model", first.Provider)

	assert.Equal(t, "SPEAKER_01", out.Entries[1].Label)
	assert.Equal(t, 7.0, out.Entries[2].Start)
	tr.AssertExpectations(t)
}

func TestTranscribeSessionDropsWhitespaceText(t *testing.T) {
	seg := "s_A_000_1.0s-3.0s.wav"
	layout := sessionTree(t, "s", seg, "s_B_001_4.0s-6.0s.wav")

	tr := newMockTranscriber("whisper")
	tr.On("Transcribe", mock.Anything, seg).Return(Result{Text: "   "}, nil)
	tr.On("Transcribe", mock.Anything, "s_B_001_4.0s-6.0s.wav").Return(Result{Text: "kept"}, nil)

	out, err := NewCorrelator(tr, layout, logger.Nop()).TranscribeSession(context.Background(), "s")
	require.NoError(t, err)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, 1, out.Empty)
	assert.Equal(t, "B", out.Entries[0].Label)

	_, statErr := os.Stat(filepath.Join(layout.SegmentsDir("s"), seg))
	assert.NoError(t, statErr, "segment audio stays on disk")
}

func TestTranscribeSessionSkipsFailedSegment(t *testing.T) {
	layout := sessionTree(t, "s", "s_A_000_1.0s-3.0s.wav", "s_A_001_4.0s-6.0s.wav", "notes.txt")

	tr := newMockTranscriber("whisper")
	tr.On("Transcribe", mock.Anything, "s_A_000_1.0s-3.0s.wav").Return(Result{}, errors.New("model crashed"))
	tr.On("Transcribe", mock.Anything, "s_A_001_4.0s-6.0s.wav").Return(Result{Text: "survivor"}, nil)

	out, err := NewCorrelator(tr, layout, logger.Nop()).TranscribeSession(context.Background(), "s")
	require.NoError(t, err)
	assert.Len(t, out.Entries, 1)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, []string{"notes.txt"}, out.Skipped)
}

func TestTranscribeSessionFatal(t *testing.T) {
	t.Run("timeline missing", func(t *testing.T) {
		layout := sessions.NewLayout(t.TempDir())
		_, err := NewCorrelator(newMockTranscriber("x"), layout, logger.Nop()).TranscribeSession(context.Background(), "gone")
		assert.ErrorIs(t, err, perrors.ErrTimelineMissing)
		assert.Equal(t, perrors.KindSessionFatal, perrors.KindOf(err))
	})

	t.Run("no usable text", func(t *testing.T) {
		layout := sessionTree(t, "s", "s_A_000_1.0s-3.0s.wav", "s_B_001_4.0s-6.0s.wav")
		tr := newMockTranscriber("x")
		tr.On("Transcribe", mock.Anything, "s_A_000_1.0s-3.0s.wav").Return(Result{Text: ""}, nil)
		tr.On("Transcribe", mock.Anything, "s_B_001_4.0s-6.0s.wav").Return(Result{}, errors.New("boom"))

		_, err := NewCorrelator(tr, layout, logger.Nop()).TranscribeSession(context.Background(), "s")
		assert.ErrorIs(t, err, perrors.ErrNoTranscripts)
		assert.Equal(t, perrors.KindSessionFatal, perrors.KindOf(err))
	})

	t.Run("no segments is empty, not fatal", func(t *testing.T) {
		layout := sessionTree(t, "s")
		out, err := NewCorrelator(newMockTranscriber("x"), layout, logger.Nop()).TranscribeSession(context.Background(), "s")
		require.NoError(t, err)
		assert.Empty(t, out.Entries)
	})
}

func TestSelectProvider(t *testing.T) {
	down := newMockTranscriber("whisper")
	down.On("Available", mock.Anything).Return(errors.New("no model"))
	up := newMockTranscriber("openai")
	up.On("Available", mock.Anything).Return(nil)
	never := newMockTranscriber("gcp")

	got, err := SelectProvider(context.Background(), []Transcriber{down, up, never}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "openai", got.Name())
	never.AssertNotCalled(t, "Available", mock.Anything)

	_, err = SelectProvider(context.Background(), []Transcriber{down}, logger.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, perrors.ErrNoProvider)
	assert.Equal(t, perrors.KindCollaboratorUnavailable, perrors.KindOf(err))
	assert.Contains(t, err.Error(), "no model")
}

func TestCleanWhisperOutput(t *testing.T) {
	assert.Equal(t, "Hello there. How are you?", cleanWhisperOutput("\n Hello there.\n How are you?\n"))
	assert.Equal(t, "", cleanWhisperOutput(" [BLANK_AUDIO]\n"))
	assert.Equal(t, "ok", cleanWhisperOutput("(music)\nok\n"))
}

func TestWhisperCLI(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	dir := t.TempDir()
	model := filepath.Join(dir, "ggml-base.en.bin")
	require.NoError(t, os.WriteFile(model, []byte("weights"), 0644))
	bin := filepath.Join(dir, "whisper-cli")
	script := "#!/bin/sh\necho \"$@\" > \"" + filepath.Join(dir, "args") + "\"\necho ' Good morning.'\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0755))

	w := NewWhisperCLI(WhisperOptions{Path: bin, ModelPath: model, Threads: 2})
	require.NoError(t, w.Available(context.Background()))
	assert.Equal(t, "ggml-base.en", w.Model())

	res, err := w.Transcribe(context.Background(), "/clips/a.wav")
	require.NoError(t, err)
	assert.Equal(t, "Good morning.", res.Text)
	assert.Equal(t, "en", res.Language)

	args, err := os.ReadFile(filepath.Join(dir, "args"))
	require.NoError(t, err)
	assert.Equal(t, "-m "+model+" -f /clips/a.wav -l en -t 2 -nt -np", strings.TrimSpace(string(args)))

	missing := NewWhisperCLI(WhisperOptions{Path: bin, ModelPath: filepath.Join(dir, "nope.bin")})
	assert.Error(t, missing.Available(context.Background()))
}

type fakeTranscriptionAPI struct {
	params []openai.AudioTranscriptionNewParams
	text   string
	err    error
}

func (f *fakeTranscriptionAPI) New(_ context.Context, body openai.AudioTranscriptionNewParams, _ ...option.RequestOption) (*openai.Transcription, error) {
	f.params = append(f.params, body)
	if f.err != nil {
		return nil, f.err
	}
	return &openai.Transcription{Text: f.text}, nil
}

func TestOpenAIProvider(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(clip, []byte("RIFF"), 0644))

	api := &fakeTranscriptionAPI{text: " Testing one two. "}
	p := newOpenAIProvider(api, OpenAIOptions{APIKey: "sk-test", Language: "en", RequestsPerMinute: 6000})
	require.NoError(t, p.Available(context.Background()))
	assert.Equal(t, "whisper-1", p.Model())

	res, err := p.Transcribe(context.Background(), clip)
	require.NoError(t, err)
	assert.Equal(t, "Testing one two.", res.Text)
	require.Len(t, api.params, 1)
	assert.Equal(t, openai.AudioModelWhisper1, api.params[0].Model)

	api.err = errors.New("429")
	_, err = p.Transcribe(context.Background(), clip)
	assert.ErrorContains(t, err, "openai transcription")

	assert.Error(t, newOpenAIProvider(api, OpenAIOptions{}).Available(context.Background()))
}

type mockRecognizer struct {
	mock.Mock
}

func (m *mockRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*speechpb.RecognizeResponse)
	return resp, args.Error(1)
}

func (m *mockRecognizer) LongRunningRecognize(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*speechpb.LongRunningRecognizeResponse)
	return resp, args.Error(1)
}

func (m *mockRecognizer) Close() error { return nil }

func TestGCPProvider(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(clip, []byte("RIFF"), 0644))

	rec := &mockRecognizer{}
	rec.On("Recognize", mock.Anything, mock.MatchedBy(func(req *speechpb.RecognizeRequest) bool {
		return req.GetConfig().GetLanguageCode() == "en-GB" && string(req.GetAudio().GetContent()) == "RIFF"
	})).Return(&speechpb.RecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{
		{LanguageCode: "en-gb", Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "Good", Confidence: 0.5}}},
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " evening ", Confidence: 1.0}}},
		{},
	}}, nil)

	p := NewGCPProvider(rec, GCPOptions{LanguageCode: "en-GB"})
	require.NoError(t, p.Available(context.Background()))
	res, err := p.Transcribe(context.Background(), clip)
	require.NoError(t, err)
	assert.Equal(t, "Good evening", res.Text)
	assert.InDelta(t, 0.75, res.Confidence, 1e-6)
	assert.Equal(t, "en-gb", res.Language)

	assert.Equal(t, "en-US", resultFromRecognize(&speechpb.RecognizeResponse{}, "en-US").Language)
	assert.Error(t, NewGCPProvider(nil, GCPOptions{}).Available(context.Background()))
}

func TestGCPProviderFlacClips(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "clip.flac")
	require.NoError(t, os.WriteFile(clip, []byte("fLaC"), 0644))

	rec := &mockRecognizer{}
	rec.On("Recognize", mock.Anything, mock.MatchedBy(func(req *speechpb.RecognizeRequest) bool {
		return req.GetConfig().GetEncoding() == speechpb.RecognitionConfig_FLAC
	})).Return(&speechpb.RecognizeResponse{}, nil)

	_, err := NewGCPProvider(rec, GCPOptions{}).Transcribe(context.Background(), clip)
	require.NoError(t, err)
	rec.AssertExpectations(t)
	assert.Equal(t, speechpb.RecognitionConfig_LINEAR16, encodingFor("clip.wav"))
}

func TestProvenance(t *testing.T) {
	assert.Equal(t, "gcp:default", Provenance(NewGCPProvider(nil, GCPOptions{})))
}
