package reference

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	perrors "github.com/killallgit/diarist/pkg/errors"
	"github.com/killallgit/diarist/pkg/logger"
)

type mockConcat struct {
	mock.Mock
}

func (m *mockConcat) Concat(ctx context.Context, inputs []string, pause float64, output string, sampleRate int) error {
	args := m.Called(inputs, pause, output, sampleRate)
	if err := args.Error(0); err != nil {
		return err
	}
	return os.WriteFile(output, []byte("pcm"), 0644)
}

func registry(t *testing.T, speaker string, files ...string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, speaker)
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), nil, 0644))
	}
	return root
}

func TestSelectStopsAtTarget(t *testing.T) {
	root := registry(t, "Alex",
		"tue_tue_SPEAKER_01_000_30.0s-90.0s.wav",
		"mon_mon_SPEAKER_00_001_10.0s-70.0s.wav",
		"mon_mon_SPEAKER_00_002_100.0s-190.0s.wav",
		"mon_mon_SPEAKER_00_003_200.0s-260.0s.wav",
		"Alex_profile.json",
		"stray.wav",
	)
	b := NewBuilder(&mockConcat{}, root, Options{TargetDuration: 150}, logger.Nop())

	clips, err := b.Select("Alex")
	require.NoError(t, err)
	require.Len(t, clips, 3)
	assert.Equal(t, 10.0, clips[0].Start)
	assert.Equal(t, 30.0, clips[1].Start)
	assert.Equal(t, 100.0, clips[2].Start)
}

func TestSelectFollowsSegmentCodec(t *testing.T) {
	root := registry(t, "Alex",
		"mon_mon_SPEAKER_00_000_1.0s-3.0s.flac",
		"mon_mon_SPEAKER_00_001_5.0s-9.0s.wav",
	)
	media := &mockConcat{}
	out := filepath.Join(root, "Alex", "reference", "Alex_reference.flac")
	media.On("Concat", []string{filepath.Join(root, "Alex", "mon_mon_SPEAKER_00_000_1.0s-3.0s.flac")}, 1.0, out, 0).Return(nil)

	b := NewBuilder(media, root, Options{Pause: 1.0, Codec: ".flac"}, logger.Nop())
	m, err := b.Build(context.Background(), "Alex")
	require.NoError(t, err)
	media.AssertExpectations(t)
	require.Len(t, m.Clips, 1)
	assert.Equal(t, out, m.Output)
}

func TestBuildWritesClipAndManifest(t *testing.T) {
	root := registry(t, "Alex",
		"mon_mon_SPEAKER_00_000_1.0s-3.0s.wav",
		"mon_mon_SPEAKER_00_001_5.0s-9.0s.wav",
	)
	media := &mockConcat{}
	out := filepath.Join(root, "Alex", "reference", "Alex_reference.wav")
	media.On("Concat", []string{
		filepath.Join(root, "Alex", "mon_mon_SPEAKER_00_000_1.0s-3.0s.wav"),
		filepath.Join(root, "Alex", "mon_mon_SPEAKER_00_001_5.0s-9.0s.wav"),
	}, 0.5, out, 22050).Return(nil)

	b := NewBuilder(media, root, Options{TargetDuration: 180, Pause: 0.5, SampleRate: 22050}, logger.Nop())
	m, err := b.Build(context.Background(), "Alex")
	require.NoError(t, err)
	media.AssertExpectations(t)

	assert.Equal(t, 6.0, m.SpeechDuration)
	assert.Equal(t, 6.5, m.TotalDuration)

	data, err := os.ReadFile(filepath.Join(root, "Alex", "reference", "Alex_reference.json"))
	require.NoError(t, err)
	var got Manifest
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Len(t, got.Clips, 2)
	assert.Equal(t, out, got.Output)
}

func TestBuildUnknownSpeaker(t *testing.T) {
	b := NewBuilder(&mockConcat{}, t.TempDir(), Options{}, logger.Nop())
	_, err := b.Build(context.Background(), "Nobody")
	assert.Equal(t, perrors.KindValidation, perrors.KindOf(err))
}

func TestBuildWithoutSegments(t *testing.T) {
	root := registry(t, "Alex", "notes.wav")
	b := NewBuilder(&mockConcat{}, root, Options{}, logger.Nop())
	_, err := b.Build(context.Background(), "Alex")
	assert.Equal(t, perrors.KindValidation, perrors.KindOf(err))
}
