package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiError struct{ code string }

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

// memS3 is an in-memory bucket.
type memS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemS3() *memS3 { return &memS3{objects: map[string][]byte{}} }

func (m *memS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*in.Key]
	if !ok {
		return nil, &apiError{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *memS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[*in.Key]; !ok {
		return nil, &apiError{code: "NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func stores(t *testing.T) map[string]FileStore {
	local, err := NewLocal(filepath.Join(t.TempDir(), "registry"))
	require.NoError(t, err)
	return map[string]FileStore{
		"local": local,
		"s3":    NewS3(newMemS3(), "voices", "speakers/"),
	}
}

func TestFileStoreContract(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			ok, err := store.Exists(ctx, "Alex/clip.wav")
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = store.Read(ctx, "Alex/clip.wav")
			assert.ErrorIs(t, err, os.ErrNotExist)

			w, err := store.Write(ctx, "Alex/clip.wav")
			require.NoError(t, err)
			_, err = io.WriteString(w, "RIFF")
			require.NoError(t, err)
			require.NoError(t, w.Close())

			ok, err = store.Exists(ctx, "Alex/clip.wav")
			require.NoError(t, err)
			assert.True(t, ok)

			r, err := store.Read(ctx, "Alex/clip.wav")
			require.NoError(t, err)
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			r.Close()
			assert.Equal(t, "RIFF", string(data))

			require.NoError(t, store.Delete(ctx, "Alex/clip.wav"))
			require.NoError(t, store.Delete(ctx, "Alex/clip.wav"))
			ok, err = store.Exists(ctx, "Alex/clip.wav")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestPutFileIfAbsent(t *testing.T) {
	src := filepath.Join(t.TempDir(), "seg.wav")
	require.NoError(t, os.WriteFile(src, []byte("first"), 0644))

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			copied, err := PutFileIfAbsent(ctx, store, src, "Alex/s1_seg.wav")
			require.NoError(t, err)
			assert.True(t, copied)

			require.NoError(t, os.WriteFile(src, []byte("second"), 0644))
			copied, err = PutFileIfAbsent(ctx, store, src, "Alex/s1_seg.wav")
			require.NoError(t, err)
			assert.False(t, copied)

			r, err := store.Read(ctx, "Alex/s1_seg.wav")
			require.NoError(t, err)
			defer r.Close()
			data, _ := io.ReadAll(r)
			assert.Equal(t, "first", string(data), "existing destination is never overwritten")

			require.NoError(t, os.WriteFile(src, []byte("first"), 0644))
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			in := map[string]int{"total_segments": 4}
			require.NoError(t, WriteJSON(ctx, store, "speakers_summary.json", in))

			var out map[string]int
			require.NoError(t, ReadJSON(ctx, store, "speakers_summary.json", &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestS3KeysAndLocation(t *testing.T) {
	mem := newMemS3()
	store := NewS3(mem, "voices", "/speakers/")
	w, err := store.Write(context.Background(), "Alex/a.wav")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, ok := mem.objects["speakers/Alex/a.wav"]
	assert.True(t, ok)
	assert.Equal(t, "s3://voices/speakers/Alex/a.wav", store.Location("Alex/a.wav"))
	assert.Equal(t, "a.wav", NewS3(mem, "voices", "").key("a.wav"))
}

func TestNewS3FromEnv(t *testing.T) {
	_, err := NewS3FromEnv(S3Options{})
	assert.Error(t, err)

	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	_, err = NewS3FromEnv(S3Options{Bucket: "voices"})
	assert.Error(t, err)

	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	store, err := NewS3FromEnv(S3Options{Bucket: "voices", Prefix: "p", Region: "eu-west-1", Endpoint: "http://localhost:9000"})
	require.NoError(t, err)
	assert.Equal(t, "s3://voices/p/x", store.Location("x"))
}
