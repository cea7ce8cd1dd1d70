package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// InlineAudioLimit is the largest audio payload Cloud Speech accepts inline.
// Anything bigger has to be read from a gs:// URI.
const InlineAudioLimit int64 = 10 * 1000 * 1000

// ErrAudioTooLarge is returned for audio over the inline limit when no
// staging bucket is configured.
var ErrAudioTooLarge = errors.New("audio exceeds the inline request limit")

// Stager uploads a local file somewhere Cloud Speech can read it. release
// removes the staged copy.
type Stager interface {
	Stage(ctx context.Context, localPath string) (uri string, release func(context.Context) error, err error)
}

// GCSStager stages audio in a Cloud Storage bucket.
type GCSStager struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSStager(ctx context.Context, credentialsFile, bucket, prefix string) (*GCSStager, error) {
	if bucket == "" {
		return nil, errors.New("staging bucket is required")
	}
	opts := append(ClientOptions(credentialsFile), option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &GCSStager{client: client, bucket: bucket, prefix: prefix}, nil
}

// ObjectKey names the staged copy of localPath. The random part keeps
// concurrent runs from sharing an object.
func ObjectKey(prefix, localPath string) string {
	return path.Join(prefix, uuid.NewString()+"-"+filepath.Base(localPath))
}

func (s *GCSStager) Stage(ctx context.Context, localPath string) (string, func(context.Context) error, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	key := ObjectKey(s.prefix, localPath)
	obj := s.client.Bucket(s.bucket).Object(key)
	w := obj.NewWriter(ctx)
	w.ContentType = "audio/wav"
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", nil, fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", nil, fmt.Errorf("upload %s: %w", key, err)
	}

	release := func(ctx context.Context) error {
		return obj.Delete(ctx)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, key), release, nil
}

func (s *GCSStager) Close() error {
	return s.client.Close()
}
