// Package speech wraps the Google Cloud Speech client shared by the GCP
// diarizer and the GCP transcription provider.
package speech

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
)

const (
	defaultRetries    = 4
	initialBackoff    = 750 * time.Millisecond
	maxBackoff        = 10 * time.Second
	shortAudioTimeout = 3 * time.Minute
)

// Recognizer is the subset of the speech API the pipeline calls.
type Recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	LongRunningRecognize(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error)
	Close() error
}

// Client is a Recognizer backed by the Cloud Speech gRPC API with retries on
// transient status codes.
type Client struct {
	client     *gspeech.Client
	maxRetries int
	sleep      func(time.Duration)
}

// NewClient dials the speech API. credentialsFile may be empty, in which case
// GOOGLE_APPLICATION_CREDENTIALS(_JSON) or the ambient credentials are used.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	c, err := gspeech.NewClient(ctx, ClientOptions(credentialsFile)...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &Client{client: c, maxRetries: defaultRetries, sleep: time.Sleep}, nil
}

// ClientOptions resolves credentials from an explicit file or the environment.
func ClientOptions(credentialsFile string) []option.ClientOption {
	creds := strings.TrimSpace(credentialsFile)
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	}
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Recognize runs synchronous recognition, meant for clips under a minute.
func (c *Client) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, shortAudioTimeout)
	defer cancel()

	var resp *speechpb.RecognizeResponse
	err := c.retry(ctx, func() error {
		r, err := c.client.Recognize(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("speech recognize: %w", err)
	}
	return resp, nil
}

// LongRunningRecognize starts an operation and waits for it to finish.
func (c *Client) LongRunningRecognize(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
	var resp *speechpb.LongRunningRecognizeResponse
	err := c.retry(ctx, func() error {
		op, err := c.client.LongRunningRecognize(ctx, req)
		if err != nil {
			return err
		}
		r, err := op.Wait(ctx)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("speech longrunningrecognize: %w", err)
	}
	return resp, nil
}

func (c *Client) retry(ctx context.Context, fn func() error) error {
	backoff := initialBackoff
	var last error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil {
			return nil
		}
		last = err
		if !Retryable(err) || attempt == c.maxRetries {
			break
		}
		c.sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return last
}

// Retryable reports whether a gRPC error is worth another attempt.
func Retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		return true
	}
	return false
}

// Unavailable reports whether err means the API cannot be used at all, as
// opposed to a failure of one request.
func Unavailable(err error) bool {
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied, codes.Unavailable:
		return true
	}
	return false
}

// Seconds converts a protobuf duration to float seconds.
func Seconds(d *durationpb.Duration) float64 {
	if d == nil {
		return 0
	}
	return float64(d.Seconds) + float64(d.Nanos)/1e9
}
