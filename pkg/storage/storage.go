// Package storage abstracts the speaker registry destination so that
// aggregated segment audio can land on local disk or in an S3 bucket.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// FileStore is the minimal file surface the registry needs. Paths are
// slash separated and relative to the store root.
type FileStore interface {
	// Read fails with an error wrapping os.ErrNotExist for missing paths.
	Read(ctx context.Context, path string) (io.ReadCloser, error)
	// Write truncates existing content. Close flushes.
	Write(ctx context.Context, path string) (io.WriteCloser, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	// Location renders path for log lines and reports.
	Location(path string) string
}

// PutFileIfAbsent copies the local file src to dst unless dst already exists.
// It reports whether a copy was made.
func PutFileIfAbsent(ctx context.Context, store FileStore, src, dst string) (bool, error) {
	exists, err := store.Exists(ctx, dst)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", dst, err)
	}
	if exists {
		return false, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer in.Close()

	out, err := store.Write(ctx, dst)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return false, fmt.Errorf("copying to %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return false, fmt.Errorf("closing %s: %w", dst, err)
	}
	return true, nil
}

// WriteJSON stores v indented at path, replacing any previous content.
func WriteJSON(ctx context.Context, store FileStore, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	w, err := store.Write(ctx, path)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// ReadJSON decodes the document at path into v.
func ReadJSON(ctx context.Context, store FileStore, path string, v any) error {
	r, err := store.Read(ctx, path)
	if err != nil {
		return err
	}
	defer r.Close()
	return json.NewDecoder(r).Decode(v)
}
