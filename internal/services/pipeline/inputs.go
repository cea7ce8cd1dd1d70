package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SupportedExtensions lists the input formats batch mode picks up.
var SupportedExtensions = []string{".wav", ".mp3", ".flac", ".m4a", ".aac", ".ogg", ".webm", ".mp4"}

func supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Discover lists supported recordings directly inside dir, sorted by name.
// A missing directory holds no inputs.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading input directory: %w", err)
	}
	var inputs []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") || !supported(e.Name()) {
			continue
		}
		inputs = append(inputs, filepath.Join(dir, e.Name()))
	}
	sort.Strings(inputs)
	return inputs, nil
}

// SessionName derives the session id from an input file name.
func SessionName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Archive moves input into dir. When the name is taken a _N suffix is added
// before the extension.
func Archive(input, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	dst := filepath.Join(dir, base)
	for n := 1; ; n++ {
		if _, err := os.Stat(dst); os.IsNotExist(err) {
			break
		}
		dst = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}

	if err := os.Rename(input, dst); err == nil {
		return dst, nil
	}
	// rename fails across file systems
	if err := copyFile(input, dst); err != nil {
		return "", err
	}
	return dst, os.Remove(input)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
