// Package artifact stores synthesized calls on the local filesystem.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// Writer saves audio artifacts under one directory.
type Writer struct {
	dir string
}

// NewWriter returns a writer for dir. An empty dir disables writing.
func NewWriter(dir string) *Writer {
	return &Writer{dir: strings.TrimSpace(dir)}
}

// Enabled reports whether artifacts are written at all.
func (w *Writer) Enabled() bool {
	return w != nil && w.dir != ""
}

// FileName returns call_<company>_<first 8 chars of runID>.<ext>.
func FileName(company, runID, ext string) string {
	slug := strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(company), "_"), "_")
	if slug == "" {
		slug = "unknown"
	}
	prefix := runID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("call_%s_%s.%s", slug, prefix, ext)
}

// Write stores data and returns the file path. The directory is created on demand.
func (w *Writer) Write(company, runID, ext string, data []byte) (string, error) {
	if !w.Enabled() {
		return "", nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(w.dir, FileName(company, runID, ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
