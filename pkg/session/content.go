package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ContentArea is the directory holding each session's canonical file
// content, one file per session, named deterministically from the id.
type ContentArea struct {
	dir string
}

// NewContentArea creates the content directory if needed.
func NewContentArea(dir string) (*ContentArea, error) {
	if dir == "" {
		return nil, fmt.Errorf("content directory is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create content directory: %w", err)
	}
	return &ContentArea{dir: dir}, nil
}

// Dir returns the content directory.
func (c *ContentArea) Dir() string {
	return c.dir
}

// SanitizeFilename strips any path components from an untrusted filename,
// keeping only the base name. Names that reduce to nothing fall back to
// "document.pdf".
func SanitizeFilename(name string) string {
	// Backslashes are separators on some clients regardless of our OS.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "\x00", "")
	if name == "" || name == "." || name == ".." || name == "/" {
		return "document.pdf"
	}
	return name
}

// PathFor returns the storage path for a session id and sanitized filename.
func (c *ContentArea) PathFor(id, filename string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s", id, filename))
}

// CopyIn copies the file at src into the content area at dst. The source is
// left untouched so the caller can clean up its own temp file independent
// of the session's fate.
func (c *ContentArea) CopyIn(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create content file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy upload: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to sync content file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to close content file: %w", err)
	}
	return nil
}

// Remove deletes the file at path. A missing file is not an error, so
// cleanup after partial failures stays idempotent.
func (c *ContentArea) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove content file: %w", err)
	}
	return nil
}
