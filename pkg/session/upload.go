package session

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var pdfHeader = []byte("%PDF-")

// StageUpload writes an untrusted upload stream to a unique temp file and
// returns its path, for handing to Manager.Create (which always removes it).
//
// The stream is rejected if empty, if it exceeds maxBytes, or if it does not
// start with a PDF header.
func StageUpload(tempDir string, maxBytes int64, filename string, r io.Reader) (string, error) {
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	safe := SanitizeFilename(filename)
	path := filepath.Join(tempDir, fmt.Sprintf("upload_%s_%s", uuid.NewString(), safe))

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	// Read one byte past the limit so an exactly-at-limit upload passes.
	limited := r
	if maxBytes > 0 {
		limited = io.LimitReader(r, maxBytes+1)
	}

	n, err := io.Copy(out, limited)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if n == 0 {
		os.Remove(path)
		return "", ErrEmptyUpload
	}
	if maxBytes > 0 && n > maxBytes {
		os.Remove(path)
		return "", fmt.Errorf("%w: limit %d bytes", ErrUploadTooLarge, maxBytes)
	}

	header := make([]byte, len(pdfHeader))
	f, err := os.Open(path)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to reopen temp file: %w", err)
	}
	_, err = io.ReadFull(f, header)
	f.Close()
	if err != nil || !bytes.Equal(header, pdfHeader) {
		os.Remove(path)
		return "", ErrNotPDF
	}

	return path, nil
}
