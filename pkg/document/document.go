package document

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Document is an open, mutable PDF. It is exclusively owned by whoever
// holds it (the session cache entry); edits happen in memory and reach
// disk only through the provider's Save.
type Document struct {
	mu     sync.Mutex
	conf   *model.Configuration
	data   []byte
	pages  int
	closed bool
}

// PageCount reports the current number of pages, including unsaved edits.
func (d *Document) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pages
}

// Close releases the document's resources. Closing twice is an error; the
// session core guarantees at most one close per handle.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	d.data = nil
	return nil
}

// Pages returns the page editor bound to this document.
func (d *Document) Pages() *PageEditor {
	return &PageEditor{doc: d}
}

// Metadata returns the metadata editor bound to this document.
func (d *Document) Metadata() *MetadataEditor {
	return &MetadataEditor{doc: d}
}

// snapshot returns a copy of the current PDF bytes.
func (d *Document) snapshot() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	out := make([]byte, len(d.data))
	copy(out, d.data)
	return out, nil
}

// apply runs a pdfcpu transform over the current bytes and, on success,
// replaces the document state with the result.
func (d *Document) apply(op func(rs io.ReadSeeker, w io.Writer) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	var buf bytes.Buffer
	if err := op(bytes.NewReader(d.data), &buf); err != nil {
		return err
	}

	data := buf.Bytes()
	pages, err := api.PageCount(bytes.NewReader(data), d.conf)
	if err != nil {
		return fmt.Errorf("failed to reread document after edit: %w", err)
	}

	d.data = data
	d.pages = pages
	return nil
}
