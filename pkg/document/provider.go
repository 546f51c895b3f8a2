package document

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdfsmith/pdfsmith/pkg/session"
)

// Provider opens and saves PDF documents. It implements session.Provider.
type Provider struct {
	conf *model.Configuration
}

// NewProvider creates a provider with relaxed validation, matching what
// real-world PDFs require.
func NewProvider() *Provider {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Provider{conf: conf}
}

// Open loads and validates the PDF at path, returning the open handle and
// its page count.
func (p *Provider) Open(path string) (session.Handle, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read document: %w", err)
	}

	pages, err := api.PageCount(bytes.NewReader(data), p.conf)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse document: %w", err)
	}

	return &Document{conf: p.conf, data: data, pages: pages}, pages, nil
}

// Save writes the handle's current in-memory state to path. The write is
// synced before return so a following rename is durable.
func (p *Provider) Save(h session.Handle, path string) error {
	doc, ok := h.(*Document)
	if !ok {
		return fmt.Errorf("unsupported handle type %T", h)
	}

	data, err := doc.snapshot()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync document: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// Check reports whether the file at path is a loadable PDF.
func (p *Provider) Check(path string) bool {
	h, _, err := p.Open(path)
	if err != nil {
		return false
	}
	h.Close()
	return true
}
