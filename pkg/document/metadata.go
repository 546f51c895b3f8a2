package document

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// MetadataEditor mutates a document's properties (title, author, subject,
// keywords, or arbitrary keys) in memory.
type MetadataEditor struct {
	doc *Document
}

// Set writes one property.
func (e *MetadataEditor) Set(key, value string) error {
	return e.SetAll(map[string]string{key: value})
}

// SetAll writes a batch of properties.
func (e *MetadataEditor) SetAll(props map[string]string) error {
	if len(props) == 0 {
		return nil
	}
	for k := range props {
		if k == "" {
			return fmt.Errorf("property key cannot be empty")
		}
	}
	return e.doc.apply(func(rs io.ReadSeeker, w io.Writer) error {
		return api.AddProperties(rs, w, props, e.doc.conf)
	})
}

// Remove deletes the named properties.
func (e *MetadataEditor) Remove(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return e.doc.apply(func(rs io.ReadSeeker, w io.Writer) error {
		return api.RemoveProperties(rs, w, keys, e.doc.conf)
	})
}
