package document

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageEditor mutates a document's pages in memory. Page indices are
// zero-based; pdfcpu page selections are one-based, translation happens
// here.
type PageEditor struct {
	doc *Document
}

func (e *PageEditor) selection(index int) ([]string, error) {
	if index < 0 || index >= e.doc.PageCount() {
		return nil, fmt.Errorf("%w: %d (document has %d pages)", ErrInvalidPage, index, e.doc.PageCount())
	}
	return []string{fmt.Sprintf("%d", index + 1)}, nil
}

// Delete removes the page at index.
func (e *PageEditor) Delete(index int) error {
	sel, err := e.selection(index)
	if err != nil {
		return err
	}
	if e.doc.PageCount() == 1 {
		return fmt.Errorf("cannot delete the only page")
	}
	return e.doc.apply(func(rs io.ReadSeeker, w io.Writer) error {
		return api.RemovePages(rs, w, sel, e.doc.conf)
	})
}

// Rotate rotates the page at index by the given degrees (multiples of 90).
func (e *PageEditor) Rotate(index, degrees int) error {
	sel, err := e.selection(index)
	if err != nil {
		return err
	}
	if degrees%90 != 0 {
		return fmt.Errorf("rotation must be a multiple of 90, got %d", degrees)
	}
	return e.doc.apply(func(rs io.ReadSeeker, w io.Writer) error {
		return api.Rotate(rs, w, degrees, sel, e.doc.conf)
	})
}

// InsertBlank inserts an empty page before the page at index.
func (e *PageEditor) InsertBlank(index int) error {
	sel, err := e.selection(index)
	if err != nil {
		return err
	}
	return e.doc.apply(func(rs io.ReadSeeker, w io.Writer) error {
		return api.InsertPages(rs, w, sel, true, e.doc.conf)
	})
}
