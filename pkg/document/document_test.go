package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfsmith/pdfsmith/pkg/session"
)

// minimalPDF builds a syntactically complete PDF with the given number of
// empty pages, computing xref offsets as it goes. The comment line after the
// header pads the file past the parser's fixed tail-scan window, which must
// contain the startxref marker for the file to load.
func minimalPDF(pages int) []byte {
	var b bytes.Buffer
	var offsets []int
	writeObj := func(s string) {
		offsets = append(offsets, b.Len())
		b.WriteString(s)
	}

	b.WriteString("%PDF-1.4\n")
	b.WriteString("%" + strings.Repeat("p", 1022) + "\n")
	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	writeObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [ %s] /Count %d >>\nendobj\n", kids, pages))

	for i := 0; i < pages; i++ {
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << >> >>\nendobj\n", 3+i))
	}

	xrefPos := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(offsets)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefPos)
	return b.Bytes()
}

func TestMinimalPDF_ExceedsTailScanWindow(t *testing.T) {
	// The parser reads a fixed-size window from the end of the file to find
	// startxref; fixtures smaller than it are unreadable.
	require.Greater(t, len(minimalPDF(1)), 1024)
}

func writePDF(t *testing.T, pages int) string {
	path := filepath.Join(t.TempDir(), "test.pdf")
	require.NoError(t, os.WriteFile(path, minimalPDF(pages), 0600))
	return path
}

func openPDF(t *testing.T, pages int) *Document {
	p := NewProvider()
	h, count, err := p.Open(writePDF(t, pages))
	require.NoError(t, err)
	require.Equal(t, pages, count)
	return h.(*Document)
}

func TestProvider_Open(t *testing.T) {
	p := NewProvider()

	h, count, err := p.Open(writePDF(t, 3))
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, 3, count)
	assert.Equal(t, 3, h.PageCount())
}

func TestProvider_OpenMissingFile(t *testing.T) {
	p := NewProvider()
	_, _, err := p.Open("/nonexistent/file.pdf")
	assert.Error(t, err)
}

func TestProvider_OpenGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0600))

	p := NewProvider()
	_, _, err := p.Open(path)
	assert.Error(t, err)
}

func TestProvider_SaveRoundtrip(t *testing.T) {
	p := NewProvider()
	doc := openPDF(t, 2)
	defer doc.Close()

	out := filepath.Join(t.TempDir(), "saved.pdf")
	require.NoError(t, p.Save(doc, out))

	reopened, count, err := p.Open(out)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 2, count)
}

func TestProvider_SaveRejectsForeignHandle(t *testing.T) {
	p := NewProvider()
	err := p.Save(foreignHandle{}, filepath.Join(t.TempDir(), "out.pdf"))
	assert.Error(t, err)
}

type foreignHandle struct{}

func (foreignHandle) PageCount() int { return 0 }
func (foreignHandle) Close() error   { return nil }

func TestProvider_Check(t *testing.T) {
	p := NewProvider()
	assert.True(t, p.Check(writePDF(t, 1)))

	garbage := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("nope"), 0600))
	assert.False(t, p.Check(garbage))
	assert.False(t, p.Check("/nonexistent.pdf"))
}

func TestDocument_CloseTwice(t *testing.T) {
	doc := openPDF(t, 1)

	require.NoError(t, doc.Close())
	assert.ErrorIs(t, doc.Close(), ErrClosed)
}

func TestDocument_UseAfterClose(t *testing.T) {
	p := NewProvider()
	doc := openPDF(t, 2)
	require.NoError(t, doc.Close())

	assert.ErrorIs(t, doc.Pages().Delete(0), ErrClosed)
	assert.ErrorIs(t, p.Save(doc, filepath.Join(t.TempDir(), "out.pdf")), ErrClosed)
}

func TestPageEditor_Delete(t *testing.T) {
	doc := openPDF(t, 3)
	defer doc.Close()

	require.NoError(t, doc.Pages().Delete(1))
	assert.Equal(t, 2, doc.PageCount())
}

func TestPageEditor_DeleteOutOfRange(t *testing.T) {
	doc := openPDF(t, 2)
	defer doc.Close()

	assert.ErrorIs(t, doc.Pages().Delete(-1), ErrInvalidPage)
	assert.ErrorIs(t, doc.Pages().Delete(2), ErrInvalidPage)
	assert.Equal(t, 2, doc.PageCount())
}

func TestPageEditor_DeleteOnlyPage(t *testing.T) {
	doc := openPDF(t, 1)
	defer doc.Close()

	assert.Error(t, doc.Pages().Delete(0))
	assert.Equal(t, 1, doc.PageCount())
}

func TestPageEditor_Rotate(t *testing.T) {
	doc := openPDF(t, 2)
	defer doc.Close()

	require.NoError(t, doc.Pages().Rotate(0, 90))
	assert.Equal(t, 2, doc.PageCount())

	assert.Error(t, doc.Pages().Rotate(0, 45))
	assert.ErrorIs(t, doc.Pages().Rotate(5, 90), ErrInvalidPage)
}

func TestPageEditor_InsertBlank(t *testing.T) {
	doc := openPDF(t, 2)
	defer doc.Close()

	require.NoError(t, doc.Pages().InsertBlank(1))
	assert.Equal(t, 3, doc.PageCount())
}

func TestMetadataEditor_Set(t *testing.T) {
	doc := openPDF(t, 1)
	defer doc.Close()

	require.NoError(t, doc.Metadata().Set("Title", "Quarterly Report"))
	require.NoError(t, doc.Metadata().SetAll(map[string]string{
		"Author":  "pdfsmith",
		"Subject": "testing",
	}))

	assert.Error(t, doc.Metadata().Set("", "value"))
	assert.NoError(t, doc.Metadata().SetAll(nil))
}

func TestMetadataEditor_Remove(t *testing.T) {
	doc := openPDF(t, 1)
	defer doc.Close()

	require.NoError(t, doc.Metadata().Set("Title", "temp"))
	require.NoError(t, doc.Metadata().Remove("Title"))
	assert.NoError(t, doc.Metadata().Remove())
}

// End-to-end through the session manager with the real provider: upload a
// 3-page PDF, delete a page, persist, rehydrate.
func TestDocument_SessionRoundtrip(t *testing.T) {
	dir := t.TempDir()

	store, err := session.NewStore(filepath.Join(dir, "sessions.db"))
	require.NoError(t, err)
	defer store.Close()

	area, err := session.NewContentArea(filepath.Join(dir, "content"))
	require.NoError(t, err)

	mgr, err := session.NewManager(session.Config{
		Store:    store,
		Content:  area,
		Provider: NewProvider(),
		Logger:   zerolog.New(os.Stdout).Level(zerolog.Disabled),
	})
	require.NoError(t, err)
	defer mgr.Close()

	upload := filepath.Join(dir, "upload.tmp")
	require.NoError(t, os.WriteFile(upload, minimalPDF(3), 0600))

	id, err := mgr.Create(context.Background(), upload, "report.pdf")
	require.NoError(t, err)

	entry, err := mgr.Resolve(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, 3, entry.PageCount)

	require.NoError(t, entry.Handle.(*Document).Pages().Delete(1))

	persisted, err := mgr.Persist(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, persisted.PageCount)

	require.NoError(t, mgr.Close())

	rehydrated, err := mgr.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, rehydrated.PageCount)
}
