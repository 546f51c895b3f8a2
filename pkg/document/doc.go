// Package document implements the document handle provider over pdfcpu.
//
// A Document is an open PDF held in memory. Editing helpers (Pages,
// Metadata) mutate the in-memory state; the provider's Save writes it back
// out. The session core owns handle lifetime and closes each handle
// exactly once.
package document
