package session

import "errors"

var (
	// ErrNotFound is returned when no session exists for the given id
	ErrNotFound = errors.New("session not found")

	// ErrLoad is returned when session content exists but cannot be opened as a document
	ErrLoad = errors.New("document cannot be loaded")

	// ErrSave is returned when persisting a session's document fails
	ErrSave = errors.New("document cannot be saved")

	// ErrStorage is returned when the durable session store fails
	ErrStorage = errors.New("session store failure")

	// ErrEmptyUpload is returned when a staged upload contains no data
	ErrEmptyUpload = errors.New("uploaded file is empty")

	// ErrUploadTooLarge is returned when a staged upload exceeds the size limit
	ErrUploadTooLarge = errors.New("uploaded file too large")

	// ErrNotPDF is returned when a staged upload does not look like a PDF
	ErrNotPDF = errors.New("uploaded file is not a PDF")
)
