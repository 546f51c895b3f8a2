package session

// Handle is an open, mutable document owned by exactly one cache entry.
// It must be closed exactly once; the Manager enforces this on every
// removal path.
type Handle interface {
	// PageCount reports the handle's current number of pages, including
	// the effect of any in-memory edits not yet persisted.
	PageCount() int

	// Close releases all resources held by the handle.
	Close() error
}

// Provider opens and saves document handles. It is the only way the
// session core touches document internals.
type Provider interface {
	// Open loads the document at path and returns its handle and page count.
	Open(path string) (Handle, int, error)

	// Save writes the handle's current state to path.
	Save(h Handle, path string) error
}
