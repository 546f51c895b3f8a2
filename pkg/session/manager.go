package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pdfsmith/pdfsmith/internal/observability"
	"github.com/pdfsmith/pdfsmith/internal/tracing"
)

const tracerName = "pdfsmith.session"

// Manager is the session lifecycle façade. All callers go through it; none
// touch the Store or ContentArea directly.
type Manager struct {
	store    *Store
	content  *ContentArea
	provider Provider
	cache    *Cache
	logger   zerolog.Logger

	// Per-id mutexes serialize Create/Resolve/Persist/Delete for the same
	// session while unrelated sessions proceed independently. Locks are
	// never removed: dropping one while a waiter holds a reference would
	// let that waiter and a newcomer serialize on different mutexes.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Config holds Manager dependencies.
type Config struct {
	Store    *Store
	Content  *ContentArea
	Provider Provider
	Logger   zerolog.Logger
}

// NewManager creates a session manager.
func NewManager(cfg Config) (*Manager, error) {
	observability.EnsureRegistered()

	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Content == nil {
		return nil, errors.New("content area is required")
	}
	if cfg.Provider == nil {
		return nil, errors.New("document provider is required")
	}

	m := &Manager{
		store:    cfg.Store,
		content:  cfg.Content,
		provider: cfg.Provider,
		cache:    NewCache(),
		logger:   cfg.Logger,
		locks:    make(map[string]*sync.Mutex),
	}

	m.logger.Info().Str("dir", cfg.Content.Dir()).Msg("Session manager initialized")
	return m, nil
}

func (m *Manager) lock(id string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()

	if l, ok := m.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	m.locks[id] = l
	return l
}

// Create builds a new session from the uploaded file at uploadPath. The
// upload is always removed before Create returns, success or failure; the
// content area gets its own copy.
//
// On any failure after the copy-in, the copied file is removed so no
// orphaned content survives a failed create.
func (m *Manager) Create(ctx context.Context, uploadPath, originalName string) (string, error) {
	id := uuid.NewString()

	ctx = tracing.WithSessionID(ctx, id)
	ctx, span := tracing.StartSpan(
		ctx,
		tracerName,
		"session.create",
		attribute.String("session_id", id),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, m.logger)

	defer func() {
		if err := os.Remove(uploadPath); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", uploadPath).Msg("Failed to remove upload temp file")
		}
	}()

	filename := SanitizeFilename(originalName)
	storagePath := m.content.PathFor(id, filename)

	l := m.lock(id)
	l.Lock()
	defer l.Unlock()

	if err := m.content.CopyIn(uploadPath, storagePath); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	handle, pageCount, err := m.provider.Open(storagePath)
	if err != nil {
		m.content.Remove(storagePath)
		err = fmt.Errorf("%w: %v", ErrLoad, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	now := time.Now().UTC()
	rec := Record{
		ID:           id,
		Filename:     filename,
		StoragePath:  storagePath,
		CreatedAt:    now,
		LastModified: now,
	}
	if err := m.store.Save(rec); err != nil {
		handle.Close()
		m.content.Remove(storagePath)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	m.cache.Put(&Entry{
		ID:           id,
		Filename:     filename,
		StoragePath:  storagePath,
		CreatedAt:    now,
		LastModified: now,
		PageCount:    pageCount,
		Handle:       handle,
	})

	observability.IncSessionsCreated()
	observability.SetActiveSessions(m.cache.Len())

	logger.Info().
		Str("filename", filename).
		Int("page_count", pageCount).
		Msg("Session created")

	return id, nil
}

// Resolve returns the warm entry for id, hydrating it from the durable
// record and content file if the session is cold. Hydration is single-flight
// per id: the per-id lock guarantees at most one open handle ever ends up
// cached.
func (m *Manager) Resolve(ctx context.Context, id string) (*Entry, error) {
	if e := m.cache.Get(id); e != nil {
		return e, nil
	}

	ctx = tracing.WithSessionID(ctx, id)
	ctx, span := tracing.StartSpan(
		ctx,
		tracerName,
		"session.resolve",
		attribute.String("session_id", id),
	)
	defer span.End()

	l := m.lock(id)
	l.Lock()
	defer l.Unlock()

	e, err := m.resolveLocked(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return e, nil
}

// resolveLocked is the hydration path; the caller holds the per-id lock.
func (m *Manager) resolveLocked(ctx context.Context, id string) (*Entry, error) {
	if e := m.cache.Get(id); e != nil {
		return e, nil
	}

	rec, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	handle, pageCount, err := m.provider.Open(rec.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	observability.ObserveHydration(time.Since(start))

	e := &Entry{
		ID:           rec.ID,
		Filename:     rec.Filename,
		StoragePath:  rec.StoragePath,
		CreatedAt:    rec.CreatedAt,
		LastModified: rec.LastModified,
		PageCount:    pageCount,
		Handle:       handle,
	}
	m.cache.Put(e)
	observability.SetActiveSessions(m.cache.Len())

	logger := tracing.LoggerFromContext(ctx, m.logger)
	logger.Debug().
		Int("page_count", pageCount).
		Msg("Session hydrated")

	return e, nil
}

// Persist saves the live handle to disk with an atomic rename-over, so a
// concurrent reader of the content file never observes a partial write.
// The durable last-modified timestamp is updated only after the swap.
func (m *Manager) Persist(ctx context.Context, id string) (*Entry, error) {
	ctx = tracing.WithSessionID(ctx, id)
	ctx, span := tracing.StartSpan(
		ctx,
		tracerName,
		"session.persist",
		attribute.String("session_id", id),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, m.logger)

	l := m.lock(id)
	l.Lock()
	defer l.Unlock()

	e, err := m.resolveLocked(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := time.Now()
	tmpPath := e.StoragePath + ".tmp"
	if err := m.provider.Save(e.Handle, tmpPath); err != nil {
		m.removeTemp(tmpPath, logger)
		err = fmt.Errorf("%w: %v", ErrSave, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := os.Rename(tmpPath, e.StoragePath); err != nil {
		m.removeTemp(tmpPath, logger)
		err = fmt.Errorf("%w: %v", ErrSave, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	observability.ObservePersist(time.Since(start))

	now := time.Now().UTC()
	e.LastModified = now
	e.PageCount = e.Handle.PageCount()
	if err := m.store.UpdateLastModified(id, now); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger.Debug().
		Int("page_count", e.PageCount).
		Msg("Session persisted")

	return e, nil
}

func (m *Manager) removeTemp(path string, logger zerolog.Logger) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to remove temp save file")
	}
}

// Delete removes the session: closes the handle if warm, deletes the
// content file if present, and deletes the durable record. Idempotent.
func (m *Manager) Delete(ctx context.Context, id string) error {
	ctx = tracing.WithSessionID(ctx, id)
	ctx, span := tracing.StartSpan(
		ctx,
		tracerName,
		"session.delete",
		attribute.String("session_id", id),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, m.logger)

	l := m.lock(id)
	l.Lock()
	defer l.Unlock()

	storagePath := ""
	if e := m.cache.Remove(id); e != nil {
		storagePath = e.StoragePath
		if err := e.Handle.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close document handle")
		}
		observability.SetActiveSessions(m.cache.Len())
	} else {
		rec, err := m.store.Get(id)
		if err == nil {
			storagePath = rec.StoragePath
		} else if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	if storagePath != "" {
		if err := m.content.Remove(storagePath); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	if err := m.store.Delete(id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	logger.Info().Msg("Session deleted")
	return nil
}

// ReapStale deletes every cold session whose last-modified timestamp is
// strictly older than now minus ttl. Warm sessions are never reaped,
// regardless of age. Individual removal failures are logged and skipped;
// the sweep continues. Returns the number of sessions reaped.
func (m *Manager) ReapStale(ctx context.Context, ttl time.Duration) (int, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "session.reap_stale")
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, m.logger)

	records, err := m.store.ListAll()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-ttl)
	reaped := 0

	for _, rec := range records {
		if !rec.LastModified.Before(cutoff) {
			continue
		}
		if m.cache.Get(rec.ID) != nil {
			continue
		}

		l := m.lock(rec.ID)
		l.Lock()

		// A concurrent Resolve may have hydrated while we waited.
		if m.cache.Get(rec.ID) != nil {
			l.Unlock()
			continue
		}

		if err := m.content.Remove(rec.StoragePath); err != nil {
			logger.Warn().
				Err(err).
				Str("session_id", rec.ID).
				Str("path", rec.StoragePath).
				Msg("Failed to remove stale content file")
		}
		if err := m.store.Delete(rec.ID); err != nil {
			logger.Warn().Err(err).Str("session_id", rec.ID).Msg("Failed to delete stale record")
			l.Unlock()
			continue
		}
		reaped++
		l.Unlock()
	}

	span.SetAttributes(attribute.Int("reaped", reaped))
	if reaped > 0 {
		observability.AddSessionsReaped(reaped)
		logger.Info().
			Int("reaped", reaped).
			Dur("ttl", ttl).
			Msg("Cleaned up stale sessions")
	}
	return reaped, nil
}

// Close closes every warm handle. Called on process shutdown; sessions
// stay cold and resumable in the durable store.
func (m *Manager) Close() error {
	var firstErr error
	for _, id := range m.cache.IDs() {
		l := m.lock(id)
		l.Lock()
		if e := m.cache.Remove(id); e != nil {
			if err := e.Handle.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		l.Unlock()
	}
	observability.SetActiveSessions(m.cache.Len())
	return firstErr
}
