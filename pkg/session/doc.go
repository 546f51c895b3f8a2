// Package session turns a stateless document API into stateful, resumable
// editing sessions over an open document handle.
//
// A session is "warm" while an open handle for it lives in the in-process
// cache and "cold" while only its durable record and content file exist.
// The Manager owns all transitions between the two.
//
// Invariants:
// - At most one open handle exists per session id at any time.
// - Operations on the same session id are serialized; unrelated ids proceed
//   independently.
// - Persisting swaps the content file atomically; the durable last-modified
//   timestamp is written only after the swap.
// - Reaping never touches a warm session.
//
// Usage:
//
//	store, _ := session.NewStore(filepath.Join(dataDir, "sessions.db"))
//	area, _ := session.NewContentArea(dataDir)
//	mgr, _ := session.NewManager(session.Config{
//		Store:    store,
//		Content:  area,
//		Provider: provider,
//		Logger:   logger,
//	})
//	id, _ := mgr.Create(ctx, uploadPath, "report.pdf")
//	entry, _ := mgr.Resolve(ctx, id)
//	_ = entry
package session
