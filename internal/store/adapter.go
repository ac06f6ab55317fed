package store

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// Adapter centralizes JSON (de)serialization and the degradation policy: a
// read that fails for any reason leaves the destination at its default, and a
// failed write is logged and counted but never propagated. A corrupted
// collection must not brick the application.
//
// It also carries the process-wide write lock. Collections are persisted
// whole, so every mutation is a read-modify-write; concurrent handlers racing
// through that sequence would drop each other's updates.
type Adapter struct {
	mu sync.Mutex
	kv KV
}

// NewAdapter wraps a KV backend.
func NewAdapter(kv KV) *Adapter {
	return &Adapter{kv: kv}
}

// ReadJSON unmarshals the value stored under key into out. It reports whether
// a valid value was found; on any failure out is left untouched so callers
// keep their pre-set default.
func (a *Adapter) ReadJSON(ctx context.Context, key string, out any) bool {
	readsTotal.WithLabelValues(key).Inc()
	raw, ok, err := a.kv.Get(ctx, key)
	if err != nil {
		log.Printf("store: reading %s failed: %v", key, err)
		readDegradations.WithLabelValues(key).Inc()
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Printf("store: %s holds malformed data, falling back to default: %v", key, err)
		readDegradations.WithLabelValues(key).Inc()
		return false
	}
	return true
}

// WriteJSON marshals v under key. Failures are contained here: the caller's
// action appears to succeed in-session even when persistence failed, which is
// a documented trade-off.
func (a *Adapter) WriteJSON(ctx context.Context, key string, v any) {
	writesTotal.WithLabelValues(key).Inc()
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("store: serializing %s failed: %v", key, err)
		writeFailures.WithLabelValues(key).Inc()
		return
	}
	if err := a.kv.Set(ctx, key, string(raw)); err != nil {
		log.Printf("store: writing %s failed: %v", key, err)
		writeFailures.WithLabelValues(key).Inc()
	}
}

// ReadString reads a scalar string value (stored JSON-encoded so the postgres
// backend can keep everything as jsonb).
func (a *Adapter) ReadString(ctx context.Context, key string) string {
	var s string
	a.ReadJSON(ctx, key, &s)
	return s
}

// WriteString writes a scalar string value.
func (a *Adapter) WriteString(ctx context.Context, key, value string) {
	a.WriteJSON(ctx, key, value)
}

// Delete removes a key; failures are logged only.
func (a *Adapter) Delete(ctx context.Context, key string) {
	if err := a.kv.Delete(ctx, key); err != nil {
		log.Printf("store: deleting %s failed: %v", key, err)
		writeFailures.WithLabelValues(key).Inc()
	}
}

// Lock serializes a read-modify-write sequence against all repositories
// sharing this adapter. Point reads stay lock-free; staleness there is
// covered by the degradation policy.
func (a *Adapter) Lock() { a.mu.Lock() }

// Unlock releases the write lock.
func (a *Adapter) Unlock() { a.mu.Unlock() }

// Healthy reports backend health for the readiness probe.
func (a *Adapter) Healthy(ctx context.Context) bool {
	return a.kv.Healthy(ctx)
}
