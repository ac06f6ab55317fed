// Package archive maintains a bounded history of full-dataset snapshots with
// a once-per-day automatic cadence.
package archive

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yrlschool/yrl-school/internal/roster"
	"github.com/yrlschool/yrl-school/internal/schema"
	"github.com/yrlschool/yrl-school/internal/store"
)

// DefaultMax is the retention cap when none is configured.
const DefaultMax = 30

const dayFormat = "2006-01-02"

var createdTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "yrlschool",
	Subsystem: "archive",
	Name:      "created_total",
	Help:      "Archives created, manual and daily.",
})

// Manager owns the archive list and the last-archived marker. "Today" is the
// process-local clock truncated to the calendar day; the daily gate is
// evaluated at startup, not on a timer.
type Manager struct {
	store *store.Adapter
	repo  *roster.Repository
	max   int
	now   func() time.Time
}

// NewManager creates a manager with the given retention cap (<=0 means
// DefaultMax).
func NewManager(st *store.Adapter, repo *roster.Repository, max int) *Manager {
	if max <= 0 {
		max = DefaultMax
	}
	return &Manager{store: st, repo: repo, max: max, now: time.Now}
}

// List returns the archives oldest-first; a missing or corrupted list reads
// as empty.
func (m *Manager) List(ctx context.Context) []schema.Archive {
	archives := []schema.Archive{}
	m.store.ReadJSON(ctx, store.KeyArchives, &archives)
	return archives
}

// Create snapshots the full dataset into a new archive, evicts beyond the
// retention cap (oldest by append order) and records the last-archived day.
func (m *Manager) Create(ctx context.Context) schema.Archive {
	m.store.Lock()
	defer m.store.Unlock()
	return m.create(ctx)
}

// create does the snapshot work. Callers hold the write lock; the repository
// reads it goes through are lock-free.
func (m *Manager) create(ctx context.Context) schema.Archive {
	now := m.now()
	archive := schema.Archive{
		ID:        fmt.Sprintf("archive-%d", now.UnixMilli()),
		Date:      now.Format(dayFormat),
		Timestamp: now.Format(time.RFC3339),
		Data:      m.repo.Export(ctx),
	}

	archives := append(m.List(ctx), archive)
	if len(archives) > m.max {
		archives = archives[len(archives)-m.max:]
	}
	m.store.WriteJSON(ctx, store.KeyArchives, archives)
	m.store.WriteString(ctx, store.KeyLastArchiveDate, archive.Date)
	createdTotal.Inc()
	return archive
}

// ShouldCreateDaily reports whether no archive was made on the current day.
func (m *Manager) ShouldCreateDaily(ctx context.Context) bool {
	return m.store.ReadString(ctx, store.KeyLastArchiveDate) != m.now().Format(dayFormat)
}

// CheckAndCreateDaily creates today's archive if it is due. The gate and the
// snapshot run under the write lock so concurrent checks produce one archive.
func (m *Manager) CheckAndCreateDaily(ctx context.Context) {
	m.store.Lock()
	defer m.store.Unlock()
	if m.store.ReadString(ctx, store.KeyLastArchiveDate) == m.now().Format(dayFormat) {
		return
	}
	archive := m.create(ctx)
	log.Printf("archive: created daily snapshot %s", archive.ID)
}

// Restore overwrites the live dataset from the given archive. It reports
// false when the archive does not exist or its snapshot fails validation.
// Restoring is destructive and only undone by restoring another archive.
func (m *Manager) Restore(ctx context.Context, archiveID string) bool {
	for _, a := range m.List(ctx) {
		if a.ID != archiveID {
			continue
		}
		if err := m.repo.Import(ctx, a.Data); err != nil {
			log.Printf("archive: restoring %s failed: %v", archiveID, err)
			return false
		}
		return true
	}
	return false
}

// Remove deletes one archive; removing an unknown id is a no-op.
func (m *Manager) Remove(ctx context.Context, archiveID string) {
	m.store.Lock()
	defer m.store.Unlock()
	archives := m.List(ctx)
	kept := archives[:0]
	for _, a := range archives {
		if a.ID != archiveID {
			kept = append(kept, a)
		}
	}
	m.store.WriteJSON(ctx, store.KeyArchives, kept)
}
