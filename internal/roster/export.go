package roster

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yrlschool/yrl-school/internal/schema"
	"github.com/yrlschool/yrl-school/internal/store"
)

var importsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "yrlschool",
	Subsystem: "roster",
	Name:      "database_imports_total",
	Help:      "Successful wholesale database imports (file, archive restore or transfer).",
})

// Export snapshots both collections with a fresh export date.
func (r *Repository) Export(ctx context.Context) schema.DatabaseExport {
	return schema.DatabaseExport{
		Students:   r.ListStudents(ctx),
		Attendance: r.ListAttendance(ctx),
		ExportDate: r.now().Format(time.RFC3339),
		Version:    schema.Version,
	}
}

// Import validates the export and overwrites both collections wholesale.
// There is no merge; the caller owns any confirmation flow.
func (r *Repository) Import(ctx context.Context, data schema.DatabaseExport) error {
	if err := schema.ValidateDatabaseExport(data); err != nil {
		return err
	}
	r.store.Lock()
	defer r.store.Unlock()
	r.writeStudents(ctx, data.Students)
	r.writeAttendance(ctx, data.Attendance)
	importsTotal.Inc()
	return nil
}

// ClearAll unconditionally empties both collections.
func (r *Repository) ClearAll(ctx context.Context) {
	r.store.Lock()
	defer r.store.Unlock()
	r.store.Delete(ctx, store.KeyStudents)
	r.store.Delete(ctx, store.KeyAttendance)
}

// ConsistencyReport lists attendance records whose studentId no longer
// matches any student. The data layer does not enforce this invariant, so a
// repair flow (or a test) has to ask.
type ConsistencyReport struct {
	OK       bool                      `json:"ok"`
	Orphaned []schema.AttendanceRecord `json:"orphaned"`
}

// CheckConsistency cross-references attendance records against the roster.
func (r *Repository) CheckConsistency(ctx context.Context) ConsistencyReport {
	known := map[string]bool{}
	for _, s := range r.ListStudents(ctx) {
		known[s.StudentID] = true
	}
	report := ConsistencyReport{OK: true, Orphaned: []schema.AttendanceRecord{}}
	for _, rec := range r.ListAttendance(ctx) {
		if !known[rec.StudentID] {
			report.OK = false
			report.Orphaned = append(report.Orphaned, rec)
		}
	}
	return report
}
