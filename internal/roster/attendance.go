package roster

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/yrlschool/yrl-school/internal/schema"
	"github.com/yrlschool/yrl-school/internal/store"
)

const dayFormat = "2006-01-02"

// ErrAlreadyMarked reports a second attendance record for the same student
// and day.
var ErrAlreadyMarked = errors.New("attendance already marked for this day")

// ListAttendance returns all attendance records; a missing or corrupted
// collection reads as empty.
func (r *Repository) ListAttendance(ctx context.Context) []schema.AttendanceRecord {
	records := []schema.AttendanceRecord{}
	r.store.ReadJSON(ctx, store.KeyAttendance, &records)
	return records
}

// SaveAttendance overwrites the whole collection.
func (r *Repository) SaveAttendance(ctx context.Context, records []schema.AttendanceRecord) {
	r.store.Lock()
	defer r.store.Unlock()
	r.writeAttendance(ctx, records)
}

// writeAttendance persists the collection. Callers hold the write lock.
func (r *Repository) writeAttendance(ctx context.Context, records []schema.AttendanceRecord) {
	r.store.WriteJSON(ctx, store.KeyAttendance, records)
}

// AddAttendance appends one record unconditionally. Use MarkAttendance when
// uniqueness per (student, day) matters.
func (r *Repository) AddAttendance(ctx context.Context, rec schema.AttendanceRecord) {
	r.store.Lock()
	defer r.store.Unlock()
	r.writeAttendance(ctx, append(r.ListAttendance(ctx), rec))
}

// MarkAttendance appends a record unless one already exists for the same
// student and date. The duplicate check and the append run under the write
// lock so two simultaneous scans cannot both insert.
func (r *Repository) MarkAttendance(ctx context.Context, rec schema.AttendanceRecord) error {
	r.store.Lock()
	defer r.store.Unlock()
	records := r.ListAttendance(ctx)
	for _, existing := range records {
		if existing.StudentID == rec.StudentID && existing.Date == rec.Date {
			return ErrAlreadyMarked
		}
	}
	r.writeAttendance(ctx, append(records, rec))
	return nil
}

// AttendanceByDate returns the records for one YYYY-MM-DD day.
func (r *Repository) AttendanceByDate(ctx context.Context, date string) []schema.AttendanceRecord {
	out := []schema.AttendanceRecord{}
	for _, rec := range r.ListAttendance(ctx) {
		if rec.Date == date {
			out = append(out, rec)
		}
	}
	return out
}

// TodayAttendance returns the records for the current local day.
func (r *Repository) TodayAttendance(ctx context.Context) []schema.AttendanceRecord {
	return r.AttendanceByDate(ctx, r.now().Format(dayFormat))
}

// IsMarkedToday reports whether any record exists for the student on the
// current local day.
func (r *Repository) IsMarkedToday(ctx context.Context, studentID string) bool {
	for _, rec := range r.TodayAttendance(ctx) {
		if rec.StudentID == studentID {
			return true
		}
	}
	return false
}

// NewRecordID synthesizes an attendance record id.
func NewRecordID() string {
	return "record-" + uuid.NewString()
}
