// Package store isolates all persistence behind named logical keys. Reads
// degrade to empty defaults instead of failing; writes are logged and counted
// when they fail but never surface to the caller.
package store

import "context"

// Logical keys for everything the application persists.
const (
	KeyStudents        = "attendance_students"
	KeyAttendance      = "attendance_records"
	KeyArchives        = "attendance_archives"
	KeyLastArchiveDate = "last_archive_date"
	KeySettings        = "school_settings"
)

// KV is the raw key-value backend. Backends are selected by STORE_BACKEND:
// file (default), redis or postgres.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Healthy(ctx context.Context) bool
	Close() error
}
