// Package roster is the repository for students and attendance records. All
// state lives behind the store adapter; collections are read whole, mutated
// in memory and written back. The data layout assumes a single logical
// writer, so every mutator runs under the adapter's write lock to keep
// concurrent handlers from dropping each other's updates.
package roster

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yrlschool/yrl-school/internal/schema"
	"github.com/yrlschool/yrl-school/internal/store"
)

// Repository provides CRUD over students and attendance records.
type Repository struct {
	store *store.Adapter
	now   func() time.Time
}

// NewRepository creates a repository over the given adapter.
func NewRepository(st *store.Adapter) *Repository {
	return &Repository{store: st, now: time.Now}
}

// ListStudents returns all students; a missing or corrupted collection reads
// as empty.
func (r *Repository) ListStudents(ctx context.Context) []schema.Student {
	students := []schema.Student{}
	r.store.ReadJSON(ctx, store.KeyStudents, &students)
	return students
}

// SaveStudents overwrites the whole collection.
func (r *Repository) SaveStudents(ctx context.Context, students []schema.Student) {
	r.store.Lock()
	defer r.store.Unlock()
	r.writeStudents(ctx, students)
}

// writeStudents persists the collection. Callers hold the write lock.
func (r *Repository) writeStudents(ctx context.Context, students []schema.Student) {
	r.store.WriteJSON(ctx, store.KeyStudents, students)
}

// AddStudent appends one student.
func (r *Repository) AddStudent(ctx context.Context, s schema.Student) {
	r.store.Lock()
	defer r.store.Unlock()
	r.writeStudents(ctx, append(r.ListStudents(ctx), s))
}

// StudentPatch is a partial student update; nil fields are left unchanged.
type StudentPatch struct {
	Name      *string `json:"name"`
	StudentID *string `json:"studentId"`
	Grade     *string `json:"grade"`
	Gender    *string `json:"gender"`
	Status    *string `json:"status"`
	Photo     *string `json:"photo"`
}

// UpdateStudent applies a patch to the student with the given internal id.
// It reports whether the student existed.
func (r *Repository) UpdateStudent(ctx context.Context, id string, patch StudentPatch) bool {
	r.store.Lock()
	defer r.store.Unlock()
	students := r.ListStudents(ctx)
	for i := range students {
		if students[i].ID != id {
			continue
		}
		apply(&students[i], patch)
		r.writeStudents(ctx, students)
		return true
	}
	return false
}

func apply(s *schema.Student, p StudentPatch) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.StudentID != nil {
		s.StudentID = *p.StudentID
	}
	if p.Grade != nil {
		s.Grade = *p.Grade
	}
	if p.Gender != nil {
		s.Gender = *p.Gender
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Photo != nil {
		s.Photo = *p.Photo
	}
}

// RemoveStudent deletes by internal id; removing an unknown id is a no-op.
func (r *Repository) RemoveStudent(ctx context.Context, id string) {
	r.store.Lock()
	defer r.store.Unlock()
	students := r.ListStudents(ctx)
	kept := students[:0]
	for _, s := range students {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	r.writeStudents(ctx, kept)
}

// StudentByID finds a student by internal id.
func (r *Repository) StudentByID(ctx context.Context, id string) *schema.Student {
	for _, s := range r.ListStudents(ctx) {
		if s.ID == id {
			return &s
		}
	}
	return nil
}

// StudentByExternalID finds a student by the human-assigned id carried in the
// QR code.
func (r *Repository) StudentByExternalID(ctx context.Context, studentID string) *schema.Student {
	for _, s := range r.ListStudents(ctx) {
		if s.StudentID == studentID {
			return &s
		}
	}
	return nil
}

// NewStudentID synthesizes an internal record id.
func NewStudentID() string {
	return "student-" + uuid.NewString()
}
