package roster

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yrlschool/yrl-school/internal/schema"
)

// Spreadsheet headers vary between exports; each field resolves through an
// ordered alias list and the first non-empty cell wins.
var (
	nameAliases      = []string{"الاسم", "name", "Name"}
	studentIDAliases = []string{"الرقم التعريفي", "studentId", "StudentID", "ID"}
	gradeAliases     = []string{"الصف", "grade", "Grade"}
	genderAliases    = []string{"الجنس", "gender", "Gender"}
	statusAliases    = []string{"الصفة", "status", "Status"}
)

// ImportRows maps loosely-typed spreadsheet rows into students. Rows missing
// a name, external id or grade are skipped, as are rows whose external id
// already exists; skipped rows are not errors. Returns the number actually
// inserted.
func (r *Repository) ImportRows(ctx context.Context, rows []map[string]any) int {
	r.store.Lock()
	defer r.store.Unlock()
	students := r.ListStudents(ctx)
	imported := 0

	for _, row := range rows {
		name := cell(row, nameAliases)
		studentID := cell(row, studentIDAliases)
		grade := cell(row, gradeAliases)
		if name == "" || studentID == "" || grade == "" {
			continue
		}

		exists := false
		for _, s := range students {
			if s.StudentID == studentID {
				exists = true
				break
			}
		}
		if exists {
			continue
		}

		students = append(students, NewStudent(name, studentID, grade, cell(row, genderAliases), cell(row, statusAliases), r.now()))
		imported++
	}

	r.writeStudents(ctx, students)
	return imported
}

// NewStudent builds a student with a synthesized id and creation stamp.
func NewStudent(name, studentID, grade, gender, status string, at time.Time) schema.Student {
	return schema.Student{
		ID:        NewStudentID(),
		Name:      name,
		StudentID: studentID,
		Grade:     grade,
		Gender:    gender,
		Status:    status,
		CreatedAt: at.Format(time.RFC3339),
	}
}

func cell(row map[string]any, aliases []string) string {
	for _, key := range aliases {
		v, ok := row[key]
		if !ok {
			continue
		}
		if s := stringify(v); s != "" {
			return s
		}
	}
	return ""
}

// stringify tolerates the types spreadsheet parsers emit: strings, and
// numeric cells for id-like columns.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
