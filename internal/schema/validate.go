package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ymdRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
		return ymdRe.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// FieldViolation is one failed constraint on one field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports that a value does not match its schema. The
// violation list is for logs and diagnostics; user-facing surfaces show a
// generic message instead.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "data does not match the required format"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "data does not match the required format (" + strings.Join(parts, "; ") + ")"
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return &ValidationError{}
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{}
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Violations = append(out.Violations, FieldViolation{
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("failed %q constraint", fe.Tag()),
		})
	}
	return out
}

// ValidateStudent checks a single student record.
func ValidateStudent(s Student) error { return check(s) }

// ValidateAttendanceRecord checks a single attendance record.
func ValidateAttendanceRecord(r AttendanceRecord) error { return check(r) }

// ValidateDatabaseExport checks an already-parsed export aggregate, including
// the collection ceilings.
func ValidateDatabaseExport(d DatabaseExport) error {
	if len(d.Students) > MaxStudents {
		return &ValidationError{Violations: []FieldViolation{{
			Field:   "DatabaseExport.Students",
			Message: fmt.Sprintf("more than %d entries", MaxStudents),
		}}}
	}
	if len(d.Attendance) > MaxAttendanceRecords {
		return &ValidationError{Violations: []FieldViolation{{
			Field:   "DatabaseExport.Attendance",
			Message: fmt.Sprintf("more than %d entries", MaxAttendanceRecords),
		}}}
	}
	return check(d)
}

// ValidateSettings checks school settings.
func ValidateSettings(s SchoolSettings) error { return check(s) }

func strictDecode(raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return &ValidationError{Violations: []FieldViolation{{Field: "$", Message: err.Error()}}}
	}
	// Trailing garbage after the document is a shape mismatch too.
	if dec.More() {
		return &ValidationError{Violations: []FieldViolation{{Field: "$", Message: "trailing data after document"}}}
	}
	return nil
}

// DecodeDatabaseExport parses and validates a raw export document. Unknown
// fields anywhere in the document are rejected.
func DecodeDatabaseExport(raw []byte) (DatabaseExport, error) {
	var d DatabaseExport
	if err := strictDecode(raw, &d); err != nil {
		return DatabaseExport{}, err
	}
	if err := check(d); err != nil {
		return DatabaseExport{}, err
	}
	return d, nil
}
