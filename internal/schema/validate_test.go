package schema

import (
	"errors"
	"strings"
	"testing"
)

func validStudent() Student {
	return Student{
		ID:        "student-1",
		Name:      "Ali",
		StudentID: "100",
		Grade:     "G1",
		CreatedAt: "2025-01-01T00:00:00Z",
	}
}

func validRecord() AttendanceRecord {
	return AttendanceRecord{
		ID:          "record-1",
		StudentID:   "100",
		StudentName: "Ali",
		Date:        "2025-01-15",
		Time:        "08:30:00",
		Timestamp:   1736930000000,
	}
}

func TestValidateStudent(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Student)
		wantErr bool
	}{
		{"valid", func(s *Student) {}, false},
		{"optional fields set", func(s *Student) { s.Gender = "m"; s.Status = "active"; s.Photo = "data:image/png;base64,AAAA" }, false},
		{"missing name", func(s *Student) { s.Name = "" }, true},
		{"missing student id", func(s *Student) { s.StudentID = "" }, true},
		{"missing grade", func(s *Student) { s.Grade = "" }, true},
		{"missing created at", func(s *Student) { s.CreatedAt = "" }, true},
		{"name too long", func(s *Student) { s.Name = strings.Repeat("x", 101) }, true},
		{"student id too long", func(s *Student) { s.StudentID = strings.Repeat("1", 51) }, true},
		{"gender too long", func(s *Student) { s.Gender = strings.Repeat("x", 21) }, true},
		{"photo too long", func(s *Student) { s.Photo = strings.Repeat("x", 10001) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validStudent()
			tt.mutate(&s)
			err := ValidateStudent(s)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStudent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("error is %T, want *ValidationError", err)
				}
			}
		})
	}
}

func TestValidateAttendanceRecord(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AttendanceRecord)
		wantErr bool
	}{
		{"valid", func(r *AttendanceRecord) {}, false},
		{"empty denormalized name ok", func(r *AttendanceRecord) { r.StudentName = "" }, false},
		{"missing time", func(r *AttendanceRecord) { r.Time = "" }, true},
		{"date wrong shape", func(r *AttendanceRecord) { r.Date = "15/01/2025" }, true},
		{"date with time suffix", func(r *AttendanceRecord) { r.Date = "2025-01-15T08:30:00Z" }, true},
		{"date too short", func(r *AttendanceRecord) { r.Date = "2025-1-5" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			if err := ValidateAttendanceRecord(r); (err != nil) != tt.wantErr {
				t.Errorf("ValidateAttendanceRecord() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeDatabaseExport(t *testing.T) {
	valid := `{
		"students": [{"id":"s1","name":"Ali","studentId":"100","grade":"G1","createdAt":"2025-01-01T00:00:00Z"}],
		"attendance": [],
		"exportDate": "2025-01-01T00:00:00Z",
		"version": "1.0.0"
	}`

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", valid, false},
		{"not json", `{{{`, true},
		{"unknown top-level field", `{"students":[],"attendance":[],"exportDate":"x","version":"1.0.0","extra":1}`, true},
		{"unknown student field", `{"students":[{"id":"s1","name":"Ali","studentId":"100","grade":"G1","createdAt":"x","nickname":"A"}],"attendance":[],"exportDate":"x","version":"1.0.0"}`, true},
		{"missing students", `{"attendance":[],"exportDate":"x","version":"1.0.0"}`, true},
		{"missing version", `{"students":[],"attendance":[],"exportDate":"x"}`, true},
		{"bad attendance date", `{"students":[],"attendance":[{"id":"r1","studentId":"100","studentName":"Ali","date":"not-a-date","time":"08:00","timestamp":1}],"exportDate":"x","version":"1.0.0"}`, true},
		{"wrong type", `{"students":"nope","attendance":[],"exportDate":"x","version":"1.0.0"}`, true},
		{"trailing garbage", valid + `{"more":true}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDatabaseExport([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeDatabaseExport() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeDatabaseExportCeilings(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`{"students":[`)
	for i := 0; i <= MaxStudents; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"id":"s","name":"n","studentId":"1","grade":"g","createdAt":"t"}`)
	}
	sb.WriteString(`],"attendance":[],"exportDate":"x","version":"1.0.0"}`)

	if _, err := DecodeDatabaseExport([]byte(sb.String())); err == nil {
		t.Error("export above the student ceiling was accepted")
	}
}

func TestValidateDatabaseExportCeilings(t *testing.T) {
	tests := []struct {
		name  string
		build func() DatabaseExport
		field string
	}{
		{
			"students over ceiling",
			func() DatabaseExport {
				return DatabaseExport{
					Students:   make([]Student, MaxStudents+1),
					Attendance: []AttendanceRecord{},
					ExportDate: "x", Version: "1.0.0",
				}
			},
			"DatabaseExport.Students",
		},
		{
			"attendance over ceiling",
			func() DatabaseExport {
				return DatabaseExport{
					Students:   []Student{},
					Attendance: make([]AttendanceRecord, MaxAttendanceRecords+1),
					ExportDate: "x", Version: "1.0.0",
				}
			},
			"DatabaseExport.Attendance",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseExport(tt.build())
			if err == nil {
				t.Fatal("export above the ceiling was accepted")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error is %T, want *ValidationError", err)
			}
			// The ceiling check must trip before per-entry validation so the
			// bound stays tied to the exported constants.
			if len(verr.Violations) != 1 || verr.Violations[0].Field != tt.field {
				t.Errorf("violations = %+v, want one on %s", verr.Violations, tt.field)
			}
		})
	}
}

func TestValidateSettings(t *testing.T) {
	valid := SchoolSettings{
		SchoolName: "Test School",
		Wilaya:     "Algiers",
		Commune:    "Bab El Oued",
		SchoolYear: "2025/2026",
	}

	tests := []struct {
		name    string
		mutate  func(*SchoolSettings)
		wantErr bool
	}{
		{"valid", func(s *SchoolSettings) {}, false},
		{"with expiry", func(s *SchoolSettings) { s.ExpiryDate = "2026-06-30" }, false},
		{"missing wilaya", func(s *SchoolSettings) { s.Wilaya = "" }, true},
		{"missing commune", func(s *SchoolSettings) { s.Commune = "" }, true},
		{"missing school name", func(s *SchoolSettings) { s.SchoolName = "" }, true},
		{"malformed expiry", func(s *SchoolSettings) { s.ExpiryDate = "June 2026" }, true},
		{"school year too long", func(s *SchoolSettings) { s.SchoolYear = strings.Repeat("x", 21) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			if err := ValidateSettings(s); (err != nil) != tt.wantErr {
				t.Errorf("ValidateSettings() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultSettingsAreIncomplete(t *testing.T) {
	// Defaults carry a school name but no wilaya/commune, so they must fail
	// the activation schema; Get falls back to them, Save refuses them.
	if err := ValidateSettings(DefaultSettings()); err == nil {
		t.Error("default settings unexpectedly pass activation validation")
	}
}
