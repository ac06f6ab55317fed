package schema

// Version is the database export format version.
const Version = "1.0.0"

// Collection ceilings guard against corrupted or runaway payloads.
const (
	MaxStudents          = 10000
	MaxAttendanceRecords = 100000
)

// Student is a roster entry. StudentID is the human-assigned identifier
// embedded in the QR code; ID is the internal record id.
type Student struct {
	ID        string `json:"id" validate:"required,max=100"`
	Name      string `json:"name" validate:"required,max=100"`
	StudentID string `json:"studentId" validate:"required,max=50"`
	Grade     string `json:"grade" validate:"required,max=50"`
	Gender    string `json:"gender,omitempty" validate:"max=20"`
	Status    string `json:"status,omitempty" validate:"max=50"`
	Photo     string `json:"photo,omitempty" validate:"max=10000"`
	CreatedAt string `json:"createdAt" validate:"required"`
}

// AttendanceRecord marks one student present on one date. StudentName is a
// denormalized copy; StudentID references Student.StudentID but is not
// enforced referentially (see roster.CheckConsistency).
type AttendanceRecord struct {
	ID          string `json:"id" validate:"required,max=100"`
	StudentID   string `json:"studentId" validate:"required,max=50"`
	StudentName string `json:"studentName" validate:"max=100"`
	Date        string `json:"date" validate:"required,ymd"`
	Time        string `json:"time" validate:"required"`
	Timestamp   int64  `json:"timestamp"`
}

// DatabaseExport is the unit of backup, restore and transfer. The collection
// ceilings (MaxStudents, MaxAttendanceRecords) are enforced by
// ValidateDatabaseExport, not by tag.
type DatabaseExport struct {
	Students   []Student          `json:"students" validate:"required,dive"`
	Attendance []AttendanceRecord `json:"attendance" validate:"required,dive"`
	ExportDate string             `json:"exportDate" validate:"required"`
	Version    string             `json:"version" validate:"required"`
}

// Archive is an immutable dated snapshot of the full dataset.
type Archive struct {
	ID        string         `json:"id"`
	Date      string         `json:"date"`
	Timestamp string         `json:"timestamp"`
	Data      DatabaseExport `json:"data"`
}

// SchoolSettings holds the school identity and license state imported from an
// activation file.
type SchoolSettings struct {
	SchoolName    string `json:"schoolName" validate:"required,max=200"`
	Wilaya        string `json:"wilaya" validate:"required,max=100"`
	Commune       string `json:"commune" validate:"required,max=100"`
	DirectionName string `json:"directionName,omitempty" validate:"max=200"`
	SchoolYear    string `json:"schoolYear,omitempty" validate:"max=20"`
	ActivatedAt   string `json:"activatedAt,omitempty"`
	LicenseKey    string `json:"licenseKey,omitempty" validate:"max=100"`
	ExpiryDate    string `json:"expiryDate,omitempty" validate:"omitempty,ymd"`
}

// DefaultSchoolYear is applied when an activation file omits the field.
const DefaultSchoolYear = "2025/2026"

// DefaultSettings returns the pre-activation settings.
func DefaultSettings() SchoolSettings {
	return SchoolSettings{
		SchoolName: "مدرسة",
		SchoolYear: DefaultSchoolYear,
	}
}
