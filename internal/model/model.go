package model

import "time"

type Role string

const (
	RoleProfessor Role = "professor"
	RoleAdmin     Role = "admin"
)

// User is derived per session from the external identity provider and is
// never persisted independently.
type User struct {
	ID    string
	Email string
	Role  Role
	Name  string
}

// ScannedIdentity is produced by a QR/ID scan or manual entry and held only
// until the usage form is submitted.
type ScannedIdentity struct {
	ID         string
	Name       string
	Department string
}

// UsageEntry is one check-in record. A nil EndTime means the session is
// still open.
type UsageEntry struct {
	ID             string
	TeacherID      string
	TeacherName    string
	BuildingNumber string
	RoomNumber     string
	StartTime      time.Time
	EndTime        *time.Time
	NumStudents    int
	Purpose        string
	Equipment      []string
	CreatedAt      time.Time
}

type Room struct {
	ID        string
	Number    string
	Name      string
	Capacity  int
	Equipment []string
	QRCode    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TeacherStatus string

const (
	TeacherStatusActive  TeacherStatus = "active"
	TeacherStatusBlocked TeacherStatus = "blocked"
	TeacherStatusHidden  TeacherStatus = "hidden"
)

type TeacherAccount struct {
	ID         string
	Name       string
	Email      string
	Department string
	Status     TeacherStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
