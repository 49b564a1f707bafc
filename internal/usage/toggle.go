package usage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Lyndoncatan/Neu-LabLogs/internal/model"
)

const (
	ErrMissingTeacher = "missing_teacher"
	ErrMissingRoom    = "missing_room"
	ErrServerError    = "server_error"

	// DefaultPurpose is recorded when the form leaves the purpose blank.
	DefaultPurpose = "General use"
)

type Error struct {
	Code string
}

func (e *Error) Error() string {
	return e.Code
}

// Store is the slice of the entry repository the toggle needs.
type Store interface {
	FindOpenEntry(ctx context.Context, teacherID, buildingNumber, roomNumber string) (model.UsageEntry, error)
	CloseEntry(ctx context.Context, entryID string, endTime time.Time) error
	CreateEntry(ctx context.Context, entry model.UsageEntry) error
}

// Submission is one scanned/entered identity plus the room selection from
// the usage form.
type Submission struct {
	Teacher        model.ScannedIdentity
	BuildingNumber string
	RoomNumber     string
	NumStudents    int
	Purpose        string
	Equipment      []string
}

type Result struct {
	Entry      model.UsageEntry
	CheckedOut bool
}

// Toggle decides check-in versus check-out: an open entry matching the
// (teacher, building, room) triple is closed, otherwise a new open entry is
// appended. The oldest open match wins when more than one exists.
func Toggle(ctx context.Context, store Store, now time.Time, sub Submission) (Result, error) {
	teacherID := strings.TrimSpace(sub.Teacher.ID)
	building := strings.TrimSpace(sub.BuildingNumber)
	room := strings.TrimSpace(sub.RoomNumber)
	if teacherID == "" {
		return Result{}, &Error{Code: ErrMissingTeacher}
	}
	if building == "" || room == "" {
		return Result{}, &Error{Code: ErrMissingRoom}
	}

	open, err := store.FindOpenEntry(ctx, teacherID, building, room)
	if err == nil {
		endTime := now.UTC()
		if endTime.Before(open.StartTime) {
			endTime = open.StartTime
		}
		if err := store.CloseEntry(ctx, open.ID, endTime); err != nil {
			return Result{}, &Error{Code: ErrServerError}
		}
		open.EndTime = &endTime
		return Result{Entry: open, CheckedOut: true}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Result{}, &Error{Code: ErrServerError}
	}

	students := sub.NumStudents
	if students < 1 {
		students = 1
	}
	purpose := strings.TrimSpace(sub.Purpose)
	if purpose == "" {
		purpose = DefaultPurpose
	}

	entry := model.UsageEntry{
		ID:             uuid.NewString(),
		TeacherID:      teacherID,
		TeacherName:    strings.TrimSpace(sub.Teacher.Name),
		BuildingNumber: building,
		RoomNumber:     room,
		StartTime:      now.UTC(),
		NumStudents:    students,
		Purpose:        purpose,
		Equipment:      cleanEquipment(sub.Equipment),
		CreatedAt:      now.UTC(),
	}
	if err := store.CreateEntry(ctx, entry); err != nil {
		return Result{}, &Error{Code: ErrServerError}
	}
	return Result{Entry: entry}, nil
}

func cleanEquipment(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
