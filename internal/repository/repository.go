package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lyndoncatan/Neu-LabLogs/internal/model"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Usage entries

const entryColumns = `id, teacher_id, teacher_name, building_number, room_number, start_time, end_time, num_students, purpose, equipment, created_at`

func (s *Store) ListEntries(ctx context.Context) ([]model.UsageEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM usage_entries
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) GetEntry(ctx context.Context, entryID string) (model.UsageEntry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM usage_entries
		WHERE id = $1
	`, entryID)
	return scanEntry(row)
}

// FindOpenEntry returns the oldest open entry for the (teacher, building,
// room) triple, or pgx.ErrNoRows when none is open.
func (s *Store) FindOpenEntry(ctx context.Context, teacherID, buildingNumber, roomNumber string) (model.UsageEntry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM usage_entries
		WHERE teacher_id = $1 AND building_number = $2 AND room_number = $3 AND end_time IS NULL
		ORDER BY created_at, id
		LIMIT 1
	`, teacherID, buildingNumber, roomNumber)
	return scanEntry(row)
}

func (s *Store) CreateEntry(ctx context.Context, entry model.UsageEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO usage_entries (id, teacher_id, teacher_name, building_number, room_number, start_time, end_time, num_students, purpose, equipment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, entry.ID, entry.TeacherID, entry.TeacherName, entry.BuildingNumber, entry.RoomNumber,
		entry.StartTime, entry.EndTime, entry.NumStudents, entry.Purpose, entry.Equipment, entry.CreatedAt)
	return err
}

// CloseEntry sets the end time on an open entry. The end_time IS NULL guard
// keeps a concurrent double check-out from rewriting a closed session.
func (s *Store) CloseEntry(ctx context.Context, entryID string, endTime time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE usage_entries
		SET end_time = $1
		WHERE id = $2 AND end_time IS NULL
	`, endTime, entryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, entryID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM usage_entries WHERE id = $1`, entryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CloseStaleEntries closes every entry left open before the cutoff, capping
// the end time at start_time + maxDuration. Returns the number closed.
func (s *Store) CloseStaleEntries(ctx context.Context, cutoff time.Time, maxDuration time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE usage_entries
		SET end_time = start_time + make_interval(secs => $2)
		WHERE end_time IS NULL AND start_time < $1
	`, cutoff, int64(maxDuration.Seconds()))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Rooms

const roomColumns = `id, number, name, capacity, equipment, qr_code, created_at, updated_at`

func (s *Store) ListRooms(ctx context.Context) ([]model.Room, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+roomColumns+`
		FROM rooms
		ORDER BY number
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []model.Room
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.ID, &room.Number, &room.Name, &room.Capacity, &room.Equipment, &room.QRCode, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (s *Store) GetRoom(ctx context.Context, roomID string) (model.Room, error) {
	var room model.Room
	row := s.pool.QueryRow(ctx, `
		SELECT `+roomColumns+`
		FROM rooms
		WHERE id = $1
	`, roomID)
	err := row.Scan(&room.ID, &room.Number, &room.Name, &room.Capacity, &room.Equipment, &room.QRCode, &room.CreatedAt, &room.UpdatedAt)
	return room, err
}

func (s *Store) CreateRoom(ctx context.Context, room model.Room) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO rooms (id, number, name, capacity, equipment, qr_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, room.ID, room.Number, room.Name, room.Capacity, room.Equipment, room.QRCode, room.CreatedAt, room.UpdatedAt)
	return err
}

func (s *Store) UpdateRoom(ctx context.Context, room model.Room) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE rooms
		SET name = $1, capacity = $2, equipment = $3, updated_at = $4
		WHERE id = $5
	`, room.Name, room.Capacity, room.Equipment, room.UpdatedAt, room.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, roomID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Teacher accounts

const teacherColumns = `id, name, email, department, status, created_at, updated_at`

func (s *Store) ListTeachers(ctx context.Context, includeHidden bool) ([]model.TeacherAccount, error) {
	query := `
		SELECT ` + teacherColumns + `
		FROM teacher_accounts
	`
	if !includeHidden {
		query += ` WHERE status <> 'hidden'`
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teachers []model.TeacherAccount
	for rows.Next() {
		teacher, err := scanTeacher(rows)
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, teacher)
	}
	return teachers, rows.Err()
}

func (s *Store) GetTeacher(ctx context.Context, teacherID string) (model.TeacherAccount, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+teacherColumns+`
		FROM teacher_accounts
		WHERE id = $1
	`, teacherID)
	return scanTeacher(row)
}

// FindTeacherByEmailOrName backs professor auto-registration: an identity is
// considered already registered when either its email or its display name
// matches an account.
func (s *Store) FindTeacherByEmailOrName(ctx context.Context, email, name string) (model.TeacherAccount, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+teacherColumns+`
		FROM teacher_accounts
		WHERE (email <> '' AND lower(email) = lower($1)) OR lower(name) = lower($2)
		ORDER BY created_at
		LIMIT 1
	`, email, name)
	return scanTeacher(row)
}

func (s *Store) CreateTeacher(ctx context.Context, teacher model.TeacherAccount) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO teacher_accounts (id, name, email, department, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, teacher.ID, teacher.Name, teacher.Email, teacher.Department, teacher.Status, teacher.CreatedAt, teacher.UpdatedAt)
	return err
}

func (s *Store) UpdateTeacher(ctx context.Context, teacher model.TeacherAccount) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE teacher_accounts
		SET name = $1, email = $2, department = $3, status = $4, updated_at = $5
		WHERE id = $6
	`, teacher.Name, teacher.Email, teacher.Department, teacher.Status, teacher.UpdatedAt, teacher.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteTeacher(ctx context.Context, teacherID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM teacher_accounts WHERE id = $1`, teacherID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Scan helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (model.UsageEntry, error) {
	var entry model.UsageEntry
	err := row.Scan(
		&entry.ID,
		&entry.TeacherID,
		&entry.TeacherName,
		&entry.BuildingNumber,
		&entry.RoomNumber,
		&entry.StartTime,
		&entry.EndTime,
		&entry.NumStudents,
		&entry.Purpose,
		&entry.Equipment,
		&entry.CreatedAt,
	)
	return entry, err
}

func scanEntries(rows pgx.Rows) ([]model.UsageEntry, error) {
	var entries []model.UsageEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanTeacher(row rowScanner) (model.TeacherAccount, error) {
	var teacher model.TeacherAccount
	err := row.Scan(
		&teacher.ID,
		&teacher.Name,
		&teacher.Email,
		&teacher.Department,
		&teacher.Status,
		&teacher.CreatedAt,
		&teacher.UpdatedAt,
	)
	return teacher, err
}
