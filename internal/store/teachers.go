package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/nmurthy/vivadesk/internal/model"
)

// CreateTeacher inserts a new teacher account.
func (s *Store) CreateTeacher(t model.Teacher) (int64, error) {
	if t.Status == "" {
		t.Status = model.TeacherActive
	}
	res, err := s.db.Exec(
		`INSERT INTO teachers (email, name, password_hash, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.Email, t.Name, t.PasswordHash, t.Status, time.Now(),
	)
	if err != nil {
		slog.Error("failed to create teacher", "email", t.Email, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created teacher", "id", id, "email", t.Email)
	return id, nil
}

// GetTeacherByEmail returns a teacher by email, or nil if not found.
func (s *Store) GetTeacherByEmail(email string) (*model.Teacher, error) {
	var t model.Teacher
	err := s.db.QueryRow(
		`SELECT id, email, name, password_hash, status, created_at
		 FROM teachers WHERE email = ?`, email,
	).Scan(&t.ID, &t.Email, &t.Name, &t.PasswordHash, &t.Status, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTeacherByID returns a teacher by id, or nil if not found.
func (s *Store) GetTeacherByID(id int64) (*model.Teacher, error) {
	var t model.Teacher
	err := s.db.QueryRow(
		`SELECT id, email, name, password_hash, status, created_at
		 FROM teachers WHERE id = ?`, id,
	).Scan(&t.ID, &t.Email, &t.Name, &t.PasswordHash, &t.Status, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTeachers returns all teacher accounts.
func (s *Store) ListTeachers() ([]model.Teacher, error) {
	rows, err := s.db.Query(
		`SELECT id, email, name, password_hash, status, created_at FROM teachers ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var teachers []model.Teacher
	for rows.Next() {
		var t model.Teacher
		if err := rows.Scan(&t.ID, &t.Email, &t.Name, &t.PasswordHash, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		teachers = append(teachers, t)
	}
	return teachers, rows.Err()
}

// TeacherCount returns the total number of teacher accounts.
func (s *Store) TeacherCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM teachers`).Scan(&count)
	return count, err
}
