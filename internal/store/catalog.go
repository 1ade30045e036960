package store

import (
	"database/sql"

	"github.com/nmurthy/vivadesk/internal/model"
)

// CreateSubject inserts a subject. Name is the unique key.
func (s *Store) CreateSubject(sub model.Subject) (int64, error) {
	if sub.Status == "" {
		sub.Status = model.StatusActive
	}
	res, err := s.db.Exec(
		`INSERT INTO subjects (name, code, status) VALUES (?, ?, ?)`,
		sub.Name, sub.Code, sub.Status,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListSubjects returns subjects, optionally filtered by status.
// An empty status means all subjects.
func (s *Store) ListSubjects(status model.EntityStatus) ([]model.Subject, error) {
	query := `SELECT id, name, code, status FROM subjects`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY name`
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subjects []model.Subject
	for rows.Next() {
		var sub model.Subject
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Code, &sub.Status); err != nil {
			return nil, err
		}
		subjects = append(subjects, sub)
	}
	return subjects, rows.Err()
}

// GetSubjectByName returns a subject, or nil if it does not exist.
func (s *Store) GetSubjectByName(name string) (*model.Subject, error) {
	var sub model.Subject
	err := s.db.QueryRow(
		`SELECT id, name, code, status FROM subjects WHERE name = ?`, name,
	).Scan(&sub.ID, &sub.Name, &sub.Code, &sub.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// DeleteSubject removes a subject and its topics.
func (s *Store) DeleteSubject(name string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM topics WHERE subject_name = ?`, name); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM subjects WHERE name = ?`, name); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateTopic inserts a topic under a subject.
func (s *Store) CreateTopic(t model.Topic) (int64, error) {
	if t.Status == "" {
		t.Status = model.StatusActive
	}
	res, err := s.db.Exec(
		`INSERT INTO topics (subject_name, name, status) VALUES (?, ?, ?)`,
		t.SubjectName, t.Name, t.Status,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListTopics returns topics, filtered by subject and/or status when non-empty.
func (s *Store) ListTopics(subjectName string, status model.EntityStatus) ([]model.Topic, error) {
	query := `SELECT id, subject_name, name, status FROM topics WHERE 1=1`
	var args []any
	if subjectName != "" {
		query += ` AND subject_name = ?`
		args = append(args, subjectName)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY subject_name, name`
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var topics []model.Topic
	for rows.Next() {
		var t model.Topic
		if err := rows.Scan(&t.ID, &t.SubjectName, &t.Name, &t.Status); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// DeleteTopic removes one topic by its composite key.
func (s *Store) DeleteTopic(subjectName, name string) error {
	_, err := s.db.Exec(`DELETE FROM topics WHERE subject_name = ? AND name = ?`, subjectName, name)
	return err
}
