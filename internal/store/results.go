package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nmurthy/vivadesk/internal/model"
	"github.com/nmurthy/vivadesk/internal/parse"
)

const resultColumns = `id, call_id, ts, student_name, student_email, subject, topics,
	questions_answered, score, overall_feedback, transcript, recording_url, evaluation`

// InsertResult stores one viva result and returns its id.
func (s *Store) InsertResult(r model.VivaResult) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO viva_results (call_id, ts, student_name, student_email, subject, topics,
			questions_answered, score, overall_feedback, transcript, recording_url, evaluation)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		insertArgs(r)...,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpsertResultByCallID inserts the result, or updates the existing row when a
// row with the same call id is already present. Reports whether a new row was
// created. Results without a call id are always inserted.
func (s *Store) UpsertResultByCallID(r model.VivaResult) (bool, error) {
	if r.CallID == "" {
		_, err := s.InsertResult(r)
		return true, err
	}

	res, err := s.db.Exec(
		`UPDATE viva_results SET ts = ?, student_name = ?, student_email = ?, subject = ?,
			topics = ?, questions_answered = ?, score = ?, overall_feedback = ?,
			transcript = ?, recording_url = ?, evaluation = ?
		 WHERE call_id = ?`,
		r.Timestamp, r.StudentName, r.StudentEmail, r.Subject, parse.JoinTopics(r.Topics),
		r.QuestionsAnswered, r.Score, r.OverallFeedback, r.Transcript, r.RecordingURL,
		marshalEvaluation(r.Evaluation), r.CallID,
	)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return false, nil
	}
	_, err = s.InsertResult(r)
	return true, err
}

// ReplaceResults swaps the entire results table for the given rows inside one
// transaction. A failure at any point rolls back to the pre-cycle state, so
// the table can never be observed empty because a cycle died half-way.
func (s *Store) ReplaceResults(rows []model.VivaResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM viva_results`); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	for i, r := range rows {
		if _, err := tx.Exec(
			`INSERT INTO viva_results (call_id, ts, student_name, student_email, subject, topics,
				questions_answered, score, overall_feedback, transcript, recording_url, evaluation)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			insertArgs(r)...,
		); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// ListResults returns all results ordered by timestamp descending.
func (s *Store) ListResults() ([]model.VivaResult, error) {
	rows, err := s.db.Query(
		`SELECT ` + resultColumns + ` FROM viva_results ORDER BY ts DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.VivaResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// CountResults returns the number of stored results.
func (s *Store) CountResults() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM viva_results`).Scan(&count)
	return count, err
}

// LatestResult returns the most recent result, or nil when the table is empty.
func (s *Store) LatestResult() (*model.VivaResult, error) {
	row := s.db.QueryRow(
		`SELECT ` + resultColumns + ` FROM viva_results ORDER BY ts DESC, id DESC LIMIT 1`,
	)
	r, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func insertArgs(r model.VivaResult) []any {
	return []any{
		r.CallID, r.Timestamp, r.StudentName, r.StudentEmail, r.Subject,
		parse.JoinTopics(r.Topics), r.QuestionsAnswered, r.Score,
		r.OverallFeedback, r.Transcript, r.RecordingURL, marshalEvaluation(r.Evaluation),
	}
}

func marshalEvaluation(ev *model.Evaluation) string {
	if ev == nil {
		return ""
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return ""
	}
	return string(data)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (model.VivaResult, error) {
	var (
		r      model.VivaResult
		id     int64
		ts     time.Time
		topics string
		eval   string
	)
	err := row.Scan(&id, &r.CallID, &ts, &r.StudentName, &r.StudentEmail, &r.Subject,
		&topics, &r.QuestionsAnswered, &r.Score, &r.OverallFeedback, &r.Transcript,
		&r.RecordingURL, &eval)
	if err != nil {
		return r, err
	}
	r.ID = strconv.FormatInt(id, 10)
	r.Timestamp = ts
	r.Topics = parse.Topics(topics)
	r.Evaluation = parse.Evaluation(eval)
	return r, nil
}
