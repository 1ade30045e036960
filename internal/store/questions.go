package store

import (
	"time"

	"github.com/nmurthy/vivadesk/internal/model"
	"github.com/nmurthy/vivadesk/internal/parse"
)

// InsertQuestion stores a viva question.
func (s *Store) InsertQuestion(q model.VivaQuestion) (int64, error) {
	createdAt := q.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO viva_questions (subject, topics, question, expected_answer, difficulty, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.Subject, parse.JoinTopics(q.Topics), q.Question, q.ExpectedAnswer, q.Difficulty, q.Active, createdAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListQuestions returns questions matching the given filters.
// Empty strings mean no filtering on that field; activeOnly restricts to
// questions visible to the student app.
func (s *Store) ListQuestions(subject string, difficulty model.Difficulty, activeOnly bool) ([]model.VivaQuestion, error) {
	query := `SELECT id, subject, topics, question, expected_answer, difficulty, active, created_at
		FROM viva_questions WHERE 1=1`
	var args []any
	if subject != "" {
		query += ` AND subject = ?`
		args = append(args, subject)
	}
	if difficulty != "" {
		query += ` AND difficulty = ?`
		args = append(args, difficulty)
	}
	if activeOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.VivaQuestion
	for rows.Next() {
		var (
			q      model.VivaQuestion
			topics string
		)
		if err := rows.Scan(&q.ID, &q.Subject, &topics, &q.Question, &q.ExpectedAnswer,
			&q.Difficulty, &q.Active, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.Topics = parse.Topics(topics)
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// SetQuestionActive flips a question's visibility to the student app.
func (s *Store) SetQuestionActive(id int64, active bool) error {
	_, err := s.db.Exec(`UPDATE viva_questions SET active = ? WHERE id = ?`, active, id)
	return err
}

// QuestionCount returns the number of stored questions.
func (s *Store) QuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM viva_questions`).Scan(&count)
	return count, err
}
