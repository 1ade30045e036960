package model

import (
	"context"
	"time"
)

// TeacherStatus represents whether a teacher account may log in.
type TeacherStatus string

const (
	TeacherActive   TeacherStatus = "active"
	TeacherDisabled TeacherStatus = "disabled"
)

// Teacher is a dashboard user. Credentials are stored as bcrypt hashes.
type Teacher struct {
	ID           int64         `json:"id"`
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	PasswordHash string        `json:"-"`
	Status       TeacherStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	TeacherID int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type teacherCtxKey struct{}

// ContextWithTeacher stores the authenticated teacher in the request context.
func ContextWithTeacher(ctx context.Context, t *Teacher) context.Context {
	return context.WithValue(ctx, teacherCtxKey{}, t)
}

// TeacherFromContext retrieves the authenticated teacher from context, or nil.
func TeacherFromContext(ctx context.Context) *Teacher {
	t, _ := ctx.Value(teacherCtxKey{}).(*Teacher)
	return t
}

// EntityStatus marks subjects and topics as usable or retired.
type EntityStatus string

const (
	StatusActive   EntityStatus = "active"
	StatusInactive EntityStatus = "inactive"
)

// Subject is a course subject vivas are held on. Name is the unique key.
type Subject struct {
	ID     int64        `json:"id"`
	Name   string       `json:"name"`
	Code   string       `json:"code"`
	Status EntityStatus `json:"status"`
}

// Topic belongs to a subject; (SubjectName, Name) is the composite key.
type Topic struct {
	ID          int64        `json:"id"`
	SubjectName string       `json:"subject"`
	Name        string       `json:"name"`
	Status      EntityStatus `json:"status"`
}

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// VivaQuestion is a generated or hand-written question served to the
// student-facing app.
type VivaQuestion struct {
	ID             int64      `json:"id"`
	Subject        string     `json:"subject"`
	Topics         []string   `json:"topics"`
	Question       string     `json:"question"`
	ExpectedAnswer string     `json:"expected_answer"`
	Difficulty     Difficulty `json:"difficulty"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Evaluation is the structured per-question assessment attached to a result.
// The spreadsheet stores it as serialized JSON; malformed content is dropped
// on read rather than surfaced as an error.
type Evaluation struct {
	Marks           []float64 `json:"marks"`
	Feedback        []string  `json:"feedback"`
	TotalMarks      float64   `json:"totalMarks"`
	MaxTotalMarks   float64   `json:"maxTotalMarks"`
	Percentage      float64   `json:"percentage"`
	OverallFeedback string    `json:"overallFeedback"`
}

// VivaResult is one completed oral examination attempt.
//
// ID is synthetic and not stable across sources: relational reads carry the
// autoincrement id, sheet-backed reads a row-index-derived string.
type VivaResult struct {
	ID                string      `json:"id"`
	Timestamp         time.Time   `json:"timestamp"`
	StudentName       string      `json:"studentName"`
	StudentEmail      string      `json:"studentEmail,omitempty"`
	Subject           string      `json:"subject,omitempty"`
	Topics            []string    `json:"topics,omitempty"`
	QuestionsAnswered int         `json:"questionsAnswered"`
	Score             int         `json:"score"`
	OverallFeedback   string      `json:"overallFeedback,omitempty"`
	Transcript        string      `json:"transcript,omitempty"`
	RecordingURL      string      `json:"recordingUrl,omitempty"`
	Evaluation        *Evaluation `json:"evaluation,omitempty"`
	CallID            string      `json:"vapiCallId,omitempty"`
}

// PassingScore is the fixed threshold separating passed from failed vivas.
const PassingScore = 50

// SubjectStats aggregates results for one subject.
type SubjectStats struct {
	Count    int     `json:"count"`
	AvgScore float64 `json:"avgScore"`
	PassRate float64 `json:"passRate"`
}

// AggregateStats is the dashboard statistics view over all results.
type AggregateStats struct {
	TotalVivas  int                     `json:"totalVivas"`
	TotalPassed int                     `json:"totalPassed"`
	TotalFailed int                     `json:"totalFailed"`
	AvgScore    float64                 `json:"avgScore"`
	Subjects    map[string]SubjectStats `json:"subjects"`
}

// StudentStatus classifies a student on the dashboard.
type StudentStatus string

const (
	StudentPending StudentStatus = "pending"
	StudentAtRisk  StudentStatus = "at_risk"
	StudentActive  StudentStatus = "active"
)

// StudentSummary groups a student's results for the students view.
type StudentSummary struct {
	Name       string        `json:"name"`
	Email      string        `json:"email,omitempty"`
	Subjects   []string      `json:"subjects"`
	VivaCount  int           `json:"vivaCount"`
	AvgScore   float64       `json:"avgScore"`
	LastVivaAt time.Time     `json:"lastVivaAt"`
	Status     StudentStatus `json:"status"`
}
