package sheet

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nmurthy/vivadesk/internal/model"
	"github.com/nmurthy/vivadesk/internal/parse"
)

// Viva Results columns A-K. A column-order change is a single edit here, not a
// scattered one.
const (
	colTimestamp = iota
	colStudentName
	colStudentEmail
	colSubject
	colTopics
	colQuestionsAnswered
	colScore
	colOverallFeedback
	colTranscript
	colRecordingURL
	colEvaluation
)

// sheetTimeLayout is how the write path renders timestamps; the normalizer's
// "D Mon YYYY, H:MM am/pm" pattern reads them back.
const sheetTimeLayout = "2 Jan 2006, 3:04 pm"

func encodeResultRow(r model.VivaResult) []any {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	eval := ""
	if r.Evaluation != nil {
		if data, err := json.Marshal(r.Evaluation); err == nil {
			eval = string(data)
		}
	}
	return []any{
		ts.Format(sheetTimeLayout),
		r.StudentName,
		r.StudentEmail,
		r.Subject,
		parse.JoinTopics(r.Topics),
		fmt.Sprintf("%d questions", r.QuestionsAnswered),
		fmt.Sprintf("%d/100", r.Score),
		r.OverallFeedback,
		r.Transcript,
		r.RecordingURL,
		eval,
	}
}

// decodeResultRow converts one sheet row into a result. idx is the zero-based
// offset below the header row; the derived id is the spreadsheet row number.
// Every field decode is best-effort: malformed cells resolve to defaults.
func decodeResultRow(idx int, row []any) model.VivaResult {
	return model.VivaResult{
		ID:                fmt.Sprintf("sheet-%d", idx+2),
		Timestamp:         parse.Timestamp(cell(row, colTimestamp)),
		StudentName:       cell(row, colStudentName),
		StudentEmail:      cell(row, colStudentEmail),
		Subject:           cell(row, colSubject),
		Topics:            parse.Topics(cell(row, colTopics)),
		QuestionsAnswered: parse.FirstInt(cell(row, colQuestionsAnswered)),
		Score:             parse.FirstInt(cell(row, colScore)),
		OverallFeedback:   cell(row, colOverallFeedback),
		Transcript:        cell(row, colTranscript),
		RecordingURL:      cell(row, colRecordingURL),
		Evaluation:        parse.Evaluation(cell(row, colEvaluation)),
	}
}

// Subjects columns A-C.
const (
	colSubjectName = iota
	colSubjectCode
	colSubjectStatus
)

func encodeSubjectRow(s model.Subject) []any {
	return []any{s.Name, s.Code, string(statusOrActive(s.Status))}
}

func decodeSubjectRow(row []any) model.Subject {
	return model.Subject{
		Name:   cell(row, colSubjectName),
		Code:   cell(row, colSubjectCode),
		Status: statusOrActive(model.EntityStatus(cell(row, colSubjectStatus))),
	}
}

// Topics columns A-C.
const (
	colTopicSubject = iota
	colTopicName
	colTopicStatus
)

func encodeTopicRow(t model.Topic) []any {
	return []any{t.SubjectName, t.Name, string(statusOrActive(t.Status))}
}

func decodeTopicRow(row []any) model.Topic {
	return model.Topic{
		SubjectName: cell(row, colTopicSubject),
		Name:        cell(row, colTopicName),
		Status:      statusOrActive(model.EntityStatus(cell(row, colTopicStatus))),
	}
}

// Viva Questions columns A-G.
const (
	colQuestionSubject = iota
	colQuestionTopics
	colQuestionText
	colQuestionAnswer
	colQuestionDifficulty
	colQuestionActive
	colQuestionCreatedAt
)

func encodeQuestionRow(q model.VivaQuestion) []any {
	createdAt := q.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	active := "no"
	if q.Active {
		active = "yes"
	}
	return []any{
		q.Subject,
		parse.JoinTopics(q.Topics),
		q.Question,
		q.ExpectedAnswer,
		string(q.Difficulty),
		active,
		createdAt.Format(sheetTimeLayout),
	}
}

func decodeQuestionRow(row []any) model.VivaQuestion {
	active := strings.ToLower(cell(row, colQuestionActive))
	return model.VivaQuestion{
		Subject:        cell(row, colQuestionSubject),
		Topics:         parse.Topics(cell(row, colQuestionTopics)),
		Question:       cell(row, colQuestionText),
		ExpectedAnswer: cell(row, colQuestionAnswer),
		Difficulty:     model.Difficulty(cell(row, colQuestionDifficulty)),
		Active:         active == "yes" || active == "true" || active == "1",
		CreatedAt:      parse.Timestamp(cell(row, colQuestionCreatedAt)),
	}
}

// Teachers columns A-D.
const (
	colTeacherEmail = iota
	colTeacherName
	colTeacherHash
	colTeacherStatus
)

func decodeTeacherRow(row []any) model.Teacher {
	status := model.TeacherStatus(cell(row, colTeacherStatus))
	if status == "" {
		status = model.TeacherActive
	}
	return model.Teacher{
		Email:        cell(row, colTeacherEmail),
		Name:         cell(row, colTeacherName),
		PasswordHash: cell(row, colTeacherHash),
		Status:       status,
	}
}

// cell returns the trimmed string value at index i, or "" when the row is
// shorter than i (the API omits trailing empty cells).
func cell(row []any, i int) string {
	if i >= len(row) {
		return ""
	}
	s, ok := row[i].(string)
	if !ok {
		s = fmt.Sprint(row[i])
	}
	return strings.TrimSpace(s)
}

func isBlankRow(row []any) bool {
	for _, v := range row {
		if strings.TrimSpace(fmt.Sprint(v)) != "" {
			return false
		}
	}
	return true
}

func statusOrActive(s model.EntityStatus) model.EntityStatus {
	if s == "" {
		return model.StatusActive
	}
	return s
}
