package notify

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/nmurthy/vivadesk/internal/model"
	"github.com/nmurthy/vivadesk/internal/parse"
)

var resultTmpl = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Viva result: {{.StudentName}}</h2>
  <p><strong>{{.Subject}}</strong>{{if .Topics}} &mdash; {{.Topics}}{{end}}</p>
  <p>Taken: {{.Taken}}</p>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><td>Score</td><td><strong>{{.Score}}/100 ({{.Outcome}})</strong></td></tr>
    <tr><td>Questions answered</td><td>{{.Questions}}</td></tr>
  </table>
  {{if .Feedback}}<h3>Overall feedback</h3><p>{{.Feedback}}</p>{{end}}
  {{if .RecordingURL}}<p><a href="{{.RecordingURL}}">Listen to the recording</a></p>{{end}}
</body>
</html>`))

type resultEmail struct {
	StudentName  string
	Subject      string
	Topics       string
	Taken        string
	Score        int
	Outcome      string
	Questions    int
	Feedback     string
	RecordingURL string
}

// ResultBody renders the HTML body for a result notification.
func ResultBody(r model.VivaResult) (string, error) {
	outcome := "Fail"
	if r.Score >= model.PassingScore {
		outcome = "Pass"
	}
	var sb strings.Builder
	err := resultTmpl.Execute(&sb, resultEmail{
		StudentName:  r.StudentName,
		Subject:      r.Subject,
		Topics:       parse.JoinTopics(r.Topics),
		Taken:        r.Timestamp.Format("2 Jan 2006, 3:04 pm"),
		Score:        r.Score,
		Outcome:      outcome,
		Questions:    r.QuestionsAnswered,
		Feedback:     r.OverallFeedback,
		RecordingURL: r.RecordingURL,
	})
	if err != nil {
		return "", fmt.Errorf("render result email: %w", err)
	}
	return sb.String(), nil
}
