// Package sheet reads and writes the Google Sheets document that acts as the
// system of record: one spreadsheet with named sheets for results, subjects,
// topics, questions, and teacher credentials.
package sheet

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/nmurthy/vivadesk/internal/model"
)

// Sheet names inside the spreadsheet document.
const (
	resultsSheet   = "Viva Results"
	subjectsSheet  = "Subjects"
	topicsSheet    = "Topics"
	questionsSheet = "Viva Questions"
	teachersSheet  = "Teachers"
)

// Config identifies the spreadsheet and how to authorize against it.
type Config struct {
	SpreadsheetID   string
	CredentialsFile string // service-account key JSON
}

// Client wraps the Sheets API for one spreadsheet document.
type Client struct {
	svc           *sheets.Service
	spreadsheetID string
}

// New creates an authorized client. A missing spreadsheet id or credentials
// file is a configuration error, never silently defaulted.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required: set --spreadsheet-id or VIVADESK_SPREADSHEET_ID")
	}
	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("credentials file is required: set --credentials or VIVADESK_CREDENTIALS")
	}
	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID}, nil
}

// AppendResult appends one result row to the Viva Results sheet.
func (c *Client) AppendResult(ctx context.Context, r model.VivaResult) error {
	return c.append(ctx, resultsSheet+"!A:K", encodeResultRow(r))
}

// ListResults reads all result rows below the header.
func (c *Client) ListResults(ctx context.Context) ([]model.VivaResult, error) {
	values, err := c.read(ctx, resultsSheet+"!A2:K")
	if err != nil {
		return nil, err
	}
	results := make([]model.VivaResult, 0, len(values))
	for i, row := range values {
		if isBlankRow(row) {
			continue
		}
		results = append(results, decodeResultRow(i, row))
	}
	return results, nil
}

// ListSubjects reads the Subjects sheet.
func (c *Client) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	values, err := c.read(ctx, subjectsSheet+"!A2:C")
	if err != nil {
		return nil, err
	}
	var subjects []model.Subject
	for _, row := range values {
		if isBlankRow(row) {
			continue
		}
		subjects = append(subjects, decodeSubjectRow(row))
	}
	return subjects, nil
}

// AppendSubject appends one subject row.
func (c *Client) AppendSubject(ctx context.Context, sub model.Subject) error {
	return c.append(ctx, subjectsSheet+"!A:C", encodeSubjectRow(sub))
}

// ListTopics reads the Topics sheet.
func (c *Client) ListTopics(ctx context.Context) ([]model.Topic, error) {
	values, err := c.read(ctx, topicsSheet+"!A2:C")
	if err != nil {
		return nil, err
	}
	var topics []model.Topic
	for _, row := range values {
		if isBlankRow(row) {
			continue
		}
		topics = append(topics, decodeTopicRow(row))
	}
	return topics, nil
}

// AppendTopic appends one topic row.
func (c *Client) AppendTopic(ctx context.Context, t model.Topic) error {
	return c.append(ctx, topicsSheet+"!A:C", encodeTopicRow(t))
}

// ListQuestions reads the Viva Questions sheet.
func (c *Client) ListQuestions(ctx context.Context) ([]model.VivaQuestion, error) {
	values, err := c.read(ctx, questionsSheet+"!A2:G")
	if err != nil {
		return nil, err
	}
	var questions []model.VivaQuestion
	for _, row := range values {
		if isBlankRow(row) {
			continue
		}
		questions = append(questions, decodeQuestionRow(row))
	}
	return questions, nil
}

// AppendQuestion appends one question row.
func (c *Client) AppendQuestion(ctx context.Context, q model.VivaQuestion) error {
	return c.append(ctx, questionsSheet+"!A:G", encodeQuestionRow(q))
}

// ListTeachers reads the teacher-credentials sheet. The application treats it
// as read-only; rows are mirrored into the relational store at startup.
func (c *Client) ListTeachers(ctx context.Context) ([]model.Teacher, error) {
	values, err := c.read(ctx, teachersSheet+"!A2:D")
	if err != nil {
		return nil, err
	}
	var teachers []model.Teacher
	for _, row := range values {
		if isBlankRow(row) {
			continue
		}
		teachers = append(teachers, decodeTeacherRow(row))
	}
	return teachers, nil
}

// Snapshot is the catalog state used to seed a fresh mirror.
type Snapshot struct {
	Subjects  []model.Subject
	Topics    []model.Topic
	Questions []model.VivaQuestion
	Teachers  []model.Teacher
}

// LoadSnapshot fetches the four catalog sheets concurrently.
func (c *Client) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Subjects, err = c.ListSubjects(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Topics, err = c.ListTopics(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Questions, err = c.ListQuestions(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Teachers, err = c.ListTeachers(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) read(ctx context.Context, readRange string) ([][]any, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", readRange, err)
	}
	return resp.Values, nil
}

func (c *Client) append(ctx context.Context, writeRange string, row []any) error {
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, writeRange, &sheets.ValueRange{
		Values: [][]any{row},
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", writeRange, err)
	}
	return nil
}
