// Package results serves the dashboard read path: results, statistics, and
// student summaries, preferring the relational mirror and falling back to a
// live spreadsheet read when the mirror is empty or unreachable.
package results

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/nmurthy/vivadesk/internal/model"
)

// Source labels reported alongside result listings.
const (
	SourceDatabase = "database"
	SourceSheet    = "google_sheets"
)

// Mirror is the relational side of the read path.
type Mirror interface {
	ListResults() ([]model.VivaResult, error)
}

// SheetReader is the live spreadsheet fallback.
type SheetReader interface {
	ListResults(ctx context.Context) ([]model.VivaResult, error)
}

// Service resolves result listings across the two stores.
type Service struct {
	mirror Mirror
	sheet  SheetReader // nil when the spreadsheet is not configured
}

func New(mirror Mirror, sheet SheetReader) *Service {
	return &Service{mirror: mirror, sheet: sheet}
}

// List returns all results ordered by timestamp descending, plus the source
// that served them. The mirror is authoritative for a call when it yields at
// least one row; otherwise the sheet is read live.
func (s *Service) List(ctx context.Context) ([]model.VivaResult, string, error) {
	rows, err := s.mirror.ListResults()
	if err != nil {
		slog.Warn("relational read failed, falling back to sheet", "error", err)
	} else if len(rows) > 0 {
		sortByTimestampDesc(rows)
		return rows, SourceDatabase, nil
	}

	if s.sheet == nil {
		if err != nil {
			return nil, "", fmt.Errorf("list results: %w", err)
		}
		return []model.VivaResult{}, SourceDatabase, nil
	}

	rows, sheetErr := s.sheet.ListResults(ctx)
	if sheetErr != nil {
		if err != nil {
			return nil, "", fmt.Errorf("both stores unavailable: %w", sheetErr)
		}
		// Mirror was reachable but empty; empty is the degraded answer.
		slog.Warn("sheet fallback failed, serving empty mirror", "error", sheetErr)
		return []model.VivaResult{}, SourceDatabase, nil
	}
	sortByTimestampDesc(rows)
	return rows, SourceSheet, nil
}

// Stats computes the aggregate dashboard statistics with one linear pass over
// the resolved result list.
func (s *Service) Stats(ctx context.Context) (*model.AggregateStats, error) {
	rows, _, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &model.AggregateStats{Subjects: make(map[string]model.SubjectStats)}
	var totalScore int
	type subjectAcc struct {
		count, passed, score int
	}
	perSubject := make(map[string]*subjectAcc)

	for _, r := range rows {
		stats.TotalVivas++
		totalScore += r.Score
		if r.Score >= model.PassingScore {
			stats.TotalPassed++
		} else {
			stats.TotalFailed++
		}
		if r.Subject == "" {
			continue
		}
		acc := perSubject[r.Subject]
		if acc == nil {
			acc = &subjectAcc{}
			perSubject[r.Subject] = acc
		}
		acc.count++
		acc.score += r.Score
		if r.Score >= model.PassingScore {
			acc.passed++
		}
	}

	if stats.TotalVivas > 0 {
		stats.AvgScore = round1(float64(totalScore) / float64(stats.TotalVivas))
	}
	for subject, acc := range perSubject {
		stats.Subjects[subject] = model.SubjectStats{
			Count:    acc.count,
			AvgScore: round1(float64(acc.score) / float64(acc.count)),
			PassRate: round1(100 * float64(acc.passed) / float64(acc.count)),
		}
	}
	return stats, nil
}

// Students groups results by student email (case-insensitive, name fallback)
// into per-student summaries, most recent viva first.
func (s *Service) Students(ctx context.Context) ([]model.StudentSummary, error) {
	rows, _, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	type studentAcc struct {
		summary  model.StudentSummary
		score    int
		subjects map[string]bool
	}
	byKey := make(map[string]*studentAcc)
	var order []string

	for _, r := range rows {
		key := strings.ToLower(strings.TrimSpace(r.StudentEmail))
		if key == "" {
			key = strings.ToLower(strings.TrimSpace(r.StudentName))
		}
		if key == "" {
			continue
		}
		acc := byKey[key]
		if acc == nil {
			acc = &studentAcc{
				summary: model.StudentSummary{
					Name:  r.StudentName,
					Email: strings.TrimSpace(r.StudentEmail),
				},
				subjects: make(map[string]bool),
			}
			byKey[key] = acc
			order = append(order, key)
		}
		acc.summary.VivaCount++
		acc.score += r.Score
		if r.Subject != "" && !acc.subjects[r.Subject] {
			acc.subjects[r.Subject] = true
			acc.summary.Subjects = append(acc.summary.Subjects, r.Subject)
		}
		if r.Timestamp.After(acc.summary.LastVivaAt) {
			acc.summary.LastVivaAt = r.Timestamp
		}
	}

	summaries := make([]model.StudentSummary, 0, len(order))
	for _, key := range order {
		acc := byKey[key]
		if acc.summary.VivaCount > 0 {
			acc.summary.AvgScore = round1(float64(acc.score) / float64(acc.summary.VivaCount))
		}
		acc.summary.Status = studentStatus(acc.summary.VivaCount, acc.summary.AvgScore)
		summaries = append(summaries, acc.summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastVivaAt.After(summaries[j].LastVivaAt)
	})
	return summaries, nil
}

func studentStatus(vivas int, avg float64) model.StudentStatus {
	switch {
	case vivas == 0:
		return model.StudentPending
	case avg < model.PassingScore:
		return model.StudentAtRisk
	default:
		return model.StudentActive
	}
}

func sortByTimestampDesc(rows []model.VivaResult) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.After(rows[j].Timestamp)
	})
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
