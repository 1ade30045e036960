package results

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nmurthy/vivadesk/internal/model"
	"github.com/nmurthy/vivadesk/internal/parse"
)

type fakeMirror struct {
	rows []model.VivaResult
	err  error
}

func (f *fakeMirror) ListResults() ([]model.VivaResult, error) {
	return f.rows, f.err
}

type fakeSheet struct {
	rows  []model.VivaResult
	err   error
	calls int
}

func (f *fakeSheet) ListResults(ctx context.Context) ([]model.VivaResult, error) {
	f.calls++
	return f.rows, f.err
}

func resultAt(name string, ts time.Time, score int) model.VivaResult {
	return model.VivaResult{
		StudentName:  name,
		StudentEmail: name + "@example.com",
		Subject:      "Physics",
		Timestamp:    ts,
		Score:        score,
	}
}

func TestListPrefersMirror(t *testing.T) {
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	mirror := &fakeMirror{rows: []model.VivaResult{
		resultAt("a", base, 60),
		resultAt("b", base.Add(time.Hour), 70),
	}}
	sheet := &fakeSheet{rows: []model.VivaResult{resultAt("sheet-only", base, 10)}}
	svc := New(mirror, sheet)

	rows, source, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if source != SourceDatabase {
		t.Errorf("expected source %q, got %q", SourceDatabase, source)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].StudentName != "b" {
		t.Errorf("expected descending order, got %q first", rows[0].StudentName)
	}
	if sheet.calls != 0 {
		t.Errorf("sheet must not be read when the mirror has rows, got %d calls", sheet.calls)
	}
}

func TestListFallsBackWhenMirrorEmpty(t *testing.T) {
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	sheet := &fakeSheet{rows: []model.VivaResult{
		resultAt("a", base, 60),
		resultAt("b", base.Add(time.Hour), 70),
		resultAt("c", base.Add(2*time.Hour), 80),
	}}
	svc := New(&fakeMirror{}, sheet)

	rows, source, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if source != SourceSheet {
		t.Errorf("expected source %q, got %q", SourceSheet, source)
	}
	if len(rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(rows))
	}
}

func TestListFallsBackWhenMirrorErrors(t *testing.T) {
	sheet := &fakeSheet{rows: []model.VivaResult{resultAt("a", time.Now(), 60)}}
	svc := New(&fakeMirror{err: errors.New("db down")}, sheet)

	rows, source, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if source != SourceSheet || len(rows) != 1 {
		t.Errorf("expected sheet fallback, got source=%q rows=%d", source, len(rows))
	}
}

func TestListBothStoresDown(t *testing.T) {
	svc := New(&fakeMirror{err: errors.New("db down")}, &fakeSheet{err: errors.New("sheet down")})
	if _, _, err := svc.List(context.Background()); err == nil {
		t.Fatal("expected error when both stores are unavailable")
	}
}

func TestListNoSheetConfigured(t *testing.T) {
	svc := New(&fakeMirror{}, nil)
	rows, source, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if source != SourceDatabase || len(rows) != 0 {
		t.Errorf("expected empty database answer, got source=%q rows=%d", source, len(rows))
	}
}

// Ordering must follow normalized-instant comparison, not string comparison,
// when rows come in on heterogeneous timestamp text.
func TestListOrderingAcrossTimestampFormats(t *testing.T) {
	tsA := parse.Timestamp("15 Jan 2026, 3:38 pm")
	tsB := parse.Timestamp("2026-01-15T10:11:35.724Z")

	sheet := &fakeSheet{rows: []model.VivaResult{
		{StudentName: "iso", Timestamp: tsB},
		{StudentName: "ampm", Timestamp: tsA},
	}}
	svc := New(&fakeMirror{}, sheet)

	rows, _, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	wantFirst := "ampm"
	if tsB.After(tsA) {
		wantFirst = "iso"
	}
	if rows[0].StudentName != wantFirst {
		t.Errorf("expected %q first by instant comparison, got %q", wantFirst, rows[0].StudentName)
	}
}

func TestStats(t *testing.T) {
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	rows := []model.VivaResult{
		resultAt("a", base, 80),
		resultAt("b", base, 50), // threshold is inclusive
		resultAt("c", base, 20),
	}
	rows[2].Subject = "Chemistry"
	svc := New(&fakeMirror{rows: rows}, nil)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalVivas != 3 || stats.TotalPassed != 2 || stats.TotalFailed != 1 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.AvgScore != 50 {
		t.Errorf("expected avg 50, got %v", stats.AvgScore)
	}
	phy := stats.Subjects["Physics"]
	if phy.Count != 2 || phy.AvgScore != 65 || phy.PassRate != 100 {
		t.Errorf("unexpected Physics stats: %+v", phy)
	}
	chem := stats.Subjects["Chemistry"]
	if chem.Count != 1 || chem.PassRate != 0 {
		t.Errorf("unexpected Chemistry stats: %+v", chem)
	}
}

func TestStatsEmpty(t *testing.T) {
	svc := New(&fakeMirror{}, nil)
	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalVivas != 0 || stats.AvgScore != 0 || len(stats.Subjects) != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestStudents(t *testing.T) {
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	rows := []model.VivaResult{
		{StudentName: "Asha Rao", StudentEmail: "Asha@Example.com", Subject: "Physics", Timestamp: base, Score: 80},
		{StudentName: "Asha Rao", StudentEmail: "asha@example.com", Subject: "Chemistry", Timestamp: base.Add(time.Hour), Score: 60},
		{StudentName: "Vikram Iyer", StudentEmail: "", Subject: "Physics", Timestamp: base, Score: 30},
	}
	svc := New(&fakeMirror{rows: rows}, nil)

	students, err := svc.Students(context.Background())
	if err != nil {
		t.Fatalf("Students: %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("expected 2 students, got %d", len(students))
	}

	var asha, vikram *model.StudentSummary
	for i := range students {
		switch students[i].Name {
		case "Asha Rao":
			asha = &students[i]
		case "Vikram Iyer":
			vikram = &students[i]
		}
	}
	if asha == nil || vikram == nil {
		t.Fatalf("missing students: %+v", students)
	}

	if asha.VivaCount != 2 {
		t.Errorf("case-insensitive email grouping failed: %+v", asha)
	}
	if len(asha.Subjects) != 2 {
		t.Errorf("expected distinct subjects, got %v", asha.Subjects)
	}
	if !asha.LastVivaAt.Equal(base.Add(time.Hour)) {
		t.Errorf("expected most recent timestamp, got %v", asha.LastVivaAt)
	}
	if asha.AvgScore != 70 || asha.Status != model.StudentActive {
		t.Errorf("unexpected summary: %+v", asha)
	}

	// No email: grouped by name, and below threshold means at risk.
	if vikram.VivaCount != 1 || vikram.Status != model.StudentAtRisk {
		t.Errorf("unexpected summary: %+v", vikram)
	}
}
