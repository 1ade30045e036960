package sync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nmurthy/vivadesk/internal/model"
	"github.com/nmurthy/vivadesk/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func result(name, callID string, score int) model.VivaResult {
	return model.VivaResult{
		Timestamp:         time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		StudentName:       name,
		StudentEmail:      name + "@school.edu",
		Subject:           "Physics",
		Topics:            []string{"Optics"},
		QuestionsAnswered: 5,
		Score:             score,
		CallID:            callID,
	}
}

type fakeSheet struct {
	rows []model.VivaResult
	err  error
}

func (f *fakeSheet) ListResults(ctx context.Context) ([]model.VivaResult, error) {
	return f.rows, f.err
}

type fakeCalls struct {
	recs []model.VivaResult
	err  error
}

func (f *fakeCalls) ListCalls(ctx context.Context) ([]model.VivaResult, error) {
	return f.recs, f.err
}

func TestFullReplaceSwapsRows(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.InsertResult(result("Old Row", "", 10)); err != nil {
		t.Fatal(err)
	}

	p := &FullReplace{
		Source: &fakeSheet{rows: []model.VivaResult{
			result("Amira Hassan", "", 82),
			result("Raj Patel", "", 64),
		}},
		Mirror: s,
	}
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Pulled != 2 || report.Synced != 2 || len(report.Skipped) != 0 {
		t.Fatalf("report = %+v", report)
	}

	rows, err := s.ListResults()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, r := range rows {
		if r.StudentName == "Old Row" {
			t.Fatalf("pre-cycle row survived replace")
		}
	}
}

func TestFullReplaceKeepsMirrorOnPullFailure(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.InsertResult(result("Kept Row", "", 55)); err != nil {
		t.Fatal(err)
	}

	p := &FullReplace{
		Source: &fakeSheet{err: errors.New("sheet unavailable")},
		Mirror: s,
	}
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error when pull fails")
	}

	rows, err := s.ListResults()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].StudentName != "Kept Row" {
		t.Fatalf("mirror mutated after failed pull: %+v", rows)
	}
}

func TestFullReplaceSkipsNamelessRows(t *testing.T) {
	s := newTestStore(t)
	p := &FullReplace{
		Source: &fakeSheet{rows: []model.VivaResult{
			result("Amira Hassan", "", 82),
			result("", "", 30),
		}},
		Mirror: s,
	}
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Synced != 1 {
		t.Fatalf("synced = %d, want 1", report.Synced)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Row != 1 {
		t.Fatalf("skipped = %+v", report.Skipped)
	}
}

func TestCallUpsertIdempotent(t *testing.T) {
	s := newTestStore(t)
	src := &fakeCalls{recs: []model.VivaResult{
		result("Amira Hassan", "call-a", 82),
		result("Raj Patel", "call-b", 64),
	}}
	p := &CallUpsert{Source: src, Mirror: s}

	for i := 0; i < 3; i++ {
		report, err := p.Run(context.Background())
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if report.Synced != 2 {
			t.Fatalf("run %d synced = %d, want 2", i, report.Synced)
		}
	}
	n, err := s.CountResults()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("count = %d after repeated runs, want 2", n)
	}
}

func TestCallUpsertNeverDeletes(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.InsertResult(result("Webhook Row", "call-w", 70)); err != nil {
		t.Fatal(err)
	}

	p := &CallUpsert{
		Source: &fakeCalls{recs: []model.VivaResult{result("Amira Hassan", "call-a", 82)}},
		Mirror: s,
	}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	n, err := s.CountResults()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2: upsert must not delete rows absent from the pull", n)
	}
}

func TestCallUpsertSkipsRecordsWithoutCallID(t *testing.T) {
	s := newTestStore(t)
	src := &fakeCalls{recs: []model.VivaResult{
		result("Amira Hassan", "call-a", 82),
		result("Raj Patel", "", 64),
	}}
	p := &CallUpsert{Source: src, Mirror: s}

	for i := 0; i < 2; i++ {
		report, err := p.Run(context.Background())
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if report.Synced != 1 {
			t.Fatalf("run %d synced = %d, want 1", i, report.Synced)
		}
		if len(report.Skipped) != 1 || report.Skipped[0].Row != 1 || report.Skipped[0].Reason != "missing call id" {
			t.Fatalf("run %d skipped = %+v", i, report.Skipped)
		}
	}
	n, err := s.CountResults()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("count = %d after repeated runs, want 1", n)
	}
}

func TestCallUpsertUpdatesExisting(t *testing.T) {
	s := newTestStore(t)
	p := &CallUpsert{
		Source: &fakeCalls{recs: []model.VivaResult{result("Amira Hassan", "call-a", 40)}},
		Mirror: s,
	}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	p.Source = &fakeCalls{recs: []model.VivaResult{result("Amira Hassan", "call-a", 85)}}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	rows, err := s.ListResults()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Score != 85 {
		t.Fatalf("rows = %+v, want one row with score 85", rows)
	}
}

func TestCallAPIListCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key-123" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/calls" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]map[string]string{{
			"id":                "call-9",
			"startedAt":         "2026-01-15T10:11:35.724Z",
			"studentName":       "Amira Hassan",
			"studentEmail":      "amira@school.edu",
			"subject":           "Physics",
			"topics":            "Optics, Waves",
			"questionsAnswered": "5 questions",
			"score":             "72/100",
		}})
	}))
	defer srv.Close()

	api := NewCallAPI(srv.URL, "key-123")
	calls, err := api.ListCalls(context.Background())
	if err != nil {
		t.Fatalf("list calls: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("got %d calls", len(calls))
	}
	c := calls[0]
	if c.CallID != "call-9" || c.Score != 72 || c.QuestionsAnswered != 5 {
		t.Fatalf("call = %+v", c)
	}
	if len(c.Topics) != 2 || c.Topics[0] != "Optics" {
		t.Fatalf("topics = %v", c.Topics)
	}
}

func TestCallAPIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	api := NewCallAPI(srv.URL, "bad-key")
	if _, err := api.ListCalls(context.Background()); err == nil {
		t.Fatal("expected error on 403")
	}
}
