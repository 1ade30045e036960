// Package sync reconciles the relational mirror against the upstream source
// of truth. Two policies exist with different data-loss characteristics and
// are deliberately not merged: full-replace treats the spreadsheet as
// authoritative and rebuilds the mirror each cycle; call-upsert treats an
// external call platform as authoritative and never deletes.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nmurthy/vivadesk/internal/model"
)

// SheetSource pulls all result rows from the spreadsheet.
type SheetSource interface {
	ListResults(ctx context.Context) ([]model.VivaResult, error)
}

// CallSource pulls call records from the external call platform.
type CallSource interface {
	ListCalls(ctx context.Context) ([]model.VivaResult, error)
}

// SkippedRow records one row that a cycle could not sync, so skips are
// observable instead of silently swallowed.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Report summarizes one reconciliation cycle.
type Report struct {
	RunID    string        `json:"run_id"`
	Policy   string        `json:"policy"`
	Pulled   int           `json:"pulled"`
	Synced   int           `json:"synced"`
	Skipped  []SkippedRow  `json:"skipped,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Policy is one reconciliation strategy.
type Policy interface {
	Name() string
	Run(ctx context.Context) (*Report, error)
}

// FullReplace pulls every row from the spreadsheet and swaps the mirror's
// result table for them. The swap happens in a single transaction after a
// successful pull, so a failure anywhere in the cycle leaves the pre-cycle
// rows intact; the table is never observably empty mid-cycle.
type FullReplace struct {
	Source SheetSource
	Mirror interface {
		ReplaceResults(rows []model.VivaResult) error
	}
}

func (p *FullReplace) Name() string { return "replace" }

func (p *FullReplace) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), Policy: p.Name()}
	start := time.Now()

	rows, err := p.Source.ListResults(ctx)
	if err != nil {
		// Abort before any mutation: the previous mirror state stands.
		return nil, fmt.Errorf("pull results: %w", err)
	}
	report.Pulled = len(rows)

	keep := make([]model.VivaResult, 0, len(rows))
	for i, r := range rows {
		if r.StudentName == "" {
			report.Skipped = append(report.Skipped, SkippedRow{Row: i, Reason: "missing student name"})
			continue
		}
		keep = append(keep, r)
	}

	if err := p.Mirror.ReplaceResults(keep); err != nil {
		return nil, fmt.Errorf("replace results: %w", err)
	}
	report.Synced = len(keep)
	report.Duration = time.Since(start)
	return report, nil
}

// CallUpsert pulls call records keyed by call id and updates-or-inserts each
// one. Rows absent from the current pull are left alone, so repeated runs
// against an unchanged source are idempotent and nothing is ever deleted.
type CallUpsert struct {
	Source CallSource
	Mirror interface {
		UpsertResultByCallID(r model.VivaResult) (bool, error)
	}
}

func (p *CallUpsert) Name() string { return "upsert" }

func (p *CallUpsert) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), Policy: p.Name()}
	start := time.Now()

	records, err := p.Source.ListCalls(ctx)
	if err != nil {
		return nil, fmt.Errorf("pull calls: %w", err)
	}
	report.Pulled = len(records)

	for i, r := range records {
		if r.StudentName == "" {
			report.Skipped = append(report.Skipped, SkippedRow{Row: i, Reason: "missing student name"})
			continue
		}
		// The call id is the natural key; without it an upsert degrades to
		// an insert and every cycle would duplicate the record.
		if r.CallID == "" {
			report.Skipped = append(report.Skipped, SkippedRow{Row: i, Reason: "missing call id"})
			continue
		}
		if _, err := p.Mirror.UpsertResultByCallID(r); err != nil {
			report.Skipped = append(report.Skipped, SkippedRow{Row: i, Reason: err.Error()})
			continue
		}
		report.Synced++
	}
	report.Duration = time.Since(start)
	return report, nil
}
