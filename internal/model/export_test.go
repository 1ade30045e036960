package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestResultsExportJSON(t *testing.T) {
	export := ResultsExport{
		SpreadsheetID: "sheet-abc",
		Source:        "database",
		ExportedAt:    time.Date(2026, 1, 15, 10, 11, 35, 0, time.UTC),
		Count:         1,
		Results: []VivaResult{{
			ID:          "1",
			Timestamp:   time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
			StudentName: "Amira Hassan",
			Score:       72,
		}},
	}

	data, err := json.Marshal(export)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)
	for _, want := range []string{
		`"spreadsheet_id":"sheet-abc"`,
		`"source":"database"`,
		`"exported_at":"2026-01-15T10:11:35Z"`,
		`"count":1`,
		`"studentName":"Amira Hassan"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("export JSON missing %s\ngot: %s", want, got)
		}
	}

	var back ResultsExport
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.ExportedAt.Equal(export.ExportedAt) || back.Results[0].Score != 72 {
		t.Fatalf("round trip = %+v", back)
	}
}
