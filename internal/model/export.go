package model

import "time"

// ResultsExport is the top-level JSON structure for the export command.
type ResultsExport struct {
	SpreadsheetID string       `json:"spreadsheet_id,omitempty"`
	Source        string       `json:"source"`
	ExportedAt    time.Time    `json:"exported_at"`
	Count         int          `json:"count"`
	Results       []VivaResult `json:"results"`
}
