package handler

import (
	"fmt"
	"log/slog"
	"net/http"
)

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	rows, source, err := h.results.List(r.Context())
	if err != nil {
		slog.Error("list results", "error", err)
		respondError(w, http.StatusServiceUnavailable, "results unavailable from both stores")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    rows,
		"count":   len(rows),
		"source":  source,
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.results.Stats(r.Context())
	if err != nil {
		slog.Error("stats", "error", err)
		respondError(w, http.StatusServiceUnavailable, "results unavailable from both stores")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": stats})
}

func (h *Handler) handleStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.results.Students(r.Context())
	if err != nil {
		slog.Error("students", "error", err)
		respondError(w, http.StatusServiceUnavailable, "results unavailable from both stores")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    students,
		"count":   len(students),
	})
}

// handleSyncStatus reports the mirror's current state without touching the
// spreadsheet.
func (h *Handler) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.CountResults()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	last, err := h.store.LatestResult()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"count":      count,
		"lastResult": last,
	})
}

// handleSyncNow runs one reconciliation cycle on demand.
func (h *Handler) handleSyncNow(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		respondError(w, http.StatusServiceUnavailable, "sync is not configured")
		return
	}
	report, err := h.syncer.Run(r.Context())
	if err != nil {
		slog.Error("manual sync failed", "error", err)
		respondError(w, http.StatusBadGateway, fmt.Sprintf("sync failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"synced":  report.Synced,
		"skipped": report.Skipped,
		"message": fmt.Sprintf("synced %d of %d rows (run %s)", report.Synced, report.Pulled, report.RunID),
	})
}
