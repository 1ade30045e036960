// Package handler exposes the dashboard's JSON API: webhook ingestion,
// result reads, reconciliation triggers, and the authenticated admin
// surface for subjects, topics, and questions.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nmurthy/vivadesk/internal/llm"
	"github.com/nmurthy/vivadesk/internal/model"
	"github.com/nmurthy/vivadesk/internal/notify"
	"github.com/nmurthy/vivadesk/internal/results"
	"github.com/nmurthy/vivadesk/internal/store"
	vsync "github.com/nmurthy/vivadesk/internal/sync"
)

// SheetWriter is the append-side of the spreadsheet. Nil means no sheet is
// configured and writes go to the mirror only.
type SheetWriter interface {
	AppendResult(ctx context.Context, r model.VivaResult) error
	AppendSubject(ctx context.Context, sub model.Subject) error
	AppendTopic(ctx context.Context, t model.Topic) error
	AppendQuestion(ctx context.Context, q model.VivaQuestion) error
}

// Generator produces viva questions. *llm.Client implements it.
type Generator interface {
	GenerateQuestions(ctx context.Context, subject string, topics []string, difficulty model.Difficulty, count int) ([]model.VivaQuestion, error)
}

var _ Generator = (*llm.Client)(nil)

// Config holds handler-level settings.
type Config struct {
	SecureCookies bool
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	sheet   SheetWriter
	results *results.Service
	llm     Generator
	mailer  notify.Sender
	syncer  vsync.Policy
	config  Config
}

// New creates a new Handler. sheet, llm, mailer, and syncer may be nil; the
// corresponding endpoints then degrade or report unavailability.
func New(s *store.Store, sheet SheetWriter, rs *results.Service, gen Generator, mailer notify.Sender, syncer vsync.Policy, cfg Config) *Handler {
	return &Handler{
		store:   s,
		sheet:   sheet,
		results: rs,
		llm:     gen,
		mailer:  mailer,
		syncer:  syncer,
		config:  cfg,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.handleHealth)
	r.Post("/webhook/viva-result", h.handleWebhook)

	r.Get("/results", h.handleResults)
	r.Get("/viva-results", h.handleResults)
	r.Get("/stats", h.handleStats)
	r.Get("/students", h.handleStudents)
	r.Get("/sync-results", h.handleSyncStatus)
	r.Post("/sync-results", h.handleSyncNow)

	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/subjects", h.handleListSubjects)
		r.Post("/subjects", h.handleCreateSubject)
		r.Delete("/subjects/{name}", h.handleDeleteSubject)
		r.Get("/subjects/{name}/topics", h.handleListTopics)
		r.Post("/subjects/{name}/topics", h.handleCreateTopic)
		r.Delete("/subjects/{name}/topics/{topic}", h.handleDeleteTopic)
		r.Get("/questions", h.handleListQuestions)
		r.Post("/questions", h.handleCreateQuestion)
		r.Post("/questions/generate", h.handleGenerateQuestions)
		r.Post("/questions/{id}/activate", h.handleActivateQuestion)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]any{"success": false, "error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(v)
}
