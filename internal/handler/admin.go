package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nmurthy/vivadesk/internal/model"
)

// Admin endpoints dual-write to the spreadsheet when one is configured. The
// sheet is append-only, so deletes are mirror-only and the next full-replace
// sync makes that explicit; create responses carry the sheet flag so the
// caller can see a partial write.

func (h *Handler) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	status := model.EntityStatus(r.URL.Query().Get("status"))
	subjects, err := h.store.ListSubjects(status)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": subjects, "count": len(subjects)})
}

func (h *Handler) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var sub model.Subject
	if err := decodeJSON(r, &sub); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sub.Name = strings.TrimSpace(sub.Name)
	if sub.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := h.store.CreateSubject(sub)
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	sub.ID = id
	if sub.Status == "" {
		sub.Status = model.StatusActive
	}

	savedToSheet := false
	if h.sheet != nil {
		if err := h.sheet.AppendSubject(r.Context(), sub); err != nil {
			slog.Error("append subject to sheet", "subject", sub.Name, "error", err)
		} else {
			savedToSheet = true
		}
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"data":         sub,
		"savedToSheet": savedToSheet,
	})
}

func (h *Handler) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.store.DeleteSubject(name); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleListTopics(w http.ResponseWriter, r *http.Request) {
	subject := chi.URLParam(r, "name")
	status := model.EntityStatus(r.URL.Query().Get("status"))
	topics, err := h.store.ListTopics(subject, status)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": topics, "count": len(topics)})
}

func (h *Handler) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	subject := chi.URLParam(r, "name")
	var topic model.Topic
	if err := decodeJSON(r, &topic); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	topic.SubjectName = subject
	topic.Name = strings.TrimSpace(topic.Name)
	if topic.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if sub, err := h.store.GetSubjectByName(subject); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	} else if sub == nil {
		respondError(w, http.StatusNotFound, "subject not found")
		return
	}

	id, err := h.store.CreateTopic(topic)
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	topic.ID = id
	if topic.Status == "" {
		topic.Status = model.StatusActive
	}

	savedToSheet := false
	if h.sheet != nil {
		if err := h.sheet.AppendTopic(r.Context(), topic); err != nil {
			slog.Error("append topic to sheet", "topic", topic.Name, "error", err)
		} else {
			savedToSheet = true
		}
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"data":         topic,
		"savedToSheet": savedToSheet,
	})
}

func (h *Handler) handleDeleteTopic(w http.ResponseWriter, r *http.Request) {
	subject := chi.URLParam(r, "name")
	topic := chi.URLParam(r, "topic")
	if err := h.store.DeleteTopic(subject, topic); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	activeOnly := q.Get("active") == "true"
	questions, err := h.store.ListQuestions(q.Get("subject"), model.Difficulty(q.Get("difficulty")), activeOnly)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": questions, "count": len(questions)})
}

func (h *Handler) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var q model.VivaQuestion
	if err := decodeJSON(r, &q); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.Subject) == "" {
		respondError(w, http.StatusBadRequest, "subject and question are required")
		return
	}
	if q.Difficulty == "" {
		q.Difficulty = model.DifficultyMedium
	}
	q.Active = true

	id, err := h.store.InsertQuestion(q)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	q.ID = id

	savedToSheet := false
	if h.sheet != nil {
		if err := h.sheet.AppendQuestion(r.Context(), q); err != nil {
			slog.Error("append question to sheet", "id", id, "error", err)
		} else {
			savedToSheet = true
		}
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"data":         q,
		"savedToSheet": savedToSheet,
	})
}

func (h *Handler) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	if h.llm == nil {
		respondError(w, http.StatusServiceUnavailable, "question generation is not configured")
		return
	}
	var req struct {
		Subject    string   `json:"subject"`
		Topics     []string `json:"topics"`
		Difficulty string   `json:"difficulty"`
		Count      int      `json:"count"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Subject) == "" {
		respondError(w, http.StatusBadRequest, "subject is required")
		return
	}
	difficulty := model.Difficulty(req.Difficulty)
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}

	questions, err := h.llm.GenerateQuestions(r.Context(), req.Subject, req.Topics, difficulty, req.Count)
	if err != nil {
		slog.Error("generate questions", "subject", req.Subject, "error", err)
		respondError(w, http.StatusBadGateway, "question generation failed")
		return
	}

	saved := make([]model.VivaQuestion, 0, len(questions))
	for _, q := range questions {
		id, err := h.store.InsertQuestion(q)
		if err != nil {
			slog.Error("store generated question", "error", err)
			continue
		}
		q.ID = id
		if h.sheet != nil {
			if err := h.sheet.AppendQuestion(r.Context(), q); err != nil {
				slog.Error("append generated question to sheet", "id", id, "error", err)
			}
		}
		saved = append(saved, q)
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    saved,
		"count":   len(saved),
	})
}

func (h *Handler) handleActivateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid question ID")
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.store.SetQuestionActive(id, req.Active); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
