package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nmurthy/vivadesk/internal/model"
	"github.com/nmurthy/vivadesk/internal/notify"
	"github.com/nmurthy/vivadesk/internal/parse"
)

// webhookPayload is the call platform's post-viva report. Every field
// arrives as a string; normalization happens here, once, before either
// store sees the record.
type webhookPayload struct {
	Timestamp         string `json:"timestamp"`
	StudentName       string `json:"studentName"`
	StudentEmail      string `json:"studentEmail"`
	Subject           string `json:"subject"`
	Topics            string `json:"topics"`
	QuestionsAnswered string `json:"questionsAnswered"`
	Score             string `json:"score"`
	OverallFeedback   string `json:"overallFeedback"`
	Transcript        string `json:"transcript"`
	RecordingURL      string `json:"recordingUrl"`
	Evaluation        string `json:"evaluation"`
	CallID            string `json:"vapiCallId"`
}

type webhookResponse struct {
	Success         bool   `json:"success"`
	SavedToDatabase bool   `json:"savedToDatabase"`
	SavedToSheet    bool   `json:"savedToSheet"`
	Message         string `json:"message"`
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(payload.StudentName) == "" {
		respondError(w, http.StatusBadRequest, "studentName is required")
		return
	}

	result := model.VivaResult{
		Timestamp:         parse.Timestamp(payload.Timestamp),
		StudentName:       strings.TrimSpace(payload.StudentName),
		StudentEmail:      strings.TrimSpace(payload.StudentEmail),
		Subject:           strings.TrimSpace(payload.Subject),
		Topics:            parse.Topics(payload.Topics),
		QuestionsAnswered: parse.FirstInt(payload.QuestionsAnswered),
		Score:             parse.FirstInt(payload.Score),
		OverallFeedback:   payload.OverallFeedback,
		Transcript:        payload.Transcript,
		RecordingURL:      payload.RecordingURL,
		Evaluation:        parse.Evaluation(payload.Evaluation),
		CallID:            strings.TrimSpace(payload.CallID),
	}

	receipt := uuid.NewString()

	// The two writes are independent: neither waits for or aborts the
	// other, and one failing must not lose the record in the other store.
	var (
		wg          sync.WaitGroup
		dbErr       error
		sheetErr    error
		sheetWanted = h.sheet != nil
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if result.CallID != "" {
			_, dbErr = h.store.UpsertResultByCallID(result)
		} else {
			_, dbErr = h.store.InsertResult(result)
		}
	}()
	if sheetWanted {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sheetErr = h.sheet.AppendResult(r.Context(), result)
		}()
	}
	wg.Wait()

	if dbErr != nil {
		slog.Error("webhook: database write failed", "receipt", receipt, "student", result.StudentName, "error", dbErr)
	}
	if sheetErr != nil {
		slog.Error("webhook: sheet write failed", "receipt", receipt, "student", result.StudentName, "error", sheetErr)
	}

	// A well-formed request is accepted regardless of store outcomes; the
	// per-store flags are the failure signal.
	resp := webhookResponse{
		Success:         true,
		SavedToDatabase: dbErr == nil,
		SavedToSheet:    sheetWanted && sheetErr == nil,
	}
	switch {
	case resp.SavedToDatabase && resp.SavedToSheet:
		resp.Message = fmt.Sprintf("result saved to both stores (receipt %s)", receipt)
	case resp.SavedToDatabase || resp.SavedToSheet:
		resp.Message = fmt.Sprintf("result saved partially (receipt %s)", receipt)
	default:
		resp.Message = fmt.Sprintf("result accepted but not saved to any store (receipt %s)", receipt)
	}
	respondJSON(w, http.StatusOK, resp)

	if resp.SavedToDatabase || resp.SavedToSheet {
		h.notifyResult(result)
	}
}

// notifyResult emails the student their result. Best effort: failures are
// logged and never affect the webhook response, which has already been sent.
func (h *Handler) notifyResult(r model.VivaResult) {
	if h.mailer == nil || r.StudentEmail == "" {
		return
	}
	body, err := notify.ResultBody(r)
	if err != nil {
		slog.Error("notify: render failed", "student", r.StudentName, "error", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.mailer.Send(ctx, r.StudentEmail, notify.ResultSubject(r), body); err != nil {
			slog.Error("notify: send failed", "student", r.StudentName, "error", err)
			return
		}
		slog.Info("notify: result email sent", "student", r.StudentName, "email", r.StudentEmail)
	}()
}
