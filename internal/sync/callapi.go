package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nmurthy/vivadesk/internal/model"
	"github.com/nmurthy/vivadesk/internal/parse"
)

// CallAPI reads finished calls from the call platform's REST API. It is the
// CallSource behind the upsert policy.
type CallAPI struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewCallAPI(baseURL, apiKey string) *CallAPI {
	return &CallAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// callRecord is the platform's wire shape for one completed call. Numeric
// fields arrive as free-form strings and go through the same normalization
// as webhook payloads.
type callRecord struct {
	ID                string `json:"id"`
	StartedAt         string `json:"startedAt"`
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
}

func (c *CallAPI) ListCalls(ctx context.Context) ([]model.VivaResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/calls", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("call api: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var records []callRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("call api: decode: %w", err)
	}

	results := make([]model.VivaResult, 0, len(records))
	for _, rec := range records {
		results = append(results, model.VivaResult{
			CallID:            rec.ID,
			Timestamp:         parse.Timestamp(rec.StartedAt),
			StudentName:       strings.TrimSpace(rec.StudentName),
			StudentEmail:      strings.TrimSpace(rec.StudentEmail),
			Subject:           strings.TrimSpace(rec.Subject),
			Topics:            parse.Topics(rec.Topics),
			QuestionsAnswered: parse.FirstInt(rec.QuestionsAnswered),
			Score:             parse.FirstInt(rec.Score),
			OverallFeedback:   rec.OverallFeedback,
			Transcript:        rec.Transcript,
			RecordingURL:      rec.RecordingURL,
			Evaluation:        parse.Evaluation(rec.Evaluation),
		})
	}
	return results, nil
}
