package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nmurthy/vivadesk/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// generatedQuestion is the JSON shape the LLM is asked to emit for each
// question.
type generatedQuestion struct {
	Text        string `json:"text"`
	ModelAnswer string `json:"model_answer"`
}

type generateResponse struct {
	Questions []generatedQuestion `json:"questions"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// GenerateQuestions asks the LLM for count viva questions on the given
// subject and topics at the requested difficulty.
func (c *Client) GenerateQuestions(ctx context.Context, subject string, topics []string, difficulty model.Difficulty, count int) ([]model.VivaQuestion, error) {
	if count <= 0 {
		count = 5
	}

	systemPrompt := buildGenerateSystemPrompt(subject, topics, difficulty, count)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Generate %d questions.", count)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	var parsed generateResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	if len(parsed.Questions) == 0 {
		return nil, fmt.Errorf("LLM returned no questions (raw: %s)", raw)
	}

	questions := make([]model.VivaQuestion, 0, len(parsed.Questions))
	for _, q := range parsed.Questions {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			continue
		}
		questions = append(questions, model.VivaQuestion{
			Subject:        subject,
			Topics:         topics,
			Difficulty:     difficulty,
			Question:       text,
			ExpectedAnswer: strings.TrimSpace(q.ModelAnswer),
			Active:         true,
		})
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("LLM returned only empty questions (raw: %s)", raw)
	}
	return questions, nil
}

// Ping makes a minimal completion request to verify the endpoint and key.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "ping"},
		},
		MaxTokens: 1,
	})
	if err != nil {
		return fmt.Errorf("LLM ping: %w", err)
	}
	return nil
}

func buildGenerateSystemPrompt(subject string, topics []string, difficulty model.Difficulty, count int) string {
	var sb strings.Builder
	sb.WriteString("You are an oral examination designer. Write open-ended viva questions ")
	sb.WriteString("that an examiner asks a student aloud and the student answers by speaking.\n\n")
	sb.WriteString("SUBJECT: " + subject + "\n")
	if len(topics) > 0 {
		sb.WriteString("TOPICS: " + strings.Join(topics, ", ") + "\n")
	}
	sb.WriteString("DIFFICULTY: " + string(difficulty) + "\n")
	sb.WriteString(fmt.Sprintf("COUNT: %d\n\n", count))

	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- Each question must be answerable in one to three spoken minutes.\n")
	sb.WriteString("- Do not write multiple-choice or yes/no questions.\n")
	sb.WriteString("- Include a concise model answer for each question.\n")
	sb.WriteString("- Match the requested difficulty: easy probes recall, medium probes application, hard probes synthesis.\n")
	sb.WriteString("\nRespond ONLY with a JSON object:\n")
	sb.WriteString(`{"questions": [{"text": "<question>", "model_answer": "<answer>"}]}`)
	sb.WriteString("\n")

	return sb.String()
}
