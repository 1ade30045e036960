package llm

import (
	"strings"
	"testing"

	"github.com/nmurthy/vivadesk/internal/model"
)

func TestBuildGenerateSystemPrompt(t *testing.T) {
	prompt := buildGenerateSystemPrompt("Physics", []string{"Optics", "Waves"}, model.DifficultyHard, 7)

	for _, want := range []string{
		"SUBJECT: Physics",
		"TOPICS: Optics, Waves",
		"DIFFICULTY: hard",
		"COUNT: 7",
		"JSON object",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\nprompt:\n%s", want, prompt)
		}
	}
}

func TestBuildGenerateSystemPromptNoTopics(t *testing.T) {
	prompt := buildGenerateSystemPrompt("History", nil, model.DifficultyEasy, 3)
	if strings.Contains(prompt, "TOPICS:") {
		t.Errorf("prompt should omit TOPICS line when no topics given:\n%s", prompt)
	}
}

func TestNewDefaultsBaseURL(t *testing.T) {
	c := New("", "key", "gpt-4o-mini")
	if c.api == nil || c.model != "gpt-4o-mini" {
		t.Fatalf("client not initialized: %+v", c)
	}
}
