package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/openai/openai-go"

	"github.com/CrowderSoup/taskflow-pro/config"
)

const maxSuggestions = 7

const subtaskPrompt = `You break tasks down into concrete next steps.
Reply with a JSON array of 3 to 7 short subtask titles and nothing else.
Each title starts with a verb and is under 60 characters.`

// SubtaskGenerator suggests subtask titles for a task.
type SubtaskGenerator interface {
	Generate(ctx context.Context, taskTitle string) ([]string, error)
}

// OpenAIGenerator asks a chat model for subtasks.
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator returns nil when no API key is configured.
func NewOpenAIGenerator(cfg config.OpenAIConfig) *OpenAIGenerator {
	if cfg.APIKey == "" {
		return nil
	}
	return &OpenAIGenerator{client: newOpenAIClient(cfg), model: cfg.ChatModel}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, taskTitle string) ([]string, error) {
	if g == nil {
		return nil, ErrAIUnavailable
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(subtaskPrompt),
			openai.UserMessage("Task: " + taskTitle),
		},
		Model:       openai.ChatModel(g.model),
		Temperature: openai.Float(0.4),
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	subtasks := ParseSubtasks(resp.Choices[0].Message.Content)
	if len(subtasks) == 0 {
		return nil, errors.New("model returned no usable subtasks")
	}
	return subtasks, nil
}

var listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)

// ParseSubtasks extracts subtask titles from a model reply. A JSON array of
// strings is preferred; bulleted or numbered lines are accepted. Blank and
// duplicate titles are dropped and at most seven are kept.
func ParseSubtasks(content string) []string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var candidates []string
	if start, end := strings.Index(content, "["), strings.LastIndex(content, "]"); start >= 0 && end > start {
		var arr []string
		if err := json.Unmarshal([]byte(content[start:end+1]), &arr); err == nil {
			candidates = arr
		}
	}
	if candidates == nil {
		for _, line := range strings.Split(content, "\n") {
			if !listMarker.MatchString(line) {
				continue
			}
			candidates = append(candidates, listMarker.ReplaceAllString(line, ""))
		}
	}

	seen := make(map[string]bool)
	out := []string{}
	for _, c := range candidates {
		c = strings.Trim(strings.TrimSpace(c), `"`)
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
