package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/opsdesk-api/internal/constants"
	"github.com/yukikurage/opsdesk-api/internal/template"
)

// ErrAIUnavailable is returned when no API key was configured.
var ErrAIUnavailable = errors.New("AI drafting is not configured")

// ChatCompleter is the part of the OpenAI client the AI service uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type AIService struct {
	client ChatCompleter
}

// NewAIService creates an AIService. An empty apiKey yields a service whose
// calls fail with ErrAIUnavailable.
func NewAIService(apiKey string) *AIService {
	if apiKey == "" {
		return &AIService{}
	}
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// NewAIServiceWithClient creates an AIService over an existing client.
func NewAIServiceWithClient(client ChatCompleter) *AIService {
	return &AIService{client: client}
}

type draftedTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	LevelIndex  int    `json:"level_index"`
}

// DraftTaskBlueprints asks the model to split text into task blueprints for
// a template with the given levels. Drafts are validated against levels and
// never persisted.
func (s *AIService) DraftTaskBlueprints(ctx context.Context, text string, levels []template.Level) ([]template.TaskBlueprint, error) {
	if s.client == nil {
		return nil, ErrAIUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return nil, invalid("text", "is required")
	}
	if len(levels) == 0 {
		return nil, invalid("levels", "at least one level is required")
	}

	var levelLines strings.Builder
	for _, l := range levels {
		fmt.Fprintf(&levelLines, "- level_index %d: %s\n", l.LevelIndex, l.Department)
	}

	prompt := fmt.Sprintf(`You split project descriptions into template tasks.

Levels (department per level):
%s
Text:
%s

Return a JSON array only, no prose:
[
  {
    "title": "short task title",
    "description": "task details",
    "priority": "low | medium | high",
    "level_index": 0
  }
]

Rules:
- level_index must be one of the listed levels
- return [] if the text contains no tasks
- at most %d tasks`, levelLines.String(), text, constants.MaxAIGeneratedTasks)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var drafts []draftedTask
	if err := json.Unmarshal([]byte(content), &drafts); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}
	if len(drafts) > constants.MaxAIGeneratedTasks {
		drafts = drafts[:constants.MaxAIGeneratedTasks]
	}

	blueprints := make([]template.TaskBlueprint, len(drafts))
	for i, d := range drafts {
		blueprints[i] = template.TaskBlueprint{
			Title:       d.Title,
			Description: d.Description,
			Priority:    template.Priority(strings.ToLower(d.Priority)),
			LevelIndex:  d.LevelIndex,
			Order:       i,
		}
	}

	if err := template.ValidateBlueprints(levels, blueprints); err != nil {
		return nil, &ValidationError{Field: "tasks", Err: err}
	}

	return blueprints, nil
}
