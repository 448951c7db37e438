package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/askify/askify-cli/internal/model"
)

// Client wraps an OpenAI-compatible API and generates question sets
// directly, for running without a backend.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new generation client.
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

// GenerateQuiz asks the model for a question set matching the request and
// parses the returned JSON array.
func (c *Client) GenerateQuiz(ctx context.Context, req model.GenerationRequest) ([]model.Question, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert educational quiz creator. Always respond with valid JSON only, no additional text.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildQuizPrompt(req),
			},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := stripCodeFence(resp.Choices[0].Message.Content)
	slog.Debug("LLM quiz response", "raw", raw)

	var questions []model.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("LLM returned an empty question set")
	}
	return questions, nil
}

func buildQuizPrompt(req model.GenerationRequest) string {
	return fmt.Sprintf(`Create a %d-question %s quiz on the following topic with %s difficulty level.

Topic: %s

Please format the response as a JSON array with the following structure:
[
  {
    "question": "Question text here?",
    "options": ["Option A", "Option B", "Option C", "Option D"],
    "correctAnswer": "Option A",
    "explanation": "Brief explanation why this is correct"
  }
]

IMPORTANT: Return ONLY the JSON array, no additional text, no code blocks, no explanations.`,
		req.QuestionCount, req.QuizType, req.Difficulty, req.Topic)
}

// stripCodeFence removes markdown code fences the model sometimes wraps
// around its JSON despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
