package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	apierrors "github.com/yukikurage/ai-todo/internal/errors"
	"github.com/yukikurage/ai-todo/internal/models"
	"golang.org/x/time/rate"
)

const (
	DefaultAIBaseURL = "https://api.groq.com/openai/v1"
	DefaultAIModel   = "gemma2-9b-it"
)

type AIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// MinInterval spaces out requests; zero disables rate limiting.
	MinInterval time.Duration
	Burst       int
}

// AIService drafts task descriptions through an OpenAI compatible chat
// completion API.
type AIService struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

func NewAIService(cfg AIConfig) *AIService {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAIBaseURL
	}
	clientCfg.BaseURL = cfg.BaseURL
	if cfg.Model == "" {
		cfg.Model = DefaultAIModel
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.MinInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.MinInterval), max(1, cfg.Burst))
	}

	return &AIService{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		limiter: limiter,
	}
}

// GenerateDescription asks the model for a short motivating description of
// the task.
func (s *AIService) GenerateDescription(ctx context.Context, title string, category models.Category, priority models.Priority) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("AI client not initialized")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: waiting for rate limiter: %v", apierrors.ErrProviderTimeout, err)
	}

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: descriptionPrompt(title, category, priority),
				},
			},
			Temperature: 0.7,
		},
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", apierrors.ErrProviderTimeout, err)
		}
		return "", fmt.Errorf("AI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from AI")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty response from AI")
	}
	return content, nil
}

func descriptionPrompt(title string, category models.Category, priority models.Priority) string {
	return fmt.Sprintf(`Write a brief, motivating description for this task.

Task: %s
Category: %s
Priority: %s

Include:
- why the task matters and what it will achieve
- one quick tip for getting it done

Keep it to 2-3 bullet points at most and use an encouraging, positive tone.
Return only the description.`, title, category, priority)
}
