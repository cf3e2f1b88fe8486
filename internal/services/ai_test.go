package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/ai-todo/internal/errors"
	"github.com/yukikurage/ai-todo/internal/models"
)

func chatServer(t *testing.T, content string, delay time.Duration) (*httptest.Server, *[]map[string]any) {
	t.Helper()

	var requests []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		requests = append(requests, body)

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestAIService_GenerateDescription(t *testing.T) {
	srv, requests := chatServer(t, "  - Fresh milk keeps breakfast easy.\n- Tip: go before work.  ", 0)

	svc := NewAIService(AIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "test-model"})

	text, err := svc.GenerateDescription(context.Background(), "Buy milk", models.CategoryPersonal, models.PriorityLow)
	require.NoError(t, err)
	assert.Equal(t, "- Fresh milk keeps breakfast easy.\n- Tip: go before work.", text)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "test-model", req["model"])

	messages := req["messages"].([]any)
	require.Len(t, messages, 1)
	prompt := messages[0].(map[string]any)["content"].(string)
	assert.Contains(t, prompt, "Buy milk")
	assert.Contains(t, prompt, "Personal")
	assert.Contains(t, prompt, "Low")
}

func TestAIService_EmptyAnswerIsError(t *testing.T) {
	srv, _ := chatServer(t, "   ", 0)
	svc := NewAIService(AIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	_, err := svc.GenerateDescription(context.Background(), "Buy milk", models.CategoryPersonal, models.PriorityLow)
	assert.Error(t, err)
}

func TestAIService_DeadlineIsProviderTimeout(t *testing.T) {
	srv, _ := chatServer(t, "late", time.Second)
	svc := NewAIService(AIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := svc.GenerateDescription(ctx, "Buy milk", models.CategoryPersonal, models.PriorityLow)
	assert.ErrorIs(t, err, apierrors.ErrProviderTimeout)
}

func TestAIService_RateLimiterWaitCountsAgainstDeadline(t *testing.T) {
	srv, requests := chatServer(t, "ok", 0)
	svc := NewAIService(AIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1", MinInterval: time.Hour, Burst: 1})

	_, err := svc.GenerateDescription(context.Background(), "first", models.CategoryWork, models.PriorityHigh)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = svc.GenerateDescription(ctx, "second", models.CategoryWork, models.PriorityHigh)
	assert.ErrorIs(t, err, apierrors.ErrProviderTimeout)
	assert.Len(t, *requests, 1)
}
