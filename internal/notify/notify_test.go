package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubSink struct {
	calls int
	err   error
}

func (s *stubSink) Notify(context.Context, string, string) error {
	s.calls++
	return s.err
}

func TestLogSink_WritesReminder(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))

	require.NoError(t, sink.Notify(context.Background(), "task-1", "Buy milk is due soon"))

	entries := logs.FilterMessage("reminder").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "task-1", fields["task_id"])
	assert.Equal(t, "Buy milk is due soon", fields["message"])
}

func TestMulti_DeliversToAllAndJoinsErrors(t *testing.T) {
	failing := &stubSink{err: errors.New("offline")}
	ok := &stubSink{}

	err := Multi{failing, ok}.Notify(context.Background(), "task-1", "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
}

func TestMulti_EmptyIsNoop(t *testing.T) {
	assert.NoError(t, Multi{}.Notify(context.Background(), "task-1", "hi"))
}

func TestTelegramSink_SendsMessage(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
		chat []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"todo","username":"todo_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			mu.Lock()
			sent = append(sent, r.Form.Get("text"))
			chat = append(chat, r.Form.Get("chat_id"))
			mu.Unlock()
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	bot, err := tgbotapi.NewBotAPIWithClient("token", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)

	sink := NewTelegramSink(bot, 42)
	require.NoError(t, sink.Notify(context.Background(), "task-1", "Buy milk is due at 10:00"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Buy milk is due at 10:00")
	assert.Equal(t, "42", chat[0])
}

func TestTelegramSink_CancelledContext(t *testing.T) {
	sink := NewTelegramSink(nil, 42)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sink.Notify(ctx, "task-1", "hi"), context.Canceled)
}
