package cmdutil

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leefowlercu/hwnotify/internal/config"
	"github.com/leefowlercu/hwnotify/internal/poller"
)

const testBotToken = "123456789:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewPipeline_MissingSecrets(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Telegram.ChatID = "42"

	_, err := NewPipeline(&cfg, testLogger())

	require.Error(t, err)
	assert.True(t, config.IsMissingError(err))
	assert.Contains(t, err.Error(), "practicum.token")
	assert.Contains(t, err.Error(), "telegram.token")
	assert.NotContains(t, err.Error(), "telegram.chat_id")
}

func TestNewPipeline_NilConfig(t *testing.T) {
	_, err := NewPipeline(nil, testLogger())
	require.Error(t, err)
}

func TestNewPipeline_CycleAgainstFakeAPI(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "OAuth practicum-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"homeworks":[],"current_date":1700000500}`))
	}))
	defer api.Close()

	cfg := config.NewDefaultConfig()
	cfg.Practicum.Token = "practicum-token"
	cfg.Practicum.Endpoint = api.URL
	cfg.Telegram.Token = testBotToken
	cfg.Telegram.ChatID = "42"
	cfg.Poll.Interval = 120
	cfg.Notify.ErrorAlerts = true

	p, err := NewPipeline(&cfg, testLogger())
	require.NoError(t, err)

	assert.Equal(t, "42", p.Loop.Destination)
	assert.True(t, p.Loop.ErrorAlerts)
	assert.Equal(t, cfg.Poll.IntervalDuration(), p.Loop.Interval)
	assert.Equal(t, api.URL, p.Client.Endpoint())

	loop := p.NewLoop(testLogger(), poller.WithCursor(1700000000))
	res := loop.RunOnce(context.Background())

	assert.Equal(t, poller.OutcomeEmpty, res.Outcome)
	assert.Equal(t, int64(1700000500), loop.Snapshot().Cursor)
}
