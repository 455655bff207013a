package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := New(Config{BaseURL: server.URL, Model: "test-model"})
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestGenerate(t *testing.T) {
	var gotReq chatRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "local answer"},
			Done:    true,
		})
	})

	out, err := svc.Generate(context.Background(), "describe this", driven.GenerateOptions{MaxTokens: 128})

	require.NoError(t, err)
	assert.Equal(t, "local answer", out)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.False(t, gotReq.Stream)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "describe this", gotReq.Messages[0].Content)
	assert.EqualValues(t, 128, gotReq.Options["num_predict"])
}

func TestChatPassesRolesThrough(t *testing.T) {
	var gotReq chatRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Content: "ok"}, Done: true})
	})

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "ground rules"},
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
	}, driven.ChatOptions{})

	require.NoError(t, err)
	require.Len(t, gotReq.Messages, 3)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "assistant", gotReq.Messages[2].Role)
}

func TestGenerateServerErrorIsTransient(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := svc.Generate(context.Background(), "p", driven.GenerateOptions{})

	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

func TestGenerateBodyError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{Error: "model not found"})
	})

	_, err := svc.Generate(context.Background(), "p", driven.GenerateOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/version", r.URL.Path)
		w.Write([]byte(`{"version":"0.6.0"}`))
	})

	assert.NoError(t, svc.Ping(context.Background()))
}

func TestPingUnreachable(t *testing.T) {
	svc := New(Config{BaseURL: "http://127.0.0.1:1"})

	err := svc.Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestDefaults(t *testing.T) {
	svc := New(Config{})
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.config.BaseURL)
}
