package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	t.Setenv("TEST_CHAT_KEY", "secret")
	c, err := NewClient(Config{BaseURL: url + "/", APIKeyEnv: "TEST_CHAT_KEY", Temperature: 0.8, MaxRetries: 1})
	require.NoError(t, err)
	return c
}

func TestCompleteSendsSystemAndUserMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Equal(t, 1, req.N)
		assert.InDelta(t, 0.8, req.Temperature, 1e-9)
		if !assert.Len(t, req.Messages, 2) {
			return
		}
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, DefaultSystemPrompt, req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, "draft a note", req.Messages[1].Content)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  The phrase means...\n"}}]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv.URL).Complete(context.Background(), "draft a note")
	require.NoError(t, err)
	assert.Equal(t, "The phrase means...", out)
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv.URL).Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCompleteReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"context length exceeded"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context length exceeded")
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Complete(context.Background(), "p")
	require.Error(t, err)
}
