package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naze-ai/naze/internal/ratelimit"
	"github.com/naze-ai/naze/internal/testutil"
)

// chatRequest mirrors the fields of the OpenAI-compatible request we care
// about in assertions.
type chatRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// newFakeGroq starts an OpenAI-compatible endpoint that always answers with
// the given content, and returns a client pointed at it.
func newFakeGroq(t *testing.T, answer string, lastReq *chatRequest) *GroqClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if lastReq != nil {
			if err := json.NewDecoder(r.Body).Decode(lastReq); err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": answer},
					"finish_reason": "stop",
				},
			},
		})
	}))
	t.Cleanup(server.Close)

	return NewGroqClient(GroqConfig{
		APIKey:    "gsk_test",
		BaseURL:   server.URL + "/v1",
		Model:     "llama3-8b-8192",
		MaxTokens: 5,
	}, testutil.TestLogger())
}

func TestGroqClientAsk(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   bool
	}{
		{"plain true", "True", true},
		{"trailing punctuation", "True.", true},
		{"upper case", "TRUE", true},
		{"padded", "  true  \n", true},
		{"plain false", "False", false},
		{"sentence false", "I think false", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFakeGroq(t, tt.answer, nil)
			got, err := c.Ask(context.Background(), "judge causes", "Is X the cause of Y?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGroqClientAskSendsBothMessages(t *testing.T) {
	var req chatRequest
	c := newFakeGroq(t, "True", &req)

	_, err := c.Ask(context.Background(), "system instruction", "user question")
	require.NoError(t, err)

	assert.Equal(t, "llama3-8b-8192", req.Model)
	assert.Equal(t, 5, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "system instruction", req.Messages[0].Content)
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Equal(t, "user question", req.Messages[1].Content)
}

func TestGroqClientAskAmbiguous(t *testing.T) {
	c := newFakeGroq(t, "maybe", nil)
	_, err := c.Ask(context.Background(), "judge causes", "Is X the cause of Y?")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousAnswer)
	assert.NotErrorIs(t, err, ErrServiceUnavailable)
}

func TestGroqClientAskServiceFailure(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		c := NewGroqClient(GroqConfig{
			APIKey:    "gsk_test",
			BaseURL:   server.URL + "/v1",
			Model:     "llama3-8b-8192",
			MaxTokens: 5,
		}, testutil.TestLogger())

		_, err := c.Ask(context.Background(), "judge causes", "Is X the cause of Y?")
		assert.ErrorIs(t, err, ErrServiceUnavailable)
	})

	t.Run("unreachable host", func(t *testing.T) {
		c := NewGroqClient(GroqConfig{
			APIKey:    "gsk_test",
			BaseURL:   "http://127.0.0.1:1/v1",
			Model:     "llama3-8b-8192",
			MaxTokens: 5,
		}, testutil.TestLogger())

		_, err := c.Ask(context.Background(), "judge causes", "Is X the cause of Y?")
		assert.ErrorIs(t, err, ErrServiceUnavailable)
	})

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "chatcmpl-test", "object": "chat.completion", "choices": []any{},
			})
		}))
		defer server.Close()

		c := NewGroqClient(GroqConfig{
			APIKey:    "gsk_test",
			BaseURL:   server.URL + "/v1",
			Model:     "llama3-8b-8192",
			MaxTokens: 5,
		}, testutil.TestLogger())

		_, err := c.Ask(context.Background(), "judge causes", "Is X the cause of Y?")
		assert.ErrorIs(t, err, ErrServiceUnavailable)
	})
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		answer  string
		want    bool
		wantErr bool
	}{
		{"True", true, false},
		{"True.", true, false},
		{"  TRUE\t", true, false},
		{"false", false, false},
		{"I think false", false, false},
		{"maybe", false, true},
		{"", false, true},
		{"yes", false, true},
	}
	for _, tt := range tests {
		got, err := parseVerdict(tt.answer)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrAmbiguousAnswer, "answer %q", tt.answer)
			continue
		}
		require.NoError(t, err, "answer %q", tt.answer)
		assert.Equal(t, tt.want, got, "answer %q", tt.answer)
	}
}

// scripted is a Provider returning canned verdicts, counting calls.
type scripted struct {
	calls int
}

func (s *scripted) Ask(context.Context, string, string) (bool, error) {
	s.calls++
	return true, nil
}

func TestLimitedWaitsForToken(t *testing.T) {
	inner := &scripted{}
	limiter := ratelimit.NewMemoryLimiter(100, 1) // fast refill so the test is quick
	defer func() { _ = limiter.Close() }()

	l := NewLimited(inner, limiter, "oracle")

	// Burst of 1: second call must wait for a refill but still succeed.
	for i := 0; i < 2; i++ {
		ok, err := l.Ask(context.Background(), "s", "p")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 2, inner.calls)
}

func TestLimitedHonorsCancellation(t *testing.T) {
	inner := &scripted{}
	limiter := ratelimit.NewMemoryLimiter(0.001, 1) // effectively no refill
	defer func() { _ = limiter.Close() }()

	l := NewLimited(inner, limiter, "oracle")

	_, err := l.Ask(context.Background(), "s", "p")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Ask(ctx, "s", "p")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, inner.calls, "cancelled call must not reach the service")
}
