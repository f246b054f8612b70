package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulzo/translation-router/internal/config"
	"github.com/nulzo/translation-router/internal/translate"
)

func completion(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func newProvider(t *testing.T, baseURL string) translate.Provider {
	t.Helper()
	cfg := config.DefaultProviderConfig("openai")
	cfg.APIKey = "sk-test"
	cfg.BaseURL = baseURL
	cfg.MaxRetries = 0
	p, err := New(cfg, translate.Deps{})
	require.NoError(t, err)
	return p
}

func TestTranslateBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultModel, req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Contains(t, req.Messages[0].Content, "to it")
			assert.Equal(t, `["Hello","Cat"]`, req.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(`{"translations":["Ciao","Gatto"]}`))
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL)
	out, err := p.TranslateBatch(context.Background(), []string{"Hello", "Cat"}, "en", "it")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ciao", "Gatto"}, out)
	assert.Equal(t, MaxBatch, p.BatchSize())
}

func TestTranslateBatch_WrongCountIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(`{"translations":["Ciao"]}`))
	}))
	defer srv.Close()

	_, err := newProvider(t, srv.URL).TranslateBatch(context.Background(), []string{"a", "b"}, "en", "it")
	assert.Equal(t, translate.KindMalformedResponse, translate.KindOf(err))
}

func TestTranslateBatch_APIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   translate.ErrorKind
	}{
		{"unauthorized", 401, `{"error":{"message":"Incorrect API key","type":"invalid_request_error","code":"invalid_api_key"}}`, translate.KindAuthentication},
		{"quota", 429, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`, translate.KindQuotaExceeded},
		{"rate limited", 429, `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`, translate.KindRateLimited},
		{"server", 500, `{"error":{"message":"The server had an error","type":"server_error"}}`, translate.KindServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newProvider(t, srv.URL).TranslateBatch(context.Background(), []string{"x"}, "en", "de")

			var pe *translate.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.want, pe.Kind)
			assert.Equal(t, tt.status, pe.StatusCode)
		})
	}
}

func TestParseReply(t *testing.T) {
	out, err := parseReply("```json\n{\"translations\":[\"a\",\"b\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out)

	out, err = parseReply(`["x"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, out)

	_, err = parseReply(`{"result":["x"]}`)
	assert.Error(t, err)

	_, err = parseReply(`not json`)
	assert.Error(t, err)
}
