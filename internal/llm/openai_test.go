package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
}

func chatReply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
	})
}

func TestRewrite_RendersTemplate(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		chatReply(w, "  Texto refinado.  ")
	})

	out, err := c.Rewrite(context.Background(), "- a\n\n- b", "Reescreva: [TEXTO_BRUTO_AQUI]")
	require.NoError(t, err)
	assert.Equal(t, "Texto refinado.", out)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "Reescreva: \"- a\n\n- b\"", got.Messages[0].Content)
}

func TestSummarize_UsesSummaryModel(t *testing.T) {
	var model string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		model = req.Model
		chatReply(w, "Laudo")
	}))
	defer srv.Close()
	c := NewOpenAIClient(Config{APIKey: "k", BaseURL: srv.URL + "/v1", SummaryModel: "gpt-4o"})

	out, err := c.Summarize(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Laudo", out)
	assert.Equal(t, "gpt-4o", model)
}

func TestTranscribe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "pt", r.FormValue("language"))
		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "audio.ogg", hdr.Filename)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" Trocou o cabo de rede "}`))
	})

	out, err := c.Transcribe(context.Background(), []byte("OggS"), "audio/ogg; codecs=opus")
	require.NoError(t, err)
	assert.Equal(t, "Trocou o cabo de rede", out)
}

func TestMissingCredential(t *testing.T) {
	c := NewOpenAIClient(Config{})
	ctx := context.Background()

	_, err := c.Rewrite(ctx, "x", "y")
	assert.ErrorIs(t, err, ErrMissingCredential)
	_, err = c.Transcribe(ctx, []byte("x"), "audio/webm")
	assert.ErrorIs(t, err, ErrMissingCredential)
	_, err = c.Summarize(ctx, "x")
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.ErrorIs(t, c.Ping(ctx), ErrMissingCredential)
}

func TestAPIErrorIsReturned(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	})

	_, err := c.Rewrite(context.Background(), "x", "y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestEmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := c.Summarize(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
