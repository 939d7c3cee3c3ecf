package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redirect sends every request to the test server regardless of host.
type redirect struct{ target *url.URL }

func (r redirect) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.target.Scheme
	req.URL.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func fakeOpenAI(t *testing.T, status int, content string, seen *map[string]any) *http.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			require.NoError(t, json.Unmarshal(body, seen))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return &http.Client{Transport: redirect{u}}
}

func TestNew_NoCredential(t *testing.T) {
	t.Setenv("DESKVOX_TEST_KEY", "")
	_, err := New(context.Background(), Options{Provider: "openai", APIKeyEnv: "DESKVOX_TEST_KEY"})
	assert.ErrorIs(t, err, ErrNoCredential)

	t.Setenv("DESKVOX_TEST_KEY", "your-openai-api-key-here")
	_, err = New(context.Background(), Options{APIKeyEnv: "DESKVOX_TEST_KEY"})
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestNew_Providers(t *testing.T) {
	t.Setenv("DESKVOX_TEST_KEY", "sk-test")

	svc, err := New(context.Background(), Options{Provider: "openai", APIKeyEnv: "DESKVOX_TEST_KEY"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, svc)

	svc, err = New(context.Background(), Options{Provider: "gemini", APIKeyEnv: "DESKVOX_TEST_KEY"})
	require.NoError(t, err)
	assert.Equal(t, DefaultGeminiModel, svc.(*Gemini).model)

	_, err = New(context.Background(), Options{Provider: "claude", APIKeyEnv: "DESKVOX_TEST_KEY"})
	assert.ErrorContains(t, err, "unknown provider")
}

func TestOpenAI_Complete(t *testing.T) {
	var seen map[string]any
	o := NewOpenAI("sk-test", "", fakeOpenAI(t, http.StatusOK, "Chrome을 열었어요", &seen))

	got, err := o.Complete(context.Background(), Request{System: "sys", User: "hello", Temperature: 0.3, MaxTokens: 50})
	require.NoError(t, err)
	assert.Equal(t, "Chrome을 열었어요", got)

	assert.Equal(t, DefaultOpenAIModel, seen["model"])
	assert.InDelta(t, 0.3, seen["temperature"], 1e-9)
	assert.EqualValues(t, 50, seen["max_completion_tokens"])
	msgs, ok := seen["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "hello", msgs[1].(map[string]any)["content"])
}

func TestOpenAI_EmptyReply(t *testing.T) {
	o := NewOpenAI("sk-test", "gpt-4o", fakeOpenAI(t, http.StatusOK, "", nil))
	_, err := o.Complete(context.Background(), Request{System: "s", User: "u"})
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestOpenAI_ServiceError(t *testing.T) {
	o := NewOpenAI("sk-test", "gpt-4o", fakeOpenAI(t, http.StatusBadRequest, "", nil))
	_, err := o.Complete(context.Background(), Request{System: "s", User: "u"})
	assert.ErrorContains(t, err, "chat completion")
}
