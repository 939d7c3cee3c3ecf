// Package llm is the boundary to the remote language-model service. The
// pipeline only ever sends one system prompt plus one user prompt and reads
// back one text reply.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

var (
	ErrNoCredential = errors.New("llm: no API credential configured")
	ErrEmptyReply   = errors.New("llm: empty reply")
)

type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Service is satisfied by every backend. A nil Service means the model is
// not configured and callers take their fallback path.
type Service interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type Options struct {
	Provider   string
	Model      string
	APIKeyEnv  string
	HTTPClient *http.Client
}

// New builds the backend named by opts.Provider. It returns ErrNoCredential
// when the API key variable is unset so the caller can run degraded.
func New(ctx context.Context, opts Options) (Service, error) {
	key := strings.TrimSpace(os.Getenv(opts.APIKeyEnv))
	if key == "" || key == "your-openai-api-key-here" {
		return nil, fmt.Errorf("%w (%s)", ErrNoCredential, opts.APIKeyEnv)
	}

	switch opts.Provider {
	case "", "openai":
		return NewOpenAI(key, opts.Model, opts.HTTPClient), nil
	case "gemini":
		g, err := NewGemini(ctx, key, opts.Model, opts.HTTPClient)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", opts.Provider)
	}
}
