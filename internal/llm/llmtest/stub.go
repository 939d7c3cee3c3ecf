// Package llmtest provides a scripted llm.Service for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"deskvox/internal/llm"
)

var ErrDown = errors.New("llmtest: service down")

// Stub answers each call with the next scripted reply. Once the script is
// exhausted it repeats the last entry. A nil Reply entry with Err set
// produces an error for that call.
type Stub struct {
	mu      sync.Mutex
	Replies []Reply
	Calls   []llm.Request
}

type Reply struct {
	Text string
	Err  error
}

func Replying(texts ...string) *Stub {
	s := &Stub{}
	for _, t := range texts {
		s.Replies = append(s.Replies, Reply{Text: t})
	}
	return s
}

func Failing() *Stub {
	return &Stub{Replies: []Reply{{Err: ErrDown}}}
}

func (s *Stub) Complete(_ context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.Calls)
	s.Calls = append(s.Calls, req)
	if len(s.Replies) == 0 {
		return "", ErrDown
	}
	if idx >= len(s.Replies) {
		idx = len(s.Replies) - 1
	}
	r := s.Replies[idx]
	return r.Text, r.Err
}

func (s *Stub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}
