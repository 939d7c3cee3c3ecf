package action

import (
	"context"
	"errors"
	log "log/slog"
	"strings"
)

// Strategy is one way of getting something done. Run returns whatever
// diagnostic output the attempt produced, successful or not.
type Strategy struct {
	Name string
	Run  func(ctx context.Context) (string, error)
}

type Attempt struct {
	Name   string
	Output string
	Err    error
}

func (a Attempt) String() string {
	s := a.Name + ": " + a.Err.Error()
	if out := strings.TrimSpace(a.Output); out != "" && !strings.Contains(a.Err.Error(), out) {
		s += " (" + out + ")"
	}
	return s
}

// ChainError is returned when every strategy of a chain failed.
type ChainError struct {
	Attempts []Attempt
}

func (e *ChainError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.String()
	}
	return strings.Join(parts, "; ")
}

// runChain tries strategies in order and stops at the first success,
// returning the winning attempt.
func runChain(ctx context.Context, strategies []Strategy) (Attempt, error) {
	var failed []Attempt
	for _, s := range strategies {
		out, err := s.Run(ctx)
		if err == nil {
			log.Debug("Strategy succeeded", "strategy", s.Name)
			return Attempt{Name: s.Name, Output: out}, nil
		}
		log.Debug("Strategy failed", "strategy", s.Name, "err", err)
		failed = append(failed, Attempt{Name: s.Name, Output: out, Err: err})
		if ctx.Err() != nil {
			break
		}
	}
	if len(failed) == 0 {
		return Attempt{}, errors.New("no strategies")
	}
	return Attempt{}, &ChainError{Attempts: failed}
}
