// Package tools provides the invocable capabilities participants may
// reach for during a turn: web search and email delivery.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Spec describes one invocable tool: its name, the JSON schema of its
// arguments, and the synchronous, side-effecting invocation itself.
type Spec struct {
	Name        string
	Description string
	Schema      json.RawMessage
	Invoke      func(ctx context.Context, args json.RawMessage) (string, error)
}

// Error reports a failed tool invocation. Participants fold it into
// their visible output instead of propagating it, so a failing tool
// degrades to a reported failure message.
type Error struct {
	Tool string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Set is an immutable named collection of tool specs.
type Set struct {
	specs map[string]Spec
	order []string
}

func NewSet(specs ...Spec) *Set {
	s := &Set{specs: make(map[string]Spec, len(specs))}
	for _, spec := range specs {
		if _, ok := s.specs[spec.Name]; ok {
			continue
		}
		s.specs[spec.Name] = spec
		s.order = append(s.order, spec.Name)
	}
	return s
}

func (s *Set) Get(name string) (Spec, bool) {
	if s == nil {
		return Spec{}, false
	}
	spec, ok := s.specs[name]
	return spec, ok
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// All returns the specs in registration order.
func (s *Set) All() []Spec {
	if s == nil {
		return nil
	}
	out := make([]Spec, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.specs[name])
	}
	return out
}
