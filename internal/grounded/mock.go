package grounded

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// Call records one query received by a Mock.
type Call struct {
	Instruction string
	Shape       Shape
}

// Mock is a Client that returns configured results. Respond, when set,
// takes precedence over Result and Err.
type Mock struct {
	Result  *Result
	Err     error
	Respond func(ctx context.Context, instruction string, shape Shape) (*Result, error)

	mu    sync.Mutex
	calls []Call
}

// Query records the call and returns the configured response.
func (m *Mock) Query(ctx context.Context, instruction string, shape Shape) (*Result, error) {
	if shape.Mode == "" {
		shape.Mode = ModeFreeform
	}
	if strings.TrimSpace(instruction) == "" {
		return nil, &GroundedQueryError{Mode: shape.Mode, Err: ErrEmptyInstruction}
	}

	m.mu.Lock()
	m.calls = append(m.calls, Call{Instruction: instruction, Shape: shape})
	respond, result, err := m.Respond, m.Result, m.Err
	m.mu.Unlock()

	if respond != nil {
		result, err = respond(ctx, instruction, shape)
	}
	if err != nil {
		return nil, queryError(shape.Mode, err)
	}
	if result == nil {
		return nil, &GroundedQueryError{Mode: shape.Mode, Err: ErrEmptyResponse}
	}
	if shape.Mode == ModeStructured {
		body := string(result.Data)
		if body == "" {
			body = result.Text
		}
		parsed, perr := parseBody(body, shape, result.Citations)
		if perr != nil {
			return nil, queryError(shape.Mode, perr)
		}
		return parsed, nil
	}

	out := *result
	out.Citations = append([]string(nil), result.Citations...)
	return &out, nil
}

// Calls returns the queries received so far.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallCount returns the number of queries received so far.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// TextResult builds a freeform result.
func TextResult(text string, citations ...string) *Result {
	return &Result{Text: text, Citations: MergeURLs(citations)}
}

// JSONResult builds a structured result from v. It panics if v cannot be
// marshaled, which only happens with programmer error in tests.
func JSONResult(v interface{}, citations ...string) *Result {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return &Result{Text: string(data), Data: data, Citations: MergeURLs(citations)}
}
