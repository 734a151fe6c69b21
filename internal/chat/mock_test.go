package chat

import (
	"context"

	"github.com/materialkai/vision-gateway/internal/functions"
)

type invokeCall struct {
	Function string
	Payload  map[string]interface{}
}

// mockInvoker routes behavior per function name so a test can fail the
// primary agent while the fallback succeeds, and so on.
type mockInvoker struct {
	Calls     []invokeCall
	Errors    map[string]error
	Responses map[string]*functions.Response
	// BeforeReturn runs once before the next call returns, then clears
	// itself. Used to corrupt state mid-dispatch.
	BeforeReturn func()
}

func (m *mockInvoker) Invoke(ctx context.Context, function string, payload interface{}) (*functions.Response, error) {
	call := invokeCall{Function: function}
	if p, ok := payload.(map[string]interface{}); ok {
		call.Payload = p
	}
	m.Calls = append(m.Calls, call)

	if m.BeforeReturn != nil {
		hook := m.BeforeReturn
		m.BeforeReturn = nil
		hook()
	}

	if err, ok := m.Errors[function]; ok {
		return nil, err
	}
	if resp, ok := m.Responses[function]; ok {
		return resp, nil
	}
	return &functions.Response{
		Success: true,
		Data:    map[string]interface{}{"response": "assistant reply"},
	}, nil
}

func (m *mockInvoker) countCalls(function string) int {
	n := 0
	for _, c := range m.Calls {
		if c.Function == function {
			n++
		}
	}
	return n
}

func (m *mockInvoker) lastCall(function string) *invokeCall {
	for i := len(m.Calls) - 1; i >= 0; i-- {
		if m.Calls[i].Function == function {
			return &m.Calls[i]
		}
	}
	return nil
}

type mockEmbedder struct {
	Vector []float32
	Err    error
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}
