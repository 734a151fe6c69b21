package search

import (
	"context"

	"github.com/materialkai/vision-gateway/internal/functions"
)

type mockInvoker struct {
	Function string
	Payload  map[string]interface{}
	Calls    int

	Response *functions.Response
	Err      error

	// BeforeReturn runs after the call is recorded, before returning.
	// Used to interleave a competing query mid-flight.
	BeforeReturn func()
}

func (m *mockInvoker) Invoke(ctx context.Context, function string, payload interface{}) (*functions.Response, error) {
	m.Calls++
	m.Function = function
	if p, ok := payload.(map[string]interface{}); ok {
		m.Payload = p
	}
	if m.BeforeReturn != nil {
		hook := m.BeforeReturn
		m.BeforeReturn = nil
		hook()
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Response != nil {
		return m.Response, nil
	}
	return &functions.Response{
		Success: true,
		Data:    map[string]interface{}{"results": []interface{}{}},
	}, nil
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

func resultsEnvelope(key string, items ...map[string]interface{}) *functions.Response {
	list := make([]interface{}, 0, len(items))
	for _, it := range items {
		list = append(list, it)
	}
	return &functions.Response{
		Success: true,
		Data:    map[string]interface{}{key: list},
	}
}
