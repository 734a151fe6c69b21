package llm

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestRankOrdersByModelOutput(t *testing.T) {
	r := NewSimpleLLMReranker(&stubLLM{response: "2, 0, 1"})

	order, err := r.Rank(context.Background(), "oak flooring", []string{"a", "b", "c"})
	assert.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1}, order)
}

func TestRankFallsBackOnError(t *testing.T) {
	r := NewSimpleLLMReranker(&stubLLM{err: fmt.Errorf("rate limited")})

	order, err := r.Rank(context.Background(), "oak", []string{"a", "b", "c"})
	assert.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestRankSanitizesIndices(t *testing.T) {
	// Out-of-range and duplicate indices come back from ranking prompts
	// often enough that they must not corrupt the order.
	r := NewSimpleLLMReranker(&stubLLM{response: "1, 1, 7, 0"})

	order, err := r.Rank(context.Background(), "oak", []string{"a", "b", "c"})
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 0, 2}, order)
}

func TestRankSingleDoc(t *testing.T) {
	r := NewSimpleLLMReranker(&stubLLM{response: "should not be called"})

	order, err := r.Rank(context.Background(), "oak", []string{"only"})
	assert.NoError(t, err)
	assert.Equal(t, []int{0}, order)
}

func TestParseJSONTolerantOfFences(t *testing.T) {
	type out struct {
		Name string `json:"name"`
	}
	got, err := ParseJSON[out]("Here you go:\n```json\n{\"name\": \"VALENOVA\"}\n```")
	assert.NoError(t, err)
	assert.Equal(t, "VALENOVA", got.Name)

	_, err = ParseJSON[out]("no json here")
	assert.Error(t, err)
}
