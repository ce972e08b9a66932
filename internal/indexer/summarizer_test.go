package indexer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGen struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
}

func (f *fakeGen) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.respond != nil {
		return f.respond(prompt)
	}
	return "a summary", nil
}

func (f *fakeGen) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeEmbed struct {
	mu    sync.Mutex
	texts []string
	vec   []float32
	err   error
}

func (f *fakeEmbed) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.vec != nil {
		return f.vec, nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbed) Model() string   { return "fake-embedding-001" }
func (f *fakeEmbed) Dimensions() int { return 3 }

func testSummarizerOptions() SummarizerOptions {
	return SummarizerOptions{
		Attempts:    3,
		RetryDelay:  time.Millisecond,
		CallTimeout: time.Second,
	}
}

func TestSummarizeEmptyFile(t *testing.T) {
	gen := &fakeGen{}
	s := NewSummarizer(gen, &fakeEmbed{}, testSummarizerOptions())

	summary, err := s.Summarize(context.Background(), Document{Path: "empty.go", Content: "   \n\t"})
	require.NoError(t, err)
	assert.Equal(t, EmptyFileSummary, summary)
	assert.Zero(t, gen.calls(), "empty files must not reach the model")
}

func TestSummarizeTruncatesInput(t *testing.T) {
	gen := &fakeGen{}
	s := NewSummarizer(gen, &fakeEmbed{}, testSummarizerOptions())

	long := strings.Repeat("x", maxSummarizeInput+5000)
	_, err := s.Summarize(context.Background(), Document{Path: "big.go", Content: long})
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], strings.Repeat("x", maxSummarizeInput))
	assert.NotContains(t, gen.prompts[0], strings.Repeat("x", maxSummarizeInput+1))
}

func TestSummarizeRetriesThenSucceeds(t *testing.T) {
	calls := 0
	gen := &fakeGen{respond: func(string) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "  finally worked  ", nil
	}}
	s := NewSummarizer(gen, &fakeEmbed{}, testSummarizerOptions())

	summary, err := s.Summarize(context.Background(), Document{Path: "a.go", Content: "package a"})
	require.NoError(t, err)
	assert.Equal(t, "finally worked", summary)
	assert.Equal(t, 3, calls)
}

func TestSummarizeExhaustsAttempts(t *testing.T) {
	gen := &fakeGen{respond: func(string) (string, error) {
		return "", errors.New("model down")
	}}
	s := NewSummarizer(gen, &fakeEmbed{}, testSummarizerOptions())

	summary, err := s.Summarize(context.Background(), Document{Path: "a.go", Content: "package a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model down")
	assert.Contains(t, summary, "a.go")
	assert.Equal(t, 3, gen.calls())
}

func TestSummarizeEmptyResponseCountsAsFailure(t *testing.T) {
	gen := &fakeGen{respond: func(string) (string, error) {
		return "   ", nil
	}}
	s := NewSummarizer(gen, &fakeEmbed{}, testSummarizerOptions())

	_, err := s.Summarize(context.Background(), Document{Path: "a.go", Content: "package a"})
	require.Error(t, err)
	assert.Equal(t, 3, gen.calls())
}

func TestEmbedWrapsError(t *testing.T) {
	embed := &fakeEmbed{err: errors.New("quota exceeded")}
	s := NewSummarizer(&fakeGen{}, embed, testSummarizerOptions())

	_, err := s.Embed(context.Background(), "a summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
