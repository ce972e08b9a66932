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

	"github.com/reposage/reposage/internal/db"
)

type fakeStore struct {
	mu      sync.Mutex
	indexed map[string]bool
	chunks  []*db.SourceChunk
}

func newFakeStore(indexed ...string) *fakeStore {
	m := make(map[string]bool)
	for _, name := range indexed {
		m[name] = true
	}
	return &fakeStore{indexed: m}
}

func (f *fakeStore) IndexedFileNames(ctx context.Context, projectID string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]bool, len(f.indexed))
	for k, v := range f.indexed {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) InsertChunk(ctx context.Context, chunk *db.SourceChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = append(f.chunks, chunk)
	f.indexed[chunk.FileName] = true
	return nil
}

func (f *fakeStore) chunk(name string) *db.SourceChunk {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.chunks {
		if c.FileName == name {
			return c
		}
	}
	return nil
}

func testOptions() Options {
	return Options{
		MaxAttempts:      5,
		BaseBackoff:      0,
		MaxBackoff:       0,
		BreakerThreshold: 3,
		BreakerCooldown:  0,
		InterDocDelay:    0,
		EmbedDelay:       0,
	}
}

func TestRunIndexesAllDocuments(t *testing.T) {
	store := newFakeStore()
	s := NewSummarizer(&fakeGen{}, &fakeEmbed{}, testSummarizerOptions())
	orch := NewOrchestrator(s, store, testOptions())

	docs := []Document{
		{Path: "main.go", Content: "package main"},
		{Path: "empty.go", Content: ""},
		{Path: "util.go", Content: "package util"},
	}
	report, err := orch.Run(context.Background(), "p1", docs)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Completed)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.Skipped)

	main := store.chunk("main.go")
	require.NotNil(t, main)
	assert.Equal(t, "a summary", main.Summary)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, main.Embedding)
	assert.Equal(t, "fake-embedding-001", main.EmbeddingModel)
}

func TestRunEmptyFilePersistedWithoutEmbedding(t *testing.T) {
	store := newFakeStore()
	embed := &fakeEmbed{}
	s := NewSummarizer(&fakeGen{}, embed, testSummarizerOptions())
	orch := NewOrchestrator(s, store, testOptions())

	_, err := orch.Run(context.Background(), "p1", []Document{{Path: "empty.go", Content: ""}})
	require.NoError(t, err)

	chunk := store.chunk("empty.go")
	require.NotNil(t, chunk)
	assert.Equal(t, EmptyFileSummary, chunk.Summary)
	assert.Nil(t, chunk.Embedding)
	assert.Empty(t, chunk.EmbeddingModel)
	assert.Empty(t, embed.texts, "empty files must not be embedded")
}

func TestRunSkipsAlreadyIndexed(t *testing.T) {
	store := newFakeStore("main.go")
	gen := &fakeGen{}
	s := NewSummarizer(gen, &fakeEmbed{}, testSummarizerOptions())
	orch := NewOrchestrator(s, store, testOptions())

	docs := []Document{
		{Path: "main.go", Content: "package main"},
		{Path: "util.go", Content: "package util"},
	}
	report, err := orch.Run(context.Background(), "p1", docs)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Completed)
	assert.Equal(t, 1, gen.calls())
}

func TestRunRetriesUpToCeiling(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{respond: func(prompt string) (string, error) {
		return "", errors.New("permanently broken")
	}}
	s := NewSummarizer(gen, &fakeEmbed{}, SummarizerOptions{Attempts: 1, CallTimeout: testSummarizerOptions().CallTimeout})
	orch := NewOrchestrator(s, store, testOptions())

	report, err := orch.Run(context.Background(), "p1", []Document{{Path: "bad.go", Content: "package bad"}})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Zero(t, report.Completed)
	assert.Contains(t, report.Failures["bad.go"], "permanently broken")
	assert.Nil(t, store.chunk("bad.go"), "failed documents must not be persisted")
	// 5 orchestrator attempts, each a single summarize call.
	assert.Equal(t, 5, gen.calls())
}

func TestRunFailureDoesNotBlockOthers(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "bad.go") {
			return "", errors.New("nope")
		}
		return "fine", nil
	}}
	s := NewSummarizer(gen, &fakeEmbed{}, SummarizerOptions{Attempts: 1, RetryDelay: 0, CallTimeout: testSummarizerOptions().CallTimeout})
	orch := NewOrchestrator(s, store, testOptions())

	docs := []Document{
		{Path: "bad.go", Content: "package bad"},
		{Path: "good.go", Content: "package good"},
	}
	report, err := orch.Run(context.Background(), "p1", docs)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Completed)
	assert.Equal(t, 1, report.Failed)
	require.NotNil(t, store.chunk("good.go"))
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newFakeStore()
	s := NewSummarizer(&fakeGen{}, &fakeEmbed{}, testSummarizerOptions())
	orch := NewOrchestrator(s, store, testOptions())

	_, err := orch.Run(ctx, "p1", []Document{{Path: "a.go", Content: "package a"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunBreakerNotTrippedBySingleFailingDocument(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "bad.go") {
			return "", errors.New("always fails")
		}
		return "fine", nil
	}}
	s := NewSummarizer(gen, &fakeEmbed{}, SummarizerOptions{Attempts: 1, CallTimeout: testSummarizerOptions().CallTimeout})
	opts := testOptions()
	opts.BreakerCooldown = 10 * time.Second
	orch := NewOrchestrator(s, store, opts)

	docs := []Document{
		{Path: "bad.go", Content: "package bad"},
		{Path: "a.go", Content: "package a"},
		{Path: "b.go", Content: "package b"},
		{Path: "c.go", Content: "package c"},
		{Path: "d.go", Content: "package d"},
	}
	start := time.Now()
	report, err := orch.Run(context.Background(), "p1", docs)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Completed)
	assert.Equal(t, 1, report.Failed)
	// The failing document's requeued attempts run back to back once the
	// healthy documents drain; that is still one failure, not a run of
	// them, so the cool-down must never kick in.
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRunBreakerTripsOnConsecutivePermanentFailures(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "good.go") {
			return "fine", nil
		}
		return "", errors.New("always fails")
	}}
	s := NewSummarizer(gen, &fakeEmbed{}, SummarizerOptions{Attempts: 1, CallTimeout: testSummarizerOptions().CallTimeout})
	opts := testOptions()
	opts.MaxAttempts = 1
	opts.BreakerCooldown = 100 * time.Millisecond
	orch := NewOrchestrator(s, store, opts)

	docs := []Document{
		{Path: "x.go", Content: "package x"},
		{Path: "y.go", Content: "package y"},
		{Path: "z.go", Content: "package z"},
		{Path: "good.go", Content: "package good"},
	}
	start := time.Now()
	report, err := orch.Run(context.Background(), "p1", docs)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Failed)
	assert.Equal(t, 1, report.Completed)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond,
		"three documents failing for good in a row must trigger the cool-down")
}

func TestRunBreakerResetOnSuccess(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "good.go") {
			return "fine", nil
		}
		return "", errors.New("always fails")
	}}
	s := NewSummarizer(gen, &fakeEmbed{}, SummarizerOptions{Attempts: 1, CallTimeout: testSummarizerOptions().CallTimeout})
	opts := testOptions()
	opts.MaxAttempts = 1
	opts.BreakerCooldown = 10 * time.Second
	orch := NewOrchestrator(s, store, opts)

	// Two failures, a success, two failures: the streak never reaches the
	// threshold of three.
	docs := []Document{
		{Path: "x.go", Content: "package x"},
		{Path: "y.go", Content: "package y"},
		{Path: "good.go", Content: "package good"},
		{Path: "z.go", Content: "package z"},
		{Path: "w.go", Content: "package w"},
	}
	start := time.Now()
	report, err := orch.Run(context.Background(), "p1", docs)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Failed)
	assert.Equal(t, 1, report.Completed)
	assert.Less(t, time.Since(start), 2*time.Second)
}
