package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reposage/reposage/internal/db"
)

type fakeGen struct {
	lastPrompt string
	response   string
	err        error
}

func (f *fakeGen) Complete(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeEmbed struct {
	vec []float32
	err error
}

func (f *fakeEmbed) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fakeEmbed) Model() string   { return "fake-embedding-001" }
func (f *fakeEmbed) Dimensions() int { return 3 }

type fakeSearch struct {
	gotModel string
	gotMin   float64
	gotLimit int
	results  []db.ScoredChunk
}

func (f *fakeSearch) SearchChunks(ctx context.Context, projectID string, query []float32, model string, minSimilarity float64, limit int) ([]db.ScoredChunk, error) {
	f.gotModel = model
	f.gotMin = minSimilarity
	f.gotLimit = limit
	return f.results, nil
}

func testProject() *db.Project {
	return &db.Project{ID: "p1", Name: "demo"}
}

func TestAskBuildsPromptFromRetrievedChunks(t *testing.T) {
	gen := &fakeGen{response: "the answer"}
	search := &fakeSearch{results: []db.ScoredChunk{
		{FileName: "auth.go", SourceCode: "func Login() {}", Summary: "handles login", Similarity: 0.9},
		{FileName: "db.go", SourceCode: "func Open() {}", Summary: "opens db", Similarity: 0.7},
	}}
	p := NewPipeline(gen, &fakeEmbed{vec: []float32{1, 0, 0}}, search, Options{CallTimeout: time.Second})

	answer, err := p.Ask(context.Background(), testProject(), "how does login work?")
	require.NoError(t, err)

	assert.Equal(t, "the answer", answer.Text)
	assert.Contains(t, gen.lastPrompt, "source: auth.go")
	assert.Contains(t, gen.lastPrompt, "handles login")
	assert.Contains(t, gen.lastPrompt, "how does login work?")
	assert.Contains(t, gen.lastPrompt, "START CONTEXT BLOCK")

	require.Len(t, answer.References, 2)
	assert.Equal(t, "auth.go", answer.References[0].FileName)
	assert.InDelta(t, 0.9, answer.References[0].Similarity, 1e-9)

	assert.Equal(t, "fake-embedding-001", search.gotModel)
	assert.Equal(t, 0.5, search.gotMin)
	assert.Equal(t, 10, search.gotLimit)
}

func TestAskWithNoContextStillAnswers(t *testing.T) {
	gen := &fakeGen{response: "I'm sorry, but I don't know the answer to that question"}
	p := NewPipeline(gen, &fakeEmbed{vec: []float32{1}}, &fakeSearch{}, Options{CallTimeout: time.Second})

	answer, err := p.Ask(context.Background(), testProject(), "anything?")
	require.NoError(t, err)
	assert.Empty(t, answer.References)
	assert.Contains(t, gen.lastPrompt, "START CONTEXT BLOCK\n\nEND OF CONTEXT BLOCK")
}

func TestAskEmbedFailure(t *testing.T) {
	p := NewPipeline(&fakeGen{}, &fakeEmbed{err: errors.New("embed down")}, &fakeSearch{}, DefaultOptions())

	_, err := p.Ask(context.Background(), testProject(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed down")
}

func TestBuildContextFormat(t *testing.T) {
	chunks := []db.ScoredChunk{
		{FileName: "a.go", SourceCode: "code-a", Summary: "sum-a", Similarity: 0.9},
		{FileName: "b.go", SourceCode: "code-b", Summary: "sum-b", Similarity: 0.6},
	}
	got := BuildContext(chunks, 1<<20)
	want := "source: a.go\ncode content: code-a\n summary of file: sum-a\n\n" +
		"source: b.go\ncode content: code-b\n summary of file: sum-b\n\n"
	assert.Equal(t, want, got)
}

func TestBuildContextHonorsBudget(t *testing.T) {
	var chunks []db.ScoredChunk
	for i := 0; i < 10; i++ {
		chunks = append(chunks, db.ScoredChunk{
			FileName:   fmt.Sprintf("f%d.go", i),
			SourceCode: strings.Repeat("x", 100),
			Summary:    "s",
		})
	}
	full := BuildContext(chunks, 1<<20)
	bounded := BuildContext(chunks, len(full)/2)

	assert.Less(t, len(bounded), len(full))
	assert.Contains(t, bounded, "f0.go", "highest ranked chunk always included")
	assert.NotContains(t, bounded, "f9.go")
}

type blockingEmbed struct{}

func (blockingEmbed) Embed(ctx context.Context, text string) ([]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingEmbed) Model() string   { return "fake-embedding-001" }
func (blockingEmbed) Dimensions() int { return 3 }

func TestAskQuestionEmbedTimesOut(t *testing.T) {
	p := NewPipeline(&fakeGen{}, blockingEmbed{}, &fakeSearch{}, Options{CallTimeout: 10 * time.Millisecond})

	start := time.Now()
	_, err := p.Ask(context.Background(), testProject(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second, "a hung embedding call must not stall Ask")
}

func TestBuildContextTruncatesOversizedTopChunk(t *testing.T) {
	chunks := []db.ScoredChunk{
		{FileName: "big.go", SourceCode: strings.Repeat("x", 500), Summary: "s", Similarity: 0.9},
	}
	got := BuildContext(chunks, 100)
	assert.Len(t, got, 100)
	assert.True(t, strings.HasPrefix(got, "source: big.go"))
}
