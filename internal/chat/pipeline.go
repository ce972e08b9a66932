package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/reposage/reposage/internal/db"
	"github.com/reposage/reposage/internal/llm"
)

const (
	// minSimilarity is the cosine-similarity floor for a chunk to count as
	// relevant context.
	minSimilarity = 0.5
	// maxResults caps how many chunks feed the answer.
	maxResults = 10
	// maxContextChars bounds the assembled context block.
	maxContextChars = 40000
)

// SearchStore is the retrieval surface the pipeline needs.
type SearchStore interface {
	SearchChunks(ctx context.Context, projectID string, query []float32, model string, minSimilarity float64, limit int) ([]db.ScoredChunk, error)
}

// Reference is one file that contributed context to an answer.
type Reference struct {
	FileName   string
	Summary    string
	Similarity float64
}

// Answer is the generated response plus the files it drew from, ordered
// most relevant first.
type Answer struct {
	Text       string
	References []Reference
}

// Options tunes the pipeline.
type Options struct {
	CallTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{CallTimeout: 60 * time.Second}
}

// Pipeline answers questions about an indexed project: embed the question,
// pull the most similar chunks, and generate an answer grounded in them.
type Pipeline struct {
	gen   llm.Client
	embed llm.EmbeddingClient
	store SearchStore
	opts  Options
}

func NewPipeline(gen llm.Client, embed llm.EmbeddingClient, store SearchStore, opts Options) *Pipeline {
	return &Pipeline{gen: gen, embed: embed, store: store, opts: opts}
}

// Ask runs the retrieval query for the project. With no chunk above the
// similarity floor the model is still asked, with an empty context block,
// and will say it does not know.
func (p *Pipeline) Ask(ctx context.Context, project *db.Project, question string) (*Answer, error) {
	embedCtx, cancelEmbed := context.WithTimeout(ctx, p.opts.CallTimeout)
	qvec, err := p.embed.Embed(embedCtx, question)
	cancelEmbed()
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	chunks, err := p.store.SearchChunks(ctx, project.ID, qvec, p.embed.Model(), minSimilarity, maxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	contextBlock := BuildContext(chunks, maxContextChars)
	prompt := fmt.Sprintf(answerPromptTemplate, contextBlock, question)

	callCtx, cancel := context.WithTimeout(ctx, p.opts.CallTimeout)
	defer cancel()
	text, err := p.gen.Complete(callCtx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	answer := &Answer{Text: text}
	for _, c := range chunks {
		answer.References = append(answer.References, Reference{
			FileName:   c.FileName,
			Summary:    c.Summary,
			Similarity: c.Similarity,
		})
	}
	return answer, nil
}

// BuildContext assembles the ranked chunks into the context block fed to
// the model, stopping before the character budget is exceeded.
func BuildContext(chunks []db.ScoredChunk, budget int) string {
	var b strings.Builder
	for _, c := range chunks {
		entry := fmt.Sprintf("source: %s\ncode content: %s\n summary of file: %s\n\n",
			c.FileName, c.SourceCode, c.Summary)
		if b.Len()+len(entry) > budget {
			if b.Len() == 0 {
				// The top-ranked chunk alone can exceed the budget;
				// truncate it rather than blowing past the bound.
				b.WriteString(entry[:budget])
			}
			break
		}
		b.WriteString(entry)
	}
	return b.String()
}
