package indexer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/reposage/reposage/internal/llm"
)

// EmptyFileSummary is persisted for files with no content. Empty files
// never reach the embedding model.
const EmptyFileSummary = "This file is empty."

// maxSummarizeInput bounds how much of a file is shown to the model.
const maxSummarizeInput = 10000

const summarizePromptTemplate = `You are an intelligent senior software engineer who specialises in onboarding junior software engineers onto projects.
You are onboarding a junior software engineer and explaining to them the purpose of the %s file.
Here is the code:
---
%s
---
Give a summary no more than 100 words of the code above.`

// SummarizerOptions tunes the per-file summarize/embed behavior. Tests
// shrink the delays.
type SummarizerOptions struct {
	Attempts    int           // summarize attempts before giving up
	RetryDelay  time.Duration // base delay between attempts, grows linearly
	CallTimeout time.Duration // per model call
}

func DefaultSummarizerOptions() SummarizerOptions {
	return SummarizerOptions{
		Attempts:    3,
		RetryDelay:  2 * time.Second,
		CallTimeout: 30 * time.Second,
	}
}

// Summarizer turns a document into a summary and an embedding of that
// summary.
type Summarizer struct {
	gen   llm.Client
	embed llm.EmbeddingClient
	opts  SummarizerOptions
}

func NewSummarizer(gen llm.Client, embed llm.EmbeddingClient, opts SummarizerOptions) *Summarizer {
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	return &Summarizer{gen: gen, embed: embed, opts: opts}
}

// Summarize generates a short summary of the document. The input is
// truncated to the model budget. On exhaustion of the attempt budget it
// returns a descriptive placeholder alongside the last error, so callers
// can both report the failure and decide whether to retry the document.
func (s *Summarizer) Summarize(ctx context.Context, doc Document) (string, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return EmptyFileSummary, nil
	}

	content := doc.Content
	if len(content) > maxSummarizeInput {
		content = content[:maxSummarizeInput]
	}
	prompt := fmt.Sprintf(summarizePromptTemplate, doc.Path, content)

	var lastErr error
	for attempt := 1; attempt <= s.opts.Attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
		summary, err := s.gen.Complete(callCtx, prompt)
		cancel()
		if err == nil && strings.TrimSpace(summary) != "" {
			return strings.TrimSpace(summary), nil
		}
		if err == nil {
			err = fmt.Errorf("model returned empty summary for %s", doc.Path)
		}
		lastErr = err
		if attempt < s.opts.Attempts {
			select {
			case <-time.After(s.opts.RetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return fmt.Sprintf("Unable to summarize %s.", doc.Path), fmt.Errorf("failed to summarize %s after %d attempts: %w", doc.Path, s.opts.Attempts, lastErr)
}

// Embed generates the embedding for a summary.
func (s *Summarizer) Embed(ctx context.Context, summary string) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	vec, err := s.embed.Embed(callCtx, summary)
	if err != nil {
		return nil, fmt.Errorf("failed to embed summary: %w", err)
	}
	return vec, nil
}

// EmbeddingModel reports which model produced the embeddings.
func (s *Summarizer) EmbeddingModel() string {
	return s.embed.Model()
}
