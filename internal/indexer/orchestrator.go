package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/reposage/reposage/internal/db"
)

// ChunkStore is the slice of the persistence layer the orchestrator needs.
type ChunkStore interface {
	IndexedFileNames(ctx context.Context, projectID string) (map[string]bool, error)
	InsertChunk(ctx context.Context, chunk *db.SourceChunk) error
}

// Options tunes the orchestrator's retry and pacing behavior. All delays
// are injectable so tests can run without waiting.
type Options struct {
	MaxAttempts      int           // per-document ceiling across requeues
	BaseBackoff      time.Duration // backoff doubles per attempt
	MaxBackoff       time.Duration // backoff cap
	BreakerThreshold int           // consecutive failures before cooling down
	BreakerCooldown  time.Duration
	InterDocDelay    time.Duration // pause between documents
	EmbedDelay       time.Duration // pause between summary and embedding calls
}

func DefaultOptions() Options {
	return Options{
		MaxAttempts:      5,
		BaseBackoff:      time.Second,
		MaxBackoff:       30 * time.Second,
		BreakerThreshold: 3,
		BreakerCooldown:  60 * time.Second,
		InterDocDelay:    2 * time.Second,
		EmbedDelay:       time.Second,
	}
}

// Report summarizes an indexing run.
type Report struct {
	Total     int
	Completed int
	Failed    int
	Skipped   int
	// Failures maps file path to the reason indexing gave up on it.
	Failures map[string]string
}

// Orchestrator drives the batch indexing pipeline: summarize, embed and
// persist every document, retrying transient failures with backoff and a
// circuit breaker for runs of consecutive failures.
type Orchestrator struct {
	summarizer *Summarizer
	store      ChunkStore
	opts       Options

	// Logf, when set, receives verbose progress lines.
	Logf func(format string, args ...any)
}

func NewOrchestrator(summarizer *Summarizer, store ChunkStore, opts Options) *Orchestrator {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	return &Orchestrator{summarizer: summarizer, store: store, opts: opts}
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

type workItem struct {
	doc      Document
	attempts int
}

// Run indexes all documents for the project. Documents already indexed in
// a previous run are skipped, so interrupted runs resume where they left
// off. Failures never abort the run; they are collected in the report.
func (o *Orchestrator) Run(ctx context.Context, projectID string, docs []Document) (*Report, error) {
	report := &Report{Total: len(docs), Failures: make(map[string]string)}

	indexed, err := o.store.IndexedFileNames(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load indexed files: %w", err)
	}

	queue := make([]workItem, 0, len(docs))
	for _, doc := range docs {
		if indexed[doc.Path] {
			report.Skipped++
			continue
		}
		queue = append(queue, workItem{doc: doc})
	}
	o.logf("indexing %d files (%d already indexed)", len(queue), report.Skipped)

	consecutiveFailures := 0
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		item := queue[0]
		queue = queue[1:]
		item.attempts++

		if consecutiveFailures >= o.opts.BreakerThreshold {
			o.logf("%d consecutive failures, cooling down for %s", consecutiveFailures, o.opts.BreakerCooldown)
			if err := sleep(ctx, o.opts.BreakerCooldown); err != nil {
				return report, err
			}
			consecutiveFailures = 0
		}

		err := o.process(ctx, projectID, item.doc)
		if err == nil {
			report.Completed++
			consecutiveFailures = 0
			o.logf("indexed %s", item.doc.Path)
		} else if ctx.Err() != nil {
			return report, ctx.Err()
		} else {
			if item.attempts < o.opts.MaxAttempts {
				backoff := o.backoff(item.attempts)
				o.logf("failed %s (attempt %d/%d), requeueing after %s: %v",
					item.doc.Path, item.attempts, o.opts.MaxAttempts, backoff, err)
				if err := sleep(ctx, backoff); err != nil {
					return report, err
				}
				queue = append(queue, item)
			} else {
				// Only a document that exhausts its attempt budget counts
				// toward the breaker; a single flaky document being
				// requeued must not cool the whole run down.
				consecutiveFailures++
				report.Failed++
				report.Failures[item.doc.Path] = err.Error()
				o.logf("giving up on %s after %d attempts: %v", item.doc.Path, item.attempts, err)
			}
		}

		if len(queue) > 0 {
			if err := sleep(ctx, o.opts.InterDocDelay); err != nil {
				return report, err
			}
		}
	}

	return report, nil
}

// process summarizes, embeds and persists a single document. Empty files
// are persisted without an embedding and never hit the embedding model.
func (o *Orchestrator) process(ctx context.Context, projectID string, doc Document) error {
	summary, err := o.summarizer.Summarize(ctx, doc)
	if err != nil {
		return err
	}

	chunk := &db.SourceChunk{
		ProjectID:  projectID,
		FileName:   doc.Path,
		SourceCode: doc.Content,
		Summary:    summary,
	}

	if summary != EmptyFileSummary {
		if err := sleep(ctx, o.opts.EmbedDelay); err != nil {
			return err
		}
		vec, err := o.summarizer.Embed(ctx, summary)
		if err != nil {
			return err
		}
		chunk.Embedding = vec
		chunk.EmbeddingModel = o.summarizer.EmbeddingModel()
	}

	if err := o.store.InsertChunk(ctx, chunk); err != nil {
		return err
	}
	return nil
}

func (o *Orchestrator) backoff(attempts int) time.Duration {
	d := o.opts.BaseBackoff << (attempts - 1)
	if d > o.opts.MaxBackoff || d <= 0 {
		d = o.opts.MaxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
