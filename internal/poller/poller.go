package poller

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reposage/reposage/internal/db"
	"github.com/reposage/reposage/internal/github"
	"github.com/reposage/reposage/internal/llm"
)

const diffPromptTemplate = `You are an expert programmer, and you are trying to summarize a git diff.
Reminders about the git diff format:
For every file, there are a few metadata lines, like (for example):
` + "```" + `
diff --git a/lib/index.js b/lib/index.js
index aadf691..bfef603 100644
--- a/lib/index.js
+++ b/lib/index.js
` + "```" + `
This means that ` + "`lib/index.js`" + ` was modified in this commit. Note that this is only an example.
Then there is a specifier of the lines that were modified.
A line starting with ` + "`+`" + ` means it was added.
A line starting with ` + "`-`" + ` means that line was deleted.
A line that starts with neither ` + "`+`" + ` nor ` + "`-`" + ` is code given for context and better understanding.
It is not part of the diff.
EXAMPLE SUMMARY COMMENTS:
` + "```" + `
* Raised the amount of returned recordings from 10 to 100
* Fixed a typo in the github action name
* Moved the octokit initialization to a separate file
* Added an OpenAI API for completions
* Lowered numeric tolerance for test files
` + "```" + `
Most commits will have less comments than this examples list.
The last comment does not include the file names,
because there were more than two relevant files in the hypothetical commit.
Do not include parts of the example in your summary.
It is given only as an example of appropriate comments.

Please summarise the following diff file:

%s`

// CommitLister is the hosting-side surface the poller needs.
type CommitLister interface {
	RecentCommits(ctx context.Context, repoURL string, limit int) ([]github.CommitInfo, error)
	CommitDiff(ctx context.Context, repoURL, sha string) (string, error)
}

// CommitStore is the persistence surface the poller needs.
type CommitStore interface {
	CommitHashes(ctx context.Context, projectID string) (map[string]bool, error)
	InsertCommits(ctx context.Context, commits []*db.Commit) error
}

// Options tunes the poller.
type Options struct {
	Window      int           // how many recent commits to consider
	Concurrency int           // parallel diff summarizations
	CallTimeout time.Duration // per model call
}

func DefaultOptions() Options {
	return Options{
		Window:      15,
		Concurrency: 4,
		CallTimeout: 30 * time.Second,
	}
}

// Poller fetches recent commits, drops the ones already persisted, and
// summarizes each new commit's diff.
type Poller struct {
	lister CommitLister
	gen    llm.Client
	store  CommitStore
	opts   Options

	// Logf, when set, receives verbose progress lines.
	Logf func(format string, args ...any)
}

func New(lister CommitLister, gen llm.Client, store CommitStore, opts Options) *Poller {
	if opts.Window <= 0 {
		opts.Window = 15
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Poller{lister: lister, gen: gen, store: store, opts: opts}
}

func (p *Poller) logf(format string, args ...any) {
	if p.Logf != nil {
		p.Logf(format, args...)
	}
}

// Poll runs one poll cycle for the project and returns the commits it
// persisted, newest first. Commits whose diff summarization failed are
// still persisted, with an empty summary; a failure on one commit never
// blocks the others.
func (p *Poller) Poll(ctx context.Context, project *db.Project) ([]*db.Commit, error) {
	infos, err := p.lister.RecentCommits(ctx, project.RepoURL, p.opts.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch commits: %w", err)
	}

	known, err := p.store.CommitHashes(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load known commits: %w", err)
	}

	var fresh []github.CommitInfo
	for _, info := range infos {
		if !known[info.Hash] {
			fresh = append(fresh, info)
		}
	}
	p.logf("fetched %d commits, %d new", len(infos), len(fresh))
	if len(fresh) == 0 {
		return nil, nil
	}

	summaries := make([]string, len(fresh))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, info := range fresh {
		g.Go(func() error {
			summary, err := p.summarizeCommit(gctx, project.RepoURL, info.Hash)
			if err != nil {
				// Persist the commit anyway; the summary stays empty.
				p.logf("failed to summarize commit %s: %v", info.Hash, err)
				return nil
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	commits := make([]*db.Commit, len(fresh))
	for i, info := range fresh {
		commits[i] = &db.Commit{
			ProjectID:    project.ID,
			Hash:         info.Hash,
			Message:      info.Message,
			AuthorName:   info.AuthorName,
			AuthorAvatar: info.AuthorAvatar,
			AuthoredAt:   info.AuthoredAt,
			Summary:      summaries[i],
		}
	}
	if err := p.store.InsertCommits(ctx, commits); err != nil {
		return nil, fmt.Errorf("failed to persist commits: %w", err)
	}
	return commits, nil
}

func (p *Poller) summarizeCommit(ctx context.Context, repoURL, sha string) (string, error) {
	fetchCtx, cancelFetch := context.WithTimeout(ctx, p.opts.CallTimeout)
	diff, err := p.lister.CommitDiff(fetchCtx, repoURL, sha)
	cancelFetch()
	if err != nil {
		return "", err
	}
	if diff == "" {
		return "", fmt.Errorf("commit %s has no textual diff", sha)
	}
	callCtx, cancel := context.WithTimeout(ctx, p.opts.CallTimeout)
	defer cancel()
	summary, err := p.gen.Complete(callCtx, fmt.Sprintf(diffPromptTemplate, diff))
	if err != nil {
		return "", err
	}
	return summary, nil
}
