package github

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
)

// CommitInfo carries the commit metadata the poller persists.
type CommitInfo struct {
	Hash         string
	Message      string
	AuthorName   string
	AuthorAvatar string
	AuthoredAt   time.Time
}

// RecentCommits fetches the latest commits on the repository's default
// branch, newest first, at most limit of them.
func (c *Client) RecentCommits(ctx context.Context, repoURL string, limit int) ([]CommitInfo, error) {
	owner, name, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	client, err := c.ensureClient(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	commits, _, err := client.Repositories.ListCommits(ctx, owner, name, &gh.CommitsListOptions{
		ListOptions: gh.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list commits for %s/%s: %w", owner, name, classifyError(err))
	}

	infos := make([]CommitInfo, 0, len(commits))
	for _, rc := range commits {
		info := CommitInfo{
			Hash:    rc.GetSHA(),
			Message: rc.GetCommit().GetMessage(),
		}
		if author := rc.GetCommit().GetAuthor(); author != nil {
			info.AuthorName = author.GetName()
			info.AuthoredAt = author.GetDate().Time
		}
		if user := rc.GetAuthor(); user != nil {
			info.AuthorAvatar = user.GetAvatarURL()
		}
		infos = append(infos, info)
	}

	// The API returns commits in reverse chronological order already, but
	// the ordering is re-established here so downstream windowing never
	// depends on it.
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].AuthoredAt.After(infos[j].AuthoredAt)
	})
	if len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

// CommitDiff fetches the full diff of a single commit, assembled from the
// per-file patches the API returns.
func (c *Client) CommitDiff(ctx context.Context, repoURL, sha string) (string, error) {
	owner, name, err := ParseRepoURL(repoURL)
	if err != nil {
		return "", err
	}
	client, err := c.ensureClient(ctx)
	if err != nil {
		return "", err
	}
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	commit, _, err := client.Repositories.GetCommit(ctx, owner, name, sha, nil)
	if err != nil {
		return "", fmt.Errorf("failed to fetch commit %s: %w", sha, classifyError(err))
	}

	var b strings.Builder
	for _, f := range commit.Files {
		if f.GetPatch() == "" {
			continue
		}
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", f.GetFilename(), f.GetFilename())
		b.WriteString(f.GetPatch())
		b.WriteString("\n\n")
	}
	return b.String(), nil
}
