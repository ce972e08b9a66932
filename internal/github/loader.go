package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/reposage/reposage/internal/indexer"
)

// LoadRepository enumerates the repository's default branch and returns
// every indexable file as a document. Binary files, oversized files and
// files matching the ignore rules are skipped.
func (c *Client) LoadRepository(ctx context.Context, repoURL string) ([]indexer.Document, error) {
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

	repo, _, err := client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repository %s/%s: %w", owner, name, classifyError(err))
	}
	branch := repo.GetDefaultBranch()

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	tree, _, err := client.Git.GetTree(ctx, owner, name, branch, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tree for %s/%s: %w", owner, name, classifyError(err))
	}

	var docs []indexer.Document
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		path := entry.GetPath()
		if indexer.IgnoreFile(path, int64(entry.GetSize())) {
			continue
		}

		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		blob, _, err := client.Git.GetBlob(ctx, owner, name, entry.GetSHA())
		if err != nil {
			return nil, fmt.Errorf("failed to fetch blob %s: %w", path, classifyError(err))
		}

		content := blob.GetContent()
		if blob.GetEncoding() == "base64" {
			// The API wraps base64 payloads with newlines.
			decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
			if err != nil {
				return nil, fmt.Errorf("failed to decode blob %s: %w", path, err)
			}
			content = string(decoded)
		}
		if !utf8.ValidString(content) {
			continue
		}
		docs = append(docs, indexer.Document{Path: path, Content: content})
	}
	return docs, nil
}
