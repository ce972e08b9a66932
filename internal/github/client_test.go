package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		owner     string
		repo      string
		expectErr bool
	}{
		{name: "https", url: "https://github.com/owner/repo", owner: "owner", repo: "repo"},
		{name: "https with .git", url: "https://github.com/owner/repo.git", owner: "owner", repo: "repo"},
		{name: "trailing slash", url: "https://github.com/owner/repo/", owner: "owner", repo: "repo"},
		{name: "ssh", url: "git@github.com:owner/repo.git", owner: "owner", repo: "repo"},
		{name: "no scheme", url: "github.com/owner/repo", owner: "owner", repo: "repo"},
		{name: "not github", url: "https://gitlab.com/owner/repo", expectErr: true},
		{name: "missing repo", url: "https://github.com/owner", expectErr: true},
		{name: "empty", url: "", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseRepoURL(tt.url)
			if tt.expectErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRepoURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, repo)
		})
	}
}
