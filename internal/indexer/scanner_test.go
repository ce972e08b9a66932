package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreFile(t *testing.T) {
	tests := []struct {
		path    string
		size    int64
		ignored bool
	}{
		{"main.go", 100, false},
		{"src/app.ts", 100, false},
		{"package-lock.json", 100, true},
		{"yarn.lock", 100, true},
		{"go.sum", 100, true},
		{"logo.png", 100, true},
		{"app.min.js", 100, true},
		{".gitignore", 10, true},
		{".env.example", 10, false},
		{"node_modules/pkg/index.js", 100, true},
		{"dist/bundle.js", 100, true},
		{"huge.go", MaxFileSize + 1, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ignored, IgnoreFile(tt.path, tt.size), tt.path)
	}
}

func TestIgnoreDir(t *testing.T) {
	assert.True(t, IgnoreDir("node_modules"))
	assert.True(t, IgnoreDir(".git"))
	assert.False(t, IgnoreDir("internal"))
}

func TestScanDir(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	write("main.go", "package main")
	write("internal/util.go", "package internal")
	write("node_modules/dep/index.js", "module.exports = {}")
	write("package-lock.json", "{}")
	write("image.png", "\x89PNG")

	docs, err := ScanDir(root)
	require.NoError(t, err)

	paths := make([]string, len(docs))
	for i, d := range docs {
		paths[i] = d.Path
	}
	assert.ElementsMatch(t, []string{"main.go", "internal/util.go"}, paths)

	for _, d := range docs {
		if d.Path == "main.go" {
			assert.Equal(t, "package main", d.Content)
		}
	}
}

func TestScanDirSkipsBinaryContent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.dat"), []byte{0xff, 0xfe, 0x00, 0x80}, 0644))

	docs, err := ScanDir(root)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
