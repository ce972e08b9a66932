package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Document is one source file queued for indexing: its repo-relative path
// and full content.
type Document struct {
	Path    string
	Content string
}

// MaxFileSize caps how large a file may be before it is skipped outright.
const MaxFileSize = 500 * 1024

// ignoredDirs are directory names skipped during enumeration.
var ignoredDirs = map[string]bool{
	".git":          true,
	"node_modules":  true,
	"vendor":        true,
	"dist":          true,
	"build":         true,
	"out":           true,
	"target":        true,
	".next":         true,
	".idea":         true,
	".vscode":       true,
	"__pycache__":   true,
	".pytest_cache": true,
	"coverage":      true,
}

// ignoredFiles are exact file names that carry no indexable signal, seeded
// from dependency manifests and lockfiles.
var ignoredFiles = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
	"bun.lockb":         true,
	"go.sum":            true,
	"Cargo.lock":        true,
	"poetry.lock":       true,
	"composer.lock":     true,
	"Gemfile.lock":      true,
	".DS_Store":         true,
}

// ignoredExtensions are binary or generated formats that are never worth
// summarizing.
var ignoredExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".svg": true, ".webp": true, ".pdf": true, ".zip": true, ".tar": true,
	".gz": true, ".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".bin": true, ".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".mp3": true, ".mp4": true, ".mov": true, ".min.js": true, ".min.css": true,
	".lock": true, ".sum": true,
}

// IgnoreDir reports whether a directory name should be skipped entirely.
func IgnoreDir(name string) bool {
	return ignoredDirs[name]
}

// IgnoreFile reports whether a file path should be excluded from indexing
// based on its name, extension or size.
func IgnoreFile(path string, size int64) bool {
	base := filepath.Base(path)
	if ignoredFiles[base] {
		return true
	}
	if strings.HasPrefix(base, ".") && base != ".env.example" {
		return true
	}
	for ext := range ignoredExtensions {
		if strings.HasSuffix(base, ext) {
			return true
		}
	}
	if size > MaxFileSize {
		return true
	}
	// Any path component inside an ignored directory.
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if ignoredDirs[part] {
			return true
		}
	}
	return false
}

// ScanDir walks a local directory tree and returns the documents eligible
// for indexing, paths relative to root.
func ScanDir(root string) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && IgnoreDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if IgnoreFile(rel, info.Size()) {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", rel, err)
		}
		if !utf8.Valid(content) {
			return nil
		}
		docs = append(docs, Document{Path: rel, Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return docs, nil
}
