package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Project is a tracked repository.
type Project struct {
	ID         string
	Name       string
	RepoURL    string
	CreatedAt  time.Time
	ArchivedAt *time.Time
}

// Archived reports whether the project has been archived.
func (p *Project) Archived() bool {
	return p.ArchivedAt != nil
}

// SourceChunk is one indexed file: its content, generated summary and the
// summary's embedding.
type SourceChunk struct {
	ID             string
	ProjectID      string
	FileName       string
	SourceCode     string
	Summary        string
	Embedding      []float32
	EmbeddingModel string
	IndexedAt      time.Time
}

// Commit is a persisted repository commit with its generated diff summary.
// An empty Summary means summarization failed for that commit.
type Commit struct {
	ID           string
	ProjectID    string
	Hash         string
	Message      string
	AuthorName   string
	AuthorAvatar string
	AuthoredAt   time.Time
	Summary      string
}

// ScoredChunk is a retrieval result: a chunk plus its cosine similarity to
// the query embedding.
type ScoredChunk struct {
	FileName   string
	SourceCode string
	Summary    string
	Similarity float64
}

// Store wraps the database handle with typed queries for projects, chunks
// and commits.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateProject inserts a new project. Project names are unique.
func (s *Store) CreateProject(ctx context.Context, name, repoURL string) (*Project, error) {
	p := &Project{
		ID:        uuid.New().String(),
		Name:      name,
		RepoURL:   repoURL,
		CreatedAt: time.Now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, repo_url, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.RepoURL, p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create project %s: %w", name, err)
	}
	return p, nil
}

// GetProjectByName returns the project with the given name, or
// sql.ErrNoRows wrapped if none exists.
func (s *Store) GetProjectByName(ctx context.Context, name string) (*Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, repo_url, created_at, archived_at FROM projects WHERE name = ?`, name)
	return scanProject(row)
}

// GetOrCreateProject returns the existing project with the given name, or
// creates one pointed at repoURL.
func (s *Store) GetOrCreateProject(ctx context.Context, name, repoURL string) (*Project, error) {
	p, err := s.GetProjectByName(ctx, name)
	if err == nil {
		return p, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}
	return s.CreateProject(ctx, name, repoURL)
}

// ListProjects returns all projects, newest first.
func (s *Store) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, repo_url, created_at, archived_at FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ArchiveProject timestamps the project as archived. Its chunks remain
// queryable.
func (s *Store) ArchiveProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET archived_at = ? WHERE id = ? AND archived_at IS NULL`,
		time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to archive project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s not found or already archived", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var p Project
	var archived sql.NullTime
	if err := row.Scan(&p.ID, &p.Name, &p.RepoURL, &p.CreatedAt, &archived); err != nil {
		return nil, err
	}
	if archived.Valid {
		p.ArchivedAt = &archived.Time
	}
	return &p, nil
}

// InsertChunk persists an indexed file in a single statement, embedding
// included. Re-inserting the same (project, file) pair is a no-op.
func (s *Store) InsertChunk(ctx context.Context, c *SourceChunk) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.IndexedAt.IsZero() {
		c.IndexedAt = time.Now()
	}

	var embedding any
	var dims any
	if len(c.Embedding) > 0 {
		embedding = FormatVector(c.Embedding)
		dims = len(c.Embedding)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO source_chunks
			(id, project_id, file_name, source_code, summary, embedding, embedding_model, embedding_dims, indexed_at)
		VALUES (?, ?, ?, ?, ?, CAST(? AS FLOAT[]), ?, ?, ?)
		ON CONFLICT (project_id, file_name) DO NOTHING`,
		c.ID, c.ProjectID, c.FileName, c.SourceCode, c.Summary,
		embedding, c.EmbeddingModel, dims, c.IndexedAt)
	if err != nil {
		return fmt.Errorf("failed to insert chunk %s: %w", c.FileName, err)
	}
	return nil
}

// IndexedFileNames returns the set of file names already indexed for a
// project, so re-runs can skip them.
func (s *Store) IndexedFileNames(ctx context.Context, projectID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_name FROM source_chunks WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexed files: %w", err)
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = true
	}
	return names, rows.Err()
}

// ChunkCount returns how many files are indexed for a project.
func (s *Store) ChunkCount(ctx context.Context, projectID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM source_chunks WHERE project_id = ?`, projectID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// SearchChunks runs the similarity query: chunks whose summary embedding
// has cosine similarity above minSimilarity to the query vector, most
// similar first. Chunks without an embedding, or embedded by a different
// model or at a different dimension, are excluded.
func (s *Store) SearchChunks(ctx context.Context, projectID string, query []float32, model string, minSimilarity float64, limit int) ([]ScoredChunk, error) {
	vec := FormatVector(query)
	rows, err := s.db.QueryContext(ctx, `
		SELECT file_name, source_code, summary,
		       list_cosine_similarity(embedding, CAST(? AS FLOAT[])) AS similarity
		FROM source_chunks
		WHERE project_id = ?
		  AND embedding IS NOT NULL
		  AND embedding_model = ?
		  AND embedding_dims = ?
		  AND list_cosine_similarity(embedding, CAST(? AS FLOAT[])) > ?
		ORDER BY similarity DESC
		LIMIT ?`,
		vec, projectID, model, len(query), vec, minSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var results []ScoredChunk
	for rows.Next() {
		var c ScoredChunk
		if err := rows.Scan(&c.FileName, &c.SourceCode, &c.Summary, &c.Similarity); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// CommitHashes returns the set of commit hashes already persisted for a
// project.
func (s *Store) CommitHashes(ctx context.Context, projectID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hash FROM commits WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query commit hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]bool)
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes[h] = true
	}
	return hashes, rows.Err()
}

// InsertCommits persists a batch of commits in one transaction. Commits
// already present for the project are skipped.
func (s *Store) InsertCommits(ctx context.Context, commits []*Commit) error {
	if len(commits) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range commits {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO commits
				(id, project_id, hash, message, author_name, author_avatar, authored_at, summary)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (project_id, hash) DO NOTHING`,
			c.ID, c.ProjectID, c.Hash, c.Message, c.AuthorName, c.AuthorAvatar, c.AuthoredAt, c.Summary)
		if err != nil {
			return fmt.Errorf("failed to insert commit %s: %w", c.Hash, err)
		}
	}
	return tx.Commit()
}

// RecentCommits returns the most recent persisted commits for a project,
// newest first.
func (s *Store) RecentCommits(ctx context.Context, projectID string, limit int) ([]*Commit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, hash, message, author_name, author_avatar, authored_at, summary
		FROM commits WHERE project_id = ?
		ORDER BY authored_at DESC LIMIT ?`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query commits: %w", err)
	}
	defer rows.Close()

	var commits []*Commit
	for rows.Next() {
		var c Commit
		var authorName, authorAvatar, summary sql.NullString
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Hash, &c.Message, &authorName, &authorAvatar, &c.AuthoredAt, &summary); err != nil {
			return nil, err
		}
		c.AuthorName = authorName.String
		c.AuthorAvatar = authorAvatar.String
		c.Summary = summary.String
		commits = append(commits, &c)
	}
	return commits, rows.Err()
}
