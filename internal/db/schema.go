package db

// Migrations defines ALTER TABLE statements for adding columns to existing
// databases. Each migration is run individually; errors are silently
// ignored (column already exists).
var Migrations = []string{
	`ALTER TABLE projects ADD COLUMN archived_at TIMESTAMP`,
	`ALTER TABLE source_chunks ADD COLUMN embedding_model VARCHAR`,
	`ALTER TABLE source_chunks ADD COLUMN embedding_dims INTEGER`,
}

// Schema defines the DuckDB table schema
const Schema = `
-- Projects table
CREATE TABLE IF NOT EXISTS projects (
    id VARCHAR PRIMARY KEY,
    name VARCHAR UNIQUE NOT NULL,
    repo_url VARCHAR NOT NULL,
    created_at TIMESTAMP,
    archived_at TIMESTAMP
);

-- Source chunks table: one row per indexed file, with the summary
-- embedding stored as a float list for similarity search.
CREATE TABLE IF NOT EXISTS source_chunks (
    id VARCHAR PRIMARY KEY,
    project_id VARCHAR NOT NULL REFERENCES projects(id),
    file_name VARCHAR NOT NULL,
    source_code VARCHAR NOT NULL,
    summary VARCHAR NOT NULL,
    embedding FLOAT[],
    embedding_model VARCHAR,
    embedding_dims INTEGER,
    indexed_at TIMESTAMP,
    UNIQUE(project_id, file_name)
);

-- Commits table
CREATE TABLE IF NOT EXISTS commits (
    id VARCHAR PRIMARY KEY,
    project_id VARCHAR NOT NULL REFERENCES projects(id),
    hash VARCHAR NOT NULL,
    message VARCHAR NOT NULL,
    author_name VARCHAR,
    author_avatar VARCHAR,
    authored_at TIMESTAMP,
    summary VARCHAR,
    UNIQUE(project_id, hash)
);

-- Create indexes for better query performance
CREATE INDEX IF NOT EXISTS idx_chunks_project ON source_chunks(project_id);
CREATE INDEX IF NOT EXISTS idx_commits_project ON commits(project_id);
CREATE INDEX IF NOT EXISTS idx_commits_date ON commits(authored_at);
`
