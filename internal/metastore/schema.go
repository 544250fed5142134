package metastore

// schema is applied on every open via CREATE TABLE IF NOT EXISTS /
// INSERT OR IGNORE, so opening an existing database is idempotent and a
// fresh one is fully initialized in one shot.
const schema = `
CREATE TABLE IF NOT EXISTS versions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path TEXT NOT NULL,
    blob_digest TEXT NOT NULL,
    timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    parent_digest TEXT,
    annotation TEXT,
    byte_size INTEGER NOT NULL,
    UNIQUE(file_path, blob_digest)
);

CREATE INDEX IF NOT EXISTS idx_versions_file_path ON versions(file_path);
CREATE INDEX IF NOT EXISTS idx_versions_timestamp ON versions(timestamp);
CREATE INDEX IF NOT EXISTS idx_versions_blob_digest ON versions(blob_digest);

CREATE TABLE IF NOT EXISTS tags (
    name TEXT PRIMARY KEY,
    blob_digest TEXT NOT NULL,
    timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    description TEXT
);

CREATE TABLE IF NOT EXISTS branches (
    name TEXT PRIMARY KEY,
    head_digest TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    parent_branch TEXT
);

INSERT OR IGNORE INTO branches (name, head_digest, parent_branch) VALUES ('main', '', NULL);

CREATE TABLE IF NOT EXISTS search_index (
    blob_digest TEXT NOT NULL,
    file_path TEXT NOT NULL,
    content_text TEXT NOT NULL,
    PRIMARY KEY (blob_digest, file_path)
);

CREATE INDEX IF NOT EXISTS idx_search_index_content ON search_index(content_text);

CREATE TABLE IF NOT EXISTS storage_metadata (
    digest TEXT PRIMARY KEY,
    size INTEGER NOT NULL,
    compression_ratio REAL,
    access_count INTEGER NOT NULL DEFAULT 0,
    last_accessed DATETIME,
    is_orphaned INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_storage_metadata_orphaned ON storage_metadata(is_orphaned);

CREATE TABLE IF NOT EXISTS current_branch (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    name TEXT NOT NULL
);

INSERT OR IGNORE INTO current_branch (id, name) VALUES (1, 'main');

CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
