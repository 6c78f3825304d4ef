package store

// Schema is the catalog DDL. Idempotent: safe to apply on every start.
// Timestamps are unix epoch milliseconds throughout.
const Schema = `
CREATE TABLE IF NOT EXISTS scripts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	key TEXT NOT NULL UNIQUE,
	language TEXT NOT NULL CHECK (language IN ('PowerShell', 'Bash')),
	title TEXT NOT NULL,
	summary TEXT NOT NULL,
	code TEXT NOT NULL,
	readme TEXT NOT NULL,
	author TEXT NOT NULL,
	version TEXT NOT NULL,
	compatible_os TEXT NOT NULL,
	required_modules TEXT,
	dependencies TEXT,
	license TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scripts_language ON scripts(language);
CREATE INDEX IF NOT EXISTS idx_scripts_created ON scripts(created_at DESC);

CREATE TABLE IF NOT EXISTS script_tags (
	script_id INTEGER NOT NULL REFERENCES scripts(id) ON DELETE CASCADE,
	tag TEXT NOT NULL,
	PRIMARY KEY (script_id, tag)
);

CREATE TABLE IF NOT EXISTS script_highlights (
	script_id INTEGER NOT NULL REFERENCES scripts(id) ON DELETE CASCADE,
	highlight TEXT NOT NULL,
	PRIMARY KEY (script_id, highlight)
);

CREATE TABLE IF NOT EXISTS script_versions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	script_id INTEGER NOT NULL REFERENCES scripts(id) ON DELETE CASCADE,
	version TEXT NOT NULL,
	changes TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_versions_script ON script_versions(script_id, created_at DESC);

CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'admin',
	created_at INTEGER NOT NULL
);
`
