package database

import (
	"database/sql"
	"fmt"
)

// Schema DDL. The UNIQUE constraint on attendance(class_id, student_id) is
// the backstop for at-most-one record per pair when two marks race past the
// engine's read check.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL CHECK (role IN ('teacher', 'student'))
);

CREATE TABLE IF NOT EXISTS classes (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	teacher_id TEXT NOT NULL REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS enrollments (
	class_id   TEXT NOT NULL REFERENCES classes(id),
	student_id TEXT NOT NULL REFERENCES users(id),
	PRIMARY KEY (class_id, student_id)
);

CREATE TABLE IF NOT EXISTS attendance (
	id         TEXT PRIMARY KEY,
	class_id   TEXT NOT NULL REFERENCES classes(id),
	student_id TEXT NOT NULL REFERENCES users(id),
	status     TEXT NOT NULL CHECK (status IN ('present', 'absent')),
	marked_at  DATETIME NOT NULL,
	UNIQUE (class_id, student_id)
);

CREATE INDEX IF NOT EXISTS idx_users_role            ON users(role);
CREATE INDEX IF NOT EXISTS idx_classes_teacher       ON classes(teacher_id);
CREATE INDEX IF NOT EXISTS idx_attendance_class      ON attendance(class_id);
`

// SQLite pragmas applied to every connection. WAL enables concurrent reads
// while the store funnels writes through a single goroutine.
const sqlitePragmas = `
	PRAGMA journal_mode = WAL;
	PRAGMA synchronous = NORMAL;
	PRAGMA cache_size = -64000;
	PRAGMA temp_store = MEMORY;
	PRAGMA foreign_keys = ON;
	PRAGMA busy_timeout = 5000;
`

// ApplyPragmas applies the SQLite tuning pragmas.
func ApplyPragmas(db *sql.DB) error {
	if _, err := db.Exec(sqlitePragmas); err != nil {
		return fmt.Errorf("failed to apply sqlite pragmas: %w", err)
	}
	return nil
}

// Bootstrap creates the schema if it does not exist.
func Bootstrap(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to bootstrap schema: %w", err)
	}
	return nil
}
