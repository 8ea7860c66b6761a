/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "gocomiclayout/internal/log"
	"gocomiclayout/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	JournalFileName = "journal.sqlite"

	// schemaVersion tracks the journal schema. Bump it and add a migration step for
	// breaking changes.
	schemaVersion = 1
)

// Edit kinds recorded by the editor.
const (
	KindLayout = "layout"
	KindPanel  = "panel"
	KindDelete = "delete"
)

// Outcomes of a journaled edit.
const (
	OutcomePending = "pending"
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
)

// Entry is an edit about to be sent to the server.
type Entry struct {
	ProjectID string
	PanelID   int64
	Kind      string
	Payload   any
}

// Record is a stored journal row.
type Record struct {
	ID        int64
	At        time.Time
	ProjectID string
	PanelID   int64
	Kind      string
	Payload   string
	Outcome   string
	Error     string
}

// Journal is an append-only log of optimistic edits and their persistence outcome.
// Local state never rolls back when a save fails, so this is where such failures
// remain visible.
type Journal struct {
	db   *sql.DB
	path string
}

// JournalPath returns the database path inside dir.
func JournalPath(dir string) string { return filepath.Join(dir, JournalFileName) }

// DefaultDir returns the per-user state directory for the journal.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve state dir: %w", err)
	}
	return filepath.Join(base, "gocomiclayout"), nil
}

// OpenJournal creates or opens the journal database in dir, enables WAL mode and
// ensures the schema exists.
func OpenJournal(dir string) (*Journal, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "journal_open").With(
		slog.String("dir", dir),
	)
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("journal dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Error("create journal dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	path := JournalPath(dir)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("journal ready", slog.String("path", path))
	return &Journal{db: db, path: path}, nil
}

// Path returns the database file path.
func (j *Journal) Path() string { return j.path }

// Close closes the underlying database.
func (j *Journal) Close() error { return j.db.Close() }

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS edits (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			ts          TEXT NOT NULL,
			project_id  TEXT NOT NULL,
			panel_id    INTEGER NOT NULL,
			kind        TEXT NOT NULL,
			payload     TEXT NOT NULL,
			outcome     TEXT NOT NULL,
			error       TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_edits_project ON edits(project_id, id);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	if err := ensurePreviewsSchema(ctx, db); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// Record appends a pending entry and returns its id.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	if e.Kind == "" {
		return 0, errors.New("journal entry kind is required")
	}
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO edits (ts, project_id, panel_id, kind, payload, outcome) VALUES(?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), e.ProjectID, e.PanelID, e.Kind, string(payload), OutcomePending)
	if err != nil {
		return 0, fmt.Errorf("insert edit: %w", err)
	}
	return res.LastInsertId()
}

// Resolve stores the persistence outcome of entry id; a nil cause marks success.
func (j *Journal) Resolve(ctx context.Context, id int64, cause error) error {
	outcome, msg := OutcomeOK, ""
	if cause != nil {
		outcome, msg = OutcomeFailed, cause.Error()
	}
	res, err := j.db.ExecContext(ctx, `UPDATE edits SET outcome=?, error=? WHERE id=?`, outcome, msg, id)
	if err != nil {
		return fmt.Errorf("update edit %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update edit %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// Recent returns the newest entries of a project, newest first.
func (j *Journal) Recent(ctx context.Context, projectID string, limit int) ([]Record, error) {
	return j.query(ctx, `WHERE project_id=?`, projectID, limit)
}

// Failures returns the newest failed entries of a project, newest first.
func (j *Journal) Failures(ctx context.Context, projectID string, limit int) ([]Record, error) {
	return j.query(ctx, `WHERE project_id=? AND outcome='failed'`, projectID, limit)
}

func (j *Journal) query(ctx context.Context, where, projectID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, ts, project_id, panel_id, kind, payload, outcome, error FROM edits `+where+` ORDER BY id DESC LIMIT ?`,
		projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("query edits: %w", err)
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		var ts string
		if err := rows.Scan(&r.ID, &ts, &r.ProjectID, &r.PanelID, &r.Kind, &r.Payload, &r.Outcome, &r.Error); err != nil {
			return nil, fmt.Errorf("scan edit: %w", err)
		}
		r.At, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, r)
	}
	return out, rows.Err()
}
