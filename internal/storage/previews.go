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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	applog "gocomiclayout/internal/log"
)

const defaultPreviewsMaxBytes = 64 * 1024 * 1024

// accessLayout is fixed-width so last_access sorts chronologically as text.
const accessLayout = "2006-01-02T15:04:05.000000000Z"

// PreviewKey identifies a cached page rendering. Digest fingerprints the rendered
// content; a different digest for the same page and format replaces the old blob.
type PreviewKey struct {
	ProjectID  string
	PageNumber int
	Format     string
	Digest     string
}

func (k PreviewKey) validate() error {
	if strings.TrimSpace(k.ProjectID) == "" || k.Format == "" || k.Digest == "" {
		return fmt.Errorf("invalid preview key %+v", k)
	}
	return nil
}

func ensurePreviewsSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS previews (
			id           INTEGER PRIMARY KEY,
			project_id   TEXT    NOT NULL,
			page_number  INTEGER NOT NULL,
			format       TEXT    NOT NULL,
			digest       TEXT    NOT NULL,
			blob         BLOB    NOT NULL,
			size         INTEGER NOT NULL DEFAULT 0,
			updated_at   TEXT    NOT NULL,
			last_access  TEXT
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_previews_page ON previews(project_id, page_number, format);`,
		// Also helpful index for LRU eviction by access time
		`CREATE INDEX IF NOT EXISTS idx_previews_access ON previews(last_access);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure previews: %w", err)
		}
	}
	return nil
}

// Preview returns the cached blob for k and updates its last access. A miss, including
// a stale digest, returns nil without error.
func (j *Journal) Preview(ctx context.Context, k PreviewKey) ([]byte, error) {
	if err := k.validate(); err != nil {
		return nil, err
	}
	var blob []byte
	err := j.db.QueryRowContext(ctx,
		`SELECT blob FROM previews WHERE project_id=? AND page_number=? AND format=? AND digest=?`,
		k.ProjectID, k.PageNumber, k.Format, k.Digest).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preview: %w", err)
	}
	// touch
	now := time.Now().UTC().Format(accessLayout)
	_, _ = j.db.ExecContext(ctx, `UPDATE previews SET last_access=? WHERE project_id=? AND page_number=? AND format=?`,
		now, k.ProjectID, k.PageNumber, k.Format)
	return blob, nil
}

// PutPreview upserts a preview blob and enforces the cache size cap via LRU eviction.
func (j *Journal) PutPreview(ctx context.Context, k PreviewKey, blob []byte) error {
	if err := k.validate(); err != nil {
		return err
	}
	now := time.Now().UTC().Format(accessLayout)
	_, err := j.db.ExecContext(ctx, `INSERT INTO previews(project_id,page_number,format,digest,blob,size,updated_at,last_access)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(project_id,page_number,format) DO UPDATE SET digest=excluded.digest, blob=excluded.blob,
			size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		k.ProjectID, k.PageNumber, k.Format, k.Digest, blob, len(blob), now, now)
	if err != nil {
		return fmt.Errorf("upsert preview: %w", err)
	}
	if capBytes := MaxPreviewsBytesFromEnv(); capBytes > 0 {
		return j.EvictPreviewsToFit(ctx, capBytes)
	}
	return nil
}

// GetOrCreatePreview fetches a preview or generates and stores it using gen.
func (j *Journal) GetOrCreatePreview(ctx context.Context, k PreviewKey, gen func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := j.Preview(ctx, k); err != nil {
		return nil, err
	} else if b != nil {
		return b, nil
	}
	data, err := gen(ctx)
	if err != nil {
		return nil, err
	}
	if err := j.PutPreview(ctx, k, data); err != nil {
		// The rendering is still usable without the cache.
		applog.WithComponent("storage").WarnContext(ctx, "caching preview failed", slog.Any("err", err))
	}
	return data, nil
}

// EvictPreviewsToFit deletes least-recently-used rows until total size <= capBytes.
func (j *Journal) EvictPreviewsToFit(ctx context.Context, capBytes int64) error {
	total, err := j.TotalPreviewBytes(ctx)
	if err != nil {
		return err
	}
	if total <= capBytes {
		return nil
	}
	rows, err := j.db.QueryContext(ctx, `SELECT id, size FROM previews ORDER BY
		CASE WHEN last_access IS NULL THEN 0 ELSE 1 END ASC, last_access ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	var victims []any
	cur := total
	for rows.Next() && cur > capBytes {
		var id, sz int64
		if err := rows.Scan(&id, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		victims = append(victims, id)
		cur -= sz
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// close the cursor before writing; the pool has a single connection
	if err := rows.Close(); err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}
	q := `DELETE FROM previews WHERE id IN (?` + strings.Repeat(",?", len(victims)-1) + `)`
	if _, err := j.db.ExecContext(ctx, q, victims...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	return nil
}

// TotalPreviewBytes returns total bytes tracked by previews.size.
func (j *Journal) TotalPreviewBytes(ctx context.Context) (int64, error) {
	var total int64
	if err := j.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum previews size: %w", err)
	}
	return total, nil
}

// MaxPreviewsBytesFromEnv reads GCL_PREVIEWS_MAX_BYTES, defaulting to 64MB if unset.
func MaxPreviewsBytesFromEnv() int64 {
	v := os.Getenv("GCL_PREVIEWS_MAX_BYTES")
	if v == "" {
		return defaultPreviewsMaxBytes
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return defaultPreviewsMaxBytes
	}
	return n
}
