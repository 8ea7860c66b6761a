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
	"strings"
	"testing"

	"gocomiclayout/internal/domain"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenJournal(t.TempDir())
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndResolve(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()

	okID, err := j.Record(ctx, Entry{ProjectID: "p1", PanelID: 7, Kind: KindLayout, Payload: domain.Layout{X: 10, Y: 20, W: 30, H: 40}})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	badID, err := j.Record(ctx, Entry{ProjectID: "p1", PanelID: 8, Kind: KindDelete})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := j.Record(ctx, Entry{ProjectID: "other", PanelID: 1, Kind: KindPanel}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if err := j.Resolve(ctx, okID, nil); err != nil {
		t.Fatalf("Resolve ok: %v", err)
	}
	if err := j.Resolve(ctx, badID, errors.New("http 500")); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	recent, err := j.Recent(ctx, "p1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != badID || recent[1].ID != okID {
		t.Fatalf("recent = %+v", recent)
	}
	if recent[1].Outcome != OutcomeOK || !strings.Contains(recent[1].Payload, `"w":30`) {
		t.Fatalf("layout entry = %+v", recent[1])
	}
	if recent[0].At.IsZero() {
		t.Fatalf("timestamp not parsed")
	}

	fails, err := j.Failures(ctx, "p1", 0)
	if err != nil {
		t.Fatalf("Failures: %v", err)
	}
	if len(fails) != 1 || fails[0].PanelID != 8 || fails[0].Error != "http 500" {
		t.Fatalf("failures = %+v", fails)
	}
}

func TestResolveUnknownID(t *testing.T) {
	j := openTemp(t)
	if err := j.Resolve(context.Background(), 999, nil); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestRecordRequiresKind(t *testing.T) {
	j := openTemp(t)
	if _, err := j.Record(context.Background(), Entry{ProjectID: "p1"}); err == nil {
		t.Fatalf("expected error for missing kind")
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	dir := t.TempDir()
	j, err := OpenJournal(dir)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	if _, err := j.Record(context.Background(), Entry{ProjectID: "p1", PanelID: 1, Kind: KindPanel, Payload: map[string]string{"prompt": "x"}}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	_ = j.Close()

	j2, err := OpenJournal(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j2.Close()
	recs, err := j2.Recent(context.Background(), "p1", 5)
	if err != nil || len(recs) != 1 || recs[0].Outcome != OutcomePending {
		t.Fatalf("after reopen: %+v, %v", recs, err)
	}
	if j2.Path() != JournalPath(dir) {
		t.Fatalf("path = %s", j2.Path())
	}
}

func TestOpenJournalRequiresDir(t *testing.T) {
	if _, err := OpenJournal("  "); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}
