package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pulsewire/pulsewire/app/normalize"
)

func newTestRepository(t *testing.T) *SQLRecordRepository {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewConnection() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	return NewRecordRepository(db)
}

func storedTestRecord(source, externalID, title string) *normalize.Record {
	return &normalize.Record{
		Source:      source,
		ExternalID:  externalID,
		Title:       title,
		Content:     "body",
		URL:         "https://example.com/" + externalID,
		Author:      "author",
		Language:    "en",
		Direction:   normalize.DirectionLTR,
		PublishedAt: time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
		CollectedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestUpsertRecordReportsInsertedRows(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	inserted, err := repo.UpsertRecord(ctx, storedTestRecord("hn", "1", "First"))
	if err != nil {
		t.Fatalf("UpsertRecord() error = %v", err)
	}
	if !inserted {
		t.Error("Expected first upsert to insert a row")
	}

	// Same identity again: the conflict clause swallows the write and
	// rows-affected reports no insert.
	inserted, err = repo.UpsertRecord(ctx, storedTestRecord("hn", "1", "First again"))
	if err != nil {
		t.Fatalf("Second UpsertRecord() error = %v", err)
	}
	if inserted {
		t.Error("Expected second upsert of the same identity to be ignored")
	}

	stored, err := repo.GetRecord(ctx, "hn", "1")
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}
	if stored == nil {
		t.Fatal("Expected a stored record")
	}
	if stored.Title != "First" {
		t.Errorf("Expected the first write to win, got title %q", stored.Title)
	}
}

func TestUpsertRecordSameExternalIDAcrossSources(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if inserted, err := repo.UpsertRecord(ctx, storedTestRecord("hn", "1", "HN")); err != nil || !inserted {
		t.Fatalf("UpsertRecord(hn) = %v, %v", inserted, err)
	}
	inserted, err := repo.UpsertRecord(ctx, storedTestRecord("reddit", "1", "Reddit"))
	if err != nil {
		t.Fatalf("UpsertRecord(reddit) error = %v", err)
	}
	if !inserted {
		t.Error("Expected the same external id under another source to insert")
	}
}

func TestGetRecordMissing(t *testing.T) {
	repo := newTestRepository(t)

	stored, err := repo.GetRecord(context.Background(), "hn", "missing")
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}
	if stored != nil {
		t.Errorf("Expected nil for missing record, got %+v", stored)
	}
}

func TestUpsertRecordRoundTripsScriptMetadata(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	record := storedTestRecord("china-tech", "zh-1", "自然语言处理")
	record.Language = "zh"
	record.Script = &normalize.ScriptMetadata{
		SegmentedTokens: []string{"自然", "语言", "处理"},
		Romanization:    "ziran yuyan chuli",
	}

	if inserted, err := repo.UpsertRecord(ctx, record); err != nil || !inserted {
		t.Fatalf("UpsertRecord() = %v, %v", inserted, err)
	}

	stored, err := repo.GetRecord(ctx, "china-tech", "zh-1")
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}
	if stored == nil {
		t.Fatal("Expected a stored record")
	}
	if len(stored.SegmentedTokens) != 3 || stored.SegmentedTokens[0] != "自然" {
		t.Errorf("Expected segmented tokens round-tripped, got %v", stored.SegmentedTokens)
	}
	if stored.Romanization != "ziran yuyan chuli" {
		t.Errorf("Expected romanization round-tripped, got %q", stored.Romanization)
	}
}

func TestRecentRecordsOrderAndLimit(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		record := storedTestRecord("hn", string(rune('a'+i)), "Item")
		record.PublishedAt = base.Add(time.Duration(i) * time.Hour)
		if inserted, err := repo.UpsertRecord(ctx, record); err != nil || !inserted {
			t.Fatalf("UpsertRecord(%d) = %v, %v", i, inserted, err)
		}
	}

	records, err := repo.RecentRecords(ctx, "hn", 2)
	if err != nil {
		t.Fatalf("RecentRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].ExternalID != "c" || records[1].ExternalID != "b" {
		t.Errorf("Expected newest-first order, got %q then %q",
			records[0].ExternalID, records[1].ExternalID)
	}
}

func TestCountBySource(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, id := range []string{"1", "2"} {
		if _, err := repo.UpsertRecord(ctx, storedTestRecord("hn", id, "Item")); err != nil {
			t.Fatalf("UpsertRecord() error = %v", err)
		}
	}
	if _, err := repo.UpsertRecord(ctx, storedTestRecord("reddit", "1", "Item")); err != nil {
		t.Fatalf("UpsertRecord() error = %v", err)
	}

	counts, err := repo.CountBySource(ctx)
	if err != nil {
		t.Fatalf("CountBySource() error = %v", err)
	}
	if counts["hn"] != 2 || counts["reddit"] != 1 {
		t.Errorf("Expected counts hn=2 reddit=1, got %v", counts)
	}
}
