package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/pulsewire/pulsewire/app/normalize"
)

type SQLRecordRepository struct {
	db *DB
}

var _ RecordRepository = (*SQLRecordRepository)(nil)

func NewRecordRepository(db *DB) *SQLRecordRepository {
	return &SQLRecordRepository{db: db}
}

func (r *SQLRecordRepository) UpsertRecord(ctx context.Context, record *normalize.Record) (bool, error) {
	var tokens, romanization sql.NullString
	if record.Script != nil {
		data, err := json.Marshal(record.Script.SegmentedTokens)
		if err != nil {
			return false, fmt.Errorf("failed to encode segmented tokens: %w", err)
		}
		tokens = sql.NullString{String: string(data), Valid: true}
		romanization = sql.NullString{String: record.Script.Romanization, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO records (
			id, source, external_id, title, content, url, author,
			language, direction, published_at, collected_at,
			segmented_tokens, romanization
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source, external_id) DO NOTHING
	`, uuid.NewString(), record.Source, record.ExternalID, record.Title,
		record.Content, record.URL, record.Author, record.Language,
		record.Direction, record.PublishedAt, record.CollectedAt,
		tokens, romanization)

	if err != nil {
		return false, fmt.Errorf("failed to upsert record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *SQLRecordRepository) GetRecord(ctx context.Context, source, externalID string) (*StoredRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, source, external_id, title, content, url, author,
		       language, direction, published_at, collected_at,
		       segmented_tokens, romanization, created_at
		FROM records
		WHERE source = ? AND external_id = ?
	`, source, externalID)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return record, nil
}

func (r *SQLRecordRepository) RecentRecords(ctx context.Context, source string, limit int) ([]StoredRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source, external_id, title, content, url, author,
		       language, direction, published_at, collected_at,
		       segmented_tokens, romanization, created_at
		FROM records
		WHERE source = ?
		ORDER BY published_at DESC
		LIMIT ?
	`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent records: %w", err)
	}
	defer rows.Close()

	var records []StoredRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}

	return records, nil
}

func (r *SQLRecordRepository) CountBySource(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT source, COUNT(*) FROM records GROUP BY source
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[source] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating count rows: %w", err)
	}

	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*StoredRecord, error) {
	var record StoredRecord
	var tokens, romanization sql.NullString

	err := row.Scan(
		&record.ID, &record.Source, &record.ExternalID, &record.Title,
		&record.Content, &record.URL, &record.Author, &record.Language,
		&record.Direction, &record.PublishedAt, &record.CollectedAt,
		&tokens, &romanization, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if tokens.Valid && tokens.String != "" {
		if err := json.Unmarshal([]byte(tokens.String), &record.SegmentedTokens); err != nil {
			return nil, fmt.Errorf("failed to decode segmented tokens: %w", err)
		}
	}
	record.Romanization = romanization.String

	return &record, nil
}
