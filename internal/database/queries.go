package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zombar/ghosted/internal/models"
)

// ErrNotFound is returned when a comparison id does not exist.
var ErrNotFound = errors.New("comparison not found")

// Comparison statuses.
const (
	StatusQueued    = "queued"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// CreateComparison inserts a new record in queued state.
func (db *DB) CreateComparison(id, text string) error {
	now := time.Now().UTC()
	_, err := db.conn.Exec(`
		INSERT INTO comparisons (id, input_text, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, text, StatusQueued, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert comparison: %w", err)
	}
	return nil
}

// SaveResult stores a completed comparison result.
func (db *DB) SaveResult(id string, result *models.ComparisonResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	res, err := db.conn.Exec(`
		UPDATE comparisons
		SET status = ?, result = ?, last_error = NULL, updated_at = ?
		WHERE id = ?
	`, StatusCompleted, string(resultJSON), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return checkAffected(res)
}

// MarkFailed records a terminal failure for a queued comparison.
func (db *DB) MarkFailed(id, lastError string) error {
	res, err := db.conn.Exec(`
		UPDATE comparisons
		SET status = ?, last_error = ?, updated_at = ?
		WHERE id = ?
	`, StatusFailed, lastError, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark comparison failed: %w", err)
	}
	return checkAffected(res)
}

// GetComparison retrieves a comparison by ID
func (db *DB) GetComparison(id string) (*models.ComparisonRecord, error) {
	row := db.conn.QueryRow(`
		SELECT id, input_text, status, result, last_error, created_at, updated_at
		FROM comparisons
		WHERE id = ?
	`, id)

	record, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comparison: %w", err)
	}
	return record, nil
}

// ListComparisons retrieves comparisons newest first with pagination
func (db *DB) ListComparisons(limit, offset int) ([]*models.ComparisonRecord, error) {
	rows, err := db.conn.Query(`
		SELECT id, input_text, status, result, last_error, created_at, updated_at
		FROM comparisons
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query comparisons: %w", err)
	}
	defer rows.Close()

	var records []*models.ComparisonRecord
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// DeleteComparison deletes a comparison by ID
func (db *DB) DeleteComparison(id string) error {
	res, err := db.conn.Exec("DELETE FROM comparisons WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete comparison: %w", err)
	}
	return checkAffected(res)
}

func scanRecord(scan func(dest ...any) error) (*models.ComparisonRecord, error) {
	var (
		record     models.ComparisonRecord
		resultJSON sql.NullString
		lastError  sql.NullString
	)

	if err := scan(&record.ID, &record.Text, &record.Status, &resultJSON, &lastError,
		&record.CreatedAt, &record.UpdatedAt); err != nil {
		return nil, err
	}

	if resultJSON.Valid && resultJSON.String != "" {
		var result models.ComparisonResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		record.Result = &result
	}
	record.LastError = lastError.String

	return &record, nil
}

func checkAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
