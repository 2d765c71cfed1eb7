package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vociary/errs"
	"vociary/models"
)

const entryColumns = "id, content, diary_id, entry_date, user_id"

func (q *Queries) GetEntry(ctx context.Context, id int64) (*models.Entry, error) {
	row := q.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM entries WHERE id = ?", id)
	return scanEntry(row)
}

// GetEntryByKey looks up the single entry for (user, date, diary).
func (q *Queries) GetEntryByKey(ctx context.Context, userID int64, date models.Date, diaryID int64) (*models.Entry, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE user_id = ? AND entry_date = ? AND diary_id = ?",
		userID, date, diaryID)
	return scanEntry(row)
}

// FirstEntryOnDate returns the lowest-id entry of the user on date, in any diary.
func (q *Queries) FirstEntryOnDate(ctx context.Context, userID int64, date models.Date) (*models.Entry, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE user_id = ? AND entry_date = ? ORDER BY id LIMIT 1",
		userID, date)
	return scanEntry(row)
}

// CreateEntry inserts a new entry. Losing a race on the (user, date, diary) key yields errs.ErrConflict.
func (q *Queries) CreateEntry(ctx context.Context, userID, diaryID int64, date models.Date, content string) (*models.Entry, error) {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO entries (user_id, diary_id, entry_date, content) VALUES (?, ?, ?, ?)",
		userID, diaryID, date, content)
	if isUniqueViolation(err) {
		return nil, errs.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	return q.GetEntry(ctx, id)
}

// UpdateEntryContent replaces the content in place. A row deleted since lookup yields errs.ErrNotFound.
func (q *Queries) UpdateEntryContent(ctx context.Context, id int64, content string) (*models.Entry, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE entries SET content = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", content, id)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	if n == 0 {
		return nil, errs.ErrNotFound
	}
	return q.GetEntry(ctx, id)
}

// ListEntriesByDate returns the user's entries on date across all diaries.
func (q *Queries) ListEntriesByDate(ctx context.Context, userID int64, date models.Date) ([]models.Entry, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE user_id = ? AND entry_date = ? ORDER BY id",
		userID, date)
	if err != nil {
		return nil, fmt.Errorf("list entries by date: %w", err)
	}
	return collectEntries(rows)
}

// ListRecentEntries pages through the user's entries, newest date first.
func (q *Queries) ListRecentEntries(ctx context.Context, userID int64, offset, limit int) ([]models.Entry, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE user_id = ? ORDER BY entry_date DESC, id DESC LIMIT ? OFFSET ?",
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list recent entries: %w", err)
	}
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]models.Entry, error) {
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanEntry(row scanner) (*models.Entry, error) {
	var e models.Entry
	err := row.Scan(&e.ID, &e.Content, &e.DiaryID, &e.EntryDate, &e.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	return &e, nil
}
