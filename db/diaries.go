package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vociary/errs"
	"vociary/models"
)

const diaryColumns = "id, owner_id, name, description"

func (q *Queries) CreateDiary(ctx context.Context, ownerID int64, name string, description *string) (*models.Diary, error) {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO diaries (owner_id, name, description) VALUES (?, ?, ?)",
		ownerID, name, description)
	if err != nil {
		return nil, fmt.Errorf("insert diary: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert diary: %w", err)
	}
	return q.GetDiary(ctx, ownerID, id)
}

// GetDiary returns errs.ErrNotFound when the diary is missing or owned by someone else.
func (q *Queries) GetDiary(ctx context.Context, ownerID, id int64) (*models.Diary, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+diaryColumns+" FROM diaries WHERE id = ? AND owner_id = ?", id, ownerID)
	return scanDiary(row)
}

// ListDiaries returns the user's diaries in creation order.
func (q *Queries) ListDiaries(ctx context.Context, ownerID int64) ([]models.Diary, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+diaryColumns+" FROM diaries WHERE owner_id = ? ORDER BY id", ownerID)
	if err != nil {
		return nil, fmt.Errorf("list diaries: %w", err)
	}
	defer rows.Close()

	diaries := []models.Diary{}
	for rows.Next() {
		d, err := scanDiary(rows)
		if err != nil {
			return nil, err
		}
		diaries = append(diaries, *d)
	}
	return diaries, rows.Err()
}

func scanDiary(row scanner) (*models.Diary, error) {
	var (
		d    models.Diary
		desc sql.NullString
	)
	err := row.Scan(&d.ID, &d.OwnerID, &d.Name, &desc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan diary: %w", err)
	}
	if desc.Valid {
		d.Description = &desc.String
	}
	return &d, nil
}
