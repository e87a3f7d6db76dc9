package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qrsp/sticker-alias/internal/models"
)

// StickerUpdate is the input of UpsertSticker. A nil Alias or SetAlias leaves
// the stored value untouched when the sticker already exists.
type StickerUpdate struct {
	FileUniqueID string
	FileID       string
	UserID       int64
	Alias        *string
	SetAlias     *string
}

// UpsertSticker inserts the sticker or, on a duplicate key, overwrites the
// transport reference, the owner and whichever labels were supplied.
func (q Queries) UpsertSticker(ctx context.Context, s StickerUpdate) error {
	query := `
        INSERT INTO stickers (file_unique_id, file_id, user_id, alias, set_alias)
        VALUES (?,?,?,?,?)
        ON CONFLICT(file_unique_id) DO UPDATE SET file_id=excluded.file_id,
            user_id=excluded.user_id`
	if s.Alias != nil {
		query += `, alias=excluded.alias`
	}
	if s.SetAlias != nil {
		query += `, set_alias=excluded.set_alias`
	}
	_, err := q.q.ExecContext(ctx, query, s.FileUniqueID, s.FileID, s.UserID, s.Alias, s.SetAlias)
	if err != nil {
		return fmt.Errorf("upsert sticker %s: %w", s.FileUniqueID, err)
	}
	return nil
}

// ProvisionSticker makes sure a row exists for ref so that rows referencing
// it can be inserted. An existing row only gets its transport reference
// refreshed; owner and labels stay as they are.
func (q Queries) ProvisionSticker(ctx context.Context, ref models.StickerRef, owner int64) error {
	_, err := q.q.ExecContext(ctx, `
        INSERT INTO stickers (file_unique_id, file_id, user_id) VALUES (?,?,?)
        ON CONFLICT(file_unique_id) DO UPDATE SET file_id=excluded.file_id
    `, ref.FileUniqueID, ref.FileID, owner)
	if err != nil {
		return fmt.Errorf("provision sticker %s: %w", ref.FileUniqueID, err)
	}
	return nil
}

func (q Queries) GetSticker(ctx context.Context, fileUniqueID string) (*models.Sticker, error) {
	var s models.Sticker
	err := q.q.QueryRowContext(ctx, `
        SELECT file_unique_id, file_id, user_id, alias, set_alias
        FROM stickers WHERE file_unique_id=?`, fileUniqueID,
	).Scan(&s.FileUniqueID, &s.FileID, &s.UserID, &s.Alias, &s.SetAlias)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sticker %s: %w", fileUniqueID, err)
	}
	return &s, nil
}

// ListAliases returns every distinct personal alias, sorted.
func (q Queries) ListAliases(ctx context.Context) ([]string, error) {
	return q.distinct(ctx, `SELECT DISTINCT alias FROM stickers WHERE alias IS NOT NULL ORDER BY alias`)
}

// ListSetAliases returns every distinct set alias, sorted.
func (q Queries) ListSetAliases(ctx context.Context) ([]string, error) {
	return q.distinct(ctx, `SELECT DISTINCT set_alias FROM stickers WHERE set_alias IS NOT NULL ORDER BY set_alias`)
}

func (q Queries) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := q.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	var res []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// SearchByAlias matches text anywhere in any user's alias, ordered by the
// caller's trending rank. Stickers without a rank come last.
func (q Queries) SearchByAlias(ctx context.Context, userID int64, text string) ([]models.Sticker, error) {
	return q.stickers(ctx, `
        SELECT s.file_unique_id, s.file_id, s.user_id, s.alias, s.set_alias
        FROM stickers s
        LEFT OUTER JOIN trending t
            ON t.user_id=? AND t.file_unique_id=s.file_unique_id
        WHERE s.alias LIKE ? ESCAPE '\'
        ORDER BY t.score DESC`, userID, likePattern(text))
}

// SearchBySetAlias matches text anywhere in the set alias, ordered the same
// way as SearchByAlias.
func (q Queries) SearchBySetAlias(ctx context.Context, userID int64, text string) ([]models.Sticker, error) {
	return q.stickers(ctx, `
        SELECT s.file_unique_id, s.file_id, s.user_id, s.alias, s.set_alias
        FROM stickers s
        LEFT OUTER JOIN trending t
            ON t.user_id=? AND t.file_unique_id=s.file_unique_id
        WHERE s.set_alias LIKE ? ESCAPE '\'
        ORDER BY t.score DESC`, userID, likePattern(text))
}

func (q Queries) stickers(ctx context.Context, query string, args ...any) ([]models.Sticker, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stickers: %w", err)
	}
	defer rows.Close()

	var res []models.Sticker
	for rows.Next() {
		var s models.Sticker
		if err := rows.Scan(&s.FileUniqueID, &s.FileID, &s.UserID, &s.Alias, &s.SetAlias); err != nil {
			return nil, fmt.Errorf("scan sticker: %w", err)
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
