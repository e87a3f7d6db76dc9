package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/qrsp/sticker-alias/internal/models"
)

// ---------- chosen (usage log) ------------------------------------------------

func (q Queries) InsertChosen(ctx context.Context, c models.Chosen) error {
	_, err := q.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO chosen (file_unique_id, user_id, chosen_at) VALUES (?,?,?)`,
		c.FileUniqueID, c.UserID, c.ChosenAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert chosen: %w", err)
	}
	return nil
}

// ChosenSince returns the user's picks at or after since, oldest first.
func (q Queries) ChosenSince(ctx context.Context, userID int64, since time.Time) ([]models.Chosen, error) {
	rows, err := q.q.QueryContext(ctx, `
        SELECT file_unique_id, user_id, chosen_at FROM chosen
        WHERE user_id=? AND chosen_at>=?
        ORDER BY chosen_at`, userID, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query chosen: %w", err)
	}
	defer rows.Close()

	var res []models.Chosen
	for rows.Next() {
		var (
			c  models.Chosen
			ms int64
		)
		if err := rows.Scan(&c.FileUniqueID, &c.UserID, &ms); err != nil {
			return nil, fmt.Errorf("scan chosen: %w", err)
		}
		c.ChosenAt = time.UnixMilli(ms)
		res = append(res, c)
	}
	return res, rows.Err()
}

// ---------- trending (served ranking) ---------------------------------------

// TrendingStickers returns the user's ranked stickers, best first.
func (q Queries) TrendingStickers(ctx context.Context, userID int64) ([]models.Sticker, error) {
	return q.stickers(ctx, `
        SELECT s.file_unique_id, s.file_id, s.user_id, s.alias, s.set_alias
        FROM stickers s
        INNER JOIN trending t
            ON t.user_id=? AND t.file_unique_id=s.file_unique_id
        ORDER BY t.score DESC`, userID)
}

func (q Queries) TrendingEntries(ctx context.Context, userID int64) ([]models.TrendingEntry, error) {
	rows, err := q.q.QueryContext(ctx, `
        SELECT file_unique_id, user_id, score FROM trending
        WHERE user_id=? ORDER BY score DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query trending: %w", err)
	}
	defer rows.Close()

	var res []models.TrendingEntry
	for rows.Next() {
		var e models.TrendingEntry
		if err := rows.Scan(&e.FileUniqueID, &e.UserID, &e.Score); err != nil {
			return nil, fmt.Errorf("scan trending: %w", err)
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

const stagingTable = "trending_tmp"

const createStaging = `
CREATE TABLE ` + stagingTable + ` (
    file_unique_id TEXT    NOT NULL,
    user_id        INTEGER NOT NULL,
    score          INTEGER NOT NULL,
    PRIMARY KEY (file_unique_id, user_id),
    FOREIGN KEY (user_id) REFERENCES users (user_id)
        ON DELETE CASCADE ON UPDATE CASCADE,
    FOREIGN KEY (file_unique_id) REFERENCES stickers (file_unique_id)
        ON DELETE CASCADE ON UPDATE CASCADE
)`

// Staging receives the rows of the ranking being built.
type Staging struct {
	q dbtx
}

func (s Staging) Insert(ctx context.Context, e models.TrendingEntry) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO `+stagingTable+` (file_unique_id, user_id, score) VALUES (?,?,?)`,
		e.FileUniqueID, e.UserID, e.Score,
	)
	if err != nil {
		return fmt.Errorf("insert staging %s/%d: %w", e.FileUniqueID, e.UserID, err)
	}
	return nil
}

// ReplaceTrending fills a new ranking through build and swaps it in place of
// the served one. Staging, drop and rename share one write transaction:
// readers see the complete old ranking until commit and the complete new one
// after. If build fails nothing is changed. build should only insert rows,
// every other writer waits while it runs.
func (d *DB) ReplaceTrending(ctx context.Context, build func(stage Staging) error) error {
	return d.InTx(ctx, func(q Queries) error {
		if _, err := q.q.ExecContext(ctx, `DROP TABLE IF EXISTS `+stagingTable); err != nil {
			return fmt.Errorf("drop stale staging: %w", err)
		}
		if _, err := q.q.ExecContext(ctx, createStaging); err != nil {
			return fmt.Errorf("create staging: %w", err)
		}
		if err := build(Staging{q: q.q}); err != nil {
			return err
		}
		if _, err := q.q.ExecContext(ctx, `DROP TABLE trending`); err != nil {
			return fmt.Errorf("drop trending: %w", err)
		}
		if _, err := q.q.ExecContext(ctx, `ALTER TABLE `+stagingTable+` RENAME TO trending`); err != nil {
			return fmt.Errorf("rename staging: %w", err)
		}
		return nil
	})
}
