package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qrsp/sticker-alias/internal/models"
)

// FavoriteOutcome is the result of one favorite mutation.
type FavoriteOutcome int

const (
	FavoriteAdded FavoriteOutcome = iota + 1
	FavoriteRemoved
	DuplicateInGroup   // already a member of the requested group
	DuplicateElsewhere // member of another group, see ConflictGroup
	NotAMember         // delete of a relation that does not exist
)

func (o FavoriteOutcome) String() string {
	switch o {
	case FavoriteAdded:
		return "added"
	case FavoriteRemoved:
		return "removed"
	case DuplicateInGroup:
		return "duplicate_in_group"
	case DuplicateElsewhere:
		return "duplicate_elsewhere"
	case NotAMember:
		return "not_a_member"
	}
	return fmt.Sprintf("FavoriteOutcome(%d)", int(o))
}

type FavoriteResult struct {
	Outcome       FavoriteOutcome
	ConflictGroup int
}

// Changed reports whether the relation was mutated.
func (r FavoriteResult) Changed() bool {
	return r.Outcome == FavoriteAdded || r.Outcome == FavoriteRemoved
}

// FavoriteGroup returns the group holding the sticker for the user, or 0.
func (q Queries) FavoriteGroup(ctx context.Context, userID int64, fileUniqueID string) (int, error) {
	var group int
	err := q.q.QueryRowContext(ctx,
		`SELECT group_no FROM favorites WHERE user_id=? AND file_unique_id=?`,
		userID, fileUniqueID,
	).Scan(&group)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("favorite group: %w", err)
	}
	return group, nil
}

// AddFavorite puts the sticker into the group. The sticker row is
// provisioned first, so run this inside InTx to commit both rows together.
func (q Queries) AddFavorite(ctx context.Context, userID int64, ref models.StickerRef, group int) (FavoriteResult, error) {
	if !models.ValidGroup(group) {
		return FavoriteResult{}, fmt.Errorf("add favorite: group %d out of range", group)
	}
	current, err := q.FavoriteGroup(ctx, userID, ref.FileUniqueID)
	if err != nil {
		return FavoriteResult{}, err
	}
	switch {
	case current == group:
		return FavoriteResult{Outcome: DuplicateInGroup, ConflictGroup: current}, nil
	case current != 0:
		return FavoriteResult{Outcome: DuplicateElsewhere, ConflictGroup: current}, nil
	}

	// favorites.file_unique_id references stickers.
	if err := q.ProvisionSticker(ctx, ref, userID); err != nil {
		return FavoriteResult{}, err
	}

	if _, err := q.q.ExecContext(ctx,
		`INSERT INTO favorites (user_id, file_unique_id, group_no) VALUES (?,?,?)`,
		userID, ref.FileUniqueID, group,
	); err != nil {
		return FavoriteResult{}, fmt.Errorf("insert favorite: %w", err)
	}
	return FavoriteResult{Outcome: FavoriteAdded}, nil
}

// DeleteFavorite removes the sticker from the group.
func (q Queries) DeleteFavorite(ctx context.Context, userID int64, fileUniqueID string, group int) (FavoriteResult, error) {
	res, err := q.q.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id=? AND file_unique_id=? AND group_no=?`,
		userID, fileUniqueID, group,
	)
	if err != nil {
		return FavoriteResult{}, fmt.Errorf("delete favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return FavoriteResult{}, fmt.Errorf("delete favorite: %w", err)
	}
	if n == 0 {
		return FavoriteResult{Outcome: NotAMember}, nil
	}
	return FavoriteResult{Outcome: FavoriteRemoved}, nil
}

func (q Queries) CountFavorites(ctx context.Context, userID int64, group int) (int, error) {
	var n int
	err := q.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id=? AND group_no=?`, userID, group,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count favorites: %w", err)
	}
	return n, nil
}

// FavoriteStickers lists the stickers in one of the user's groups.
func (q Queries) FavoriteStickers(ctx context.Context, userID int64, group int) ([]models.Sticker, error) {
	return q.stickers(ctx, `
        SELECT s.file_unique_id, s.file_id, s.user_id, s.alias, s.set_alias
        FROM stickers s
        INNER JOIN favorites f ON f.file_unique_id=s.file_unique_id
        WHERE f.user_id=? AND f.group_no=?`, userID, group)
}
