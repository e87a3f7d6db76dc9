package models

import "time"

// User is an authorized bot user. Provisioning happens outside the chat flow.
type User struct {
	ID    int64  `db:"user_id"  json:"user_id"`
	Name  string `db:"nickname" json:"nickname,omitempty"`
	Admin bool   `db:"admin"    json:"admin"`
}

// Sticker is keyed by the stable FileUniqueID; FileID is the transport
// reference and may change between sightings.
type Sticker struct {
	FileUniqueID string  `db:"file_unique_id" json:"file_unique_id"`
	FileID       string  `db:"file_id"        json:"file_id"`
	UserID       int64   `db:"user_id"        json:"user_id"` // owner / last editor
	Alias        *string `db:"alias"          json:"alias,omitempty"`
	SetAlias     *string `db:"set_alias"      json:"set_alias,omitempty"`
}

// Chosen records that a user picked a sticker from inline results.
type Chosen struct {
	FileUniqueID string    `db:"file_unique_id"`
	UserID       int64     `db:"user_id"`
	ChosenAt     time.Time `db:"chosen_at"`
}

// TrendingEntry is one row of the served ranking snapshot.
type TrendingEntry struct {
	FileUniqueID string `db:"file_unique_id"`
	UserID       int64  `db:"user_id"`
	Score        int    `db:"score"` // rank index, higher is served first
}

const (
	MinFavoriteGroup = 1
	MaxFavoriteGroup = 9
)

// ValidGroup reports whether n names a favorite group.
func ValidGroup(n int) bool {
	return n >= MinFavoriteGroup && n <= MaxFavoriteGroup
}
