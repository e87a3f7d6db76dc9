package query

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrsp/sticker-alias/internal/models"
	"github.com/qrsp/sticker-alias/internal/storage"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want Query
	}{
		{"", Query{Kind: KindPreview}},
		{" i", Query{Kind: KindPreview, Fresh: true}},
		{"3", Query{Kind: KindFavorite, Text: "3", Group: 3}},
		{"9 i", Query{Kind: KindFavorite, Text: "9", Group: 9, Fresh: true}},
		{"0", Query{Kind: KindAlias, Text: "0"}},
		{"12", Query{Kind: KindAlias, Text: "12"}},
		{"%", Query{Kind: KindTrending, Text: "%"}},
		{"% i", Query{Kind: KindTrending, Text: "%", Fresh: true}},
		{"cat", Query{Kind: KindAlias, Text: "cat"}},
		{"cat i", Query{Kind: KindAlias, Text: "cat", Fresh: true}},
		{"kiwi", Query{Kind: KindAlias, Text: "kiwi"}},
		{",memes", Query{Kind: KindSetAlias, Text: "memes"}},
		{"，memes", Query{Kind: KindSetAlias, Text: "memes"}},
		{",memes i", Query{Kind: KindSetAlias, Text: "memes", Fresh: true}},
		{",3", Query{Kind: KindFavorite, Text: "3", Group: 3}},
		{",", Query{Kind: KindPreview}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.raw), func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw))
		})
	}
}

type fakeLookup struct {
	calls    []string
	stickers []models.Sticker
	err      error
}

func (f *fakeLookup) record(call string) ([]models.Sticker, error) {
	f.calls = append(f.calls, call)
	return f.stickers, f.err
}

func (f *fakeLookup) FavoriteStickers(_ context.Context, userID int64, group int) ([]models.Sticker, error) {
	return f.record(fmt.Sprintf("favorite %d %d", userID, group))
}

func (f *fakeLookup) TrendingStickers(_ context.Context, userID int64) ([]models.Sticker, error) {
	return f.record(fmt.Sprintf("trending %d", userID))
}

func (f *fakeLookup) SearchByAlias(_ context.Context, userID int64, text string) ([]models.Sticker, error) {
	return f.record(fmt.Sprintf("alias %d %s", userID, text))
}

func (f *fakeLookup) SearchBySetAlias(_ context.Context, userID int64, text string) ([]models.Sticker, error) {
	return f.record(fmt.Sprintf("set_alias %d %s", userID, text))
}

func stickers(ids ...string) []models.Sticker {
	out := make([]models.Sticker, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Sticker{FileUniqueID: id, FileID: "f" + id})
	}
	return out
}

func TestRouter_Dispatch(t *testing.T) {
	tests := []struct {
		raw       string
		call      string
		cacheTime int
	}{
		{"", "trending 7", 300},
		{"4", "favorite 7 4", 300},
		{"4 i", "favorite 7 4", 0},
		{"%", "trending 7", 300},
		{",office", "set_alias 7 office", 300},
		{"cat i", "alias 7 cat", 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			f := &fakeLookup{stickers: stickers("a")}
			res, err := NewRouter(f, 300).Lookup(context.Background(), 7, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.call}, f.calls)
			assert.Equal(t, tt.cacheTime, res.CacheTime)
			assert.False(t, res.Empty())
		})
	}
}

func TestRouter_PreviewReturnsOnlyTopSticker(t *testing.T) {
	f := &fakeLookup{stickers: stickers("top", "second", "third")}
	res, err := NewRouter(f, 300).Lookup(context.Background(), 1, "")
	require.NoError(t, err)
	require.Len(t, res.Stickers, 1)
	assert.Equal(t, "top", res.Stickers[0].FileUniqueID)
}

func TestRouter_EmptyIsNotAnError(t *testing.T) {
	f := &fakeLookup{}
	res, err := NewRouter(f, 300).Lookup(context.Background(), 1, "nothing")
	require.NoError(t, err)
	assert.True(t, res.Empty())

	res, err = NewRouter(f, 300).Lookup(context.Background(), 1, "")
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestRouter_WrapsStoreError(t *testing.T) {
	boom := errors.New("locked")
	_, err := NewRouter(&fakeLookup{err: boom}, 300).Lookup(context.Background(), 1, "cat")
	assert.ErrorIs(t, err, boom)
}

func TestRouter_WithStore(t *testing.T) {
	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.UpsertUser(ctx, models.User{ID: 1}))
	alias := "cat"
	require.NoError(t, db.UpsertSticker(ctx, storage.StickerUpdate{FileUniqueID: "x", FileID: "fx", UserID: 1, Alias: &alias}))
	_, err = db.AddFavorite(ctx, 1, models.StickerRef{FileUniqueID: "y", FileID: "fy"}, 2)
	require.NoError(t, err)

	r := NewRouter(db, 60)
	res, err := r.Lookup(ctx, 1, "ca")
	require.NoError(t, err)
	require.Len(t, res.Stickers, 1)
	assert.Equal(t, "x", res.Stickers[0].FileUniqueID)

	res, err = r.Lookup(ctx, 1, "2")
	require.NoError(t, err)
	require.Len(t, res.Stickers, 1)
	assert.Equal(t, "y", res.Stickers[0].FileUniqueID)

	res, err = r.Lookup(ctx, 1, "%")
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestPage(t *testing.T) {
	all := make([]models.Sticker, 120)
	for i := range all {
		all[i].FileUniqueID = fmt.Sprint(i)
	}

	page, next := Page(all, "")
	assert.Len(t, page, PageSize)
	assert.Equal(t, "50", next)

	page, next = Page(all, next)
	assert.Len(t, page, PageSize)
	assert.Equal(t, "50", page[0].FileUniqueID)
	assert.Equal(t, "100", next)

	page, next = Page(all, next)
	assert.Len(t, page, 20)
	assert.Empty(t, next)

	page, next = Page(all, "500")
	assert.Empty(t, page)
	assert.Empty(t, next)

	page, _ = Page(all, "garbage")
	assert.Equal(t, "0", page[0].FileUniqueID)

	page, next = Page(all[:50], "")
	assert.Len(t, page, 50)
	assert.Empty(t, next)
}
