package query

import (
	"context"
	"fmt"
	"strconv"

	"github.com/qrsp/sticker-alias/internal/metrics"
	"github.com/qrsp/sticker-alias/internal/models"
)

// PageSize is the largest number of results one inline answer may carry.
const PageSize = 50

// Lookup is the read side of the store used by the router.
type Lookup interface {
	FavoriteStickers(ctx context.Context, userID int64, group int) ([]models.Sticker, error)
	TrendingStickers(ctx context.Context, userID int64) ([]models.Sticker, error)
	SearchByAlias(ctx context.Context, userID int64, text string) ([]models.Sticker, error)
	SearchBySetAlias(ctx context.Context, userID int64, text string) ([]models.Sticker, error)
}

type Router struct {
	store     Lookup
	cacheTime int
}

// NewRouter answers non-fresh lookups with the given cache lifetime in seconds.
func NewRouter(store Lookup, cacheTime int) *Router {
	return &Router{store: store, cacheTime: cacheTime}
}

type Result struct {
	Query     Query
	Stickers  []models.Sticker
	CacheTime int // seconds the client may cache the answer
}

// Empty reports whether there is nothing to answer with.
func (r Result) Empty() bool { return len(r.Stickers) == 0 }

// Lookup parses raw and runs the matching lookup for userID.
func (r *Router) Lookup(ctx context.Context, userID int64, raw string) (Result, error) {
	q := Parse(raw)
	metrics.InlineQueries.WithLabelValues(q.Kind.String()).Inc()

	res := Result{Query: q, CacheTime: r.cacheTime}
	if q.Fresh {
		res.CacheTime = 0
	}

	var (
		stickers []models.Sticker
		err      error
	)
	switch q.Kind {
	case KindPreview:
		stickers, err = r.store.TrendingStickers(ctx, userID)
		if len(stickers) > 1 {
			stickers = stickers[:1]
		}
	case KindFavorite:
		stickers, err = r.store.FavoriteStickers(ctx, userID, q.Group)
	case KindTrending:
		stickers, err = r.store.TrendingStickers(ctx, userID)
	case KindSetAlias:
		stickers, err = r.store.SearchBySetAlias(ctx, userID, q.Text)
	case KindAlias:
		stickers, err = r.store.SearchByAlias(ctx, userID, q.Text)
	default:
		return res, fmt.Errorf("query: unhandled kind %v", q.Kind)
	}
	if err != nil {
		return res, fmt.Errorf("query %s: %w", q.Kind, err)
	}
	res.Stickers = stickers
	return res, nil
}

// Page cuts one answer page out of stickers. offset is the opaque value the
// client echoes back; next is empty on the last page.
func Page(stickers []models.Sticker, offset string) (page []models.Sticker, next string) {
	start, err := strconv.Atoi(offset)
	if err != nil || start < 0 {
		start = 0
	}
	if start >= len(stickers) {
		return nil, ""
	}
	end := start + PageSize
	if end >= len(stickers) {
		return stickers[start:], ""
	}
	return stickers[start:end], strconv.Itoa(end)
}
