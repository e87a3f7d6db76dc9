// Package query turns inline query text into sticker lookups.
//
// Grammar:
//
//	""           top trending sticker (preview)
//	"1".."9"     stickers in that favorite group
//	"%"          all trending stickers, best first
//	",text"      substring match on set alias (full-width "，" accepted)
//	"text"       substring match on personal alias
//	"... i"      any of the above, answered with a zero cache lifetime
package query

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

type Kind int

const (
	KindPreview Kind = iota
	KindFavorite
	KindTrending
	KindSetAlias
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindPreview:
		return "preview"
	case KindFavorite:
		return "favorite"
	case KindTrending:
		return "trending"
	case KindSetAlias:
		return "set_alias"
	case KindAlias:
		return "alias"
	}
	return "unknown"
}

const (
	setAliasMarker = ","
	freshSuffix    = " i"
	trendingMarker = "%"
)

type Query struct {
	Kind  Kind
	Text  string // search text with markers removed
	Group int    // favorite group for KindFavorite
	Fresh bool   // answer must not be cached
}

func Parse(raw string) Query {
	var q Query
	text := raw

	if r, size := utf8.DecodeRuneInString(text); r != utf8.RuneError &&
		width.Narrow.String(string(r)) == setAliasMarker {
		q.Kind = KindSetAlias
		text = text[size:]
	}
	if strings.HasSuffix(text, freshSuffix) {
		q.Fresh = true
		text = strings.TrimSuffix(text, freshSuffix)
	}
	q.Text = text

	switch {
	case text == "":
		q.Kind = KindPreview
	case len(text) == 1 && text[0] >= '1' && text[0] <= '9':
		q.Kind = KindFavorite
		q.Group = int(text[0] - '0')
	case text == trendingMarker:
		q.Kind = KindTrending
	case q.Kind == KindSetAlias:
	default:
		q.Kind = KindAlias
	}
	return q
}
