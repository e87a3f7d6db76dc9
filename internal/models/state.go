package models

import "fmt"

// MessageRef points at a message the bot sent and may later edit or retract.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

func (r MessageRef) IsZero() bool { return r.MessageID == 0 }

// StickerRef is what the transport tells us about a submitted sticker.
type StickerRef struct {
	FileUniqueID string
	FileID       string
	SetName      string
}

type FavoriteMode int

const (
	FavoriteAdd FavoriteMode = iota + 1
	FavoriteDelete
)

func (m FavoriteMode) String() string {
	switch m {
	case FavoriteAdd:
		return "add"
	case FavoriteDelete:
		return "delete"
	}
	return fmt.Sprintf("FavoriteMode(%d)", int(m))
}

// StateKind tags the active workflow of a chat.
type StateKind int

const (
	StateIdle StateKind = iota
	StateAwaitingFavoriteGroupChoice
	StateAwaitingFavoriteItem
	StateAwaitingAliasTarget
	StateAwaitingAliasText
	StateAwaitingBulkAliasText
)

func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StateAwaitingFavoriteGroupChoice:
		return "awaiting_favorite_group_choice"
	case StateAwaitingFavoriteItem:
		return "awaiting_favorite_item"
	case StateAwaitingAliasTarget:
		return "awaiting_alias_target"
	case StateAwaitingAliasText:
		return "awaiting_alias_text"
	case StateAwaitingBulkAliasText:
		return "awaiting_bulk_alias_text"
	}
	return fmt.Sprintf("StateKind(%d)", int(k))
}

// ConversationState is the per-chat workflow state. Each variant carries only
// the scratch data its step needs; the zero chat state is Idle.
type ConversationState interface {
	Kind() StateKind
	conversationState()
}

type Idle struct{}

// AwaitingFavoriteGroupChoice: /favorite add|delete was issued, the group
// keyboard is on screen.
type AwaitingFavoriteGroupChoice struct {
	Mode FavoriteMode
}

// AwaitingFavoriteItem: a group is selected, stickers are added or removed
// one per message until Finish.
type AwaitingFavoriteItem struct {
	Mode    FavoriteMode
	UserID  int64
	Group   int
	Count   int
	Counter MessageRef
}

// AwaitingAliasTarget: /bulk was issued, waiting for a sticker of the set.
type AwaitingAliasTarget struct{}

// AwaitingAliasText: a single sticker is captured, waiting for its alias.
type AwaitingAliasText struct {
	Sticker StickerRef
	Prompt  MessageRef
	Cancel  MessageRef
}

// AwaitingBulkAliasText: a whole sticker set is captured, waiting for the
// set alias.
type AwaitingBulkAliasText struct {
	SetName  string
	Stickers []StickerRef
	Prompt   MessageRef
	Cancel   MessageRef
}

func (Idle) Kind() StateKind                        { return StateIdle }
func (AwaitingFavoriteGroupChoice) Kind() StateKind { return StateAwaitingFavoriteGroupChoice }
func (AwaitingFavoriteItem) Kind() StateKind        { return StateAwaitingFavoriteItem }
func (AwaitingAliasTarget) Kind() StateKind         { return StateAwaitingAliasTarget }
func (AwaitingAliasText) Kind() StateKind           { return StateAwaitingAliasText }
func (AwaitingBulkAliasText) Kind() StateKind       { return StateAwaitingBulkAliasText }

func (Idle) conversationState()                        {}
func (AwaitingFavoriteGroupChoice) conversationState() {}
func (AwaitingFavoriteItem) conversationState()        {}
func (AwaitingAliasTarget) conversationState()         {}
func (AwaitingAliasText) conversationState()           {}
func (AwaitingBulkAliasText) conversationState()       {}
