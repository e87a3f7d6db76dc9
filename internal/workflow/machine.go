// Package workflow drives the per-chat conversations of the bot: editing
// favorite groups, labelling a single sticker and labelling a whole set.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/qrsp/sticker-alias/internal/metrics"
	"github.com/qrsp/sticker-alias/internal/models"
	"github.com/qrsp/sticker-alias/internal/storage"
)

// ErrUnknownUser is returned for events from users that are not registered.
var ErrUnknownUser = errors.New("workflow: unknown user")

// Button payloads.
const (
	dataFinish        = "finish"
	dataCancel        = "cancel"
	dataFavoriteGroup = "favorite_group"
)

type Button struct {
	Text string
	Data string
}

// Keyboard is an inline keyboard, one slice per row.
type Keyboard [][]Button

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, kb Keyboard) (models.MessageRef, error)
	Edit(ctx context.Context, ref models.MessageRef, text string, kb Keyboard) error
	Delete(ctx context.Context, ref models.MessageRef) error
	Pin(ctx context.Context, ref models.MessageRef) error
}

type StickerSet struct {
	Name     string
	Title    string
	Stickers []models.StickerRef
}

// SetResolver looks up every sticker of a named set.
type SetResolver interface {
	StickerSet(ctx context.Context, name string) (StickerSet, error)
}

// Store is the part of the database the workflows touch. Every mutation
// goes through InTx so a step commits as a whole or not at all.
type Store interface {
	InTx(ctx context.Context, fn func(q storage.Queries) error) error
	IsAuthorized(ctx context.Context, id int64) (bool, error)
	GetSticker(ctx context.Context, fileUniqueID string) (*models.Sticker, error)
	CountFavorites(ctx context.Context, userID int64, group int) (int, error)
	ListAliases(ctx context.Context) ([]string, error)
	ListSetAliases(ctx context.Context) ([]string, error)
	InsertChosen(ctx context.Context, c models.Chosen) error
}

// Inbound events.
type (
	Command struct {
		UserID int64
		ChatID int64
		Name   string // without the leading slash
		Args   []string
	}
	Press struct {
		UserID int64
		ChatID int64
		Data   string
		Source models.MessageRef // message carrying the pressed button
	}
	StickerSubmission struct {
		UserID  int64
		ChatID  int64
		Sticker models.StickerRef
	}
	TextSubmission struct {
		UserID int64
		ChatID int64
		Text   string
	}
	Selection struct {
		UserID       int64
		FileUniqueID string
	}
)

type session struct {
	mu    sync.Mutex
	state models.ConversationState
	refs  int // guarded by Machine.mu
}

type Machine struct {
	store Store
	msg   Messenger
	sets  SetResolver
	now   func() time.Time
	log   zerolog.Logger

	mu       sync.Mutex
	sessions map[int64]*session
}

type Option func(*Machine)

func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Machine) { m.log = l }
}

func New(store Store, msg Messenger, sets SetResolver, opts ...Option) *Machine {
	m := &Machine{
		store:    store,
		msg:      msg,
		sets:     sets,
		now:      time.Now,
		log:      log.With().Str("component", "workflow").Logger(),
		sessions: make(map[int64]*session),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// State returns the current workflow state of the chat.
func (m *Machine) State(chatID int64) models.ConversationState {
	s := m.acquire(chatID)
	defer m.release(chatID, s)
	return s.state
}

// acquire returns the chat's session locked. Idle chats have no entry; one
// is created on demand.
func (m *Machine) acquire(chatID int64) *session {
	m.mu.Lock()
	s, ok := m.sessions[chatID]
	if !ok {
		s = &session{state: models.Idle{}}
		m.sessions[chatID] = s
	}
	s.refs++
	m.mu.Unlock()

	s.mu.Lock()
	return s
}

// release unlocks s and drops the entry once nobody holds or waits on it and
// the chat is back to Idle.
func (m *Machine) release(chatID int64, s *session) {
	_, idle := s.state.(models.Idle)
	m.mu.Lock()
	s.refs--
	if s.refs == 0 && idle {
		delete(m.sessions, chatID)
	}
	m.mu.Unlock()
	s.mu.Unlock()
}

// step serializes fn with every other event of the same chat.
func (m *Machine) step(chatID int64, fn func(s *session) error) error {
	s := m.acquire(chatID)
	defer m.release(chatID, s)
	return fn(s)
}

// abandon retracts the controls of the workflow about to be replaced, so its
// buttons cannot act on the next one.
func (m *Machine) abandon(ctx context.Context, s *session) {
	switch st := s.state.(type) {
	case models.AwaitingAliasText:
		m.retract(ctx, st.Prompt)
		m.retract(ctx, st.Cancel)
	case models.AwaitingBulkAliasText:
		m.retract(ctx, st.Prompt)
		m.retract(ctx, st.Cancel)
	}
}

func (m *Machine) authorize(ctx context.Context, userID int64) error {
	ok, err := m.store.IsAuthorized(ctx, userID)
	if err != nil {
		return fmt.Errorf("workflow: authorize %d: %w", userID, err)
	}
	if !ok {
		return ErrUnknownUser
	}
	return nil
}

func (m *Machine) say(ctx context.Context, chatID int64, text string) {
	if _, err := m.msg.Send(ctx, chatID, text, nil); err != nil {
		m.log.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (m *Machine) retract(ctx context.Context, ref models.MessageRef) {
	if ref.IsZero() {
		return
	}
	if err := m.msg.Delete(ctx, ref); err != nil {
		m.log.Debug().Err(err).Int("message_id", ref.MessageID).Msg("delete failed")
	}
}

func count(step, outcome string) {
	metrics.WorkflowSteps.WithLabelValues(step, outcome).Inc()
}

// HandleCommand starts, restarts or answers outside of any workflow.
// Starting a workflow abandons whatever the chat was doing before.
// Help is answered to anyone.
func (m *Machine) HandleCommand(ctx context.Context, c Command) error {
	if c.Name == "start" || c.Name == "help" {
		m.say(ctx, c.ChatID, helpText)
		return nil
	}
	if err := m.authorize(ctx, c.UserID); err != nil {
		return err
	}
	return m.step(c.ChatID, func(s *session) error {
		switch c.Name {
		case "favorite":
			return m.startFavorite(ctx, s, c)
		case "bulk":
			m.abandon(ctx, s)
			s.state = models.AwaitingAliasTarget{}
			count("bulk", "started")
			m.say(ctx, c.ChatID, txtSendSticker)
			return nil
		case "alias":
			return m.listAliases(ctx, c.ChatID)
		default:
			m.say(ctx, c.ChatID, helpText)
			return nil
		}
	})
}

func (m *Machine) startFavorite(ctx context.Context, s *session, c Command) error {
	var mode models.FavoriteMode
	if len(c.Args) > 0 {
		switch strings.ToLower(c.Args[0]) {
		case "add":
			mode = models.FavoriteAdd
		case "delete":
			mode = models.FavoriteDelete
		}
	}
	if mode == 0 {
		m.say(ctx, c.ChatID, txtFavoriteUsage)
		return nil
	}

	if _, err := m.msg.Send(ctx, c.ChatID, txtWhichFavorite, groupKeyboard(c.UserID)); err != nil {
		return fmt.Errorf("workflow: group keyboard: %w", err)
	}
	m.abandon(ctx, s)
	s.state = models.AwaitingFavoriteGroupChoice{Mode: mode}
	count("favorite", "started")
	return nil
}

func groupKeyboard(userID int64) Keyboard {
	kb := make(Keyboard, 0, 3)
	for row := 0; row < 3; row++ {
		var r []Button
		for col := 1; col <= 3; col++ {
			n := row*3 + col
			r = append(r, Button{
				Text: strconv.Itoa(n),
				Data: fmt.Sprintf("%s %d %d", dataFavoriteGroup, n, userID),
			})
		}
		kb = append(kb, r)
	}
	return kb
}

func (m *Machine) listAliases(ctx context.Context, chatID int64) error {
	aliases, err := m.store.ListAliases(ctx)
	if err != nil {
		return fmt.Errorf("workflow: list aliases: %w", err)
	}
	setAliases, err := m.store.ListSetAliases(ctx)
	if err != nil {
		return fmt.Errorf("workflow: list set aliases: %w", err)
	}
	m.say(ctx, chatID, txtAliasListHeader+strings.Join(aliases, "\n"))
	m.say(ctx, chatID, txtSetAliasListHeader+strings.Join(setAliases, "\n"))
	return nil
}

// HandlePress reacts to an inline keyboard button. A button that does not
// belong to the current workflow is retracted and otherwise ignored.
func (m *Machine) HandlePress(ctx context.Context, p Press) error {
	if err := m.authorize(ctx, p.UserID); err != nil {
		return err
	}
	return m.step(p.ChatID, func(s *session) error {
		fields := strings.Fields(p.Data)
		if len(fields) == 0 {
			return nil
		}
		switch fields[0] {
		case dataFavoriteGroup:
			return m.chooseGroup(ctx, s, p, fields[1:])
		case dataFinish:
			return m.finish(ctx, s, p)
		case dataCancel:
			return m.cancel(ctx, s, p)
		}
		m.log.Debug().Str("data", p.Data).Msg("unknown button")
		return nil
	})
}

func (m *Machine) chooseGroup(ctx context.Context, s *session, p Press, args []string) error {
	st, ok := s.state.(models.AwaitingFavoriteGroupChoice)
	if !ok || len(args) != 2 {
		m.retract(ctx, p.Source)
		count("favorite_group", "stale")
		return nil
	}
	group, err := strconv.Atoi(args[0])
	if err != nil || !models.ValidGroup(group) {
		m.retract(ctx, p.Source)
		count("favorite_group", "invalid")
		return nil
	}
	owner, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || owner != p.UserID {
		count("favorite_group", "foreign")
		return nil
	}

	n, err := m.store.CountFavorites(ctx, owner, group)
	if err != nil {
		return fmt.Errorf("workflow: count favorites: %w", err)
	}
	m.retract(ctx, p.Source)

	header := fmt.Sprintf(txtAddTo, group)
	if st.Mode == models.FavoriteDelete {
		header = fmt.Sprintf(txtDeleteFrom, group)
	}
	m.say(ctx, p.ChatID, header)

	counter, err := m.msg.Send(ctx, p.ChatID, fmt.Sprintf(txtCounter, group, n), finishKeyboard())
	if err != nil {
		return fmt.Errorf("workflow: counter message: %w", err)
	}
	if err := m.msg.Pin(ctx, counter); err != nil {
		m.log.Warn().Err(err).Int64("chat_id", p.ChatID).Msg("pin counter failed")
	}

	s.state = models.AwaitingFavoriteItem{
		Mode:    st.Mode,
		UserID:  owner,
		Group:   group,
		Count:   n,
		Counter: counter,
	}
	count("favorite_group", "ok")
	return nil
}

func finishKeyboard() Keyboard {
	return Keyboard{{{Text: btnFinish, Data: dataFinish}}}
}

func cancelKeyboard() Keyboard {
	return Keyboard{{{Text: btnCancel, Data: dataCancel}}}
}

// finish only reports: every favorite step has already been committed.
func (m *Machine) finish(ctx context.Context, s *session, p Press) error {
	m.retract(ctx, p.Source)
	st, ok := s.state.(models.AwaitingFavoriteItem)
	if !ok || p.Source != st.Counter {
		count("finish", "stale")
		return nil
	}
	m.say(ctx, p.ChatID, fmt.Sprintf(txtFavoriteDone, st.Group, st.Count))
	s.state = models.Idle{}
	count("finish", "ok")
	return nil
}

func (m *Machine) cancel(ctx context.Context, s *session, p Press) error {
	m.retract(ctx, p.Source)
	switch st := s.state.(type) {
	case models.AwaitingAliasText:
		if p.Source != st.Cancel {
			count("cancel", "stale")
			return nil
		}
		m.retract(ctx, st.Prompt)
	case models.AwaitingBulkAliasText:
		if p.Source != st.Cancel {
			count("cancel", "stale")
			return nil
		}
		m.retract(ctx, st.Prompt)
	default:
		count("cancel", "stale")
		return nil
	}
	s.state = models.Idle{}
	count("cancel", "ok")
	return nil
}

// HandleSticker routes a submitted sticker to the active workflow, or starts
// labelling it when the chat is idle.
func (m *Machine) HandleSticker(ctx context.Context, e StickerSubmission) error {
	if err := m.authorize(ctx, e.UserID); err != nil {
		return err
	}
	return m.step(e.ChatID, func(s *session) error {
		switch st := s.state.(type) {
		case models.AwaitingFavoriteItem:
			return m.favoriteItem(ctx, s, st, e)
		case models.AwaitingFavoriteGroupChoice:
			m.say(ctx, e.ChatID, txtChooseGroupFirst)
			return nil
		case models.AwaitingAliasTarget:
			return m.captureSet(ctx, s, e)
		case models.AwaitingBulkAliasText:
			m.abandon(ctx, s)
			return m.captureSet(ctx, s, e)
		case models.AwaitingAliasText:
			m.abandon(ctx, s)
			return m.captureSticker(ctx, s, e)
		default:
			return m.captureSticker(ctx, s, e)
		}
	})
}

func (m *Machine) favoriteItem(ctx context.Context, s *session, st models.AwaitingFavoriteItem, e StickerSubmission) error {
	if e.UserID != st.UserID {
		count("favorite_item", "foreign")
		return nil
	}

	var res storage.FavoriteResult
	err := m.store.InTx(ctx, func(q storage.Queries) error {
		var err error
		if st.Mode == models.FavoriteAdd {
			res, err = q.AddFavorite(ctx, st.UserID, e.Sticker, st.Group)
		} else {
			res, err = q.DeleteFavorite(ctx, st.UserID, e.Sticker.FileUniqueID, st.Group)
		}
		return err
	})
	if err != nil {
		count("favorite_item", "error")
		m.say(ctx, e.ChatID, txtInternalError)
		return fmt.Errorf("workflow: favorite %s: %w", st.Mode, err)
	}
	count("favorite_item", res.Outcome.String())

	switch res.Outcome {
	case storage.DuplicateInGroup:
		m.say(ctx, e.ChatID, txtAlreadyInGroup)
	case storage.DuplicateElsewhere:
		m.say(ctx, e.ChatID, fmt.Sprintf(txtAlreadyElsewhere, res.ConflictGroup))
	case storage.NotAMember:
		m.say(ctx, e.ChatID, txtNotInGroup)
	}
	if !res.Changed() {
		return nil
	}

	if res.Outcome == storage.FavoriteAdded {
		st.Count++
	} else {
		st.Count--
	}
	s.state = st
	if err := m.msg.Edit(ctx, st.Counter, fmt.Sprintf(txtCounter, st.Group, st.Count), finishKeyboard()); err != nil {
		m.log.Warn().Err(err).Int64("chat_id", e.ChatID).Msg("counter edit failed")
	}
	return nil
}

func (m *Machine) captureSticker(ctx context.Context, s *session, e StickerSubmission) error {
	cur, err := m.store.GetSticker(ctx, e.Sticker.FileUniqueID)
	if err != nil {
		s.state = models.Idle{}
		m.say(ctx, e.ChatID, txtInternalError)
		return fmt.Errorf("workflow: get sticker: %w", err)
	}
	if cur != nil && cur.Alias != nil && *cur.Alias != "" {
		m.say(ctx, e.ChatID, fmt.Sprintf(txtCurrentAlias, *cur.Alias))
	}

	prompt, cancel, err := m.prompt(ctx, e.ChatID, txtNewAlias)
	if err != nil {
		s.state = models.Idle{}
		return err
	}
	s.state = models.AwaitingAliasText{Sticker: e.Sticker, Prompt: prompt, Cancel: cancel}
	count("alias", "captured")
	return nil
}

func (m *Machine) captureSet(ctx context.Context, s *session, e StickerSubmission) error {
	if e.Sticker.SetName == "" {
		s.state = models.AwaitingAliasTarget{}
		m.say(ctx, e.ChatID, txtNoSet)
		return nil
	}
	set, err := m.sets.StickerSet(ctx, e.Sticker.SetName)
	if err != nil {
		s.state = models.AwaitingAliasTarget{}
		m.say(ctx, e.ChatID, txtSetUnavailable)
		m.log.Warn().Err(err).Str("set", e.Sticker.SetName).Msg("resolve sticker set failed")
		return nil
	}
	m.say(ctx, e.ChatID, fmt.Sprintf(txtSetTitle, set.Title))

	cur, err := m.store.GetSticker(ctx, e.Sticker.FileUniqueID)
	if err != nil {
		s.state = models.Idle{}
		m.say(ctx, e.ChatID, txtInternalError)
		return fmt.Errorf("workflow: get sticker: %w", err)
	}
	if cur != nil && cur.SetAlias != nil && *cur.SetAlias != "" {
		m.say(ctx, e.ChatID, fmt.Sprintf(txtCurrentSetAlias, *cur.SetAlias))
	}

	prompt, cancel, err := m.prompt(ctx, e.ChatID, txtNewSetAlias)
	if err != nil {
		s.state = models.Idle{}
		return err
	}
	stickers := set.Stickers
	if len(stickers) == 0 {
		stickers = []models.StickerRef{e.Sticker}
	}
	s.state = models.AwaitingBulkAliasText{
		SetName:  set.Name,
		Stickers: stickers,
		Prompt:   prompt,
		Cancel:   cancel,
	}
	count("bulk", "captured")
	return nil
}

// prompt asks for a label and offers the one-tap cancel control.
func (m *Machine) prompt(ctx context.Context, chatID int64, question string) (prompt, cancel models.MessageRef, err error) {
	prompt, err = m.msg.Send(ctx, chatID, question, nil)
	if err != nil {
		return prompt, cancel, fmt.Errorf("workflow: prompt: %w", err)
	}
	cancel, err = m.msg.Send(ctx, chatID, txtCancelPrompt, cancelKeyboard())
	if err != nil {
		m.retract(ctx, prompt)
		return prompt, cancel, fmt.Errorf("workflow: cancel control: %w", err)
	}
	return prompt, cancel, nil
}

// HandleText completes a labelling workflow or answers with help when idle.
func (m *Machine) HandleText(ctx context.Context, e TextSubmission) error {
	if err := m.authorize(ctx, e.UserID); err != nil {
		return err
	}
	text := strings.TrimSpace(e.Text)
	return m.step(e.ChatID, func(s *session) error {
		switch st := s.state.(type) {
		case models.Idle:
			m.say(ctx, e.ChatID, helpText)
			return nil
		case models.AwaitingAliasText:
			if text == "" {
				return nil
			}
			return m.commitLabel(ctx, s, e, st.Cancel, "alias", func(q storage.Queries) error {
				return q.UpsertSticker(ctx, storage.StickerUpdate{
					FileUniqueID: st.Sticker.FileUniqueID,
					FileID:       st.Sticker.FileID,
					UserID:       e.UserID,
					Alias:        &text,
				})
			})
		case models.AwaitingBulkAliasText:
			if text == "" {
				return nil
			}
			return m.commitLabel(ctx, s, e, st.Cancel, "bulk", func(q storage.Queries) error {
				for _, ref := range st.Stickers {
					if err := q.UpsertSticker(ctx, storage.StickerUpdate{
						FileUniqueID: ref.FileUniqueID,
						FileID:       ref.FileID,
						UserID:       e.UserID,
						SetAlias:     &text,
					}); err != nil {
						return err
					}
				}
				return nil
			})
		}
		count("text", "ignored")
		return nil
	})
}

func (m *Machine) commitLabel(ctx context.Context, s *session, e TextSubmission, cancel models.MessageRef, step string, write func(q storage.Queries) error) error {
	if err := m.store.InTx(ctx, write); err != nil {
		count(step, "error")
		m.say(ctx, e.ChatID, txtInternalError)
		return fmt.Errorf("workflow: write %s: %w", step, err)
	}
	m.retract(ctx, cancel)
	s.state = models.Idle{}
	count(step, "ok")
	m.say(ctx, e.ChatID, txtSucceeded)
	return nil
}

// RecordSelection appends a chosen inline result to the usage history.
func (m *Machine) RecordSelection(ctx context.Context, e Selection) error {
	if err := m.authorize(ctx, e.UserID); err != nil {
		return err
	}
	err := m.store.InsertChosen(ctx, models.Chosen{
		FileUniqueID: e.FileUniqueID,
		UserID:       e.UserID,
		ChosenAt:     m.now(),
	})
	if err != nil {
		return fmt.Errorf("workflow: record selection: %w", err)
	}
	return nil
}
