package editor

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/schema"
)

type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
	Schema   *schema.Validator
	Tokens   *domain.TokenRegistry
}

// Editor is one open invitation: a Field per editable slice, the guest
// sheet and the gallery uploader, all confirming into the same State.
type Editor struct {
	ID    string
	State *State

	DisplayName *Field[string]
	Stories     *Field[string]
	Surprise    *Field[string]
	Couple      *Field[[]domain.Person]
	Events      *Field[[]domain.Event]
	Galleries   *Field[[]domain.Asset]
	Loadout     *Field[domain.Loadout]
	Music       *Field[*domain.Asset]
	Status      *Field[domain.Status]

	Guests  *GuestSheet
	Uploads *Uploader

	closers []func()
	flushes []func() error
}

// Open loads invitation id and its guests into state.
func Open(ctx context.Context, c *Client, state *State, id string, opts Options) (*Editor, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Schema == nil {
		opts.Schema = schema.New()
	}
	if state == nil {
		state = NewState()
	}

	inv, err := c.Invitation(ctx, id)
	if err != nil {
		return nil, err
	}
	state.PutInvitation(*inv)

	v := opts.Schema
	e := &Editor{ID: id, State: state}

	e.DisplayName = field(e, opts, id, "display-name", inv.DisplayName, v.DisplayName, RollbackKeep,
		func(inv *domain.Invitation, s string) { inv.DisplayName = s }, c)
	e.Stories = field(e, opts, id, "stories", inv.Stories, v.Stories, RollbackKeep,
		func(inv *domain.Invitation, s string) { inv.Stories = s }, c)
	e.Surprise = field(e, opts, id, "surprise", inv.Surprise, v.Surprise, RollbackKeep,
		func(inv *domain.Invitation, s string) { inv.Surprise = s }, c)
	e.Couple = field(e, opts, id, "couple", inv.Couple, v.Couple, RollbackRevert,
		func(inv *domain.Invitation, p []domain.Person) { inv.Couple = p }, c)
	e.Events = field(e, opts, id, "events", inv.Events, v.Events, RollbackKeep,
		func(inv *domain.Invitation, ev []domain.Event) { inv.Events = ev }, c)
	e.Galleries = field(e, opts, id, "galleries", inv.Galleries, v.Galleries, RollbackKeep,
		func(inv *domain.Invitation, g []domain.Asset) { inv.Galleries = g }, c)
	e.Loadout = field(e, opts, id, "loadout", inv.Loadout, v.Loadout, RollbackKeep,
		func(inv *domain.Invitation, l domain.Loadout) { inv.Loadout = l }, c)
	e.Music = field(e, opts, id, "music", inv.Music, v.Music, RollbackKeep,
		func(inv *domain.Invitation, m *domain.Asset) { inv.Music = m }, c)

	// status flips are a single click, no debounce
	statusOpts := opts
	statusOpts.Debounce = -1
	e.Status = field(e, statusOpts, id, "status", inv.Status, v.Status, RollbackRevert,
		func(inv *domain.Invitation, s domain.Status) { inv.Status = s }, c)

	e.Guests = NewGuestSheet(id, c, state, opts.Tokens)
	if err := e.Guests.Load(ctx); err != nil {
		e.Close()
		return nil, err
	}

	e.Uploads = NewUploader(id, c, e.Galleries)
	e.closers = append(e.closers, e.Uploads.Cancel)

	return e, nil
}

func field[T any](
	e *Editor,
	opts Options,
	id string,
	slice string,
	initial T,
	validate func(T) error,
	rollback RollbackPolicy,
	apply func(*domain.Invitation, T),
	c *Client,
) *Field[T] {
	f := NewField(initial, FieldConfig[T]{
		Name:     slice,
		Validate: validate,
		Write:    PatchWriter[T](c, id, slice),
		Rollback: rollback,
		Debounce: opts.Debounce,
		Logger:   opts.Logger,
		Saved: func(v T) {
			e.State.UpdateInvitation(id, func(inv *domain.Invitation) { apply(inv, v) })
		},
	})
	e.closers = append(e.closers, f.Close)
	e.flushes = append(e.flushes, f.Flush)
	return f
}

// Flush sends every pending write and returns the first error.
func (e *Editor) Flush() error {
	var first error
	for _, fl := range e.flushes {
		if err := fl(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close cancels the running upload and every pending or in-flight write.
func (e *Editor) Close() {
	for _, c := range e.closers {
		c()
	}
}
