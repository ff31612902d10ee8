package postgresrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/repository"
	"github.com/kirinyoku/wedgo/internal/schema"
)

const detailColumns = `id, owner_user_id, name, display_name, status, couple, events,
	galleries, loadout, stories, surprise, music, created_at, updated_at`

type InvitationRepo struct {
	pool   *pgxpool.Pool
	db     DB
	table  string
	schema *schema.Validator
}

func (r *InvitationRepo) With(db DB) *InvitationRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *InvitationRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// t returns the quoted table name for use in SQL.
func (r *InvitationRepo) t() string {
	return pgx.Identifier{r.table}.Sanitize()
}

func (r *InvitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	const op = "postgresrepo.InvitationRepo.Create"

	var span trace.Span
	ctx, span = tracer.Start(ctx, "InvitationRepo.Create")
	defer span.End()

	cols, err := marshalAll(inv.Couple, inv.Events, inv.Galleries, inv.Loadout)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%s: %w", op, err)
	}
	music, err := marshalNullable(inv.Music)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%s: %w", op, err)
	}

	err = r.handle().QueryRow(ctx,
		`INSERT INTO `+r.t()+` (id, owner_user_id, name, display_name, status,
			couple, events, galleries, loadout, stories, surprise, music)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING created_at, updated_at`,
		inv.ID, inv.OwnerUserID, inv.Name, inv.DisplayName, string(inv.Status),
		cols[0], cols[1], cols[2], cols[3], inv.Stories, inv.Surprise, music,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *InvitationRepo) Get(ctx context.Context, id string) (*domain.Invitation, error) {
	const op = "postgresrepo.InvitationRepo.Get"

	var span trace.Span
	ctx, span = tracer.Start(ctx, "InvitationRepo.Get")
	defer span.End()

	inv, err := r.scanInvitation(r.handle().QueryRow(ctx,
		`SELECT `+detailColumns+` FROM `+r.t()+` WHERE id = $1`, id,
	))
	if err != nil {
		span.RecordError(err)
		return nil, wrapDBErr(op, err)
	}

	return inv, nil
}

func (r *InvitationRepo) GetByName(ctx context.Context, name string) (*domain.Invitation, error) {
	const op = "postgresrepo.InvitationRepo.GetByName"

	var span trace.Span
	ctx, span = tracer.Start(ctx, "InvitationRepo.GetByName")
	defer span.End()

	inv, err := r.scanInvitation(r.handle().QueryRow(ctx,
		`SELECT `+detailColumns+` FROM `+r.t()+` WHERE name = $1`, name,
	))
	if err != nil {
		span.RecordError(err)
		return nil, wrapDBErr(op, err)
	}

	return inv, nil
}

func (r *InvitationRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Invitation, error) {
	const op = "postgresrepo.InvitationRepo.ListByOwner"

	var span trace.Span
	ctx, span = tracer.Start(ctx, "InvitationRepo.ListByOwner")
	defer span.End()

	rows, err := r.handle().Query(ctx,
		`SELECT `+detailColumns+` FROM `+r.t()+`
		 WHERE owner_user_id = $1
		 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		span.RecordError(err)
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	out := make([]domain.Invitation, 0)
	for rows.Next() {
		inv, err := r.scanInvitation(rows)
		if err != nil {
			span.RecordError(err)
			return nil, wrapDBErr(op, err)
		}
		out = append(out, *inv)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *InvitationRepo) CountDrafts(ctx context.Context, ownerID string) (int, error) {
	const op = "postgresrepo.InvitationRepo.CountDrafts"

	var n int
	err := r.handle().QueryRow(ctx,
		`SELECT count(*) FROM `+r.t()+` WHERE owner_user_id = $1 AND status = $2`,
		ownerID, string(domain.StatusDraft),
	).Scan(&n)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return n, nil
}

func (r *InvitationRepo) NameExists(ctx context.Context, name string) (bool, error) {
	const op = "postgresrepo.InvitationRepo.NameExists"

	var exists bool
	err := r.handle().QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+r.t()+` WHERE name = $1)`, name,
	).Scan(&exists)
	if err != nil {
		return false, wrapDBErr(op, err)
	}

	return exists, nil
}

func (r *InvitationRepo) Delete(ctx context.Context, id string) error {
	const op = "postgresrepo.InvitationRepo.Delete"

	var span trace.Span
	ctx, span = tracer.Start(ctx, "InvitationRepo.Delete")
	defer span.End()

	tag, err := r.handle().Exec(ctx, `DELETE FROM `+r.t()+` WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *InvitationRepo) Guests(ctx context.Context, id string) ([]domain.Guest, error) {
	return selectJSON(ctx, r, "Guests", "guests", id, r.schema.Guests)
}

func (r *InvitationRepo) Comments(ctx context.Context, id string) ([]domain.Comment, error) {
	return selectJSON(ctx, r, "Comments", "comments", id, r.schema.Comments)
}

func (r *InvitationRepo) Payments(ctx context.Context, id string) ([]domain.Payment, error) {
	return selectJSON(ctx, r, "Payments", "payment", id, r.schema.Payments)
}

func (r *InvitationRepo) UpdateGuests(ctx context.Context, id string, guests []domain.Guest) ([]domain.Guest, error) {
	return updateJSON(ctx, r, "UpdateGuests", "guests", id, nonNil(guests), r.schema.Guests)
}

func (r *InvitationRepo) UpdateComments(ctx context.Context, id string, comments []domain.Comment) ([]domain.Comment, error) {
	return updateJSON(ctx, r, "UpdateComments", "comments", id, nonNil(comments), r.schema.Comments)
}

func (r *InvitationRepo) UpdateEvents(ctx context.Context, id string, events []domain.Event) ([]domain.Event, error) {
	return updateJSON(ctx, r, "UpdateEvents", "events", id, nonNil(events), r.schema.Events)
}

func (r *InvitationRepo) UpdateCouple(ctx context.Context, id string, couple []domain.Person) ([]domain.Person, error) {
	return updateJSON(ctx, r, "UpdateCouple", "couple", id, nonNil(couple), r.schema.Couple)
}

func (r *InvitationRepo) UpdateGalleries(ctx context.Context, id string, galleries []domain.Asset) ([]domain.Asset, error) {
	return updateJSON(ctx, r, "UpdateGalleries", "galleries", id, nonNil(galleries), r.schema.Galleries)
}

func (r *InvitationRepo) UpdateLoadout(ctx context.Context, id string, loadout domain.Loadout) (domain.Loadout, error) {
	return updateJSON(ctx, r, "UpdateLoadout", "loadout", id, loadout, r.schema.Loadout)
}

func (r *InvitationRepo) UpdateMusic(ctx context.Context, id string, music *domain.Asset) (*domain.Asset, error) {
	return updateJSON(ctx, r, "UpdateMusic", "music", id, music, r.schema.Music)
}

func (r *InvitationRepo) UpdateDisplayName(ctx context.Context, id string, name string) (string, error) {
	return updateText(ctx, r, "UpdateDisplayName", "display_name", id, name, r.schema.DisplayName)
}

func (r *InvitationRepo) UpdateStories(ctx context.Context, id string, md string) (string, error) {
	return updateText(ctx, r, "UpdateStories", "stories", id, md, r.schema.Stories)
}

func (r *InvitationRepo) UpdateSurprise(ctx context.Context, id string, md string) (string, error) {
	return updateText(ctx, r, "UpdateSurprise", "surprise", id, md, r.schema.Surprise)
}

func (r *InvitationRepo) UpdateStatus(ctx context.Context, id string, status domain.Status) (domain.Status, error) {
	s, err := updateText(ctx, r, "UpdateStatus", "status", id, string(status), func(s string) error {
		return r.schema.Status(domain.Status(s))
	})
	return domain.Status(s), err
}

// AppendPayment adds p to the end of the payment list in one statement, so
// concurrent appends never overwrite each other.
func (r *InvitationRepo) AppendPayment(ctx context.Context, id string, p domain.Payment) ([]domain.Payment, error) {
	const op = "postgresrepo.InvitationRepo.AppendPayment"

	var span trace.Span
	ctx, span = tracer.Start(ctx, "InvitationRepo.AppendPayment")
	defer span.End()

	b, err := json.Marshal([]domain.Payment{p})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var raw []byte
	err = r.handle().QueryRow(ctx,
		`UPDATE `+r.t()+`
		 SET payment = payment || $2::jsonb, updated_at = now()
		 WHERE id = $1
		 RETURNING payment`,
		id, b,
	).Scan(&raw)
	if err != nil {
		span.RecordError(err)
		return nil, wrapDBErr(op, err)
	}

	var out []domain.Payment
	if err := confirm(raw, &out, r.schema.Payments); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (r *InvitationRepo) scanInvitation(row pgx.Row) (*domain.Invitation, error) {
	var (
		inv                                domain.Invitation
		status                             string
		couple, events, galleries, loadout []byte
		music                              []byte
		createdAt, updatedAt               time.Time
	)

	err := row.Scan(
		&inv.ID, &inv.OwnerUserID, &inv.Name, &inv.DisplayName, &status,
		&couple, &events, &galleries, &loadout,
		&inv.Stories, &inv.Surprise, &music, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.Status = domain.Status(status)
	inv.CreatedAt, inv.UpdatedAt = createdAt, updatedAt

	for _, c := range []struct {
		raw []byte
		dst any
	}{
		{couple, &inv.Couple},
		{events, &inv.Events},
		{galleries, &inv.Galleries},
		{loadout, &inv.Loadout},
	} {
		if err := json.Unmarshal(c.raw, c.dst); err != nil {
			return nil, fmt.Errorf("%w: %v", repository.ErrCorrupt, err)
		}
	}
	if len(music) > 0 {
		if err := json.Unmarshal(music, &inv.Music); err != nil {
			return nil, fmt.Errorf("%w: %v", repository.ErrCorrupt, err)
		}
	}

	if err := r.schema.Invitation(&inv); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrCorrupt, err)
	}

	return &inv, nil
}

// selectJSON reads one jsonb column of invitation id.
func selectJSON[T any](
	ctx context.Context,
	r *InvitationRepo,
	method, column, id string,
	check func(T) error,
) (T, error) {
	op := "postgresrepo.InvitationRepo." + method

	var span trace.Span
	ctx, span = tracer.Start(ctx, "InvitationRepo."+method)
	defer span.End()

	var (
		zero T
		raw  []byte
	)
	err := r.handle().QueryRow(ctx,
		`SELECT `+column+` FROM `+r.t()+` WHERE id = $1`, id,
	).Scan(&raw)
	if err != nil {
		span.RecordError(err)
		return zero, wrapDBErr(op, err)
	}

	var out T
	if err := confirm(raw, &out, check); err != nil {
		span.RecordError(err)
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// updateJSON replaces one jsonb column and returns the value as stored.
func updateJSON[T any](
	ctx context.Context,
	r *InvitationRepo,
	method, column, id string,
	v T,
	check func(T) error,
) (T, error) {
	op := "postgresrepo.InvitationRepo." + method

	var span trace.Span
	ctx, span = tracer.Start(ctx, "InvitationRepo."+method)
	defer span.End()

	var zero T

	b, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	var raw []byte
	err = r.handle().QueryRow(ctx,
		`UPDATE `+r.t()+`
		 SET `+column+` = $2::jsonb, updated_at = now()
		 WHERE id = $1
		 RETURNING `+column,
		id, b,
	).Scan(&raw)
	if err != nil {
		span.RecordError(err)
		return zero, wrapDBErr(op, err)
	}

	var out T
	if err := confirm(raw, &out, check); err != nil {
		span.RecordError(err)
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// updateText replaces one text column and returns the value as stored.
func updateText(
	ctx context.Context,
	r *InvitationRepo,
	method, column, id, v string,
	check func(string) error,
) (string, error) {
	op := "postgresrepo.InvitationRepo." + method

	var span trace.Span
	ctx, span = tracer.Start(ctx, "InvitationRepo."+method)
	defer span.End()

	var out string
	err := r.handle().QueryRow(ctx,
		`UPDATE `+r.t()+`
		 SET `+column+` = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+column,
		id, v,
	).Scan(&out)
	if err != nil {
		span.RecordError(err)
		return "", wrapDBErr(op, err)
	}

	if err := check(out); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%s: %w: %v", op, repository.ErrCorrupt, err)
	}

	return out, nil
}

// confirm decodes a stored jsonb value and runs the read-side validation on it.
func confirm[T any](raw []byte, dst *T, check func(T) error) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrCorrupt, err)
		}
	}
	if err := check(*dst); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrCorrupt, err)
	}
	return nil
}

func marshalAll(vs ...any) ([][]byte, error) {
	out := make([][]byte, len(vs))
	for i, v := range vs {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// marshalNullable encodes nil as SQL NULL rather than JSON null.
func marshalNullable[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// nonNil keeps empty slices stored as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
