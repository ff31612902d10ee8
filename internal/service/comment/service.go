package comment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kirinyoku/wedgo/internal/access"
	"github.com/kirinyoku/wedgo/internal/apperr"
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/repository"
	redisrepo "github.com/kirinyoku/wedgo/internal/repository/redis"
	"github.com/kirinyoku/wedgo/internal/schema"
	"github.com/kirinyoku/wedgo/internal/service/shared"
	"github.com/kirinyoku/wedgo/internal/uow"
)

const (
	MaxTextLength = 1000

	// stored texts are URI-encoded and capped at this length
	maxEncodedLength = 3000
)

// Limiter throttles guest posts per client address.
type Limiter interface {
	Allow(ctx context.Context, id string) (redisrepo.Decision, error)
}

type Service struct {
	store   repository.Store
	uow     *uow.UoW
	gate    *access.Gate
	schema  *schema.Validator
	limiter Limiter
}

func New(store repository.Store, gate *access.Gate, v *schema.Validator, limiter Limiter) *Service {
	return &Service{
		store:   store,
		uow:     uow.NewUoW(store),
		gate:    gate,
		schema:  v,
		limiter: limiter,
	}
}

// List returns the comments decoded. Guests do not get other guests' tokens.
func (s *Service) List(ctx context.Context, actor access.Actor, id string) ([]domain.Comment, error) {
	const op = "service.comment.List"

	repo := s.store.Invitations()
	inv, err := repo.Get(ctx, id)
	if err != nil {
		return nil, shared.StoreError(op, err)
	}
	if err := s.gate.CanReadComments(actor, inv); err != nil {
		return nil, err
	}

	comments, err := repo.Comments(ctx, id)
	if err != nil {
		return nil, shared.StoreError(op, err)
	}

	owner := actor.UserID == inv.OwnerUserID
	out := make([]domain.Comment, len(comments))
	for i, c := range comments {
		out[i] = c.Decoded()
		if !owner {
			out[i].Token = ""
		}
	}
	return out, nil
}

type GuestPost struct {
	Slug     string            `json:"slug"`
	Token    string            `json:"token"`
	Text     string            `json:"text"`
	IsComing domain.Attendance `json:"isComing"`
}

// PostGuest appends a comment from the guest holding token. The alias is
// taken from the guest list, never from the request.
func (s *Service) PostGuest(ctx context.Context, actor access.Actor, id, clientIP string, in GuestPost) (domain.Comment, error) {
	const op = "service.comment.PostGuest"

	if s.limiter != nil && clientIP != "" {
		d, err := s.limiter.Allow(ctx, clientIP)
		if err != nil {
			return domain.Comment{}, apperr.Wrap(op, apperr.Internal, err, "")
		}
		if !d.Allowed {
			return domain.Comment{}, apperr.E(op, apperr.Limit,
				fmt.Sprintf("too many comments, try again in %s", d.RetryAfter.Round(time.Second)))
		}
	}

	text, err := cleanText(in.Text)
	if err != nil {
		return domain.Comment{}, apperr.Wrap(op, apperr.Validation, err, err.Error())
	}
	if in.IsComing == "" {
		in.IsComing = domain.AttendanceTBD
	}

	var posted domain.Comment
	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Invitations, _ func(uow.AfterCommit)) error {
		guests, err := tx.Guests(ctx, id)
		if err != nil {
			return err
		}

		g, err := s.gate.AuthorizeGuestWrite(actor, id, guests, in.Token, in.Slug)
		if err != nil {
			return err
		}

		posted = domain.Comment{
			Alias:    domain.EncodeURIComponent(g.Alias()),
			Text:     domain.EncodeURIComponent(text),
			Token:    g.Token,
			IsComing: in.IsComing,
		}
		return s.append(ctx, tx, id, posted)
	})
	if err != nil {
		return domain.Comment{}, shared.StoreError(op, err)
	}

	return posted.Decoded(), nil
}

type OwnerPost struct {
	Alias string `json:"alias"`
	Text  string `json:"text"`
}

// PostOwner appends a comment from the couple. An empty alias falls back to
// the invitation's display name.
func (s *Service) PostOwner(ctx context.Context, actor access.Actor, id string, in OwnerPost) (domain.Comment, error) {
	const op = "service.comment.PostOwner"

	text, err := cleanText(in.Text)
	if err != nil {
		return domain.Comment{}, apperr.Wrap(op, apperr.Validation, err, err.Error())
	}

	var posted domain.Comment
	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Invitations, _ func(uow.AfterCommit)) error {
		inv, err := s.gate.Owned(ctx, tx, actor, id)
		if err != nil {
			return err
		}

		alias := strings.TrimSpace(in.Alias)
		if alias == "" {
			alias = inv.DisplayName
		}

		posted = domain.Comment{
			Alias: domain.EncodeURIComponent(alias),
			Text:  domain.EncodeURIComponent(text),
		}
		return s.append(ctx, tx, id, posted)
	})
	if err != nil {
		return domain.Comment{}, shared.StoreError(op, err)
	}

	return posted.Decoded(), nil
}

// Replace overwrites the list with comments, given decoded.
func (s *Service) Replace(ctx context.Context, actor access.Actor, id string, comments []domain.Comment) ([]domain.Comment, error) {
	const op = "service.comment.Replace"

	encoded := make([]domain.Comment, len(comments))
	for i, c := range comments {
		c.Alias = domain.EncodeURIComponent(c.Alias)
		c.Text = domain.EncodeURIComponent(c.Text)
		encoded[i] = c
	}
	if err := s.schema.Comments(encoded); err != nil {
		return nil, apperr.Wrap(op, apperr.Validation, err, err.Error())
	}

	var saved []domain.Comment
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Invitations, _ func(uow.AfterCommit)) error {
		if _, err := s.gate.Owned(ctx, tx, actor, id); err != nil {
			return err
		}

		var err error
		saved, err = tx.UpdateComments(ctx, id, encoded)
		return err
	})
	if err != nil {
		return nil, shared.StoreError(op, err)
	}

	return decodeAll(saved), nil
}

// Delete removes one comment. With index set the comment at that position is
// removed, and must also carry alias when alias is given. Without index the
// first comment whose decoded alias equals alias is removed.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id, alias string, index *int) ([]domain.Comment, error) {
	const op = "service.comment.Delete"

	if index == nil && alias == "" {
		return nil, apperr.E(op, apperr.Validation, "alias or index is required")
	}

	var saved []domain.Comment
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Invitations, _ func(uow.AfterCommit)) error {
		if _, err := s.gate.Owned(ctx, tx, actor, id); err != nil {
			return err
		}

		comments, err := tx.Comments(ctx, id)
		if err != nil {
			return err
		}

		at := -1
		if index != nil {
			i := *index
			if i < 0 || i >= len(comments) {
				return apperr.E(op, apperr.NotFound, "comment not found")
			}
			if alias != "" && domain.DecodeURIComponent(comments[i].Alias) != alias {
				return apperr.E(op, apperr.NotFound, "comment not found")
			}
			at = i
		} else {
			for i, c := range comments {
				if domain.DecodeURIComponent(c.Alias) == alias {
					at = i
					break
				}
			}
			if at < 0 {
				return apperr.E(op, apperr.NotFound, "comment not found")
			}
		}

		rest := append(append([]domain.Comment{}, comments[:at]...), comments[at+1:]...)
		saved, err = tx.UpdateComments(ctx, id, rest)
		return err
	})
	if err != nil {
		return nil, shared.StoreError(op, err)
	}

	return decodeAll(saved), nil
}

func (s *Service) append(ctx context.Context, tx repository.Invitations, id string, c domain.Comment) error {
	const op = "service.comment.append"

	if err := s.schema.Comments([]domain.Comment{c}); err != nil {
		return apperr.Wrap(op, apperr.Validation, err, err.Error())
	}

	comments, err := tx.Comments(ctx, id)
	if err != nil {
		return err
	}
	_, err = tx.UpdateComments(ctx, id, append(comments, c))
	return err
}

func cleanText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("comment is empty")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return "", fmt.Errorf("comment is longer than %d characters", MaxTextLength)
	}
	if len(domain.EncodeURIComponent(text)) > maxEncodedLength {
		return "", errors.New("comment is too long")
	}
	return text, nil
}

func decodeAll(comments []domain.Comment) []domain.Comment {
	out := make([]domain.Comment, len(comments))
	for i, c := range comments {
		out[i] = c.Decoded()
	}
	return out
}
