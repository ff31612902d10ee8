// Package schema validates invitation slices. The same checks run on values
// coming in from requests and on values read back from the store.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kirinyoku/wedgo/internal/domain"
)

var (
	hhmmPattern    = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	invNamePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

const (
	MinInvitationName = 7
	MaxInvitationName = 21
)

// Validator wraps validator.Validate with the invitation tags registered.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmmPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("invname", func(fl validator.FieldLevel) bool {
		return ValidInvitationName(fl.Field().String())
	})
	_ = v.RegisterValidation("guestname", func(fl validator.FieldLevel) bool {
		return domain.ValidateGuestName(fl.Field().String()) == nil
	})

	return &Validator{v: v}
}

// Engine exposes the underlying validator, e.g. to share it with gin binding.
func (s *Validator) Engine() *validator.Validate {
	return s.v
}

func ValidInvitationName(name string) bool {
	return len(name) >= MinInvitationName &&
		len(name) <= MaxInvitationName &&
		invNamePattern.MatchString(name)
}

func (s *Validator) Invitation(inv *domain.Invitation) error {
	return s.check(s.v.Struct(inv))
}

func (s *Validator) Guests(guests []domain.Guest) error {
	if err := s.check(s.v.Var(guests, "dive")); err != nil {
		return err
	}

	slugs := make(map[string]struct{}, len(guests))
	tokens := make(map[string]struct{}, len(guests))
	for _, g := range guests {
		if _, dup := slugs[g.Slug]; dup {
			return fmt.Errorf("guests: duplicate slug %q", g.Slug)
		}
		if _, dup := tokens[g.Token]; dup {
			return fmt.Errorf("guests: duplicate token %q", g.Token)
		}
		slugs[g.Slug] = struct{}{}
		tokens[g.Token] = struct{}{}
	}
	return nil
}

func (s *Validator) Comments(comments []domain.Comment) error {
	return s.check(s.v.Var(comments, "dive"))
}

func (s *Validator) Events(events []domain.Event) error {
	if err := s.check(s.v.Var(events, fmt.Sprintf("min=1,max=%d,dive", domain.MaxEvent))); err != nil {
		return err
	}

	ids := make(map[int]struct{}, len(events))
	for _, e := range events {
		if _, dup := ids[e.ID]; dup {
			return fmt.Errorf("events: duplicate id %d", e.ID)
		}
		ids[e.ID] = struct{}{}
		if e.Date.IsZero() {
			return fmt.Errorf("events: %q has no date", e.EventName)
		}
		if e.TimeEnd != "" && e.TimeEnd <= e.TimeStart {
			return fmt.Errorf("events: %q ends before it starts", e.EventName)
		}
	}
	return nil
}

func (s *Validator) Couple(couple []domain.Person) error {
	return s.check(s.v.Var(couple, fmt.Sprintf("max=%d,dive", domain.MaxCouple)))
}

func (s *Validator) Galleries(galleries []domain.Asset) error {
	return s.check(s.v.Var(galleries, "max=24,dive"))
}

func (s *Validator) Loadout(l domain.Loadout) error {
	return s.check(s.v.Struct(l))
}

func (s *Validator) Music(a *domain.Asset) error {
	if a == nil {
		return nil
	}
	return s.check(s.v.Struct(a))
}

func (s *Validator) DisplayName(name string) error {
	return s.check(s.v.Var(strings.TrimSpace(name), "required,max=64"))
}

func (s *Validator) Stories(md string) error {
	return s.check(s.v.Var(md, "max=20000"))
}

func (s *Validator) Surprise(md string) error {
	return s.check(s.v.Var(md, "max=5000"))
}

func (s *Validator) Status(st domain.Status) error {
	return s.check(s.v.Var(string(st), "oneof=draft live"))
}

func (s *Validator) Payments(payments []domain.Payment) error {
	return s.check(s.v.Var(payments, "dive"))
}

// check flattens validator errors into one readable message per field.
func (s *Validator) check(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := e.Namespace()
		if field == "" {
			field = e.Field()
		}
		msg := fmt.Sprintf("%s failed %q", strings.ToLower(field), e.Tag())
		if e.Param() != "" {
			msg += "=" + e.Param()
		}
		msgs = append(msgs, msg)
	}
	return errors.New(strings.Join(msgs, "; "))
}
