package domain

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var ErrGuestName = errors.New("invalid guest name")

var (
	guestNamePattern = regexp.MustCompile(`^[\p{L}\p{N}\s().,'&-]+$`)
	wordPattern      = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N}\s.,'&-]*$`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

const minNamePart = 3

// ParseGroup returns the label of a leading "(group)" segment.
func ParseGroup(text string) (string, bool) {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "(") {
		return "", false
	}

	end := strings.Index(t, ")")
	if end < 0 {
		return "", false
	}

	group := strings.TrimSpace(t[1:end])
	if group == "" {
		return "", false
	}

	return group, true
}

// NameWithoutGroup strips a leading "(group)" segment.
func NameWithoutGroup(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "(") {
		return t
	}

	end := strings.Index(t, ")")
	if end < 0 {
		return t
	}

	return strings.TrimSpace(t[end+1:])
}

// ToSlug joins group and name as "(group) name" and hyphenates whitespace.
func ToSlug(name, group string) string {
	s := strings.TrimSpace(name)
	if group != "" {
		s = "(" + strings.TrimSpace(group) + ") " + s
	}

	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), "-")
}

// ToAlias turns hyphens back into spaces. Names that contained a literal
// hyphen do not survive the round trip.
func ToAlias(slug string) string {
	return strings.ReplaceAll(slug, "-", " ")
}

// SlugGroup returns the group label embedded in a slug, if any.
func SlugGroup(slug string) string {
	g, _ := ParseGroup(ToAlias(slug))
	return g
}

// AliasOf is the alias shown on comments: the slug rendered with spaces and
// without its group.
func AliasOf(slug string) string {
	return NameWithoutGroup(ToAlias(slug))
}

// ValidateGuestName checks a typed guest name, including an optional
// "(group)" prefix.
func ValidateGuestName(text string) error {
	t := strings.TrimSpace(text)
	if t == "" {
		return fmt.Errorf("%w: name is required", ErrGuestName)
	}

	if !guestNamePattern.MatchString(t) {
		return fmt.Errorf("%w: %q contains unsupported characters", ErrGuestName, t)
	}

	opens, closes := strings.Count(t, "("), strings.Count(t, ")")
	if opens > 1 || closes > 1 || opens != closes {
		return fmt.Errorf("%w: only one group in parentheses is allowed", ErrGuestName)
	}

	if opens == 1 {
		if !strings.HasPrefix(t, "(") {
			return fmt.Errorf("%w: group must come first", ErrGuestName)
		}

		group, ok := ParseGroup(t)
		if !ok {
			return fmt.Errorf("%w: group is empty", ErrGuestName)
		}

		if err := validateNamePart("group", group, MaxGuestGroup); err != nil {
			return err
		}
	}

	name := NameWithoutGroup(t)
	if err := validateNamePart("name", name, MaxGuestName); err != nil {
		return err
	}

	// the alias a comment from this guest carries must fit its column
	if len(EncodeURIComponent(AliasOf(ToSlug(name, "")))) > MaxAliasLength {
		return fmt.Errorf("%w: name is too long", ErrGuestName)
	}

	return nil
}

func validateNamePart(part, s string, maxLen int) error {
	n := utf8.RuneCountInString(s)
	if n < minNamePart {
		return fmt.Errorf("%w: %s must be at least %d characters", ErrGuestName, part, minNamePart)
	}
	if n > maxLen {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrGuestName, part, maxLen)
	}

	if !wordPattern.MatchString(s) {
		return fmt.Errorf("%w: %s %q is not a valid name", ErrGuestName, part, s)
	}

	lower := strings.ToLower(s)
	if strings.Contains(lower, "www") || strings.Contains(lower, "com") {
		return fmt.Errorf("%w: %s must not look like a link", ErrGuestName, part)
	}

	return nil
}

// EncodeURIComponent encodes s the way comment aliases and texts are stored.
func EncodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// DecodeURIComponent reverses EncodeURIComponent; undecodable input is
// returned unchanged.
func DecodeURIComponent(s string) string {
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}
