package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroup(t *testing.T) {
	tt := []struct {
		name  string
		text  string
		group string
		ok    bool
	}{
		{name: "no group", text: "John Doe"},
		{name: "group", text: "(VIP) John Doe", group: "VIP", ok: true},
		{name: "padded", text: "  ( Best Friends )  Jane", group: "Best Friends", ok: true},
		{name: "empty group", text: "() Jane"},
		{name: "unterminated", text: "(VIP John"},
		{name: "group not leading", text: "John (VIP)"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			group, ok := ParseGroup(tc.text)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.group, group)
		})
	}
}

func TestNameWithoutGroup(t *testing.T) {
	assert.Equal(t, "John Doe", NameWithoutGroup("(VIP) John Doe"))
	assert.Equal(t, "John Doe", NameWithoutGroup("  John Doe "))
	assert.Equal(t, "(VIP John", NameWithoutGroup("(VIP John"))
}

func TestToSlugAndAlias(t *testing.T) {
	assert.Equal(t, "(VIP)-John-Doe", ToSlug("John Doe", "VIP"))
	assert.Equal(t, "John-Doe", ToSlug("John   Doe", ""))
	assert.Equal(t, "(Best-Friends)-Jane", ToSlug("Jane", "Best Friends"))

	assert.Equal(t, "(VIP) John Doe", ToAlias("(VIP)-John-Doe"))
	assert.Equal(t, "John Doe", AliasOf("(VIP)-John-Doe"))
	assert.Equal(t, "VIP", SlugGroup("(VIP)-John-Doe"))
	assert.Equal(t, "", SlugGroup("John-Doe"))
}

func TestSlugRoundTripIsIdempotent(t *testing.T) {
	names := []string{
		"John Doe",
		"(VIP)   John    Doe",
		"(Best Friends) Jane Smith",
		"Mary-Jane Watson",
		" Ahmad  Fauzi ",
	}

	for _, n := range names {
		group, _ := ParseGroup(n)
		slug := ToSlug(NameWithoutGroup(n), group)

		alias := ToAlias(slug)
		g2, _ := ParseGroup(alias)
		again := ToSlug(NameWithoutGroup(alias), g2)

		assert.Equal(t, slug, again, n)
	}
}

func TestValidateGuestName(t *testing.T) {
	valid := []string{
		"John Doe",
		"(VIP) John Doe",
		"(Family) Budi & Sari",
		"O'Neil",
	}
	for _, n := range valid {
		assert.NoError(t, ValidateGuestName(n), n)
	}

	invalid := []string{
		"",
		"Jo",
		"(VI) John",
		"John (VIP)",
		"(A) (B) John",
		"www example",
		"visit example.com",
		"John <script>",
		"(VIP John",
	}
	for _, n := range invalid {
		err := ValidateGuestName(n)
		require.Error(t, err, n)
		assert.ErrorIs(t, err, ErrGuestName, n)
	}
}

func TestURIComponent(t *testing.T) {
	enc := EncodeURIComponent("John Doe & co?")
	assert.Equal(t, "John%20Doe%20%26%20co%3F", enc)
	assert.Equal(t, "John Doe & co?", DecodeURIComponent(enc))
	assert.Equal(t, "100%", DecodeURIComponent("100%"))

	c := Comment{Alias: EncodeURIComponent("Jane"), Text: EncodeURIComponent("Selamat ya!")}.Decoded()
	assert.Equal(t, "Jane", c.Alias)
	assert.Equal(t, "Selamat ya!", c.Text)
}

func TestValidateGuestName_LengthBounds(t *testing.T) {
	assert.NoError(t, ValidateGuestName(strings.Repeat("a", MaxGuestName)))
	assert.ErrorIs(t, ValidateGuestName(strings.Repeat("a", MaxGuestName+1)), ErrGuestName)

	assert.NoError(t, ValidateGuestName("("+strings.Repeat("b", MaxGuestGroup)+") John Doe"))
	assert.ErrorIs(t, ValidateGuestName("("+strings.Repeat("b", MaxGuestGroup+1)+") John Doe"), ErrGuestName)

	// each of these runes encodes to nine bytes
	fits := strings.Repeat("漢", MaxAliasLength/9)
	require.NoError(t, ValidateGuestName(fits))
	assert.LessOrEqual(t, len(EncodeURIComponent(AliasOf(ToSlug(fits, "")))), MaxAliasLength)
	assert.ErrorIs(t, ValidateGuestName(fits+"漢"), ErrGuestName)
}
