package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentityRoundTrip(t *testing.T) {
	t.Parallel()

	hex := strings.Repeat("ab", IdentityLen)
	id, err := ParseIdentity(hex)
	require.NoError(t, err)
	assert.Equal(t, hex, id.String())
	assert.False(t, id.IsZero())
}

func TestParseIdentityErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not hex", "zz"},
		{"too short", "abcd"},
		{"too long", strings.Repeat("ab", IdentityLen+1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseIdentity(tc.input)
			assert.Error(t, err)
		})
	}
}

func TestIsZero(t *testing.T) {
	t.Parallel()

	var id Identity
	assert.True(t, id.IsZero())
	id[31] = 1
	assert.False(t, id.IsZero())
}

func TestMustParseIdentityPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { MustParseIdentity("nope") })
}
