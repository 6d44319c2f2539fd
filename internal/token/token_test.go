package token

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenFormat = regexp.MustCompile(`^[a-z0-9]{6}\.[a-z0-9]{16}$`)

func TestGenerate_Format(t *testing.T) {
	t.Parallel()

	tok, err := Generate()
	require.NoError(t, err)

	assert.Regexp(t, tokenFormat, tok.String())
	assert.Len(t, tok.ID(), 6)
	assert.Len(t, tok.Secret(), 16)
	assert.False(t, tok.IsZero())
}

func TestGenerate_NoCollisions(t *testing.T) {
	t.Parallel()

	const samples = 2000
	seen := make(map[string]bool, samples)
	for i := 0; i < samples; i++ {
		tok, err := Generate()
		require.NoError(t, err)
		require.Regexp(t, tokenFormat, tok.String())
		require.False(t, seen[tok.String()], "duplicate token %s", tok)
		seen[tok.String()] = true
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "abcdef.0123456789abcdef", false},
		{"uppercase", "ABCDEF.0123456789abcdef", true},
		{"short id", "abcde.0123456789abcdef", true},
		{"short secret", "abcdef.0123456789abcde", true},
		{"no separator", "abcdef0123456789abcdef", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tok, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidToken))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "abcdef", tok.ID())
			assert.Equal(t, "0123456789abcdef", tok.Secret())
			assert.Equal(t, tt.input, tok.String())
		})
	}
}

func TestRedacted(t *testing.T) {
	t.Parallel()

	tok, err := Parse("abcdef.0123456789abcdef")
	require.NoError(t, err)
	assert.Equal(t, "abcdef.****************", tok.Redacted())
	assert.Equal(t, "", Token{}.Redacted())
	assert.Equal(t, "", Token{}.String())
}

func TestSet_AppendAndCurrent(t *testing.T) {
	t.Parallel()

	var set Set
	_, ok := set.Current()
	assert.False(t, ok)

	first, _ := Parse("aaaaaa.aaaaaaaaaaaaaaaa")
	second, _ := Parse("bbbbbb.bbbbbbbbbbbbbbbb")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	v1 := set.Append(first, now)
	v2 := set.Append(second, now.Add(time.Hour))

	assert.Equal(t, 1, v1.Version)
	assert.Equal(t, 2, v2.Version)

	current, ok := set.Current()
	require.True(t, ok)
	assert.Equal(t, 2, current.Version)

	tok, err := set.CurrentToken()
	require.NoError(t, err)
	assert.Equal(t, second, tok)

	// Earlier versions are never rewritten.
	assert.Equal(t, first.String(), set.Versions[0].Token)
	assert.NoError(t, set.Validate())
}

func TestSet_CurrentIgnoresOrder(t *testing.T) {
	t.Parallel()

	set := Set{Versions: []Version{
		{Version: 3, Token: "cccccc.cccccccccccccccc"},
		{Version: 1, Token: "aaaaaa.aaaaaaaaaaaaaaaa"},
	}}
	current, ok := set.Current()
	require.True(t, ok)
	assert.Equal(t, 3, current.Version)
}

func TestSet_Validate(t *testing.T) {
	t.Parallel()

	dup := Set{Versions: []Version{
		{Version: 1, Token: "aaaaaa.aaaaaaaaaaaaaaaa"},
		{Version: 1, Token: "bbbbbb.bbbbbbbbbbbbbbbb"},
	}}
	assert.ErrorContains(t, dup.Validate(), "more than once")

	zero := Set{Versions: []Version{{Version: 0, Token: "aaaaaa.aaaaaaaaaaaaaaaa"}}}
	assert.ErrorContains(t, zero.Validate(), "versions start at 1")

	bad := Set{Versions: []Version{{Version: 1, Token: "nope"}}}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidToken)
}
