package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_EmptyRuleAcceptsAll(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)

	ok, err := e.Allow("", "anything-at-all")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_LengthRule(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)

	ok, err := e.Allow(`size(id) == 15`, "123456789012345")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Allow(`size(id) == 15`, "1234")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllow_PrefixRule(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)

	expr := `id.startsWith("35") && id.matches("^[0-9]+$")`

	ok, err := e.Allow(expr, "352099001761481")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Allow(expr, "35abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompile_Invalid(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)

	_, err = e.Compile(`size(`)
	require.Error(t, err)
}

func TestCompile_Cached(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)

	r1, err := e.Compile(`size(id) > 3`)
	require.NoError(t, err)
	r2, err := e.Compile(`size(id) > 3`)
	require.NoError(t, err)

	assert.Same(t, r1, r2)
}

func TestAllow_NonBoolRejects(t *testing.T) {
	e, err := NewEngine()
	require.NoError(t, err)

	_, err = e.Allow(`size(id)`, "1234")
	require.Error(t, err)
}
