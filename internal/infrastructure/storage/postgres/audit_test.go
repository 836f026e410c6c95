package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	oldState := map[string]any{"name": "a", "price": 100, "gone": true}
	newState := map[string]any{"name": "b", "price": 100, "added": 1}

	changes := Diff(oldState, newState)

	assert.Equal(t, map[string]any{"old": "a", "new": "b"}, changes["name"])
	assert.Equal(t, map[string]any{"old": true, "new": nil}, changes["gone"])
	assert.Equal(t, map[string]any{"old": nil, "new": 1}, changes["added"])
	assert.NotContains(t, changes, "price")
}
