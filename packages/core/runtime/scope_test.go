package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeLocalFirst(t *testing.T) {
	parent := NewScope(nil)
	parent.Set("a", 1)
	parent.Set("b", 2)

	child := NewScope(parent)
	child.Set("a", 10)

	v, ok := child.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 10, v, "local binding shadows parent")

	v, ok = child.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v, "parent chain is visible")

	v, ok = parent.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v, "child writes never touch the parent")

	_, ok = child.Get("missing")
	assert.False(t, ok)
}

func TestScopeNamesOrderedAndDeduped(t *testing.T) {
	parent := NewScope(nil)
	parent.Set("a", 1)
	parent.Set("b", 2)

	child := NewScope(parent)
	child.Set("c", 3)
	child.Set("b", 20)
	child.Set("c", 30)

	assert.Equal(t, []string{"a", "c", "b"}, child.Names())
	assert.Equal(t, map[string]any{"a": 1, "b": 20, "c": 30}, child.Flatten())
}

func TestScopeHas(t *testing.T) {
	s := NewScope(nil)
	s.Set("x", nil)
	assert.True(t, s.Has("x"), "a nil binding still exists")
	assert.False(t, s.Has("y"))
}
