package react

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shapeOf(names ...string) Members {
	ms := make(Members, len(names))
	for i, n := range names {
		ms[i] = Constant(n, i)
	}
	return ms
}

func TestTraverse(t *testing.T) {
	t.Run("visits members in declared order", func(t *testing.T) {
		visited := []string{}

		out, err := shapeOf("a", "b", "c").Traverse(func(name string, m *Member) (*Member, error) {
			visited = append(visited, name)
			return m, nil
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b", "c"}, visited)
		assert.Len(t, out, 3)
	})

	t.Run("the first error aborts", func(t *testing.T) {
		boom := errors.New("boom")
		visited := 0

		_, err := shapeOf("a", "b", "c").Traverse(func(name string, m *Member) (*Member, error) {
			visited++
			if name == "b" {
				return nil, boom
			}
			return m, nil
		})

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 2, visited)
	})
}

func TestWalk(t *testing.T) {
	t.Run("aggregates by and over all members", func(t *testing.T) {
		assert.True(t, shapeOf("a", "b").Walk(func(string, *Member) bool { return true }))
	})

	t.Run("one refusal fails the walk but visits everyone", func(t *testing.T) {
		visited := 0

		ok := shapeOf("a", "b", "c").Walk(func(name string, _ *Member) bool {
			visited++
			return name != "b"
		})

		assert.False(t, ok)
		assert.Equal(t, 3, visited)
	})
}

func TestValidateShape(t *testing.T) {
	t.Run("accepts a well formed shape", func(t *testing.T) {
		assert.NoError(t, validateShape(shapeOf("a", "b")))
	})

	t.Run("rejects structural violations", func(t *testing.T) {
		for name, ms := range map[string]Members{
			"empty":          {},
			"nil member":     {Constant("a", 1), nil},
			"unnamed member": {Constant("", 1)},
			"duplicate name": {Constant("a", 1), Constant("a", 2)},
		} {
			t.Run(name, func(t *testing.T) {
				assert.ErrorIs(t, validateShape(ms), ErrBadShape)
			})
		}
	})
}

func TestShapeTag(t *testing.T) {
	t.Run("same names and kinds match", func(t *testing.T) {
		a := Members{Constant("x", 1), Mutable("y", func(_ *Self, in *MutableIn[int]) *Behavior[int] {
			return Hold(0, in.Changes)
		})}
		b := Members{Constant("x", 99), Mutable("y", func(_ *Self, in *MutableIn[string]) *Behavior[string] {
			return Hold("", in.Changes)
		})}

		assert.Equal(t, shapeTag(a), shapeTag(b))
	})

	t.Run("kind changes break compatibility", func(t *testing.T) {
		a := Members{Constant("x", 1)}
		b := Members{ReadOnly("x", func(*Self) *Behavior[int] {
			return Derive(func() int { return 1 })
		})}

		assert.NotEqual(t, shapeTag(a), shapeTag(b))
	})

	t.Run("order matters", func(t *testing.T) {
		assert.NotEqual(t, shapeTag(shapeOf("a", "b")), shapeTag(shapeOf("b", "a")))
	})
}
