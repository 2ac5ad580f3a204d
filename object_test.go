package react

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bennofs/hsqml-react/registry"
)

func counterDef(self *Self) Members {
	count := Mutable("count", func(_ *Self, in *MutableIn[int]) *Behavior[int] {
		return Hold(0, in.Changes)
	})

	double := ReadOnly("double", func(self *Self) *Behavior[int] {
		c := SelfBehavior[int](self, "count")
		return Derive(func() int { return c.Sample() * 2 })
	})

	return Members{count, double}
}

func TestNew(t *testing.T) {
	t.Run("registers a class and instance", func(t *testing.T) {
		m := registry.NewMem()

		obj, err := New(m, counterDef)
		require.NoError(t, err)
		assert.NotEmpty(t, obj.Handle().ID())

		v, err := m.ReadProperty(obj.Handle(), "count")
		require.NoError(t, err)
		assert.Equal(t, 0, v)

		v, err = m.ReadProperty(obj.Handle(), "double")
		require.NoError(t, err)
		assert.Equal(t, 0, v)
	})

	t.Run("constants expose their value", func(t *testing.T) {
		m := registry.NewMem()

		obj, err := New(m, func(*Self) Members {
			return Members{Constant("version", "1.0")}
		})
		require.NoError(t, err)

		v, err := m.ReadProperty(obj.Handle(), "version")
		require.NoError(t, err)
		assert.Equal(t, "1.0", v)
	})

	t.Run("rejects empty definitions", func(t *testing.T) {
		m := registry.NewMem()

		_, err := New(m, func(*Self) Members { return nil })
		assert.ErrorIs(t, err, ErrBadShape)
	})

	t.Run("rejects duplicate member names", func(t *testing.T) {
		m := registry.NewMem()

		_, err := New(m, func(*Self) Members {
			return Members{Constant("x", 1), Constant("x", 2)}
		})
		assert.ErrorIs(t, err, ErrBadShape)
	})

	t.Run("rejects callables that cannot cross the boundary", func(t *testing.T) {
		m := registry.NewMem()

		_, err := New(m, func(*Self) Members {
			return Members{Callable("bad", func(_ *Self, _ *CallableIn) *Behavior[func(chan int) int] {
				b, _ := NewBehavior(func(chan int) int { return 0 })
				return b
			})}
		})
		assert.ErrorIs(t, err, ErrNotConvertible)
	})

	t.Run("direct self dependency is fatal", func(t *testing.T) {
		m := registry.NewMem()

		assert.PanicsWithValue(t, "react: a value computation depends on its own result", func() {
			New(m, func(*Self) Members {
				return Members{ReadOnly("loop", func(self *Self) *Behavior[int] {
					v := SelfBehavior[int](self, "loop")
					return Derive(func() int { return v.Sample() + 1 })
				})}
			})
		})
	})
}

func TestMutable(t *testing.T) {
	t.Run("inbound writes flow through the behavior", func(t *testing.T) {
		m := registry.NewMem()

		obj, err := New(m, counterDef)
		require.NoError(t, err)

		require.NoError(t, m.WriteProperty(obj.Handle(), "count", 5))

		v, _ := m.ReadProperty(obj.Handle(), "count")
		assert.Equal(t, 5, v)

		v, _ = m.ReadProperty(obj.Handle(), "double")
		assert.Equal(t, 10, v)
	})

	t.Run("signals fire after the mirrored value is updated", func(t *testing.T) {
		m := registry.NewMem()

		obj, err := New(m, counterDef)
		require.NoError(t, err)

		seen := []any{}
		m.OnSignal(func(h registry.Handle, _ registry.SignalID) {
			v, _ := m.ReadProperty(h, "count")
			seen = append(seen, v)
		})

		m.WriteProperty(obj.Handle(), "count", 3)

		// both count's and double's signal observe the committed value
		assert.Equal(t, []any{3, 3}, seen)
		assert.Equal(t, 1, m.SignalCount(obj.Handle(), 0))
		assert.Equal(t, 1, m.SignalCount(obj.Handle(), 1))
	})

	t.Run("the behavior stays authoritative", func(t *testing.T) {
		m := registry.NewMem()

		// accepts writes but caps the exposed value at 10
		obj, err := New(m, func(*Self) Members {
			return Members{Mutable("capped", func(_ *Self, in *MutableIn[int]) *Behavior[int] {
				raw := Hold(0, in.Changes)
				return Derive(func() int {
					if v := raw.Sample(); v < 10 {
						return v
					}
					return 10
				})
			})}
		})
		require.NoError(t, err)

		m.WriteProperty(obj.Handle(), "capped", 5)
		v, _ := m.ReadProperty(obj.Handle(), "capped")
		assert.Equal(t, 5, v)

		m.WriteProperty(obj.Handle(), "capped", 50)
		v, _ = m.ReadProperty(obj.Handle(), "capped")
		assert.Equal(t, 10, v)
	})

	t.Run("each write raises exactly one change event", func(t *testing.T) {
		m := registry.NewMem()

		var got []int
		obj, err := New(m, func(*Self) Members {
			return Members{Mutable("v", func(_ *Self, in *MutableIn[int]) *Behavior[int] {
				in.Changes.Subscribe(func(v int) { got = append(got, v) })
				return Hold(0, in.Changes)
			})}
		})
		require.NoError(t, err)

		m.WriteProperty(obj.Handle(), "v", 1)
		m.WriteProperty(obj.Handle(), "v", 2)

		assert.Equal(t, []int{1, 2}, got)
	})

	t.Run("a behavior ignoring the change event rejects writes", func(t *testing.T) {
		m := registry.NewMem()

		obj, err := New(m, func(*Self) Members {
			return Members{Mutable("fixed", func(*Self, *MutableIn[int]) *Behavior[int] {
				return Derive(func() int { return 7 })
			})}
		})
		require.NoError(t, err)

		m.WriteProperty(obj.Handle(), "fixed", 99)

		v, _ := m.ReadProperty(obj.Handle(), "fixed")
		assert.Equal(t, 7, v)
		assert.Equal(t, 0, m.SignalCount(obj.Handle(), 0))
	})

	t.Run("external behaviors drive members too", func(t *testing.T) {
		m := registry.NewMem()

		temp, setTemp := NewBehavior(20)

		obj, err := New(m, func(*Self) Members {
			return Members{ReadOnly("temp", func(*Self) *Behavior[int] { return temp })}
		})
		require.NoError(t, err)

		setTemp(25)

		v, _ := m.ReadProperty(obj.Handle(), "temp")
		assert.Equal(t, 25, v)
		assert.Equal(t, 1, m.SignalCount(obj.Handle(), 0))
	})
}

func TestCallable(t *testing.T) {
	t.Run("invocations apply the current function value", func(t *testing.T) {
		m := registry.NewMem()

		obj, err := New(m, func(*Self) Members {
			return Members{Callable("add", func(_ *Self, _ *CallableIn) *Behavior[func(int, int) int] {
				b, _ := NewBehavior(func(a, b int) int { return a + b })
				return b
			})}
		})
		require.NoError(t, err)

		res, err := m.Invoke(obj.Handle(), "add", 2, 3)
		require.NoError(t, err)
		assert.Equal(t, 5, res)

		res, err = m.Invoke(obj.Handle(), "add", 10, 20)
		require.NoError(t, err)
		assert.Equal(t, 30, res)
	})

	t.Run("methods may mutate the network", func(t *testing.T) {
		m := registry.NewMem()

		count, setCount := NewBehavior(0)

		obj, err := New(m, func(*Self) Members {
			incr := Callable("increment", func(_ *Self, _ *CallableIn) *Behavior[func()] {
				b, _ := NewBehavior(func() { setCount(count.Sample() + 1) })
				return b
			})
			cur := ReadOnly("count", func(*Self) *Behavior[int] { return count })
			return Members{incr, cur}
		})
		require.NoError(t, err)

		_, err = m.Invoke(obj.Handle(), "increment")
		require.NoError(t, err)
		_, err = m.Invoke(obj.Handle(), "increment")
		require.NoError(t, err)

		v, _ := m.ReadProperty(obj.Handle(), "count")
		assert.Equal(t, 2, v)
	})

	t.Run("blocks foreign goroutines until the result is ready", func(t *testing.T) {
		m := registry.NewMem()

		obj, err := New(m, func(*Self) Members {
			return Members{Callable("greet", func(_ *Self, _ *CallableIn) *Behavior[func(string) string] {
				b, _ := NewBehavior(func(name string) string { return "hello " + name })
				return b
			})}
		})
		require.NoError(t, err)

		done := make(chan any)
		go func() {
			res, err := m.Invoke(obj.Handle(), "greet", "world")
			assert.NoError(t, err)
			done <- res
		}()

		assert.Equal(t, "hello world", <-done)
	})

	t.Run("results surface as an event", func(t *testing.T) {
		m := registry.NewMem()

		var results []any
		obj, err := New(m, func(*Self) Members {
			return Members{Callable("square", func(_ *Self, in *CallableIn) *Behavior[func(int) int] {
				in.Results.Subscribe(func(v any) { results = append(results, v) })
				b, _ := NewBehavior(func(x int) int { return x * x })
				return b
			})}
		})
		require.NoError(t, err)

		m.Invoke(obj.Handle(), "square", 4)
		m.Invoke(obj.Handle(), "square", 5)

		assert.Equal(t, []any{16, 25}, results)
	})
}

func TestCall(t *testing.T) {
	t.Run("second return is fatal", func(t *testing.T) {
		c := newCall(nil)
		c.Return(1)

		assert.PanicsWithValue(t, "react: call result delivered twice", func() {
			c.Return(2)
		})
	})
}

func TestUpdate(t *testing.T) {
	t.Run("rebinds in place and keeps the handle", func(t *testing.T) {
		m := registry.NewMem()

		obj, err := New(m, counterDef)
		require.NoError(t, err)
		handle := obj.Handle()

		m.WriteProperty(handle, "count", 7)

		ok := obj.Update(func(_ *Self) Members {
			count := Mutable("count", func(_ *Self, in *MutableIn[int]) *Behavior[int] {
				return Hold(100, in.Changes)
			})
			double := ReadOnly("double", func(self *Self) *Behavior[int] {
				c := SelfBehavior[int](self, "count")
				return Derive(func() int { return c.Sample() * 2 })
			})
			return Members{count, double}
		})
		assert.True(t, ok)
		assert.Same(t, handle, obj.Handle())

		v, _ := m.ReadProperty(handle, "count")
		assert.Equal(t, 100, v)
		v, _ = m.ReadProperty(handle, "double")
		assert.Equal(t, 200, v)

		// inputs survive the rebinding: the native write channel still works
		m.WriteProperty(handle, "count", 4)
		v, _ = m.ReadProperty(handle, "double")
		assert.Equal(t, 8, v)
	})

	t.Run("tears down the replaced definition", func(t *testing.T) {
		m := registry.NewMem()

		src, setSrc := NewBehavior(0)

		oldRuns := 0
		obj, err := New(m, func(*Self) Members {
			return Members{ReadOnly("v", func(*Self) *Behavior[int] {
				return Derive(func() int {
					oldRuns++
					return src.Sample()
				})
			})}
		})
		require.NoError(t, err)

		setSrc(1)
		runsBefore := oldRuns

		ok := obj.Update(func(*Self) Members {
			return Members{ReadOnly("v", func(*Self) *Behavior[int] {
				return Derive(func() int { return 100 })
			})}
		})
		require.True(t, ok)

		// the old derivation is unsubscribed: writes to its former
		// dependency no longer recompute it
		setSrc(2)
		setSrc(3)
		assert.Equal(t, runsBefore, oldRuns)

		v, _ := m.ReadProperty(obj.Handle(), "v")
		assert.Equal(t, 100, v)
	})

	t.Run("rebinds every member in one step", func(t *testing.T) {
		m := registry.NewMem()

		pair := func(a, b int) ObjectDef {
			return func(*Self) Members {
				return Members{
					ReadOnly("a", func(*Self) *Behavior[int] {
						return Derive(func() int { return a })
					}),
					ReadOnly("b", func(*Self) *Behavior[int] {
						return Derive(func() int { return b })
					}),
				}
			}
		}

		obj, err := New(m, pair(1, 1))
		require.NoError(t, err)

		var pairs [][2]any
		m.OnSignal(func(h registry.Handle, _ registry.SignalID) {
			va, _ := m.ReadProperty(h, "a")
			vb, _ := m.ReadProperty(h, "b")
			pairs = append(pairs, [2]any{va, vb})
		})

		require.True(t, obj.Update(pair(2, 3)))

		// no listener ever observes one member rebound and the other not
		require.NotEmpty(t, pairs)
		for _, p := range pairs {
			assert.Equal(t, [2]any{2, 3}, p)
		}
	})

	t.Run("refuses a different shape", func(t *testing.T) {
		m := registry.NewMem()

		obj, err := New(m, counterDef)
		require.NoError(t, err)

		ok := obj.Update(func(*Self) Members {
			return Members{Mutable("other", func(_ *Self, in *MutableIn[int]) *Behavior[int] {
				return Hold(0, in.Changes)
			})}
		})
		assert.False(t, ok)
	})

	t.Run("refuses constants and leaves the object untouched", func(t *testing.T) {
		m := registry.NewMem()

		obj, err := New(m, func(*Self) Members {
			version := Constant("version", 1)
			count := Mutable("count", func(_ *Self, in *MutableIn[int]) *Behavior[int] {
				return Hold(0, in.Changes)
			})
			return Members{version, count}
		})
		require.NoError(t, err)

		m.WriteProperty(obj.Handle(), "count", 5)

		ok := obj.Update(func(*Self) Members {
			version := Constant("version", 2)
			count := Mutable("count", func(_ *Self, in *MutableIn[int]) *Behavior[int] {
				return Hold(99, in.Changes)
			})
			return Members{version, count}
		})
		assert.False(t, ok)

		// nothing was rebound: prior state is still live and reactive
		v, _ := m.ReadProperty(obj.Handle(), "count")
		assert.Equal(t, 5, v)

		m.WriteProperty(obj.Handle(), "count", 6)
		v, _ = m.ReadProperty(obj.Handle(), "count")
		assert.Equal(t, 6, v)
	})
}

func TestSnapshot(t *testing.T) {
	t.Run("captures pure current values", func(t *testing.T) {
		m := registry.NewMem()

		obj, err := New(m, counterDef)
		require.NoError(t, err)

		m.WriteProperty(obj.Handle(), "count", 21)

		snap := obj.Snapshot()
		assert.Equal(t, map[string]any{"count": 21, "double": 42}, snap)
	})
}

func TestSelf(t *testing.T) {
	t.Run("forcing self before finalization is fatal", func(t *testing.T) {
		m := registry.NewMem()

		assert.Panics(t, func() {
			New(m, func(self *Self) Members {
				// sampled eagerly while the definition runs, before any
				// member has been finalized
				v := SelfBehavior[int](self, "count").Sample()

				return Members{Constant("count", v)}
			})
		})
	})

	t.Run("unknown members are fatal", func(t *testing.T) {
		m := registry.NewMem()

		assert.Panics(t, func() {
			New(m, func(self *Self) Members {
				return Members{ReadOnly("a", func(self *Self) *Behavior[int] {
					v := SelfBehavior[int](self, "nope")
					return Derive(func() int { return v.Sample() })
				})}
			})
		})
	})
}

func ExampleNew() {
	m := registry.NewMem()

	obj, err := New(m, func(self *Self) Members {
		count := Mutable("count", func(_ *Self, in *MutableIn[int]) *Behavior[int] {
			return Hold(0, in.Changes)
		})
		double := ReadOnly("double", func(self *Self) *Behavior[int] {
			c := SelfBehavior[int](self, "count")
			return Derive(func() int { return c.Sample() * 2 })
		})
		return Members{count, double}
	})
	if err != nil {
		panic(err)
	}

	m.WriteProperty(obj.Handle(), "count", 3)

	v, _ := m.ReadProperty(obj.Handle(), "double")
	fmt.Println(v)

	// Output:
	// 6
}
