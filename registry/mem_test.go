package registry

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClass(t *testing.T, m *Mem, members ...Descriptor) (Class, Handle) {
	t.Helper()

	c, err := m.CreateClass(members)
	require.NoError(t, err)
	h, err := m.CreateInstance(c)
	require.NoError(t, err)
	return c, h
}

func TestCreateClass(t *testing.T) {
	t.Run("rejects empty classes", func(t *testing.T) {
		_, err := NewMem().CreateClass(nil)
		assert.Error(t, err)
	})

	t.Run("rejects duplicate member names", func(t *testing.T) {
		_, err := NewMem().CreateClass([]Descriptor{
			ConstantProperty("x", nil),
			ConstantProperty("x", nil),
		})
		assert.Error(t, err)
	})
}

func TestCreateInstance(t *testing.T) {
	t.Run("instances get distinct ids", func(t *testing.T) {
		m := NewMem()
		c, a := testClass(t, m, ConstantProperty("x", nil))

		b, err := m.CreateInstance(c)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID(), b.ID())
	})

	t.Run("rejects foreign classes", func(t *testing.T) {
		_, err := NewMem().CreateInstance(nil)
		assert.Error(t, err)
	})
}

func TestProperties(t *testing.T) {
	m := NewMem()

	value := 1
	_, h := testClass(t, m,
		ReadWriteProperty("v", 0,
			func(Handle) any { return value },
			func(_ Handle, nv any) { value = nv.(int) }),
		Method("noop", func(Handle, []any) any { return nil }),
	)

	t.Run("reads go through the registered procedure", func(t *testing.T) {
		v, err := m.ReadProperty(h, "v")
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("writes go through the registered procedure", func(t *testing.T) {
		require.NoError(t, m.WriteProperty(h, "v", 2))
		assert.Equal(t, 2, value)
	})

	t.Run("unknown members error", func(t *testing.T) {
		_, err := m.ReadProperty(h, "nope")
		assert.Error(t, err)
	})

	t.Run("methods are not readable", func(t *testing.T) {
		_, err := m.ReadProperty(h, "noop")
		assert.Error(t, err)
		assert.Error(t, m.WriteProperty(h, "noop", 1))
	})

	t.Run("properties are not callable", func(t *testing.T) {
		_, err := m.Invoke(h, "v")
		assert.Error(t, err)
	})
}

func TestSignals(t *testing.T) {
	t.Run("counts fires and notifies listeners", func(t *testing.T) {
		m := NewMem()
		_, h := testClass(t, m, ReadOnlyProperty("v", 0, func(Handle) any { return nil }))

		var got []SignalID
		m.OnSignal(func(_ Handle, sig SignalID) { got = append(got, sig) })

		m.FireChangeSignal(h, 0)
		m.FireChangeSignal(h, 0)

		assert.Equal(t, 2, m.SignalCount(h, 0))
		assert.Equal(t, 0, m.SignalCount(h, 1))
		assert.Equal(t, []SignalID{0, 0}, got)
	})
}

func TestExec(t *testing.T) {
	t.Run("runs the configured script", func(t *testing.T) {
		m := NewMem()
		_, h := testClass(t, m, ConstantProperty("x", func(Handle) any { return 7 }))

		var seen any
		m.Script = func(m *Mem, root Handle) error {
			v, err := m.ReadProperty(root, "x")
			seen = v
			return err
		}

		require.NoError(t, m.Exec(h))
		assert.Equal(t, 7, seen)
	})

	t.Run("no script returns immediately", func(t *testing.T) {
		m := NewMem()
		_, h := testClass(t, m, ConstantProperty("x", nil))
		assert.NoError(t, m.Exec(h))
	})
}

func TestConvertible(t *testing.T) {
	yes := []reflect.Type{
		reflect.TypeOf(true),
		reflect.TypeOf(0),
		reflect.TypeOf(uint8(0)),
		reflect.TypeOf(1.5),
		reflect.TypeOf(""),
		reflect.TypeOf([]string{}),
		reflect.TypeOf(map[string]int{}),
		reflect.TypeOf((*any)(nil)).Elem(),
		reflect.TypeOf((*Handle)(nil)).Elem(),
		reflect.TypeOf(&MemObject{}),
	}
	for _, ty := range yes {
		assert.True(t, Convertible(ty), ty.String())
	}

	no := []reflect.Type{
		nil,
		reflect.TypeOf(make(chan int)),
		reflect.TypeOf(func() {}),
		reflect.TypeOf(map[int]string{}),
		reflect.TypeOf([]chan int{}),
		reflect.TypeOf(struct{}{}),
		reflect.TypeOf((*error)(nil)).Elem(),
	}
	for _, ty := range no {
		assert.False(t, Convertible(ty), "nil or "+name(ty))
	}
}

func name(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	return t.String()
}
