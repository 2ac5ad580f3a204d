package react

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	for kind, want := range map[Kind]string{
		KindConstant: "constant",
		KindReadOnly: "readonly",
		KindMutable:  "mutable",
		KindCallable: "callable",
		KindEmbedded: "embedded",
		Kind(99):     "unknown",
	} {
		assert.Equal(t, want, kind.String())
	}
}

func TestCheckCallable(t *testing.T) {
	ok := []any{
		func() {},
		func(int) {},
		func(a, b int) int { return 0 },
		func(string, float64, bool) string { return "" },
		func([]int) map[string]any { return nil },
		func(any) any { return nil },
	}
	for _, f := range ok {
		t.Run(reflect.TypeOf(f).String(), func(t *testing.T) {
			assert.NoError(t, checkCallable("m", reflect.TypeOf(f)))
		})
	}

	bad := []any{
		42,
		func(...int) {},
		func() (int, int) { return 0, 0 },
		func(chan int) {},
		func() chan int { return nil },
		func(map[int]string) {},
	}
	for _, f := range bad {
		t.Run(reflect.TypeOf(f).String(), func(t *testing.T) {
			assert.ErrorIs(t, checkCallable("m", reflect.TypeOf(f)), ErrNotConvertible)
		})
	}
}

func TestInvokeFunc(t *testing.T) {
	t.Run("converts arguments to declared types", func(t *testing.T) {
		f := func(a float64, s string) string { return s }
		res := invokeFunc("m", f, reflect.TypeOf(f), []any{1, "x"})
		assert.Equal(t, "x", res)
	})

	t.Run("missing or nil arguments become zero values", func(t *testing.T) {
		f := func(a int, s string) int { return a }
		res := invokeFunc("m", f, reflect.TypeOf(f), []any{nil})
		assert.Equal(t, 0, res)
	})

	t.Run("no result yields nil", func(t *testing.T) {
		called := false
		f := func() { called = true }
		res := invokeFunc("m", f, reflect.TypeOf(f), nil)
		assert.Nil(t, res)
		assert.True(t, called)
	})

	t.Run("an inconvertible argument is fatal and names the member", func(t *testing.T) {
		f := func(a int) int { return a }
		assert.PanicsWithValue(t,
			`react: call to "add": argument 0 (string) is not convertible to int`,
			func() { invokeFunc("add", f, reflect.TypeOf(f), []any{"five"}) })
	})
}
