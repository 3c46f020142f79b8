package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eqInt(a, b int) bool { return a == b }

func TestOutput_ZeroValueIsPending(t *testing.T) {
	var o Output[int]
	assert.True(t, o.IsPending())
	assert.Equal(t, StatePending, o.State())
}

func TestOutput_Ok(t *testing.T) {
	o := Ok(42)
	require.Equal(t, StateOk, o.State())

	v, ok := o.Value()
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, hasErr := o.ErrorMessage()
	assert.False(t, hasErr)
	assert.False(t, o.IsPending())
}

func TestOutput_Error(t *testing.T) {
	o := Errorf[int]("read %s: %s", "config", "boom")
	require.Equal(t, StateError, o.State())

	msg, ok := o.ErrorMessage()
	require.True(t, ok)
	assert.Equal(t, "read config: boom", msg)

	_, hasValue := o.Value()
	assert.False(t, hasValue)
}

func TestOutput_String(t *testing.T) {
	assert.Equal(t, "pending", Pending[int]().String())
	assert.Equal(t, "ok: 7", Ok(7).String())
	assert.Equal(t, "error: boom", Error[int]("boom").String())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "ok", StateOk.String())
	assert.Equal(t, "error", StateError.String())
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Output[int]
		want bool
	}{
		{"pending equals pending", Pending[int](), Pending[int](), true},
		{"ok equal values", Ok(1), Ok(1), true},
		{"ok different values", Ok(1), Ok(2), false},
		{"same error message", Error[int]("boom"), Error[int]("boom"), true},
		{"different error messages", Error[int]("boom"), Error[int]("bang"), false},
		{"ok vs pending", Ok(1), Pending[int](), false},
		{"ok vs error", Ok(1), Error[int]("boom"), false},
		{"error vs pending", Error[int]("boom"), Pending[int](), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b, eqInt))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a, eqInt))
		})
	}
}

// Equal must only consult the caller-supplied equality for Ok values;
// Pending and Error comparisons never invoke it.
func TestEqual_EqOnlyCalledForOk(t *testing.T) {
	called := false
	spy := func(a, b int) bool { called = true; return a == b }

	Equal(Pending[int](), Pending[int](), spy)
	Equal(Error[int]("a"), Error[int]("b"), spy)
	assert.False(t, called)

	Equal(Ok(1), Ok(1), spy)
	assert.True(t, called)
}
