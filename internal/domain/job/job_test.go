package job

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunc_Success(t *testing.T) {
	res := Func(func(context.Context, ExecutionContext) error { return nil }).
		Execute(context.Background(), ExecutionContext{})

	assert.True(t, res.OK())
	assert.NoError(t, res.Err())
	assert.False(t, res.DidPanic())
}

func TestFunc_Error(t *testing.T) {
	boom := errors.New("boom")
	res := Func(func(context.Context, ExecutionContext) error { return boom }).
		Execute(context.Background(), ExecutionContext{})

	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Err(), boom)
	assert.False(t, res.DidPanic())
}

func TestFunc_RecoversPanic(t *testing.T) {
	var res Result
	require.NotPanics(t, func() {
		res = Func(func(context.Context, ExecutionContext) error { panic("kaboom") }).
			Execute(context.Background(), ExecutionContext{})
	})

	assert.False(t, res.OK())
	assert.True(t, res.DidPanic())
	assert.EqualError(t, res.Err(), "panic: kaboom")
}

func TestFailure_NilError(t *testing.T) {
	res := Failure(nil)
	assert.False(t, res.OK())
	assert.Error(t, res.Err())
}

func TestExecutionContext_Degraded(t *testing.T) {
	assert.True(t, ExecutionContext{}.Degraded())
}

func TestRegistry_Order(t *testing.T) {
	noop := Func(func(context.Context, ExecutionContext) error { return nil })
	r := NewRegistry().
		MustRegister("traffic_alerts", noop).
		MustRegister("notifications", noop).
		MustRegister("xml_export", noop)

	assert.Equal(t, []string{"traffic_alerts", "notifications", "xml_export"}, r.Names())
	assert.Equal(t, 3, r.Len())

	descs := r.Descriptors()
	descs[0].Name = "mutated"
	assert.Equal(t, "traffic_alerts", r.Descriptors()[0].Name)
}

func TestRegistry_Rejects(t *testing.T) {
	noop := Func(func(context.Context, ExecutionContext) error { return nil })
	r := NewRegistry()
	require.NoError(t, r.Register("a", noop))

	assert.ErrorIs(t, r.Register("  ", noop), ErrEmptyName)
	assert.ErrorIs(t, r.Register("b", nil), ErrNilJob)
	assert.ErrorIs(t, r.Register(" a ", noop), ErrDuplicateName)
	assert.Panics(t, func() { r.MustRegister("a", noop) })
	assert.Equal(t, 1, r.Len())
}
