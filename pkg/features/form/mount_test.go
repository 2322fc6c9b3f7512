package form

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMountFieldConfigFromEnv(t *testing.T) {
	m := quietModel(nil)
	m.SetEnv(EnvOverride{ValidateOnBlur: Ptr(false), HTMLIDPrefix: Ptr("p-")})
	f := m.GetField("a")

	u := MountField(context.Background(), f, ItemProps{
		Env: EnvOverride{ValidateOnChange: Ptr(false)},
	})
	defer u()

	cfg, ok := f.Config()
	require.True(t, ok)
	assert.False(t, cfg.ValidateOnBlur)
	assert.False(t, cfg.ValidateOnChange)
	assert.False(t, cfg.ValidateOnMount)
	assert.Equal(t, "p-a", cfg.HTMLID)
	assert.Equal(t, DefaultRequiredMessage, cfg.RequiredMessage)
}

func TestMountFieldWritesDefaultOnce(t *testing.T) {
	m := quietModel(nil)
	m.SetEnv(EnvOverride{WriteDefaultValueToModel: Ptr(WriteDefaultOn)})
	f := m.GetField("a")

	u := MountField(context.Background(), f, ItemProps{DefaultValue: Some("d")})
	defer u()
	assert.Equal(t, "d", f.Value())

	m.DeleteValue("a")
	_, ok := f.LookupValue()
	assert.False(t, ok)
}

func TestMountFieldKeepsExistingValue(t *testing.T) {
	m := quietModel(map[string]any{"a": nil})
	m.SetEnv(EnvOverride{WriteDefaultValueToModel: Ptr(WriteDefaultOn)})
	u := MountField(context.Background(), m.GetField("a"), ItemProps{DefaultValue: Some("d")})
	defer u()
	assert.Nil(t, m.GetValue("a"))
}

func TestMountFieldForcedDefault(t *testing.T) {
	m := quietModel(nil)
	m.SetEnv(EnvOverride{WriteDefaultValueToModel: Ptr(WriteDefaultForce)})
	f := m.GetField("a")

	u := MountField(context.Background(), f, ItemProps{DefaultValue: Some("d")})
	assert.Equal(t, "d", f.Value())

	f.SetValue("x")
	m.DeleteValue("a")
	assert.Equal(t, "d", f.Value())

	u()
	m.DeleteValue("a")
	_, ok := f.LookupValue()
	assert.False(t, ok)
}

func TestMountFieldAutoUnmount(t *testing.T) {
	m := quietModel(map[string]any{"a": "x"})
	m.SetEnv(EnvOverride{AutoUnmount: Ptr(true)})
	f := m.GetField("a")

	u := MountField(context.Background(), f, ItemProps{})
	assert.True(t, f.IsMounted())
	u()
	u()
	assert.False(t, f.IsMounted())
	_, ok := f.LookupValue()
	assert.False(t, ok)
}

func TestMountFieldValidatesOnMount(t *testing.T) {
	m := quietModel(nil)
	m.SetEnv(EnvOverride{ValidateOnMount: Ptr(true)})
	f := m.GetField("a")

	u := MountField(context.Background(), f, ItemProps{Required: true, RequiredMessage: "needed"})
	defer u()

	require.Eventually(t, func() bool {
		return f.Error() != nil
	}, time.Second, time.Millisecond)
	assert.EqualError(t, f.Error(), "needed")
}

func TestUnmountCancelsMountValidation(t *testing.T) {
	m := quietModel(nil)
	m.SetEnv(EnvOverride{ValidateOnMount: Ptr(true)})
	f := m.GetField("a")

	gate := make(chan struct{})
	done := make(chan struct{})
	u := MountField(context.Background(), f, ItemProps{
		Validate: func(ctx context.Context, _ any, _ *Field, _ Trigger) error {
			defer close(done)
			<-gate
			return errors.New("too late")
		},
	})
	require.True(t, f.Validating())
	u()
	close(gate)
	<-done

	time.Sleep(10 * time.Millisecond)
	assert.NoError(t, f.Error())
	assert.False(t, f.Validating())
}

func TestMountFieldTwice(t *testing.T) {
	m := quietModel(nil)
	f := m.GetField("a")
	first := MountField(context.Background(), f, ItemProps{Required: true})
	second := MountField(context.Background(), f, ItemProps{})

	second()
	cfg, ok := f.Config()
	require.True(t, ok)
	assert.True(t, cfg.Required)
	first()
	assert.False(t, f.IsMounted())
}

func TestMountCheckRevalidatesOnWatch(t *testing.T) {
	m := quietModel(map[string]any{"min": 1, "max": 5})
	c := m.GetCheck("range")

	var runs int32
	u := MountCheck(context.Background(), c, CheckProps{
		ValidateOnMount: Ptr(true),
		Watch:           Watch(m, "min", "max"),
		Validate: func(_ context.Context, values any, _ *Model) error {
			atomic.AddInt32(&runs, 1)
			v := values.(map[string]any)
			if v["min"].(int) > v["max"].(int) {
				return errors.New("min exceeds max")
			}
			return nil
		},
	})
	defer u()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) == 1 && !c.Validating()
	}, time.Second, time.Millisecond)
	assert.NoError(t, c.Error())

	m.SetValue("min", 9)
	require.Eventually(t, func() bool {
		return c.Error() != nil
	}, time.Second, time.Millisecond)
	assert.EqualError(t, c.Error(), "min exceeds max")

	m.SetValue("other", true)
	time.Sleep(10 * time.Millisecond)
	assert.EqualValues(t, 2, atomic.LoadInt32(&runs))
}

func TestMountCheckWithoutWatch(t *testing.T) {
	m := quietModel(nil)
	c := m.GetCheck("c")

	var runs int32
	u := MountCheck(context.Background(), c, CheckProps{
		Validate: func(context.Context, any, *Model) error {
			atomic.AddInt32(&runs, 1)
			return nil
		},
	})
	m.SetValue("x", 1)
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&runs))

	assert.True(t, c.IsMounted())
	u()
	assert.False(t, c.IsMounted())
}

func TestWatchPath(t *testing.T) {
	m := quietModel(nil)
	var seen [][2]any
	stop := WatchPath(m, "a.b", func(next, prev any) {
		seen = append(seen, [2]any{next, prev})
	})

	m.SetValue("a.b", 1)
	m.SetValue("a.c", 2)
	m.SetValue("a.b", 3)
	stop()
	m.SetValue("a.b", 4)

	assert.Equal(t, [][2]any{{1, nil}, {3, 1}}, seen)
}
