package form

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	xerrors "github.com/vango-dev/xform/internal/errors"
)

func TestParseEnv(t *testing.T) {
	o, err := ParseEnv([]byte(`
validateOnMount: true
validateOnBlur: false
writeDefaultValueToModel: force
htmlIdPrefix: "checkout-"
`))
	require.NoError(t, err)

	env := o.Apply(DefaultEnv())
	assert.True(t, env.ValidateOnMount)
	assert.True(t, env.ValidateOnChange)
	assert.False(t, env.ValidateOnBlur)
	assert.Equal(t, WriteDefaultForce, env.WriteDefaultValueToModel)
	assert.False(t, env.AutoUnmount)
	assert.Equal(t, "checkout-", env.HTMLIDPrefix)
}

func TestParseEnvWriteDefaultBool(t *testing.T) {
	o, err := ParseEnv([]byte("writeDefaultValueToModel: true\n"))
	require.NoError(t, err)
	require.NotNil(t, o.WriteDefaultValueToModel)
	assert.Equal(t, WriteDefaultOn, *o.WriteDefaultValueToModel)

	_, err = ParseEnv([]byte("writeDefaultValueToModel: sometimes\n"))
	require.Error(t, err)
	assert.Equal(t, xerrors.CodeEnvDecode, xerrors.CodeOf(err))
}

func TestWriteDefaultMarshal(t *testing.T) {
	out, err := yaml.Marshal(EnvOverride{
		WriteDefaultValueToModel: Ptr(WriteDefaultForce),
		AutoUnmount:              Ptr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "writeDefaultValueToModel: force\nautoUnmount: true\n", string(out))

	assert.Equal(t, "true", WriteDefaultOn.String())
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("autoUnmount: true\n"), 0o644))

	o, err := LoadEnv(path)
	require.NoError(t, err)
	assert.True(t, o.Apply(DefaultEnv()).AutoUnmount)

	_, err = LoadEnv(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, xerrors.CodeEnvDecode, xerrors.CodeOf(err))
}

func TestEnvOverrideCallbacks(t *testing.T) {
	called := false
	env := EnvOverride{OnReset: func(*Model) { called = true }}.Apply(DefaultEnv())
	env.OnReset(nil)
	assert.True(t, called)
	assert.Nil(t, env.OnSubmit)
}
