package kernel_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/quire/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kernelsYAML = `
default: python3
kernels:
  - name: python3
    display_name: Python 3
    command: python3
    args: ["-u", "kernel.py"]
    language: python
  - name: lua
    command: lua-kernel
    env:
      LUA_PATH: "./?.lua"
`

func TestParseRegistry(t *testing.T) {
	reg, err := kernel.ParseRegistry([]byte(kernelsYAML))
	require.NoError(t, err)

	spec, ok := reg.Lookup("python3")
	require.True(t, ok)
	assert.Equal(t, "python3", spec.Command)
	assert.Equal(t, []string{"-u", "kernel.py"}, spec.Args)
	assert.Equal(t, "python", spec.Language)

	lua, ok := reg.Lookup("lua")
	require.True(t, ok)
	assert.Equal(t, "./?.lua", lua.Environment["LUA_PATH"])

	// Empty name resolves to the configured default.
	byDefault, ok := reg.Lookup("")
	require.True(t, ok)
	assert.Equal(t, "python3", byDefault.Name)

	_, ok = reg.Lookup("fortran")
	assert.False(t, ok)
}

func TestParseRegistry_Rejections(t *testing.T) {
	_, err := kernel.ParseRegistry([]byte("kernels:\n  - command: foo\n"))
	assert.ErrorContains(t, err, "missing name")

	_, err = kernel.ParseRegistry([]byte("kernels:\n  - name: foo\n"))
	assert.ErrorContains(t, err, "missing command")

	_, err = kernel.ParseRegistry([]byte("default: ghost\nkernels: []\n"))
	assert.ErrorContains(t, err, "not defined")
}

func TestLoadRegistry_MissingFileIsEmpty(t *testing.T) {
	reg, err := kernel.LoadRegistry(filepath.Join(t.TempDir(), "kernels.yaml"))
	require.NoError(t, err)
	assert.Empty(t, reg)
}

func TestLoadRegistry_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernels.yaml")
	require.NoError(t, os.WriteFile(path, []byte(kernelsYAML), 0644))

	reg, err := kernel.LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg, 3) // two kernels plus the default alias
}
