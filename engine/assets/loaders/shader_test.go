package loaders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/phm/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.vert.spv")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestShaderLoaderDecodesLittleEndianWords(t *testing.T) {
	path := writeFile(t, []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00})

	code, err := (&ShaderLoader{}).Load(path)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x07230203, 0x00010000}, code)
}

func TestShaderLoaderErrors(t *testing.T) {
	loader := &ShaderLoader{}

	_, err := loader.Load(filepath.Join(t.TempDir(), "missing.spv"))
	assert.ErrorIs(t, err, core.ErrShaderNotFound)

	_, err = loader.Load(writeFile(t, nil))
	assert.ErrorIs(t, err, core.ErrShaderTruncated)

	_, err = loader.Load(writeFile(t, []byte{1, 2, 3, 4, 5}))
	assert.ErrorIs(t, err, core.ErrShaderTruncated)
}
