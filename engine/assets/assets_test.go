package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/phm/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var spirv = []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}

func newTestManager(t *testing.T, files ...string) (*AssetManager, string) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, ShaderDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), spirv, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("ignored"), 0o644))

	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(root))
	t.Cleanup(func() { assert.NoError(t, am.Close()) })
	return am, root
}

func TestInitializeIndexesShadersOnly(t *testing.T) {
	am, _ := newTestManager(t, "a.vert.spv", "a.frag.spv")

	am.mutex.RLock()
	defer am.mutex.RUnlock()
	assert.Len(t, am.assets, 2)
	assert.Contains(t, am.assets, "shaders/a.vert.spv")
	assert.Equal(t, AssetTypeShader, am.assets["shaders/a.frag.spv"].Type)
}

func TestShaderLoadsAndCaches(t *testing.T) {
	am, _ := newTestManager(t, "a.vert.spv")

	code, err := am.Shader("a.vert.spv")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x07230203, 0x00010000}, code)

	am.mutex.RLock()
	asset := am.assets["shaders/a.vert.spv"]
	loaded := asset.LastLoaded
	am.mutex.RUnlock()
	assert.Equal(t, code, asset.code)
	assert.False(t, loaded.IsZero())

	again, err := am.Shader("a.vert.spv")
	require.NoError(t, err)
	assert.Equal(t, code, again)
	am.mutex.RLock()
	assert.Equal(t, loaded, am.assets["shaders/a.vert.spv"].LastLoaded)
	am.mutex.RUnlock()
}

func TestShaderNotFound(t *testing.T) {
	am, _ := newTestManager(t)

	_, err := am.Shader("missing.vert.spv")
	assert.ErrorIs(t, err, core.ErrShaderNotFound)
}

func TestPreload(t *testing.T) {
	am, _ := newTestManager(t, "a.vert.spv", "a.frag.spv", "b.vert.spv")

	require.NoError(t, am.Preload(context.Background(), "a.vert.spv", "a.frag.spv", "b.vert.spv"))
	am.mutex.RLock()
	for key, asset := range am.assets {
		assert.NotNil(t, asset.code, key)
	}
	am.mutex.RUnlock()

	err := am.Preload(context.Background(), "a.vert.spv", "nope.frag.spv")
	assert.ErrorIs(t, err, core.ErrShaderNotFound)
}

func TestChangedReportsRewrittenShader(t *testing.T) {
	am, root := newTestManager(t, "a.vert.spv")
	_, err := am.Shader("a.vert.spv")
	require.NoError(t, err)

	updated := append(append([]byte(nil), spirv...), 0x01, 0x00, 0x00, 0x00)
	require.NoError(t, os.WriteFile(filepath.Join(root, ShaderDir, "a.vert.spv"), updated, 0o644))

	select {
	case rel := <-am.Changed():
		assert.Equal(t, "shaders/a.vert.spv", rel)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	require.Eventually(t, func() bool {
		code, err := am.Shader("a.vert.spv")
		return err == nil && len(code) == 3
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCloseIsIdempotent(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	assert.NoError(t, am.Close())
	assert.NoError(t, am.Close())
}
