package frames

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFrames(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(n), 0o644))
	}
}

func writeSequence(t *testing.T, dir string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("image_%05d.bmp", i+1)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte{byte(i)}, 0o644))
	}
}

func TestOpenNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, "frame_10.bmp", "frame_2.bmp", "frame_1.bmp")

	store, err := Open(dir)
	require.NoError(t, err)

	require.Equal(t, 3, store.Len())
	assert.Equal(t, "frame_1.bmp", filepath.Base(store.Paths()[0]))
	assert.Equal(t, "frame_2.bmp", filepath.Base(store.Paths()[1]))
	assert.Equal(t, "frame_10.bmp", filepath.Base(store.Paths()[2]))
}

func TestIndexByBaseName(t *testing.T) {
	dir := t.TempDir()
	writeSequence(t, dir, 5)

	store, err := Open(dir)
	require.NoError(t, err)

	idx, err := store.Index("/some/other/prefix/image_00003.bmp")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = store.Index("image_99999.bmp")
	assert.Error(t, err)
}

func TestWindowClampsAndSwaps(t *testing.T) {
	dir := t.TempDir()
	writeSequence(t, dir, 10)

	store, err := Open(dir)
	require.NoError(t, err)

	lo, hi := store.Window(3, 6, 2)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 8, hi)

	// Swapped markers still produce a forward window.
	lo, hi = store.Window(6, 3, 0)
	assert.Equal(t, 3, lo)
	assert.Equal(t, 6, hi)

	// Margin never escapes the store.
	lo, hi = store.Window(1, 8, 100)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 9, hi)
}

func TestCopyWindowRenumbersFromZero(t *testing.T) {
	dir := t.TempDir()
	writeSequence(t, dir, 6)
	dest := t.TempDir()

	store, err := Open(dir)
	require.NoError(t, err)

	out, err := store.CopyWindow(2, 4, dest)
	require.NoError(t, err)

	require.Len(t, out, 3)
	assert.Equal(t, "00000.bmp", filepath.Base(out[0]))
	assert.Equal(t, "00001.bmp", filepath.Base(out[1]))
	assert.Equal(t, "00002.bmp", filepath.Base(out[2]))

	// Copied content matches the source frames, not the new numbering.
	data, err := os.ReadFile(out[0])
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, data)
}

func TestCopyWindowRejectsOutOfBounds(t *testing.T) {
	dir := t.TempDir()
	writeSequence(t, dir, 3)

	store, err := Open(dir)
	require.NoError(t, err)

	_, err = store.CopyWindow(1, 5, t.TempDir())
	assert.Error(t, err)
}

func TestPruneDeletesOutsideWindow(t *testing.T) {
	dir := t.TempDir()
	writeSequence(t, dir, 30)

	store, err := Open(dir)
	require.NoError(t, err)

	retained, err := store.Prune(10, 20)
	require.NoError(t, err)

	require.Len(t, retained, 11)
	assert.Equal(t, "image_00011.bmp", filepath.Base(retained[0]))
	assert.Equal(t, "image_00021.bmp", filepath.Base(retained[10]))
	assert.Equal(t, 11, store.Len())

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, left, 11)

	_, err = os.Stat(filepath.Join(dir, "image_00001.bmp"))
	assert.True(t, os.IsNotExist(err))
}
