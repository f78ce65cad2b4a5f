package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "B.java"), "")
	writeFile(t, filepath.Join(root, "a", "A.java"), "")
	writeFile(t, filepath.Join(root, "a", "notes.txt"), "")

	files, err := FindFilesByExtension(root, ".java")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a", "A.java"),
		filepath.Join(root, "b", "B.java"),
	}, files)

	files, err = FindFilesByExtension(filepath.Join(root, "missing"), ".java")
	require.NoError(t, err)
	assert.Empty(t, files)

	assert.Panics(t, func() { _, _ = FindFilesByExtension(root, "") })
}

func TestSubdirsWithPrefix(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"java", "java-17", "java-11", "resources"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}

	names, err := SubdirsWithPrefix(root, "java-")
	require.NoError(t, err)
	assert.Equal(t, []string{"java-11", "java-17"}, names)

	names, err = SubdirsWithPrefix(filepath.Join(root, "nope"), "java-")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "lib.jar")

	require.NoError(t, WriteFileAtomic(target, []byte("v1"), 0o644))
	assert.True(t, SameContent(target, []byte("v1")))

	require.NoError(t, WriteFileAtomic(target, []byte("v2"), 0o644))
	assert.True(t, SameContent(target, []byte("v2")))
	assert.False(t, SameContent(target, []byte("v1")))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not linger")
}

func TestTempPath(t *testing.T) {
	final := filepath.Join("out", "main", "archives", "a.jar")
	tmp := TempPath(final)

	assert.Equal(t, filepath.Dir(final), filepath.Dir(tmp))
	assert.True(t, strings.HasPrefix(filepath.Base(tmp), ".a.jar.tmp-"))
	assert.NotEqual(t, tmp, TempPath(final))
}
