package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files under root from a rel-path → content map
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func supportsPyJS(path string) bool {
	switch filepath.Ext(path) {
	case ".py", ".js":
		return true
	}
	return false
}

func relAll(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func walkerFixture(t *testing.T) string {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":                "*.log\nsecret.py\n",
		"app/models.py":             "class A: pass\n",
		"app/views.py":              "import models\n",
		"node_modules/lib/index.js": "module.exports = {}\n",
		"secret.py":                 "TOKEN = 1\n",
		"debug.log":                 "noise\n",
		"README.md":                 "# readme\n",
		"tests/test_models.py":      "def test(): pass\n",
		"big.py":                    strings.Repeat("x = 1\n", 20),
	})
	return root
}

func TestWalker_Selection(t *testing.T) {
	root := walkerFixture(t)

	w, err := NewWalker(WalkerConfig{
		SkipDirs:         []string{"node_modules"},
		ExcludeGlobs:     []string{"tests/**"},
		RespectGitignore: true,
		MaxFileBytes:     64,
	}, supportsPyJS)
	require.NoError(t, err)

	files, stats, err := w.Walk(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"app/models.py", "app/views.py"}, relAll(t, root, files))
	assert.Equal(t, 2, stats.Selected)
	assert.Equal(t, 1, stats.SkippedDirs)
	assert.Equal(t, 2, stats.SkippedIgnored)
	assert.Equal(t, 1, stats.SkippedExcluded)
	assert.Equal(t, 1, stats.SkippedLarge)
	assert.Equal(t, 2, stats.Unsupported)
	assert.Equal(t, 8, stats.Total)
	assert.Equal(t, map[string]int{".py": 2}, stats.ByExtension)
}

func TestWalker_WithoutGitignore(t *testing.T) {
	root := walkerFixture(t)

	w, err := NewWalker(WalkerConfig{SkipDirs: []string{"node_modules"}}, supportsPyJS)
	require.NoError(t, err)

	files, _, err := w.Walk(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"app/models.py",
		"app/views.py",
		"big.py",
		"secret.py",
		"tests/test_models.py",
	}, relAll(t, root, files))
}

func TestWalker_NilSupportsAcceptsEverything(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a", "b/c.md": "c"})

	w, err := NewWalker(WalkerConfig{}, nil)
	require.NoError(t, err)

	files, stats, err := w.Walk(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Zero(t, stats.Unsupported)
}

func TestWalker_Errors(t *testing.T) {
	t.Run("invalid glob", func(t *testing.T) {
		_, err := NewWalker(WalkerConfig{ExcludeGlobs: []string{"[unclosed"}}, nil)
		assert.Error(t, err)
	})

	t.Run("missing root", func(t *testing.T) {
		w, err := NewWalker(WalkerConfig{}, nil)
		require.NoError(t, err)
		_, _, err = w.Walk(context.Background(), filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("root is a file", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{"file.py": "x = 1\n"})
		w, err := NewWalker(WalkerConfig{}, nil)
		require.NoError(t, err)
		_, _, err = w.Walk(context.Background(), filepath.Join(root, "file.py"))
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		root := walkerFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		w, err := NewWalker(WalkerConfig{}, nil)
		require.NoError(t, err)
		_, _, err = w.Walk(ctx, root)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
