package ingestion

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	cverrors "github.com/rohankatakam/codevision/internal/errors"
	"github.com/rohankatakam/codevision/internal/logging"
)

// WalkerConfig holds the file selection rules for one directory scan
type WalkerConfig struct {
	SkipDirs         []string // Directory names pruned at any depth
	ExcludeGlobs     []string // Slash-separated globs matched against root-relative paths
	RespectGitignore bool     // Honor <root>/.gitignore
	MaxFileBytes     int64    // Files larger than this are skipped (0 disables)
}

// Walker enumerates the files under a root that some extractor supports
type Walker struct {
	skipDirs map[string]bool
	excludes []glob.Glob
	config   WalkerConfig
	supports func(path string) bool
}

// FileStats counts what a walk saw
type FileStats struct {
	Total           int
	Selected        int
	SkippedDirs     int
	SkippedIgnored  int
	SkippedExcluded int
	SkippedLarge    int
	Unsupported     int
	ByExtension     map[string]int
}

// NewWalker compiles the exclude globs. supports decides whether a file has
// an extractor; a nil supports accepts every file.
func NewWalker(config WalkerConfig, supports func(path string) bool) (*Walker, error) {
	w := &Walker{
		skipDirs: make(map[string]bool, len(config.SkipDirs)),
		config:   config,
		supports: supports,
	}
	for _, name := range config.SkipDirs {
		w.skipDirs[name] = true
	}

	for _, pattern := range config.ExcludeGlobs {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, cverrors.ConfigErrorf("invalid exclude glob %q: %v", pattern, err)
		}
		w.excludes = append(w.excludes, g)
	}

	return w, nil
}

// Walk returns the selected files under root in lexical order
func (w *Walker) Walk(ctx context.Context, root string) ([]string, *FileStats, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, cverrors.FileSystemError(err, "cannot read project root").
			WithContext("root", root)
	}
	if !info.IsDir() {
		return nil, nil, cverrors.New(cverrors.ErrorTypeFileSystem, cverrors.SeverityHigh, "project root is not a directory").
			WithContext("root", root)
	}

	var gitignore *ignore.GitIgnore
	if w.config.RespectGitignore {
		gitignore = loadGitignore(root)
	}

	stats := &FileStats{ByExtension: make(map[string]int)}
	var files []string

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if walkErr != nil {
			// Unreadable entries are skipped, not fatal
			logging.Debug("skipping unreadable path", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == root {
				return nil
			}
			if w.skipDirs[d.Name()] {
				stats.SkippedDirs++
				return filepath.SkipDir
			}
			if gitignore != nil && gitignore.MatchesPath(rel+"/") {
				stats.SkippedDirs++
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		stats.Total++

		if gitignore != nil && gitignore.MatchesPath(rel) {
			stats.SkippedIgnored++
			logging.Debug("skipping gitignored file", "path", rel)
			return nil
		}
		if w.excluded(rel) {
			stats.SkippedExcluded++
			logging.Debug("skipping excluded file", "path", rel)
			return nil
		}
		if w.supports != nil && !w.supports(path) {
			stats.Unsupported++
			return nil
		}
		if w.config.MaxFileBytes > 0 {
			if fi, err := d.Info(); err == nil && fi.Size() > w.config.MaxFileBytes {
				stats.SkippedLarge++
				logging.Debug("skipping large file", "path", rel, "bytes", fi.Size())
				return nil
			}
		}

		stats.Selected++
		stats.ByExtension[strings.ToLower(filepath.Ext(path))]++
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, nil, cverrors.FileSystemError(err, "directory walk failed").
			WithContext("root", root)
	}

	sort.Strings(files)
	return files, stats, nil
}

func (w *Walker) excluded(rel string) bool {
	for _, g := range w.excludes {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// loadGitignore compiles <root>/.gitignore, or returns nil when absent
func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		logging.Warn("ignoring unreadable .gitignore", "path", path, "error", err)
		return nil
	}
	return gi
}
