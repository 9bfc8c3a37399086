package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	cverrors "github.com/rohankatakam/codevision/internal/errors"
	"github.com/rohankatakam/codevision/internal/extract"
	"github.com/rohankatakam/codevision/internal/graph"
	"github.com/rohankatakam/codevision/internal/logging"
	"github.com/rohankatakam/codevision/internal/models"
)

// ProcessorConfig holds configuration for directory processing
type ProcessorConfig struct {
	Workers int           // Number of concurrent extractions (default: NumCPU*2)
	Timeout time.Duration // Per-file extraction timeout (default: 30s)
	Walker  WalkerConfig
}

// DefaultProcessorConfig returns default configuration
func DefaultProcessorConfig() *ProcessorConfig {
	return &ProcessorConfig{
		Workers: runtime.NumCPU() * 2,
		Timeout: 30 * time.Second,
		Walker: WalkerConfig{
			SkipDirs:         []string{"__pycache__", "node_modules", ".git", "venv", ".venv", "dist", "build", "target", "bin", "obj"},
			RespectGitignore: true,
			MaxFileBytes:     2 << 20,
		},
	}
}

// Processor orchestrates walk → extract → assemble for one directory
type Processor struct {
	config   *ProcessorConfig
	registry *extract.Registry
	walker   *Walker
}

// NewProcessor creates a processor dispatching through registry
func NewProcessor(config *ProcessorConfig, registry *extract.Registry) (*Processor, error) {
	if config == nil {
		config = DefaultProcessorConfig()
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	walker, err := NewWalker(config.Walker, registry.Supports)
	if err != nil {
		return nil, err
	}
	return &Processor{
		config:   config,
		registry: registry,
		walker:   walker,
	}, nil
}

// FileFailure records one file excluded from the result set
type FileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ProcessResult holds results from processing a directory
type ProcessResult struct {
	Root         string        `json:"root"`
	FilesTotal   int           `json:"files_total"`
	FilesParsed  int           `json:"files_parsed"`
	FilesFailed  int           `json:"files_failed"`
	FilesSkipped int           `json:"files_skipped"`
	Modules      int           `json:"modules"`
	Classes      int           `json:"classes"`
	Functions    int           `json:"functions"`
	Dependencies int           `json:"dependencies"`
	Duration     time.Duration `json:"duration"`
	Failures     []FileFailure `json:"failures,omitempty"`
}

// ProcessDirectory extracts every supported file under root and assembles
// the results. Per-file failures are recorded and logged; only walk errors
// and cancellation are returned.
func (p *Processor) ProcessDirectory(ctx context.Context, root string) (*models.Graph, *ProcessResult, error) {
	startTime := time.Now()
	log := logging.With("root", root)

	log.Info("starting directory processing", "workers", p.config.Workers)

	files, walkStats, err := p.walker.Walk(ctx, root)
	if err != nil {
		return nil, nil, err
	}

	result := &ProcessResult{
		Root:         root,
		FilesTotal:   walkStats.Total,
		FilesSkipped: walkStats.Total - walkStats.Selected,
	}

	// Each worker writes only its own slot, so no lock is needed
	slots := make([]*models.FileResult, len(files))
	failures := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i], failures[i] = p.extractWithTimeout(gctx, path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// files is sorted, so reducing slots in index order is deterministic
	debug := logging.IsDebugEnabled()
	builder := graph.NewBuilder()
	for i, path := range files {
		if failures[i] != nil {
			rel := relPath(root, path)
			logFailure(log, rel, failures[i])
			result.FilesFailed++
			result.Failures = append(result.Failures, FileFailure{Path: rel, Error: failures[i].Error()})
			continue
		}
		if slots[i] == nil {
			if debug {
				log.Debug("file produced no entities", "path", relPath(root, path))
			}
			result.FilesSkipped++
			continue
		}
		if debug {
			log.Debug("file extracted",
				"path", relPath(root, path),
				"classes", len(slots[i].Classes),
				"functions", len(slots[i].Functions),
			)
		}
		result.FilesParsed++
		builder.Add(slots[i])
	}

	g2 := builder.Build()
	result.Modules = len(g2.Modules)
	result.Classes = len(g2.Classes)
	result.Functions = len(g2.Functions)
	result.Dependencies = len(g2.Dependencies)
	result.Duration = time.Since(startTime)

	log.Info("directory processing complete",
		"parsed", result.FilesParsed,
		"failed", result.FilesFailed,
		"skipped", result.FilesSkipped,
		"classes", result.Classes,
		"functions", result.Functions,
		"dependencies", result.Dependencies,
		"duration", result.Duration,
	)

	return g2, result, nil
}

// ExtractFile runs the registered extractor for a single file
func (p *Processor) ExtractFile(ctx context.Context, path string) (*models.FileResult, error) {
	if !p.registry.Supports(path) {
		return nil, cverrors.ValidationErrorf("unsupported file type: %s", filepath.Ext(path)).WithContext("path", path)
	}
	return p.extractWithTimeout(ctx, path)
}

type extraction struct {
	result *models.FileResult
	err    error
}

// extractWithTimeout bounds one extractor call. Extractors are not
// cancellable, so a timed-out call is abandoned and its result discarded.
func (p *Processor) extractWithTimeout(ctx context.Context, path string) (*models.FileResult, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, cverrors.FileSystemError(err, "cannot read file").
			WithContext("path", path)
	}

	if p.config.Timeout <= 0 {
		return p.registry.Extract(path, code)
	}

	fileCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	done := make(chan extraction, 1)
	go func() {
		r, err := p.registry.Extract(path, code)
		done <- extraction{result: r, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-fileCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cverrors.ParseErrorf("extraction timed out after %s", p.config.Timeout).WithContext("path", path)
	}
}

// logFailure logs parse failures as warnings; anything more severe, such as
// an unreadable file or a missing grammar, logs as an error
func logFailure(log *logging.Logger, rel string, err error) {
	if cverrors.GetSeverity(err) > cverrors.SeverityMedium {
		log.Error("file extraction failed", "path", rel, "error", err)
		return
	}
	log.Warn("file extraction failed", "path", rel, "error", err)
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

// String summarizes a result for CLI output
func (r *ProcessResult) String() string {
	return fmt.Sprintf("files=%d parsed=%d failed=%d skipped=%d modules=%d classes=%d functions=%d dependencies=%d duration=%s",
		r.FilesTotal, r.FilesParsed, r.FilesFailed, r.FilesSkipped,
		r.Modules, r.Classes, r.Functions, r.Dependencies, r.Duration.Round(time.Millisecond))
}
