package analysis

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/codevision/internal/config"
	"github.com/rohankatakam/codevision/internal/diagram"
	cverrors "github.com/rohankatakam/codevision/internal/errors"
	"github.com/rohankatakam/codevision/internal/extract"
	"github.com/rohankatakam/codevision/internal/ingestion"
	"github.com/rohankatakam/codevision/internal/render"
	"github.com/rohankatakam/codevision/internal/store"
)

// Service is the facade a service layer calls: it analyzes directories
// into stored snapshots and synthesizes or renders diagrams from them
type Service struct {
	processor *ingestion.Processor
	store     store.Store
	renderer  *render.Renderer
	logger    *logrus.Logger
}

// NewService wires a service from configuration
func NewService(cfg *config.Config, st store.Store, logger *logrus.Logger) (*Service, error) {
	if logger == nil {
		logger = logrus.New()
	}

	registry := extract.DefaultRegistry(extract.Options{ScriptMode: cfg.Extract.ScriptMode})
	processor, err := ingestion.NewProcessor(&ingestion.ProcessorConfig{
		Workers: cfg.Extract.Workers,
		Timeout: cfg.Extract.FileTimeout,
		Walker: ingestion.WalkerConfig{
			SkipDirs:         cfg.Extract.SkipDirs,
			ExcludeGlobs:     cfg.Extract.ExcludeGlobs,
			RespectGitignore: cfg.Extract.RespectGitignore,
			MaxFileBytes:     cfg.Extract.MaxFileBytes,
		},
	}, registry)
	if err != nil {
		return nil, err
	}

	renderer := render.NewRenderer(render.Config{
		Binary:      cfg.Render.Binary,
		Timeout:     cfg.Render.Timeout,
		Concurrency: cfg.Render.Concurrency,
		ScratchDir:  cfg.Render.ScratchDir,
	})

	return New(processor, st, renderer, logger), nil
}

// New assembles a service from its parts
func New(processor *ingestion.Processor, st store.Store, renderer *render.Renderer, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		processor: processor,
		store:     st,
		renderer:  renderer,
		logger:    logger,
	}
}

// ProjectID derives a default project id from a directory path
func ProjectID(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return filepath.Base(abs)
}

// Analyze extracts dir and stores the snapshot under projectID, replacing
// any earlier snapshot of that project
func (s *Service) Analyze(ctx context.Context, projectID, dir string) (*store.Analysis, error) {
	if projectID == "" {
		projectID = ProjectID(dir)
	}
	log := s.logger.WithFields(logrus.Fields{"project": projectID, "dir": dir})
	log.Info("Starting analysis")

	g, stats, err := s.processor.ProcessDirectory(ctx, dir)
	if err != nil {
		log.WithError(err).Error("Analysis failed")
		return nil, err
	}

	a := store.NewAnalysis(projectID, dir, g, stats)
	if err := s.store.Put(ctx, a); err != nil {
		log.WithError(err).Error("Failed to store analysis")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"run_id":   a.RunID,
		"parsed":   stats.FilesParsed,
		"failed":   stats.FilesFailed,
		"classes":  stats.Classes,
		"duration": stats.Duration.Round(time.Millisecond),
	}).Info("Analysis stored")
	return a, nil
}

// Diagram synthesizes the bundle of kind for a stored project. Unknown
// kinds fall back to the class view.
func (s *Service) Diagram(ctx context.Context, projectID, kind string) (*diagram.Bundle, error) {
	a, err := s.lookup(ctx, projectID)
	if err != nil {
		return nil, err
	}

	k, kerr := diagram.ParseKind(kind)
	if kerr != nil {
		s.logger.WithError(kerr).WithField("kind", kind).Warn("Unknown diagram kind, using class")
	}
	return diagram.Synthesize(a.Graph, k), nil
}

// Render rasterizes the graph-layout notation of a stored project. The
// boolean is false when rendering produced nothing; callers fall back to
// the text notations.
func (s *Service) Render(ctx context.Context, projectID, kind string, format render.Format) ([]byte, bool, error) {
	bundle, err := s.Diagram(ctx, projectID, kind)
	if err != nil {
		return nil, false, err
	}
	out, ok := s.renderer.Render(ctx, bundle.DOTText, format)
	if !ok {
		s.logger.WithFields(logrus.Fields{"project": projectID, "format": format}).Warn("Render unavailable")
	}
	return out, ok, nil
}

// RenderBase64 is Render with base64 output
func (s *Service) RenderBase64(ctx context.Context, projectID, kind string, format render.Format) (string, bool, error) {
	bundle, err := s.Diagram(ctx, projectID, kind)
	if err != nil {
		return "", false, err
	}
	out, ok := s.renderer.RenderBase64(ctx, bundle.DOTText, format)
	return out, ok, nil
}

// Forget removes the project's snapshot
func (s *Service) Forget(ctx context.Context, projectID string) error {
	if err := s.store.Delete(ctx, projectID); err != nil {
		return err
	}
	s.logger.WithField("project", projectID).Info("Analysis forgotten")
	return nil
}

// Projects lists stored snapshots
func (s *Service) Projects(ctx context.Context) ([]store.Summary, error) {
	return s.store.List(ctx)
}

// Processor exposes the underlying processor for single-file extraction
func (s *Service) Processor() *ingestion.Processor {
	return s.processor
}

func (s *Service) lookup(ctx context.Context, projectID string) (*store.Analysis, error) {
	a, err := s.store.Get(ctx, projectID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, cverrors.ValidationErrorf("no analysis for project %q", projectID).WithContext("project", projectID)
	}
	return a, err
}
