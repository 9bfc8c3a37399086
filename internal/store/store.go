package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/codevision/internal/config"
	cverrors "github.com/rohankatakam/codevision/internal/errors"
	"github.com/rohankatakam/codevision/internal/ingestion"
	"github.com/rohankatakam/codevision/internal/models"
)

// ErrNotFound is returned for unknown or expired projects
var ErrNotFound = errors.New("analysis not found")

// Analysis is one stored extraction snapshot
type Analysis struct {
	ProjectID string                   `json:"project_id"`
	RunID     uuid.UUID                `json:"run_id"`
	CreatedAt time.Time                `json:"created_at"`
	Root      string                   `json:"root"`
	Graph     *models.Graph            `json:"graph"`
	Stats     *ingestion.ProcessResult `json:"stats,omitempty"`
}

// NewAnalysis stamps a snapshot with a fresh run id
func NewAnalysis(projectID, root string, g *models.Graph, stats *ingestion.ProcessResult) *Analysis {
	return &Analysis{
		ProjectID: projectID,
		RunID:     uuid.New(),
		CreatedAt: time.Now().UTC(),
		Root:      root,
		Graph:     g,
		Stats:     stats,
	}
}

// Summary describes a stored analysis without its graph
type Summary struct {
	ProjectID string    `json:"project_id"`
	RunID     uuid.UUID `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Root      string    `json:"root"`
	Modules   int       `json:"modules"`
	Classes   int       `json:"classes"`
}

func summarize(a *Analysis) Summary {
	s := Summary{
		ProjectID: a.ProjectID,
		RunID:     a.RunID,
		CreatedAt: a.CreatedAt,
		Root:      a.Root,
	}
	if a.Graph != nil {
		s.Modules = len(a.Graph.Modules)
		s.Classes = len(a.Graph.Classes)
	}
	return s
}

// Store keeps analyses keyed by project id. Implementations bound the
// number of entries and expire entries older than their TTL.
type Store interface {
	// Put replaces the project's snapshot, evicting the oldest entry when full
	Put(ctx context.Context, a *Analysis) error
	// Get returns ErrNotFound for unknown or expired projects
	Get(ctx context.Context, projectID string) (*Analysis, error)
	Delete(ctx context.Context, projectID string) error
	// List returns live entries ordered by project id
	List(ctx context.Context) ([]Summary, error)
	Close() error
}

// Purger is implemented by stores that need expired entries removed explicitly
type Purger interface {
	Purge(ctx context.Context) (int, error)
}

// Open creates the store selected by cfg
func Open(cfg config.StoreConfig, logger *logrus.Logger) (Store, error) {
	switch cfg.Type {
	case config.StoreMemory, "":
		return NewMemoryStore(cfg.Capacity, cfg.TTL, logger), nil
	case config.StoreBolt:
		s, err := NewBoltStore(cfg.Path, cfg.Capacity, cfg.TTL, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreSQLite:
		s, err := NewSQLStore(DriverSQLite, cfg.Path, cfg.Capacity, cfg.TTL, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorePostgres:
		s, err := NewSQLStore(DriverPostgres, cfg.DSN, cfg.Capacity, cfg.TTL, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, cverrors.ConfigErrorf("unknown store type %q", cfg.Type)
	}
}
