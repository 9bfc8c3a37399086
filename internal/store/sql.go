package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	cverrors "github.com/rohankatakam/codevision/internal/errors"
)

// SQL driver names registered by the imported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// SQLStore persists analyses in a single relational table. SQLite serves
// a local file, PostgreSQL a shared server. Capacity and TTL behave as in
// BoltStore.
type SQLStore struct {
	db       *sqlx.DB
	driver   string
	capacity int
	ttl      time.Duration
	logger   *logrus.Logger
	now      func() time.Time
}

// analysisRow is one analyses table row. created_at holds unix nanoseconds
// so ordering and cutoffs compare integers on every driver.
type analysisRow struct {
	ProjectID string `db:"project_id"`
	RunID     string `db:"run_id"`
	CreatedAt int64  `db:"created_at"`
	Root      string `db:"root"`
	Modules   int    `db:"modules"`
	Classes   int    `db:"classes"`
	Payload   []byte `db:"payload"`
}

func (r analysisRow) summary() Summary {
	runID, _ := uuid.Parse(r.RunID)
	return Summary{
		ProjectID: r.ProjectID,
		RunID:     runID,
		CreatedAt: time.Unix(0, r.CreatedAt).UTC(),
		Root:      r.Root,
		Modules:   r.Modules,
		Classes:   r.Classes,
	}
}

func schemaFor(driver string) string {
	payload := "BLOB"
	if driver == DriverPostgres {
		payload = "BYTEA"
	}
	return fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS analyses (
		project_id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		root TEXT NOT NULL,
		modules INTEGER NOT NULL,
		classes INTEGER NOT NULL,
		payload %s NOT NULL
	)`, payload)
}

// NewSQLStore connects with driver (DriverSQLite or DriverPostgres) and
// creates the analyses table. For SQLite, dsn is a file path.
func NewSQLStore(driver, dsn string, capacity int, ttl time.Duration, logger *logrus.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if capacity < 1 {
		capacity = 1
	}

	switch driver {
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, cverrors.StorageError(err, "create database directory").WithContext("path", dsn)
		}
	case DriverPostgres:
	default:
		return nil, cverrors.ConfigErrorf("unsupported sql driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, cverrors.StorageError(err, "connect to database").WithContext("driver", driver)
	}

	if driver == DriverSQLite {
		// one writer at a time keeps SQLite from returning SQLITE_BUSY
		db.SetMaxOpenConns(1)
		db.Exec("PRAGMA journal_mode = WAL")
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if _, err := db.Exec(schemaFor(driver)); err != nil {
		db.Close()
		return nil, cverrors.StorageError(err, "init schema")
	}

	return &SQLStore{
		db:       db,
		driver:   driver,
		capacity: capacity,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// cutoff is the oldest live created_at; ok is false when entries never expire
func (s *SQLStore) cutoff() (int64, bool) {
	if s.ttl <= 0 {
		return 0, false
	}
	return s.now().Add(-s.ttl).UnixNano(), true
}

// Put upserts a, then deletes expired entries and the oldest entries beyond capacity
func (s *SQLStore) Put(ctx context.Context, a *Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return cverrors.StorageError(err, "encode analysis")
	}
	row := analysisRow{
		ProjectID: a.ProjectID,
		RunID:     a.RunID.String(),
		CreatedAt: a.CreatedAt.UnixNano(),
		Root:      a.Root,
		Payload:   payload,
	}
	if a.Graph != nil {
		row.Modules = len(a.Graph.Modules)
		row.Classes = len(a.Graph.Classes)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return cverrors.StorageError(err, "begin transaction")
	}
	defer tx.Rollback()

	query := `
		INSERT INTO analyses (project_id, run_id, created_at, root, modules, classes, payload)
		VALUES (:project_id, :run_id, :created_at, :root, :modules, :classes, :payload)
		ON CONFLICT (project_id) DO UPDATE SET
			run_id = excluded.run_id,
			created_at = excluded.created_at,
			root = excluded.root,
			modules = excluded.modules,
			classes = excluded.classes,
			payload = excluded.payload
	`
	if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
		return cverrors.StorageError(err, "write analysis").WithContext("project", a.ProjectID)
	}

	expired := int64(0)
	if cutoff, ok := s.cutoff(); ok {
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM analyses WHERE created_at < ? AND project_id <> ?`), cutoff, a.ProjectID)
		if err != nil {
			return cverrors.StorageError(err, "delete expired analyses")
		}
		expired, _ = res.RowsAffected()
	}

	var ids []string
	err = tx.SelectContext(ctx, &ids, `SELECT project_id FROM analyses ORDER BY created_at DESC, project_id`)
	if err != nil {
		return cverrors.StorageError(err, "list analyses")
	}
	var evicted []string
	if len(ids) > s.capacity {
		for _, id := range ids[s.capacity:] {
			if id == a.ProjectID {
				continue
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM analyses WHERE project_id = ?`), id); err != nil {
				return cverrors.StorageError(err, "evict analysis").WithContext("project", id)
			}
			evicted = append(evicted, id)
		}
	}

	if err := tx.Commit(); err != nil {
		return cverrors.StorageError(err, "commit analysis").WithContext("project", a.ProjectID)
	}

	if expired > 0 || len(evicted) > 0 {
		s.logger.WithFields(logrus.Fields{
			"project": a.ProjectID,
			"expired": expired,
			"evicted": evicted,
		}).Debug("Analyses evicted")
	}
	return nil
}

// Get returns the project's snapshot. Expired snapshots are deleted and
// reported as ErrNotFound.
func (s *SQLStore) Get(ctx context.Context, projectID string) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var row analysisRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT * FROM analyses WHERE project_id = ?`), projectID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, cverrors.StorageError(err, "read analysis").WithContext("project", projectID)
	}

	if cutoff, ok := s.cutoff(); ok && row.CreatedAt < cutoff {
		if err := s.Delete(ctx, projectID); err != nil {
			s.logger.WithError(err).WithField("project", projectID).Warn("Failed to delete expired analysis")
		}
		return nil, ErrNotFound
	}

	a := &Analysis{}
	if err := json.Unmarshal(row.Payload, a); err != nil {
		return nil, cverrors.StorageError(err, "decode analysis").WithContext("project", projectID)
	}
	return a, nil
}

// Delete forgets the project; unknown projects are not an error
func (s *SQLStore) Delete(ctx context.Context, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM analyses WHERE project_id = ?`), projectID); err != nil {
		return cverrors.StorageError(err, "delete analysis").WithContext("project", projectID)
	}
	return nil
}

// List returns live entries ordered by project id
func (s *SQLStore) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := `SELECT project_id, run_id, created_at, root, modules, classes FROM analyses`
	var args []interface{}
	if cutoff, ok := s.cutoff(); ok {
		query += ` WHERE created_at >= ?`
		args = append(args, cutoff)
	}
	query += ` ORDER BY project_id`

	var rows []analysisRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, cverrors.StorageError(err, "list analyses")
	}

	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.summary())
	}
	return out, nil
}

// Purge deletes every expired entry and reports how many
func (s *SQLStore) Purge(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cutoff, ok := s.cutoff()
	if !ok {
		return 0, nil
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM analyses WHERE created_at < ?`), cutoff)
	if err != nil {
		return 0, cverrors.StorageError(err, "purge analyses")
	}
	removed, _ := res.RowsAffected()

	s.logger.WithField("removed", removed).Info("Store purged")
	return int(removed), nil
}

// Driver returns the SQL driver name
func (s *SQLStore) Driver() string {
	return s.driver
}

// Close releases the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}
