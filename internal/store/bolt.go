package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	cverrors "github.com/rohankatakam/codevision/internal/errors"
)

const bucketName = "analyses"

// BoltStore persists analyses in an embedded bbolt file. Capacity is
// enforced on Put by evicting the oldest entries; TTL is enforced on read
// and by Purge.
type BoltStore struct {
	db       *bolt.DB
	path     string
	capacity int
	ttl      time.Duration
	logger   *logrus.Logger
	now      func() time.Time
}

// NewBoltStore opens (or creates) the store file at path
func NewBoltStore(path string, capacity int, ttl time.Duration, logger *logrus.Logger) (*BoltStore, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if capacity < 1 {
		capacity = 1
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, cverrors.StorageError(err, "create store directory").WithContext("path", path)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, cverrors.StorageError(err, "open store").WithContext("path", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, cverrors.StorageError(err, "init store bucket")
	}

	return &BoltStore{
		db:       db,
		path:     path,
		capacity: capacity,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// header decodes only the fields eviction needs
type header struct {
	ProjectID string    `json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *BoltStore) expired(createdAt time.Time) bool {
	return s.ttl > 0 && s.now().Sub(createdAt) > s.ttl
}

// Put stores a, then trims expired entries and the oldest entries beyond capacity
func (s *BoltStore) Put(ctx context.Context, a *Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(a)
	if err != nil {
		return cverrors.StorageError(err, "encode analysis")
	}

	var evicted []string
	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if err := bucket.Put([]byte(a.ProjectID), data); err != nil {
			return err
		}

		var live []header
		err := bucket.ForEach(func(k, v []byte) error {
			var h header
			if err := json.Unmarshal(v, &h); err != nil || s.expired(h.CreatedAt) {
				evicted = append(evicted, string(k))
				return nil
			}
			h.ProjectID = string(k)
			live = append(live, h)
			return nil
		})
		if err != nil {
			return err
		}

		if over := len(live) - s.capacity; over > 0 {
			sort.Slice(live, func(i, j int) bool { return live[i].CreatedAt.Before(live[j].CreatedAt) })
			for _, h := range live[:over] {
				if h.ProjectID == a.ProjectID {
					continue
				}
				evicted = append(evicted, h.ProjectID)
			}
		}

		for _, key := range evicted {
			if err := bucket.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return cverrors.StorageError(err, "write analysis").WithContext("project", a.ProjectID)
	}

	if len(evicted) > 0 {
		s.logger.WithFields(logrus.Fields{
			"project": a.ProjectID,
			"evicted": evicted,
		}).Debug("Analyses evicted")
	}
	return nil
}

// Get returns the project's snapshot. Expired snapshots are deleted and
// reported as ErrNotFound.
func (s *BoltStore) Get(ctx context.Context, projectID string) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var a *Analysis
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(projectID))
		if data == nil {
			return ErrNotFound
		}
		a = &Analysis{}
		return json.Unmarshal(data, a)
	})
	if err == ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, cverrors.StorageError(err, "read analysis").WithContext("project", projectID)
	}

	if s.expired(a.CreatedAt) {
		if err := s.Delete(ctx, projectID); err != nil {
			s.logger.WithError(err).WithField("project", projectID).Warn("Failed to delete expired analysis")
		}
		return nil, ErrNotFound
	}
	return a, nil
}

// Delete forgets the project; unknown projects are not an error
func (s *BoltStore) Delete(ctx context.Context, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(projectID))
	})
	if err != nil {
		return cverrors.StorageError(err, "delete analysis").WithContext("project", projectID)
	}
	return nil
}

// List returns live entries ordered by project id
func (s *BoltStore) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := []Summary{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			var a Analysis
			if err := json.Unmarshal(v, &a); err != nil {
				s.logger.WithError(err).WithField("project", string(k)).Warn("Skipping unreadable analysis")
				return nil
			}
			if s.expired(a.CreatedAt) {
				return nil
			}
			out = append(out, summarize(&a))
			return nil
		})
	})
	if err != nil {
		return nil, cverrors.StorageError(err, "list analyses")
	}

	// bbolt iterates keys in byte order, which is already project id order
	return out, nil
}

// Purge deletes every expired or unreadable entry and reports how many
func (s *BoltStore) Purge(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		var stale [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			var h header
			if err := json.Unmarshal(v, &h); err != nil || s.expired(h.CreatedAt) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, cverrors.StorageError(err, "purge analyses")
	}

	s.logger.WithField("removed", removed).Info("Store purged")
	return removed, nil
}

// Path returns the store file location
func (s *BoltStore) Path() string {
	return s.path
}

// Close releases the store file
func (s *BoltStore) Close() error {
	return s.db.Close()
}
