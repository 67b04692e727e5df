package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketPhaseEvents    = []byte("phase_events")
	bucketConfigSnapshot = []byte("config_snapshot")
	keyConfigSnapshot    = []byte("current")
)

type bboltRepository struct {
	db     *bolt.DB
	events PhaseEventStore
	config ConfigSnapshotStore
}

func NewBboltRepository(path string) (Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("repository db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := initBboltSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &bboltRepository{
		db:     db,
		events: &bboltPhaseEventStore{db: db, now: time.Now},
		config: &bboltConfigSnapshotStore{db: db, now: time.Now},
	}, nil
}

func (r *bboltRepository) PhaseEvents() PhaseEventStore {
	return r.events
}

func (r *bboltRepository) ConfigSnapshot() ConfigSnapshotStore {
	return r.config
}

func (r *bboltRepository) Backend() string {
	return RepositoryBackendBbolt
}

func (r *bboltRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func initBboltSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketPhaseEvents); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketConfigSnapshot); err != nil {
			return err
		}
		return nil
	})
}

type bboltPhaseEventStore struct {
	db  *bolt.DB
	mu  sync.Mutex
	now func() time.Time
}

func (s *bboltPhaseEventStore) Append(ctx context.Context, event *PhaseEvent) (*PhaseEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event == nil {
		return nil, errors.New("event is required")
	}
	if event.Phase <= 0 {
		return nil, errors.New("event phase is required")
	}
	if strings.TrimSpace(event.Status) == "" {
		return nil, errors.New("event status is required")
	}
	stored := clonePhaseEvent(event)
	if strings.TrimSpace(stored.ID) == "" {
		stored.ID = uuid.NewString()
	}
	if stored.At.IsZero() {
		stored.At = s.now().UTC()
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPhaseEvents)
		if b == nil {
			return errors.New("phase_events bucket missing")
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(sequenceKey(seq), raw)
	})
	if err != nil {
		return nil, err
	}
	return clonePhaseEvent(stored), nil
}

func (s *bboltPhaseEventStore) List(ctx context.Context, limit int) ([]*PhaseEvent, error) {
	out := make([]*PhaseEvent, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPhaseEvents)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var event PhaseEvent
			if err := json.Unmarshal(v, &event); err != nil {
				return err
			}
			out = append(out, &event)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// sequenceKey keeps bbolt's byte ordering equal to insertion order.
func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

type bboltConfigSnapshotStore struct {
	db  *bolt.DB
	now func() time.Time
}

func (s *bboltConfigSnapshotStore) Load(ctx context.Context) (*ConfigSnapshot, bool, error) {
	var (
		out *ConfigSnapshot
		ok  bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketConfigSnapshot)
		if b == nil {
			return nil
		}
		raw := b.Get(keyConfigSnapshot)
		if len(raw) == 0 {
			return nil
		}
		var snapshot ConfigSnapshot
		if err := json.Unmarshal(raw, &snapshot); err != nil {
			return err
		}
		out = &snapshot
		ok = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, ok, nil
}

func (s *bboltConfigSnapshotStore) Save(ctx context.Context, values map[string]string) error {
	if values == nil {
		return errors.New("config values are required")
	}
	raw, err := json.Marshal(ConfigSnapshot{Values: cloneValues(values), SavedAt: s.now().UTC()})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketConfigSnapshot)
		if b == nil {
			return errors.New("config_snapshot bucket missing")
		}
		return b.Put(keyConfigSnapshot, raw)
	})
}
