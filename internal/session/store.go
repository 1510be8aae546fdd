// Package session keeps mounted table instances alive between requests.
//
// Each instance owns one table.Table. Handlers reach it through
// Instance.Do, which serialises every interaction with that table. Idle
// instances are dropped by the sweeper, and when the store is full the
// least recently used instance is evicted.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/gridview/internal/table"
)

// ErrNotFound is returned for an unknown or expired instance id.
var ErrNotFound = errors.New("table instance not found")

// Config holds store limits. Zero values fall back to defaults.
type Config struct {
	TTL          time.Duration // Idle lifetime (default: 30m)
	MaxInstances int           // Live instance cap (default: 1000)
}

const (
	defaultTTL          = 30 * time.Minute
	defaultMaxInstances = 1000
)

// Instance is one mounted table.
type Instance struct {
	ID         string
	DatasetKey string
	Created    time.Time

	mu       sync.Mutex
	table    *table.Table
	selected table.Record

	// lastUsed is guarded by Store.mu.
	lastUsed time.Time
}

// Do runs fn with exclusive access to the instance's table.
func (i *Instance) Do(fn func(*table.Table)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	fn(i.table)
}

// Select records r as the clicked row. Only call it from inside Do, which
// is where the table's row click callback runs.
func (i *Instance) Select(r table.Record) {
	i.selected = r
}

// Selected returns the last clicked row, or nil. Only call it from inside Do.
func (i *Instance) Selected() table.Record {
	return i.selected
}

// Store is the set of live instances.
type Store struct {
	mu        sync.RWMutex
	instances map[string]*Instance
	cfg       Config
	now       func() time.Time
}

// NewStore creates an empty store.
func NewStore(cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.MaxInstances <= 0 {
		cfg.MaxInstances = defaultMaxInstances
	}
	return &Store{
		instances: make(map[string]*Instance),
		cfg:       cfg,
		now:       time.Now,
	}
}

// Mount registers t under a fresh id and returns its instance.
func (s *Store) Mount(datasetKey string, t *table.Table) *Instance {
	return s.MountFunc(datasetKey, func(*Instance) *table.Table { return t })
}

// MountFunc is Mount for tables whose options need the instance, such as a
// row click callback that calls Instance.Select.
func (s *Store) MountFunc(datasetKey string, build func(*Instance) *table.Table) *Instance {
	now := s.now()
	inst := &Instance{
		ID:         uuid.NewString(),
		DatasetKey: datasetKey,
		Created:    now,
		lastUsed:   now,
	}
	inst.table = build(inst)

	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.instances) >= s.cfg.MaxInstances {
		s.evictOldestLocked()
	}
	s.instances[inst.ID] = inst
	return inst
}

// Get returns the instance for id and marks it used.
func (s *Store) Get(id string) (*Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[id]
	if !ok {
		return nil, ErrNotFound
	}
	inst.lastUsed = s.now()
	return inst, nil
}

// Unmount drops the instance for id.
func (s *Store) Unmount(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.instances[id]; !ok {
		return ErrNotFound
	}
	delete(s.instances, id)
	return nil
}

// Len returns the number of live instances.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.instances)
}

// Sweep drops every instance idle longer than the TTL at now and returns
// how many were dropped.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for id, inst := range s.instances {
		if now.Sub(inst.lastUsed) > s.cfg.TTL {
			delete(s.instances, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	slog.Info("session sweeper started",
		"interval", interval,
		"ttl", s.cfg.TTL,
		"max_instances", s.cfg.MaxInstances,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				slog.Debug("swept idle table instances", "dropped", n, "live", s.Len())
			}
		}
	}
}

func (s *Store) evictOldestLocked() {
	var oldest *Instance
	for _, inst := range s.instances {
		if oldest == nil || inst.lastUsed.Before(oldest.lastUsed) {
			oldest = inst
		}
	}
	if oldest == nil {
		return
	}
	delete(s.instances, oldest.ID)
	slog.Debug("evicted table instance", "instance", oldest.ID, "dataset", oldest.DatasetKey)
}
