package store

import (
	"sort"
	"sync"
	"time"

	"github.com/sentryline/spc-cusum-engine/pkg/spc"
)

// MemoryConfigStore is an in-memory ConfigStore, used by cmd/demo and by
// tests that don't need SQLite.
type MemoryConfigStore struct {
	mu      sync.RWMutex
	configs map[spc.Key]spc.DetectorConfig
	global  spc.DetectorConfig
}

func NewMemoryConfigStore() *MemoryConfigStore {
	return &MemoryConfigStore{
		configs: make(map[spc.Key]spc.DetectorConfig),
		global:  spc.DefaultGlobalConfig(),
	}
}

func (s *MemoryConfigStore) Get(key spc.Key) (spc.DetectorConfig, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[key]
	return cfg, ok, nil
}

func (s *MemoryConfigStore) Set(key spc.Key, cfg spc.DetectorConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[key] = cfg
	return nil
}

func (s *MemoryConfigStore) Delete(key spc.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.configs, key)
	return nil
}

func (s *MemoryConfigStore) List() (map[spc.Key]spc.DetectorConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[spc.Key]spc.DetectorConfig, len(s.configs))
	for k, v := range s.configs {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryConfigStore) GetGlobal() (spc.DetectorConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.global, nil
}

func (s *MemoryConfigStore) SetGlobal(cfg spc.DetectorConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global = cfg
	return nil
}

// MemoryStateStore is an in-memory StateStore.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[spc.Key]spc.State
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[spc.Key]spc.State)}
}

func (s *MemoryStateStore) UpsertMany(states map[spc.Key]spc.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range states {
		s.states[k] = v
	}
	return nil
}

func (s *MemoryStateStore) DeleteMany(keys []spc.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.states, k)
	}
	return nil
}

func (s *MemoryStateStore) LoadAll() (map[spc.Key]spc.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[spc.Key]spc.State, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out, nil
}

// MemoryRecordLog is an in-memory, append-only RecordLog.
type MemoryRecordLog struct {
	mu      sync.Mutex
	records []Record
}

func NewMemoryRecordLog() *MemoryRecordLog {
	return &MemoryRecordLog{}
}

func (l *MemoryRecordLog) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

func (l *MemoryRecordLog) Query(filter RecordFilter) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	matched := make([]Record, 0, len(l.records))
	for _, r := range l.records {
		if filter.Item != "" && r.Item != filter.Item {
			continue
		}
		if filter.Context != nil && r.Context != *filter.Context {
			continue
		}
		if !filter.From.IsZero() && r.Timestamp.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && r.Timestamp.After(filter.To) {
			continue
		}
		matched = append(matched, r)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// PruneOlderThan deletes records with a timestamp strictly before cutoff,
// used by the host's periodic record-log pruning background task.
func (l *MemoryRecordLog) PruneOlderThan(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.records[:0]
	for _, r := range l.records {
		if !r.Timestamp.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	l.records = kept
}
