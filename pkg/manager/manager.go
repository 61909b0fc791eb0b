// Package manager is the top-level orchestrator of the detection engine:
// it routes samples to per-key CUSUM detectors, resolves configuration
// precedence, evaluates the cooldown push policy, and maintains the
// trajectory cache. Grounded on original_source/src/core/manager.py's
// DetectionEngineManager and restructured in the idiom of the teacher's
// pkg/algorithm/algorithm.go orchestrator.
package manager

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/sentryline/spc-cusum-engine/pkg/cusum"
	"github.com/sentryline/spc-cusum-engine/pkg/spc"
	"github.com/sentryline/spc-cusum-engine/pkg/store"
)

// trajectoryCapacity bounds the per-detector trajectory cache, serving both
// cooldown evaluation and the "last 30 periods" alert-context payload.
const trajectoryCapacity = 30

// entry is one live detector plus its trajectory cache, guarded by its own
// mutex so that samples on different keys never serialize against each
// other.
type entry struct {
	mu         sync.Mutex
	detector   *cusum.Detector
	trajectory []spc.Snapshot
}

func (e *entry) appendTrajectory(snap spc.Snapshot) {
	e.trajectory = append(e.trajectory, snap)
	if len(e.trajectory) > trajectoryCapacity {
		e.trajectory = e.trajectory[len(e.trajectory)-trajectoryCapacity:]
	}
}

// Manager is the detection engine's in-process API.
type Manager struct {
	configStore store.ConfigStore
	stateStore  store.StateStore
	recordLog   store.RecordLog

	tableMu sync.RWMutex
	table   map[spc.Key]*entry

	pendingMu     sync.Mutex
	pendingStates map[spc.Key]spc.State
}

// New wires a Manager to its three collaborator stores.
func New(configStore store.ConfigStore, stateStore store.StateStore, recordLog store.RecordLog) *Manager {
	return &Manager{
		configStore:   configStore,
		stateStore:    stateStore,
		recordLog:     recordLog,
		table:         make(map[spc.Key]*entry),
		pendingStates: make(map[spc.Key]spc.State),
	}
}

// IngestInput is one raw sample arriving at the engine boundary.
type IngestInput struct {
	Item           string
	Context        spc.Context
	Value          float64
	Throughput     int
	Timestamp      string // raw ISO-8601, optional
	Tags           spc.Tags
	OverrideConfig *spc.DetectorConfig
}

// IngestResult is the outcome of processing one sample.
type IngestResult struct {
	Key        spc.Key
	Alert      bool
	ShouldPush bool
	AlertSide  spc.Side
	Snapshot   spc.Snapshot
	Trajectory []spc.Snapshot
}

// Ingest processes one sample end to end: validate, route to its
// detector, update, evaluate cooldown, append to the trajectory cache and
// record log.
func (m *Manager) Ingest(in IngestInput) (IngestResult, error) {
	if in.Item == "" || in.Throughput <= 0 || math.IsNaN(in.Value) {
		return IngestResult{}, fmt.Errorf("%w: item=%q n=%d value=%v", ErrBadSample, in.Item, in.Throughput, in.Value)
	}

	ts, ok := spc.ParseTimestamp(in.Timestamp)
	if !ok {
		ts = time.Now().UTC()
	}

	key := spc.MakeKey(in.Item, in.Context)
	e, err := m.getOrCreate(key, in.OverrideConfig)
	if err != nil {
		return IngestResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	alert, snap := e.detector.Update(ts, in.Value, in.Throughput)
	snap.Key = key

	shouldPush := m.shouldPush(e, alert)
	snap.PushExecuted = shouldPush
	e.appendTrajectory(snap)

	trajectory := make([]spc.Snapshot, len(e.trajectory))
	copy(trajectory, e.trajectory)

	if m.recordLog != nil {
		rec := store.Record{
			Key:        key,
			Item:       in.Item,
			Context:    in.Context,
			Timestamp:  ts,
			Value:      in.Value,
			Throughput: in.Throughput,
			Tags:       in.Tags,
			Snapshot:   snap,
			IsAlert:    alert,
			AlertSide:  snap.AlertSide,
		}
		if err := m.recordLog.Append(rec); err != nil {
			log.Printf("manager: record log append failed for key %s: %v", key, err)
		}
	}

	return IngestResult{
		Key:        key,
		Alert:      alert,
		ShouldPush: shouldPush,
		AlertSide:  snap.AlertSide,
		Snapshot:   snap,
		Trajectory: trajectory,
	}, nil
}

// shouldPush evaluates the cooldown policy against the trajectory as it
// stood before the current step was appended.
func (m *Manager) shouldPush(e *entry, alert bool) bool {
	if !alert {
		return false
	}
	cfg := e.detector.Config()
	if !cfg.CooldownEnabled() {
		return true
	}
	n := len(e.trajectory)
	start := n - cfg.CooldownPeriods
	if start < 0 {
		start = 0
	}
	for i := start; i < n; i++ {
		if e.trajectory[i].PushExecuted {
			return false
		}
	}
	return true
}

// getOrCreate returns the live entry for key, constructing one (with
// config precedence resolution and any pending restored state) if absent.
func (m *Manager) getOrCreate(key spc.Key, override *spc.DetectorConfig) (*entry, error) {
	m.tableMu.RLock()
	if e, ok := m.table[key]; ok {
		m.tableMu.RUnlock()
		return e, nil
	}
	m.tableMu.RUnlock()

	m.tableMu.Lock()
	defer m.tableMu.Unlock()
	if e, ok := m.table[key]; ok {
		return e, nil
	}

	var ov spc.DetectorConfig
	if override != nil {
		ov = *override
	}
	cfg := m.resolveConfig(key, ov)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("manager: resolved config invalid for key %s: %w", key, err)
	}

	det := cusum.New(cfg)
	e := &entry{detector: det}

	m.pendingMu.Lock()
	if st, ok := m.pendingStates[key]; ok {
		det.SetState(st)
		delete(m.pendingStates, key)
	}
	m.pendingMu.Unlock()

	m.table[key] = e
	return e, nil
}

// resolveConfig implements the precedence chain: caller override >
// persisted per-key config > persisted per-item (bare name) config >
// global defaults.
func (m *Manager) resolveConfig(key spc.Key, override spc.DetectorConfig) spc.DetectorConfig {
	cfg, err := m.configStore.GetGlobal()
	if err != nil {
		log.Printf("manager: failed to read global defaults, using package defaults: %v", err)
		cfg = spc.DefaultGlobalConfig()
	}

	if bare, ok, err := m.configStore.Get(spc.Key(key.Item())); err == nil && ok {
		cfg = cfg.Merge(bare)
	}
	if perKey, ok, err := m.configStore.Get(key); err == nil && ok {
		cfg = cfg.Merge(perKey)
	}
	return cfg.Merge(override)
}

// Register upserts the configuration document for a detector key or bare
// item name.
func (m *Manager) Register(keyOrItem spc.Key, cfg spc.DetectorConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("manager: invalid config for %s: %w", keyOrItem, err)
	}
	return m.configStore.Set(keyOrItem, cfg)
}

// Delete removes a detector's live state, persisted config, and persisted
// checkpoint. Deleting an unknown key is a no-op, not an error.
func (m *Manager) Delete(key spc.Key) error {
	m.tableMu.Lock()
	delete(m.table, key)
	m.tableMu.Unlock()

	if err := m.configStore.Delete(key); err != nil {
		return fmt.Errorf("manager: delete config for %s: %w", key, err)
	}
	return m.stateStore.DeleteMany([]spc.Key{key})
}

// BatchImport seeds a shared configuration across many keys without
// constructing their detectors.
func (m *Manager) BatchImport(keys []spc.Key, sharedCfg spc.DetectorConfig) error {
	if err := sharedCfg.Validate(); err != nil {
		return fmt.Errorf("manager: invalid shared config: %w", err)
	}
	for _, k := range keys {
		if err := m.configStore.Set(k, sharedCfg); err != nil {
			return fmt.Errorf("manager: batch import failed at key %s: %w", k, err)
		}
	}
	return nil
}

// ListConfigs returns the global defaults and every persisted per-key
// override.
func (m *Manager) ListConfigs() (spc.DetectorConfig, map[spc.Key]spc.DetectorConfig, error) {
	global, err := m.configStore.GetGlobal()
	if err != nil {
		return spc.DetectorConfig{}, nil, err
	}
	perKey, err := m.configStore.List()
	if err != nil {
		return spc.DetectorConfig{}, nil, err
	}
	return global, perKey, nil
}

// UpdateGlobal merges cfgDelta into the global defaults. Existing
// detectors already captured their resolved configuration at construction
// time and are unaffected; only future get_or_create calls see the
// change. This is a deliberate policy against silent retroactive tuning.
func (m *Manager) UpdateGlobal(cfgDelta spc.DetectorConfig) error {
	global, err := m.configStore.GetGlobal()
	if err != nil {
		return err
	}
	return m.configStore.SetGlobal(global.Merge(cfgDelta))
}

// UpdateConfig hot-reloads a live detector's configuration (or, if the
// detector has not yet been constructed, updates its persisted
// configuration document for the next get_or_create). Per spec.md §4.4,
// a tuning change recomputes h_base immediately without resetting
// accumulators.
func (m *Manager) UpdateConfig(key spc.Key, cfgDelta spc.DetectorConfig) error {
	m.tableMu.RLock()
	e, live := m.table[key]
	m.tableMu.RUnlock()

	if live {
		e.mu.Lock()
		defer e.mu.Unlock()
		merged := e.detector.Config().Merge(cfgDelta)
		if err := merged.Validate(); err != nil {
			return fmt.Errorf("manager: invalid config delta for %s: %w", key, err)
		}
		e.detector.SetConfig(merged)
		return m.configStore.Set(key, merged)
	}

	base, ok, err := m.configStore.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		base, err = m.configStore.GetGlobal()
		if err != nil {
			return err
		}
	}
	merged := base.Merge(cfgDelta)
	if err := merged.Validate(); err != nil {
		return fmt.Errorf("manager: invalid config delta for %s: %w", key, err)
	}
	return m.configStore.Set(key, merged)
}

// SaveAllStates checkpoints every live detector's state to the state
// store in one batch.
func (m *Manager) SaveAllStates() error {
	m.tableMu.RLock()
	defer m.tableMu.RUnlock()

	states := make(map[spc.Key]spc.State, len(m.table))
	for k, e := range m.table {
		e.mu.Lock()
		states[k] = e.detector.GetState()
		e.mu.Unlock()
	}
	return m.stateStore.UpsertMany(states)
}

// LoadAllStates restores checkpointed state onto already-live detectors,
// or stashes it to be applied the first time each key's detector is
// constructed.
func (m *Manager) LoadAllStates() error {
	states, err := m.stateStore.LoadAll()
	if err != nil {
		return err
	}

	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()

	m.tableMu.RLock()
	defer m.tableMu.RUnlock()

	for k, st := range states {
		if e, ok := m.table[k]; ok {
			e.mu.Lock()
			e.detector.SetState(st)
			e.mu.Unlock()
			continue
		}
		m.pendingStates[k] = st
	}
	return nil
}

// Trajectory returns a copy of the most recent trajectory entries for key,
// or ErrUnknownKey if no detector exists for it.
func (m *Manager) Trajectory(key spc.Key) ([]spc.Snapshot, error) {
	m.tableMu.RLock()
	e, ok := m.table[key]
	m.tableMu.RUnlock()
	if !ok {
		return nil, ErrUnknownKey
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]spc.Snapshot, len(e.trajectory))
	copy(out, e.trajectory)
	return out, nil
}

// Keys returns every detector key currently live in the manager's table.
func (m *Manager) Keys() []spc.Key {
	m.tableMu.RLock()
	defer m.tableMu.RUnlock()
	out := make([]spc.Key, 0, len(m.table))
	for k := range m.table {
		out = append(out, k)
	}
	return out
}
