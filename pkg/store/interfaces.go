// Package store declares the three collaborator interfaces the detection
// engine depends on for persistence: per-detector configuration, per-detector
// state checkpoints, and an append-only record log. Grounded on spec.md §6
// and original_source/src/utils/persistence.py's PersistenceManager, which
// the original collapses into one class covering all three concerns.
package store

import (
	"time"

	"github.com/sentryline/spc-cusum-engine/pkg/spc"
)

// GlobalConfigKey is the reserved sentinel ConfigStore key holding the
// engine-wide default DetectorConfig.
const GlobalConfigKey = spc.Key("__global_defaults__")

// ConfigStore persists per-detector configuration documents, keyed by
// detector key (or bare item name). A reserved GlobalConfigKey entry holds
// the global defaults.
type ConfigStore interface {
	Get(key spc.Key) (spc.DetectorConfig, bool, error)
	Set(key spc.Key, cfg spc.DetectorConfig) error
	Delete(key spc.Key) error
	List() (map[spc.Key]spc.DetectorConfig, error)
	GetGlobal() (spc.DetectorConfig, error)
	SetGlobal(cfg spc.DetectorConfig) error
}

// StateStore persists detector state checkpoints (the GetState/SetState
// payload) across process restarts.
type StateStore interface {
	UpsertMany(states map[spc.Key]spc.State) error
	DeleteMany(keys []spc.Key) error
	LoadAll() (map[spc.Key]spc.State, error)
}

// RecordFilter selects a subset of the record log for Query.
type RecordFilter struct {
	Item    string
	Context *spc.Context
	From    time.Time
	To      time.Time
	Limit   int
}

// Record is one processed sample plus its detector decision, as appended to
// the record log.
type Record struct {
	Key        spc.Key
	Item       string
	Context    spc.Context
	Timestamp  time.Time
	Value      float64
	Throughput int
	Tags       spc.Tags
	Snapshot   spc.Snapshot
	IsAlert    bool
	AlertSide  spc.Side
}

// RecordLog is an append-only sink for processed samples. The core does
// not depend on it for correctness; a sink failure is logged and never
// fails a detector step.
type RecordLog interface {
	Append(rec Record) error
	Query(filter RecordFilter) ([]Record, error)
}
