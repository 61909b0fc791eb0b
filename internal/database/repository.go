package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sentryline/spc-cusum-engine/pkg/spc"
	"github.com/sentryline/spc-cusum-engine/pkg/store"
)

// ConfigRepository is the SQLite-backed store.ConfigStore implementation,
// grounded on original_source/src/utils/persistence.py's config document
// and the teacher's Repository pattern of explicit per-entity methods
// wrapping a *DB.
type ConfigRepository struct {
	db *DB
}

func NewConfigRepository(db *DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

var _ store.ConfigStore = (*ConfigRepository)(nil)

func (r *ConfigRepository) Get(key spc.Key) (spc.DetectorConfig, bool, error) {
	var row DetectorConfigRow
	err := r.db.First(&row, "key = ?", string(key)).Error
	if err == gorm.ErrRecordNotFound {
		return spc.DetectorConfig{}, false, nil
	}
	if err != nil {
		return spc.DetectorConfig{}, false, fmt.Errorf("database: get config %s: %w", key, err)
	}
	var cfg spc.DetectorConfig
	if err := json.Unmarshal([]byte(row.ConfigJSON), &cfg); err != nil {
		return spc.DetectorConfig{}, false, fmt.Errorf("database: decode config %s: %w", key, err)
	}
	return cfg, true, nil
}

func (r *ConfigRepository) Set(key spc.Key, cfg spc.DetectorConfig) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("database: encode config %s: %w", key, err)
	}
	row := DetectorConfigRow{Key: string(key), ConfigJSON: string(payload), UpdatedAt: time.Now()}
	return r.db.Save(&row).Error
}

func (r *ConfigRepository) Delete(key spc.Key) error {
	return r.db.Where("key = ?", string(key)).Delete(&DetectorConfigRow{}).Error
}

func (r *ConfigRepository) List() (map[spc.Key]spc.DetectorConfig, error) {
	var rows []DetectorConfigRow
	if err := r.db.Where("key <> ?", string(store.GlobalConfigKey)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("database: list configs: %w", err)
	}
	out := make(map[spc.Key]spc.DetectorConfig, len(rows))
	for _, row := range rows {
		var cfg spc.DetectorConfig
		if err := json.Unmarshal([]byte(row.ConfigJSON), &cfg); err != nil {
			return nil, fmt.Errorf("database: decode config %s: %w", row.Key, err)
		}
		out[spc.Key(row.Key)] = cfg
	}
	return out, nil
}

func (r *ConfigRepository) GetGlobal() (spc.DetectorConfig, error) {
	cfg, ok, err := r.Get(store.GlobalConfigKey)
	if err != nil {
		return spc.DetectorConfig{}, err
	}
	if !ok {
		return spc.DefaultGlobalConfig(), nil
	}
	return cfg, nil
}

func (r *ConfigRepository) SetGlobal(cfg spc.DetectorConfig) error {
	return r.Set(store.GlobalConfigKey, cfg)
}

// StateRepository is the SQLite-backed store.StateStore implementation.
type StateRepository struct {
	db *DB
}

func NewStateRepository(db *DB) *StateRepository {
	return &StateRepository{db: db}
}

var _ store.StateStore = (*StateRepository)(nil)

func (r *StateRepository) UpsertMany(states map[spc.Key]spc.State) error {
	if len(states) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for key, s := range states {
			row := DetectorStateRow{
				Key:        string(key),
				Baseline:   s.Baseline,
				Std:        s.Std,
				K:          s.K,
				SPlus:      s.SPlus,
				SMinus:     s.SMinus,
				LastDataTS: s.LastDataTS,
				UpdatedAt:  now,
			}
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("database: upsert state %s: %w", key, err)
			}
		}
		return nil
	})
}

func (r *StateRepository) DeleteMany(keys []spc.Key) error {
	if len(keys) == 0 {
		return nil
	}
	raw := make([]string, len(keys))
	for i, k := range keys {
		raw[i] = string(k)
	}
	return r.db.Where("key IN ?", raw).Delete(&DetectorStateRow{}).Error
}

func (r *StateRepository) LoadAll() (map[spc.Key]spc.State, error) {
	var rows []DetectorStateRow
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("database: load all states: %w", err)
	}
	out := make(map[spc.Key]spc.State, len(rows))
	for _, row := range rows {
		out[spc.Key(row.Key)] = spc.State{
			Baseline:   row.Baseline,
			Std:        row.Std,
			K:          row.K,
			SPlus:      row.SPlus,
			SMinus:     row.SMinus,
			LastDataTS: row.LastDataTS,
		}
	}
	return out, nil
}

// RecordRepository is the SQLite-backed store.RecordLog implementation.
type RecordRepository struct {
	db *DB
}

func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{db: db}
}

var _ store.RecordLog = (*RecordRepository)(nil)

func (r *RecordRepository) Append(rec store.Record) error {
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return fmt.Errorf("database: encode tags: %w", err)
	}
	snap, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return fmt.Errorf("database: encode snapshot: %w", err)
	}
	row := RecordRow{
		ID:           uuid.NewString(),
		Key:          string(rec.Key),
		Item:         rec.Item,
		Product:      rec.Context.Product,
		Line:         rec.Context.Line,
		Station:      rec.Context.Station,
		Timestamp:    rec.Timestamp,
		Value:        rec.Value,
		Throughput:   rec.Throughput,
		TagsJSON:     string(tags),
		SnapshotJSON: string(snap),
		IsAlert:      rec.IsAlert,
		AlertSide:    string(rec.AlertSide),
		CreatedAt:    time.Now(),
	}
	return r.db.Create(&row).Error
}

func (r *RecordRepository) Query(filter store.RecordFilter) ([]store.Record, error) {
	q := r.db.Model(&RecordRow{})
	if filter.Item != "" {
		q = q.Where("item = ?", filter.Item)
	}
	if filter.Context != nil {
		q = q.Where("product = ? AND line = ? AND station = ?", filter.Context.Product, filter.Context.Line, filter.Context.Station)
	}
	if !filter.From.IsZero() {
		q = q.Where("timestamp >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("timestamp <= ?", filter.To)
	}
	q = q.Order("timestamp ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var rows []RecordRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("database: query records: %w", err)
	}

	out := make([]store.Record, 0, len(rows))
	for _, row := range rows {
		var tags spc.Tags
		if row.TagsJSON != "" {
			if err := json.Unmarshal([]byte(row.TagsJSON), &tags); err != nil {
				return nil, fmt.Errorf("database: decode tags for record %s: %w", row.ID, err)
			}
		}
		var snap spc.Snapshot
		if err := json.Unmarshal([]byte(row.SnapshotJSON), &snap); err != nil {
			return nil, fmt.Errorf("database: decode snapshot for record %s: %w", row.ID, err)
		}
		out = append(out, store.Record{
			Key:        spc.Key(row.Key),
			Item:       row.Item,
			Context:    spc.Context{Product: row.Product, Line: row.Line, Station: row.Station},
			Timestamp:  row.Timestamp,
			Value:      row.Value,
			Throughput: row.Throughput,
			Tags:       tags,
			Snapshot:   snap,
			IsAlert:    row.IsAlert,
			AlertSide:  spc.Side(row.AlertSide),
		})
	}
	return out, nil
}

// PruneOlderThan deletes records with a timestamp strictly before cutoff,
// used by the host's periodic record-log pruning background task.
func (r *RecordRepository) PruneOlderThan(cutoff time.Time) error {
	return r.db.Where("timestamp < ?", cutoff).Delete(&RecordRow{}).Error
}
