package database

import "time"

// DetectorConfigRow persists one DetectorConfig document as JSON, keyed by
// detector key, bare item name, or the reserved global-defaults sentinel.
// Grounded on original_source/src/utils/persistence.py's JSON config
// document and the teacher's Simulation row (a JSON blob column alongside
// indexed metadata).
type DetectorConfigRow struct {
	Key        string    `json:"key" gorm:"primaryKey"`
	ConfigJSON string    `json:"config_json"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DetectorStateRow persists one detector's checkpointed state, exactly the
// get_state/set_state payload of spec.md §4.4.
type DetectorStateRow struct {
	Key        string    `json:"key" gorm:"primaryKey"`
	Baseline   float64   `json:"baseline"`
	Std        float64   `json:"std"`
	K          float64   `json:"k"`
	SPlus      float64   `json:"s_plus"`
	SMinus     float64   `json:"s_minus"`
	LastDataTS time.Time `json:"last_data_ts"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RecordRow persists one processed sample plus its detector decision, for
// history queries and the alert-context payload.
type RecordRow struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	Key          string    `json:"key" gorm:"index"`
	Item         string    `json:"item" gorm:"index"`
	Product      string    `json:"product"`
	Line         string    `json:"line"`
	Station      string    `json:"station"`
	Timestamp    time.Time `json:"timestamp" gorm:"index"`
	Value        float64   `json:"value"`
	Throughput   int       `json:"throughput"`
	TagsJSON     string    `json:"tags_json"`
	SnapshotJSON string    `json:"snapshot_json"`
	IsAlert      bool      `json:"is_alert" gorm:"index"`
	AlertSide    string    `json:"alert_side"`
	CreatedAt    time.Time `json:"created_at"`
}
