package api

import "github.com/sentryline/spc-cusum-engine/pkg/spc"

// ingestRequest is the wire shape of a POST /api/v1/ingest call.
type ingestRequest struct {
	Item           string                 `json:"item" binding:"required"`
	Product        string                 `json:"product"`
	Line           string                 `json:"line"`
	Station        string                 `json:"station"`
	Value          float64                `json:"value"`
	Throughput     int                    `json:"n"`
	Timestamp      string                  `json:"timestamp"`
	Tags           map[string]interface{} `json:"tags"`
	OverrideConfig *spc.DetectorConfig    `json:"override_config,omitempty"`
}

func (r ingestRequest) context() spc.Context {
	return spc.Context{Product: r.Product, Line: r.Line, Station: r.Station}
}

// registerRequest upserts a detector's configuration document.
type registerRequest struct {
	Key    string             `json:"key" binding:"required"`
	Config spc.DetectorConfig `json:"config"`
}

// batchImportRequest seeds a shared configuration across many keys.
type batchImportRequest struct {
	Keys      []string           `json:"keys" binding:"required"`
	SharedCfg spc.DetectorConfig `json:"shared_config"`
}

// updateGlobalRequest carries a partial DetectorConfig merged onto the
// global defaults.
type updateGlobalRequest struct {
	ConfigDelta spc.DetectorConfig `json:"config_delta"`
}

// updateConfigRequest hot-reloads one detector's configuration.
type updateConfigRequest struct {
	ConfigDelta spc.DetectorConfig `json:"config_delta"`
}
