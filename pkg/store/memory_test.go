package store

import (
	"testing"
	"time"

	"github.com/sentryline/spc-cusum-engine/pkg/spc"
)

func TestMemoryConfigStore_GlobalSentinelAndPerKey(t *testing.T) {
	cs := NewMemoryConfigStore()
	global := spc.DefaultGlobalConfig()
	global.BaseN = 999
	if err := cs.SetGlobal(global); err != nil {
		t.Fatalf("SetGlobal: %v", err)
	}
	got, err := cs.GetGlobal()
	if err != nil || got.BaseN != 999 {
		t.Fatalf("expected persisted global defaults, got %+v, err=%v", got, err)
	}

	key := spc.Key("line1::a::b::widget")
	cfg := spc.DetectorConfig{CooldownPeriods: 9}
	if err := cs.Set(key, cfg); err != nil {
		t.Fatalf("Set: %v", err)
	}
	fetched, ok, err := cs.Get(key)
	if err != nil || !ok || fetched.CooldownPeriods != 9 {
		t.Fatalf("expected per-key config to round-trip, got %+v ok=%v err=%v", fetched, ok, err)
	}

	if err := cs.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := cs.Get(key); ok {
		t.Error("expected config to be gone after delete")
	}
}

func TestMemoryStateStore_BatchUpsertAndDelete(t *testing.T) {
	ss := NewMemoryStateStore()
	states := map[spc.Key]spc.State{
		"a": {Baseline: 1},
		"b": {Baseline: 2},
	}
	if err := ss.UpsertMany(states); err != nil {
		t.Fatalf("UpsertMany: %v", err)
	}
	all, err := ss.LoadAll()
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 states loaded, got %d, err=%v", len(all), err)
	}
	if err := ss.DeleteMany([]spc.Key{"a"}); err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	all, _ = ss.LoadAll()
	if len(all) != 1 {
		t.Errorf("expected 1 state remaining after delete, got %d", len(all))
	}
}

func TestMemoryRecordLog_QueryFiltersAndOrders(t *testing.T) {
	rl := NewMemoryRecordLog()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = rl.Append(Record{Item: "widget", Timestamp: base.Add(2 * time.Hour)})
	_ = rl.Append(Record{Item: "widget", Timestamp: base})
	_ = rl.Append(Record{Item: "gadget", Timestamp: base.Add(time.Hour)})

	got, err := rl.Query(RecordFilter{Item: "widget"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 widget records, got %d", len(got))
	}
	if !got[0].Timestamp.Before(got[1].Timestamp) {
		t.Error("expected records sorted by timestamp ascending")
	}

	limited, err := rl.Query(RecordFilter{Limit: 1})
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected limit to cap results to 1, got %d, err=%v", len(limited), err)
	}
}

func TestMemoryRecordLog_PruneOlderThan(t *testing.T) {
	rl := NewMemoryRecordLog()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = rl.Append(Record{Item: "old", Timestamp: base})
	_ = rl.Append(Record{Item: "new", Timestamp: base.Add(48 * time.Hour)})

	rl.PruneOlderThan(base.Add(24 * time.Hour))

	got, _ := rl.Query(RecordFilter{})
	if len(got) != 1 || got[0].Item != "new" {
		t.Errorf("expected only the newer record to survive pruning, got %+v", got)
	}
}
