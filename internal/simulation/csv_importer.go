package simulation

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/sentryline/spc-cusum-engine/pkg/manager"
	"github.com/sentryline/spc-cusum-engine/pkg/spc"
)

// CSVColumns names the columns of a defect-rate CSV export, grounded on
// original_source/scripts/simulate_from_csv.py and import_shifted_csv.py
// (station_id, error_code, defect_rate, current_uph, timestamp columns).
// Column indices are resolved once from the header row.
type CSVColumns struct {
	Item       string // defaults to "error_code"
	Station    string // defaults to "station_id"
	Value      string // defaults to "defect_rate"
	Throughput string // defaults to "current_uph"
	Timestamp  string // defaults to "timestamp"
}

func defaultCSVColumns() CSVColumns {
	return CSVColumns{
		Item:       "error_code",
		Station:    "station_id",
		Value:      "defect_rate",
		Throughput: "current_uph",
		Timestamp:  "timestamp",
	}
}

// ImportResult tallies the outcome of a CSV replay.
type ImportResult struct {
	RowsTotal   int
	RowsIngested int
	RowsFailed  int
	Alerts      int
}

// ImportCSV streams r as a header-delimited CSV and replays each row
// through mgr.Ingest, the same source-of-truth CSV format the original
// implementation's Python scripts posted to its HTTP ingest endpoint, adapted here to call
// the manager in-process instead of over the network.
func ImportCSV(r io.Reader, mgr *manager.Manager, cols CSVColumns) (ImportResult, error) {
	def := defaultCSVColumns()
	for _, c := range []struct {
		field *string
		def   string
	}{
		{&cols.Item, def.Item},
		{&cols.Station, def.Station},
		{&cols.Value, def.Value},
		{&cols.Throughput, def.Throughput},
		{&cols.Timestamp, def.Timestamp},
	} {
		if *c.field == "" {
			*c.field = c.def
		}
	}

	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return ImportResult{}, fmt.Errorf("simulation: read csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}

	itemCol, ok := idx[cols.Item]
	if !ok {
		return ImportResult{}, fmt.Errorf("simulation: csv missing item column %q", cols.Item)
	}
	valueCol, ok := idx[cols.Value]
	if !ok {
		return ImportResult{}, fmt.Errorf("simulation: csv missing value column %q", cols.Value)
	}
	throughputCol, ok := idx[cols.Throughput]
	if !ok {
		return ImportResult{}, fmt.Errorf("simulation: csv missing throughput column %q", cols.Throughput)
	}
	timestampCol := idx[cols.Timestamp]
	stationCol, hasStation := idx[cols.Station]

	var result ImportResult
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("simulation: read csv row %d: %w", result.RowsTotal, err)
		}
		result.RowsTotal++

		value, err := strconv.ParseFloat(row[valueCol], 64)
		if err != nil {
			result.RowsFailed++
			continue
		}
		throughput, err := strconv.Atoi(row[throughputCol])
		if err != nil {
			result.RowsFailed++
			continue
		}

		in := manager.IngestInput{
			Item:       row[itemCol],
			Value:      value,
			Throughput: throughput,
		}
		if timestampCol < len(row) {
			in.Timestamp = row[timestampCol]
		}
		if hasStation {
			in.Context = spc.Context{Station: row[stationCol]}
		}

		res, err := mgr.Ingest(in)
		if err != nil {
			result.RowsFailed++
			continue
		}
		result.RowsIngested++
		if res.Alert {
			result.Alerts++
		}
	}
	return result, nil
}
