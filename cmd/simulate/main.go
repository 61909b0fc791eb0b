package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sentryline/spc-cusum-engine/internal/simulation"
	"github.com/sentryline/spc-cusum-engine/pkg/manager"
	"github.com/sentryline/spc-cusum-engine/pkg/spc"
	"github.com/sentryline/spc-cusum-engine/pkg/store"
)

func main() {
	var (
		csvPath = flag.String("csv", "", "Path to a defect-rate CSV file to replay (station_id,error_code,defect_rate,current_uph,timestamp columns)")
		mu0     = flag.Float64("mu0", 0.0005, "Global default baseline defect rate")
		baseN   = flag.Int("base-n", 500, "Global default reference throughput")
		arl0    = flag.Float64("arl0", 250, "Global default target in-control run length")
	)
	flag.Parse()

	if *csvPath == "" {
		log.Fatal("Usage: simulate -csv path/to/data.csv")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer f.Close()

	configStore := store.NewMemoryConfigStore()
	global := spc.DefaultGlobalConfig()
	global.Mu0 = *mu0
	global.BaseN = *baseN
	global.TargetARL0 = *arl0
	if err := configStore.SetGlobal(global); err != nil {
		log.Fatalf("Failed to set global defaults: %v", err)
	}

	mgr := manager.New(configStore, store.NewMemoryStateStore(), store.NewMemoryRecordLog())

	log.Printf("Replaying %s", *csvPath)
	result, err := simulation.ImportCSV(f, mgr, simulation.CSVColumns{})
	if err != nil {
		log.Fatalf("CSV replay failed: %v", err)
	}

	fmt.Printf("Rows total:     %d\n", result.RowsTotal)
	fmt.Printf("Rows ingested:  %d\n", result.RowsIngested)
	fmt.Printf("Rows failed:    %d\n", result.RowsFailed)
	fmt.Printf("Alerts fired:   %d\n", result.Alerts)
}
