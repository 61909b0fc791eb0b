package main

import (
	"fmt"
	"time"

	"github.com/sentryline/spc-cusum-engine/internal/simulation"
	"github.com/sentryline/spc-cusum-engine/pkg/manager"
	"github.com/sentryline/spc-cusum-engine/pkg/spc"
	"github.com/sentryline/spc-cusum-engine/pkg/store"
)

func main() {
	fmt.Println("SPC CUSUM Detection Engine - Demo")
	fmt.Println("==================================")

	configStore := store.NewMemoryConfigStore()
	stateStore := store.NewMemoryStateStore()
	recordLog := store.NewMemoryRecordLog()

	global := spc.DefaultGlobalConfig()
	global.ItemType = spc.ItemTypeYield
	global.MonitoringSide = spc.SideUpper
	global.Mu0 = 0.002
	global.BaseN = 500
	global.TargetShiftSigma = 1.0
	global.TargetARL0 = 250
	global.EnableCooldown = spc.Bool(true)
	global.CooldownPeriods = 3
	if err := configStore.SetGlobal(global); err != nil {
		fmt.Printf("Failed to set global defaults: %v\n", err)
		return
	}

	mgr := manager.New(configStore, stateStore, recordLog)

	gen := simulation.NewGenerator(simulation.GeneratorConfig{
		Item:              "CABLE_TEAR_3_1",
		Context:           spc.Context{Station: "S01", Line: "L01", Product: "Phone15"},
		StartTime:         time.Now().Add(-100 * time.Hour),
		BaseDefectRate:    0.002,
		BaseDefectRateStd: 0.0005,
		ZeroDefectProb:    0.1,
		UPHScenarios: []simulation.UPHScenario{
			{MinUPH: 480, MaxUPH: 520, Hours: 40},
			{MinUPH: 480, MaxUPH: 520, Hours: 20},
			{MinUPH: 480, MaxUPH: 520, Hours: 40},
		},
		Anomalies: []simulation.AnomalyEvent{
			{StartHour: 55, DurationHrs: 10, PeakFraction: 0.5, PeakRatio: 8},
		},
	})

	runner := simulation.NewRunner(mgr, gen)
	summary, err := runner.Run()
	if err != nil {
		fmt.Printf("Simulation failed: %v\n", err)
		return
	}

	fmt.Printf("Samples ingested: %d\n", summary.SamplesIngested)
	fmt.Printf("Alerts fired:     %d\n", summary.AlertsFired)
	fmt.Printf("Pushes executed:  %d\n", summary.PushesExecuted)
	fmt.Printf("Final state: baseline=%.6f k=%.6f S+=%.4f S-=%.4f\n",
		summary.LastSnapshot.Baseline, summary.LastSnapshot.K,
		summary.LastSnapshot.SPlus, summary.LastSnapshot.SMinus)
}
