// Package simulation produces synthetic and CSV-replayed sample streams
// for exercising a Manager outside of a live production line. Grounded on
// the teacher's internal/simulation/spike_generator.go (scenario struct,
// rand.Rand-seeded generator, profile-driven event construction) and
// original_source/src/simulation/generator_v2.py (UPH scenario scheduling,
// Poisson defect injection, Gaussian anomaly-event shaping).
package simulation

import (
	"math"
	"math/rand"
	"time"

	"github.com/sentryline/spc-cusum-engine/pkg/spc"
)

// UPHScenario is one stretch of simulated throughput, analogous to the
// uph_scenarios table in original_source's generator_v2.py.
type UPHScenario struct {
	MinUPH, MaxUPH int
	Hours          int
}

// AnomalyEvent injects an elevated defect rate over a contiguous run of
// hours, Gaussian-shaped around PeakFraction the way generator_v2.py's
// calculate_event_defect_rate shapes its events.
type AnomalyEvent struct {
	StartHour    int
	DurationHrs  int
	PeakFraction float64 // 0..1, where in the event the defect rate peaks
	PeakRatio    float64 // multiple of BaseDefectRate at the peak
}

// GeneratorConfig parameterizes a synthetic yield-line run.
type GeneratorConfig struct {
	Item    string
	Context spc.Context

	StartTime time.Time

	BaseDefectRate    float64 // mu0
	BaseDefectRateStd float64 // hour-to-hour jitter around BaseDefectRate
	ZeroDefectProb    float64 // chance a given hour has zero defects outright

	UPHScenarios []UPHScenario
	Anomalies    []AnomalyEvent

	Rand *rand.Rand // optional; a default source is used if nil
}

// Generator produces one hour-resolution Sample per simulated hour.
type Generator struct {
	cfg GeneratorConfig
	rnd *rand.Rand
}

func NewGenerator(cfg GeneratorConfig) *Generator {
	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	return &Generator{cfg: cfg, rnd: rnd}
}

// Run generates the full sample sequence: one base sample per hour across
// every configured UPHScenario, with anomaly events overlaid on top.
func (g *Generator) Run() []spc.Sample {
	samples := g.generateBase()
	g.applyAnomalies(samples)
	return samples
}

func (g *Generator) generateBase() []spc.Sample {
	var samples []spc.Sample
	hour := 0
	for _, scenario := range g.cfg.UPHScenarios {
		for i := 0; i < scenario.Hours; i++ {
			uph := scenario.MinUPH
			if scenario.MaxUPH > scenario.MinUPH {
				uph = scenario.MinUPH + g.rnd.Intn(scenario.MaxUPH-scenario.MinUPH)
			}
			samples = append(samples, spc.Sample{
				Item:       g.cfg.Item,
				Context:    g.cfg.Context,
				Value:      g.hourlyDefectRate(uph),
				Throughput: uph,
				Time:       g.cfg.StartTime.Add(time.Duration(hour) * time.Hour),
			})
			hour++
		}
	}
	return samples
}

// hourlyDefectRate draws a Poisson-ish defect count around a jittered
// baseline rate, the same shape as generate_base_data in generator_v2.py.
func (g *Generator) hourlyDefectRate(uph int) float64 {
	if uph <= 0 {
		return 0
	}
	if g.rnd.Float64() < g.cfg.ZeroDefectProb {
		return 0
	}
	rate := g.cfg.BaseDefectRate + g.rnd.NormFloat64()*g.cfg.BaseDefectRateStd
	if rate < 0 {
		rate = 0
	}
	lambda := float64(uph) * rate
	count := g.poisson(lambda)
	return float64(count) / float64(uph)
}

// applyAnomalies overwrites the defect rate of each event's window with a
// Gaussian-shaped elevated rate peaking at PeakFraction through the event,
// mirroring calculate_event_defect_rate.
func (g *Generator) applyAnomalies(samples []spc.Sample) {
	for _, ev := range g.cfg.Anomalies {
		for offset := 0; offset < ev.DurationHrs; offset++ {
			idx := ev.StartHour + offset
			if idx < 0 || idx >= len(samples) {
				continue
			}
			relative := float64(offset) / float64(ev.DurationHrs)
			gaussian := math.Exp(-math.Pow(relative-ev.PeakFraction, 2) / (2 * 0.2 * 0.2))
			ratio := 1 + (ev.PeakRatio-1)*gaussian
			n := samples[idx].Throughput
			if n <= 0 {
				continue
			}
			rate := g.cfg.BaseDefectRate * ratio * (0.8 + g.rnd.Float64()*0.4)
			count := int(math.Ceil(float64(n) * rate))
			samples[idx].Value = float64(count) / float64(n)
		}
	}
}

// poisson draws from a Poisson(lambda) distribution via Knuth's algorithm;
// adequate at the small lambdas (defect counts per hour) this generator
// produces.
func (g *Generator) poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		k++
		p *= g.rnd.Float64()
		if p <= l {
			return k - 1
		}
	}
}
