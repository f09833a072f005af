// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package workload

import (
	"fmt"
	"math"
	"math/rand"
)

// Shape selects the DAG topology the generator draws for each job.
type Shape string

const (
	// ShapeMixed draws one of the other shapes per job.
	ShapeMixed Shape = "mixed"

	// ShapeRandom builds a layered DAG: each stage depends on a random
	// subset of earlier stages.
	ShapeRandom Shape = "random"

	// ShapeChain builds a linear pipeline.
	ShapeChain Shape = "chain"

	// ShapeDiamond builds a fan-out/fan-in: one source, parallel middles,
	// one sink.
	ShapeDiamond Shape = "diamond"
)

// GenConfig parameterizes synthetic workload generation. Zero fields take
// the defaults documented per field.
type GenConfig struct {
	// Seed seeds the generator. The same seed yields the same manifest.
	Seed int64

	// NumJobs is the number of job arrivals. Default 10.
	NumJobs int

	// InitialJobs is how many jobs arrive at time zero. Default 1.
	InitialJobs int

	// MeanInterarrival is the mean gap between later arrivals, drawn from
	// an exponential distribution. Default 4000.
	MeanInterarrival float64

	// Workers is the roster size. Default 10.
	Workers int

	// WorkerTypes is the number of worker types. The roster is split
	// evenly across types, and stages get per-type durations. Default 1.
	WorkerTypes int

	// Shape is the DAG topology. Default ShapeMixed.
	Shape Shape

	// MinStages and MaxStages bound the stage count per job.
	// Defaults 2 and 8.
	MinStages, MaxStages int

	// MinTasks and MaxTasks bound the task count per stage.
	// Defaults 1 and 16.
	MinTasks, MaxTasks int

	// MinDuration and MaxDuration bound expected task durations.
	// Defaults 50 and 2000.
	MinDuration, MaxDuration float64

	// EdgeProb is the probability that a random-shape stage depends on any
	// given earlier stage. Default 0.35.
	EdgeProb float64

	// MaxParents caps the dependencies per random-shape stage. Default 3.
	MaxParents int
}

func (cfg GenConfig) withDefaults() GenConfig {
	if cfg.NumJobs == 0 {
		cfg.NumJobs = 10
	}
	if cfg.InitialJobs == 0 {
		cfg.InitialJobs = 1
	}
	if cfg.MeanInterarrival == 0 {
		cfg.MeanInterarrival = 4000
	}
	if cfg.Workers == 0 {
		cfg.Workers = 10
	}
	if cfg.WorkerTypes == 0 {
		cfg.WorkerTypes = 1
	}
	if cfg.Shape == "" {
		cfg.Shape = ShapeMixed
	}
	if cfg.MinStages == 0 {
		cfg.MinStages = 2
	}
	if cfg.MaxStages == 0 {
		cfg.MaxStages = 8
	}
	if cfg.MinTasks == 0 {
		cfg.MinTasks = 1
	}
	if cfg.MaxTasks == 0 {
		cfg.MaxTasks = 16
	}
	if cfg.MinDuration == 0 {
		cfg.MinDuration = 50
	}
	if cfg.MaxDuration == 0 {
		cfg.MaxDuration = 2000
	}
	if cfg.EdgeProb == 0 {
		cfg.EdgeProb = 0.35
	}
	if cfg.MaxParents == 0 {
		cfg.MaxParents = 3
	}
	return cfg
}

func (cfg GenConfig) validate() error {
	switch cfg.Shape {
	case ShapeMixed, ShapeRandom, ShapeChain, ShapeDiamond:
	default:
		return fmt.Errorf("%w: unknown shape %q", ErrInvalidManifest, cfg.Shape)
	}
	switch {
	case cfg.NumJobs < 1:
		return fmt.Errorf("%w: NumJobs %d", ErrInvalidManifest, cfg.NumJobs)
	case cfg.InitialJobs < 1 || cfg.InitialJobs > cfg.NumJobs:
		return fmt.Errorf("%w: InitialJobs %d with NumJobs %d", ErrInvalidManifest, cfg.InitialJobs, cfg.NumJobs)
	case cfg.MeanInterarrival < 0:
		return fmt.Errorf("%w: MeanInterarrival %v", ErrInvalidManifest, cfg.MeanInterarrival)
	case cfg.WorkerTypes < 1 || cfg.Workers < cfg.WorkerTypes:
		return fmt.Errorf("%w: %d workers across %d types", ErrInvalidManifest, cfg.Workers, cfg.WorkerTypes)
	case cfg.MinStages < 1 || cfg.MaxStages < cfg.MinStages:
		return fmt.Errorf("%w: stage range [%d, %d]", ErrInvalidManifest, cfg.MinStages, cfg.MaxStages)
	case cfg.MinTasks < 1 || cfg.MaxTasks < cfg.MinTasks:
		return fmt.Errorf("%w: task range [%d, %d]", ErrInvalidManifest, cfg.MinTasks, cfg.MaxTasks)
	case cfg.MinDuration <= 0 || cfg.MaxDuration < cfg.MinDuration:
		return fmt.Errorf("%w: duration range [%v, %v]", ErrInvalidManifest, cfg.MinDuration, cfg.MaxDuration)
	case cfg.EdgeProb < 0 || cfg.EdgeProb > 1:
		return fmt.Errorf("%w: EdgeProb %v", ErrInvalidManifest, cfg.EdgeProb)
	case cfg.MaxParents < 1:
		return fmt.Errorf("%w: MaxParents %d", ErrInvalidManifest, cfg.MaxParents)
	}
	return nil
}

// Generate builds a random workload manifest from cfg. Arrival times follow
// a Poisson process after the initial batch at time zero.
func Generate(cfg GenConfig) (*Manifest, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	m := &Manifest{
		Version: Version,
		Workers: rosterConfig(cfg),
		Jobs:    make([]JobConfig, cfg.NumJobs),
	}

	arrival := 0.0
	for i := 0; i < cfg.NumJobs; i++ {
		if i >= cfg.InitialJobs {
			arrival += rng.ExpFloat64() * cfg.MeanInterarrival
		}
		m.Jobs[i] = JobConfig{
			Name:    fmt.Sprintf("job-%03d", i),
			Arrival: math.Round(arrival),
			Stages:  genStages(cfg, rng),
		}
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("generated manifest failed validation: %w", err)
	}
	return m, nil
}

func rosterConfig(cfg GenConfig) WorkerConfig {
	if cfg.WorkerTypes == 1 {
		return WorkerConfig{Count: cfg.Workers}
	}
	groups := make([]WorkerGroup, cfg.WorkerTypes)
	base := cfg.Workers / cfg.WorkerTypes
	extra := cfg.Workers % cfg.WorkerTypes
	for t := 0; t < cfg.WorkerTypes; t++ {
		n := base
		if t < extra {
			n++
		}
		groups[t] = WorkerGroup{Type: t, Count: n}
	}
	return WorkerConfig{Types: groups}
}

func genStages(cfg GenConfig, rng *rand.Rand) []StageConfig {
	shape := cfg.Shape
	if shape == ShapeMixed {
		shape = [...]Shape{ShapeRandom, ShapeChain, ShapeDiamond}[rng.Intn(3)]
	}
	n := cfg.MinStages + rng.Intn(cfg.MaxStages-cfg.MinStages+1)

	stages := make([]StageConfig, n)
	for i := 0; i < n; i++ {
		stages[i] = StageConfig{
			Tasks:     cfg.MinTasks + rng.Intn(cfg.MaxTasks-cfg.MinTasks+1),
			DependsOn: genDeps(shape, i, n, cfg, rng),
		}
		genDurations(&stages[i], cfg, rng)
	}
	return stages
}

// genDeps picks the dependencies of stage i. Parents always have smaller
// indices, so every shape is acyclic by construction.
func genDeps(shape Shape, i, n int, cfg GenConfig, rng *rand.Rand) []int {
	if i == 0 {
		return nil
	}
	switch shape {
	case ShapeChain:
		return []int{i - 1}
	case ShapeDiamond:
		if i < n-1 {
			return []int{0}
		}
		deps := make([]int, 0, n-2)
		for j := 1; j < n-1; j++ {
			deps = append(deps, j)
		}
		if len(deps) == 0 {
			return []int{0}
		}
		return deps
	default:
		var deps []int
		for j := i - 1; j >= 0 && len(deps) < cfg.MaxParents; j-- {
			if rng.Float64() < cfg.EdgeProb {
				deps = append(deps, j)
			}
		}
		return deps
	}
}

func genDurations(sc *StageConfig, cfg GenConfig, rng *rand.Rand) {
	draw := func() float64 {
		d := cfg.MinDuration + rng.Float64()*(cfg.MaxDuration-cfg.MinDuration)
		return max(math.Round(d), 1)
	}
	numTypes := cfg.WorkerTypes
	if numTypes == 1 {
		sc.Duration = draw()
		return
	}

	// Heterogeneous rosters get per-type durations. Roughly one stage in
	// ten is incompatible with some type.
	sc.DurationPerType = make([]float64, numTypes)
	compatible := 0
	for t := 0; t < numTypes; t++ {
		if rng.Float64() < 0.1 {
			continue
		}
		sc.DurationPerType[t] = draw()
		compatible++
	}
	if compatible == 0 {
		sc.DurationPerType[rng.Intn(numTypes)] = draw()
	}
}
