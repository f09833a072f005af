// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

// Package simtest generates random workloads, rosters, and action streams
// for property-testing the simulator. Workload shape is driven by a set of
// configuration parameters drawn through rapid, so failing cases shrink to
// small DAGs and short episodes.
package simtest

import (
	"fmt"

	"pgregory.net/rapid"

	dagsim "github.com/bearbattle/dag-scheduling-sim"
)

// DefaultConfig bounds random workloads to sizes that keep episodes short
// while still covering multi-job contention, heterogeneous rosters, and
// deep-ish DAGs.
var DefaultConfig = Config{
	Jobs:       BiasedIntConfig{Min: 1, Med: 3, Max: 6},
	Workers:    BiasedIntConfig{Min: 1, Med: 5, Max: 12},
	Types:      BiasedIntConfig{Min: 1, Med: 1, Max: 3},
	Stages:     BiasedIntConfig{Min: 1, Med: 3, Max: 7},
	Tasks:      BiasedIntConfig{Min: 1, Med: 3, Max: 10},
	MaxParents: BiasedIntConfig{Min: 0, Med: 2, Max: 4},
	Duration:   BiasedTimeConfig{Min: 1, Med: 50, Max: 500},
	Spread:     BiasedTimeConfig{Min: 0, Med: 200, Max: 2000},
}

type Config struct {
	// Jobs is the number of job arrivals per episode.
	Jobs BiasedIntConfig

	// Workers and Types shape the roster.
	Workers BiasedIntConfig
	Types   BiasedIntConfig

	// Stages, Tasks, and MaxParents shape each job's DAG.
	Stages     BiasedIntConfig
	Tasks      BiasedIntConfig
	MaxParents BiasedIntConfig

	// Duration bounds expected task durations.
	Duration BiasedTimeConfig

	// Spread bounds how far after time zero a job may arrive.
	Spread BiasedTimeConfig
}

type BiasedIntConfig struct {
	Min int
	Med int
	Max int
}

func (c *BiasedIntConfig) Draw(t *rapid.T, name string) int {
	if c.Med < c.Min || c.Max < c.Med {
		panic(fmt.Sprint("invalid BiasedIntConfig:", *c))
	}
	return rapid.Custom(func(t *rapid.T) int {
		// Generate a value in the range [min-med, max-med] instead of [min,
		// max] to take advantage of rapid's bias toward generating numbers near
		// zero as well as at the provided bounds.
		return c.Med + rapid.IntRange(c.Min-c.Med, c.Max-c.Med).Draw(t, name+"(internal)")
	}).Draw(t, name)
}

type BiasedTimeConfig struct {
	Min dagsim.Time
	Med dagsim.Time
	Max dagsim.Time
}

func (c *BiasedTimeConfig) Draw(t *rapid.T, name string) dagsim.Time {
	if c.Med < c.Min || c.Max < c.Med {
		panic(fmt.Sprint("invalid BiasedTimeConfig:", *c))
	}
	return rapid.Custom(func(t *rapid.T) dagsim.Time {
		// Same zero-bias shift as BiasedIntConfig.
		return c.Med + dagsim.Time(rapid.Float64Range(float64(c.Min-c.Med), float64(c.Max-c.Med)).
			Draw(t, name+"(internal)"))
	}).Draw(t, name)
}
