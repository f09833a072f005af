// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

// Package workload loads, validates, and generates workload manifests for
// the simulator.
//
// A workload manifest is a YAML file describing one episode's inputs: the
// worker roster and the sequence of job arrivals, each job a DAG of stages.
//
// Example manifest:
//
//	version: "1"
//	workers:
//	  count: 10
//	jobs:
//	  - name: etl-nightly
//	    arrival: 0
//	    stages:
//	      - tasks: 8
//	        duration: 120
//	      - tasks: 4
//	        duration: 300
//	        depends_on: [0]
//	  - name: report
//	    arrival: 2500
//	    stages:
//	      - tasks: 2
//	        duration_per_type: [50, 80]
package workload

import (
	"errors"
	"fmt"

	dagsim "github.com/bearbattle/dag-scheduling-sim"
)

// Version is the manifest schema version this package reads and writes.
const Version = "1"

// ErrInvalidManifest indicates a manifest that parsed but failed validation.
var ErrInvalidManifest = errors.New("invalid workload manifest")

// Manifest is a parsed workload file.
type Manifest struct {
	// Version is the manifest schema version. Must be "1".
	Version string `yaml:"version"`

	// Workers describes the worker roster.
	Workers WorkerConfig `yaml:"workers"`

	// Jobs lists the job arrivals, in any order.
	Jobs []JobConfig `yaml:"jobs"`
}

// WorkerConfig describes the roster. Set Count for a homogeneous roster, or
// Types for a heterogeneous one; not both.
type WorkerConfig struct {
	// Count is the number of identical workers.
	Count int `yaml:"count,omitempty"`

	// Types lists worker groups by type.
	Types []WorkerGroup `yaml:"types,omitempty"`
}

// WorkerGroup is a group of identical workers within a heterogeneous roster.
type WorkerGroup struct {
	Type  int `yaml:"type"`
	Count int `yaml:"count"`
}

// JobConfig describes one job arrival.
type JobConfig struct {
	// Name labels the job in logs and summaries. Defaults to "job-<index>".
	Name string `yaml:"name,omitempty"`

	// Arrival is the time the job enters the system.
	Arrival float64 `yaml:"arrival"`

	// Stages lists the job's stages. Stage IDs are indices into this list.
	Stages []StageConfig `yaml:"stages"`
}

// StageConfig describes one stage of a job's DAG. Exactly one of Duration
// and DurationPerType must be set; see dagsim.StageSpec.
type StageConfig struct {
	// Tasks is the number of identical tasks in the stage.
	Tasks int `yaml:"tasks"`

	// Duration is the expected task duration for all worker types.
	Duration float64 `yaml:"duration,omitempty"`

	// DurationPerType is the expected task duration indexed by worker type.
	// Zero or missing entries mark the type incompatible.
	DurationPerType []float64 `yaml:"duration_per_type,omitempty,flow"`

	// DependsOn lists stage indices that must complete first.
	DependsOn []int `yaml:"depends_on,omitempty,flow"`
}

// ApplyDefaults fills in the version and per-job names left empty by the
// manifest author.
func (m *Manifest) ApplyDefaults() {
	if m.Version == "" {
		m.Version = Version
	}
	for i := range m.Jobs {
		if m.Jobs[i].Name == "" {
			m.Jobs[i].Name = fmt.Sprintf("job-%d", i)
		}
	}
}

// Validate checks the manifest for structural problems: unsupported version,
// an empty roster or job list, and job specs the engine would reject.
func (m *Manifest) Validate() error {
	if m.Version != Version {
		return fmt.Errorf("%w: unsupported version %q (want %q)", ErrInvalidManifest, m.Version, Version)
	}
	if err := m.Workers.validate(); err != nil {
		return err
	}
	if len(m.Jobs) == 0 {
		return fmt.Errorf("%w: no jobs", ErrInvalidManifest)
	}
	numTypes := m.Workers.numTypes()
	for i, jc := range m.Jobs {
		if jc.Arrival < 0 {
			return fmt.Errorf("%w: job %d (%s) arrives at negative time %v", ErrInvalidManifest, i, jc.Name, jc.Arrival)
		}
		if err := dagsim.ValidateJobSpec(jc.Spec(), numTypes); err != nil {
			return fmt.Errorf("%w: job %d (%s): %w", ErrInvalidManifest, i, jc.Name, err)
		}
	}
	return nil
}

func (wc WorkerConfig) validate() error {
	if wc.Count > 0 && len(wc.Types) > 0 {
		return fmt.Errorf("%w: workers sets both count and types", ErrInvalidManifest)
	}
	if wc.Count < 0 {
		return fmt.Errorf("%w: negative worker count %d", ErrInvalidManifest, wc.Count)
	}
	total := wc.Count
	for i, g := range wc.Types {
		if g.Type < 0 {
			return fmt.Errorf("%w: worker group %d has negative type %d", ErrInvalidManifest, i, g.Type)
		}
		if g.Count < 1 {
			return fmt.Errorf("%w: worker group %d has count %d", ErrInvalidManifest, i, g.Count)
		}
		total += g.Count
	}
	if total == 0 {
		return fmt.Errorf("%w: no workers", ErrInvalidManifest)
	}
	return nil
}

// numTypes returns the number of worker types the roster spans, counting
// type IDs from zero.
func (wc WorkerConfig) numTypes() int {
	if len(wc.Types) == 0 {
		return 1
	}
	maxType := 0
	for _, g := range wc.Types {
		maxType = max(maxType, g.Type)
	}
	return maxType + 1
}

// NumWorkers returns the roster size.
func (m *Manifest) NumWorkers() int {
	if len(m.Workers.Types) == 0 {
		return m.Workers.Count
	}
	total := 0
	for _, g := range m.Workers.Types {
		total += g.Count
	}
	return total
}

// Roster converts the worker configuration into engine worker specs.
func (m *Manifest) Roster() []dagsim.WorkerSpec {
	if len(m.Workers.Types) == 0 {
		return dagsim.HomogeneousRoster(m.Workers.Count)
	}
	roster := make([]dagsim.WorkerSpec, 0, m.NumWorkers())
	for _, g := range m.Workers.Types {
		for i := 0; i < g.Count; i++ {
			roster = append(roster, dagsim.WorkerSpec{Type: dagsim.WorkerType(g.Type)})
		}
	}
	return roster
}

// Arrivals converts the job list into engine arrivals, in manifest order.
func (m *Manifest) Arrivals() []dagsim.Arrival {
	arrivals := make([]dagsim.Arrival, len(m.Jobs))
	for i, jc := range m.Jobs {
		arrivals[i] = dagsim.Arrival{Time: dagsim.Time(jc.Arrival), Job: jc.Spec()}
	}
	return arrivals
}

// Spec converts one job configuration into an engine job spec.
func (jc JobConfig) Spec() dagsim.JobSpec {
	stages := make([]dagsim.StageSpec, len(jc.Stages))
	for i, sc := range jc.Stages {
		ss := dagsim.StageSpec{
			TaskCount: sc.Tasks,
			Duration:  dagsim.Time(sc.Duration),
		}
		if len(sc.DurationPerType) > 0 {
			ss.DurationPerType = make([]dagsim.Time, len(sc.DurationPerType))
			for j, d := range sc.DurationPerType {
				ss.DurationPerType[j] = dagsim.Time(d)
			}
		}
		if len(sc.DependsOn) > 0 {
			ss.DependsOn = make([]dagsim.StageID, len(sc.DependsOn))
			for j, d := range sc.DependsOn {
				ss.DependsOn[j] = dagsim.StageID(d)
			}
		}
		stages[i] = ss
	}
	return dagsim.JobSpec{Name: jc.Name, Stages: stages}
}
