// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim

import "fmt"

// StageSpec describes one stage of a job's DAG.
//
// Exactly one of Duration and DurationPerType must be set. Duration gives a
// single expected task duration valid for every worker type. DurationPerType
// gives one expected duration per worker type, indexed by [WorkerType]; a
// zero or negative entry, or a type beyond the slice's length, marks that
// type incompatible with the stage.
type StageSpec struct {
	// TaskCount is the number of identical tasks in the stage. Must be at
	// least 1.
	TaskCount int

	// Duration is the expected task duration for all worker types.
	Duration Time

	// DurationPerType is the expected task duration per worker type.
	DurationPerType []Time

	// DependsOn lists the stages that must complete before this stage may
	// run.
	DependsOn []StageID
}

// JobSpec describes one job: a non-empty DAG of stages. Stage IDs are the
// indices into Stages.
type JobSpec struct {
	// Name is an optional label carried through to logs.
	Name string

	Stages []StageSpec
}

// Arrival schedules one job to enter the system at the given time.
type Arrival struct {
	Time Time
	Job  JobSpec
}

// ValidateJobSpec checks spec against a roster with numTypes worker types
// without constructing an environment. The returned error wraps
// ErrInvalidWorkload. It assumes a roster where every type 0..numTypes-1 is
// inhabited; [Env.Reset] additionally rejects stages only compatible with
// type IDs the roster skips.
func ValidateJobSpec(spec JobSpec, numTypes int) error {
	types := make(typeSet, max(numTypes, 1))
	for i := range types {
		types[i] = true
	}
	_, err := buildJob(0, 0, spec, types)
	return err
}

// typeSet marks which worker types the roster actually contains, indexed by
// WorkerType.
type typeSet []bool

// buildJob validates spec and constructs the runtime job.
func buildJob(id JobID, arrival Time, spec JobSpec, types typeSet) (*Job, error) {
	n := len(spec.Stages)
	if n == 0 {
		return nil, fmt.Errorf("%w: job %d has no stages", ErrInvalidWorkload, id)
	}

	parents := make([][]StageID, n)
	children := make([][]StageID, n)
	stages := make([]*Stage, n)
	for i, ss := range spec.Stages {
		key := StageKey{Job: id, Stage: StageID(i)}
		if ss.TaskCount < 1 {
			return nil, fmt.Errorf("%w: stage %v has task count %d", ErrInvalidWorkload, key, ss.TaskCount)
		}
		durations, err := stageDurations(key, ss, types)
		if err != nil {
			return nil, err
		}
		seen := make(map[StageID]struct{}, len(ss.DependsOn))
		for _, dep := range ss.DependsOn {
			if int(dep) < 0 || int(dep) >= n {
				return nil, fmt.Errorf("%w: stage %v depends on unknown stage %d", ErrInvalidWorkload, key, dep)
			}
			if int(dep) == i {
				return nil, fmt.Errorf("%w: stage %v depends on itself", ErrInvalidWorkload, key)
			}
			if _, dup := seen[dep]; dup {
				return nil, fmt.Errorf("%w: stage %v depends on stage %d twice", ErrInvalidWorkload, key, dep)
			}
			seen[dep] = struct{}{}
			parents[i] = append(parents[i], dep)
			children[dep] = append(children[dep], StageID(i))
		}
		stages[i] = newStage(key, ss.TaskCount, durations)
	}

	if err := checkAcyclic(id, parents); err != nil {
		return nil, err
	}
	return newJob(id, spec.Name, arrival, stages, parents, children), nil
}

func stageDurations(key StageKey, ss StageSpec, types typeSet) ([]Time, error) {
	numTypes := len(types)
	uniform := ss.Duration > 0
	perType := len(ss.DurationPerType) > 0
	switch {
	case uniform && perType:
		return nil, fmt.Errorf("%w: stage %v sets both Duration and DurationPerType", ErrInvalidWorkload, key)
	case !uniform && !perType:
		return nil, fmt.Errorf("%w: stage %v has no task duration", ErrInvalidWorkload, key)
	case ss.Duration < 0:
		return nil, fmt.Errorf("%w: stage %v has negative duration", ErrInvalidWorkload, key)
	case len(ss.DurationPerType) > numTypes:
		return nil, fmt.Errorf("%w: stage %v has durations for %d worker types, roster has %d",
			ErrInvalidWorkload, key, len(ss.DurationPerType), numTypes)
	}

	durations := make([]Time, numTypes)
	if uniform {
		for i := range durations {
			durations[i] = ss.Duration
		}
		return durations, nil
	}
	compatible := false
	for i := range durations {
		if i < len(ss.DurationPerType) && ss.DurationPerType[i] > 0 {
			durations[i] = ss.DurationPerType[i]
			if types[i] {
				compatible = true
			}
		} else {
			durations[i] = Incompatible
		}
	}
	if !compatible {
		return nil, fmt.Errorf("%w: stage %v is compatible with no rostered worker type", ErrInvalidWorkload, key)
	}
	return durations, nil
}

// checkAcyclic rejects dependency cycles via Kahn's algorithm.
func checkAcyclic(id JobID, parents [][]StageID) error {
	n := len(parents)
	indegree := make([]int, n)
	children := make([][]int, n)
	for c, deps := range parents {
		indegree[c] = len(deps)
		for _, p := range deps {
			children[p] = append(children[p], c)
		}
	}
	ready := make([]int, 0, n)
	for i, d := range indegree {
		if d == 0 {
			ready = append(ready, i)
		}
	}
	removed := 0
	for len(ready) > 0 {
		p := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		removed++
		for _, c := range children[p] {
			indegree[c]--
			if indegree[c] == 0 {
				ready = append(ready, c)
			}
		}
	}
	if removed != n {
		return fmt.Errorf("%w: job %d has a dependency cycle", ErrInvalidWorkload, id)
	}
	return nil
}
