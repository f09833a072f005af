// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

// Package policy provides baseline decision-makers for driving simulation
// episodes.
//
// A Policy maps each observation to a single commitment. The engine keeps a
// commitment round open until every source worker is committed or every
// schedulable stage has been selected, so a policy is consulted one or more
// times per round. None of the baselines here learn anything; they exist to
// exercise the simulator and to give smarter schedulers a floor to beat.
package policy

import (
	"fmt"
	"math/rand"

	dagsim "github.com/bearbattle/dag-scheduling-sim"
)

// A Policy chooses the next commitment from an observation.
//
// Decide is only consulted while the episode is live, so the observation
// always carries at least one schedulable stage and at least one uncommitted
// source worker.
type Policy interface {
	// Name identifies the policy in summaries and run logs.
	Name() string

	Decide(obs *dagsim.Observation) dagsim.Action
}

// Names lists the built-in policies accepted by [ByName].
var Names = []string{"fair", "greedy", "random"}

// ByName returns the built-in policy with the given name. Seed is only used
// by stochastic policies.
func ByName(name string, seed int64) (Policy, error) {
	switch name {
	case "fair":
		return FairShare{}, nil
	case "greedy":
		return Greedy{}, nil
	case "random":
		return NewRandom(seed), nil
	default:
		return nil, fmt.Errorf("unknown policy %q (have %v)", name, Names)
	}
}

// Random commits a uniformly random worker count to a uniformly random
// schedulable stage.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a Random policy with its own generator. The same seed
// replays the same decisions against the same observations.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (p *Random) Name() string { return "random" }

func (p *Random) Decide(obs *dagsim.Observation) dagsim.Action {
	stages := obs.SchedulableStages()
	return dagsim.Action{
		Target:     stages[p.rng.Intn(len(stages))],
		NumWorkers: 1 + p.rng.Intn(obs.UncommittedWorkers),
	}
}

// Greedy commits every uncommitted source worker to the schedulable stage
// with the most remaining work.
type Greedy struct{}

func (Greedy) Name() string { return "greedy" }

func (Greedy) Decide(obs *dagsim.Observation) dagsim.Action {
	var target dagsim.StageKey
	best := dagsim.Time(-1)
	for _, jo := range obs.Jobs {
		for _, so := range jo.Stages {
			if so.Schedulable && so.RemainingWork > best {
				best = so.RemainingWork
				target = dagsim.StageKey{Job: jo.Job, Stage: so.Stage}
			}
		}
	}
	return dagsim.Action{Target: target, NumWorkers: obs.UncommittedWorkers}
}

// FairShare keeps source workers at the source job when it can still use
// them, splitting them evenly across its schedulable stages. Workers the
// source job cannot use go to the active job holding the fewest workers.
type FairShare struct{}

func (FairShare) Name() string { return "fair" }

func (FairShare) Decide(obs *dagsim.Observation) dagsim.Action {
	if j, ok := obs.Source.Job(); ok {
		if jo, live := obs.Job(j); live {
			if a, ok := shareWithin(jo, obs.UncommittedWorkers); ok {
				return a
			}
		}
	}

	// Spread across jobs: one share to the least-loaded job that can take
	// workers. Ties break toward the earliest arrival.
	var needy *dagsim.JobObservation
	jobsWithDemand := 0
	for i := range obs.Jobs {
		jo := &obs.Jobs[i]
		if !schedulableWithin(jo) {
			continue
		}
		jobsWithDemand++
		if needy == nil || jo.AttachedWorkers < needy.AttachedWorkers {
			needy = jo
		}
	}
	share := ceilDiv(obs.UncommittedWorkers, jobsWithDemand)
	a, _ := shareWithin(needy, share)
	return a
}

// shareWithin targets the job's first schedulable stage with an even split
// of n over all of the job's schedulable stages.
func shareWithin(jo *dagsim.JobObservation, n int) (dagsim.Action, bool) {
	first := -1
	schedulable := 0
	for i, so := range jo.Stages {
		if so.Schedulable {
			if first < 0 {
				first = i
			}
			schedulable++
		}
	}
	if first < 0 {
		return dagsim.Action{}, false
	}
	return dagsim.Action{
		Target:     dagsim.StageKey{Job: jo.Job, Stage: jo.Stages[first].Stage},
		NumWorkers: ceilDiv(n, schedulable),
	}, true
}

func schedulableWithin(jo *dagsim.JobObservation) bool {
	for _, so := range jo.Stages {
		if so.Schedulable {
			return true
		}
	}
	return false
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
