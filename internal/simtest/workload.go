// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package simtest

import (
	"fmt"

	"pgregory.net/rapid"

	dagsim "github.com/bearbattle/dag-scheduling-sim"
)

// DrawRoster draws a worker roster. Type IDs are contiguous from zero but
// group sizes are uneven, so type-count accounting stays honest.
func (c *Config) DrawRoster(t *rapid.T) []dagsim.WorkerSpec {
	numWorkers := c.Workers.Draw(t, "NumWorkers")
	numTypes := min(c.Types.Draw(t, "NumTypes"), numWorkers)

	roster := make([]dagsim.WorkerSpec, numWorkers)
	for i := range roster {
		// The first numTypes workers cover each type once so every type
		// is inhabited.
		typ := i
		if i >= numTypes {
			typ = rapid.IntRange(0, numTypes-1).Draw(t, fmt.Sprintf("Worker#%d.Type", i))
		}
		roster[i] = dagsim.WorkerSpec{Type: dagsim.WorkerType(typ)}
	}
	return roster
}

// NumTypes returns how many worker types the roster spans.
func NumTypes(roster []dagsim.WorkerSpec) int {
	maxType := dagsim.WorkerType(0)
	for _, spec := range roster {
		maxType = max(maxType, spec.Type)
	}
	return int(maxType) + 1
}

// DrawWorkload draws a job arrival sequence compatible with a roster of
// numTypes worker types. At least one job arrives at time zero.
func (c *Config) DrawWorkload(t *rapid.T, numTypes int) []dagsim.Arrival {
	numJobs := c.Jobs.Draw(t, "NumJobs")
	arrivals := make([]dagsim.Arrival, numJobs)
	for i := range arrivals {
		at := dagsim.Time(0)
		if i > 0 {
			at = c.Spread.Draw(t, fmt.Sprintf("Job#%d.Arrival", i))
		}
		arrivals[i] = dagsim.Arrival{
			Time: at,
			Job:  c.drawJob(t, i, numTypes),
		}
	}
	return arrivals
}

func (c *Config) drawJob(t *rapid.T, job, numTypes int) dagsim.JobSpec {
	numStages := c.Stages.Draw(t, fmt.Sprintf("Job#%d.NumStages", job))
	stages := make([]dagsim.StageSpec, numStages)
	for i := range stages {
		name := fmt.Sprintf("Job#%d.Stage#%d", job, i)
		stages[i] = dagsim.StageSpec{
			TaskCount: c.Tasks.Draw(t, name+".Tasks"),
			DependsOn: c.drawParents(t, name, i),
		}
		c.drawDurations(t, name, &stages[i], numTypes)
	}
	return dagsim.JobSpec{Name: fmt.Sprintf("rapid-%d", job), Stages: stages}
}

// drawParents picks dependencies among earlier stages only, so every drawn
// DAG is acyclic and stage 0 is always a source.
func (c *Config) drawParents(t *rapid.T, name string, stage int) []dagsim.StageID {
	limit := min(c.MaxParents.Draw(t, name+".MaxParents"), stage)
	if limit == 0 {
		return nil
	}
	n := rapid.IntRange(0, limit).Draw(t, name+".NumParents")
	if n == 0 {
		return nil
	}
	earlier := make([]dagsim.StageID, stage)
	for i := range earlier {
		earlier[i] = dagsim.StageID(i)
	}
	return rapid.Permutation(earlier).Draw(t, name+".Parents")[:n]
}

func (c *Config) drawDurations(t *rapid.T, name string, ss *dagsim.StageSpec, numTypes int) {
	perType := numTypes > 1 && rapid.Bool().Draw(t, name+".PerType")
	if !perType {
		ss.Duration = c.Duration.Draw(t, name+".Duration")
		return
	}
	ss.DurationPerType = make([]dagsim.Time, numTypes)
	compatible := rapid.IntRange(0, numTypes-1).Draw(t, name+".CompatibleType")
	for i := range ss.DurationPerType {
		// Each type is incompatible with some probability, except one
		// drawn type that keeps the stage satisfiable.
		if i != compatible && rapid.Bool().Draw(t, fmt.Sprintf("%s.Incompatible#%d", name, i)) {
			continue
		}
		ss.DurationPerType[i] = c.Duration.Draw(t, fmt.Sprintf("%s.Duration#%d", name, i))
	}
}

// DrawWaveData builds a sparse trace-sampler table for the drawn workload.
// Holes in the table exercise the sampler's fallback chain.
func DrawWaveData(t *rapid.T, arrivals []dagsim.Arrival, maxDuration dagsim.Time) map[dagsim.StageKey]*dagsim.WaveDurations {
	data := make(map[dagsim.StageKey]*dagsim.WaveDurations)
	for j, arrival := range arrivals {
		for s := range arrival.Job.Stages {
			key := dagsim.StageKey{Job: dagsim.JobID(j), Stage: dagsim.StageID(s)}
			if rapid.Bool().Draw(t, fmt.Sprintf("%v.NoTrace", key)) {
				continue
			}
			data[key] = &dagsim.WaveDurations{
				Fresh:     drawLeveled(t, fmt.Sprintf("%v.Fresh", key), maxDuration),
				FirstWave: drawLeveled(t, fmt.Sprintf("%v.First", key), maxDuration),
				RestWave:  drawLeveled(t, fmt.Sprintf("%v.Rest", key), maxDuration),
			}
		}
	}
	return data
}

func drawWave(t *rapid.T, name string, maxDuration dagsim.Time) []dagsim.Time {
	n := rapid.IntRange(1, 4).Draw(t, name+".Count")
	out := make([]dagsim.Time, n)
	for i := range out {
		out[i] = dagsim.Time(rapid.Float64Range(1, float64(maxDuration)).Draw(t, fmt.Sprintf("%s#%d", name, i)))
	}
	return out
}

func drawLeveled(t *rapid.T, name string, maxDuration dagsim.Time) map[int][]dagsim.Time {
	out := make(map[int][]dagsim.Time)
	for _, level := range dagsim.DefaultWorkerLevels {
		if rapid.Bool().Draw(t, fmt.Sprintf("%s.Skip#%d", name, level)) {
			continue
		}
		out[level] = drawWave(t, fmt.Sprintf("%s.Level#%d", name, level), maxDuration)
	}
	return out
}
