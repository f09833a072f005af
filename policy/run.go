// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package policy

import (
	"context"
	"fmt"

	dagsim "github.com/bearbattle/dag-scheduling-sim"
)

// RunStats summarizes one completed episode.
type RunStats struct {
	// Policy is the name of the policy that drove the episode.
	Policy string

	// Steps is the number of commitments the policy made.
	Steps int

	// JobsArrived and JobsCompleted count jobs that entered the system
	// and jobs that finished. They differ only on truncated episodes.
	JobsArrived   int
	JobsCompleted int

	// TotalReward is the sum of per-round rewards.
	TotalReward float64

	// Makespan is the wall time when the episode ended.
	Makespan dagsim.Time

	// AvgJobDuration is the mean arrival-to-completion time over
	// completed jobs, zero if none completed.
	AvgJobDuration dagsim.Time

	// Truncated reports whether the episode hit its time limit.
	Truncated bool
}

func (s *RunStats) String() string {
	return fmt.Sprintf("policy=%s jobs=%d/%d avg_job_duration=%.1f makespan=%.1f reward=%.5f steps=%d",
		s.Policy, s.JobsCompleted, s.JobsArrived, float64(s.AvgJobDuration), float64(s.Makespan),
		s.TotalReward, s.Steps)
}

// Run drives env through one full episode under p and returns its summary.
// The context is checked between steps, so a cancellation ends the episode
// early with ctx's error.
func Run(ctx context.Context, env *dagsim.Env, p Policy, arrivals []dagsim.Arrival, roster []dagsim.WorkerSpec) (*RunStats, error) {
	obs, err := env.Reset(arrivals, roster)
	if err != nil {
		return nil, err
	}

	stats := &RunStats{Policy: p.Name()}
	for !env.Done() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a := p.Decide(obs)
		next, reward, _, err := env.Step(a)
		if err != nil {
			return nil, fmt.Errorf("policy %s: action %v: %w", p.Name(), a, err)
		}
		obs = next
		stats.Steps++
		stats.TotalReward += reward
	}

	stats.Makespan = env.WallTime()
	stats.Truncated = env.Truncated()
	stats.JobsCompleted = len(env.CompletedJobs())
	stats.JobsArrived = stats.JobsCompleted + len(env.ActiveJobs())
	if completed := env.CompletedJobs(); len(completed) > 0 {
		var total dagsim.Time
		for _, id := range completed {
			job, ok := env.Job(id)
			if !ok {
				continue
			}
			total += job.CompletionTime() - job.ArrivalTime()
		}
		stats.AvgJobDuration = total / dagsim.Time(len(completed))
	}
	return stats, nil
}
