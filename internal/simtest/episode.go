// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package simtest

import (
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	dagsim "github.com/bearbattle/dag-scheduling-sim"
)

// maxSteps bounds runaway episodes so a liveness bug fails the test instead
// of hanging it.
const maxSteps = 100000

// RunRandom drives env through one full episode with randomly drawn legal
// actions, re-checking every engine invariant after each step. It returns
// the cumulative reward.
func RunRandom(t *rapid.T, env *dagsim.Env, arrivals []dagsim.Arrival, roster []dagsim.WorkerSpec) float64 {
	chk := require.New(t)

	obs, err := env.Reset(arrivals, roster)
	chk.NoError(err)
	chk.NoError(env.CheckInvariants())

	var total float64
	lastWall := env.WallTime()
	for steps := 0; !env.Done(); steps++ {
		chk.Less(steps, maxSteps, "episode did not terminate")

		targets := obs.SchedulableStages()
		chk.NotEmpty(targets, "live episode must offer a commitment target")
		chk.Positive(obs.UncommittedWorkers, "live episode must offer source workers")

		// Over-request now and then; the engine clamps to demand and supply.
		a := dagsim.Action{
			Target:     rapid.SampledFrom(targets).Draw(t, "Target"),
			NumWorkers: rapid.IntRange(1, obs.UncommittedWorkers+2).Draw(t, "NumWorkers"),
		}
		var reward float64
		obs, reward, _, err = env.Step(a)
		chk.NoError(err)
		chk.NoError(env.CheckInvariants())
		chk.LessOrEqual(reward, 0.0)
		chk.GreaterOrEqual(env.WallTime(), lastWall)
		lastWall = env.WallTime()
		total += reward
	}

	if !env.Truncated() {
		chk.Empty(env.ActiveJobs(), "finished episode left active jobs")
		chk.Zero(env.PendingEvents(), "finished episode left pending events")
		chk.Len(env.CompletedJobs(), len(arrivals))
	}
	return total
}
