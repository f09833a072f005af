// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	dagsim "github.com/bearbattle/dag-scheduling-sim"
)

// instantMoves removes the inter-job moving delay so scenario timings stay
// hand-computable.
func instantMoves(*rand.Rand) dagsim.Time { return 0 }

func key(j, s int) dagsim.StageKey {
	return dagsim.StageKey{Job: dagsim.JobID(j), Stage: dagsim.StageID(s)}
}

func singleStageJob(tasks int, d dagsim.Time) dagsim.JobSpec {
	return dagsim.JobSpec{Stages: []dagsim.StageSpec{{TaskCount: tasks, Duration: d}}}
}

func TestEpisodeLifecycle(t *testing.T) {
	chk := require.New(t)
	env := dagsim.NewEnv(dagsim.Config{
		MovingCostFn: instantMoves,
		RewardScale:  1,
		Logger:       zaptest.NewLogger(t),
	})

	obs, err := env.Reset(
		[]dagsim.Arrival{{Time: 0, Job: singleStageJob(3, 10)}},
		dagsim.HomogeneousRoster(2),
	)
	chk.NoError(err)
	chk.False(env.Done())
	chk.Equal(dagsim.Time(0), obs.WallTime)
	chk.Equal(dagsim.GeneralPool(), obs.Source)
	chk.Equal(2, obs.UncommittedWorkers)
	chk.Equal([]dagsim.StageKey{key(0, 0)}, obs.SchedulableStages())
	chk.NoError(env.CheckInvariants())

	// Both workers on the only stage; the request over-asks and is clamped.
	obs, reward, done, err := env.Step(dagsim.Action{Target: key(0, 0), NumWorkers: 5})
	chk.NoError(err)
	chk.True(done)
	chk.True(env.Done())
	chk.False(env.Truncated())

	// Two tasks in parallel, then the third: 20 of virtual time with one
	// job active throughout.
	chk.Equal(dagsim.Time(20), env.WallTime())
	chk.Equal(-20.0, reward)
	chk.Empty(obs.Jobs)
	chk.Equal(1, obs.NumCompletedJobs)
	chk.Equal([]dagsim.JobID{0}, env.CompletedJobs())
	chk.Empty(env.ActiveJobs())
	chk.Zero(env.PendingEvents())
	chk.NoError(env.CheckInvariants())

	job, ok := env.Job(0)
	chk.True(ok)
	chk.Equal(dagsim.Time(20), job.CompletionTime())

	// Workers are recycled to the general pool once their job is gone.
	for w := 0; w < 2; w++ {
		loc, resident := env.Pools().Location(dagsim.WorkerID(w))
		chk.True(resident)
		chk.Equal(dagsim.GeneralPool(), loc)
	}

	_, _, done, err = env.Step(dagsim.Action{Target: key(0, 0), NumWorkers: 1})
	chk.ErrorIs(err, dagsim.ErrEpisodeDone)
	chk.True(done)
}

func TestRoundStaysOpenUntilResolved(t *testing.T) {
	chk := require.New(t)
	env := dagsim.NewEnv(dagsim.Config{MovingCostFn: instantMoves, RewardScale: 1})

	spec := dagsim.JobSpec{Stages: []dagsim.StageSpec{
		{TaskCount: 1, Duration: 10},
		{TaskCount: 1, Duration: 10},
	}}
	obs, err := env.Reset([]dagsim.Arrival{{Time: 0, Job: spec}}, dagsim.HomogeneousRoster(3))
	chk.NoError(err)
	chk.Equal(3, obs.UncommittedWorkers)
	chk.Len(obs.SchedulableStages(), 2)

	// The first selection saturates stage 0 but leaves an uncommitted
	// worker and an unselected stage, so the round stays open and no
	// virtual time passes.
	obs, reward, done, err := env.Step(dagsim.Action{Target: key(0, 0), NumWorkers: 1})
	chk.NoError(err)
	chk.False(done)
	chk.Zero(reward)
	chk.Equal(dagsim.Time(0), obs.WallTime)
	chk.Equal(2, obs.UncommittedWorkers)
	chk.Equal([]dagsim.StageKey{key(0, 1)}, obs.SchedulableStages())
	chk.Equal(1, env.Pools().CommittedTo(key(0, 0)))
	jo, ok := obs.Job(0)
	chk.True(ok)
	chk.True(jo.Stages[0].Saturated)
	chk.NoError(env.CheckInvariants())

	// The second selection exhausts the selectable stages and closes the
	// round even though one worker stays uncommitted.
	_, reward, done, err = env.Step(dagsim.Action{Target: key(0, 1), NumWorkers: 5})
	chk.NoError(err)
	chk.True(done)
	chk.Equal(dagsim.Time(10), env.WallTime())
	chk.Equal(-10.0, reward)
	chk.NoError(env.CheckInvariants())
}

func TestStepRejectsInvalidActions(t *testing.T) {
	chk := require.New(t)
	env := dagsim.NewEnv(dagsim.Config{MovingCostFn: instantMoves})
	spec := dagsim.JobSpec{Stages: []dagsim.StageSpec{
		{TaskCount: 1, Duration: 10},
		{TaskCount: 1, Duration: 10, DependsOn: []dagsim.StageID{0}},
	}}
	obs, err := env.Reset([]dagsim.Arrival{{Time: 0, Job: spec}}, dagsim.HomogeneousRoster(1))
	chk.NoError(err)
	pending := env.PendingEvents()
	uncommitted := obs.UncommittedWorkers

	cases := []struct {
		name   string
		action dagsim.Action
	}{
		{"unknown job", dagsim.Action{Target: key(9, 0), NumWorkers: 1}},
		{"unknown stage", dagsim.Action{Target: key(0, 7), NumWorkers: 1}},
		{"negative stage", dagsim.Action{Target: key(0, -1), NumWorkers: 1}},
		{"locked stage", dagsim.Action{Target: key(0, 1), NumWorkers: 1}},
		{"zero workers", dagsim.Action{Target: key(0, 0), NumWorkers: 0}},
	}
	for _, c := range cases {
		obs, reward, done, err := env.Step(c.action)
		chk.ErrorIsf(err, dagsim.ErrInvalidAction, "case %q", c.name)
		chk.Falsef(done, "case %q", c.name)
		chk.Zerof(reward, "case %q", c.name)
		chk.Equalf(uncommitted, obs.UncommittedWorkers, "case %q", c.name)
		chk.Equalf(pending, env.PendingEvents(), "case %q", c.name)
		chk.NoErrorf(env.CheckInvariants(), "case %q", c.name)
	}

	// Selecting the same stage twice within one round is rejected even
	// while the stage has demand left.
	env2 := dagsim.NewEnv(dagsim.Config{MovingCostFn: instantMoves})
	two := dagsim.JobSpec{Stages: []dagsim.StageSpec{
		{TaskCount: 2, Duration: 10},
		{TaskCount: 2, Duration: 10},
	}}
	_, err = env2.Reset([]dagsim.Arrival{{Time: 0, Job: two}}, dagsim.HomogeneousRoster(3))
	chk.NoError(err)
	_, _, done, err := env2.Step(dagsim.Action{Target: key(0, 0), NumWorkers: 1})
	chk.NoError(err)
	chk.False(done)
	_, _, _, err = env2.Step(dagsim.Action{Target: key(0, 0), NumWorkers: 1})
	chk.ErrorIs(err, dagsim.ErrInvalidAction)
}

func TestMovingCostDelaysCrossJobWorkers(t *testing.T) {
	chk := require.New(t)
	env := dagsim.NewEnv(dagsim.Config{MovingCost: 100, RewardScale: 1})
	arrivals := []dagsim.Arrival{
		{Time: 0, Job: singleStageJob(1, 10)},
		{Time: 0, Job: singleStageJob(1, 10)},
	}
	obs, err := env.Reset(arrivals, dagsim.HomogeneousRoster(1))
	chk.NoError(err)
	// Simultaneous initial arrivals are jointly visible in the first round.
	chk.Len(obs.Jobs, 2)
	chk.Equal(1, obs.UncommittedWorkers)

	obs, reward, done, err := env.Step(dagsim.Action{Target: key(0, 0), NumWorkers: 1})
	chk.NoError(err)
	chk.False(done)
	// 100 of travel plus 10 of work, with both jobs active the whole way.
	chk.Equal(dagsim.Time(110), env.WallTime())
	chk.Equal(-220.0, reward)
	chk.Equal([]dagsim.JobID{1}, env.ActiveJobs())
	chk.Equal(dagsim.GeneralPool(), obs.Source)

	_, reward, done, err = env.Step(dagsim.Action{Target: key(1, 0), NumWorkers: 1})
	chk.NoError(err)
	chk.True(done)
	chk.Equal(dagsim.Time(220), env.WallTime())
	chk.Equal(-110.0, reward)

	job0, _ := env.Job(0)
	job1, _ := env.Job(1)
	chk.Equal(dagsim.Time(110), job0.CompletionTime())
	chk.Equal(dagsim.Time(220), job1.CompletionTime())
}

func TestCommitAheadOfDependencies(t *testing.T) {
	chk := require.New(t)
	env := dagsim.NewEnv(dagsim.Config{MovingCostFn: instantMoves, RewardScale: 1})
	spec := dagsim.JobSpec{Stages: []dagsim.StageSpec{
		{TaskCount: 1, Duration: 50},
		{TaskCount: 1, Duration: 50, DependsOn: []dagsim.StageID{0}},
	}}
	obs, err := env.Reset([]dagsim.Arrival{{Time: 0, Job: spec}}, dagsim.HomogeneousRoster(2))
	chk.NoError(err)
	chk.Equal([]dagsim.StageKey{key(0, 0)}, obs.SchedulableStages())

	// Saturating stage 0 unlocks stage 1 for ahead-of-time commitment.
	obs, _, done, err := env.Step(dagsim.Action{Target: key(0, 0), NumWorkers: 1})
	chk.NoError(err)
	chk.False(done)
	chk.Equal([]dagsim.StageKey{key(0, 1)}, obs.SchedulableStages())

	// The second worker arrives before its stage can run and waits at the
	// job until the dependency finishes.
	obs, reward, done, err := env.Step(dagsim.Action{Target: key(0, 1), NumWorkers: 1})
	chk.NoError(err)
	chk.False(done)
	chk.Equal(dagsim.Time(50), env.WallTime())
	chk.Equal(-50.0, reward)
	chk.Equal(dagsim.JobPool(0), obs.Source)
	chk.Equal(1, obs.UncommittedWorkers)
	chk.Equal([]dagsim.StageKey{key(0, 1)}, obs.SchedulableStages())
	jo, ok := obs.Job(0)
	chk.True(ok)
	chk.True(jo.IsSource)
	chk.Equal(2, jo.LocalWorkers)
	chk.NoError(env.CheckInvariants())

	// Re-commit the waiting worker now that stage 1 is runnable.
	_, reward, done, err = env.Step(dagsim.Action{Target: key(0, 1), NumWorkers: 1})
	chk.NoError(err)
	chk.True(done)
	chk.Equal(dagsim.Time(100), env.WallTime())
	chk.Equal(-50.0, reward)
}

func TestIncompatibleCommitmentsCancelCleanly(t *testing.T) {
	chk := require.New(t)
	env := dagsim.NewEnv(dagsim.Config{MovingCostFn: instantMoves, RewardScale: 1})
	spec := dagsim.JobSpec{Stages: []dagsim.StageSpec{
		{TaskCount: 2, DurationPerType: []dagsim.Time{10, 0}},
	}}
	roster := []dagsim.WorkerSpec{{Type: 0}, {Type: 1}}
	obs, err := env.Reset([]dagsim.Arrival{{Time: 0, Job: spec}}, roster)
	chk.NoError(err)
	chk.Equal(2, obs.UncommittedWorkers)

	// Both workers get committed, but only the type-0 worker can serve the
	// stage. The unservable unit is canceled, its demand restored, and the
	// type-0 worker finishes both tasks back to back.
	_, reward, done, err := env.Step(dagsim.Action{Target: key(0, 0), NumWorkers: 2})
	chk.NoError(err)
	chk.True(done)
	chk.Equal(dagsim.Time(20), env.WallTime())
	chk.Equal(-20.0, reward)
	chk.NoError(env.CheckInvariants())

	loc, resident := env.Pools().Location(1)
	chk.True(resident)
	chk.Equal(dagsim.GeneralPool(), loc)
	chk.Equal(dagsim.NoJob, env.Worker(1).JobID())
}

func TestStrandedWorkerIsRescued(t *testing.T) {
	chk := require.New(t)
	env := dagsim.NewEnv(dagsim.Config{MovingCostFn: instantMoves, RewardScale: 1})
	// Both stages run only on type-0 workers; the type-1 worker can never
	// help this job.
	spec := dagsim.JobSpec{Stages: []dagsim.StageSpec{
		{TaskCount: 1, DurationPerType: []dagsim.Time{10, 0}},
		{TaskCount: 1, DurationPerType: []dagsim.Time{10, 0}, DependsOn: []dagsim.StageID{0}},
	}}
	roster := []dagsim.WorkerSpec{{Type: 0}, {Type: 1}}
	obs, err := env.Reset([]dagsim.Arrival{{Time: 0, Job: spec}}, roster)
	chk.NoError(err)

	obs, _, done, err := env.Step(dagsim.Action{Target: key(0, 0), NumWorkers: 2})
	chk.NoError(err)
	chk.False(done)
	chk.Equal([]dagsim.StageKey{key(0, 1)}, obs.SchedulableStages())

	// Closing the round dispatches the type-0 worker to stage 0 and
	// cancels the unservable commitment to stage 1. When stage 0 finishes
	// there is no pool left to distribute, so the idle type-0 worker is
	// rerouted to stage 1 directly instead of stranding the episode.
	_, reward, done, err := env.Step(dagsim.Action{Target: key(0, 1), NumWorkers: 1})
	chk.NoError(err)
	chk.True(done)
	chk.False(env.Truncated())
	chk.Equal(dagsim.Time(20), env.WallTime())
	chk.Equal(-20.0, reward)
	chk.Equal([]dagsim.JobID{0}, env.CompletedJobs())
	chk.NoError(env.CheckInvariants())
}

func TestStaleArrivalReroutesWithinJob(t *testing.T) {
	chk := require.New(t)
	env := dagsim.NewEnv(dagsim.Config{MovingCost: 50, RewardScale: 1})
	spec := dagsim.JobSpec{Stages: []dagsim.StageSpec{
		{TaskCount: 2, Duration: 10},
		{TaskCount: 2, Duration: 40},
	}}
	arrivals := []dagsim.Arrival{
		{Time: 0, Job: spec},
		{Time: 0, Job: singleStageJob(1, 5)},
	}
	obs, err := env.Reset(arrivals, dagsim.HomogeneousRoster(2))
	chk.NoError(err)
	chk.Equal(2, obs.UncommittedWorkers)
	chk.Equal([]dagsim.StageKey{key(0, 0), key(0, 1), key(1, 0)}, obs.SchedulableStages())

	obs, reward, done, err := env.Step(dagsim.Action{Target: key(1, 0), NumWorkers: 1})
	chk.NoError(err)
	chk.False(done)
	chk.Equal(dagsim.Time(0), obs.WallTime)
	chk.Equal(0.0, reward)
	chk.Equal(1, obs.UncommittedWorkers)

	// Closing the round sends worker 0 to job 1 and worker 1 to stage
	// (0,0). Job 1 finishes first and its worker is swept back to the
	// general pool at t=55.
	obs, reward, done, err = env.Step(dagsim.Action{Target: key(0, 0), NumWorkers: 1})
	chk.NoError(err)
	chk.False(done)
	chk.Equal(dagsim.Time(55), obs.WallTime)
	chk.Equal(-110.0, reward)
	chk.Equal(dagsim.GeneralPool(), obs.Source)
	chk.Equal(1, obs.NumCompletedJobs)
	chk.Equal([]dagsim.StageKey{key(0, 0), key(0, 1)}, obs.SchedulableStages())

	// Worker 0 is committed back to stage (0,0) and departs at t=55, but
	// worker 1 grabs the stage's last task at t=60, long before it lands.
	obs, reward, done, err = env.Step(dagsim.Action{Target: key(0, 0), NumWorkers: 1})
	chk.NoError(err)
	chk.False(done)
	chk.Equal(dagsim.Time(70), obs.WallTime)
	chk.Equal(-15.0, reward)
	src, ok := obs.Source.Op()
	chk.True(ok)
	chk.Equal(key(0, 0), src)
	chk.Equal([]dagsim.StageKey{key(0, 1)}, obs.SchedulableStages())

	// Worker 1 starts stage (0,1) at t=70. Worker 0 arrives at the
	// exhausted stage at t=105 and is rerouted to (0,1) instead of
	// parking, so the second task starts at 105 and the job ends at 145
	// rather than 150.
	_, reward, done, err = env.Step(dagsim.Action{Target: key(0, 1), NumWorkers: 1})
	chk.NoError(err)
	chk.True(done)
	chk.Equal(dagsim.Time(145), env.WallTime())
	chk.Equal(-75.0, reward)
	chk.Equal([]dagsim.JobID{1, 0}, env.CompletedJobs())
	chk.NoError(env.CheckInvariants())
}

func TestLateArrivalWaitsForFreeWorkers(t *testing.T) {
	chk := require.New(t)
	env := dagsim.NewEnv(dagsim.Config{MovingCostFn: instantMoves, RewardScale: 1})
	arrivals := []dagsim.Arrival{
		{Time: 0, Job: singleStageJob(1, 100)},
		{Time: 30, Job: singleStageJob(1, 10)},
	}
	obs, err := env.Reset(arrivals, dagsim.HomogeneousRoster(1))
	chk.NoError(err)
	chk.Len(obs.Jobs, 1)

	// The only worker is busy on job 0 when job 1 arrives, so the next
	// decision point is job 0's completion.
	obs, reward, done, err := env.Step(dagsim.Action{Target: key(0, 0), NumWorkers: 1})
	chk.NoError(err)
	chk.False(done)
	chk.Equal(dagsim.Time(100), env.WallTime())
	// Job 0 was active for the full 100, job 1 for the 70 since arriving.
	chk.Equal(-170.0, reward)
	chk.Len(obs.Jobs, 1)
	chk.Equal(dagsim.JobID(1), obs.Jobs[0].Job)
	chk.Equal(1, obs.NumCompletedJobs)
}

func TestArrivalOpensRoundFromGeneralPool(t *testing.T) {
	chk := require.New(t)
	env := dagsim.NewEnv(dagsim.Config{MovingCostFn: instantMoves, RewardScale: 1})
	arrivals := []dagsim.Arrival{
		{Time: 0, Job: singleStageJob(2, 100)},
		{Time: 50, Job: singleStageJob(2, 100)},
	}
	obs, err := env.Reset(arrivals, dagsim.HomogeneousRoster(3))
	chk.NoError(err)
	chk.Equal(3, obs.UncommittedWorkers)

	// Two of three workers saturate job 0; the spare stays in the general
	// pool, and job 1's arrival at t=50 is the next decision point.
	obs, reward, done, err := env.Step(dagsim.Action{Target: key(0, 0), NumWorkers: 5})
	chk.NoError(err)
	chk.False(done)
	chk.Equal(dagsim.Time(50), obs.WallTime)
	chk.Equal(-50.0, reward)
	chk.Equal(dagsim.GeneralPool(), obs.Source)
	chk.Equal(1, obs.UncommittedWorkers)
	chk.Equal([]dagsim.StageKey{key(1, 0)}, obs.SchedulableStages())
	chk.Len(obs.Jobs, 2)
	chk.NoError(env.CheckInvariants())

	// Job 1 wants two workers but only one is free; the over-ask clamps to
	// the general pool's supply and the round closes committed-out.
	obs, reward, done, err = env.Step(dagsim.Action{Target: key(1, 0), NumWorkers: 3})
	chk.NoError(err)
	chk.False(done)
	chk.Equal(dagsim.Time(100), obs.WallTime)
	chk.Equal(-100.0, reward)
	src, ok := obs.Source.Op()
	chk.True(ok)
	chk.Equal(key(0, 0), src)
	chk.Equal(1, obs.UncommittedWorkers)

	// The worker freed by job 0's first completion serves job 1's last task.
	obs, reward, done, err = env.Step(dagsim.Action{Target: key(1, 0), NumWorkers: 1})
	chk.NoError(err)
	chk.True(done)
	chk.Equal(dagsim.Time(200), env.WallTime())
	chk.Equal(-100.0, reward)
	chk.True(obs.Source.IsNull())
	chk.Equal(2, obs.NumCompletedJobs)
	chk.NoError(env.CheckInvariants())
}

func TestTimeLimitTruncates(t *testing.T) {
	chk := require.New(t)
	env := dagsim.NewEnv(dagsim.Config{
		MovingCostFn: instantMoves,
		RewardScale:  1,
		TimeLimit:    50,
	})
	_, err := env.Reset([]dagsim.Arrival{{Time: 0, Job: singleStageJob(1, 100)}}, dagsim.HomogeneousRoster(1))
	chk.NoError(err)
	chk.False(env.Done())

	_, reward, done, err := env.Step(dagsim.Action{Target: key(0, 0), NumWorkers: 1})
	chk.NoError(err)
	chk.True(done)
	chk.True(env.Truncated())
	chk.Equal(dagsim.Time(50), env.WallTime())
	chk.Equal(-50.0, reward)
	chk.Equal([]dagsim.JobID{0}, env.ActiveJobs())
	chk.Equal(1, env.PendingEvents())
	chk.NoError(env.CheckInvariants())

	_, _, done, err = env.Step(dagsim.Action{Target: key(0, 0), NumWorkers: 1})
	chk.ErrorIs(err, dagsim.ErrEpisodeDone)
	chk.True(done)
}

func TestTimeLimitTruncatesAtReset(t *testing.T) {
	chk := require.New(t)
	env := dagsim.NewEnv(dagsim.Config{TimeLimit: 50})
	obs, err := env.Reset([]dagsim.Arrival{{Time: 80, Job: singleStageJob(1, 10)}}, dagsim.HomogeneousRoster(1))
	chk.NoError(err)
	chk.True(env.Done())
	chk.True(env.Truncated())
	chk.Equal(dagsim.Time(50), obs.WallTime)
	chk.Empty(obs.Jobs)
}

func TestEpisodesReplayDeterministically(t *testing.T) {
	chk := require.New(t)

	spec := dagsim.JobSpec{Stages: []dagsim.StageSpec{
		{TaskCount: 3, Duration: 40},
		{TaskCount: 2, Duration: 30, DependsOn: []dagsim.StageID{0}},
		{TaskCount: 2, Duration: 20, DependsOn: []dagsim.StageID{0}},
		{TaskCount: 1, Duration: 10, DependsOn: []dagsim.StageID{1, 2}},
	}}
	arrivals := []dagsim.Arrival{
		{Time: 0, Job: spec},
		{Time: 25, Job: singleStageJob(2, 35)},
	}
	env := dagsim.NewEnv(dagsim.Config{
		Seed:         11,
		RewardScale:  1,
		MovingCostFn: func(rng *rand.Rand) dagsim.Time { return dagsim.Time(rng.Intn(40)) },
	})

	run := func() []float64 {
		obs, err := env.Reset(arrivals, dagsim.HomogeneousRoster(3))
		chk.NoError(err)
		var trace []float64
		for steps := 0; !env.Done(); steps++ {
			chk.Less(steps, 10000)
			targets := obs.SchedulableStages()
			chk.NotEmpty(targets)
			var reward float64
			obs, reward, _, err = env.Step(dagsim.Action{Target: targets[0], NumWorkers: 1})
			chk.NoError(err)
			chk.NoError(env.CheckInvariants())
			trace = append(trace, float64(env.WallTime()), reward)
		}
		return trace
	}

	// Reset reseeds the engine, so the same inputs and actions replay the
	// same episode on the same Env.
	first := run()
	second := run()
	chk.NotEmpty(first)
	chk.Equal(first, second)
}

func TestObservationsAreSnapshots(t *testing.T) {
	chk := require.New(t)
	env := dagsim.NewEnv(dagsim.Config{MovingCostFn: instantMoves})
	obs, err := env.Reset([]dagsim.Arrival{{Time: 0, Job: singleStageJob(2, 10)}}, dagsim.HomogeneousRoster(1))
	chk.NoError(err)
	chk.Equal(2, obs.Jobs[0].Stages[0].RemainingTasks)

	_, _, done, err := env.Step(dagsim.Action{Target: key(0, 0), NumWorkers: 1})
	chk.NoError(err)
	chk.True(done)

	// The earlier observation still describes the state it was taken in.
	chk.Equal(2, obs.Jobs[0].Stages[0].RemainingTasks)
	chk.Equal(1, obs.UncommittedWorkers)
}

func TestNewEnvRejectsNegativeConfig(t *testing.T) {
	chk := require.New(t)
	chk.Panics(func() { dagsim.NewEnv(dagsim.Config{MovingCost: -1}) })
	chk.Panics(func() { dagsim.NewEnv(dagsim.Config{RewardScale: -1}) })
	chk.Panics(func() { dagsim.NewEnv(dagsim.Config{TimeLimit: -1}) })
}
