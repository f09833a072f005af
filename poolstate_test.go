// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testPoolJob(t *testing.T, id JobID) *Job {
	t.Helper()
	spec := JobSpec{Stages: []StageSpec{
		{TaskCount: 2, Duration: 10},
		{TaskCount: 1, Duration: 10, DependsOn: []StageID{0}},
	}}
	job, err := buildJob(id, 0, spec, typeSet{true})
	require.NoError(t, err)
	return job
}

func TestPoolStateCommitmentLifecycle(t *testing.T) {
	chk := require.New(t)
	var s PoolState
	s.reset(3)
	chk.NoError(s.check())
	chk.Equal([]WorkerID{0, 1, 2}, s.Members(GeneralPool()))
	chk.Equal(0, s.UncommittedAtSource())

	job := testPoolJob(t, 0)
	s.addJob(job)
	chk.NoError(s.check())

	s.updateSource(GeneralPool())
	chk.Equal(3, s.UncommittedAtSource())
	chk.False(s.AllSourceCommitted())

	key0 := StageKey{Job: 0, Stage: 0}
	key1 := StageKey{Job: 0, Stage: 1}
	s.addCommitment(2, OpPool(key0))
	s.addCommitment(1, OpPool(key1))
	chk.NoError(s.check())
	chk.True(s.AllSourceCommitted())
	chk.Equal(3, s.CommittedFrom(GeneralPool()))
	chk.Equal(2, s.CommittedTo(key0))
	chk.Equal(1, s.CommittedTo(key1))
	chk.Equal(3, s.TotalJobWorkers(0))

	// Edges are honored in insertion order.
	dst, ok := s.peekCommitment(GeneralPool())
	chk.True(ok)
	chk.Equal(OpPool(key0), dst)

	// Dispatching leaves residency; the worker is counted as moving until
	// its arrival event fires.
	s.fulfillCommitment(0, OpPool(key0), true)
	chk.NoError(s.check())
	_, resident := s.Location(0)
	chk.False(resident)
	chk.Equal(1, s.MovingTo(key0))
	chk.Equal(1, s.CommittedTo(key0))
	chk.Equal(3, s.TotalJobWorkers(0))

	s.countWorkerArrival(OpPool(key0))
	s.moveToPool(0, OpPool(key0), false)
	chk.NoError(s.check())
	loc, resident := s.Location(0)
	chk.True(resident)
	chk.Equal(OpPool(key0), loc)
	chk.Equal(0, s.MovingTo(key0))
	chk.Equal(3, s.TotalJobWorkers(0))
}

func TestPoolStateCancelCommitment(t *testing.T) {
	chk := require.New(t)
	var s PoolState
	s.reset(2)
	s.addJob(testPoolJob(t, 0))
	s.updateSource(GeneralPool())

	key0 := StageKey{Job: 0, Stage: 0}
	s.addCommitment(2, OpPool(key0))
	chk.Equal(0, s.UncommittedAtSource())

	s.cancelCommitment(GeneralPool(), OpPool(key0))
	chk.NoError(s.check())
	chk.Equal(1, s.CommittedTo(key0))
	chk.Equal(1, s.CommittedFrom(GeneralPool()))
	chk.Equal(1, s.TotalJobWorkers(0))
	chk.Equal(1, s.UncommittedAtSource())

	// Canceling the last unit clears the edge entirely.
	s.cancelCommitment(GeneralPool(), OpPool(key0))
	chk.NoError(s.check())
	_, ok := s.peekCommitment(GeneralPool())
	chk.False(ok)
	chk.Equal(0, s.TotalJobWorkers(0))
}

func TestPoolStateLocalFulfillment(t *testing.T) {
	chk := require.New(t)
	var s PoolState
	s.reset(1)
	s.addJob(testPoolJob(t, 0))

	s.moveToPool(0, JobPool(0), false)
	chk.Equal(1, s.TotalJobWorkers(0))

	key0 := StageKey{Job: 0, Stage: 0}
	s.updateSource(JobPool(0))
	s.addCommitment(1, OpPool(key0))
	// A commitment within the job does not re-count the worker.
	chk.Equal(1, s.TotalJobWorkers(0))
	chk.NoError(s.check())

	s.fulfillCommitment(0, OpPool(key0), false)
	chk.NoError(s.check())
	loc, resident := s.Location(0)
	chk.True(resident)
	chk.Equal(OpPool(key0), loc)
	chk.Equal(0, s.MovingTo(key0))
	chk.Equal(1, s.TotalJobWorkers(0))
}

func TestPoolStateReRegistersDrainedEdgeAtBack(t *testing.T) {
	chk := require.New(t)
	var s PoolState
	s.reset(3)
	s.addJob(testPoolJob(t, 0))
	s.updateSource(GeneralPool())

	key0 := StageKey{Job: 0, Stage: 0}
	key1 := StageKey{Job: 0, Stage: 1}
	s.addCommitment(1, OpPool(key0))
	s.addCommitment(1, OpPool(key1))
	s.cancelCommitment(GeneralPool(), OpPool(key0))

	// key0 drained, so key1 heads the queue; committing to key0 again
	// re-registers it behind key1.
	s.addCommitment(1, OpPool(key0))
	dst, ok := s.peekCommitment(GeneralPool())
	chk.True(ok)
	chk.Equal(OpPool(key1), dst)
	chk.NoError(s.check())
}

func TestPoolStateOversubscriptionPanics(t *testing.T) {
	chk := require.New(t)
	var s PoolState
	s.reset(1)
	s.addJob(testPoolJob(t, 0))
	s.updateSource(GeneralPool())

	key0 := StageKey{Job: 0, Stage: 0}
	s.addCommitment(1, OpPool(key0))
	chk.PanicsWithValue(
		"dagsim: invariant violated: pool general oversubscribed: 2 commitments, 1 members",
		func() { s.addCommitment(1, OpPool(key0)) },
	)
}

func TestPoolStateLocalFulfillmentAcrossJobsPanics(t *testing.T) {
	chk := require.New(t)
	var s PoolState
	s.reset(1)
	s.addJob(testPoolJob(t, 0))
	s.updateSource(GeneralPool())

	key0 := StageKey{Job: 0, Stage: 0}
	s.addCommitment(1, OpPool(key0))
	chk.PanicsWithValue(
		"dagsim: invariant violated: local fulfillment across jobs: general to op 0/0",
		func() { s.fulfillCommitment(0, OpPool(key0), false) },
	)
}
