// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpectedDurationSampler(t *testing.T) {
	chk := require.New(t)
	st := newStage(StageKey{Job: 0, Stage: 0}, 1, []Time{40, 80})
	var s ExpectedDurationSampler
	chk.Equal(Time(40), s.SampleTaskDuration(st, st.Task(0), newWorker(0, 0), 1))
	chk.Equal(Time(80), s.SampleTaskDuration(st, st.Task(0), newWorker(1, 1), 1))
}

func TestClassifyWave(t *testing.T) {
	chk := require.New(t)
	stA := newStage(StageKey{Job: 1, Stage: 0}, 2, []Time{10})
	stB := newStage(StageKey{Job: 1, Stage: 1}, 1, []Time{10})
	stC := newStage(StageKey{Job: 2, Stage: 0}, 1, []Time{10})
	w := newWorker(0, 0)

	// No history at all: fresh.
	chk.Equal(waveFresh, classifyWave(stA, w))

	task, err := stA.assign(w.ID(), 0)
	chk.NoError(err)
	w.startTask(stA, task)
	w.finishTask()

	chk.Equal(waveRest, classifyWave(stA, w))  // continuing on the same stage
	chk.Equal(waveFirst, classifyWave(stB, w)) // warm at the job, new stage
	chk.Equal(waveFresh, classifyWave(stC, w)) // different job

	// Parking clears the history.
	w.park()
	chk.Equal(waveFresh, classifyWave(stA, w))
}

func TestTraceSamplerFallbackCascade(t *testing.T) {
	chk := require.New(t)
	key := StageKey{Job: 0, Stage: 0}
	st := newStage(key, 3, []Time{77})
	fresh := newWorker(0, 0)

	s := NewTraceSampler(1, map[StageKey]*WaveDurations{
		key: {FirstWave: map[int][]Time{5: {40}}},
	})

	// No fresh recordings: fall back to first-wave data plus warmup.
	chk.Equal(Time(40)+DefaultWarmupDelay, s.SampleTaskDuration(st, st.Task(0), fresh, 3))
	s.SetWarmupDelay(7)
	chk.Equal(Time(47), s.SampleTaskDuration(st, st.Task(0), fresh, 3))

	// A continuing worker reads the first-wave data without warmup.
	warm := newWorker(1, 0)
	task, err := st.assign(warm.ID(), 0)
	chk.NoError(err)
	warm.startTask(st, task)
	warm.finishTask()
	chk.Equal(Time(40), s.SampleTaskDuration(st, st.Task(1), warm, 3))

	// Stages absent from the table use the expected duration.
	other := newStage(StageKey{Job: 0, Stage: 1}, 1, []Time{77})
	chk.Equal(Time(77), s.SampleTaskDuration(other, other.Task(0), fresh, 3))

	// So does a stage whose recording is empty for every class.
	s2 := NewTraceSampler(1, map[StageKey]*WaveDurations{key: {}})
	chk.Equal(Time(77), s2.SampleTaskDuration(st, st.Task(2), fresh, 3))
}

func TestTraceSamplerPickLevel(t *testing.T) {
	chk := require.New(t)
	s := NewTraceSampler(42, nil)
	s.SetWorkerLevels([]int{10, 20, 40})

	chk.Equal(10, s.pickLevel(1))
	chk.Equal(10, s.pickLevel(10))
	chk.Equal(20, s.pickLevel(20))
	chk.Equal(40, s.pickLevel(40))
	chk.Equal(40, s.pickLevel(1000))

	// In-between counts round randomly toward the nearer level; both sides
	// must be reachable.
	seen := make(map[int]int)
	for i := 0; i < 200; i++ {
		l := s.pickLevel(15)
		chk.Contains([]int{10, 20}, l)
		seen[l]++
	}
	chk.Positive(seen[10])
	chk.Positive(seen[20])
}

func TestTraceSamplerRejectsBadLevels(t *testing.T) {
	chk := require.New(t)
	s := NewTraceSampler(0, nil)
	chk.Panics(func() { s.SetWorkerLevels(nil) })
	chk.Panics(func() { s.SetWorkerLevels([]int{20, 10}) })
}

func TestStageRemainingWorkEstimate(t *testing.T) {
	chk := require.New(t)
	st := newStage(StageKey{Job: 0, Stage: 0}, 4, []Time{50, Incompatible})

	// Before any observation: smallest compatible expected duration.
	chk.Equal(Time(200), st.RemainingWorkEstimate())

	task, err := st.assign(0, 0)
	chk.NoError(err)
	st.observeDuration(80)
	chk.Equal(Time(240), st.RemainingWorkEstimate()) // 3 unassigned tasks at 80 each

	st.complete(task, 80)
	chk.Equal(Time(240), st.RemainingWorkEstimate())
}
