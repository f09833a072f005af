// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim

import (
	"math/rand"
	"sort"
)

// A DurationSampler decides how long each task takes. It is consulted exactly
// once per task, at assignment time, and the result is final: the completion
// event is scheduled immediately.
//
// The worker passed in still carries the task and stage it served most
// recently, if it has not been parked or moved since, so samplers can
// distinguish a worker continuing on the same stage from one that just
// arrived. localWorkers is the number of workers currently at the stage's
// job, including this one.
type DurationSampler interface {
	SampleTaskDuration(st *Stage, task *Task, w *Worker, localWorkers int) Time
}

// ExpectedDurationSampler is the default sampler: every task takes exactly
// the stage's expected duration for the worker's type. Episodes under it are
// fully deterministic.
type ExpectedDurationSampler struct{}

func (ExpectedDurationSampler) SampleTaskDuration(st *Stage, _ *Task, w *Worker, _ int) Time {
	return st.ExpectedDuration(w.Type())
}

// waveClass tells which execution wave a task belongs to, from the serving
// worker's point of view.
type waveClass uint8

const (
	// waveFresh: the worker just arrived at the job, or idled in a pool
	// since its last task. Cold caches, warmup applies.
	waveFresh waveClass = iota
	// waveFirst: the worker is warm at the job but runs this stage for the
	// first time.
	waveFirst
	// waveRest: the worker continues on the stage it already served.
	waveRest
)

func classifyWave(st *Stage, w *Worker) waveClass {
	prev := w.Stage()
	switch {
	case prev == nil || prev.JobID() != st.JobID():
		return waveFresh
	case prev == st:
		return waveRest
	default:
		return waveFirst
	}
}

// WaveDurations holds recorded task durations for one stage, grouped by wave
// class and keyed by the reference worker count the recording was taken at.
type WaveDurations struct {
	Fresh     map[int][]Time
	FirstWave map[int][]Time
	RestWave  map[int][]Time
}

// DefaultWorkerLevels are the reference worker counts trace recordings are
// commonly keyed by.
var DefaultWorkerLevels = []int{5, 10, 20, 40, 50, 60, 80, 100}

// DefaultWarmupDelay is the extra delay a fresh worker pays before its first
// task when the trace carries no recorded fresh durations.
const DefaultWarmupDelay = Time(1000)

// A TraceSampler replays task durations recorded from real runs. For each
// assignment it classifies the task's wave, maps the job's current worker
// count onto the nearest recorded reference levels (randomly rounding toward
// the closer one), and draws uniformly from the recorded durations.
//
// Classes missing from the recording fall back in a fixed order: a fresh
// worker falls back to first-wave data plus the warmup delay, and every class
// ultimately falls back to the stage's expected duration. Stages absent from
// the table always use the expected duration.
type TraceSampler struct {
	data   map[StageKey]*WaveDurations
	levels []int
	warmup Time
	rng    *rand.Rand
}

// NewTraceSampler returns a TraceSampler over the given per-stage recordings,
// using DefaultWorkerLevels and DefaultWarmupDelay.
func NewTraceSampler(seed int64, data map[StageKey]*WaveDurations) *TraceSampler {
	return &TraceSampler{
		data:   data,
		levels: DefaultWorkerLevels,
		warmup: DefaultWarmupDelay,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// SetWarmupDelay overrides the fresh-worker warmup delay.
func (s *TraceSampler) SetWarmupDelay(d Time) { s.warmup = d }

// SetWorkerLevels overrides the reference worker counts. Levels must be
// ascending and non-empty.
func (s *TraceSampler) SetWorkerLevels(levels []int) {
	if len(levels) == 0 || !sort.IntsAreSorted(levels) {
		panic("worker levels must be non-empty and ascending")
	}
	s.levels = levels
}

func (s *TraceSampler) SampleTaskDuration(st *Stage, _ *Task, w *Worker, localWorkers int) Time {
	wd := s.data[st.Key()]
	if wd == nil {
		return st.ExpectedDuration(w.Type())
	}
	level := s.pickLevel(localWorkers)
	class := classifyWave(st, w)

	type source struct {
		table  map[int][]Time
		warmed bool
	}
	var cascade []source
	switch class {
	case waveFresh:
		cascade = []source{{wd.Fresh, false}, {wd.FirstWave, true}, {wd.RestWave, true}}
	case waveFirst:
		cascade = []source{{wd.FirstWave, false}, {wd.RestWave, false}, {wd.Fresh, false}}
	default:
		cascade = []source{{wd.RestWave, false}, {wd.FirstWave, false}, {wd.Fresh, false}}
	}
	for _, src := range cascade {
		ds := src.table[level]
		if len(ds) == 0 {
			continue
		}
		d := ds[s.rng.Intn(len(ds))]
		if src.warmed {
			d += s.warmup
		}
		return d
	}
	return st.ExpectedDuration(w.Type())
}

// pickLevel maps a live worker count onto one of the recorded reference
// levels. Counts between two levels round randomly, weighted toward the
// nearer level; counts outside the recorded range clamp.
func (s *TraceSampler) pickLevel(n int) int {
	ls := s.levels
	if n <= ls[0] {
		return ls[0]
	}
	if n >= ls[len(ls)-1] {
		return ls[len(ls)-1]
	}
	i := sort.SearchInts(ls, n)
	right := ls[i]
	if right == n {
		return n
	}
	left := ls[i-1]
	if s.rng.Float64() < float64(n-left)/float64(right-left) {
		return right
	}
	return left
}
