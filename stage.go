// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim

import "math"

// Incompatible marks a (stage, worker type) pair that may never be assigned.
const Incompatible = Time(math.MaxFloat64)

// A Task is one unit of work within a stage. Task slots are pre-allocated
// when the job is built and filled in assignment order, so a Task's identity
// is stable across the episode.
type Task struct {
	index       int
	workerID    WorkerID
	acceptedAt  Time
	completedAt Time
	inProgress  bool
	assigned    bool
}

// Index returns the task's position within its stage.
func (t *Task) Index() int { return t.index }

// Worker returns the worker the task was assigned to, valid once Assigned.
func (t *Task) Worker() WorkerID { return t.workerID }

// Assigned reports whether the task has ever been handed to a worker.
func (t *Task) Assigned() bool { return t.assigned }

// InProgress reports whether the task is currently being executed.
func (t *Task) InProgress() bool { return t.inProgress }

// AcceptedAt returns the time the assigned worker accepted the task.
func (t *Task) AcceptedAt() Time { return t.acceptedAt }

// CompletedAt returns the task's completion time, or Never.
func (t *Task) CompletedAt() Time { return t.completedAt }

// A Stage is a node in a job's dependency graph: a set of identical tasks
// that may all run in parallel once every dependency stage has finished.
//
// A stage distinguishes two exhaustion notions. Its task slots are exhausted
// when every task is completed or executing, which is a hard limit on
// assignment. Its demand (tracked by the engine) additionally discounts
// workers still moving toward it and unfulfilled commitments, and governs
// whether the stage may still be selected as a commitment target.
type Stage struct {
	key       StageKey
	durations []Time
	tasks     []Task

	numCompleted  int
	numProcessing int
	nextTask      int

	// most recent sampled task duration, used to estimate remaining work
	recentDuration Time
}

func newStage(key StageKey, numTasks int, durations []Time) *Stage {
	st := &Stage{
		key:       key,
		durations: durations,
		tasks:     make([]Task, numTasks),
	}
	for i := range st.tasks {
		st.tasks[i] = Task{index: i, workerID: -1, completedAt: Never}
	}
	return st
}

// Key returns the stage's global identity.
func (st *Stage) Key() StageKey { return st.key }

// ID returns the stage's index within its job.
func (st *Stage) ID() StageID { return st.key.Stage }

// JobID returns the owning job.
func (st *Stage) JobID() JobID { return st.key.Job }

// NumTasks returns the total number of tasks in the stage.
func (st *Stage) NumTasks() int { return len(st.tasks) }

// CompletedTasks returns the number of finished tasks.
func (st *Stage) CompletedTasks() int { return st.numCompleted }

// ProcessingTasks returns the number of tasks currently executing.
func (st *Stage) ProcessingTasks() int { return st.numProcessing }

// RemainingTasks returns the number of tasks not yet assigned to any worker.
func (st *Stage) RemainingTasks() int {
	return len(st.tasks) - st.numCompleted - st.numProcessing
}

// Completed reports whether every task in the stage has finished.
func (st *Stage) Completed() bool { return st.numCompleted == len(st.tasks) }

// Task returns the task in slot i.
func (st *Stage) Task(i int) *Task { return &st.tasks[i] }

// ExpectedDuration returns the mean task duration for the given worker type,
// or Incompatible if that type may not serve this stage.
func (st *Stage) ExpectedDuration(wt WorkerType) Time {
	if int(wt) >= len(st.durations) {
		return Incompatible
	}
	return st.durations[wt]
}

// Compatible reports whether the given worker type may serve this stage.
func (st *Stage) Compatible(wt WorkerType) bool {
	return st.ExpectedDuration(wt) != Incompatible
}

// RemainingWorkEstimate approximates the work left in the stage as the most
// recently observed task duration times the number of unassigned tasks. Until
// a task duration has been observed it falls back to the smallest expected
// duration across compatible worker types.
func (st *Stage) RemainingWorkEstimate() Time {
	d := st.recentDuration
	if d == 0 {
		d = st.minExpectedDuration()
	}
	return d * Time(st.RemainingTasks())
}

func (st *Stage) minExpectedDuration() Time {
	m := Incompatible
	for _, d := range st.durations {
		if d < m {
			m = d
		}
	}
	if m == Incompatible {
		return 0
	}
	return m
}

func (st *Stage) observeDuration(d Time) {
	st.recentDuration = d
}

// assign hands the next unassigned task slot to worker w at time t.
func (st *Stage) assign(w WorkerID, t Time) (*Task, error) {
	if st.nextTask >= len(st.tasks) {
		return nil, errStageExhausted
	}
	task := &st.tasks[st.nextTask]
	st.nextTask++
	task.workerID = w
	task.acceptedAt = t
	task.inProgress = true
	task.assigned = true
	st.numProcessing++
	return task, nil
}

// complete records that task finished at time t.
func (st *Stage) complete(task *Task, t Time) {
	invariantf(task.inProgress, "completing task %v/%d that is not in progress", st.key, task.index)
	task.inProgress = false
	task.completedAt = t
	st.numProcessing--
	st.numCompleted++
	invariantf(st.numCompleted <= len(st.tasks), "stage %v overcompleted", st.key)
}
