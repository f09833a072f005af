// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim

// WorkerType distinguishes classes of workers with different per-stage speed
// and compatibility. Types are dense indices into each stage's expected
// duration table. Homogeneous rosters use a single type zero.
type WorkerType int32

// WorkerSpec describes one worker in the roster passed to [Env.Reset].
type WorkerSpec struct {
	Type WorkerType
}

// HomogeneousRoster returns a roster of n identical type-zero workers.
func HomogeneousRoster(n int) []WorkerSpec {
	return make([]WorkerSpec, n)
}

// A Worker is one unit of execution capacity. Workers are interchangeable
// within a type; identity exists only for bookkeeping and determinism.
//
// A worker is always in exactly one of three conditions: idle in some pool,
// executing a task (still a member of that stage's pool), or moving between
// jobs (member of no pool until its arrival event fires).
type Worker struct {
	id  WorkerID
	typ WorkerType

	jobID     JobID
	available bool

	// Last task accepted and its stage. Both are retained after the task
	// completes, until the worker is parked or dispatched elsewhere, so
	// that duration sampling can tell a continuing worker from a fresh
	// one.
	task  *Task
	stage *Stage
}

func newWorker(id WorkerID, typ WorkerType) *Worker {
	return &Worker{id: id, typ: typ, jobID: NoJob, available: true}
}

// ID returns the worker's roster index.
func (w *Worker) ID() WorkerID { return w.id }

// Type returns the worker's type.
func (w *Worker) Type() WorkerType { return w.typ }

// JobID returns the job the worker is attached to, or NoJob.
func (w *Worker) JobID() JobID { return w.jobID }

// AtJob reports whether the worker is attached to job j.
func (w *Worker) AtJob(j JobID) bool { return w.jobID == j }

// Available reports whether the worker is not executing a task. Workers in
// transit between jobs are available; they simply have not arrived yet.
func (w *Worker) Available() bool { return w.available }

// Task returns the worker's last accepted task, or nil if it has been parked
// or moved since.
func (w *Worker) Task() *Task { return w.task }

// Stage returns the stage of the worker's last accepted task, or nil.
func (w *Worker) Stage() *Stage { return w.stage }

// attach binds the worker to job j upon arrival.
func (w *Worker) attach(j JobID) {
	w.jobID = j
}

// startTask marks the worker busy on task within st.
func (w *Worker) startTask(st *Stage, task *Task) {
	invariantf(w.available, "worker %d started a task while busy", w.id)
	w.available = false
	w.task = task
	w.stage = st
}

// finishTask marks the worker idle again. The finished task is retained for
// duration sampling until the worker parks or departs.
func (w *Worker) finishTask() {
	invariantf(!w.available, "worker %d finished a task while idle", w.id)
	w.available = true
}

// park clears the worker's task context when it idles in a job or the
// general pool with no assignment.
func (w *Worker) park() {
	w.task = nil
	w.stage = nil
}

// depart clears the worker's task context and job attachment when it leaves
// its job, either to move to another job or back to the general pool.
func (w *Worker) depart() {
	w.task = nil
	w.stage = nil
	w.jobID = NoJob
}
