// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim

// Event is one of the three timeline event payloads: [JobArrival],
// [WorkerArrival], or [TaskCompletion]. The set is closed; the engine
// dispatches on the concrete type.
type Event interface {
	event()
}

// JobArrival announces a job entering the system at its scheduled time.
type JobArrival struct {
	Job *Job
}

// WorkerArrival announces a worker reaching the stage it was dispatched to
// after paying the inter-job moving cost. By the time it is processed the
// stage may have saturated or completed; the engine reconciles on arrival.
type WorkerArrival struct {
	Worker *Worker
	Stage  *Stage
}

// TaskCompletion announces that the task's assigned worker finished it.
type TaskCompletion struct {
	Stage *Stage
	Task  *Task
}

func (JobArrival) event()     {}
func (WorkerArrival) event()  {}
func (TaskCompletion) event() {}
