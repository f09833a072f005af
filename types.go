// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim

import (
	"fmt"
	"math"
)

// Time is a point in virtual simulation time. The engine treats it as a
// dimensionless scalar; workloads conventionally use milliseconds.
type Time float64

// Never is a Time later than every event the engine can schedule. It marks
// completion timestamps of jobs that have not completed.
const Never = Time(math.MaxFloat64)

// JobID identifies a job within one episode. IDs are assigned densely from
// zero in arrival-schedule order.
type JobID int32

// NoJob is the JobID of workers not attached to any job.
const NoJob = JobID(-1)

// StageID identifies a stage within its job, matching the stage's index in
// the [JobSpec] it was built from.
type StageID int32

// WorkerID identifies a worker within one episode. IDs are assigned densely
// from zero in roster order.
type WorkerID int32

// StageKey identifies a stage globally within an episode.
type StageKey struct {
	Job   JobID
	Stage StageID
}

func (k StageKey) String() string {
	return fmt.Sprintf("%d/%d", k.Job, k.Stage)
}

// compare orders keys by job then stage, pinning every place the engine must
// iterate stages deterministically.
func (k StageKey) compare(o StageKey) int {
	if k.Job != o.Job {
		if k.Job < o.Job {
			return -1
		}
		return 1
	}
	switch {
	case k.Stage < o.Stage:
		return -1
	case k.Stage > o.Stage:
		return 1
	}
	return 0
}
