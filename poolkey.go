// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim

import "fmt"

type poolKind uint8

const (
	poolNull poolKind = iota
	poolGeneral
	poolJob
	poolOp
)

// A PoolKey names one worker pool. There are four kinds: the null pool (no
// source; it never holds workers), the general pool of workers attached to no
// job, one pool per job, and one pool per stage. The zero value is the null
// pool.
type PoolKey struct {
	kind  poolKind
	job   JobID
	stage StageID
}

// NullPool returns the key of the null pool.
func NullPool() PoolKey { return PoolKey{} }

// GeneralPool returns the key of the general pool.
func GeneralPool() PoolKey { return PoolKey{kind: poolGeneral} }

// JobPool returns the key of job j's pool.
func JobPool(j JobID) PoolKey { return PoolKey{kind: poolJob, job: j} }

// OpPool returns the key of the stage pool for k.
func OpPool(k StageKey) PoolKey { return PoolKey{kind: poolOp, job: k.Job, stage: k.Stage} }

// IsNull reports whether k is the null pool.
func (k PoolKey) IsNull() bool { return k.kind == poolNull }

// IsGeneral reports whether k is the general pool.
func (k PoolKey) IsGeneral() bool { return k.kind == poolGeneral }

// IsJob reports whether k is a job pool.
func (k PoolKey) IsJob() bool { return k.kind == poolJob }

// IsOp reports whether k is a stage pool.
func (k PoolKey) IsOp() bool { return k.kind == poolOp }

// Job returns the job the pool belongs to, if any.
func (k PoolKey) Job() (JobID, bool) {
	if k.kind == poolJob || k.kind == poolOp {
		return k.job, true
	}
	return NoJob, false
}

// Op returns the stage the pool belongs to, valid only for stage pools.
func (k PoolKey) Op() (StageKey, bool) {
	if k.kind != poolOp {
		return StageKey{}, false
	}
	return StageKey{Job: k.job, Stage: k.stage}, true
}

func (k PoolKey) String() string {
	switch k.kind {
	case poolNull:
		return "null"
	case poolGeneral:
		return "general"
	case poolJob:
		return fmt.Sprintf("job %d", k.job)
	default:
		return fmt.Sprintf("op %d/%d", k.job, k.stage)
	}
}

// sameJob reports whether both pools belong to the same job. The general and
// null pools belong to no job.
func (k PoolKey) sameJob(o PoolKey) bool {
	kj, kok := k.Job()
	oj, ook := o.Job()
	return kok && ook && kj == oj
}
