// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

// Package dagsim simulates the execution of DAG-structured jobs on a shared
// pool of interchangeable workers over continuous virtual time. It exists so
// that an external scheduling policy, learned or hand-written, can be
// evaluated against realistic timing dynamics: jobs arrive over time, each
// job's dependency graph unlocks stages as their parents finish, and workers
// move between jobs at a cost.
//
// The engine is deliberately not a scheduler. It never decides which worker
// should serve which stage; it only enforces that requested assignments are
// legal, advances virtual time through a deterministic event timeline, and
// reports the resulting observations and rewards. Decisions are requested
// from the caller through commitment rounds: whenever a pool of workers has
// uncommitted members and schedulable stages exist, [Env.Step] hands control
// to the caller one (stage, worker count) commitment at a time until every
// worker at the source pool has a destination or no further stage may be
// selected. Only then are workers physically dispatched and the timeline
// drained to the next decision point.
//
// An [Env] is single-threaded and fully synchronous: Reset and Step block
// until the engine either needs another decision or the episode ends. Time is
// a logical counter driven by the event timeline, so identical inputs and
// identical action sequences replay identically. Many environments may run
// concurrently as long as each is confined to one goroutine; they share no
// state.
//
// The reward accumulated between decisions is the negated time-weighted
// number of active jobs, scaled by a configurable constant. By Little's law,
// minimizing its cumulative value is equivalent to minimizing the mean job
// completion time.
package dagsim
