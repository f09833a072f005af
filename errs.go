// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim

import "fmt"

type constError string

func (e constError) Error() string {
	return string(e)
}

// ErrInvalidAction reports a [Env.Step] call whose action names a job or
// stage that is not a legal commitment target for the currently open round.
// The episode state is unchanged and the caller may retry with a different
// action.
const ErrInvalidAction = constError("invalid action")

// ErrEpisodeDone reports a [Env.Step] call after the episode already ended.
const ErrEpisodeDone = constError("episode is done")

// ErrInvalidWorkload reports a [Env.Reset] call whose job arrivals or worker
// roster fail validation.
const ErrInvalidWorkload = constError("invalid workload")

// ErrEmptyTimeline reports a [Timeline.Pop] call with no pending events.
const ErrEmptyTimeline = constError("timeline is empty")

const errStageExhausted = constError("stage has no unassigned tasks")

// invariantf aborts the simulation when engine-internal bookkeeping is
// inconsistent. Such a panic always indicates a bug in the engine itself,
// never bad caller input, which is reported through error returns instead.
func invariantf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("dagsim: invariant violated: "+format, args...))
	}
}
