// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	dagsim "github.com/bearbattle/dag-scheduling-sim"
)

func TestTimelineOrdersByTime(t *testing.T) {
	chk := require.New(t)
	var tl dagsim.Timeline

	jobs := make([]*dagsim.Job, 4)
	for i := range jobs {
		jobs[i] = &dagsim.Job{}
	}
	tl.Push(30, dagsim.JobArrival{Job: jobs[0]})
	tl.Push(10, dagsim.JobArrival{Job: jobs[1]})
	tl.Push(20, dagsim.JobArrival{Job: jobs[2]})
	tl.Push(5, dagsim.JobArrival{Job: jobs[3]})
	chk.Equal(4, tl.Len())
	chk.False(tl.Empty())

	want := []struct {
		at  dagsim.Time
		job *dagsim.Job
	}{
		{5, jobs[3]},
		{10, jobs[1]},
		{20, jobs[2]},
		{30, jobs[0]},
	}
	for _, w := range want {
		at, ev, err := tl.Pop()
		chk.NoError(err)
		chk.Equal(w.at, at)
		chk.Same(w.job, ev.(dagsim.JobArrival).Job)
	}
	chk.True(tl.Empty())

	_, _, err := tl.Pop()
	chk.ErrorIs(err, dagsim.ErrEmptyTimeline)
}

func TestTimelineBreaksTiesByInsertionOrder(t *testing.T) {
	chk := require.New(t)
	var tl dagsim.Timeline

	jobs := make([]*dagsim.Job, 3)
	for i := range jobs {
		jobs[i] = &dagsim.Job{}
		tl.Push(7, dagsim.JobArrival{Job: jobs[i]})
	}
	for _, want := range jobs {
		at, ev, err := tl.Pop()
		chk.NoError(err)
		chk.Equal(dagsim.Time(7), at)
		chk.Same(want, ev.(dagsim.JobArrival).Job)
	}
}

func TestTimelinePeekDoesNotRemove(t *testing.T) {
	chk := require.New(t)
	var tl dagsim.Timeline

	_, _, ok := tl.Peek()
	chk.False(ok)
	_, _, err := tl.Pop()
	chk.Error(err)

	job := &dagsim.Job{}
	tl.Push(3, dagsim.JobArrival{Job: job})
	at, ev, ok := tl.Peek()
	chk.True(ok)
	chk.Equal(dagsim.Time(3), at)
	chk.Same(job, ev.(dagsim.JobArrival).Job)
	chk.Equal(1, tl.Len())

	at, ev, err = tl.Pop()
	chk.NoError(err)
	chk.Equal(dagsim.Time(3), at)
	chk.Same(job, ev.(dagsim.JobArrival).Job)
}

func TestTimelineReset(t *testing.T) {
	chk := require.New(t)
	var tl dagsim.Timeline
	tl.Push(1, dagsim.JobArrival{})
	tl.Push(2, dagsim.JobArrival{})
	tl.Reset()
	chk.True(tl.Empty())
	chk.Equal(0, tl.Len())
	_, _, err := tl.Pop()
	chk.Error(err)
}

func TestTimelinePopsNondecreasing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chk := require.New(t)
		var tl dagsim.Timeline
		n := rapid.IntRange(1, 100).Draw(t, "n")
		for i := 0; i < n; i++ {
			tl.Push(dagsim.Time(rapid.Float64Range(0, 1e6).Draw(t, "t")), dagsim.JobArrival{})
		}
		prev := dagsim.Time(-1)
		for !tl.Empty() {
			at, _, err := tl.Pop()
			chk.NoError(err)
			chk.GreaterOrEqual(at, prev)
			prev = at
		}
	})
}
