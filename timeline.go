// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim

import (
	"cmp"

	"github.com/addrummond/heap"
)

type timelineEntry struct {
	time Time
	seq  uint64
	ev   Event
}

// Cmp orders entries by time, breaking ties by insertion sequence so that
// simultaneous events are processed in the order they were scheduled.
func (a *timelineEntry) Cmp(b *timelineEntry) int {
	if c := cmp.Compare(a.time, b.time); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

// A Timeline is a time-ordered queue of pending simulation events. The zero
// value is an empty timeline ready for use.
//
// Entries at equal times pop in insertion order, so a Timeline is totally
// deterministic: the same pushes always yield the same pops.
type Timeline struct {
	entries heap.Heap[timelineEntry, heap.Min]
	size    int
	nextSeq uint64
}

// Push schedules ev at time t.
func (tl *Timeline) Push(t Time, ev Event) {
	heap.PushOrderable(&tl.entries, timelineEntry{time: t, seq: tl.nextSeq, ev: ev})
	tl.nextSeq++
	tl.size++
}

// Pop removes and returns the earliest pending event. It returns
// [ErrEmptyTimeline] if the timeline is empty.
func (tl *Timeline) Pop() (Time, Event, error) {
	e, ok := heap.PopOrderable(&tl.entries)
	if !ok {
		return 0, nil, ErrEmptyTimeline
	}
	tl.size--
	return e.time, e.ev, nil
}

// Peek returns the earliest pending event without removing it. The third
// return value reports whether an event was available.
func (tl *Timeline) Peek() (Time, Event, bool) {
	e, ok := heap.Peek(&tl.entries)
	if !ok {
		return 0, nil, false
	}
	return e.time, e.ev, true
}

// Len returns the number of pending events.
func (tl *Timeline) Len() int {
	return tl.size
}

// Empty reports whether no events are pending.
func (tl *Timeline) Empty() bool {
	return tl.size == 0
}

// Reset discards all pending events.
func (tl *Timeline) Reset() {
	*tl = Timeline{}
}
