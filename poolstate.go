// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim

import (
	"fmt"
	"slices"

	"github.com/gammazero/deque"
)

type commitmentEdge struct {
	dst   PoolKey
	count int
}

// commitmentQueue holds one pool's outgoing commitments in insertion order.
// Destinations fully drained are removed from the index immediately and
// lazily popped from the order queue; a destination committed to again after
// draining re-enters at the back, as a fresh registration.
type commitmentQueue struct {
	order deque.Deque[*commitmentEdge]
	index map[PoolKey]*commitmentEdge
	total int
}

func newCommitmentQueue() *commitmentQueue {
	return &commitmentQueue{index: make(map[PoolKey]*commitmentEdge)}
}

func (q *commitmentQueue) add(dst PoolKey, n int) {
	if e, ok := q.index[dst]; ok {
		e.count += n
	} else {
		e := &commitmentEdge{dst: dst, count: n}
		q.index[dst] = e
		q.order.PushBack(e)
	}
	q.total += n
}

func (q *commitmentQueue) removeOne(dst PoolKey) {
	e, ok := q.index[dst]
	invariantf(ok, "no commitment toward %v to remove", dst)
	e.count--
	q.total--
	if e.count == 0 {
		delete(q.index, dst)
	}
}

func (q *commitmentQueue) peek() (PoolKey, bool) {
	for q.order.Len() > 0 {
		e := q.order.Front()
		if e.count > 0 {
			return e.dst, true
		}
		q.order.PopFront()
	}
	return PoolKey{}, false
}

// A PoolState tracks where every worker is, where workers are moving, and
// which commitments are outstanding between pools. It is pure bookkeeping:
// it never schedules anything itself, but it enforces the conservation rules
// the commitment protocol depends on, loudly, via panics.
//
// Every worker is a member of exactly one pool, except while moving between
// jobs, during which it is a member of none and is counted by its
// destination's moving counter instead.
type PoolState struct {
	numWorkers int
	source     PoolKey

	locations   map[WorkerID]PoolKey
	members     map[PoolKey]map[WorkerID]struct{}
	commitments map[PoolKey]*commitmentQueue

	committedTo map[PoolKey]int
	movingTo    map[PoolKey]int

	// committed + moving + present, per job
	jobWorkers map[JobID]int
}

func (s *PoolState) reset(numWorkers int) {
	s.numWorkers = numWorkers
	s.source = NullPool()
	s.locations = make(map[WorkerID]PoolKey, numWorkers)
	s.members = make(map[PoolKey]map[WorkerID]struct{})
	s.commitments = make(map[PoolKey]*commitmentQueue)
	s.committedTo = make(map[PoolKey]int)
	s.movingTo = make(map[PoolKey]int)
	s.jobWorkers = make(map[JobID]int)

	s.registerPool(GeneralPool())
	general := s.members[GeneralPool()]
	for i := 0; i < numWorkers; i++ {
		w := WorkerID(i)
		s.locations[w] = GeneralPool()
		general[w] = struct{}{}
	}
}

func (s *PoolState) registerPool(k PoolKey) {
	_, dup := s.members[k]
	invariantf(!dup, "pool %v registered twice", k)
	s.members[k] = make(map[WorkerID]struct{})
	s.commitments[k] = newCommitmentQueue()
}

// addJob registers the job pool and every stage pool of job j.
func (s *PoolState) addJob(j *Job) {
	s.registerPool(JobPool(j.ID()))
	s.jobWorkers[j.ID()] = 0
	for _, st := range j.stages {
		s.addOp(st.Key())
	}
}

// addOp registers one stage pool.
func (s *PoolState) addOp(k StageKey) {
	op := OpPool(k)
	s.registerPool(op)
	s.committedTo[op] = 0
	s.movingTo[op] = 0
}

func (s *PoolState) updateSource(k PoolKey) {
	if !k.IsNull() {
		_, ok := s.members[k]
		invariantf(ok, "source set to unregistered pool %v", k)
	}
	s.source = k
}

func (s *PoolState) clearSource() {
	s.source = NullPool()
}

// addCommitment promises n of the source pool's workers to the stage pool
// dst. The source pool's members must cover all its outstanding commitments;
// callers clamp n before committing.
func (s *PoolState) addCommitment(n int, dst PoolKey) {
	invariantf(n > 0, "commitment of %d workers", n)
	invariantf(dst.IsOp(), "commitment toward non-stage pool %v", dst)
	src := s.source
	invariantf(!src.IsNull(), "commitment from the null pool")

	q := s.commitments[src]
	q.add(dst, n)
	s.committedTo[dst] += n
	supply := len(s.members[src])
	invariantf(q.total <= supply, "pool %v oversubscribed: %d commitments, %d members", src, q.total, supply)

	if !src.sameJob(dst) {
		dj, _ := dst.Job()
		s.jobWorkers[dj] += n
	}
}

// removeCommitment cancels one unit of the commitment from worker w's pool
// toward dst and returns that pool.
func (s *PoolState) removeCommitment(w WorkerID, dst PoolKey) PoolKey {
	src, ok := s.locations[w]
	invariantf(ok, "worker %d is in no pool", w)
	s.cancelCommitment(src, dst)
	return src
}

// cancelCommitment drops one unit of the commitment from src toward dst
// without dispatching a worker.
func (s *PoolState) cancelCommitment(src, dst PoolKey) {
	s.commitments[src].removeOne(dst)
	s.committedTo[dst]--
	invariantf(s.committedTo[dst] >= 0, "negative inbound commitments at %v", dst)
	if !src.sameJob(dst) {
		dj, _ := dst.Job()
		s.jobWorkers[dj]--
		invariantf(s.jobWorkers[dj] >= 0, "negative worker count for job %d", dj)
	}
}

// peekCommitment returns the first outstanding destination committed to from
// pool k, in insertion order.
func (s *PoolState) peekCommitment(k PoolKey) (PoolKey, bool) {
	q := s.commitments[k]
	if q == nil {
		return PoolKey{}, false
	}
	return q.peek()
}

// fulfillCommitment consumes one unit of the commitment from w's pool toward
// dst and dispatches w. With move false, w relocates into dst immediately;
// the pools must belong to the same job. With move true, w leaves its pool
// and is counted as moving toward dst until its arrival event fires.
func (s *PoolState) fulfillCommitment(w WorkerID, dst PoolKey, move bool) {
	src, ok := s.locations[w]
	invariantf(ok, "worker %d is in no pool", w)
	s.commitments[src].removeOne(dst)
	s.committedTo[dst]--
	invariantf(s.committedTo[dst] >= 0, "negative inbound commitments at %v", dst)

	if move {
		invariantf(!src.sameJob(dst), "move-fulfillment within one job: %v to %v", src, dst)
		s.removeResident(w, src)
		s.movingTo[dst]++
		// dst's job was counted when the commitment was added and stays
		// counted through the moving counter; the source job, if any,
		// loses the worker now.
		if sj, hasJob := src.Job(); hasJob {
			s.jobWorkers[sj]--
			invariantf(s.jobWorkers[sj] >= 0, "negative worker count for job %d", sj)
		}
	} else {
		invariantf(src.sameJob(dst), "local fulfillment across jobs: %v to %v", src, dst)
		s.removeResident(w, src)
		s.placeResident(w, dst)
	}
}

// countWorkerArrival retires one unit of dst's moving counter when a worker
// arrival event is processed. The caller places the worker in its next pool
// immediately afterwards, restoring the per-job count.
func (s *PoolState) countWorkerArrival(dst PoolKey) {
	invariantf(dst.IsOp(), "arrival at non-stage pool %v", dst)
	s.movingTo[dst]--
	invariantf(s.movingTo[dst] >= 0, "negative moving counter at %v", dst)
	dj, _ := dst.Job()
	s.jobWorkers[dj]--
	invariantf(s.jobWorkers[dj] >= 0, "negative worker count for job %d", dj)
}

// moveToPool relocates worker w without consuming any commitment. With send
// false, w becomes a member of dst immediately. With send true, dst must be a
// stage pool of another job and w is counted as moving toward it.
func (s *PoolState) moveToPool(w WorkerID, dst PoolKey, send bool) {
	invariantf(!dst.IsNull(), "workers may not enter the null pool")
	old, resident := s.locations[w]
	oldJob, hadOld := NoJob, false
	if resident {
		oldJob, hadOld = old.Job()
		s.removeResident(w, old)
	}

	if send {
		invariantf(dst.IsOp(), "send toward non-stage pool %v", dst)
		invariantf(!resident || !old.sameJob(dst), "send within one job: %v to %v", old, dst)
		dj, _ := dst.Job()
		s.movingTo[dst]++
		s.jobWorkers[dj]++
		if hadOld {
			s.jobWorkers[oldJob]--
			invariantf(s.jobWorkers[oldJob] >= 0, "negative worker count for job %d", oldJob)
		}
		return
	}

	s.placeResident(w, dst)
	newJob, hasNew := dst.Job()
	if hadOld && (!hasNew || newJob != oldJob) {
		s.jobWorkers[oldJob]--
		invariantf(s.jobWorkers[oldJob] >= 0, "negative worker count for job %d", oldJob)
	}
	if hasNew && (!hadOld || newJob != oldJob) {
		s.jobWorkers[newJob]++
	}
}

func (s *PoolState) removeResident(w WorkerID, p PoolKey) {
	set := s.members[p]
	_, ok := set[w]
	invariantf(ok, "worker %d is not a member of %v", w, p)
	delete(set, w)
	delete(s.locations, w)
}

func (s *PoolState) placeResident(w WorkerID, p PoolKey) {
	set, ok := s.members[p]
	invariantf(ok, "placement into unregistered pool %v", p)
	set[w] = struct{}{}
	s.locations[w] = p
}

// NumWorkers returns the roster size.
func (s *PoolState) NumWorkers() int { return s.numWorkers }

// Source returns the pool whose workers the current commitment round is
// distributing, or the null pool when no round is open.
func (s *PoolState) Source() PoolKey { return s.source }

// SourceJob returns the job the source pool belongs to, if any.
func (s *PoolState) SourceJob() (JobID, bool) { return s.source.Job() }

// NumMembers returns the number of workers resident in pool k.
func (s *PoolState) NumMembers(k PoolKey) int { return len(s.members[k]) }

// Members returns the workers resident in pool k in ascending ID order.
func (s *PoolState) Members(k PoolKey) []WorkerID {
	out := make([]WorkerID, 0, len(s.members[k]))
	for w := range s.members[k] {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}

// Location returns the pool worker w is resident in. The second return is
// false while w is moving between jobs.
func (s *PoolState) Location(w WorkerID) (PoolKey, bool) {
	k, ok := s.locations[w]
	return k, ok
}

// CommittedFrom returns the number of outstanding commitments out of pool k.
func (s *PoolState) CommittedFrom(k PoolKey) int {
	q := s.commitments[k]
	if q == nil {
		return 0
	}
	return q.total
}

// CommittedTo returns the number of outstanding commitments toward stage k.
func (s *PoolState) CommittedTo(k StageKey) int { return s.committedTo[OpPool(k)] }

// MovingTo returns the number of workers in flight toward stage k.
func (s *PoolState) MovingTo(k StageKey) int { return s.movingTo[OpPool(k)] }

// TotalJobWorkers returns the number of workers bound up in job j: resident
// in its pools, moving toward its stages, or committed to them from other
// jobs' pools and the general pool.
func (s *PoolState) TotalJobWorkers(j JobID) int { return s.jobWorkers[j] }

// UncommittedAtSource returns how many source-pool workers have no
// commitment yet. It is zero when no round is open.
func (s *PoolState) UncommittedAtSource() int {
	if s.source.IsNull() {
		return 0
	}
	n := len(s.members[s.source]) - s.commitments[s.source].total
	invariantf(n >= 0, "pool %v oversubscribed", s.source)
	return n
}

// AllSourceCommitted reports whether every source-pool worker has a
// commitment.
func (s *PoolState) AllSourceCommitted() bool { return s.UncommittedAtSource() == 0 }

// GeneralPoolHasWorkers reports whether any worker is attached to no job.
func (s *PoolState) GeneralPoolHasWorkers() bool { return len(s.members[GeneralPool()]) > 0 }

// check audits every Conservation rule the state is supposed to maintain and
// returns the first violation found.
func (s *PoolState) check() error {
	resident := 0
	for k, set := range s.members {
		if k.IsNull() {
			return fmt.Errorf("null pool registered")
		}
		resident += len(set)
		for w := range set {
			if loc, ok := s.locations[w]; !ok || loc != k {
				return fmt.Errorf("worker %d in pool %v but located at %v", w, k, loc)
			}
		}
	}
	if resident != len(s.locations) {
		return fmt.Errorf("membership count %d != location count %d", resident, len(s.locations))
	}
	moving := 0
	for k, n := range s.movingTo {
		if n < 0 {
			return fmt.Errorf("negative moving counter at %v", k)
		}
		moving += n
	}
	if resident+moving != s.numWorkers {
		return fmt.Errorf("%d resident + %d moving != %d workers", resident, moving, s.numWorkers)
	}

	inbound := make(map[PoolKey]int)
	externalCommitted := make(map[JobID]int)
	for src, q := range s.commitments {
		total := 0
		for dst, e := range q.index {
			if e.count <= 0 {
				return fmt.Errorf("empty commitment edge %v to %v retained", src, dst)
			}
			total += e.count
			inbound[dst] += e.count
			if !src.sameJob(dst) {
				dj, _ := dst.Job()
				externalCommitted[dj] += e.count
			}
		}
		if total != q.total {
			return fmt.Errorf("pool %v commitment total %d != edge sum %d", src, q.total, total)
		}
		if total > len(s.members[src]) {
			return fmt.Errorf("pool %v oversubscribed: %d commitments, %d members", src, total, len(s.members[src]))
		}
	}
	for k, n := range s.committedTo {
		if n != inbound[k] {
			return fmt.Errorf("pool %v inbound commitments %d != edge sum %d", k, n, inbound[k])
		}
	}

	present := make(map[JobID]int)
	for k, set := range s.members {
		if j, ok := k.Job(); ok {
			present[j] += len(set)
		}
	}
	movingPerJob := make(map[JobID]int)
	for k, n := range s.movingTo {
		j, _ := k.Job()
		movingPerJob[j] += n
	}
	for j, n := range s.jobWorkers {
		want := present[j] + movingPerJob[j] + externalCommitted[j]
		if n != want {
			return fmt.Errorf("job %d worker count %d != %d present + %d moving + %d committed",
				j, n, present[j], movingPerJob[j], externalCommitted[j])
		}
	}
	return nil
}
