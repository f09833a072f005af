// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim

import (
	"fmt"
	"math/rand"
	"slices"

	"go.uber.org/zap"
)

// DefaultMovingCost is the virtual-time delay a worker pays to move between
// jobs.
const DefaultMovingCost = Time(2000)

// DefaultRewardScale converts time-weighted active-job counts into rewards.
const DefaultRewardScale = 1e-5

// An Action commits NumWorkers of the current source pool's workers to the
// target stage. Requests exceeding the stage's demand or the source's
// uncommitted supply are clamped; a request that clamps to zero is invalid.
type Action struct {
	Target     StageKey
	NumWorkers int
}

// Config parameterizes an [Env]. The zero value selects the documented
// defaults.
type Config struct {
	// MovingCost is the delay a worker pays to move between jobs.
	// Defaults to DefaultMovingCost.
	MovingCost Time

	// MovingCostFn, if set, samples the moving delay per dispatch instead
	// of using the fixed MovingCost.
	MovingCostFn func(rng *rand.Rand) Time

	// RewardScale scales the negated time-weighted active-job count.
	// Defaults to DefaultRewardScale.
	RewardScale float64

	// TimeLimit truncates the episode when the next event would fire past
	// it. Zero means no limit.
	TimeLimit Time

	// Seed drives the engine's own randomness (moving cost sampling). The
	// generator is reseeded on every Reset, so identical inputs and
	// actions replay identically. Duration samplers carry their own
	// seeds.
	Seed int64

	// Durations decides task durations. Defaults to
	// ExpectedDurationSampler.
	Durations DurationSampler

	// Logger receives engine debug output. Defaults to a no-op logger.
	Logger *zap.Logger
}

// An Env is one simulation instance. It is not safe for concurrent use;
// confine each Env to a single goroutine.
//
// The lifecycle is the conventional reset/step loop:
//
//	obs, err := env.Reset(arrivals, roster)
//	for {
//		obs, reward, done, err = env.Step(policy.Act(obs))
//		if done {
//			break
//		}
//	}
//
// Step never returns control mid-round: it either reports that the open
// commitment round still needs selections, or closes the round, dispatches
// workers, drains the timeline to the next decision point, and reports the
// reward accumulated in between.
type Env struct {
	movingCost   Time
	movingCostFn func(rng *rand.Rand) Time
	rewardScale  float64
	timeLimit    Time
	seed         int64
	sampler      DurationSampler
	log          *zap.Logger
	rng          *rand.Rand

	timeline Timeline
	pool     PoolState
	workers  []*Worker

	jobs          map[JobID]*Job
	activeJobs    []JobID
	completedJobs []JobID

	schedulable map[StageKey]*Stage
	selected    map[StageKey]struct{}

	wallTime  Time
	done      bool
	truncated bool
}

// NewEnv returns an Env with the given configuration. Call [Env.Reset] to
// start the first episode. NewEnv panics on nonsensical configuration
// (negative costs, scales, or limits).
func NewEnv(cfg Config) *Env {
	if cfg.MovingCost < 0 {
		panic("moving cost may not be negative")
	}
	if cfg.RewardScale < 0 {
		panic("reward scale may not be negative")
	}
	if cfg.TimeLimit < 0 {
		panic("time limit may not be negative")
	}
	e := &Env{
		movingCost:   cfg.MovingCost,
		movingCostFn: cfg.MovingCostFn,
		rewardScale:  cfg.RewardScale,
		timeLimit:    cfg.TimeLimit,
		seed:         cfg.Seed,
		sampler:      cfg.Durations,
		log:          cfg.Logger,
		rng:          rand.New(rand.NewSource(cfg.Seed)),
		done:         true,
	}
	if e.movingCost == 0 {
		e.movingCost = DefaultMovingCost
	}
	if e.rewardScale == 0 {
		e.rewardScale = DefaultRewardScale
	}
	if e.sampler == nil {
		e.sampler = ExpectedDurationSampler{}
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// Reset starts a new episode with the given job arrival schedule and worker
// roster, discarding any previous episode. It processes the timeline up to
// the first decision point and returns the initial observation.
//
// The returned observation has an open commitment round unless the workload
// is empty or the first event already violates the time limit.
func (e *Env) Reset(arrivals []Arrival, roster []WorkerSpec) (*Observation, error) {
	if len(roster) == 0 {
		return nil, fmt.Errorf("%w: empty worker roster", ErrInvalidWorkload)
	}
	numTypes := 1
	for i, ws := range roster {
		if ws.Type < 0 {
			return nil, fmt.Errorf("%w: worker %d has negative type", ErrInvalidWorkload, i)
		}
		if int(ws.Type)+1 > numTypes {
			numTypes = int(ws.Type) + 1
		}
	}
	types := make(typeSet, numTypes)
	for _, ws := range roster {
		types[ws.Type] = true
	}
	jobs := make([]*Job, len(arrivals))
	for i, a := range arrivals {
		if a.Time < 0 {
			return nil, fmt.Errorf("%w: job %d arrives at negative time", ErrInvalidWorkload, i)
		}
		job, err := buildJob(JobID(i), a.Time, a.Job, types)
		if err != nil {
			return nil, err
		}
		jobs[i] = job
	}

	e.timeline.Reset()
	e.pool.reset(len(roster))
	e.workers = make([]*Worker, len(roster))
	for i, ws := range roster {
		e.workers[i] = newWorker(WorkerID(i), ws.Type)
	}
	e.jobs = make(map[JobID]*Job, len(jobs))
	e.activeJobs = nil
	e.completedJobs = nil
	e.schedulable = make(map[StageKey]*Stage)
	e.selected = make(map[StageKey]struct{})
	e.wallTime = 0
	e.done = false
	e.truncated = false
	e.rng = rand.New(rand.NewSource(e.seed))

	for _, job := range jobs {
		e.timeline.Push(job.ArrivalTime(), JobArrival{Job: job})
	}
	// Jobs arriving at time zero are all part of the initial system state;
	// process them together so the first round sees every one of them.
	for {
		t, _, ok := e.timeline.Peek()
		if !ok || t != 0 {
			break
		}
		_, ev, err := e.timeline.Pop()
		invariantf(err == nil, "pop after successful peek: %v", err)
		e.dispatch(ev)
	}
	e.drainTimeline()
	if !e.shouldOpenRound() {
		e.done = true
	}
	e.log.Info("episode reset",
		zap.Int("jobs", len(arrivals)),
		zap.Int("workers", len(roster)))
	return e.observe(), nil
}

// Step applies one commitment. If the action leaves source workers
// uncommitted and selectable stages remaining, it returns immediately with a
// zero reward and the round stays open. Otherwise the round closes: every
// commitment is matched to an idle source worker or deferred, leftover idle
// workers are parked, and the timeline drains until a new round can open or
// the episode ends.
//
// Step reports malformed actions via an error wrapping [ErrInvalidAction]
// without disturbing the episode, and [ErrEpisodeDone] once the episode is
// over.
func (e *Env) Step(a Action) (*Observation, float64, bool, error) {
	if e.done {
		return nil, 0, true, ErrEpisodeDone
	}
	invariantf(e.shouldOpenRound(), "step with no open commitment round")

	st, n, err := e.clampAction(a)
	if err != nil {
		return e.observe(), 0, false, err
	}
	e.log.Debug("commit",
		zap.Stringer("source", e.pool.Source()),
		zap.Stringer("stage", st.Key()),
		zap.Int("requested", a.NumWorkers),
		zap.Int("granted", n))
	e.pool.addCommitment(n, OpPool(st.Key()))
	if e.workerDemand(st) <= 0 {
		e.saturateStage(st)
	}
	e.selected[st.Key()] = struct{}{}

	if !e.roundComplete() {
		return e.observe(), 0, false, nil
	}

	clear(e.selected)
	e.fulfillSourceCommitments()
	e.pool.clearSource()

	prevTime := e.wallTime
	prevCompleted := len(e.completedJobs)
	e.drainTimeline()
	e.rescueStranded()
	reward := e.rewardSince(prevTime, prevCompleted)

	e.done = e.truncated || (e.timeline.Empty() && !e.shouldOpenRound())
	if e.done && !e.truncated {
		invariantf(len(e.schedulable) == 0, "episode done with %d schedulable stages", len(e.schedulable))
		invariantf(len(e.activeJobs) == 0, "episode done with %d active jobs", len(e.activeJobs))
	}
	return e.observe(), reward, e.done, nil
}

// clampAction validates the action against the open round and clamps its
// worker count to the target's demand and the source's uncommitted supply.
func (e *Env) clampAction(a Action) (*Stage, int, error) {
	job, ok := e.jobs[a.Target.Job]
	if !ok || job.Completed() {
		return nil, 0, fmt.Errorf("%w: no active job %d", ErrInvalidAction, a.Target.Job)
	}
	if int(a.Target.Stage) < 0 || int(a.Target.Stage) >= job.NumStages() {
		return nil, 0, fmt.Errorf("%w: job %d has no stage %d", ErrInvalidAction, a.Target.Job, a.Target.Stage)
	}
	st, isSched := e.schedulable[a.Target]
	if !isSched {
		return nil, 0, fmt.Errorf("%w: stage %v is not schedulable", ErrInvalidAction, a.Target)
	}
	if _, sel := e.selected[a.Target]; sel {
		return nil, 0, fmt.Errorf("%w: stage %v already selected this round", ErrInvalidAction, a.Target)
	}
	n := min(a.NumWorkers, e.workerDemand(st), e.pool.UncommittedAtSource())
	if n <= 0 {
		return nil, 0, fmt.Errorf("%w: no workers granted toward stage %v", ErrInvalidAction, a.Target)
	}
	return st, n, nil
}

// roundComplete reports whether the open round can absorb no further action:
// every source worker is committed or no selectable stage remains.
func (e *Env) roundComplete() bool {
	if e.pool.AllSourceCommitted() {
		return true
	}
	for key := range e.schedulable {
		if _, sel := e.selected[key]; !sel {
			return false
		}
	}
	return true
}

// shouldOpenRound reports whether a commitment round is worth opening: the
// source pool has uncommitted workers and somewhere a stage can take them.
func (e *Env) shouldOpenRound() bool {
	return e.pool.UncommittedAtSource() > 0 && len(e.schedulable) > 0
}

// workerDemand returns how many more workers the stage can absorb, beyond
// those executing, moving toward it, and committed to it.
func (e *Env) workerDemand(st *Stage) int {
	key := st.Key()
	return st.RemainingTasks() - e.pool.MovingTo(key) - e.pool.CommittedTo(key)
}

func (e *Env) stageByKey(key StageKey) *Stage {
	job, ok := e.jobs[key.Job]
	invariantf(ok, "no job %d", key.Job)
	return job.Stage(key.Stage)
}

// drainTimeline processes events until a commitment round can open, the
// timeline empties, or the next event would cross the time limit.
func (e *Env) drainTimeline() {
	for !e.shouldOpenRound() {
		t, _, ok := e.timeline.Peek()
		if !ok {
			return
		}
		if e.timeLimit > 0 && t > e.timeLimit {
			e.wallTime = e.timeLimit
			e.truncated = true
			return
		}
		_, ev, err := e.timeline.Pop()
		invariantf(err == nil, "pop after successful peek: %v", err)
		e.wallTime = t
		e.dispatch(ev)
	}
}

func (e *Env) dispatch(ev Event) {
	switch v := ev.(type) {
	case JobArrival:
		e.processJobArrival(v.Job)
	case WorkerArrival:
		e.processWorkerArrival(v.Worker, v.Stage)
	case TaskCompletion:
		e.processTaskCompletion(v.Stage, v.Task)
	default:
		invariantf(false, "unknown event type %T", ev)
	}
}

func (e *Env) processJobArrival(job *Job) {
	_, dup := e.jobs[job.ID()]
	invariantf(!dup, "job %d arrived twice", job.ID())
	e.jobs[job.ID()] = job
	e.activeJobs = append(e.activeJobs, job.ID())
	e.pool.addJob(job)
	for _, st := range job.initSchedulable() {
		e.schedulable[st.Key()] = st
	}
	if e.pool.GeneralPoolHasWorkers() {
		e.pool.updateSource(GeneralPool())
	}
	e.log.Debug("job arrived",
		zap.Int32("job", int32(job.ID())),
		zap.String("name", job.Name()),
		zap.Int("stages", job.NumStages()),
		zap.Float64("t", float64(e.wallTime)))
}

// processWorkerArrival reconciles a worker reaching the stage it was
// dispatched to. The stage may have saturated, completed, or stalled behind
// an incomplete dependency while the worker was in flight.
func (e *Env) processWorkerArrival(w *Worker, st *Stage) {
	key := st.Key()
	job := e.jobs[key.Job]
	e.pool.countWorkerArrival(OpPool(key))
	e.log.Debug("worker arrived",
		zap.Int32("worker", int32(w.ID())),
		zap.Stringer("stage", key),
		zap.Float64("t", float64(e.wallTime)))

	switch {
	case job.Completed():
		// The job finished while the worker was in flight. It arrives
		// attached to nothing and is recycled immediately.
		e.tryBackupSchedule(w, nil)
	case st.RemainingTasks() == 0:
		job.addLocalWorker(w)
		w.attach(job.ID())
		e.tryBackupSchedule(w, nil)
	case !job.inRunFrontier(st):
		// Committed ahead of time and a dependency has not completed
		// yet. Wait at the job pool; the commitment this arrival
		// consumed may have freed demand at the stage.
		job.addLocalWorker(w)
		w.attach(job.ID())
		e.pool.moveToPool(w.ID(), JobPool(job.ID()), false)
		w.park()
		e.reopenSchedulable(st)
	default:
		job.addLocalWorker(w)
		w.attach(job.ID())
		e.pool.moveToPool(w.ID(), OpPool(key), false)
		e.workOnStage(w, st)
	}
}

func (e *Env) processTaskCompletion(st *Stage, task *Task) {
	key := st.Key()
	w := e.workers[task.Worker()]
	job := e.jobs[key.Job]
	st.complete(task, e.wallTime)
	w.finishTask()
	e.log.Debug("task completed",
		zap.Stringer("stage", key),
		zap.Int("task", task.Index()),
		zap.Int32("worker", int32(w.ID())),
		zap.Float64("t", float64(e.wallTime)))

	if st.RemainingTasks() > 0 {
		// Keep the worker on the stage it already serves.
		e.workOnStage(w, st)
		return
	}

	frontierChanged := false
	if st.Completed() {
		_, isSched := e.schedulable[key]
		invariantf(!isSched, "completed stage %v still schedulable", key)
		frontierChanged = job.recordStageCompletion(st)
		e.log.Debug("stage completed", zap.Stringer("stage", key))
	}
	if job.Completed() {
		e.processJobCompletion(job)
		return
	}

	hadCommitment := e.routeFreedWorker(w, st)
	if frontierChanged {
		e.pool.updateSource(JobPool(job.ID()))
	} else if !hadCommitment {
		e.pool.updateSource(OpPool(key))
	}
}

// routeFreedWorker resolves a worker that just went idle at st's pool: it
// honors the pool's first outstanding commitment if there is one, falling
// back to backup scheduling when that commitment went stale in the meantime.
// With no commitment the worker simply stays, and the pool becomes the next
// decision source.
func (e *Env) routeFreedWorker(w *Worker, st *Stage) bool {
	dst, ok := e.pool.peekCommitment(OpPool(st.Key()))
	if !ok {
		return false
	}
	target, isOp := dst.Op()
	invariantf(isOp, "commitment toward non-stage pool %v", dst)
	tst := e.stageByKey(target)
	if tst.RemainingTasks() > 0 && tst.Compatible(w.Type()) {
		e.fulfillCommitment(w, tst)
	} else {
		e.tryBackupSchedule(w, &target)
	}
	return true
}

func (e *Env) processJobCompletion(job *Job) {
	job.setCompleted(e.wallTime)
	i := slices.Index(e.activeJobs, job.ID())
	invariantf(i >= 0, "completed job %d was not active", job.ID())
	e.activeJobs = slices.Delete(e.activeJobs, i, i+1)
	e.completedJobs = append(e.completedJobs, job.ID())

	// Return every worker still at the job to the general pool. In-flight
	// workers keep their arrival events and are recycled on arrival.
	pools := make([]PoolKey, 0, job.NumStages()+1)
	pools = append(pools, JobPool(job.ID()))
	for _, st := range job.stages {
		pools = append(pools, OpPool(st.Key()))
	}
	for _, p := range pools {
		invariantf(e.pool.CommittedFrom(p) == 0, "completed job %d pool %v holds commitments", job.ID(), p)
		for _, wid := range e.pool.Members(p) {
			w := e.workers[wid]
			invariantf(w.Available(), "busy worker %d at completed job %d", wid, job.ID())
			e.pool.moveToPool(wid, GeneralPool(), false)
			job.removeLocalWorker(w)
			w.depart()
		}
	}
	invariantf(job.NumLocalWorkers() == 0, "job %d retained %d local workers after completion",
		job.ID(), job.NumLocalWorkers())

	if e.pool.GeneralPoolHasWorkers() {
		e.pool.updateSource(GeneralPool())
	}
	e.log.Info("job completed",
		zap.Int32("job", int32(job.ID())),
		zap.String("name", job.Name()),
		zap.Float64("arrival", float64(job.ArrivalTime())),
		zap.Float64("completion", float64(job.CompletionTime())))
}

// saturateStage retires st from the schedulable set once its demand is
// covered and grants whichever children that unlocks.
func (e *Env) saturateStage(st *Stage) {
	key := st.Key()
	_, ok := e.schedulable[key]
	invariantf(ok, "saturating non-schedulable stage %v", key)
	invariantf(e.workerDemand(st) <= 0, "saturating stage %v with demand %d", key, e.workerDemand(st))
	delete(e.schedulable, key)
	job := e.jobs[key.Job]
	job.setStageSaturated(st, true)
	for _, next := range job.schedulableGrowth(st) {
		e.schedulable[next.Key()] = next
		e.log.Debug("stage unlocked", zap.Stringer("stage", next.Key()))
	}
}

// reopenSchedulable re-admits st after a canceled commitment or an arrival
// that was parked instead of assigned left it with demand again.
func (e *Env) reopenSchedulable(st *Stage) {
	key := st.Key()
	if e.workerDemand(st) <= 0 {
		return
	}
	if _, ok := e.schedulable[key]; ok {
		return
	}
	job := e.jobs[key.Job]
	job.setStageSaturated(st, false)
	e.schedulable[key] = st
	e.log.Debug("stage reopened", zap.Stringer("stage", key))
}

// fulfillSourceCommitments closes a round: commitments are honored in
// insertion order, each unit matched to the first idle source worker whose
// type can serve the destination. Units no idle worker can serve are given
// back to the stage's demand. Leftover idle workers with no commitment to
// serve are parked.
func (e *Env) fulfillSourceCommitments() {
	src := e.pool.Source()
	invariantf(!src.IsNull(), "fulfillment from the null pool")

	var free []*Worker
	for _, wid := range e.pool.Members(src) {
		w := e.workers[wid]
		if w.Available() {
			free = append(free, w)
		}
	}
	for len(free) > 0 {
		dst, ok := e.pool.peekCommitment(src)
		if !ok {
			break
		}
		target, isOp := dst.Op()
		invariantf(isOp, "commitment toward non-stage pool %v", dst)
		tst := e.stageByKey(target)

		if tst.RemainingTasks() == 0 {
			// The stage finished after the commitment was made. Spend the
			// unit on rerouting a worker instead.
			w := free[0]
			free = free[1:]
			e.tryBackupSchedule(w, &target)
			continue
		}
		w, rest := takeCompatible(free, tst)
		if w == nil {
			e.cancelUnservableCommitment(src, tst)
			continue
		}
		free = rest
		e.fulfillCommitment(w, tst)
	}
	e.parkLeftoverSourceWorkers(free, src)
}

// takeCompatible removes and returns the first worker that can serve st.
func takeCompatible(free []*Worker, st *Stage) (*Worker, []*Worker) {
	for i, w := range free {
		if st.Compatible(w.Type()) {
			return w, slices.Delete(free, i, i+1)
		}
	}
	return nil, free
}

// cancelUnservableCommitment returns one promised worker to st's demand when
// no idle source worker has a type st accepts, reopening the stage so a
// later round can commit servable supply.
func (e *Env) cancelUnservableCommitment(src PoolKey, st *Stage) {
	e.pool.cancelCommitment(src, OpPool(st.Key()))
	e.reopenSchedulable(st)
	e.log.Debug("commitment unservable",
		zap.Stringer("source", src),
		zap.Stringer("stage", st.Key()))
}

// parkLeftoverSourceWorkers settles idle source workers that no commitment
// claimed. Workers of a job that still wants them stay with the job; workers
// of a fully saturated job return to the general pool.
func (e *Env) parkLeftoverSourceWorkers(leftover []*Worker, src PoolKey) {
	if len(leftover) == 0 || src.IsGeneral() {
		return
	}
	j, ok := src.Job()
	invariantf(ok, "leftover workers at %v", src)
	job := e.jobs[j]
	if !job.Saturated() {
		if src.IsJob() {
			return
		}
		for _, w := range leftover {
			e.pool.moveToPool(w.ID(), JobPool(j), false)
			w.park()
		}
		return
	}
	for _, w := range leftover {
		e.pool.moveToPool(w.ID(), GeneralPool(), false)
		job.removeLocalWorker(w)
		w.depart()
	}
	e.log.Debug("released idle workers", zap.Int32("job", int32(j)), zap.Int("count", len(leftover)))
}

// fulfillCommitment consumes one commitment unit toward st and dispatches w:
// same-job workers start work now (or wait at the job pool if a dependency
// has not completed), cross-job workers begin moving.
func (e *Env) fulfillCommitment(w *Worker, st *Stage) {
	key := st.Key()
	invariantf(st.RemainingTasks() > 0, "fulfilling commitment toward exhausted stage %v", key)
	if !w.AtJob(key.Job) {
		e.pool.fulfillCommitment(w.ID(), OpPool(key), true)
		e.sendWorker(w, st)
		return
	}
	job := e.jobs[key.Job]
	if !job.inRunFrontier(st) {
		e.pool.removeCommitment(w.ID(), OpPool(key))
		e.pool.moveToPool(w.ID(), JobPool(key.Job), false)
		w.park()
		e.reopenSchedulable(st)
		return
	}
	e.pool.fulfillCommitment(w.ID(), OpPool(key), false)
	e.workOnStage(w, st)
}

// workOnStage assigns the next task of st to w, samples its duration, and
// schedules its completion.
func (e *Env) workOnStage(w *Worker, st *Stage) {
	key := st.Key()
	job := e.jobs[key.Job]
	invariantf(w.Available(), "worker %d is busy", w.ID())
	invariantf(w.AtJob(key.Job), "worker %d is not at job %d", w.ID(), key.Job)
	invariantf(job.inRunFrontier(st), "stage %v is not runnable", key)
	loc, resident := e.pool.Location(w.ID())
	invariantf(resident && loc == OpPool(key), "worker %d serves %v from pool %v", w.ID(), key, loc)

	task, err := st.assign(w.ID(), e.wallTime)
	invariantf(err == nil, "assigning task on %v: %v", key, err)

	// Sample before updating the worker's task context: the sampler
	// distinguishes waves by what the worker did last.
	d := e.sampler.SampleTaskDuration(st, task, w, job.NumLocalWorkers())
	invariantf(d >= 0 && d < Incompatible, "duration %v for stage %v, worker type %d", d, key, w.Type())
	st.observeDuration(d)
	w.startTask(st, task)

	if _, ok := e.schedulable[key]; ok && e.workerDemand(st) <= 0 {
		e.saturateStage(st)
	}
	e.timeline.Push(e.wallTime+d, TaskCompletion{Stage: st, Task: task})
	e.log.Debug("task started",
		zap.Stringer("stage", key),
		zap.Int("task", task.Index()),
		zap.Int32("worker", int32(w.ID())),
		zap.Float64("duration", float64(d)))
}

// sendWorker dispatches w toward another job's stage and schedules its
// arrival after the moving delay.
func (e *Env) sendWorker(w *Worker, st *Stage) {
	key := st.Key()
	invariantf(!w.AtJob(key.Job), "sending worker %d to its own job %d", w.ID(), key.Job)
	if w.JobID() != NoJob {
		e.jobs[w.JobID()].removeLocalWorker(w)
	}
	w.depart()
	if _, ok := e.schedulable[key]; ok && e.workerDemand(st) <= 0 {
		e.saturateStage(st)
	}
	delay := e.movingDelay()
	e.timeline.Push(e.wallTime+delay, WorkerArrival{Worker: w, Stage: st})
	e.log.Debug("worker dispatched",
		zap.Int32("worker", int32(w.ID())),
		zap.Stringer("stage", key),
		zap.Float64("eta", float64(e.wallTime+delay)))
}

// tryBackupSchedule finds work for a worker whose planned destination fell
// through. canceled names the stale commitment to cancel first, if any. The
// worker is rerouted to a schedulable stage, preferring its own job, or
// parked where it stands.
func (e *Env) tryBackupSchedule(w *Worker, canceled *StageKey) {
	if canceled != nil {
		e.pool.removeCommitment(w.ID(), OpPool(*canceled))
		if st := e.stageByKey(*canceled); st.RemainingTasks() > 0 {
			e.reopenSchedulable(st)
		}
	}
	if st := e.findBackupStage(w); st != nil {
		e.rerouteWorker(w, st)
		return
	}
	if w.JobID() != NoJob {
		e.pool.moveToPool(w.ID(), JobPool(w.JobID()), false)
	} else {
		e.pool.moveToPool(w.ID(), GeneralPool(), false)
	}
	w.park()
}

// findBackupStage picks a replacement stage in (job, stage) order among
// stages the worker's type can serve, preferring the worker's own job.
// Own-job stages are only eligible if runnable right now; other jobs' stages
// are reconciled again on arrival.
func (e *Env) findBackupStage(w *Worker) *Stage {
	keys := make([]StageKey, 0, len(e.schedulable))
	for k := range e.schedulable {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, StageKey.compare)
	var fallback *Stage
	for _, k := range keys {
		st := e.schedulable[k]
		if !st.Compatible(w.Type()) {
			continue
		}
		if k.Job == w.JobID() {
			if e.jobs[k.Job].inRunFrontier(st) {
				return st
			}
			continue
		}
		if fallback == nil {
			fallback = st
		}
	}
	return fallback
}

// rescueStranded restores progress when a round closes with nothing left in
// flight and no way to open the next one: every worker is parked, yet some
// runnable stage could use one of them. Matching workers are rerouted
// outside the commitment protocol until an event or a decision point exists
// again. Without this, mixed-type rosters can strand a compatible worker
// behind a pool that never becomes the source.
func (e *Env) rescueStranded() {
	for e.timeline.Empty() && !e.shouldOpenRound() && len(e.schedulable) > 0 {
		w, st := e.strandedMatch()
		if w == nil {
			return
		}
		e.log.Debug("rescuing stranded worker",
			zap.Int32("worker", int32(w.ID())),
			zap.Stringer("stage", st.Key()))
		e.rerouteWorker(w, st)
		e.drainTimeline()
	}
}

// strandedMatch returns the first (worker, stage) pair that can make
// progress, in stage key order then worker ID order. Only runnable stages
// count; parking a worker somewhere new is not progress.
func (e *Env) strandedMatch() (*Worker, *Stage) {
	keys := make([]StageKey, 0, len(e.schedulable))
	for k := range e.schedulable {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, StageKey.compare)
	for _, k := range keys {
		st := e.schedulable[k]
		if !e.jobs[k.Job].inRunFrontier(st) {
			continue
		}
		for _, w := range e.workers {
			if w.Available() && st.Compatible(w.Type()) {
				return w, st
			}
		}
	}
	return nil, nil
}

// rerouteWorker moves w onto st outside the commitment protocol.
func (e *Env) rerouteWorker(w *Worker, st *Stage) {
	key := st.Key()
	invariantf(st.RemainingTasks() > 0, "rerouting toward exhausted stage %v", key)
	e.log.Debug("worker rerouted",
		zap.Int32("worker", int32(w.ID())),
		zap.Stringer("stage", key))
	if w.AtJob(key.Job) {
		e.pool.moveToPool(w.ID(), OpPool(key), false)
		e.workOnStage(w, st)
		return
	}
	e.pool.moveToPool(w.ID(), OpPool(key), true)
	e.sendWorker(w, st)
}

func (e *Env) movingDelay() Time {
	if e.movingCostFn != nil {
		d := e.movingCostFn(e.rng)
		invariantf(d >= 0, "sampled moving delay %v", d)
		return d
	}
	return e.movingCost
}

// rewardSince integrates the negated number of active jobs over the drained
// window, counting jobs that arrived or completed inside it for exactly the
// portion they overlapped.
func (e *Env) rewardSince(prev Time, prevCompleted int) float64 {
	total := 0.0
	overlap := func(job *Job) {
		start := max(prev, job.ArrivalTime())
		end := min(e.wallTime, job.CompletionTime())
		if end > start {
			total += float64(end - start)
		}
	}
	for _, id := range e.activeJobs {
		overlap(e.jobs[id])
	}
	for _, id := range e.completedJobs[prevCompleted:] {
		overlap(e.jobs[id])
	}
	return -total * e.rewardScale
}

// WallTime returns the current virtual time.
func (e *Env) WallTime() Time { return e.wallTime }

// Done reports whether the episode is over.
func (e *Env) Done() bool { return e.done }

// Truncated reports whether the episode ended by hitting the time limit
// rather than by completing all jobs.
func (e *Env) Truncated() bool { return e.truncated }

// NumWorkers returns the roster size of the current episode.
func (e *Env) NumWorkers() int { return len(e.workers) }

// Worker returns the worker with the given ID.
func (e *Env) Worker(id WorkerID) *Worker {
	invariantf(int(id) >= 0 && int(id) < len(e.workers), "no worker %d", id)
	return e.workers[id]
}

// Job returns the job with the given ID, whether active or completed.
func (e *Env) Job(id JobID) (*Job, bool) {
	j, ok := e.jobs[id]
	return j, ok
}

// ActiveJobs returns the IDs of jobs arrived but not yet completed, in
// arrival order.
func (e *Env) ActiveJobs() []JobID {
	return slices.Clone(e.activeJobs)
}

// CompletedJobs returns the IDs of completed jobs in completion order.
func (e *Env) CompletedJobs() []JobID {
	return slices.Clone(e.completedJobs)
}

// Pools exposes the worker-pool bookkeeping for inspection.
func (e *Env) Pools() *PoolState { return &e.pool }

// PendingEvents returns the number of timeline events not yet processed.
func (e *Env) PendingEvents() int { return e.timeline.Len() }

// CheckInvariants audits the engine's bookkeeping and returns the first
// violation found, or nil. It is meant for harnesses that verify the engine
// after every step; the engine also self-checks the same rules at mutation
// sites via panics.
func (e *Env) CheckInvariants() error {
	if err := e.pool.check(); err != nil {
		return err
	}
	for key, st := range e.schedulable {
		job, ok := e.jobs[key.Job]
		if !ok {
			return fmt.Errorf("schedulable stage %v of unknown job", key)
		}
		if job.Completed() {
			return fmt.Errorf("schedulable stage %v of completed job", key)
		}
		if st.Completed() {
			return fmt.Errorf("schedulable stage %v is completed", key)
		}
		if d := e.workerDemand(st); d <= 0 {
			return fmt.Errorf("schedulable stage %v has demand %d", key, d)
		}
		if job.StageSaturated(key.Stage) {
			return fmt.Errorf("schedulable stage %v flagged saturated", key)
		}
	}
	for _, w := range e.workers {
		loc, resident := e.pool.Location(w.ID())
		if !resident {
			if !w.Available() {
				return fmt.Errorf("moving worker %d is busy", w.ID())
			}
			continue
		}
		if j, ok := loc.Job(); ok {
			if w.JobID() != j {
				return fmt.Errorf("worker %d resides at %v but is attached to job %d", w.ID(), loc, w.JobID())
			}
		} else if w.JobID() != NoJob {
			return fmt.Errorf("worker %d resides at %v but is attached to job %d", w.ID(), loc, w.JobID())
		}
		if !w.Available() {
			op, isOp := loc.Op()
			if !isOp {
				return fmt.Errorf("busy worker %d idles in %v", w.ID(), loc)
			}
			if w.Stage() == nil || w.Stage().Key() != op {
				return fmt.Errorf("busy worker %d resides at %v but serves %v", w.ID(), loc, w.Stage())
			}
		}
	}
	for _, id := range e.activeJobs {
		if e.jobs[id].Completed() {
			return fmt.Errorf("active job %d is completed", id)
		}
	}
	for _, id := range e.completedJobs {
		if !e.jobs[id].Completed() {
			return fmt.Errorf("archived job %d is not completed", id)
		}
	}
	return nil
}
