// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim

// StageObservation is the per-stage slice of an [Observation].
type StageObservation struct {
	Stage           StageID
	RemainingTasks  int
	ProcessingTasks int
	CompletedTasks  int

	// RemainingWork estimates the time left in the stage from its most
	// recently observed task duration.
	RemainingWork Time

	// Schedulable reports whether the stage is a legal commitment target
	// for the open round: schedulable and not yet selected this round.
	Schedulable bool

	Saturated bool
}

// JobObservation is the per-job slice of an [Observation]. Jobs appear in
// arrival order and only while active.
type JobObservation struct {
	Job     JobID
	Name    string
	Arrival Time

	// IsSource reports whether the open round distributes this job's
	// workers.
	IsSource bool

	// AttachedWorkers counts workers bound up in the job: present at it,
	// moving toward it, or committed to it from elsewhere.
	AttachedWorkers int

	// LocalWorkers counts only workers physically at the job.
	LocalWorkers int

	Stages []StageObservation
}

// An Observation is the engine state handed to the caller at each decision
// point. It is a snapshot: later steps never mutate earlier observations.
type Observation struct {
	WallTime Time

	// Source is the pool whose workers the open round is distributing. It
	// is the null pool only when the episode is done.
	Source PoolKey

	// UncommittedWorkers is how many source workers still need a
	// destination. It bounds the worker count of the next action.
	UncommittedWorkers int

	Jobs []JobObservation

	NumCompletedJobs int
}

// SchedulableStages returns the keys of every stage that is a legal
// commitment target, in (job, stage) order.
func (o *Observation) SchedulableStages() []StageKey {
	var out []StageKey
	for _, jo := range o.Jobs {
		for _, so := range jo.Stages {
			if so.Schedulable {
				out = append(out, StageKey{Job: jo.Job, Stage: so.Stage})
			}
		}
	}
	return out
}

// Job returns the observation of job j, if active.
func (o *Observation) Job(j JobID) (*JobObservation, bool) {
	for i := range o.Jobs {
		if o.Jobs[i].Job == j {
			return &o.Jobs[i], true
		}
	}
	return nil, false
}

func (e *Env) observe() *Observation {
	obs := &Observation{
		WallTime:           e.wallTime,
		Source:             e.pool.Source(),
		UncommittedWorkers: e.pool.UncommittedAtSource(),
		NumCompletedJobs:   len(e.completedJobs),
		Jobs:               make([]JobObservation, 0, len(e.activeJobs)),
	}
	srcJob, srcHasJob := e.pool.SourceJob()
	for _, id := range e.activeJobs {
		job := e.jobs[id]
		jo := JobObservation{
			Job:             id,
			Name:            job.Name(),
			Arrival:         job.ArrivalTime(),
			IsSource:        srcHasJob && srcJob == id,
			AttachedWorkers: e.pool.TotalJobWorkers(id),
			LocalWorkers:    job.NumLocalWorkers(),
			Stages:          make([]StageObservation, 0, job.NumStages()),
		}
		for _, st := range job.stages {
			key := st.Key()
			_, sched := e.schedulable[key]
			_, sel := e.selected[key]
			jo.Stages = append(jo.Stages, StageObservation{
				Stage:           st.ID(),
				RemainingTasks:  st.RemainingTasks(),
				ProcessingTasks: st.ProcessingTasks(),
				CompletedTasks:  st.CompletedTasks(),
				RemainingWork:   st.RemainingWorkEstimate(),
				Schedulable:     sched && !sel,
				Saturated:       job.StageSaturated(st.ID()),
			})
		}
		obs.Jobs = append(obs.Jobs, jo)
	}
	return obs
}
