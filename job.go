// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package dagsim

// A Job is one DAG of stages plus its execution bookkeeping. Stage indices
// are the node IDs; edges point from dependency to dependent.
//
// A job tracks two distinct frontiers. The run frontier holds stages whose
// dependencies have all completed, so their tasks may execute now. The
// schedulable set, owned by [Env], is broader: it admits a stage as soon as
// every dependency is saturated, letting the caller commit workers ahead of
// time so they arrive roughly as the stage unlocks.
type Job struct {
	id       JobID
	name     string
	arrival  Time
	finished Time

	stages   []*Stage
	parents  [][]StageID
	children [][]StageID

	runFrontier  map[StageID]struct{}
	granted      map[StageID]struct{}
	saturated    []bool
	numSaturated int
	numCompleted int

	localWorkers map[WorkerID]struct{}
}

func newJob(id JobID, name string, arrival Time, stages []*Stage, parents, children [][]StageID) *Job {
	return &Job{
		id:           id,
		name:         name,
		arrival:      arrival,
		finished:     Never,
		stages:       stages,
		parents:      parents,
		children:     children,
		runFrontier:  make(map[StageID]struct{}),
		granted:      make(map[StageID]struct{}),
		saturated:    make([]bool, len(stages)),
		localWorkers: make(map[WorkerID]struct{}),
	}
}

// ID returns the job's episode-wide identity.
func (j *Job) ID() JobID { return j.id }

// Name returns the job's optional label.
func (j *Job) Name() string { return j.name }

// ArrivalTime returns when the job entered the system.
func (j *Job) ArrivalTime() Time { return j.arrival }

// CompletionTime returns when the job's last stage completed, or Never.
func (j *Job) CompletionTime() Time { return j.finished }

// NumStages returns the number of stages in the job's DAG.
func (j *Job) NumStages() int { return len(j.stages) }

// Stage returns the stage with the given index.
func (j *Job) Stage(id StageID) *Stage {
	invariantf(int(id) >= 0 && int(id) < len(j.stages), "job %d has no stage %d", j.id, id)
	return j.stages[id]
}

// Stages returns the job's stages in index order. The returned slice is a
// copy; the stages themselves are shared.
func (j *Job) Stages() []*Stage {
	out := make([]*Stage, len(j.stages))
	copy(out, j.stages)
	return out
}

// Dependencies returns the stage indices that must complete before the given
// stage may run.
func (j *Job) Dependencies(id StageID) []StageID {
	deps := j.parents[j.Stage(id).ID()]
	out := make([]StageID, len(deps))
	copy(out, deps)
	return out
}

// Completed reports whether every stage of the job has completed.
func (j *Job) Completed() bool { return j.numCompleted == len(j.stages) }

// CompletedStages returns the number of completed stages.
func (j *Job) CompletedStages() int { return j.numCompleted }

// Saturated reports whether every stage of the job is saturated, meaning no
// stage can absorb more workers than are already assigned, moving toward it,
// or committed to it.
func (j *Job) Saturated() bool { return j.numSaturated == len(j.stages) }

// StageSaturated reports the saturation flag of one stage.
func (j *Job) StageSaturated(id StageID) bool { return j.saturated[j.Stage(id).ID()] }

// NumLocalWorkers returns the number of workers physically at the job,
// whether idle in its pools or executing its tasks.
func (j *Job) NumLocalWorkers() int { return len(j.localWorkers) }

func (j *Job) setCompleted(t Time) {
	invariantf(j.Completed(), "job %d marked complete with %d/%d stages done",
		j.id, j.numCompleted, len(j.stages))
	j.finished = t
}

// inRunFrontier reports whether every dependency of st has completed and st
// itself has not, so its tasks may execute now.
func (j *Job) inRunFrontier(st *Stage) bool {
	_, ok := j.runFrontier[st.ID()]
	return ok
}

// initSchedulable seeds both frontiers with the job's source stages and
// returns them as the initially schedulable set, in index order.
func (j *Job) initSchedulable() []*Stage {
	var sources []*Stage
	for _, st := range j.stages {
		if len(j.parents[st.ID()]) == 0 {
			j.runFrontier[st.ID()] = struct{}{}
			j.granted[st.ID()] = struct{}{}
			sources = append(sources, st)
		}
	}
	invariantf(len(sources) > 0, "job %d has no source stages", j.id)
	return sources
}

// schedulableGrowth returns the children of st that become schedulable now
// that st has saturated: those whose dependencies are all saturated and that
// were never granted before. Growth is monotone; a stage is granted at most
// once, even if a dependency later un-saturates.
func (j *Job) schedulableGrowth(st *Stage) []*Stage {
	var grown []*Stage
	for _, c := range j.children[st.ID()] {
		if _, ok := j.granted[c]; ok {
			continue
		}
		ready := true
		for _, p := range j.parents[c] {
			if !j.saturated[p] {
				ready = false
				break
			}
		}
		if ready {
			j.granted[c] = struct{}{}
			grown = append(grown, j.stages[c])
		}
	}
	return grown
}

// recordStageCompletion retires st from the run frontier, promotes children
// whose dependencies have now all completed, and reports whether the run
// frontier gained any stage.
func (j *Job) recordStageCompletion(st *Stage) bool {
	invariantf(st.Completed(), "recording completion of unfinished stage %v", st.key)
	_, ok := j.runFrontier[st.ID()]
	invariantf(ok, "completed stage %v was not in the run frontier", st.key)
	delete(j.runFrontier, st.ID())
	j.numCompleted++

	changed := false
	for _, c := range j.children[st.ID()] {
		child := j.stages[c]
		if child.Completed() {
			continue
		}
		ready := true
		for _, p := range j.parents[c] {
			if !j.stages[p].Completed() {
				ready = false
				break
			}
		}
		if ready {
			_, dup := j.runFrontier[c]
			invariantf(!dup, "stage %v entered the run frontier twice", child.key)
			j.runFrontier[c] = struct{}{}
			changed = true
		}
	}
	return changed
}

func (j *Job) setStageSaturated(st *Stage, v bool) {
	id := st.ID()
	invariantf(j.saturated[id] != v, "stage %v saturation already %v", st.key, v)
	j.saturated[id] = v
	if v {
		j.numSaturated++
	} else {
		j.numSaturated--
	}
}

func (j *Job) addLocalWorker(w *Worker) {
	_, dup := j.localWorkers[w.ID()]
	invariantf(!dup, "worker %d already local to job %d", w.ID(), j.id)
	j.localWorkers[w.ID()] = struct{}{}
}

func (j *Job) removeLocalWorker(w *Worker) {
	_, ok := j.localWorkers[w.ID()]
	invariantf(ok, "worker %d not local to job %d", w.ID(), j.id)
	delete(j.localWorkers, w.ID())
}
