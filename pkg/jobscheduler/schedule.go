package jobscheduler

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fairshard/jobsched/pkg/assign"
	"github.com/fairshard/jobsched/pkg/events"
	"github.com/fairshard/jobsched/pkg/log"
	"github.com/fairshard/jobsched/pkg/metrics"
	"github.com/fairshard/jobsched/pkg/placement"
	"github.com/fairshard/jobsched/pkg/types"
)

// handleNewTask validates and places task, aborting the job if the
// assignment engine cannot find it a home.
func (a *JobScheduler) handleNewTask(task *types.Task, nodeStats []types.NodeStat) {
	if err := task.Validate(); err != nil {
		a.logger.Error().Err(err).Msg("invalid task rejected")
		return
	}
	if err := assign.AssignTask(a.store, task, nodeStats, a.nodes); err != nil {
		a.abortTask(task, err)
		return
	}
	a.refreshMetrics()
	a.publish(&events.Event{
		Type:     events.EventTaskAssigned,
		JobName:  a.jobName,
		TaskMode: task.Mode,
		TaskID:   task.TaskID,
	})
}

// abortTask emits the matching abort event and terminates the job. A
// task that cannot be placed anywhere is fatal to the whole job, not just
// that task.
func (a *JobScheduler) abortTask(task *types.Task, err error) {
	evType := events.EventTaskExhausted
	switch {
	case errors.Is(err, assign.ErrForcedRemoteNoEligibleNode):
		evType = events.EventForcedRemoteUnschedulable
	case errors.Is(err, assign.ErrForcedLocalNoEligibleNode):
		evType = events.EventForcedLocalUnschedulable
	case errors.Is(err, assign.ErrExhausted):
		evType = events.EventTaskExhausted
	}

	log.WithTaskID(int64(task.TaskID)).Warn().Str("job", a.jobName).Err(err).Msg("task unschedulable, terminating job")
	a.publish(&events.Event{
		Type:     evType,
		JobName:  a.jobName,
		TaskMode: task.Mode,
		TaskID:   task.TaskID,
		Cause:    err.Error(),
		Inputs:   task.Inputs,
	})
	a.terminate("task_abort", err.Error())
}

// handleUpdateNodes runs the reassignment engine: tasks whose bucket's
// node left the cluster, plus anything already in NoPref, are re-placed
// against the new membership. A task that fails to re-place aborts the
// job exactly as a fresh unplaceable task would.
func (a *JobScheduler) handleUpdateNodes(nodes []types.NodeKey) {
	newSet := make(map[types.NodeKey]struct{}, len(nodes))
	for _, n := range nodes {
		newSet[n] = struct{}{}
	}

	kept, orphaned := a.store.Partition(newSet)
	a.store.Rebuild(kept)
	a.nodes = newSet

	var aborted *types.Task
	var abortErr error
	assign.Reassign(a.store, orphaned, newSet, a.rng, func(t *types.Task, err error) {
		if aborted == nil {
			aborted, abortErr = t, err
		}
	})

	a.refreshMetrics()
	a.publish(&events.Event{
		Type:    events.EventNodesReassigned,
		JobName: a.jobName,
		Message: fmt.Sprintf("%d nodes, %d tasks reassigned", len(nodes), len(orphaned)),
	})

	if aborted != nil {
		a.abortTask(aborted, abortErr)
	}
}

// handleTaskStarted registers worker as running on node and begins
// watching its liveness.
func (a *JobScheduler) handleTaskStarted(node types.NodeKey, worker types.WorkerHandle, done <-chan struct{}) {
	a.running[worker] = node
	a.watch(worker, done)
	a.refreshMetrics()
}

// handleScheduleLocal answers the local scheduling phase. A node in
// available whose bucket already carries data-local work was already
// vetted admissible for that work when the assignment engine placed it
// there, so the local phase skips straight to popping the least-loaded
// such bucket rather than re-running ChooseNode. Only when no available
// node carries any data-local work does it fall through to NOPREF: if
// NOPREF is also empty there is nothing this job can do locally at all
// (NoLocal); otherwise it runs victim selection against NOPREF's head,
// the only case where the local phase needs ChooseNode's eligibility
// check, since NOPREF tasks are not bound to any particular host.
func (a *JobScheduler) handleScheduleLocal(available []types.NodeKey) types.Decision {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ScheduleLatency, a.jobName, "local")

	L := intersect(a.sortedNodesWithWork(), available)

	var decision types.Decision
	switch {
	case len(L) > 0:
		node := a.leastLoaded(L)
		task := a.store.PopFront(node)
		decision = types.RunDecision(node, task)
	case a.store.NoPrefEmpty():
		decision = types.NoLocalDecision()
	default:
		decision = placement.PopAndSwitchNode(a.store, []types.NodeKey{types.NoPref}, available)
	}

	a.recordDecision("local", decision)
	return decision
}

// leastLoaded returns the node in nodes with the smallest Queued count,
// ties broken by NodeKey order for a reproducible choice.
func (a *JobScheduler) leastLoaded(nodes []types.NodeKey) types.NodeKey {
	best := nodes[0]
	bestQueued := a.store.Queued(best)
	for _, n := range nodes[1:] {
		q := a.store.Queued(n)
		if q < bestQueued || (q == bestQueued && n < best) {
			best, bestQueued = n, q
		}
	}
	return best
}

// intersect returns the nodes in nodes that also appear in available,
// preserving nodes' order. Both inputs are expected to be small
// (per-job node counts), so a linear scan beats building a second set.
func intersect(nodes, available []types.NodeKey) []types.NodeKey {
	if len(nodes) == 0 || len(available) == 0 {
		return nil
	}
	out := make([]types.NodeKey, 0, len(nodes))
	for _, n := range nodes {
		for _, a := range available {
			if n == a {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// handleScheduleRemote answers the remote scheduling phase, called after
// ScheduleLocal returned NoLocal: it picks this job's busiest bucket and
// tries to switch its head task onto one of free, the idle nodes the
// arbiter collected from peer jobs' GetEmptyNodes.
func (a *JobScheduler) handleScheduleRemote(free []types.NodeKey) types.Decision {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ScheduleLatency, a.jobName, "remote")

	nodes := a.sortedNodesWithWork()
	decision := placement.PopAndSwitchNode(a.store, nodes, free)

	a.recordDecision("remote", decision)
	return decision
}

func (a *JobScheduler) recordDecision(phase string, decision types.Decision) {
	result := "no_local"
	switch decision.Kind {
	case types.Run:
		result = "run"
	case types.NoNodes:
		result = "no_nodes"
	case types.NoLocal:
		result = "no_local"
	}
	metrics.ScheduleDecisionsTotal.WithLabelValues(a.jobName, phase, result).Inc()

	if decision.Kind == types.Run {
		a.refreshMetrics()
		a.publish(&events.Event{
			Type:    events.EventTaskDispatched,
			JobName: a.jobName,
			TaskID:  decision.Task.TaskID,
			Message: string(decision.Node),
		})
	}
}

// sortedNodesWithWork returns NodesWithWork in a deterministic order so
// victim selection's tie-break (lexicographic NodeKey) is reproducible.
func (a *JobScheduler) sortedNodesWithWork() []types.NodeKey {
	nodes := a.store.NodesWithWork()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}

// refreshMetrics republishes the store's gauges. It is cheap relative to
// a bucket mutation and only ever called from within the actor's own
// goroutine.
func (a *JobScheduler) refreshMetrics() {
	for node, b := range a.store.Snapshot() {
		metrics.BucketQueued.WithLabelValues(a.jobName, string(node)).Set(float64(b.Queued))
		metrics.BucketLifetime.WithLabelValues(a.jobName, string(node)).Set(float64(b.Lifetime))
	}
	metrics.RunningTasks.WithLabelValues(a.jobName).Set(float64(len(a.running)))
}
