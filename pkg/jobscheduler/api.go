package jobscheduler

import (
	"context"
	"errors"

	"github.com/fairshard/jobsched/pkg/types"
)

// ErrTerminated is returned by a synchronous call made after the actor
// has already terminated.
var ErrTerminated = errors.New("jobscheduler: actor terminated")

// ErrDeadlineExceeded is returned when ctx expires before the actor
// replies. Per the design, the caller (the arbiter) is expected to react
// by calling Die and treating the result as "no decision".
var ErrDeadlineExceeded = errors.New("jobscheduler: deadline exceeded")

// send enqueues a fire-and-forget command. It never blocks past the
// actor's termination: a command posted to a dead actor is silently
// dropped, matching "the actor is in-memory and dies with its job".
func (a *JobScheduler) send(fn func()) {
	select {
	case a.cmdCh <- fn:
	case <-a.stopCh:
	}
}

// NewTask asks the actor to run the assignment engine for task, using
// nodeStats to pick its data-local host. Fire-and-forget.
func (a *JobScheduler) NewTask(task *types.Task, nodeStats []types.NodeStat) {
	a.send(func() { a.handleNewTask(task, nodeStats) })
}

// UpdateNodes asks the actor to run the reassignment engine against the
// new cluster membership. Fire-and-forget.
func (a *JobScheduler) UpdateNodes(nodes []types.NodeKey) {
	a.send(func() { a.handleUpdateNodes(nodes) })
}

// TaskStarted registers worker as running on node and begins observing
// its liveness via done, which the runtime closes on termination (normal
// or abnormal). Fire-and-forget.
func (a *JobScheduler) TaskStarted(node types.NodeKey, worker types.WorkerHandle, done <-chan struct{}) {
	a.send(func() { a.handleTaskStarted(node, worker, done) })
}

// Die asks the actor to emit a termination event and exit. Fire-and-forget.
func (a *JobScheduler) Die(reason string) {
	a.send(func() { a.terminate("die", reason) })
}

type statsResult struct {
	queuedTotal  int
	runningCount int
}

// GetStats returns the sum of Queued across every bucket and the size of
// the running set.
func (a *JobScheduler) GetStats(ctx context.Context) (queuedTotal, runningCount int, err error) {
	reply := make(chan statsResult, 1)
	a.send(func() {
		reply <- statsResult{queuedTotal: a.store.QueuedTotal(), runningCount: len(a.running)}
	})

	select {
	case r := <-reply:
		return r.queuedTotal, r.runningCount, nil
	case <-ctx.Done():
		return 0, 0, ErrDeadlineExceeded
	case <-a.stopCh:
		return 0, 0, ErrTerminated
	}
}

// GetEmptyNodes returns the subset of available for which this job holds
// no pending data-local work, but only when the NoPref bucket is empty.
// The arbiter calls this on behalf of a peer job with a short (typically
// 500ms) ctx deadline; on a timed-out call it passes available through
// unfiltered, as though this job had given up every node in it.
func (a *JobScheduler) GetEmptyNodes(ctx context.Context, available []types.NodeKey) ([]types.NodeKey, error) {
	reply := make(chan []types.NodeKey, 1)
	a.send(func() {
		reply <- a.store.EmptyNodes(available)
	})

	select {
	case r := <-reply:
		return r, nil
	case <-ctx.Done():
		return nil, ErrDeadlineExceeded
	case <-a.stopCh:
		return nil, ErrTerminated
	}
}

// ScheduleLocal runs the local scheduling phase over available and
// returns a Decision. The arbiter calls this first, then falls back to
// ScheduleRemote on NoLocal.
func (a *JobScheduler) ScheduleLocal(ctx context.Context, available []types.NodeKey) (types.Decision, error) {
	reply := make(chan types.Decision, 1)
	a.send(func() {
		reply <- a.handleScheduleLocal(available)
	})

	select {
	case d := <-reply:
		return d, nil
	case <-ctx.Done():
		return types.Decision{}, ErrDeadlineExceeded
	case <-a.stopCh:
		return types.Decision{}, ErrTerminated
	}
}

// ScheduleRemote runs the remote (victim-selection) scheduling phase over
// free — the cross-job empty-node set the arbiter computed after this job
// returned NoLocal.
func (a *JobScheduler) ScheduleRemote(ctx context.Context, free []types.NodeKey) (types.Decision, error) {
	reply := make(chan types.Decision, 1)
	a.send(func() {
		reply <- a.handleScheduleRemote(free)
	})

	select {
	case d := <-reply:
		return d, nil
	case <-ctx.Done():
		return types.Decision{}, ErrDeadlineExceeded
	case <-a.stopCh:
		return types.Decision{}, ErrTerminated
	}
}
