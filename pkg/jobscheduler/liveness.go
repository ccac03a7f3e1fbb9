package jobscheduler

import (
	"github.com/fairshard/jobsched/pkg/log"
	"github.com/fairshard/jobsched/pkg/types"
)

// watch starts a liveness observer for worker: a goroutine that blocks on
// done and, once it closes, posts the termination back onto the actor's
// own mailbox so the running-set mutation stays serialized with every
// other command. The watcher is tracked in a.watchers so terminate can
// tear every one of them down without waiting for done to close on its
// own.
func (a *JobScheduler) watch(worker types.WorkerHandle, done <-chan struct{}) {
	if prev, ok := a.watchers[worker]; ok {
		close(prev)
	}
	cancel := make(chan struct{})
	a.watchers[worker] = cancel

	go func() {
		select {
		case <-done:
			a.send(func() { a.handleWorkerDone(worker) })
		case <-cancel:
		}
	}()
}

// handleWorkerDone retires worker from the running set once its liveness
// channel closes. A worker that is not registered (already retired, or
// belonging to a prior watcher generation) is a no-op.
func (a *JobScheduler) handleWorkerDone(worker types.WorkerHandle) {
	node, ok := a.running[worker]
	if !ok {
		return
	}
	delete(a.running, worker)
	delete(a.watchers, worker)
	a.refreshMetrics()

	log.WithNodeKey(string(node)).Debug().Str("worker", string(worker)).Msg("worker retired")
}
