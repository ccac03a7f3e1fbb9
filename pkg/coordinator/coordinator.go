// Package coordinator is the thin job-coordinator stand-in this module
// pairs with a JobScheduler actor: it polls cluster topology on a fixed
// interval and feeds UpdateNodes, and it mints worker handles for tasks
// the harness starts running. A production coordinator would also own
// task submission, retries, and final job completion — out of scope
// here, where the point is exercising the actor's reassignment and
// liveness paths end to end.
package coordinator

import (
	"time"

	"github.com/fairshard/jobsched/pkg/jobscheduler"
	"github.com/fairshard/jobsched/pkg/log"
	"github.com/fairshard/jobsched/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TopologyFunc returns the cluster's current node membership. The
// coordinator polls it once per tick; how it's sourced (etcd watch,
// gossip, a config file) is the caller's concern.
type TopologyFunc func() []types.NodeKey

// Coordinator polls TopologyFunc on Interval and pushes the polled
// membership into the job actor it owns on every tick (whether or not it
// changed), mirroring the fixed-interval
// reconciliation loop the rest of this module uses for background work.
type Coordinator struct {
	job      *jobscheduler.JobScheduler
	topology TopologyFunc
	interval time.Duration

	logger zerolog.Logger
	stopCh chan struct{}
	doneCh chan struct{}
}

// New returns a Coordinator for job, polling topology every interval.
func New(job *jobscheduler.JobScheduler, topology TopologyFunc, interval time.Duration) *Coordinator {
	return &Coordinator{
		job:      job,
		topology: topology,
		interval: interval,
		logger:   log.WithComponent("coordinator"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Done returns the channel the owned job actor should watch as its
// CoordinatorDone — closed once this coordinator stops, so the actor
// self-terminates rather than outliving the thing that fed it work.
func (c *Coordinator) Done() <-chan struct{} {
	return c.doneCh
}

// Start begins the topology polling loop.
func (c *Coordinator) Start() {
	go c.run()
}

// Stop ends the polling loop and closes Done.
func (c *Coordinator) Stop() {
	close(c.stopCh)
}

func (c *Coordinator) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.doneCh)

	c.logger.Info().Dur("interval", c.interval).Msg("coordinator polling started")

	for {
		select {
		case <-ticker.C:
			nodes := c.topology()
			c.job.UpdateNodes(nodes)
		case <-c.stopCh:
			c.logger.Info().Msg("coordinator stopped")
			return
		}
	}
}

// Spawn mints a worker handle for a task that just started running on
// node, registers it with the job actor, and returns a function the
// caller invokes once that worker exits (normally or not) to retire it.
func (c *Coordinator) Spawn(node types.NodeKey) (worker types.WorkerHandle, finish func()) {
	handle := types.WorkerHandle(uuid.NewString())
	done := make(chan struct{})
	c.job.TaskStarted(node, handle, done)
	return handle, func() { close(done) }
}
