// Package jobscheduler implements the per-job fair scheduler actor: one
// JobScheduler per live job, serializing every operation through a single
// owned goroutine so the task bucket store and running set never need
// their own locks.
package jobscheduler

import (
	"math/rand"
	"time"

	"github.com/fairshard/jobsched/pkg/bucket"
	"github.com/fairshard/jobsched/pkg/events"
	"github.com/fairshard/jobsched/pkg/log"
	"github.com/fairshard/jobsched/pkg/metrics"
	"github.com/fairshard/jobsched/pkg/types"
	"github.com/rs/zerolog"
)

// Config holds the parameters a job coordinator supplies when starting a
// job actor.
type Config struct {
	JobName string
	// Nodes is the cluster membership known at actor creation.
	Nodes []types.NodeKey
	// CoordinatorDone is closed when the owning coordinator terminates.
	// The actor observes it weakly — a closed channel, never a strong
	// reference back to the coordinator — and self-terminates.
	CoordinatorDone <-chan struct{}
	// Broker receives this actor's abort and lifecycle events. May be nil.
	Broker *events.Broker
	// Rand seeds the reassignment engine's load tiebreaks. Defaults to a
	// time-seeded source if nil.
	Rand *rand.Rand
}

// JobScheduler is the per-job fair scheduler actor described in the
// design: a task bucket store plus a mailbox that serializes every
// operation onto one goroutine.
type JobScheduler struct {
	jobName string
	store   *bucket.Store
	running map[types.WorkerHandle]types.NodeKey
	nodes   map[types.NodeKey]struct{}
	rng     *rand.Rand

	logger zerolog.Logger
	broker *events.Broker

	cmdCh           chan func()
	stopCh          chan struct{}
	coordinatorDone <-chan struct{}
	cause           string

	watchers map[types.WorkerHandle]chan struct{}
}

// New creates a job actor. The returned JobScheduler accepts messages
// immediately but processes none until Run is called; call Run in its own goroutine (the
// caller owns placement of that goroutine, matching how the rest of this
// module starts its background loops).
func New(cfg Config) *JobScheduler {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	nodes := make(map[types.NodeKey]struct{}, len(cfg.Nodes))
	for _, n := range cfg.Nodes {
		nodes[n] = struct{}{}
	}

	return &JobScheduler{
		jobName:         cfg.JobName,
		store:           bucket.New(),
		running:         make(map[types.WorkerHandle]types.NodeKey),
		nodes:           nodes,
		rng:             rng,
		logger:          log.WithJobName(cfg.JobName),
		broker:          cfg.Broker,
		cmdCh:           make(chan func(), 256),
		stopCh:          make(chan struct{}),
		coordinatorDone: cfg.CoordinatorDone,
		watchers:        make(map[types.WorkerHandle]chan struct{}),
	}
}

// Run drains the mailbox until the actor terminates — on Die, on
// coordinator termination, or on an unschedulable/exhausted task abort.
// It processes exactly one command to completion before the next, so the
// bucket store and running set never need their own locks.
func (a *JobScheduler) Run() {
	for {
		select {
		case fn := <-a.cmdCh:
			fn()
			if a.terminated() {
				return
			}
		case <-a.coordinatorDone:
			a.terminate("coordinator_died", "")
			return
		case <-a.stopCh:
			return
		}
	}
}

func (a *JobScheduler) terminated() bool {
	select {
	case <-a.stopCh:
		return true
	default:
		return false
	}
}

// terminate stops the mailbox loop, cancels every worker liveness
// watcher, and — unless this is a plain coordinator-death, which stays
// silent — publishes one terminal event carrying the cause.
func (a *JobScheduler) terminate(cause, message string) {
	select {
	case <-a.stopCh:
		return // already terminating
	default:
	}
	a.cause = cause
	close(a.stopCh)
	for _, done := range a.watchers {
		close(done)
	}

	metrics.ActorTerminationsTotal.WithLabelValues(a.jobName, cause).Inc()

	if cause == "coordinator_died" {
		return
	}
	a.publish(&events.Event{
		Type:    events.EventActorTerminated,
		JobName: a.jobName,
		Cause:   cause,
		Message: message,
	})
}

func (a *JobScheduler) publish(ev *events.Event) {
	if a.broker == nil {
		return
	}
	a.broker.Publish(ev)
}
