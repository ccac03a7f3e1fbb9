// Package arbiter drives one scheduling round across every live job actor:
// local placement first, then a remote fallback built from the idle nodes
// peer jobs are willing to give up. It owns none of the placement logic
// itself — pkg/jobscheduler and pkg/placement do that — only the fan-out,
// the two hard deadlines, and the termination of an actor that blows past
// its deadline.
package arbiter

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/fairshard/jobsched/pkg/jobscheduler"
	"github.com/fairshard/jobsched/pkg/log"
	"github.com/fairshard/jobsched/pkg/metrics"
	"github.com/fairshard/jobsched/pkg/types"
	"github.com/rs/zerolog"
)

const (
	// ActorDeadline bounds every synchronous call this arbiter makes into
	// a job actor (ScheduleLocal, ScheduleRemote). An actor
	// that cannot answer within this window is presumed wedged and dies.
	ActorDeadline = 30 * time.Second

	// PeerQueryDeadline bounds a single GetEmptyNodes call to a peer job.
	// A peer that misses it contributes no filtering to the round — its
	// candidates pass through unfiltered — never an error the round
	// aborts on.
	PeerQueryDeadline = 500 * time.Millisecond
)

// ErrUnknownJob is returned when ScheduleRound names a job this arbiter
// does not have registered.
var ErrUnknownJob = errors.New("arbiter: unknown job")

// Arbiter fans a scheduling round out across the job actors registered
// with it and reconciles their local/remote decisions.
type Arbiter struct {
	jobs   map[string]*jobscheduler.JobScheduler
	logger zerolog.Logger
}

// New returns an empty Arbiter.
func New() *Arbiter {
	return &Arbiter{
		jobs:   make(map[string]*jobscheduler.JobScheduler),
		logger: log.WithComponent("arbiter"),
	}
}

// Register adds job to the set this arbiter schedules and polls for
// empty nodes on behalf of other jobs.
func (ar *Arbiter) Register(jobName string, job *jobscheduler.JobScheduler) {
	ar.jobs[jobName] = job
}

// Unregister removes a job, typically once it has terminated.
func (ar *Arbiter) Unregister(jobName string) {
	delete(ar.jobs, jobName)
}

// ScheduleRound runs one local/remote placement attempt for jobName
// against the physically idle node set available. It returns the
// resulting Decision, or an error if jobName is unknown or the actor
// missed its deadline — in the latter case the actor is told to die
// before the error is returned, since a wedged actor that cannot answer
// within ActorDeadline can no longer be trusted with its job.
func (ar *Arbiter) ScheduleRound(parent context.Context, jobName string, available []types.NodeKey) (types.Decision, error) {
	job, ok := ar.jobs[jobName]
	if !ok {
		return types.Decision{}, ErrUnknownJob
	}

	ctx, cancel := context.WithTimeout(parent, ActorDeadline)
	defer cancel()

	local, err := job.ScheduleLocal(ctx, available)
	if err != nil {
		ar.killWedged(job, jobName, err)
		return types.Decision{}, err
	}
	if local.Kind != types.NoLocal {
		return local, nil
	}

	free := ar.freeNodesFromPeers(ctx, jobName, available)
	if len(free) == 0 {
		return types.NoNodesDecision(), nil
	}

	remote, err := job.ScheduleRemote(ctx, free)
	if err != nil {
		ar.killWedged(job, jobName, err)
		return types.Decision{}, err
	}
	return remote, nil
}

func (ar *Arbiter) killWedged(job *jobscheduler.JobScheduler, jobName string, cause error) {
	ar.logger.Error().Str("job", jobName).Err(cause).Msg("actor missed its scheduling deadline, killing it")
	job.Die("schedule_timeout")
}

// freeNodesFromPeers narrows available down to the nodes every other
// registered job is also willing to give up, querying each peer with its
// own PeerQueryDeadline. A peer that times out contributes no filtering
// at all: its current candidate set passes through unchanged, since a
// non-answer is defined as "this job claims none of its nodes are busy",
// not "this job claims all of its nodes are busy".
func (ar *Arbiter) freeNodesFromPeers(ctx context.Context, requester string, available []types.NodeKey) []types.NodeKey {
	free := append([]types.NodeKey(nil), available...)

	names := make([]string, 0, len(ar.jobs))
	for name := range ar.jobs {
		if name == requester {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if len(free) == 0 {
			return free
		}
		peer := ar.jobs[name]

		peerCtx, cancel := context.WithTimeout(ctx, PeerQueryDeadline)
		empty, err := peer.GetEmptyNodes(peerCtx, free)
		cancel()
		if err != nil {
			metrics.PeerQueryTimeoutsTotal.WithLabelValues(name).Inc()
			ar.logger.Warn().Str("peer_job", name).Err(err).Msg("peer missed its empty-node deadline, passing its candidates through unfiltered")
			continue
		}
		free = empty
	}
	return free
}
