// Package assign implements the assignment engine: placing a newly
// arrived task into the correct bucket using input locality and per-node
// load, or the reassignment of an orphaned task after a topology change.
package assign

import (
	"errors"
	"sort"

	"github.com/fairshard/jobsched/pkg/bucket"
	"github.com/fairshard/jobsched/pkg/types"
)

// Abort conditions. The caller (the actor shell) is expected to emit an
// event carrying the job name, task mode/ID, cause, and inputs, then
// terminate the job normally — exactly the disposition of an unschedulable
// forced task or an exhausted task.
var (
	// ErrForcedRemoteNoEligibleNode: force_remote left no node outside the
	// task's own input hosts.
	ErrForcedRemoteNoEligibleNode = errors.New("forced remote but no eligible node")
	// ErrForcedLocalNoEligibleNode: force_local left no admissible node.
	ErrForcedLocalNoEligibleNode = errors.New("forced local but no eligible node")
	// ErrExhausted: every candidate placement is blacklisted.
	ErrExhausted = errors.New("task failed on all available nodes")
)

// AssignTask places task into store, using nodeStats (one load/input pair
// per admissible input) to pick the least-loaded, least-full data-local
// host, or the NoPref bucket if none qualifies. currentNodes is the
// latest known cluster membership.
func AssignTask(store *bucket.Store, task *types.Task, nodeStats []types.NodeStat, currentNodes map[types.NodeKey]struct{}) error {
	if task.ForceRemote {
		admissible := subtract(currentNodes, task.Blacklist)
		remote := subtractSet(admissible, task.Hosts())
		if len(remote) == 0 {
			return ErrForcedRemoteNoEligibleNode
		}
		return assignNopref(store, task, admissible)
	}

	admissible := subtract(currentNodes, task.Blacklist)
	return findPref(store, task, nodeStats, admissible)
}

// findPref filters nodeStats to admissible hosts, sorts ascending by
// (bucket queued, load, entry order) — least-full bucket first, then
// least-loaded, then caller order — and binds the task to the best entry.
// An empty filtered set falls back to assignNopref.
func findPref(store *bucket.Store, task *types.Task, nodeStats []types.NodeStat, admissible map[types.NodeKey]struct{}) error {
	type candidate struct {
		queued int
		load   float64
		order  int
		stat   types.NodeStat
	}

	var candidates []candidate
	for i, st := range nodeStats {
		if _, ok := admissible[st.Input.Host]; !ok {
			continue
		}
		candidates = append(candidates, candidate{
			queued: store.Queued(st.Input.Host),
			load:   st.Load,
			order:  i,
			stat:   st,
		})
	}

	if len(candidates) == 0 {
		return assignNopref(store, task, admissible)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.queued != b.queued {
			return a.queued < b.queued
		}
		if a.load != b.load {
			return a.load < b.load
		}
		return a.order < b.order
	})

	best := candidates[0].stat
	task.ChosenInput = best.Input.URL
	store.Append(best.Input.Host, task)
	return nil
}

// assignNopref binds task to its first input's URL and appends it to the
// NoPref bucket. It aborts the job if admissible is empty, or if the task
// is force_local (a force_local task can never land in NoPref).
func assignNopref(store *bucket.Store, task *types.Task, admissible map[types.NodeKey]struct{}) error {
	if len(admissible) == 0 {
		return ErrExhausted
	}
	if task.ForceLocal {
		return ErrForcedLocalNoEligibleNode
	}
	task.ChosenInput = task.Inputs[0].URL
	store.Append(types.NoPref, task)
	return nil
}

func subtract(nodes map[types.NodeKey]struct{}, blacklist map[types.NodeKey]struct{}) map[types.NodeKey]struct{} {
	out := make(map[types.NodeKey]struct{}, len(nodes))
	for n := range nodes {
		if _, bad := blacklist[n]; !bad {
			out[n] = struct{}{}
		}
	}
	return out
}

func subtractSet(nodes map[types.NodeKey]struct{}, other map[types.NodeKey]struct{}) map[types.NodeKey]struct{} {
	out := make(map[types.NodeKey]struct{}, len(nodes))
	for n := range nodes {
		if _, bad := other[n]; !bad {
			out[n] = struct{}{}
		}
	}
	return out
}
