// Package placement implements the placement-feasibility predicate and the
// victim-selection routines used by the local/remote scheduler. It reaches
// the bucket store only through the BucketView interface, which callers
// pass in along with the node sets; the victim-selection routines remove
// the chosen task through it. The package holds no state of its own and
// has no actor or concurrency concerns.
package placement

import "github.com/fairshard/jobsched/pkg/types"

// ChooseNode decides whether any node in available is admissible for
// task, honoring force_local, force_remote, and the per-task blacklist.
// "First" is defined on the caller-provided order of available; load-aware
// callers are expected to pre-sort it.
func ChooseNode(task *types.Task, available []types.NodeKey) (types.NodeKey, bool) {
	if task.ForceLocal {
		// force_local tasks are never considered by the "move task to
		// another node" path.
		return "", false
	}

	candidates := filterOut(available, task.Blacklist)
	if len(candidates) == 0 {
		return "", false
	}

	if task.ForceRemote {
		hosts := task.Hosts()
		remote := filterOut(candidates, hosts)
		if len(remote) == 0 {
			return "", false
		}
		return remote[0], true
	}

	return candidates[0], true
}

func filterOut(available []types.NodeKey, exclude map[types.NodeKey]struct{}) []types.NodeKey {
	if len(exclude) == 0 {
		return available
	}
	out := make([]types.NodeKey, 0, len(available))
	for _, n := range available {
		if _, bad := exclude[n]; !bad {
			out = append(out, n)
		}
	}
	return out
}

// BucketView is the minimal read/remove surface the placement routines
// need from a task bucket store; pkg/bucket's Store implements it.
type BucketView interface {
	Queued(node types.NodeKey) int
	PopFront(node types.NodeKey) *types.Task
	Remove(node types.NodeKey, id types.TaskID) (*types.Task, bool)
	Tasks(node types.NodeKey) []*types.Task
}

// PopAndSwitchNode runs victim selection: it picks the busiest bucket
// among nodes (largest Queued, ties broken by node-identity order), pops
// its head task, and tries to place it in available. On failure it falls
// back to PopSuitable. At most one task is removed, atomically with the
// returned decision.
func PopAndSwitchNode(store BucketView, nodes []types.NodeKey, available []types.NodeKey) types.Decision {
	if len(available) == 0 {
		return types.NoNodesDecision()
	}

	victim, ok := busiest(store, nodes)
	if !ok {
		return types.NoNodesDecision()
	}

	head := store.Tasks(victim)
	if len(head) == 0 {
		return types.NoNodesDecision()
	}
	candidate := head[0]

	if target, ok := ChooseNode(candidate, available); ok {
		if t, removed := store.Remove(victim, candidate.TaskID); removed {
			return types.RunDecision(target, t)
		}
	}

	return PopSuitable(store, nodes, available)
}

// busiest returns the node in nodes with the largest Queued count among
// non-empty buckets, ties broken by NodeKey ordering (lexicographic).
func busiest(store BucketView, nodes []types.NodeKey) (types.NodeKey, bool) {
	var best types.NodeKey
	bestQueued := -1
	found := false

	for _, n := range nodes {
		q := store.Queued(n)
		if q <= 0 {
			continue
		}
		if q > bestQueued || (q == bestQueued && n < best) {
			best = n
			bestQueued = q
			found = true
		}
	}
	return best, found
}

// PopSuitable walks nodes in order, and within each node walks its task
// list in order, returning the first (node, task, target) where
// ChooseNode succeeds. The task is removed from its originating bucket
// atomically with the decision. Only Queued is decremented; Lifetime is
// never touched here.
func PopSuitable(store BucketView, nodes []types.NodeKey, available []types.NodeKey) types.Decision {
	for _, n := range nodes {
		for _, task := range store.Tasks(n) {
			if target, ok := ChooseNode(task, available); ok {
				if t, removed := store.Remove(n, task.TaskID); removed {
					return types.RunDecision(target, t)
				}
			}
		}
	}
	return types.NoNodesDecision()
}
