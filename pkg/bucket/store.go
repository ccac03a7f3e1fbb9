// Package bucket owns the per-job task bucket store: the mapping from a
// node key (or the NoPref sentinel) to a pending-task bucket. It has no
// concurrency of its own — the actor shell in pkg/jobscheduler is the only
// caller, and it serializes all access through its mailbox.
package bucket

import "github.com/fairshard/jobsched/pkg/types"

// Store is the task bucket store for one job. The NoPref bucket always
// exists while a Store is alive.
type Store struct {
	buckets map[types.NodeKey]*types.Bucket
}

// New returns a store with only the NoPref bucket present.
func New() *Store {
	return &Store{
		buckets: map[types.NodeKey]*types.Bucket{
			types.NoPref: types.NewBucket(),
		},
	}
}

// Queued returns the bucket's queued count, or 0 if the bucket is absent.
func (s *Store) Queued(node types.NodeKey) int {
	b, ok := s.buckets[node]
	if !ok {
		return 0
	}
	return b.Queued
}

// Tasks returns the task list for node, or nil if the bucket is absent.
// The slice is owned by the store; callers must not mutate it.
func (s *Store) Tasks(node types.NodeKey) []*types.Task {
	b, ok := s.buckets[node]
	if !ok {
		return nil
	}
	return b.Tasks
}

// PopFront pops the head task from node's bucket, or nil if empty/absent.
func (s *Store) PopFront(node types.NodeKey) *types.Task {
	b, ok := s.buckets[node]
	if !ok {
		return nil
	}
	return b.PopFront()
}

// Remove deletes task id from node's bucket.
func (s *Store) Remove(node types.NodeKey, id types.TaskID) (*types.Task, bool) {
	b, ok := s.buckets[node]
	if !ok {
		return nil, false
	}
	for _, t := range b.Tasks {
		if t.TaskID == id {
			b.Remove(id)
			return t, true
		}
	}
	return nil, false
}

// Append adds task to the bucket at node, creating an empty bucket first
// if one is not already present, and bumps both counters.
func (s *Store) Append(node types.NodeKey, t *types.Task) {
	b, ok := s.buckets[node]
	if !ok {
		b = types.NewBucket()
		s.buckets[node] = b
	}
	b.PushFront(t)
}

// NodesWithWork returns the node keys (excluding NoPref) whose buckets
// have Queued > 0, in the order iterated — callers that need a
// deterministic order should sort the result.
func (s *Store) NodesWithWork() []types.NodeKey {
	var out []types.NodeKey
	for n, b := range s.buckets {
		if n == types.NoPref {
			continue
		}
		if b.Queued > 0 {
			out = append(out, n)
		}
	}
	return out
}

// QueuedTotal sums Queued across every bucket, including NoPref.
func (s *Store) QueuedTotal() int {
	total := 0
	for _, b := range s.buckets {
		total += b.Queued
	}
	return total
}

// NoPrefEmpty reports whether the NoPref bucket currently holds no tasks.
func (s *Store) NoPrefEmpty() bool {
	return s.Queued(types.NoPref) == 0
}

// EmptyNodes returns the subset of available for which this store holds
// no pending data-local work, but only when the NoPref bucket is empty —
// a job holding no-preference work will not surrender an idle node to a
// peer, since it would accept that node itself.
func (s *Store) EmptyNodes(available []types.NodeKey) []types.NodeKey {
	if !s.NoPrefEmpty() {
		return nil
	}
	out := make([]types.NodeKey, 0, len(available))
	for _, n := range available {
		if s.Queued(n) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Snapshot returns the current bucket contents, keyed by node, for
// diagnostics (metrics collection). Callers must not mutate the
// returned buckets.
func (s *Store) Snapshot() map[types.NodeKey]*types.Bucket {
	return s.buckets
}

// Partition splits the store's per-node buckets into those whose node is
// still in kept and those that are not — used by the reassignment engine
// on a topology change. The NoPref bucket is always returned as orphaned;
// Partition does not mutate the receiver.
func (s *Store) Partition(kept map[types.NodeKey]struct{}) (keptBuckets map[types.NodeKey]*types.Bucket, orphanedTasks []*types.Task) {
	keptBuckets = make(map[types.NodeKey]*types.Bucket)
	for n, b := range s.buckets {
		if n == types.NoPref {
			orphanedTasks = append(orphanedTasks, b.Tasks...)
			continue
		}
		if _, ok := kept[n]; ok {
			keptBuckets[n] = b
			continue
		}
		orphanedTasks = append(orphanedTasks, b.Tasks...)
	}
	return keptBuckets, orphanedTasks
}

// Rebuild replaces the store's buckets wholesale with kept plus a fresh
// NoPref bucket — used on a topology change after Partition, before the
// assignment engine re-places the orphaned tasks into the rebuilt store.
func (s *Store) Rebuild(kept map[types.NodeKey]*types.Bucket) {
	if kept[types.NoPref] == nil {
		kept[types.NoPref] = types.NewBucket()
	}
	s.buckets = kept
}
