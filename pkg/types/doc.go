/*
Package types defines the data model shared by every per-job fair scheduler
actor: the task descriptor, the per-node bucket, and the tagged scheduling
decision.

# Buckets

A Bucket is keyed by NodeKey, or by the NoPref sentinel for tasks that have
no live data-local host:

	store := map[types.NodeKey]*types.Bucket{
		types.NoPref: types.NewBucket(),
	}

Queued always equals len(Tasks) between atomic operations. Lifetime is a
historical load hint: it counts every task ever placed in the bucket and
never decreases when a task is dequeued. It resets only when the bucket
itself is discarded and rebuilt, which happens on a topology change.

# Tasks

A Task is immutable except for ChosenInput, which the assignment engine
sets once, and which reassignment may rewrite when the task moves to a new
bucket. ForceLocal and ForceRemote are mutually exclusive placement
constraints; Validate reports a violation.

# Decisions

Decision is a closed, three-way sum type rather than an error return:
Run (a task was placed), NoNodes (work exists but nothing admissible),
NoLocal (no data-local work for the given nodes). Callers switch on Kind;
there is no fourth case and no panic path for an unhandled one.
*/
package types
