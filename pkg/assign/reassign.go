package assign

import (
	"math/rand"

	"github.com/fairshard/jobsched/pkg/bucket"
	"github.com/fairshard/jobsched/pkg/types"
)

// Reassign re-places every task in orphaned against newNodes. For each
// task it synthesizes nodeStats by pairing each input with a uniform
// random load in [1,100], so placement stays locality-driven with a
// random tiebreak when multiple input hosts survive the topology change.
// abort is called once per task that AssignTask aborts on (the caller
// decides how to surface it — Reassign never stops early, since a
// single bad task should not block placing the rest of the batch).
func Reassign(store *bucket.Store, orphaned []*types.Task, newNodes map[types.NodeKey]struct{}, rng *rand.Rand, abort func(task *types.Task, err error)) {
	for _, t := range orphaned {
		stats := make([]types.NodeStat, len(t.Inputs))
		for i, in := range t.Inputs {
			stats[i] = types.NodeStat{
				Load:  1 + rng.Float64()*99,
				Input: in,
			}
		}
		if err := AssignTask(store, t, stats, newNodes); err != nil && abort != nil {
			abort(t, err)
		}
	}
}
