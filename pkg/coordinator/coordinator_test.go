package coordinator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fairshard/jobsched/pkg/jobscheduler"
	"github.com/fairshard/jobsched/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinatorPollsTopology(t *testing.T) {
	job := jobscheduler.New(jobscheduler.Config{JobName: "wordcount", Nodes: []types.NodeKey{"node-1"}})
	go job.Run()

	task := &types.Task{TaskID: 1, Inputs: []types.Input{{URL: "blob://a", Host: "node-1"}}}
	job.NewTask(task, []types.NodeStat{{Load: 1, Input: task.Inputs[0]}})

	var calls int32
	topology := func() []types.NodeKey {
		atomic.AddInt32(&calls, 1)
		return []types.NodeKey{"node-2"}
	}

	c := New(job, topology, 10*time.Millisecond)
	c.Start()
	defer c.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 2
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	queuedTotal, _, err := job.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, queuedTotal, "task 1's only host left, reassigned into NoPref")
}

func TestCoordinatorDoneClosesOnStop(t *testing.T) {
	job := jobscheduler.New(jobscheduler.Config{JobName: "wordcount", Nodes: []types.NodeKey{"node-1"}})
	go job.Run()

	c := New(job, func() []types.NodeKey { return []types.NodeKey{"node-1"} }, time.Hour)
	c.Start()
	c.Stop()

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("Done channel did not close after Stop")
	}
}

func TestSpawnRegistersAndRetiresWorker(t *testing.T) {
	job := jobscheduler.New(jobscheduler.Config{JobName: "wordcount", Nodes: []types.NodeKey{"node-1"}})
	go job.Run()

	c := New(job, func() []types.NodeKey { return []types.NodeKey{"node-1"} }, time.Hour)
	_, finish := c.Spawn("node-1")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, running, err := job.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, running)

	finish()
	require.Eventually(t, func() bool {
		_, running, err := job.GetStats(ctx)
		return err == nil && running == 0
	}, time.Second, 5*time.Millisecond)
}
