package jobscheduler

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/fairshard/jobsched/pkg/events"
	"github.com/fairshard/jobsched/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestActor(t *testing.T, nodes []types.NodeKey) (*JobScheduler, *events.Broker) {
	t.Helper()
	broker := events.NewBroker()
	broker.Start()
	t.Cleanup(broker.Stop)

	a := New(Config{
		JobName: "wordcount",
		Nodes:   nodes,
		Broker:  broker,
		Rand:    rand.New(rand.NewSource(1)),
	})
	go a.Run()
	return a, broker
}

func TestNewTaskAndScheduleLocal(t *testing.T) {
	a, _ := newTestActor(t, []types.NodeKey{"node-1", "node-2"})

	task := &types.Task{
		TaskID: 1,
		Inputs: []types.Input{{URL: "blob://a", Host: "node-1"}},
	}
	a.NewTask(task, []types.NodeStat{{Load: 1, Input: task.Inputs[0]}})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	decision, err := a.ScheduleLocal(ctx, []types.NodeKey{"node-1"})
	require.NoError(t, err)
	require.Equal(t, types.Run, decision.Kind)
	assert.Equal(t, types.NodeKey("node-1"), decision.Node)
	assert.Equal(t, types.TaskID(1), decision.Task.TaskID)
}

func TestScheduleLocalNoLocalWhenEmpty(t *testing.T) {
	a, _ := newTestActor(t, []types.NodeKey{"node-1"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	decision, err := a.ScheduleLocal(ctx, []types.NodeKey{"node-1"})
	require.NoError(t, err)
	assert.Equal(t, types.NoLocal, decision.Kind)
}

func TestScheduleRemoteBorrowsFreeNode(t *testing.T) {
	a, _ := newTestActor(t, []types.NodeKey{"node-1"})

	task := &types.Task{
		TaskID: 1,
		Inputs: []types.Input{{URL: "blob://a", Host: "node-1"}},
	}
	a.NewTask(task, []types.NodeStat{{Load: 1, Input: task.Inputs[0]}})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// node-1's task doesn't match an empty available set, so the local
	// phase has nothing to even try.
	localDecision, err := a.ScheduleLocal(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, types.NoLocal, localDecision.Kind)

	remoteDecision, err := a.ScheduleRemote(ctx, []types.NodeKey{"node-9"})
	require.NoError(t, err)
	require.Equal(t, types.Run, remoteDecision.Kind)
	assert.Equal(t, types.NodeKey("node-9"), remoteDecision.Node)
}

func TestGetEmptyNodes(t *testing.T) {
	a, _ := newTestActor(t, []types.NodeKey{"node-1", "node-2"})

	task := &types.Task{
		TaskID: 1,
		Inputs: []types.Input{{URL: "blob://a", Host: "node-1"}},
	}
	a.NewTask(task, []types.NodeStat{{Load: 1, Input: task.Inputs[0]}})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	empty, err := a.GetEmptyNodes(ctx, []types.NodeKey{"node-1", "node-2"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.NodeKey{"node-2"}, empty)
}

func TestUpdateNodesReassignsOrphanedTasks(t *testing.T) {
	a, _ := newTestActor(t, []types.NodeKey{"node-1", "node-2"})

	task := &types.Task{
		TaskID: 1,
		Inputs: []types.Input{{URL: "blob://a", Host: "node-1"}},
	}
	a.NewTask(task, []types.NodeStat{{Load: 1, Input: task.Inputs[0]}})

	a.UpdateNodes([]types.NodeKey{"node-2", "node-3"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	queuedTotal, _, err := a.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, queuedTotal, "the orphaned task lands in NoPref since node-1 left the cluster")
}

func TestDieTerminatesActor(t *testing.T) {
	a, broker := newTestActor(t, []types.NodeKey{"node-1"})
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	a.Die("shutting down")

	select {
	case ev := <-sub:
		assert.Equal(t, events.EventActorTerminated, ev.Type)
		assert.Equal(t, "die", ev.Cause)
	case <-time.After(time.Second):
		t.Fatal("expected a termination event")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, _, err := a.GetStats(ctx)
	assert.ErrorIs(t, err, ErrTerminated)
}

func TestCoordinatorDeathTerminatesWithoutEvent(t *testing.T) {
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	coordinatorDone := make(chan struct{})
	a := New(Config{JobName: "wordcount", Nodes: []types.NodeKey{"node-1"}, Broker: broker, CoordinatorDone: coordinatorDone})
	go a.Run()

	close(coordinatorDone)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, _, err := a.GetStats(ctx)
	assert.ErrorIs(t, err, ErrTerminated)

	select {
	case <-sub:
		t.Fatal("coordinator death must not publish a termination event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNewTaskAbortsOnExhaustion(t *testing.T) {
	a, broker := newTestActor(t, []types.NodeKey{})
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	task := &types.Task{TaskID: 1, Inputs: []types.Input{{URL: "blob://a", Host: "node-1"}}}
	a.NewTask(task, nil)

	select {
	case ev := <-sub:
		assert.Equal(t, events.EventTaskExhausted, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected an exhaustion event")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, _, err := a.GetStats(ctx)
	assert.ErrorIs(t, err, ErrTerminated, "an unplaceable task terminates the whole job")
}

func TestTaskStartedAndLivenessRetirement(t *testing.T) {
	a, _ := newTestActor(t, []types.NodeKey{"node-1"})

	done := make(chan struct{})
	a.TaskStarted("node-1", "worker-1", done)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, running, err := a.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, running)

	close(done)
	time.Sleep(50 * time.Millisecond)

	_, running, err = a.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, running)
}

func TestSynchronousCallRespectsDeadline(t *testing.T) {
	// An actor whose Run loop is never started never drains its
	// mailbox, so a synchronous call must time out on ctx rather than
	// block forever.
	a := New(Config{JobName: "wordcount", Nodes: []types.NodeKey{"node-1"}})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err := a.GetStats(ctx)
	assert.ErrorIs(t, err, ErrDeadlineExceeded)
}
