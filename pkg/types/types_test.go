package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskValidate(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr bool
	}{
		{
			name:    "valid task",
			task:    Task{TaskID: 1, Inputs: []Input{{URL: "blob://a", Host: "node-1"}}},
			wantErr: false,
		},
		{
			name:    "no inputs",
			task:    Task{TaskID: 2},
			wantErr: true,
		},
		{
			name: "force_local and force_remote both set",
			task: Task{
				TaskID:      3,
				Inputs:      []Input{{URL: "blob://a", Host: "node-1"}},
				ForceLocal:  true,
				ForceRemote: true,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTaskHostsAndBlacklist(t *testing.T) {
	task := Task{
		Inputs: []Input{
			{URL: "blob://a", Host: "node-1"},
			{URL: "blob://b", Host: "node-2"},
		},
		Blacklist: map[NodeKey]struct{}{"node-2": {}},
	}

	hosts := task.Hosts()
	assert.Len(t, hosts, 2)
	assert.Contains(t, hosts, NodeKey("node-1"))
	assert.Contains(t, hosts, NodeKey("node-2"))

	assert.False(t, task.IsBlacklisted("node-1"))
	assert.True(t, task.IsBlacklisted("node-2"))
}

func TestBucketPushPopRemove(t *testing.T) {
	b := NewBucket()
	assert.Equal(t, 0, b.Queued)
	assert.Equal(t, 0, b.Lifetime)

	t1 := &Task{TaskID: 1}
	t2 := &Task{TaskID: 2}
	b.PushFront(t1)
	b.PushFront(t2)

	require.Equal(t, 2, b.Queued)
	assert.Equal(t, 2, b.Lifetime)
	assert.Equal(t, TaskID(2), b.Tasks[0].TaskID, "newest pushed is at front")

	popped := b.PopFront()
	require.NotNil(t, popped)
	assert.Equal(t, TaskID(2), popped.TaskID)
	assert.Equal(t, 1, b.Queued)
	assert.Equal(t, 2, b.Lifetime, "Lifetime never decreases on pop")

	ok := b.Remove(1)
	assert.True(t, ok)
	assert.Equal(t, 0, b.Queued)
	assert.Equal(t, 2, b.Lifetime)

	assert.False(t, b.Remove(999))
}

func TestBucketPopFrontEmpty(t *testing.T) {
	b := NewBucket()
	assert.Nil(t, b.PopFront())
}

func TestDecisionConstructors(t *testing.T) {
	task := &Task{TaskID: 7}

	run := RunDecision("node-1", task)
	assert.Equal(t, Run, run.Kind)
	assert.Equal(t, NodeKey("node-1"), run.Node)
	assert.Same(t, task, run.Task)

	assert.Equal(t, NoNodes, NoNodesDecision().Kind)
	assert.Equal(t, NoLocal, NoLocalDecision().Kind)
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "NoLocal", NoLocalDecision().String())
	assert.Equal(t, "NoNodes", NoNodesDecision().String())
	assert.Equal(t, "Run(node=node-1, task=7)", RunDecision("node-1", &Task{TaskID: 7}).String())
}
