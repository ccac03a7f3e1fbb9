package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/fairshard/jobsched/pkg/arbiter"
	"github.com/fairshard/jobsched/pkg/events"
	"github.com/fairshard/jobsched/pkg/jobscheduler"
	"github.com/fairshard/jobsched/pkg/log"
	"github.com/fairshard/jobsched/pkg/types"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a scripted scenario against one or more job actors",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().String("scenario", "", "Path to a scenario YAML file")
	simulateCmd.MarkFlagRequired("scenario")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("scenario")
	scenario, err := loadScenario(path)
	if err != nil {
		return err
	}

	nodes := make([]types.NodeKey, len(scenario.Nodes))
	for i, n := range scenario.Nodes {
		nodes[i] = types.NodeKey(n)
	}

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	go logEvents(sub)

	ar := arbiter.New()
	jobs := make(map[string]*jobscheduler.JobScheduler, len(scenario.Jobs))
	rng := rand.New(rand.NewSource(1))

	for _, jc := range scenario.Jobs {
		job := jobscheduler.New(jobscheduler.Config{
			JobName: jc.Name,
			Nodes:   nodes,
			Broker:  broker,
		})
		go job.Run()
		jobs[jc.Name] = job
		ar.Register(jc.Name, job)

		for _, tc := range jc.Tasks {
			task := toTask(tc)
			job.NewTask(task, synthesizeNodeStats(task, rng))
		}
	}

	ctx := context.Background()
	for _, step := range scenario.Steps {
		if step.ScheduleJob != "" {
			job, ok := jobs[step.ScheduleJob]
			if !ok {
				return fmt.Errorf("simulate: unknown job %q in step", step.ScheduleJob)
			}
			available := toNodeKeys(step.AvailableOn)
			decision, err := ar.ScheduleRound(ctx, step.ScheduleJob, available)
			if err != nil {
				log.Logger.Error().Str("job", step.ScheduleJob).Err(err).Msg("schedule round failed")
				continue
			}
			log.Logger.Info().Str("job", step.ScheduleJob).Str("decision", decision.String()).Msg("schedule round")
		}
		if len(step.UpdateNodes) > 0 {
			newNodes := toNodeKeys(step.UpdateNodes)
			for _, job := range jobs {
				job.UpdateNodes(newNodes)
			}
		}
	}

	// Give the mailboxes a moment to drain before the process exits, so
	// the last batch of events reaches the log before we tear down.
	time.Sleep(100 * time.Millisecond)
	return nil
}

func toTask(tc TaskConfig) *types.Task {
	inputs := make([]types.Input, len(tc.Inputs))
	for i, in := range tc.Inputs {
		inputs[i] = types.Input{URL: in.URL, Host: types.NodeKey(in.Host)}
	}
	blacklist := make(map[types.NodeKey]struct{}, len(tc.Blacklist))
	for _, n := range tc.Blacklist {
		blacklist[types.NodeKey(n)] = struct{}{}
	}
	return &types.Task{
		TaskID:      types.TaskID(tc.ID),
		Mode:        tc.Mode,
		Inputs:      inputs,
		Blacklist:   blacklist,
		ForceLocal:  tc.ForceLocal,
		ForceRemote: tc.ForceRemote,
	}
}

// synthesizeNodeStats pairs each of task's inputs with a uniform random
// load, the same way assign.Reassign seeds the engine on a topology
// change, so the harness actually drives FindPref's data-local path
// instead of every task falling straight through to NOPREF.
func synthesizeNodeStats(task *types.Task, rng *rand.Rand) []types.NodeStat {
	stats := make([]types.NodeStat, len(task.Inputs))
	for i, in := range task.Inputs {
		stats[i] = types.NodeStat{
			Load:  1 + rng.Float64()*99,
			Input: in,
		}
	}
	return stats
}

func toNodeKeys(nodes []string) []types.NodeKey {
	out := make([]types.NodeKey, len(nodes))
	for i, n := range nodes {
		out[i] = types.NodeKey(n)
	}
	return out
}

func logEvents(sub events.Subscriber) {
	for ev := range sub {
		logger := log.WithJobName(ev.JobName)
		logger.Info().
			Str("type", string(ev.Type)).
			Int64("task_id", int64(ev.TaskID)).
			Str("cause", ev.Cause).
			Msg(ev.Message)
	}
}
