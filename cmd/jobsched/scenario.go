package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario describes a cluster and a set of jobs to drive through it.
// It is intentionally small: enough to exercise assignment, the two
// scheduling phases, and reassignment on topology change without
// needing a real task runtime behind it.
type Scenario struct {
	Nodes []string     `yaml:"nodes"`
	Jobs  []JobConfig  `yaml:"jobs"`
	Steps []StepConfig `yaml:"steps"`
}

// JobConfig seeds one job actor with its initial task batch.
type JobConfig struct {
	Name  string       `yaml:"name"`
	Tasks []TaskConfig `yaml:"tasks"`
}

// TaskConfig is one task to submit to a job at startup.
type TaskConfig struct {
	ID          int64         `yaml:"id"`
	Mode        string        `yaml:"mode"`
	Inputs      []InputConfig `yaml:"inputs"`
	ForceLocal  bool          `yaml:"forceLocal"`
	ForceRemote bool          `yaml:"forceRemote"`
	Blacklist   []string      `yaml:"blacklist"`
}

// InputConfig is one redundant replica location for a task.
type InputConfig struct {
	URL  string `yaml:"url"`
	Host string `yaml:"host"`
}

// StepConfig is one scripted action the simulation runs in order: a
// scheduling round for a job, or a topology change across the cluster.
type StepConfig struct {
	ScheduleJob string   `yaml:"scheduleJob"`
	AvailableOn []string `yaml:"availableOn"`
	UpdateNodes []string `yaml:"updateNodes"`
}

func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &s, nil
}
