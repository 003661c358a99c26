package models

import (
	"strconv"
	"time"
)

// RunConfig describes a tracked run before it is created on the server.
type RunConfig struct {
	ExperimentID string            `json:"experiment_id"`
	RunName      string            `json:"run_name"`
	Tags         map[string]string `json:"tags,omitempty"`
	Params       map[string]string `json:"params,omitempty"`
}

type RunInfo struct {
	RunID        string     `json:"run_id"`
	ExperimentID string     `json:"experiment_id"`
	RunName      string     `json:"run_name"`
	Status       RunStatus  `json:"status"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
}

type RunStatus string

const (
	RunStatusRunning  RunStatus = "RUNNING"
	RunStatusFinished RunStatus = "FINISHED"
	RunStatusFailed   RunStatus = "FAILED"
	RunStatusKilled   RunStatus = "KILLED"
)

// Terminal reports whether the run has ended.
func (s RunStatus) Terminal() bool {
	return s == RunStatusFinished || s == RunStatusFailed || s == RunStatusKilled
}

// TrackingParams are the run parameters logged for a configuration.
func (c Configuration) TrackingParams() map[string]string {
	return map[string]string{
		"dataset":       c.Dataset,
		"epochs":        strconv.Itoa(c.Epochs),
		"learning_rate": FormatDecimal(c.LearningRate),
	}
}
