package mlflow

import (
	"context"
	"sort"
	"time"

	"github.com/databricks/databricks-sdk-go/service/ml"
	"github.com/pkg/errors"

	"github.com/imishinist/tuneparams/internal/models"
)

func (c *Client) CreateRun(ctx context.Context, cfg *models.RunConfig) (*models.RunInfo, error) {
	if cfg.ExperimentID == "" {
		return nil, errors.New("experiment ID must be provided")
	}

	runName := cfg.RunName
	if runName == "" {
		runName = "run-" + time.Now().Format("2006-01-02-15-04-05")
	}

	keys := make([]string, 0, len(cfg.Tags))
	for key := range cfg.Tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tags := make([]ml.RunTag, 0, len(keys)+1)
	for _, key := range keys {
		tags = append(tags, ml.RunTag{Key: key, Value: cfg.Tags[key]})
	}
	tags = append(tags, ml.RunTag{Key: "mlflow.runName", Value: runName})

	startTime := time.Now()
	resp, err := c.client.Experiments.CreateRun(ctx, ml.CreateRun{
		ExperimentId: cfg.ExperimentID,
		RunName:      runName,
		StartTime:    startTime.UnixMilli(),
		Tags:         tags,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create run")
	}

	return &models.RunInfo{
		RunID:        resp.Run.Info.RunId,
		ExperimentID: cfg.ExperimentID,
		RunName:      runName,
		Status:       models.RunStatusRunning,
		StartTime:    startTime,
	}, nil
}

func (c *Client) UpdateRun(ctx context.Context, runID string, status models.RunStatus) error {
	var mlStatus ml.UpdateRunStatus
	switch status {
	case models.RunStatusRunning:
		mlStatus = ml.UpdateRunStatusRunning
	case models.RunStatusFailed:
		mlStatus = ml.UpdateRunStatusFailed
	case models.RunStatusKilled:
		mlStatus = ml.UpdateRunStatusKilled
	default:
		mlStatus = ml.UpdateRunStatusFinished
	}

	updateRun := ml.UpdateRun{
		RunId:  runID,
		Status: mlStatus,
	}
	if status.Terminal() {
		updateRun.EndTime = time.Now().UnixMilli()
	}

	if _, err := c.client.Experiments.UpdateRun(ctx, updateRun); err != nil {
		return errors.Wrap(err, "failed to update run")
	}

	return nil
}
