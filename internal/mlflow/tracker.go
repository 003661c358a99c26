package mlflow

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/imishinist/tuneparams/internal/models"
)

// TrackingAPI is the subset of Client a Tracker drives.
type TrackingAPI interface {
	CreateRun(ctx context.Context, cfg *models.RunConfig) (*models.RunInfo, error)
	UpdateRun(ctx context.Context, runID string, status models.RunStatus) error
	LogParams(ctx context.Context, runID string, params map[string]string) error
	LogMetrics(ctx context.Context, runID string, metrics []models.Metric) error
	UploadArtifact(ctx context.Context, runID, filePath, artifactPath string) error
}

const (
	TagSweepID = "tuneparams.sweep_id"
	TagDevice  = "tuneparams.device"
	TagDataset = "tuneparams.dataset"
	TagSource  = "tuneparams.source"
)

// Tracker mirrors result records as MLflow runs.
type Tracker struct {
	API          TrackingAPI
	ExperimentID string
	// Source is tagged on every run, e.g. "sweep" or "publish".
	Source string
	// Tags are added to every run. Record tags take precedence.
	Tags map[string]string
	// Now stamps metrics. Defaults to time.Now.
	Now func() time.Time
}

func NewTracker(api TrackingAPI, experimentID, source string) *Tracker {
	return &Tracker{API: api, ExperimentID: experimentID, Source: source}
}

// Track creates one run for rec, logs its params, per-epoch metrics and
// artifacts, then closes it. The run is marked FAILED if any step fails.
func (t *Tracker) Track(ctx context.Context, rec models.ResultRecord) (err error) {
	tags := make(map[string]string, len(t.Tags)+4)
	for k, v := range t.Tags {
		tags[k] = v
	}
	tags[TagDataset] = rec.Config.Dataset
	if rec.SweepID != "" {
		tags[TagSweepID] = rec.SweepID
	}
	if rec.Device != "" {
		tags[TagDevice] = rec.Device
	}
	if t.Source != "" {
		tags[TagSource] = t.Source
	}

	run, err := t.API.CreateRun(ctx, &models.RunConfig{
		ExperimentID: t.ExperimentID,
		RunName:      rec.Config.BaseName(),
		Tags:         tags,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to track %s", rec.Config)
	}

	defer func() {
		status := models.RunStatusFinished
		if err != nil {
			status = models.RunStatusFailed
		}
		if uerr := t.API.UpdateRun(ctx, run.RunID, status); uerr != nil && err == nil {
			err = uerr
		}
	}()

	if err := t.API.LogParams(ctx, run.RunID, rec.Config.TrackingParams()); err != nil {
		return err
	}

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	if err := t.API.LogMetrics(ctx, run.RunID, EpochMetrics(rec.Metrics, now())); err != nil {
		return err
	}

	for _, path := range []string{rec.DumpPath, rec.PlotPath} {
		if path == "" {
			continue
		}
		if err := t.API.UploadArtifact(ctx, run.RunID, path, ""); err != nil {
			return errors.Wrapf(err, "failed to upload %s", path)
		}
	}

	klog.V(1).InfoS("Tracked run", "run", run.RunName, "runID", run.RunID, "experiment", t.ExperimentID)
	return nil
}
