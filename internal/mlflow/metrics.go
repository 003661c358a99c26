package mlflow

import (
	"context"
	"time"

	"github.com/databricks/databricks-sdk-go/service/ml"
	"github.com/pkg/errors"

	"github.com/imishinist/tuneparams/internal/models"
)

func (c *Client) LogMetric(ctx context.Context, runID string, metric models.Metric) error {
	logMetric := ml.LogMetric{
		RunId: runID,
		Key:   metric.Key,
		Value: metric.Value,
		Step:  metric.Step,
	}

	if metric.Timestamp.IsZero() {
		logMetric.Timestamp = time.Now().UnixMilli()
	} else {
		logMetric.Timestamp = metric.Timestamp.UnixMilli()
	}

	if err := c.client.Experiments.LogMetric(ctx, logMetric); err != nil {
		return errors.Wrapf(err, "failed to log metric %s", metric.Key)
	}

	return nil
}

func (c *Client) LogMetrics(ctx context.Context, runID string, metrics []models.Metric) error {
	for _, metric := range metrics {
		if err := c.LogMetric(ctx, runID, metric); err != nil {
			return err
		}
	}

	return nil
}

// EpochMetrics expands the four curves of m into one metric per epoch,
// stepped by epoch number, plus the best validation accuracy.
func EpochMetrics(m models.RunMetrics, at time.Time) []models.Metric {
	series := m.Series()
	metrics := make([]models.Metric, 0, len(series)*m.Epochs()+1)
	for _, s := range series {
		for i, v := range s.Values {
			metrics = append(metrics, models.Metric{
				Key:       s.Name,
				Value:     v,
				Timestamp: at,
				Step:      int64(i + 1),
			})
		}
	}

	if epoch, acc := m.Best(); epoch > 0 {
		metrics = append(metrics, models.Metric{
			Key:       "best_test_acc",
			Value:     acc,
			Timestamp: at,
			Step:      int64(epoch),
		})
	}
	return metrics
}
