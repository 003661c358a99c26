package mlflow

import (
	"context"
	"sort"

	"github.com/databricks/databricks-sdk-go/service/ml"
	"github.com/pkg/errors"
)

func (c *Client) LogParam(ctx context.Context, runID string, key string, value string) error {
	err := c.client.Experiments.LogParam(ctx, ml.LogParam{
		RunId: runID,
		Key:   key,
		Value: value,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to log parameter %s", key)
	}

	return nil
}

// LogParams logs params in key order.
func (c *Client) LogParams(ctx context.Context, runID string, params map[string]string) error {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := c.LogParam(ctx, runID, key, params[key]); err != nil {
			return err
		}
	}

	return nil
}
