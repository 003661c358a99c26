package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"k8s.io/klog/v2"

	"github.com/imishinist/tuneparams/internal/config"
	"github.com/imishinist/tuneparams/internal/mlflow"
	"github.com/imishinist/tuneparams/internal/parser"
)

var publishCmd = &cobra.Command{
	Use:   "publish <dump.txt>...",
	Short: "Publish written results to MLflow",
	Long: `Parse result dumps written by the cnn command and mirror each one as an
MLflow run: configuration params, per-epoch metrics, and the dump and plot as
artifacts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().StringArray("tag", []string{}, "Tags in key=value format")
	publishCmd.Flags().String("sweep-id", "", "Sweep ID to tag the runs with")
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg := config.New()
	if !cfg.TrackingEnabled() {
		return errors.New("tracking URI must be specified via --tracking-uri flag or TUNEPARAMS_TRACKING_URI environment variable")
	}

	client, err := mlflow.NewClient(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to create MLflow client")
	}

	rawTags, _ := cmd.Flags().GetStringArray("tag")
	tags, err := parseTags(rawTags)
	if err != nil {
		return err
	}
	sweepID, _ := cmd.Flags().GetString("sweep-id")

	tracker := mlflow.NewTracker(client, cfg.ExperimentID, "publish")
	tracker.Tags = tags

	ctx := context.Background()
	var errs error
	for _, path := range args {
		rec, err := parser.LoadRecord(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		rec.SweepID = sweepID

		if err := tracker.Track(ctx, rec); err != nil {
			klog.ErrorS(err, "Failed to publish", "dump", path)
			errs = multierr.Append(errs, errors.Wrapf(err, "failed to publish %s", path))
			continue
		}
		fmt.Printf("Published %s\n", rec.Config.BaseName())
	}

	return errs
}
