package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/imishinist/tuneparams/internal/config"
	"github.com/imishinist/tuneparams/internal/mlflow"
	"github.com/imishinist/tuneparams/internal/models"
	"github.com/imishinist/tuneparams/internal/sink"
	"github.com/imishinist/tuneparams/internal/sweep"
)

var cnnCmd = &cobra.Command{
	Use:   "cnn",
	Short: "Sweep learning rates for the fine-tuned CNN classifier",
	Long: `Train a classification head on top of a frozen backbone for every
dataset and learning rate, keep the best epoch by validation accuracy, and
write an accuracy/error plot and a text dump per configuration.`,
	RunE: runCNN,
}

func init() {
	rootCmd.AddCommand(cnnCmd)

	cnnCmd.Flags().StringSlice("dataset", nil, "Datasets to sweep (default: the four image pairs)")
	cnnCmd.Flags().Int("epochs", 0, "Epochs per run (default: 10)")
	cnnCmd.Flags().Float64Slice("lr", nil, "Learning rates to sweep (default: 0.0001,0.001,0.01)")
}

func runCNN(cmd *cobra.Command, args []string) error {
	cfg := config.New()

	plan, err := buildSweepPlan(cmd)
	if err != nil {
		return err
	}

	if err := sink.CheckDir(cfg.OutputDir); err != nil {
		return err
	}

	policy, err := sweep.ParsePolicy(cfg.FailurePolicy)
	if err != nil {
		return err
	}

	driver := &sweep.Driver{
		Runner: &sweep.TransferRunner{
			DataRoot:  cfg.DataRoot,
			BatchSize: cfg.BatchSize,
			ImageSize: cfg.ImageSize,
			Seed:      cfg.Seed,
		},
		Sink:    sink.NewFileSink(cfg.OutputDir),
		Policy:  policy,
		SweepID: uuid.NewString(),
		Device:  computeDevice.String(),
	}

	if cfg.TrackingEnabled() {
		client, err := mlflow.NewClient(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to create MLflow client")
		}
		driver.Tracker = mlflow.NewTracker(client, cfg.ExperimentID, "sweep")
	}

	progress, wait := printProgress(os.Stdout, len(plan.Datasets)*len(plan.LearningRates))
	driver.ProgressChan = progress

	klog.InfoS("Starting sweep", "sweep", driver.SweepID, "device", driver.Device, "policy", policy)
	records, runErr := driver.Run(context.Background(), plan)
	close(progress)
	wait()

	printSummary(driver.SweepID, records)
	return runErr
}

// buildSweepPlan layers flags over the plan file over the defaults.
func buildSweepPlan(cmd *cobra.Command) (models.SweepPlan, error) {
	plan := models.DefaultSweepPlan()

	file, err := loadPlanFile()
	if err != nil {
		return plan, err
	}
	plan = mergeSweepPlan(plan, file.CNN)

	if cmd.Flags().Changed("dataset") {
		plan.Datasets, _ = cmd.Flags().GetStringSlice("dataset")
	}
	if cmd.Flags().Changed("epochs") {
		plan.Epochs, _ = cmd.Flags().GetInt("epochs")
	}
	if cmd.Flags().Changed("lr") {
		plan.LearningRates, _ = cmd.Flags().GetFloat64Slice("lr")
	}

	return plan, nil
}

// mergeSweepPlan overrides the fields of plan that file sets.
func mergeSweepPlan(plan models.SweepPlan, file *models.SweepPlan) models.SweepPlan {
	if file == nil {
		return plan
	}
	if len(file.Datasets) > 0 {
		plan.Datasets = file.Datasets
	}
	if file.Epochs > 0 {
		plan.Epochs = file.Epochs
	}
	if len(file.LearningRates) > 0 {
		plan.LearningRates = file.LearningRates
	}
	return plan
}

// printProgress prints one line per update to w. The channel holds every
// update of a sweep of size total, so the driver's non-blocking sends never
// drop one. wait returns once the channel is closed and drained.
func printProgress(w io.Writer, total int) (chan sweep.Progress, func()) {
	if total < 1 {
		total = 1
	}
	progress := make(chan sweep.Progress, total)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			status := "ok"
			if p.Err != nil {
				status = "failed"
			}
			fmt.Fprintf(w, "[%d/%d] %s %s\n", p.Index, p.Total, p.Config.BaseName(), status)
		}
	}()
	return progress, func() { <-done }
}

func printSummary(sweepID string, records []models.ResultRecord) {
	fmt.Printf("Sweep ID: %s\n", sweepID)
	for _, rec := range records {
		fmt.Printf("%s\tbest val acc %s (epoch %d)\t%s\n",
			rec.Config.BaseName(), models.FormatDecimal(rec.BestValAcc), rec.BestEpoch, rec.Elapsed)
	}
}
