package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imishinist/tuneparams/internal/config"
	"github.com/imishinist/tuneparams/internal/knn"
	"github.com/imishinist/tuneparams/internal/models"
)

var knnCmd = &cobra.Command{
	Use:   "knn",
	Short: "Sweep the neighbor count of a KNN classifier",
	Long: `Fit a k-nearest-neighbor classifier on raw pixels for every class pair
and neighbor count, and write a comparison figure and a text dump of the test
error curves.`,
	RunE: runKNN,
}

func init() {
	rootCmd.AddCommand(knnCmd)

	knnCmd.Flags().StringArray("pair", nil, "Class pair in A,B format (repeatable; default: the four image pairs)")
	knnCmd.Flags().Int("k-min", 0, "Smallest neighbor count (default: 1)")
	knnCmd.Flags().Int("k-max", 0, "Largest neighbor count (default: 19)")
}

func runKNN(cmd *cobra.Command, args []string) error {
	cfg := config.New()

	plan, err := buildKNNPlan(cmd)
	if err != nil {
		return err
	}

	tuner := &knn.Tuner{Root: cfg.KNNRoot}
	curves, err := tuner.Run(plan)
	if err != nil {
		return err
	}

	plotPath, dumpPath, err := knn.Save(cfg.OutputDir, curves)
	if err != nil {
		return err
	}

	for _, c := range curves {
		k, e := bestNeighbor(c)
		fmt.Printf("%s\tbest k %d (test error %s)\n", c.Pair, k, models.FormatDecimal(e))
	}
	fmt.Printf("Plot: %s\n", plotPath)
	fmt.Printf("Dump: %s\n", dumpPath)

	return nil
}

// buildKNNPlan layers flags over the plan file over the defaults.
func buildKNNPlan(cmd *cobra.Command) (models.KNNPlan, error) {
	plan := models.DefaultKNNPlan()

	file, err := loadPlanFile()
	if err != nil {
		return plan, err
	}
	plan = mergeKNNPlan(plan, file.KNN)

	if cmd.Flags().Changed("pair") {
		raw, _ := cmd.Flags().GetStringArray("pair")
		plan.Pairs = make([]models.Pair, 0, len(raw))
		for _, s := range raw {
			p, err := parsePair(s)
			if err != nil {
				return plan, err
			}
			plan.Pairs = append(plan.Pairs, p)
		}
	}
	if cmd.Flags().Changed("k-min") {
		plan.Neighbors.Min, _ = cmd.Flags().GetInt("k-min")
	}
	if cmd.Flags().Changed("k-max") {
		plan.Neighbors.Max, _ = cmd.Flags().GetInt("k-max")
	}

	return plan, plan.Validate()
}

// mergeKNNPlan overrides the fields of plan that file sets.
func mergeKNNPlan(plan models.KNNPlan, file *models.KNNPlan) models.KNNPlan {
	if file == nil {
		return plan
	}
	if len(file.Pairs) > 0 {
		plan.Pairs = file.Pairs
	}
	if file.Neighbors.Min > 0 {
		plan.Neighbors.Min = file.Neighbors.Min
	}
	if file.Neighbors.Max > 0 {
		plan.Neighbors.Max = file.Neighbors.Max
	}
	return plan
}

// bestNeighbor returns the smallest k with the lowest error.
func bestNeighbor(c knn.Curve) (int, float64) {
	best := 0
	for i := range c.Err {
		if c.Err[i] < c.Err[best] {
			best = i
		}
	}
	return c.K[best], c.Err[best]
}
