package cmd

import (
	"flag"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"

	"github.com/imishinist/tuneparams/internal/config"
	"github.com/imishinist/tuneparams/internal/device"
)

var rootCmd = &cobra.Command{
	Use:   "tuneparams",
	Short: "Hyperparameter sweeps for image-pair classifiers",
	Long: `A command line tool that sweeps hyperparameters for small image classifiers.
The cnn command fine-tunes a classification head over datasets and learning rates,
the knn command sweeps the neighbor count of a nearest-neighbor classifier, and
publish mirrors previously written results to an MLflow tracking server.`,
	SilenceUsage:      true,
	PersistentPreRunE: resolveDevice,
}

// computeDevice is resolved once before any command runs.
var computeDevice device.Device

func Execute() error {
	defer klog.Flush()
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	flags := rootCmd.PersistentFlags()
	flags.String("data-root", "", "Root of the CNN datasets (<root>/<dataset>/{train,val}/<class>)")
	flags.String("knn-root", "", "Root of the KNN images (<root>/{train,val}/<class>)")
	flags.String("output-dir", "", "Existing directory for plots and dumps")
	flags.String("compute-target", "", "Compute target (cpu/accelerator)")
	flags.String("failure-policy", "", "What to do when a configuration fails (abort/continue)")
	flags.Int64("seed", 0, "Seed for shuffling and initialisation (0: unseeded)")
	flags.Int("batch-size", 0, "Mini-batch size")
	flags.Int("image-size", 0, "Side length images are resized to")
	flags.String("plan", "", "Sweep plan file (YAML or JSON)")
	flags.String("tracking-uri", "", "MLflow tracking URI (empty disables tracking)")
	flags.String("experiment-id", "", "MLflow experiment ID")

	for key, name := range map[string]string{
		"data_root":      "data-root",
		"knn_root":       "knn-root",
		"output_dir":     "output-dir",
		"compute_target": "compute-target",
		"failure_policy": "failure-policy",
		"seed":           "seed",
		"batch_size":     "batch-size",
		"image_size":     "image-size",
		"tracking_uri":   "tracking-uri",
		"experiment_id":  "experiment-id",
		"plan":           "plan",
	} {
		viper.BindPFlag(key, flags.Lookup(name))
	}
}

func initConfig() {
	viper.SetEnvPrefix("TUNEPARAMS")
	viper.AutomaticEnv()

	// Databricks credentials are also read from the SDK's own variables
	viper.BindEnv("databricks_host", "TUNEPARAMS_DATABRICKS_HOST", "DATABRICKS_HOST")
	viper.BindEnv("databricks_token", "TUNEPARAMS_DATABRICKS_TOKEN", "DATABRICKS_TOKEN")

	config.SetDefaults(viper.GetViper())
}

func resolveDevice(cmd *cobra.Command, args []string) error {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		return err
	}

	d, err := device.Resolve(cfg.ComputeTarget)
	if err != nil {
		return err
	}
	computeDevice = d
	return nil
}
