package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Databricks domain suffixes for URL detection
var databricksDomains = []string{
	".cloud.databricks.com",
	".azuredatabricks.net",
	".gcp.databricks.com",
}

var (
	validComputeTargets = map[string]bool{
		"cpu": true, "accelerator": true,
	}
	validFailurePolicies = map[string]bool{
		"abort": true, "continue": true,
	}
)

// Defaults applied to viper before flags and environment are read.
var Defaults = map[string]any{
	"data_root":      "../data/images/Exp2_TuneParams",
	"knn_root":       "../data/images/CNN-1",
	"output_dir":     "output",
	"compute_target": "cpu",
	"failure_policy": "abort",
	"seed":           0,
	"batch_size":     4,
	"image_size":     32,
}

type Config struct {
	DataRoot      string
	KNNRoot       string
	OutputDir     string
	ComputeTarget string
	FailurePolicy string
	Seed          int64
	BatchSize     int
	ImageSize     int

	TrackingURI     string
	ExperimentID    string
	DatabricksHost  string
	DatabricksToken string
}

// SetDefaults registers Defaults on v.
func SetDefaults(v *viper.Viper) {
	for key, value := range Defaults {
		v.SetDefault(key, value)
	}
}

func New() *Config {
	return FromViper(viper.GetViper())
}

func FromViper(v *viper.Viper) *Config {
	return &Config{
		DataRoot:        v.GetString("data_root"),
		KNNRoot:         v.GetString("knn_root"),
		OutputDir:       v.GetString("output_dir"),
		ComputeTarget:   strings.ToLower(v.GetString("compute_target")),
		FailurePolicy:   strings.ToLower(v.GetString("failure_policy")),
		Seed:            v.GetInt64("seed"),
		BatchSize:       v.GetInt("batch_size"),
		ImageSize:       v.GetInt("image_size"),
		TrackingURI:     v.GetString("tracking_uri"),
		ExperimentID:    v.GetString("experiment_id"),
		DatabricksHost:  v.GetString("databricks_host"),
		DatabricksToken: v.GetString("databricks_token"),
	}
}

func (c *Config) Validate() error {
	if !validComputeTargets[c.ComputeTarget] {
		return errors.Errorf("invalid compute target: %s (valid: cpu, accelerator)", c.ComputeTarget)
	}

	if !validFailurePolicies[c.FailurePolicy] {
		return errors.Errorf("invalid failure policy: %s (valid: abort, continue)", c.FailurePolicy)
	}

	if c.BatchSize <= 0 {
		return errors.Errorf("batch size must be positive, got %d", c.BatchSize)
	}

	if c.ImageSize <= 0 {
		return errors.Errorf("image size must be positive, got %d", c.ImageSize)
	}

	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}

	return nil
}

// ValidateTracking checks the settings needed to talk to a tracking server.
func (c *Config) ValidateTracking() error {
	if c.TrackingURI == "" {
		return errors.New("tracking URI is required")
	}
	if c.ExperimentID == "" {
		return errors.New("experiment ID is required when tracking is enabled")
	}
	return nil
}

// TrackingEnabled reports whether runs should be mirrored to MLflow.
func (c *Config) TrackingEnabled() bool {
	return c.TrackingURI != ""
}

// IsDatabricks checks if the tracking URI points to Databricks
func (c *Config) IsDatabricks() bool {
	if c.TrackingURI == "databricks" {
		return true
	}

	if strings.HasPrefix(c.TrackingURI, "databricks://") {
		return true
	}

	if strings.HasPrefix(c.TrackingURI, "https://") {
		return isDatabricksHost(hostOf(c.TrackingURI))
	}

	return false
}

func hostOf(url string) string {
	host := strings.TrimPrefix(url, "https://")
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	return host
}

func isDatabricksHost(host string) bool {
	for _, domain := range databricksDomains {
		if strings.HasSuffix(host, domain) {
			return true
		}
	}
	return false
}

// GetDatabricksProfile extracts the profile name from databricks://{profile} URI
func (c *Config) GetDatabricksProfile() string {
	if !strings.HasPrefix(c.TrackingURI, "databricks://") {
		return ""
	}

	profile := strings.TrimPrefix(c.TrackingURI, "databricks://")
	if idx := strings.Index(profile, "/"); idx != -1 {
		profile = profile[:idx]
	}
	return profile
}
