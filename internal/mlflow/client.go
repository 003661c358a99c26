package mlflow

import (
	"net/http"

	"github.com/databricks/databricks-sdk-go"
	"github.com/databricks/databricks-sdk-go/httpclient"
	"github.com/pkg/errors"

	"github.com/imishinist/tuneparams/internal/config"
)

type Client struct {
	client    *databricks.WorkspaceClient
	apiClient *httpclient.ApiClient
	http      *http.Client
	config    *config.Config
}

func NewClient(cfg *config.Config) (*Client, error) {
	if err := cfg.ValidateTracking(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	var databricksConfig *databricks.Config

	if cfg.IsDatabricks() {
		databricksConfig = &databricks.Config{}

		if cfg.TrackingURI == "databricks" {
			if cfg.DatabricksHost != "" {
				databricksConfig.Host = cfg.DatabricksHost
			}
		} else if profile := cfg.GetDatabricksProfile(); profile != "" {
			databricksConfig.Profile = profile
		} else {
			databricksConfig.Host = cfg.TrackingURI
		}

		// token overrides the profile
		if cfg.DatabricksToken != "" {
			databricksConfig.Token = cfg.DatabricksToken
		}

		if databricksConfig.Host == "" && databricksConfig.Profile == "" {
			return nil, errors.New("Databricks host or profile is required when using Databricks MLflow. Set TUNEPARAMS_DATABRICKS_HOST, use a full Databricks URL as tracking URI, or specify a profile with databricks://{profile}")
		}
	} else {
		// plain MLflow servers ignore the token but the SDK insists on one
		databricksConfig = &databricks.Config{
			Host:  cfg.TrackingURI,
			Token: "dummy-token-for-regular-mlflow",
		}
	}

	client, err := databricks.NewWorkspaceClient(databricksConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create MLflow client")
	}

	c := &Client{
		client: client,
		http:   &http.Client{},
		config: cfg,
	}

	if cfg.IsDatabricks() {
		apiClient, err := client.Config.NewApiClient()
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Databricks API client")
		}
		c.apiClient = apiClient
	}

	return c, nil
}
