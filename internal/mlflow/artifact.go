package mlflow

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/databricks/databricks-sdk-go/httpclient"
	"github.com/databricks/databricks-sdk-go/service/ml"
	"github.com/pkg/errors"
)

const (
	mlflowArtifactsScheme = "mlflow-artifacts:"
	dbfsTrackingPrefix    = "dbfs:/databricks/mlflow-tracking/"
)

type credentialsForWriteRequest struct {
	RunID string   `json:"run_id"`
	Path  []string `json:"path"`
}

type credentialsForWriteResponse struct {
	CredentialInfos []artifactCredential `json:"credential_infos"`
}

type artifactCredential struct {
	RunID     string `json:"run_id"`
	Path      string `json:"path"`
	SignedURI string `json:"signed_uri"`
	Type      string `json:"type"`
	Headers   []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"headers"`
}

// UploadArtifact uploads a local file to the run's artifact store. An empty
// artifactPath uses the file's base name.
func (c *Client) UploadArtifact(ctx context.Context, runID, filePath, artifactPath string) error {
	resp, err := c.client.Experiments.GetRun(ctx, ml.GetRunRequest{RunId: runID})
	if err != nil {
		return errors.Wrap(err, "failed to get run")
	}
	artifactURI := resp.Run.Info.ArtifactUri
	if artifactURI == "" {
		return errors.Errorf("artifact URI not found for run %s", runID)
	}

	if artifactPath == "" {
		artifactPath = filepath.Base(filePath)
	}

	return c.uploadTo(ctx, artifactURI, filePath, artifactPath)
}

func (c *Client) uploadTo(ctx context.Context, artifactURI, filePath, artifactPath string) error {
	switch {
	case strings.HasPrefix(artifactURI, mlflowArtifactsScheme):
		return c.uploadToMLflowArtifacts(ctx, artifactURI, filePath, artifactPath)
	case strings.HasPrefix(artifactURI, "dbfs:/"):
		return c.uploadToDBFS(ctx, artifactURI, filePath, artifactPath)
	case strings.HasPrefix(artifactURI, "file://"), strings.HasPrefix(artifactURI, "/"):
		return copyToLocal(artifactURI, filePath, artifactPath)
	default:
		return errors.Errorf("unsupported artifact URI scheme: %s", artifactURI)
	}
}

func (c *Client) uploadToMLflowArtifacts(ctx context.Context, artifactURI, filePath, artifactPath string) error {
	experimentID, runID, err := splitArtifactURI(artifactURI)
	if err != nil {
		return err
	}

	url := strings.TrimSuffix(c.config.TrackingURI, "/") +
		"/api/2.0/mlflow-artifacts/artifacts/" + experimentID + "/" + runID + "/artifacts/" + artifactPath

	return c.put(ctx, url, filePath, func(req *http.Request) {
		if c.config.IsDatabricks() && c.config.DatabricksToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.config.DatabricksToken)
		}
	})
}

func (c *Client) uploadToDBFS(ctx context.Context, artifactURI, filePath, artifactPath string) error {
	if c.apiClient == nil {
		return errors.New("DBFS artifacts require a Databricks tracking URI")
	}

	rest, ok := strings.CutPrefix(artifactURI, dbfsTrackingPrefix)
	parts := strings.Split(rest, "/")
	if !ok || len(parts) < 2 || parts[1] == "" {
		return errors.Errorf("invalid DBFS artifact URI format: %s", artifactURI)
	}

	var resp credentialsForWriteResponse
	err := c.apiClient.Do(ctx, http.MethodPost, "/api/2.0/mlflow/artifacts/credentials-for-write",
		httpclient.WithRequestData(credentialsForWriteRequest{RunID: parts[1], Path: []string{artifactPath}}),
		httpclient.WithResponseUnmarshal(&resp),
	)
	if err != nil {
		return errors.Wrap(err, "credentials-for-write request failed")
	}
	if len(resp.CredentialInfos) == 0 {
		return errors.Errorf("no credentials returned for path: %s", artifactPath)
	}

	cred := resp.CredentialInfos[0]
	err = c.put(ctx, cred.SignedURI, filePath, func(req *http.Request) {
		req.Header.Del("Transfer-Encoding")
		if strings.HasPrefix(cred.Type, "AZURE") {
			req.Header.Set("x-ms-blob-type", "BlockBlob")
		}
		for _, h := range cred.Headers {
			req.Header.Set(h.Name, h.Value)
		}
	})
	return errors.Wrapf(err, "failed to upload to %s signed URI", cred.Type)
}

// put streams filePath to url. decorate may add headers.
func (c *Client) put(ctx context.Context, url, filePath string, decorate func(*http.Request)) error {
	file, err := os.Open(filePath)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return errors.Wrap(err, "failed to get file info")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, file)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	if decorate != nil {
		decorate(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return errors.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// splitArtifactURI extracts experiment and run IDs from
// mlflow-artifacts:/{experiment_id}/{run_id}/artifacts.
func splitArtifactURI(artifactURI string) (string, string, error) {
	path := strings.TrimPrefix(strings.TrimPrefix(artifactURI, mlflowArtifactsScheme), "/")
	parts := strings.Split(path, "/")
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Errorf("invalid mlflow-artifacts URI format: %s", artifactURI)
	}
	return parts[0], parts[1], nil
}

func copyToLocal(artifactURI, filePath, artifactPath string) error {
	dest := filepath.Join(strings.TrimPrefix(artifactURI, "file://"), artifactPath)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", filepath.Dir(dest))
	}

	src, err := os.Open(filePath)
	if err != nil {
		return errors.Wrap(err, "failed to open source file")
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return errors.Wrap(err, "failed to create destination file")
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return errors.Wrap(err, "failed to copy file content")
	}
	return dst.Close()
}
