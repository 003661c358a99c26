package mlflow

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imishinist/tuneparams/internal/config"
	"github.com/imishinist/tuneparams/internal/models"
)

type fakeAPI struct {
	created   []*models.RunConfig
	statuses  []models.RunStatus
	params    map[string]string
	metrics   []models.Metric
	artifacts []string

	uploadErr error
}

func (f *fakeAPI) CreateRun(_ context.Context, cfg *models.RunConfig) (*models.RunInfo, error) {
	f.created = append(f.created, cfg)
	return &models.RunInfo{RunID: "r1", RunName: cfg.RunName, ExperimentID: cfg.ExperimentID}, nil
}

func (f *fakeAPI) UpdateRun(_ context.Context, _ string, status models.RunStatus) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeAPI) LogParams(_ context.Context, _ string, params map[string]string) error {
	f.params = params
	return nil
}

func (f *fakeAPI) LogMetrics(_ context.Context, _ string, metrics []models.Metric) error {
	f.metrics = append(f.metrics, metrics...)
	return nil
}

func (f *fakeAPI) UploadArtifact(_ context.Context, _ string, filePath, _ string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.artifacts = append(f.artifacts, filePath)
	return nil
}

func sampleRecord() models.ResultRecord {
	var m models.RunMetrics
	m.Append(models.PhaseTrain, 0.5)
	m.Append(models.PhaseVal, 0.75)
	m.Append(models.PhaseTrain, 0.75)
	m.Append(models.PhaseVal, 0.75)
	return models.ResultRecord{
		Config:   models.Configuration{Dataset: "PairA", Epochs: 2, LearningRate: 0.001},
		Metrics:  m,
		DumpPath: "out/PairA_cnn_epoch2_lr0.001.txt",
		PlotPath: "out/PairA_cnn_epoch2_lr0.001.png",
		SweepID:  "sweep-1",
		Device:   "cpu",
	}
}

func TestTrackerTrack(t *testing.T) {
	api := &fakeAPI{}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(api, "7", "sweep")
	tr.Now = func() time.Time { return at }

	require.NoError(t, tr.Track(context.Background(), sampleRecord()))

	require.Len(t, api.created, 1)
	assert.Equal(t, "7", api.created[0].ExperimentID)
	assert.Equal(t, "PairA_cnn_epoch2_lr0.001", api.created[0].RunName)
	assert.Equal(t, "sweep-1", api.created[0].Tags[TagSweepID])
	assert.Equal(t, "cpu", api.created[0].Tags[TagDevice])
	assert.Equal(t, "sweep", api.created[0].Tags[TagSource])

	assert.Equal(t, map[string]string{"dataset": "PairA", "epochs": "2", "learning_rate": "0.001"}, api.params)
	assert.Len(t, api.metrics, 4*2+1)
	assert.Equal(t, []string{"out/PairA_cnn_epoch2_lr0.001.txt", "out/PairA_cnn_epoch2_lr0.001.png"}, api.artifacts)
	assert.Equal(t, []models.RunStatus{models.RunStatusFinished}, api.statuses)
}

func TestTrackerMarksFailedRun(t *testing.T) {
	api := &fakeAPI{uploadErr: errors.New("boom")}
	err := NewTracker(api, "7", "").Track(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, []models.RunStatus{models.RunStatusFailed}, api.statuses)
}

func TestEpochMetrics(t *testing.T) {
	at := time.Unix(100, 0)
	metrics := EpochMetrics(sampleRecord().Metrics, at)

	assert.Equal(t, models.Metric{Key: "train_acc", Value: 0.5, Timestamp: at, Step: 1}, metrics[0])
	assert.Equal(t, models.Metric{Key: "test_err", Value: 0.25, Timestamp: at, Step: 2}, metrics[7])
	// first maximum wins
	assert.Equal(t, models.Metric{Key: "best_test_acc", Value: 0.75, Timestamp: at, Step: 1}, metrics[8])

	assert.Empty(t, EpochMetrics(models.RunMetrics{}, at))
}

func TestSplitArtifactURI(t *testing.T) {
	exp, run, err := splitArtifactURI("mlflow-artifacts:/0/47485d6a0b734e37aaddc60be04b7371/artifacts")
	require.NoError(t, err)
	assert.Equal(t, "0", exp)
	assert.Equal(t, "47485d6a0b734e37aaddc60be04b7371", run)

	_, _, err = splitArtifactURI("mlflow-artifacts:/0")
	assert.Error(t, err)
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.txt")
	require.NoError(t, os.WriteFile(path, []byte("train_acc: [1.0]\n"), 0o644))
	return path
}

func TestUploadToLocalStore(t *testing.T) {
	src := writeArtifact(t)
	store := t.TempDir()

	c := &Client{http: http.DefaultClient, config: &config.Config{}}
	require.NoError(t, c.uploadTo(context.Background(), "file://"+store, src, "runs/dump.txt"))

	got, err := os.ReadFile(filepath.Join(store, "runs", "dump.txt"))
	require.NoError(t, err)
	assert.Equal(t, "train_acc: [1.0]\n", string(got))
}

func TestUploadToMLflowArtifacts(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := &Client{http: srv.Client(), config: &config.Config{TrackingURI: srv.URL + "/"}}
	err := c.uploadTo(context.Background(), "mlflow-artifacts:/3/abc/artifacts", writeArtifact(t), "dump.txt")
	require.NoError(t, err)
	assert.Equal(t, "/api/2.0/mlflow-artifacts/artifacts/3/abc/artifacts/dump.txt", gotPath)
	assert.Equal(t, "train_acc: [1.0]\n", gotBody)
}

func TestUploadRejectsUnknownScheme(t *testing.T) {
	c := &Client{http: http.DefaultClient, config: &config.Config{}}
	err := c.uploadTo(context.Background(), "s3://bucket/x", writeArtifact(t), "dump.txt")
	assert.ErrorContains(t, err, "unsupported artifact URI scheme")

	err = c.uploadTo(context.Background(), "dbfs:/databricks/mlflow-tracking/1/2/artifacts", writeArtifact(t), "dump.txt")
	assert.ErrorContains(t, err, "Databricks tracking URI")
}

func TestNewClientRequiresExperiment(t *testing.T) {
	_, err := NewClient(&config.Config{TrackingURI: "http://localhost:5000"})
	assert.ErrorContains(t, err, "experiment ID")
}
