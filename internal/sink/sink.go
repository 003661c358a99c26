// Package sink persists completed runs as a plot and a text dump named after
// their configuration.
package sink

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/imishinist/tuneparams/internal/models"
)

// ErrOutputDirMissing is returned when the output directory does not exist.
// The sink never creates it.
var ErrOutputDirMissing = errors.New("output directory does not exist")

const (
	PlotSuffix = ".png"
	DumpSuffix = ".txt"
)

type FileSink struct {
	Dir string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

// Paths returns the plot and dump paths for a configuration.
func (s *FileSink) Paths(cfg models.Configuration) (plot, dump string) {
	base := filepath.Join(s.Dir, cfg.BaseName())
	return base + PlotSuffix, base + DumpSuffix
}

// Write renders the curves and the dump for one run. Existing files for the
// same configuration are overwritten.
func (s *FileSink) Write(cfg models.Configuration, m models.RunMetrics) (models.ResultRecord, error) {
	if err := CheckDir(s.Dir); err != nil {
		return models.ResultRecord{}, err
	}

	plotPath, dumpPath := s.Paths(cfg)
	if err := SaveCurves(plotPath, m); err != nil {
		return models.ResultRecord{}, errors.Wrapf(err, "failed to save plot for %s", cfg)
	}
	if err := writeDumpFile(dumpPath, m); err != nil {
		return models.ResultRecord{}, errors.Wrapf(err, "failed to save dump for %s", cfg)
	}

	klog.InfoS("Saved result record", "config", cfg.BaseName(), "plot", plotPath, "dump", dumpPath)

	bestEpoch, bestAcc := m.Best()
	return models.ResultRecord{
		Config:     cfg,
		Metrics:    m,
		BestEpoch:  bestEpoch,
		BestValAcc: bestAcc,
		PlotPath:   plotPath,
		DumpPath:   dumpPath,
	}, nil
}

// CheckDir fails with ErrOutputDirMissing unless dir is an existing directory.
func CheckDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return errors.Wrap(ErrOutputDirMissing, dir)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to stat output directory %s", dir)
	}
	if !info.IsDir() {
		return errors.Errorf("output path %s is not a directory", dir)
	}
	return nil
}

func writeDumpFile(path string, m models.RunMetrics) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := WriteDump(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteDump writes one "label: [v1, v2, ...]" line per curve.
func WriteDump(w io.Writer, m models.RunMetrics) error {
	bw := bufio.NewWriter(w)
	for _, s := range m.Series() {
		if _, err := bw.WriteString(s.Name + ": " + FormatSeries(s.Values) + "\n"); err != nil {
			return errors.Wrap(err, "failed to write dump")
		}
	}
	return errors.Wrap(bw.Flush(), "failed to write dump")
}

// FormatSeries renders values as a bracketed, comma separated list.
func FormatSeries(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = models.FormatDecimal(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
