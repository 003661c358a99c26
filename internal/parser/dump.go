package parser

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/imishinist/tuneparams/internal/models"
)

// ParseDump reads a result record text dump back into RunMetrics.
func ParseDump(reader io.Reader) (models.RunMetrics, error) {
	var m models.RunMetrics
	targets := map[string]*[]float64{
		"train_acc": &m.TrainAcc,
		"train_err": &m.TrainErr,
		"test_acc":  &m.ValAcc,
		"test_err":  &m.ValErr,
	}
	seen := map[string]bool{}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		label, list, ok := strings.Cut(text, ": ")
		if !ok {
			return models.RunMetrics{}, errors.Errorf("line %d: expected \"label: [values]\"", line)
		}
		target, known := targets[label]
		if !known {
			return models.RunMetrics{}, errors.Errorf("line %d: unknown series %q", line, label)
		}
		if seen[label] {
			return models.RunMetrics{}, errors.Errorf("line %d: duplicate series %q", line, label)
		}

		values, err := parseList(list)
		if err != nil {
			return models.RunMetrics{}, errors.Wrapf(err, "line %d", line)
		}
		*target = values
		seen[label] = true
	}
	if err := scanner.Err(); err != nil {
		return models.RunMetrics{}, errors.Wrap(err, "failed to read dump")
	}

	for label := range targets {
		if !seen[label] {
			return models.RunMetrics{}, errors.Errorf("missing series %q", label)
		}
	}
	n := len(m.ValAcc)
	if len(m.TrainAcc) != n || len(m.TrainErr) != n || len(m.ValErr) != n {
		return models.RunMetrics{}, errors.New("series have different lengths")
	}
	return m, nil
}

func parseList(s string) ([]float64, error) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, errors.Errorf("invalid list %q", s)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return []float64{}, nil
	}

	parts := strings.Split(body, ",")
	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid value %q", p)
		}
		values[i] = v
	}
	return values, nil
}

// LoadRecord reads a dump from disk and recovers its configuration from the
// file name. The plot path is set when a sibling .png exists.
func LoadRecord(dumpPath string) (models.ResultRecord, error) {
	file, err := os.Open(dumpPath)
	if err != nil {
		return models.ResultRecord{}, errors.Wrapf(err, "failed to open dump %s", dumpPath)
	}
	defer file.Close()

	base := strings.TrimSuffix(filepath.Base(dumpPath), filepath.Ext(dumpPath))
	cfg, err := models.ParseBaseName(base)
	if err != nil {
		return models.ResultRecord{}, err
	}

	m, err := ParseDump(file)
	if err != nil {
		return models.ResultRecord{}, errors.Wrapf(err, "failed to parse dump %s", dumpPath)
	}
	if m.Epochs() != cfg.Epochs {
		return models.ResultRecord{}, errors.Errorf("dump %s has %d epochs, name says %d", dumpPath, m.Epochs(), cfg.Epochs)
	}

	rec := models.ResultRecord{
		Config:   cfg,
		Metrics:  m,
		DumpPath: dumpPath,
	}
	rec.BestEpoch, rec.BestValAcc = m.Best()

	plotPath := strings.TrimSuffix(dumpPath, filepath.Ext(dumpPath)) + ".png"
	if _, err := os.Stat(plotPath); err == nil {
		rec.PlotPath = plotPath
	}
	return rec, nil
}
