// Package sweep enumerates dataset × learning-rate configurations and trains
// each one independently.
package sweep

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"k8s.io/klog/v2"

	"github.com/imishinist/tuneparams/internal/models"
)

// Policy decides what happens when a configuration fails.
type Policy string

const (
	// PolicyAbort stops the sweep at the first failing configuration.
	PolicyAbort Policy = "abort"
	// PolicyContinue logs the failure, skips the configuration and reports
	// all failures together once the sweep is over.
	PolicyContinue Policy = "continue"
)

var ErrUnknownPolicy = errors.New("unknown failure policy")

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyAbort, nil
	case PolicyAbort, PolicyContinue:
		return p, nil
	default:
		return "", errors.Wrapf(ErrUnknownPolicy, "%q (valid: abort, continue)", s)
	}
}

// Outcome is what a Runner produces for one configuration.
type Outcome struct {
	Metrics    models.RunMetrics
	BestEpoch  int
	BestValAcc float64
	Elapsed    time.Duration
}

type Runner interface {
	Run(cfg models.Configuration) (Outcome, error)
}

type Sink interface {
	Write(cfg models.Configuration, m models.RunMetrics) (models.ResultRecord, error)
}

// Tracker mirrors a written record to an external tracking service.
type Tracker interface {
	Track(ctx context.Context, rec models.ResultRecord) error
}

// Progress is sent after every configuration. Sends never block.
type Progress struct {
	Index  int
	Total  int
	Config models.Configuration
	Err    error
}

type Driver struct {
	Runner  Runner
	Sink    Sink
	Tracker Tracker
	Policy  Policy

	SweepID string
	Device  string

	// ProgressChan receives updates if set. Updates are dropped when full.
	ProgressChan chan<- Progress
}

// Run trains every configuration of plan sequentially, datasets outer and
// learning rates inner, and returns the records written so far.
func (d *Driver) Run(ctx context.Context, plan models.SweepPlan) ([]models.ResultRecord, error) {
	configs, err := plan.Configurations()
	if err != nil {
		return nil, errors.Wrap(err, "invalid sweep plan")
	}

	policy := d.Policy
	if policy == "" {
		policy = PolicyAbort
	}

	var (
		records []models.ResultRecord
		errs    error
	)
	for i, cfg := range configs {
		klog.InfoS("Starting run", "index", i+1, "total", len(configs), "config", cfg.BaseName(), "sweep", d.SweepID)

		rec, err := d.runOne(ctx, cfg)
		d.sendProgress(Progress{Index: i + 1, Total: len(configs), Config: cfg, Err: err})
		if err != nil {
			err = errors.Wrapf(err, "run %s failed", cfg)
			if policy == PolicyAbort {
				return records, err
			}
			klog.ErrorS(err, "Skipping configuration", "config", cfg.BaseName())
			errs = multierr.Append(errs, err)
			continue
		}
		records = append(records, rec)
	}

	return records, errs
}

func (d *Driver) runOne(ctx context.Context, cfg models.Configuration) (models.ResultRecord, error) {
	out, err := d.Runner.Run(cfg)
	if err != nil {
		return models.ResultRecord{}, err
	}

	rec, err := d.Sink.Write(cfg, out.Metrics)
	if err != nil {
		return models.ResultRecord{}, err
	}
	rec.BestEpoch = out.BestEpoch
	rec.BestValAcc = out.BestValAcc
	rec.Elapsed = out.Elapsed
	rec.SweepID = d.SweepID
	rec.Device = d.Device

	if d.Tracker != nil {
		if err := d.Tracker.Track(ctx, rec); err != nil {
			return rec, errors.Wrap(err, "failed to track run")
		}
	}
	return rec, nil
}

func (d *Driver) sendProgress(p Progress) {
	if d.ProgressChan == nil {
		return
	}
	select {
	case d.ProgressChan <- p:
	default:
	}
}
