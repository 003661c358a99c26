// Package device resolves the compute target once at process start.
package device

import (
	"strings"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

type Target string

const (
	CPU         Target = "cpu"
	Accelerator Target = "accelerator"
)

var ErrUnknownTarget = errors.New("unknown compute target")

// Device is the resolved compute target.
type Device struct {
	Target    Target
	Requested Target
	Brand     string
	Features  []string
}

func (d Device) String() string {
	return string(d.Target)
}

// accelerated reports whether the host exposes the vector units the
// accelerator target relies on.
var accelerated = func() bool {
	return cpuid.CPU.Supports(cpuid.AVX2, cpuid.FMA3) || cpuid.CPU.Supports(cpuid.ASIMD)
}

// Resolve maps a requested target onto what the host supports. An
// unavailable accelerator falls back to the cpu target.
func Resolve(requested string) (Device, error) {
	want := Target(strings.ToLower(strings.TrimSpace(requested)))
	if want == "" {
		want = CPU
	}
	if want != CPU && want != Accelerator {
		return Device{}, errors.Wrapf(ErrUnknownTarget, "%q (valid: cpu, accelerator)", requested)
	}

	d := Device{
		Target:    CPU,
		Requested: want,
		Brand:     cpuid.CPU.BrandName,
		Features:  cpuid.CPU.FeatureSet(),
	}

	if want == Accelerator {
		if accelerated() {
			d.Target = Accelerator
		} else {
			klog.InfoS("Accelerator not available, falling back to cpu", "brand", d.Brand)
		}
	}

	klog.V(1).InfoS("Resolved compute target", "target", d.Target, "requested", d.Requested, "brand", d.Brand)
	return d, nil
}
