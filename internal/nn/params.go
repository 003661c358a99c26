package nn

import "github.com/pkg/errors"

// Parameter is a trainable tensor stored flat, with its accumulated gradient.
type Parameter struct {
	Name  string
	Value []float64
	Grad  []float64
}

func newParameter(name string, size int) *Parameter {
	return &Parameter{
		Name:  name,
		Value: make([]float64, size),
		Grad:  make([]float64, size),
	}
}

// StateDict is a detached copy of parameter values keyed by name.
type StateDict map[string][]float64

// Clone returns a deep copy that shares no backing arrays with sd.
func (sd StateDict) Clone() StateDict {
	out := make(StateDict, len(sd))
	for k, v := range sd {
		out[k] = append([]float64(nil), v...)
	}
	return out
}

// Snapshot copies the current values of params.
func Snapshot(params []*Parameter) StateDict {
	sd := make(StateDict, len(params))
	for _, p := range params {
		sd[p.Name] = append([]float64(nil), p.Value...)
	}
	return sd
}

// Restore copies values from sd into params. Every parameter must be present
// with a matching size.
func Restore(params []*Parameter, sd StateDict) error {
	for _, p := range params {
		v, ok := sd[p.Name]
		if !ok {
			return errors.Errorf("missing parameter %q in state dict", p.Name)
		}
		if len(v) != len(p.Value) {
			return errors.Errorf("parameter %q has size %d, state dict has %d", p.Name, len(p.Value), len(v))
		}
		copy(p.Value, v)
	}
	return nil
}
