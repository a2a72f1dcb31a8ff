// Package dataset provides the sample sets a network is trained on: the
// built-in logic tables and JSON files of input/output rows.
package dataset

import (
	"encoding/json"
	"math/rand/v2"
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"neuralnet/internal/network"
	"neuralnet/internal/nn"
)

// Set is a named list of training samples.
type Set struct {
	Name    string
	Samples []network.Sample
}

func (s Set) InputSize() int {
	return len(s.Samples[0].Input)
}

func (s Set) OutputSize() int {
	return len(s.Samples[0].Output)
}

var truthTables = map[string]func(a, b bool) bool{
	"xor": func(a, b bool) bool { return a != b },
	"and": func(a, b bool) bool { return a && b },
	"or":  func(a, b bool) bool { return a || b },
}

// Names lists the built-in datasets.
func Names() []string {
	names := make([]string, 0, len(truthTables))
	for name := range truthTables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Builtin returns a logic table in the row order of mode: "gt" (or empty)
// lists the four rows once, "validation" and "test" repeat them in fixed
// mixed orders.
func Builtin(name, mode string) (Set, error) {
	canonical := Normalize(name)
	table, ok := truthTables[canonical]
	if !ok {
		return Set{}, errors.Errorf("unknown dataset: %s", name)
	}
	base := make([]network.Sample, 0, 4)
	for _, in := range [][2]bool{{false, false}, {false, true}, {true, false}, {true, true}} {
		base = append(base, network.Sample{
			Input:  []float64{bit(in[0]), bit(in[1])},
			Output: []float64{bit(table(in[0], in[1]))},
		})
	}

	var rows []network.Sample
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "", "gt":
		rows = base
	case "validation":
		rows = []network.Sample{base[1], base[2], base[0], base[3], base[1], base[2]}
	case "test":
		rows = []network.Sample{base[3], base[2], base[1], base[0], base[3], base[0], base[2], base[1]}
	default:
		return Set{}, errors.Errorf("unsupported %s mode: %s", canonical, mode)
	}
	return Set{Name: canonical, Samples: clone(rows)}, nil
}

// Load resolves ref as a built-in dataset name, falling back to a JSON file
// holding [{"input":[...],"output":[...]}, ...].
func Load(ref string) (Set, error) {
	if _, ok := truthTables[Normalize(ref)]; ok {
		return Builtin(ref, "gt")
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return Set{}, errors.Wrapf(err, "load dataset %s", ref)
	}
	var samples []network.Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return Set{}, errors.Wrapf(err, "decode dataset %s", ref)
	}
	set := Set{Name: ref, Samples: samples}
	if err := Validate(set.Samples); err != nil {
		return Set{}, errors.WithMessagef(err, "dataset %s", ref)
	}
	return set, nil
}

// Validate checks that samples is non-empty and every row has the shape of
// the first.
func Validate(samples []network.Sample) error {
	if len(samples) == 0 {
		return errors.WithStack(nn.ErrEmptyTrainingSet)
	}
	in, out := len(samples[0].Input), len(samples[0].Output)
	if in == 0 || out == 0 {
		return errors.Wrap(nn.ErrDimensionMismatch, "sample 0 has an empty input or output")
	}
	for i, s := range samples[1:] {
		if len(s.Input) != in || len(s.Output) != out {
			return errors.Wrapf(nn.ErrDimensionMismatch, "sample %d is %dx%d, want %dx%d", i+1, len(s.Input), len(s.Output), in, out)
		}
	}
	return nil
}

// Shuffled returns a copy of samples in a permutation fixed by seed.
func Shuffled(samples []network.Sample, seed int64) []network.Sample {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	out := clone(samples)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

func clone(samples []network.Sample) []network.Sample {
	out := make([]network.Sample, len(samples))
	for i, s := range samples {
		out[i] = network.Sample{
			Input:  append([]float64(nil), s.Input...),
			Output: append([]float64(nil), s.Output...),
		}
	}
	return out
}

func bit(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
