package nn

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const (
	Sigmoid  = "SIGMOID"
	Tanh     = "TANH"
	Logistic = "LOGISTIC"
	Identity = "IDENTITY"
	ReLU     = "RELU"
)

var ErrActivationExists = errors.New("activation already registered")

// ActivationFunc squashes a neuron state into its activation.
type ActivationFunc func(x float64) float64

// Activation pairs a squash function with its derivative, both evaluated at
// the pre-activation state.
type Activation struct {
	Name       string
	Func       ActivationFunc
	Derivative ActivationFunc
}

// Apply evaluates the squash function, or its derivative when derivative is set.
func (a Activation) Apply(x float64, derivative bool) float64 {
	if derivative {
		return a.Derivative(x)
	}
	return a.Func(x)
}

var activationRegistry = struct {
	mu sync.RWMutex
	m  map[string]Activation
}{
	m: make(map[string]Activation),
}

func init() {
	initializeBuiltInActivations()
}

func initializeBuiltInActivations() {
	MustRegisterActivation(Activation{Name: Sigmoid, Func: sigmoid, Derivative: sigmoidDerivative})
	MustRegisterActivation(Activation{Name: Tanh, Func: math.Tanh, Derivative: tanhDerivative})
	// Same curve as SIGMOID under the name other toolkits use.
	MustRegisterActivation(Activation{Name: Logistic, Func: sigmoid, Derivative: sigmoidDerivative})
	MustRegisterActivation(Activation{Name: Identity, Func: func(x float64) float64 { return x }, Derivative: identityDerivative})
	MustRegisterActivation(Activation{Name: ReLU, Func: relu, Derivative: reluDerivative})
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func relu(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

// NormalizeName canonicalizes activation and cost identifiers so that
// "sigmoid", " Sigmoid " and "SIGMOID" resolve to the same entry.
func NormalizeName(name string) string {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	return strings.ReplaceAll(normalized, " ", "_")
}

func RegisterActivation(activation Activation) error {
	name := NormalizeName(activation.Name)
	if name == "" {
		return errors.New("activation name is required")
	}
	if activation.Func == nil || activation.Derivative == nil {
		return errors.Errorf("activation %s requires both a function and a derivative", name)
	}
	activation.Name = name

	activationRegistry.mu.Lock()
	defer activationRegistry.mu.Unlock()

	if _, exists := activationRegistry.m[name]; exists {
		return errors.Wrap(ErrActivationExists, name)
	}
	activationRegistry.m[name] = activation
	return nil
}

func MustRegisterActivation(activation Activation) {
	if err := RegisterActivation(activation); err != nil {
		panic(err)
	}
}

func GetActivation(name string) (Activation, error) {
	activationRegistry.mu.RLock()
	activation, ok := activationRegistry.m[NormalizeName(name)]
	activationRegistry.mu.RUnlock()
	if !ok {
		return Activation{}, errors.Wrapf(ErrUnsupportedActivation, "%q", name)
	}
	return activation, nil
}

// HasActivation reports whether name resolves to a registered activation.
func HasActivation(name string) bool {
	_, err := GetActivation(name)
	return err == nil
}

// Apply evaluates the named activation (or its derivative) at x.
func Apply(name string, x float64, derivative bool) (float64, error) {
	activation, err := GetActivation(name)
	if err != nil {
		return 0, err
	}
	return activation.Apply(x, derivative), nil
}

func ListActivations() []string {
	activationRegistry.mu.RLock()
	defer activationRegistry.mu.RUnlock()

	names := make([]string, 0, len(activationRegistry.m))
	for name := range activationRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetActivationRegistryForTests() {
	activationRegistry.mu.Lock()
	activationRegistry.m = make(map[string]Activation)
	activationRegistry.mu.Unlock()
	initializeBuiltInActivations()
}
