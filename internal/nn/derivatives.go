package nn

import "math"

// Derivatives take the pre-activation state, not the activation.

func sigmoidDerivative(x float64) float64 {
	s := sigmoid(x)
	return s * (1 - s)
}

func tanhDerivative(x float64) float64 {
	y := math.Tanh(x)
	return 1 - (y * y)
}

func identityDerivative(float64) float64 {
	return 1
}

func reluDerivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}
