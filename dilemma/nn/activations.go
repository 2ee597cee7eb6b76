package nn

import (
	"fmt"
	"math"
	"strings"
)

// ActivationType defines the type for activation functions.
type ActivationType func(x float64) float64

// ActivationFunctions maps function names to the actual activation functions.
// This allows configuration to specify the hidden layer activation by name.
var ActivationFunctions = map[string]ActivationType{
	"relu":     ReLU,
	"tanh":     math.Tanh,
	"sigmoid":  Sigmoid,
	"identity": Identity,
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationType, error) {
	if fn, ok := ActivationFunctions[strings.ToLower(name)]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// ReLU (Rectified Linear Unit) activation function.
func ReLU(x float64) float64 {
	return math.Max(0, x)
}

// Sigmoid is the logistic function 1 / (1 + exp(-x)).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// Identity activation function (linear).
func Identity(x float64) float64 {
	return x
}
