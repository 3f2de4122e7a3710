// Copyright 2025 The Lockstep Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and losses.
package nn

import (
	"math/rand"

	"github.com/lockstep-ml/lockstep/internal/nn"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Module is the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and value.
func NewParameter[B tensor.Backend](name string, value tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, value)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization drawn
// from rng.
//
// Example:
//
//	backend := cpu.New()
//	rng := rand.New(rand.NewSource(42))
//	layer := nn.NewLinear("fc1", 784, 128, rng, backend)
func NewLinear[B tensor.Backend](name string, inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	return nn.NewLinear(name, inFeatures, outFeatures, rng, backend)
}

// Conv2D represents a 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a new 2D convolutional layer with a square kernel.
//
// Example:
//
//	conv := nn.NewConv2D("conv1", 1, 20, 5, 1, 0, true, rng, backend)
func NewConv2D[B tensor.Backend](
	name string,
	inChannels, outChannels, kernelSize int,
	stride, padding int,
	useBias bool,
	rng *rand.Rand,
	backend B,
) *Conv2D[B] {
	return nn.NewConv2D(name, inChannels, outChannels, kernelSize, stride, padding, useBias, rng, backend)
}

// MaxPool2D represents a 2D max pooling layer.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a new 2D max pooling layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int) *MaxPool2D[B] {
	return nn.NewMaxPool2D[B](kernelSize, stride)
}

// ReLU represents the rectified linear unit activation.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation layer.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Flatten collapses all trailing dimensions into one.
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a new flatten layer.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return nn.NewFlatten[B]()
}

// Sequential chains modules, feeding each output into the next module.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a sequential container from the given layers.
func NewSequential[B tensor.Backend](layers ...Module[B]) *Sequential[B] {
	return nn.NewSequential(layers...)
}

// NewLeNet builds the reference convolutional classifier: two conv+pool
// blocks followed by two fully connected layers producing 10 logits.
// All parameters are initialized from rng, so two models built with
// equally seeded generators are numerically identical.
func NewLeNet[B tensor.Backend](rng *rand.Rand, backend B) *Sequential[B] {
	return nn.NewLeNet(rng, backend)
}

// Losses and metrics

// CrossEntropy computes the cross-entropy loss between logits [N, C] and
// int32 class targets [N]. With sumLoss true the per-sample losses are
// summed, otherwise averaged. The backend must support loss recording,
// which the autodiff backend does.
func CrossEntropy[B tensor.Backend](logits tensor.Tensor[float32, B], targets tensor.Tensor[int32, B], sumLoss bool) tensor.Tensor[float32, B] {
	return nn.CrossEntropy(logits, targets, sumLoss)
}

// Accuracy returns the fraction of rows whose argmax matches the target,
// always in [0, 1].
func Accuracy[B tensor.Backend](logits tensor.Tensor[float32, B], targets tensor.Tensor[int32, B]) float32 {
	return nn.Accuracy(logits, targets)
}
