// Copyright 2025 The Lockstep Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataparallel provides synchronous data-parallel training over
// multiple device handles.
//
// A Group holds one model replica per device, initialized to identical
// parameters. Each training batch is split into contiguous shards, one
// per device; shards run forward and backward concurrently, gradients
// are summed across replicas, and a single optimizer step is broadcast
// back so every replica stays byte-identical.
//
// Example:
//
//	backends := []*cpu.Backend{
//	    cpu.NewFor(tensor.Device{Kind: tensor.CPU, Ordinal: 0}),
//	    cpu.NewFor(tensor.Device{Kind: tensor.CPU, Ordinal: 1}),
//	}
//	group, err := dataparallel.NewGroup(backends, func(b *autodiff.Backend[*cpu.Backend]) nn.Module[*autodiff.Backend[*cpu.Backend]] {
//	    return nn.NewLeNet(rand.New(rand.NewSource(42)), b)
//	})
package dataparallel

import (
	"github.com/lockstep-ml/lockstep/internal/autodiff"
	"github.com/lockstep-ml/lockstep/internal/dataparallel"
	"github.com/lockstep-ml/lockstep/internal/optim"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Replica is one model copy bound to one device.
type Replica[B tensor.Backend] = dataparallel.Replica[B]

// BuildFunc constructs a model replica on the given autodiff backend.
// It must be deterministic: every call builds numerically identical
// parameters, typically by seeding its own RNG.
type BuildFunc[B tensor.Backend] = dataparallel.BuildFunc[B]

// Group is an ordered set of model replicas, one per device. The first
// replica is the reference.
type Group[B tensor.Backend] = dataparallel.Group[B]

// NewGroup builds one replica per backend and verifies the replicas
// expose the same parameter count.
func NewGroup[B tensor.Backend](backends []B, build BuildFunc[B]) (*Group[B], error) {
	return dataparallel.NewGroup(backends, build)
}

// BatchIterator yields image and label batches for training or
// evaluation.
type BatchIterator = dataparallel.BatchIterator

// Trainer drives data-parallel training of a Group with an optimizer
// bound to the reference replica.
type Trainer[B tensor.Backend] = dataparallel.Trainer[B]

// NewTrainer creates a trainer. The optimizer must be constructed over
// the reference replica's parameters.
func NewTrainer[B tensor.Backend](group *Group[B], opt optim.Optimizer[*autodiff.Backend[B]]) (*Trainer[B], error) {
	return dataparallel.NewTrainer(group, opt)
}

// Scatter splits a batch along dimension 0 into one contiguous shard
// per device. Shard sizes differ by at most one row and concatenate
// back to the original batch exactly.
func Scatter(batch *tensor.RawTensor, devices []tensor.Device) ([]*tensor.RawTensor, error) {
	return dataparallel.Scatter(batch, devices)
}

// Gather concatenates shards along dimension 0 onto the given device,
// inverting Scatter.
func Gather(shards []*tensor.RawTensor, device tensor.Device) (*tensor.RawTensor, error) {
	return dataparallel.Gather(shards, device)
}
