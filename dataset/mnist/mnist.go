// Copyright 2025 The Lockstep Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package mnist loads the MNIST handwritten digit dataset from IDX
// files and exposes batch iterators for training and evaluation.
package mnist

import (
	"github.com/lockstep-ml/lockstep/internal/dataset/mnist"
)

// Dataset holds normalized images and int32 labels in memory.
type Dataset = mnist.Dataset

// Load reads the train or test split from dir. Both plain IDX files and
// their .gz forms are accepted.
func Load(dir string, train bool) (*Dataset, error) {
	return mnist.Load(dir, train)
}

// Synthetic generates a deterministic MNIST-shaped dataset, useful when
// the real files are not on disk.
func Synthetic(n int, seed int64) *Dataset {
	return mnist.Synthetic(n, seed)
}

// Iterator yields [N, 1, 28, 28] image and [N] label batches on cpu:0.
type Iterator = mnist.Iterator

// NewIterator creates a batch iterator over ds. The final batch may be
// short.
func NewIterator(ds *Dataset, batchSize int) (*Iterator, error) {
	return mnist.NewIterator(ds, batchSize)
}
