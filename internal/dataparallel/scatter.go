// Package dataparallel implements synchronous data-parallel training:
// contiguous batch scattering across an ordered set of device handles,
// parameter replica groups kept value-synchronized, per-shard
// forward/backward dispatch, and the trainer step that combines shard
// gradients into one update.
package dataparallel

import (
	"fmt"

	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Scatter partitions dim 0 of batch into contiguous shards, one per
// device. With B rows and K devices the first B mod K shards hold
// ⌈B/K⌉ rows and the rest ⌊B/K⌋; when B < K only the first B devices
// receive a (single-row) shard. Each shard is a fresh tensor stamped
// with its device. Concatenating the shards in order reproduces the
// batch exactly.
func Scatter(batch *tensor.RawTensor, devices []tensor.Device) ([]*tensor.RawTensor, error) {
	if len(devices) == 0 {
		return nil, fmt.Errorf("dataparallel: scatter across zero devices")
	}
	rows := batch.Shape()[0]
	k := len(devices)
	if rows < k {
		k = rows
	}
	base, rem := rows/k, rows%k
	rowBytes := batch.ByteSize() / rows

	shards := make([]*tensor.RawTensor, k)
	offset := 0
	for i := 0; i < k; i++ {
		size := base
		if i < rem {
			size++
		}
		shape := batch.Shape().Clone()
		shape[0] = size
		shard, err := tensor.NewRaw(shape, batch.DType(), devices[i])
		if err != nil {
			return nil, err
		}
		copy(shard.Data(), batch.Data()[offset*rowBytes:(offset+size)*rowBytes])
		shards[i] = shard
		offset += size
	}
	return shards, nil
}

// Gather concatenates shards along dim 0 onto device, the inverse of
// Scatter. Shards must agree on dtype and trailing dimensions.
func Gather(shards []*tensor.RawTensor, device tensor.Device) (*tensor.RawTensor, error) {
	if len(shards) == 0 {
		return nil, fmt.Errorf("dataparallel: gather of zero shards")
	}
	first := shards[0]
	rows := 0
	for _, s := range shards {
		if s.DType() != first.DType() || len(s.Shape()) != len(first.Shape()) {
			return nil, fmt.Errorf("dataparallel: gather of mismatched shards")
		}
		for d := 1; d < len(first.Shape()); d++ {
			if s.Shape()[d] != first.Shape()[d] {
				return nil, fmt.Errorf("dataparallel: gather shard shape %v does not match %v", s.Shape(), first.Shape())
			}
		}
		rows += s.Shape()[0]
	}

	shape := first.Shape().Clone()
	shape[0] = rows
	out, err := tensor.NewRaw(shape, first.DType(), device)
	if err != nil {
		return nil, err
	}
	offset := 0
	for _, s := range shards {
		copy(out.Data()[offset:], s.Data())
		offset += s.ByteSize()
	}
	return out, nil
}
