package nn

import (
	"fmt"

	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// lossBackend is the extra capability a backend needs for the fused
// softmax cross-entropy loss. The autodiff decorator provides it.
type lossBackend interface {
	CrossEntropy(logits, targets *tensor.RawTensor, sumLoss bool) *tensor.RawTensor
}

// CrossEntropy computes softmax cross-entropy of logits [N,C] against
// int32 class targets [N], reduced to a [1] tensor. With sumLoss the
// per-example losses are summed instead of averaged; data-parallel
// training sums so the trainer can divide by the full effective batch
// size after combining shard gradients.
func CrossEntropy[B tensor.Backend](logits tensor.Tensor[float32, B], targets tensor.Tensor[int32, B], sumLoss bool) tensor.Tensor[float32, B] {
	lb, ok := any(logits.Backend()).(lossBackend)
	if !ok {
		panic(fmt.Sprintf("nn: backend %q does not provide CrossEntropy", logits.Backend().Name()))
	}
	return tensor.New[float32](lb.CrossEntropy(logits.Raw(), targets.Raw(), sumLoss), logits.Backend())
}

// Accuracy returns the fraction of rows whose argmax matches the target
// class. Always in [0, 1].
func Accuracy[B tensor.Backend](logits tensor.Tensor[float32, B], targets tensor.Tensor[int32, B]) float32 {
	pred := tensor.Argmax(logits, 1)
	pd, td := pred.Data(), targets.Data()
	if len(pd) != len(td) {
		panic(fmt.Sprintf("nn: Accuracy got %d predictions for %d targets", len(pd), len(td)))
	}
	if len(td) == 0 {
		return 0
	}
	correct := 0
	for i := range td {
		if pd[i] == td[i] {
			correct++
		}
	}
	return float32(correct) / float32(len(td))
}
