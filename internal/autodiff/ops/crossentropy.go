package ops

import (
	"fmt"
	"math"

	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// CrossEntropyForward computes softmax cross-entropy of logits [N,C]
// against int32 class targets [N], reduced to a [1] tensor. With sumLoss
// the per-example losses are summed, otherwise averaged. Summation lets a
// caller that partitioned a batch divide by the full batch size itself,
// which keeps the resulting update independent of how the batch was split.
func CrossEntropyForward(logits, targets *tensor.RawTensor, sumLoss bool, device tensor.Device) *tensor.RawTensor {
	ls, ts := logits.Shape(), targets.Shape()
	if len(ls) != 2 || len(ts) != 1 || ls[0] != ts[0] {
		panic(fmt.Sprintf("ops: CrossEntropy logits %v targets %v", ls, ts))
	}
	if targets.DType() != tensor.Int32 {
		panic(fmt.Sprintf("ops: CrossEntropy targets must be int32, got %s", targets.DType()))
	}
	n, c := ls[0], ls[1]
	ld, td := logits.Float32(), targets.Int32()

	var total float64
	for i := 0; i < n; i++ {
		row := ld[i*c : (i+1)*c]
		target := int(td[i])
		if target < 0 || target >= c {
			panic(fmt.Sprintf("ops: CrossEntropy target %d out of range [0,%d)", target, c))
		}
		total += logSumExp(row) - float64(row[target])
	}
	if !sumLoss {
		total /= float64(n)
	}

	out := tensor.MustNewRaw(tensor.Shape{1}, tensor.Float32, device)
	out.Float32()[0] = float32(total)
	return out
}

// CrossEntropyOp records a softmax cross-entropy loss. The backward rule
// is the classic softmax-minus-onehot, scaled by the upstream gradient.
type CrossEntropyOp struct {
	logits, targets, out *tensor.RawTensor
	sumLoss              bool
}

func NewCrossEntropy(logits, targets, out *tensor.RawTensor, sumLoss bool) *CrossEntropyOp {
	return &CrossEntropyOp{logits: logits, targets: targets, out: out, sumLoss: sumLoss}
}

func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits, op.targets}
}

func (op *CrossEntropyOp) Output() *tensor.RawTensor { return op.out }

func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	n, c := shape[0], shape[1]
	ld, td := op.logits.Float32(), op.targets.Int32()

	scale := outputGrad.Float32()[0]
	if !op.sumLoss {
		scale /= float32(n)
	}

	grad := tensor.MustNewRaw(shape, tensor.Float32, op.logits.Device())
	gd := grad.Float32()
	for i := 0; i < n; i++ {
		row := ld[i*c : (i+1)*c]
		lse := logSumExp(row)
		for j := 0; j < c; j++ {
			p := float32(math.Exp(float64(row[j]) - lse))
			gd[i*c+j] = p * scale
		}
		gd[i*c+int(td[i])] -= scale
	}
	// Class targets take no gradient.
	return []*tensor.RawTensor{grad, nil}
}

// logSumExp computes log(sum(exp(row))) with the max subtracted for
// numerical stability.
func logSumExp(row []float32) float64 {
	max := row[0]
	for _, v := range row[1:] {
		if v > max {
			max = v
		}
	}
	var sum float64
	for _, v := range row {
		sum += math.Exp(float64(v - max))
	}
	return float64(max) + math.Log(sum)
}
