package autodiff

import (
	"github.com/lockstep-ml/lockstep/internal/autodiff/ops"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Tape records operations during a forward pass and replays them in
// reverse to accumulate gradients. A tape belongs to one device backend
// and is driven from one goroutine at a time; independent devices use
// independent tapes and need no locking.
type Tape struct {
	operations []ops.Operation
	recording  bool
}

func NewTape() *Tape {
	return &Tape{}
}

// StartRecording makes subsequent operations append to the tape.
func (t *Tape) StartRecording() { t.recording = true }

// StopRecording suspends recording without discarding recorded ops.
func (t *Tape) StopRecording() { t.recording = false }

func (t *Tape) Recording() bool { return t.recording }

// Clear drops all recorded operations and stops recording.
func (t *Tape) Clear() {
	t.operations = t.operations[:0]
	t.recording = false
}

// Record appends an operation when recording is active.
func (t *Tape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Len returns the number of recorded operations.
func (t *Tape) Len() int { return len(t.operations) }

// Backward walks the tape in reverse from loss, accumulating gradients
// keyed by raw tensor identity. The loss gradient is seeded with ones.
// Backend kernels compute each op's input gradients; gradients reaching
// the same tensor from several paths are summed.
func (t *Tape) Backward(loss *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	seed := tensor.MustNewRaw(loss.Shape(), tensor.Float32, loss.Device())
	data := seed.Float32()
	for i := range data {
		data[i] = 1
	}

	grads := map[*tensor.RawTensor]*tensor.RawTensor{loss: seed}
	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}
		inputGrads := op.Backward(outGrad, backend)
		for j, input := range op.Inputs() {
			g := inputGrads[j]
			if g == nil {
				continue
			}
			if existing, ok := grads[input]; ok {
				grads[input] = backend.Add(existing, g)
			} else {
				grads[input] = g
			}
		}
	}
	return grads
}
