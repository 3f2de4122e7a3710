package dataparallel

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lockstep-ml/lockstep/internal/autodiff"
	"github.com/lockstep-ml/lockstep/internal/optim"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// BatchIterator yields host-resident batches: float32 images with the
// batch on dim 0 and int32 class labels of matching length. Reset
// rewinds to the first batch.
type BatchIterator interface {
	Next() (images, labels *tensor.RawTensor, ok bool)
	Reset()
}

// Trainer drives synchronous data-parallel training over a replica
// group. The optimizer is bound to the reference replica; Step combines
// shard gradients there, updates, and broadcasts the result.
type Trainer[B tensor.Backend] struct {
	group *Group[B]
	opt   optim.Optimizer[*autodiff.Backend[B]]
}

// NewTrainer pairs a group with an optimizer. The optimizer must be
// constructed over the reference replica's parameters.
func NewTrainer[B tensor.Backend](group *Group[B], opt optim.Optimizer[*autodiff.Backend[B]]) (*Trainer[B], error) {
	refParams := group.Reference().Parameters()
	optParams := opt.Parameters()
	if len(optParams) != len(refParams) {
		return nil, fmt.Errorf("dataparallel: optimizer bound to %d parameters, reference replica has %d", len(optParams), len(refParams))
	}
	for i := range refParams {
		if optParams[i] != refParams[i] {
			return nil, fmt.Errorf("dataparallel: optimizer parameter %d is not the reference replica's", i)
		}
	}
	return &Trainer[B]{group: group, opt: opt}, nil
}

func (t *Trainer[B]) Group() *Group[B] { return t.group }

// TrainBatch scatters the batch across the group's devices, runs
// forward/backward for every shard concurrently and waits for all of
// them. Gradients land in each replica's parameter buffers; the caller
// applies them with Step. Returns the loss summed over all examples.
func (t *Trainer[B]) TrainBatch(images, labels *tensor.RawTensor) (float32, error) {
	if images.Shape()[0] != labels.Shape()[0] {
		return 0, fmt.Errorf("dataparallel: %d images for %d labels", images.Shape()[0], labels.Shape()[0])
	}
	devices := t.group.Devices()
	imageShards, err := Scatter(images, devices)
	if err != nil {
		return 0, err
	}
	labelShards, err := Scatter(labels, devices)
	if err != nil {
		return 0, err
	}

	losses := make([]float32, len(imageShards))
	var wg sync.WaitGroup
	for i := range imageShards {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			losses[i] = t.group.replicas[i].trainShard(imageShards[i], labelShards[i])
		}(i)
	}
	wg.Wait()

	var total float32
	for _, l := range losses {
		total += l
	}
	return total, nil
}

// Step combines the per-replica gradients of each parameter, applies
//
//	param -= lr * (g1 + ... + gK) / effectiveBatchSize
//
// on the reference replica via the optimizer, broadcasts the updated
// values and clears every gradient buffer. After Step all replicas of a
// parameter are byte-identical.
func (t *Trainer[B]) Step(effectiveBatchSize int) error {
	if effectiveBatchSize <= 0 {
		return fmt.Errorf("dataparallel: effective batch size %d", effectiveBatchSize)
	}
	ref := t.group.Reference()
	for i, p := range ref.Parameters() {
		combined := tensor.MustNewRaw(p.Value().Shape(), tensor.Float32, ref.Device())
		cd := combined.Float32()
		for _, r := range t.group.replicas {
			g := r.params[i].Grad()
			if g == nil {
				continue
			}
			gd := g.Float32()
			for j := range cd {
				cd[j] += gd[j]
			}
		}
		for j := range cd {
			cd[j] /= float32(effectiveBatchSize)
		}
		p.SetGrad(combined)
	}

	t.opt.Step()
	if err := t.group.Broadcast(); err != nil {
		return err
	}
	t.group.ZeroGrad()
	return nil
}

// Evaluate runs the validation set through the reference replica with
// recording disabled and returns argmax accuracy in [0, 1].
func (t *Trainer[B]) Evaluate(val BatchIterator) (float32, error) {
	ref := t.group.Reference()
	ref.backend.Tape().Clear()

	val.Reset()
	correct, total := 0, 0
	for {
		images, labels, ok := val.Next()
		if !ok {
			break
		}
		x := tensor.New[float32](images.CloneTo(ref.Device()), ref.backend)
		logits := ref.model.Forward(x)
		pred := tensor.Argmax(logits, 1).Raw().Int32()
		want := labels.Int32()
		for i := range want {
			if pred[i] == want[i] {
				correct++
			}
		}
		total += len(want)
	}
	if total == 0 {
		return 0, fmt.Errorf("dataparallel: empty validation iterator")
	}
	return float32(correct) / float32(total), nil
}

// Fit runs the full training loop: per epoch, reset the train iterator,
// scatter/train/step every batch, then evaluate on the reference device,
// logging wall time, mean loss and validation accuracy.
func (t *Trainer[B]) Fit(train, val BatchIterator, epochs int, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := t.group.Initialize(false); err != nil {
		return err
	}

	for epoch := 1; epoch <= epochs; epoch++ {
		start := time.Now()
		train.Reset()

		var lossSum float64
		seen := 0
		for {
			images, labels, ok := train.Next()
			if !ok {
				break
			}
			batch := images.Shape()[0]
			loss, err := t.TrainBatch(images, labels)
			if err != nil {
				return err
			}
			if err := t.Step(batch); err != nil {
				return err
			}
			lossSum += float64(loss)
			seen += batch
		}
		if seen == 0 {
			return fmt.Errorf("dataparallel: empty training iterator")
		}
		elapsed := time.Since(start)

		accuracy, err := t.Evaluate(val)
		if err != nil {
			return err
		}
		logger.Info("epoch complete",
			"epoch", epoch,
			"elapsed", elapsed.Round(time.Millisecond),
			"loss", lossSum/float64(seen),
			"val_accuracy", accuracy,
			"devices", t.group.Size(),
		)
	}
	return nil
}
