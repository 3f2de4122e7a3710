package mnist

import (
	"fmt"

	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Iterator walks a dataset in fixed-size batches, yielding host-resident
// tensors: images [N,1,rows,cols] float32 and labels [N] int32. The last
// batch may be short. It satisfies the trainer's BatchIterator contract.
type Iterator struct {
	ds        *Dataset
	batchSize int
	pos       int
}

func NewIterator(ds *Dataset, batchSize int) (*Iterator, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("mnist: batch size %d", batchSize)
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("mnist: empty dataset")
	}
	return &Iterator{ds: ds, batchSize: batchSize}, nil
}

// Next returns the next batch, or ok=false after the last one.
func (it *Iterator) Next() (*tensor.RawTensor, *tensor.RawTensor, bool) {
	if it.pos >= it.ds.Len() {
		return nil, nil, false
	}
	n := it.batchSize
	if rest := it.ds.Len() - it.pos; n > rest {
		n = rest
	}

	host := tensor.Device{Kind: tensor.CPU}
	pixelsPer := it.ds.rows * it.ds.cols
	images := tensor.MustNewRaw(tensor.Shape{n, 1, it.ds.rows, it.ds.cols}, tensor.Float32, host)
	copy(images.Float32(), it.ds.Images[it.pos*pixelsPer:(it.pos+n)*pixelsPer])
	labels := tensor.MustNewRaw(tensor.Shape{n}, tensor.Int32, host)
	copy(labels.Int32(), it.ds.Labels[it.pos:it.pos+n])

	it.pos += n
	return images, labels, true
}

// Reset rewinds the iterator to the first batch.
func (it *Iterator) Reset() { it.pos = 0 }
