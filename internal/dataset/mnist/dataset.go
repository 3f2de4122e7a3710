package mnist

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Dataset holds images as normalized float32 pixels, row-major
// [n, rows*cols], with one int32 class label per image.
type Dataset struct {
	Images []float32
	Labels []int32

	rows, cols int
}

func (d *Dataset) Len() int  { return len(d.Labels) }
func (d *Dataset) Rows() int { return d.rows }
func (d *Dataset) Cols() int { return d.cols }

// Load reads the train or test split from dir. Files may be the plain
// IDX files or their .gz versions.
func Load(dir string, train bool) (*Dataset, error) {
	imageFile, labelFile := "t10k-images-idx3-ubyte", "t10k-labels-idx1-ubyte"
	if train {
		imageFile, labelFile = "train-images-idx3-ubyte", "train-labels-idx1-ubyte"
	}

	ir, err := openMaybeGzip(filepath.Join(dir, imageFile))
	if err != nil {
		return nil, err
	}
	defer ir.Close()
	pixels, count, rows, cols, err := decodeImages(ir)
	if err != nil {
		return nil, err
	}

	lr, err := openMaybeGzip(filepath.Join(dir, labelFile))
	if err != nil {
		return nil, err
	}
	defer lr.Close()
	labels, err := decodeLabels(lr)
	if err != nil {
		return nil, err
	}

	if len(labels) != count {
		return nil, fmt.Errorf("mnist: %d images but %d labels", count, len(labels))
	}
	return &Dataset{Images: pixels, Labels: labels, rows: rows, cols: cols}, nil
}

// Limit returns a view of the first n examples, or the dataset itself
// when n is zero or exceeds its size.
func (d *Dataset) Limit(n int) *Dataset {
	if n <= 0 || n >= d.Len() {
		return d
	}
	return &Dataset{
		Images: d.Images[:n*d.rows*d.cols],
		Labels: d.Labels[:n],
		rows:   d.rows,
		cols:   d.cols,
	}
}

// Split cuts the dataset into a head of (1-valFraction) and a
// validation tail. The split is positional; MNIST files are already
// shuffled.
func (d *Dataset) Split(valFraction float64) (*Dataset, *Dataset) {
	n := d.Len()
	trainN := n - int(float64(n)*valFraction)
	pixelsPer := d.rows * d.cols
	head := &Dataset{
		Images: d.Images[:trainN*pixelsPer],
		Labels: d.Labels[:trainN],
		rows:   d.rows, cols: d.cols,
	}
	tail := &Dataset{
		Images: d.Images[trainN*pixelsPer:],
		Labels: d.Labels[trainN:],
		rows:   d.rows, cols: d.cols,
	}
	return head, tail
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var err error
	for _, c := range rc.closers {
		if e := c.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func openMaybeGzip(path string) (io.ReadCloser, error) {
	if f, err := os.Open(path); err == nil {
		return f, nil
	}
	f, err := os.Open(path + ".gz")
	if err != nil {
		return nil, fmt.Errorf("mnist: missing %s(.gz): %w", path, err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mnist: opening %s.gz: %w", path, err)
	}
	return &readCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
}
