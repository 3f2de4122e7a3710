// Package mnist loads the MNIST handwritten-digit dataset from IDX
// files and exposes it through a batching iterator. A deterministic
// synthetic variant stands in when the dataset files are absent.
package mnist

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	imageMagic = 2051
	labelMagic = 2049
)

// decodeImages reads an IDX3 image file: big-endian magic, count, rows,
// cols, then count*rows*cols pixel bytes. Pixels are normalized to
// [0, 1].
func decodeImages(r io.Reader) (pixels []float32, count, rows, cols int, err error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, 0, 0, 0, fmt.Errorf("mnist: reading image header: %w", err)
	}
	if header[0] != imageMagic {
		return nil, 0, 0, 0, fmt.Errorf("mnist: bad image magic %d, want %d", header[0], imageMagic)
	}
	count, rows, cols = int(header[1]), int(header[2]), int(header[3])
	if count < 0 || rows < 1 || cols < 1 {
		return nil, 0, 0, 0, fmt.Errorf("mnist: invalid image dimensions %dx%dx%d", count, rows, cols)
	}

	raw := make([]byte, count*rows*cols)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, 0, 0, 0, fmt.Errorf("mnist: reading %d image bytes: %w", len(raw), err)
	}
	pixels = make([]float32, len(raw))
	for i, b := range raw {
		pixels[i] = float32(b) / 255.0
	}
	return pixels, count, rows, cols, nil
}

// decodeLabels reads an IDX1 label file: big-endian magic and count,
// then count class bytes.
func decodeLabels(r io.Reader) ([]int32, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("mnist: reading label header: %w", err)
	}
	if header[0] != labelMagic {
		return nil, fmt.Errorf("mnist: bad label magic %d, want %d", header[0], labelMagic)
	}
	count := int(header[1])

	raw := make([]byte, count)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("mnist: reading %d labels: %w", count, err)
	}
	labels := make([]int32, count)
	for i, b := range raw {
		labels[i] = int32(b)
	}
	return labels, nil
}
