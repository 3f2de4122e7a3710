package mnist

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockstep-ml/lockstep/internal/tensor"
)

func encodeImages(t *testing.T, count, rows, cols int, pixels []byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	for _, v := range []uint32{imageMagic, uint32(count), uint32(rows), uint32(cols)} {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, v))
	}
	buf.Write(pixels)
	return &buf
}

func encodeLabels(t *testing.T, labels []byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	for _, v := range []uint32{labelMagic, uint32(len(labels))} {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, v))
	}
	buf.Write(labels)
	return &buf
}

func TestDecodeImagesNormalizes(t *testing.T) {
	buf := encodeImages(t, 1, 2, 2, []byte{0, 51, 204, 255})
	pixels, count, rows, cols, err := decodeImages(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.InDeltaSlice(t, []float32{0, 0.2, 0.8, 1}, pixels, 1e-6)
}

func TestDecodeImagesBadMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, [4]uint32{1234, 1, 2, 2}))
	buf.Write(make([]byte, 4))
	_, _, _, _, err := decodeImages(&buf)
	assert.ErrorContains(t, err, "magic")
}

func TestDecodeImagesTruncated(t *testing.T) {
	buf := encodeImages(t, 2, 2, 2, []byte{1, 2, 3}) // needs 8 pixel bytes
	_, _, _, _, err := decodeImages(buf)
	assert.Error(t, err)
}

func TestDecodeLabels(t *testing.T) {
	labels, err := decodeLabels(encodeLabels(t, []byte{3, 1, 4}))
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 1, 4}, labels)
}

func TestDecodeLabelsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, [2]uint32{42, 0}))
	_, err := decodeLabels(&buf)
	assert.ErrorContains(t, err, "magic")
}

func TestIteratorBatchesAndReset(t *testing.T) {
	ds := Synthetic(10, 1)
	it, err := NewIterator(ds, 4)
	require.NoError(t, err)

	var sizes []int
	for {
		images, labels, ok := it.Next()
		if !ok {
			break
		}
		n := labels.Shape()[0]
		sizes = append(sizes, n)
		assert.True(t, images.Shape().Equal(tensor.Shape{n, 1, 28, 28}))
		assert.Equal(t, tensor.Float32, images.DType())
		assert.Equal(t, tensor.Int32, labels.DType())
	}
	assert.Equal(t, []int{4, 4, 2}, sizes)

	it.Reset()
	_, labels, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, 4, labels.Shape()[0])
}

func TestIteratorRejectsBadInput(t *testing.T) {
	ds := Synthetic(4, 1)
	_, err := NewIterator(ds, 0)
	assert.Error(t, err)
	_, err = NewIterator(&Dataset{rows: 28, cols: 28}, 4)
	assert.Error(t, err)
}

func TestSyntheticDeterministic(t *testing.T) {
	a, b := Synthetic(20, 7), Synthetic(20, 7)
	assert.Equal(t, a.Images, b.Images)
	assert.Equal(t, a.Labels, b.Labels)

	c := Synthetic(20, 8)
	assert.NotEqual(t, a.Images, c.Images)
}

func TestSyntheticLabelsCoverClasses(t *testing.T) {
	ds := Synthetic(30, 1)
	seen := map[int32]bool{}
	for _, l := range ds.Labels {
		require.GreaterOrEqual(t, l, int32(0))
		require.Less(t, l, int32(10))
		seen[l] = true
	}
	assert.Len(t, seen, 10)
}

func TestSplitAndLimit(t *testing.T) {
	ds := Synthetic(10, 1)
	head, tail := ds.Split(0.2)
	assert.Equal(t, 8, head.Len())
	assert.Equal(t, 2, tail.Len())
	assert.Len(t, head.Images, 8*28*28)

	limited := ds.Limit(3)
	assert.Equal(t, 3, limited.Len())
	assert.Same(t, ds, ds.Limit(0))
	assert.Same(t, ds, ds.Limit(100))
}
