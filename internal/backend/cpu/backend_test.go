package cpu

import (
	"math"
	"testing"

	"github.com/lockstep-ml/lockstep/internal/tensor"
)

func fromFloat32(t *testing.T, values []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.Device{Kind: tensor.CPU})
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.Float32(), values)
	return raw
}

func float32SliceEqual(a, b []float32, eps float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if float32(math.Abs(float64(a[i]-b[i]))) > eps {
			return false
		}
	}
	return true
}

func TestAddSameShape(t *testing.T) {
	b := New()
	a := fromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	c := fromFloat32(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})
	got := b.Add(a, c)
	want := []float32{11, 22, 33, 44}
	if !float32SliceEqual(got.Float32(), want, 0) {
		t.Errorf("Add = %v, want %v", got.Float32(), want)
	}
}

func TestAddBroadcastRowVector(t *testing.T) {
	b := New()
	a := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	bias := fromFloat32(t, []float32{10, 20, 30}, tensor.Shape{1, 3})
	got := b.Add(a, bias)
	want := []float32{11, 22, 33, 14, 25, 36}
	if !got.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("shape = %v", got.Shape())
	}
	if !float32SliceEqual(got.Float32(), want, 0) {
		t.Errorf("broadcast Add = %v, want %v", got.Float32(), want)
	}
}

func TestMatMul(t *testing.T) {
	b := New()
	a := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	c := fromFloat32(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})
	got := b.MatMul(a, c)
	want := []float32{58, 64, 139, 154}
	if !float32SliceEqual(got.Float32(), want, 1e-5) {
		t.Errorf("MatMul = %v, want %v", got.Float32(), want)
	}
}

func TestConv2DIdentityKernel(t *testing.T) {
	b := New()
	input := fromFloat32(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3})
	kernel := fromFloat32(t, []float32{1}, tensor.Shape{1, 1, 1, 1})
	got := b.Conv2D(input, kernel, 1, 0)
	if !got.Shape().Equal(tensor.Shape{1, 1, 3, 3}) {
		t.Fatalf("shape = %v", got.Shape())
	}
	if !float32SliceEqual(got.Float32(), input.Float32(), 0) {
		t.Errorf("identity conv changed values: %v", got.Float32())
	}
}

func TestConv2DSumKernel(t *testing.T) {
	b := New()
	input := fromFloat32(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3})
	kernel := fromFloat32(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})
	got := b.Conv2D(input, kernel, 1, 0)
	want := []float32{12, 16, 24, 28}
	if !got.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("shape = %v", got.Shape())
	}
	if !float32SliceEqual(got.Float32(), want, 1e-5) {
		t.Errorf("Conv2D = %v, want %v", got.Float32(), want)
	}
}

func TestConv2DPadding(t *testing.T) {
	b := New()
	input := fromFloat32(t, []float32{5}, tensor.Shape{1, 1, 1, 1})
	kernel := fromFloat32(t, []float32{1, 1, 1, 1, 1, 1, 1, 1, 1}, tensor.Shape{1, 1, 3, 3})
	got := b.Conv2D(input, kernel, 1, 1)
	if !got.Shape().Equal(tensor.Shape{1, 1, 1, 1}) {
		t.Fatalf("shape = %v", got.Shape())
	}
	if got.Float32()[0] != 5 {
		t.Errorf("padded conv = %v, want 5", got.Float32()[0])
	}
}

func TestConv2DKernelBackward(t *testing.T) {
	b := New()
	input := fromFloat32(t, []float32{
		1, 2,
		3, 4,
	}, tensor.Shape{1, 1, 2, 2})
	kernel := fromFloat32(t, []float32{0}, tensor.Shape{1, 1, 1, 1})
	grad := fromFloat32(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})
	got := b.Conv2DKernelBackward(input, kernel, grad, 1, 0)
	// d/dk of sum(input * k) with a 1x1 kernel is sum(input).
	if got.Float32()[0] != 10 {
		t.Errorf("kernel grad = %v, want 10", got.Float32()[0])
	}
}

func TestConv2DInputBackward(t *testing.T) {
	b := New()
	input := fromFloat32(t, []float32{0, 0, 0, 0}, tensor.Shape{1, 1, 2, 2})
	kernel := fromFloat32(t, []float32{3}, tensor.Shape{1, 1, 1, 1})
	grad := fromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	got := b.Conv2DInputBackward(input, kernel, grad, 1, 0)
	want := []float32{3, 6, 9, 12}
	if !float32SliceEqual(got.Float32(), want, 1e-5) {
		t.Errorf("input grad = %v, want %v", got.Float32(), want)
	}
}

func TestMaxPool2D(t *testing.T) {
	b := New()
	input := fromFloat32(t, []float32{
		1, 3, 2, 4,
		5, 7, 6, 8,
		9, 11, 10, 12,
		13, 15, 14, 16,
	}, tensor.Shape{1, 1, 4, 4})
	got := b.MaxPool2D(input, 2, 2)
	want := []float32{7, 8, 15, 16}
	if !got.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("shape = %v", got.Shape())
	}
	if !float32SliceEqual(got.Float32(), want, 0) {
		t.Errorf("MaxPool2D = %v, want %v", got.Float32(), want)
	}
}

func TestMaxPool2DBackwardRouting(t *testing.T) {
	b := New()
	input := fromFloat32(t, []float32{
		1, 3,
		2, 4,
	}, tensor.Shape{1, 1, 2, 2})
	grad := fromFloat32(t, []float32{5}, tensor.Shape{1, 1, 1, 1})
	got := b.MaxPool2DBackward(input, grad, []int{3}, 2, 2)
	want := []float32{0, 0, 0, 5}
	if !float32SliceEqual(got.Float32(), want, 0) {
		t.Errorf("MaxPool2DBackward = %v, want %v", got.Float32(), want)
	}
}

func TestReLUAndBackward(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{-1, 0, 2, -3}, tensor.Shape{4})
	got := b.ReLU(x)
	if !float32SliceEqual(got.Float32(), []float32{0, 0, 2, 0}, 0) {
		t.Errorf("ReLU = %v", got.Float32())
	}
	grad := fromFloat32(t, []float32{10, 20, 30, 40}, tensor.Shape{4})
	gotGrad := b.ReLUBackward(x, grad)
	if !float32SliceEqual(gotGrad.Float32(), []float32{0, 0, 30, 0}, 0) {
		t.Errorf("ReLUBackward = %v", gotGrad.Float32())
	}
}

func TestSumAndSumDim(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	if got := b.Sum(x).Float32()[0]; got != 21 {
		t.Errorf("Sum = %v, want 21", got)
	}
	cols := b.SumDim(x, 0, true)
	if !cols.Shape().Equal(tensor.Shape{1, 3}) {
		t.Fatalf("SumDim keepDim shape = %v", cols.Shape())
	}
	if !float32SliceEqual(cols.Float32(), []float32{5, 7, 9}, 0) {
		t.Errorf("SumDim dim0 = %v", cols.Float32())
	}
	rows := b.SumDim(x, 1, false)
	if !rows.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("SumDim drop shape = %v", rows.Shape())
	}
	if !float32SliceEqual(rows.Float32(), []float32{6, 15}, 0) {
		t.Errorf("SumDim dim1 = %v", rows.Float32())
	}
}

func TestArgmax(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{0.1, 0.9, 0.2, 0.8, 0.3, 0.7}, tensor.Shape{2, 3})
	got := b.Argmax(x, 1)
	if got.DType() != tensor.Int32 {
		t.Fatalf("Argmax dtype = %v", got.DType())
	}
	idx := got.Int32()
	if idx[0] != 1 || idx[1] != 0 {
		t.Errorf("Argmax = %v, want [1 0]", idx)
	}
}

func TestTranspose2D(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	got := b.Transpose(x)
	if !got.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v", got.Shape())
	}
	want := []float32{1, 4, 2, 5, 3, 6}
	if !float32SliceEqual(got.Float32(), want, 0) {
		t.Errorf("Transpose = %v, want %v", got.Float32(), want)
	}
}

func TestReshapePreservesBytes(t *testing.T) {
	b := New()
	x := fromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	got := b.Reshape(x, tensor.Shape{4})
	if !float32SliceEqual(got.Float32(), x.Float32(), 0) {
		t.Errorf("Reshape changed values: %v", got.Float32())
	}
}
