// Package tensor implements the core tensor runtime: raw byte-buffer
// tensors with shape, strides, dtype and device identity, a typed generic
// wrapper, and the Backend contract compute backends implement.
package tensor

import (
	"fmt"
	"unsafe"
)

// RawTensor is the untyped tensor representation shared by all backends:
// a contiguous row-major byte buffer plus shape, strides, dtype and the
// device the tensor belongs to. Backends return freshly allocated outputs;
// a RawTensor's buffer is never aliased between two tensors.
type RawTensor struct {
	data    []byte
	shape   Shape
	strides []int
	dtype   DataType
	device  Device
}

// NewRaw allocates a zeroed tensor of the given shape and dtype on device.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &RawTensor{
		data:    make([]byte, shape.NumElements()*dtype.Size()),
		shape:   shape.Clone(),
		strides: shape.Strides(),
		dtype:   dtype,
		device:  device,
	}, nil
}

// MustNewRaw is NewRaw for shapes already known to be valid.
func MustNewRaw(shape Shape, dtype DataType, device Device) *RawTensor {
	t, err := NewRaw(shape, dtype, device)
	if err != nil {
		panic(err)
	}
	return t
}

func (r *RawTensor) Shape() Shape    { return r.shape }
func (r *RawTensor) Strides() []int  { return r.strides }
func (r *RawTensor) DType() DataType { return r.dtype }
func (r *RawTensor) Device() Device  { return r.device }

// Data exposes the underlying byte buffer. Writes mutate the tensor.
func (r *RawTensor) Data() []byte { return r.data }

func (r *RawTensor) NumElements() int { return r.shape.NumElements() }
func (r *RawTensor) ByteSize() int    { return len(r.data) }

// Clone deep-copies the tensor, buffer included.
func (r *RawTensor) Clone() *RawTensor {
	out := &RawTensor{
		data:    make([]byte, len(r.data)),
		shape:   r.shape.Clone(),
		strides: r.shape.Strides(),
		dtype:   r.dtype,
		device:  r.device,
	}
	copy(out.data, r.data)
	return out
}

// CloneTo is Clone with the copy stamped onto another device.
func (r *RawTensor) CloneTo(device Device) *RawTensor {
	out := r.Clone()
	out.device = device
	return out
}

// CopyFrom overwrites this tensor's buffer with src's bytes. Shapes and
// dtypes must match; devices may differ (this is the transfer primitive).
func (r *RawTensor) CopyFrom(src *RawTensor) error {
	if !r.shape.Equal(src.shape) || r.dtype != src.dtype {
		return fmt.Errorf("tensor: copy mismatch: %s %v <- %s %v", r.dtype, r.shape, src.dtype, src.shape)
	}
	copy(r.data, src.data)
	return nil
}

// Float32 views the buffer as a float32 slice. Panics on dtype mismatch.
func (r *RawTensor) Float32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor: Float32 view of %s tensor", r.dtype))
	}
	if len(r.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// Int32 views the buffer as an int32 slice. Panics on dtype mismatch.
func (r *RawTensor) Int32() []int32 {
	if r.dtype != Int32 {
		panic(fmt.Sprintf("tensor: Int32 view of %s tensor", r.dtype))
	}
	if len(r.data) == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// Uint8 views the buffer as a uint8 slice. Panics on dtype mismatch.
func (r *RawTensor) Uint8() []uint8 {
	if r.dtype != Uint8 {
		panic(fmt.Sprintf("tensor: Uint8 view of %s tensor", r.dtype))
	}
	return r.data
}

func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor(%s, %s, %s)", r.dtype, r.shape, r.device)
}
