package tensor

import "fmt"

// DataType identifies the element type of a RawTensor buffer.
type DataType int

const (
	Float32 DataType = iota
	Int32
	Uint8
)

// Size returns the element size in bytes.
func (d DataType) Size() int {
	switch d {
	case Float32, Int32:
		return 4
	case Uint8:
		return 1
	default:
		panic(fmt.Sprintf("tensor: unknown dtype %d", int(d)))
	}
}

func (d DataType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Uint8:
		return "uint8"
	default:
		return fmt.Sprintf("dtype(%d)", int(d))
	}
}

// DType is the constraint for element types supported by the typed Tensor.
type DType interface {
	~float32 | ~int32 | ~uint8
}

// DataTypeOf maps a Go element type to its DataType tag.
func DataTypeOf[T DType]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case int32:
		return Int32
	case uint8:
		return Uint8
	default:
		panic(fmt.Sprintf("tensor: unsupported element type %T", zero))
	}
}
