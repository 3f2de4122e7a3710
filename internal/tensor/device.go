package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// DeviceKind distinguishes the compute unit classes a tensor can live on.
type DeviceKind int

const (
	CPU DeviceKind = iota
	GPU
)

func (k DeviceKind) String() string {
	switch k {
	case CPU:
		return "cpu"
	case GPU:
		return "gpu"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Device identifies one compute unit. Every tensor lives on exactly one
// device, and the device is part of the tensor's identity: backends only
// operate on tensors stamped with their own device.
type Device struct {
	Kind    DeviceKind
	Ordinal int
}

func (d Device) String() string {
	return fmt.Sprintf("%s:%d", d.Kind, d.Ordinal)
}

// ParseDevice parses strings of the form "cpu", "cpu:1", "gpu:0".
func ParseDevice(s string) (Device, error) {
	name, ord := s, 0
	if i := strings.IndexByte(s, ':'); i >= 0 {
		name = s[:i]
		n, err := strconv.Atoi(s[i+1:])
		if err != nil || n < 0 {
			return Device{}, fmt.Errorf("tensor: invalid device ordinal in %q", s)
		}
		ord = n
	}
	switch name {
	case "cpu":
		return Device{Kind: CPU, Ordinal: ord}, nil
	case "gpu":
		return Device{Kind: GPU, Ordinal: ord}, nil
	default:
		return Device{}, fmt.Errorf("tensor: unknown device kind %q", name)
	}
}
