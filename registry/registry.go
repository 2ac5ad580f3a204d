// Package registry defines the boundary between the reactive object bridge
// and a native UI runtime: how member descriptors become classes, classes
// become instances, and change signals reach the runtime. The bridge only
// ever talks to a Registry; the Mem implementation in this package stands in
// for a real runtime in tests and demos.
package registry

import "reflect"

// Handle identifies one live native object instance.
type Handle interface {
	ID() string
}

// Class is an opaque native class built from member descriptors.
type Class interface {
	// Descriptors returns the members the class was created with, in
	// registration order.
	Descriptors() []Descriptor
}

// SignalID identifies a change signal within a class. IDs are assigned by
// the bridge in member order over the signal-bearing members.
type SignalID int

// Registry is the native object surface the bridge registers members with.
type Registry interface {
	CreateClass(members []Descriptor) (Class, error)
	CreateInstance(c Class) (Handle, error)

	// FireChangeSignal notifies the runtime that a signal-bearing property
	// of the instance has a new value. The mirrored value is always updated
	// before this fires, so reads triggered by the notification observe the
	// new value.
	FireChangeSignal(h Handle, sig SignalID)
}

// Engine is a registry that can also run the UI runtime itself. Exec blocks
// until the runtime terminates.
type Engine interface {
	Registry

	Exec(root Handle) error
}

// DescriptorKind says how a member is exposed on the native side.
type DescriptorKind int

const (
	DescConstant DescriptorKind = iota
	DescReadOnly
	DescReadWrite
	DescMethod
)

func (k DescriptorKind) String() string {
	switch k {
	case DescConstant:
		return "constant"
	case DescReadOnly:
		return "readonly"
	case DescReadWrite:
		return "readwrite"
	case DescMethod:
		return "method"
	}
	return "unknown"
}

// Descriptor describes one native member: its name, how it is exposed, and
// the procedures the runtime should call into.
type Descriptor struct {
	Name string
	Kind DescriptorKind

	// Read returns the current property value. Safe to call from any
	// goroutine; unset for methods.
	Read func(h Handle) any

	// Write delivers an inbound property write. Read-write properties only.
	Write func(h Handle, v any)

	// Call delivers an inbound method invocation and blocks until a result
	// is available. Methods only.
	Call func(h Handle, args []any) any

	// Signal is the change signal of signal-bearing properties, -1 if none.
	Signal SignalID
}

// ConstantProperty exposes a fixed value with no change signal.
func ConstantProperty(name string, read func(Handle) any) Descriptor {
	return Descriptor{Name: name, Kind: DescConstant, Read: read, Signal: -1}
}

// ReadOnlyProperty exposes a value with a change signal.
func ReadOnlyProperty(name string, sig SignalID, read func(Handle) any) Descriptor {
	return Descriptor{Name: name, Kind: DescReadOnly, Read: read, Signal: sig}
}

// ReadWriteProperty exposes a value with a change signal and a write surface.
func ReadWriteProperty(name string, sig SignalID, read func(Handle) any, write func(Handle, any)) Descriptor {
	return Descriptor{Name: name, Kind: DescReadWrite, Read: read, Write: write, Signal: sig}
}

// Method exposes a callable member.
func Method(name string, call func(Handle, []any) any) Descriptor {
	return Descriptor{Name: name, Kind: DescMethod, Call: call, Signal: -1}
}

// Convertible reports whether a Go type can cross the native boundary as a
// property value, method argument, or method result.
func Convertible(t reflect.Type) bool {
	if t == nil {
		return false
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	case reflect.Interface:
		// any, and Handle itself
		return t.NumMethod() == 0 || t == handleType
	case reflect.Slice:
		return Convertible(t.Elem())
	case reflect.Map:
		return t.Key().Kind() == reflect.String && Convertible(t.Elem())
	default:
		return t.Implements(handleType)
	}
}

var handleType = reflect.TypeOf((*Handle)(nil)).Elem()
