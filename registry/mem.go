package registry

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Mem is an in-memory native runtime. It registers classes and instances the
// way a real UI runtime would and lets tests and demos drive the registered
// procedures from arbitrary goroutines.
type Mem struct {
	mu sync.Mutex

	// Logger receives debug output; nil means silent.
	Logger *slog.Logger

	// Script drives Exec; nil makes Exec return immediately.
	Script func(m *Mem, root Handle) error

	instances map[string]*MemObject
	listeners []func(Handle, SignalID)
	signals   map[signalKey]int
}

type signalKey struct {
	id  string
	sig SignalID
}

func NewMem() *Mem {
	return &Mem{
		instances: make(map[string]*MemObject),
		signals:   make(map[signalKey]int),
	}
}

// MemClass is a registered class: an ordered set of member descriptors.
type MemClass struct {
	descriptors []Descriptor
}

func (c *MemClass) Descriptors() []Descriptor { return c.descriptors }

// MemObject is one live instance. Its identity is the handle identity the
// bridge relies on for reuse checks.
type MemObject struct {
	id    string
	class *MemClass
}

func (o *MemObject) ID() string { return o.id }

func (m *Mem) CreateClass(members []Descriptor) (Class, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("registry: class needs at least one member")
	}

	seen := make(map[string]bool, len(members))
	for _, d := range members {
		if seen[d.Name] {
			return nil, fmt.Errorf("registry: duplicate member %q", d.Name)
		}
		seen[d.Name] = true
	}

	m.log("create class", "members", len(members))

	return &MemClass{descriptors: members}, nil
}

func (m *Mem) CreateInstance(c Class) (Handle, error) {
	mc, ok := c.(*MemClass)
	if !ok {
		return nil, fmt.Errorf("registry: class %T does not belong to this registry", c)
	}

	o := &MemObject{id: uuid.NewString(), class: mc}

	m.mu.Lock()
	m.instances[o.id] = o
	m.mu.Unlock()

	m.log("create instance", "id", o.id)

	return o, nil
}

func (m *Mem) FireChangeSignal(h Handle, sig SignalID) {
	m.mu.Lock()
	m.signals[signalKey{id: h.ID(), sig: sig}]++
	listeners := make([]func(Handle, SignalID), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(h, sig)
	}
}

// OnSignal registers a listener invoked for every change signal. The
// mirrored property value is already updated when the listener runs.
func (m *Mem) OnSignal(fn func(Handle, SignalID)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// SignalCount returns how often the given signal fired on the instance.
func (m *Mem) SignalCount(h Handle, sig SignalID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signals[signalKey{id: h.ID(), sig: sig}]
}

// ReadProperty reads a property the way the native runtime would: through
// the registered read procedure. Safe from any goroutine.
func (m *Mem) ReadProperty(h Handle, name string) (any, error) {
	d, err := m.descriptor(h, name)
	if err != nil {
		return nil, err
	}
	if d.Read == nil {
		return nil, fmt.Errorf("registry: member %q is not readable", name)
	}
	return d.Read(h), nil
}

// WriteProperty delivers an inbound property write.
func (m *Mem) WriteProperty(h Handle, name string, v any) error {
	d, err := m.descriptor(h, name)
	if err != nil {
		return err
	}
	if d.Write == nil {
		return fmt.Errorf("registry: member %q is not writable", name)
	}
	d.Write(h, v)
	return nil
}

// Invoke calls a method member, blocking until its result is available.
func (m *Mem) Invoke(h Handle, name string, args ...any) (any, error) {
	d, err := m.descriptor(h, name)
	if err != nil {
		return nil, err
	}
	if d.Call == nil {
		return nil, fmt.Errorf("registry: member %q is not callable", name)
	}
	return d.Call(h, args), nil
}

// Exec runs the configured script against the root object and returns when
// it completes, standing in for the UI runtime's event loop.
func (m *Mem) Exec(root Handle) error {
	m.log("exec", "root", root.ID())

	if m.Script == nil {
		return nil
	}
	return m.Script(m, root)
}

func (m *Mem) descriptor(h Handle, name string) (Descriptor, error) {
	o, ok := h.(*MemObject)
	if !ok {
		return Descriptor{}, fmt.Errorf("registry: handle %T does not belong to this registry", h)
	}

	for _, d := range o.class.descriptors {
		if d.Name == name {
			return d, nil
		}
	}

	return Descriptor{}, fmt.Errorf("registry: object has no member %q", name)
}

func (m *Mem) log(msg string, args ...any) {
	if m.Logger != nil {
		m.Logger.Debug(msg, args...)
	}
}
