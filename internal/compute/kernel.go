package compute

import "fmt"

// Binding is a value attached to one argument slot.
type Binding struct {
	Arg    Arg
	Memory Memory // set for memory slots
	Value  Value  // set for bytes slots
}

// Kernel is a compiled program bound to one device handle. Arguments are
// attached in slot order through an auto-incrementing cursor, mirroring the
// order in which the program declares them.
//
// A Kernel has a single owner; it must not be shared between operations.
type Kernel struct {
	program  *Program
	handle   any
	bindings []Binding
	cursor   int
}

// NewKernel wraps a compiled device handle for program p.
func NewKernel(p *Program, handle any) *Kernel {
	return &Kernel{
		program:  p,
		handle:   handle,
		bindings: make([]Binding, len(p.Args)),
	}
}

// Program returns the program the kernel was compiled from.
func (k *Kernel) Program() *Program { return k.program }

// Handle returns the device-specific compiled object.
func (k *Kernel) Handle() any { return k.handle }

// Entry returns the entry point name.
func (k *Kernel) Entry() string { return k.program.Entry }

// ResetBindingCounter rewinds the cursor to slot 0 and forgets previous
// bindings.
func (k *Kernel) ResetBindingCounter() {
	k.cursor = 0
	clear(k.bindings)
}

// SetMemoryAuto binds tensor memory to the next slot.
func (k *Kernel) SetMemoryAuto(m Memory) error {
	arg, err := k.next()
	if err != nil {
		return err
	}
	if !arg.Kind.IsMemory() {
		return k.mismatch(arg, fmt.Sprintf("expected %s, got memory", arg.Kind))
	}
	if m == nil {
		return k.mismatch(arg, "nil memory")
	}
	if m.Descriptor() != arg.Desc {
		return k.mismatch(arg, fmt.Sprintf("expected tensor %s, got %s", arg.Desc, m.Descriptor()))
	}
	k.bindings[k.cursor] = Binding{Arg: arg, Memory: m}
	k.cursor++
	return nil
}

// SetBytesAuto binds a by-value argument to the next slot.
func (k *Kernel) SetBytesAuto(v Value) error {
	arg, err := k.next()
	if err != nil {
		return err
	}
	if arg.Kind != Bytes {
		return k.mismatch(arg, fmt.Sprintf("expected %s, got bytes", arg.Kind))
	}
	if v == nil {
		return k.mismatch(arg, "nil value")
	}
	if v.WGSL() != arg.Type {
		return k.mismatch(arg, fmt.Sprintf("expected %s, got %s", arg.Type, v.WGSL()))
	}
	k.bindings[k.cursor] = Binding{Arg: arg, Value: v}
	k.cursor++
	return nil
}

// Bound returns the number of slots bound since the last reset.
func (k *Kernel) Bound() int { return k.cursor }

// Complete reports whether every declared slot is bound.
func (k *Kernel) Complete() bool { return k.cursor == len(k.program.Args) }

// Bindings returns the bound slots in order.
func (k *Kernel) Bindings() []Binding {
	out := make([]Binding, k.cursor)
	copy(out, k.bindings[:k.cursor])
	return out
}

// Missing returns an error describing the first unbound slot, or nil.
func (k *Kernel) Missing() error {
	if k.Complete() {
		return nil
	}
	return &ArgumentBindingError{
		Slot:    k.cursor,
		Name:    k.program.Args[k.cursor].Name,
		Details: "argument not bound",
	}
}

func (k *Kernel) next() (Arg, error) {
	if k.cursor >= len(k.program.Args) {
		return Arg{}, &ArgumentBindingError{
			Slot:    k.cursor,
			Details: fmt.Sprintf("slots exhausted: kernel %q declares %d arguments", k.program.Entry, len(k.program.Args)),
		}
	}
	return k.program.Args[k.cursor], nil
}

func (k *Kernel) mismatch(arg Arg, details string) error {
	return &ArgumentBindingError{Slot: k.cursor, Name: arg.Name, Details: details}
}
