package compute

// Invocation is the state of one lane while a host device runs a LaneFunc.
type Invocation struct {
	LocalID  Int3
	GroupID  Int3
	GlobalID Int3
	// Shared is the work-group memory, visible to every lane of the group.
	Shared []float32

	args    []Binding
	barrier func()
}

// NewInvocation is used by host devices to set up one lane.
func NewInvocation(local, group, global Int3, shared []float32, args []Binding, barrier func()) *Invocation {
	return &Invocation{
		LocalID:  local,
		GroupID:  group,
		GlobalID: global,
		Shared:   shared,
		args:     args,
		barrier:  barrier,
	}
}

// Barrier blocks until every lane of the work-group reaches it. Writes to
// Shared made before the barrier are visible to all lanes after it.
func (inv *Invocation) Barrier() {
	inv.barrier()
}

// Memory returns the host memory bound to the named argument, or nil.
func (inv *Invocation) Memory(name string) HostMemory {
	for _, b := range inv.args {
		if b.Arg.Name == name {
			m, _ := b.Memory.(HostMemory)
			return m
		}
	}
	return nil
}

// Value returns the value bound to the named argument, or nil.
func (inv *Invocation) Value(name string) Value {
	for _, b := range inv.args {
		if b.Arg.Name == name {
			return b.Value
		}
	}
	return nil
}
