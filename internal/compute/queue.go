package compute

// Queue launches bound kernels on a device. Whether DispatchImplicit waits for
// completion is up to the queue.
type Queue interface {
	DispatchImplicit(k *Kernel, global, local Int3) error
}

// CreationContext carries the collaborators an operation needs to compile.
type CreationContext struct {
	Cache *ProgramCache
}
