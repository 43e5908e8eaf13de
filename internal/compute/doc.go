// Package compute holds the plumbing shared by generated kernels and the
// devices that run them: programs, compiled kernels with their argument
// binding cursor, the program cache, dispatch queues, linked operations and
// the host emulation contract.
//
// Lifecycle of a kernel:
//
//	program := generator(def)                      // source text + argument signature
//	kernel, err := cache.GetOrCreateKernel(program, "main_function")
//	kernel.ResetBindingCounter()
//	kernel.SetMemoryAuto(src.Memory())             // slot 0
//	kernel.SetBytesAuto(compute.Int2{depth, rounds}) // next slot
//	queue.DispatchImplicit(kernel, global, local)
package compute
