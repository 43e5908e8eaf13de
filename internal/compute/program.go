package compute

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/born-ml/kernels/internal/tensor"
)

// ArgKind classifies a kernel argument slot.
type ArgKind int

// Argument kinds.
const (
	// MemoryRead is tensor storage the kernel only reads.
	MemoryRead ArgKind = iota
	// MemoryWrite is tensor storage the kernel writes.
	MemoryWrite
	// Bytes is a by-value argument uploaded as a uniform.
	Bytes
)

// String returns a human-readable name for the kind.
func (k ArgKind) String() string {
	switch k {
	case MemoryRead:
		return "memory(read)"
	case MemoryWrite:
		return "memory(write)"
	case Bytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// IsMemory reports whether the slot takes tensor memory.
func (k ArgKind) IsMemory() bool {
	return k == MemoryRead || k == MemoryWrite
}

// Arg declares one kernel argument slot. Slots are numbered in declaration
// order, which is also the binding index in the generated program.
type Arg struct {
	Name string
	Kind ArgKind
	// Type is the WGSL type of the declaration. For Bytes slots it must equal
	// the bound Value's WGSL type.
	Type string
	// Desc is the expected tensor descriptor of a memory slot.
	Desc tensor.Descriptor
}

// LaneFunc is the host-executable body of a program, run once per lane.
type LaneFunc func(inv *Invocation)

// Program is generated kernel source together with the metadata needed to
// compile and bind it.
type Program struct {
	Source string
	Entry  string
	Args   []Arg
	// WorkGroupSize is the fixed local size declared in Source.
	WorkGroupSize Int3
	// SharedFloats is the number of 32-bit words of work-group memory.
	SharedFloats int
	// Emulation runs the same algorithm as Source on the host device.
	Emulation LaneFunc
}

// Hash identifies the program by entry point and source text.
func (p *Program) Hash() string {
	h := sha256.New()
	h.Write([]byte(p.Entry))
	h.Write([]byte{0})
	h.Write([]byte(p.Source))
	return hex.EncodeToString(h.Sum(nil))
}

// ArgIndex returns the slot of the named argument, or -1.
func (p *Program) ArgIndex(name string) int {
	for i, a := range p.Args {
		if a.Name == name {
			return i
		}
	}
	return -1
}
