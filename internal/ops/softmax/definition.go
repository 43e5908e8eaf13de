package softmax

import (
	"fmt"

	"github.com/born-ml/kernels/internal/compute"
	"github.com/born-ml/kernels/internal/tensor"
)

// OperationDef configures a softmax kernel.
type OperationDef struct {
	Src       tensor.Descriptor
	Dst       tensor.Descriptor
	Precision compute.Precision
	// BatchSupport adds a batch coordinate: one work-group per batch element.
	BatchSupport bool
}

// Validate checks the definition for unknown enumerators.
func (d OperationDef) Validate() error {
	if err := d.Src.Validate(); err != nil {
		return fmt.Errorf("src: %w", err)
	}
	if err := d.Dst.Validate(); err != nil {
		return fmt.Errorf("dst: %w", err)
	}
	if d.Precision < compute.F32 || d.Precision > compute.F32F16 {
		return fmt.Errorf("invalid precision %d", d.Precision)
	}
	return nil
}

func (d OperationDef) needsF16() bool {
	return d.Precision.NeedsF16() || d.Src.DataType == tensor.Float16 || d.Dst.DataType == tensor.Float16
}
