package softmax

import "github.com/born-ml/kernels/internal/compute"

// MaskForLastPlane returns the lane mask of the last 4-channel slice of a
// tensor with the given channel count: lanes holding real channels are 1,
// padding lanes are 0.
func MaskForLastPlane(channels int) compute.Float4 {
	mask := compute.Float4{}
	remainder := channels % 4
	if remainder == 0 {
		remainder = 4
	}
	for i := 0; i < remainder; i++ {
		mask[i] = 1
	}
	return mask
}
