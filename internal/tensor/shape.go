package tensor

import "fmt"

// BHWC is a 4D tensor shape in batch, height, width, channels order.
type BHWC struct {
	B, H, W, C int
}

// Slices returns the number of 4-channel slices, ceil(C/4).
func (s BHWC) Slices() int {
	return DivideRoundUp(s.C, 4)
}

// NumElements returns the total number of scalar elements.
func (s BHWC) NumElements() int {
	return s.B * s.H * s.W * s.C
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s BHWC) Validate() error {
	for i, dim := range [4]int{s.B, s.H, s.W, s.C} {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// String formats the shape as "BHWC(b, h, w, c)".
func (s BHWC) String() string {
	return fmt.Sprintf("BHWC(%d, %d, %d, %d)", s.B, s.H, s.W, s.C)
}

// DivideRoundUp returns ceil(n/d) for non-negative n and positive d.
func DivideRoundUp(n, d int) int {
	return (n + d - 1) / d
}
