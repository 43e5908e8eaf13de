package softmax

import (
	"github.com/born-ml/kernels/internal/compute"
)

// emulation returns the host body of the generated program. It follows the
// WGSL line by line so the host device reproduces device results, including
// the two work-group barriers.
func emulation(precision compute.Precision, l layout, linked []compute.LinkedOperation) compute.LaneFunc {
	return func(inv *compute.Invocation) {
		b, batch, ok := l.batchOf(inv)
		if !ok {
			return
		}
		src := inv.Memory("src_data")
		dst := inv.Memory("dst_data")
		tensorSize, _ := inv.Value("tensor_size").(compute.Int4)
		size, _ := inv.Value("size").(compute.Int2)
		mask, _ := inv.Value("mask").(compute.Float4)
		depth, rounds := int(size[0]), int(size[1])
		tid := inv.LocalID.X

		offset, s := 0, 0
		var sum float32
		for {
			if z := offset + tid; z < depth {
				maskTemp := compute.Splat(1)
				if z == depth-1 {
					maskTemp = mask
				}
				v := src.Load(compute.LinearIndex(tensorSize, batch, 0, 0, z, b))
				sum += maskTemp.Dot(v.Exp())
				offset += lanes
			}
			s++
			if s >= rounds {
				break
			}
		}

		inv.Shared[tid] = sum
		inv.Barrier()
		if tid == 0 {
			ones := compute.Splat(1)
			for i := 0; i < sharedSlots; i++ {
				slot := compute.Float4(inv.Shared[i*4 : i*4+4])
				if i == 0 {
					sum = ones.Dot(slot)
				} else {
					sum += ones.Dot(slot)
				}
			}
			inv.Shared[0] = 1 / sum
		}
		inv.Barrier()
		sum = inv.Shared[0]

		offset, s = 0, 0
		for {
			if z := offset + tid; z < depth {
				idx := compute.LinearIndex(tensorSize, batch, 0, 0, z, b)
				res := precision.Round(src.Load(idx).Exp().Scale(sum))
				for _, op := range linked {
					res = precision.Round(op.Apply(res))
				}
				dst.Store(idx, res)
				offset += lanes
			}
			s++
			if s >= rounds {
				break
			}
		}
	}
}
