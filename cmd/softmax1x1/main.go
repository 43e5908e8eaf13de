// Command softmax1x1 generates, compiles and runs the 1x1 channel softmax
// kernel on the CPU reference device or a WebGPU adapter.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
