package cpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/kernels/internal/compute"
)

// Compile checks the program text for the structure every device needs
// (entry point, balanced delimiters, one binding per argument in slot order,
// work-group declarations) and returns the program's host emulation.
func (cpu *CPUBackend) Compile(p *compute.Program) (any, error) {
	if p.Emulation == nil {
		return nil, fmt.Errorf("cpu: program %q has no host emulation", p.Entry)
	}
	if !strings.Contains(p.Source, "fn "+p.Entry+"(") {
		return nil, fmt.Errorf("cpu: entry point %q not found", p.Entry)
	}
	if err := checkDelimiters(p.Source); err != nil {
		return nil, fmt.Errorf("cpu: %w", err)
	}
	ws := p.WorkGroupSize
	if ws.Count() <= 0 {
		return nil, fmt.Errorf("cpu: invalid work-group size %v", ws)
	}
	if !strings.Contains(p.Source, fmt.Sprintf("@workgroup_size(%d, %d, %d)", ws.X, ws.Y, ws.Z)) {
		return nil, fmt.Errorf("cpu: work-group size %v not declared", ws)
	}
	if p.SharedFloats > 0 && !strings.Contains(p.Source, "var<workgroup>") {
		return nil, errors.New("cpu: program uses work-group memory but declares none")
	}
	for i, arg := range p.Args {
		if !declaresBinding(p.Source, i, arg.Name) {
			return nil, fmt.Errorf("cpu: argument %d (%s) is not declared at @binding(%d)", i, arg.Name, i)
		}
	}
	return p.Emulation, nil
}

func declaresBinding(source string, slot int, name string) bool {
	prefix := fmt.Sprintf("@group(0) @binding(%d) ", slot)
	for _, line := range strings.Split(source, "\n") {
		if strings.HasPrefix(line, prefix) && strings.Contains(line, " "+name+": ") {
			return true
		}
	}
	return false
}

func checkDelimiters(source string) error {
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	var stack []rune
	line := 1
	for _, r := range source {
		switch r {
		case '\n':
			line++
		case '(', '[', '{':
			stack = append(stack, r)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return fmt.Errorf("unbalanced %q at line %d", r, line)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("unclosed %q at end of source", stack[len(stack)-1])
	}
	return nil
}
