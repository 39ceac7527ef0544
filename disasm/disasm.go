// Package disasm decodes machine code through the by-opcode index of
// an instruction set. The assembler uses it to annotate debug traces
// with the generated code.
package disasm

import (
	"fmt"

	"github.com/m65tools/asm65/cpu"
)

var modeFormat = map[cpu.Mode]string{
	cpu.IMM:  "#$%s",
	cpu.DP:   "$%s",
	cpu.DPX:  "$%s,X",
	cpu.DPY:  "$%s,Y",
	cpu.ABS:  "$%s",
	cpu.ABX:  "$%s,X",
	cpu.ABY:  "$%s,Y",
	cpu.IDX:  "($%s,X)",
	cpu.IDY:  "($%s),Y",
	cpu.IDZ:  "($%s),Z",
	cpu.IND:  "($%s)",
	cpu.IDSP: "($%s,SP),Y",
	cpu.REL:  "$%s",
	cpu.RELL: "$%s",
}

// Decode disassembles the instruction at addr and returns its text
// and length. Unused opcodes decode as a byte constant of length 1.
func Decode(set *cpu.InstructionSet, mem []byte, addr int) (string, int) {
	opcode := mem[addr]
	inst := set.Lookup(opcode)
	if inst == nil {
		return fmt.Sprintf(".BYTE $%02X", opcode), 1
	}

	length := int(inst.Length)
	switch {
	case length == 1:
		return inst.Name, 1

	case inst.Mode == cpu.REL:
		// Branch displacements decode to their absolute target.
		disp := int(int8(mem[addr+1]))
		target := (addr + 2 + disp) & 0xffff
		return fmt.Sprintf("%s $%04X", inst.Name, target), 2

	case inst.Mode == cpu.RELL:
		disp := int(int16(uint16(mem[addr+1]) | uint16(mem[addr+2])<<8))
		target := (addr + 2 + disp) & 0xffff
		return fmt.Sprintf("%s $%04X", inst.Name, target), 3

	case inst.Mode == cpu.BBR:
		target := (addr + 3 + int(int8(mem[addr+2]))) & 0xffff
		return fmt.Sprintf("%s $%02X,$%04X", inst.Name, mem[addr+1], target), 3

	case length == 2:
		operand := fmt.Sprintf("%02X", mem[addr+1])
		return fmt.Sprintf("%s %s", inst.Name, fmt.Sprintf(modeFormat[inst.Mode], operand)), 2

	default:
		v := int(mem[addr+1]) | int(mem[addr+2])<<8
		operand := fmt.Sprintf("%04X", v)
		return fmt.Sprintf("%s %s", inst.Name, fmt.Sprintf(modeFormat[inst.Mode], operand)), 3
	}
}

// DumpRange disassembles [start, end) and returns one line per
// instruction, formatted as ADDR  BYTES  TEXT.
func DumpRange(set *cpu.InstructionSet, mem []byte, start, end int) []string {
	var lines []string
	for addr := start; addr < end && addr < len(mem); {
		text, length := Decode(set, mem, addr)
		if addr+length > len(mem) {
			break
		}
		bytes := ""
		for i := 0; i < length; i++ {
			if i > 0 {
				bytes += " "
			}
			bytes += fmt.Sprintf("%02X", mem[addr+i])
		}
		lines = append(lines, fmt.Sprintf("%04X  %-8s  %s", addr, bytes, text))
		addr += length
	}
	return lines
}
