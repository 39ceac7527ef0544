package asm

import (
	"strings"

	"github.com/m65tools/asm65/cpu"
)

// tryInstruction interprets word as a mnemonic and encodes the
// instruction. It reports false when word is no mnemonic of the
// current CPU, so the caller can try macros and labels instead.
func (a *Assembler) tryInstruction(word, rest fstring) (bool, *Error) {
	if len(word.str) < 3 {
		return false, nil
	}
	name := strings.ToUpper(word.str)
	if !alpha(name[0]) || !alpha(name[1]) || !alpha(name[2]) {
		return false, nil
	}
	set := a.instSet
	operand := rest.consumeWhitespace().trimRight()

	// Zero-page bit operations carry a bit number suffix: RMB3, BBS7.
	if len(name) == 4 && name[3] >= '0' && name[3] <= '7' {
		if insts := set.Variants(name); insts != nil {
			inst := insts[0]
			if inst.Mode == cpu.BBR {
				return true, a.encodeBitBranch(inst, operand)
			}
			return true, a.encodeDirectPage(inst, operand)
		}
	}

	// 45GS02 Q-register forms.
	if a.cpuType == cpu.CPU45GS02 {
		if base, ok := cpu.QBase(name); ok {
			return true, a.encodeQuad(word, base, operand)
		}
	}

	// Long branches: LBNE and friends, and BSR on the 45GS02.
	if inst := set.Find(name, cpu.RELL); inst != nil {
		return true, a.encodeBranch(inst, operand, true)
	}

	if !operandPresent(operand, a.cpuType) {
		if inst := set.Find(name, cpu.IMP); inst != nil {
			return true, a.emitInstruction(word, nil, inst.Opcode, 0, 0)
		}
		// A bare BIT is the traditional 2-byte skip: the absolute-mode
		// opcode with the next instruction as its operand.
		if name == "BIT" {
			return true, a.emitInstruction(word, nil, 0x2c, 0, 0)
		}
	}

	if inst := set.Find(name, cpu.REL); inst != nil {
		return true, a.encodeBranch(inst, operand, false)
	}

	if set.Variants(name) == nil {
		return false, nil
	}
	return true, a.encodeGeneral(word, name, operand)
}

// operandPresent reports whether an operand field follows. A bare A,
// or a bare Q on the 45GS02, selects the accumulator and counts as
// implied.
func operandPresent(l fstring, c cpu.CPU) bool {
	l = l.consumeWhitespace()
	if l.isEmpty() {
		return false
	}
	c0 := toUpper(l.str[0])
	if c0 != 'A' && c0 != 'Q' {
		return true
	}
	if c0 == 'Q' && c != cpu.CPU45GS02 {
		return true
	}
	return !l.consume(1).consumeWhitespace().isEmpty()
}

// Value-based narrowing: the wide mode and the direct-page mode it
// shrinks to when the resolved operand fits in one byte.
var narrowMode = map[cpu.Mode]cpu.Mode{
	cpu.ABS: cpu.DP,
	cpu.ABX: cpu.DPX,
	cpu.ABY: cpu.DPY,
}

// encodeGeneral handles every instruction whose mode is decided by
// operand syntax and value.
func (a *Assembler) encodeGeneral(word fstring, name string, operand fstring) *Error {
	if operand.isEmpty() {
		return errorf(Syntax, word, "Operand missing")
	}
	set := a.instSet

	form := classifyOperand(operand, false)
	mode := form.mode

	// A bare (expr) is an indirect jump target for JMP and JSR; for
	// everything else it is the CMOS (dp) mode, Z-indexed on the
	// 45GS02.
	if mode == cpu.IND && name != "JMP" && name != "JSR" {
		mode = cpu.IDZ
	}
	// The 32-bit indirect mode of plain (non-Q) instructions is the
	// (dp),Z opcode behind a NOP escape.
	var prefix []byte
	rowMode := mode
	if mode == cpu.IDZ32 {
		rowMode = cpu.IDZ
		prefix = []byte{0xea}
	}

	a.curAttr = int(mode)
	v, rest, err := a.evalOperand(form.expr, 0)
	if err != nil {
		return err
	}
	if rest = rest.consumeWhitespace(); !rest.isEmpty() {
		return errorf(Syntax, rest, "Operand syntax error\n<%s>", rest.str)
	}

	w := v
	if v != undefined {
		w = v - a.bp<<8
	}

	inst := set.Find(name, rowMode)
	switch {
	case inst == nil:
		// Only the direct-page form may exist (ASR dp,X).
		if alt, ok := narrowMode[rowMode]; ok && (v == undefined || (w >= 0 && w < 256)) {
			if ni := set.Find(name, alt); ni != nil {
				rowMode, inst = alt, ni
				if v != undefined {
					v = w
				}
			}
		}
	case v != undefined && w >= 0 && w < 256 && !form.force16:
		if alt, ok := narrowMode[rowMode]; ok {
			if ni := set.Find(name, alt); ni != nil {
				rowMode, inst, v = alt, ni, w
			}
		}
	}
	if inst == nil {
		return errorf(Semantic, word, "Illegal instruction or operand for CPU %s", a.cpuType.Name())
	}

	if rowMode == cpu.DP && v != undefined && (v < -128 || v > 255) {
		return errorf(Range, operand, "base page value out of range (%d)", v)
	}
	if rowMode == cpu.IMM && name != "PHW" && a.finalPass && (v < -128 || v > 255) {
		return errorf(Range, operand, "Immediate value out of range (%d)", v)
	}

	return a.emitInstruction(word, prefix, inst.Opcode, int(inst.Length)-1, v)
}

// encodeQuad handles the 45GS02 Q-register instructions, encoded as
// the A-register opcode behind a 42 42 escape, plus a NOP for the
// 32-bit indirect mode.
func (a *Assembler) encodeQuad(word fstring, base string, operand fstring) *Error {
	set := a.instSet

	// Bare mnemonic or an explicit Q operand is the accumulator form.
	if bareQ(operand) || !operandPresent(operand, a.cpuType) {
		inst := set.Find(base, cpu.IMP)
		if inst == nil {
			return errorf(Semantic, word, "Illegal instruction or operand for CPU %s", a.cpuType.Name())
		}
		return a.emitInstruction(word, []byte{0x42, 0x42}, inst.Opcode, 0, 0)
	}

	form := classifyOperand(operand, true)
	mode := form.mode
	if mode == cpu.IND {
		mode = cpu.IDZ
	}

	a.curAttr = int(mode)
	v, rest, err := a.evalOperand(form.expr, 0)
	if err != nil {
		return err
	}
	if rest = rest.consumeWhitespace(); !rest.isEmpty() {
		return errorf(Syntax, rest, "Operand syntax error\n<%s>", rest.str)
	}

	w := v
	if v != undefined {
		w = v - a.bp<<8
	}

	prefix := []byte{0x42, 0x42}
	rowMode := mode
	switch mode {
	case cpu.ABS:
		if v != undefined && w >= 0 && w < 256 && !form.force16 {
			if ni := set.Find(base, cpu.DP); ni != nil {
				rowMode, v = cpu.DP, w
			}
		}
	case cpu.IDZ:
	case cpu.IDZ32:
		rowMode = cpu.IDZ
		prefix = append(prefix, 0xea)
	default:
		return errorf(Semantic, word, "illegal address mode")
	}

	inst := set.Find(base, rowMode)
	if inst == nil {
		return errorf(Semantic, word, "illegal address mode")
	}
	return a.emitInstruction(word, prefix, inst.Opcode, int(inst.Length)-1, v)
}

func bareQ(l fstring) bool {
	l = l.consumeWhitespace()
	if l.isEmpty() || toUpper(l.str[0]) != 'Q' {
		return false
	}
	return l.consume(1).consumeWhitespace().isEmpty()
}

// encodeDirectPage handles RMB/SMB, whose only operand is a direct
// page address.
func (a *Assembler) encodeDirectPage(inst *cpu.Instruction, operand fstring) *Error {
	a.curAttr = int(cpu.DP)
	v, _, err := a.evalOperand(operand, 0)
	if err != nil {
		return err
	}
	if v != undefined {
		v -= a.bp << 8
	}
	if a.finalPass && (v < 0 || v > 255) {
		return errorf(Range, operand, "Need direct page address, read (%d)", v)
	}
	return a.emitInstruction(operand, nil, inst.Opcode, 1, v)
}

// encodeBitBranch handles BBRn/BBSn: a direct page address to test
// and a branch target.
func (a *Assembler) encodeBitBranch(inst *cpu.Instruction, operand fstring) *Error {
	a.curAttr = int(cpu.BBR)
	lo, rest, err := a.evalOperand(operand, 0)
	if err != nil {
		return err
	}
	if lo != undefined {
		lo -= a.bp << 8
	}
	if a.finalPass && (lo < 0 || lo > 255) {
		return errorf(Range, operand, "Need direct page address, read (%d)", lo)
	}

	rest = rest.consumeWhitespace()
	if !rest.startsWithChar(',') {
		return errorf(Syntax, rest, "Need two arguments")
	}
	hi, _, err := a.evalOperand(rest.consume(1), 0)
	if err != nil {
		return err
	}
	if hi != undefined {
		hi -= a.pc + 3
	}
	if a.finalPass && hi == undefined {
		return errorf(Semantic, operand, "Branch to undefined label")
	}
	if a.finalPass && (hi < -128 || hi > 127) {
		return errorf(Range, operand, "Branch too long (%d)", hi)
	}

	v := undefined
	if lo != undefined && hi != undefined {
		v = lo&0xff | hi<<8
	}
	return a.emitInstruction(operand, nil, inst.Opcode, 2, v)
}

// encodeBranch handles the relative branches. With branch optimization
// enabled on the 45GS02, a short branch whose displacement does not
// fit is promoted to the long form (opcode OR 3, 16-bit displacement).
// The chosen opcode is frozen into the image on the penultimate pass
// and read back on the final pass so the layout cannot shift anymore.
func (a *Assembler) encodeBranch(inst *cpu.Instruction, operand fstring, long bool) *Error {
	if long {
		a.curAttr = int(cpu.RELL)
	} else {
		a.curAttr = int(cpu.REL)
	}
	v, _, err := a.evalOperand(operand, 0)
	if err != nil {
		return err
	}

	opcode := inst.Opcode
	length := 2

	switch {
	case long:
		length = 3
		if v != undefined {
			v = (v - a.pc - 2) & 0xffff
		}
		if a.finalPass && v == undefined {
			return errorf(Semantic, operand, "Branch to undefined label")
		}

	case a.branchOpt && a.cpuType == cpu.CPU45GS02:
		if v != undefined {
			v -= a.pc + 2
		}
		if v == undefined || v < -128 || v > 127 {
			length = 3
			opcode |= 3
			if v != undefined {
				v &= 0xffff
			}
		}
		if a.freezePass && a.pc >= 0 {
			a.image[a.pc] = opcode
		}
		if a.finalPass {
			if v == undefined {
				return errorf(Semantic, operand, "Branch to undefined label")
			}
			if a.pc < 0 {
				return errorf(Semantic, operand, "Undefined program counter (PC)")
			}
			opcode = a.image[a.pc]
			length = 2
			if opcode&3 == 3 {
				length = 3
				v &= 0xffff
			}
		}

	default:
		if v != undefined {
			v -= a.pc + 2
		}
		if a.finalPass && v == undefined {
			return errorf(Semantic, operand, "Branch to undefined label")
		}
		if a.finalPass && (v < -128 || v > 127) {
			return errorf(Range, operand, "Branch too long (%d)", v)
		}
	}

	return a.emitInstruction(operand, nil, opcode, length-1, v)
}

// emitInstruction writes prefix + opcode + operand bytes into the
// image and advances the program counter. Bytes are only placed in
// the final pass; earlier passes just measure.
func (a *Assembler) emitInstruction(l fstring, prefix []byte, opcode byte, opLen, v int) *Error {
	if a.pc < 0 {
		return errorf(Semantic, l, "Undefined program counter (PC)")
	}
	length := len(prefix) + 1 + opLen

	if a.finalPass {
		if opLen > 0 && v == undefined {
			return errorf(Semantic, l, "Use of an undefined label")
		}
		// An operand in the current base page is emitted as its page
		// offset.
		if opLen == 1 && v>>8 == a.bp && a.bp != 0 {
			v &= 0xff
		}
		if opLen == 1 && (v < -128 || v > 255) {
			a.addError(errorf(Range, l, "Not a byte value : %d", v))
		}

		b := make([]byte, 0, 5)
		b = append(b, prefix...)
		b = append(b, opcode)
		if opLen > 0 {
			b = append(b, byte(v))
		}
		if opLen > 1 {
			b = append(b, byte(v>>8))
		}
		copy(a.image[a.pc:], b)
		a.listCode(a.pc, b)
	}

	if a.pc+length > 0xffff {
		if a.finalPass {
			a.addError(errorf(Range, l, "Program counter exceeds 64 KB"))
		}
	} else {
		a.pc += length
	}
	return nil
}
