// Package cpu describes the instruction sets of the 6502 processor
// family: the NMOS 6502, the 65SC02 and 65C02 CMOS parts, the 45GS02
// used by the C65 and MEGA65, and the 16-bit 65802/65816.
package cpu

import "strings"

// A CPU identifies one member of the 6502 family. Values are single
// bits so that instruction table entries can describe the set of
// processors they are valid on.
type CPU uint8

const (
	CPU6502 CPU = 1 << iota
	CPU65SC02
	CPU65C02
	CPU45GS02
	CPU65816
)

const (
	all     = CPU6502 | CPU65SC02 | CPU65C02 | CPU45GS02 | CPU65816
	cmos    = all &^ CPU6502
	c02up   = CPU65C02 | CPU45GS02 | CPU65816
	only45  = CPU45GS02
	only816 = CPU65816
)

var cpuNames = map[string]CPU{
	"6502":   CPU6502,
	"65SC02": CPU65SC02,
	"65C02":  CPU65C02,
	"45GS02": CPU45GS02,
	"65816":  CPU65816,
}

// Parse returns the CPU named by s. Matching is case-insensitive.
func Parse(s string) (CPU, bool) {
	c, ok := cpuNames[strings.ToUpper(s)]
	return c, ok
}

// Name returns the canonical spelling of the CPU name.
func (c CPU) Name() string {
	for n, v := range cpuNames {
		if v == c {
			return n
		}
	}
	return "?"
}

// A Mode identifies an operand addressing mode.
type Mode byte

const (
	IMP   Mode = iota // implied, or accumulator
	IMM               // #expr
	DP                // direct page
	DPX               // dp,X
	DPY               // dp,Y
	ABS               // absolute
	ABX               // abs,X
	ABY               // abs,Y
	IDX               // (dp,X) and JMP/JSR (abs,X)
	IDY               // (dp),Y
	IDZ               // (dp),Z, also bare (dp) on CMOS parts
	IDZ32             // [dp],Z with NOP prefix
	IND               // (abs) for JMP and JSR
	IDSP              // (dp,SP),Y
	REL               // 8-bit branch displacement
	RELL              // 16-bit branch displacement
	BBR               // dp,target test-and-branch
)

var modeNames = []string{
	"IMP", "IMM", "DP", "DPX", "DPY", "ABS", "ABX", "ABY",
	"IDX", "IDY", "IDZ", "IDZ32", "IND", "IDSP", "REL", "RELL", "BBR",
}

func (m Mode) String() string {
	return modeNames[m]
}

// An Instruction describes one valid (mnemonic, addressing mode)
// pairing: its opcode and the combined length of opcode and operand.
// Prefix escape bytes (the 45GS02 NOP used by [dp],Z, the 42 42 of
// the Q forms) are not included in the length.
type Instruction struct {
	Name   string
	Mode   Mode
	Opcode byte
	Length byte
}

// An InstructionSet holds every instruction valid on one CPU, indexed
// both by opcode and by mnemonic.
type InstructionSet struct {
	CPU      CPU
	byOpcode [256]*Instruction
	variants map[string][]*Instruction
}

// Lookup returns the instruction assigned to an opcode, or nil if the
// opcode is unused on this CPU.
func (s *InstructionSet) Lookup(opcode byte) *Instruction {
	return s.byOpcode[opcode]
}

// Variants returns all addressing-mode variants of a mnemonic, or nil
// if the mnemonic is unknown on this CPU.
func (s *InstructionSet) Variants(name string) []*Instruction {
	return s.variants[strings.ToUpper(name)]
}

// Find returns the variant of a mnemonic with the requested addressing
// mode, or nil.
func (s *InstructionSet) Find(name string, mode Mode) *Instruction {
	for _, inst := range s.Variants(name) {
		if inst.Mode == mode {
			return inst
		}
	}
	return nil
}

// QBase maps a 45GS02 Q-register mnemonic to the A-register mnemonic
// it derives its opcodes from.
func QBase(name string) (string, bool) {
	base, ok := qBase[strings.ToUpper(name)]
	return base, ok
}

func newInstructionSet(c CPU) *InstructionSet {
	set := &InstructionSet{
		CPU:      c,
		variants: make(map[string][]*Instruction),
	}

	add := func(name string, mode Mode, opcode, length byte) {
		inst := &Instruction{Name: name, Mode: mode, Opcode: opcode, Length: length}
		set.variants[name] = append(set.variants[name], inst)
		if set.byOpcode[opcode] == nil {
			set.byOpcode[opcode] = inst
		}
	}

	for _, d := range data {
		if d.cpu&c != 0 {
			add(d.name, d.mode, d.opcode, d.length)
		}
	}

	// The zero-page bit instructions carry their bit number in the
	// opcode, so each base entry expands to eight variants.
	for _, d := range bitData {
		if d.cpu&c == 0 {
			continue
		}
		for n := byte(0); n < 8; n++ {
			add(d.name+string(rune('0'+n)), d.mode, d.opcode|n<<4, d.length)
		}
	}

	// Long branches exist on the 45GS02 only: the short opcode OR 3
	// with a 16-bit displacement.
	if c == CPU45GS02 {
		for _, d := range data {
			if d.mode == REL && d.cpu&c != 0 {
				add("L"+d.name, RELL, d.opcode|3, 3)
			}
		}
		add("BSR", RELL, 0x63, 3)
	}

	return set
}

var instructionSets = make(map[CPU]*InstructionSet)

// GetInstructionSet returns the instruction set of the requested CPU,
// building it on first use.
func GetInstructionSet(c CPU) *InstructionSet {
	if instructionSets[c] == nil {
		instructionSets[c] = newInstructionSet(c)
	}
	return instructionSets[c]
}
