package cpu

// Opcode data for one (mnemonic, mode) pair, with the set of CPUs the
// pairing is valid on.
type opcodeData struct {
	name   string
	cpu    CPU
	mode   Mode
	opcode byte
	length byte
}

// All valid (mnemonic, mode) pairs. Implied entries include the
// accumulator forms and the alias mnemonics used by Commodore and
// Apple sources.
var data = []opcodeData{
	// implied and accumulator
	{"BRK", all, IMP, 0x00, 1},
	{"PHP", all, IMP, 0x08, 1},
	{"ASL", all, IMP, 0x0a, 1},
	{"CLC", all, IMP, 0x18, 1},
	{"PLP", all, IMP, 0x28, 1},
	{"ROL", all, IMP, 0x2a, 1},
	{"SEC", all, IMP, 0x38, 1},
	{"RTI", all, IMP, 0x40, 1},
	{"ASR", all, IMP, 0x43, 1},
	{"PHA", all, IMP, 0x48, 1},
	{"LSR", all, IMP, 0x4a, 1},
	{"CLI", all, IMP, 0x58, 1},
	{"RTS", all, IMP, 0x60, 1},
	{"PLA", all, IMP, 0x68, 1},
	{"ROR", all, IMP, 0x6a, 1},
	{"SEI", all, IMP, 0x78, 1},
	{"DEY", all, IMP, 0x88, 1},
	{"TXA", all, IMP, 0x8a, 1},
	{"TYA", all, IMP, 0x98, 1},
	{"TXS", all, IMP, 0x9a, 1},
	{"TAY", all, IMP, 0xa8, 1},
	{"TAX", all, IMP, 0xaa, 1},
	{"CLV", all, IMP, 0xb8, 1},
	{"TSX", all, IMP, 0xba, 1},
	{"INY", all, IMP, 0xc8, 1},
	{"DEX", all, IMP, 0xca, 1},
	{"CLD", all, IMP, 0xd8, 1},
	{"INX", all, IMP, 0xe8, 1},
	{"NOP", all, IMP, 0xea, 1},
	{"SED", all, IMP, 0xf8, 1},

	{"INA", cmos, IMP, 0x1a, 1},
	{"INC", cmos, IMP, 0x1a, 1},
	{"DEA", cmos, IMP, 0x3a, 1},
	{"DEC", cmos, IMP, 0x3a, 1},
	{"PHY", cmos, IMP, 0x5a, 1},
	{"PLY", cmos, IMP, 0x7a, 1},
	{"PHX", cmos, IMP, 0xda, 1},
	{"PLX", cmos, IMP, 0xfa, 1},

	{"CLE", only45, IMP, 0x02, 1},
	{"SEE", only45, IMP, 0x03, 1},
	{"TSY", only45, IMP, 0x0b, 1},
	{"INZ", only45, IMP, 0x1b, 1},
	{"TYS", only45, IMP, 0x2b, 1},
	{"DEZ", only45, IMP, 0x3b, 1},
	{"NEG", only45, IMP, 0x42, 1},
	{"TAZ", only45, IMP, 0x4b, 1},
	{"TAB", only45, IMP, 0x5b, 1},
	{"AUG", only45, IMP, 0x5c, 1},
	{"MAP", only45, IMP, 0x5c, 1},
	{"TZA", only45, IMP, 0x6b, 1},
	{"TBA", only45, IMP, 0x7b, 1},
	{"PHZ", only45, IMP, 0xdb, 1},
	{"EOM", only45, IMP, 0xea, 1},
	{"PLZ", only45, IMP, 0xfb, 1},

	{"PHD", only816, IMP, 0x0b, 1},
	{"TCS", only816, IMP, 0x1b, 1},
	{"PLD", only816, IMP, 0x2b, 1},
	{"TSA", only816, IMP, 0x3b, 1},
	{"TSC", only816, IMP, 0x3b, 1},
	{"WDM", only816, IMP, 0x42, 1},
	{"MVP", only816, IMP, 0x44, 1},
	{"PHK", only816, IMP, 0x4b, 1},
	{"MVN", only816, IMP, 0x54, 1},
	{"TCD", only816, IMP, 0x5b, 1},
	{"RTL", only816, IMP, 0x6b, 1},
	{"TDC", only816, IMP, 0x7b, 1},
	{"PHB", only816, IMP, 0x8b, 1},
	{"PLB", only816, IMP, 0xab, 1},
	{"TYX", only816, IMP, 0xbb, 1},
	{"WAI", only816, IMP, 0xcb, 1},
	{"STP", only816, IMP, 0xdb, 1},
	{"SWA", only816, IMP, 0xeb, 1},
	{"XBA", only816, IMP, 0xeb, 1},
	{"XCE", only816, IMP, 0xfb, 1},

	// branches
	{"BPL", all, REL, 0x10, 2},
	{"BMI", all, REL, 0x30, 2},
	{"BVC", all, REL, 0x50, 2},
	{"BVS", all, REL, 0x70, 2},
	{"BCC", all, REL, 0x90, 2},
	{"BCS", all, REL, 0xb0, 2},
	{"BNE", all, REL, 0xd0, 2},
	{"BEQ", all, REL, 0xf0, 2},
	{"BRA", cmos, REL, 0x80, 2},
	{"BRU", cmos, REL, 0x80, 2},
	{"BSR", cmos &^ only45, REL, 0x63, 2},

	// ORA
	{"ORA", all, DP, 0x05, 2},
	{"ORA", all, ABS, 0x0d, 3},
	{"ORA", all, DPX, 0x15, 2},
	{"ORA", all, ABX, 0x1d, 3},
	{"ORA", all, IDX, 0x01, 2},
	{"ORA", all, IMM, 0x09, 2},
	{"ORA", all, IDY, 0x11, 2},
	{"ORA", all, ABY, 0x19, 3},
	{"ORA", cmos, IDZ, 0x12, 2},

	// AND
	{"AND", all, DP, 0x25, 2},
	{"AND", all, ABS, 0x2d, 3},
	{"AND", all, DPX, 0x35, 2},
	{"AND", all, ABX, 0x3d, 3},
	{"AND", all, IDX, 0x21, 2},
	{"AND", all, IMM, 0x29, 2},
	{"AND", all, IDY, 0x31, 2},
	{"AND", all, ABY, 0x39, 3},
	{"AND", cmos, IDZ, 0x32, 2},

	// EOR
	{"EOR", all, DP, 0x45, 2},
	{"EOR", all, ABS, 0x4d, 3},
	{"EOR", all, DPX, 0x55, 2},
	{"EOR", all, ABX, 0x5d, 3},
	{"EOR", all, IDX, 0x41, 2},
	{"EOR", all, IMM, 0x49, 2},
	{"EOR", all, IDY, 0x51, 2},
	{"EOR", all, ABY, 0x59, 3},
	{"EOR", cmos, IDZ, 0x52, 2},

	// ADC
	{"ADC", all, DP, 0x65, 2},
	{"ADC", all, ABS, 0x6d, 3},
	{"ADC", all, DPX, 0x75, 2},
	{"ADC", all, ABX, 0x7d, 3},
	{"ADC", all, IDX, 0x61, 2},
	{"ADC", all, IMM, 0x69, 2},
	{"ADC", all, IDY, 0x71, 2},
	{"ADC", all, ABY, 0x79, 3},
	{"ADC", cmos, IDZ, 0x72, 2},

	// STA
	{"STA", all, DP, 0x85, 2},
	{"STA", all, ABS, 0x8d, 3},
	{"STA", all, DPX, 0x95, 2},
	{"STA", all, ABX, 0x9d, 3},
	{"STA", all, IDX, 0x81, 2},
	{"STA", all, IDY, 0x91, 2},
	{"STA", all, ABY, 0x99, 3},
	{"STA", cmos, IDZ, 0x92, 2},
	{"STA", only45, IDSP, 0x82, 2},

	// LDA
	{"LDA", all, DP, 0xa5, 2},
	{"LDA", all, ABS, 0xad, 3},
	{"LDA", all, DPX, 0xb5, 2},
	{"LDA", all, ABX, 0xbd, 3},
	{"LDA", all, IDX, 0xa1, 2},
	{"LDA", all, IMM, 0xa9, 2},
	{"LDA", all, IDY, 0xb1, 2},
	{"LDA", all, ABY, 0xb9, 3},
	{"LDA", cmos, IDZ, 0xb2, 2},
	{"LDA", only45, IDSP, 0xe2, 2},

	// CMP
	{"CMP", all, DP, 0xc5, 2},
	{"CMP", all, ABS, 0xcd, 3},
	{"CMP", all, DPX, 0xd5, 2},
	{"CMP", all, ABX, 0xdd, 3},
	{"CMP", all, IDX, 0xc1, 2},
	{"CMP", all, IMM, 0xc9, 2},
	{"CMP", all, IDY, 0xd1, 2},
	{"CMP", all, ABY, 0xd9, 3},
	{"CMP", cmos, IDZ, 0xd2, 2},

	// SBC
	{"SBC", all, DP, 0xe5, 2},
	{"SBC", all, ABS, 0xed, 3},
	{"SBC", all, DPX, 0xf5, 2},
	{"SBC", all, ABX, 0xfd, 3},
	{"SBC", all, IDX, 0xe1, 2},
	{"SBC", all, IMM, 0xe9, 2},
	{"SBC", all, IDY, 0xf1, 2},
	{"SBC", all, ABY, 0xf9, 3},
	{"SBC", cmos, IDZ, 0xf2, 2},

	// read-modify-write
	{"ASL", all, DP, 0x06, 2},
	{"ASL", all, ABS, 0x0e, 3},
	{"ASL", all, DPX, 0x16, 2},
	{"ASL", all, ABX, 0x1e, 3},
	{"ROL", all, DP, 0x26, 2},
	{"ROL", all, ABS, 0x2e, 3},
	{"ROL", all, DPX, 0x36, 2},
	{"ROL", all, ABX, 0x3e, 3},
	{"LSR", all, DP, 0x46, 2},
	{"LSR", all, ABS, 0x4e, 3},
	{"LSR", all, DPX, 0x56, 2},
	{"LSR", all, ABX, 0x5e, 3},
	{"ROR", all, DP, 0x66, 2},
	{"ROR", all, ABS, 0x6e, 3},
	{"ROR", all, DPX, 0x76, 2},
	{"ROR", all, ABX, 0x7e, 3},
	{"DEC", all, DP, 0xc6, 2},
	{"DEC", all, ABS, 0xce, 3},
	{"DEC", all, DPX, 0xd6, 2},
	{"DEC", all, ABX, 0xde, 3},
	{"INC", all, DP, 0xe6, 2},
	{"INC", all, ABS, 0xee, 3},
	{"INC", all, DPX, 0xf6, 2},
	{"INC", all, ABX, 0xfe, 3},
	{"ASR", only45, DP, 0x44, 2},
	{"ASR", only45, DPX, 0x54, 2},

	// BIT
	{"BIT", all, DP, 0x24, 2},
	{"BIT", all, ABS, 0x2c, 3},
	{"BIT", cmos, DPX, 0x34, 2},
	{"BIT", cmos, ABX, 0x3c, 3},
	{"BIT", cmos, IMM, 0x89, 2},

	// jumps
	{"JMP", all, ABS, 0x4c, 3},
	{"JMP", all, IND, 0x6c, 3},
	{"JMP", cmos, IDX, 0x7c, 3},
	{"JSR", all, ABS, 0x20, 3},
	{"JSR", only45, IND, 0x22, 3},
	{"JSR", only45, IDX, 0x23, 3},
	{"JSR", only816, IDX, 0xfc, 3},

	// compares and index registers
	{"CPX", all, DP, 0xe4, 2},
	{"CPX", all, ABS, 0xec, 3},
	{"CPX", all, IMM, 0xe0, 2},
	{"CPY", all, DP, 0xc4, 2},
	{"CPY", all, ABS, 0xcc, 3},
	{"CPY", all, IMM, 0xc0, 2},
	{"LDX", all, DP, 0xa6, 2},
	{"LDX", all, ABS, 0xae, 3},
	{"LDX", all, IMM, 0xa2, 2},
	{"LDX", all, DPY, 0xb6, 2},
	{"LDX", all, ABY, 0xbe, 3},
	{"LDY", all, DP, 0xa4, 2},
	{"LDY", all, ABS, 0xac, 3},
	{"LDY", all, DPX, 0xb4, 2},
	{"LDY", all, ABX, 0xbc, 3},
	{"LDY", all, IMM, 0xa0, 2},
	{"STX", all, DP, 0x86, 2},
	{"STX", all, ABS, 0x8e, 3},
	{"STX", all, DPY, 0x96, 2},
	{"STX", only45, ABY, 0x9b, 3},
	{"STY", all, DP, 0x84, 2},
	{"STY", all, ABS, 0x8c, 3},
	{"STY", all, DPX, 0x94, 2},
	{"STY", only45, ABX, 0x8b, 3},

	// store zero
	{"STZ", cmos, DP, 0x64, 2},
	{"STZ", cmos, DPX, 0x74, 2},
	{"STZ", c02up, ABS, 0x9c, 3},
	{"STZ", c02up, ABX, 0x9e, 3},

	// 45GS02 Z register and word operations
	{"CPZ", only45, DP, 0xd4, 2},
	{"CPZ", only45, ABS, 0xdc, 3},
	{"CPZ", only45, IMM, 0xc2, 2},
	{"LDZ", only45, ABS, 0xab, 3},
	{"LDZ", only45, ABX, 0xbb, 3},
	{"LDZ", only45, IMM, 0xa3, 2},
	{"ASW", only45, ABS, 0xcb, 3},
	{"ROW", only45, ABS, 0xeb, 3},
	{"DEW", only45, DP, 0xc3, 2},
	{"INW", only45, DP, 0xe3, 2},
	{"PHW", only45, ABS, 0xfc, 3},
	{"PHW", only45, IMM, 0xf4, 3},
	{"TSB", only45, DP, 0x04, 2},
	{"TSB", only45, ABS, 0x0c, 3},
	{"TRB", only45, DP, 0x14, 2},
	{"TRB", only45, ABS, 0x1c, 3},
}

// Zero-page bit instructions. The bit number occupies bits 4-6 of the
// opcode, so each base entry expands to eight variants.
var bitData = []opcodeData{
	{"RMB", only45, DP, 0x07, 2},
	{"SMB", only45, DP, 0x87, 2},
	{"BBR", only45, BBR, 0x0f, 3},
	{"BBS", only45, BBR, 0x8f, 3},
}

// 45GS02 Q-register mnemonics and the A-register mnemonics their
// opcodes derive from. The Q forms are encoded with a 42 42 prefix,
// plus an EA prefix for the [dp],Z mode.
var qBase = map[string]string{
	"ORQ":  "ORA",
	"ANDQ": "AND",
	"EORQ": "EOR",
	"ADCQ": "ADC",
	"STQ":  "STA",
	"LDQ":  "LDA",
	"CMPQ": "CMP",
	"SBCQ": "SBC",
	"ASLQ": "ASL",
	"ROLQ": "ROL",
	"LSRQ": "LSR",
	"RORQ": "ROR",
	"DEQ":  "DEC",
	"INQ":  "INC",
	"ASRQ": "ASR",
	"BITQ": "BIT",
}
