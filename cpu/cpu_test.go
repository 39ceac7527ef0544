package cpu

import "testing"

func TestBasicLookups(t *testing.T) {
	set := GetInstructionSet(CPU6502)

	if inst := set.Find("LDA", IMM); inst == nil || inst.Opcode != 0xa9 || inst.Length != 2 {
		t.Errorf("LDA IMM = %v", inst)
	}
	if inst := set.Find("JMP", IND); inst == nil || inst.Opcode != 0x6c || inst.Length != 3 {
		t.Errorf("JMP IND = %v", inst)
	}
	if inst := set.Lookup(0xea); inst == nil || inst.Name != "NOP" {
		t.Errorf("opcode EA = %v", inst)
	}
	if inst := set.Lookup(0x60); inst == nil || inst.Name != "RTS" {
		t.Errorf("opcode 60 = %v", inst)
	}
}

func TestCPUGating(t *testing.T) {
	nmos := GetInstructionSet(CPU6502)
	c02 := GetInstructionSet(CPU65C02)
	sc02 := GetInstructionSet(CPU65SC02)
	gs02 := GetInstructionSet(CPU45GS02)

	if nmos.Variants("PHX") != nil {
		t.Error("PHX should not exist on the 6502")
	}
	if c02.Find("PHX", IMP) == nil {
		t.Error("PHX missing on the 65C02")
	}
	if nmos.Find("STZ", DP) != nil {
		t.Error("STZ should not exist on the 6502")
	}
	if sc02.Find("STZ", ABS) != nil {
		t.Error("STZ abs should not exist on the 65SC02")
	}
	if c02.Find("STZ", ABS) == nil || c02.Find("STZ", ABX) == nil {
		t.Error("STZ abs forms missing on the 65C02")
	}
	if nmos.Find("JMP", IDX) != nil {
		t.Error("JMP (abs,X) should not exist on the 6502")
	}
	if gs02.Find("JSR", IDX) == nil {
		t.Error("JSR (abs,X) missing on the 45GS02")
	}
	if inst := GetInstructionSet(CPU65816).Find("JSR", IDX); inst == nil || inst.Opcode != 0xfc {
		t.Errorf("65816 JSR (abs,X) = %v", inst)
	}
}

func Test45GS02Extensions(t *testing.T) {
	set := GetInstructionSet(CPU45GS02)

	if inst := set.Find("INZ", IMP); inst == nil || inst.Opcode != 0x1b {
		t.Errorf("INZ = %v", inst)
	}
	if inst := set.Find("LDZ", IMM); inst == nil || inst.Opcode != 0xa3 {
		t.Errorf("LDZ # = %v", inst)
	}
	if inst := set.Find("LDA", IDSP); inst == nil || inst.Opcode != 0xe2 {
		t.Errorf("LDA (dp,SP),Y = %v", inst)
	}
	if inst := set.Find("RMB3", DP); inst == nil || inst.Opcode != 0x37 {
		t.Errorf("RMB3 = %v", inst)
	}
	if inst := set.Find("BBS7", BBR); inst == nil || inst.Opcode != 0xff {
		t.Errorf("BBS7 = %v", inst)
	}
}

func TestLongBranches(t *testing.T) {
	set := GetInstructionSet(CPU45GS02)

	if inst := set.Find("LBNE", RELL); inst == nil || inst.Opcode != 0xd3 || inst.Length != 3 {
		t.Errorf("LBNE = %v", inst)
	}
	if inst := set.Find("LBRA", RELL); inst == nil || inst.Opcode != 0x83 {
		t.Errorf("LBRA = %v", inst)
	}
	if inst := set.Find("BSR", RELL); inst == nil || inst.Opcode != 0x63 {
		t.Errorf("BSR = %v", inst)
	}
	if GetInstructionSet(CPU6502).Find("LBNE", RELL) != nil {
		t.Error("long branches should not exist on the 6502")
	}
}

func TestQBase(t *testing.T) {
	base, ok := QBase("LDQ")
	if !ok || base != "LDA" {
		t.Errorf("QBase(LDQ) = %s, %v", base, ok)
	}
	base, ok = QBase("aslq")
	if !ok || base != "ASL" {
		t.Errorf("QBase(aslq) = %s, %v", base, ok)
	}
	if _, ok := QBase("LDX"); ok {
		t.Error("LDX is not a Q mnemonic")
	}
}

func TestParse(t *testing.T) {
	if c, ok := Parse("45gs02"); !ok || c != CPU45GS02 {
		t.Errorf("Parse(45gs02) = %v, %v", c, ok)
	}
	if _, ok := Parse("z80"); ok {
		t.Error("z80 should not parse")
	}
}
