package asm

import "testing"

func evalString(t *testing.T, s string) int {
	t.Helper()
	a := New(Config{})
	a.changes = []int{0}
	a.pass = 1
	v, _, err := a.evalOperand(newFstring("test", 1, s), 0)
	if err != nil {
		t.Fatalf("eval %q: %v", s, err)
	}
	return v
}

func checkEval(t *testing.T, s string, expected int) {
	t.Helper()
	if v := evalString(t, s); v != expected {
		t.Errorf("eval %q = %d, expected %d", s, v, expected)
	}
}

func TestLiterals(t *testing.T) {
	checkEval(t, "123", 123)
	checkEval(t, "$ff", 255)
	checkEval(t, "$A12", 0xa12)
	checkEval(t, "%1010", 10)
	checkEval(t, "%*.*.", 10)
	checkEval(t, "'A'", 65)
	checkEval(t, "'\\r'", 13)
	checkEval(t, "'\\0'", 0)
}

func TestOperatorPriority(t *testing.T) {
	checkEval(t, "2+3*4", 14)
	checkEval(t, "[2+3]*4", 20)
	checkEval(t, "(2+3)*4", 20)
	checkEval(t, "10-2-3", 5)
	checkEval(t, "1+2 == 3", 1)
	checkEval(t, "7 >> 1", 3)
	checkEval(t, "1 << 3 | 1", 9)
	checkEval(t, "6 & 3 ^ 1", 3)
	checkEval(t, "1 && 0 || 1", 1)
}

func TestRelationalOperators(t *testing.T) {
	checkEval(t, "2 < 3", 1)
	checkEval(t, "3 <= 3", 1)
	checkEval(t, "2 > 3", 0)
	checkEval(t, "3 >= 4", 0)
	checkEval(t, "5 == 5", 1)
	checkEval(t, "5 != 5", 0)
}

func TestUnaryOperators(t *testing.T) {
	checkEval(t, "-5 & $ff", 0xfb)
	checkEval(t, "!0", 1)
	checkEval(t, "!7", 0)
	checkEval(t, "~0 & $ff", 0xff)
	checkEval(t, "<$1234", 0x34)
	checkEval(t, ">$1234", 0x12)
}

func TestUndefinedPropagation(t *testing.T) {
	a := New(Config{})
	a.changes = []int{0}
	a.pass = 1

	v, _, err := a.evalOperand(newFstring("test", 1, "NOWHERE+1"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if v != undefined {
		t.Errorf("expected undefined, got %d", v)
	}

	// Division by zero also poisons the result.
	v, _, err = a.evalOperand(newFstring("test", 1, "1/0"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if v != undefined {
		t.Errorf("expected undefined for 1/0, got %d", v)
	}
}

func TestProgramCounterOperator(t *testing.T) {
	a := New(Config{})
	a.changes = []int{0}
	a.pass = 1
	a.pc = 0x1234

	v, _, err := a.evalOperand(newFstring("test", 1, "*+2"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x1236 {
		t.Errorf("expected $1236, got %x", v)
	}
}

func TestScopedSymbols(t *testing.T) {
	a := New(Config{})
	a.changes = []int{0}
	a.pass = 1
	a.scope = "FOO"

	name, _ := a.getSymbol(newFstring("test", 1, "_local"))
	if name != "FOO_local" {
		t.Errorf("expected FOO_local, got %s", name)
	}
	name, _ = a.getSymbol(newFstring("test", 1, ".loop"))
	if name != "FOO.loop" {
		t.Errorf("expected FOO.loop, got %s", name)
	}
	name, _ = a.getSymbol(newFstring("test", 1, "40$"))
	if name != "FOO_40$" {
		t.Errorf("expected FOO_40$, got %s", name)
	}
	name, _ = a.getSymbol(newFstring("test", 1, "GLOBAL"))
	if name != "GLOBAL" {
		t.Errorf("expected GLOBAL, got %s", name)
	}
}

func TestCharsetEncoding(t *testing.T) {
	if recode('a', PETSCII) != 'A' {
		t.Error("petscii lower case")
	}
	if recode('A', PETSCII) != 'A'|0x80 {
		t.Error("petscii upper case")
	}
	if recode('a', Screencode) != 0x01 {
		t.Error("screencode lower case")
	}
	if recode('0', PETSCII) != '0' {
		t.Error("petscii digit should pass through")
	}
}

func TestPackedASCII(t *testing.T) {
	if v := packedLow("BRK"); v != 0xd8 {
		t.Errorf("packedLow(BRK) = %02x", v)
	}
	if v := packedHigh("BRK"); v != 0x1c {
		t.Errorf("packedHigh(BRK) = %02x", v)
	}
	if v := hashedWord("ABC"); v != 3+27*(2+27*1) {
		t.Errorf("hashedWord(ABC) = %d", v)
	}
}
