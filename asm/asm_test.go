package asm

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m65tools/asm65/cpu"
)

func assemble(code string, cfg Config) (*Result, error) {
	a := New(cfg)
	return a.Assemble(bytes.NewReader([]byte(code)), "test")
}

func checkASMConfig(t *testing.T, code string, cfg Config, expected string) {
	t.Helper()
	res, err := assemble(code, cfg)
	if err != nil {
		t.Errorf("assembly failed: %v", err)
		return
	}
	got := res.Image[res.Start:res.End]

	b := make([]byte, len(got)*2)
	for i, j := 0, 0; i < len(got); i, j = i+1, j+2 {
		b[j+0] = hexDigits[got[i]>>4]
		b[j+1] = hexDigits[got[i]&0x0f]
	}
	s := string(b)

	if s != expected {
		t.Error("code doesn't match expected")
		t.Errorf("got: %s\n", s)
		t.Errorf("exp: %s\n", expected)
	}
}

func checkASM(t *testing.T, code string, expected string) {
	t.Helper()
	checkASMConfig(t, code, Config{}, expected)
}

func checkASMError(t *testing.T, code string, cfg Config, kind Kind) {
	t.Helper()
	_, err := assemble(code, cfg)
	if err == nil {
		t.Errorf("expected error, got none")
		return
	}
	if e, ok := err.(*Error); ok && e.Kind != kind {
		t.Errorf("expected %v error, got %v: %v", kind, e.Kind, e)
	}
}

func TestSimpleProgram(t *testing.T) {
	asm := `
*= $1000
 LDA #$42
 RTS`

	checkASM(t, asm, "A94260")
}

func TestAddressing(t *testing.T) {
	asm := `
*= $1000
 LDA #$20
 LDA $20
 LDA $20,X
 LDA $2000
 LDA $2000,X
 LDA $2000,Y
 LDA ($20,X)
 LDA ($20),Y
 LDX $20,Y
 LDX $2000,Y
 STX $20,Y
 JMP $2000
 JMP ($2000)
 JSR $2000`

	checkASM(t, asm, "A920A520B520AD0020BD0020B90020A120B120B620BE0020"+
		"96204C00206C0020200020")
}

func TestImplied(t *testing.T) {
	asm := `
*= $1000
 INX
 DEY
 TXA
 NOP
 ASL
 LSR A
 RTS`

	checkASM(t, asm, "E8888AEA0A4A60")
}

func TestBackLabel(t *testing.T) {
	asm := `
*= $C000
LOOP LDX #0
: INX
 BNE -
 RTS`

	checkASM(t, asm, "A200E8D0FD60")
}

func TestForwardAnonLabel(t *testing.T) {
	asm := `
*= $1000
 BNE +
 NOP
: RTS`

	checkASM(t, asm, "D001EA60")
}

func TestMacro(t *testing.T) {
	asm := `
MACRO LDXY(W)
 LDX W
 LDY W+1
ENDMAC
*= $1000
 LDXY($C000)`

	checkASM(t, asm, "AE00C0AC01C0")
}

func TestMacroNoArgs(t *testing.T) {
	asm := `
MACRO PUSHALL()
 PHA
 PHP
ENDMAC
*= $1000
 PUSHALL()`

	checkASM(t, asm, "4808")
}

func TestMacroWrongArgCount(t *testing.T) {
	asm := `
MACRO LDXY(W)
 LDX W
ENDMAC
*= $1000
 LDXY($10,$20)`

	checkASMError(t, asm, Config{}, Semantic)
}

func TestConditional(t *testing.T) {
	asm := `
FLAG=1
*= $1000
#if FLAG
 .BYTE 1
#else
 .BYTE 2
#endif`

	checkASM(t, asm, "01")
}

func TestConditionalIfdef(t *testing.T) {
	asm := `
DEFINED = 1
*= $1000
#ifdef DEFINED
 .BYTE 1
#endif
#ifdef MISSING
 .BYTE 2
#endif
 .BYTE 3`

	checkASM(t, asm, "0103")
}

func TestConditionalNested(t *testing.T) {
	asm := `
C64 = 1
PLUS4 = 0
*= $1000
#if C64 | PLUS4
 .BYTE 1
#if PLUS4
 .BYTE 2
#else
 .BYTE 3
#endif
#endif`

	checkASM(t, asm, "0103")
}

func TestErrorDirective(t *testing.T) {
	asm := `
MAXLEN = $1f0
#if (MAXLEN & $ff00)
#error This code is 8 bit only, MAXLEN too large!
#endif`

	checkASMError(t, asm, Config{}, User)
}

func TestMissingEndif(t *testing.T) {
	asm := `
*= $1000
#if 1
 NOP`

	checkASMError(t, asm, Config{}, Syntax)
}

func TestForwardReference(t *testing.T) {
	asm := `
*= $0800
 JMP END
 .BYTE 0,0
END RTS`

	checkASM(t, asm, "4C05080000"+"60")
}

func TestStoreWithLoadAddress(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.bin")

	asm := `
*= $1000
 LDA #$42
 RTS
.LOAD
.STORE $1000,3,"` + out + `"`

	res, err := assemble(asm, Config{})
	if err != nil {
		t.Fatalf("assembly failed: %v", err)
	}
	if err := res.WriteBinaries(); err != nil {
		t.Fatalf("WriteBinaries: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	expected := []byte{0x00, 0x10, 0xa9, 0x42, 0x60}
	if !bytes.Equal(b, expected) {
		t.Errorf("got % x, expected % x", b, expected)
	}
}

func TestByteData(t *testing.T) {
	asm := `
*= $1000
 .BYTE $20,"AB",0
 .BYTE "A\r"
 .BYTE "AB"^
 .BYTE 1+2+3`

	checkASM(t, asm, "204142004"+"10D"+"41C2"+"06")
}

func TestByteWideSpill(t *testing.T) {
	asm := `
*= $1000
 .BYTE $ABCD`

	checkASM(t, asm, "CDAB")
}

func TestPetsciiAndScreencode(t *testing.T) {
	asm := `
*= $1000
 .PET "aA"
 .DISP "a"
 .BYTE 'aA'`

	checkASM(t, asm, "41C1"+"01"+"41C1")
}

func TestPackedAndHashed(t *testing.T) {
	asm := `
*= $1000
 .BYTE <"BRK"
 .BYTE >"BRK"
 .BYTE #"ABC"`

	checkASM(t, asm, "D8"+"1C"+"1203")
}

func TestWordData(t *testing.T) {
	asm := `
*= $1000
 .WORD $1234
 .BIGW $1234`

	checkASM(t, asm, "3412"+"1234")
}

func TestHexDecData(t *testing.T) {
	asm := `
*= $1000
 .HEX4 $ABCD
 .DEC4 42`

	checkASM(t, asm, "41424344"+"20203432")
}

func TestQuadData(t *testing.T) {
	asm := `
*= $1000
 .QUAD 100000
 .QUAD $01020304`

	checkASM(t, asm, "000186A0"+"01020304")
}

func TestFillData(t *testing.T) {
	asm := `
*= $1000
 .FILL 4 ($EA)
 .BYTE 1`

	checkASM(t, asm, "EAEAEAEA01")
}

func TestBitsAndLits(t *testing.T) {
	asm := `
*= $1000
 .BITS **......
 .LITS *.......`

	checkASM(t, asm, "C0"+"01")
}

func TestRealData(t *testing.T) {
	asm := `
*= $1000
 .REAL 1
 .REAL4 3`

	checkASM(t, asm, "8100000000"+"82400000")
}

func TestByteSpanOperator(t *testing.T) {
	asm := `
*= $1000
TAB .BYTE 1,2,3
 .BYTE ?TAB`

	checkASM(t, asm, "010203"+"03")
}

func TestBSS(t *testing.T) {
	asm := `
&= $033A
TXTTAB .BSS 2
NEXT .BSS 1
*= $1000
 LDA TXTTAB+1
 .WORD NEXT`

	res, err := assemble(asm, Config{})
	if err != nil {
		t.Fatalf("assembly failed: %v", err)
	}
	find := func(name string) *Symbol {
		for _, s := range res.Symbols {
			if s.Name == name {
				return s
			}
		}
		return nil
	}
	if s := find("TXTTAB"); s == nil || s.Address != 0x33a {
		t.Errorf("TXTTAB = %v", s)
	}
	if s := find("NEXT"); s == nil || s.Address != 0x33c {
		t.Errorf("NEXT = %v", s)
	}
	got := res.Image[0x1000:res.End]
	expected := []byte{0xad, 0x3b, 0x03, 0x3c, 0x03}
	if !bytes.Equal(got, expected) {
		t.Errorf("got % x, expected % x", got, expected)
	}
	// BSS reservations never write image bytes.
	if res.Image[0x33a] != 0 || res.Image[0x33b] != 0 {
		t.Error("BSS reservation wrote image bytes")
	}
}

func TestCaseSensitivity(t *testing.T) {
	asm := `
FOO = 1
foo = 2
*= $1000
 .BYTE FOO, foo`

	checkASM(t, asm, "0102")
}

func TestCaseInsensitive(t *testing.T) {
	asm := `
.CASE -
FOO = 1
*= $1000
 .BYTE foo`

	checkASM(t, asm, "01")
}

func TestModuleScope(t *testing.T) {
	asm := `
*= $1000
MODULE FOO
_init LDA #5
 RTS
ENDMOD
 JMP FOO_init`

	checkASM(t, asm, "A90560"+"4C0010")
}

func TestLockedDefine(t *testing.T) {
	asm := `
FLAG = 0
*= $1000
 .BYTE FLAG`

	checkASMConfig(t, asm, Config{Defines: []string{"FLAG=7"}}, "07")
}

func TestCPU65C02(t *testing.T) {
	asm := `
.CPU 65C02
*= $1000
 STZ $01
 STZ $1234
 STZ $01,X
 STZ $1234,X
 PHX
 PLY
 BRA NEXT
NEXT LDA ($20)
 INC
 DEC`

	checkASM(t, asm, "6401"+"9C3412"+"7401"+"9E3412"+"DA"+"7A"+"8000"+"B220"+"1A"+"3A")
}

func TestCPUGate(t *testing.T) {
	asm := `
*= $1000
 JMP ($2000,X)`

	// JMP (abs,X) does not exist on the NMOS 6502.
	checkASMError(t, asm, Config{}, Semantic)
}

func Test45GS02(t *testing.T) {
	asm := `
.CPU 45GS02
*= $1000
 INZ
 TAZ
 LDZ #$12
 CPZ $34
 INW $22
 RMB5 $34
L NOP
 BBR3 $12,L`

	checkASM(t, asm, "1B"+"4B"+"A312"+"D434"+"E322"+"5734"+"EA"+"3F12FC")
}

func TestQuadRegister(t *testing.T) {
	asm := `
.CPU 45GS02
*= $1000
 ASLQ
 LDQ $12
 LDQ $1234
 LDQ ($12)
 LDQ [$12]
 STQ $34`

	checkASM(t, asm, "42420A"+"4242A512"+"4242AD3412"+"4242B212"+"4242EAB212"+"42428534")
}

func TestLongBranch(t *testing.T) {
	asm := `
.CPU 45GS02
*= $1000
L1 NOP
 LBNE L1
 BSR L1`

	checkASM(t, asm, "EA"+"D3FDFF"+"63FAFF")
}

func TestBranchOptimization(t *testing.T) {
	short := `
.CPU 45GS02
*= $1000
L1 NOP
 BNE L1`

	checkASMConfig(t, short, Config{BranchOpt: true}, "EA"+"D0FD")

	long := `
.CPU 45GS02
*= $1000
 BNE FAR
 .FILL 200 (0)
FAR RTS`

	res, err := assemble(long, Config{BranchOpt: true})
	if err != nil {
		t.Fatalf("assembly failed: %v", err)
	}
	got := res.Image[0x1000:0x1003]
	expected := []byte{0xd3, 0xc9, 0x00}
	if !bytes.Equal(got, expected) {
		t.Errorf("got % x, expected % x", got, expected)
	}
	if res.Image[res.End-1] != 0x60 {
		t.Errorf("expected RTS at end, got %02x", res.Image[res.End-1])
	}
}

func TestBranchTooFar(t *testing.T) {
	asm := `
*= $1000
 BNE FAR
 .FILL 200 (0)
FAR RTS`

	checkASMError(t, asm, Config{}, Range)
}

func TestBranchToNext(t *testing.T) {
	asm := `
*= $1000
 BNE NEXT
NEXT RTS`

	checkASM(t, asm, "D000"+"60")
}

func TestPCOverflow(t *testing.T) {
	asm := `
*= $FFFD
 JMP $1234`

	if _, err := assemble(asm, Config{}); err == nil {
		t.Error("expected pc overflow error")
	}
}

func TestUndefinedSymbol(t *testing.T) {
	asm := `
*= $1000
 LDA FOO`

	checkASMError(t, asm, Config{}, Semantic)
}

func TestMultipleDefinition(t *testing.T) {
	asm := `
*= $1000
L1 NOP
L1 NOP`

	checkASMError(t, asm, Config{}, Semantic)
}

func TestImmediateRange(t *testing.T) {
	asm := `
*= $1000
 LDA #$123`

	checkASMError(t, asm, Config{}, Range)
}

func TestInclude(t *testing.T) {
	dir := t.TempDir()
	inc := filepath.Join(dir, "inc.asm")
	if err := os.WriteFile(inc, []byte(" .BYTE 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	asm := `
*= $1000
 .BYTE 1
.INCLUDE "` + inc + `"
 .BYTE 3`

	checkASM(t, asm, "010203")
}

func TestEndDirective(t *testing.T) {
	asm := `
*= $1000
 .BYTE 1
.END
 .BYTE 2`

	checkASM(t, asm, "01")
}

func TestBasePage(t *testing.T) {
	asm := `
.CPU 45GS02
.BASE $D0
*= $1000
 LDA $D020`

	// $D020 lies in the configured base page, so it encodes as a
	// direct page access.
	checkASM(t, asm, "A520")
}

func TestBIT2ByteSkip(t *testing.T) {
	asm := `
*= $1000
 BIT
 LDA #1
 RTS`

	checkASM(t, asm, "2C"+"A901"+"60")
}

func TestListing(t *testing.T) {
	var lst bytes.Buffer
	asm := `
*= $1000
 LDA #$42
 RTS`

	if _, err := assemble(asm, Config{Listing: &lst}); err != nil {
		t.Fatalf("assembly failed: %v", err)
	}
	text := lst.String()
	if !strings.Contains(text, "1000 a9 42") {
		t.Errorf("listing missing code line:\n%s", text)
	}
	if !strings.Contains(text, "Symbols") {
		t.Errorf("listing missing symbol table:\n%s", text)
	}
}

func TestListingLineNumbers(t *testing.T) {
	var lst bytes.Buffer
	asm := `*= $1000
 RTS`

	if _, err := assemble(asm, Config{Listing: &lst, LineNumbers: true}); err != nil {
		t.Fatalf("assembly failed: %v", err)
	}
	if !strings.Contains(lst.String(), "    2 1000 60") {
		t.Errorf("listing missing line numbers:\n%s", lst.String())
	}
}

func TestSymbolReferences(t *testing.T) {
	asm := `
*= $1000
PTR = $20
 LDA (PTR),Y
 LDA PTR`

	res, err := assemble(asm, Config{})
	if err != nil {
		t.Fatalf("assembly failed: %v", err)
	}
	var ptr *Symbol
	for _, s := range res.Symbols {
		if s.Name == "PTR" {
			ptr = s
		}
	}
	if ptr == nil {
		t.Fatal("PTR not found")
	}
	if ptr.Refs[0].Attr != attrDef {
		t.Errorf("first reference is not the definition: %v", ptr.Refs[0])
	}
	found := false
	for _, r := range ptr.Refs[1:] {
		if r.Attr == int(cpu.IDY) {
			found = true
		}
	}
	if !found {
		t.Errorf("missing (dp),Y reference attribute: %v", ptr.Refs)
	}
}
