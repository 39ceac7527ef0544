package asm

import (
	"fmt"
	"strings"

	"github.com/beevik/prefixtree/v2"

	"github.com/m65tools/asm65/cpu"
)

type pseudoOpFn func(a *Assembler, l fstring) *Error

// The directive table. Lookup goes through a prefix tree, so the
// traditional short forms (.BYT, .WOR) resolve to the same handlers
// as the long ones.
var pseudoOps = prefixtree.New[pseudoOpFn]()

func init() {
	add := func(name string, fn pseudoOpFn) { pseudoOps.Add(name, fn) }

	add("byte", (*Assembler).parseByteData)
	add("byt", (*Assembler).parseByteData)
	add("pet", (*Assembler).parsePetData)
	add("disp", (*Assembler).parseDispData)
	add("word", (*Assembler).parseWordData)
	add("wor", (*Assembler).parseWordData)
	add("bigw", (*Assembler).parseBigWordData)
	add("hex4", (*Assembler).parseHex4Data)
	add("dec4", (*Assembler).parseDec4Data)
	add("quad", (*Assembler).parseQuadData)
	add("real", (*Assembler).parseRealData)
	add("real4", (*Assembler).parseReal4Data)
	add("bits", (*Assembler).parseBitData)
	add("lits", (*Assembler).parseLitData)
	add("fill", (*Assembler).parseFillData)
	add("bss", (*Assembler).parseBSSData)
	add("store", (*Assembler).parseStoreData)
	add("load", (*Assembler).parseLoadData)
	add("cpu", (*Assembler).parseCPUData)
	add("base", (*Assembler).parseBaseData)
	add("case", (*Assembler).parseCaseData)
	add("org", (*Assembler).parseOrg)
	add("include", (*Assembler).parseInclude)
	add("src", (*Assembler).parseInclude)
	add("size", (*Assembler).parseSizeInfo)
	add("end", (*Assembler).parseEnd)
	add("addr", (*Assembler).parseSkipped)
	add("ski", (*Assembler).parseSkipped)
	add("pag", (*Assembler).parseSkipped)
	add("nam", (*Assembler).parseSkipped)
	add("subttl", (*Assembler).parseSkipped)
}

// dispatchPseudoOp handles a directive line; l starts after the dot
// or exclamation mark.
func (a *Assembler) dispatchPseudoOp(l fstring) *Error {
	word, rest := l.consumeWhile(func(c byte) bool { return alpha(c) || decimal(c) })
	if word.isEmpty() {
		return errorf(Syntax, l, "Missing directive name")
	}
	fn, err := pseudoOps.FindValue(strings.ToLower(word.str))
	if err != nil {
		return errorf(Syntax, word, "Unknown directive <%s>", word.str)
	}
	if e := fn(a, rest); e != nil {
		return e
	}
	if a.pc > 0x10000 {
		return errorf(Range, l, "Program counter overflow")
	}
	return nil
}

// parseOrg handles .ORG; setPC below is shared with the *= form.
func (a *Assembler) parseOrg(l fstring) *Error {
	a.listPCLine()
	v, _, err := a.evalOperand(l, 0)
	if err != nil {
		return err
	}
	return a.setPC(l, v)
}

func (a *Assembler) setPC(l fstring, v int) *Error {
	if v == undefined || v < 0 || v > 0xffff {
		return errorf(Range, l, "Illegal program counter value")
	}
	a.pc = v
	if a.loadAddr == undefined {
		a.loadAddr = a.pc
	}
	if a.genStart > a.pc {
		a.genStart = a.pc
	}
	return nil
}

// parseByteData and friends emit byte data in the requested character
// set.
func (a *Assembler) parseByteData(l fstring) *Error { return a.parseData(l, ASCII) }
func (a *Assembler) parsePetData(l fstring) *Error  { return a.parseData(l, PETSCII) }
func (a *Assembler) parseDispData(l fstring) *Error { return a.parseData(l, Screencode) }

func (a *Assembler) parseData(l fstring, cs Charset) *Error {
	var buf []byte

	l = l.consumeWhitespace()
	for !l.isEmpty() {
		switch c := l.str[0]; {
		case c == '<' && l.peek(1) == '"' && l.peek(5) == '"':
			buf = append(buf, packedLow(l.str[2:5]))
			l = l.consume(6)

		case c == '>' && l.peek(1) == '"' && l.peek(5) == '"':
			buf = append(buf, packedHigh(l.str[2:5]))
			l = l.consume(6)

		case c == '#' && l.peek(1) == '"' && l.peek(5) == '"':
			v := hashedWord(l.str[2:5])
			buf = append(buf, byte(v), byte(v>>8))
			l = l.consume(6)

		case c == '"' || c == '\'':
			// Apostrophe strings are PETSCII even in plain .BYTE data.
			ecs := cs
			if c == '\'' && ecs == ASCII {
				ecs = PETSCII
			}
			start := len(buf)
			buf, l = parseString(l, buf)
			for i := start; i < len(buf); i++ {
				buf[i] = recode(buf[i], ecs)
			}

		default:
			var v int
			var err *Error
			v, l, err = a.evalOperand(l, 0)
			if err != nil {
				return err
			}
			if v == undefined && a.finalPass {
				return errorf(Semantic, l, "Undefined symbol in BYTE data")
			}
			buf = append(buf, byte(v))
			// Wide values spill their high byte.
			if v != undefined && (v > 255 || v < -127) {
				buf = append(buf, byte(v>>8))
			}
		}
		_, l = l.consumeUntilUnquotedChar(',')
		if !l.isEmpty() {
			l = l.consume(1).consumeWhitespace()
		}
	}

	if len(buf) == 0 {
		return errorf(Syntax, l, "Missing byte data")
	}
	return a.emitData(l, buf)
}

func (a *Assembler) parseWordData(l fstring) *Error    { return a.parseWords(l, false) }
func (a *Assembler) parseBigWordData(l fstring) *Error { return a.parseWords(l, true) }

func (a *Assembler) parseWords(l fstring, bigendian bool) *Error {
	var buf []byte

	l = l.consumeWhitespace()
	for !l.isEmpty() {
		var v int
		var err *Error
		v, l, err = a.evalOperand(l, 0)
		if err != nil {
			return err
		}
		if v == undefined && a.finalPass {
			return errorf(Semantic, l, "Undefined symbol in WORD data")
		}
		if bigendian {
			buf = append(buf, byte(v>>8), byte(v))
		} else {
			buf = append(buf, byte(v), byte(v>>8))
		}
		_, l = l.consumeUntilUnquotedChar(',')
		if !l.isEmpty() {
			l = l.consume(1).consumeWhitespace()
		}
	}

	if len(buf) == 0 {
		return errorf(Syntax, l, "Missing WORD data")
	}
	return a.emitData(l, buf)
}

// parseHex4Data emits the 4-character hexadecimal ASCII rendering of a
// 16-bit value.
func (a *Assembler) parseHex4Data(l fstring) *Error {
	v, _, err := a.evalOperand(l, 0)
	if err != nil {
		return err
	}
	if a.finalPass && v == undefined {
		return errorf(Semantic, l, "Undefined symbol in HEX4 data")
	}
	return a.emitData(l, []byte(fmt.Sprintf("%4.4X", v&0xffff)))
}

// parseDec4Data emits the 4-character decimal ASCII rendering of a
// value.
func (a *Assembler) parseDec4Data(l fstring) *Error {
	v, _, err := a.evalOperand(l, 0)
	if err != nil {
		return err
	}
	if a.finalPass && v == undefined {
		return errorf(Semantic, l, "Undefined symbol in DEC4 data")
	}
	b := []byte(fmt.Sprintf("%4d", v))
	return a.emitData(l, b[:4])
}

// parseQuadData emits a 32-bit integer, high byte first. The operand
// is either a raw $hhhhhhhh constant or a decimal number.
func (a *Assembler) parseQuadData(l fstring) *Error {
	l = l.consumeWhitespace()
	buf := make([]byte, 4)

	if l.startsWithChar('$') {
		hex, _ := l.consume(1).consumeWhile(hexadecimal)
		if len(hex.str) < 8 {
			return errorf(Syntax, l, "Need 8 hex digits for QUAD data")
		}
		for i := 0; i < 4; i++ {
			buf[i] = hexToByte(hex.str[i*2:])
		}
	} else {
		num, _ := l.consumeWhile(decimal)
		w := 0
		for i := 0; i < len(num.str); i++ {
			w = w*10 + int(num.str[i]-'0')
		}
		for i := 3; i >= 0; i-- {
			buf[i] = byte(w)
			w >>= 8
		}
	}
	return a.emitData(l, buf)
}

// parseFillData emits count copies of a fill value: .FILL count (value)
func (a *Assembler) parseFillData(l fstring) *Error {
	m, rest, err := a.evalOperand(l, 0)
	if err != nil {
		return err
	}
	if m < 0 || m > 32767 {
		return errorf(Range, l, "Illegal FILL multiplier %d", m)
	}
	_, rest = rest.consumeUntilChar('(')
	if rest.isEmpty() {
		return errorf(Syntax, l, "Missing '(' before FILL value")
	}
	v, _, err := a.evalOperand(rest.consume(1), 0)
	if err != nil {
		return err
	}
	buf := make([]byte, m)
	for i := range buf {
		buf[i] = byte(v)
	}
	if len(buf) == 0 {
		// Nothing to emit, but the line still lists.
		a.listPCLine()
		return nil
	}
	return a.emitData(l, buf)
}

// parseBitData packs eight '*' and '.' characters into one byte,
// most significant bit first.
func (a *Assembler) parseBitData(l fstring) *Error {
	v := 0
	for i := 0; i < 8; i++ {
		l = l.consumeWhitespace()
		v <<= 1
		switch {
		case l.startsWithChar('*'):
			v |= 1
		case l.startsWithChar('.'):
		default:
			return errorf(Syntax, l, "use only '*' for 1 and '.' for 0 in BITS statement")
		}
		l = l.consume(1)
	}
	return a.emitData(l, []byte{byte(v)})
}

// parseLitData packs eight '*' and '.' characters into one byte,
// least significant bit first.
func (a *Assembler) parseLitData(l fstring) *Error {
	v := 0
	for i := 0; i < 8; i++ {
		l = l.consumeWhitespace()
		v >>= 1
		switch {
		case l.startsWithChar('*'):
			v |= 128
		case l.startsWithChar('.'):
		default:
			return errorf(Syntax, l, "use only '*' for 1 and '.' for 0 in LITS statement")
		}
		l = l.consume(1)
	}
	return a.emitData(l, []byte{byte(v)})
}

// parseBSSData advances the BSS pointer without emitting image bytes.
func (a *Assembler) parseBSSData(l fstring) *Error {
	m, _, err := a.evalOperand(l, 0)
	if err != nil {
		return err
	}
	if m < 1 || m > 32767 {
		return errorf(Range, l, "Illegal BSS size %d", m)
	}
	a.listAddrLine(a.bss)
	a.bss += m
	return nil
}

// parseStoreData queues a binary output region: start, length, "file".
// Store regions are collected in the final pass only.
func (a *Assembler) parseStoreData(l fstring) *Error {
	if !a.finalPass {
		return nil
	}
	start, rest, err := a.evalOperand(l, 0)
	if err != nil {
		return err
	}
	if start < 0 || start > 0xffff {
		return errorf(Range, l, "Illegal start address for STORE %d", start)
	}
	rest = rest.consumeWhitespace()
	if !rest.startsWithChar(',') {
		return errorf(Syntax, rest, "Missing ',' after start address")
	}
	length, rest, err := a.evalOperand(rest.consume(1), 0)
	if err != nil {
		return err
	}
	if length < 0 || length > 0x10000 {
		return errorf(Range, l, "Illegal length for STORE %d", length)
	}
	_, rest = rest.consumeUntilChar('"')
	if rest.isEmpty() {
		return errorf(Syntax, rest, "Missing quote for filename")
	}
	name, rest := rest.consume(1).consumeUntilChar('"')
	if rest.isEmpty() {
		return errorf(Syntax, rest, "Missing quote for filename")
	}
	if len(a.stores) >= maxStores {
		return errorf(Resource, l, "number of storage files exceeds %d", maxStores)
	}
	a.stores = append(a.stores, Store{Start: start, Length: length, Filename: name.str})
	a.listLine()
	return nil
}

// parseLoadData arms the CBM load-address prefix for subsequent
// .STORE output.
func (a *Assembler) parseLoadData(l fstring) *Error {
	a.writeLA = true
	a.listLine()
	return nil
}

// parseCPUData switches the target CPU.
func (a *Assembler) parseCPUData(l fstring) *Error {
	name, _ := l.consumeWhitespace().consumeWhile(func(c byte) bool {
		return alpha(c) || decimal(c)
	})
	c, ok := cpu.Parse(name.str)
	if !ok {
		return errorf(Semantic, name, "Unsupported CPU type <%s>", name.str)
	}
	a.cpuType = c
	a.instSet = cpu.GetInstructionSet(c)
	a.listLine()
	return nil
}

// parseBaseData sets the base page register.
func (a *Assembler) parseBaseData(l fstring) *Error {
	v, _, err := a.evalOperand(l, 0)
	if err != nil {
		return err
	}
	if v < 0 || v > 255 {
		return errorf(Range, l, "Illegal base page value %d", v)
	}
	a.bp = v
	a.listLine()
	return nil
}

// parseCaseData switches symbol case sensitivity: .CASE + or .CASE -
func (a *Assembler) parseCaseData(l fstring) *Error {
	l = l.consumeWhitespace()
	switch {
	case l.startsWithChar('+'):
		a.ignoreCase = false
	case l.startsWithChar('-'):
		a.ignoreCase = true
	default:
		return errorf(Syntax, l, "Missing '+' or '-' after .CASE")
	}
	a.listLine()
	return nil
}

// parseSizeInfo lists the size of the enclosing module so far.
func (a *Assembler) parseSizeInfo(l fstring) *Error {
	a.listSizeInfo()
	return nil
}

// parseEnd stops assembly of the current file.
func (a *Assembler) parseEnd(l fstring) *Error {
	a.forcedEnd = true
	a.listLine()
	return nil
}

// parseSkipped accepts legacy list-control directives without any
// effect.
func (a *Assembler) parseSkipped(l fstring) *Error {
	a.listLine()
	return nil
}

func hexToByte(s string) byte {
	return hexDigit(s[0])<<4 | hexDigit(s[1])
}

func hexDigit(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// emitData writes a data block into the image, records its span on
// labels at this address, and advances the program counter.
func (a *Assembler) emitData(l fstring, buf []byte) *Error {
	if a.pc < 0 {
		return errorf(Semantic, l, "Undefined program counter (PC)")
	}
	if a.pc+len(buf) > len(a.image) {
		return errorf(Range, l, "Program counter overflow")
	}
	a.syms.setSpan(a.pc, len(buf))
	if a.finalPass {
		copy(a.image[a.pc:], buf)
		a.listCode(a.pc, buf)
	}
	a.pc += len(buf)
	return nil
}
