package asm

import (
	"strings"

	"github.com/m65tools/asm65/cpu"
)

// An operandForm is the outcome of classifying an operand's syntax:
// the addressing mode implied by its markers and the expression text
// left over once the markers are blanked out.
type operandForm struct {
	mode    cpu.Mode
	expr    fstring
	force16 bool // backtick prefix: operand must use 16 bits
}

// classifyOperand decides the addressing mode from the operand's
// prefix, inner and outer markers. The markers are replaced with
// blanks so the remainder can be handed to the expression evaluator
// unchanged. Unrecognized shapes fall back to absolute, where the
// expression evaluator or the encoder reports the real problem.
func classifyOperand(l fstring, isQ bool) operandForm {
	var form operandForm
	form.mode = cpu.ABS

	text := []byte(l.trimRight().str)

	// Q instructions are Z-indexed implicitly.
	if isQ && len(text) > 2 {
		if tail := strings.ToUpper(string(text[len(text)-2:])); tail == ",Z" {
			text = text[:len(text)-2]
		}
	}

	// A bracket pair around the whole operand is the 32-bit indirect
	// mode for Q instructions. Anywhere else brackets are arithmetic
	// grouping and pass through to the evaluator.
	if isQ && len(text) > 1 && text[0] == '[' && text[len(text)-1] == ']' {
		form.mode = cpu.IDZ32
		form.expr = blanked(l, text, 0, len(text)-1)
		return form
	}

	if len(text) > 0 && text[0] == '#' {
		form.mode = cpu.IMM
		form.expr = blanked(l, text, 0)
		return form
	}

	if len(text) > 0 && text[0] == '`' {
		form.force16 = true
		text[0] = ' '
	}

	var prefix byte
	if len(text) > 0 && (text[0] == '(' || text[0] == '[') {
		prefix = text[0]
	}

	// Walk the markers backward: outer, middle, inner.
	var outer, middle, inner byte
	oi, mi, ii := -1, -1, -1

	n := len(text)
	if n > 0 {
		switch c := toUpper(text[n-1]); c {
		case ')', 'X', 'Y', 'Z':
			outer, oi = c, n-1
			n--
		}
	}
	if outer != 0 {
		for n > 0 && whitespace(text[n-1]) {
			n--
		}
		if n > 0 {
			switch c := toUpper(text[n-1]); c {
			case ',', 'X':
				middle, mi = c, n-1
				n--
			}
		}
	}
	if middle != 0 {
		for n > 0 && whitespace(text[n-1]) {
			n--
		}
		if n > 0 {
			switch c := text[n-1]; c {
			case ',', ')', ']':
				inner, ii = c, n-1
			}
		}
	}

	switch {
	case prefix == '[' && inner == ']' && middle == ',' && outer == 'Z':
		form.mode = cpu.IDZ32
		form.expr = blanked(l, text, 0, ii, mi, oi)
	case prefix == '(' && inner == ')' && middle == ',' && outer == 'Z':
		form.mode = cpu.IDZ
		form.expr = blanked(l, text, 0, ii, mi, oi)
	case prefix == '(' && inner == ')' && middle == ',' && outer == 'Y':
		form.mode = cpu.IDY
		form.expr = blanked(l, text, 0, ii, mi, oi)
		// (dp,SP),Y is the 45GS02 stack-relative mode.
		if e := form.expr.trimRight(); strings.HasSuffix(strings.ToUpper(e.str), ",SP") {
			form.mode = cpu.IDSP
			form.expr = e.trunc(len(e.str) - 3)
		}
	case prefix == '(' && inner == ',' && middle == 'X' && outer == ')':
		form.mode = cpu.IDX
		form.expr = blanked(l, text, 0, ii, mi, oi)
	case prefix == '(' && outer == ')':
		form.mode = cpu.IND
		form.expr = blanked(l, text, 0, oi)
	case middle == ',' && outer == 'Y':
		form.mode = cpu.ABY
		form.expr = blanked(l, text, mi, oi)
	case middle == ',' && outer == 'X':
		form.mode = cpu.ABX
		form.expr = blanked(l, text, mi, oi)
	default:
		form.mode = cpu.ABS
		form.expr = blanked(l, text)
	}
	return form
}

// blanked rebuilds the operand text with the marker positions blanked
// out, preserving the original line position for error reporting.
func blanked(l fstring, text []byte, marks ...int) fstring {
	out := make([]byte, len(text))
	copy(out, text)
	for _, i := range marks {
		out[i] = ' '
	}
	f := l
	f.str = string(out)
	return f
}
