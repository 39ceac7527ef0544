package asm

import "strings"

const (
	maxMacros      = 64
	maxMacroParams = 10
)

// A macro body line is a sequence of segments: literal text and
// references to formal parameters, recorded during capture.
type macroSegment struct {
	text string // literal text, when arg < 0
	arg  int    // parameter index, when >= 0
}

type macroLine []macroSegment

// A Macro is a captured body with its formal parameter count.
// Parameter references are resolved positionally, so expansion is a
// pure text substitution.
type Macro struct {
	Name  string
	Nargs int
	Lines []macroLine
}

// expand substitutes the actual arguments into one body line.
func (m macroLine) expand(args []string) string {
	var sb strings.Builder
	for _, seg := range m {
		if seg.arg >= 0 {
			sb.WriteString(args[seg.arg])
		} else {
			sb.WriteString(seg.text)
		}
	}
	return sb.String()
}

func (a *Assembler) macroIndex(name string) int {
	for i, m := range a.macros {
		if a.strEq(m.Name, name) {
			return i
		}
	}
	return -1
}

// scanMacroArgs reads the comma-separated names between the
// parentheses of a macro definition or call.
func (a *Assembler) scanMacroArgs(l fstring) ([]string, fstring, *Error) {
	var args []string
	for len(args) < maxMacroParams {
		l = l.consumeWhitespace()
		if l.startsWithChar(')') {
			return args, l.consume(1), nil
		}
		name, rest := a.getSymbol(l)
		args = append(args, name)
		rest = rest.consumeWhitespace()
		switch {
		case rest.startsWithChar(')'):
			return args, rest.consume(1), nil
		case rest.startsWithChar(','):
			l = rest.consume(1)
		default:
			return args, rest, errorf(Syntax, rest, "Syntax error in macro")
		}
	}
	return args, l, errorf(Resource, l, "Too many macro parameters (> %d)", maxMacroParams)
}

// recordMacro captures a macro definition: MACRO NAME(a,b) ... ENDMAC.
// Each textual occurrence of a formal parameter inside the body is
// rewritten into a positional reference during capture.
func (a *Assembler) recordMacro(l fstring) *Error {
	name, rest := a.getSymbol(l.consumeWhitespace())
	if name == "" {
		return errorf(Syntax, l, "Missing macro name")
	}
	if len(a.macros) >= maxMacros && a.macroIndex(name) < 0 {
		return errorf(Resource, l, "Too many macros (> %d)", maxMacros)
	}
	rest = rest.consumeWhitespace()

	var params []string
	if rest.startsWithChar('(') {
		var err *Error
		params, _, err = a.scanMacroArgs(rest.consume(1))
		if err != nil {
			return err
		}
	}

	a.listLine()
	known := a.macroIndex(name) >= 0
	mac := &Macro{Name: name, Nargs: len(params)}

	// The body is captured raw from the source reader; expansions of
	// other macros inside it happen at call time.
	for {
		text, ok := a.src.rawLine()
		if !ok {
			return errorf(Syntax, l, "Missing ENDMAC for macro [%s]", name)
		}
		a.listMacroLine(text)
		if containsFold(text, "ENDMAC") {
			break
		}
		mac.Lines = append(mac.Lines, captureMacroLine(text, params, a.ignoreCase))
	}

	// A macro seen in an earlier pass keeps its first recording.
	if !known {
		a.macros = append(a.macros, mac)
	}
	return nil
}

// captureMacroLine splits one body line into literal and parameter
// segments.
func captureMacroLine(text string, params []string, ignoreCase bool) macroLine {
	var line macroLine
	lit := []byte{}
	flush := func() {
		if len(lit) > 0 {
			line = append(line, macroSegment{text: string(lit), arg: -1})
			lit = lit[:0]
		}
	}
	for i := 0; i < len(text); {
		matched := false
		for pi, p := range params {
			if p == "" || len(text)-i < len(p) {
				continue
			}
			frag := text[i : i+len(p)]
			if frag == p || (ignoreCase && strings.EqualFold(frag, p)) {
				flush()
				line = append(line, macroSegment{arg: pi})
				i += len(p)
				matched = true
				break
			}
		}
		if !matched {
			lit = append(lit, text[i])
			i++
		}
	}
	flush()
	return line
}

// expandMacro handles a macro call site: NAME(arg,...). It reports
// false when the word is not a known macro.
func (a *Assembler) expandMacro(l fstring) (bool, *Error) {
	name, rest := a.getSymbol(l)
	j := a.macroIndex(name)
	if j < 0 {
		return false, nil
	}
	mac := a.macros[j]

	var args []string
	rest = rest.consumeWhitespace()
	if rest.startsWithChar('(') {
		var err *Error
		args, _, err = a.scanMacroArgs(rest.consume(1))
		if err != nil {
			return true, err
		}
	}
	if len(args) != mac.Nargs {
		return true, errorf(Semantic, l,
			"Wrong # of arguments in [%s] called (%d) defined (%d)",
			name, len(args), mac.Nargs)
	}

	lines := make([]string, len(mac.Lines))
	for i, ml := range mac.Lines {
		lines[i] = ml.expand(args)
	}
	a.listLine()
	a.src.pushExpansion(lines)
	return true, nil
}

// containsFold reports a case-insensitive substring match.
func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToUpper(s), strings.ToUpper(sub))
}

// strEq compares two names under the current case mode.
func (a *Assembler) strEq(s1, s2 string) bool {
	if a.ignoreCase {
		return strings.EqualFold(s1, s2)
	}
	return s1 == s2
}
