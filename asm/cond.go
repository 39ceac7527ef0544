package asm

const maxIfDepth = 10

// checkCondition handles the # preprocessor directives. It reports
// true when the line was one, whether or not it changed the skip
// state.
func (a *Assembler) checkCondition(l fstring) (bool, *Error) {
	if !l.startsWithChar('#') {
		return false, nil
	}
	p := l.consume(1).consumeWhitespace()

	switch {
	case p.startsWithFold("error"):
		// Raised once, in the first pass, unless the block is being
		// skipped anyway.
		if a.pass != 1 {
			return true, nil
		}
		a.checkSkip()
		if a.skipping {
			return true, nil
		}
		return true, errorf(User, l, "%s", p.consume(5).consumeWhitespace().str)

	case p.startsWithFold("ifdef") && wordEnd(p, 5):
		v, _, err := a.evalOperand(p.consume(5), 0)
		if err != nil {
			return true, err
		}
		return true, a.pushCondition(l, v == undefined)

	case p.startsWithFold("if") && wordEnd(p, 2):
		v, _, err := a.evalOperand(p.consume(2), 0)
		if err != nil {
			return true, err
		}
		return true, a.pushCondition(l, v == undefined || v == 0)

	case p.startsWithFold("else") && wordEnd(p, 4):
		a.skipLine[a.ifLevel] = !a.skipLine[a.ifLevel]
		a.checkSkip()
		a.listLine()
		return true, nil

	case p.startsWithFold("endif") && wordEnd(p, 5):
		a.ifLevel--
		a.listLine()
		if a.ifLevel < 0 {
			return true, errorf(Syntax, l, "endif without if")
		}
		a.checkSkip()
		return true, nil
	}
	return false, nil
}

func wordEnd(l fstring, n int) bool {
	return len(l.str) == n || whitespace(l.str[n])
}

func (a *Assembler) pushCondition(l fstring, skip bool) *Error {
	a.ifLevel++
	if a.ifLevel >= maxIfDepth {
		return errorf(Resource, l, "More than %d #IF or #IFDEF conditions nested", maxIfDepth-1)
	}
	a.skipLine[a.ifLevel] = skip
	a.checkSkip()
	a.listCondition(skip)
	return nil
}

// checkSkip recomputes the skip state: a line is emitted only when no
// active conditional level skips it.
func (a *Assembler) checkSkip() {
	a.skipping = false
	for i := 1; i <= a.ifLevel; i++ {
		a.skipping = a.skipping || a.skipLine[i]
	}
}
