// Package asm implements a multi-pass cross-assembler for the 6502
// processor family, covering the 45GS02 and 65816 extensions, with
// macros, conditional assembly, include files and branch
// optimization.
package asm

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m65tools/asm65/cpu"
	"github.com/m65tools/asm65/disasm"
)

const (
	defaultMaxPasses = 20
	defaultErrMax    = 10
	imageSize        = 0x10100 // 64 KiB plus one guard page
)

// Config carries the assembler options, normally populated from the
// command line.
type Config struct {
	CPU         cpu.CPU // initial target CPU; .CPU can change it
	IgnoreCase  bool    // -i: symbols are case insensitive
	BranchOpt   bool    // -b: automatic short/long branch selection
	SkipHex     bool    // -x: strip listing columns from the input
	LineNumbers bool    // -n: include line numbers in the listing
	BSOMode     bool    // VAX BSO compatibility (.src sources)
	FillByte    byte    // image fill value
	MaxPasses   int
	ErrMax      int
	Defines     []string  // -D name[=value] locked symbols
	Listing     io.Writer // listing output; nil discards
	Preprocess  io.Writer // preprocessed source; nil discards
	Debug       io.Writer // trace output; nil discards

	// AssembleFile creates the .pp and Debug.lst files when these
	// are set, pointing the writers above at them.
	WritePreprocess bool // -p
	WriteDebug      bool // -d
}

// Store describes one queued binary output region.
type Store struct {
	Start    int
	Length   int
	Filename string
}

const maxStores = 20

// A Result carries everything the final pass produced.
type Result struct {
	Image      []byte // the full 64 KiB image
	Start      int    // lowest assembled address
	End        int    // address after the last assembled byte
	LoadAddr   int    // address written by the .LOAD prefix
	WriteLA    bool   // .LOAD seen
	Stores     []Store
	Symbols    []*Symbol
	Macros     int
	Passes     int
	TotalLines int
	Changes    []int // label changes per pass
	Errors     []*Error
}

// The Assembler holds the entire mutable state of an assembly: the
// program counters, the symbol table, the include and conditional
// stacks, and the output image. beginPass resets the counters, scope
// and conditional state between passes; the symbol table, the macro
// store, the file cache, the image (which holds the frozen branch
// opcodes), the CPU and case mode and the load address survive.
type Assembler struct {
	cfg     Config
	cpuType cpu.CPU
	instSet *cpu.InstructionSet

	ignoreCase bool
	branchOpt  bool
	bsoMode    bool
	octalOK    bool

	pc  int // program counter; -1 before the first origin
	bss int // BSS reservation pointer
	bp  int // base page register

	image    [imageSize]byte
	loadAddr int
	writeLA  bool
	genStart int
	genEnd   int

	syms   *symtab
	macros []*Macro
	scope  string
	module int // pc at the start of the active module

	stores []Store

	src         *reader
	mainName    string
	mainLines   []string
	lineText    string
	lineNo      int
	totalLines  int
	curFile     string
	inExpansion bool

	pass      int
	maxPasses int
	finalPass bool
	freezePass bool
	changes   []int

	ifLevel  int
	skipLine [maxIfDepth]bool
	skipping bool

	curAttr    int
	listSuffix string
	forcedEnd  bool

	// Anonymous ':' labels, referenced with runs of '-' and '+'.
	// The previous pass's table resolves forward references.
	curAnons  []int
	prevAnons []int

	errs     []*Error
	errCount int
	errMax   int
}

// New creates an assembler for one source program.
func New(cfg Config) *Assembler {
	if cfg.CPU == 0 {
		cfg.CPU = cpu.CPU6502
	}
	if cfg.MaxPasses == 0 {
		cfg.MaxPasses = defaultMaxPasses
	}
	if cfg.ErrMax == 0 {
		cfg.ErrMax = defaultErrMax
	}
	a := &Assembler{
		cfg:        cfg,
		cpuType:    cfg.CPU,
		instSet:    cpu.GetInstructionSet(cfg.CPU),
		ignoreCase: cfg.IgnoreCase,
		branchOpt:  cfg.BranchOpt,
		bsoMode:    cfg.BSOMode,
		octalOK:    cfg.BSOMode,
		loadAddr:   undefined,
		genStart:   0x10000,
		syms:       newSymtab(),
		maxPasses:  cfg.MaxPasses,
		errMax:     cfg.ErrMax,
	}
	a.src = newReader(a)
	for i := range a.image {
		a.image[i] = cfg.FillByte
	}
	return a
}

// Define enters a locked symbol, as the -D option does. Locked
// symbols win every redefinition conflict.
func (a *Assembler) Define(name string, value int) {
	i := a.syms.intern(name, a.ignoreCase)
	s := a.syms.syms[i]
	s.Address = value
	s.Locked = true
	s.Refs = []Ref{{Line: 0, Attr: attrDef}}
}

// defineArg parses a -D style "name[=value]" string.
func (a *Assembler) defineArg(arg string) {
	name, val := arg, 1
	if i := strings.IndexByte(arg, '='); i >= 0 {
		name = arg[:i]
		v, _, err := a.evalOperand(newFstring("<cmdline>", 0, arg[i+1:]), 0)
		if err == nil && v != undefined {
			val = v
		}
	}
	a.Define(name, val)
}

// beginPass resets the per-pass state. The symbol table, macros and
// the file cache carry over.
func (a *Assembler) beginPass() {
	a.pc = -1
	a.bss = 0
	a.bp = 0
	a.forcedEnd = false
	a.scope = "Main"
	a.module = 0
	a.ifLevel = 0
	a.skipping = false
	a.lineNo = 0
	a.totalLines = 0
	a.curAttr = attrNone
	a.listSuffix = ""
	a.genEnd = 0
	a.prevAnons = a.curAnons
	a.curAnons = nil
}

// defineAnon records an anonymous ':' label at the current pc. Moving
// anonymous labels count as layout changes like named ones.
func (a *Assembler) defineAnon(l fstring) *Error {
	i := len(a.curAnons)
	a.curAnons = append(a.curAnons, a.pc)
	if i < len(a.prevAnons) && a.prevAnons[i] != a.pc {
		if a.finalPass {
			return errorf(Convergence, l,
				"Phase error on anonymous label pass %d: %4.4x   pass %d: %4.4x",
				a.pass-1, a.prevAnons[i], a.pass, a.pc)
		}
		a.changes[a.pass-1]++
	}
	return nil
}

// Assemble runs the source through assembly passes until the symbol
// addresses converge, then performs the final pass that fills the
// image, writes the listing and queues the binary stores.
func (a *Assembler) Assemble(r io.Reader, name string) (*Result, error) {
	lines, err := loadLines(r)
	if err != nil {
		return nil, err
	}
	a.mainName, a.mainLines = name, lines

	for _, d := range a.cfg.Defines {
		a.defineArg(d)
	}

	// Passes run until one produces no label-address changes. The
	// pass after that freezes the branch-opcode choices into the
	// image, and the one after it is final. Freezing any earlier
	// would scatter opcode bytes at addresses that may still move.
	finalNext, freezeNext := false, false
	var fatal *Error
	for a.pass = 1; a.pass <= a.maxPasses; a.pass++ {
		a.finalPass = finalNext
		a.freezePass = freezeNext && !finalNext
		a.changes = append(a.changes, 0)

		fatal = a.runPass()
		if fatal != nil {
			a.errs = append(a.errs, fatal)
			break
		}
		if a.finalPass {
			break
		}
		if a.ifLevel != 0 {
			fatal = errorf(Syntax, newFstring(a.mainName, a.lineNo, ""),
				"%d #endif statements are missing", a.ifLevel)
			a.errs = append(a.errs, fatal)
			break
		}
		switch {
		case a.freezePass:
			finalNext = true
		case (a.changes[a.pass-1] == 0 && a.pass >= 2) || a.pass >= a.maxPasses-2:
			freezeNext = true
		}
	}

	if a.finalPass && fatal == nil {
		a.writeSymbolReport()
	}

	res := &Result{
		Image:      a.image[:0x10000],
		Start:      a.genStart,
		End:        a.genEnd,
		LoadAddr:   a.loadAddr,
		WriteLA:    a.writeLA,
		Stores:     a.stores,
		Symbols:    a.syms.syms,
		Macros:     len(a.macros),
		Passes:     a.pass,
		TotalLines: a.totalLines,
		Changes:    a.changes,
		Errors:     a.errs,
	}
	if fatal != nil {
		return res, fatal
	}
	if a.errCount > 0 {
		return res, fmt.Errorf("%d errors occured", a.errCount)
	}
	return res, nil
}

// runPass streams every source line through the pipeline once.
func (a *Assembler) runPass() *Error {
	a.beginPass()
	a.src.begin(a.mainName, a.mainLines)
	a.debugf("===== pass %d =====", a.pass)

	for {
		line, ok := a.src.nextLine()
		if !ok {
			break
		}
		if a.cfg.SkipHex {
			line = newFstring(line.src, line.row, stripHexColumns(line.full))
		}
		a.lineText = line.full
		a.curAttr = attrNone

		if err := a.parseLine(line); err != nil {
			switch err.Kind {
			case Resource, Convergence, User:
				return err
			default:
				if a.pass == 1 || a.finalPass {
					return err
				}
				// Errors from unresolved state in intermediate
				// passes resolve themselves or return on the final
				// pass.
			}
		}
		if a.finalPass && a.genEnd < a.pc {
			a.genEnd = a.pc
		}
		if a.errCount >= a.errMax {
			return errorf(Resource, line, "Error count reached maximum of %d", a.errCount)
		}
	}
	return nil
}

// parseLine assembles one source line: preprocessor, macros, labels,
// pseudo-ops, instructions.
func (a *Assembler) parseLine(raw fstring) *Error {
	cp := raw.consumeWhitespace()

	isCond, err := a.checkCondition(cp)
	if err != nil {
		return err
	}
	if isCond {
		return nil
	}
	if a.skipping {
		a.listSkip()
		return nil
	}

	if a.cfg.Preprocess != nil && a.finalPass && !a.inExpansion {
		fmt.Fprintf(a.cfg.Preprocess, "%s\n", raw.full)
	}

	// Comment and empty lines. A leading asterisk is a comment unless
	// it sets the program counter.
	if cp.isEmpty() || cp.startsWithChar(';') {
		a.listComment(cp)
		return nil
	}
	if cp.startsWithChar('*') && !cp.consume(1).consumeWhitespace().startsWithChar('=') {
		a.listComment(cp)
		return nil
	}

	cp = cp.stripComment().trimRight()
	a.debugf("pass %d: %s", a.pass, cp.str)

	if cp.startsWithFold("!ADDR ") {
		cp = cp.consume(6).consumeWhitespace()
	}
	switch {
	case cp.startsWithFold("MODULE") && wordEnd(cp, 6):
		return a.parseModule(cp.consume(6))
	case cp.startsWithFold("ENDMOD") && wordEnd(cp, 6):
		return a.parseEndMod()
	case cp.startsWithFold("MACRO") && wordEnd(cp, 5):
		return a.recordMacro(cp.consume(5))
	}

	// A bare colon is an anonymous label; code may follow on the same
	// line.
	if cp.startsWithChar(':') {
		if err := a.defineAnon(cp); err != nil {
			return err
		}
		cp = cp.consume(1).consumeWhitespace()
		if cp.isEmpty() {
			a.listAddrLine(a.pc & 0xffff)
			return nil
		}
	}

	// A line starting with a name is an instruction, a macro call, or
	// a label definition.
	if cp.startsWith(alpha) || cp.startsWithChar('_') || isBSOLocal(cp) {
		word, rest := cp.consumeWhile(symChar)
		// A colon right after the word forces the label reading.
		if !rest.startsWithChar(':') {
			done, err := a.tryInstruction(word, rest)
			if done || err != nil {
				return err
			}
		}
		done, err := a.expandMacro(cp)
		if done || err != nil {
			return err
		}
		cp, err = a.defineLabel(cp)
		if err != nil {
			return err
		}
		cp = cp.consumeWhitespace()
		if cp.isEmpty() {
			return nil
		}
		// A macro definition or call may follow a label.
		if cp.startsWithFold("MACRO") && wordEnd(cp, 5) {
			return a.recordMacro(cp.consume(5))
		}
		done, err = a.expandMacro(cp)
		if done || err != nil {
			return err
		}
	}

	switch {
	case cp.isEmpty():
		return nil
	case cp.startsWithChar('*'):
		return a.parseSetPC(cp)
	case cp.startsWithChar('&'):
		return a.parseSetBSS(cp)
	case cp.startsWithChar('.'):
		return a.dispatchPseudoOp(cp.consume(1))
	case cp.startsWithChar('!'):
		return a.dispatchPseudoOp(cp.consume(1))
	case cp.startsWithChar(','):
		return errorf(Syntax, cp, "Syntax Error")
	}

	// An instruction may follow a label.
	word, rest := cp.consumeWhile(symChar)
	done, err := a.tryInstruction(word, rest)
	if err != nil {
		return err
	}
	if !done {
		return errorf(Syntax, word, "Unknown mnemonic or directive <%s>", word.str)
	}
	return nil
}

// parseSetPC handles the *= form of the origin directive.
func (a *Assembler) parseSetPC(l fstring) *Error {
	_, rest := l.consumeUntilChar('=')
	if rest.isEmpty() {
		return errorf(Syntax, l, "Missing '=' in set pc * instruction")
	}
	a.listPCLine()
	v, _, err := a.evalOperand(rest.consume(1), 0)
	if err != nil {
		return err
	}
	a.debugf("PC = %4.4x", v)
	return a.setPC(l, v)
}

// parseSetBSS handles &= and moves the BSS pointer.
func (a *Assembler) parseSetBSS(l fstring) *Error {
	_, rest := l.consumeUntilChar('=')
	if rest.isEmpty() {
		return errorf(Syntax, l, "Missing '=' in set BSS & instruction")
	}
	v, _, err := a.evalOperand(rest.consume(1), 0)
	if err != nil {
		return err
	}
	if v == undefined || v < 0 || v > 0xffff {
		return errorf(Range, l, "Illegal BSS address")
	}
	a.bss = v
	a.debugf("BSS = %4.4x", v)
	a.listAddrLine(a.bss)
	return nil
}

// parseModule opens a named scope. The module name also becomes a
// position label.
func (a *Assembler) parseModule(l fstring) *Error {
	l = l.consumeWhitespace()
	name, _ := a.getSymbol(l)
	if name == "" {
		return errorf(Syntax, l, "Missing module name")
	}
	if err := a.define(l, name, defPosition, a.pc); err != nil {
		return err
	}
	a.scope = name
	a.module = a.pc
	a.debugf("SCOPE: [%s]", name)
	a.listLine()
	return nil
}

// parseEndMod closes the module scope and lists its size.
func (a *Assembler) parseEndMod() *Error {
	a.listSizeInfo()
	a.scope = ""
	a.module = 0
	return nil
}

// defineLabel handles a label at the start of a line: NAME = expr,
// NAME .BSS n, or a bare position label.
func (a *Assembler) defineLabel(l fstring) (fstring, *Error) {
	name, rest := a.getSymbol(l)
	if a.syms.len() >= maxSymbols && a.syms.lookup(name, a.ignoreCase) < 0 {
		return l, errorf(Resource, l, "Too many labels (> %d)", maxSymbols)
	}

	// In BSO mode an unindented plain label opens a scope.
	if a.bsoMode && alpha(l.str[0]) && l.column == 0 {
		a.scope = name
		a.module = a.pc
	}

	if rest.startsWithChar(':') {
		rest = rest.consume(1)
	}
	rest = rest.consumeWhitespace()

	switch {
	case rest.startsWithChar('=') && !rest.startsWithString("=="):
		v, after, err := a.evalOperand(rest.consume(1), 0)
		if err != nil {
			return after, err
		}
		if err := a.define(l, name, defAssign, v); err != nil {
			return after, err
		}
		a.listAddrLine(v & 0xffff)
		return fstring{}, nil

	case rest.startsWithFold(".BSS") && wordEnd(rest, 4):
		n, after, err := a.evalOperand(rest.consume(4), 0)
		if err != nil {
			return after, err
		}
		if err := a.define(l, name, defBSS, a.bss); err != nil {
			return after, err
		}
		a.listAddrLine(a.bss)
		if n != undefined {
			a.bss += n
		}
		return fstring{}, nil

	default:
		if err := a.define(l, name, defPosition, a.pc); err != nil {
			return rest, err
		}
		if rest.isEmpty() {
			a.listAddrLine(a.pc & 0xffff)
		}
		return rest, nil
	}
}

// define enters a symbol definition under the phase-error policy: a
// first-pass conflict between position labels is fatal, any other
// change before the final pass counts
// toward convergence, and a final-pass change means the layout never
// settled.
func (a *Assembler) define(l fstring, name string, mode defineMode, v int) *Error {
	i := a.internSym(name)
	s := a.syms.syms[i]

	attr := attrDef
	switch mode {
	case defBSS:
		attr = attrBSS
	case defPosition:
		attr = attrPos
	}
	s.Refs[0] = Ref{Line: a.lineNo, Attr: attr}

	switch {
	case s.Locked:
		return nil
	case s.Address == undefined:
		s.Address = v
	case s.Address != v && mode == defPosition && a.pass == 1:
		return errorf(Semantic, l,
			"Multiple label definition [%s] value 1: %4.4x   value 2: %4.4x",
			name, s.Address, v)
	case s.Address != v && !a.finalPass:
		a.debugf("change %d: %4.4x -> %4.4x %s", a.pass, s.Address, v, name)
		s.Address = v
		a.changes[a.pass-1]++
	case s.Address != v && mode == defPosition:
		return errorf(Convergence, l,
			"Phase error label [%s] pass %d: %4.4x   pass %d: %4.4x",
			name, a.pass-1, s.Address, a.pass, v)
	case s.Address != v:
		return errorf(Semantic, l,
			"Multiple assignments for label [%s] 1st. value = $%4.4x   2nd. value = $%4.4x",
			name, s.Address, v)
	}
	a.debugf("P%d: {%s}=$%4.4x", a.pass, name, s.Address)
	return nil
}

// internSym interns a symbol, reserving the head of its reference
// list for the definition entry.
func (a *Assembler) internSym(name string) int {
	if i := a.syms.lookup(name, a.ignoreCase); i >= 0 {
		return i
	}
	i := a.syms.intern(name, a.ignoreCase)
	a.syms.syms[i].Refs = []Ref{{Line: a.lineNo, Attr: attrNone}}
	return i
}

// addError records a non-fatal error and keeps assembling.
func (a *Assembler) addError(e *Error) {
	a.errs = append(a.errs, e)
	a.errCount++
	fmt.Print(e.Display())
	if a.cfg.Listing != nil && a.finalPass {
		fmt.Fprint(a.cfg.Listing, e.Display())
	}
}

// debugf writes a line to the trace sink.
func (a *Assembler) debugf(format string, args ...any) {
	if a.cfg.Debug != nil {
		fmt.Fprintf(a.cfg.Debug, format+"\n", args...)
	}
}

// AssembleFile assembles path and writes the listing and preprocessed
// outputs next to it; binary outputs go to the file names given by
// .STORE, taken as they are. A source with the .src extension
// turns on the BSO compatibility dialect.
func AssembleFile(path string, cfg Config, out io.Writer) (*Result, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".asm"
		path += ext
	}
	if strings.EqualFold(ext, ".src") {
		cfg.BSOMode = true
		cfg.CPU = cpu.CPU45GS02
		cfg.BranchOpt = true
		cfg.IgnoreCase = true
		cfg.FillByte = 0xff
	}
	prefix := path[:len(path)-len(ext)]

	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Could not open <%s>", path)
	}
	defer src.Close()

	lst, err := os.Create(prefix + ".lst")
	if err != nil {
		return nil, err
	}
	defer lst.Close()
	cfg.Listing = lst

	if cfg.WritePreprocess {
		pp, err := os.Create(prefix + ".pp")
		if err != nil {
			return nil, err
		}
		defer pp.Close()
		cfg.Preprocess = pp
	}
	if cfg.WriteDebug {
		df, err := os.Create("Debug.lst")
		if err != nil {
			return nil, err
		}
		defer df.Close()
		cfg.Debug = df
	}

	a := New(cfg)
	res, aerr := a.Assemble(src, filepath.Base(path))
	if aerr != nil {
		if e, ok := aerr.(*Error); ok {
			fmt.Fprint(out, e.Display())
		}
		return res, aerr
	}
	if cfg.Debug != nil && res.End > res.Start {
		fmt.Fprintf(cfg.Debug, "\nGenerated code %4.4x - %4.4x\n", res.Start, res.End-1)
		for _, dl := range disasm.DumpRange(a.instSet, res.Image, res.Start, res.End) {
			fmt.Fprintln(cfg.Debug, dl)
		}
	}
	if err := res.WriteBinaries(); err != nil {
		return res, err
	}
	return res, nil
}
