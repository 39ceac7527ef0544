package asm

import (
	"fmt"
	"io"
	"os"
	"sort"
)

// The listing writer emits one line per source line in the final
// pass: [LINE] ADDR BYTES SOURCE. All methods are no-ops on earlier
// passes or when no listing sink is set.

func (a *Assembler) listingOn() bool {
	return a.finalPass && a.cfg.Listing != nil
}

func (a *Assembler) listLineNo() {
	if a.cfg.LineNumbers {
		fmt.Fprintf(a.cfg.Listing, "%5d ", a.lineNo)
	}
}

// listCode lists a line that emitted bytes at an address. Up to three
// bytes are shown; longer data blocks continue silently.
func (a *Assembler) listCode(addr int, b []byte) {
	if !a.listingOn() {
		return
	}
	a.listLineNo()
	fmt.Fprintf(a.cfg.Listing, "%4.4x", addr)
	for i := 0; i < 3; i++ {
		if i < len(b) {
			fmt.Fprintf(a.cfg.Listing, " %2.2x", b[i])
		} else {
			fmt.Fprint(a.cfg.Listing, "   ")
		}
	}
	fmt.Fprintf(a.cfg.Listing, " %s%s\n", a.lineText, a.listSuffix)
	a.listSuffix = ""
}

// listLine lists a source line with no address or bytes.
func (a *Assembler) listLine() {
	if !a.listingOn() {
		return
	}
	a.listLineNo()
	fmt.Fprintf(a.cfg.Listing, "              %s\n", a.lineText)
}

// listPCLine lists a line annotated with the current program counter.
func (a *Assembler) listPCLine() {
	if !a.listingOn() {
		return
	}
	a.listLineNo()
	fmt.Fprintf(a.cfg.Listing, "%4.4x          %s\n", a.pc&0xffff, a.lineText)
}

// listAddrLine lists a line annotated with an arbitrary address, used
// for label definitions and BSS reservations.
func (a *Assembler) listAddrLine(addr int) {
	if !a.listingOn() {
		return
	}
	a.listLineNo()
	fmt.Fprintf(a.cfg.Listing, "%4.4x          %s\n", addr&0xffff, a.lineText)
}

func (a *Assembler) listComment(l fstring) {
	if !a.listingOn() {
		return
	}
	if l.isEmpty() {
		fmt.Fprintln(a.cfg.Listing)
		return
	}
	a.listLine()
}

func (a *Assembler) listSkip() {
	if !a.listingOn() {
		return
	}
	a.listLineNo()
	fmt.Fprintf(a.cfg.Listing, "SKIP          %s\n", a.lineText)
}

func (a *Assembler) listCondition(skip bool) {
	if !a.listingOn() {
		return
	}
	a.listLineNo()
	if skip {
		fmt.Fprintf(a.cfg.Listing, "0001 FALSE    %s\n", a.lineText)
	} else {
		fmt.Fprintf(a.cfg.Listing, "0000 TRUE     %s\n", a.lineText)
	}
}

// listSizeInfo annotates the line with the size of the enclosing
// module.
func (a *Assembler) listSizeInfo() {
	if !a.listingOn() {
		return
	}
	a.listLineNo()
	fmt.Fprintf(a.cfg.Listing, "%4.4x          %s", a.pc&0xffff, a.lineText)
	size := a.pc - a.module
	fmt.Fprintf(a.cfg.Listing, " [%s] Size = %d [$%x]\n", a.scope, size, size)
}

func (a *Assembler) listMacroLine(text string) {
	if !a.listingOn() {
		return
	}
	a.listLineNo()
	fmt.Fprintf(a.cfg.Listing, "              %s\n", text)
}

func (a *Assembler) listIncludeClosed(name string) {
	if !a.listingOn() {
		return
	}
	fmt.Fprintf(a.cfg.Listing, ";                       closed INCLUDE file %s\n", name)
}

// writeSymbolReport appends the cross-reference tables to the
// listing: every symbol sorted by address, then the most referenced
// zero-page symbols, then the most referenced symbols of the first
// 16 KiB. Undefined symbols go to standard output.
func (a *Assembler) writeSymbolReport() {
	for _, s := range a.syms.syms {
		if s.Address == undefined {
			fmt.Fprintf(os.Stdout, "* Undefined   : %-25.25s *\n", s.Name)
		}
	}
	if a.cfg.Listing == nil {
		return
	}
	lf := a.cfg.Listing

	a.syms.pairSymbols()

	byAddr := make([]*Symbol, len(a.syms.syms))
	copy(byAddr, a.syms.syms)
	sort.SliceStable(byAddr, func(i, j int) bool {
		return byAddr[i].Address < byAddr[j].Address
	})

	fmt.Fprintf(lf, "\n\n%5d Symbols\n", len(byAddr))
	fmt.Fprintf(lf, "-------------\n")
	listSymbols(lf, byAddr, 0, 0xffff)

	byRefs := make([]*Symbol, len(byAddr))
	copy(byRefs, byAddr)
	sort.SliceStable(byRefs, func(i, j int) bool {
		ri, rj := len(byRefs[i].Refs), len(byRefs[j].Refs)
		if ri == rj {
			return byRefs[i].Address > byRefs[j].Address
		}
		return ri > rj
	})
	listSymbols(lf, byRefs, 0, 0xff)
	listSymbols(lf, byRefs, 0, 0x4000)
}

// listSymbols prints the reference table of all symbols within an
// address window, five references per line, each annotated with the
// definition or indexing attribute.
func listSymbols(lf io.Writer, syms []*Symbol, lb, ub int) {
	for _, s := range syms {
		if s.Paired || s.Address < lb || s.Address > ub {
			continue
		}
		fmt.Fprintf(lf, "%-30.30s $%4.4x", s.Name, s.Address)
		for j, r := range s.Refs {
			if j > 0 && j%5 == 0 {
				fmt.Fprintf(lf, "\n                                    ")
			}
			fmt.Fprintf(lf, "%6d", r.Line)
			if c := attrLetter(r.Attr); (c != ' ' || j%5 != 4) && j != len(s.Refs)-1 {
				fmt.Fprintf(lf, "%c", c)
			}
		}
		fmt.Fprintln(lf)
	}
}
