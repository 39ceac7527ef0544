package asm

import (
	"strings"

	"github.com/m65tools/asm65/cpu"
)

// Reference attributes. Values below attrNone are addressing modes
// (cpu.Mode); attrNone marks a reference without one, and the def
// attributes mark the definition entry that heads every reference
// list.
const (
	attrNone = 90 + iota
	attrDef  // NAME = expr
	attrBSS  // NAME .BSS n
	attrPos  // label at current pc
)

// A Ref records one mention of a symbol: the source line and either
// the addressing mode of the reference or a definition attribute.
type Ref struct {
	Line int
	Attr int
}

// A Symbol is a named label or constant. The first entry of Refs is
// the definition site; Address stays undefined until a pass resolves
// it.
type Symbol struct {
	Name    string
	Address int
	Bytes   int  // byte span of an attached data object
	Locked  bool // defined on the command line; immune to redefinition
	Paired  bool // merged with the symbol at Address+1 for display
	Refs    []Ref
}

// defineMode selects the conflict policy of a symbol definition.
type defineMode int

const (
	defAssign   defineMode = iota // NAME = expr
	defBSS                        // NAME .BSS n
	defPosition                   // bare label
)

// symtab interns symbols. Lookup honors the current case-sensitivity
// mode, which can change mid-source, so both exact and folded indexes
// are maintained.
type symtab struct {
	syms   []*Symbol
	exact  map[string]int
	folded map[string][]int
}

const maxSymbols = 8000

func newSymtab() *symtab {
	return &symtab{
		exact:  make(map[string]int),
		folded: make(map[string][]int),
	}
}

func (t *symtab) len() int {
	return len(t.syms)
}

// lookup returns the symbol index for a name, or -1.
func (t *symtab) lookup(name string, ignoreCase bool) int {
	if !ignoreCase {
		if i, ok := t.exact[name]; ok {
			return i
		}
		return -1
	}
	if ix := t.folded[strings.ToLower(name)]; len(ix) > 0 {
		return ix[0]
	}
	return -1
}

// intern returns the index of name, creating an undefined symbol on
// first mention.
func (t *symtab) intern(name string, ignoreCase bool) int {
	if i := t.lookup(name, ignoreCase); i >= 0 {
		return i
	}
	i := len(t.syms)
	t.syms = append(t.syms, &Symbol{Name: name, Address: undefined, Bytes: 0})
	t.exact[name] = i
	low := strings.ToLower(name)
	t.folded[low] = append(t.folded[low], i)
	return i
}

// setSpan records the byte span of a data object on every symbol
// defined at the given address.
func (t *symtab) setSpan(addr, n int) {
	for _, s := range t.syms {
		if s.Address == addr {
			s.Bytes = n
		}
	}
}

// attrLetter is the annotation printed after a reference line number
// in the cross-reference listing.
func attrLetter(attr int) byte {
	switch {
	case attr == attrDef || attr == attrBSS || attr == attrPos:
		return 'D'
	case attr == int(cpu.IDX):
		return 'x'
	case attr == int(cpu.IDY):
		return 'y'
	default:
		return ' '
	}
}

// pairSymbols merges each zero-page symbol referenced via (dp),Y with
// its successor at the next address, so pointer pairs list as LO/HI.
func (t *symtab) pairSymbols() {
	for i := 0; i < len(t.syms)-1; i++ {
		s, next := t.syms[i], t.syms[i+1]
		if s.Address >= 0xff || next.Address != s.Address+1 {
			continue
		}
		indy := false
		for _, r := range s.Refs {
			if r.Attr == int(cpu.IDY) {
				indy = true
				break
			}
		}
		if indy {
			s.Name = s.Name + "/" + next.Name
			s.Refs = append(s.Refs, next.Refs...)
			next.Paired = true
		}
	}
}
