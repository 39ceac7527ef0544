package asm

import "fmt"

// Kind classifies an assembly error.
type Kind int

const (
	Syntax      Kind = iota // malformed tokens, missing delimiters
	Semantic                // undefined or conflicting symbols, illegal modes
	Resource                // files, nesting depths, table capacities
	Range                   // values that do not fit their encoding
	Convergence             // label addresses still changing on the final pass
	User                    // raised by the #error directive
)

var kindNames = []string{
	"syntax", "semantic", "resource", "range", "convergence", "user",
}

func (k Kind) String() string {
	return kindNames[k]
}

// An Error describes one assembly error with its source position. The
// column points at the offending character of the original line.
type Error struct {
	Kind   Kind
	File   string
	Line   int
	Column int
	Msg    string
	Text   string // full source line, used for the caret display
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error in %s line %d: %s", e.Kind, e.File, e.Line, e.Msg)
}

// Display renders the error the way it appears on the console and in
// the listing: the source line, a caret under the offending column,
// and the message.
func (e *Error) Display() string {
	s := fmt.Sprintf("\n*** Error in file %s line %d:\n", e.File, e.Line)
	if e.Text != "" && e.Column >= 0 && e.Column < 80 {
		s += e.Text + "\n"
		for i := 0; i < e.Column; i++ {
			s += " "
		}
		s += "^\n"
	}
	return s + e.Msg + "\n"
}

// errorf builds an error at the position of l.
func errorf(kind Kind, l fstring, format string, args ...any) *Error {
	return &Error{
		Kind:   kind,
		File:   l.src,
		Line:   l.row,
		Column: l.column,
		Msg:    fmt.Sprintf(format, args...),
		Text:   l.full,
	}
}
