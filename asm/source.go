package asm

import (
	"bufio"
	"io"
	"os"
	"strings"
)

const maxIncludeDepth = 100

// A sourceFrame is one level of the include stack: a file being read
// line by line, or a macro expansion replaying its body. Expansion
// frames are virtual: their lines do not consume line numbers.
type sourceFrame struct {
	name    string
	lines   []string
	index   int
	line    int // current line number within the file
	virtual bool
}

// The reader streams source lines through the include stack. Files
// are loaded once and cached, so each pass replays them from memory
// and no file handles stay open between passes.
type reader struct {
	a     *Assembler
	stack []*sourceFrame
	cache map[string][]string
}

func newReader(a *Assembler) *reader {
	return &reader{a: a, cache: make(map[string][]string)}
}

// loadLines splits an input stream into lines, dropping CR.
func loadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	return lines, scanner.Err()
}

// open loads a file through the cache.
func (r *reader) open(name string) ([]string, error) {
	if lines, ok := r.cache[name]; ok {
		return lines, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lines, err := loadLines(f)
	if err != nil {
		return nil, err
	}
	r.cache[name] = lines
	return lines, nil
}

// begin starts a pass over the main source.
func (r *reader) begin(name string, lines []string) {
	r.stack = r.stack[:0]
	r.stack = append(r.stack, &sourceFrame{name: name, lines: lines})
}

func (r *reader) push(name string, lines []string) {
	r.stack = append(r.stack, &sourceFrame{name: name, lines: lines})
}

func (r *reader) pushExpansion(lines []string) {
	f := &sourceFrame{name: r.a.curFile, lines: lines, virtual: true}
	r.stack = append(r.stack, f)
}

// depth counts the real include levels.
func (r *reader) depth() int {
	n := 0
	for _, f := range r.stack {
		if !f.virtual {
			n++
		}
	}
	return n
}

// position reports the file and line of the innermost real source
// frame, which is what errors and symbol references refer to.
func (r *reader) position() (string, int) {
	for i := len(r.stack) - 1; i >= 0; i-- {
		if !r.stack[i].virtual {
			return r.stack[i].name, r.stack[i].line
		}
	}
	return "", 0
}

// nextLine returns the next source line to assemble, popping
// exhausted frames. Lines from expansion frames keep the caller's
// line number.
func (r *reader) nextLine() (fstring, bool) {
	for len(r.stack) > 0 {
		f := r.stack[len(r.stack)-1]

		if r.a.forcedEnd {
			// .END finishes the current file but not its includers.
			for len(r.stack) > 0 {
				top := r.stack[len(r.stack)-1]
				r.stack = r.stack[:len(r.stack)-1]
				if !top.virtual {
					break
				}
			}
			r.a.forcedEnd = false
			continue
		}

		if f.index >= len(f.lines) {
			r.stack = r.stack[:len(r.stack)-1]
			if !f.virtual && len(r.stack) > 0 {
				r.a.listIncludeClosed(f.name)
			}
			continue
		}

		text := f.lines[f.index]
		f.index++
		if !f.virtual {
			f.line++
			r.a.totalLines++
		}
		name, line := r.position()
		r.a.curFile, r.a.lineNo = name, line
		r.a.inExpansion = f.virtual
		return newFstring(name, line, text), true
	}
	return fstring{}, false
}

// rawLine reads the next line of the current frame without
// assembling it. Macro capture consumes its body this way.
func (r *reader) rawLine() (string, bool) {
	if len(r.stack) == 0 {
		return "", false
	}
	f := r.stack[len(r.stack)-1]
	if f.index >= len(f.lines) {
		return "", false
	}
	text := f.lines[f.index]
	f.index++
	if !f.virtual {
		f.line++
		r.a.totalLines++
		r.a.lineNo = f.line
	}
	return text, true
}

// parseInclude handles .INCLUDE "file" and the BSO !SRC form.
func (a *Assembler) parseInclude(l fstring) *Error {
	_, rest := l.consumeUntilChar('"')
	if rest.isEmpty() {
		return errorf(Syntax, l, "Missing quoted filename after .INCLUDE")
	}
	name, rest := rest.consume(1).consumeUntilChar('"')
	if rest.isEmpty() {
		return errorf(Syntax, l, "Missing quoted filename after .INCLUDE")
	}
	if a.src.depth() >= maxIncludeDepth {
		return errorf(Resource, l, "Too many includes nested ( >= %d)", maxIncludeDepth)
	}
	lines, err := a.src.open(name.str)
	if err != nil {
		return errorf(Resource, l, "Could not open include file <%s>", name.str)
	}
	a.listLine()
	a.src.push(name.str, lines)
	return nil
}

// stripHexColumns removes the address and byte columns of a
// previously produced listing, so a listing can be reassembled.
func stripHexColumns(text string) string {
	if len(text) > 20 && text[0] != ';' &&
		decimal(text[4]) && whitespace(text[5]) &&
		isHex4(text[6:]) {
		return text[20:]
	}
	return text
}

func isHex4(s string) bool {
	return len(s) >= 4 &&
		hexadecimal(s[0]) && hexadecimal(s[1]) &&
		hexadecimal(s[2]) && hexadecimal(s[3])
}
