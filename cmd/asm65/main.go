package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/m65tools/asm65/asm"
)

var (
	skipHex    bool
	debug      bool
	ignoreCase bool
	lineNos    bool
	preprocess bool
	branchOpt  bool
	defines    defineList
)

type defineList []string

func (d *defineList) String() string { return fmt.Sprint(*d) }

func (d *defineList) Set(v string) error {
	*d = append(*d, v)
	return nil
}

func init() {
	flag.BoolVar(&skipHex, "x", false, "assemble listing file - skip hex in front")
	flag.BoolVar(&debug, "d", false, "print details in file <Debug.lst>")
	flag.BoolVar(&ignoreCase, "i", false, "ignore case in symbols")
	flag.BoolVar(&lineNos, "n", false, "include line numbers in listing")
	flag.BoolVar(&preprocess, "p", false, "print preprocessed source")
	flag.BoolVar(&branchOpt, "b", false, "optimize branches")
	flag.Var(&defines, "D", "define symbol (name[=value])")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: asm65 [-d -D -i -n -p -b -x] <source>\nThe listing is always written beside the source as <name>.lst.\nOptions:")
		flag.PrintDefaults()
	}
}

func stat(b bool) string {
	if b {
		return "On "
	}
	return "Off"
}

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Println("*** missing filename for assembler source file ***")
		flag.CommandLine.Usage()
		os.Exit(1)
	}
	src := flag.Arg(0)

	cfg := asm.Config{
		SkipHex:         skipHex,
		IgnoreCase:      ignoreCase,
		LineNumbers:     lineNos,
		BranchOpt:       branchOpt,
		Defines:         defines,
		WritePreprocess: preprocess,
		WriteDebug:      debug,
	}

	fmt.Println()
	fmt.Println("*******************************************")
	fmt.Println("* asm65 - 6502 family cross assembler     *")
	fmt.Println("* --------------------------------------- *")
	fmt.Printf("* Source: %-31.31s *\n", src)
	fmt.Printf("* -d:%s     -i:%s     -n:%s     -x:%s *\n",
		stat(debug), stat(ignoreCase), stat(lineNos), stat(skipHex))
	fmt.Println("*******************************************")

	res, err := asm.AssembleFile(src, cfg, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("* Source Lines: %6d                    *\n", res.TotalLines)
	fmt.Printf("* Symbols     : %6d                    *\n", len(res.Symbols))
	fmt.Printf("* Macros      : %6d                    *\n", res.Macros)
	for i, n := range res.Changes {
		if n > 0 {
			fmt.Printf("* Pass     %3d: %6d label changes      *\n", i+1, n)
		}
	}
	fmt.Println("*******************************************")
	if n := len(res.Errors); n > 0 {
		fmt.Printf("* %3d error%s occured                      *\n", n, plural(n))
		fmt.Println("*******************************************")
		os.Exit(1)
	}
	fmt.Println("* OK, no errors                           *")
	fmt.Println("*******************************************")
}

func plural(n int) string {
	if n == 1 {
		return " "
	}
	return "s"
}
