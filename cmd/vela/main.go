package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/velalang/vela/internal/ast"
	"github.com/velalang/vela/internal/compiler"
	"github.com/velalang/vela/internal/config"
	"github.com/velalang/vela/internal/lexer"
	"github.com/velalang/vela/internal/parser"
	"github.com/velalang/vela/internal/stdlib"
	"github.com/velalang/vela/internal/vm"
)

var (
	showTokens   = flag.Bool("tokens", false, "Show lexer tokens")
	showAST      = flag.Bool("ast", false, "Show AST structure")
	showBytecode = flag.Bool("bytecode", false, "Show compiled bytecode")
	parseOnly    = flag.Bool("parse", false, "Parse only, don't run")
	configPath   = flag.String("config", "", "Path to a VM config TOML file")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Vela Programming Language")
		fmt.Println()
		fmt.Println("Usage: vela [options] <filename.vela>")
		fmt.Println()
		fmt.Println("Options:")
		fmt.Println("  -tokens     Show lexer tokens")
		fmt.Println("  -ast        Show AST structure")
		fmt.Println("  -bytecode   Show compiled bytecode")
		fmt.Println("  -parse      Parse only, don't run")
		fmt.Println("  -config     Path to a VM config TOML file")
		os.Exit(0)
	}

	filename := flag.Arg(0)
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(64)
	}

	if *showTokens {
		runTokens(string(source), filename)
		return
	}

	if *parseOnly || *showAST {
		runParse(string(source), filename)
		return
	}

	file, ok := parseFile(string(source), filename)
	if !ok {
		os.Exit(65)
	}

	comp := compiler.New()
	chunk := comp.Compile(file)
	if comp.HasErrors() {
		fmt.Println("Compile errors:")
		for _, e := range comp.Errors() {
			fmt.Printf("  %s\n", e)
		}
		os.Exit(65)
	}

	if *showBytecode {
		for i, line := range chunk.Code {
			fmt.Printf("%04d  %3d  (line %d)\n", i, line, chunk.Lines[i])
		}
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(64)
		}
		cfg = loaded
	}

	machine := vm.New(cfg)
	if err := stdlib.Install(machine); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(70)
	}
	if _, err := machine.Eval(chunk); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(70)
	}
}

func runTokens(source, filename string) {
	l := lexer.New(source, filename)
	tokens := l.ScanTokens()

	fmt.Println("=== Tokens ===")
	for _, tok := range tokens {
		fmt.Printf("  %s\n", tok)
	}
	fmt.Println()

	if l.HasErrors() {
		fmt.Println("Lexer errors:")
		for _, e := range l.Errors() {
			fmt.Printf("  %s\n", e)
		}
		os.Exit(65)
	}
}

func runParse(source, filename string) {
	file, ok := parseFile(source, filename)
	if !ok {
		os.Exit(65)
	}

	if *showAST {
		fmt.Println("=== AST ===")
		printAST(file)
	}

	fmt.Printf("Successfully parsed %s\n", filename)
	fmt.Printf("  Namespace: %s\n", getNamespace(file))
	fmt.Printf("  Uses: %d\n", len(file.Uses))
	fmt.Printf("  Declarations: %d\n", len(file.Declarations))
	fmt.Printf("  Statements: %d\n", len(file.Statements))
}

func parseFile(source, filename string) (*ast.File, bool) {
	p := parser.New(source, filename)
	file := p.Parse()

	if p.HasErrors() {
		fmt.Println("Parser errors:")
		for _, e := range p.Errors() {
			fmt.Printf("  %s\n", e)
		}
		return nil, false
	}
	return file, true
}

func getNamespace(file *ast.File) string {
	if file.Namespace != nil {
		return file.Namespace.Name
	}
	return "(default)"
}

func printAST(file *ast.File) {
	if file.Namespace != nil {
		fmt.Printf("  Namespace: %s\n", file.Namespace.Name)
	}

	for _, use := range file.Uses {
		if use.Alias != nil {
			fmt.Printf("  Use: %s as %s\n", use.Path, use.Alias.Name)
		} else {
			fmt.Printf("  Use: %s\n", use.Path)
		}
	}

	for _, decl := range file.Declarations {
		fmt.Printf("  Declaration: %s\n", decl.String())
	}

	for i, stmt := range file.Statements {
		fmt.Printf("  Statement[%d]: %s\n", i, stmt.String())
	}
}
