// Package interpreter fuses a small dynamic evaluator for the C-like binary
// template dialect with a layout engine: declaring a file-typed variable
// reads the byte stream, and the values produced fold into an entry forest
// describing the stream's structure.
package interpreter

import (
	"fmt"
	"os"

	"bt/interpreter-go/pkg/ast"
	"bt/interpreter-go/pkg/parser"
	"bt/interpreter-go/pkg/reader"
	"bt/interpreter-go/pkg/runtime"
	"bt/interpreter-go/pkg/template"
)

// State is the interpreter's status machine. A failing operation flips it to
// StateError; every recursive step observes the resulting error unwinding.
type State int

const (
	StateNone State = iota
	StateRunning
	StateError
)

// Hooks lets a host redirect output and observe entries as they finalize.
// Zero hooks reproduce the defaults: stdout printing, no entry callback.
type Hooks struct {
	Print        func(string)
	EntryCreated func(*template.Entry)
}

type builtinFunc func(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error)

// function is a registry slot: native handler or user-defined AST body.
// Function names live in their own namespace, apart from variables and types.
type function struct {
	native builtinFunc
	def    *ast.FunctionDefinition
}

// Interpreter drives evaluation of template AST nodes against a byte stream.
type Interpreter struct {
	io        reader.Reader
	global    *runtime.Environment
	types     *runtime.Registry
	functions map[string]*function
	colors    map[string]uint32

	body        []ast.Statement
	allocations []runtime.Value

	state State
	err   *Error

	fgColor uint32
	bgColor uint32

	// compositeDepth > 0 while materializing a struct or union body;
	// stream declarations made there belong to the composite, not the
	// ledger.
	compositeDepth int

	hooks Hooks
}

// New returns an interpreter bound to the given stream.
func New(r reader.Reader) *Interpreter {
	ip := &Interpreter{io: r}
	ip.reset()
	return ip
}

// reset rebuilds per-run state: scopes, type registry, ledger and colors.
// The accumulated AST survives so ReadIO can re-run it.
func (ip *Interpreter) reset() {
	ip.global = runtime.NewEnvironment(nil)
	ip.types = runtime.NewRegistry()
	ip.functions = make(map[string]*function)
	ip.colors = paletteColors()
	ip.allocations = nil
	ip.state = StateNone
	ip.err = nil
	ip.fgColor = template.ColorNone
	ip.bgColor = template.ColorNone
	ip.compositeDepth = 0
	ip.registerBuiltins()
}

// SetHooks installs host overrides for printing and entry observation.
func (ip *Interpreter) SetHooks(h Hooks) {
	ip.hooks = h
}

// State reports the status machine.
func (ip *Interpreter) State() State { return ip.state }

// Err returns the latched failure, nil while healthy.
func (ip *Interpreter) Err() *Error { return ip.err }

// Parse feeds source text through the lexer+parser and accumulates the AST.
// A parse failure latches the Error state.
func (ip *Interpreter) Parse(source string) error {
	tmpl, err := parser.Parse(source)
	if err != nil {
		ip.state = StateError
		ip.err = newError(ErrSyntax, "%s", err.Error())
		return ip.err
	}
	ip.body = append(ip.body, tmpl.Body...)
	return nil
}

// LoadAST accumulates an externally produced template AST.
func (ip *Interpreter) LoadAST(tmpl *ast.Template) {
	ip.body = append(ip.body, tmpl.Body...)
}

// Run interprets the accumulated AST against the bound stream. On failure
// the Error state latches and the error is returned.
func (ip *Interpreter) Run() error {
	if ip.io == nil {
		ip.state = StateError
		ip.err = newError(ErrType, "no stream bound")
		return ip.err
	}
	ip.state = StateRunning
	for _, stmt := range ip.body {
		if ip.state == StateError {
			break
		}
		if _, err := ip.evaluateStatement(stmt, ip.global); err != nil {
			switch err.(type) {
			case breakSignal, continueSignal, returnSignal:
				err = ip.errAt(ErrType, "%s", err.Error())
			}
			ip.state = StateError
			ip.err = ip.classify(err)
			return ip.err
		}
	}
	ip.state = StateNone
	return nil
}

// ReadIO rebinds the stream, clears the prior run's ledger and scopes, and
// re-runs interpretation over the accumulated AST.
func (ip *Interpreter) ReadIO(r reader.Reader) bool {
	ip.reset()
	ip.io = r
	r.Seek(0)
	return ip.Run() == nil
}

// CreateTemplate folds the allocation ledger into the entry forest. A failed
// run yields an empty forest and discards the ledger.
func (ip *Interpreter) CreateTemplate() []*template.Entry {
	if ip.state != StateNone {
		ip.allocations = nil
		return nil
	}
	forest := make([]*template.Entry, 0, len(ip.allocations))
	for _, v := range ip.allocations {
		forest = append(forest, ip.createEntry(v, nil))
	}
	return forest
}

// Ledger exposes the top-level values of the current run, in source order.
func (ip *Interpreter) Ledger() []runtime.Value {
	return ip.allocations
}

// Types exposes the type registry (hosts may pre-register types).
func (ip *Interpreter) Types() *runtime.Registry { return ip.types }

// GlobalEnvironment returns the interpreter's global scope frame.
func (ip *Interpreter) GlobalEnvironment() *runtime.Environment { return ip.global }

// CurrentOffset reports the stream cursor position.
func (ip *Interpreter) CurrentOffset() uint64 { return ip.io.Offset() }

// CurrentFgColor returns the foreground override in effect.
func (ip *Interpreter) CurrentFgColor() uint32 { return ip.fgColor }

// CurrentBgColor returns the background override in effect.
func (ip *Interpreter) CurrentBgColor() uint32 { return ip.bgColor }

// Color resolves a palette name. Unknown names report ok=false, which
// callers treat as "no override"; the legitimate cNone stays distinguishable
// through the ok result.
func (ip *Interpreter) Color(name string) (uint32, bool) {
	c, ok := ip.colors[name]
	return c, ok
}

func (ip *Interpreter) print(s string) {
	if ip.hooks.Print != nil {
		ip.hooks.Print(s)
		return
	}
	fmt.Fprint(os.Stdout, s)
}

func (ip *Interpreter) createEntry(v runtime.Value, parent *template.Entry) *template.Entry {
	meta := v.Meta()
	entry := &template.Entry{
		Name:       meta.Name,
		TypeName:   meta.TypeName,
		Offset:     meta.Offset,
		Size:       runtime.SizeOf(v),
		Endianness: meta.Endian,
		FgColor:    meta.FgColor,
		BgColor:    meta.BgColor,
		Value:      v,
		Parent:     parent,
	}
	for _, child := range runtime.Children(v) {
		entry.Children = append(entry.Children, ip.createEntry(child, entry))
	}
	if ip.hooks.EntryCreated != nil {
		ip.hooks.EntryCreated(entry)
	}
	return entry
}

// paletteColors is the fixed 010-style color table.
func paletteColors() map[string]uint32 {
	return map[string]uint32{
		"cBlack":    0x00000000,
		"cRed":      0x000000FF,
		"cDkRed":    0x00000080,
		"cLtRed":    0x008080FF,
		"cGreen":    0x0000FF00,
		"cDkGreen":  0x00008000,
		"cLtGreen":  0x0080FF80,
		"cBlue":     0x00FF0000,
		"cDkBlue":   0x00800000,
		"cLtBlue":   0x00FF8080,
		"cPurple":   0x00FF00FF,
		"cDkPurple": 0x00800080,
		"cLtPurple": 0x00FFE0FF,
		"cAqua":     0x00FFFF00,
		"cDkAqua":   0x00808000,
		"cLtAqua":   0x00FFFFE0,
		"cYellow":   0x0000FFFF,
		"cDkYellow": 0x00008080,
		"cLtYellow": 0x0080FFFF,
		"cDkGray":   0x00404040,
		"cGray":     0x00808080,
		"cSilver":   0x00C0C0C0,
		"cLtGray":   0x00E0E0E0,
		"cWhite":    0x00FFFFFF,
		"cNone":     template.ColorNone,
	}
}
