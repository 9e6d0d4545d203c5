package runtime

import (
	"fmt"

	"bt/interpreter-go/pkg/ast"
)

// TypeKind discriminates type descriptors in the registry.
type TypeKind int

const (
	TypePrimitive TypeKind = iota
	TypeAlias
	TypeStruct
	TypeUnion
	TypeEnum
	TypeString
)

// EnumMember is one (name, value) pair of an enum type.
type EnumMember struct {
	Name  string
	Value int64
}

// Type describes a named type. Primitive descriptors carry width/signedness;
// struct and union descriptors keep their field list as AST so array lengths
// and bit widths can reference earlier fields at materialization time.
type Type struct {
	Name   string
	Kind   TypeKind
	Width  uint8 // bits, primitives only
	Signed bool
	Float  bool

	Target string // alias target

	Fields []*ast.StructField // struct / union

	Underlying string // enum underlying primitive
	Members    []EnumMember
}

// Registry maps type names to descriptors. Built-in primitives are
// pre-registered; user types append as the evaluator meets their
// definitions. The registry is append-only during a run.
type Registry struct {
	types map[string]*Type
	order []string
}

type primitiveSpec struct {
	name   string
	width  uint8
	signed bool
	float  bool
}

var primitives = []primitiveSpec{
	{"char", 8, true, false},
	{"uchar", 8, false, false},
	{"byte", 8, true, false},
	{"ubyte", 8, false, false},
	{"short", 16, true, false},
	{"ushort", 16, false, false},
	{"int", 32, true, false},
	{"uint", 32, false, false},
	{"long", 32, true, false},
	{"ulong", 32, false, false},
	{"int16", 16, true, false},
	{"uint16", 16, false, false},
	{"int32", 32, true, false},
	{"uint32", 32, false, false},
	{"int64", 64, true, false},
	{"uint64", 64, false, false},
	{"quad", 64, true, false},
	{"uquad", 64, false, false},
	{"float", 32, false, true},
	{"double", 64, false, true},
}

// Editor-style aliases resolve through the primitive they abbreviate.
var editorAliases = map[string]string{
	"BYTE":   "char",
	"UBYTE":  "uchar",
	"CHAR":   "char",
	"UCHAR":  "uchar",
	"WORD":   "short",
	"UWORD":  "ushort",
	"SHORT":  "short",
	"USHORT": "ushort",
	"DWORD":  "int",
	"UDWORD": "uint",
	"INT":    "int",
	"UINT":   "uint",
	"LONG":   "long",
	"ULONG":  "ulong",
	"QWORD":  "int64",
	"UQWORD": "uint64",
	"INT64":  "int64",
	"UINT64": "uint64",
	"QUAD":   "quad",
	"UQUAD":  "uquad",
	"FLOAT":  "float",
	"DOUBLE": "double",
}

// NewRegistry builds a registry with every built-in primitive and editor
// alias pre-registered.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]*Type)}
	for _, p := range primitives {
		r.put(&Type{Name: p.name, Kind: TypePrimitive, Width: p.width, Signed: p.signed, Float: p.float})
	}
	for alias, target := range editorAliases {
		r.put(&Type{Name: alias, Kind: TypeAlias, Target: target})
	}
	// "string" reads NUL-terminated text from the stream when declared.
	r.put(&Type{Name: "string", Kind: TypeString})
	return r
}

func (r *Registry) put(t *Type) {
	r.types[t.Name] = t
	r.order = append(r.order, t.Name)
}

// Declare registers a user type. Global type names never shadow.
func (r *Registry) Declare(t *Type) error {
	if t.Name == "" {
		return fmt.Errorf("type declaration needs a name")
	}
	if _, ok := r.types[t.Name]; ok {
		return fmt.Errorf("type '%s' is already declared", t.Name)
	}
	r.put(t)
	return nil
}

// Lookup returns the descriptor for name without following aliases.
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Resolve follows alias chains down to a concrete descriptor.
func (r *Registry) Resolve(name string) (*Type, error) {
	seen := 0
	for {
		t, ok := r.types[name]
		if !ok {
			return nil, fmt.Errorf("unknown type '%s'", name)
		}
		if t.Kind != TypeAlias {
			return t, nil
		}
		name = t.Target
		if seen++; seen > len(r.types) {
			return nil, fmt.Errorf("alias cycle at type '%s'", t.Name)
		}
	}
}

// SizeOf computes the static byte size of a type. Struct fields with dynamic
// array lengths have no static size; those report an error and are sized at
// materialization instead.
func (r *Registry) SizeOf(name string) (uint64, error) {
	t, err := r.Resolve(name)
	if err != nil {
		return 0, err
	}
	switch t.Kind {
	case TypePrimitive:
		return uint64(t.Width / 8), nil
	case TypeEnum:
		return r.SizeOf(t.Underlying)
	case TypeStruct, TypeUnion:
		var total uint64
		for _, f := range t.Fields {
			sz, err := r.SizeOf(f.TypeName)
			if err != nil {
				return 0, err
			}
			if f.ArrayLength != nil {
				lit, ok := f.ArrayLength.(*ast.IntegerLiteral)
				if !ok {
					return 0, fmt.Errorf("type '%s' has a dynamic field length", t.Name)
				}
				sz *= uint64(lit.Value)
			}
			if t.Kind == TypeUnion {
				if sz > total {
					total = sz
				}
			} else {
				total += sz
			}
		}
		return total, nil
	default:
		return 0, fmt.Errorf("type '%s' has no size", name)
	}
}

// MemberName finds the symbolic name for an enum value, if any.
func (t *Type) MemberName(value int64) string {
	for _, m := range t.Members {
		if m.Value == value {
			return m.Name
		}
	}
	return ""
}
