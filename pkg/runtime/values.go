package runtime

import (
	"fmt"

	"bt/interpreter-go/pkg/reader"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindString
	KindArray
	KindStruct
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Origin records where a value's bytes came from.
type Origin int

const (
	OriginComputed Origin = iota
	OriginStream
	OriginLocal
)

// Meta carries the declaration-time annotations shared by all values. Stream
// values additionally know their byte span; Size is set for every
// materialized value (scalars derive it from their width when zero).
type Meta struct {
	TypeName  string
	Name      string
	Origin    Origin
	Offset    uint64
	Size      uint64
	Endian    reader.ByteOrder
	FgColor   uint32
	BgColor   uint32
	HasColors bool
}

// Value is the shared behaviour for all runtime values. All implementations
// are pointers so member access aliases and assignment mutates in place.
type Value interface {
	Kind() Kind
	Meta() *Meta
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NullValue struct {
	meta Meta
}

func NewNull() *NullValue { return &NullValue{} }

func (v *NullValue) Kind() Kind  { return KindNull }
func (v *NullValue) Meta() *Meta { return &v.meta }

type BoolValue struct {
	Val  bool
	meta Meta
}

func NewBool(val bool) *BoolValue { return &BoolValue{Val: val} }

func (v *BoolValue) Kind() Kind  { return KindBool }
func (v *BoolValue) Meta() *Meta { return &v.meta }

// IntegerValue stores the raw two's-complement bit pattern in Bits; Width is
// in bits (8, 16, 32, 64) and Signed selects the interpretation.
type IntegerValue struct {
	Bits   uint64
	Width  uint8
	Signed bool
	meta   Meta
}

// NewInt allocates a signed integer of the given bit width.
func NewInt(val int64, width uint8) *IntegerValue {
	v := &IntegerValue{Width: width, Signed: true}
	v.SetInt64(val)
	return v
}

// NewUint allocates an unsigned integer of the given bit width.
func NewUint(val uint64, width uint8) *IntegerValue {
	v := &IntegerValue{Width: width, Signed: false}
	v.SetUint64(val)
	return v
}

func (v *IntegerValue) Kind() Kind  { return KindInteger }
func (v *IntegerValue) Meta() *Meta { return &v.meta }

func (v *IntegerValue) mask() uint64 {
	if v.Width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << v.Width) - 1
}

// Int64 sign-extends the stored bits to the full width.
func (v *IntegerValue) Int64() int64 {
	if v.Width >= 64 {
		return int64(v.Bits)
	}
	shift := 64 - v.Width
	return int64(v.Bits<<shift) >> shift
}

func (v *IntegerValue) Uint64() uint64 {
	return v.Bits & v.mask()
}

func (v *IntegerValue) SetInt64(val int64) {
	v.Bits = uint64(val) & v.mask()
}

func (v *IntegerValue) SetUint64(val uint64) {
	v.Bits = val & v.mask()
}

type FloatValue struct {
	Val   float64
	Width uint8 // 32 or 64
	meta  Meta
}

func NewFloat(val float64, width uint8) *FloatValue {
	return &FloatValue{Val: val, Width: width}
}

func (v *FloatValue) Kind() Kind  { return KindFloat }
func (v *FloatValue) Meta() *Meta { return &v.meta }

// EnumValue is an integer with an optional symbolic name from its enum
// definition. It behaves as its underlying integer in arithmetic.
type EnumValue struct {
	IntegerValue
	Symbol string
}

func NewEnum(val int64, width uint8, signed bool, symbol string) *EnumValue {
	e := &EnumValue{Symbol: symbol}
	e.Width = width
	e.Signed = signed
	e.SetInt64(val)
	return e
}

func (v *EnumValue) Kind() Kind { return KindEnum }

//-----------------------------------------------------------------------------
// Strings, arrays, composites
//-----------------------------------------------------------------------------

// StringValue is a byte sequence with a terminator policy. NulTerminated
// strings exclude the trailing NUL from Length but count it in their span.
type StringValue struct {
	Bytes         []byte
	NulTerminated bool
	meta          Meta
}

func NewString(bytes []byte, nulTerminated bool) *StringValue {
	return &StringValue{Bytes: bytes, NulTerminated: nulTerminated}
}

func (v *StringValue) Kind() Kind  { return KindString }
func (v *StringValue) Meta() *Meta { return &v.meta }

// Length is the byte count excluding a trailing NUL.
func (v *StringValue) Length() int {
	n := len(v.Bytes)
	if v.NulTerminated && n > 0 && v.Bytes[n-1] == 0 {
		n--
	}
	return n
}

func (v *StringValue) String() string {
	return string(v.Bytes[:v.Length()])
}

type ArrayValue struct {
	Elems    []Value
	ElemType string
	meta     Meta
}

func NewArray(elemType string, elems []Value) *ArrayValue {
	return &ArrayValue{Elems: elems, ElemType: elemType}
}

func (v *ArrayValue) Kind() Kind  { return KindArray }
func (v *ArrayValue) Meta() *Meta { return &v.meta }

// StructEntry is one named field of a composite, in declaration order.
type StructEntry struct {
	Name  string
	Value Value
}

type StructValue struct {
	Fields []StructEntry
	Union  bool
	meta   Meta
}

func NewStruct(typeName string, union bool) *StructValue {
	s := &StructValue{Union: union}
	s.meta.TypeName = typeName
	return s
}

func (v *StructValue) Kind() Kind  { return KindStruct }
func (v *StructValue) Meta() *Meta { return &v.meta }

// Field returns the named field value, or nil when absent.
func (v *StructValue) Field(name string) Value {
	for i := range v.Fields {
		if v.Fields[i].Name == name {
			return v.Fields[i].Value
		}
	}
	return nil
}

//-----------------------------------------------------------------------------
// Shared helpers
//-----------------------------------------------------------------------------

// SizeOf reports the byte span of a value: the recorded span for materialized
// values, otherwise the natural size of its payload.
func SizeOf(v Value) uint64 {
	if m := v.Meta(); m.Size != 0 {
		return m.Size
	}
	switch val := v.(type) {
	case *IntegerValue:
		return uint64(val.Width / 8)
	case *EnumValue:
		return uint64(val.Width / 8)
	case *FloatValue:
		return uint64(val.Width / 8)
	case *BoolValue:
		return 1
	case *StringValue:
		return uint64(len(val.Bytes))
	case *ArrayValue:
		var total uint64
		for _, el := range val.Elems {
			total += SizeOf(el)
		}
		return total
	case *StructValue:
		var total uint64
		for i := range val.Fields {
			sz := SizeOf(val.Fields[i].Value)
			if val.Union {
				if sz > total {
					total = sz
				}
			} else {
				total += sz
			}
		}
		return total
	default:
		return 0
	}
}

// IsScalar reports whether v participates in arithmetic.
func IsScalar(v Value) bool {
	switch v.Kind() {
	case KindBool, KindInteger, KindFloat, KindEnum:
		return true
	default:
		return false
	}
}

// Children returns the owned child values of arrays and composites.
func Children(v Value) []Value {
	switch val := v.(type) {
	case *ArrayValue:
		return val.Elems
	case *StructValue:
		out := make([]Value, len(val.Fields))
		for i := range val.Fields {
			out[i] = val.Fields[i].Value
		}
		return out
	default:
		return nil
	}
}
