package interpreter

import (
	"math"

	"bt/interpreter-go/pkg/ast"
	"bt/interpreter-go/pkg/reader"
	"bt/interpreter-go/pkg/runtime"
)

// evaluateVarDeclaration is the central mechanism: a non-local declaration
// materializes its type by reading the stream at the current cursor, then
// binds the value. Declarations outside any composite body also land in the
// allocation ledger that the entry forest is folded from.
func (ip *Interpreter) evaluateVarDeclaration(decl *ast.VarDeclaration, env *runtime.Environment) (runtime.Value, error) {
	if decl.Local {
		return ip.evaluateLocalDeclaration(decl, env)
	}
	if decl.BitWidth != nil {
		return nil, ip.errAt(ErrType, "bitfield '%s' is only valid inside a struct or union", decl.Name.Name)
	}

	val, err := ip.materializeDeclaration(decl.TypeName, decl.ArrayLength, env)
	if err != nil {
		return nil, err
	}
	val.Meta().Name = decl.Name.Name
	if err := env.Define(decl.Name.Name, val); err != nil {
		return nil, ip.errAt(ErrRedeclaration, "%s", err.Error())
	}
	if ip.compositeDepth == 0 {
		ip.allocations = append(ip.allocations, val)
	}
	return val, nil
}

// evaluateLocalDeclaration makes an ordinary mutable binding; nothing is
// read from the stream and no entry is produced.
func (ip *Interpreter) evaluateLocalDeclaration(decl *ast.VarDeclaration, env *runtime.Environment) (runtime.Value, error) {
	t, err := ip.types.Resolve(decl.TypeName)
	if err != nil {
		return nil, ip.errAt(ErrUndefinedName, "%s", err.Error())
	}

	var val runtime.Value
	switch t.Kind {
	case runtime.TypePrimitive:
		if t.Float {
			val = runtime.NewFloat(0, t.Width)
		} else if t.Signed {
			val = runtime.NewInt(0, t.Width)
		} else {
			val = runtime.NewUint(0, t.Width)
		}
	case runtime.TypeString:
		val = runtime.NewString(nil, false)
	case runtime.TypeEnum:
		underlying, err := ip.types.Resolve(t.Underlying)
		if err != nil {
			return nil, ip.errAt(ErrUndefinedName, "%s", err.Error())
		}
		val = runtime.NewEnum(0, underlying.Width, underlying.Signed, t.MemberName(0))
	default:
		return nil, ip.errAt(ErrType, "local variable '%s' cannot have type '%s'", decl.Name.Name, decl.TypeName)
	}

	meta := val.Meta()
	meta.TypeName = decl.TypeName
	meta.Name = decl.Name.Name
	meta.Origin = runtime.OriginLocal

	if decl.Initializer != nil {
		init, err := ip.evaluateExpression(decl.Initializer, env)
		if err != nil {
			return nil, err
		}
		if err := runtime.Assign(val, init); err != nil {
			return nil, ip.classify(err)
		}
	}
	if err := env.Define(decl.Name.Name, val); err != nil {
		return nil, ip.errAt(ErrRedeclaration, "%s", err.Error())
	}
	return val, nil
}

// materializeDeclaration resolves the declared type, evaluates the optional
// array length and reads the value off the stream.
func (ip *Interpreter) materializeDeclaration(typeName string, arrayLen ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	if arrayLen != nil {
		n, err := ip.evaluateExpression(arrayLen, env)
		if err != nil {
			return nil, err
		}
		count, ok := scalarInt(n)
		if !ok {
			return nil, ip.errAt(ErrType, "array length must be a scalar, got %s", n.Kind())
		}
		if count < 0 {
			return nil, ip.errAt(ErrType, "array length must be non-negative, got %d", count)
		}
		return ip.materializeArray(typeName, uint64(count), env)
	}
	return ip.materializeType(typeName, env)
}

// materializeType reads a single value of the named type at the cursor.
func (ip *Interpreter) materializeType(typeName string, env *runtime.Environment) (runtime.Value, error) {
	t, err := ip.types.Resolve(typeName)
	if err != nil {
		return nil, ip.errAt(ErrUndefinedName, "%s", err.Error())
	}

	switch t.Kind {
	case runtime.TypePrimitive:
		return ip.readPrimitive(typeName, t)
	case runtime.TypeString:
		start := ip.io.Offset()
		bytes, err := ip.io.ReadString(-1)
		if err != nil {
			return nil, ip.errAt(ErrEOF, "%s", err.Error())
		}
		val := runtime.NewString(append(bytes, 0), true)
		ip.stamp(val.Meta(), typeName, start, ip.io.Offset()-start)
		return val, nil
	case runtime.TypeEnum:
		underlying, err := ip.types.Resolve(t.Underlying)
		if err != nil {
			return nil, ip.errAt(ErrUndefinedName, "%s", err.Error())
		}
		raw, err := ip.readPrimitive(t.Underlying, underlying)
		if err != nil {
			return nil, err
		}
		iv := raw.(*runtime.IntegerValue)
		val := runtime.NewEnum(iv.Int64(), iv.Width, iv.Signed, t.MemberName(iv.Int64()))
		*val.IntegerValue.Meta() = *iv.Meta()
		val.Meta().TypeName = typeName
		return val, nil
	case runtime.TypeStruct, runtime.TypeUnion:
		return ip.materializeComposite(typeName, t, env)
	default:
		return nil, ip.errAt(ErrType, "cannot declare a variable of type '%s'", typeName)
	}
}

// readPrimitive pulls width/8 bytes and decodes them with the current
// endianness.
func (ip *Interpreter) readPrimitive(typeName string, t *runtime.Type) (runtime.Value, error) {
	size := uint64(t.Width / 8)
	start := ip.io.Offset()
	raw, err := ip.io.Read(size)
	if err != nil {
		return nil, ip.errAt(ErrEOF, "reading %s: %s", typeName, err.Error())
	}
	val := decodePrimitive(raw, t, ip.io.Endianness())
	ip.stamp(val.Meta(), typeName, start, size)
	return val, nil
}

func decodePrimitive(raw []byte, t *runtime.Type, order reader.ByteOrder) runtime.Value {
	var bits uint64
	switch len(raw) {
	case 1:
		bits = uint64(raw[0])
	case 2:
		bits = uint64(order.Binary().Uint16(raw))
	case 4:
		bits = uint64(order.Binary().Uint32(raw))
	case 8:
		bits = order.Binary().Uint64(raw)
	}
	if t.Float {
		return runtime.NewFloat(floatFromBits(bits, t.Width), t.Width)
	}
	out := &runtime.IntegerValue{Width: t.Width, Signed: t.Signed}
	out.SetUint64(bits)
	return out
}

// materializeArray repeats the element materialization count times.
// Character arrays are strings: a single length-bounded read.
func (ip *Interpreter) materializeArray(typeName string, count uint64, env *runtime.Environment) (runtime.Value, error) {
	t, err := ip.types.Resolve(typeName)
	if err != nil {
		return nil, ip.errAt(ErrUndefinedName, "%s", err.Error())
	}

	start := ip.io.Offset()
	if t.Kind == runtime.TypePrimitive && t.Width == 8 && !t.Float {
		raw, err := ip.io.Read(count)
		if err != nil {
			return nil, ip.errAt(ErrEOF, "reading %s[%d]: %s", typeName, count, err.Error())
		}
		val := runtime.NewString(append([]byte(nil), raw...), false)
		ip.stamp(val.Meta(), typeName, start, count)
		return val, nil
	}

	elems := make([]runtime.Value, 0, count)
	for i := uint64(0); i < count; i++ {
		el, err := ip.materializeType(typeName, env)
		if err != nil {
			return nil, err
		}
		elems = append(elems, el)
	}
	val := runtime.NewArray(typeName, elems)
	ip.stamp(val.Meta(), typeName, start, ip.io.Offset()-start)
	return val, nil
}

// materializeComposite evaluates the field list in order inside a fresh
// scope whose parent is the enclosing scope, so later field expressions can
// see earlier fields. Union members all start at the composite's offset and
// the cursor lands past the largest member.
func (ip *Interpreter) materializeComposite(typeName string, t *runtime.Type, env *runtime.Environment) (runtime.Value, error) {
	scope := runtime.NewEnvironment(env)
	start := ip.io.Offset()
	union := t.Kind == runtime.TypeUnion

	val := runtime.NewStruct(typeName, union)
	ip.compositeDepth++
	defer func() { ip.compositeDepth-- }()

	var unionEnd uint64
	var bits bitfieldState

	for _, f := range t.Fields {
		if union {
			ip.io.Seek(start)
			bits = bitfieldState{}
		}

		var fieldVal runtime.Value
		var err error
		if f.BitWidth != nil {
			fieldVal, err = ip.materializeBitfield(f, &bits, scope)
		} else {
			bits = bitfieldState{}
			fieldVal, err = ip.materializeDeclaration(f.TypeName, f.ArrayLength, scope)
		}
		if err != nil {
			return nil, err
		}
		if fieldVal == nil {
			continue // zero-width bitfield: alignment only
		}
		fieldVal.Meta().Name = f.Name.Name
		if err := scope.Define(f.Name.Name, fieldVal); err != nil {
			return nil, ip.errAt(ErrRedeclaration, "field %s", err.Error())
		}
		val.Fields = append(val.Fields, runtime.StructEntry{Name: f.Name.Name, Value: fieldVal})

		if union {
			if end := ip.io.Offset(); end > unionEnd {
				unionEnd = end
			}
		}
	}

	if union {
		ip.io.Seek(unionEnd)
	}
	ip.stamp(val.Meta(), typeName, start, ip.io.Offset()-start)
	return val, nil
}

// bitfieldState tracks the storage unit consecutive bitfields pack into.
type bitfieldState struct {
	active   bool
	unit     uint64
	width    uint8 // storage unit width in bits
	consumed uint8
	offset   uint64
}

// materializeBitfield packs the field into the current storage unit, opening
// a new one when the type width changes or the unit is full. With the big
// endian byte order in effect, bits allocate from the most significant end.
func (ip *Interpreter) materializeBitfield(f *ast.StructField, state *bitfieldState, env *runtime.Environment) (runtime.Value, error) {
	t, err := ip.types.Resolve(f.TypeName)
	if err != nil {
		return nil, ip.errAt(ErrUndefinedName, "%s", err.Error())
	}
	if t.Kind != runtime.TypePrimitive || t.Float {
		return nil, ip.errAt(ErrType, "bitfield '%s' needs an integer type", f.Name.Name)
	}

	widthVal, err := ip.evaluateExpression(f.BitWidth, env)
	if err != nil {
		return nil, err
	}
	n, ok := scalarInt(widthVal)
	if !ok || n < 0 || n > int64(t.Width) {
		return nil, ip.errAt(ErrType, "bitfield '%s' has invalid width", f.Name.Name)
	}
	if n == 0 {
		*state = bitfieldState{}
		return nil, nil
	}

	if !state.active || state.width != t.Width || state.consumed+uint8(n) > state.width {
		start := ip.io.Offset()
		raw, err := ip.io.Read(uint64(t.Width / 8))
		if err != nil {
			return nil, ip.errAt(ErrEOF, "reading bitfield '%s': %s", f.Name.Name, err.Error())
		}
		unit := decodePrimitive(raw, &runtime.Type{Kind: runtime.TypePrimitive, Width: t.Width}, ip.io.Endianness())
		*state = bitfieldState{
			active: true,
			unit:   unit.(*runtime.IntegerValue).Uint64(),
			width:  t.Width,
			offset: start,
		}
	}

	var shift uint8
	if ip.io.Endianness() == reader.BigEndian {
		shift = state.width - state.consumed - uint8(n)
	} else {
		shift = state.consumed
	}
	mask := uint64(1)<<uint(n) - 1
	bits := (state.unit >> shift) & mask
	state.consumed += uint8(n)

	out := &runtime.IntegerValue{Width: t.Width, Signed: t.Signed}
	out.SetUint64(bits)
	ip.stamp(out.Meta(), f.TypeName, state.offset, uint64(state.width/8))
	return out, nil
}

// stamp attaches the declaration-time annotations required of a stream
// value: span, endianness and the colors in effect.
func (ip *Interpreter) stamp(meta *runtime.Meta, typeName string, offset, size uint64) {
	meta.TypeName = typeName
	meta.Origin = runtime.OriginStream
	meta.Offset = offset
	meta.Size = size
	meta.Endian = ip.io.Endianness()
	meta.FgColor = ip.fgColor
	meta.BgColor = ip.bgColor
	meta.HasColors = true
}

func floatFromBits(bits uint64, width uint8) float64 {
	if width == 32 {
		return float64(math.Float32frombits(uint32(bits)))
	}
	return math.Float64frombits(bits)
}
