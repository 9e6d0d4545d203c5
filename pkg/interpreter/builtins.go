package interpreter

import (
	"math"

	"bt/interpreter-go/pkg/ast"
	"bt/interpreter-go/pkg/reader"
	"bt/interpreter-go/pkg/runtime"
	"bt/interpreter-go/pkg/template"
)

// registerBuiltins installs the native function table. Each handler owns its
// argument-count and argument-type validation, as the originals do.
func (ip *Interpreter) registerBuiltins() {
	native := map[string]builtinFunc{
		// Interface functions.
		"Printf":       builtinPrintf,
		"SetBackColor": builtinSetBackColor,
		"SetForeColor": builtinSetForeColor,
		"Warning":      builtinWarning,

		// I/O functions.
		"FEof":         builtinFEof,
		"FileSize":     builtinFileSize,
		"FTell":        builtinFTell,
		"FSeek":        builtinFSeek,
		"ReadInt":      readScalarBuiltin(32, true),
		"ReadInt64":    readScalarBuiltin(64, true),
		"ReadQuad":     readScalarBuiltin(64, true),
		"ReadShort":    readScalarBuiltin(16, true),
		"ReadUInt":     readScalarBuiltin(32, false),
		"ReadUInt64":   readScalarBuiltin(64, false),
		"ReadUQuad":    readScalarBuiltin(64, false),
		"ReadUShort":   readScalarBuiltin(16, false),
		"ReadBytes":    builtinReadBytes,
		"ReadString":   builtinReadString,
		"LittleEndian": builtinLittleEndian,
		"BigEndian":    builtinBigEndian,

		// String functions.
		"Strlen": builtinStrlen,

		// Math functions.
		"Ceil": builtinCeil,

		// Tool functions.
		"FindAll": builtinFindAll,

		// Non-standard test harness.
		"__bt_test__": builtinTest,
	}
	for name, fn := range native {
		ip.functions[name] = &function{native: fn}
	}
}

func arityError(ip *Interpreter, call *ast.CallExpression, want int) error {
	return ip.errAt(ErrArity, "'%s' expects %d arguments, %d given",
		call.Callee.Name, want, len(call.Arguments))
}

func builtinPrintf(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	if len(call.Arguments) < 1 {
		return nil, arityError(ip, call, 1)
	}
	format, err := ip.evaluateExpression(call.Arguments[0], env)
	if err != nil {
		return nil, err
	}
	fs, ok := format.(*runtime.StringValue)
	if !ok {
		return nil, ip.errAt(ErrType, "'Printf' format must be a string, got %s", format.Kind())
	}
	args := make([]runtime.Value, 0, len(call.Arguments)-1)
	for _, arg := range call.Arguments[1:] {
		v, err := ip.evaluateExpression(arg, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	out, err := formatString(fs.String(), args)
	if err != nil {
		return nil, ip.errAt(ErrFormat, "%s", err.Error())
	}
	ip.print(out)
	return runtime.NewNull(), nil
}

func builtinWarning(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	ip.print("WARNING: ")
	return builtinPrintf(ip, call, env)
}

// Color setters take the palette identifier itself, not an evaluated
// expression. Unknown names clear the override.
func builtinSetForeColor(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	c, err := colorArgument(ip, call)
	if err != nil {
		return nil, err
	}
	ip.fgColor = c
	return runtime.NewNull(), nil
}

func builtinSetBackColor(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	c, err := colorArgument(ip, call)
	if err != nil {
		return nil, err
	}
	ip.bgColor = c
	return runtime.NewNull(), nil
}

func colorArgument(ip *Interpreter, call *ast.CallExpression) (uint32, error) {
	if len(call.Arguments) != 1 {
		return 0, arityError(ip, call, 1)
	}
	id, ok := call.Arguments[0].(*ast.Identifier)
	if !ok {
		return 0, ip.errAt(ErrType, "'%s' expects a color name, got %s",
			call.Callee.Name, call.Arguments[0].NodeType())
	}
	c, known := ip.Color(id.Name)
	if !known {
		return template.ColorNone, nil
	}
	return c, nil
}

func builtinLittleEndian(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	if len(call.Arguments) != 0 {
		return nil, arityError(ip, call, 0)
	}
	ip.io.SetLittleEndian()
	return runtime.NewNull(), nil
}

func builtinBigEndian(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	if len(call.Arguments) != 0 {
		return nil, arityError(ip, call, 0)
	}
	ip.io.SetBigEndian()
	return runtime.NewNull(), nil
}

func builtinFEof(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	if len(call.Arguments) != 0 {
		return nil, arityError(ip, call, 0)
	}
	return runtime.NewBool(ip.io.AtEOF()), nil
}

func builtinFileSize(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	if len(call.Arguments) != 0 {
		return nil, arityError(ip, call, 0)
	}
	return runtime.NewUint(ip.io.Size(), 64), nil
}

func builtinFTell(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	if len(call.Arguments) != 0 {
		return nil, arityError(ip, call, 0)
	}
	return runtime.NewUint(ip.io.Offset(), 64), nil
}

// FSeek answers 0 on success and -1 when the position is out of range, in
// which case the cursor does not move.
func builtinFSeek(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	if len(call.Arguments) != 1 {
		return nil, arityError(ip, call, 1)
	}
	posVal, err := ip.evaluateExpression(call.Arguments[0], env)
	if err != nil {
		return nil, err
	}
	pos, ok := scalarUint(posVal)
	if !ok {
		return nil, ip.errAt(ErrType, "'FSeek' expects a scalar, got %s", posVal.Kind())
	}
	if pos >= ip.io.Size() {
		return runtime.NewInt(-1, 64), nil
	}
	ip.io.Seek(pos)
	return runtime.NewInt(0, 64), nil
}

// readScalarBuiltin builds the ReadInt/ReadUShort/… family: an optional
// absolute position, a typed read, and a cursor restored by the no-seek
// guard on every path.
func readScalarBuiltin(bits uint8, signed bool) builtinFunc {
	return func(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
		if len(call.Arguments) > 1 {
			return nil, ip.errAt(ErrArity, "'%s' expects 0 or 1 arguments, %d given",
				call.Callee.Name, len(call.Arguments))
		}
		defer reader.NoSeek(ip.io)()

		if len(call.Arguments) == 1 {
			posVal, err := ip.evaluateExpression(call.Arguments[0], env)
			if err != nil {
				return nil, err
			}
			pos, ok := scalarUint(posVal)
			if !ok {
				return nil, ip.errAt(ErrType, "'%s' expects a scalar position, got %s",
					call.Callee.Name, posVal.Kind())
			}
			ip.io.Seek(pos)
		}

		raw, err := ip.io.Read(uint64(bits / 8))
		if err != nil {
			return nil, ip.errAt(ErrEOF, "%s", err.Error())
		}
		t := &runtime.Type{Kind: runtime.TypePrimitive, Width: bits, Signed: signed}
		return decodePrimitive(raw, t, ip.io.Endianness()), nil
	}
}

func builtinReadBytes(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	if len(call.Arguments) != 3 {
		return nil, arityError(ip, call, 3)
	}
	buffer, err := ip.evaluateExpression(call.Arguments[0], env)
	if err != nil {
		return nil, err
	}
	posVal, err := ip.evaluateExpression(call.Arguments[1], env)
	if err != nil {
		return nil, err
	}
	pos, ok := scalarUint(posVal)
	if !ok {
		return nil, ip.errAt(ErrType, "'ReadBytes' position must be a scalar, got %s", posVal.Kind())
	}
	nVal, err := ip.evaluateExpression(call.Arguments[2], env)
	if err != nil {
		return nil, err
	}
	n, ok := scalarUint(nVal)
	if !ok {
		return nil, ip.errAt(ErrType, "'ReadBytes' count must be a scalar, got %s", nVal.Kind())
	}

	defer reader.NoSeek(ip.io)()
	ip.io.Seek(pos)
	raw, err := ip.io.Read(n)
	if err != nil {
		return nil, ip.errAt(ErrEOF, "%s", err.Error())
	}

	switch buf := buffer.(type) {
	case *runtime.StringValue:
		buf.Bytes = append([]byte(nil), raw...)
		buf.NulTerminated = false
	case *runtime.ArrayValue:
		elems := make([]runtime.Value, len(raw))
		for i, b := range raw {
			elems[i] = runtime.NewUint(uint64(b), 8)
		}
		buf.Elems = elems
	default:
		return nil, ip.errAt(ErrType, "'ReadBytes' buffer must be an array or string, got %s", buffer.Kind())
	}
	return runtime.NewNull(), nil
}

// ReadString(pos, maxlen?) reads NUL-terminated text at an absolute
// position; a scalar maxlen bounds the read.
func builtinReadString(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	if len(call.Arguments) < 1 || len(call.Arguments) > 2 {
		return nil, ip.errAt(ErrArity, "'ReadString' expects 1 or 2 arguments, %d given", len(call.Arguments))
	}
	posVal, err := ip.evaluateExpression(call.Arguments[0], env)
	if err != nil {
		return nil, err
	}
	pos, ok := scalarUint(posVal)
	if !ok {
		return nil, ip.errAt(ErrType, "'ReadString' position must be a scalar, got %s", posVal.Kind())
	}

	maxLen := int32(-1)
	if len(call.Arguments) == 2 {
		lenVal, err := ip.evaluateExpression(call.Arguments[1], env)
		if err != nil {
			return nil, err
		}
		n, ok := scalarInt(lenVal)
		if !ok {
			return nil, ip.errAt(ErrType, "'ReadString' maxlen must be a scalar, got %s", lenVal.Kind())
		}
		maxLen = int32(n)
	}

	defer reader.NoSeek(ip.io)()
	ip.io.Seek(pos)
	bytes, err := ip.io.ReadString(maxLen)
	if err != nil {
		return nil, ip.errAt(ErrEOF, "%s", err.Error())
	}
	return runtime.NewString(bytes, false), nil
}

func builtinStrlen(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	if len(call.Arguments) != 1 {
		return nil, arityError(ip, call, 1)
	}
	v, err := ip.evaluateExpression(call.Arguments[0], env)
	if err != nil {
		return nil, err
	}
	s, ok := v.(*runtime.StringValue)
	if !ok {
		return nil, ip.errAt(ErrType, "'Strlen' expects a string, got %s", v.Kind())
	}
	return runtime.NewInt(int64(s.Length()), 64), nil
}

func builtinCeil(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	if len(call.Arguments) != 1 {
		return nil, arityError(ip, call, 1)
	}
	v, err := ip.evaluateExpression(call.Arguments[0], env)
	if err != nil {
		return nil, err
	}
	if !runtime.IsScalar(v) {
		return nil, ip.errAt(ErrType, "'Ceil' expects a scalar, got %s", v.Kind())
	}
	out, err := runtime.Convert(v, 64, false, true)
	if err != nil {
		return nil, ip.classify(err)
	}
	f := out.(*runtime.FloatValue)
	f.Val = math.Ceil(f.Val)
	return f, nil
}

// FindAll is a stub: it announces itself and yields null so templates that
// call it keep running.
func builtinFindAll(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	ip.print("FindAll(): Not implemented")
	return runtime.NewNull(), nil
}

func builtinTest(ip *Interpreter, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	if len(call.Arguments) != 1 {
		return nil, arityError(ip, call, 1)
	}
	v, err := ip.evaluateExpression(call.Arguments[0], env)
	if err != nil {
		return nil, err
	}
	if runtime.Truthy(v) {
		ip.print("\x1b[32mOK\x1b[0m\n")
	} else {
		ip.print("\x1b[31mFAIL\x1b[0m\n")
	}
	return v, nil
}

func scalarUint(v runtime.Value) (uint64, bool) {
	switch val := v.(type) {
	case *runtime.IntegerValue:
		return val.Uint64(), true
	case *runtime.EnumValue:
		return val.Uint64(), true
	case *runtime.FloatValue:
		return uint64(val.Val), true
	case *runtime.BoolValue:
		if val.Val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
