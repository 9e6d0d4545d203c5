package interpreter

import (
	"bt/interpreter-go/pkg/ast"
	"bt/interpreter-go/pkg/runtime"
)

func (ip *Interpreter) evaluateExpression(node ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.IntegerLiteral:
		return integerLiteral(n), nil
	case *ast.FloatLiteral:
		return runtime.NewFloat(n.Value, 64), nil
	case *ast.StringLiteral:
		return runtime.NewString([]byte(n.Value), false), nil
	case *ast.CharLiteral:
		return runtime.NewInt(int64(int8(n.Value)), 8), nil
	case *ast.BooleanLiteral:
		return runtime.NewBool(n.Value), nil
	case *ast.Identifier:
		val, err := env.Get(n.Name)
		if err != nil {
			return nil, ip.errAt(ErrUndefinedName, "%s", err.Error())
		}
		return val, nil
	case *ast.UnaryExpression:
		operand, err := ip.evaluateExpression(n.Operand, env)
		if err != nil {
			return nil, err
		}
		out, err := runtime.UnaryOp(n.Operator, operand)
		if err != nil {
			return nil, ip.classify(err)
		}
		return out, nil
	case *ast.BinaryExpression:
		return ip.evaluateBinaryExpression(n, env)
	case *ast.TernaryExpression:
		cond, err := ip.evaluateExpression(n.Condition, env)
		if err != nil {
			return nil, err
		}
		if runtime.Truthy(cond) {
			return ip.evaluateExpression(n.Consequent, env)
		}
		return ip.evaluateExpression(n.Alternative, env)
	case *ast.AssignmentExpression:
		return ip.evaluateAssignment(n, env)
	case *ast.UpdateExpression:
		return ip.evaluateUpdate(n, env)
	case *ast.CallExpression:
		return ip.callFunction(n, env)
	case *ast.MemberAccessExpression:
		return ip.evaluateMemberAccess(n, env)
	case *ast.IndexExpression:
		return ip.evaluateIndex(n, env)
	case *ast.CastExpression:
		return ip.evaluateCast(n, env)
	case *ast.SizeofExpression:
		return ip.evaluateSizeof(n, env)
	default:
		return nil, ip.errAt(ErrType, "unsupported expression type: %s", n.NodeType())
	}
}

func integerLiteral(n *ast.IntegerLiteral) runtime.Value {
	if n.Unsigned {
		if uint64(n.Value) > 0xFFFFFFFF {
			return runtime.NewUint(uint64(n.Value), 64)
		}
		return runtime.NewUint(uint64(n.Value), 32)
	}
	if n.Value > 0x7FFFFFFF || n.Value < -0x80000000 {
		return runtime.NewInt(n.Value, 64)
	}
	return runtime.NewInt(n.Value, 32)
}

func (ip *Interpreter) evaluateBinaryExpression(n *ast.BinaryExpression, env *runtime.Environment) (runtime.Value, error) {
	// Logical operators short-circuit; everything else goes through the
	// value model.
	switch n.Operator {
	case "&&":
		left, err := ip.evaluateExpression(n.Left, env)
		if err != nil {
			return nil, err
		}
		if !runtime.Truthy(left) {
			return runtime.NewBool(false), nil
		}
		right, err := ip.evaluateExpression(n.Right, env)
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(runtime.Truthy(right)), nil
	case "||":
		left, err := ip.evaluateExpression(n.Left, env)
		if err != nil {
			return nil, err
		}
		if runtime.Truthy(left) {
			return runtime.NewBool(true), nil
		}
		right, err := ip.evaluateExpression(n.Right, env)
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(runtime.Truthy(right)), nil
	}

	left, err := ip.evaluateExpression(n.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := ip.evaluateExpression(n.Right, env)
	if err != nil {
		return nil, err
	}
	out, err := runtime.BinaryOp(n.Operator, left, right)
	if err != nil {
		return nil, ip.classify(err)
	}
	return out, nil
}

// evaluateAssignment mutates the target in place. Member and index targets
// alias into their container, so "s.f = 5" updates the composite. Stream
// values only change their in-memory snapshot.
func (ip *Interpreter) evaluateAssignment(n *ast.AssignmentExpression, env *runtime.Environment) (runtime.Value, error) {
	target, err := ip.evaluateExpression(n.Target, env)
	if err != nil {
		return nil, err
	}
	value, err := ip.evaluateExpression(n.Value, env)
	if err != nil {
		return nil, err
	}
	if n.Operator != "=" {
		op := n.Operator[:len(n.Operator)-1] // "+=" → "+"
		value, err = runtime.BinaryOp(op, target, value)
		if err != nil {
			return nil, ip.classify(err)
		}
	}
	if err := runtime.Assign(target, value); err != nil {
		return nil, ip.classify(err)
	}
	return target, nil
}

func (ip *Interpreter) evaluateUpdate(n *ast.UpdateExpression, env *runtime.Environment) (runtime.Value, error) {
	target, err := ip.evaluateExpression(n.Target, env)
	if err != nil {
		return nil, err
	}
	before, err := copyScalar(target)
	if err != nil {
		return nil, ip.classify(err)
	}
	op := "+"
	if n.Operator == "--" {
		op = "-"
	}
	next, err := runtime.BinaryOp(op, target, runtime.NewInt(1, 32))
	if err != nil {
		return nil, ip.classify(err)
	}
	if err := runtime.Assign(target, next); err != nil {
		return nil, ip.classify(err)
	}
	if n.Prefix {
		return target, nil
	}
	return before, nil
}

func copyScalar(v runtime.Value) (runtime.Value, error) {
	switch val := v.(type) {
	case *runtime.IntegerValue:
		out := *val
		return &out, nil
	case *runtime.EnumValue:
		out := *val
		return &out, nil
	case *runtime.FloatValue:
		out := *val
		return &out, nil
	case *runtime.BoolValue:
		out := *val
		return &out, nil
	default:
		return nil, &runtime.OpTypeError{Msg: "expected a scalar, got " + v.Kind().String()}
	}
}

func (ip *Interpreter) evaluateMemberAccess(n *ast.MemberAccessExpression, env *runtime.Environment) (runtime.Value, error) {
	object, err := ip.evaluateExpression(n.Object, env)
	if err != nil {
		return nil, err
	}
	s, ok := object.(*runtime.StructValue)
	if !ok {
		return nil, ip.errAt(ErrType, "member access on %s, expected struct", object.Kind())
	}
	field := s.Field(n.Member.Name)
	if field == nil {
		return nil, ip.errAt(ErrUndefinedName, "'%s' has no field '%s'", s.Meta().TypeName, n.Member.Name)
	}
	return field, nil
}

func (ip *Interpreter) evaluateIndex(n *ast.IndexExpression, env *runtime.Environment) (runtime.Value, error) {
	object, err := ip.evaluateExpression(n.Object, env)
	if err != nil {
		return nil, err
	}
	index, err := ip.evaluateExpression(n.Index, env)
	if err != nil {
		return nil, err
	}
	idx, ok := scalarInt(index)
	if !ok {
		return nil, ip.errAt(ErrType, "array index must be a scalar, got %s", index.Kind())
	}

	switch obj := object.(type) {
	case *runtime.ArrayValue:
		if idx < 0 || idx >= int64(len(obj.Elems)) {
			return nil, ip.errAt(ErrIndex, "index %d out of bounds (length %d)", idx, len(obj.Elems))
		}
		return obj.Elems[idx], nil
	case *runtime.StringValue:
		if idx < 0 || idx >= int64(obj.Length()) {
			return nil, ip.errAt(ErrIndex, "index %d out of bounds (length %d)", idx, obj.Length())
		}
		return runtime.NewInt(int64(int8(obj.Bytes[idx])), 8), nil
	default:
		return nil, ip.errAt(ErrType, "cannot index %s", object.Kind())
	}
}

func (ip *Interpreter) evaluateCast(n *ast.CastExpression, env *runtime.Environment) (runtime.Value, error) {
	operand, err := ip.evaluateExpression(n.Operand, env)
	if err != nil {
		return nil, err
	}
	t, err := ip.types.Resolve(n.TypeName)
	if err != nil {
		return nil, ip.errAt(ErrUndefinedName, "%s", err.Error())
	}
	if t.Kind != runtime.TypePrimitive {
		return nil, ip.errAt(ErrType, "cannot cast to '%s'", n.TypeName)
	}
	out, err := runtime.Convert(operand, t.Width, t.Signed, t.Float)
	if err != nil {
		return nil, ip.classify(err)
	}
	out.Meta().TypeName = n.TypeName
	return out, nil
}

func (ip *Interpreter) evaluateSizeof(n *ast.SizeofExpression, env *runtime.Environment) (runtime.Value, error) {
	if n.TypeName != "" {
		size, err := ip.types.SizeOf(n.TypeName)
		if err != nil {
			return nil, ip.errAt(ErrType, "%s", err.Error())
		}
		return runtime.NewUint(size, 64), nil
	}
	// A lone identifier may name a type rather than a value; variables
	// shadow type names.
	if id, ok := n.Operand.(*ast.Identifier); ok {
		_, lookupErr := env.Get(id.Name)
		if _, known := ip.types.Lookup(id.Name); known && lookupErr != nil {
			size, err := ip.types.SizeOf(id.Name)
			if err != nil {
				return nil, ip.errAt(ErrType, "%s", err.Error())
			}
			return runtime.NewUint(size, 64), nil
		}
	}
	operand, err := ip.evaluateExpression(n.Operand, env)
	if err != nil {
		return nil, err
	}
	return runtime.NewUint(runtime.SizeOf(operand), 64), nil
}

//-----------------------------------------------------------------------------
// Function dispatch
//-----------------------------------------------------------------------------

func (ip *Interpreter) callFunction(call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	fn, ok := ip.functions[call.Callee.Name]
	if !ok {
		return nil, ip.errAt(ErrUndefinedName, "unknown function '%s'", call.Callee.Name)
	}
	if fn.native != nil {
		return fn.native(ip, call, env)
	}
	return ip.callUserFunction(fn.def, call, env)
}

// callUserFunction binds evaluated arguments into a fresh frame parented to
// the global scope (template functions see globals, not their call site) and
// interprets the body. The frame is released on every exit path.
func (ip *Interpreter) callUserFunction(def *ast.FunctionDefinition, call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	if len(call.Arguments) != len(def.Parameters) {
		return nil, ip.errAt(ErrArity, "'%s' expects %d arguments, %d given",
			def.Name.Name, len(def.Parameters), len(call.Arguments))
	}
	frame := runtime.NewEnvironment(ip.global)
	for i, arg := range call.Arguments {
		val, err := ip.evaluateExpression(arg, env)
		if err != nil {
			return nil, err
		}
		bound, err := ip.bindParameter(def.Parameters[i], val)
		if err != nil {
			return nil, err
		}
		if err := frame.Define(def.Parameters[i].Name.Name, bound); err != nil {
			return nil, ip.errAt(ErrRedeclaration, "%s", err.Error())
		}
	}
	for _, stmt := range def.Body.Body {
		if _, err := ip.evaluateStatement(stmt, frame); err != nil {
			if ret, ok := err.(returnSignal); ok {
				return ret.value, nil
			}
			return nil, err
		}
	}
	return runtime.NewNull(), nil
}

// bindParameter converts scalar arguments to the declared parameter type;
// strings, arrays and composites bind by reference.
func (ip *Interpreter) bindParameter(param *ast.FunctionParameter, val runtime.Value) (runtime.Value, error) {
	t, err := ip.types.Resolve(param.TypeName)
	if err != nil {
		return nil, ip.errAt(ErrUndefinedName, "%s", err.Error())
	}
	if t.Kind == runtime.TypePrimitive && runtime.IsScalar(val) {
		out, err := runtime.Convert(val, t.Width, t.Signed, t.Float)
		if err != nil {
			return nil, ip.classify(err)
		}
		out.Meta().TypeName = param.TypeName
		return out, nil
	}
	if t.Kind == runtime.TypeString {
		if _, ok := val.(*runtime.StringValue); !ok {
			return nil, ip.errAt(ErrType, "parameter '%s' expects a string, got %s", param.Name.Name, val.Kind())
		}
	}
	return val, nil
}
