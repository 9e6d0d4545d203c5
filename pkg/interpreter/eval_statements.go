package interpreter

import (
	"bt/interpreter-go/pkg/ast"
	"bt/interpreter-go/pkg/runtime"
)

func (ip *Interpreter) evaluateStatement(node ast.Statement, env *runtime.Environment) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.ExpressionStatement:
		return ip.evaluateExpression(n.Expression, env)
	case *ast.VarDeclaration:
		return ip.evaluateVarDeclaration(n, env)
	case *ast.StructDefinition:
		return ip.evaluateStructDefinition(n, env)
	case *ast.EnumDefinition:
		return ip.evaluateEnumDefinition(n, env)
	case *ast.TypedefDefinition:
		return ip.evaluateTypedefDefinition(n)
	case *ast.FunctionDefinition:
		return ip.evaluateFunctionDefinition(n)
	case *ast.BlockStatement:
		return ip.evaluateBlock(n, env)
	case *ast.IfStatement:
		return ip.evaluateIfStatement(n, env)
	case *ast.WhileStatement:
		return ip.evaluateWhileStatement(n, env)
	case *ast.DoWhileStatement:
		return ip.evaluateDoWhileStatement(n, env)
	case *ast.ForStatement:
		return ip.evaluateForStatement(n, env)
	case *ast.SwitchStatement:
		return ip.evaluateSwitchStatement(n, env)
	case *ast.BreakStatement:
		return nil, breakSignal{}
	case *ast.ContinueStatement:
		return nil, continueSignal{}
	case *ast.ReturnStatement:
		return ip.evaluateReturnStatement(n, env)
	case ast.Expression:
		return ip.evaluateExpression(n, env)
	default:
		return nil, ip.errAt(ErrType, "unsupported statement type: %s", n.NodeType())
	}
}

// evaluateBlock runs the body in a child scope released on every exit path.
// Colors set inside the block do not leak past it.
func (ip *Interpreter) evaluateBlock(block *ast.BlockStatement, env *runtime.Environment) (runtime.Value, error) {
	scope := runtime.NewEnvironment(env)
	fg, bg := ip.fgColor, ip.bgColor
	defer func() {
		ip.fgColor, ip.bgColor = fg, bg
	}()

	var result runtime.Value = runtime.NewNull()
	for _, stmt := range block.Body {
		val, err := ip.evaluateStatement(stmt, scope)
		if err != nil {
			return nil, err
		}
		result = val
	}
	return result, nil
}

// evaluateBody treats a single statement as a block body, so "if (c) x;"
// still gets its own scope.
func (ip *Interpreter) evaluateBody(stmt ast.Statement, env *runtime.Environment) (runtime.Value, error) {
	if block, ok := stmt.(*ast.BlockStatement); ok {
		return ip.evaluateBlock(block, env)
	}
	scope := runtime.NewEnvironment(env)
	return ip.evaluateStatement(stmt, scope)
}

func (ip *Interpreter) evaluateIfStatement(stmt *ast.IfStatement, env *runtime.Environment) (runtime.Value, error) {
	cond, err := ip.evaluateExpression(stmt.Condition, env)
	if err != nil {
		return nil, err
	}
	if runtime.Truthy(cond) {
		return ip.evaluateBody(stmt.Consequent, env)
	}
	if stmt.Alternative != nil {
		return ip.evaluateBody(stmt.Alternative, env)
	}
	return runtime.NewNull(), nil
}

func (ip *Interpreter) evaluateWhileStatement(loop *ast.WhileStatement, env *runtime.Environment) (runtime.Value, error) {
	var result runtime.Value = runtime.NewNull()
	for {
		cond, err := ip.evaluateExpression(loop.Condition, env)
		if err != nil {
			return nil, err
		}
		if !runtime.Truthy(cond) {
			return result, nil
		}
		val, err := ip.evaluateBody(loop.Body, env)
		if err != nil {
			switch err.(type) {
			case breakSignal:
				return result, nil
			case continueSignal:
				continue
			default:
				return nil, err
			}
		}
		result = val
	}
}

func (ip *Interpreter) evaluateDoWhileStatement(loop *ast.DoWhileStatement, env *runtime.Environment) (runtime.Value, error) {
	var result runtime.Value = runtime.NewNull()
	for {
		val, err := ip.evaluateBody(loop.Body, env)
		if err != nil {
			switch err.(type) {
			case breakSignal:
				return result, nil
			case continueSignal:
			default:
				return nil, err
			}
		} else {
			result = val
		}
		cond, err := ip.evaluateExpression(loop.Condition, env)
		if err != nil {
			return nil, err
		}
		if !runtime.Truthy(cond) {
			return result, nil
		}
	}
}

func (ip *Interpreter) evaluateForStatement(loop *ast.ForStatement, env *runtime.Environment) (runtime.Value, error) {
	scope := runtime.NewEnvironment(env)
	if loop.Init != nil {
		if _, err := ip.evaluateStatement(loop.Init, scope); err != nil {
			return nil, err
		}
	}
	var result runtime.Value = runtime.NewNull()
	for {
		if loop.Condition != nil {
			cond, err := ip.evaluateExpression(loop.Condition, scope)
			if err != nil {
				return nil, err
			}
			if !runtime.Truthy(cond) {
				return result, nil
			}
		}
		val, err := ip.evaluateBody(loop.Body, scope)
		if err != nil {
			switch err.(type) {
			case breakSignal:
				return result, nil
			case continueSignal:
			default:
				return nil, err
			}
		} else {
			result = val
		}
		if loop.Update != nil {
			if _, err := ip.evaluateExpression(loop.Update, scope); err != nil {
				return nil, err
			}
		}
	}
}

// evaluateSwitchStatement matches the discriminant against case values in
// order, falls through until break, and runs default when nothing matched.
func (ip *Interpreter) evaluateSwitchStatement(stmt *ast.SwitchStatement, env *runtime.Environment) (runtime.Value, error) {
	disc, err := ip.evaluateExpression(stmt.Discriminant, env)
	if err != nil {
		return nil, err
	}

	matched := -1
	defaultIdx := -1
	for idx, clause := range stmt.Cases {
		if clause.Value == nil {
			defaultIdx = idx
			continue
		}
		caseVal, err := ip.evaluateExpression(clause.Value, env)
		if err != nil {
			return nil, err
		}
		eq, err := runtime.BinaryOp("==", disc, caseVal)
		if err != nil {
			return nil, ip.classify(err)
		}
		if runtime.Truthy(eq) {
			matched = idx
			break
		}
	}
	if matched < 0 {
		matched = defaultIdx
	}
	if matched < 0 {
		return runtime.NewNull(), nil
	}

	scope := runtime.NewEnvironment(env)
	for _, clause := range stmt.Cases[matched:] {
		for _, inner := range clause.Body {
			if _, err := ip.evaluateStatement(inner, scope); err != nil {
				if _, ok := err.(breakSignal); ok {
					return runtime.NewNull(), nil
				}
				return nil, err
			}
		}
	}
	return runtime.NewNull(), nil
}

func (ip *Interpreter) evaluateReturnStatement(stmt *ast.ReturnStatement, env *runtime.Environment) (runtime.Value, error) {
	var val runtime.Value = runtime.NewNull()
	if stmt.Argument != nil {
		v, err := ip.evaluateExpression(stmt.Argument, env)
		if err != nil {
			return nil, err
		}
		val = v
	}
	return nil, returnSignal{value: val}
}

//-----------------------------------------------------------------------------
// Type and function definitions
//-----------------------------------------------------------------------------

func (ip *Interpreter) evaluateStructDefinition(def *ast.StructDefinition, env *runtime.Environment) (runtime.Value, error) {
	kind := runtime.TypeStruct
	if def.Union {
		kind = runtime.TypeUnion
	}
	name := ""
	if def.Name != nil {
		name = def.Name.Name
	}
	if name == "" && def.Instance == nil {
		return nil, ip.errAt(ErrType, "anonymous %s declares no variable", structKindName(def.Union))
	}
	if name == "" {
		// Anonymous definitions with a declarator get a synthetic name so
		// the instance declaration can resolve it.
		name = "(anonymous " + structKindName(def.Union) + " " + def.Instance.Name.Name + ")"
	}
	t := &runtime.Type{Name: name, Kind: kind, Fields: def.Fields}
	if err := ip.types.Declare(t); err != nil {
		return nil, ip.errAt(ErrRedeclaration, "%s", err.Error())
	}
	if def.Instance != nil {
		inst := *def.Instance
		inst.TypeName = name
		return ip.evaluateVarDeclaration(&inst, env)
	}
	return runtime.NewNull(), nil
}

func structKindName(union bool) string {
	if union {
		return "union"
	}
	return "struct"
}

// evaluateEnumDefinition registers the enum type and binds each enumerator
// as a constant in the enclosing scope, per C.
func (ip *Interpreter) evaluateEnumDefinition(def *ast.EnumDefinition, env *runtime.Environment) (runtime.Value, error) {
	underlying, err := ip.types.Resolve(def.Underlying)
	if err != nil {
		return nil, ip.errAt(ErrUndefinedName, "%s", err.Error())
	}
	if underlying.Kind != runtime.TypePrimitive || underlying.Float {
		return nil, ip.errAt(ErrType, "enum underlying type '%s' is not an integer", def.Underlying)
	}

	name := ""
	if def.Name != nil {
		name = def.Name.Name
	}
	if name == "" && def.Instance != nil {
		name = "(anonymous enum " + def.Instance.Name.Name + ")"
	}

	next := int64(0)
	members := make([]runtime.EnumMember, 0, len(def.Values))
	for _, e := range def.Values {
		if e.Value != nil {
			v, err := ip.evaluateExpression(e.Value, env)
			if err != nil {
				return nil, err
			}
			iv, ok := scalarInt(v)
			if !ok {
				return nil, ip.errAt(ErrType, "enumerator '%s' needs a constant integer", e.Name.Name)
			}
			next = iv
		}
		members = append(members, runtime.EnumMember{Name: e.Name.Name, Value: next})
		constant := runtime.NewEnum(next, underlying.Width, underlying.Signed, e.Name.Name)
		constant.Meta().TypeName = name
		if err := env.Define(e.Name.Name, constant); err != nil {
			return nil, ip.errAt(ErrRedeclaration, "%s", err.Error())
		}
		next++
	}

	if name != "" {
		t := &runtime.Type{Name: name, Kind: runtime.TypeEnum, Underlying: def.Underlying, Members: members}
		if err := ip.types.Declare(t); err != nil {
			return nil, ip.errAt(ErrRedeclaration, "%s", err.Error())
		}
	}
	if def.Instance != nil {
		inst := *def.Instance
		inst.TypeName = name
		return ip.evaluateVarDeclaration(&inst, env)
	}
	return runtime.NewNull(), nil
}

func (ip *Interpreter) evaluateTypedefDefinition(def *ast.TypedefDefinition) (runtime.Value, error) {
	if _, ok := ip.types.Lookup(def.Target); !ok {
		return nil, ip.errAt(ErrUndefinedName, "unknown type '%s'", def.Target)
	}
	t := &runtime.Type{Name: def.Name.Name, Kind: runtime.TypeAlias, Target: def.Target}
	if err := ip.types.Declare(t); err != nil {
		return nil, ip.errAt(ErrRedeclaration, "%s", err.Error())
	}
	return runtime.NewNull(), nil
}

func (ip *Interpreter) evaluateFunctionDefinition(def *ast.FunctionDefinition) (runtime.Value, error) {
	name := def.Name.Name
	if _, ok := ip.functions[name]; ok {
		return nil, ip.errAt(ErrRedeclaration, "function '%s' is already defined", name)
	}
	ip.functions[name] = &function{def: def}
	return runtime.NewNull(), nil
}

func scalarInt(v runtime.Value) (int64, bool) {
	switch val := v.(type) {
	case *runtime.IntegerValue:
		return val.Int64(), true
	case *runtime.EnumValue:
		return val.Int64(), true
	case *runtime.BoolValue:
		if val.Val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
