package ast

// Constructor helpers. Tests and the parser build nodes through these so the
// discriminator is always filled in.

func ID(name string) *Identifier {
	return &Identifier{nodeImpl: newNodeImpl(NodeIdentifier), Name: name}
}

func Int(value int64) *IntegerLiteral {
	return &IntegerLiteral{nodeImpl: newNodeImpl(NodeIntegerLiteral), Value: value}
}

func UInt(value int64) *IntegerLiteral {
	return &IntegerLiteral{nodeImpl: newNodeImpl(NodeIntegerLiteral), Value: value, Unsigned: true}
}

func Float(value float64) *FloatLiteral {
	return &FloatLiteral{nodeImpl: newNodeImpl(NodeFloatLiteral), Value: value}
}

func Str(value string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral), Value: value}
}

func Char(value byte) *CharLiteral {
	return &CharLiteral{nodeImpl: newNodeImpl(NodeCharLiteral), Value: value}
}

func Bool(value bool) *BooleanLiteral {
	return &BooleanLiteral{nodeImpl: newNodeImpl(NodeBooleanLiteral), Value: value}
}

func Unary(op string, operand Expression) *UnaryExpression {
	return &UnaryExpression{nodeImpl: newNodeImpl(NodeUnaryExpression), Operator: op, Operand: operand}
}

func Bin(op string, left, right Expression) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNodeImpl(NodeBinaryExpression), Operator: op, Left: left, Right: right}
}

func Ternary(cond, cons, alt Expression) *TernaryExpression {
	return &TernaryExpression{nodeImpl: newNodeImpl(NodeTernaryExpression), Condition: cond, Consequent: cons, Alternative: alt}
}

func Assign(target Expression, value Expression) *AssignmentExpression {
	return AssignOp("=", target, value)
}

func AssignOp(op string, target Expression, value Expression) *AssignmentExpression {
	return &AssignmentExpression{nodeImpl: newNodeImpl(NodeAssignmentExpr), Operator: op, Target: target, Value: value}
}

func Update(op string, target Expression, prefix bool) *UpdateExpression {
	return &UpdateExpression{nodeImpl: newNodeImpl(NodeUpdateExpression), Operator: op, Target: target, Prefix: prefix}
}

func Call(name string, args ...Expression) *CallExpression {
	return &CallExpression{nodeImpl: newNodeImpl(NodeCallExpression), Callee: ID(name), Arguments: args}
}

func Member(object Expression, member string) *MemberAccessExpression {
	return &MemberAccessExpression{nodeImpl: newNodeImpl(NodeMemberAccess), Object: object, Member: ID(member)}
}

func Index(object Expression, index Expression) *IndexExpression {
	return &IndexExpression{nodeImpl: newNodeImpl(NodeIndexExpression), Object: object, Index: index}
}

func Cast(typeName string, operand Expression) *CastExpression {
	return &CastExpression{nodeImpl: newNodeImpl(NodeCastExpression), TypeName: typeName, Operand: operand}
}

func SizeofType(typeName string) *SizeofExpression {
	return &SizeofExpression{nodeImpl: newNodeImpl(NodeSizeofExpression), TypeName: typeName}
}

func SizeofExpr(operand Expression) *SizeofExpression {
	return &SizeofExpression{nodeImpl: newNodeImpl(NodeSizeofExpression), Operand: operand}
}

func Block(body ...Statement) *BlockStatement {
	return &BlockStatement{nodeImpl: newNodeImpl(NodeBlockStatement), Body: body}
}

func ExprStmt(expr Expression) *ExpressionStatement {
	return &ExpressionStatement{nodeImpl: newNodeImpl(NodeExpressionStatement), Expression: expr}
}

func Decl(typeName, name string) *VarDeclaration {
	return &VarDeclaration{nodeImpl: newNodeImpl(NodeVarDeclaration), TypeName: typeName, Name: ID(name)}
}

func DeclArray(typeName, name string, length Expression) *VarDeclaration {
	d := Decl(typeName, name)
	d.ArrayLength = length
	return d
}

func DeclBits(typeName, name string, bits Expression) *VarDeclaration {
	d := Decl(typeName, name)
	d.BitWidth = bits
	return d
}

func Local(typeName, name string, init Expression) *VarDeclaration {
	d := Decl(typeName, name)
	d.Local = true
	d.Initializer = init
	return d
}

func Field(typeName, name string) *StructField {
	return &StructField{TypeName: typeName, Name: ID(name)}
}

func FieldArray(typeName, name string, length Expression) *StructField {
	f := Field(typeName, name)
	f.ArrayLength = length
	return f
}

func FieldBits(typeName, name string, bits Expression) *StructField {
	f := Field(typeName, name)
	f.BitWidth = bits
	return f
}

func StructDef(name string, fields ...*StructField) *StructDefinition {
	var id *Identifier
	if name != "" {
		id = ID(name)
	}
	return &StructDefinition{nodeImpl: newNodeImpl(NodeStructDefinition), Name: id, Fields: fields}
}

func UnionDef(name string, fields ...*StructField) *StructDefinition {
	d := StructDef(name, fields...)
	d.Union = true
	return d
}

func Enumer(name string, value Expression) *Enumerator {
	return &Enumerator{Name: ID(name), Value: value}
}

func EnumDef(name, underlying string, values ...*Enumerator) *EnumDefinition {
	var id *Identifier
	if name != "" {
		id = ID(name)
	}
	if underlying == "" {
		underlying = "int"
	}
	return &EnumDefinition{nodeImpl: newNodeImpl(NodeEnumDefinition), Name: id, Underlying: underlying, Values: values}
}

func Typedef(name, target string) *TypedefDefinition {
	return &TypedefDefinition{nodeImpl: newNodeImpl(NodeTypedefDefinition), Name: ID(name), Target: target}
}

func Param(typeName, name string) *FunctionParameter {
	return &FunctionParameter{TypeName: typeName, Name: ID(name)}
}

func FuncDef(name, returnType string, params []*FunctionParameter, body *BlockStatement) *FunctionDefinition {
	return &FunctionDefinition{
		nodeImpl:   newNodeImpl(NodeFunctionDefinition),
		Name:       ID(name),
		ReturnType: returnType,
		Parameters: params,
		Body:       body,
	}
}

func If(cond Expression, cons Statement, alt Statement) *IfStatement {
	return &IfStatement{nodeImpl: newNodeImpl(NodeIfStatement), Condition: cond, Consequent: cons, Alternative: alt}
}

func While(cond Expression, body Statement) *WhileStatement {
	return &WhileStatement{nodeImpl: newNodeImpl(NodeWhileStatement), Condition: cond, Body: body}
}

func DoWhile(body Statement, cond Expression) *DoWhileStatement {
	return &DoWhileStatement{nodeImpl: newNodeImpl(NodeDoWhileStatement), Body: body, Condition: cond}
}

func For(init Statement, cond Expression, update Expression, body Statement) *ForStatement {
	return &ForStatement{nodeImpl: newNodeImpl(NodeForStatement), Init: init, Condition: cond, Update: update, Body: body}
}

func Case(value Expression, body ...Statement) *CaseClause {
	return &CaseClause{nodeImpl: newNodeImpl(NodeCaseClause), Value: value, Body: body}
}

func Switch(discriminant Expression, cases ...*CaseClause) *SwitchStatement {
	return &SwitchStatement{nodeImpl: newNodeImpl(NodeSwitchStatement), Discriminant: discriminant, Cases: cases}
}

func Break() *BreakStatement {
	return &BreakStatement{nodeImpl: newNodeImpl(NodeBreakStatement)}
}

func Continue() *ContinueStatement {
	return &ContinueStatement{nodeImpl: newNodeImpl(NodeContinueStatement)}
}

func Return(argument Expression) *ReturnStatement {
	return &ReturnStatement{nodeImpl: newNodeImpl(NodeReturnStatement), Argument: argument}
}

func Tmpl(body ...Statement) *Template {
	return &Template{nodeImpl: newNodeImpl(NodeTemplate), Body: body}
}
