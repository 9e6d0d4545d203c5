package parser

import (
	"testing"

	"bt/interpreter-go/pkg/ast"
)

func parseOne(t *testing.T, source string) ast.Statement {
	t.Helper()
	tmpl, err := Parse(source)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(tmpl.Body) != 1 {
		t.Fatalf("expected one statement, got %d", len(tmpl.Body))
	}
	return tmpl.Body[0]
}

func TestParseScalarDeclaration(t *testing.T) {
	decl, ok := parseOne(t, "uint32 size;").(*ast.VarDeclaration)
	if !ok {
		t.Fatalf("expected VarDeclaration")
	}
	if decl.TypeName != "uint32" || decl.Name.Name != "size" || decl.Local {
		t.Fatalf("unexpected declaration %#v", decl)
	}
}

func TestParseArrayDeclaration(t *testing.T) {
	decl := parseOne(t, "char magic[4];").(*ast.VarDeclaration)
	length, ok := decl.ArrayLength.(*ast.IntegerLiteral)
	if !ok || length.Value != 4 {
		t.Fatalf("unexpected array length %#v", decl.ArrayLength)
	}
}

func TestParseLocalWithInitializer(t *testing.T) {
	decl := parseOne(t, "local int n = FTell();").(*ast.VarDeclaration)
	if !decl.Local {
		t.Fatalf("expected local flag")
	}
	call, ok := decl.Initializer.(*ast.CallExpression)
	if !ok || call.Callee.Name != "FTell" {
		t.Fatalf("unexpected initializer %#v", decl.Initializer)
	}
}

func TestFileVariableInitializerRejected(t *testing.T) {
	if _, err := Parse("int n = 3;"); err == nil {
		t.Fatalf("expected parse error for initialized file variable")
	}
}

func TestParseStructWithInstance(t *testing.T) {
	def := parseOne(t, "struct P { uchar x; uchar y; } p[3];").(*ast.StructDefinition)
	if def.Name.Name != "P" || def.Union {
		t.Fatalf("unexpected definition %#v", def)
	}
	if len(def.Fields) != 2 || def.Fields[1].Name.Name != "y" {
		t.Fatalf("unexpected fields %#v", def.Fields)
	}
	if def.Instance == nil || def.Instance.Name.Name != "p" || def.Instance.ArrayLength == nil {
		t.Fatalf("unexpected instance %#v", def.Instance)
	}
}

func TestParseUnionAndBitfields(t *testing.T) {
	def := parseOne(t, "union U { uint full; ushort lo : 4; } u;").(*ast.StructDefinition)
	if !def.Union {
		t.Fatalf("expected union")
	}
	if def.Fields[1].BitWidth == nil {
		t.Fatalf("expected bitfield width on second field")
	}
}

func TestParseStructReferenceForm(t *testing.T) {
	decl := parseOne(t, "struct Header hdr;").(*ast.VarDeclaration)
	if decl.TypeName != "Header" || decl.Name.Name != "hdr" {
		t.Fatalf("unexpected declaration %#v", decl)
	}
}

func TestParseEnumWithUnderlying(t *testing.T) {
	def := parseOne(t, "enum <ushort> Kind { A, B = 5, C } k;").(*ast.EnumDefinition)
	if def.Underlying != "ushort" || def.Name.Name != "Kind" {
		t.Fatalf("unexpected enum %#v", def)
	}
	if len(def.Values) != 3 || def.Values[1].Value == nil || def.Values[0].Value != nil {
		t.Fatalf("unexpected enumerators %#v", def.Values)
	}
	if def.Instance == nil || def.Instance.Name.Name != "k" {
		t.Fatalf("expected instance declaration")
	}
}

func TestParseTypedefForms(t *testing.T) {
	alias := parseOne(t, "typedef uint DWORD_LE;").(*ast.TypedefDefinition)
	if alias.Name.Name != "DWORD_LE" || alias.Target != "uint" {
		t.Fatalf("unexpected typedef %#v", alias)
	}

	def := parseOne(t, "typedef struct { uchar a; } Wrapped;").(*ast.StructDefinition)
	if def.Name.Name != "Wrapped" || def.Instance != nil {
		t.Fatalf("unexpected typedef struct %#v", def)
	}
}

func TestParseFunctionDefinition(t *testing.T) {
	def := parseOne(t, "int add(int a, int b) { return a + b; }").(*ast.FunctionDefinition)
	if def.ReturnType != "int" || def.Name.Name != "add" {
		t.Fatalf("unexpected function %#v", def)
	}
	if len(def.Parameters) != 2 || def.Parameters[1].Name.Name != "b" {
		t.Fatalf("unexpected parameters %#v", def.Parameters)
	}
	ret, ok := def.Body.Body[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("expected return statement")
	}
	if _, ok := ret.Argument.(*ast.BinaryExpression); !ok {
		t.Fatalf("expected binary expression argument")
	}
}

func TestParseVoidFunction(t *testing.T) {
	def := parseOne(t, "void log(void) { Printf(\"x\"); }").(*ast.FunctionDefinition)
	if def.ReturnType != "void" || len(def.Parameters) != 0 {
		t.Fatalf("unexpected function %#v", def)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	stmt := parseOne(t, "local int x = 1 + 2 * 3;").(*ast.VarDeclaration)
	add, ok := stmt.Initializer.(*ast.BinaryExpression)
	if !ok || add.Operator != "+" {
		t.Fatalf("expected + at the root, got %#v", stmt.Initializer)
	}
	mul, ok := add.Right.(*ast.BinaryExpression)
	if !ok || mul.Operator != "*" {
		t.Fatalf("expected * to bind tighter, got %#v", add.Right)
	}
}

func TestShiftBindsLooserThanAdditive(t *testing.T) {
	stmt := parseOne(t, "local int x = 1 << 2 + 3;").(*ast.VarDeclaration)
	shift := stmt.Initializer.(*ast.BinaryExpression)
	if shift.Operator != "<<" {
		t.Fatalf("expected << at the root, got %q", shift.Operator)
	}
	if add := shift.Right.(*ast.BinaryExpression); add.Operator != "+" {
		t.Fatalf("expected + on the right, got %q", add.Operator)
	}
}

func TestTernaryAndLogical(t *testing.T) {
	stmt := parseOne(t, "local int x = a && b ? 1 : 2;").(*ast.VarDeclaration)
	tern, ok := stmt.Initializer.(*ast.TernaryExpression)
	if !ok {
		t.Fatalf("expected ternary, got %#v", stmt.Initializer)
	}
	if _, ok := tern.Condition.(*ast.BinaryExpression); !ok {
		t.Fatalf("expected && condition")
	}
}

func TestPostfixChains(t *testing.T) {
	stmt := parseOne(t, "p[1].y = 4;").(*ast.ExpressionStatement)
	assign := stmt.Expression.(*ast.AssignmentExpression)
	member, ok := assign.Target.(*ast.MemberAccessExpression)
	if !ok || member.Member.Name != "y" {
		t.Fatalf("unexpected target %#v", assign.Target)
	}
	if _, ok := member.Object.(*ast.IndexExpression); !ok {
		t.Fatalf("expected index below the member access")
	}
}

func TestUpdateExpressions(t *testing.T) {
	stmt := parseOne(t, "i++;").(*ast.ExpressionStatement)
	update := stmt.Expression.(*ast.UpdateExpression)
	if update.Prefix || update.Operator != "++" {
		t.Fatalf("unexpected update %#v", update)
	}
	stmt = parseOne(t, "--i;").(*ast.ExpressionStatement)
	update = stmt.Expression.(*ast.UpdateExpression)
	if !update.Prefix || update.Operator != "--" {
		t.Fatalf("unexpected update %#v", update)
	}
}

func TestCastOnlyForKnownPrimitives(t *testing.T) {
	stmt := parseOne(t, "local int x = (char)300;").(*ast.VarDeclaration)
	cast, ok := stmt.Initializer.(*ast.CastExpression)
	if !ok || cast.TypeName != "char" {
		t.Fatalf("expected cast, got %#v", stmt.Initializer)
	}

	// "(expr)" of an unknown name stays a parenthesized expression.
	tmpl, err := Parse("local int y = (waldo);")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	decl := tmpl.Body[0].(*ast.VarDeclaration)
	if _, ok := decl.Initializer.(*ast.Identifier); !ok {
		t.Fatalf("expected identifier, got %#v", decl.Initializer)
	}
}

func TestParseControlFlow(t *testing.T) {
	source := `
if (x > 0) { y = 1; } else y = 2;
while (x) x--;
do { x++; } while (x < 3);
for (i = 0; i < 10; i++) Printf("%d", i);
switch (x) { case 1: break; default: y = 0; }
`
	tmpl, err := Parse(source)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(tmpl.Body) != 5 {
		t.Fatalf("expected 5 statements, got %d", len(tmpl.Body))
	}
	kinds := []ast.NodeType{
		ast.NodeIfStatement, ast.NodeWhileStatement, ast.NodeDoWhileStatement,
		ast.NodeForStatement, ast.NodeSwitchStatement,
	}
	for i, want := range kinds {
		if got := tmpl.Body[i].NodeType(); got != want {
			t.Fatalf("statement %d: expected %s, got %s", i, want, got)
		}
	}
}

func TestCommentsAndLiterals(t *testing.T) {
	source := `
// line comment
/* block
   comment */
local int hex = 0xFF;
local float f = 1.5e3;
local char c = 'A';
local string s = "tab\there";
`
	tmpl, err := Parse(source)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	hex := tmpl.Body[0].(*ast.VarDeclaration).Initializer.(*ast.IntegerLiteral)
	if hex.Value != 255 {
		t.Fatalf("expected 255, got %d", hex.Value)
	}
	f := tmpl.Body[1].(*ast.VarDeclaration).Initializer.(*ast.FloatLiteral)
	if f.Value != 1500 {
		t.Fatalf("expected 1500, got %g", f.Value)
	}
	c := tmpl.Body[2].(*ast.VarDeclaration).Initializer.(*ast.CharLiteral)
	if c.Value != 'A' {
		t.Fatalf("expected 'A', got %q", c.Value)
	}
	s := tmpl.Body[3].(*ast.VarDeclaration).Initializer.(*ast.StringLiteral)
	if s.Value != "tab\there" {
		t.Fatalf("unexpected string %q", s.Value)
	}
}

func TestParseErrorsCarryPosition(t *testing.T) {
	_, err := Parse("struct {")
	if err == nil {
		t.Fatalf("expected parse error")
	}
	perr, ok := err.(*parseError)
	if !ok {
		t.Fatalf("expected *parseError, got %T", err)
	}
	if perr.line != 1 {
		t.Fatalf("expected line 1, got %d", perr.line)
	}
}

func TestUnterminatedStringFails(t *testing.T) {
	if _, err := Parse(`Printf("oops`); err == nil {
		t.Fatalf("expected lex error")
	}
}
