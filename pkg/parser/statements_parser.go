package parser

import (
	"bt/interpreter-go/pkg/ast"
)

func (p *parser) parseStatement() (ast.Statement, error) {
	t := p.cur()

	if t.kind == tokenKeyword {
		switch t.text {
		case "local":
			p.advance()
			return p.parseVarDeclaration(true)
		case "struct":
			p.advance()
			return p.parseStructDefinition(false, false)
		case "union":
			p.advance()
			return p.parseStructDefinition(true, false)
		case "enum":
			p.advance()
			return p.parseEnumDefinition(false)
		case "typedef":
			p.advance()
			return p.parseTypedef()
		case "void":
			p.advance()
			return p.parseFunctionDefinition("void")
		case "if":
			p.advance()
			return p.parseIfStatement()
		case "while":
			p.advance()
			return p.parseWhileStatement()
		case "do":
			p.advance()
			return p.parseDoWhileStatement()
		case "for":
			p.advance()
			return p.parseForStatement()
		case "switch":
			p.advance()
			return p.parseSwitchStatement()
		case "break":
			p.advance()
			if err := p.expectOp(";"); err != nil {
				return nil, err
			}
			return ast.Break(), nil
		case "continue":
			p.advance()
			if err := p.expectOp(";"); err != nil {
				return nil, err
			}
			return ast.Continue(), nil
		case "return":
			p.advance()
			return p.parseReturnStatement()
		}
	}

	if p.isOp("{") {
		return p.parseBlock()
	}
	if p.acceptOp(";") {
		return nil, nil
	}

	// "T name" opens a declaration or, with "(", a function definition.
	if t.kind == tokenIdentifier && p.peekAt(1).kind == tokenIdentifier {
		if p.peekAt(2).kind == tokenOperator && p.peekAt(2).text == "(" {
			typeName, _ := p.expectIdentifier()
			return p.parseFunctionDefinition(typeName)
		}
		return p.parseVarDeclaration(false)
	}

	return p.parseExpressionStatement()
}

func (p *parser) parseExpressionStatement() (ast.Statement, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(";"); err != nil {
		return nil, err
	}
	return ast.ExprStmt(expr), nil
}

func (p *parser) parseBlock() (*ast.BlockStatement, error) {
	if err := p.expectOp("{"); err != nil {
		return nil, err
	}
	var body []ast.Statement
	for !p.isOp("}") {
		if p.atEOF() {
			return nil, p.errorf("unterminated block")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			body = append(body, stmt)
		}
	}
	p.advance()
	return ast.Block(body...), nil
}

// parseVarDeclaration parses "T name;", "T name[expr];", "T name : bits;"
// and, for locals, "local T name = expr;". The leading "local" keyword was
// already consumed by the caller when local is true.
func (p *parser) parseVarDeclaration(local bool) (ast.Statement, error) {
	typeName, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	return p.parseDeclarator(typeName, local)
}

func (p *parser) parseDeclarator(typeName string, local bool) (*ast.VarDeclaration, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	decl := ast.Decl(typeName, name)
	decl.Local = local

	if p.acceptOp("[") {
		length, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("]"); err != nil {
			return nil, err
		}
		decl.ArrayLength = length
	} else if p.acceptOp(":") {
		bits, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		decl.BitWidth = bits
	}

	if p.acceptOp("=") {
		if !local {
			return nil, p.errorf("only local variables take an initializer")
		}
		init, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		decl.Initializer = init
	}
	if err := p.expectOp(";"); err != nil {
		return nil, err
	}
	return decl, nil
}

// parseStructDefinition handles "struct Name { ... } inst;" and the
// body-less reference form "struct Name inst;". When isTypedef is set the
// identifier trailing the body names the type instead of an instance.
func (p *parser) parseStructDefinition(union bool, isTypedef bool) (ast.Statement, error) {
	name := ""
	if p.cur().kind == tokenIdentifier {
		name, _ = p.expectIdentifier()
	}

	if !p.isOp("{") {
		if isTypedef {
			return nil, p.errorf("typedef of %s needs a body", structKeyword(union))
		}
		if name == "" {
			return nil, p.errorf("%s declaration needs a name or a body", structKeyword(union))
		}
		// Reference form: declare a variable of the existing type.
		return p.parseDeclarator(name, false)
	}

	p.advance() // "{"
	var fields []*ast.StructField
	for !p.isOp("}") {
		if p.atEOF() {
			return nil, p.errorf("unterminated %s body", structKeyword(union))
		}
		field, err := p.parseStructField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	p.advance() // "}"

	def := ast.StructDef(name, fields...)
	def.Union = union

	if isTypedef {
		typeName, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		def.Name = ast.ID(typeName)
		if err := p.expectOp(";"); err != nil {
			return nil, err
		}
		return def, nil
	}

	if p.cur().kind == tokenIdentifier {
		inst, err := p.parseDeclarator(name, false)
		if err != nil {
			return nil, err
		}
		def.Instance = inst
		return def, nil
	}
	if err := p.expectOp(";"); err != nil {
		return nil, err
	}
	return def, nil
}

func structKeyword(union bool) string {
	if union {
		return "union"
	}
	return "struct"
}

func (p *parser) parseStructField() (*ast.StructField, error) {
	typeName, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	field := ast.Field(typeName, name)

	if p.acceptOp("[") {
		length, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("]"); err != nil {
			return nil, err
		}
		field.ArrayLength = length
	} else if p.acceptOp(":") {
		bits, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		field.BitWidth = bits
	}
	if err := p.expectOp(";"); err != nil {
		return nil, err
	}
	return field, nil
}

// parseEnumDefinition handles "enum <type> Name { A, B = 2 } inst;" with
// every piece but the body optional. Without a body the name is required and
// the form declares an instance of that enum ("enum Name inst;").
func (p *parser) parseEnumDefinition(isTypedef bool) (ast.Statement, error) {
	underlying := "int"
	if p.acceptOp("<") {
		u, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		underlying = u
		if err := p.expectOp(">"); err != nil {
			return nil, err
		}
	}

	name := ""
	if p.cur().kind == tokenIdentifier {
		name, _ = p.expectIdentifier()
	}

	if !p.isOp("{") {
		if name == "" || isTypedef {
			return nil, p.errorf("enum declaration needs a body")
		}
		return p.parseDeclarator(name, false)
	}
	p.advance() // "{"

	var values []*ast.Enumerator
	for !p.isOp("}") {
		if p.atEOF() {
			return nil, p.errorf("unterminated enum body")
		}
		entry, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		enumer := ast.Enumer(entry, nil)
		if p.acceptOp("=") {
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			enumer.Value = value
		}
		values = append(values, enumer)
		if !p.acceptOp(",") {
			break
		}
	}
	if err := p.expectOp("}"); err != nil {
		return nil, err
	}

	def := ast.EnumDef(name, underlying, values...)
	if isTypedef {
		typeName, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		def.Name = ast.ID(typeName)
		if err := p.expectOp(";"); err != nil {
			return nil, err
		}
		return def, nil
	}
	if p.cur().kind == tokenIdentifier {
		inst, err := p.parseDeclarator(name, false)
		if err != nil {
			return nil, err
		}
		def.Instance = inst
		return def, nil
	}
	if err := p.expectOp(";"); err != nil {
		return nil, err
	}
	return def, nil
}

// parseTypedef supports "typedef T Name;" and the composite forms
// "typedef struct { ... } Name;".
func (p *parser) parseTypedef() (ast.Statement, error) {
	if p.acceptKeyword("struct") {
		return p.parseStructDefinition(false, true)
	}
	if p.acceptKeyword("union") {
		return p.parseStructDefinition(true, true)
	}
	if p.acceptKeyword("enum") {
		return p.parseEnumDefinition(true)
	}

	target, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(";"); err != nil {
		return nil, err
	}
	return ast.Typedef(name, target), nil
}

func (p *parser) parseFunctionDefinition(returnType string) (ast.Statement, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp("("); err != nil {
		return nil, err
	}

	var params []*ast.FunctionParameter
	if !p.isOp(")") {
		if !p.acceptKeyword("void") {
			for {
				typeName, err := p.expectIdentifier()
				if err != nil {
					return nil, err
				}
				paramName, err := p.expectIdentifier()
				if err != nil {
					return nil, err
				}
				params = append(params, ast.Param(typeName, paramName))
				if !p.acceptOp(",") {
					break
				}
			}
		}
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.FuncDef(name, returnType, params, body), nil
}

func (p *parser) parseIfStatement() (ast.Statement, error) {
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	cons, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	var alt ast.Statement
	if p.acceptKeyword("else") {
		alt, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return ast.If(cond, cons, alt), nil
}

func (p *parser) parseWhileStatement() (ast.Statement, error) {
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.While(cond, body), nil
}

func (p *parser) parseDoWhileStatement() (ast.Statement, error) {
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if !p.acceptKeyword("while") {
		return nil, p.errorf("expected 'while' after do body")
	}
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	if err := p.expectOp(";"); err != nil {
		return nil, err
	}
	return ast.DoWhile(body, cond), nil
}

func (p *parser) parseForStatement() (ast.Statement, error) {
	if err := p.expectOp("("); err != nil {
		return nil, err
	}

	var init ast.Statement
	if !p.isOp(";") {
		var err error
		if p.isKeyword("local") {
			p.advance()
			init, err = p.parseVarDeclaration(true)
		} else {
			expr, exprErr := p.parseExpression()
			if exprErr != nil {
				return nil, exprErr
			}
			init = ast.ExprStmt(expr)
			err = p.expectOp(";")
		}
		if err != nil {
			return nil, err
		}
	} else {
		p.advance()
	}

	var cond ast.Expression
	if !p.isOp(";") {
		var err error
		cond, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectOp(";"); err != nil {
		return nil, err
	}

	var update ast.Expression
	if !p.isOp(")") {
		var err error
		update, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.For(init, cond, update, body), nil
}

func (p *parser) parseSwitchStatement() (ast.Statement, error) {
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	disc, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	if err := p.expectOp("{"); err != nil {
		return nil, err
	}

	var cases []*ast.CaseClause
	for !p.isOp("}") {
		if p.atEOF() {
			return nil, p.errorf("unterminated switch body")
		}
		var clause *ast.CaseClause
		if p.acceptKeyword("case") {
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			clause = ast.Case(value)
		} else if p.acceptKeyword("default") {
			clause = ast.Case(nil)
		} else {
			return nil, p.errorf("expected 'case' or 'default', found %q", p.cur().text)
		}
		if err := p.expectOp(":"); err != nil {
			return nil, err
		}
		for !p.isKeyword("case") && !p.isKeyword("default") && !p.isOp("}") {
			if p.atEOF() {
				return nil, p.errorf("unterminated switch body")
			}
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			if stmt != nil {
				clause.Body = append(clause.Body, stmt)
			}
		}
		cases = append(cases, clause)
	}
	p.advance() // "}"
	return ast.Switch(disc, cases...), nil
}

func (p *parser) parseReturnStatement() (ast.Statement, error) {
	if p.acceptOp(";") {
		return ast.Return(nil), nil
	}
	arg, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(";"); err != nil {
		return nil, err
	}
	return ast.Return(arg), nil
}
