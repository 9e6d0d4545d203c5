package parser

import (
	"bt/interpreter-go/pkg/ast"
)

// castTypes are the primitive names the parser recognises in the
// "(type)expr" cast form. User typedefs convert through assignment instead.
var castTypes = map[string]bool{
	"char": true, "uchar": true, "byte": true, "ubyte": true,
	"short": true, "ushort": true, "int": true, "uint": true,
	"long": true, "ulong": true, "int16": true, "uint16": true,
	"int32": true, "uint32": true, "int64": true, "uint64": true,
	"quad": true, "uquad": true, "float": true, "double": true,
	"BYTE": true, "UBYTE": true, "CHAR": true, "UCHAR": true,
	"WORD": true, "UWORD": true, "SHORT": true, "USHORT": true,
	"DWORD": true, "UDWORD": true, "INT": true, "UINT": true,
	"LONG": true, "ULONG": true, "QWORD": true, "UQWORD": true,
	"INT64": true, "UINT64": true, "QUAD": true, "UQUAD": true,
	"FLOAT": true, "DOUBLE": true,
}

var assignmentOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"<<=": true, ">>=": true, "&=": true, "|=": true, "^=": true,
}

// binaryPrecedence orders the C operator tiers, loosest first.
var binaryPrecedence = [][]string{
	{"||"},
	{"&&"},
	{"|"},
	{"^"},
	{"&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *parser) parseExpression() (ast.Expression, error) {
	return p.parseAssignment()
}

func (p *parser) parseAssignment() (ast.Expression, error) {
	left, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	t := p.cur()
	if t.kind == tokenOperator && assignmentOps[t.text] {
		if !isLValue(left) {
			return nil, p.errorf("invalid assignment target")
		}
		p.advance()
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return ast.AssignOp(t.text, left, right), nil
	}
	return left, nil
}

func isLValue(expr ast.Expression) bool {
	switch expr.(type) {
	case *ast.Identifier, *ast.MemberAccessExpression, *ast.IndexExpression:
		return true
	default:
		return false
	}
}

func (p *parser) parseTernary() (ast.Expression, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if !p.acceptOp("?") {
		return cond, nil
	}
	cons, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	alt, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return ast.Ternary(cond, cons, alt), nil
}

func (p *parser) parseBinary(level int) (ast.Expression, error) {
	if level >= len(binaryPrecedence) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		t := p.cur()
		if t.kind != tokenOperator || !contains(binaryPrecedence[level], t.text) {
			return left, nil
		}
		p.advance()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = ast.Bin(t.text, left, right)
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func (p *parser) parseUnary() (ast.Expression, error) {
	t := p.cur()
	if t.kind == tokenOperator {
		switch t.text {
		case "-", "!", "~":
			p.advance()
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return ast.Unary(t.text, operand), nil
		case "++", "--":
			p.advance()
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			if !isLValue(operand) {
				return nil, p.errorf("'%s' needs an assignable operand", t.text)
			}
			return ast.Update(t.text, operand, true), nil
		case "(":
			// "(type)expr" casts only apply to known primitive names.
			if p.peekAt(1).kind == tokenIdentifier && castTypes[p.peekAt(1).text] &&
				p.peekAt(2).kind == tokenOperator && p.peekAt(2).text == ")" {
				p.advance()
				typeName, _ := p.expectIdentifier()
				p.advance() // ")"
				operand, err := p.parseUnary()
				if err != nil {
					return nil, err
				}
				return ast.Cast(typeName, operand), nil
			}
		}
	}
	if p.isKeyword("sizeof") {
		p.advance()
		if err := p.expectOp("("); err != nil {
			return nil, err
		}
		// A lone identifier may name a type or a value; the evaluator
		// treats it as a type only when no variable of that name is bound.
		operand, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return ast.SizeofExpr(operand), nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (ast.Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.cur()
		if t.kind != tokenOperator {
			return expr, nil
		}
		switch t.text {
		case "(":
			callee, ok := expr.(*ast.Identifier)
			if !ok {
				return nil, p.errorf("only named functions can be called")
			}
			p.advance()
			var args []ast.Expression
			if !p.isOp(")") {
				for {
					arg, err := p.parseExpression()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if !p.acceptOp(",") {
						break
					}
				}
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			expr = ast.Call(callee.Name, args...)
		case ".":
			p.advance()
			member, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			expr = ast.Member(expr, member)
		case "[":
			p.advance()
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp("]"); err != nil {
				return nil, err
			}
			expr = ast.Index(expr, index)
		case "++", "--":
			if !isLValue(expr) {
				return expr, nil
			}
			p.advance()
			expr = ast.Update(t.text, expr, false)
		default:
			return expr, nil
		}
	}
}

func (p *parser) parsePrimary() (ast.Expression, error) {
	t := p.cur()
	switch t.kind {
	case tokenInteger:
		p.advance()
		lit := ast.Int(t.intVal)
		lit.Unsigned = t.unsigned
		return lit, nil
	case tokenFloat:
		p.advance()
		return ast.Float(t.floatVal), nil
	case tokenString:
		p.advance()
		return ast.Str(t.strVal), nil
	case tokenChar:
		p.advance()
		return ast.Char(t.charVal), nil
	case tokenIdentifier:
		p.advance()
		return ast.ID(t.text), nil
	case tokenKeyword:
		switch t.text {
		case "true":
			p.advance()
			return ast.Bool(true), nil
		case "false":
			p.advance()
			return ast.Bool(false), nil
		}
	case tokenOperator:
		if t.text == "(" {
			p.advance()
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return expr, nil
		}
	}
	return nil, p.errorf("unexpected token %q", t.text)
}
