// Package parser implements the PowLang parser.
package parser

import (
	"fmt"
	"strconv"

	"github.com/powlang/powlang/pkg/ast"
	"github.com/powlang/powlang/pkg/diagnostics"
	"github.com/powlang/powlang/pkg/lexer"
)

// Grammar rule names reported in syntax errors.
const (
	ruleProgram   = "program"
	ruleVarDecl   = "variable declaration"
	ruleShow      = "show statement"
	ruleWhen      = "when loop"
	ruleAla       = "ala conditional"
	ruleBlock     = "block"
	ruleExpr      = "expression"
	ruleTernary   = "ternary expression"
	ruleGrouping  = "grouping"
	ruleTypeOf    = "type expression"
	ruleAssign    = "assignment"
	whenLoopShape = "when <condition> :: <step> => { ... }"
)

// SyntaxError reports the first grammar violation in a program.
type SyntaxError struct {
	Expected string
	Found    string
	Rule     string
	Diag     diagnostics.Diagnostic
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at %s", e.Diag.Message, e.Diag.Location())
}

type parser struct {
	tokens []lexer.Token
	pos    int
	rule   string
	err    *SyntaxError
}

// Parse tokenizes source and parses it into an AST. A lex failure is
// returned unchanged as a *lexer.LexError.
func Parse(source, filename string) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		return nil, err
	}
	return ParseTokens(tokens)
}

// ParseTokens parses an already tokenized program. The first syntax error
// aborts the parse and is returned as a *SyntaxError.
func ParseTokens(tokens []lexer.Token) (*ast.Program, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.TokEOF {
		var eofSpan ast.Span
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1].Span
			eofSpan = ast.Span{File: last.File, StartLine: last.EndLine, StartCol: last.EndCol, EndLine: last.EndLine, EndCol: last.EndCol}
		}
		tokens = append(tokens, lexer.Token{Type: lexer.TokEOF, Span: eofSpan})
	}

	p := &parser{tokens: tokens, pos: 0, rule: ruleProgram}
	prog := p.parseProgram()
	if p.err != nil {
		return nil, p.err
	}
	return prog, nil
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) peekAt(offset int) lexer.TokenType {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return lexer.TokEOF
	}
	return p.tokens[idx].Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

// within switches the rule reported by errors until the returned func runs.
func (p *parser) within(rule string) func() {
	prev := p.rule
	p.rule = rule
	return func() { p.rule = prev }
}

func (p *parser) expect(typ lexer.TokenType) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.fail(typ.String(), tok, "")
		return tok, false
	}
	return p.advance(), true
}

// fail records the first syntax error; later failures are ignored.
func (p *parser) fail(expected string, found lexer.Token, hint string) {
	if p.err != nil {
		return
	}
	lexeme := describe(found)
	span := found.Span
	msg := fmt.Sprintf("expected %s, found %s in %s", expected, lexeme, p.rule)
	p.err = &SyntaxError{
		Expected: expected,
		Found:    lexeme,
		Rule:     p.rule,
		Diag:     diagnostics.MakeDiag(diagnostics.EParse, msg, &span, hint),
	}
}

// failOutOfRange records a number literal too large to represent.
func (p *parser) failOutOfRange(tok lexer.Token) {
	if p.err != nil {
		return
	}
	span := tok.Span
	p.err = &SyntaxError{
		Expected: "number literal in range",
		Found:    describe(tok),
		Rule:     p.rule,
		Diag: diagnostics.MakeDiag(diagnostics.EParse,
			fmt.Sprintf("number literal is out of range in %s", p.rule), &span,
			"numbers must stay below 1.8e308"),
	}
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokEOF:
		return "end of input"
	case lexer.TokStringLit:
		return strconv.Quote(tok.Value)
	default:
		return "'" + tok.Value + "'"
	}
}

func spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
		Offset:    start.Offset,
	}
}

// --- Program ---

func (p *parser) parseProgram() *ast.Program {
	start := p.current().Span
	stmts := []ast.Stmt{}

	for p.peek() != lexer.TokEOF {
		stmt := p.parseStmt()
		if stmt == nil {
			return nil
		}
		stmts = append(stmts, stmt)
	}

	return &ast.Program{
		Span:       spanFromTo(start, p.current().Span),
		Statements: stmts,
	}
}

// --- Statements ---

func (p *parser) parseStmt() ast.Stmt {
	switch p.peek() {
	case lexer.TokDefine:
		return p.parseVarDecl()
	case lexer.TokShow:
		return p.parseShow()
	case lexer.TokWhen:
		return p.parseWhen()
	case lexer.TokAla:
		return p.parseAla()
	default:
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		return &ast.ExprStmt{Span: expr.NodeSpan(), Expr: expr}
	}
}

func (p *parser) parseVarDecl() ast.Stmt {
	defer p.within(ruleVarDecl)()
	start := p.advance() // consume 'define'

	var typ ast.DeclType
	switch tok := p.current(); {
	case tok.Type == lexer.TokNumber:
		typ = ast.TypeNumber
	case tok.Type == lexer.TokString:
		typ = ast.TypeString
	case tok.Type == lexer.TokIdent && tok.Value == string(ast.TypeBoolean):
		typ = ast.TypeBoolean
	default:
		p.fail("type name (number, string or boolean)", tok, "")
		return nil
	}
	p.advance()

	name, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokAs); !ok {
		return nil
	}
	init := p.parseExpr()
	if init == nil {
		return nil
	}

	return &ast.VarDecl{
		Span: spanFromTo(start.Span, init.NodeSpan()),
		Type: typ,
		Name: name.Value,
		Init: init,
	}
}

func (p *parser) parseShow() ast.Stmt {
	defer p.within(ruleShow)()
	start := p.advance() // consume 'show'

	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}

	var args []ast.Expr
	for {
		arg := p.parseExpr()
		if arg == nil {
			return nil
		}
		args = append(args, arg)
		if p.peek() != lexer.TokComma {
			break
		}
		p.advance() // consume ','
	}

	end, ok := p.expect(lexer.TokRParen)
	if !ok {
		return nil
	}

	return &ast.ShowStmt{
		Span: spanFromTo(start.Span, end.Span),
		Args: args,
	}
}

func (p *parser) parseWhen() ast.Stmt {
	defer p.within(ruleWhen)()
	start := p.advance() // consume 'when'

	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	if p.peek() != lexer.TokColonColon {
		p.fail(lexer.TokColonColon.String(), p.current(), "a when loop has the shape "+whenLoopShape)
		return nil
	}
	p.advance()

	step := p.parseExpr()
	if step == nil {
		return nil
	}
	if p.peek() != lexer.TokFatArrow {
		p.fail(lexer.TokFatArrow.String(), p.current(), "a when loop has the shape "+whenLoopShape)
		return nil
	}
	p.advance()

	body, end, ok := p.parseBlock()
	if !ok {
		return nil
	}

	return &ast.WhenStmt{
		Span: spanFromTo(start.Span, end),
		Cond: cond,
		Step: step,
		Body: body,
	}
}

func (p *parser) parseAla() ast.Stmt {
	defer p.within(ruleAla)()
	start := p.advance() // consume 'ala'

	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokArrow); !ok {
		return nil
	}
	thenBody, end, ok := p.parseBlock()
	if !ok {
		return nil
	}

	var elseBody []ast.Stmt
	if p.peek() == lexer.TokOtw {
		p.advance() // consume 'otw'
		if _, ok := p.expect(lexer.TokArrow); !ok {
			return nil
		}
		elseBody, end, ok = p.parseBlock()
		if !ok {
			return nil
		}
	}

	return &ast.AlaStmt{
		Span: spanFromTo(start.Span, end),
		Cond: cond,
		Then: thenBody,
		Else: elseBody,
	}
}

// parseBlock parses `{ statement* }`. The returned slice is never nil on
// success, so an empty otw block stays distinguishable from a missing one.
func (p *parser) parseBlock() ([]ast.Stmt, ast.Span, bool) {
	defer p.within(ruleBlock)()

	if _, ok := p.expect(lexer.TokLBrace); !ok {
		return nil, ast.Span{}, false
	}

	stmts := []ast.Stmt{}
	for p.peek() != lexer.TokRBrace && p.peek() != lexer.TokEOF {
		stmt := p.parseStmt()
		if stmt == nil {
			return nil, ast.Span{}, false
		}
		stmts = append(stmts, stmt)
	}

	end, ok := p.expect(lexer.TokRBrace)
	if !ok {
		return nil, ast.Span{}, false
	}
	return stmts, end.Span, true
}

// --- Expressions ---

func (p *parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

func (p *parser) parseAssignment() ast.Expr {
	if p.peek() != lexer.TokIdent || p.peekAt(1) != lexer.TokAssign {
		return p.parseTernary()
	}
	defer p.within(ruleAssign)()

	nameTok := p.advance()
	p.advance() // consume '='
	value := p.parseAssignment()
	if value == nil {
		return nil
	}

	return &ast.AssignExpr{
		Span:   spanFromTo(nameTok.Span, value.NodeSpan()),
		Target: &ast.Identifier{Span: nameTok.Span, Name: nameTok.Value},
		Value:  value,
	}
}

func (p *parser) parseTernary() ast.Expr {
	cond := p.parseComparison()
	if cond == nil {
		return nil
	}
	if p.peek() != lexer.TokQuestion {
		return cond
	}
	defer p.within(ruleTernary)()
	p.advance() // consume '?'

	ifTrue := p.parseTernary()
	if ifTrue == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokColon); !ok {
		return nil
	}
	ifFalse := p.parseTernary()
	if ifFalse == nil {
		return nil
	}

	return &ast.TernaryExpr{
		Span:    spanFromTo(cond.NodeSpan(), ifFalse.NodeSpan()),
		Cond:    cond,
		IfTrue:  ifTrue,
		IfFalse: ifFalse,
	}
}

func (p *parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	if left == nil {
		return nil
	}

	for {
		var op ast.BinaryOp
		switch p.peek() {
		case lexer.TokEqE:
			op = ast.OpEq
		case lexer.TokEqS:
			op = ast.OpStrEq
		case lexer.TokEqI:
			op = ast.OpIdentical
		case lexer.TokGt:
			op = ast.OpGt
		case lexer.TokLt:
			op = ast.OpLt
		default:
			return left
		}
		p.advance()
		right := p.parseAdditive()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	if left == nil {
		return nil
	}

	for {
		var op ast.BinaryOp
		switch p.peek() {
		case lexer.TokPlus:
			op = ast.OpAdd
		case lexer.TokMinus:
			op = ast.OpSub
		default:
			return left
		}
		p.advance()
		right := p.parseMultiplicative()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parseMultiplicative() ast.Expr {
	left := p.parsePostfix()
	if left == nil {
		return nil
	}

	for {
		var op ast.BinaryOp
		switch p.peek() {
		case lexer.TokStar:
			op = ast.OpMul
		case lexer.TokSlash:
			op = ast.OpDiv
		default:
			return left
		}
		p.advance()
		right := p.parsePostfix()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parsePostfix() ast.Expr {
	operand := p.parsePrimary()
	if operand == nil {
		return nil
	}

	for {
		var op ast.UnaryOp
		switch p.peek() {
		case lexer.TokPlusPlus:
			op = ast.OpIncr
		case lexer.TokMinusMinus:
			op = ast.OpDecr
		default:
			return operand
		}
		end := p.advance()
		operand = &ast.UnaryExpr{
			Span:    spanFromTo(operand.NodeSpan(), end.Span),
			Op:      op,
			Operand: operand,
		}
	}
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.peek() {
	case lexer.TokLParen:
		return p.parseGroup(lexer.TokRParen)

	case lexer.TokLBracket:
		return p.parseGroup(lexer.TokRBracket)

	case lexer.TokType:
		return p.parseTypeOf()

	case lexer.TokNumberLit:
		tok := p.advance()
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			p.failOutOfRange(tok)
			return nil
		}
		return &ast.NumberLiteral{Span: tok.Span, Value: val}

	case lexer.TokStringLit:
		tok := p.advance()
		return &ast.StringLiteral{Span: tok.Span, Value: tok.Value}

	case lexer.TokTrue:
		tok := p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: true}

	case lexer.TokFalse:
		tok := p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: false}

	case lexer.TokIdent:
		tok := p.advance()
		return &ast.Identifier{Span: tok.Span, Name: tok.Value}

	default:
		p.fail(ruleExpr, p.current(), "")
		return nil
	}
}

// parseGroup parses `( expr )` or `[ expr ]`; both only group.
func (p *parser) parseGroup(closer lexer.TokenType) ast.Expr {
	defer p.within(ruleGrouping)()
	p.advance() // consume opener

	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	if _, ok := p.expect(closer); !ok {
		return nil
	}
	return expr
}

func (p *parser) parseTypeOf() ast.Expr {
	defer p.within(ruleTypeOf)()
	start := p.advance() // consume 'type'

	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}
	operand := p.parseExpr()
	if operand == nil {
		return nil
	}
	end, ok := p.expect(lexer.TokRParen)
	if !ok {
		return nil
	}

	return &ast.TypeExpr{
		Span:    spanFromTo(start.Span, end.Span),
		Operand: operand,
	}
}
