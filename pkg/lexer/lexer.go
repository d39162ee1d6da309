// Package lexer implements the PowLang tokenizer.
package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/powlang/powlang/pkg/ast"
	"github.com/powlang/powlang/pkg/diagnostics"
)

// ScanOptions controls what Scan emits.
type ScanOptions struct {
	// KeepComments emits TokComment tokens instead of discarding them.
	KeepComments bool
	// Recover turns unrecognised input into TokInvalid tokens instead of
	// failing. Used by the highlighter, never by the compiler.
	Recover bool
}

type scanner struct {
	source   string
	filename string
	opts     ScanOptions
	pos      int
	line     int
	col      int
}

func newScanner(source, filename string, opts ScanOptions) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		opts:     opts,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

// advance consumes one rune so columns count characters, not bytes.
func (s *scanner) advance() rune {
	r, size := utf8.DecodeRuneInString(s.source[s.pos:])
	s.pos += size
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

func (s *scanner) span(startLine, startCol, startPos int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
		Offset:    startPos,
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

func (s *scanner) skipWhitespace() {
	for !s.atEnd() && isSpace(s.peek()) {
		s.advance()
	}
}

func (s *scanner) scanComment() Token {
	startLine, startCol, startPos := s.line, s.col, s.pos
	for !s.atEnd() && s.peek() != '\n' {
		s.advance()
	}
	return Token{
		Type:  TokComment,
		Value: s.source[startPos:s.pos],
		Span:  s.span(startLine, startCol, startPos),
	}
}

func (s *scanner) scanString() (Token, error) {
	startLine, startCol, startPos := s.line, s.col, s.pos
	s.advance() // consume opening "

	var buf strings.Builder
	for !s.atEnd() {
		ch := s.peek()
		if ch == '"' {
			s.advance() // consume closing "
			return Token{
				Type:  TokStringLit,
				Value: buf.String(),
				Span:  s.span(startLine, startCol, startPos),
			}, nil
		}
		if ch == '\\' {
			s.advance() // consume backslash
			if s.atEnd() {
				break
			}
			switch esc := s.advance(); esc {
			case 'n':
				buf.WriteByte('\n')
			case 't':
				buf.WriteByte('\t')
			case 'r':
				buf.WriteByte('\r')
			default:
				// \" \\ and any other escaped character stand for themselves
				buf.WriteRune(esc)
			}
			continue
		}
		buf.WriteRune(s.advance())
	}

	if s.opts.Recover {
		// Rewind to just after the quote; the quote alone is invalid.
		s.pos, s.line, s.col = startPos, startLine, startCol
		s.advance()
		return Token{Type: TokInvalid, Value: `"`, Span: s.span(startLine, startCol, startPos)}, nil
	}
	return Token{}, s.lexError(startLine, startCol, startPos, "unterminated string literal")
}

func (s *scanner) scanNumber() Token {
	startLine, startCol, startPos := s.line, s.col, s.pos
	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}
	return Token{
		Type:  TokNumberLit,
		Value: s.source[startPos:s.pos],
		Span:  s.span(startLine, startCol, startPos),
	}
}

func (s *scanner) scanWord() Token {
	startLine, startCol, startPos := s.line, s.col, s.pos
	for !s.atEnd() && isAlphaNumeric(s.peek()) {
		s.advance()
	}

	text := s.source[startPos:s.pos]
	typ := TokIdent
	if kw, ok := keywords[text]; ok {
		typ = kw
	}
	return Token{
		Type:  typ,
		Value: text,
		Span:  s.span(startLine, startCol, startPos),
	}
}

func (s *scanner) lexError(line, col, pos int, msg string) error {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1, Offset: pos},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s at %s", e.Diag.Message, e.Diag.Location())
}

func (s *scanner) nextToken() (Token, error) {
	for {
		s.skipWhitespace()
		if s.atEnd() || s.peek() != '#' {
			break
		}
		comment := s.scanComment()
		if s.opts.KeepComments {
			return comment, nil
		}
	}

	if s.atEnd() {
		return Token{
			Type:  TokEOF,
			Value: "",
			Span:  s.span(s.line, s.col, s.pos),
		}, nil
	}

	ch := s.peek()
	startLine, startCol, startPos := s.line, s.col, s.pos

	// Keywords, booleans and identifiers
	if isAlpha(ch) {
		return s.scanWord(), nil
	}

	// Multi-char operators before their single-char prefixes
	for _, op := range multiCharOps {
		if ch == op.text[0] && s.peekAt(1) == op.text[1] {
			s.advance()
			s.advance()
			return Token{Type: op.typ, Value: op.text, Span: s.span(startLine, startCol, startPos)}, nil
		}
	}

	if isDigit(ch) {
		return s.scanNumber(), nil
	}

	if ch == '"' {
		return s.scanString()
	}

	if typ, ok := singleCharTokens[ch]; ok {
		s.advance()
		return Token{Type: typ, Value: string(ch), Span: s.span(startLine, startCol, startPos)}, nil
	}

	r := s.advance()
	if s.opts.Recover {
		return Token{Type: TokInvalid, Value: string(r), Span: s.span(startLine, startCol, startPos)}, nil
	}
	return Token{}, s.lexError(startLine, startCol, startPos, fmt.Sprintf("unexpected character %q", r))
}

// Scan breaks source into tokens according to opts. The result always ends
// with a TokEOF token.
func Scan(source, filename string, opts ScanOptions) ([]Token, error) {
	s := newScanner(source, filename, opts)
	var tokens []Token

	for {
		tok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}

// Tokenize breaks source code into the token stream the parser consumes.
// Comments are dropped and the first unrecognised character is fatal.
func Tokenize(source, filename string) ([]Token, error) {
	return Scan(source, filename, ScanOptions{})
}

// Lexeme returns the source text tok was scanned from. It differs from
// tok.Value only for string literals, whose Value is the decoded content.
func Lexeme(source string, tok Token) string {
	if tok.Type != TokStringLit {
		return tok.Value
	}
	start := tok.Span.Offset
	if start < 0 || start >= len(source) {
		return tok.Value
	}
	for i := start + 1; i < len(source); i++ {
		switch source[i] {
		case '\\':
			i++
		case '"':
			return source[start : i+1]
		}
	}
	return source[start:]
}
