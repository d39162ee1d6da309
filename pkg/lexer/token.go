package lexer

import (
	"fmt"

	"github.com/powlang/powlang/pkg/ast"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Keywords
	TokDefine TokenType = iota
	TokNumber
	TokString
	TokShow
	TokWhen
	TokAs
	TokType
	TokAla
	TokOtw

	// Booleans
	TokTrue
	TokFalse

	// Literals
	TokNumberLit
	TokStringLit

	// Identifiers
	TokIdent

	// Multi-char operators
	TokColonColon // ::
	TokFatArrow   // =>
	TokEqE        // =e
	TokEqS        // =s
	TokEqI        // =i
	TokArrow      // ->
	TokPlusPlus   // ++
	TokMinusMinus // --

	// Single-char operators
	TokPlus     // +
	TokMinus    // -
	TokStar     // *
	TokSlash    // /
	TokGt       // >
	TokLt       // <
	TokAssign   // =
	TokQuestion // ?
	TokColon    // :

	// Punctuation
	TokLParen   // (
	TokRParen   // )
	TokLBrace   // {
	TokRBrace   // }
	TokLBracket // [
	TokRBracket // ]
	TokComma    // ,

	// Special
	TokComment
	TokInvalid
	TokEOF
)

// Kind is the coarse classification of a token, the one the syntax
// highlighter and the token dump use.
type Kind string

const (
	KindKeyword     Kind = "keyword"
	KindBoolean     Kind = "boolean"
	KindOperator    Kind = "operator"
	KindNumber      Kind = "number"
	KindString      Kind = "string"
	KindIdentifier  Kind = "identifier"
	KindPunctuation Kind = "punctuation"
	KindComment     Kind = "comment"
	KindEOF         Kind = "eof"
	KindInvalid     Kind = "invalid"
)

// Token represents a single lexer token. Value holds the decoded text for
// string literals and the raw lexeme for everything else.
type Token struct {
	Type  TokenType
	Value string
	Span  ast.Span
}

// Category returns the coarse kind of the token.
func (t Token) Category() Kind {
	return t.Type.Category()
}

// Category returns the coarse kind of the token type.
func (t TokenType) Category() Kind {
	switch {
	case t >= TokDefine && t <= TokOtw:
		return KindKeyword
	case t == TokTrue || t == TokFalse:
		return KindBoolean
	case t == TokNumberLit:
		return KindNumber
	case t == TokStringLit:
		return KindString
	case t == TokIdent:
		return KindIdentifier
	case t >= TokColonColon && t <= TokColon:
		return KindOperator
	case t >= TokLParen && t <= TokComma:
		return KindPunctuation
	case t == TokComment:
		return KindComment
	case t == TokEOF:
		return KindEOF
	default:
		return KindInvalid
	}
}

var tokenNames = map[TokenType]string{
	TokDefine:     "'define'",
	TokNumber:     "'number'",
	TokString:     "'string'",
	TokShow:       "'show'",
	TokWhen:       "'when'",
	TokAs:         "'as'",
	TokType:       "'type'",
	TokAla:        "'ala'",
	TokOtw:        "'otw'",
	TokTrue:       "'true'",
	TokFalse:      "'false'",
	TokNumberLit:  "number literal",
	TokStringLit:  "string literal",
	TokIdent:      "identifier",
	TokColonColon: "'::'",
	TokFatArrow:   "'=>'",
	TokEqE:        "'=e'",
	TokEqS:        "'=s'",
	TokEqI:        "'=i'",
	TokArrow:      "'->'",
	TokPlusPlus:   "'++'",
	TokMinusMinus: "'--'",
	TokPlus:       "'+'",
	TokMinus:      "'-'",
	TokStar:       "'*'",
	TokSlash:      "'/'",
	TokGt:         "'>'",
	TokLt:         "'<'",
	TokAssign:     "'='",
	TokQuestion:   "'?'",
	TokColon:      "':'",
	TokLParen:     "'('",
	TokRParen:     "')'",
	TokLBrace:     "'{'",
	TokRBrace:     "'}'",
	TokLBracket:   "'['",
	TokRBracket:   "']'",
	TokComma:      "','",
	TokComment:    "comment",
	TokInvalid:    "invalid token",
	TokEOF:        "end of input",
}

// String returns a human readable name, quoted for fixed lexemes.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

var keywords = map[string]TokenType{
	"define": TokDefine,
	"number": TokNumber,
	"string": TokString,
	"show":   TokShow,
	"when":   TokWhen,
	"as":     TokAs,
	"type":   TokType,
	"ala":    TokAla,
	"otw":    TokOtw,
	"true":   TokTrue,
	"false":  TokFalse,
}

// IsKeyword reports whether word is reserved (keywords and boolean literals).
func IsKeyword(word string) bool {
	_, ok := keywords[word]
	return ok
}

// Two-character operators, tried before any single-character operator.
var multiCharOps = []struct {
	text string
	typ  TokenType
}{
	{"::", TokColonColon},
	{"=>", TokFatArrow},
	{"=e", TokEqE},
	{"=s", TokEqS},
	{"=i", TokEqI},
	{"->", TokArrow},
	{"++", TokPlusPlus},
	{"--", TokMinusMinus},
}

var singleCharTokens = map[byte]TokenType{
	'+': TokPlus,
	'-': TokMinus,
	'*': TokStar,
	'/': TokSlash,
	'>': TokGt,
	'<': TokLt,
	'=': TokAssign,
	'?': TokQuestion,
	':': TokColon,
	'(': TokLParen,
	')': TokRParen,
	'{': TokLBrace,
	'}': TokRBrace,
	'[': TokLBracket,
	']': TokRBracket,
	',': TokComma,
}
