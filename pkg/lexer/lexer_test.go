package lexer

import (
	"errors"
	"strings"
	"testing"
)

// helper to tokenize and fail on error
func mustTokenize(t *testing.T, source string) []Token {
	t.Helper()
	tokens, err := Tokenize(source, "test.pow")
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	return tokens
}

// helper that strips the trailing EOF for easier assertions
func mustTokenizeNoEOF(t *testing.T, source string) []Token {
	t.Helper()
	tokens := mustTokenize(t, source)
	if len(tokens) == 0 {
		t.Fatal("expected at least one token (EOF)")
	}
	if tokens[len(tokens)-1].Type != TokEOF {
		t.Fatal("last token is not EOF")
	}
	return tokens[:len(tokens)-1]
}

func assertTypes(t *testing.T, tokens []Token, expected []TokenType) {
	t.Helper()
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, typ := range expected {
		if tokens[i].Type != typ {
			t.Errorf("token %d: expected %v, got %v (%q)", i, typ, tokens[i].Type, tokens[i].Value)
		}
	}
}

// ---------------------------------------------------------------------------
// Test: empty input produces only EOF
// ---------------------------------------------------------------------------
func TestEmptyInput(t *testing.T) {
	tokens := mustTokenize(t, "")
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token (EOF), got %d", len(tokens))
	}
	if tokens[0].Type != TokEOF {
		t.Errorf("expected TokEOF, got %v", tokens[0].Type)
	}
}

// ---------------------------------------------------------------------------
// Test: all keywords and booleans
// ---------------------------------------------------------------------------
func TestKeywords(t *testing.T) {
	tests := []struct {
		keyword  string
		expected TokenType
		kind     Kind
	}{
		{"define", TokDefine, KindKeyword},
		{"number", TokNumber, KindKeyword},
		{"string", TokString, KindKeyword},
		{"show", TokShow, KindKeyword},
		{"when", TokWhen, KindKeyword},
		{"as", TokAs, KindKeyword},
		{"type", TokType, KindKeyword},
		{"ala", TokAla, KindKeyword},
		{"otw", TokOtw, KindKeyword},
		{"true", TokTrue, KindBoolean},
		{"false", TokFalse, KindBoolean},
	}

	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.keyword)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected token type %v, got %v", tt.expected, tokens[0].Type)
			}
			if tokens[0].Value != tt.keyword {
				t.Errorf("expected value %q, got %q", tt.keyword, tokens[0].Value)
			}
			if tokens[0].Category() != tt.kind {
				t.Errorf("expected category %q, got %q", tt.kind, tokens[0].Category())
			}
			if !IsKeyword(tt.keyword) {
				t.Errorf("IsKeyword(%q) = false", tt.keyword)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: keyword vs identifier disambiguation
// ---------------------------------------------------------------------------
func TestKeywordVsIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected TokenType
	}{
		{"define keyword", "define", TokDefine},
		{"defined is ident", "defined", TokIdent},
		{"show keyword", "show", TokShow},
		{"shows is ident", "shows", TokIdent},
		{"as keyword", "as", TokAs},
		{"ask is ident", "ask", TokIdent},
		{"ala keyword", "ala", TokAla},
		{"alarm is ident", "alarm", TokIdent},
		{"type keyword", "type", TokType},
		{"typed is ident", "typed", TokIdent},
		{"true keyword", "true", TokTrue},
		{"trueish is ident", "trueish", TokIdent},
		{"boolean is ident", "boolean", TokIdent},
		{"Define is ident", "Define", TokIdent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tokens[0].Type)
			}
		})
	}
}

func TestIdentifiers(t *testing.T) {
	for _, name := range []string{"x", "_", "_tmp", "newCats", "cat2", "snake_case_9"} {
		t.Run(name, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, name)
			if len(tokens) != 1 || tokens[0].Type != TokIdent {
				t.Fatalf("expected single identifier, got %v", tokens)
			}
			if tokens[0].Value != name {
				t.Errorf("expected %q, got %q", name, tokens[0].Value)
			}
		})
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"0", []string{"0"}},
		{"42", []string{"42"}},
		{"007", []string{"007"}},
		{"12 34", []string{"12", "34"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != len(tt.want) {
				t.Fatalf("expected %d tokens, got %d", len(tt.want), len(tokens))
			}
			for i, w := range tt.want {
				if tokens[i].Type != TokNumberLit || tokens[i].Value != w {
					t.Errorf("token %d: got %v %q, want number %q", i, tokens[i].Type, tokens[i].Value, w)
				}
			}
		})
	}
}

// A leading minus is an operator, not part of the literal.
func TestNegativeNumberIsTwoTokens(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "-5")
	assertTypes(t, tokens, []TokenType{TokMinus, TokNumberLit})
}

func TestStringLiterals(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", `""`, ""},
		{"simple", `"hello"`, "hello"},
		{"spaces", `"a b  c"`, "a b  c"},
		{"keyword inside", `"define show"`, "define show"},
		{"hash inside", `"# not a comment"`, "# not a comment"},
		{"multiline", "\"line1\nline2\"", "line1\nline2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 || tokens[0].Type != TokStringLit {
				t.Fatalf("expected single string literal, got %v", tokens)
			}
			if tokens[0].Value != tt.want {
				t.Errorf("expected %q, got %q", tt.want, tokens[0].Value)
			}
		})
	}
}

func TestStringEscapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"newline", `"a\nb"`, "a\nb"},
		{"tab", `"a\tb"`, "a\tb"},
		{"carriage return", `"a\rb"`, "a\rb"},
		{"quote", `"say \"hi\""`, `say "hi"`},
		{"backslash", `"c:\\dir"`, `c:\dir`},
		{"unknown escape keeps char", `"\q"`, "q"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Value != tt.want {
				t.Errorf("expected %q, got %q", tt.want, tokens[0].Value)
			}
		})
	}
}

func TestSingleCharTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
		kind     Kind
	}{
		{"+", TokPlus, KindOperator},
		{"-", TokMinus, KindOperator},
		{"*", TokStar, KindOperator},
		{"/", TokSlash, KindOperator},
		{">", TokGt, KindOperator},
		{"<", TokLt, KindOperator},
		{"=", TokAssign, KindOperator},
		{"?", TokQuestion, KindOperator},
		{":", TokColon, KindOperator},
		{"(", TokLParen, KindPunctuation},
		{")", TokRParen, KindPunctuation},
		{"{", TokLBrace, KindPunctuation},
		{"}", TokRBrace, KindPunctuation},
		{"[", TokLBracket, KindPunctuation},
		{"]", TokRBracket, KindPunctuation},
		{",", TokComma, KindPunctuation},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tokens[0].Type)
			}
			if tokens[0].Category() != tt.kind {
				t.Errorf("expected category %q, got %q", tt.kind, tokens[0].Category())
			}
		})
	}
}

func TestMultiCharOperators(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
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
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d: %v", len(tokens), tokens)
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tokens[0].Type)
			}
			if tokens[0].Value != tt.input {
				t.Errorf("expected value %q, got %q", tt.input, tokens[0].Value)
			}
			if tokens[0].Category() != KindOperator {
				t.Errorf("expected operator category, got %q", tokens[0].Category())
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: multi-char operators win over their single-char prefixes
// ---------------------------------------------------------------------------
func TestMultiCharOperatorDisambiguation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenType
	}{
		{"equality not assign", "a =e b", []TokenType{TokIdent, TokEqE, TokIdent}},
		{"assign then ident", "a = b", []TokenType{TokIdent, TokAssign, TokIdent}},
		{"assign eats e", "a =eb", []TokenType{TokIdent, TokEqE, TokIdent}},
		{"double colon vs ternary colon", "a ? b : c :: d", []TokenType{TokIdent, TokQuestion, TokIdent, TokColon, TokIdent, TokColonColon, TokIdent}},
		{"three colons", ":::", []TokenType{TokColonColon, TokColon}},
		{"decrement then minus", "x---1", []TokenType{TokIdent, TokMinusMinus, TokMinus, TokNumberLit}},
		{"increment then plus", "x+++1", []TokenType{TokIdent, TokPlusPlus, TokPlus, TokNumberLit}},
		{"arrow vs minus", "- ->", []TokenType{TokMinus, TokArrow}},
		{"fat arrow vs gt", "= > =>", []TokenType{TokAssign, TokGt, TokFatArrow}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			assertTypes(t, tokens, tt.expected)
		})
	}
}

func TestComments(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenType
	}{
		{"only comment", "# nothing here", nil},
		{"trailing comment", "show(x) # print", []TokenType{TokShow, TokLParen, TokIdent, TokRParen}},
		{"comment then code", "# header\ndefine", []TokenType{TokDefine}},
		{"consecutive comments", "# a\n# b\n  # c\nx", []TokenType{TokIdent}},
		{"comment swallows operators", "# :: => =e", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			assertTypes(t, tokens, tt.expected)
		})
	}
}

func TestWhitespace(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, " \t\r\n define \n\n\t x ")
	assertTypes(t, tokens, []TokenType{TokDefine, TokIdent})
}

// ---------------------------------------------------------------------------
// Test: span tracking
// ---------------------------------------------------------------------------
func TestSpanTracking(t *testing.T) {
	tokens := mustTokenize(t, "define number x as 5\nshow(x)")

	tests := []struct {
		index     int
		startLine int
		startCol  int
		endCol    int
		offset    int
	}{
		{0, 1, 1, 7, 0},    // define
		{1, 1, 8, 14, 7},   // number
		{2, 1, 15, 16, 14}, // x
		{3, 1, 17, 19, 16}, // as
		{4, 1, 20, 21, 19}, // 5
		{5, 2, 1, 5, 21},   // show
		{6, 2, 5, 6, 25},   // (
	}
	for _, tt := range tests {
		sp := tokens[tt.index].Span
		if sp.StartLine != tt.startLine || sp.StartCol != tt.startCol || sp.EndCol != tt.endCol || sp.Offset != tt.offset {
			t.Errorf("token %d (%q): got %d:%d-%d @%d, want %d:%d-%d @%d",
				tt.index, tokens[tt.index].Value,
				sp.StartLine, sp.StartCol, sp.EndCol, sp.Offset,
				tt.startLine, tt.startCol, tt.endCol, tt.offset)
		}
		if sp.File != "test.pow" {
			t.Errorf("token %d: expected file test.pow, got %q", tt.index, sp.File)
		}
	}
}

func TestSpanCountsRunesInStrings(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, `"héllo" x`)
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
	if tokens[0].Value != "héllo" {
		t.Errorf("expected héllo, got %q", tokens[0].Value)
	}
	if tokens[1].Span.StartCol != 9 {
		t.Errorf("expected x at col 9, got %d", tokens[1].Span.StartCol)
	}
}

func TestMultilineStringAdvancesLine(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "\"a\nb\" x")
	if tokens[1].Span.StartLine != 2 || tokens[1].Span.StartCol != 4 {
		t.Errorf("expected x at 2:4, got %d:%d", tokens[1].Span.StartLine, tokens[1].Span.StartCol)
	}
}

// ---------------------------------------------------------------------------
// Test: lex errors
// ---------------------------------------------------------------------------
func TestUnterminatedString(t *testing.T) {
	_, err := Tokenize(`show("hello)`, "test.pow")
	if err == nil {
		t.Fatal("expected error for unterminated string")
	}
	var lexErr *LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected *LexError, got %T", err)
	}
	if lexErr.Diag.Code != "E_LEX" {
		t.Errorf("expected E_LEX, got %s", lexErr.Diag.Code)
	}
	if lexErr.Diag.Span.StartCol != 6 {
		t.Errorf("expected error at opening quote col 6, got %d", lexErr.Diag.Span.StartCol)
	}
	if !strings.Contains(lexErr.Error(), "unterminated") {
		t.Errorf("expected unterminated in message, got %q", lexErr.Error())
	}
}

func TestUnterminatedStringEscapeAtEOF(t *testing.T) {
	if _, err := Tokenize(`"abc\`, "test.pow"); err == nil {
		t.Fatal("expected error for escape at EOF")
	}
}

func TestInvalidCharacter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
		col   int
	}{
		{"at sign", "@", 1, 1},
		{"dollar after ident", "x $", 1, 3},
		{"semicolon on line 2", "define number x as 1\nshow(x);", 2, 8},
		{"bang", "!x", 1, 1},
		{"dot", "1.5", 1, 2},
		{"non ascii", "é", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input, "test.pow")
			if err == nil {
				t.Fatal("expected lex error")
			}
			var lexErr *LexError
			if !errors.As(err, &lexErr) {
				t.Fatalf("expected *LexError, got %T", err)
			}
			if lexErr.Diag.Span.StartLine != tt.line || lexErr.Diag.Span.StartCol != tt.col {
				t.Errorf("expected error at %d:%d, got %d:%d", tt.line, tt.col,
					lexErr.Diag.Span.StartLine, lexErr.Diag.Span.StartCol)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: recovering scan for the highlighter
// ---------------------------------------------------------------------------
func TestScanRecover(t *testing.T) {
	tokens, err := Scan("x @ 1 # note", "test.pow", ScanOptions{KeepComments: true, Recover: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Kind{KindIdentifier, KindInvalid, KindNumber, KindComment, KindEOF}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, k := range want {
		if tokens[i].Category() != k {
			t.Errorf("token %d: expected %q, got %q", i, k, tokens[i].Category())
		}
	}
	if tokens[3].Value != "# note" {
		t.Errorf("expected comment text, got %q", tokens[3].Value)
	}
}

func TestScanRecoverUnterminatedString(t *testing.T) {
	tokens, err := Scan(`"abc def`, "test.pow", ScanOptions{Recover: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTypes(t, tokens, []TokenType{TokInvalid, TokIdent, TokIdent, TokEOF})
}

func TestScanKeepCommentsWithoutRecover(t *testing.T) {
	tokens, err := Scan("# a\nx", "test.pow", ScanOptions{KeepComments: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTypes(t, tokens, []TokenType{TokComment, TokIdent, TokEOF})

	if _, err := Scan("@", "test.pow", ScanOptions{KeepComments: true}); err == nil {
		t.Error("expected error without Recover")
	}
}

// ---------------------------------------------------------------------------
// Test: whole programs
// ---------------------------------------------------------------------------
func TestTokenizeVarDecl(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, `define string greeting as "hi"`)
	assertTypes(t, tokens, []TokenType{TokDefine, TokString, TokIdent, TokAs, TokStringLit})
}

func TestTokenizeWhenLoop(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "when x > 0 :: x-- => { show(x) }")
	assertTypes(t, tokens, []TokenType{
		TokWhen, TokIdent, TokGt, TokNumberLit, TokColonColon, TokIdent, TokMinusMinus,
		TokFatArrow, TokLBrace, TokShow, TokLParen, TokIdent, TokRParen, TokRBrace,
	})
}

func TestTokenizeAlaOtw(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, `ala 3 =e 3 -> { show("eq") } otw -> { show("neq") }`)
	assertTypes(t, tokens, []TokenType{
		TokAla, TokNumberLit, TokEqE, TokNumberLit, TokArrow,
		TokLBrace, TokShow, TokLParen, TokStringLit, TokRParen, TokRBrace,
		TokOtw, TokArrow,
		TokLBrace, TokShow, TokLParen, TokStringLit, TokRParen, TokRBrace,
	})
}

func TestTokenizeTernary(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, `show(x > 1 ? "big" : "small")`)
	assertTypes(t, tokens, []TokenType{
		TokShow, TokLParen, TokIdent, TokGt, TokNumberLit, TokQuestion,
		TokStringLit, TokColon, TokStringLit, TokRParen,
	})
}

func TestEOFAlwaysLast(t *testing.T) {
	inputs := []string{"", "x", "# c", "show(1)", "\n\n"}
	for _, in := range inputs {
		tokens := mustTokenize(t, in)
		if tokens[len(tokens)-1].Type != TokEOF {
			t.Errorf("input %q: last token is %v", in, tokens[len(tokens)-1].Type)
		}
		for _, tok := range tokens[:len(tokens)-1] {
			if tok.Type == TokEOF {
				t.Errorf("input %q: EOF before end", in)
			}
		}
	}
}

func TestTokenTypeString(t *testing.T) {
	if got := TokColonColon.String(); got != "'::'" {
		t.Errorf("got %q", got)
	}
	if got := TokEOF.String(); got != "end of input" {
		t.Errorf("got %q", got)
	}
	if got := TokenType(999).String(); got != "token(999)" {
		t.Errorf("got %q", got)
	}
}

func TestLexeme(t *testing.T) {
	src := `show("a\"b", x) # done`
	tokens, err := Scan(src, "", ScanOptions{KeepComments: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"show", "(", `"a\"b"`, ",", "x", ")", "# done", ""}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, tok := range tokens {
		if got := Lexeme(src, tok); got != want[i] {
			t.Errorf("token %d: Lexeme = %q, want %q", i, got, want[i])
		}
	}
	if tokens[2].Value != `a"b` {
		t.Errorf("string Value should stay decoded, got %q", tokens[2].Value)
	}
}
