// Package help holds the PowLang keyword dictionary and reference topics
// shown by the CLI and served by the HTTP API.
package help

import (
	"fmt"
	"sort"
	"strings"
)

// Version is the language revision described by the reference.
const Version = "v1.0"

// Entry documents one keyword or construct.
type Entry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Example     string `json:"example"`
}

// Keywords is the keyword dictionary in display order. Clicking the first
// entry in a client inserts its example inline; later ones start a new paragraph.
var Keywords = []Entry{
	{
		Name:        "define",
		Description: "Defines a new variable.",
		Usage:       "define type variable as value",
		Example:     "define number x as 0",
	},
	{
		Name:        "show",
		Description: "Outputs the value to the console.",
		Usage:       "show(value)",
		Example:     `show("Value for x:", x)`,
	},
	{
		Name:        "when",
		Description: "Defines a loop.",
		Usage:       "when condition :: increment => { body }",
		Example:     "when x < 5 :: x++ => {\n  show(x)\n}",
	},
	{
		Name:        "ala",
		Description: "Defines a conditional block.",
		Usage:       "ala condition -> { body } otw -> { elseBody }",
		Example:     "ala x > 5 -> {\n  show(\"x is greater than 5\")\n} otw -> {\n  show(\"x is not greater than 5\")\n}",
	},
	{
		Name:        "ternary",
		Description: "Defines a ternary conditional expression.",
		Usage:       "condition ? expressionIfTrue : expressionIfFalse",
		Example:     "x > 5 ? 10 : 0",
	},
	{
		Name:        "type",
		Description: "Yields the type name of a value.",
		Usage:       "type(value)",
		Example:     "show(type(x))",
	},
}

// LookupKeyword returns the dictionary entry for name.
func LookupKeyword(name string) (Entry, bool) {
	for _, e := range Keywords {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// QUICKREF is the one-screen summary printed by `powlang keywords`.
var QUICKREF = `PowLang ` + Version + ` quick reference

Statements
  define number x as 0          declare a typed variable (number, string, boolean)
  x = x + 1                     reassign; the value must keep the declared type
  show(a, b, ...)               print the arguments space separated on one line
  when cond :: step => { ... }  loop: test cond, apply step, run body, repeat
  ala cond -> { ... } otw -> { ... }
                                conditional; the otw branch is optional

Expressions
  + - * /                       numbers only; division by zero is an error
  > <                           two numbers or two strings
  =e  =s  =i                    equal value, equal strings, identical (type and value)
  c ? a : b                     ternary, evaluates one branch
  x++  x--                      postfix update of a number variable
  type(e)                       "number", "string" or "boolean"

Topics: ` + strings.Join(TopicList, ", ") + `
`

// TopicList is the display order of Topics.
var TopicList = []string{"syntax", "types", "operators", "flow", "diagnostics", "examples"}

// Topics are the long-form reference pages.
var Topics = map[string]string{
	"syntax": `SYNTAX
  Programs are a sequence of statements with no separators. Whitespace and
  newlines are insignificant. '#' starts a comment that runs to end of line.
  Identifiers start with a letter or '_' and continue with letters, digits
  or '_'. Keywords: define number string show when as type ala otw.
  Booleans: true false. Numbers are unsigned decimal integers; write 0 - 5
  for a negative value. Strings are double quoted and support \n \t \r \" \\.
`,
	"types": `TYPES
  number   64-bit floating point, printed in shortest decimal form
  string   UTF-8 text, printed raw
  boolean  true or false ('boolean' is the type name in define)

  Falsy values are false, 0 and "". Everything else is truthy.
  A variable keeps its declared type; assigning another type is E_TYPE.
`,
	"operators": `OPERATORS (loosest first)
  x = e                 assignment, right associative
  c ? a : b             ternary, right associative
  =e =s =i > <          comparison, left associative
  + -                   additive
  * /                   multiplicative
  x++ x--               postfix update
  ( e ) [ e ] type(e)   grouping and type query
`,
	"flow": `CONTROL FLOW
  when cond :: step => { body }
    Each iteration tests cond, applies step, then runs body. The step never
    runs when cond is false on entry.
  ala cond -> { then } otw -> { else }
    Runs one branch. Blocks share the single program environment, so a
    variable defined in a block stays visible after it.
`,
	"diagnostics": `DIAGNOSTICS
  E_LEX         unrecognised character or unterminated string
  E_PARSE       token does not fit the grammar
  E_TYPE        operand or value of the wrong type
  E_OPERATOR    operator applied to operands it does not accept
  E_UNDECLARED  identifier used before define
  E_REDECLARED  define of a name that already exists
  E_DIV_ZERO    division by zero
  E_BUDGET      loop iteration budget exceeded
  E_OVERFLOW    arithmetic result too large for a number
  E_CANCELED    run stopped by its caller, e.g. a server timeout
  Any error discards all output of the run.
`,
	"examples": `EXAMPLES
  define number cats as 3
  define number dogs as 4
  show("we have", cats, "cats and", dogs, "dogs")
  when cats > 0 :: cats-- => {
    show("cats left:", cats)
  }
  ala cats =e 0 -> {
    show("all cats adopted")
  } otw -> {
    show("still waiting")
  }
`,
}

// MatchTopic resolves an exact topic name or a unique prefix of one.
func MatchTopic(query string) (string, string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}

	var matches []string
	for _, name := range TopicList {
		if query != "" && strings.HasPrefix(name, query) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q", query)
	default:
		sort.Strings(matches)
		return "", "", fmt.Errorf("ambiguous help topic %q: %s", query, strings.Join(matches, ", "))
	}
}
