// Package ast defines the PowLang AST node types.
package ast

// Span represents a source location range.
type Span struct {
	File      string `json:"file,omitempty"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
	Offset    int    `json:"offset"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// BinaryOp represents a binary operator.
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpGt  BinaryOp = ">"
	OpLt  BinaryOp = "<"
	// OpEq is value equality between operands of the same type.
	OpEq BinaryOp = "=e"
	// OpStrEq compares two strings.
	OpStrEq BinaryOp = "=s"
	// OpIdentical is true when both operands share type and value.
	OpIdentical BinaryOp = "=i"
)

// UnaryOp represents a postfix update operator.
type UnaryOp string

const (
	OpIncr UnaryOp = "++"
	OpDecr UnaryOp = "--"
)

// DeclType is the declared type of a variable.
type DeclType string

const (
	TypeNumber  DeclType = "number"
	TypeString  DeclType = "string"
	TypeBoolean DeclType = "boolean"
)

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Stmt is the interface for all statement nodes ---

type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// --- Literal Expressions ---

type NumberLiteral struct {
	Span  Span
	Value float64
}

func (n *NumberLiteral) Kind() string   { return "NumberLiteral" }
func (n *NumberLiteral) NodeSpan() Span { return n.Span }
func (n *NumberLiteral) exprNode()      {}

type StringLiteral struct {
	Span  Span
	Value string
}

func (n *StringLiteral) Kind() string   { return "StringLiteral" }
func (n *StringLiteral) NodeSpan() Span { return n.Span }
func (n *StringLiteral) exprNode()      {}

type BoolLiteral struct {
	Span  Span
	Value bool
}

func (n *BoolLiteral) Kind() string   { return "BoolLiteral" }
func (n *BoolLiteral) NodeSpan() Span { return n.Span }
func (n *BoolLiteral) exprNode()      {}

// --- Identifiers ---

type Identifier struct {
	Span Span
	Name string
}

func (n *Identifier) Kind() string   { return "Identifier" }
func (n *Identifier) NodeSpan() Span { return n.Span }
func (n *Identifier) exprNode()      {}

// --- Operators ---

type BinaryExpr struct {
	Span  Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *BinaryExpr) Kind() string   { return "BinaryExpr" }
func (n *BinaryExpr) NodeSpan() Span { return n.Span }
func (n *BinaryExpr) exprNode()      {}

// UnaryExpr is a postfix ++ or --. The operand must name a number variable;
// the evaluator enforces that.
type UnaryExpr struct {
	Span    Span
	Op      UnaryOp
	Operand Expr
}

func (n *UnaryExpr) Kind() string   { return "UnaryExpr" }
func (n *UnaryExpr) NodeSpan() Span { return n.Span }
func (n *UnaryExpr) exprNode()      {}

// TernaryExpr evaluates exactly one of its branches.
type TernaryExpr struct {
	Span    Span
	Cond    Expr
	IfTrue  Expr
	IfFalse Expr
}

func (n *TernaryExpr) Kind() string   { return "TernaryExpr" }
func (n *TernaryExpr) NodeSpan() Span { return n.Span }
func (n *TernaryExpr) exprNode()      {}

// AssignExpr rebinds an already declared variable.
type AssignExpr struct {
	Span   Span
	Target *Identifier
	Value  Expr
}

func (n *AssignExpr) Kind() string   { return "AssignExpr" }
func (n *AssignExpr) NodeSpan() Span { return n.Span }
func (n *AssignExpr) exprNode()      {}

// TypeExpr is `type(expr)`; it yields the operand's type name.
type TypeExpr struct {
	Span    Span
	Operand Expr
}

func (n *TypeExpr) Kind() string   { return "TypeExpr" }
func (n *TypeExpr) NodeSpan() Span { return n.Span }
func (n *TypeExpr) exprNode()      {}

// --- Statements ---

type VarDecl struct {
	Span Span
	Type DeclType
	Name string
	Init Expr
}

func (n *VarDecl) Kind() string   { return "VarDecl" }
func (n *VarDecl) NodeSpan() Span { return n.Span }
func (n *VarDecl) stmtNode()      {}

type ShowStmt struct {
	Span Span
	Args []Expr
}

func (n *ShowStmt) Kind() string   { return "ShowStmt" }
func (n *ShowStmt) NodeSpan() Span { return n.Span }
func (n *ShowStmt) stmtNode()      {}

// WhenStmt is the `when cond :: step => { body }` loop.
type WhenStmt struct {
	Span Span
	Cond Expr
	Step Expr
	Body []Stmt
}

func (n *WhenStmt) Kind() string   { return "WhenStmt" }
func (n *WhenStmt) NodeSpan() Span { return n.Span }
func (n *WhenStmt) stmtNode()      {}

// AlaStmt is the `ala cond -> { ... } otw -> { ... }` conditional.
// Else is nil when the otw clause is absent.
type AlaStmt struct {
	Span Span
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (n *AlaStmt) Kind() string   { return "AlaStmt" }
func (n *AlaStmt) NodeSpan() Span { return n.Span }
func (n *AlaStmt) stmtNode()      {}

type ExprStmt struct {
	Span Span
	Expr Expr
}

func (n *ExprStmt) Kind() string   { return "ExprStmt" }
func (n *ExprStmt) NodeSpan() Span { return n.Span }
func (n *ExprStmt) stmtNode()      {}

// --- Program ---

type Program struct {
	Span       Span
	Statements []Stmt
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }
