package script

// Node is any AST node. Every node carries the position of its first token
// so runtime errors can point back into the source.
type Node interface {
	Pos() (line, col int)
}

type position struct {
	Line int
	Col  int
}

func (p position) Pos() (int, int) { return p.Line, p.Col }

// Program is a parsed script: a flat list of top-level statements.
type Program struct {
	Stmts []Node
}

// Expressions.

type NullLit struct{ position }

type BoolLit struct {
	position
	Value bool
}

type NumLit struct {
	position
	Value float64
}

type StrLit struct {
	position
	Value string
}

type Ident struct {
	position
	Name string
}

type ListLit struct {
	position
	Elems []Node
}

// MapLit preserves key order as written.
type MapLit struct {
	position
	Keys   []string
	Values []Node
}

type Unary struct {
	position
	Op TokenType // MINUS, NOT
	X  Node
}

type Binary struct {
	position
	Op TokenType
	L  Node
	R  Node
}

type Call struct {
	position
	Fn   Node
	Args []Node
}

type Member struct {
	position
	X    Node
	Name string
}

type Index struct {
	position
	X   Node
	Key Node
}

// Statements.

type Let struct {
	position
	Name  string
	Value Node
}

// Assign's Target is an Ident, Member, or Index expression.
type Assign struct {
	position
	Target Node
	Value  Node
}

type ExprStmt struct {
	position
	X Node
}

type Block struct {
	position
	Stmts []Node
}

// If's Else is nil, a *Block, or a nested *If ("else if").
type If struct {
	position
	Cond Node
	Then *Block
	Else Node
}

type While struct {
	position
	Cond Node
	Body *Block
}

type ForIn struct {
	position
	Name string
	Seq  Node
	Body *Block
}

type FunDecl struct {
	position
	Name   string
	Params []string
	Body   *Block
}

type Return struct {
	position
	Value Node // nil for bare return
}

type BreakStmt struct{ position }

type ContinueStmt struct{ position }
