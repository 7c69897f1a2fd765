// Package dsl parses the .fig block language used to describe figures.
//
//	type = Grid
//	row {
//	  cell { type = Fill  size = [64, 64]  color = "#ff8800" }
//	}
package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	figLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `[-+]?(?:\d+\.\d*|\.\d+|\d+)(?:[eE][-+]?\d+)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
		{Name: "Punct", Pattern: `[][{}=:;,]`},
	})

	documentParser = participle.MustBuild[Document](
		participle.Lexer(figLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Document is the root AST node of a .fig file: an implicit top-level block.
type Document struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Entries []*Entry       `parser:"( @@ ';'? )*"`
}

// Entry is either `name = value` or `name { ... }`.
type Entry struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Body  *Body          `parser:"@@?"`
	Value *Value         `parser:"( ( '=' | ':' ) @@ )?"`
}

// Body is a nested block.
type Body struct {
	Entries []*Entry `parser:"'{' ( @@ ';'? )* '}'"`
}

// Value is a scalar or an array. Identifiers are kept as bare words (enum names).
type Value struct {
	Pos    lexer.Position `parser:"" json:"-"`
	String *StringLiteral `parser:"  @String"`
	Color  *string        `parser:"| @Color"`
	Number *float64       `parser:"| @Number"`
	Bool   *Boolean       `parser:"| @( 'true' | 'false' )"`
	Ident  *string        `parser:"| @Ident"`
	Array  *Array         `parser:"| @@"`
}

// Array captures `[ a, b, ... ]`; elements may themselves be arrays.
type Array struct {
	Values []*Value `parser:"'[' ( @@ ( ',' @@ )* )? ']'"`
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Boolean captures true/false keywords.
type Boolean bool

// Capture implements participle.Capture.
func (b *Boolean) Capture(values []string) error {
	*b = len(values) > 0 && values[0] == "true"
	return nil
}

// Parse parses .fig content from an io.Reader.
func Parse(r io.Reader) (*Document, error) {
	doc, err := documentParser.Parse("", r)
	if err != nil {
		return nil, err
	}
	if err := validate(doc.Entries); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseString parses .fig content from a string.
func ParseString(input string) (*Document, error) {
	doc, err := documentParser.ParseString("", input)
	if err != nil {
		return nil, err
	}
	if err := validate(doc.Entries); err != nil {
		return nil, err
	}
	return doc, nil
}

// validate 检查每个条目恰好是赋值或嵌套块之一。
func validate(entries []*Entry) error {
	for _, e := range entries {
		switch {
		case e.Body != nil && e.Value != nil:
			return fmt.Errorf("%s: 条目 %q 不能同时包含块与赋值", e.Pos, e.Name)
		case e.Body == nil && e.Value == nil:
			return fmt.Errorf("%s: 条目 %q 缺少值或块", e.Pos, e.Name)
		case e.Body != nil:
			if err := validate(e.Body.Entries); err != nil {
				return err
			}
		}
	}
	return nil
}
