package bnf

import (
	"strings"
	"testing"
)

func TestAttrResolution(t *testing.T) {
	src := `
{
  parserClass="generated.GrammarParser"
  elementTypePrefix="G_"
  semi=";"
}
root ::= stmt
stmt ::= decl ';' {
  parserClass="generated.StmtParser"
  pin("stmt_.*")=1
  pin=2
}
decl ::= id
`
	g, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	stmt := g.Rule("stmt")
	decl := g.Rule("decl")

	tests := []struct {
		caption string
		lookup  func() interface{}
		want    interface{}
	}{
		{
			caption: "a rule attribute shadows the root attribute",
			lookup: func() interface{} {
				v, _ := g.Attr(stmt, "parserClass", "")
				return v
			},
			want: "generated.StmtParser",
		},
		{
			caption: "a root attribute applies where the rule declares nothing",
			lookup: func() interface{} {
				v, _ := g.Attr(decl, "parserClass", "")
				return v
			},
			want: "generated.GrammarParser",
		},
		{
			caption: "a pattern-qualified attribute wins over the unqualified one",
			lookup: func() interface{} {
				v, _ := g.Attr(stmt, "pin", "stmt_1")
				return v
			},
			want: 1,
		},
		{
			caption: "a non-matching pattern falls through to the unqualified attribute",
			lookup: func() interface{} {
				v, _ := g.Attr(stmt, "pin", "other")
				return v
			},
			want: 2,
		},
		{
			caption: "the pattern matches whole names only",
			lookup: func() interface{} {
				v, _ := g.Attr(stmt, "pin", "my_stmt_1")
				return v
			},
			want: 2,
		},
		{
			caption: "an unset attribute resolves to the caller default",
			lookup: func() interface{} {
				return g.StringAttr(decl, "mixin", "", "generated.Base")
			},
			want: "generated.Base",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			if got := tt.lookup(); got != tt.want {
				t.Fatalf("unexpected value: want: %v, got: %v", tt.want, got)
			}
		})
	}

	t.Run("a token declaration is found by its text", func(t *testing.T) {
		if name := g.AttrNameByValue(stmt, ";"); name != "semi" {
			t.Fatalf("unexpected attribute name: want: semi, got: %v", name)
		}
		if name := g.AttrNameByValue(stmt, ","); name != "" {
			t.Fatalf("unexpected attribute name: want empty, got: %v", name)
		}
	})

	t.Run("modifier helpers read rule-local attributes only", func(t *testing.T) {
		if stmt.IsPrivate() || stmt.IsExternal() || stmt.IsMeta() {
			t.Fatal("stmt must carry no modifier")
		}
	})
}
