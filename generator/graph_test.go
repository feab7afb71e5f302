package generator

import (
	"strings"
	"testing"

	"github.com/hiraide/psigen/bnf"
)

func accessorsFor(t *testing.T, src, ruleName string) []Accessor {
	t.Helper()
	grammar, err := bnf.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	return NewRuleGraph(grammar).AccessorsFor(grammar.Rule(ruleName))
}

func TestRuleGraph(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		rule    string
		want    []Accessor
	}{
		{
			caption: "sequence children are required",
			src: `
file ::= stmt
stmt ::= decl name
decl ::= id
name ::= id
`,
			rule: "stmt",
			want: []Accessor{
				{Rule: nil, Token: "", Cardinality: Required},
				{Rule: nil, Token: "", Cardinality: Required},
			},
		},
		{
			caption: "choice and option weaken to optional",
			src: `
file ::= stmt
stmt ::= (decl | name) tag ?
decl ::= id
name ::= id
tag ::= id
`,
			rule: "stmt",
			want: []Accessor{
				{Cardinality: Optional},
				{Cardinality: Optional},
				{Cardinality: Optional},
			},
		},
		{
			caption: "repetition makes many",
			src: `
file ::= stmt
stmt ::= decl * name +
decl ::= id
name ::= id
`,
			rule: "stmt",
			want: []Accessor{
				{Cardinality: AnyNumber},
				{Cardinality: AtLeastOne},
			},
		},
		{
			caption: "duplicate occurrences join upward",
			src: `
file ::= stmt
stmt ::= name '=' name
name ::= id
`,
			rule: "stmt",
			want: []Accessor{
				{Cardinality: AtLeastOne},
			},
		},
		{
			caption: "private rules are inlined",
			src: `
file ::= stmt
stmt ::= body
private body ::= decl *
decl ::= id
`,
			rule: "stmt",
			want: []Accessor{
				{Cardinality: AnyNumber},
			},
		},
		{
			caption: "lookahead bodies contribute nothing",
			src: `
file ::= stmt
stmt ::= !decl name
decl ::= id
name ::= id
`,
			rule: "stmt",
			want: []Accessor{
				{Cardinality: Required},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			got := accessorsFor(t, tt.src, tt.rule)
			if len(got) != len(tt.want) {
				t.Fatalf("unexpected accessor count: want: %v, got: %v", len(tt.want), len(got))
			}
			for i, want := range tt.want {
				if got[i].Cardinality != want.Cardinality {
					t.Fatalf("unexpected cardinality of accessor %v: want: %v, got: %v", i, want.Cardinality, got[i].Cardinality)
				}
			}
		})
	}
}

func TestRuleGraph_Ordering(t *testing.T) {
	got := accessorsFor(t, `
file ::= stmt
stmt ::= zebra alpha sym id
zebra ::= id
alpha ::= id
`, "stmt")
	if len(got) != 4 {
		t.Fatalf("unexpected accessor count: want: 4, got: %v", len(got))
	}
	// rule accessors sorted by name first, then token accessors by text
	if got[0].Rule == nil || got[0].Rule.Name != "alpha" {
		t.Fatalf("unexpected first accessor: %+v", got[0])
	}
	if got[1].Rule == nil || got[1].Rule.Name != "zebra" {
		t.Fatalf("unexpected second accessor: %+v", got[1])
	}
	if got[2].Token != "id" || got[3].Token != "sym" {
		t.Fatalf("unexpected token order: %v, %v", got[2].Token, got[3].Token)
	}
}

func TestRuleGraph_RecursivePrivateRule(t *testing.T) {
	// a self-referencing private rule must not loop the collector
	got := accessorsFor(t, `
file ::= stmt
stmt ::= body
private body ::= decl body ?
decl ::= id
`, "stmt")
	if len(got) != 1 {
		t.Fatalf("unexpected accessor count: want: 1, got: %v", len(got))
	}
	if got[0].Rule.Name != "decl" {
		t.Fatalf("unexpected accessor: %+v", got[0])
	}
}
