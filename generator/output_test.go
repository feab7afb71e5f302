package generator

import (
	"strings"
	"testing"
)

func TestWriter(t *testing.T) {
	tests := []struct {
		caption string
		lines   []string
		want    string
	}{
		{
			caption: "a trailing brace indents the following lines",
			lines:   []string{"class X {", "int a;", "}"},
			want:    "class X {\n  int a;\n}\n",
		},
		{
			caption: "nesting accumulates",
			lines:   []string{"class X {", "void f() {", "a;", "}", "}"},
			want:    "class X {\n  void f() {\n    a;\n  }\n}\n",
		},
		{
			caption: "a leading brace dedents before printing",
			lines:   []string{"if (x) {", "a;", "} else {", "b;", "}"},
			want:    "if (x) {\n  a;\n} else {\n  b;\n}\n",
		},
		{
			caption: "continuation lines get one extra level",
			lines:   []string{"void f() {", "g(x,\ny);", "}"},
			want:    "void f() {\n  g(x,\n    y);\n}\n",
		},
		{
			caption: "an empty line stays empty",
			lines:   []string{"class X {", "", "}"},
			want:    "class X {\n\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			var b strings.Builder
			o := newWriter(&b)
			for _, line := range tt.lines {
				o.line(line)
			}
			if b.String() != tt.want {
				t.Fatalf("unexpected output:\nwant:\n%q\ngot:\n%q", tt.want, b.String())
			}
		})
	}
}
