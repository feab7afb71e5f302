package generator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// writer is a line-oriented sink that tracks brace nesting and indents
// with two spaces per level. A physical line starting with '}' is dedented
// before it is printed; a line ending with '{' indents what follows.
// Continuation lines inside one emit call get one extra level when the
// call is nested; at nesting zero no line is indented.
type writer struct {
	w       io.Writer
	nesting int
}

func newWriter(w io.Writer) *writer {
	return &writer{
		w: w,
	}
}

func (o *writer) line(s string) {
	if s == "" {
		fmt.Fprintln(o.w)
		return
	}
	for i, sub := range strings.Split(s, "\n") {
		if strings.HasPrefix(sub, "}") {
			o.nesting--
		}
		if o.nesting > 0 {
			indent := o.nesting
			if i > 0 {
				indent++
			}
			fmt.Fprint(o.w, strings.Repeat("  ", indent))
		}
		if strings.HasSuffix(sub, "{") {
			o.nesting++
		}
		fmt.Fprintln(o.w, sub)
	}
}

func (o *writer) linef(format string, a ...interface{}) {
	o.line(fmt.Sprintf(format, a...))
}

func (o *writer) blank() {
	o.line("")
}

// withOutputFile runs fn against a fresh writer over the file backing the
// fully-qualified class name under root. The file handle is released on
// every exit path.
func (g *Generator) withOutputFile(className string, fn func() error) (retErr error) {
	path := filepath.Join(g.rootPath, filepath.FromSlash(strings.ReplaceAll(className, ".", "/"))+".java")
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if retErr == nil {
			retErr = cerr
		}
	}()
	g.out = newWriter(f)
	defer func() {
		g.out = nil
	}()
	return fn()
}
