// Package debug renders indented trees for manual inspection.
package debug

import (
	"fmt"
	"strconv"
	"strings"

	"cssnitro/css"
)

type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{w: &strings.Builder{}}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Value writes style value under label, containers are expanded one level
// deeper per nesting, function calls stay on one line.
func (tw TreeWriter) Value(depth int, label string, v css.Value) {
	tw.indent(depth)
	tw.w.WriteString(label)

	if v.IsCall() {
		tw.w.WriteString(": ")
		tw.w.WriteString(v.String())
		tw.w.WriteByte('\n')
		return
	}
	switch v.Kind() {
	case css.KindList:
		list, _ := v.AsList()
		fmt.Fprintf(tw.w, " [%d]\n", len(list))
		for i, e := range list {
			tw.Value(depth+1, strconv.Itoa(i), e)
		}
	case css.KindObject:
		obj, _ := v.AsObject()
		fmt.Fprintf(tw.w, " {%d}\n", obj.Len())
		for k, e := range obj.All() {
			tw.Value(depth+1, k, e)
		}
	case css.KindString:
		s, _ := v.AsString()
		tw.w.WriteString(": ")
		tw.w.WriteString(strconv.Quote(s))
		tw.w.WriteByte('\n')
	case css.KindOpaque:
		tok, _ := v.AsOpaque()
		if c, ok := tok.(uint32); ok {
			fmt.Fprintf(tw.w, ": #%08x\n", c)
			return
		}
		fmt.Fprintf(tw.w, ": <%v>\n", tok)
	default:
		tw.w.WriteString(": ")
		tw.w.WriteString(v.String())
		tw.w.WriteByte('\n')
	}
}

// Object writes every key of style map, nil map produces nothing.
func (tw TreeWriter) Object(depth int, label string, o *css.Object) {
	if o.Len() == 0 {
		return
	}
	tw.Value(depth, label, css.ObjectOf(o))
}
