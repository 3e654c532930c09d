package main

import (
	"encoding/json"
	"io"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
)

func renderTable(w io.Writer, header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(header)
	t.AppendRows(rows)
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
}

// treeWriter renders indented items as a connected tree.
type treeWriter struct {
	l     list.Writer
	depth int
}

func newTreeWriter(w io.Writer) *treeWriter {
	l := list.NewWriter()
	l.SetOutputMirror(w)
	l.SetStyle(list.StyleConnectedLight)
	return &treeWriter{l: l}
}

// Add appends item at depth, which may be at most one deeper than the
// previous item.
func (t *treeWriter) Add(item interface{}, depth int) {
	for t.depth < depth {
		t.l.Indent()
		t.depth++
	}
	for t.depth > depth {
		t.l.UnIndent()
		t.depth--
	}
	t.l.AppendItem(item)
}

func (t *treeWriter) Render() {
	if t.l.Length() > 0 {
		t.l.Render()
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
