// Package template holds the entry forest handed to hosts after a run.
package template

import (
	"bt/interpreter-go/pkg/reader"
	"bt/interpreter-go/pkg/runtime"
)

// ColorNone is the palette value meaning "no override".
const ColorNone uint32 = 0xFFFFFFFF

// Entry is one annotated span of the byte stream. Entries own their
// children; Parent is a non-owning back-reference.
type Entry struct {
	Name       string
	TypeName   string
	Offset     uint64
	Size       uint64
	Endianness reader.ByteOrder
	FgColor    uint32
	BgColor    uint32
	Value      runtime.Value
	Children   []*Entry
	Parent     *Entry
}

// Walk visits the entry and every descendant in declaration order.
func (e *Entry) Walk(visit func(*Entry)) {
	visit(e)
	for _, child := range e.Children {
		child.Walk(visit)
	}
}

// Count returns the number of entries in the subtree rooted at e.
func (e *Entry) Count() int {
	n := 0
	e.Walk(func(*Entry) { n++ })
	return n
}
