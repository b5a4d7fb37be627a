// Package scanner walks an exported design document and reports
// accessibility violations as issue payloads ready for ingestion.
package scanner

import (
	"encoding/json"
	"fmt"
	"io"
)

const (
	NodeTypePage      = "PAGE"
	NodeTypeFrame     = "FRAME"
	NodeTypeText      = "TEXT"
	NodeTypeComponent = "COMPONENT"
	NodeTypeInstance  = "INSTANCE"

	PaintSolid = "SOLID"
)

type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

type Paint struct {
	Type    string   `json:"type"`
	Color   Color    `json:"color"`
	Opacity *float64 `json:"opacity,omitempty"`
}

type Node struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Fills      []Paint `json:"fills,omitempty"`
	FontSize   float64 `json:"font_size,omitempty"`
	FontWeight float64 `json:"font_weight,omitempty"`
	Children   []*Node `json:"children,omitempty"`

	parent *Node
}

// solidFill returns the first fill when it is a solid paint.
func (n *Node) solidFill() (Color, bool) {
	if n == nil || len(n.Fills) == 0 || n.Fills[0].Type != PaintSolid {
		return Color{}, false
	}
	return n.Fills[0].Color, true
}

// Document is the root of an exported design file. Its children are pages.
type Document struct {
	FileKey  string  `json:"file_key"`
	Name     string  `json:"name"`
	Children []*Node `json:"children"`
}

// Link sets parent pointers throughout the tree. Decode calls it; documents
// built in code must call it before analysis.
func (d *Document) Link() {
	for _, page := range d.Children {
		page.parent = nil
		linkChildren(page)
	}
}

func linkChildren(n *Node) {
	for _, c := range n.Children {
		c.parent = n
		linkChildren(c)
	}
}

// Page returns the top-level page with the given id.
func (d *Document) Page(id string) (*Node, bool) {
	for _, p := range d.Children {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode design document: %w", err)
	}
	doc.Link()
	return &doc, nil
}
