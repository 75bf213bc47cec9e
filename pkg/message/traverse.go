package message

import (
	"github.com/jhillyerd/enmime/v2"
)

// Visitor receives each MIME part of a message during a Walk.  Returning false from VisitPart
// skips the children of that part.
type Visitor interface {
	VisitPart(p *enmime.Part, depth int) bool
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(p *enmime.Part, depth int) bool

// VisitPart calls f.
func (f VisitorFunc) VisitPart(p *enmime.Part, depth int) bool {
	return f(p, depth)
}

// Walk visits root and its descendants depth first, in the order they appear in the message.
func Walk(root *enmime.Part, v Visitor) {
	walk(root, 0, v)
}

func walk(p *enmime.Part, depth int, v Visitor) {
	for ; p != nil; p = p.NextSibling {
		if v.VisitPart(p, depth) {
			walk(p.FirstChild, depth+1, v)
		}
	}
}

// PartSummary describes a single MIME part without its content.
type PartSummary struct {
	Depth       int
	ContentType string
	Disposition string
	FileName    string
	Size        int
}

// Parts summarizes every MIME part of the message, depth first.
func (m *Message) Parts() []PartSummary {
	var parts []PartSummary
	Walk(m.env.Root, VisitorFunc(func(p *enmime.Part, depth int) bool {
		parts = append(parts, PartSummary{
			Depth:       depth,
			ContentType: p.ContentType,
			Disposition: p.Disposition,
			FileName:    p.FileName,
			Size:        len(p.Content),
		})
		return true
	}))
	return parts
}
