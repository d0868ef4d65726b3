package mjcf

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrMalformed    = errors.New("malformed MJCF document")
	ErrUnknownClass = errors.New("unknown default class")
	ErrUnknownAsset = errors.New("unknown asset")
)

// Attr is one XML attribute, kept in document order.
type Attr struct {
	Name  string
	Value string
}

// Element is a parsed MJCF element: its tag, attributes and children in
// document order. It carries no MJCF semantics of its own.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
	Line     int
}

// Attr returns the raw value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Elements returns the children in document order; nil-safe.
func (e *Element) Elements() []*Element {
	if e == nil {
		return nil
	}
	return e.Children
}

// Child returns the first child with the given tag, or nil.
func (e *Element) Child(name string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all children with the given tag.
func (e *Element) ChildrenNamed(name string) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Parse reads an MJCF document into an element tree. The root element must
// be <mujoco>.
func Parse(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	var (
		root  *Element
		stack []*Element
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			line, _ := dec.InputPos()
			e := &Element{Name: t.Name.Local, Line: line}
			for _, a := range t.Attr {
				e.Attrs = append(e.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrMalformed)
				}
				root = e
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, e)
			}
			stack = append(stack, e)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	if root.Name != "mujoco" {
		return nil, fmt.Errorf("%w: root element is <%s>, want <mujoco>", ErrMalformed, root.Name)
	}
	return root, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(doc string) (*Element, error) {
	return Parse(strings.NewReader(doc))
}
