package mjcf

// MainClass is the implicit name of the top-level default class.
const MainClass = "main"

// Default is one node of the default-class tree. Each class stores the raw
// default elements declared inside it (<geom>, <joint>, ...); inheritance is
// resolved at lookup time by walking up the Parent chain.
type Default struct {
	Class    string
	Parent   *Default
	Children []*Default
	elements map[string]*Element
}

// Element returns the default element this class declares for tag.
func (d *Default) Element(tag string) *Element {
	if d == nil {
		return nil
	}
	return d.elements[tag]
}

// Elements returns the tags declared directly in this class.
func (d *Default) Elements() map[string]*Element { return d.elements }

// Find returns the class with the given name in this subtree.
func (d *Default) Find(class string) *Default {
	if d == nil {
		return nil
	}
	if d.Class == class {
		return d
	}
	for _, c := range d.Children {
		if found := c.Find(class); found != nil {
			return found
		}
	}
	return nil
}

// Chain returns the class names from the root class down to d.
func (d *Default) Chain() []string {
	var out []string
	for c := d; c != nil; c = c.Parent {
		out = append([]string{c.Class}, out...)
	}
	return out
}

// Attrs is the attribute view of one element: its own attributes first,
// then the attributes its default class (and that class's ancestors)
// declare for the same tags.
type Attrs struct {
	el    *Element
	tags  []string
	class *Default
}

// NewAttrs builds a view over el resolved through class for the given tags.
func NewAttrs(el *Element, class *Default, tags ...string) Attrs {
	return Attrs{el: el, tags: tags, class: class}
}

// Lookup returns the effective raw value of name.
func (a Attrs) Lookup(name string) (string, bool) {
	if v, ok := a.el.Attr(name); ok {
		return v, true
	}
	for d := a.class; d != nil; d = d.Parent {
		for _, tag := range a.tags {
			if v, ok := d.Element(tag).Attr(name); ok {
				return v, true
			}
		}
	}
	return "", false
}

// Own returns name only if the element itself declares it.
func (a Attrs) Own(name string) (string, bool) { return a.el.Attr(name) }

// Declared reports whether name is set on the element or its class chain.
func (a Attrs) Declared(name string) bool {
	_, ok := a.Lookup(name)
	return ok
}

// Element returns the underlying element; nil when the section was absent.
func (a Attrs) Element() *Element { return a.el }

// Class returns the resolved default class.
func (a Attrs) Class() *Default { return a.class }

// Names returns every attribute name the element declares itself.
func (a Attrs) Names() []string {
	if a.el == nil {
		return nil
	}
	out := make([]string, len(a.el.Attrs))
	for i, at := range a.el.Attrs {
		out[i] = at.Name
	}
	return out
}
