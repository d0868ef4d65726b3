package scene

import (
	"fmt"
	"slices"
	"sort"
)

// Specifier says whether a prim is concrete or an abstract class template.
type Specifier int

const (
	SpecifierDef Specifier = iota
	SpecifierClass
)

func (s Specifier) String() string {
	if s == SpecifierClass {
		return "class"
	}
	return "def"
}

// TimeSample is one (time, value) pair of an animated attribute.
type TimeSample struct {
	Time  float64
	Value any
}

// Attribute is a typed property. It can hold a default value, time samples,
// connections, or any mix of the three.
type Attribute struct {
	Name          string
	Type          ValueType
	Uniform       bool
	Interpolation string

	value       any
	hasValue    bool
	samples     []TimeSample
	connections []string
}

// Set authors the default (non-animated) value.
func (a *Attribute) Set(v any) error {
	if err := CheckValue(a.Type, v); err != nil {
		return fmt.Errorf("set %s: %w", a.Name, err)
	}
	a.value, a.hasValue = v, true
	return nil
}

// Get returns the default value and whether one is authored.
func (a *Attribute) Get() (any, bool) { return a.value, a.hasValue }

// SetAt authors a time sample, keeping samples ordered by time. A second
// sample at the same time replaces the first.
func (a *Attribute) SetAt(t float64, v any) error {
	if err := CheckValue(a.Type, v); err != nil {
		return fmt.Errorf("set %s at %g: %w", a.Name, t, err)
	}
	i := sort.Search(len(a.samples), func(i int) bool { return a.samples[i].Time >= t })
	if i < len(a.samples) && a.samples[i].Time == t {
		a.samples[i].Value = v
		return nil
	}
	a.samples = slices.Insert(a.samples, i, TimeSample{Time: t, Value: v})
	return nil
}

// At returns the sample authored at exactly t.
func (a *Attribute) At(t float64) (any, bool) {
	for _, s := range a.samples {
		if s.Time == t {
			return s.Value, true
		}
	}
	return nil, false
}

func (a *Attribute) Samples() []TimeSample { return a.samples }

// Connect adds a connection to the property path target.
func (a *Attribute) Connect(target string) {
	if !slices.Contains(a.connections, target) {
		a.connections = append(a.connections, target)
	}
}

func (a *Attribute) Connections() []string { return a.connections }

// HasAuthoredValue reports whether the attribute carries a default or samples.
func (a *Attribute) HasAuthoredValue() bool { return a.hasValue || len(a.samples) > 0 }

// Relationship is an ordered list of target prim paths.
type Relationship struct {
	Name    string
	targets []Path
}

// AddTarget appends target unless it is already present.
func (r *Relationship) AddTarget(target Path) {
	if !slices.Contains(r.targets, target) {
		r.targets = append(r.targets, target)
	}
}

func (r *Relationship) Targets() []Path { return r.targets }

// Prim is a node of the scene document.
type Prim struct {
	Path       Path
	Specifier  Specifier
	TypeName   string
	Kind       string
	CustomData map[string]any

	inherits   []Path
	apiSchemas []string
	attrs      []*Attribute
	attrIndex  map[string]int
	rels       []*Relationship
	children   []Path

	store *Store
	id    uint32
}

func (p *Prim) Name() string { return p.Path.Name() }

// Children returns child prim paths in definition order.
func (p *Prim) Children() []Path { return p.children }

// APISchemas returns the prepended API schema list.
func (p *Prim) APISchemas() []string { return p.apiSchemas }

func (p *Prim) HasAPI(name string) bool { return slices.Contains(p.apiSchemas, name) }

// ApplyAPI prepends schema to the prim's API list. Applying a schema twice is
// a no-op; it reports whether the list changed.
func (p *Prim) ApplyAPI(schema string) bool {
	if p.HasAPI(schema) {
		return false
	}
	p.apiSchemas = append(p.apiSchemas, schema)
	if p.store != nil {
		p.store.indexAPI(schema, p.id)
	}
	return true
}

// AddInherit records an inherit arc to a class prim.
func (p *Prim) AddInherit(class Path) {
	if !slices.Contains(p.inherits, class) {
		p.inherits = append(p.inherits, class)
	}
}

func (p *Prim) Inherits() []Path { return p.inherits }

// CreateAttribute returns the named attribute, creating it when absent.
// An existing attribute of another type is an error.
func (p *Prim) CreateAttribute(name string, t ValueType) (*Attribute, error) {
	if i, ok := p.attrIndex[name]; ok {
		a := p.attrs[i]
		if a.Type != t {
			return nil, fmt.Errorf("%w: %s is %s, not %s", ErrTypeMismatch, p.Path.AppendProperty(name), a.Type, t)
		}
		return a, nil
	}
	a := &Attribute{Name: name, Type: t}
	if p.attrIndex == nil {
		p.attrIndex = make(map[string]int)
	}
	p.attrIndex[name] = len(p.attrs)
	p.attrs = append(p.attrs, a)
	return a, nil
}

// Set creates the attribute if needed and authors its default value.
func (p *Prim) Set(name string, t ValueType, v any) error {
	a, err := p.CreateAttribute(name, t)
	if err != nil {
		return err
	}
	return a.Set(v)
}

// Attribute returns the named attribute or nil.
func (p *Prim) Attribute(name string) *Attribute {
	if i, ok := p.attrIndex[name]; ok {
		return p.attrs[i]
	}
	return nil
}

// Attributes returns attributes in authoring order.
func (p *Prim) Attributes() []*Attribute { return p.attrs }

// CreateRelationship returns the named relationship, creating it when absent.
func (p *Prim) CreateRelationship(name string) *Relationship {
	if r := p.Relationship(name); r != nil {
		return r
	}
	r := &Relationship{Name: name}
	p.rels = append(p.rels, r)
	return r
}

// Relationship returns the named relationship or nil.
func (p *Prim) Relationship(name string) *Relationship {
	for _, r := range p.rels {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func (p *Prim) Relationships() []*Relationship { return p.rels }
