// Package scene is the in-memory scene document: a path-addressed tree of
// typed prims carrying attributes, relationships and applied API schemas,
// plus writers that serialize it as a text layer, JSON or SQLite.
package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring"
)

var (
	ErrNotFound     = errors.New("prim not found")
	ErrPrimExists   = errors.New("prim already exists")
	ErrNoParent     = errors.New("parent prim does not exist")
	ErrTypeMismatch = errors.New("value type mismatch")
)

// Store holds one scene document.
//
// Prim definition and lookup are safe for concurrent use. The content of a
// single prim (attributes, relationships) is not locked: a prim is authored
// by one goroutine and only read once translation has finished.
type Store struct {
	mu          sync.RWMutex
	prims       map[Path]*Prim
	roots       []Path
	defaultPrim string

	// Roaring bitmap index: API schema → set of internal prim IDs.
	// Lets PrimsWithAPI answer without a full traversal.
	apiIndex map[string]*roaring.Bitmap
	byID     []*Prim
}

func NewStore() *Store {
	return &Store{
		prims:    make(map[Path]*Prim),
		apiIndex: make(map[string]*roaring.Bitmap),
	}
}

// SetDefaultPrim names the top-level prim consumers should open by default.
func (s *Store) SetDefaultPrim(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultPrim = name
}

func (s *Store) DefaultPrim() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultPrim
}

// DefinePrim creates a concrete prim of the given type at path. The parent
// must already exist; redefining a path is an error.
func (s *Store) DefinePrim(path Path, typeName string) (*Prim, error) {
	return s.define(path, typeName, SpecifierDef)
}

// DefineClass creates an untyped class prim at path.
func (s *Store) DefineClass(path Path) (*Prim, error) {
	return s.define(path, "", SpecifierClass)
}

// Ensure returns the prim at path, defining it with typeName when absent.
// An existing prim of a different type is an error.
func (s *Store) Ensure(path Path, typeName string) (*Prim, error) {
	s.mu.RLock()
	p, ok := s.prims[path]
	s.mu.RUnlock()
	if ok {
		if p.TypeName != typeName {
			return nil, fmt.Errorf("%w: %s is a %q, not %q", ErrPrimExists, path, p.TypeName, typeName)
		}
		return p, nil
	}
	return s.DefinePrim(path, typeName)
}

func (s *Store) define(path Path, typeName string, spec Specifier) (*Prim, error) {
	if path == "" || path == AbsoluteRoot || path[0] != '/' {
		return nil, fmt.Errorf("define %q: invalid prim path", path)
	}
	if name := path.Name(); !IsValidIdentifier(name) {
		return nil, fmt.Errorf("define %s: invalid prim name %q", path, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.prims[path]; exists {
		return nil, fmt.Errorf("%w: %s", ErrPrimExists, path)
	}
	parentPath := path.Parent()
	var parent *Prim
	if parentPath != AbsoluteRoot {
		var ok bool
		if parent, ok = s.prims[parentPath]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoParent, path)
		}
	}

	p := &Prim{
		Path:      path,
		Specifier: spec,
		TypeName:  typeName,
		store:     s,
		id:        uint32(len(s.byID)),
	}
	s.prims[path] = p
	s.byID = append(s.byID, p)
	if parent != nil {
		parent.children = append(parent.children, path)
	} else {
		s.roots = append(s.roots, path)
	}
	return p, nil
}

// GetPrim returns the prim at path.
func (s *Store) GetPrim(path Path) (*Prim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prims[path]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Store) HasPrim(path Path) bool {
	_, err := s.GetPrim(path)
	return err == nil
}

// Roots returns top-level prim paths in definition order.
func (s *Store) Roots() []Path {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Path(nil), s.roots...)
}

// Len returns the number of prims in the document.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prims)
}

// Walk visits every prim depth-first in definition order.
func (s *Store) Walk(fn func(*Prim) error) error {
	for _, root := range s.Roots() {
		if err := s.walk(root, fn); err != nil {
			return err
		}
	}
	return nil
}

// WalkFrom visits the subtree rooted at path, root included.
func (s *Store) WalkFrom(path Path, fn func(*Prim) error) error {
	if !s.HasPrim(path) {
		return ErrNotFound
	}
	return s.walk(path, fn)
}

func (s *Store) walk(path Path, fn func(*Prim) error) error {
	p, err := s.GetPrim(path)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	s.mu.RLock()
	children := append([]Path(nil), p.children...)
	s.mu.RUnlock()
	for _, c := range children {
		if err := s.walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// PrimsWithAPI returns the paths of all prims that have schema applied, in
// definition order.
func (s *Store) PrimsWithAPI(schema string) []Path {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bm, ok := s.apiIndex[schema]
	if !ok {
		return nil
	}
	out := make([]Path, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, s.byID[it.Next()].Path)
	}
	return out
}

func (s *Store) indexAPI(schema string, id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bm, ok := s.apiIndex[schema]
	if !ok {
		bm = roaring.New()
		s.apiIndex[schema] = bm
	}
	bm.Add(id)
}
