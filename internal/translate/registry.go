package translate

import (
	"fmt"
	"strconv"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/mjcusd/internal/scene"
)

// EntityID is the stable index of a registered entity in its Registry.
type EntityID uint32

// Entity is one named MJCF element and the prim it was translated to.
type Entity struct {
	ID   EntityID
	Tag  string
	Name string
	Path scene.Path
}

type entityKey struct{ tag, name string }

// Registry is the entity arena of one translation: every named element gets
// an EntityID, a name index entry and a bit in the set of its tag. It also
// owns prim naming, so sibling disambiguation follows document order.
//
// Entities are registered during the structure walk; once Freeze is called
// the name index is read-only.
type Registry struct {
	entities []Entity
	byName   map[entityKey]EntityID
	byTag    map[string]*roaring.Bitmap
	claimed  map[scene.Path]map[string]bool
	frozen   bool
}

func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[entityKey]EntityID),
		byTag:   make(map[string]*roaring.Bitmap),
		claimed: make(map[scene.Path]map[string]bool),
	}
}

// Claim returns the prim name for name under parent: name rewritten into a
// valid identifier, with _1, _2, ... appended if an earlier sibling already
// took it.
func (r *Registry) Claim(parent scene.Path, name string) string {
	taken := r.claimed[parent]
	if taken == nil {
		taken = make(map[string]bool)
		r.claimed[parent] = taken
	}
	base := scene.MakeValidIdentifier(name)
	candidate := base
	for i := 1; taken[candidate]; i++ {
		candidate = base + "_" + strconv.Itoa(i)
	}
	taken[candidate] = true
	return candidate
}

// Reserve marks names as taken under parent without handing them out.
func (r *Registry) Reserve(parent scene.Path, names ...string) {
	for _, n := range names {
		r.Claim(parent, n)
	}
}

// Register records the prim authored for the element tag/name. MJCF names
// are unique per element kind; a repeated name keeps its first prim.
func (r *Registry) Register(tag, name string, p scene.Path) {
	if r.frozen {
		panic(fmt.Sprintf("translate: register %s %q after the structure walk", tag, name))
	}
	k := entityKey{tag, name}
	if _, ok := r.byName[k]; ok {
		return
	}
	id := EntityID(len(r.entities))
	r.entities = append(r.entities, Entity{ID: id, Tag: tag, Name: name, Path: p})
	r.byName[k] = id
	set, ok := r.byTag[tag]
	if !ok {
		set = roaring.New()
		r.byTag[tag] = set
	}
	set.Add(uint32(id))
}

// Freeze ends registration.
func (r *Registry) Freeze() { r.frozen = true }

// Lookup returns the prim registered for tag/name.
func (r *Registry) Lookup(tag, name string) (scene.Path, bool) {
	id, ok := r.byName[entityKey{tag, name}]
	if !ok {
		return "", false
	}
	return r.entities[id].Path, true
}

// Entity returns the entity with the given ID.
func (r *Registry) Entity(id EntityID) (Entity, bool) {
	if int(id) >= len(r.entities) {
		return Entity{}, false
	}
	return r.entities[id], true
}

// Entities returns the entities of one tag in registration order.
func (r *Registry) Entities(tag string) []Entity {
	set, ok := r.byTag[tag]
	if !ok {
		return nil
	}
	out := make([]Entity, 0, set.GetCardinality())
	it := set.Iterator()
	for it.HasNext() {
		out = append(out, r.entities[it.Next()])
	}
	return out
}

// Len returns the number of registered entities.
func (r *Registry) Len() int { return len(r.entities) }
