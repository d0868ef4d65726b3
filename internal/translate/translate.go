// Package translate drives the conversion of an MJCF model into a scene
// document.
//
// Translation runs in two phases. The structure walk defines classes,
// materials, the physics scene and the body tree, registering every named
// element. The second phase authors what refers back to those elements
// (actuators, keyframes and material bindings) against the completed
// registry.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-git/go-billy/v5"

	"github.com/agentic-research/mjcusd/internal/actuator"
	"github.com/agentic-research/mjcusd/internal/kinematics"
	"github.com/agentic-research/mjcusd/internal/material"
	"github.com/agentic-research/mjcusd/internal/mesh"
	"github.com/agentic-research/mjcusd/internal/mjcf"
	"github.com/agentic-research/mjcusd/internal/options"
	"github.com/agentic-research/mjcusd/internal/scene"
	"github.com/agentic-research/mjcusd/internal/tokens"
)

// Options configures one translation.
type Options struct {
	// Logger receives warnings and progress. Nil discards them.
	Logger *slog.Logger
	// Assets resolves mesh files, relative to the compiler's meshdir. Nil
	// makes every file-backed mesh an error.
	Assets billy.Filesystem
}

// Warning is a non-fatal problem: a feature that was dropped or degraded.
type Warning struct {
	Path    scene.Path
	Message string
}

func (w Warning) String() string { return fmt.Sprintf("%s: %s", w.Path, w.Message) }

// ResolutionError reports an actuator that names an element no prim was
// translated for.
type ResolutionError = actuator.ResolutionError

// Result is a translated document.
type Result struct {
	Store    *scene.Store
	Root     scene.Path
	Registry *Registry
	Warnings []Warning
	// Unresolved lists the actuators omitted because a reference failed.
	Unresolved []*ResolutionError
}

// Err joins the resolution failures, or returns nil when there are none.
func (r *Result) Err() error {
	errs := make([]error, len(r.Unresolved))
	for i, e := range r.Unresolved {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Read parses, loads and translates one MJCF document.
func Read(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	el, err := mjcf.Parse(r)
	if err != nil {
		return nil, err
	}
	m, err := mjcf.Load(el)
	if err != nil {
		return nil, err
	}
	return Translate(ctx, m, opts)
}

// Translate converts m. Fatal problems (malformed input, missing assets,
// cancellation) return an error and no document.
func Translate(ctx context.Context, m *mjcf.Model, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	name := m.Name
	if name == "" {
		name = mjcf.DefaultModelName
	}
	d := &driver{
		model:    m,
		opts:     opts,
		log:      log.With("model", name),
		store:    scene.NewStore(),
		reg:      NewRegistry(),
		classes:  make(map[string]scene.Path),
		visuals:  make(map[string]scene.Path),
		meshes:   make(map[string]*mesh.FaceVarying),
		rootName: scene.MakeValidIdentifier(name),
	}
	d.root = scene.AbsoluteRoot.AppendChild(d.rootName)
	d.res = &Result{Store: d.store, Root: d.root, Registry: d.reg}

	if err := d.structure(ctx); err != nil {
		return nil, err
	}
	d.reg.Freeze()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.references(); err != nil {
		return nil, err
	}
	d.log.Debug("translated",
		"prims", d.store.Len(),
		"entities", d.reg.Len(),
		"warnings", len(d.res.Warnings),
		"unresolved", len(d.res.Unresolved))
	return d.res, nil
}

// binding is a material binding deferred to the second phase.
type binding struct {
	prim     *scene.Prim
	material string
	physics  scene.Path
}

type driver struct {
	model *mjcf.Model
	opts  Options
	log   *slog.Logger

	store    *scene.Store
	reg      *Registry
	rootName string
	root     scene.Path
	res      *Result

	materials *material.Builder
	classes   map[string]scene.Path
	visuals   map[string]scene.Path
	meshes    map[string]*mesh.FaceVarying
	bindings  []binding
}

func (d *driver) warn(p scene.Path, msg string) {
	d.log.Warn(msg, "path", p)
	d.res.Warnings = append(d.res.Warnings, Warning{Path: p, Message: msg})
}

// structure is the first phase.
func (d *driver) structure(ctx context.Context) error {
	root, err := d.store.DefinePrim(d.root, tokens.TypeXform)
	if err != nil {
		return err
	}
	root.Kind = tokens.KindGroup
	d.store.SetDefaultPrim(d.rootName)
	d.reg.Reserve(d.root, tokens.Materials, tokens.PhysicsMaterials, tokens.Actuators,
		tokens.Keyframes, tokens.PhysicsScene)

	if err := d.defineClasses(); err != nil {
		return err
	}

	d.materials = &material.Builder{
		Store:      d.store,
		Root:       d.root,
		Assets:     &d.model.Assets,
		TextureDir: d.model.Compiler.TextureDir,
		Warn:       d.warn,
	}
	matScope := d.root.AppendChild(tokens.Materials)
	for _, m := range d.model.Assets.Materials {
		p, err := d.materials.Author(m, d.reg.Claim(matScope, m.Name))
		if err != nil {
			return fmt.Errorf("material %q: %w", m.Name, err)
		}
		d.visuals[m.Name] = p.Path
		d.reg.Register(mjcf.TagMaterial, m.Name, p.Path)
	}

	if _, err := options.Author(d.store, d.root, d.model); err != nil {
		return err
	}

	kb := &kinematics.Builder{
		Store:    d.store,
		Root:     d.root,
		Compiler: d.model.Compiler,
		Assets:   &d.model.Assets,
		Elements: d,
		Names:    d.reg,
		Classes:  d.classes,
		Warn:     d.warn,
	}
	if err := kb.BuildWorld(ctx, d.model.World); err != nil {
		return err
	}
	n := kb.InsertArticulationRoots()
	d.log.Debug("articulation roots", "count", n)

	for _, s := range d.model.Skipped {
		d.warn(d.root, fmt.Sprintf("<%s> %q (line %d) is not translated", s.Element, s.Name, s.Line))
	}
	return nil
}

// defineClasses mirrors the default-class tree under /__class__. The root
// class is /__class__ itself.
func (d *driver) defineClasses() error {
	if d.model.Defaults == nil {
		return nil
	}
	var define func(cls *mjcf.Default, p scene.Path) error
	define = func(cls *mjcf.Default, p scene.Path) error {
		if _, err := d.store.DefineClass(p); err != nil {
			return err
		}
		if p != scene.AbsoluteRoot.AppendChild(tokens.ClassRoot) {
			d.classes[cls.Class] = p
		}
		for _, c := range cls.Children {
			if err := define(c, p.AppendChild(d.reg.Claim(p, c.Class))); err != nil {
				return err
			}
		}
		return nil
	}
	return define(d.model.Defaults, scene.AbsoluteRoot.AppendChild(tokens.ClassRoot))
}

// references is the second phase.
func (d *driver) references() error {
	acts := &actuator.Author{Store: d.store, Root: d.root, Registry: d.reg}
	for _, act := range d.model.Actuators {
		_, err := acts.Actuator(act)
		var re *ResolutionError
		switch {
		case errors.As(err, &re):
			d.log.Warn("unresolved actuator reference", "actuator", re.Actuator, "kind", re.Kind, "name", re.Name)
			d.res.Unresolved = append(d.res.Unresolved, re)
		case err != nil:
			return err
		}
	}
	if err := acts.Keyframes(d.model.Keys); err != nil {
		return err
	}
	for _, b := range d.bindings {
		var visual scene.Path
		if b.material != "" {
			visual = d.visuals[b.material]
		}
		material.Bind(b.prim, visual, b.physics)
	}
	return nil
}
