// Package linter checks a finished scene document for structural problems:
// references that point nowhere and physics layouts consumers reject.
package linter

import (
	"fmt"
	"strings"

	"github.com/agentic-research/mjcusd/internal/scene"
	"github.com/agentic-research/mjcusd/internal/tokens"
)

type Diagnostic struct {
	Path    scene.Path
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Path, d.Message)
}

// Lint walks s and returns its diagnostics in document order.
func Lint(s *scene.Store) []Diagnostic {
	l := &linter{store: s}

	if dp := s.DefaultPrim(); dp != "" && !s.HasPrim(scene.AbsoluteRoot.AppendChild(dp)) {
		l.report(scene.AbsoluteRoot, "defaultPrim %q does not exist", dp)
	}
	_ = s.Walk(func(p *scene.Prim) error {
		l.references(p)
		l.joint(p)
		l.articulation(p)
		return nil
	})
	return l.diags
}

type linter struct {
	store *scene.Store
	diags []Diagnostic
}

func (l *linter) report(p scene.Path, format string, args ...any) {
	l.diags = append(l.diags, Diagnostic{Path: p, Message: fmt.Sprintf(format, args...)})
}

// Rule 1: every inherit, relationship target and connection resolves.
func (l *linter) references(p *scene.Prim) {
	for _, cls := range p.Inherits() {
		c, err := l.store.GetPrim(cls)
		switch {
		case err != nil:
			l.report(p.Path, "inherits missing class %s", cls)
		case c.Specifier != scene.SpecifierClass:
			l.report(p.Path, "inherits %s, which is not a class", cls)
		}
	}
	for _, r := range p.Relationships() {
		for _, t := range r.Targets() {
			if !l.store.HasPrim(t) {
				l.report(p.Path, "%s targets missing prim %s", r.Name, t)
			}
		}
	}
	for _, a := range p.Attributes() {
		for _, c := range a.Connections() {
			if !l.connectionResolves(c) {
				l.report(p.Path, "%s connects to missing property %s", a.Name, c)
			}
		}
	}
}

func (l *linter) connectionResolves(target string) bool {
	prim, prop, ok := strings.Cut(target, ".")
	if !ok {
		return false
	}
	p, err := l.store.GetPrim(scene.Path(prim))
	if err != nil {
		return false
	}
	return p.Attribute(prop) != nil
}

// Rule 2: a joint names its child body, and every body it names is a
// rigid body.
func (l *linter) joint(p *scene.Prim) {
	switch p.TypeName {
	case tokens.TypeFixedJoint, tokens.TypeRevoluteJoint, tokens.TypePrismaticJoint:
	default:
		return
	}
	body1 := p.Relationship(tokens.Body1)
	if body1 == nil || len(body1.Targets()) == 0 {
		l.report(p.Path, "joint has no %s", tokens.Body1)
	}
	for _, name := range []string{tokens.Body0, tokens.Body1} {
		r := p.Relationship(name)
		if r == nil {
			continue
		}
		for _, t := range r.Targets() {
			if b, err := l.store.GetPrim(t); err == nil && !b.HasAPI(tokens.RigidBodyAPI) {
				l.report(p.Path, "%s %s is not a rigid body", name, t)
			}
		}
	}
}

// Rule 3: articulation roots do not nest.
func (l *linter) articulation(p *scene.Prim) {
	if !p.HasAPI(tokens.ArticulationRootAPI) {
		return
	}
	for anc := p.Path.Parent(); anc != scene.AbsoluteRoot && anc != ""; anc = anc.Parent() {
		if a, err := l.store.GetPrim(anc); err == nil && a.HasAPI(tokens.ArticulationRootAPI) {
			l.report(p.Path, "articulation root nested under %s", anc)
			return
		}
	}
}
