// Package actuator authors MjcActuator prims, whose relationships point at
// the prims translated for joints, sites and bodies, and the keyframe prims.
package actuator

import (
	"fmt"
	"slices"

	"github.com/agentic-research/mjcusd/internal/mjcf"
	"github.com/agentic-research/mjcusd/internal/scene"
	"github.com/agentic-research/mjcusd/internal/tokens"
)

// Registry resolves MJCF names to translated prims and hands out names.
type Registry interface {
	Lookup(tag, name string) (scene.Path, bool)
	Claim(parent scene.Path, name string) string
}

// ResolutionError reports an actuator reference to an element that was not
// translated.
type ResolutionError struct {
	Actuator string
	Kind     string
	Name     string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("actuator %q: unresolved %s %q", e.Actuator, e.Kind, e.Name)
}

// Author defines actuator and keyframe prims under Root.
type Author struct {
	Store    *scene.Store
	Root     scene.Path
	Registry Registry
}

// reference is one relationship of an actuator and the element it names.
type reference struct {
	rel  string
	tag  string
	name string
}

// references lists the relationships of act. The target comes first; an
// actuator must declare exactly one target, and a crank target needs its
// slider site.
func references(act *mjcf.Actuator) ([]reference, error) {
	var refs []reference
	for _, t := range []reference{
		{tokens.Target, mjcf.TagJoint, act.Joint},
		{tokens.Target, mjcf.TagSite, act.Site},
		{tokens.Target, mjcf.TagBody, act.Body},
		{tokens.Target, mjcf.TagSite, act.CrankSite},
		{tokens.Target, "tendon", act.Tendon},
	} {
		if t.name != "" {
			refs = append(refs, t)
		}
	}
	switch {
	case len(refs) == 0:
		return nil, fmt.Errorf("%w: actuator %q (line %d) has no target", mjcf.ErrMalformed, act.Name, act.Line)
	case len(refs) > 1:
		return nil, fmt.Errorf("%w: actuator %q (line %d) declares %d targets", mjcf.ErrMalformed, act.Name, act.Line, len(refs))
	case (act.CrankSite == "") != (act.SliderSite == ""):
		return nil, fmt.Errorf("%w: actuator %q (line %d) needs both cranksite and slidersite", mjcf.ErrMalformed, act.Name, act.Line)
	}
	if act.SliderSite != "" {
		refs = append(refs, reference{tokens.SliderSite, mjcf.TagSite, act.SliderSite})
	}
	if act.RefSite != "" {
		refs = append(refs, reference{tokens.RefSite, mjcf.TagSite, act.RefSite})
	}
	return refs, nil
}

// Actuator authors Root/Actuators/<name>. Every reference is resolved before
// anything is defined: an unresolved one returns a *ResolutionError and no
// prim.
func (a *Author) Actuator(act *mjcf.Actuator) (*scene.Prim, error) {
	refs, err := references(act)
	if err != nil {
		return nil, err
	}
	targets := make([]scene.Path, len(refs))
	for i, r := range refs {
		p, ok := a.Registry.Lookup(r.tag, r.name)
		if !ok {
			return nil, &ResolutionError{Actuator: act.Name, Kind: r.tag, Name: r.name}
		}
		targets[i] = p
	}

	scope, err := a.Store.Ensure(a.Root.AppendChild(tokens.Actuators), tokens.TypeScope)
	if err != nil {
		return nil, err
	}
	name := act.Name
	if name == "" {
		name = act.Kind.String()
	}
	p, err := a.Store.DefinePrim(scope.Path.AppendChild(a.Registry.Claim(scope.Path, name)), tokens.TypeActuator)
	if err != nil {
		return nil, err
	}
	for i, r := range refs {
		p.CreateRelationship(r.rel).AddTarget(targets[i])
	}
	return p, authorParams(p, act)
}

// authorParams copies the actuator parameters that differ from MJCF's
// defaults.
func authorParams(p *scene.Prim, act *mjcf.Actuator) error {
	var err error
	set := func(name string, t scene.ValueType, v any) {
		if err == nil {
			err = p.Set(name, t, v)
		}
	}
	tristate := func(name string, v mjcf.Tristate) {
		if v != mjcf.Auto {
			set(name, scene.Token, v.String())
		}
	}
	interval := func(name string, v [2]float64) {
		if v != [2]float64{} {
			set(name+":min", scene.Double, v[0])
			set(name+":max", scene.Double, v[1])
		}
	}
	doubles := func(name string, v, def []float64) {
		if !slices.Equal(v, def) {
			set(name, scene.DoubleArray, v)
		}
	}
	keyword := func(name, v, def string) {
		if v != def {
			set(name, scene.Token, v)
		}
	}

	if act.Group != 0 {
		set(tokens.Group, scene.Int, act.Group)
	}
	tristate(tokens.CtrlLimited, act.CtrlLimited)
	interval(tokens.CtrlRange, act.CtrlRange)
	tristate(tokens.ForceLimited, act.ForceLimited)
	interval(tokens.ForceRange, act.ForceRange)
	tristate(tokens.ActLimited, act.ActLimited)
	interval(tokens.ActRange, act.ActRange)
	interval(tokens.LengthRange, act.LengthRange)
	if act.ActDim != -1 {
		set(tokens.ActDim, scene.Int, act.ActDim)
	}
	if act.ActEarly {
		set(tokens.ActEarly, scene.Bool, true)
	}
	keyword(tokens.DynType, act.DynType, "none")
	keyword(tokens.GainType, act.GainType, "fixed")
	keyword(tokens.BiasType, act.BiasType, "none")
	doubles(tokens.Gear, act.Gear, mjcf.DefaultGear)
	doubles(tokens.DynPrm, act.DynPrm, mjcf.DefaultDynPrm)
	doubles(tokens.GainPrm, act.GainPrm, mjcf.DefaultGain)
	doubles(tokens.BiasPrm, act.BiasPrm, mjcf.DefaultBias)
	if act.CrankLength != 0 {
		set(tokens.CrankLength, scene.Double, act.CrankLength)
	}
	if act.InheritRange != 0 {
		set(tokens.InheritRange, scene.Double, act.InheritRange)
	}
	return err
}
