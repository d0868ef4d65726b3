package scene

import (
	"github.com/agentic-research/mjcusd/internal/mathx"
	"github.com/agentic-research/mjcusd/internal/tokens"
)

// SetTransform authors translate, orient and scale ops on p, skipping the
// identity ones, and records their order. scale may be nil.
func (p *Prim) SetTransform(pos mathx.Vec3, rot mathx.Quat, scale *mathx.Vec3f) error {
	var order []string
	if !pos.IsZero() {
		if err := p.Set(tokens.Translate, Double3, pos); err != nil {
			return err
		}
		order = append(order, tokens.Translate)
	}
	if !rot.IsIdentity() {
		if err := p.Set(tokens.Orient, Quatf, QuatF(rot.Normalize())); err != nil {
			return err
		}
		order = append(order, tokens.Orient)
	}
	if scale != nil {
		if err := p.Set(tokens.Scale, Float3, *scale); err != nil {
			return err
		}
		order = append(order, tokens.Scale)
	}
	if len(order) == 0 {
		return nil
	}
	a, err := p.CreateAttribute(tokens.XformOpOrder, TokenArray)
	if err != nil {
		return err
	}
	a.Uniform = true
	return a.Set(order)
}
