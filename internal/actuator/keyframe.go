package actuator

import (
	"github.com/agentic-research/mjcusd/internal/mjcf"
	"github.com/agentic-research/mjcusd/internal/scene"
	"github.com/agentic-research/mjcusd/internal/tokens"
)

// Keyframes authors the <keyframe> section under Root/Keyframes.
//
// Named keys, and the first key with neither a name nor a time, become
// standalone prims holding plain values. Every other key is a time sample
// of Root/Keyframes/Keyframe at its time.
func (a *Author) Keyframes(keys []*mjcf.Key) error {
	if len(keys) == 0 {
		return nil
	}
	scope, err := a.Store.Ensure(a.Root.AppendChild(tokens.Keyframes), tokens.TypeScope)
	if err != nil {
		return err
	}

	var animated *scene.Prim
	defaulted := false
	for _, k := range keys {
		name := k.Name
		if name == "" && !k.HasTime && !defaulted {
			name, defaulted = tokens.DefaultKeyframe, true
		}
		if name != "" {
			p, err := a.Store.DefinePrim(scope.Path.AppendChild(a.Registry.Claim(scope.Path, name)), tokens.TypeKeyframe)
			if err != nil {
				return err
			}
			if err := keyValues(k, func(attr string, v []float64) error {
				return p.Set(attr, scene.DoubleArray, v)
			}); err != nil {
				return err
			}
			continue
		}

		if animated == nil {
			name := a.Registry.Claim(scope.Path, tokens.Keyframe)
			if animated, err = a.Store.DefinePrim(scope.Path.AppendChild(name), tokens.TypeKeyframe); err != nil {
				return err
			}
		}
		if err := keyValues(k, func(attr string, v []float64) error {
			at, err := animated.CreateAttribute(attr, scene.DoubleArray)
			if err != nil {
				return err
			}
			return at.SetAt(k.Time, v)
		}); err != nil {
			return err
		}
	}
	return nil
}

// keyValues calls fn for each state vector k declares.
func keyValues(k *mjcf.Key, fn func(attr string, v []float64) error) error {
	for _, kv := range []struct {
		attr string
		v    []float64
	}{
		{tokens.QPos, k.QPos},
		{tokens.QVel, k.QVel},
		{tokens.Act, k.Act},
		{tokens.Ctrl, k.Ctrl},
		{tokens.MPos, k.MPos},
		{tokens.MQuat, k.MQuat},
	} {
		if len(kv.v) == 0 {
			continue
		}
		if err := fn(kv.attr, kv.v); err != nil {
			return err
		}
	}
	return nil
}
