package mjcf

import (
	"fmt"
	"strconv"
	"strings"
)

func (a Attrs) line() int {
	if a.el == nil {
		return 0
	}
	return a.el.Line
}

func (a Attrs) invalid(name, raw string, err error) error {
	return fmt.Errorf("%w: line %d: %s=%q: %v", ErrMalformed, a.line(), name, raw, err)
}

// String returns the effective value of name, or def.
func (a Attrs) String(name, def string) string {
	if v, ok := a.Lookup(name); ok {
		return v
	}
	return def
}

// Float returns the effective value of name parsed as a number, or def.
func (a Attrs) Float(name string, def float64) (float64, error) {
	raw, ok := a.Lookup(name)
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return def, a.invalid(name, raw, err)
	}
	return f, nil
}

// Floats returns the effective value of name parsed as a list of numbers.
// When def is non-nil the list may be shorter than def and the missing tail
// is filled from def; a longer list is an error.
func (a Attrs) Floats(name string, def []float64) ([]float64, error) {
	raw, ok := a.Lookup(name)
	if !ok {
		return clone(def), nil
	}
	fields := strings.Fields(raw)
	if def != nil && len(fields) > len(def) {
		return clone(def), a.invalid(name, raw, fmt.Errorf("at most %d values", len(def)))
	}
	out := clone(def)
	if out == nil {
		out = make([]float64, len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return clone(def), a.invalid(name, raw, err)
		}
		out[i] = v
	}
	return out, nil
}

// Ints returns the effective value of name parsed as a list of integers.
func (a Attrs) Ints(name string) ([]int, error) {
	raw, ok := a.Lookup(name)
	if !ok {
		return nil, nil
	}
	fields := strings.Fields(raw)
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, a.invalid(name, raw, err)
		}
		out[i] = v
	}
	return out, nil
}

// Int returns the effective value of name parsed as an integer, or def.
func (a Attrs) Int(name string, def int) (int, error) {
	raw, ok := a.Lookup(name)
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def, a.invalid(name, raw, err)
	}
	return v, nil
}

// Bool returns the effective value of name, which must be "true" or "false".
func (a Attrs) Bool(name string, def bool) (bool, error) {
	raw, ok := a.Lookup(name)
	if !ok {
		return def, nil
	}
	switch strings.TrimSpace(raw) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return def, a.invalid(name, raw, fmt.Errorf("want true or false"))
}

// Tristate returns the effective value of a true/false/auto attribute.
func (a Attrs) Tristate(name string) (Tristate, error) {
	raw, ok := a.Lookup(name)
	if !ok {
		return Auto, nil
	}
	switch strings.TrimSpace(raw) {
	case "true":
		return True, nil
	case "false":
		return False, nil
	case "auto":
		return Auto, nil
	}
	return Auto, a.invalid(name, raw, fmt.Errorf("want true, false or auto"))
}

// Keyword returns the effective value of name, which must be one of allowed.
func (a Attrs) Keyword(name, def string, allowed ...string) (string, error) {
	raw, ok := a.Lookup(name)
	if !ok {
		return def, nil
	}
	raw = strings.TrimSpace(raw)
	for _, k := range allowed {
		if raw == k {
			return raw, nil
		}
	}
	return def, a.invalid(name, raw, fmt.Errorf("want one of %s", strings.Join(allowed, ", ")))
}

func clone(xs []float64) []float64 {
	if xs == nil {
		return nil
	}
	out := make([]float64, len(xs))
	copy(out, xs)
	return out
}
