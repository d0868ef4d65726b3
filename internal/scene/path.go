package scene

import "strings"

// Path is an absolute prim path such as "/robot/base/wheel".
type Path string

// AbsoluteRoot is the pseudo-root every top-level prim hangs from.
const AbsoluteRoot Path = "/"

// AppendChild returns the path of the child prim name under p.
func (p Path) AppendChild(name string) Path {
	if p == AbsoluteRoot || p == "" {
		return Path("/" + name)
	}
	return Path(string(p) + "/" + name)
}

// AppendProperty returns the property path "p.name".
func (p Path) AppendProperty(name string) string {
	return string(p) + "." + name
}

// Parent returns the parent prim path; the parent of a top-level prim is AbsoluteRoot.
func (p Path) Parent() Path {
	i := strings.LastIndex(string(p), "/")
	if i <= 0 {
		return AbsoluteRoot
	}
	return p[:i]
}

// Name returns the last path element.
func (p Path) Name() string {
	i := strings.LastIndex(string(p), "/")
	return string(p[i+1:])
}

func (p Path) String() string { return string(p) }

// HasPrefix reports whether p is prefix or lies beneath it.
func (p Path) HasPrefix(prefix Path) bool {
	if prefix == AbsoluteRoot || p == prefix {
		return true
	}
	return strings.HasPrefix(string(p), string(prefix)+"/")
}

// IsValidIdentifier reports whether name can be used as a prim name as-is.
func IsValidIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		if !isIdentRune(c, i == 0) {
			return false
		}
	}
	return true
}

// MakeValidIdentifier rewrites name into a legal prim name: every character
// outside [A-Za-z0-9_] becomes '_' and a leading digit is prefixed with '_'.
// The rewrite is idempotent.
func MakeValidIdentifier(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	b.Grow(len(name) + 1)
	for i, c := range name {
		switch {
		case i == 0 && c >= '0' && c <= '9':
			b.WriteByte('_')
			b.WriteRune(c)
		case isIdentRune(c, false):
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func isIdentRune(c rune, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}
