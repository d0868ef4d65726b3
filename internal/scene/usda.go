package scene

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// WriteUSDA serializes the document as a text layer.
func WriteUSDA(w io.Writer, s *Store) error {
	bw := bufio.NewWriter(w)
	lw := &layerWriter{w: bw, s: s}

	lw.line(0, "#usda 1.0")
	if dp := s.DefaultPrim(); dp != "" {
		lw.line(0, "(")
		lw.line(1, "defaultPrim = "+strconv.Quote(dp))
		lw.line(0, ")")
	}
	for _, root := range s.Roots() {
		lw.blank()
		if err := lw.prim(root, 0); err != nil {
			return err
		}
	}
	if lw.err != nil {
		return lw.err
	}
	return bw.Flush()
}

// USDA renders the document to a string.
func USDA(s *Store) (string, error) {
	var b strings.Builder
	if err := WriteUSDA(&b, s); err != nil {
		return "", err
	}
	return b.String(), nil
}

// PropertyUSDA renders one attribute or relationship of p the way it
// appears in the layer, without indentation.
func PropertyUSDA(p *Prim, name string) (string, bool) {
	var b strings.Builder
	bw := bufio.NewWriter(&b)
	lw := &layerWriter{w: bw}
	if a := p.Attribute(name); a != nil {
		lw.attribute(a, 0)
	} else if r := p.Relationship(name); r != nil {
		lw.relationship(r, 0)
	} else {
		return "", false
	}
	if lw.err != nil || bw.Flush() != nil {
		return "", false
	}
	return b.String(), true
}

type layerWriter struct {
	w   *bufio.Writer
	s   *Store
	err error
}

func (lw *layerWriter) line(depth int, text string) {
	if lw.err != nil {
		return
	}
	_, lw.err = fmt.Fprintf(lw.w, "%s%s\n", strings.Repeat("    ", depth), text)
}

func (lw *layerWriter) blank() { lw.line(0, "") }

func (lw *layerWriter) prim(path Path, depth int) error {
	p, err := lw.s.GetPrim(path)
	if err != nil {
		return err
	}

	head := p.Specifier.String()
	if p.TypeName != "" {
		head += " " + p.TypeName
	}
	head += " " + strconv.Quote(p.Name())

	meta := primMetadata(p)
	if len(meta) == 0 {
		lw.line(depth, head)
	} else {
		lw.line(depth, head+" (")
		for _, m := range meta {
			lw.line(depth+1, m)
		}
		lw.line(depth, ")")
	}
	lw.line(depth, "{")

	for _, a := range p.Attributes() {
		lw.attribute(a, depth+1)
	}
	for _, r := range p.Relationships() {
		lw.relationship(r, depth+1)
	}
	for i, c := range p.Children() {
		if i > 0 || len(p.Attributes()) > 0 || len(p.Relationships()) > 0 {
			lw.blank()
		}
		if err := lw.prim(c, depth+1); err != nil {
			return err
		}
	}

	lw.line(depth, "}")
	return lw.err
}

func primMetadata(p *Prim) []string {
	var meta []string
	if len(p.CustomData) > 0 {
		keys := make([]string, 0, len(p.CustomData))
		for k := range p.CustomData {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("string %s = %s", k, strconv.Quote(fmt.Sprint(p.CustomData[k])))
		}
		meta = append(meta, "customData = { "+strings.Join(parts, "; ")+" }")
	}
	if len(p.Inherits()) > 0 {
		meta = append(meta, "inherits = "+pathList(p.Inherits()))
	}
	if p.Kind != "" {
		meta = append(meta, "kind = "+strconv.Quote(p.Kind))
	}
	if len(p.APISchemas()) > 0 {
		meta = append(meta, "prepend apiSchemas = "+FormatValue(TokenArray, p.APISchemas()))
	}
	return meta
}

func (lw *layerWriter) attribute(a *Attribute, depth int) {
	decl := string(a.Type) + " " + a.Name
	if a.Uniform {
		decl = "uniform " + decl
	}
	var meta string
	if a.Interpolation != "" {
		meta = fmt.Sprintf(" (\n%sinterpolation = %s\n%s)",
			strings.Repeat("    ", depth+1), strconv.Quote(a.Interpolation), strings.Repeat("    ", depth))
	}

	v, has := a.Get()
	switch {
	case has:
		lw.line(depth, decl+" = "+FormatValue(a.Type, v)+meta)
	case len(a.Connections()) == 0 && len(a.Samples()) == 0:
		lw.line(depth, decl+meta)
	}
	if len(a.Connections()) > 0 {
		targets := make([]string, len(a.Connections()))
		for i, c := range a.Connections() {
			targets[i] = "<" + c + ">"
		}
		val := targets[0]
		if len(targets) > 1 {
			val = "[" + strings.Join(targets, ", ") + "]"
		}
		lw.line(depth, decl+".connect = "+val)
	}
	if len(a.Samples()) > 0 {
		lw.line(depth, decl+".timeSamples = {")
		for _, ts := range a.Samples() {
			lw.line(depth+1, formatFloat(ts.Time, 64)+": "+FormatValue(a.Type, ts.Value)+",")
		}
		lw.line(depth, "}")
	}
}

func (lw *layerWriter) relationship(r *Relationship, depth int) {
	switch len(r.Targets()) {
	case 0:
		lw.line(depth, "rel "+r.Name)
	case 1:
		lw.line(depth, "rel "+r.Name+" = <"+string(r.Targets()[0])+">")
	default:
		lw.line(depth, "rel "+r.Name+" = "+pathList(r.Targets()))
	}
}

func pathList(paths []Path) string {
	parts := make([]string, len(paths))
	for i, p := range paths {
		parts[i] = "<" + string(p) + ">"
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
