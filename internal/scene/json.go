package scene

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Document converts the store into a generic tree suitable for JSON output and
// JSONPath queries:
//
//	{"defaultPrim": "robot", "prims": [{"path": ..., "type": ..., ...}, ...]}
//
// Prims are listed flat in depth-first definition order.
func Document(s *Store) map[string]any {
	prims := make([]any, 0, s.Len())
	_ = s.Walk(func(p *Prim) error {
		prims = append(prims, primDocument(p))
		return nil
	})
	return map[string]any{
		"defaultPrim": s.DefaultPrim(),
		"prims":       prims,
	}
}

func primDocument(p *Prim) map[string]any {
	doc := map[string]any{
		"path":      string(p.Path),
		"name":      p.Name(),
		"specifier": p.Specifier.String(),
	}
	if p.TypeName != "" {
		doc["type"] = p.TypeName
	}
	if p.Kind != "" {
		doc["kind"] = p.Kind
	}
	if len(p.APISchemas()) > 0 {
		doc["apiSchemas"] = plainValue(p.APISchemas())
	}
	if len(p.Inherits()) > 0 {
		doc["inherits"] = pathsValue(p.Inherits())
	}
	if len(p.CustomData) > 0 {
		cd := make(map[string]any, len(p.CustomData))
		for k, v := range p.CustomData {
			cd[k] = fmt.Sprint(v)
		}
		doc["customData"] = cd
	}
	if len(p.Attributes()) > 0 {
		attrs := make(map[string]any, len(p.Attributes()))
		for _, a := range p.Attributes() {
			attrs[a.Name] = attributeDocument(a)
		}
		doc["attributes"] = attrs
	}
	if len(p.Relationships()) > 0 {
		rels := make(map[string]any, len(p.Relationships()))
		for _, r := range p.Relationships() {
			rels[r.Name] = pathsValue(r.Targets())
		}
		doc["relationships"] = rels
	}
	if len(p.Children()) > 0 {
		doc["children"] = pathsValue(p.Children())
	}
	return doc
}

func attributeDocument(a *Attribute) map[string]any {
	doc := map[string]any{"type": string(a.Type)}
	if v, ok := a.Get(); ok {
		doc["value"] = plainValue(v)
	}
	if len(a.Samples()) > 0 {
		samples := make([]any, len(a.Samples()))
		for i, ts := range a.Samples() {
			samples[i] = map[string]any{"time": ts.Time, "value": plainValue(ts.Value)}
		}
		doc["timeSamples"] = samples
	}
	if len(a.Connections()) > 0 {
		doc["connections"] = plainValue(a.Connections())
	}
	if a.Interpolation != "" {
		doc["interpolation"] = a.Interpolation
	}
	return doc
}

func pathsValue(paths []Path) []any {
	out := make([]any, len(paths))
	for i, p := range paths {
		out[i] = string(p)
	}
	return out
}

// ToJSON renders the document as indented JSON with sorted keys.
func ToJSON(s *Store) string {
	return oj.JSON(Document(s), &oj.Options{Indent: 2, Sort: true})
}

// Query evaluates a JSONPath expression against the document tree.
func Query(s *Store, selector string) ([]any, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	return x.Get(Document(s)), nil
}
