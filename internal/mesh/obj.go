package mesh

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/agentic-research/mjcusd/internal/mathx"
	"github.com/agentic-research/mjcusd/internal/scene"
)

// LoadOBJ reads a Wavefront OBJ file from fsys.
func LoadOBJ(fsys billy.Filesystem, name string) (*Source, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open mesh %s: %w", name, err)
	}
	defer f.Close()
	src, err := DecodeOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("mesh %s: %w", name, err)
	}
	return src, nil
}

// DecodeOBJ parses OBJ text into an Independent-regime Source. Polygons are
// fan-triangulated. Without vn records, area-weighted normals are computed
// per position; without vt records, the result has no texcoords.
func DecodeOBJ(r io.Reader) (*Source, error) {
	dec := &objDecoder{src: &Source{Regime: Independent}}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		dec.line++
		if err := dec.parseLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMesh, err)
	}
	return dec.finish()
}

type objDecoder struct {
	src  *Source
	line int

	cornerN  []int
	cornerVT []int
	hasVN    bool
	hasVT    bool
}

func (d *objDecoder) formatError(format string, args ...any) error {
	return fmt.Errorf("%w: obj line %d: %s", ErrInvalidMesh, d.line, fmt.Sprintf(format, args...))
}

func (d *objDecoder) parseLine(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "v":
		v, err := d.floats(fields[1:], 3)
		if err != nil {
			return err
		}
		d.src.Points = append(d.src.Points, mathx.Vec3f{v[0], v[1], v[2]})
	case "vn":
		v, err := d.floats(fields[1:], 3)
		if err != nil {
			return err
		}
		d.src.Normals = append(d.src.Normals, mathx.Vec3f{v[0], v[1], v[2]})
		d.hasVN = true
	case "vt":
		v, err := d.floats(fields[1:], 2)
		if err != nil {
			return err
		}
		d.src.Texcoords = append(d.src.Texcoords, scene.Vec2f{v[0], v[1]})
		d.hasVT = true
	case "f":
		return d.parseFace(fields[1:])
	default:
		// o, g, s, usemtl and mtllib do not affect geometry.
	}
	return nil
}

func (d *objDecoder) floats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, d.formatError("expected %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range out {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, d.formatError("%v", err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

type objCorner struct{ v, vt, vn int }

func (d *objDecoder) parseFace(fields []string) error {
	if len(fields) < 3 {
		return d.formatError("face with %d vertices", len(fields))
	}
	corners := make([]objCorner, len(fields))
	for i, f := range fields {
		c, err := d.parseCorner(f)
		if err != nil {
			return err
		}
		corners[i] = c
	}
	for i := 1; i+1 < len(corners); i++ {
		for _, c := range [3]objCorner{corners[0], corners[i], corners[i+1]} {
			d.src.Faces = append(d.src.Faces, c.v)
			d.cornerVT = append(d.cornerVT, c.vt)
			d.cornerN = append(d.cornerN, c.vn)
		}
	}
	return nil
}

// parseCorner decodes v, v/vt, v//vn or v/vt/vn into zero-based indices,
// with -1 for an absent component.
func (d *objDecoder) parseCorner(s string) (objCorner, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return objCorner{}, d.formatError("bad face vertex %q", s)
	}
	c := objCorner{v: -1, vt: -1, vn: -1}
	counts := [3]int{len(d.src.Points), len(d.src.Texcoords), len(d.src.Normals)}
	dst := [3]*int{&c.v, &c.vt, &c.vn}
	for i, p := range parts {
		if p == "" {
			if i == 0 {
				return objCorner{}, d.formatError("face vertex %q has no position", s)
			}
			continue
		}
		idx, err := strconv.Atoi(p)
		if err != nil {
			return objCorner{}, d.formatError("bad index %q", p)
		}
		switch {
		case idx > 0:
			idx--
		case idx < 0:
			idx = counts[i] + idx
		default:
			return objCorner{}, d.formatError("index 0 in %q", s)
		}
		if idx < 0 || idx >= counts[i] {
			return objCorner{}, d.formatError("index %s out of range", p)
		}
		*dst[i] = idx
	}
	return c, nil
}

func (d *objDecoder) finish() (*Source, error) {
	src := d.src
	if len(src.Faces) == 0 {
		return nil, fmt.Errorf("%w: obj has no faces", ErrInvalidMesh)
	}
	if d.hasVT && slices.Contains(d.cornerVT, -1) {
		src.Warnings = append(src.Warnings, "some faces have no texcoords; texcoords dropped")
		d.hasVT = false
	}
	if d.hasVT {
		src.TexcoordIndex = d.cornerVT
	} else {
		src.Texcoords = nil
	}

	complete := d.hasVN
	for _, i := range d.cornerN {
		if i < 0 {
			complete = false
			break
		}
	}
	if complete {
		src.NormalIndex = d.cornerN
	} else {
		src.Normals = VertexNormals(src.Points, src.Faces)
		src.NormalIndex = src.Faces
	}
	return src, nil
}
