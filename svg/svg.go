package svg

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/gogpu/flock"
)

// ViewBox is the user-space rectangle a document maps to its viewport.
type ViewBox struct {
	MinX, MinY    float64
	Width, Height float64
}

// Shape is one filled element with its transform already applied.
type Shape struct {
	// Name is the element id, or the element name and its shape index
	// ("path3") when the id is missing. Names are unique per document.
	Name    string
	Path    *flock.Path
	Fill    flock.RGB
	Opacity float32
}

// Document is a decoded SVG file.
type Document struct {
	ViewBox ViewBox
	Shapes  []Shape
}

// Shape returns the shape with the given name.
func (d *Document) Shape(name string) (Shape, bool) {
	for _, s := range d.Shapes {
		if s.Name == name {
			return s, true
		}
	}
	return Shape{}, false
}

// Centered returns a copy of d translated so the centre of the view box
// is the origin. Instances of a centred mesh rotate and scale about that
// centre.
func (d *Document) Centered() *Document {
	vb := d.ViewBox
	m := flock.Translate(-(vb.MinX + vb.Width/2), -(vb.MinY + vb.Height/2))
	out := &Document{
		ViewBox: ViewBox{MinX: -vb.Width / 2, MinY: -vb.Height / 2, Width: vb.Width, Height: vb.Height},
		Shapes:  make([]Shape, len(d.Shapes)),
	}
	for i, s := range d.Shapes {
		s.Path = s.Path.Transform(m)
		out.Shapes[i] = s
	}
	return out
}

// state is the inherited presentation state of a group.
type state struct {
	fill        paint
	fillOpacity float64
	opacity     float64
	transform   flock.Matrix
}

// DecodeFile decodes the SVG document at path.
func DecodeFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode reads an SVG document. Unsupported elements are skipped with
// their children; a malformed attribute on a supported element is an
// error.
func Decode(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	doc := &Document{}
	names := make(map[string]int)
	stack := []state{{
		fill:        black,
		fillOpacity: 1,
		opacity:     1,
		transform:   flock.Identity(),
	}}
	sawRoot := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("svg: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			top := stack[len(stack)-1]
			switch t.Name.Local {
			case "svg":
				st, err := inherit(top, t.Attr)
				if err != nil {
					return nil, err
				}
				if !sawRoot {
					vb, err := rootViewBox(t.Attr)
					if err != nil {
						return nil, err
					}
					doc.ViewBox = vb
					sawRoot = true
				}
				stack = append(stack, st)
			case "g", "a":
				st, err := inherit(top, t.Attr)
				if err != nil {
					return nil, err
				}
				stack = append(stack, st)
			case "path", "rect", "circle", "ellipse", "polygon", "polyline":
				if err := decodeShape(doc, names, top, t); err != nil {
					return nil, err
				}
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("svg: %w", err)
				}
			default:
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("svg: %w", err)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "svg", "g", "a":
				if len(stack) > 1 {
					stack = stack[:len(stack)-1]
				}
			}
		}
	}

	if !sawRoot {
		return nil, errors.New("svg: no <svg> element")
	}
	return doc, nil
}

// attrs merges presentation attributes with the inline style, which
// takes precedence.
func attrs(list []xml.Attr) map[string]string {
	m := make(map[string]string, len(list))
	for _, a := range list {
		m[a.Name.Local] = a.Value
	}
	if style, ok := m["style"]; ok {
		for k, v := range parseStyleAttr(style) {
			m[k] = v
		}
	}
	return m
}

func inherit(parent state, list []xml.Attr) (state, error) {
	return inheritAttrs(parent, attrs(list))
}

func inheritAttrs(parent state, a map[string]string) (state, error) {
	st := parent
	if v, ok := a["fill"]; ok && v != "inherit" {
		p, err := parsePaint(v)
		if err != nil {
			return st, err
		}
		st.fill = p
	}
	if v, ok := a["fill-opacity"]; ok {
		o, err := parseOpacity(v)
		if err != nil {
			return st, err
		}
		st.fillOpacity = o
	}
	if v, ok := a["opacity"]; ok {
		o, err := parseOpacity(v)
		if err != nil {
			return st, err
		}
		st.opacity *= o
	}
	if v, ok := a["transform"]; ok {
		m, err := parseTransform(v)
		if err != nil {
			return st, err
		}
		st.transform = parent.transform.Multiply(m)
	}
	return st, nil
}

func rootViewBox(list []xml.Attr) (ViewBox, error) {
	a := attrs(list)
	if v, ok := a["viewBox"]; ok {
		vals, err := parseList(v)
		if err != nil {
			return ViewBox{}, err
		}
		if len(vals) != 4 || vals[2] <= 0 || vals[3] <= 0 {
			return ViewBox{}, fmt.Errorf("%w: viewBox %q", ErrSyntax, v)
		}
		return ViewBox{MinX: vals[0], MinY: vals[1], Width: vals[2], Height: vals[3]}, nil
	}

	var vb ViewBox
	for _, dim := range []struct {
		name string
		dst  *float64
	}{{"width", &vb.Width}, {"height", &vb.Height}} {
		v, ok := a[dim.name]
		if !ok || strings.HasSuffix(v, "%") {
			continue
		}
		f, err := parseLength(v)
		if err != nil {
			return ViewBox{}, err
		}
		*dim.dst = f
	}
	return vb, nil
}

func decodeShape(doc *Document, names map[string]int, parent state, el xml.StartElement) error {
	a := attrs(el.Attr)
	st, err := inheritAttrs(parent, a)
	if err != nil {
		return fmt.Errorf("svg: <%s>: %w", el.Name.Local, err)
	}
	if st.fill.none {
		return nil
	}

	p, err := shapePath(el.Name.Local, a)
	if err != nil {
		return fmt.Errorf("svg: <%s>: %w", el.Name.Local, err)
	}
	if p == nil || p.Len() == 0 {
		return nil
	}
	if !st.transform.IsIdentity() {
		p = p.Transform(st.transform)
	}

	name := a["id"]
	if name == "" {
		name = fmt.Sprintf("%s%d", el.Name.Local, len(doc.Shapes))
	}
	if n := names[name]; n > 0 {
		names[name] = n + 1
		name = fmt.Sprintf("%s-%d", name, n)
	} else {
		names[name] = 1
	}

	doc.Shapes = append(doc.Shapes, Shape{
		Name:    name,
		Path:    p,
		Fill:    st.fill.color,
		Opacity: float32(st.opacity * st.fillOpacity),
	})
	return nil
}

// shapePath builds the outline of a basic shape. A nil path means the
// shape is valid but draws nothing, such as a rect with zero width.
func shapePath(name string, a map[string]string) (*flock.Path, error) {
	num := func(keys ...string) ([]float64, error) {
		out := make([]float64, len(keys))
		for i, k := range keys {
			v, ok := a[k]
			if !ok || v == "auto" {
				out[i] = math.NaN()
				continue
			}
			f, err := parseLength(v)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	}
	zero := func(v float64) float64 {
		if math.IsNaN(v) {
			return 0
		}
		return v
	}

	p := flock.NewPath()
	switch name {
	case "path":
		d, ok := a["d"]
		if !ok {
			return nil, nil
		}
		return ParsePathData(d)
	case "rect":
		v, err := num("x", "y", "width", "height", "rx", "ry")
		if err != nil {
			return nil, err
		}
		w, h := zero(v[2]), zero(v[3])
		if w <= 0 || h <= 0 {
			return nil, nil
		}
		rx, ry := v[4], v[5]
		switch {
		case math.IsNaN(rx) && math.IsNaN(ry):
			rx, ry = 0, 0
		case math.IsNaN(rx):
			rx = ry
		case math.IsNaN(ry):
			ry = rx
		}
		rx = math.Min(math.Max(rx, 0), w/2)
		ry = math.Min(math.Max(ry, 0), h/2)
		roundedRect(p, zero(v[0]), zero(v[1]), w, h, rx, ry)
	case "circle":
		v, err := num("cx", "cy", "r")
		if err != nil {
			return nil, err
		}
		if zero(v[2]) <= 0 {
			return nil, nil
		}
		p.Circle(zero(v[0]), zero(v[1]), v[2])
	case "ellipse":
		v, err := num("cx", "cy", "rx", "ry")
		if err != nil {
			return nil, err
		}
		if zero(v[2]) <= 0 || zero(v[3]) <= 0 {
			return nil, nil
		}
		p.Ellipse(zero(v[0]), zero(v[1]), v[2], v[3])
	case "polygon", "polyline":
		vals, err := parseList(a["points"])
		if err != nil {
			return nil, err
		}
		if len(vals)%2 == 1 {
			vals = vals[:len(vals)-1]
		}
		pts := make([]flock.Point, 0, len(vals)/2)
		for i := 0; i+1 < len(vals); i += 2 {
			pts = append(pts, flock.Pt(vals[i], vals[i+1]))
		}
		// A filled polyline closes like a polygon.
		p.Polygon(pts...)
	}
	return p, nil
}

// roundedRect adds a rectangle with elliptical corners.
func roundedRect(p *flock.Path, x, y, w, h, rx, ry float64) {
	if rx == 0 || ry == 0 {
		p.Rectangle(x, y, w, h)
		return
	}
	const k = 0.5522847498307936
	ox, oy := rx*k, ry*k
	p.MoveTo(x+rx, y)
	p.LineTo(x+w-rx, y)
	p.CubicTo(x+w-rx+ox, y, x+w, y+ry-oy, x+w, y+ry)
	p.LineTo(x+w, y+h-ry)
	p.CubicTo(x+w, y+h-ry+oy, x+w-rx+ox, y+h, x+w-rx, y+h)
	p.LineTo(x+rx, y+h)
	p.CubicTo(x+rx-ox, y+h, x, y+h-ry+oy, x, y+h-ry)
	p.LineTo(x, y+ry)
	p.CubicTo(x, y+ry-oy, x+rx-ox, y, x+rx, y)
	p.Close()
}
