package svg

import (
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/flock"
)

// paint is a resolved fill value.
type paint struct {
	color flock.RGB
	none  bool
}

var black = paint{color: flock.RGB{}}

// parsePaint parses a fill value: "none", "#rgb", "#rrggbb",
// "rgb(r, g, b)" with integer or percentage components, or a colour
// keyword. currentColor is black. Paint server references such as url(#id) fall back to the
// colour that follows them, if any.
func parsePaint(v string) (paint, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "none":
		return paint{none: true}, nil
	case v == "currentColor":
		return black, nil
	case strings.HasPrefix(v, "url("):
		end := strings.IndexByte(v, ')')
		if end < 0 {
			return paint{}, fmt.Errorf("%w: unterminated paint %q", ErrSyntax, v)
		}
		fallback := strings.TrimSpace(v[end+1:])
		if fallback == "" {
			return paint{}, fmt.Errorf("svg: paint server %q not supported", v[:end+1])
		}
		return parsePaint(fallback)
	case strings.HasPrefix(v, "#"):
		c, ok := flock.Hex(v)
		if !ok {
			return paint{}, fmt.Errorf("%w: colour %q", ErrSyntax, v)
		}
		return paint{color: c}, nil
	case strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")"):
		return parseRGBFunc(v[4 : len(v)-1])
	}
	c, ok := flock.Named(v)
	if !ok {
		return paint{}, fmt.Errorf("%w: unknown colour %q", ErrSyntax, v)
	}
	return paint{color: c}, nil
}

func parseRGBFunc(args string) (paint, error) {
	parts := strings.Split(args, ",")
	if len(parts) != 3 {
		return paint{}, fmt.Errorf("%w: rgb(%s)", ErrSyntax, args)
	}
	var c [3]float32
	for i, part := range parts {
		part = strings.TrimSpace(part)
		scale := 1.0 / 255
		if strings.HasSuffix(part, "%") {
			part = strings.TrimSuffix(part, "%")
			scale = 1.0 / 100
		}
		v, err := parseNumber(part)
		if err != nil {
			return paint{}, err
		}
		c[i] = float32(math.Max(0, math.Min(1, v*scale)))
	}
	return paint{color: flock.RGB{R: c[0], G: c[1], B: c[2]}}, nil
}

// parseNumber parses a single number that must span all of s.
func parseNumber(s string) (float64, error) {
	sc := newScanner(s)
	v, err := sc.number()
	if err != nil {
		return 0, err
	}
	if !sc.done() {
		return 0, fmt.Errorf("%w: trailing data in %q", ErrSyntax, s)
	}
	return v, nil
}

// parseLength parses a length, dropping a "px" unit.
func parseLength(s string) (float64, error) {
	return parseNumber(strings.TrimSuffix(strings.TrimSpace(s), "px"))
}

// parseOpacity parses a number or percentage clamped to [0, 1].
func parseOpacity(s string) (float64, error) {
	s = strings.TrimSpace(s)
	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSuffix(s, "%")
		scale = 0.01
	}
	v, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	return math.Max(0, math.Min(1, v*scale)), nil
}

// parseStyleAttr splits an inline style attribute into declarations.
func parseStyleAttr(s string) map[string]string {
	decls := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		decls[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return decls
}

// parseTransform parses a transform attribute into a single matrix. The
// listed transforms apply right to left, as nested groups would.
func parseTransform(s string) (flock.Matrix, error) {
	m := flock.Identity()
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		closing := strings.IndexByte(rest, ')')
		if open < 0 || closing < open {
			return m, fmt.Errorf("%w: transform %q", ErrSyntax, s)
		}
		name := strings.TrimSpace(rest[:open])
		args, err := parseList(rest[open+1 : closing])
		if err != nil {
			return m, err
		}
		t, err := transformFunc(name, args)
		if err != nil {
			return m, err
		}
		m = m.Multiply(t)
		rest = strings.TrimLeft(rest[closing+1:], " \t\r\n,")
	}
	return m, nil
}

func parseList(s string) ([]float64, error) {
	var vals []float64
	sc := newScanner(s)
	for !sc.done() {
		v, err := sc.number()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func transformFunc(name string, a []float64) (flock.Matrix, error) {
	bad := func() (flock.Matrix, error) {
		return flock.Identity(), fmt.Errorf("%w: %s with %d arguments", ErrSyntax, name, len(a))
	}
	switch name {
	case "matrix":
		if len(a) != 6 {
			return bad()
		}
		return flock.Matrix{A: a[0], B: a[2], C: a[4], D: a[1], E: a[3], F: a[5]}, nil
	case "translate":
		switch len(a) {
		case 1:
			return flock.Translate(a[0], 0), nil
		case 2:
			return flock.Translate(a[0], a[1]), nil
		}
		return bad()
	case "scale":
		switch len(a) {
		case 1:
			return flock.Scale(a[0], a[0]), nil
		case 2:
			return flock.Scale(a[0], a[1]), nil
		}
		return bad()
	case "rotate":
		switch len(a) {
		case 1:
			return flock.Rotate(a[0] * math.Pi / 180), nil
		case 3:
			return flock.Translate(a[1], a[2]).
				Multiply(flock.Rotate(a[0] * math.Pi / 180)).
				Multiply(flock.Translate(-a[1], -a[2])), nil
		}
		return bad()
	case "skewX":
		if len(a) != 1 {
			return bad()
		}
		return flock.Matrix{A: 1, B: math.Tan(a[0] * math.Pi / 180), E: 1}, nil
	case "skewY":
		if len(a) != 1 {
			return bad()
		}
		return flock.Matrix{A: 1, D: math.Tan(a[0] * math.Pi / 180), E: 1}, nil
	}
	return flock.Identity(), fmt.Errorf("%w: unknown transform %q", ErrSyntax, name)
}
