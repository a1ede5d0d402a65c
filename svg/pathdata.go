package svg

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/flock"
	"github.com/tdewolff/parse/v2/strconv"
)

// ErrSyntax is returned for malformed path data or attribute values.
var ErrSyntax = errors.New("svg: syntax error")

// scanner walks a comma/whitespace separated list of numbers.
type scanner struct {
	b   []byte
	pos int
}

func newScanner(s string) *scanner {
	return &scanner{b: []byte(s)}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// skip consumes whitespace and at most one comma.
func (s *scanner) skip() {
	for s.pos < len(s.b) && isSpace(s.b[s.pos]) {
		s.pos++
	}
	if s.pos < len(s.b) && s.b[s.pos] == ',' {
		s.pos++
		for s.pos < len(s.b) && isSpace(s.b[s.pos]) {
			s.pos++
		}
	}
}

func (s *scanner) done() bool {
	s.skip()
	return s.pos >= len(s.b)
}

// peek returns the next significant byte without consuming it.
func (s *scanner) peek() byte {
	s.skip()
	if s.pos >= len(s.b) {
		return 0
	}
	return s.b[s.pos]
}

// atNumber reports whether a number starts at the cursor.
func (s *scanner) atNumber() bool {
	c := s.peek()
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}

func (s *scanner) number() (float64, error) {
	s.skip()
	f, n := strconv.ParseFloat(s.b[s.pos:])
	if n == 0 {
		return 0, fmt.Errorf("%w: number expected at offset %d", ErrSyntax, s.pos)
	}
	s.pos += n
	return f, nil
}

// numbers reads exactly len(dst) numbers.
func (s *scanner) numbers(dst []float64) error {
	for i := range dst {
		v, err := s.number()
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

// flag reads an arc flag. Flags may be written without separators, as
// in "a5 5 0 011 1".
func (s *scanner) flag() (bool, error) {
	switch s.peek() {
	case '0':
		s.pos++
		return false, nil
	case '1':
		s.pos++
		return true, nil
	}
	return false, fmt.Errorf("%w: arc flag expected at offset %d", ErrSyntax, s.pos)
}

// ParsePathData parses the d attribute of a path element. Relative and
// absolute forms of every command are supported; arcs are converted to
// cubic curves.
func ParsePathData(d string) (*flock.Path, error) {
	var (
		p        = flock.NewPath()
		s        = newScanner(d)
		cur      flock.Point
		start    flock.Point
		ctrl     flock.Point // last control point, for S and T
		cmd, prv byte
		args     [6]float64
	)

	for !s.done() {
		if s.atNumber() {
			if cmd == 0 {
				return nil, fmt.Errorf("%w: path data must start with a command", ErrSyntax)
			}
			// Implicit repeat; a moveto repeats as lineto.
			switch cmd {
			case 'M':
				cmd = 'L'
			case 'm':
				cmd = 'l'
			case 'Z', 'z':
				return nil, fmt.Errorf("%w: number after closepath at offset %d", ErrSyntax, s.pos)
			}
		} else {
			cmd = s.b[s.pos]
			s.pos++
		}

		rel := cmd >= 'a' && cmd <= 'z'
		var base flock.Point
		if rel {
			base = cur
		}
		abs := func(x, y float64) flock.Point {
			return flock.Pt(base.X+x, base.Y+y)
		}

		switch cmd {
		case 'M', 'm':
			if err := s.numbers(args[:2]); err != nil {
				return nil, err
			}
			cur = abs(args[0], args[1])
			start = cur
			p.MoveTo(cur.X, cur.Y)
		case 'L', 'l':
			if err := s.numbers(args[:2]); err != nil {
				return nil, err
			}
			cur = abs(args[0], args[1])
			p.LineTo(cur.X, cur.Y)
		case 'H', 'h':
			if err := s.numbers(args[:1]); err != nil {
				return nil, err
			}
			cur.X = base.X + args[0]
			p.LineTo(cur.X, cur.Y)
		case 'V', 'v':
			if err := s.numbers(args[:1]); err != nil {
				return nil, err
			}
			cur.Y = base.Y + args[0]
			p.LineTo(cur.X, cur.Y)
		case 'C', 'c':
			if err := s.numbers(args[:6]); err != nil {
				return nil, err
			}
			c1 := abs(args[0], args[1])
			ctrl = abs(args[2], args[3])
			cur = abs(args[4], args[5])
			p.CubicTo(c1.X, c1.Y, ctrl.X, ctrl.Y, cur.X, cur.Y)
		case 'S', 's':
			if err := s.numbers(args[:4]); err != nil {
				return nil, err
			}
			c1 := cur
			if isCubic(prv) {
				c1 = reflect(ctrl, cur)
			}
			ctrl = abs(args[0], args[1])
			cur = abs(args[2], args[3])
			p.CubicTo(c1.X, c1.Y, ctrl.X, ctrl.Y, cur.X, cur.Y)
		case 'Q', 'q':
			if err := s.numbers(args[:4]); err != nil {
				return nil, err
			}
			ctrl = abs(args[0], args[1])
			cur = abs(args[2], args[3])
			p.QuadraticTo(ctrl.X, ctrl.Y, cur.X, cur.Y)
		case 'T', 't':
			if err := s.numbers(args[:2]); err != nil {
				return nil, err
			}
			if isQuad(prv) {
				ctrl = reflect(ctrl, cur)
			} else {
				ctrl = cur
			}
			cur = abs(args[0], args[1])
			p.QuadraticTo(ctrl.X, ctrl.Y, cur.X, cur.Y)
		case 'A', 'a':
			if err := s.numbers(args[:3]); err != nil {
				return nil, err
			}
			large, err := s.flag()
			if err != nil {
				return nil, err
			}
			sweep, err := s.flag()
			if err != nil {
				return nil, err
			}
			if err := s.numbers(args[3:5]); err != nil {
				return nil, err
			}
			end := abs(args[3], args[4])
			arcTo(p, cur, args[0], args[1], args[2], large, sweep, end)
			cur = end
		case 'Z', 'z':
			p.Close()
			cur = start
		default:
			return nil, fmt.Errorf("%w: unknown path command %q", ErrSyntax, cmd)
		}
		prv = cmd
	}
	return p, nil
}

func isCubic(c byte) bool {
	return c == 'C' || c == 'c' || c == 'S' || c == 's'
}

func isQuad(c byte) bool {
	return c == 'Q' || c == 'q' || c == 'T' || c == 't'
}

// reflect mirrors c about p.
func reflect(c, p flock.Point) flock.Point {
	return flock.Pt(2*p.X-c.X, 2*p.Y-c.Y)
}

// arcTo appends an elliptical arc from 'from' to 'to' as cubic curves of
// at most 90 degrees each, using the endpoint to centre conversion of
// SVG 1.1 appendix F.6.
func arcTo(p *flock.Path, from flock.Point, rx, ry, xRot float64, large, sweep bool, to flock.Point) {
	if from == to {
		return
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		p.LineTo(to.X, to.Y)
		return
	}

	phi := xRot * math.Pi / 180
	sinPhi, cosPhi := math.Sincos(phi)

	dx := (from.X - to.X) / 2
	dy := (from.Y - to.Y) / 2
	x1p := cosPhi*dx + sinPhi*dy
	y1p := -sinPhi*dx + cosPhi*dy

	// Scale radii up when they cannot span the endpoints.
	if lambda := (x1p*x1p)/(rx*rx) + (y1p*y1p)/(ry*ry); lambda > 1 {
		l := math.Sqrt(lambda)
		rx *= l
		ry *= l
	}

	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	coef := 0.0
	if num > 0 && den > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx

	cx := cosPhi*cxp - sinPhi*cyp + (from.X+to.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (from.Y+to.Y)/2

	theta1 := vectorAngle(1, 0, (x1p-cxp)/rx, (y1p-cyp)/ry)
	delta := vectorAngle((x1p-cxp)/rx, (y1p-cyp)/ry, (-x1p-cxp)/rx, (-y1p-cyp)/ry)
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	segments := int(math.Ceil(math.Abs(delta) / (math.Pi / 2)))
	if segments < 1 {
		segments = 1
	}
	step := delta / float64(segments)
	// Control point distance for a unit circle arc of angle step.
	k := 4.0 / 3.0 * math.Tan(step/4)

	point := func(t float64) (x, y, dxdt, dydt float64) {
		sin, cos := math.Sincos(t)
		ex, ey := rx*cos, ry*sin
		tx, ty := -rx*sin, ry*cos
		return cx + cosPhi*ex - sinPhi*ey,
			cy + sinPhi*ex + cosPhi*ey,
			cosPhi*tx - sinPhi*ty,
			sinPhi*tx + cosPhi*ty
	}

	t := theta1
	x0, y0, dx0, dy0 := point(t)
	for i := 0; i < segments; i++ {
		t += step
		x1, y1, dx1, dy1 := point(t)
		if i == segments-1 {
			x1, y1 = to.X, to.Y
		}
		p.CubicTo(x0+k*dx0, y0+k*dy0, x1-k*dx1, y1-k*dy1, x1, y1)
		x0, y0, dx0, dy0 = x1, y1, dx1, dy1
	}
}

// vectorAngle returns the signed angle from u to v.
func vectorAngle(ux, uy, vx, vy float64) float64 {
	return math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
}
