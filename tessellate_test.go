package flock

import (
	"errors"
	"math"
	"testing"
)

// meshArea sums the absolute triangle areas of g.
func meshArea(g Geometry) float64 {
	var area float64
	for i := 0; i+2 < len(g.Indices); i += 3 {
		a := g.Vertices[g.Indices[i]].Position
		b := g.Vertices[g.Indices[i+1]].Position
		c := g.Vertices[g.Indices[i+2]].Position
		cross := float64((b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0]))
		area += math.Abs(cross) / 2
	}
	return area
}

func checkIndices(t *testing.T, g Geometry) {
	t.Helper()
	if len(g.Indices)%3 != 0 {
		t.Errorf("index count %d is not a multiple of 3", len(g.Indices))
	}
	for i, idx := range g.Indices {
		if int(idx) >= len(g.Vertices) {
			t.Fatalf("index %d = %d, only %d vertices", i, idx, len(g.Vertices))
		}
	}
}

func TestTessellateSquare(t *testing.T) {
	p := NewPath()
	p.Rectangle(0, 0, 10, 10)

	g, err := Tessellate(p, RGB{R: 1, G: 0, B: 0}, 1)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	checkIndices(t, g)
	if len(g.Vertices) != 4 {
		t.Errorf("vertices = %d, want 4", len(g.Vertices))
	}
	if len(g.Indices) != 6 {
		t.Errorf("indices = %d, want 6", len(g.Indices))
	}
	if got := meshArea(g); math.Abs(got-100) > 1e-6 {
		t.Errorf("area = %v, want 100", got)
	}
	for i, v := range g.Vertices {
		if v.Color != [4]float32{1, 0, 0, 1} {
			t.Errorf("vertex %d color = %v, want opaque red", i, v.Color)
		}
	}
}

func TestTessellateOpacity(t *testing.T) {
	p := NewPath()
	p.Polygon(Pt(0, 0), Pt(4, 0), Pt(0, 4))

	g, err := Tessellate(p, RGB{R: 0.2, G: 0.4, B: 0.6}, 0.5)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(g.Indices) != 3 {
		t.Fatalf("indices = %d, want 3", len(g.Indices))
	}
	want := [4]float32{0.2, 0.4, 0.6, 0.5}
	for i, v := range g.Vertices {
		if v.Color != want {
			t.Errorf("vertex %d color = %v, want %v", i, v.Color, want)
		}
	}
}

func TestTessellateArea(t *testing.T) {
	tests := []struct {
		name  string
		build func(p *Path)
		want  float64
		tol   float64
	}{
		{
			name:  "clockwise square",
			build: func(p *Path) { p.Polygon(Pt(0, 0), Pt(0, 10), Pt(10, 10), Pt(10, 0)) },
			want:  100,
		},
		{
			name: "concave L",
			build: func(p *Path) {
				p.Polygon(Pt(0, 0), Pt(10, 0), Pt(10, 4), Pt(4, 4), Pt(4, 10), Pt(0, 10))
			},
			want: 64,
		},
		{
			name: "square with hole",
			build: func(p *Path) {
				p.Rectangle(0, 0, 10, 10)
				p.Rectangle(3, 3, 4, 4)
			},
			want: 84,
		},
		{
			name: "hole with same winding",
			build: func(p *Path) {
				p.Polygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
				p.Polygon(Pt(2, 2), Pt(5, 2), Pt(5, 5), Pt(2, 5))
			},
			want: 91,
		},
		{
			name: "two holes",
			build: func(p *Path) {
				p.Rectangle(0, 0, 20, 10)
				p.Rectangle(2, 2, 4, 4)
				p.Rectangle(12, 3, 5, 5)
			},
			want: 200 - 16 - 25,
		},
		{
			name: "island inside hole",
			build: func(p *Path) {
				p.Rectangle(0, 0, 10, 10)
				p.Rectangle(2, 2, 6, 6)
				p.Rectangle(4, 4, 2, 2)
			},
			want: 100 - 36 + 4,
		},
		{
			name: "disjoint squares",
			build: func(p *Path) {
				p.Rectangle(0, 0, 5, 5)
				p.Rectangle(10, 10, 5, 5)
			},
			want: 50,
		},
		{
			name:  "circle",
			build: func(p *Path) { p.Circle(0, 0, 50) },
			want:  math.Pi * 50 * 50,
			tol:   100,
		},
		{
			name:  "rounded rectangle",
			build: func(p *Path) { p.RoundedRectangle(0, 0, 40, 20, 5) },
			want:  40*20 - (4-math.Pi)*25,
			tol:   5,
		},
		{
			name: "donut",
			build: func(p *Path) {
				p.Circle(0, 0, 20)
				p.Circle(0, 0, 10)
			},
			want: math.Pi * (400 - 100),
			tol:  40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPath()
			tt.build(p)
			g, err := Tessellate(p, White, 1)
			if err != nil {
				t.Fatalf("Tessellate failed: %v", err)
			}
			checkIndices(t, g)
			tol := tt.tol
			if tol == 0 {
				tol = 1e-6
			}
			if got := meshArea(g); math.Abs(got-tt.want) > tol {
				t.Errorf("area = %v, want %v (tol %v)", got, tt.want, tol)
			}
		})
	}
}

func TestTessellateEmpty(t *testing.T) {
	tests := []struct {
		name  string
		build func(p *Path)
	}{
		{"no elements", func(p *Path) {}},
		{"move only", func(p *Path) { p.MoveTo(1, 1) }},
		{"single line", func(p *Path) { p.MoveTo(0, 0); p.LineTo(5, 5) }},
		{"collinear", func(p *Path) { p.Polygon(Pt(0, 0), Pt(1, 1), Pt(2, 2)) }},
		{"repeated point", func(p *Path) { p.Polygon(Pt(3, 3), Pt(3, 3), Pt(3, 3)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPath()
			tt.build(p)
			if _, err := Tessellate(p, White, 1); !errors.Is(err, ErrEmptyPath) {
				t.Errorf("err = %v, want ErrEmptyPath", err)
			}
		})
	}

	if _, err := Tessellate(nil, White, 1); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("nil path: err = %v, want ErrEmptyPath", err)
	}
}

func TestTessellateTooManyVertices(t *testing.T) {
	p := NewPath()
	p.MoveTo(0, 0)
	const n = maxVertices + 10
	for i := 1; i < n; i++ {
		a := 2 * math.Pi * float64(i) / n
		p.LineTo(1000*math.Cos(a), 1000*math.Sin(a))
	}
	p.Close()

	if _, err := Tessellate(p, White, 1); !errors.Is(err, ErrTessellation) {
		t.Errorf("err = %v, want ErrTessellation", err)
	}
}

func TestTessellatorTolerance(t *testing.T) {
	p := NewPath()
	p.Circle(0, 0, 100)

	coarse := &Tessellator{Tolerance: 4}
	fine := &Tessellator{Tolerance: 0.05}

	gc, err := coarse.Tessellate(p, White, 1)
	if err != nil {
		t.Fatalf("coarse Tessellate failed: %v", err)
	}
	gf, err := fine.Tessellate(p, White, 1)
	if err != nil {
		t.Fatalf("fine Tessellate failed: %v", err)
	}
	if len(gf.Vertices) <= len(gc.Vertices) {
		t.Errorf("fine tolerance produced %d vertices, coarse %d", len(gf.Vertices), len(gc.Vertices))
	}
}

func TestTessellateTransformedPath(t *testing.T) {
	p := NewPath()
	p.Rectangle(-1, -1, 2, 2)
	scaled := p.Transform(Scale(3, 2).Multiply(Rotate(math.Pi / 6)))

	g, err := Tessellate(scaled, White, 1)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if got := meshArea(g); math.Abs(got-24) > 1e-4 {
		t.Errorf("area = %v, want 24", got)
	}
}

func TestFlattenPathImplicitClose(t *testing.T) {
	p := NewPath()
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.LineTo(10, 10)
	p.MoveTo(20, 20)
	p.LineTo(30, 20)
	p.LineTo(30, 30)
	p.LineTo(20, 20)

	contours := flattenPath(p.Elements(), DefaultTolerance)
	if len(contours) != 2 {
		t.Fatalf("contours = %d, want 2", len(contours))
	}
	if len(contours[1]) != 3 {
		t.Errorf("closing duplicate not removed: %v", contours[1])
	}
}

func TestEarClipConcave(t *testing.T) {
	pts := []Point{{0, 0}, {4, 0}, {4, 4}, {2, 1}, {0, 4}}
	tris, err := earClip([]int{0, 1, 2, 3, 4}, pts)
	if err != nil {
		t.Fatalf("earClip failed: %v", err)
	}
	if len(tris) != 9 {
		t.Errorf("got %d indices, want 9", len(tris))
	}
}

func TestSegmentsIntersect(t *testing.T) {
	tests := []struct {
		name           string
		a, b, c, d     Point
		wantIntersects bool
	}{
		{"crossing", Pt(0, 0), Pt(2, 2), Pt(0, 2), Pt(2, 0), true},
		{"parallel", Pt(0, 0), Pt(2, 0), Pt(0, 1), Pt(2, 1), false},
		{"touching end", Pt(0, 0), Pt(2, 0), Pt(2, 0), Pt(3, 1), true},
		{"collinear apart", Pt(0, 0), Pt(1, 0), Pt(2, 0), Pt(3, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := segmentsIntersect(tt.a, tt.b, tt.c, tt.d); got != tt.wantIntersects {
				t.Errorf("segmentsIntersect = %v, want %v", got, tt.wantIntersects)
			}
		})
	}
}
