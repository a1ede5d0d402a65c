package svg

import (
	"math"
	"testing"

	"github.com/gogpu/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geometryArea(g flock.Geometry) float64 {
	var area float64
	for i := 0; i+2 < len(g.Indices); i += 3 {
		a := g.Vertices[g.Indices[i]].Position
		b := g.Vertices[g.Indices[i+1]].Position
		c := g.Vertices[g.Indices[i+2]].Position
		area += math.Abs(float64((b[0]-a[0])*(c[1]-a[1])-(b[1]-a[1])*(c[0]-a[0]))) / 2
	}
	return area
}

func TestParsePathDataLines(t *testing.T) {
	p, err := ParsePathData("M0 0 L10 0 L10 10 Z")
	require.NoError(t, err)
	assert.Equal(t, []flock.PathElement{
		flock.MoveTo{Point: flock.Pt(0, 0)},
		flock.LineTo{Point: flock.Pt(10, 0)},
		flock.LineTo{Point: flock.Pt(10, 10)},
		flock.Close{},
	}, p.Elements())
}

func TestParsePathDataRelativeRepeat(t *testing.T) {
	p, err := ParsePathData("m1 1 2 0 0 2 z")
	require.NoError(t, err)
	assert.Equal(t, []flock.PathElement{
		flock.MoveTo{Point: flock.Pt(1, 1)},
		flock.LineTo{Point: flock.Pt(3, 1)},
		flock.LineTo{Point: flock.Pt(3, 3)},
		flock.Close{},
	}, p.Elements())
}

func TestParsePathDataHorizontalVertical(t *testing.T) {
	p, err := ParsePathData("M0 0H10V5h-5v-1")
	require.NoError(t, err)
	assert.Equal(t, flock.Pt(5, 4), p.CurrentPoint())
	assert.Equal(t, 5, p.Len())
}

func TestParsePathDataCompactNumbers(t *testing.T) {
	p, err := ParsePathData("M1-2.5.5.5")
	require.NoError(t, err)
	assert.Equal(t, []flock.PathElement{
		flock.MoveTo{Point: flock.Pt(1, -2.5)},
		flock.LineTo{Point: flock.Pt(0.5, 0.5)},
	}, p.Elements())
}

func TestParsePathDataSmoothCurves(t *testing.T) {
	p, err := ParsePathData("M0 0C0 10 10 10 10 0S20 -10 20 0")
	require.NoError(t, err)
	second := p.Elements()[2].(flock.CubicTo)
	assert.Equal(t, flock.Pt(10, -10), second.Control1)

	p, err = ParsePathData("M0 0Q5 10 10 0T20 0")
	require.NoError(t, err)
	quad := p.Elements()[2].(flock.QuadTo)
	assert.Equal(t, flock.Pt(15, -10), quad.Control)

	// S without a preceding curve uses the current point.
	p, err = ParsePathData("M3 4S5 5 6 6")
	require.NoError(t, err)
	assert.Equal(t, flock.Pt(3, 4), p.Elements()[1].(flock.CubicTo).Control1)
}

func TestParsePathDataArc(t *testing.T) {
	p, err := ParsePathData("M0 0A10 10 0 0 1 20 0Z")
	require.NoError(t, err)

	els := p.Elements()
	require.Len(t, els, 4, "move, two quarter cubics, close")
	assert.Equal(t, flock.Pt(20, 0), els[2].(flock.CubicTo).Point)

	g, err := (&flock.Tessellator{Tolerance: 0.001}).Tessellate(p, flock.White, 1)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi*50, geometryArea(g), 0.2)
}

func TestParsePathDataArcCompactFlags(t *testing.T) {
	p, err := ParsePathData("M0 0a5 5 0 1020 0")
	require.NoError(t, err)
	// Radius 5 cannot span 20 units and is scaled up to a half circle.
	assert.Equal(t, flock.Pt(20, 0), p.CurrentPoint())
}

func TestParsePathDataDegenerateArc(t *testing.T) {
	p, err := ParsePathData("M0 0A0 5 0 0 1 10 0")
	require.NoError(t, err)
	assert.Equal(t, flock.LineTo{Point: flock.Pt(10, 0)}, p.Elements()[1])
}

func TestParsePathDataErrors(t *testing.T) {
	for _, d := range []string{
		"10 10",
		"M0",
		"M0 0 X 1",
		"M0 0 10 10 Z 5",
		"M0 0 A1 1 0 2 0 5 5",
	} {
		_, err := ParsePathData(d)
		assert.ErrorIs(t, err, ErrSyntax, "d=%q", d)
	}
}
