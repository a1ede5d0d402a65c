package svg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scene = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 50">
  <title>scene</title>
  <defs><rect id="hidden" width="5" height="5"/></defs>
  <g fill="red" opacity="0.5" transform="translate(10 0)">
    <rect id="box" x="0" y="0" width="10" height="10"/>
    <circle cx="50" cy="25" r="5" style="fill:#00ff00; fill-opacity:0.5"/>
  </g>
  <path d="M0 0 L10 0 L10 10 Z" fill="none"/>
  <polygon points="0,0 10,0 0,10"/>
</svg>`

func TestDecode(t *testing.T) {
	doc, err := Decode(strings.NewReader(scene))
	require.NoError(t, err)

	assert.Equal(t, ViewBox{Width: 100, Height: 50}, doc.ViewBox)
	require.Len(t, doc.Shapes, 3)

	box := doc.Shapes[0]
	assert.Equal(t, "box", box.Name)
	assert.Equal(t, flock.RGB{R: 1}, box.Fill)
	assert.InDelta(t, 0.5, box.Opacity, 1e-6)
	assert.Equal(t, flock.MoveTo{Point: flock.Pt(10, 0)}, box.Path.Elements()[0])

	circle := doc.Shapes[1]
	assert.Equal(t, "circle1", circle.Name)
	assert.Equal(t, flock.RGB{G: 1}, circle.Fill)
	assert.InDelta(t, 0.25, circle.Opacity, 1e-6)

	poly := doc.Shapes[2]
	assert.Equal(t, "polygon2", poly.Name)
	assert.Equal(t, flock.RGB{}, poly.Fill)
	assert.Equal(t, float32(1), poly.Opacity)

	_, ok := doc.Shape("hidden")
	assert.False(t, ok, "shapes inside defs are not drawn")
}

func TestDecodeUniqueNames(t *testing.T) {
	doc, err := Decode(strings.NewReader(`<svg width="20px" height="10">
		<rect id="a" width="1" height="1"/>
		<rect id="a" width="2" height="2"/>
	</svg>`))
	require.NoError(t, err)
	require.Len(t, doc.Shapes, 2)
	assert.Equal(t, "a", doc.Shapes[0].Name)
	assert.Equal(t, "a-1", doc.Shapes[1].Name)
	assert.Equal(t, ViewBox{Width: 20, Height: 10}, doc.ViewBox)
}

func TestDecodeSkipsEmptyShapes(t *testing.T) {
	doc, err := Decode(strings.NewReader(`<svg viewBox="0 0 10 10">
		<rect width="0" height="5"/>
		<circle r="0"/>
		<path/>
		<ellipse cx="5" cy="5" rx="2" ry="1"/>
	</svg>`))
	require.NoError(t, err)
	require.Len(t, doc.Shapes, 1)
	assert.Equal(t, "ellipse0", doc.Shapes[0].Name)
}

func TestDecodeErrors(t *testing.T) {
	for name, src := range map[string]string{
		"no root":     `<html></html>`,
		"bad length":  `<svg><rect width="abc" height="1"/></svg>`,
		"bad viewBox": `<svg viewBox="0 0 -1 5"></svg>`,
		"bad path":    `<svg><path d="M0"/></svg>`,
		"bad fill":    `<svg><g fill="url(#x)"><rect width="1" height="1"/></g></svg>`,
	} {
		_, err := Decode(strings.NewReader(src))
		assert.Error(t, err, name)
	}
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.svg")
	require.NoError(t, os.WriteFile(path, []byte(scene), 0o600))

	doc, err := DecodeFile(path)
	require.NoError(t, err)
	assert.Len(t, doc.Shapes, 3)

	_, err = DecodeFile(filepath.Join(t.TempDir(), "missing.svg"))
	assert.Error(t, err)
}

func TestRoundedRect(t *testing.T) {
	doc, err := Decode(strings.NewReader(`<svg viewBox="0 0 10 10">
		<rect width="10" height="4" rx="2"/>
	</svg>`))
	require.NoError(t, err)
	require.Len(t, doc.Shapes, 1)

	g, err := (&flock.Tessellator{Tolerance: 0.001}).Tessellate(doc.Shapes[0].Path, flock.White, 1)
	require.NoError(t, err)
	assert.InDelta(t, 24+4*3.14159265, geometryArea(g), 0.05)
}

func TestCentered(t *testing.T) {
	doc, err := Decode(strings.NewReader(scene))
	require.NoError(t, err)

	c := doc.Centered()
	assert.Equal(t, ViewBox{MinX: -50, MinY: -25, Width: 100, Height: 50}, c.ViewBox)
	assert.Equal(t, flock.MoveTo{Point: flock.Pt(-40, -25)}, c.Shapes[0].Path.Elements()[0])
	assert.Equal(t, flock.MoveTo{Point: flock.Pt(10, 0)}, doc.Shapes[0].Path.Elements()[0],
		"source document unchanged")
}

func TestUpload(t *testing.T) {
	doc, err := Decode(strings.NewReader(scene))
	require.NoError(t, err)

	reg := flock.NewRegistry(1 << 16)
	meshes, err := Upload(reg, doc)
	require.NoError(t, err)
	assert.Len(t, meshes, 3)
	assert.Equal(t, 3, reg.MeshCount())

	box := meshes["box"]
	n, err := reg.VertexCount(box)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

const openLine = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
  <rect id="box" width="10" height="10"/>
  <path id="line" d="M0 0 L100 100" stroke="black"/>
</svg>`

func TestUploadSkipsShapesWithoutArea(t *testing.T) {
	doc, err := Decode(strings.NewReader(openLine))
	require.NoError(t, err)
	require.Len(t, doc.Shapes, 2)

	reg := flock.NewRegistry(1 << 16)
	meshes, err := Upload(reg, doc)
	require.NoError(t, err)
	assert.Len(t, meshes, 1)
	assert.Contains(t, meshes, "box")
	assert.NotContains(t, meshes, "line")
	assert.Equal(t, 1, reg.MeshCount())

	_, err = Geometry(reg.Tessellator(), doc)
	assert.NoError(t, err)
}

func TestUploadNoAreaLeavesRegistryEmpty(t *testing.T) {
	doc, err := Decode(strings.NewReader(`<svg xmlns="http://www.w3.org/2000/svg">
  <path d="M0 0 L100 100"/>
  <polyline points="0,0 10,0 20,0"/>
</svg>`))
	require.NoError(t, err)

	reg := flock.NewRegistry(1 << 16)
	_, err = Upload(reg, doc)
	assert.ErrorIs(t, err, flock.ErrEmptyPath)
	assert.Equal(t, 0, reg.MeshCount())
}

func TestUploadMerged(t *testing.T) {
	doc, err := Decode(strings.NewReader(scene))
	require.NoError(t, err)

	reg := flock.NewRegistry(1 << 16)
	reg.Tessellator().Tolerance = 0.01
	single, err := Geometry(reg.Tessellator(), doc)
	require.NoError(t, err)

	m, err := UploadMerged(reg, doc)
	require.NoError(t, err)
	n, err := reg.VertexCount(m)
	require.NoError(t, err)
	assert.Equal(t, len(single.Vertices), n)

	// box 100 + polygon 50 + circle ~78.5
	assert.InDelta(t, 228.54, geometryArea(single), 0.5)
}

func TestGeometryEmptyDocument(t *testing.T) {
	doc, err := Decode(strings.NewReader(`<svg viewBox="0 0 1 1"/>`))
	require.NoError(t, err)
	_, err = Geometry(flock.NewTessellator(), doc)
	assert.ErrorIs(t, err, flock.ErrEmptyPath)
}
