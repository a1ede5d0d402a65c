package svg

import (
	"errors"
	"fmt"

	"github.com/gogpu/flock"
)

// Upload tessellates every shape of doc into its own mesh. The result
// maps shape names to mesh handles. Shapes that enclose no area are
// skipped and have no entry. All shapes are tessellated before any mesh
// is registered, so a tessellation error leaves reg unchanged.
func Upload(reg *flock.Registry, doc *Document) (map[string]flock.Mesh, error) {
	names := make([]string, 0, len(doc.Shapes))
	geoms := make([]flock.Geometry, 0, len(doc.Shapes))
	for _, s := range doc.Shapes {
		g, err := reg.Tessellator().Tessellate(s.Path, s.Fill, s.Opacity)
		if err != nil {
			if errors.Is(err, flock.ErrEmptyPath) {
				flock.Logger().Debug("svg: shape skipped", "shape", s.Name)
				continue
			}
			return nil, fmt.Errorf("svg: shape %q: %w", s.Name, err)
		}
		names = append(names, s.Name)
		geoms = append(geoms, g)
	}
	if len(geoms) == 0 {
		return nil, fmt.Errorf("svg: %w", flock.ErrEmptyPath)
	}

	meshes := make(map[string]flock.Mesh, len(geoms))
	for i, g := range geoms {
		m, err := reg.UploadGeometry(g)
		if err != nil {
			return nil, fmt.Errorf("svg: shape %q: %w", names[i], err)
		}
		meshes[names[i]] = m
	}
	flock.Logger().Debug("svg: document uploaded", "shapes", len(meshes))
	return meshes, nil
}

// Geometry tessellates all shapes of doc into one geometry in document
// order, so later shapes draw over earlier ones at equal depth. Shapes
// that enclose no area are skipped.
func Geometry(t *flock.Tessellator, doc *Document) (flock.Geometry, error) {
	var out flock.Geometry
	for _, s := range doc.Shapes {
		g, err := t.Tessellate(s.Path, s.Fill, s.Opacity)
		if err != nil {
			if errors.Is(err, flock.ErrEmptyPath) {
				continue
			}
			return flock.Geometry{}, fmt.Errorf("svg: shape %q: %w", s.Name, err)
		}
		base := len(out.Vertices)
		if base+len(g.Vertices) > 1<<16 {
			return flock.Geometry{}, fmt.Errorf("svg: shape %q: %w: more than 65536 vertices",
				s.Name, flock.ErrTessellation)
		}
		out.Vertices = append(out.Vertices, g.Vertices...)
		for _, idx := range g.Indices {
			out.Indices = append(out.Indices, uint16(base+int(idx)))
		}
	}
	if len(out.Indices) == 0 {
		return flock.Geometry{}, fmt.Errorf("svg: %w", flock.ErrEmptyPath)
	}
	return out, nil
}

// UploadMerged uploads the whole document as a single mesh.
func UploadMerged(reg *flock.Registry, doc *Document) (flock.Mesh, error) {
	g, err := Geometry(reg.Tessellator(), doc)
	if err != nil {
		return 0, err
	}
	return reg.UploadGeometry(g)
}
