// Package svg loads filled shapes from SVG documents into flock paths.
//
// Only geometry and flat fills are read: path, rect, circle, ellipse,
// polygon and polyline elements, nested groups, the transform attribute,
// fill colours and opacity. Strokes, gradients, text, clipping and
// filters are ignored.
//
// A decoded Document keeps one Shape per filled element. Upload
// tessellates every shape into its own mesh; UploadMerged concatenates
// the whole document into a single mesh so it can be instanced as one
// sprite.
//
//	doc, err := svg.DecodeFile("ship.svg")
//	if err != nil {
//	    return err
//	}
//	ship, err := svg.UploadMerged(r.Registry, doc.Centered())
package svg
