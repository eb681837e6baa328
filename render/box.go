package render

import (
	clipper "github.com/ctessum/go.clipper"
	"gocv.io/x/gocv"
	"image"
	"image/color"
)

// BoxStyle defines how a head box is drawn on prompt images
type BoxStyle struct {
	// Margin in pixels added around the head box
	Margin        int
	Color         color.RGBA
	LineThickness int
}

// DefaultBoxStyle returns default head box style settings
func DefaultBoxStyle() BoxStyle {
	return BoxStyle{
		Margin:        10,
		Color:         Green,
		LineThickness: 2,
	}
}

// ExpandRect grows the rectangle by margin pixels on every side and clamps
// the result to bounds
func ExpandRect(rect image.Rectangle, margin int, bounds image.Rectangle) image.Rectangle {

	if margin <= 0 {
		return rect.Intersect(bounds)
	}

	// convert the rect corners to a Clipper Path
	path := clipper.Path{
		&clipper.IntPoint{X: clipper.CInt(rect.Min.X), Y: clipper.CInt(rect.Min.Y)},
		&clipper.IntPoint{X: clipper.CInt(rect.Max.X), Y: clipper.CInt(rect.Min.Y)},
		&clipper.IntPoint{X: clipper.CInt(rect.Max.X), Y: clipper.CInt(rect.Max.Y)},
		&clipper.IntPoint{X: clipper.CInt(rect.Min.X), Y: clipper.CInt(rect.Max.Y)},
	}

	// offset with mitered joins so square corners stay square
	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtMiter, clipper.EtClosedPolygon)

	solution := co.Execute(float64(margin))

	// take the bounding rectangle of the offset polygon
	var out image.Rectangle
	first := true

	for _, sol := range solution {
		for _, pt := range sol {
			p := image.Pt(int(pt.X), int(pt.Y))

			if first {
				out = image.Rectangle{Min: p, Max: p}
				first = false
				continue
			}

			out.Min.X = min(out.Min.X, p.X)
			out.Min.Y = min(out.Min.Y, p.Y)
			out.Max.X = max(out.Max.X, p.X)
			out.Max.Y = max(out.Max.Y, p.Y)
		}
	}

	if first {
		// degenerate input produced no polygon, fall back to plain expansion
		out = image.Rect(rect.Min.X-margin, rect.Min.Y-margin,
			rect.Max.X+margin, rect.Max.Y+margin)
	}

	return out.Intersect(bounds)
}

// HeadBox draws the margin expanded head box on the image and returns the
// rectangle drawn
func HeadBox(img *gocv.Mat, rect image.Rectangle, style BoxStyle) image.Rectangle {

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	drawn := ExpandRect(rect, style.Margin, bounds)

	gocv.Rectangle(img, drawn, style.Color, style.LineThickness)

	return drawn
}
