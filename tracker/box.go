package tracker

import (
	"image"
	"math"
)

// Box is a bounding box in normalized [0,1] coordinates relative to the
// frame width and height
type Box struct {
	XMin float64 `msgpack:"xmin"`
	YMin float64 `msgpack:"ymin"`
	XMax float64 `msgpack:"xmax"`
	YMax float64 `msgpack:"ymax"`
}

// NewBox creates a new Box from xmin, ymin, xmax, ymax coordinates
func NewBox(xmin, ymin, xmax, ymax float64) Box {
	return Box{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax}
}

// Width returns the width of the box
func (b Box) Width() float64 {
	return b.XMax - b.XMin
}

// Height returns the height of the box
func (b Box) Height() float64 {
	return b.YMax - b.YMin
}

// Area returns the area of the box, zero for degenerate boxes
func (b Box) Area() float64 {
	return math.Max(0, b.Width()) * math.Max(0, b.Height())
}

// Valid reports whether the box has xmin<xmax and ymin<ymax
func (b Box) Valid() bool {
	return b.XMin < b.XMax && b.YMin < b.YMax
}

// Coords returns the box as a [xmin, ymin, xmax, ymax] array
func (b Box) Coords() [4]float64 {
	return [4]float64{b.XMin, b.YMin, b.XMax, b.YMax}
}

// BoxFromCoords creates a Box from a [xmin, ymin, xmax, ymax] array
func BoxFromCoords(c [4]float64) Box {
	return Box{XMin: c[0], YMin: c[1], XMax: c[2], YMax: c[3]}
}

// Pixels converts the normalized box into pixel coordinates of a frame with
// the given width and height.  Coordinates are truncated like the int() cast
// used when drawing annotations
func (b Box) Pixels(width, height int) image.Rectangle {
	return image.Rect(
		int(b.XMin*float64(width)),
		int(b.YMin*float64(height)),
		int(b.XMax*float64(width)),
		int(b.YMax*float64(height)),
	)
}

// intersection returns the intersection area of two boxes
func intersection(a, b Box) float64 {
	x1 := math.Max(a.XMin, b.XMin)
	y1 := math.Max(a.YMin, b.YMin)
	x2 := math.Min(a.XMax, b.XMax)
	y2 := math.Min(a.YMax, b.YMax)

	return math.Max(0, x2-x1) * math.Max(0, y2-y1)
}

// Overlap returns the intersection area of box1 and box2 divided by the area
// of box2, ie: how much of box2 is covered by box1.  This is directional and
// not an IoU, Overlap(a, b) and Overlap(b, a) generally differ.  A zero area
// box2 gives 0
func Overlap(box1, box2 Box) float64 {

	area := box2.Area()

	if area <= 0 {
		return 0
	}

	return intersection(box1, box2) / area
}

// IoU calculates the Intersection over Union with another box
func (b Box) IoU(other Box) float64 {

	inter := intersection(b, other)
	union := b.Area() + other.Area() - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}
