package preprocess

import (
	"gocv.io/x/gocv"
	"image"
	"image/color"
)

// Display scales frames to the fixed size used for prompt images.  Frames
// are either stretched to the size or letterboxed to keep their aspect
type Display struct {
	// Width and Height of the scaled image
	Width  int
	Height int
	// Letterbox keeps the source aspect ratio padding with PadColor
	Letterbox bool
	PadColor  color.RGBA
	// tempMat holds the scaled frame before letterbox padding
	tempMat gocv.Mat
}

// NewDisplay returns a Display scaling to width x height
func NewDisplay(width, height int, letterbox bool) *Display {
	return &Display{
		Width:     width,
		Height:    height,
		Letterbox: letterbox,
		PadColor:  color.RGBA{R: 0, G: 0, B: 0, A: 255},
		tempMat:   gocv.NewMat(),
	}
}

// Close frees memory allocated during the scaling process
func (d *Display) Close() error {
	return d.tempMat.Close()
}

// Layout returns the scaled size of a source image and the x and y padding
// placed around it.  Without letterboxing the scaled size is the display
// size and there is no padding
func (d *Display) Layout(srcWidth, srcHeight int) (size image.Point, xPad, yPad int) {

	if !d.Letterbox || srcWidth <= 0 || srcHeight <= 0 {
		return image.Pt(d.Width, d.Height), 0, 0
	}

	size = image.Pt(d.Width, d.Height)

	// compare the width and height scale factors in integer form so exact
	// ratios do not lose a pixel to rounding
	if d.Width*srcHeight < d.Height*srcWidth {
		size.Y = srcHeight * d.Width / srcWidth
	} else {
		size.X = srcWidth * d.Height / srcHeight
	}

	return size, (d.Width - size.X) / 2, (d.Height - size.Y) / 2
}

// Scale resizes src into dest at the display size
func (d *Display) Scale(src gocv.Mat, dest *gocv.Mat) {

	size, xPad, yPad := d.Layout(src.Cols(), src.Rows())

	if !d.Letterbox {
		gocv.Resize(src, dest, size, 0, 0, gocv.InterpolationLinear)
		return
	}

	gocv.Resize(src, &d.tempMat, size, 0, 0, gocv.InterpolationArea)

	gocv.CopyMakeBorder(d.tempMat, dest, yPad, d.Height-size.Y-yPad,
		xPad, d.Width-size.X-xPad, gocv.BorderConstant, d.PadColor)
}
