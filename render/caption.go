package render

import (
	"fmt"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"image"
	"image/color"
	"image/draw"
)

// Segment is a run of caption text drawn in one color
type Segment struct {
	Text  string
	Color color.RGBA
	// Bold selects the bold type face
	Bold bool
}

// Line is a single caption line made of segments
type Line []Segment

// Caption renders text lines on a panel attached below an image
type Caption struct {
	// regular and bold type faces
	regular font.Face
	bold    font.Face
	// lineHeight is the height of each text line in pixels
	lineHeight int
	// ascent is the distance from the top of a line to its baseline
	ascent int
	// pad is the padding around the text
	pad int
}

// NewCaption loads the Go fonts at the given point size
func NewCaption(size float64) (*Caption, error) {

	regular, err := newFace(goregular.TTF, size)

	if err != nil {
		return nil, err
	}

	bold, err := newFace(gobold.TTF, size)

	if err != nil {
		regular.Close()
		return nil, err
	}

	metrics := regular.Metrics()

	return &Caption{
		regular:    regular,
		bold:       bold,
		lineHeight: metrics.Height.Ceil(),
		ascent:     metrics.Ascent.Ceil(),
		pad:        6,
	}, nil
}

// newFace parses TTF font data and creates a type face
func newFace(ttf []byte, size float64) (font.Face, error) {

	f, err := opentype.Parse(ttf)

	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create type face: %w", err)
	}

	return face, nil
}

// Close frees the type faces
func (c *Caption) Close() error {
	c.regular.Close()
	return c.bold.Close()
}

// PanelHeight returns the height in pixels of a panel with n lines
func (c *Caption) PanelHeight(n int) int {
	return n*c.lineHeight + 2*c.pad
}

// Panel draws the lines on a white panel of the given width
func (c *Caption) Panel(width int, lines []Line) *image.RGBA {

	rgba := image.NewRGBA(image.Rect(0, 0, width, c.PanelHeight(len(lines))))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(White), image.Point{}, draw.Src)

	for i, line := range lines {

		dr := &font.Drawer{
			Dst: rgba,
			Dot: fixed.P(c.pad, c.pad+i*c.lineHeight+c.ascent),
		}

		for _, seg := range line {
			dr.Face = c.regular

			if seg.Bold {
				dr.Face = c.bold
			}

			dr.Src = image.NewUniform(seg.Color)
			dr.DrawString(seg.Text)
		}
	}

	return rgba
}

// Attach returns a new Mat with the caption panel stacked below the image.
// The image must be a 3 channel BGR Mat
func (c *Caption) Attach(img gocv.Mat, lines []Line) (gocv.Mat, error) {

	panel, err := gocv.ImageToMatRGB(c.Panel(img.Cols(), lines))

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error converting caption panel: %w", err)
	}

	defer panel.Close()

	out := gocv.NewMat()

	if img.Empty() {
		panel.CopyTo(&out)
		return out, nil
	}

	gocv.Vconcat(img, panel, &out)

	return out, nil
}
