package frames

import (
	"github.com/pkg/errors"
	"github.com/swdee/go-headtrack/preprocess"
	"github.com/swdee/go-headtrack/render"
	"github.com/swdee/go-headtrack/tracker"
	"gocv.io/x/gocv"
	"sync"
)

// Provider renders prompt images of head boxes on frames from a Source
type Provider struct {
	source  Source
	style   render.BoxStyle
	display *preprocess.Display
	sync.Mutex
}

// NewProvider returns a Provider drawing boxes in the given style and scaling
// prompt images with display
func NewProvider(source Source, style render.BoxStyle, display *preprocess.Display) *Provider {
	return &Provider{
		source:  source,
		style:   style,
		display: display,
	}
}

// HeadCrop draws the margin expanded box on the whole frame and scales the
// result to the display size.  The caller must Close the returned Mat
func (p *Provider) HeadCrop(frameID int, box tracker.Box) (gocv.Mat, error) {

	frame, err := p.source.Frame(frameID)

	if err != nil {
		return gocv.Mat{}, err
	}

	defer frame.Close()

	if frame.Empty() {
		return gocv.Mat{}, errors.Wrapf(ErrFrameNotFound, "frame %d is empty", frameID)
	}

	render.HeadBox(&frame, box.Pixels(frame.Cols(), frame.Rows()), p.style)

	p.Lock()
	defer p.Unlock()

	out := gocv.NewMat()
	p.display.Scale(frame, &out)

	return out, nil
}

// Close frees the display scaling buffers
func (p *Provider) Close() error {
	return p.display.Close()
}
