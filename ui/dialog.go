package ui

import (
	"github.com/pkg/errors"
	"github.com/swdee/go-headtrack/render"
	"github.com/swdee/go-headtrack/tracker"
	"gocv.io/x/gocv"
)

// key codes returned by WaitKey
const (
	keyEnter  = 13
	keyEscape = 27
)

// ErrWindowClosed is returned when the prompt window is closed before an
// answer key was pressed
var ErrWindowClosed = errors.New("prompt window closed")

// keyPollMs is how long each wait for a key press lasts before the window
// is checked again
const keyPollMs = 100

// Dialog is an Oracle showing each prompt in an OpenCV window and waiting
// for a key press.  It must be used from the main thread
type Dialog struct {
	window  *gocv.Window
	caption *render.Caption
}

// NewDialog opens the prompt window
func NewDialog(title string) (*Dialog, error) {

	caption, err := render.NewCaption(16)

	if err != nil {
		return nil, err
	}

	window := gocv.NewWindow(title)
	window.MoveWindow(50, 50)

	return &Dialog{
		window:  window,
		caption: caption,
	}, nil
}

// Ask shows the image with the question and blocks until one of the answer
// keys is pressed.  There is no timeout, closing the window returns
// ErrWindowClosed
func (d *Dialog) Ask(img gocv.Mat, stage string, person string) (tracker.Decision, error) {

	prompt, err := d.caption.Attach(img, promptLines(stage, person))

	if err != nil {
		return 0, err
	}

	defer prompt.Close()

	d.window.IMShow(prompt)

	return awaitDecision(
		func() int { return d.window.WaitKey(keyPollMs) },
		d.window.IsOpen,
	)
}

// awaitDecision polls for key presses until an answer key is pressed or the
// window is no longer open
func awaitDecision(waitKey func() int, isOpen func() bool) (tracker.Decision, error) {

	for {
		if decision, ok := keyDecision(waitKey()); ok {
			return decision, nil
		}

		if !isOpen() {
			return 0, ErrWindowClosed
		}
	}
}

// keyDecision maps a pressed key to its decision
func keyDecision(key int) (tracker.Decision, bool) {

	switch key {
	case 'y', 'Y', keyEnter:
		return tracker.Confirm, true
	case 'n', 'N':
		return tracker.Reject, true
	case 's', 'S':
		return tracker.Skip, true
	case 't', 'T', keyEscape:
		return tracker.Terminate, true
	}

	return 0, false
}

// Close closes the window and frees the fonts
func (d *Dialog) Close() error {
	d.caption.Close()
	return d.window.Close()
}
