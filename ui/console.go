package ui

import (
	"bufio"
	"fmt"
	"github.com/pkg/errors"
	"github.com/swdee/go-headtrack/tracker"
	"gocv.io/x/gocv"
	"io"
	"path/filepath"
	"strings"
)

// Console is an Oracle for terminals without a display.  The prompt image
// is written to a JPEG file and the answer is read as a line of text
type Console struct {
	in  *bufio.Reader
	out io.Writer
	// ImageFile is where the prompt image is written
	ImageFile string
}

// NewConsole returns a console oracle writing prompt images into dir
func NewConsole(in io.Reader, out io.Writer, dir string) *Console {
	return &Console{
		in:        bufio.NewReader(in),
		out:       out,
		ImageFile: filepath.Join(dir, "prompt.jpg"),
	}
}

// Ask writes the prompt image and reads answers until a valid decision is
// given
func (c *Console) Ask(img gocv.Mat, stage string, person string) (tracker.Decision, error) {

	if !img.Empty() {
		if ok := gocv.IMWrite(c.ImageFile, img); !ok {
			return 0, errors.Errorf("failed to write prompt image %s", c.ImageFile)
		}

		fmt.Fprintf(c.out, "See %s\n", c.ImageFile)
	}

	for {
		fmt.Fprintf(c.out, "[%s] %s%s? (%s): ", stage, question, person, keyHelp)

		line, err := c.in.ReadString('\n')

		if strings.TrimSpace(line) != "" {
			decision, perr := tracker.ParseDecision(line)

			if perr == nil {
				return decision, nil
			}

			fmt.Fprintf(c.out, "%v\n", perr)
		}

		if err == io.EOF {
			return 0, errors.New("input closed before an answer was given")
		}

		if err != nil {
			return 0, errors.Wrap(err, "reading answer")
		}
	}
}
