package frames

import (
	"fmt"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	"os"
	"path"
	"path/filepath"
)

// ErrFrameNotFound is returned when a frame image can not be located or
// decoded
var ErrFrameNotFound = errors.New("frame not found")

// FileName returns the image file name of a frame, the frame number zero
// padded to 6 digits
func FileName(frameID int) string {
	return fmt.Sprintf("%06d.jpg", frameID)
}

// Source resolves a frame number to its decoded image.  The caller must
// Close the returned Mat
type Source interface {
	Frame(frameID int) (gocv.Mat, error)
}

// Local reads frames from a directory on the local file system
type Local struct {
	Dir string
}

// NewLocal returns a Source reading frames from dir
func NewLocal(dir string) *Local {
	return &Local{Dir: dir}
}

// Path returns the local file path of the frame
func (l *Local) Path(frameID int) string {
	return filepath.Join(l.Dir, FileName(frameID))
}

// Frame reads and decodes the frame image
func (l *Local) Frame(frameID int) (gocv.Mat, error) {

	file := l.Path(frameID)

	// read the raw bytes and decode them so paths with non ascii
	// characters are handled the same as any other
	data, err := os.ReadFile(file)

	if err != nil {
		return gocv.Mat{}, errors.Wrapf(ErrFrameNotFound, "%s: %v", file, err)
	}

	img, err := gocv.IMDecode(data, gocv.IMReadColor)

	if err != nil {
		return gocv.Mat{}, errors.Wrapf(ErrFrameNotFound, "decoding %s: %v", file, err)
	}

	if img.Empty() {
		img.Close()
		return gocv.Mat{}, errors.Wrapf(ErrFrameNotFound, "decoding %s: empty image", file)
	}

	return img, nil
}

// Fetcher copies a file from a remote store to a local path
type Fetcher interface {
	Fetch(remotePath, localPath string) error
}

// Remote reads frames locally after first fetching them from a remote
// mirror that uses the same file naming under RemoteDir.  Frames already
// present locally are not fetched again
type Remote struct {
	local     *Local
	remoteDir string
	fetcher   Fetcher
	log       *logrus.Entry
}

// NewRemote returns a fetch then read Source
func NewRemote(local *Local, remoteDir string, fetcher Fetcher, log *logrus.Entry) *Remote {
	return &Remote{
		local:     local,
		remoteDir: remoteDir,
		fetcher:   fetcher,
		log:       log,
	}
}

// RemotePath returns the path of the frame on the remote mirror
func (r *Remote) RemotePath(frameID int) string {
	return path.Join(r.remoteDir, FileName(frameID))
}

// Frame ensures a local copy of the frame exists then reads it
func (r *Remote) Frame(frameID int) (gocv.Mat, error) {

	localPath := r.local.Path(frameID)

	if _, err := os.Stat(localPath); os.IsNotExist(err) {

		remotePath := r.RemotePath(frameID)
		r.log.WithField("path", remotePath).Debug("Downloading frame")

		if err := os.MkdirAll(r.local.Dir, 0o755); err != nil {
			return gocv.Mat{}, errors.Wrap(err, "creating local frame directory")
		}

		if err := r.fetcher.Fetch(remotePath, localPath); err != nil {
			return gocv.Mat{}, errors.Wrapf(ErrFrameNotFound, "fetching %s: %v", remotePath, err)
		}
	}

	return r.local.Frame(frameID)
}
