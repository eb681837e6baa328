package headtrack

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/swdee/go-headtrack/frames"
	"github.com/swdee/go-headtrack/tracker"
	"github.com/vmihailenco/msgpack/v5"
	"os"
	"path/filepath"
)

// snapshotVersion is bumped whenever the snapshot layout changes
const snapshotVersion = 1

// snapshot is the persisted state of a session
type snapshot struct {
	Version   int                        `msgpack:"version"`
	FrameDir  string                     `msgpack:"frame_dir"`
	Proposals []tracker.Detection        `msgpack:"proposals"`
	Tracks    map[string][]tracker.Track `msgpack:"tracks"`
	Dropped   []tracker.DroppedInterval  `msgpack:"dropped"`
}

// Save writes the remaining detections, the committed tracks and the
// dropped intervals to file so the session can be resumed with Restore
func (s *Session) Save(file string) error {

	if s.pool == nil {
		s.log.Error("No information stored, nothing to save")
		return ErrNotLoaded
	}

	tracks, dropped := s.registry.snapshot()

	data, err := msgpack.Marshal(&snapshot{
		Version:   snapshotVersion,
		FrameDir:  s.frameDir,
		Proposals: s.pool.All(),
		Tracks:    tracks,
		Dropped:   dropped,
	})

	if err != nil {
		return errors.Wrap(err, "encoding session snapshot")
	}

	// write then rename so an existing snapshot is replaced atomically
	tmp := file + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "writing session snapshot")
	}

	if err := os.Rename(tmp, file); err != nil {
		return errors.Wrap(err, "writing session snapshot")
	}

	s.log.WithFields(logrus.Fields{
		"file":   filepath.Base(file),
		"people": len(tracks),
	}).Info("Session saved")

	return nil
}

// Restore loads a snapshot written by Save replacing the detections,
// tracks and dropped intervals of the session.  Frames are read from the
// snapshot frame directory unless frameDir is given
func (s *Session) Restore(file, frameDir string) error {

	data, err := os.ReadFile(file)

	if err != nil {
		return errors.Wrap(err, "reading session snapshot")
	}

	var snap snapshot

	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return errors.Wrap(err, "decoding session snapshot")
	}

	if snap.Version != snapshotVersion {
		return errors.Errorf("unsupported snapshot version %d", snap.Version)
	}

	if frameDir == "" {
		frameDir = snap.FrameDir
	}

	s.SetProposals(snap.Proposals)
	s.SetSource(frames.NewLocal(frameDir))
	s.frameDir = frameDir
	s.registry.restore(snap.Tracks, snap.Dropped)

	s.log.WithFields(logrus.Fields{
		"detections": s.pool.Len(),
		"people":     len(snap.Tracks),
		"dropped":    len(snap.Dropped),
	}).Info("Session restored")

	return nil
}
