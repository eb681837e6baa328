package headtrack

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/swdee/go-headtrack/frames"
	"github.com/swdee/go-headtrack/preprocess"
	"github.com/swdee/go-headtrack/render"
	"github.com/swdee/go-headtrack/tracker"
)

// ErrNotLoaded is returned when tracking is requested before detections
// and frames have been loaded
var ErrNotLoaded = errors.New("no detections loaded")

// Session tracks people one at a time over a shared pool of detections and
// keeps the resulting tracks
type Session struct {
	cfg      Config
	pool     *ProposalPool
	registry *Registry
	oracle   tracker.Oracle
	log      *logrus.Entry
	// frameDir is the local frame directory given to Load
	frameDir string
	// source is the frame source, nil until loaded
	source frames.Source
	// cropper renders prompt images, built from source unless set
	cropper  tracker.Cropper
	provider *frames.Provider
	progress func(frame int)
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithSessionLogger sets the logger of the session
func WithSessionLogger(log *logrus.Entry) SessionOption {
	return func(s *Session) {
		s.log = log
	}
}

// WithCropper sets the prompt image renderer used instead of the frame
// provider
func WithCropper(cropper tracker.Cropper) SessionOption {
	return func(s *Session) {
		s.cropper = cropper
	}
}

// WithFrameProgress sets a callback receiving the current frame of a
// tracking run as it advances
func WithFrameProgress(fn func(frame int)) SessionOption {
	return func(s *Session) {
		s.progress = fn
	}
}

// NewSession returns an empty session asking the given oracle
func NewSession(cfg Config, oracle tracker.Oracle, opts ...SessionOption) *Session {

	s := &Session{
		cfg:    cfg,
		oracle: oracle,
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registry = NewRegistry(s.log)

	return s
}

// Load reads the raw detection file and sets the local frame directory
func (s *Session) Load(detectionFile, frameDir string) error {

	dets, err := LoadDetections(detectionFile)

	if err != nil {
		return err
	}

	s.SetProposals(dets)
	s.SetSource(frames.NewLocal(frameDir))
	s.frameDir = frameDir

	s.log.WithFields(logrus.Fields{
		"detections": len(dets),
		"frames":     s.pool.MaxFrame(),
	}).Info("Loaded detections")

	return nil
}

// SetProposals replaces the detection pool
func (s *Session) SetProposals(dets []tracker.Detection) {
	s.pool = NewProposalPool(dets)
}

// SetSource sets where frame images are read from
func (s *Session) SetSource(source frames.Source) {

	if s.provider != nil {
		s.provider.Close()
	}

	s.source = source
	s.provider = frames.NewProvider(source,
		render.BoxStyle{
			Margin:        s.cfg.Margin,
			Color:         render.Green,
			LineThickness: 2,
		},
		preprocess.NewDisplay(s.cfg.DisplayWidth, s.cfg.DisplayHeight, s.cfg.Letterbox),
	)
}

// SetRemote makes frames be fetched from remoteDir with the fetcher when they
// are missing from the local frame directory
func (s *Session) SetRemote(remoteDir string, fetcher frames.Fetcher) error {

	if s.frameDir == "" {
		s.log.Error("No information stored, call Load before SetRemote")
		return ErrNotLoaded
	}

	s.SetSource(frames.NewRemote(frames.NewLocal(s.frameDir), remoteDir, fetcher, s.log))

	return nil
}

// Pool returns the pool of unassigned detections
func (s *Session) Pool() *ProposalPool {
	return s.pool
}

// promptCropper returns the renderer for prompt images
func (s *Session) promptCropper() tracker.Cropper {
	if s.cropper != nil {
		return s.cropper
	}

	if s.provider != nil {
		return s.provider
	}

	return nil
}

// TrackPerson runs the tracking engine for the person over the frames
// [start, end).  A negative end tracks through the last frame with
// detections.  On success the track is registered and its detections are
// removed from the pool.  A dropped run is recorded and returned without an
// error
func (s *Session) TrackPerson(personID string, start, end int) (*tracker.Result, error) {

	cropper := s.promptCropper()

	if s.pool == nil || cropper == nil {
		s.log.Error("No information stored, call Load before tracking")
		return nil, ErrNotLoaded
	}

	if end < 0 {
		end = s.pool.MaxFrame() + 1
	}

	engine := tracker.NewEngine(s.cfg.Tracking, s.pool, cropper, s.oracle,
		tracker.WithLogger(s.log),
		tracker.WithProgress(s.progress),
	)

	res, err := engine.Run(personID, start, end)

	if err != nil {
		return nil, errors.Wrapf(err, "tracking %s", personID)
	}

	if res.Dropped != nil {
		s.registry.AddDropped(*res.Dropped)
		s.log.WithField("person", personID).Error("Tracking Failed")
		return res, nil
	}

	s.registry.Commit(personID, res.Track)
	removed := s.pool.Commit(res.Track)

	s.log.WithFields(logrus.Fields{
		"person":    personID,
		"rows":      len(res.Track),
		"consumed":  removed,
		"remaining": s.pool.Len(),
	}).Info("Track committed")

	return res, nil
}

// Person returns every tracked row of the person sorted by frame
func (s *Session) Person(personID string) (tracker.Track, error) {
	return s.registry.Person(personID)
}

// TrackedPeople returns the IDs of the people with tracks
func (s *Session) TrackedPeople() []string {
	return s.registry.People()
}

// All returns the tracked rows of every person sorted by frame
func (s *Session) All() tracker.Track {
	return s.registry.All()
}

// Dropped returns the dropped frame intervals
func (s *Session) Dropped() []tracker.DroppedInterval {
	return s.registry.Dropped()
}

// Release clears the tracks, detections and frame source.  Dropped
// intervals are kept
func (s *Session) Release() {

	_, dropped := s.registry.snapshot()
	s.registry.restore(nil, dropped)

	if s.provider != nil {
		s.provider.Close()
	}

	s.pool = nil
	s.source = nil
	s.provider = nil
	s.frameDir = ""
}

// Close frees the frame provider
func (s *Session) Close() error {
	if s.provider != nil {
		return s.provider.Close()
	}

	return nil
}
