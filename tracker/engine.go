package tracker

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	"sort"
)

// State of the anchor tracking state machine
type State int

const (
	// NeedAnchor waits for a human to confirm which detection is the person
	NeedAnchor State = 0
	// Tracking follows the person by overlap with the live anchor
	Tracking State = 1
	// Terminated means the run was aborted by a human
	Terminated State = 2
	// Done means the run reached the end frame
	Done State = 3
)

// String returns the state name
func (s State) String() string {
	switch s {
	case NeedAnchor:
		return "NeedAnchor"
	case Tracking:
		return "Tracking"
	case Terminated:
		return "Terminated"
	case Done:
		return "Done"
	}

	return "Unknown"
}

// Reasons recorded against dropped intervals
const (
	ReasonTerminated   = "terminated"
	ReasonFinalCheck   = "final check rejected"
	ReasonNoDetections = "no confirmed detections"
)

// Rules that cause the anchor to be reset
const (
	RuleAmbiguous = "ambiguous"
	RuleDrift     = "drift"
)

// ErrInvalidRange is returned when the requested frame range is empty
var ErrInvalidRange = errors.New("invalid frame range")

// Proposals is the pool of unassigned detections the engine reads from
type Proposals interface {
	// HasFrame returns true if the pool has detections on the frame
	HasFrame(frameID int) bool
	// At returns the detections on the frame sorted by xmin
	At(frameID int) []Detection
}

// Cropper renders the prompt image for a box on a frame
type Cropper interface {
	HeadCrop(frameID int, box Box) (gocv.Mat, error)
}

// Params defines the tracking thresholds
type Params struct {
	// SkipPrev is the number of frames before a failed anchor setup frame
	// added to the skip window
	SkipPrev int
	// SkipFollow is the number of frames after a failed anchor setup frame
	// added to the skip window
	SkipFollow int
	// OverlapUpper is the overlap with the anchor needed to follow a
	// detection without asking
	OverlapUpper float64
	// OverlapLower is the overlap under which a detection is considered
	// not to be the person
	OverlapLower float64
}

// DefaultParams returns the default tracking thresholds
func DefaultParams() Params {
	return Params{
		SkipPrev:     1,
		SkipFollow:   1,
		OverlapUpper: 0.60,
		OverlapLower: 0.2,
	}
}

// Validate checks the thresholds are usable
func (p Params) Validate() error {
	if p.SkipPrev < 0 || p.SkipFollow < 0 {
		return errors.Errorf("skip frames must not be negative, got prev=%d follow=%d",
			p.SkipPrev, p.SkipFollow)
	}

	if p.OverlapLower < 0 || p.OverlapUpper > 1 || p.OverlapLower > p.OverlapUpper {
		return errors.Errorf("overlap thresholds must satisfy 0 <= lower <= upper <= 1, got lower=%.2f upper=%.2f",
			p.OverlapLower, p.OverlapUpper)
	}

	return nil
}

// Engine tracks a single person across a frame range using a human
// confirmed anchor box
type Engine struct {
	params    Params
	proposals Proposals
	cropper   Cropper
	oracle    Oracle
	log       *logrus.Entry
	// progress is called each time the current frame advances
	progress func(frame int)
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger used for diagnostics
func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithProgress sets a callback receiving the current frame as it advances
func WithProgress(fn func(frame int)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// NewEngine returns a tracking engine reading from the given proposals
func NewEngine(params Params, proposals Proposals, cropper Cropper,
	oracle Oracle, opts ...Option) *Engine {

	e := &Engine{
		params:    params,
		proposals: proposals,
		cropper:   cropper,
		oracle:    oracle,
		log:       logrus.NewEntry(logrus.StandardLogger()),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Result of a tracking run
type Result struct {
	RunID    string
	PersonID string
	Start    int
	End      int
	// State is Done when a Track was produced, otherwise Terminated
	State State
	// Track is the interpolated track, nil when the run was dropped
	Track Track
	// Skipped lists the frames of the skip window
	Skipped []int
	// Dropped is set when the run was abandoned
	Dropped *DroppedInterval
	// Resets counts the automatic anchor resets during tracking
	Resets int
}

// run holds the state of a single tracking run
type run struct {
	*Engine
	log    *logrus.Entry
	id     string
	person string
	start  int
	end    int
	state  State
	// f is the current frame
	f int
	// anchor is the last box confirmed to be the person
	anchor Box
	// confusing is the last box rejected during anchor setup
	confusing *Box
	skip      *SkipWindow
	// assigned holds the detection box given to the person per frame
	assigned map[int]Box
	resets   int
}

// candidate is a detection scored against the anchor
type candidate struct {
	det       Detection
	overlap   float64
	confusion float64
}

// Run tracks personID over the frames [start, end).  A run ending in
// termination or a rejected final check returns a Result with Dropped set
// and no Track.  Errors are only returned for invalid input, frame read
// failures and oracle failures
func (e *Engine) Run(personID string, start, end int) (*Result, error) {

	if start < 1 || end <= start {
		return nil, errors.Wrapf(ErrInvalidRange, "start=%d end=%d", start, end)
	}

	if err := e.params.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New().String()

	r := &run{
		Engine:   e,
		log:      e.log.WithFields(logrus.Fields{"run": id, "person": personID}),
		id:       id,
		person:   personID,
		start:    start,
		end:      end,
		state:    NeedAnchor,
		f:        start,
		skip:     NewSkipWindow(),
		assigned: make(map[int]Box),
	}

	r.log.WithFields(logrus.Fields{"start": start, "end": end}).Info("Tracking started")

	if err := r.loop(); err != nil {
		return nil, err
	}

	return r.finalize()
}

// loop drives the state machine frame by frame until the end frame is
// reached or the run is terminated
func (r *run) loop() error {

	for r.f < r.end && (r.state == NeedAnchor || r.state == Tracking) {

		// frames without any detections are passed over
		if !r.proposals.HasFrame(r.f) {
			r.advance(r.f + 1)
			continue
		}

		switch r.state {
		case NeedAnchor:
			if err := r.setupAnchor(); err != nil {
				return err
			}

		case Tracking:
			r.follow()
		}
	}

	return nil
}

// advance moves the current frame forward
func (r *run) advance(f int) {
	r.f = f

	if r.progress != nil {
		r.progress(f)
	}
}

// ask shows the box on its frame to the oracle
func (r *run) ask(frameID int, box Box, stage string) (Decision, error) {

	img, err := r.cropper.HeadCrop(frameID, box)

	if err != nil {
		return 0, errors.Wrapf(err, "rendering prompt for frame %d", frameID)
	}

	defer img.Close()

	decision, err := r.oracle.Ask(img, stage, r.person)

	if err != nil {
		return 0, errors.Wrapf(err, "asking oracle at frame %d", frameID)
	}

	if !decision.Valid() {
		return 0, errors.Wrapf(ErrUnknownDecision, "oracle returned %d at frame %d",
			int(decision), frameID)
	}

	return decision, nil
}

// setupAnchor asks the human to pick the person among the detections on the
// current frame
func (r *run) setupAnchor() error {

	f := r.f

scan:
	for _, det := range r.proposals.At(f) {

		decision, err := r.ask(f, det.Box, StageAnchorSetup)

		if err != nil {
			return err
		}

		switch decision {
		case Confirm:
			r.anchor = det.Box
			r.assigned[f] = det.Box
			r.state = Tracking
			r.log.WithField("frame", f).Debug("Anchor confirmed")
			r.advance(f + 1)
			return nil

		case Reject:
			box := det.Box
			r.confusing = &box

		case Skip:
			break scan

		case Terminate:
			r.state = Terminated
			r.log.WithField("frame", f).Warn("Tracking terminated during anchor setup")
			return nil
		}
	}

	// no detection could be set as the anchor, skip a window of frames
	// around the current one and try again at its end
	lo := max(1, f-r.params.SkipPrev)
	hi := min(f+r.params.SkipFollow, r.end)
	r.skip.Add(lo, hi)

	r.log.WithFields(logrus.Fields{"frame": f, "from": lo, "to": hi}).
		Info("No anchor set, skipping frames")

	next := hi

	if next <= f {
		next = f + 1
	}

	r.advance(next)

	return nil
}

// follow matches the detections on the current frame against the anchor
func (r *run) follow() {

	f := r.f
	dets := r.proposals.At(f)

	if len(dets) == 0 {
		r.advance(f + 1)
		return
	}

	cands := make([]candidate, len(dets))

	for i, det := range dets {
		cands[i] = candidate{
			det:     det,
			overlap: Overlap(det.Box, r.anchor),
		}

		if r.confusing != nil {
			cands[i].confusion = Overlap(det.Box, *r.confusing)
		}
	}

	// rank ascending so ties resolve to the later detection in x order
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].overlap < cands[j].overlap
	})

	best := cands[len(cands)-1]
	lower := r.params.OverlapLower

	// the person is not visible on this frame
	if best.overlap <= lower {
		r.advance(f + 1)
		return
	}

	// a second head close to the anchor that is not explained by the
	// rejected box
	if len(cands) > 1 {
		second := cands[len(cands)-2]

		if second.overlap >= lower && second.confusion < lower {
			r.reset(RuleAmbiguous, best, second)
			return
		}
	}

	// the head moved or changed too much since the anchor
	if best.overlap < r.params.OverlapUpper {
		r.reset(RuleDrift, best, candidate{})
		return
	}

	r.anchor = best.det.Box
	r.assigned[f] = best.det.Box
	r.advance(f + 1)
}

// reset returns to anchor setup on the current frame
func (r *run) reset(rule string, best, second candidate) {
	r.state = NeedAnchor
	r.resets++

	fields := logrus.Fields{
		"frame":   r.f,
		"rule":    rule,
		"overlap": best.overlap,
		"iou":     best.det.Box.IoU(r.anchor),
	}

	if rule == RuleAmbiguous {
		fields["second"] = second.overlap
		fields["confusion"] = second.confusion
	}

	r.log.WithFields(fields).Info("Reset anchor")
}

// finalize interpolates the assigned boxes and asks for a final confirmation
func (r *run) finalize() (*Result, error) {

	res := &Result{
		RunID:    r.id,
		PersonID: r.person,
		Start:    r.start,
		End:      r.end,
		Skipped:  r.skip.Frames(),
		Resets:   r.resets,
	}

	if r.state == Terminated {
		return r.drop(res, ReasonTerminated), nil
	}

	frames := make([]int, 0, r.end-r.start)

	for f := r.start; f < r.end; f++ {
		if !r.skip.Contains(f) {
			frames = append(frames, f)
		}
	}

	known := 0

	for _, f := range frames {
		if _, ok := r.assigned[f]; ok {
			known++
		}
	}

	if known == 0 {
		return r.drop(res, ReasonNoDetections), nil
	}

	track, err := Interpolate(frames, r.assigned, r.person)

	if err != nil {
		return nil, errors.Wrap(err, "interpolating track")
	}

	last, _ := track.Last()

	decision, err := r.ask(last.FrameID, last.Box, StageFinalCheck)

	if err != nil {
		return nil, err
	}

	if decision == Reject || decision == Terminate {
		r.state = Terminated
		return r.drop(res, ReasonFinalCheck), nil
	}

	r.state = Done
	res.State = Done
	res.Track = track

	r.log.WithFields(logrus.Fields{
		"rows":     len(track),
		"observed": len(track.Observed()),
		"skipped":  r.skip.Len(),
		"resets":   r.resets,
	}).Info("Tracking finished")

	return res, nil
}

// drop abandons the run and records the dropped interval
func (r *run) drop(res *Result, reason string) *Result {

	res.State = Terminated
	res.Dropped = &DroppedInterval{
		Start:    r.start,
		End:      r.end,
		PersonID: r.person,
		Reason:   reason,
		RunID:    r.id,
	}

	r.log.WithFields(logrus.Fields{
		"start":  r.start,
		"end":    r.end,
		"reason": reason,
	}).Warn("Tracked data is dropped")

	return res
}
