package tracker

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
	"io"
	"testing"
)

// testPool is an in memory Proposals of detections per frame given in
// xmin order
type testPool map[int][]Detection

// newTestPool builds a pool from boxes per frame
func newTestPool(frames map[int][]Box) testPool {

	p := make(testPool)

	for f, boxes := range frames {
		for _, box := range boxes {
			p[f] = append(p[f], NewDetection(f, box))
		}
	}

	return p
}

func (p testPool) HasFrame(frameID int) bool {
	return len(p[frameID]) > 0
}

func (p testPool) At(frameID int) []Detection {
	return p[frameID]
}

var errMissingFrame = errors.New("missing frame")

// fakeCropper records the frames prompts were rendered for
type fakeCropper struct {
	frames  []int
	missing map[int]bool
}

func (c *fakeCropper) HeadCrop(frameID int, box Box) (gocv.Mat, error) {
	c.frames = append(c.frames, frameID)

	if c.missing[frameID] {
		return gocv.Mat{}, errMissingFrame
	}

	return gocv.NewMat(), nil
}

// quietLogger discards log output
func quietLogger() *logrus.Entry {
	log := logrus.New()
	log.Out = io.Discard
	return logrus.NewEntry(log)
}

// newTestEngine returns an engine with the default thresholds
func newTestEngine(pool testPool, cropper *fakeCropper, oracle Oracle) *Engine {
	return NewEngine(DefaultParams(), pool, cropper, oracle, WithLogger(quietLogger()))
}

var (
	anchorBox = NewBox(0.1, 0.1, 0.2, 0.2)
	farBox    = NewBox(0.7, 0.7, 0.8, 0.8)
)

func TestRunSteadyTrack(t *testing.T) {

	pool := newTestPool(map[int][]Box{
		1: {anchorBox}, 2: {anchorBox}, 3: {anchorBox}, 4: {anchorBox}, 5: {anchorBox},
	})
	cropper := &fakeCropper{}
	oracle := NewScriptedOracle(Confirm, Confirm)

	var progress []int
	e := NewEngine(Params{SkipPrev: 1, SkipFollow: 1, OverlapUpper: 0.6, OverlapLower: 0.2},
		pool, cropper, oracle, WithLogger(quietLogger()),
		WithProgress(func(f int) { progress = append(progress, f) }))

	res, err := e.Run("alice", 1, 6)
	require.NoError(t, err)

	require.Equal(t, Done, res.State)
	require.Nil(t, res.Dropped)
	require.Empty(t, res.Skipped)
	require.Equal(t, 0, res.Resets)
	require.NotEmpty(t, res.RunID)
	require.Len(t, res.Track, 5)

	for i, row := range res.Track {
		require.Equal(t, i+1, row.FrameID)
		require.Equal(t, "alice", row.PersonID)
		require.Equal(t, anchorBox, row.Box)
		require.False(t, row.Interpolated)
	}

	require.Equal(t, []Prompt{
		{Stage: StageAnchorSetup, Person: "alice"},
		{Stage: StageFinalCheck, Person: "alice"},
	}, oracle.Prompts())

	// the final check is shown on the last frame of the track
	require.Equal(t, []int{1, 5}, cropper.frames)
	require.Equal(t, []int{2, 3, 4, 5, 6}, progress)
}

func TestRunInterpolatesMissingFrame(t *testing.T) {

	boxes := map[int]Box{
		1: NewBox(0.10, 0.10, 0.20, 0.20),
		2: NewBox(0.11, 0.10, 0.21, 0.20),
		4: NewBox(0.13, 0.10, 0.23, 0.20),
		5: NewBox(0.14, 0.10, 0.24, 0.20),
	}

	frames := make(map[int][]Box)
	for f, b := range boxes {
		frames[f] = []Box{b}
	}

	res, err := newTestEngine(newTestPool(frames), &fakeCropper{},
		NewScriptedOracle(Confirm, Confirm)).Run("p1", 1, 6)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4, 5}, res.Track.Frames())

	gap := res.Track[2]
	require.True(t, gap.Interpolated)
	requireBox(t, NewBox(0.12, 0.10, 0.22, 0.20), gap.Box)

	for _, f := range []int{1, 2, 4, 5} {
		require.Equal(t, boxes[f], res.Track[f-1].Box)
		require.False(t, res.Track[f-1].Interpolated)
	}
}

func TestRunTargetNotPresent(t *testing.T) {

	// frame 2 only has a far away head so the person is not assigned there
	pool := newTestPool(map[int][]Box{
		1: {anchorBox}, 2: {farBox}, 3: {anchorBox},
	})

	res, err := newTestEngine(pool, &fakeCropper{},
		NewScriptedOracle(Confirm, Confirm)).Run("p1", 1, 4)
	require.NoError(t, err)
	require.Equal(t, 0, res.Resets)
	require.Len(t, res.Track, 3)
	require.True(t, res.Track[1].Interpolated)
	requireBox(t, anchorBox, res.Track[1].Box)
}

func TestRunAmbiguousResetsOnSameFrame(t *testing.T) {

	target := NewBox(0.20, 0.1, 0.30, 0.2)
	// half covers the target and is rejected during anchor setup
	distractor := NewBox(0.15, 0.1, 0.25, 0.2)
	// half covers the target without overlapping the rejected box
	newcomer := NewBox(0.25, 0.1, 0.35, 0.2)

	pool := newTestPool(map[int][]Box{
		1: {distractor, target},
		2: {distractor, target},
		3: {target},
		4: {target, newcomer},
		5: {target},
	})
	cropper := &fakeCropper{}
	oracle := NewScriptedOracle(Reject, Confirm, Confirm, Confirm)

	res, err := newTestEngine(pool, cropper, oracle).Run("p1", 1, 6)
	require.NoError(t, err)

	// frame 2 is explained by the rejected box, frame 4 is not and is
	// asked again without moving on to frame 5
	require.Equal(t, 1, res.Resets)
	require.Equal(t, []int{1, 1, 4, 5}, cropper.frames)
	require.Equal(t, []Prompt{
		{Stage: StageAnchorSetup, Person: "p1"},
		{Stage: StageAnchorSetup, Person: "p1"},
		{Stage: StageAnchorSetup, Person: "p1"},
		{Stage: StageFinalCheck, Person: "p1"},
	}, oracle.Prompts())

	require.Len(t, res.Track, 5)

	for _, row := range res.Track {
		require.Equal(t, target, row.Box)
		require.False(t, row.Interpolated)
	}
}

func TestRunDriftResets(t *testing.T) {

	moved := NewBox(0.16, 0.1, 0.26, 0.2)

	pool := newTestPool(map[int][]Box{
		1: {anchorBox}, 2: {moved}, 3: {moved},
	})
	cropper := &fakeCropper{}

	res, err := newTestEngine(pool, cropper,
		NewScriptedOracle(Confirm, Confirm, Confirm)).Run("p1", 1, 4)
	require.NoError(t, err)

	require.Equal(t, 1, res.Resets)
	require.Equal(t, []int{1, 2, 3}, cropper.frames)
	require.Equal(t, moved, res.Track[1].Box)
	require.Equal(t, moved, res.Track[2].Box)
}

func TestRunResetDiagnostic(t *testing.T) {

	moved := NewBox(0.16, 0.1, 0.26, 0.2)

	pool := newTestPool(map[int][]Box{
		1: {anchorBox}, 2: {moved},
	})

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	e := NewEngine(DefaultParams(), pool, &fakeCropper{},
		NewScriptedOracle(Confirm, Confirm, Confirm), WithLogger(logrus.NewEntry(log)))

	_, err := e.Run("p1", 1, 3)
	require.NoError(t, err)

	var resets []*logrus.Entry

	for _, entry := range hook.AllEntries() {
		if entry.Message == "Reset anchor" {
			resets = append(resets, entry)
		}
	}

	require.Len(t, resets, 1)
	require.Equal(t, 2, resets[0].Data["frame"])
	require.Equal(t, RuleDrift, resets[0].Data["rule"])
	require.InDelta(t, 0.4, resets[0].Data["overlap"].(float64), 1e-9)
	require.InDelta(t, 0.25, resets[0].Data["iou"].(float64), 1e-9)

	last := hook.LastEntry()
	require.Equal(t, "Tracking finished", last.Message)
	require.Equal(t, 2, last.Data["observed"])
	require.Equal(t, 0, last.Data["skipped"])
}

func TestRunSkipWindow(t *testing.T) {

	pool := newTestPool(map[int][]Box{
		1: {anchorBox}, 2: {anchorBox}, 3: {anchorBox}, 4: {anchorBox}, 5: {anchorBox},
	})
	cropper := &fakeCropper{}

	// skip frame 1, the anchor is then set at the end of the skip window
	res, err := newTestEngine(pool, cropper,
		NewScriptedOracle(Skip, Confirm, Confirm)).Run("p1", 1, 6)
	require.NoError(t, err)

	require.Equal(t, []int{1, 2}, res.Skipped)
	require.Equal(t, []int{1, 2, 5}, cropper.frames)

	// the track covers the range minus the skip window
	require.Equal(t, []int{3, 4, 5}, res.Track.Frames())

	for _, row := range res.Track {
		require.Equal(t, anchorBox, row.Box)
	}
}

func TestRunRejectAllSkips(t *testing.T) {

	pool := newTestPool(map[int][]Box{
		3: {anchorBox, farBox},
		4: {anchorBox},
		5: {anchorBox},
		6: {anchorBox},
	})
	cropper := &fakeCropper{}

	res, err := newTestEngine(pool, cropper,
		NewScriptedOracle(Reject, Reject, Confirm, Confirm)).Run("p1", 2, 7)
	require.NoError(t, err)

	// both heads on frame 3 rejected, frames 2..4 skipped and the anchor
	// is asked again on frame 4
	require.Equal(t, []int{2, 3, 4}, res.Skipped)
	require.Equal(t, []int{3, 3, 4, 6}, cropper.frames)
	require.Equal(t, []int{5, 6}, res.Track.Frames())
}

func TestRunTerminateDuringAnchorSetup(t *testing.T) {

	pool := newTestPool(map[int][]Box{
		1: {anchorBox, farBox}, 2: {anchorBox},
	})
	oracle := NewScriptedOracle(Reject, Terminate)

	res, err := newTestEngine(pool, &fakeCropper{}, oracle).Run("p1", 1, 3)
	require.NoError(t, err)

	require.Equal(t, Terminated, res.State)
	require.Nil(t, res.Track)
	require.NotNil(t, res.Dropped)
	require.Equal(t, 1, res.Dropped.Start)
	require.Equal(t, 3, res.Dropped.End)
	require.Equal(t, "p1", res.Dropped.PersonID)
	require.Equal(t, ReasonTerminated, res.Dropped.Reason)
	require.Equal(t, res.RunID, res.Dropped.RunID)

	// no final check after termination
	require.Len(t, oracle.Prompts(), 2)
}

func TestRunTerminateAfterReset(t *testing.T) {

	moved := NewBox(0.16, 0.1, 0.26, 0.2)

	pool := newTestPool(map[int][]Box{
		1: {anchorBox}, 2: {moved},
	})

	res, err := newTestEngine(pool, &fakeCropper{},
		NewScriptedOracle(Confirm, Terminate)).Run("p1", 1, 3)
	require.NoError(t, err)
	require.Equal(t, Terminated, res.State)
	require.Equal(t, ReasonTerminated, res.Dropped.Reason)
}

func TestRunFinalCheck(t *testing.T) {

	tests := []struct {
		name    string
		final   Decision
		dropped bool
	}{
		{"confirm keeps", Confirm, false},
		{"skip keeps", Skip, false},
		{"reject drops", Reject, true},
		{"terminate drops", Terminate, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			pool := newTestPool(map[int][]Box{1: {anchorBox}, 2: {anchorBox}})

			res, err := newTestEngine(pool, &fakeCropper{},
				NewScriptedOracle(Confirm, tc.final)).Run("p1", 1, 3)
			require.NoError(t, err)

			if tc.dropped {
				require.Nil(t, res.Track)
				require.Equal(t, Terminated, res.State)
				require.Equal(t, DroppedInterval{Start: 1, End: 3, PersonID: "p1",
					Reason: ReasonFinalCheck, RunID: res.RunID}, *res.Dropped)
				return
			}

			require.Nil(t, res.Dropped)
			require.Equal(t, Done, res.State)
			require.Len(t, res.Track, 2)
		})
	}
}

func TestRunNoConfirmedDetections(t *testing.T) {

	pool := newTestPool(map[int][]Box{1: {anchorBox}, 4: {anchorBox}})
	oracle := NewScriptedOracle(Skip, Skip)

	res, err := newTestEngine(pool, &fakeCropper{}, oracle).Run("p1", 1, 6)
	require.NoError(t, err)

	require.Nil(t, res.Track)
	require.Equal(t, ReasonNoDetections, res.Dropped.Reason)
	require.Len(t, oracle.Prompts(), 2)
}

func TestRunDeterministicAnchor(t *testing.T) {

	pool := newTestPool(map[int][]Box{3: {anchorBox}})

	for i := 0; i < 2; i++ {
		oracle := NewScriptedOracle()
		oracle.Fallback = Confirm

		res, err := newTestEngine(pool, &fakeCropper{}, oracle).Run("p1", 3, 4)
		require.NoError(t, err)
		require.Len(t, res.Track, 1)
		require.Equal(t, anchorBox, res.Track[0].Box)
	}
}

func TestRunMissingFrame(t *testing.T) {

	pool := newTestPool(map[int][]Box{1: {anchorBox}})
	cropper := &fakeCropper{missing: map[int]bool{1: true}}

	_, err := newTestEngine(pool, cropper, NewScriptedOracle(Confirm)).Run("p1", 1, 2)
	require.True(t, errors.Is(err, errMissingFrame))
}

func TestRunInvalidDecision(t *testing.T) {

	pool := newTestPool(map[int][]Box{1: {anchorBox}})
	oracle := OracleFunc(func(img gocv.Mat, stage, person string) (Decision, error) {
		return Decision(42), nil
	})

	_, err := newTestEngine(pool, &fakeCropper{}, oracle).Run("p1", 1, 2)
	require.True(t, errors.Is(err, ErrUnknownDecision))
}

func TestRunInvalidInput(t *testing.T) {

	pool := newTestPool(map[int][]Box{1: {anchorBox}})
	e := newTestEngine(pool, &fakeCropper{}, NewScriptedOracle())

	_, err := e.Run("p1", 5, 5)
	require.True(t, errors.Is(err, ErrInvalidRange))

	_, err = e.Run("p1", 0, 5)
	require.True(t, errors.Is(err, ErrInvalidRange))

	bad := NewEngine(Params{OverlapUpper: 0.2, OverlapLower: 0.6}, pool,
		&fakeCropper{}, NewScriptedOracle(), WithLogger(quietLogger()))

	_, err = bad.Run("p1", 1, 2)
	require.Error(t, err)
}
