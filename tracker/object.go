package tracker

import (
	"sort"
)

// Detection represents a single head detection proposal on a frame
type Detection struct {
	// FrameID is the 1-based frame number the detection was made on
	FrameID int `msgpack:"frame"`
	// Box is the normalized bounding box of the head
	Box Box `msgpack:"box"`
	// PersonID is the identity assigned to the detection, empty when the
	// detection has not been assigned yet
	PersonID string `msgpack:"person,omitempty"`
}

// NewDetection is a constructor function for the Detection struct
func NewDetection(frameID int, box Box) Detection {
	return Detection{
		FrameID: frameID,
		Box:     box,
	}
}

// Assigned returns true if the detection has been given a person identity
func (d Detection) Assigned() bool {
	return d.PersonID != ""
}

// Row is a single per frame record of a Track
type Row struct {
	FrameID  int    `msgpack:"frame"`
	Box      Box    `msgpack:"box"`
	PersonID string `msgpack:"person"`
	// Interpolated is set for rows filled in between known detections.  These
	// rows did not originate from a Detection in the proposal pool
	Interpolated bool `msgpack:"interp"`
}

// Track is the per frame sequence of boxes for one person over one interval
type Track []Row

// Frames returns the frame numbers of the track in order
func (t Track) Frames() []int {
	frames := make([]int, len(t))

	for i, row := range t {
		frames[i] = row.FrameID
	}

	return frames
}

// Observed returns only the rows that came from real detections
func (t Track) Observed() Track {

	var rows Track

	for _, row := range t {
		if !row.Interpolated {
			rows = append(rows, row)
		}
	}

	return rows
}

// Last returns the final row of the track
func (t Track) Last() (Row, bool) {
	if len(t) == 0 {
		return Row{}, false
	}

	return t[len(t)-1], true
}

// SortTracks concatenates the given tracks and sorts the result by frame.
// Rows on the same frame keep their relative order
func SortTracks(tracks ...Track) Track {

	var all Track

	for _, t := range tracks {
		all = append(all, t...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].FrameID < all[j].FrameID
	})

	return all
}

// DroppedInterval records a frame range whose tracking run was abandoned
type DroppedInterval struct {
	Start    int    `msgpack:"start"`
	End      int    `msgpack:"end"`
	PersonID string `msgpack:"person"`
	// Reason the interval was dropped
	Reason string `msgpack:"reason"`
	// RunID identifies the tracking run in the logs
	RunID string `msgpack:"run"`
}
