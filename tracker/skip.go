package tracker

import (
	"sort"
)

// SkipWindow is the set of frames excluded from interpolation because no
// reliable detection could be established on them
type SkipWindow struct {
	frames map[int]struct{}
}

// NewSkipWindow returns an empty skip window
func NewSkipWindow() *SkipWindow {
	return &SkipWindow{
		frames: make(map[int]struct{}),
	}
}

// Add records every frame in the inclusive range lo..hi
func (s *SkipWindow) Add(lo, hi int) {
	for f := lo; f <= hi; f++ {
		s.frames[f] = struct{}{}
	}
}

// Contains returns true if the frame is inside the skip window
func (s *SkipWindow) Contains(frame int) bool {
	_, ok := s.frames[frame]
	return ok
}

// Len returns the number of skipped frames
func (s *SkipWindow) Len() int {
	return len(s.frames)
}

// Frames returns the skipped frames in ascending order
func (s *SkipWindow) Frames() []int {

	frames := make([]int, 0, len(s.frames))

	for f := range s.frames {
		frames = append(frames, f)
	}

	sort.Ints(frames)

	return frames
}
