package headtrack

import (
	"github.com/swdee/go-headtrack/tracker"
	"sort"
	"sync"
)

// ProposalPool holds the detections not yet assigned to any person grouped
// by frame.  Detections within a frame are kept sorted by xmin
type ProposalPool struct {
	// byFrame holds the detections of each frame
	byFrame map[int][]tracker.Detection
	// frames is the sorted index of frames with detections
	frames []int
	sync.RWMutex
}

// NewProposalPool creates a pool loaded with the given detections
func NewProposalPool(dets []tracker.Detection) *ProposalPool {
	p := &ProposalPool{}
	p.Load(dets)
	return p
}

// Load replaces the contents of the pool with the given detections
func (p *ProposalPool) Load(dets []tracker.Detection) {
	p.Lock()
	defer p.Unlock()

	p.byFrame = make(map[int][]tracker.Detection)

	for _, det := range dets {
		// pool detections are never assigned
		if det.Assigned() {
			det.PersonID = ""
		}

		p.byFrame[det.FrameID] = append(p.byFrame[det.FrameID], det)
	}

	p.frames = make([]int, 0, len(p.byFrame))

	for f, frameDets := range p.byFrame {
		sort.SliceStable(frameDets, func(i, j int) bool {
			return frameDets[i].Box.XMin < frameDets[j].Box.XMin
		})

		p.frames = append(p.frames, f)
	}

	sort.Ints(p.frames)
}

// HasFrame returns true if the pool has detections on the frame
func (p *ProposalPool) HasFrame(frameID int) bool {
	p.RLock()
	defer p.RUnlock()

	return len(p.byFrame[frameID]) > 0
}

// At returns a copy of the detections on the frame ordered by xmin
func (p *ProposalPool) At(frameID int) []tracker.Detection {
	p.RLock()
	defer p.RUnlock()

	dets := p.byFrame[frameID]

	if len(dets) == 0 {
		return nil
	}

	out := make([]tracker.Detection, len(dets))
	copy(out, dets)

	return out
}

// Frames returns the frames with detections in the range lo <= f < hi in
// ascending order
func (p *ProposalPool) Frames(lo, hi int) []int {
	p.RLock()
	defer p.RUnlock()

	start := sort.SearchInts(p.frames, lo)
	end := sort.SearchInts(p.frames, hi)

	if start >= end {
		return nil
	}

	out := make([]int, end-start)
	copy(out, p.frames[start:end])

	return out
}

// MaxFrame returns the highest frame with detections, or 0 when empty
func (p *ProposalPool) MaxFrame() int {
	p.RLock()
	defer p.RUnlock()

	if len(p.frames) == 0 {
		return 0
	}

	return p.frames[len(p.frames)-1]
}

// Len returns the number of detections in the pool
func (p *ProposalPool) Len() int {
	p.RLock()
	defer p.RUnlock()

	n := 0

	for _, dets := range p.byFrame {
		n += len(dets)
	}

	return n
}

// All returns every detection in the pool sorted by frame then xmin
func (p *ProposalPool) All() []tracker.Detection {
	p.RLock()
	defer p.RUnlock()

	var out []tracker.Detection

	for _, f := range p.frames {
		out = append(out, p.byFrame[f]...)
	}

	return out
}

// Commit removes every detection used by the track from the pool.  Rows are
// matched on their exact frame and box, every matching detection is removed
// and interpolated rows are ignored.  The
// number of removed detections is returned
func (p *ProposalPool) Commit(track tracker.Track) int {
	p.Lock()
	defer p.Unlock()

	removed := 0

	for _, row := range track {

		if row.Interpolated {
			continue
		}

		dets := p.byFrame[row.FrameID]

		if len(dets) == 0 {
			continue
		}

		// duplicate rows of the same box are all consumed
		kept := dets[:0]

		for _, det := range dets {
			if det.Box == row.Box {
				removed++
				continue
			}

			kept = append(kept, det)
		}

		dets = kept

		if len(dets) == 0 {
			delete(p.byFrame, row.FrameID)
			p.removeFrame(row.FrameID)
			continue
		}

		p.byFrame[row.FrameID] = dets
	}

	return removed
}

// removeFrame drops the frame from the sorted frame index
func (p *ProposalPool) removeFrame(frameID int) {

	i := sort.SearchInts(p.frames, frameID)

	if i < len(p.frames) && p.frames[i] == frameID {
		p.frames = append(p.frames[:i], p.frames[i+1:]...)
	}
}
