package headtrack

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/swdee/go-headtrack/tracker"
	"sort"
	"sync"
)

// ErrUnknownPerson is returned when looking up a person with no tracks
var ErrUnknownPerson = errors.New("person not found")

// Registry accumulates the completed tracks of every person and the frame
// intervals that were dropped
type Registry struct {
	// tracks holds each committed run per person
	tracks  map[string][]tracker.Track
	dropped []tracker.DroppedInterval
	log     *logrus.Entry
	sync.RWMutex
}

// NewRegistry returns an empty registry
func NewRegistry(log *logrus.Entry) *Registry {
	return &Registry{
		tracks: make(map[string][]tracker.Track),
		log:    log,
	}
}

// Commit adds a completed track to the person
func (r *Registry) Commit(personID string, track tracker.Track) {
	r.Lock()
	defer r.Unlock()

	r.tracks[personID] = append(r.tracks[personID], track)
}

// AddDropped records a dropped interval
func (r *Registry) AddDropped(interval tracker.DroppedInterval) {
	r.Lock()
	defer r.Unlock()

	r.dropped = append(r.dropped, interval)
}

// Person returns all tracked rows of the person sorted by frame
func (r *Registry) Person(personID string) (tracker.Track, error) {
	r.RLock()
	defer r.RUnlock()

	runs, ok := r.tracks[personID]

	if !ok {
		r.log.WithFields(logrus.Fields{
			"person":  personID,
			"tracked": r.people(),
		}).Error("The specified person is not found")

		return nil, errors.Wrapf(ErrUnknownPerson, "%q", personID)
	}

	return tracker.SortTracks(runs...), nil
}

// People returns the tracked person IDs in sorted order
func (r *Registry) People() []string {
	r.RLock()
	defer r.RUnlock()

	return r.people()
}

func (r *Registry) people() []string {

	ids := make([]string, 0, len(r.tracks))

	for id := range r.tracks {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// All returns the rows of every person sorted by frame.  Rows on the same
// frame are ordered by person ID
func (r *Registry) All() tracker.Track {
	r.RLock()
	defer r.RUnlock()

	var runs []tracker.Track

	for _, id := range r.people() {
		runs = append(runs, r.tracks[id]...)
	}

	return tracker.SortTracks(runs...)
}

// Dropped returns the dropped intervals in the order they were recorded
func (r *Registry) Dropped() []tracker.DroppedInterval {
	r.RLock()
	defer r.RUnlock()

	out := make([]tracker.DroppedInterval, len(r.dropped))
	copy(out, r.dropped)

	return out
}

// restore replaces the registry contents
func (r *Registry) restore(tracks map[string][]tracker.Track, dropped []tracker.DroppedInterval) {
	r.Lock()
	defer r.Unlock()

	r.tracks = make(map[string][]tracker.Track, len(tracks))

	for id, runs := range tracks {
		r.tracks[id] = runs
	}

	r.dropped = dropped
}

// snapshot returns copies of the registry contents
func (r *Registry) snapshot() (map[string][]tracker.Track, []tracker.DroppedInterval) {
	r.RLock()
	defer r.RUnlock()

	tracks := make(map[string][]tracker.Track, len(r.tracks))

	for id, runs := range r.tracks {
		tracks[id] = append([]tracker.Track(nil), runs...)
	}

	return tracks, append([]tracker.DroppedInterval(nil), r.dropped...)
}
