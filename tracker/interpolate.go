package tracker

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/interp"
)

// Interpolate builds a Track with a row for every frame in frames.  Frames
// with a known box keep it, the others are filled by linear interpolation
// over frame number between the nearest known boxes on either side.  Frames
// before the first or after the last known box take the nearest known box.
// Known boxes on frames not listed in frames are ignored.  frames must be
// strictly increasing
func Interpolate(frames []int, known map[int]Box, personID string) (Track, error) {

	// collect the known samples that fall on requested frames
	var xs []float64
	var coords [4][]float64

	for _, f := range frames {
		box, ok := known[f]

		if !ok {
			continue
		}

		xs = append(xs, float64(f))
		c := box.Coords()

		for i := range coords {
			coords[i] = append(coords[i], c[i])
		}
	}

	if len(xs) == 0 {
		return nil, errors.New("no known boxes to interpolate from")
	}

	// fit one piecewise linear function per coordinate
	var fits [4]interp.PiecewiseLinear

	if len(xs) > 1 {
		for i := range fits {
			if err := fits[i].Fit(xs, coords[i]); err != nil {
				return nil, errors.Wrapf(err, "fitting coordinate %d", i)
			}
		}
	}

	track := make(Track, 0, len(frames))

	for _, f := range frames {

		if box, ok := known[f]; ok {
			track = append(track, Row{FrameID: f, Box: box, PersonID: personID})
			continue
		}

		var c [4]float64

		for i := range c {
			if len(xs) == 1 {
				c[i] = coords[i][0]
			} else {
				// Predict holds the end values outside the fitted range
				c[i] = fits[i].Predict(float64(f))
			}
		}

		track = append(track, Row{
			FrameID:      f,
			Box:          BoxFromCoords(c),
			PersonID:     personID,
			Interpolated: true,
		})
	}

	return track, nil
}
