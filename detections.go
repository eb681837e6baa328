package headtrack

import (
	"encoding/csv"
	"github.com/pkg/errors"
	"github.com/swdee/go-headtrack/tracker"
	"io"
	"os"
	"strconv"
	"strings"
)

// detectionColumns is the number of columns in a raw detection file,
// frameID, label, xmin, ymin, xmax, ymax
const detectionColumns = 6

// LoadDetections reads the raw detection CSV file.  The file has no header
// and one detection per line in the column order frameID, label, xmin, ymin,
// xmax, ymax.  The label column is discarded and boxes with zero or negative
// width or height are rejected
func LoadDetections(file string) ([]tracker.Detection, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, errors.Wrap(err, "error opening detection file")
	}

	defer f.Close()

	dets, err := ReadDetections(f)

	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", file)
	}

	return dets, nil
}

// ReadDetections parses raw detection rows from the reader
func ReadDetections(r io.Reader) ([]tracker.Detection, error) {

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = detectionColumns
	reader.TrimLeadingSpace = true

	var dets []tracker.Detection

	for {
		record, err := reader.Read()

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrap(err, "malformed detection row")
		}

		line, _ := reader.FieldPos(0)

		det, err := parseDetection(record)

		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		dets = append(dets, det)
	}

	return dets, nil
}

// parseDetection converts a CSV record into a Detection
func parseDetection(record []string) (tracker.Detection, error) {

	frameID, err := strconv.Atoi(strings.TrimSpace(record[0]))

	if err != nil {
		return tracker.Detection{}, errors.Wrap(err, "invalid frameID")
	}

	if frameID < 1 {
		return tracker.Detection{}, errors.Errorf("frameID must be at least 1, got %d", frameID)
	}

	var coords [4]float64

	for i := range coords {
		coords[i], err = strconv.ParseFloat(strings.TrimSpace(record[i+2]), 64)

		if err != nil {
			return tracker.Detection{}, errors.Wrapf(err, "invalid coordinate in column %d", i+3)
		}
	}

	box := tracker.BoxFromCoords(coords)

	if !box.Valid() {
		return tracker.Detection{}, errors.Errorf("box must have xmin<xmax and ymin<ymax, got %v", coords)
	}

	return tracker.NewDetection(frameID, box), nil
}
