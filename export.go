package headtrack

import (
	"encoding/csv"
	"github.com/pkg/errors"
	"github.com/swdee/go-headtrack/tracker"
	"io"
	"os"
	"strconv"
)

// trackHeader is the column header of exported track files
var trackHeader = []string{"frameID", "xmin", "ymin", "xmax", "ymax", "personID"}

// WriteTrack writes the track rows as CSV with a header line
func WriteTrack(w io.Writer, track tracker.Track) error {

	writer := csv.NewWriter(w)

	if err := writer.Write(trackHeader); err != nil {
		return errors.Wrap(err, "writing header")
	}

	for _, row := range track {
		c := row.Box.Coords()

		record := []string{
			strconv.Itoa(row.FrameID),
			strconv.FormatFloat(c[0], 'f', -1, 64),
			strconv.FormatFloat(c[1], 'f', -1, 64),
			strconv.FormatFloat(c[2], 'f', -1, 64),
			strconv.FormatFloat(c[3], 'f', -1, 64),
			row.PersonID,
		}

		if err := writer.Write(record); err != nil {
			return errors.Wrapf(err, "writing frame %d", row.FrameID)
		}
	}

	writer.Flush()

	return writer.Error()
}

// WriteCSV writes the tracks of every person to w
func (s *Session) WriteCSV(w io.Writer) error {
	return WriteTrack(w, s.All())
}

// ExportCSV writes the tracks of every person to file
func (s *Session) ExportCSV(file string) error {

	f, err := os.Create(file)

	if err != nil {
		return errors.Wrap(err, "creating track file")
	}

	if err := s.WriteCSV(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
