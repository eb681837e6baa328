package main

import (
	"flag"
	"github.com/cheggaaa/pb/v3"
	"github.com/sirupsen/logrus"
	"github.com/swdee/go-headtrack"
	"github.com/swdee/go-headtrack/frames"
	"github.com/swdee/go-headtrack/tracker"
	"github.com/swdee/go-headtrack/ui"
	"os"
	"strings"
)

// barTemplate is the layout of the per person progress bar
const barTemplate = `{{ string . "person" }} {{counters . }} {{bar . }} {{percent . }} {{etime . }}`

// progress moves the bar of the person currently being tracked
type progress struct {
	bar   *pb.ProgressBar
	start int
}

// begin creates a new bar for the frame range
func (p *progress) begin(person string, start, end int) {
	p.start = start
	p.bar = pb.ProgressBarTemplate(barTemplate).Start(end - start)
	p.bar.Set("person", person)
}

func (p *progress) update(frame int) {
	if p.bar != nil {
		p.bar.SetCurrent(int64(frame - p.start))
	}
}

func (p *progress) finish() {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}

func main() {
	// read in cli flags
	detFile := flag.String("d", "../data/detections.csv", "CSV file of raw head detections")
	frameDir := flag.String("f", "../data/frames", "Directory of frame images named 000001.jpg onwards")
	persons := flag.String("p", "p1", "Comma delimited list of person IDs to track in turn")
	start := flag.Int("s", 1, "First frame to track from")
	end := flag.Int("e", -1, "Frame to track up to, exclusive.  -1 tracks to the last frame")
	cfgFile := flag.String("c", "", "JSON config file")
	outFile := flag.String("o", "tracks.csv", "CSV file to write the tracks to")
	stateFile := flag.String("state", "", "Session snapshot file, restored from if it exists and saved to after each person")
	mode := flag.String("ui", "window", "Annotation interface [window|console]")
	logLevel := flag.String("log", "", "Log level, overrides the config file")

	flag.Parse()

	log := logrus.New()

	cfg := headtrack.DefaultConfig()

	if *cfgFile != "" {
		var err error
		cfg, err = headtrack.LoadConfig(*cfgFile)

		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
	}

	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log.SetLevel(cfg.Level())

	// create the annotation interface
	var oracle tracker.Oracle

	switch *mode {
	case "window":
		dialog, err := ui.NewDialog("Annotation")

		if err != nil {
			log.Fatalf("Error opening window: %v", err)
		}

		defer dialog.Close()
		oracle = dialog

	case "console":
		oracle = ui.NewConsole(os.Stdin, os.Stdout, os.TempDir())

	default:
		log.Fatal("Unknown interface, use 'window' or 'console'")
	}

	bar := &progress{}

	session := headtrack.NewSession(cfg, oracle,
		headtrack.WithSessionLogger(logrus.NewEntry(log)),
		headtrack.WithFrameProgress(bar.update),
	)

	defer session.Close()

	// resume a previous session or start from the raw detections
	if _, err := os.Stat(*stateFile); *stateFile != "" && err == nil {
		if err := session.Restore(*stateFile, *frameDir); err != nil {
			log.Fatalf("Error restoring session: %v", err)
		}
	} else if err := session.Load(*detFile, *frameDir); err != nil {
		log.Fatalf("Error loading detections: %v", err)
	}

	if cfg.Remote.Enabled() {
		fetcher, err := frames.DialSFTP(cfg.Remote.Addr, cfg.Remote.User,
			cfg.Remote.KeyFile, cfg.Remote.KnownHosts)

		if err != nil {
			log.Fatalf("Error connecting to frame server: %v", err)
		}

		defer fetcher.Close()

		if err := session.SetRemote(cfg.Remote.Dir, fetcher); err != nil {
			log.Fatalf("Error setting remote frames: %v", err)
		}
	}

	for _, person := range strings.Split(*persons, ",") {

		person = strings.TrimSpace(person)

		if person == "" {
			continue
		}

		last := *end

		if last < 0 {
			last = session.Pool().MaxFrame() + 1
		}

		bar.begin(person, *start, last)
		res, err := session.TrackPerson(person, *start, last)
		bar.finish()

		if err != nil {
			log.Fatalf("Error tracking %s: %v", person, err)
		}

		log.WithFields(logrus.Fields{
			"person":  person,
			"state":   res.State,
			"skipped": len(res.Skipped),
			"resets":  res.Resets,
		}).Info("Person finished")

		if *stateFile != "" {
			if err := session.Save(*stateFile); err != nil {
				log.Fatalf("Error saving session: %v", err)
			}
		}
	}

	if err := session.ExportCSV(*outFile); err != nil {
		log.Fatalf("Error writing tracks: %v", err)
	}

	for _, d := range session.Dropped() {
		log.WithFields(logrus.Fields{
			"person": d.PersonID,
			"start":  d.Start,
			"end":    d.End,
			"reason": d.Reason,
		}).Warn("Dropped interval")
	}

	log.WithField("file", *outFile).Info("Tracks written")
}
