package tracker

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"strings"
	"sync"
)

// Decision is the answer given by a human to a tracking prompt
type Decision int

const (
	// Confirm the shown box is the person
	Confirm Decision = 1
	// Reject the shown box, it belongs to someone else
	Reject Decision = 2
	// Skip the frame without deciding
	Skip Decision = 3
	// Terminate the run and drop everything tracked in it
	Terminate Decision = 4
)

// Stage labels shown with each prompt
const (
	StageAnchorSetup = "Anchor Setup"
	StageFinalCheck  = "Final Check"
)

// ErrUnknownDecision is returned when a decision token is not one of the
// four known answers
var ErrUnknownDecision = errors.New("unknown decision")

// String returns the token shown on the prompt buttons
func (d Decision) String() string {
	switch d {
	case Confirm:
		return "Yes"
	case Reject:
		return "No"
	case Skip:
		return "Skip"
	case Terminate:
		return "Terminate and Drop"
	}

	return "Unknown"
}

// Valid returns true for the four known decisions
func (d Decision) Valid() bool {
	return d >= Confirm && d <= Terminate
}

// ParseDecision converts a prompt token into a Decision.  Besides the button
// tokens the single key shortcuts y, n, s and t are accepted
func ParseDecision(token string) (Decision, error) {

	switch strings.ToLower(strings.TrimSpace(token)) {
	case "yes", "y", "confirm":
		return Confirm, nil
	case "no", "n", "reject":
		return Reject, nil
	case "skip", "s":
		return Skip, nil
	case "terminate and drop", "terminate", "t":
		return Terminate, nil
	}

	return 0, errors.Wrapf(ErrUnknownDecision, "token %q", token)
}

// Oracle asks a human whether the box drawn on the image belongs to the
// named person.  Ask blocks until an answer is given
type Oracle interface {
	Ask(img gocv.Mat, stage string, person string) (Decision, error)
}

// OracleFunc adapts a function to the Oracle interface
type OracleFunc func(img gocv.Mat, stage string, person string) (Decision, error)

// Ask calls f
func (f OracleFunc) Ask(img gocv.Mat, stage string, person string) (Decision, error) {
	return f(img, stage, person)
}

// Prompt is a record of a question asked to a ScriptedOracle
type Prompt struct {
	Stage  string
	Person string
}

// ScriptedOracle answers prompts from a fixed list of decisions.  Once the
// script is exhausted the Fallback decision is returned.  It is used for
// headless runs and tests
type ScriptedOracle struct {
	// Fallback is returned after the script runs out, when zero an error
	// is returned instead
	Fallback Decision
	script   []Decision
	prompts  []Prompt
	sync.Mutex
}

// NewScriptedOracle returns an oracle answering with the given decisions in
// order
func NewScriptedOracle(decisions ...Decision) *ScriptedOracle {
	return &ScriptedOracle{
		script: decisions,
	}
}

// Ask returns the next scripted decision
func (s *ScriptedOracle) Ask(img gocv.Mat, stage string, person string) (Decision, error) {
	s.Lock()
	defer s.Unlock()

	s.prompts = append(s.prompts, Prompt{Stage: stage, Person: person})

	if len(s.script) == 0 {
		if s.Fallback.Valid() {
			return s.Fallback, nil
		}
		return 0, errors.Errorf("scripted oracle exhausted at prompt %d (%s)",
			len(s.prompts), stage)
	}

	next := s.script[0]
	s.script = s.script[1:]

	return next, nil
}

// Prompts returns the prompts asked so far
func (s *ScriptedOracle) Prompts() []Prompt {
	s.Lock()
	defer s.Unlock()

	out := make([]Prompt, len(s.prompts))
	copy(out, s.prompts)

	return out
}
