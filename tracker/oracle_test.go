package tracker

import (
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
	"testing"
)

func TestParseDecision(t *testing.T) {

	tests := []struct {
		token    string
		expected Decision
	}{
		{"Yes", Confirm},
		{"y", Confirm},
		{"No", Reject},
		{" n ", Reject},
		{"Skip", Skip},
		{"Terminate and Drop", Terminate},
		{"t\n", Terminate},
	}

	for _, tc := range tests {
		d, err := ParseDecision(tc.token)
		require.NoError(t, err, tc.token)
		require.Equal(t, tc.expected, d, tc.token)
	}

	for _, d := range []Decision{Confirm, Reject, Skip, Terminate} {
		parsed, err := ParseDecision(d.String())
		require.NoError(t, err)
		require.Equal(t, d, parsed)
	}

	_, err := ParseDecision("Maybe")
	require.True(t, errors.Is(err, ErrUnknownDecision))
	require.False(t, Decision(0).Valid())
	require.False(t, Decision(9).Valid())
}

func TestScriptedOracle(t *testing.T) {

	img := gocv.NewMat()
	defer img.Close()

	o := NewScriptedOracle(Reject, Confirm)

	d, err := o.Ask(img, StageAnchorSetup, "p1")
	require.NoError(t, err)
	require.Equal(t, Reject, d)

	d, err = o.Ask(img, StageAnchorSetup, "p1")
	require.NoError(t, err)
	require.Equal(t, Confirm, d)

	// exhausted without a fallback
	_, err = o.Ask(img, StageFinalCheck, "p1")
	require.Error(t, err)

	o.Fallback = Skip
	d, err = o.Ask(img, StageFinalCheck, "p1")
	require.NoError(t, err)
	require.Equal(t, Skip, d)

	require.Len(t, o.Prompts(), 4)
	require.Equal(t, Prompt{Stage: StageFinalCheck, Person: "p1"}, o.Prompts()[3])
}

func TestSkipWindow(t *testing.T) {

	s := NewSkipWindow()
	s.Add(3, 5)
	s.Add(5, 6)

	require.Equal(t, []int{3, 4, 5, 6}, s.Frames())
	require.Equal(t, 4, s.Len())
	require.True(t, s.Contains(4))
	require.False(t, s.Contains(7))
}
