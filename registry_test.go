package headtrack

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-headtrack/tracker"
	"io"
	"testing"
)

// quietLogger discards log output
func quietLogger() *logrus.Entry {
	log := logrus.New()
	log.Out = io.Discard
	return logrus.NewEntry(log)
}

func TestRegistry(t *testing.T) {

	reg := NewRegistry(quietLogger())

	reg.Commit("bob", tracker.Track{
		{FrameID: 4, Box: boxRight, PersonID: "bob"},
	})
	reg.Commit("alice", tracker.Track{
		{FrameID: 5, Box: boxLeft, PersonID: "alice"},
		{FrameID: 6, Box: boxLeft, PersonID: "alice"},
	})
	reg.Commit("alice", tracker.Track{
		{FrameID: 1, Box: boxMid, PersonID: "alice"},
		{FrameID: 2, Box: boxMid, PersonID: "alice", Interpolated: true},
	})

	require.Equal(t, []string{"alice", "bob"}, reg.People())

	alice, err := reg.Person("alice")
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 5, 6}, alice.Frames())

	_, err = reg.Person("carol")
	require.True(t, errors.Is(err, ErrUnknownPerson))

	all := reg.All()
	require.Equal(t, []int{1, 2, 4, 5, 6}, all.Frames())
	require.Equal(t, "bob", all[2].PersonID)
}

func TestRegistryDropped(t *testing.T) {

	reg := NewRegistry(quietLogger())
	require.Empty(t, reg.Dropped())

	first := tracker.DroppedInterval{Start: 1, End: 10, PersonID: "p1",
		Reason: tracker.ReasonTerminated}
	second := tracker.DroppedInterval{Start: 20, End: 30, PersonID: "p2",
		Reason: tracker.ReasonFinalCheck}

	reg.AddDropped(first)
	reg.AddDropped(second)

	dropped := reg.Dropped()
	require.Equal(t, []tracker.DroppedInterval{first, second}, dropped)

	// dropped people are not tracked
	require.Empty(t, reg.People())

	dropped[0].Start = 99
	require.Equal(t, 1, reg.Dropped()[0].Start)
}
