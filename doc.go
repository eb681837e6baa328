/*
go-headtrack assists a human annotator in turning noisy, unlabeled, per frame
head bounding box detections into one continuous identity track per person
across a video.

A Session loads the raw detections into a ProposalPool and tracks one person
at a time over a frame range using the anchor tracking engine in the tracker
subpackage.  The engine follows the person by overlap with the last confirmed
anchor box and falls back to asking a human through a tracker.Oracle whenever
tracking becomes ambiguous.  Completed tracks are gap interpolated, committed
to a Registry and their detections removed from the pool so no detection is
ever assigned to two people.

See the annotate program in the example subdirectory for usage.
*/
package headtrack
