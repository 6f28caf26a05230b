// Package analysis computes clock drift statistics from the output of a run:
// the event log files of its nodes or their event archives.
//
// For each node it reports the tick rate, the final logical clock, the jumps
// between consecutive clock values (ordered by system time), and the average
// inbound queue length seen on receive events. For a run it reports the drift,
// the spread between the highest and the lowest final clock.
package analysis
