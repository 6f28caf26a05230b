// Package events turns the actions of a node's tick loop into event records
// and writes them to one or more sinks.
//
// The line format written by LogSink is the contract with the analysis
// tooling. Every clock line matches ClockRegexp and the startup line matches
// StartupRegexp. Delivery and error lines, written once per network send, are
// deliberately outside ClockRegexp so they never count as clock jumps.
package events
