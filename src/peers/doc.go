// Package peers defines the peers a driftsim node talks to and the ways a
// peer list is supplied at startup.
//
// A peer is identified by the network address (host:port) where its node
// listens for clock messages, and optionally by a moniker. A node receives its
// peers either as a comma-separated address list on the command line, which
// is what orchestration scripts pass, or as a peers.json file in its data
// directory.
//
// The order of the list is preserved. Broadcasts visit peers in that order,
// one after the other.
package peers
