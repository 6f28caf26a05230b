// Package config defines the configuration of a driftsim node.
//
// Regardless of how a node is started, from Go code, from the cluster runner
// or as a standalone process from the command line, it uses the Config object
// defined in this package. The command line fills it from flags, from
// DRIFTSIM_* environment variables and from an optional driftsim.toml (or
// .yaml, .json) in the data directory. The data directory may also hold:
//
//  peers.json // a JSON list of peers, used when no --peers list is given.
//
// A Config is checked by Validate before any node state exists. Invalid
// configurations are fatal.
package config
