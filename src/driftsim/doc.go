// Package driftsim wires together the parts of a node process: configuration,
// peers, transport, inbound queue, event sinks, the node engine and the
// optional HTTP service.
//
// A Driftsim is created from a config.Config, initialised with Init, which
// fails on any invalid configuration before a node exists, and started with
// Run:
//
//	d := driftsim.NewDriftsim(conf)
//	if err := d.Init(); err != nil {
//		return err
//	}
//	return d.Run(ctx)
package driftsim
