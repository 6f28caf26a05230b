// Package cluster runs experiments: a set of nodes simulated in-process, each
// peered with all the others, run several times in a row. After every run the
// node logs are analysed and a report is written next to them.
//
// An experiment is described by a Plan, usually loaded from a YAML file:
//
//	runs: 5
//	duration: 60s
//	pause: 10s
//	min_ticks: 1
//	max_ticks: 6
//	output: experiments
//	nodes:
//	  - id: machine1
//	    port: 50051
//	  - id: machine2
//	    port: 50052
//	  - id: machine3
//	    port: 50053
//
// A node with port 0 listens on any free port.
package cluster
