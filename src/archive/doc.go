// Package archive persists the events of a node in a Badger database so that a
// run can be analysed without parsing log files.
//
// The archive is output only. It is never read back to restore the state of a
// node.
package archive
