package peers

import (
	"fmt"
	"net"
	"strconv"
)

// Peer is a node reachable over the network.
type Peer struct {
	NetAddr string
	Moniker string `json:",omitempty"`
}

// NewPeer creates a Peer from its address and an optional moniker.
func NewPeer(netAddr, moniker string) *Peer {
	return &Peer{
		NetAddr: netAddr,
		Moniker: moniker,
	}
}

// String returns the moniker when there is one, the address otherwise.
func (p *Peer) String() string {
	if p.Moniker != "" {
		return p.Moniker
	}
	return p.NetAddr
}

// Validate checks that the address is a host:port pair with a usable port.
func (p *Peer) Validate() error {
	return ValidateAddr(p.NetAddr)
}

// ValidateAddr checks that addr is host:port with a port in 1..65535.
func ValidateAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid peer address %q: %v", addr, err)
	}
	if host == "" {
		return fmt.Errorf("invalid peer address %q: missing host", addr)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("invalid peer address %q: bad port %q", addr, port)
	}
	return nil
}

// ExcludePeer is used to exclude a single peer from a list of peers.
func ExcludePeer(peers []*Peer, peer string) (int, []*Peer) {
	index := -1
	otherPeers := make([]*Peer, 0, len(peers))
	for i, p := range peers {
		if p.NetAddr != peer {
			otherPeers = append(otherPeers, p)
		} else {
			index = i
		}
	}
	return index, otherPeers
}
