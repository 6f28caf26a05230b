package node

import (
	"math/rand"

	"github.com/mosaicnetworks/driftsim/src/peers"
)

// PeerSelector defines an interface for Peer Selectors
type PeerSelector interface {
	Peers() *peers.PeerSet
	Next() *peers.Peer
	All() []*peers.Peer
}

//+++++++++++++++++++++++++++++++++++++++
//RANDOM

// RandomPeerSelector picks unicast targets uniformly at random. It is owned by
// the tick loop and shares its random source.
type RandomPeerSelector struct {
	peers *peers.PeerSet
	rnd   *rand.Rand
}

// NewRandomPeerSelector is a factory method that returns a new instance of
// RandomPeerSelector
func NewRandomPeerSelector(peerSet *peers.PeerSet, rnd *rand.Rand) *RandomPeerSelector {
	return &RandomPeerSelector{
		peers: peerSet,
		rnd:   rnd,
	}
}

// Peers returns a set of peers
func (ps *RandomPeerSelector) Peers() *peers.PeerSet {
	return ps.peers
}

// Next returns the next unicast target, nil if there are no peers. With a
// single peer, that peer is always returned.
func (ps *RandomPeerSelector) Next() *peers.Peer {
	selectablePeers := ps.peers.Peers

	switch len(selectablePeers) {
	case 0:
		return nil
	case 1:
		return selectablePeers[0]
	}

	i := ps.rnd.Intn(len(selectablePeers))

	return selectablePeers[i]
}

// All returns the broadcast targets in order.
func (ps *RandomPeerSelector) All() []*peers.Peer {
	return ps.peers.Peers
}
