package peers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoPeers is returned when a peer list is empty.
var ErrNoPeers = errors.New("no peers")

// PeerSet is an ordered set of Peers, unique by address.
type PeerSet struct {
	Peers     []*Peer          `json:"peers"`
	ByNetAddr map[string]*Peer `json:"-"`
}

/* Constructors */

// NewPeerSet creates a new PeerSet from a list of Peers. Later duplicates of
// an address are dropped; the first occurrence keeps its position.
func NewPeerSet(peers []*Peer) *PeerSet {
	peerSet := &PeerSet{
		ByNetAddr: make(map[string]*Peer),
	}

	for _, peer := range peers {
		if _, ok := peerSet.ByNetAddr[peer.NetAddr]; ok {
			continue
		}
		peerSet.ByNetAddr[peer.NetAddr] = peer
		peerSet.Peers = append(peerSet.Peers, peer)
	}

	return peerSet
}

// ParsePeerList parses a comma-separated list of host:port addresses, as
// supplied by the orchestration layer. Blank entries around commas are
// ignored, any malformed address fails the whole list.
func ParsePeerList(list string) (*PeerSet, error) {
	peers := []*Peer{}
	for _, field := range strings.Split(list, ",") {
		addr := strings.TrimSpace(field)
		if addr == "" {
			continue
		}
		if err := ValidateAddr(addr); err != nil {
			return nil, err
		}
		peers = append(peers, NewPeer(addr, ""))
	}

	if len(peers) == 0 {
		return nil, fmt.Errorf("parsing %q: %w", list, ErrNoPeers)
	}

	return NewPeerSet(peers), nil
}

// NewPeerSetFromPeerSliceBytes creates a new PeerSet from a peerSlice in Bytes format
func NewPeerSetFromPeerSliceBytes(peerSliceBytes []byte) (*PeerSet, error) {
	peers := []*Peer{}

	dec := json.NewDecoder(bytes.NewReader(peerSliceBytes))
	if err := dec.Decode(&peers); err != nil {
		return nil, err
	}

	for _, p := range peers {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	return NewPeerSet(peers), nil
}

// WithRemovedPeer returns a new PeerSet without the given address. A node uses
// it to make sure it never lists itself as a peer.
func (peerSet *PeerSet) WithRemovedPeer(netAddr string) *PeerSet {
	_, others := ExcludePeer(peerSet.Peers, netAddr)
	return NewPeerSet(others)
}

/* ToSlice Methods */

// NetAddrs returns the addresses in order.
func (peerSet *PeerSet) NetAddrs() []string {
	res := make([]string, 0, len(peerSet.Peers))
	for _, peer := range peerSet.Peers {
		res = append(res, peer.NetAddr)
	}
	return res
}

/* Utilities */

// Len returns the number of Peers in the PeerSet
func (peerSet *PeerSet) Len() int {
	return len(peerSet.Peers)
}

// String joins the addresses with commas, the format ParsePeerList reads.
func (peerSet *PeerSet) String() string {
	return strings.Join(peerSet.NetAddrs(), ",")
}

// Marshal marshals the peerset
func (peerSet *PeerSet) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(peerSet.Peers); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
