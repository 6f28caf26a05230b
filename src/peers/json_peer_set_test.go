package peers

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestJSONPeerSet(t *testing.T) {
	dir := t.TempDir()

	// Create the store
	store := NewJSONPeerSet(dir)

	// Try a read, should get nothing
	peerSet, err := store.PeerSet()
	if err == nil {
		t.Fatalf("store.PeerSet() should generate an error")
	}
	if peerSet != nil {
		t.Fatalf("peerSet: %v", peerSet)
	}

	peers := []*Peer{
		NewPeer("127.0.0.1:50051", "machine1"),
		NewPeer("127.0.0.1:50052", "machine2"),
		NewPeer("127.0.0.1:50053", ""),
	}

	if err := store.Write(peers); err != nil {
		t.Fatalf("err: %v", err)
	}

	// Try a read, should find 3 peers
	peerSet, err = store.PeerSet()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if peerSet.Len() != 3 {
		t.Fatalf("peerSet should have 3 peers, not %d", peerSet.Len())
	}

	for i, p := range peerSet.Peers {
		if !reflect.DeepEqual(p, peers[i]) {
			t.Fatalf("peer %d should be %#v, not %#v", i, peers[i], p)
		}
	}

	if peerSet.Peers[0].String() != "machine1" || peerSet.Peers[2].String() != "127.0.0.1:50053" {
		t.Fatalf("unexpected peer names %s, %s", peerSet.Peers[0], peerSet.Peers[2])
	}
}

func TestJSONPeerSetInvalid(t *testing.T) {
	dir := t.TempDir()
	store := NewJSONPeerSet(dir)

	if err := os.WriteFile(filepath.Join(dir, "peers.json"), []byte(`[{"NetAddr":"nope"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.PeerSet(); err == nil {
		t.Fatalf("invalid address should be rejected")
	}

	if err := os.WriteFile(store.Path(), []byte(`[]`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.PeerSet(); !errors.Is(err, ErrNoPeers) {
		t.Fatalf("empty list should return ErrNoPeers, got %v", err)
	}
}
