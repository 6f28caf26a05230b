package peers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	jsonPeerSetPath = "peers.json"
)

// JSONPeerSet is used to provide peer persistence on disk in the form of a JSON
// file.
type JSONPeerSet struct {
	l    sync.Mutex
	path string
}

// NewJSONPeerSet creates a new JSONPeerSet with reference to a base directory
// where the JSON file resides.
func NewJSONPeerSet(base string) *JSONPeerSet {
	store := &JSONPeerSet{
		path: filepath.Join(base, jsonPeerSetPath),
	}
	return store
}

// Path returns the location of the JSON file.
func (j *JSONPeerSet) Path() string {
	return j.path
}

// PeerSet parses the underlying JSON file and returns the corresponding
// PeerSet.
func (j *JSONPeerSet) PeerSet() (*PeerSet, error) {
	j.l.Lock()
	defer j.l.Unlock()

	// Read the file
	buf, err := os.ReadFile(j.path)
	if err != nil {
		return nil, err
	}

	// Check for no peers
	if len(bytes.TrimSpace(buf)) == 0 {
		return nil, fmt.Errorf("%s: %w", j.path, ErrNoPeers)
	}

	peerSet, err := NewPeerSetFromPeerSliceBytes(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", j.path, err)
	}

	if peerSet.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", j.path, ErrNoPeers)
	}

	return peerSet, nil
}

// Write persists a PeerSet to a JSON file.
func (j *JSONPeerSet) Write(peers []*Peer) error {
	j.l.Lock()
	defer j.l.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "\t")
	if err := enc.Encode(peers); err != nil {
		return err
	}

	// Write out as JSON
	return os.WriteFile(j.path, buf.Bytes(), 0644)
}
