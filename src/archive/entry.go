package archive

import (
	"errors"
	"fmt"
	"time"

	"github.com/mosaicnetworks/driftsim/src/events"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	startupKey     = "startup"
	recordPrefix   = "event"
	deliveryPrefix = "delivery"
)

func recordKey(index int) []byte {
	return []byte(fmt.Sprintf("%s_%09d", recordPrefix, index))
}

func deliveryKey(index int) []byte {
	return []byte(fmt.Sprintf("%s_%09d", deliveryPrefix, index))
}

// entry is the stored form of every event. Times are kept in Unix nanoseconds
// and errors as text.
type entry struct {
	Time        int64    `msgpack:"t"`
	Node        string   `msgpack:"node,omitempty"`
	TickRate    int      `msgpack:"rate,omitempty"`
	Kind        uint8    `msgpack:"kind"`
	Clock       uint64   `msgpack:"clock"`
	QueueLength int      `msgpack:"queue,omitempty"`
	Peer        string   `msgpack:"peer,omitempty"`
	Peers       []string `msgpack:"peers,omitempty"`
	Error       string   `msgpack:"err,omitempty"`
}

func marshalStartup(s events.Startup) ([]byte, error) {
	return msgpack.Marshal(&entry{
		Time:     s.Time.UnixNano(),
		Node:     s.NodeID,
		TickRate: s.TickRate,
	})
}

func marshalRecord(r events.Record) ([]byte, error) {
	return msgpack.Marshal(&entry{
		Time:        r.Time.UnixNano(),
		Kind:        uint8(r.Kind),
		Clock:       r.Clock,
		QueueLength: r.QueueLength,
		Peer:        r.Peer,
		Peers:       r.Peers,
	})
}

func marshalDelivery(d events.Delivery) ([]byte, error) {
	e := &entry{
		Time:  d.Time.UnixNano(),
		Clock: d.Clock,
		Peer:  d.Peer,
	}
	if d.Err != nil {
		e.Error = d.Err.Error()
	}
	return msgpack.Marshal(e)
}

func unmarshal(data []byte) (*entry, error) {
	e := new(entry)
	if err := msgpack.Unmarshal(data, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *entry) startup() events.Startup {
	return events.Startup{
		Time:     time.Unix(0, e.Time),
		NodeID:   e.Node,
		TickRate: e.TickRate,
	}
}

func (e *entry) record() events.Record {
	return events.Record{
		Time:        time.Unix(0, e.Time),
		Kind:        events.Kind(e.Kind),
		Clock:       e.Clock,
		QueueLength: e.QueueLength,
		Peer:        e.Peer,
		Peers:       e.Peers,
	}
}

func (e *entry) delivery() events.Delivery {
	d := events.Delivery{
		Time:  time.Unix(0, e.Time),
		Clock: e.Clock,
		Peer:  e.Peer,
	}
	if e.Error != "" {
		d.Err = errors.New(e.Error)
	}
	return d
}
