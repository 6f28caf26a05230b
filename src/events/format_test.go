package events

import (
	"errors"
	"testing"
)

func TestClockRegexp(t *testing.T) {
	cases := []struct {
		record Record
		clock  string
		queue  string
	}{
		{Record{Time: t0, Kind: Internal, Clock: 3}, "3", ""},
		{Record{Time: t0, Kind: Send, Clock: 4, Peer: "localhost:50052"}, "4", ""},
		{Record{Time: t0, Kind: Broadcast, Clock: 5, Peers: []string{"a:1", "b:2"}}, "5", ""},
		{Record{Time: t0, Kind: Receive, Clock: 12, Peer: "machine3", QueueLength: 7}, "12", "7"},
	}

	for _, c := range cases {
		line := FormatRecord(c.record)
		m := ClockRegexp.FindStringSubmatch(line)
		if m == nil {
			t.Fatalf("%s line does not match: %q", c.record.Kind, line)
		}
		if m[1] != c.clock || m[2] != "1739529005" || m[3] != c.queue {
			t.Fatalf("%s line parsed as %v", c.record.Kind, m[1:])
		}
	}
}

func TestDeliveryLinesAreNotClockLines(t *testing.T) {
	lines := []string{
		FormatDelivery(Delivery{Time: t0, Peer: "a:1", Clock: 3}),
		FormatDelivery(Delivery{Time: t0, Peer: "a:1", Clock: 3, Err: errors.New("timeout")}),
	}
	for _, l := range lines {
		if ClockRegexp.MatchString(l) {
			t.Fatalf("delivery line matches the clock pattern: %q", l)
		}
	}

	m := ErrorRegexp.FindStringSubmatch(lines[1])
	if m == nil || m[1] != "a:1" || m[2] != "3" {
		t.Fatalf("error line parsed as %v", m)
	}
}

func TestStartupRegexp(t *testing.T) {
	line := FormatStartup(Startup{NodeID: "machine2", TickRate: 6})
	m := StartupRegexp.FindStringSubmatch(line)
	if m == nil || m[1] != "machine2" || m[2] != "6" {
		t.Fatalf("startup line parsed as %v", m)
	}
}

func TestFanout(t *testing.T) {
	a, b := NewMemorySink(), NewMemorySink()
	f := NewFanout(a)
	f.Add(b)

	writeSession(t, f)
	f.Flush()
	f.Close()

	for _, m := range []*MemorySink{a, b} {
		if _, ok := m.Startup(); !ok {
			t.Fatalf("missing startup")
		}
		if len(m.Records()) != 4 || len(m.Deliveries()) != 3 {
			t.Fatalf("sink got %d records and %d deliveries", len(m.Records()), len(m.Deliveries()))
		}
		if m.Flushes() != 1 || !m.Closed() {
			t.Fatalf("sink was not flushed and closed")
		}
	}
}
