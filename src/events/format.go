package events

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// ClockPattern matches every clock line. Groups are the clock, the system
	// time and, for receive lines only, the queue length.
	ClockPattern = `updated logical clock to (\d+), system_time=(\d+)(?:, queue_length=(\d+))?`

	// StartupPattern matches the startup line. Groups are the node id and the
	// tick rate.
	StartupPattern = `Machine\s+(\S+)\s+initialized with tick rate (\d+) ticks per second`

	// ErrorPattern matches failed sends. Groups are the peer and the clock
	// that was sent.
	ErrorPattern = `Error sending message to (\S+): sent_clock=(\d+)`

	// TimestampLayout is the layout of the line prefix, before the
	// milliseconds.
	TimestampLayout = "2006-01-02 15:04:05"
)

var (
	ClockRegexp   = regexp.MustCompile(ClockPattern)
	StartupRegexp = regexp.MustCompile(StartupPattern)
	ErrorRegexp   = regexp.MustCompile(ErrorPattern)
)

// FormatStartup returns the message of the startup line.
func FormatStartup(s Startup) string {
	return fmt.Sprintf("Machine %s initialized with tick rate %d ticks per second",
		s.NodeID, s.TickRate)
}

// FormatRecord returns the message of a clock line.
func FormatRecord(r Record) string {
	switch r.Kind {
	case Receive:
		return fmt.Sprintf("Processed received message from %s: updated logical clock to %d, system_time=%d, queue_length=%d",
			r.Peer, r.Clock, r.SystemTime(), r.QueueLength)
	case Send:
		return fmt.Sprintf("Sent event to %s: updated logical clock to %d, system_time=%d",
			r.Peer, r.Clock, r.SystemTime())
	case Broadcast:
		return fmt.Sprintf("Broadcast sent to %s: updated logical clock to %d, system_time=%d",
			strings.Join(r.Peers, ","), r.Clock, r.SystemTime())
	default:
		return fmt.Sprintf("Internal event: updated logical clock to %d, system_time=%d",
			r.Clock, r.SystemTime())
	}
}

// FormatDelivery returns the message of a delivery line, or of an error line
// when the send failed.
func FormatDelivery(d Delivery) string {
	if d.Failed() {
		return fmt.Sprintf("Error sending message to %s: sent_clock=%d, error=%v",
			d.Peer, d.Clock, d.Err)
	}
	return fmt.Sprintf("Sent message to %s: sent_clock=%d, system_time=%d",
		d.Peer, d.Clock, d.Time.Unix())
}

// LineFormatter formats logrus entries as
// "YYYY-MM-DD HH:MM:SS,mmm LEVEL: message". Fields are not printed.
type LineFormatter struct{}

// Format implements logrus.Formatter.
func (f *LineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	fmt.Fprintf(b, "%s,%03d %s: %s\n",
		entry.Time.Format(TimestampLayout),
		entry.Time.Nanosecond()/1e6,
		strings.ToUpper(entry.Level.String()),
		entry.Message)

	return b.Bytes(), nil
}
