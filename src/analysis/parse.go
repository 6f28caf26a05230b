package analysis

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/mosaicnetworks/driftsim/src/events"
)

// Event is one clock line.
type Event struct {
	Clock       uint64
	SystemTime  int64
	QueueLength int
	// HasQueue is set for receive events, which carry a queue length.
	HasQueue bool
}

// Log is what a node log file contains.
type Log struct {
	NodeID   string
	TickRate int
	Events   []Event
	// Errors counts failed sends.
	Errors int
}

// ParseLog reads a node log. Lines that are neither the startup line, clock
// lines nor error lines are ignored.
func ParseLog(r io.Reader) (*Log, error) {
	log := &Log{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if m := events.ClockRegexp.FindStringSubmatch(line); m != nil {
			e, err := parseEvent(m)
			if err != nil {
				return nil, fmt.Errorf("line %d: %v", lineNo, err)
			}
			log.Events = append(log.Events, e)
			continue
		}

		if events.ErrorRegexp.MatchString(line) {
			log.Errors++
			continue
		}

		if m := events.StartupRegexp.FindStringSubmatch(line); m != nil && log.NodeID == "" {
			rate, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: tick rate: %v", lineNo, err)
			}
			log.NodeID = m[1]
			log.TickRate = rate
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return log, nil
}

func parseEvent(m []string) (Event, error) {
	var (
		e   Event
		err error
	)

	if e.Clock, err = strconv.ParseUint(m[1], 10, 64); err != nil {
		return e, fmt.Errorf("clock: %v", err)
	}
	if e.SystemTime, err = strconv.ParseInt(m[2], 10, 64); err != nil {
		return e, fmt.Errorf("system time: %v", err)
	}
	if m[3] != "" {
		if e.QueueLength, err = strconv.Atoi(m[3]); err != nil {
			return e, fmt.Errorf("queue length: %v", err)
		}
		e.HasQueue = true
	}

	return e, nil
}

// ParseLogFile reads the log file at path.
func ParseLogFile(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	log, err := ParseLog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return log, nil
}

// sortedEvents returns a copy of evs ordered by system time. Events with the
// same system time keep their log order.
func sortedEvents(evs []Event) []Event {
	sorted := append([]Event(nil), evs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SystemTime < sorted[j].SystemTime
	})
	return sorted
}

// Jumps returns the differences between consecutive clock values, once the
// events are ordered by system time.
func Jumps(evs []Event) []int64 {
	sorted := sortedEvents(evs)

	if len(sorted) < 2 {
		return []int64{}
	}

	jumps := make([]int64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		jumps = append(jumps, int64(sorted[i].Clock)-int64(sorted[i-1].Clock))
	}
	return jumps
}
