package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mosaicnetworks/driftsim/src/archive"
	"github.com/mosaicnetworks/driftsim/src/common"
	"github.com/mosaicnetworks/driftsim/src/events"
)

// NodeSummary holds the statistics of one node.
type NodeSummary struct {
	Node           string
	TickRate       int
	Events         int
	Receives       int
	Errors         int
	FinalClock     uint64
	JumpCount      int
	JumpMean       float64
	JumpMedian     int64
	JumpMin        int64
	JumpMax        int64
	JumpStdDev     float64
	AvgQueueLength float64
}

// Summarize computes the statistics of a parsed log. node names the summary
// when the log has no startup line.
func Summarize(node string, log *Log) NodeSummary {
	if log.NodeID != "" {
		node = log.NodeID
	}

	s := NodeSummary{
		Node:     node,
		TickRate: log.TickRate,
		Events:   len(log.Events),
		Errors:   log.Errors,
	}

	sorted := sortedEvents(log.Events)
	if len(sorted) > 0 {
		s.FinalClock = sorted[len(sorted)-1].Clock
	}

	jumps := Jumps(log.Events)
	s.JumpCount = len(jumps)
	s.JumpMean = common.Mean(jumps)
	s.JumpMedian = common.Median(jumps)
	s.JumpMin, s.JumpMax = common.MinMax(jumps)
	s.JumpStdDev = common.StdDev(jumps)

	queues := []int64{}
	for _, e := range log.Events {
		if e.HasQueue {
			queues = append(queues, int64(e.QueueLength))
		}
	}
	s.Receives = len(queues)
	s.AvgQueueLength = common.Mean(queues)

	return s
}

// FromArchive computes the statistics of a node from its event archive. The
// result matches Summarize on the log written in the same run.
func FromArchive(c *archive.Contents) NodeSummary {
	log := &Log{
		NodeID:   c.Startup.NodeID,
		TickRate: c.Startup.TickRate,
	}

	for _, r := range c.Records {
		e := Event{
			Clock:      r.Clock,
			SystemTime: r.SystemTime(),
		}
		if r.Kind == events.Receive {
			e.QueueLength = r.QueueLength
			e.HasQueue = true
		}
		log.Events = append(log.Events, e)
	}

	for _, d := range c.Deliveries {
		if d.Failed() {
			log.Errors++
		}
	}

	return Summarize(c.Startup.NodeID, log)
}

// RunReport holds the statistics of one run.
type RunReport struct {
	Name  string
	Nodes []NodeSummary
	// Drift is the spread of the final clocks.
	Drift uint64
	// Missing lists the nodes that were asked for but have no log.
	Missing []string
}

// NewRunReport computes the drift of a set of node summaries.
func NewRunReport(name string, nodes []NodeSummary) *RunReport {
	r := &RunReport{
		Name:  name,
		Nodes: nodes,
	}

	if len(nodes) > 0 {
		lo, hi := nodes[0].FinalClock, nodes[0].FinalClock
		for _, n := range nodes[1:] {
			if n.FinalClock < lo {
				lo = n.FinalClock
			}
			if n.FinalClock > hi {
				hi = n.FinalClock
			}
		}
		r.Drift = hi - lo
	}

	return r
}

// AnalyzeRun summarises the logs <id>_log.txt found in dir. Without ids,
// every log file of the directory is used. Missing logs are skipped and
// listed in the report.
func AnalyzeRun(dir string, ids []string) (*RunReport, error) {
	if len(ids) == 0 {
		var err error
		if ids, err = discover(dir); err != nil {
			return nil, err
		}
	}

	nodes := []NodeSummary{}
	missing := []string{}

	for _, id := range ids {
		path := events.LogFile(dir, id)

		log, err := ParseLogFile(path)
		if os.IsNotExist(err) {
			missing = append(missing, id)
			continue
		}
		if err != nil {
			return nil, err
		}

		nodes = append(nodes, Summarize(id, log))
	}

	r := NewRunReport(filepath.Base(dir), nodes)
	r.Missing = missing
	return r, nil
}

// discover returns the ids of the log files in dir, sorted.
func discover(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+events.LogFileSuffix))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no log files in %s", dir)
	}

	ids := []string{}
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(filepath.Base(m), events.LogFileSuffix))
	}
	sort.Strings(ids)
	return ids, nil
}
