package analysis

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// WriteReport writes a text report of the runs. With more than one run it
// ends with the mean drift across runs.
func WriteReport(w io.Writer, reports ...*RunReport) error {
	for i, r := range reports {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writeRun(w, r); err != nil {
			return err
		}
	}

	if len(reports) > 1 {
		var total float64
		for _, r := range reports {
			total += float64(r.Drift)
		}
		if _, err := fmt.Fprintf(w, "\nMean drift over %d runs: %.2f\n",
			len(reports), total/float64(len(reports))); err != nil {
			return err
		}
	}

	return nil
}

func writeRun(w io.Writer, r *RunReport) error {
	fmt.Fprintf(w, "=== %s ===\n", r.Name)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "node\ttick rate\tevents\treceives\terrors\tfinal clock\tjump mean\tjump median\tjump min\tjump max\tjump stddev\tavg queue")
	for _, n := range r.Nodes {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%.2f\t%d\t%d\t%d\t%.2f\t%.2f\n",
			n.Node, n.TickRate, n.Events, n.Receives, n.Errors, n.FinalClock,
			n.JumpMean, n.JumpMedian, n.JumpMin, n.JumpMax, n.JumpStdDev, n.AvgQueueLength)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Missing) > 0 {
		fmt.Fprintf(w, "Missing logs: %s\n", strings.Join(r.Missing, ", "))
	}

	_, err := fmt.Fprintf(w, "Drift (max final clock - min final clock): %d\n", r.Drift)
	return err
}
