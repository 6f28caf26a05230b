package commands

import (
	"fmt"
	"strings"

	"github.com/mosaicnetworks/driftsim/src/analysis"
	"github.com/mosaicnetworks/driftsim/src/archive"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	nodes    string
	archives bool
}

//NewAnalyzeCmd returns the command that reports on finished runs
func NewAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <run-dir>...",
		Short: "Report clock jumps, queue lengths and drift of finished runs",
		Long: `Report clock jumps, queue lengths and drift of finished runs.

Each argument is a directory holding <id>_log.txt files. With --archive, each
argument is the event archive of one node instead, and all of them are
reported together as a single run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return analyze(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.nodes, "nodes", "", "Comma separated node ids, every log of the directory when empty")
	cmd.Flags().BoolVar(&opts.archives, "archive", false, "Arguments are event archives")

	return cmd
}

func analyze(cmd *cobra.Command, opts *analyzeOptions, args []string) error {
	if opts.archives {
		return analyzeArchives(cmd, args)
	}

	var ids []string
	for _, id := range strings.Split(opts.nodes, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	reports := []*analysis.RunReport{}
	for _, dir := range args {
		r, err := analysis.AnalyzeRun(dir, ids)
		if err != nil {
			return err
		}
		reports = append(reports, r)
	}

	return analysis.WriteReport(cmd.OutOrStdout(), reports...)
}

func analyzeArchives(cmd *cobra.Command, paths []string) error {
	logger := logrus.New()
	logger.Level = logrus.WarnLevel
	logger.Out = cmd.ErrOrStderr()

	nodes := []analysis.NodeSummary{}
	for _, path := range paths {
		contents, err := archive.Load(path, logrus.NewEntry(logger))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		nodes = append(nodes, analysis.FromArchive(contents))
	}

	return analysis.WriteReport(cmd.OutOrStdout(), analysis.NewRunReport("archives", nodes))
}
